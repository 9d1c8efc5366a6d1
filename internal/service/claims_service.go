package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"benefits-web/internal/grid"
	"benefits-web/internal/models"
	"benefits-web/internal/repository"
)

// ClaimsService turns operator claims reports (sinistralidade PDFs) into
// claim records. The browser renders the PDF and sends the extracted
// page text (client_rendered); when that is not possible the worker
// falls back to reading text objects straight out of the stored file
// (server_fallback), which only works for uncompressed text-based PDFs.
type ClaimsService struct {
	billingRepo *repository.BillingRepository
	importRepo  *repository.ImportRepository
}

func NewClaimsService(billingRepo *repository.BillingRepository, importRepo *repository.ImportRepository) *ClaimsService {
	return &ClaimsService{billingRepo: billingRepo, importRepo: importRepo}
}

// Columns defines the staged-row shape of a claims import
func (s *ClaimsService) Columns() []grid.Column {
	return []grid.Column{
		{Key: "competence", Title: "Competência", Required: true, Normalize: normalizeCompetence, Validator: competenceValidator},
		{Key: "event_date", Title: "Data do Evento", Validator: func(v string) error {
			if v == "" {
				return nil
			}
			if _, err := parseBRDate(v); err != nil {
				return errors.New("invalid date, expected DD/MM/YYYY")
			}
			return nil
		}},
		{Key: "procedure", Title: "Procedimento", Required: true},
		{Key: "provider", Title: "Prestador"},
		{Key: "amount", Title: "Valor", Required: true, Validator: func(v string) error {
			if _, err := parseBRAmount(v); err != nil {
				return errors.New("invalid amount")
			}
			return nil
		}},
	}
}

// ExtractRows analyzes a claims upload into staged rows. Client-rendered
// jobs carry the page text in the request; fallback jobs read the file.
func (s *ClaimsService) ExtractRows(_ context.Context, job *models.ImportJob, pageText string) ([]models.ImportJobRow, error) {
	if job.PDFMode == models.PDFModeServerFallback || strings.TrimSpace(pageText) == "" {
		extracted, err := s.extractFileText(job.FilePath)
		if err != nil {
			return nil, err
		}
		pageText = extracted
	}

	fieldMaps := s.parseReportText(pageText)
	if len(fieldMaps) == 0 {
		return nil, errors.New("no claim lines recognized in report")
	}

	g := grid.New(s.Columns())
	defer g.Stop()
	for _, fields := range fieldMaps {
		id := g.AddRow()
		for key, value := range fields {
			_ = g.UpdateCell(id, key, value)
		}
	}
	g.ValidateAll()

	rows := g.Rows()
	staged := make([]models.ImportJobRow, 0, len(rows))
	for i, row := range rows {
		staged = append(staged, models.ImportJobRow{
			JobID:          job.ID,
			RowIndex:       i,
			Fields:         models.JSONMap(row.Fields),
			OriginalFields: models.JSONMap(fieldMaps[i]),
			Errors:         models.JSONMap(row.Errors),
			Warnings:       models.JSONMap(row.Warnings),
			Status:         models.ImportRowPending,
		})
	}
	return staged, nil
}

// claimLinePattern matches free-text report lines:
// competence, optional event date, description, trailing amount
var claimLinePattern = regexp.MustCompile(`^(\d{2}/\d{4})\s+(?:(\d{2}/\d{2}/\d{4})\s+)?(.+?)\s+(R?\$?\s*[\d.]+,\d{2})$`)

// parseReportText accepts delimited lines (tab or semicolon, the shape
// produced by the browser-side extractor) and falls back to a pattern
// match for raw report text
func (s *ClaimsService) parseReportText(text string) []map[string]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var fieldMaps []map[string]string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if fields := parseDelimitedClaim(line); fields != nil {
			fieldMaps = append(fieldMaps, fields)
			continue
		}
		if fields := parseFreeTextClaim(line); fields != nil {
			fieldMaps = append(fieldMaps, fields)
		}
	}
	return fieldMaps
}

func parseDelimitedClaim(line string) map[string]string {
	var parts []string
	if strings.Contains(line, "\t") {
		parts = strings.Split(line, "\t")
	} else if strings.Contains(line, ";") {
		parts = strings.Split(line, ";")
	} else {
		return nil
	}
	if len(parts) < 5 {
		return nil
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	// Header lines repeat on every page of the report
	if strings.EqualFold(parts[0], "competência") || strings.EqualFold(parts[0], "competencia") {
		return nil
	}
	return map[string]string{
		"competence": parts[0],
		"event_date": parts[1],
		"procedure":  parts[2],
		"provider":   parts[3],
		"amount":     parts[4],
	}
}

func parseFreeTextClaim(line string) map[string]string {
	m := claimLinePattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	description := strings.TrimSpace(m[3])
	procedure, provider := description, ""
	// Two-or-more spaces separate procedure from provider in the report
	if idx := strings.Index(description, "  "); idx > 0 {
		procedure = strings.TrimSpace(description[:idx])
		provider = strings.TrimSpace(description[idx:])
	}
	return map[string]string{
		"competence": m[1],
		"event_date": m[2],
		"procedure":  procedure,
		"provider":   provider,
		"amount":     m[4],
	}
}

// pdfTextPattern pulls string operands of Tj/TJ show-text operators
var pdfTextPattern = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)

// extractFileText is the server fallback: it scans the raw PDF for
// uncompressed show-text operators. Compressed streams yield nothing and
// the job fails with a clear message instead of garbage rows.
func (s *ClaimsService) extractFileText(filePath string) (string, error) {
	if filePath == "" {
		return "", errors.New("no stored file to analyze")
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read stored file: %w", err)
	}

	matches := pdfTextPattern.FindAllSubmatch(data, -1)
	if len(matches) == 0 {
		return "", errors.New("could not extract text from PDF; re-upload with client-side rendering")
	}

	var b strings.Builder
	for _, m := range matches {
		b.WriteString(unescapePDFString(string(m[1])))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, "\n", `\r`, "", `\t`, " ")
	return replacer.Replace(s)
}

// ApplyRows inserts one claim per valid staged row. Error rows are
// skipped, individual insert failures mark the row failed and the run
// continues.
func (s *ClaimsService) ApplyRows(_ context.Context, job *models.ImportJob, rows []models.ImportJobRow) (applied, failed int, err error) {
	if job.CompanyID == nil {
		return 0, 0, errors.New("claims import requires a company")
	}

	for i := range rows {
		row := &rows[i]
		if row.Status == models.ImportRowApplied {
			applied++
			continue
		}
		if len(row.Errors) > 0 {
			failed++
			_ = s.importRepo.UpdateRowStatus(row.ID, models.ImportRowSkipped, firstMapValue(row.Errors))
			continue
		}

		claim, buildErr := s.buildClaim(job, row.Fields)
		if buildErr != nil {
			failed++
			_ = s.importRepo.UpdateRowStatus(row.ID, models.ImportRowFailed, buildErr.Error())
			continue
		}
		if insertErr := s.billingRepo.CreateClaim(claim); insertErr != nil {
			failed++
			_ = s.importRepo.UpdateRowStatus(row.ID, models.ImportRowFailed, insertErr.Error())
			continue
		}
		applied++
		_ = s.importRepo.UpdateRowStatus(row.ID, models.ImportRowApplied, "")
	}
	return applied, failed, nil
}

func (s *ClaimsService) buildClaim(job *models.ImportJob, fields map[string]string) (*models.Claim, error) {
	amount, err := parseBRAmount(fields["amount"])
	if err != nil {
		return nil, err
	}

	claim := &models.Claim{
		CompanyID:   *job.CompanyID,
		Competence:  normalizeCompetence(fields["competence"]),
		Procedure:   fields["procedure"],
		Provider:    fields["provider"],
		Amount:      amount,
		ImportJobID: &job.ID,
	}
	if v := fields["event_date"]; v != "" {
		eventDate, err := parseBRDate(v)
		if err != nil {
			return nil, err
		}
		claim.EventDate = &eventDate
	}
	return claim, nil
}

// UndoJob deletes everything one claims import wrote
func (s *ClaimsService) UndoJob(jobID int) (int64, error) {
	return s.billingRepo.DeleteClaimsByImportJob(jobID)
}

var (
	competenceBRPattern  = regexp.MustCompile(`^(\d{2})/(\d{4})$`)
	competenceISOPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

// normalizeCompetence canonicalizes MM/YYYY to YYYY-MM
func normalizeCompetence(v string) string {
	v = strings.TrimSpace(v)
	if m := competenceBRPattern.FindStringSubmatch(v); m != nil {
		return m[2] + "-" + m[1]
	}
	return v
}

func competenceValidator(v string) error {
	m := competenceISOPattern.FindStringSubmatch(v)
	if m == nil {
		return errors.New("invalid competence, expected MM/YYYY")
	}
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return errors.New("invalid competence month")
	}
	return nil
}

func parseBRDate(v string) (time.Time, error) {
	return time.Parse("02/01/2006", strings.TrimSpace(v))
}

// parseBRAmount reads Brazilian currency notation (1.234,56), with or
// without an R$ prefix
func parseBRAmount(v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "R$")
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, ".", "")
	v = strings.ReplaceAll(v, ",", ".")
	if v == "" {
		return decimal.Zero, errors.New("empty amount")
	}
	return decimal.NewFromString(v)
}
