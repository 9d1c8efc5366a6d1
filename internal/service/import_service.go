package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"benefits-web/internal/config"
	"benefits-web/internal/grid"
	"benefits-web/internal/models"
	"benefits-web/internal/repository"
)

var (
	ErrInvalidTransition = errors.New("invalid import status transition")
	ErrJobNotEditable    = errors.New("import job is not in preview")
)

// allowedTransitions is the import pipeline: a failed analysis falls
// back to uploaded, a failed apply falls back to preview, row edits
// bounce through saving.
var allowedTransitions = map[string][]string{
	models.ImportStatusUploaded:  {models.ImportStatusAnalyzing},
	models.ImportStatusAnalyzing: {models.ImportStatusPreview, models.ImportStatusUploaded},
	models.ImportStatusPreview:   {models.ImportStatusSaving, models.ImportStatusApplying, models.ImportStatusRejected},
	models.ImportStatusSaving:    {models.ImportStatusPreview},
	models.ImportStatusApplying:  {models.ImportStatusDone, models.ImportStatusPreview},
}

// CanTransition reports whether from -> to is a legal pipeline move
func CanTransition(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type ImportService struct {
	importRepo  *repository.ImportRepository
	billingRepo *repository.BillingRepository
	wizard      *WizardService
	csv         *CSVService
	claims      *ClaimsService
	cfg         *config.Config
}

func NewImportService(
	importRepo *repository.ImportRepository,
	billingRepo *repository.BillingRepository,
	wizard *WizardService,
	csv *CSVService,
	claims *ClaimsService,
	cfg *config.Config,
) *ImportService {
	return &ImportService{
		importRepo:  importRepo,
		billingRepo: billingRepo,
		wizard:      wizard,
		csv:         csv,
		claims:      claims,
		cfg:         cfg,
	}
}

// WriteTemplateCSV writes the header-only sample CSV for a wizard step.
func (s *ImportService) WriteTemplateCSV(step string, w io.Writer) error {
	def, err := s.wizard.stepDef(step)
	if err != nil {
		return err
	}
	return s.csv.WriteTemplate(w, def.Columns)
}

// CreateJob stages the uploaded file and registers the job in the
// uploaded state. Analysis runs in the worker.
func (s *ImportService) CreateJob(req models.ImportAnalyzeRequest, userID int, filename string, file io.Reader) (*models.ImportJob, error) {
	if req.Kind == models.ImportKindCentral && req.Step == "" {
		return nil, errors.New("central imports require a wizard step")
	}
	if req.Kind == models.ImportKindCentral {
		if _, err := s.wizard.stepDef(req.Step); err != nil {
			return nil, err
		}
	}

	jobCode := "IMP-" + uuid.New().String()[:8]

	filePath := ""
	if file != nil {
		if err := os.MkdirAll(s.cfg.UploadPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
		filePath = filepath.Join(s.cfg.UploadPath, jobCode+"_"+filepath.Base(filename))
		dst, err := os.Create(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		if _, err := io.Copy(dst, file); err != nil {
			dst.Close()
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		dst.Close()
	} else if strings.TrimSpace(req.PastedText) == "" {
		return nil, errors.New("either a file or pasted text is required")
	}

	pdfMode := req.PDFMode
	if req.Kind == models.ImportKindClaimsPDF && pdfMode == "" {
		pdfMode = models.PDFModeServerFallback
	}

	job := &models.ImportJob{
		JobCode:   jobCode,
		Kind:      req.Kind,
		Step:      req.Step,
		CompanyID: req.CompanyID,
		UserID:    userID,
		Filename:  filename,
		FilePath:  filePath,
		PDFMode:   pdfMode,
		Status:    models.ImportStatusUploaded,
	}
	if err := s.importRepo.CreateJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// Transition moves a job along the pipeline, guarding against illegal
// jumps
func (s *ImportService) Transition(job *models.ImportJob, to, errorMessage string) error {
	if !CanTransition(job.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, to)
	}
	if err := s.importRepo.UpdateJobStatus(job.ID, to, errorMessage); err != nil {
		return err
	}
	job.Status = to
	job.ErrorMessage = errorMessage
	return nil
}

// Analyze parses the staged input, validates every row and moves the
// job to preview. On failure the job falls back to uploaded with the
// error recorded, so the upload can be retried or rejected.
func (s *ImportService) Analyze(ctx context.Context, jobID int, pastedText string) error {
	job, err := s.importRepo.GetJobByID(jobID)
	if err != nil {
		return err
	}

	if err := s.Transition(job, models.ImportStatusAnalyzing, ""); err != nil {
		return err
	}

	stagedRows, analyzeErr := s.extractRows(ctx, job, pastedText)
	if analyzeErr != nil {
		_ = s.Transition(job, models.ImportStatusUploaded, analyzeErr.Error())
		return analyzeErr
	}

	// Re-analysis replaces any previously staged rows
	if err := s.importRepo.DeleteRowsByJob(job.ID); err != nil {
		_ = s.Transition(job, models.ImportStatusUploaded, err.Error())
		return err
	}
	if err := s.importRepo.BulkInsertRows(stagedRows, s.cfg.BatchSize); err != nil {
		_ = s.Transition(job, models.ImportStatusUploaded, err.Error())
		return err
	}

	summary := summarize(stagedRows)
	job.TotalRows = summary.TotalRows
	job.ValidRows = summary.ValidRows
	job.WarningRows = summary.WarningRows
	job.ErrorRows = summary.ErrorRows
	if err := s.importRepo.UpdateJobCounts(job); err != nil {
		return err
	}

	return s.Transition(job, models.ImportStatusPreview, "")
}

func (s *ImportService) extractRows(ctx context.Context, job *models.ImportJob, pastedText string) ([]models.ImportJobRow, error) {
	switch job.Kind {
	case models.ImportKindCentral:
		return s.extractCentralRows(job, pastedText)
	case models.ImportKindClaimsPDF:
		return s.claims.ExtractRows(ctx, job, pastedText)
	}
	return nil, fmt.Errorf("unknown import kind %q", job.Kind)
}

func (s *ImportService) extractCentralRows(job *models.ImportJob, pastedText string) ([]models.ImportJobRow, error) {
	def, err := s.wizard.stepDef(job.Step)
	if err != nil {
		return nil, err
	}

	var fieldMaps []map[string]string
	if job.FilePath != "" {
		f, err := os.Open(job.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open staged file: %w", err)
		}
		defer f.Close()
		fieldMaps, err = s.csv.ParseFile(f, def.Columns)
		if err != nil {
			return nil, err
		}
	} else {
		g := grid.New(def.Columns)
		defer g.Stop()
		if n := g.Paste(pastedText); n == 0 {
			return nil, errors.New("pasted text contains no rows")
		}
		for _, row := range g.Rows() {
			fieldMaps = append(fieldMaps, row.Fields)
		}
	}

	return s.stageFieldMaps(job, def, fieldMaps), nil
}

func (s *ImportService) stageFieldMaps(job *models.ImportJob, def stepDef, fieldMaps []map[string]string) []models.ImportJobRow {
	g := grid.New(def.Columns)
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
	return staged
}

// EditRow saves a hand correction of one staged row while the job sits
// in preview, re-validating the row, and returns the refreshed counts
func (s *ImportService) EditRow(jobID int, req models.ImportRowEditRequest) (*models.ImportJobRow, *models.ImportSummary, error) {
	job, err := s.importRepo.GetJobByID(jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status != models.ImportStatusPreview {
		return nil, nil, ErrJobNotEditable
	}

	row, err := s.importRepo.GetRowByID(req.RowID)
	if err != nil {
		return nil, nil, err
	}
	if row.JobID != job.ID {
		return nil, nil, errors.New("row does not belong to this job")
	}

	if err := s.Transition(job, models.ImportStatusSaving, ""); err != nil {
		return nil, nil, err
	}

	def, defErr := s.wizard.stepDef(job.Step)
	columns := s.claims.Columns()
	if defErr == nil {
		columns = def.Columns
	}

	g := grid.New(columns)
	id := g.AddRow()
	for key, value := range req.Fields {
		_ = g.UpdateCell(id, key, value)
	}
	g.ValidateAll()
	validated := g.Rows()[0]
	g.Stop()

	row.Fields = models.JSONMap(validated.Fields)
	row.Errors = models.JSONMap(validated.Errors)
	row.Warnings = models.JSONMap(validated.Warnings)
	row.Status = models.ImportRowPending
	row.FailureReason = ""
	if err := s.importRepo.UpdateRowFields(row); err != nil {
		_ = s.Transition(job, models.ImportStatusPreview, "")
		return nil, nil, err
	}

	if err := s.Transition(job, models.ImportStatusPreview, ""); err != nil {
		return nil, nil, err
	}

	row.MarkDirty()
	summary, err := s.refreshCounts(job)
	if err != nil {
		return row, nil, err
	}
	return row, summary, nil
}

func (s *ImportService) refreshCounts(job *models.ImportJob) (*models.ImportSummary, error) {
	rows, err := s.importRepo.GetRowsByJob(job.ID)
	if err != nil {
		return nil, err
	}
	summary := summarize(rows)
	job.TotalRows = summary.TotalRows
	job.ValidRows = summary.ValidRows
	job.WarningRows = summary.WarningRows
	job.ErrorRows = summary.ErrorRows
	if err := s.importRepo.UpdateJobCounts(job); err != nil {
		return nil, err
	}
	return &summary, nil
}

func summarize(rows []models.ImportJobRow) models.ImportSummary {
	summary := models.ImportSummary{TotalRows: len(rows)}
	for _, row := range rows {
		switch {
		case len(row.Errors) > 0:
			summary.ErrorRows++
		case len(row.Warnings) > 0:
			summary.WarningRows++
		default:
			summary.ValidRows++
		}
	}
	return summary
}

// Approve commits the staged rows. Rows with errors are skipped; a row
// failure marks that row failed and the run keeps going. The job lands
// in done even with failed rows, matching the per-row reporting of the
// wizard apply.
func (s *ImportService) Approve(ctx context.Context, jobID int) error {
	job, err := s.importRepo.GetJobByID(jobID)
	if err != nil {
		return err
	}
	if err := s.Transition(job, models.ImportStatusApplying, ""); err != nil {
		return err
	}

	rows, err := s.importRepo.GetRowsByJob(job.ID)
	if err != nil {
		_ = s.Transition(job, models.ImportStatusPreview, err.Error())
		return err
	}

	applied, failed, applyErr := s.applyRows(ctx, job, rows)
	job.AppliedRows = applied
	job.FailedRows = failed
	_ = s.importRepo.UpdateJobCounts(job)

	if applyErr != nil {
		_ = s.Transition(job, models.ImportStatusPreview, applyErr.Error())
		return applyErr
	}
	return s.Transition(job, models.ImportStatusDone, "")
}

func (s *ImportService) applyRows(ctx context.Context, job *models.ImportJob, rows []models.ImportJobRow) (applied, failed int, err error) {
	switch job.Kind {
	case models.ImportKindClaimsPDF:
		return s.claims.ApplyRows(ctx, job, rows)
	case models.ImportKindCentral:
		return s.applyCentralRows(ctx, job, rows)
	}
	return 0, 0, fmt.Errorf("unknown import kind %q", job.Kind)
}

func (s *ImportService) applyCentralRows(ctx context.Context, job *models.ImportJob, rows []models.ImportJobRow) (applied, failed int, err error) {
	writer := s.wizard.writerFor(job.Step)
	if writer == nil {
		return 0, 0, ErrUnknownStep
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
		if _, createErr := writer.Create(ctx, row.Fields); createErr != nil {
			failed++
			_ = s.importRepo.UpdateRowStatus(row.ID, models.ImportRowFailed, createErr.Error())
			continue
		}
		applied++
		_ = s.importRepo.UpdateRowStatus(row.ID, models.ImportRowApplied, "")
	}
	return applied, failed, nil
}

// Reject abandons a previewed job and drops its staged rows
func (s *ImportService) Reject(jobID int) error {
	job, err := s.importRepo.GetJobByID(jobID)
	if err != nil {
		return err
	}
	if err := s.Transition(job, models.ImportStatusRejected, ""); err != nil {
		return err
	}
	return s.importRepo.DeleteRowsByJob(job.ID)
}

// UndoClaims deletes the claims a finished claims import wrote. The job
// stays done; row statuses flip back to pending so a re-approve can
// reapply them if needed.
func (s *ImportService) UndoClaims(jobID int) (int64, error) {
	job, err := s.importRepo.GetJobByID(jobID)
	if err != nil {
		return 0, err
	}
	if job.Kind != models.ImportKindClaimsPDF {
		return 0, errors.New("only claims imports can be undone")
	}
	if job.Status != models.ImportStatusDone {
		return 0, ErrInvalidTransition
	}

	removed, err := s.claims.UndoJob(job.ID)
	if err != nil {
		return 0, err
	}

	rows, err := s.importRepo.GetRowsByJob(job.ID)
	if err != nil {
		return removed, err
	}
	for _, row := range rows {
		if row.Status == models.ImportRowApplied {
			if err := s.importRepo.UpdateRowStatus(row.ID, models.ImportRowPending, ""); err != nil {
				return removed, err
			}
		}
	}
	return removed, nil
}

func (s *ImportService) GetJob(jobID int) (*models.ImportJob, error) {
	return s.importRepo.GetJobByID(jobID)
}

func (s *ImportService) GetJobByCode(code string) (*models.ImportJob, error) {
	return s.importRepo.GetJobByCode(code)
}

func (s *ImportService) GetJobs(limit, offset int, kind string, userID int) ([]models.ImportJob, int, error) {
	return s.importRepo.GetJobs(limit, offset, kind, userID)
}

func (s *ImportService) GetRows(jobID int) ([]models.ImportJobRow, error) {
	rows, err := s.importRepo.GetRowsByJob(jobID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].MarkDirty()
	}
	return rows, nil
}

// ExportErrorReport writes the staged rows of a job to an Excel file so
// problems can be fixed offline
func (s *ImportService) ExportErrorReport(job *models.ImportJob, excel *ExcelService) (string, error) {
	rows, err := s.importRepo.GetRowsByJob(job.ID)
	if err != nil {
		return "", err
	}

	columns := s.claims.Columns()
	if def, err := s.wizard.stepDef(job.Step); err == nil {
		columns = def.Columns
	}

	if err := os.MkdirAll(s.cfg.ExportPath, 0o755); err != nil {
		return "", err
	}
	outputPath := filepath.Join(s.cfg.ExportPath, job.JobCode+"_rows.xlsx")
	if err := excel.ExportJobRows(job, columns, rows, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}
