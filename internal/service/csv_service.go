package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"benefits-web/internal/grid"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVService reads and writes the semicolon-delimited files the central
// importer exchanges with spreadsheet users. Files are UTF-8 with a BOM
// so Excel opens them correctly.
type CSVService struct{}

func NewCSVService() *CSVService {
	return &CSVService{}
}

// ParseFile reads a central-import CSV into field maps keyed by column
// key. The header row is matched against column titles and keys,
// case-insensitively; unknown header cells are ignored.
func (s *CSVService) ParseFile(r io.Reader, columns []grid.Column) ([]map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	keyByIndex := s.mapHeader(records[0], columns)
	if len(keyByIndex) == 0 {
		return nil, fmt.Errorf("no recognized columns in header")
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		fields := make(map[string]string, len(keyByIndex))
		for idx, key := range keyByIndex {
			if idx < len(record) {
				fields[key] = strings.TrimSpace(record[idx])
			}
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

func (s *CSVService) mapHeader(header []string, columns []grid.Column) map[int]string {
	keyByIndex := make(map[int]string)
	for idx, cell := range header {
		cell = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(cell, string(utf8BOM))))
		if cell == "" {
			continue
		}
		for _, col := range columns {
			if cell == strings.ToLower(col.Key) || cell == strings.ToLower(col.Title) {
				keyByIndex[idx] = col.Key
				break
			}
		}
	}
	return keyByIndex
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// WriteTemplate writes a header-only CSV for one step, BOM included
func (s *CSVService) WriteTemplate(w io.Writer, columns []grid.Column) error {
	return s.write(w, columns, nil)
}

// WriteRows exports field maps back to CSV in column order
func (s *CSVService) WriteRows(w io.Writer, columns []grid.Column, rows []map[string]string) error {
	return s.write(w, columns, rows)
}

func (s *CSVService) write(w io.Writer, columns []grid.Column, rows []map[string]string) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = ';'

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Title
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, fields := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = fields[col.Key]
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
