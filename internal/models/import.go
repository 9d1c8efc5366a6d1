package models

import (
	"sort"
	"time"
)

// Import job kinds
const (
	ImportKindCentral   = "central"    // CSV central importer
	ImportKindClaimsPDF = "claims_pdf" // operator claims report (sinistralidade)
)

// Import job statuses. The pipeline moves
// uploaded -> analyzing -> preview -> (saving <-> preview) -> applying -> done;
// a failure during analysis falls back to uploaded, a failure during
// save/apply falls back to preview. The last error is kept on the job row.
const (
	ImportStatusUploaded  = "uploaded"
	ImportStatusAnalyzing = "analyzing"
	ImportStatusPreview   = "preview"
	ImportStatusSaving    = "saving"
	ImportStatusApplying  = "applying"
	ImportStatusDone      = "done"
	ImportStatusRejected  = "rejected"
)

// PDF processing modes for the claims importer
const (
	PDFModeClientRendered = "client_rendered" // caller rasterized the pages
	PDFModeServerFallback = "server_fallback" // worker reads the stored file
)

type ImportJob struct {
	ID           int       `db:"id" json:"id"`
	JobCode      string    `db:"job_code" json:"job_code"`
	Kind         string    `db:"kind" json:"kind"`
	Step         string    `db:"step" json:"step"` // wizard step for central imports
	CompanyID    *int      `db:"company_id" json:"company_id"`
	UserID       int       `db:"user_id" json:"user_id"`
	Filename     string    `db:"filename" json:"filename"`
	FilePath     string    `db:"file_path" json:"file_path"`
	PDFMode      string    `db:"pdf_mode" json:"pdf_mode"`
	TotalRows    int       `db:"total_rows" json:"total_rows"`
	ValidRows    int       `db:"valid_rows" json:"valid_rows"`
	WarningRows  int       `db:"warning_rows" json:"warning_rows"`
	ErrorRows    int       `db:"error_rows" json:"error_rows"`
	AppliedRows  int       `db:"applied_rows" json:"applied_rows"`
	FailedRows   int       `db:"failed_rows" json:"failed_rows"`
	Status       string    `db:"status" json:"status"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ImportJobRow is one staged row of an import job. Fields and the
// per-field error/warning maps are stored as JSON; OriginalFields keeps
// the values the analyzer extracted so hand edits can be diffed.
type ImportJobRow struct {
	ID             int64     `db:"id" json:"id"`
	JobID          int       `db:"job_id" json:"job_id"`
	RowIndex       int       `db:"row_index" json:"row_index"`
	Fields         JSONMap   `db:"fields" json:"fields"`
	OriginalFields JSONMap   `db:"original_fields" json:"original_fields"`
	Errors         JSONMap   `db:"errors" json:"errors"`
	Warnings       JSONMap   `db:"warnings" json:"warnings"`
	Status         string    `db:"status" json:"status"` // pending, applied, failed, skipped
	FailureReason  string    `db:"failure_reason" json:"failure_reason"`
	Dirty          bool      `db:"-" json:"dirty"`
	ChangedKeys    []string  `db:"-" json:"changed_keys,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ChangedFields lists the field keys whose current value no longer
// matches the originally extracted one
func (r *ImportJobRow) ChangedFields() []string {
	keys := make(map[string]struct{}, len(r.Fields)+len(r.OriginalFields))
	for k := range r.Fields {
		keys[k] = struct{}{}
	}
	for k := range r.OriginalFields {
		keys[k] = struct{}{}
	}

	changed := make([]string, 0)
	for k := range keys {
		if r.Fields[k] != r.OriginalFields[k] {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// MarkDirty fills the computed dirty indicator before the row goes out
// in a response
func (r *ImportJobRow) MarkDirty() {
	r.ChangedKeys = r.ChangedFields()
	r.Dirty = len(r.ChangedKeys) > 0
}

// Staged row statuses
const (
	ImportRowPending = "pending"
	ImportRowApplied = "applied"
	ImportRowFailed  = "failed"
	ImportRowSkipped = "skipped"
)

type ImportAnalyzeRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=central claims_pdf"`
	Step       string `json:"step"`
	CompanyID  *int   `json:"company_id"`
	PastedText string `json:"pasted_text"`
	PDFMode    string `json:"pdf_mode" validate:"omitempty,oneof=client_rendered server_fallback"`
}

type ImportRowEditRequest struct {
	RowID  int64             `json:"row_id" validate:"required"`
	Fields map[string]string `json:"fields" validate:"required"`
}

// ImportSummary is returned with the preview so the caller can show counts
type ImportSummary struct {
	TotalRows   int `json:"total_rows"`
	ValidRows   int `json:"valid_rows"`
	WarningRows int `json:"warning_rows"`
	ErrorRows   int `json:"error_rows"`
}
