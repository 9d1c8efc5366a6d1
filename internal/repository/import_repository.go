package repository

import (
	"fmt"

	"benefits-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type ImportRepository struct {
	db *sqlx.DB
}

func NewImportRepository(db *sqlx.DB) *ImportRepository {
	return &ImportRepository{db: db}
}

// Jobs

func (r *ImportRepository) CreateJob(job *models.ImportJob) error {
	query := `INSERT INTO import_jobs (job_code, kind, step, company_id, user_id,
	          filename, file_path, pdf_mode, total_rows, status)
	          VALUES (:job_code, :kind, :step, :company_id, :user_id,
	          :filename, :file_path, :pdf_mode, :total_rows, :status)`
	result, err := r.db.NamedExec(query, job)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	job.ID = int(id)
	return nil
}

func (r *ImportRepository) GetJobByID(id int) (*models.ImportJob, error) {
	var job models.ImportJob
	query := "SELECT * FROM import_jobs WHERE id = ? LIMIT 1"
	err := r.db.Get(&job, query, id)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportRepository) GetJobByCode(code string) (*models.ImportJob, error) {
	var job models.ImportJob
	query := "SELECT * FROM import_jobs WHERE job_code = ? LIMIT 1"
	err := r.db.Get(&job, query, code)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *ImportRepository) GetJobs(limit, offset int, kind string, userID int) ([]models.ImportJob, int, error) {
	var jobs []models.ImportJob
	var total int

	whereClause := "WHERE 1=1"
	args := []interface{}{}

	if kind != "" {
		whereClause += " AND kind = ?"
		args = append(args, kind)
	}
	if userID > 0 {
		whereClause += " AND user_id = ?"
		args = append(args, userID)
	}

	countQuery := "SELECT COUNT(*) FROM import_jobs " + whereClause
	err := r.db.Get(&total, countQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM import_jobs " + whereClause + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	err = r.db.Select(&jobs, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}

func (r *ImportRepository) UpdateJobStatus(id int, status, errorMessage string) error {
	query := "UPDATE import_jobs SET status = ?, error_message = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, errorMessage, id)
	return err
}

func (r *ImportRepository) UpdateJobCounts(job *models.ImportJob) error {
	query := `UPDATE import_jobs SET total_rows = :total_rows, valid_rows = :valid_rows,
	          warning_rows = :warning_rows, error_rows = :error_rows,
	          applied_rows = :applied_rows, failed_rows = :failed_rows WHERE id = :id`
	_, err := r.db.NamedExec(query, job)
	return err
}

// Staged rows

// BulkInsertRows writes staged rows in chunks to stay under the MySQL
// placeholder limit; chunkSize <= 0 uses a safe default
func (r *ImportRepository) BulkInsertRows(rows []models.ImportJobRow, chunkSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}

	for i := 0; i < len(rows); i += chunkSize {
		end := i + chunkSize
		if end > len(rows) {
			end = len(rows)
		}

		chunk := rows[i:end]

		query := `INSERT INTO import_job_rows (job_id, row_index, fields, original_fields,
		          errors, warnings, status, failure_reason)
		          VALUES (:job_id, :row_index, :fields, :original_fields,
		          :errors, :warnings, :status, :failure_reason)`

		_, err := r.db.NamedExec(query, chunk)
		if err != nil {
			return fmt.Errorf("error inserting rows %d-%d: %w", i+1, end, err)
		}
	}

	return nil
}

func (r *ImportRepository) GetRowByID(id int64) (*models.ImportJobRow, error) {
	var row models.ImportJobRow
	query := "SELECT * FROM import_job_rows WHERE id = ? LIMIT 1"
	err := r.db.Get(&row, query, id)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *ImportRepository) GetRowsByJob(jobID int) ([]models.ImportJobRow, error) {
	var rows []models.ImportJobRow
	query := "SELECT * FROM import_job_rows WHERE job_id = ? ORDER BY row_index ASC"
	err := r.db.Select(&rows, query, jobID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateRowFields saves a hand edit of one staged row together with its
// re-validation result
func (r *ImportRepository) UpdateRowFields(row *models.ImportJobRow) error {
	query := `UPDATE import_job_rows SET fields = :fields, errors = :errors,
	          warnings = :warnings, status = :status, failure_reason = :failure_reason
	          WHERE id = :id`
	_, err := r.db.NamedExec(query, row)
	return err
}

func (r *ImportRepository) UpdateRowStatus(id int64, status, failureReason string) error {
	query := "UPDATE import_job_rows SET status = ?, failure_reason = ? WHERE id = ?"
	_, err := r.db.Exec(query, status, failureReason, id)
	return err
}

func (r *ImportRepository) DeleteRowsByJob(jobID int) error {
	_, err := r.db.Exec("DELETE FROM import_job_rows WHERE job_id = ?", jobID)
	return err
}
