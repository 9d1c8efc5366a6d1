package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/models"
)

func newMockImportRepository(t *testing.T) (*ImportRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewImportRepository(sqlx.NewDb(mockDB, "sqlmock")), mock
}

func stagedRows(n int) []models.ImportJobRow {
	rows := make([]models.ImportJobRow, n)
	for i := range rows {
		rows[i] = models.ImportJobRow{
			JobID:          1,
			RowIndex:       i,
			Fields:         models.JSONMap{"name": "Empresa"},
			OriginalFields: models.JSONMap{"name": "Empresa"},
			Errors:         models.JSONMap{},
			Warnings:       models.JSONMap{},
			Status:         models.ImportRowPending,
		}
	}
	return rows
}

func TestBulkInsertRowsChunks(t *testing.T) {
	repo, mock := newMockImportRepository(t)

	// 5 rows at chunk size 2: three statements of 2, 2 and 1 rows
	mock.ExpectExec("INSERT INTO import_job_rows").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO import_job_rows").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO import_job_rows").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.BulkInsertRows(stagedRows(5), 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertRowsDefaultChunk(t *testing.T) {
	repo, mock := newMockImportRepository(t)

	// A non-positive chunk size falls back to one sane batch
	mock.ExpectExec("INSERT INTO import_job_rows").WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.BulkInsertRows(stagedRows(3), 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertRowsEmpty(t *testing.T) {
	repo, mock := newMockImportRepository(t)
	require.NoError(t, repo.BulkInsertRows(nil, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}
