package service

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/repository"
)

func newMockSeedService(t *testing.T) (*SeedService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	svc := NewSeedService(
		repository.NewUserRepository(db),
		repository.NewCompanyRepository(db),
		repository.NewAccessRepository(db),
	)
	return svc, mock
}

func TestEnsureAdminCreatesMissingAccount(t *testing.T) {
	svc, mock := newMockSeedService(t)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("admin").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Administrador", "admin", "admin@localhost", sqlmock.AnyArg(), "admin", nil, true).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, svc.EnsureAdmin("admin", "super-secreta"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureAdminKeepsExistingAccount(t *testing.T) {
	svc, mock := newMockSeedService(t)

	rows := sqlmock.NewRows([]string{"id", "name", "username", "role", "is_active"}).
		AddRow(1, "Administrador", "admin", "admin", true)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE username").
		WithArgs("admin").
		WillReturnRows(rows)

	require.NoError(t, svc.EnsureAdmin("admin", "qualquer-coisa"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
