package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/draft"
	"benefits-web/internal/grid"
	"benefits-web/internal/preview"
	"benefits-web/internal/repository"
	"benefits-web/internal/undo"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func newMockWizardService(t *testing.T) (*WizardService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	svc := NewWizardService(
		repository.NewCompanyRepository(db),
		repository.NewUserRepository(db),
		repository.NewAccessRepository(db),
		draft.NewMemoryStore(),
		undo.NewMemoryStore(undo.Window),
	)
	return svc, mock
}

func TestUserApplyRecordsUndoSnapshot(t *testing.T) {
	svc, mock := newMockWizardService(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("Maria Souza", "maria@empresa.com", "maria@empresa.com", sqlmock.AnyArg(), "operator", nil, true).
		WillReturnResult(sqlmock.NewResult(7, 1))

	rows := []grid.Row{{
		ID: "r1",
		Fields: map[string]string{
			"full_name": "Maria Souza",
			"email":     "Maria@Empresa.com",
			"password":  "senha-forte",
		},
	}}
	plans := []preview.Plan{{RowID: "r1", Action: preview.ActionCreate}}

	outcome, err := svc.Apply(ctx, 1, StepUsers, rows, plans)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Succeeded)
	assert.Zero(t, outcome.Failed)

	require.NotNil(t, outcome.Snapshot)
	assert.Equal(t, StepUsers, outcome.Snapshot.Step)
	assert.Equal(t, "user", outcome.Snapshot.EntityKind)
	require.Len(t, outcome.Snapshot.Entries, 1)
	assert.Equal(t, undo.OpCreate, outcome.Snapshot.Entries[0].Op)
	assert.Equal(t, "7", outcome.Snapshot.Entries[0].EntityID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUndoDeletesCreatedAccount(t *testing.T) {
	svc, mock := newMockWizardService(t)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("DELETE FROM users").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows := []grid.Row{{
		ID: "r1",
		Fields: map[string]string{
			"full_name": "Maria Souza",
			"email":     "maria@empresa.com",
			"password":  "senha-forte",
		},
	}}
	plans := []preview.Plan{{RowID: "r1", Action: preview.ActionCreate}}

	outcome, err := svc.Apply(ctx, 1, StepUsers, rows, plans)
	require.NoError(t, err)
	require.NotNil(t, outcome.Snapshot)

	result, err := svc.Undo(ctx, outcome.Snapshot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Zero(t, result.Failed)

	// The snapshot is consumed by the undo
	_, err = svc.Undo(ctx, outcome.Snapshot.ID)
	assert.ErrorIs(t, err, undo.ErrWindowClosed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateResolvesCompanyCNPJ(t *testing.T) {
	svc, mock := newMockWizardService(t)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM companies WHERE cnpj").
		WithArgs("11222333000181").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "cnpj"}).
			AddRow(3, "Empresa Demo", "11222333000181"))
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Maria Souza", "maria@empresa.com", "maria@empresa.com", sqlmock.AnyArg(), "operator", 3, true).
		WillReturnResult(sqlmock.NewResult(8, 1))

	rows := []grid.Row{{
		ID: "r1",
		Fields: map[string]string{
			"full_name":    "Maria Souza",
			"email":        "maria@empresa.com",
			"password":     "senha-forte",
			"company_cnpj": "11.222.333/0001-81",
		},
	}}
	plans := []preview.Plan{{RowID: "r1", Action: preview.ActionCreate}}

	outcome, err := svc.Apply(ctx, 1, StepUsers, rows, plans)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Succeeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWizardDeleteKnowsAllEntityKinds(t *testing.T) {
	svc, mock := newMockWizardService(t)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM users").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Delete(ctx, "user", "7"))

	assert.Error(t, svc.Delete(ctx, "unknown", "1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
