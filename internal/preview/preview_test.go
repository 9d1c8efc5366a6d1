package preview_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/grid"
	. "benefits-web/internal/preview"
	"benefits-web/internal/undo"
	"benefits-web/internal/utils"
)

func companyColumns() []grid.Column {
	return []grid.Column{
		{Key: "name", Title: "Razão Social", Required: true},
		{Key: "cnpj", Title: "CNPJ", Required: true, Normalize: utils.NormalizeCNPJ, Validator: func(v string) error {
			if !utils.IsValidCNPJ(v) {
				return errors.New("invalid CNPJ")
			}
			return nil
		}},
		{Key: "email", Title: "E-mail"},
	}
}

func companyClassifier(remote map[string]*RemoteRecord) *Classifier {
	return &Classifier{
		KeyField:  "cnpj",
		Normalize: utils.NormalizeCNPJ,
		Compare:   []string{"name", "email"},
		Lookup: func(_ context.Context, key string) (*RemoteRecord, error) {
			return remote[key], nil
		},
	}
}

func validRow(id, name, cnpj, email string) grid.Row {
	return grid.Row{ID: id, Fields: map[string]string{"name": name, "cnpj": cnpj, "email": email}}
}

func TestClassifyCreate(t *testing.T) {
	c := companyClassifier(nil)
	plans, summary, err := c.Classify(context.Background(), []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", "a@b.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, plans[0].Action)
	assert.Equal(t, Summary{Create: 1}, summary)
}

func TestClassifySkipIdentical(t *testing.T) {
	remote := map[string]*RemoteRecord{
		"11222333000181": {ID: "7", Fields: map[string]string{"name": "Empresa A", "email": "a@b.com"}},
	}
	c := companyClassifier(remote)
	plans, summary, err := c.Classify(context.Background(), []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", "a@b.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionSkip, plans[0].Action)
	assert.Equal(t, Summary{Skip: 1}, summary)
}

func TestClassifyUpdateOnDiff(t *testing.T) {
	remote := map[string]*RemoteRecord{
		"11222333000181": {ID: "7", Fields: map[string]string{"name": "Empresa A", "email": "old@b.com"}},
	}
	c := companyClassifier(remote)
	plans, _, err := c.Classify(context.Background(), []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", "new@b.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionUpdate, plans[0].Action)
	assert.Equal(t, []string{"email"}, plans[0].Changed)
	require.NotNil(t, plans[0].Match)
	assert.Equal(t, "7", plans[0].Match.ID)
}

func TestClassifyErrorPrecedence(t *testing.T) {
	// Local validation error wins even when the row matches remote exactly
	remote := map[string]*RemoteRecord{
		"11222333000181": {ID: "7", Fields: map[string]string{"name": "Empresa A"}},
	}
	c := companyClassifier(remote)

	row := validRow("r1", "Empresa A", "11222333000181", "")
	row.Errors = map[string]string{"email": "invalid email"}

	plans, summary, err := c.Classify(context.Background(), []grid.Row{row})
	require.NoError(t, err)
	assert.Equal(t, ActionError, plans[0].Action)
	assert.Equal(t, Summary{Error: 1}, summary)
}

func TestClassifyResolveFailure(t *testing.T) {
	c := companyClassifier(nil)
	c.Resolve = func(_ context.Context, row grid.Row) error {
		return errors.New("referenced company not found")
	}
	plans, _, err := c.Classify(context.Background(), []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", "a@b.com"),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionError, plans[0].Action)
	assert.Equal(t, "referenced company not found", plans[0].Reason)
}

func TestClassifyDuplicateInBatch(t *testing.T) {
	c := companyClassifier(nil)
	plans, summary, err := c.Classify(context.Background(), []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", ""),
		validRow("r2", "Empresa A again", "11.222.333/0001-81", ""),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionCreate, plans[0].Action)
	assert.Equal(t, ActionSkip, plans[1].Action)
	assert.Equal(t, Summary{Create: 1, Skip: 1}, summary)
}

type fakeWriter struct {
	nextID  int
	created []map[string]string
	updated map[string]map[string]string
	failOn  map[string]error // keyed by name field
}

func newTestWriter() *fakeWriter {
	return &fakeWriter{updated: map[string]map[string]string{}, failOn: map[string]error{}}
}

func (w *fakeWriter) Create(_ context.Context, fields map[string]string) (string, error) {
	if err := w.failOn[fields["name"]]; err != nil {
		return "", err
	}
	w.nextID++
	w.created = append(w.created, fields)
	return fmt.Sprintf("%d", w.nextID), nil
}

func (w *fakeWriter) Update(_ context.Context, entityID string, fields map[string]string) error {
	if err := w.failOn[fields["name"]]; err != nil {
		return err
	}
	w.updated[entityID] = fields
	return nil
}

func TestApplyRefusedWhenAllRowsError(t *testing.T) {
	a := &Applier{Writer: newTestWriter(), Step: "empresas", EntityKind: "company"}
	plans := []Plan{
		{RowID: "r1", Action: ActionError, Reason: "name: required"},
		{RowID: "r2", Action: ActionError, Reason: "cnpj: invalid CNPJ"},
	}
	_, err := a.Apply(context.Background(), nil, plans)
	assert.ErrorIs(t, err, ErrNothingToApply)
}

func TestApplyLeavesSkipAndErrorUntouched(t *testing.T) {
	w := newTestWriter()
	a := &Applier{Writer: w, Step: "empresas", EntityKind: "company"}

	rows := []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", ""),
		validRow("r2", "Empresa B", "40688134000161", ""),
	}
	plans := []Plan{
		{RowID: "r1", Action: ActionCreate},
		{RowID: "r2", Action: ActionSkip, Reason: "no changes"},
	}

	outcome, err := a.Apply(context.Background(), rows, plans)
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Skipped)
	assert.Len(t, w.created, 1)
}

func TestApplyPartialFailureKeepsSuccesses(t *testing.T) {
	w := newTestWriter()
	w.failOn["Empresa B"] = errors.New("permission denied")

	snapshots := undo.NewMemoryStore(undo.Window)
	a := &Applier{Writer: w, Snapshots: snapshots, Step: "empresas", EntityKind: "company"}

	rows := []grid.Row{
		validRow("r1", "Empresa A", "11222333000181", ""),
		validRow("r2", "Empresa B", "40688134000161", ""),
		validRow("r3", "Empresa C", "19131243000197", ""),
	}
	plans := []Plan{
		{RowID: "r1", Action: ActionCreate},
		{RowID: "r2", Action: ActionCreate},
		{RowID: "r3", Action: ActionCreate},
	}

	outcome, err := a.Apply(context.Background(), rows, plans)
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, "permission denied", outcome.Results[1].Error)

	// Snapshot covers exactly the successful rows
	require.NotNil(t, outcome.Snapshot)
	assert.Len(t, outcome.Snapshot.Entries, 2)
}

// Full scenario: paste two valid rows and one missing a required field,
// validate, preview, apply, undo-snapshot bookkeeping.
func TestApplyEndToEnd(t *testing.T) {
	ctx := context.Background()

	g := grid.New(companyColumns())
	n := g.Paste("Empresa A;11.222.333/0001-81;a@empresa.com\n" +
		"Empresa B;40688134000161;b@empresa.com\n" +
		";19131243000197;c@empresa.com")
	require.Equal(t, 3, n)
	assert.False(t, g.ValidateAll())

	rows := g.Rows()
	c := companyClassifier(nil)
	plans, summary, err := c.Classify(ctx, rows)
	require.NoError(t, err)
	assert.Equal(t, Summary{Create: 2, Error: 1}, summary)

	snapshots := undo.NewMemoryStore(undo.Window)
	w := newTestWriter()
	a := &Applier{Writer: w, Snapshots: snapshots, Step: "empresas", EntityKind: "company"}

	start := time.Now()
	outcome, err := a.Apply(ctx, rows, plans)
	require.NoError(t, err)

	// Per-row status: success, success, error
	require.Len(t, outcome.Results, 3)
	assert.Equal(t, "success", outcome.Results[0].Status)
	assert.Equal(t, "success", outcome.Results[1].Status)
	assert.Equal(t, "error", outcome.Results[2].Status)

	// Snapshot covers exactly the two successes, expiring 120 s from apply
	require.NotNil(t, outcome.Snapshot)
	require.Len(t, outcome.Snapshot.Entries, 2)
	assert.WithinDuration(t, start.Add(120*time.Second), outcome.Snapshot.ExpiresAt, 2*time.Second)

	// The snapshot undoes the two creates
	snap, err := snapshots.Get(ctx, outcome.Snapshot.ID)
	require.NoError(t, err)
	result := undo.Execute(ctx, snap, &undoWriter{w: w})
	assert.Equal(t, 2, result.Succeeded)
	require.NoError(t, snapshots.Delete(ctx, snap.ID))
	_, err = snapshots.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, undo.ErrWindowClosed)
}

type undoWriter struct {
	w *fakeWriter
}

func (u *undoWriter) Delete(_ context.Context, _, entityID string) error {
	for i := range u.w.created {
		if fmt.Sprintf("%d", i+1) == entityID {
			u.w.created[i] = map[string]string{}
			return nil
		}
	}
	return errors.New("not found")
}

func (u *undoWriter) Restore(_ context.Context, _, entityID string, prior map[string]string) error {
	u.w.updated[entityID] = prior
	return nil
}
