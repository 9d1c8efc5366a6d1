package undo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Window)

	entries := []Entry{
		{Op: OpCreate, EntityID: "10"},
		{Op: OpUpdate, EntityID: "11", Prior: map[string]string{"name": "old"}},
	}
	snap, err := s.Create(ctx, "empresas", "company", entries)
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, "empresas", snap.Step)

	// Expiry is 120 s from creation
	assert.WithinDuration(t, snap.CreatedAt.Add(Window), snap.ExpiresAt, time.Second)

	got, err := s.Get(ctx, snap.ID)
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
}

func TestSnapshotExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)

	snap, err := s.Create(ctx, "empresas", "company", []Entry{{Op: OpCreate, EntityID: "1"}})
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	// Expired but never removed: still gone from the caller's view
	_, err = s.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrWindowClosed)
}

func TestSnapshotDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Window)

	snap, _ := s.Create(ctx, "empresas", "company", []Entry{{Op: OpCreate, EntityID: "1"}})
	require.NoError(t, s.Delete(ctx, snap.ID))

	_, err := s.Get(ctx, snap.ID)
	assert.ErrorIs(t, err, ErrWindowClosed)
}

func TestSnapshotUnknownID(t *testing.T) {
	s := NewMemoryStore(Window)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrWindowClosed)
}

func TestSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(20 * time.Millisecond)

	_, _ = s.Create(ctx, "empresas", "company", []Entry{{Op: OpCreate, EntityID: "1"}})
	_, _ = s.Create(ctx, "usuarios", "user", []Entry{{Op: OpCreate, EntityID: "2"}})
	time.Sleep(40 * time.Millisecond)

	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

type fakeWriter struct {
	deleted  []string
	restored map[string]map[string]string
	failOn   map[string]error
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		restored: map[string]map[string]string{},
		failOn:   map[string]error{},
	}
}

func (w *fakeWriter) Delete(_ context.Context, _, entityID string) error {
	if err := w.failOn[entityID]; err != nil {
		return err
	}
	w.deleted = append(w.deleted, entityID)
	return nil
}

func (w *fakeWriter) Restore(_ context.Context, _, entityID string, prior map[string]string) error {
	if err := w.failOn[entityID]; err != nil {
		return err
	}
	w.restored[entityID] = prior
	return nil
}

func TestExecuteCompensatingCalls(t *testing.T) {
	ctx := context.Background()
	snap := &Snapshot{
		ID:         "snap-1",
		Step:       "empresas",
		EntityKind: "company",
		Entries: []Entry{
			{Op: OpCreate, EntityID: "10"},
			{Op: OpUpdate, EntityID: "11", Prior: map[string]string{"name": "old name"}},
		},
	}

	w := newFakeWriter()
	result := Execute(ctx, snap, w)

	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)

	// Create is reversed by delete, update by field-level restore
	assert.Equal(t, []string{"10"}, w.deleted)
	assert.Equal(t, map[string]string{"name": "old name"}, w.restored["11"])
}

func TestExecutePartialFailure(t *testing.T) {
	ctx := context.Background()
	snap := &Snapshot{
		ID:         "snap-2",
		Step:       "empresas",
		EntityKind: "company",
		Entries: []Entry{
			{Op: OpCreate, EntityID: "10"},
			{Op: OpCreate, EntityID: "11"},
			{Op: OpUpdate, EntityID: "12", Prior: map[string]string{"name": "x"}},
		},
	}

	w := newFakeWriter()
	w.failOn["11"] = errors.New("permission denied")

	result := Execute(ctx, snap, w)

	// The failure does not stop the remaining entries
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Entries, 3)
	assert.True(t, result.Entries[0].Success)
	assert.False(t, result.Entries[1].Success)
	assert.Equal(t, "permission denied", result.Entries[1].Error)
	assert.True(t, result.Entries[2].Success)
}
