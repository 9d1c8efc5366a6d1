package draft

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/grid"
	"benefits-web/internal/utils"
)

func row(id string, fields map[string]string) grid.Row {
	return grid.Row{ID: id, Fields: fields}
}

func TestMemoryStoreSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.Load(ctx, 1, "empresas")
	require.NoError(t, err)
	assert.False(t, found)

	rows := []grid.Row{row("a", map[string]string{"name": "Empresa A"})}
	require.NoError(t, s.Save(ctx, 1, "empresas", rows))

	loaded, found, err := s.Load(ctx, 1, "empresas")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Empresa A", loaded[0].Fields["name"])

	// Drafts are namespaced per step and per owner
	_, found, _ = s.Load(ctx, 1, "usuarios")
	assert.False(t, found)
	_, found, _ = s.Load(ctx, 2, "empresas")
	assert.False(t, found)

	require.NoError(t, s.Clear(ctx, 1, "empresas"))
	_, found, _ = s.Load(ctx, 1, "empresas")
	assert.False(t, found)
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Save(ctx, 1, "empresas", []grid.Row{row("a", map[string]string{"name": "X"})}))

	loaded, _, err := s.Load(ctx, 1, "empresas")
	require.NoError(t, err)
	loaded[0].Fields["name"] = "mutated"

	again, _, err := s.Load(ctx, 1, "empresas")
	require.NoError(t, err)
	assert.Equal(t, "X", again[0].Fields["name"])
}

func TestRestoreShownFlag(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	shown, err := s.WasRestoreShown(ctx, 1, "empresas")
	require.NoError(t, err)
	assert.False(t, shown)

	require.NoError(t, s.MarkRestoreShown(ctx, 1, "empresas"))
	shown, err = s.WasRestoreShown(ctx, 1, "empresas")
	require.NoError(t, err)
	assert.True(t, shown)

	// Per-step flag
	shown, _ = s.WasRestoreShown(ctx, 1, "usuarios")
	assert.False(t, shown)
}

func TestResolveReplace(t *testing.T) {
	local := []grid.Row{row("l1", map[string]string{"cnpj": "11222333000181"})}
	remote := []grid.Row{row("r1", map[string]string{"cnpj": "40688134000161"})}

	out := Resolve(PolicyReplace, local, remote, "cnpj", utils.NormalizeCNPJ)
	assert.Equal(t, remote, out)
}

func TestResolveKeep(t *testing.T) {
	local := []grid.Row{row("l1", map[string]string{"cnpj": "11222333000181"})}
	remote := []grid.Row{row("r1", map[string]string{"cnpj": "40688134000161"})}

	out := Resolve(PolicyKeep, local, remote, "cnpj", utils.NormalizeCNPJ)
	assert.Equal(t, local, out)
}

func TestResolveMerge(t *testing.T) {
	local := []grid.Row{
		row("l1", map[string]string{"cnpj": "11.222.333/0001-81", "name": "Local A"}),
	}
	remote := []grid.Row{
		// Same tax id under a different formatting: must not duplicate
		row("r1", map[string]string{"cnpj": "11222333000181", "name": "Remote A"}),
		row("r2", map[string]string{"cnpj": "40688134000161", "name": "Remote B"}),
	}

	out := Resolve(PolicyMerge, local, remote, "cnpj", utils.NormalizeCNPJ)
	require.Len(t, out, 2)
	assert.Equal(t, "Local A", out[0].Fields["name"])
	assert.Equal(t, "Remote B", out[1].Fields["name"])
}
