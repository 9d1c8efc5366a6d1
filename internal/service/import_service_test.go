package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"benefits-web/internal/models"
)

func TestCanTransitionPipeline(t *testing.T) {
	// The happy path
	assert.True(t, CanTransition(models.ImportStatusUploaded, models.ImportStatusAnalyzing))
	assert.True(t, CanTransition(models.ImportStatusAnalyzing, models.ImportStatusPreview))
	assert.True(t, CanTransition(models.ImportStatusPreview, models.ImportStatusApplying))
	assert.True(t, CanTransition(models.ImportStatusApplying, models.ImportStatusDone))

	// Row edits bounce preview <-> saving
	assert.True(t, CanTransition(models.ImportStatusPreview, models.ImportStatusSaving))
	assert.True(t, CanTransition(models.ImportStatusSaving, models.ImportStatusPreview))

	// Failure fallbacks
	assert.True(t, CanTransition(models.ImportStatusAnalyzing, models.ImportStatusUploaded))
	assert.True(t, CanTransition(models.ImportStatusApplying, models.ImportStatusPreview))

	// Rejection only from preview
	assert.True(t, CanTransition(models.ImportStatusPreview, models.ImportStatusRejected))
	assert.False(t, CanTransition(models.ImportStatusUploaded, models.ImportStatusRejected))
}

func TestCanTransitionBlocksJumps(t *testing.T) {
	assert.False(t, CanTransition(models.ImportStatusUploaded, models.ImportStatusPreview))
	assert.False(t, CanTransition(models.ImportStatusUploaded, models.ImportStatusApplying))
	assert.False(t, CanTransition(models.ImportStatusUploaded, models.ImportStatusDone))
	assert.False(t, CanTransition(models.ImportStatusAnalyzing, models.ImportStatusApplying))
	assert.False(t, CanTransition(models.ImportStatusSaving, models.ImportStatusApplying))
	assert.False(t, CanTransition(models.ImportStatusDone, models.ImportStatusPreview))
	assert.False(t, CanTransition(models.ImportStatusRejected, models.ImportStatusAnalyzing))
}

func TestSummarize(t *testing.T) {
	rows := []models.ImportJobRow{
		{Errors: models.JSONMap{}},
		{Errors: models.JSONMap{"cnpj": "invalid CNPJ"}},
		{Warnings: models.JSONMap{"phone": "unrecognized format"}},
		{},
	}
	summary := summarize(rows)
	assert.Equal(t, 4, summary.TotalRows)
	assert.Equal(t, 2, summary.ValidRows)
	assert.Equal(t, 1, summary.WarningRows)
	assert.Equal(t, 1, summary.ErrorRows)
}

func TestRowDirtyTracking(t *testing.T) {
	row := models.ImportJobRow{
		Fields:         models.JSONMap{"name": "Empresa A", "cnpj": "11222333000181"},
		OriginalFields: models.JSONMap{"name": "Empresa A", "cnpj": "11222333000181"},
	}
	row.MarkDirty()
	assert.False(t, row.Dirty)
	assert.Empty(t, row.ChangedKeys)

	// Edits and added fields both count against the parsed original
	row.Fields["name"] = "Empresa A Ltda"
	row.Fields["email"] = "contato@empresa.com"
	row.MarkDirty()
	assert.True(t, row.Dirty)
	assert.Equal(t, []string{"email", "name"}, row.ChangedKeys)
}
