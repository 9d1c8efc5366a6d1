package models

import (
	"benefits-web/internal/grid"
	"benefits-web/internal/preview"
)

type WizardRowsRequest struct {
	Rows []grid.Row `json:"rows" validate:"required"`
}

type WizardApplyRequest struct {
	Rows  []grid.Row     `json:"rows" validate:"required"`
	Plans []preview.Plan `json:"plans" validate:"required"`
}

type DraftResolveRequest struct {
	Local  []grid.Row `json:"local"`
	Remote []grid.Row `json:"remote"`
}

type WizardPreviewResponse struct {
	Plans   []preview.Plan  `json:"plans"`
	Summary preview.Summary `json:"summary"`
}
