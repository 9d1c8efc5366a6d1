package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"benefits-web/internal/grid"
	"benefits-web/internal/middleware"
	"benefits-web/internal/models"
	"benefits-web/internal/preview"
	"benefits-web/internal/service"
	"benefits-web/internal/undo"
	"benefits-web/internal/utils"
)

// WizardHandler drives the registration wizard: per-step grids with
// draft autosave, preview classification, batch apply and timed undo
type WizardHandler struct {
	wizard        *service.WizardService
	autosaveDelay time.Duration
}

func NewWizardHandler(wizard *service.WizardService, autosaveDelay time.Duration) *WizardHandler {
	if autosaveDelay <= 0 {
		autosaveDelay = grid.DefaultAutosaveDelay
	}
	return &WizardHandler{wizard: wizard, autosaveDelay: autosaveDelay}
}

func (h *WizardHandler) GetSteps(c *fiber.Ctx) error {
	return utils.SuccessResponse(c, "Steps retrieved successfully", fiber.Map{
		"steps":             h.wizard.Steps(),
		"autosave_delay_ms": h.autosaveDelay.Milliseconds(),
	})
}

func (h *WizardHandler) GetColumns(c *fiber.Ctx) error {
	g, err := h.wizard.NewGrid(c.Params("step"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown wizard step", nil)
	}
	defer g.Stop()

	columns := g.Columns()
	out := make([]fiber.Map, 0, len(columns))
	for _, col := range columns {
		out = append(out, fiber.Map{
			"key":      col.Key,
			"title":    col.Title,
			"required": col.Required,
		})
	}
	return utils.SuccessResponse(c, "Columns retrieved successfully", fiber.Map{
		"columns":           out,
		"autosave_delay_ms": h.autosaveDelay.Milliseconds(),
	})
}

// ValidateRows re-runs every column validator over the posted rows and
// returns them annotated; the SPA calls this after paste and cell edits
func (h *WizardHandler) ValidateRows(c *fiber.Ctx) error {
	var req models.WizardRowsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	rows, err := h.wizard.ValidateRows(c.Params("step"), req.Rows)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown wizard step", nil)
	}
	return utils.SuccessResponse(c, "Rows validated", rows)
}

func (h *WizardHandler) SaveDraft(c *fiber.Ctx) error {
	var req models.WizardRowsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	userID := middleware.CurrentUserID(c)
	if err := h.wizard.SaveDraft(c.Context(), userID, c.Params("step"), req.Rows); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to save draft", err)
	}
	return utils.SuccessResponse(c, "Draft saved", nil)
}

func (h *WizardHandler) GetDraft(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	rows, offerRestore, err := h.wizard.LoadDraft(c.Context(), userID, c.Params("step"))
	if err != nil {
		if errors.Is(err, service.ErrUnknownStep) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown wizard step", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load draft", err)
	}

	return utils.SuccessResponse(c, "Draft retrieved successfully", fiber.Map{
		"rows":          rows,
		"found":         rows != nil,
		"offer_restore": offerRestore,
	})
}

func (h *WizardHandler) ClearDraft(c *fiber.Ctx) error {
	userID := middleware.CurrentUserID(c)
	if err := h.wizard.ClearDraft(c.Context(), userID, c.Params("step")); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to clear draft", err)
	}
	return utils.SuccessResponse(c, "Draft cleared", nil)
}

// ResolveDraft merges a restored draft with the current remote rows
// using the step's conflict policy
func (h *WizardHandler) ResolveDraft(c *fiber.Ctx) error {
	var req models.DraftResolveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	rows, err := h.wizard.ResolveDraft(c.Params("step"), req.Local, req.Remote)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown wizard step", nil)
	}
	return utils.SuccessResponse(c, "Draft resolved", rows)
}

func (h *WizardHandler) Preview(c *fiber.Ctx) error {
	var req models.WizardRowsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	plans, summary, err := h.wizard.Preview(c.Context(), c.Params("step"), req.Rows)
	if err != nil {
		if errors.Is(err, service.ErrUnknownStep) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown wizard step", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build preview", err)
	}

	return utils.SuccessResponse(c, "Preview built", models.WizardPreviewResponse{
		Plans:   plans,
		Summary: summary,
	})
}

func (h *WizardHandler) Apply(c *fiber.Ctx) error {
	var req models.WizardApplyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	userID := middleware.CurrentUserID(c)
	outcome, err := h.wizard.Apply(c.Context(), userID, c.Params("step"), req.Rows, req.Plans)
	if err != nil {
		if errors.Is(err, preview.ErrNothingToApply) {
			return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, err.Error(), nil)
		}
		if errors.Is(err, service.ErrUnknownStep) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown wizard step", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to apply batch", err)
	}

	return utils.SuccessResponse(c, "Batch applied", outcome)
}

func (h *WizardHandler) Undo(c *fiber.Ctx) error {
	result, err := h.wizard.Undo(c.Context(), c.Params("snapshot_id"))
	if err != nil {
		if errors.Is(err, undo.ErrWindowClosed) {
			return utils.ErrorResponse(c, fiber.StatusGone, "The undo window has closed", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to undo batch", err)
	}
	return utils.SuccessResponse(c, "Batch undone", result)
}

func (h *WizardHandler) DismissUndo(c *fiber.Ctx) error {
	if err := h.wizard.DismissUndo(c.Context(), c.Params("snapshot_id")); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to dismiss undo", err)
	}
	return utils.SuccessResponse(c, "Undo dismissed", nil)
}
