package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"benefits-web/internal/models"
	"benefits-web/internal/repository"
	"benefits-web/internal/utils"
)

type AccessHandler struct {
	accessRepo *repository.AccessRepository
}

func NewAccessHandler(accessRepo *repository.AccessRepository) *AccessHandler {
	return &AccessHandler{accessRepo: accessRepo}
}

func (h *AccessHandler) GetProfiles(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	profiles, total, err := h.accessRepo.GetProfiles(params.Limit, offset, params.Search)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve profiles", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Profiles retrieved successfully", fiber.Map{
		"profiles":   profiles,
		"pagination": pagination,
	}, pagination)
}

func (h *AccessHandler) CreateProfile(c *fiber.Ctx) error {
	var req models.ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if existing, _ := h.accessRepo.FindProfileByName(req.Name); existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Profile already exists", nil)
	}

	profile := &models.Profile{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if err := h.accessRepo.CreateProfile(profile); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create profile", err)
	}

	return utils.SuccessResponse(c, "Profile created successfully", profile)
}

func (h *AccessHandler) GetUserAssignments(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid user ID", err)
	}

	assignments, err := h.accessRepo.GetAssignmentsByUser(userID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve assignments", err)
	}

	return utils.SuccessResponse(c, "Assignments retrieved successfully", assignments)
}

func (h *AccessHandler) DeleteAssignment(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid assignment ID", err)
	}

	if _, err := h.accessRepo.FindAssignmentByID(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Assignment not found", err)
	}
	if err := h.accessRepo.DeleteAssignment(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete assignment", err)
	}

	return utils.SuccessResponse(c, "Assignment deleted successfully", nil)
}
