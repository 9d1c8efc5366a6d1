package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"benefits-web/internal/models"
	"benefits-web/internal/repository"
	"benefits-web/internal/utils"
)

type BeneficiaryHandler struct {
	beneficiaryRepo *repository.BeneficiaryRepository
	companyRepo     *repository.CompanyRepository
}

func NewBeneficiaryHandler(beneficiaryRepo *repository.BeneficiaryRepository, companyRepo *repository.CompanyRepository) *BeneficiaryHandler {
	return &BeneficiaryHandler{
		beneficiaryRepo: beneficiaryRepo,
		companyRepo:     companyRepo,
	}
}

func (h *BeneficiaryHandler) GetBeneficiaries(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)
	companyID, _ := strconv.Atoi(c.Query("company_id", "0"))

	beneficiaries, total, err := h.beneficiaryRepo.GetBeneficiaries(params.Limit, offset, companyID, params.Search)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve beneficiaries", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Beneficiaries retrieved successfully", fiber.Map{
		"beneficiaries": beneficiaries,
		"pagination":    pagination,
	}, pagination)
}

func (h *BeneficiaryHandler) GetBeneficiary(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid beneficiary ID", err)
	}

	beneficiary, err := h.beneficiaryRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Beneficiary not found", err)
	}

	return utils.SuccessResponse(c, "Beneficiary retrieved successfully", beneficiary)
}

func (h *BeneficiaryHandler) CreateBeneficiary(c *fiber.Ctx) error {
	var req models.BeneficiaryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if _, err := h.companyRepo.FindByID(req.CompanyID); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Company not found", nil)
	}

	beneficiary := &models.Beneficiary{
		CompanyID: req.CompanyID,
		FullName:  req.FullName,
		CPF:       req.CPF,
		Email:     req.Email,
		Phone:     utils.FormatPhone(req.Phone),
		PlanCode:  req.PlanCode,
		HolderID:  req.HolderID,
		IsActive:  req.IsActive,
	}
	if req.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid birth date, expected YYYY-MM-DD", nil)
		}
		beneficiary.BirthDate = &birthDate
	}

	if err := h.beneficiaryRepo.Create(beneficiary); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create beneficiary", err)
	}

	return utils.SuccessResponse(c, "Beneficiary created successfully", beneficiary)
}

func (h *BeneficiaryHandler) UpdateBeneficiary(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid beneficiary ID", err)
	}

	beneficiary, err := h.beneficiaryRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Beneficiary not found", err)
	}

	var req models.BeneficiaryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	beneficiary.CompanyID = req.CompanyID
	beneficiary.FullName = req.FullName
	beneficiary.CPF = req.CPF
	beneficiary.Email = req.Email
	beneficiary.Phone = utils.FormatPhone(req.Phone)
	beneficiary.PlanCode = req.PlanCode
	beneficiary.HolderID = req.HolderID
	beneficiary.IsActive = req.IsActive
	if req.BirthDate != "" {
		birthDate, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid birth date, expected YYYY-MM-DD", nil)
		}
		beneficiary.BirthDate = &birthDate
	}

	if err := h.beneficiaryRepo.Update(beneficiary); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update beneficiary", err)
	}

	return utils.SuccessResponse(c, "Beneficiary updated successfully", beneficiary)
}

func (h *BeneficiaryHandler) DeleteBeneficiary(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid beneficiary ID", err)
	}

	if _, err := h.beneficiaryRepo.FindByID(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Beneficiary not found", err)
	}
	if err := h.beneficiaryRepo.Delete(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete beneficiary", err)
	}

	return utils.SuccessResponse(c, "Beneficiary deleted successfully", nil)
}
