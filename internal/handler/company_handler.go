package handler

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"benefits-web/internal/models"
	"benefits-web/internal/repository"
	"benefits-web/internal/utils"
)

type CompanyHandler struct {
	companyRepo *repository.CompanyRepository
}

func NewCompanyHandler(companyRepo *repository.CompanyRepository) *CompanyHandler {
	return &CompanyHandler{companyRepo: companyRepo}
}

func (h *CompanyHandler) GetCompanies(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)

	companies, total, err := h.companyRepo.GetCompanies(params.Limit, offset, params.Search)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve companies", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Companies retrieved successfully", fiber.Map{
		"companies":  companies,
		"pagination": pagination,
	}, pagination)
}

func (h *CompanyHandler) GetCompany(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", err)
	}

	company, err := h.companyRepo.FindByID(id)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Company not found", err)
	}

	return utils.SuccessResponse(c, "Company retrieved successfully", company)
}

func (h *CompanyHandler) CreateCompany(c *fiber.Ctx) error {
	var req models.CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	cnpj := utils.NormalizeCNPJ(req.CNPJ)
	if !utils.IsValidCNPJ(cnpj) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid CNPJ", nil)
	}
	if existing, _ := h.companyRepo.FindByCNPJ(cnpj); existing != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "CNPJ already registered", nil)
	}

	company := &models.Company{
		Name:      req.Name,
		TradeName: req.TradeName,
		CNPJ:      cnpj,
		Email:     req.Email,
		Phone:     utils.FormatPhone(req.Phone),
		City:      req.City,
		State:     strings.ToUpper(req.State),
		IsActive:  req.IsActive,
	}
	if err := h.companyRepo.Create(company); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create company", err)
	}

	return utils.SuccessResponse(c, "Company created successfully", company)
}

func (h *CompanyHandler) UpdateCompany(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", err)
	}

	company, err := h.companyRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Company not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve company", err)
	}

	var req models.CompanyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	cnpj := utils.NormalizeCNPJ(req.CNPJ)
	if !utils.IsValidCNPJ(cnpj) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid CNPJ", nil)
	}

	company.Name = req.Name
	company.TradeName = req.TradeName
	company.CNPJ = cnpj
	company.Email = req.Email
	company.Phone = utils.FormatPhone(req.Phone)
	company.City = req.City
	company.State = strings.ToUpper(req.State)
	company.IsActive = req.IsActive

	if err := h.companyRepo.Update(company); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update company", err)
	}

	return utils.SuccessResponse(c, "Company updated successfully", company)
}

func (h *CompanyHandler) DeleteCompany(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", err)
	}

	if _, err := h.companyRepo.FindByID(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Company not found", err)
	}
	if err := h.companyRepo.Delete(id); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete company", err)
	}

	return utils.SuccessResponse(c, "Company deleted successfully", nil)
}
