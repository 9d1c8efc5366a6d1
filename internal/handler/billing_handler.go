package handler

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"benefits-web/internal/config"
	"benefits-web/internal/repository"
	"benefits-web/internal/service"
	"benefits-web/internal/utils"
)

type BillingHandler struct {
	billingRepo  *repository.BillingRepository
	excelService *service.ExcelService
	cfg          *config.Config
}

func NewBillingHandler(billingRepo *repository.BillingRepository, excelService *service.ExcelService, cfg *config.Config) *BillingHandler {
	return &BillingHandler{
		billingRepo:  billingRepo,
		excelService: excelService,
		cfg:          cfg,
	}
}

func (h *BillingHandler) GetInvoices(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)
	companyID, _ := strconv.Atoi(c.Query("company_id", "0"))
	competence := c.Query("competence")

	invoices, total, err := h.billingRepo.GetInvoices(params.Limit, offset, companyID, competence)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve invoices", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Invoices retrieved successfully", fiber.Map{
		"invoices":   invoices,
		"pagination": pagination,
	}, pagination)
}

func (h *BillingHandler) GetClaims(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)
	companyID, _ := strconv.Atoi(c.Query("company_id", "0"))
	competence := c.Query("competence")

	claims, total, err := h.billingRepo.GetClaims(params.Limit, offset, companyID, competence)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve claims", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Claims retrieved successfully", fiber.Map{
		"claims":     claims,
		"pagination": pagination,
	}, pagination)
}

// ExportClaims writes the filtered claims to Excel and serves the file
func (h *BillingHandler) ExportClaims(c *fiber.Ctx) error {
	companyID, _ := strconv.Atoi(c.Query("company_id", "0"))
	competence := c.Query("competence")

	claims, _, err := h.billingRepo.GetClaims(10000, 0, companyID, competence)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve claims", err)
	}

	if err := os.MkdirAll(h.cfg.ExportPath, 0o755); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to prepare export directory", err)
	}
	outputPath := filepath.Join(h.cfg.ExportPath, "claims_export.xlsx")
	if err := h.excelService.ExportClaims(claims, outputPath); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export claims", err)
	}

	return c.Download(outputPath, "sinistros.xlsx")
}

func (h *BillingHandler) GetContracts(c *fiber.Ctx) error {
	companyID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", err)
	}

	contracts, err := h.billingRepo.GetContractsByCompany(companyID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve contracts", err)
	}

	return utils.SuccessResponse(c, "Contracts retrieved successfully", contracts)
}
