package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"benefits-web/internal/middleware"
	"benefits-web/internal/models"
	"benefits-web/internal/service"
	"benefits-web/internal/utils"
)

// ImportHandler runs the central importer and the claims importer: file
// upload, background analysis, preview with row edits, approval and
// rejection
type ImportHandler struct {
	importService *service.ImportService
	excelService  *service.ExcelService
	asynqClient   *asynq.Client
}

func NewImportHandler(importService *service.ImportService, excelService *service.ExcelService, asynqClient *asynq.Client) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		excelService:  excelService,
		asynqClient:   asynqClient,
	}
}

type analyzeTaskPayload struct {
	JobID      int    `json:"job_id"`
	PastedText string `json:"pasted_text,omitempty"`
}

// Upload registers an import job from a multipart file or pasted text
// and queues its analysis
func (h *ImportHandler) Upload(c *fiber.Ctx) error {
	var req models.ImportAnalyzeRequest
	req.Kind = c.FormValue("kind")
	req.Step = c.FormValue("step")
	req.PastedText = c.FormValue("pasted_text")
	req.PDFMode = c.FormValue("pdf_mode")
	if v := c.FormValue("company_id"); v != "" {
		companyID, err := strconv.Atoi(v)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid company ID", err)
		}
		req.CompanyID = &companyID
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	var fileHeader *multipart.FileHeader
	if fh, err := c.FormFile("file"); err == nil {
		fileHeader = fh
	}

	userID := middleware.CurrentUserID(c)

	var job *models.ImportJob
	var err error
	if fileHeader != nil {
		file, openErr := fileHeader.Open()
		if openErr != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", openErr)
		}
		defer file.Close()
		job, err = h.importService.CreateJob(req, userID, fileHeader.Filename, file)
	} else {
		job, err = h.importService.CreateJob(req, userID, "", nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	if h.asynqClient == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Background job processing is not available (Redis not connected)", nil)
	}

	payload, _ := json.Marshal(analyzeTaskPayload{JobID: job.ID, PastedText: req.PastedText})
	task := asynq.NewTask("import:analyze", payload)
	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue analysis task", err)
	}

	return utils.SuccessResponse(c, "Import job created", fiber.Map{
		"job":     job,
		"task_id": info.ID,
	})
}

func (h *ImportHandler) GetJobs(c *fiber.Ctx) error {
	params := utils.GetPaginationParams(c)
	offset := utils.GetOffset(params.Page, params.Limit)
	kind := c.Query("kind")

	jobs, total, err := h.importService.GetJobs(params.Limit, offset, kind, 0)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve import jobs", err)
	}

	pagination := utils.CalculatePagination(params.Page, params.Limit, int64(total))
	return utils.PaginatedResponseBuilder(c, "Import jobs retrieved successfully", fiber.Map{
		"jobs":       jobs,
		"pagination": pagination,
	}, pagination)
}

func (h *ImportHandler) GetJob(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}
	return utils.SuccessResponse(c, "Import job retrieved successfully", job)
}

func (h *ImportHandler) GetRows(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}

	rows, err := h.importService.GetRows(job.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve rows", err)
	}

	return utils.SuccessResponse(c, "Rows retrieved successfully", fiber.Map{
		"job":  job,
		"rows": rows,
	})
}

// EditRow applies a hand correction to one staged row while the job is
// in preview
func (h *ImportHandler) EditRow(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}

	var req models.ImportRowEditRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	row, summary, err := h.importService.EditRow(job.ID, req)
	if err != nil {
		if errors.Is(err, service.ErrJobNotEditable) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Import job is not in preview", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update row", err)
	}

	return utils.SuccessResponse(c, "Row updated", fiber.Map{
		"row":     row,
		"summary": summary,
	})
}

// Approve queues the batch apply of a previewed job
func (h *ImportHandler) Approve(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}
	if job.Status != models.ImportStatusPreview {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Import job is not in preview", nil)
	}

	if h.asynqClient == nil {
		return utils.ErrorResponse(c, fiber.StatusServiceUnavailable, "Background job processing is not available (Redis not connected)", nil)
	}

	payload, _ := json.Marshal(analyzeTaskPayload{JobID: job.ID})
	task := asynq.NewTask("import:approve", payload)
	info, err := h.asynqClient.Enqueue(task)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue apply task", err)
	}

	return utils.SuccessResponse(c, "Apply queued", fiber.Map{
		"job":     job,
		"task_id": info.ID,
	})
}

func (h *ImportHandler) Reject(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}

	if err := h.importService.Reject(job.ID); err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return utils.ErrorResponse(c, fiber.StatusConflict, err.Error(), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reject import job", err)
	}

	return utils.SuccessResponse(c, "Import job rejected", nil)
}

// UndoClaims deletes what a finished claims import wrote
func (h *ImportHandler) UndoClaims(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}

	removed, err := h.importService.UndoClaims(job.ID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTransition) {
			return utils.ErrorResponse(c, fiber.StatusConflict, "Import job is not done", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), nil)
	}

	return utils.SuccessResponse(c, "Claims import undone", fiber.Map{
		"claims_removed": removed,
	})
}

// Template serves the header-only sample CSV for a wizard step
func (h *ImportHandler) Template(c *fiber.Ctx) error {
	step := c.Params("step")

	var buf bytes.Buffer
	if err := h.importService.WriteTemplateCSV(step, &buf); err != nil {
		if errors.Is(err, service.ErrUnknownStep) {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown step", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build template", err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="modelo_`+step+`.csv"`)
	return c.Send(buf.Bytes())
}

// Export writes the staged rows to an Excel file and serves it
func (h *ImportHandler) Export(c *fiber.Ctx) error {
	job, err := h.jobFromParams(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Import job not found", err)
	}

	outputPath, err := h.importService.ExportErrorReport(job, h.excelService)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export rows", err)
	}

	return c.Download(outputPath, job.JobCode+"_rows.xlsx")
}

func (h *ImportHandler) jobFromParams(c *fiber.Ctx) (*models.ImportJob, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err == nil {
		return h.importService.GetJob(id)
	}
	return h.importService.GetJobByCode(c.Params("id"))
}
