package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"benefits-web/internal/config"
	"benefits-web/internal/models"
	"benefits-web/internal/repository"
	"benefits-web/internal/service"
	"benefits-web/internal/utils"
)

// ImportTaskHandler runs the analyze and approve phases of import jobs
// in the background
type ImportTaskHandler struct {
	importService *service.ImportService
	importRepo    *repository.ImportRepository
	log           *logrus.Logger
}

func NewImportTaskHandler(db *sqlx.DB, redisClient *redis.Client, cfg *config.Config) *ImportTaskHandler {
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	importRepo := repository.NewImportRepository(db)

	// Worker-side wizard service only needs the row writers; drafts and
	// undo go through the web process
	wizardService := service.NewWizardService(companyRepo, userRepo, accessRepo, nil, nil)
	csvService := service.NewCSVService()
	claimsService := service.NewClaimsService(billingRepo, importRepo)
	importService := service.NewImportService(importRepo, billingRepo, wizardService, csvService, claimsService, cfg)

	return &ImportTaskHandler{
		importService: importService,
		importRepo:    importRepo,
		log:           utils.GetLogger(),
	}
}

type ImportTaskPayload struct {
	JobID      int    `json:"job_id"`
	PastedText string `json:"pasted_text,omitempty"`
}

func (h *ImportTaskHandler) HandleAnalyze(ctx context.Context, task *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	job, err := h.importRepo.GetJobByID(payload.JobID)
	if err != nil {
		return fmt.Errorf("failed to get import job: %w", err)
	}
	if job.Status != models.ImportStatusUploaded {
		h.log.WithFields(logrus.Fields{
			"job_code": job.JobCode,
			"status":   job.Status,
		}).Info("Skipping analysis, job is not in uploaded state")
		return nil
	}

	h.log.WithField("job_code", job.JobCode).Info("Analyzing import job")

	if err := h.importService.Analyze(ctx, payload.JobID, payload.PastedText); err != nil {
		h.log.WithFields(logrus.Fields{
			"job_code": job.JobCode,
			"error":    err.Error(),
		}).Warn("Import analysis failed")
		// The job already fell back to uploaded with the error recorded;
		// retrying the task would re-parse the same input
		return nil
	}

	h.log.WithField("job_code", job.JobCode).Info("Import job moved to preview")
	return nil
}

func (h *ImportTaskHandler) HandleApprove(ctx context.Context, task *asynq.Task) error {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	job, err := h.importRepo.GetJobByID(payload.JobID)
	if err != nil {
		return fmt.Errorf("failed to get import job: %w", err)
	}
	if job.Status != models.ImportStatusPreview {
		h.log.WithFields(logrus.Fields{
			"job_code": job.JobCode,
			"status":   job.Status,
		}).Info("Skipping apply, job is not in preview")
		return nil
	}

	h.log.WithField("job_code", job.JobCode).Info("Applying import job")

	if err := h.importService.Approve(ctx, payload.JobID); err != nil {
		h.log.WithFields(logrus.Fields{
			"job_code": job.JobCode,
			"error":    err.Error(),
		}).Warn("Import apply failed")
		return nil
	}

	h.log.WithField("job_code", job.JobCode).Info("Import job done")
	return nil
}
