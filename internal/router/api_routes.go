package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"benefits-web/internal/config"
	"benefits-web/internal/draft"
	"benefits-web/internal/handler"
	"benefits-web/internal/middleware"
	"benefits-web/internal/repository"
	"benefits-web/internal/service"
	"benefits-web/internal/undo"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redisClient *redis.Client,
	cfg *config.Config,
) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	beneficiaryRepo := repository.NewBeneficiaryRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	importRepo := repository.NewImportRepository(db)

	// Draft and undo stores fall back to process memory without Redis
	var draftStore draft.Store
	var snapshotStore undo.Store
	if redisClient != nil {
		draftStore = draft.NewRedisStore(redisClient, cfg.DraftTTL)
		snapshotStore = undo.NewRedisStore(redisClient, cfg.UndoWindow)
	} else {
		draftStore = draft.NewMemoryStore()
		snapshotStore = undo.NewMemoryStore(cfg.UndoWindow)
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg)
	provisioningService := service.NewProvisioningService(userRepo)
	excelService := service.NewExcelService()
	csvService := service.NewCSVService()
	wizardService := service.NewWizardService(companyRepo, userRepo, accessRepo, draftStore, snapshotStore)
	claimsService := service.NewClaimsService(billingRepo, importRepo)
	importService := service.NewImportService(importRepo, billingRepo, wizardService, csvService, claimsService, cfg)
	seedService := service.NewSeedService(userRepo, companyRepo, accessRepo)

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, provisioningService)
	companyHandler := handler.NewCompanyHandler(companyRepo)
	beneficiaryHandler := handler.NewBeneficiaryHandler(beneficiaryRepo, companyRepo)
	accessHandler := handler.NewAccessHandler(accessRepo)
	billingHandler := handler.NewBillingHandler(billingRepo, excelService, cfg)
	wizardHandler := handler.NewWizardHandler(wizardService, cfg.AutosaveDelay)
	importHandler := handler.NewImportHandler(importService, excelService, asynqClient)
	seedHandler := handler.NewSeedHandler(seedService)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	// Auth routes
	protected.Get("/auth/me", authHandler.Me)
	protected.Post("/auth/register", middleware.AdminOnly(), authHandler.Register)
	protected.Post("/users/provision", middleware.AdminOnly(), authHandler.Provision)

	// Company routes
	companies := protected.Group("/companies")
	companies.Get("/", companyHandler.GetCompanies)
	companies.Get("/:id", companyHandler.GetCompany)
	companies.Get("/:id/contracts", billingHandler.GetContracts)
	companies.Post("/", companyHandler.CreateCompany)
	companies.Put("/:id", companyHandler.UpdateCompany)
	companies.Delete("/:id", companyHandler.DeleteCompany)

	// Beneficiary routes
	beneficiaries := protected.Group("/beneficiaries")
	beneficiaries.Get("/", beneficiaryHandler.GetBeneficiaries)
	beneficiaries.Get("/:id", beneficiaryHandler.GetBeneficiary)
	beneficiaries.Post("/", beneficiaryHandler.CreateBeneficiary)
	beneficiaries.Put("/:id", beneficiaryHandler.UpdateBeneficiary)
	beneficiaries.Delete("/:id", beneficiaryHandler.DeleteBeneficiary)

	// Access routes
	profiles := protected.Group("/profiles")
	profiles.Get("/", accessHandler.GetProfiles)
	profiles.Post("/", accessHandler.CreateProfile)
	protected.Get("/users/:id/assignments", accessHandler.GetUserAssignments)
	protected.Delete("/assignments/:id", accessHandler.DeleteAssignment)

	// Billing routes
	billing := protected.Group("/billing")
	billing.Get("/invoices", billingHandler.GetInvoices)
	billing.Get("/claims", billingHandler.GetClaims)
	billing.Get("/claims/export", billingHandler.ExportClaims)

	// Wizard routes
	wizard := protected.Group("/wizard")
	wizard.Get("/steps", wizardHandler.GetSteps)
	wizard.Get("/:step/columns", wizardHandler.GetColumns)
	wizard.Post("/:step/validate", wizardHandler.ValidateRows)
	wizard.Get("/:step/draft", wizardHandler.GetDraft)
	wizard.Put("/:step/draft", wizardHandler.SaveDraft)
	wizard.Delete("/:step/draft", wizardHandler.ClearDraft)
	wizard.Post("/:step/draft/resolve", wizardHandler.ResolveDraft)
	wizard.Post("/:step/preview", wizardHandler.Preview)
	wizard.Post("/:step/apply", wizardHandler.Apply)
	wizard.Post("/undo/:snapshot_id", wizardHandler.Undo)
	wizard.Delete("/undo/:snapshot_id", wizardHandler.DismissUndo)

	// Import routes
	imports := protected.Group("/imports")
	imports.Get("/", importHandler.GetJobs)
	imports.Post("/", importHandler.Upload)
	imports.Get("/template/:step", importHandler.Template)
	imports.Get("/:id", importHandler.GetJob)
	imports.Get("/:id/rows", importHandler.GetRows)
	imports.Put("/:id/rows", importHandler.EditRow)
	imports.Post("/:id/approve", importHandler.Approve)
	imports.Post("/:id/reject", importHandler.Reject)
	imports.Post("/:id/undo", middleware.AdminOnly(), importHandler.UndoClaims)
	imports.Get("/:id/export", importHandler.Export)

	// Admin routes
	protected.Post("/seed/demo", middleware.AdminOnly(), seedHandler.SeedDemo)
	protected.Delete("/seed/demo", middleware.AdminOnly(), seedHandler.CleanupDemo)
}
