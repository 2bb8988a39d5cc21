// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/handlers"
	"github.com/GabrielVictorica/inmogestor-backend/internal/middleware"
	"github.com/GabrielVictorica/inmogestor-backend/internal/services"
	"github.com/GabrielVictorica/inmogestor-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	rateService := services.NewRateService(db, cfg)
	storageService := services.NewStorageService(db, cfg)

	profileService := services.NewProfileService(db, cfg)
	organizationService := services.NewOrganizationService(db)
	transactionService := services.NewTransactionService(db, rateService, cfg)
	billingService := services.NewBillingService(db, cfg)
	closingService := services.NewClosingService(db, cfg)
	summaryService := services.NewSummaryService(db)
	paymentService := services.NewPaymentService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(profileService)
	profileHandler := handlers.NewProfileHandler(profileService)
	organizationHandler := handlers.NewOrganizationHandler(organizationService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	billingHandler := handlers.NewBillingHandler(billingService, paymentService, storageService, summaryService)
	adminHandler := handlers.NewAdminHandler(closingService, summaryService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Organization routes
		organizations := v1.Group("/organizations")
		organizations.Use(middleware.AuthRequired())
		{
			organizations.GET("", organizationHandler.GetOrganizations)
			organizations.GET("/:id", organizationHandler.GetOrganization)
			organizations.POST("", middleware.GodRequired(), organizationHandler.CreateOrganization)
			organizations.PATCH("/:id", middleware.GodRequired(), organizationHandler.UpdateOrganization)
			organizations.POST("/:id/suspend", middleware.GodRequired(), organizationHandler.SuspendOrganization)
		}

		// Profile routes
		profiles := v1.Group("/profiles")
		profiles.Use(middleware.AuthRequired())
		{
			profiles.GET("", profileHandler.GetProfiles)
			profiles.GET("/:id", profileHandler.GetProfile)
			profiles.POST("", profileHandler.CreateProfile)
			profiles.PATCH("/:id", profileHandler.UpdateProfile)
		}

		// Transaction routes
		transactions := v1.Group("/transactions")
		transactions.Use(middleware.AuthRequired())
		{
			transactions.GET("", transactionHandler.GetTransactions)
			transactions.GET("/:id", transactionHandler.GetTransaction)
			transactions.POST("", transactionHandler.CreateTransaction)
			transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
			transactions.DELETE("/:id", transactionHandler.DeleteTransaction)
		}

		// Billing routes
		billing := v1.Group("/billing")
		billing.Use(middleware.AuthRequired())
		{
			billing.GET("", billingHandler.GetBillingRecords)
			billing.GET("/:id", billingHandler.GetBillingRecord)
			billing.POST("", middleware.GodRequired(), billingHandler.CreateBillingRecord)
			billing.PATCH("/:id", middleware.GodRequired(), billingHandler.UpdateBillingRecord)
			billing.POST("/:id/cancel", middleware.GodRequired(), billingHandler.CancelBillingRecord)
			billing.GET("/summary/:organization_id", billingHandler.GetOrganizationDebt)
			billing.POST("/:id/payment-intent", billingHandler.CreatePaymentIntent)
			billing.POST("/:id/confirm-payment", billingHandler.ConfirmPayment)
			billing.POST("/:id/receipt", middleware.UploadRateLimit(), billingHandler.UploadReceipt)
		}

		// Platform operator routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.GodRequired())
		{
			admin.POST("/closing/run", middleware.ClosingRateLimit(), adminHandler.RunClosing)
			admin.GET("/closing/runs", adminHandler.GetClosingRuns)
			admin.GET("/billing/summary", adminHandler.GetDebtSummary)
			admin.GET("/stats", adminHandler.GetStats)
		}
	}

	return r
}
