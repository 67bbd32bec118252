package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"ikizamini_backend/internal/auth"
	"ikizamini_backend/internal/config"
	"ikizamini_backend/internal/gateway"
	"ikizamini_backend/internal/handlers"
	"ikizamini_backend/internal/logger"
	"ikizamini_backend/internal/middleware"
	"ikizamini_backend/internal/models"
	"ikizamini_backend/internal/repositories"
	"ikizamini_backend/internal/routes"
	"ikizamini_backend/internal/services"
	"ikizamini_backend/internal/validator"
	"ikizamini_backend/internal/workers"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := autoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	// Background sweeps: pending payments and subscription expiry
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	paymentWorker := workers.NewPaymentWorker(
		repositories.NewPaymentRepository(gormDB),
		repositories.NewSubscriptionRepository(gormDB),
		cfg,
	)
	paymentWorker.Start(workerCtx)
	logger.Info("Payment worker started",
		"sweep_interval_minutes", cfg.Payment.SweepIntervalMinutes,
		"pending_expiry_minutes", cfg.Payment.PendingExpiryMinutes,
	)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	serviceContainer := initializeServices(cfg, gormDB)
	appHandlers := initializeHandlers(serviceContainer, cfg)

	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository(gormDB)
	questionRepo := repositories.NewQuestionRepository(gormDB)
	examRepo := repositories.NewExamRepository(gormDB)
	subscriptionRepo := repositories.NewSubscriptionRepository(gormDB)
	paymentRepo := repositories.NewPaymentRepository(gormDB)

	paymentGateway := gateway.NewITECPay(cfg)

	entitlementService := services.NewEntitlementService(subscriptionRepo)
	samplerService := services.NewSamplerService(questionRepo, examRepo, cfg)

	return &services.ServiceContainer{
		AuthService:         services.NewAuthService(userRepo),
		EntitlementService:  entitlementService,
		SamplerService:      samplerService,
		ExamService:         services.NewExamService(examRepo, entitlementService, samplerService, cfg),
		SubscriptionService: services.NewSubscriptionService(subscriptionRepo),
		PaymentService:      services.NewPaymentService(paymentRepo, subscriptionRepo, paymentGateway),
		QuestionService:     services.NewQuestionService(questionRepo),
	}
}

func initializeHandlers(sc *services.ServiceContainer, cfg *config.Config) *handlers.AppHandlers {
	base := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(base, sc.AuthService),
		ExamHandler:         handlers.NewExamHandler(base, sc.ExamService, sc.EntitlementService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(base, sc.SubscriptionService),
		PaymentHandler:      handlers.NewPaymentHandler(base, sc.PaymentService, cfg),
		QuestionHandler:     handlers.NewQuestionHandler(base, sc.QuestionService),
	}
}

func initializeGinRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ginRouter := gin.New()
	ginRouter.Use(gin.Recovery())
	ginRouter.Use(middleware.RequestIDMiddleware())
	ginRouter.Use(middleware.LoggingMiddleware())
	ginRouter.Use(middleware.DBMiddleware(gormDB))

	return ginRouter
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.ExamAttempt{},
		&models.ExamAnswer{},
		&models.SubscriptionPlan{},
		&models.UserSubscription{},
		&models.Payment{},
		&models.DigitalProduct{},
		&models.Purchase{},
	)
}

// seedFirstAdmin creates the bootstrap admin account when the configured
// credentials are set and no admin exists yet.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.Admin.Email
	adminPassword := cfg.Admin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("Admin email or password not configured. Skipping admin seeding.")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", adminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for existing admin: %w", err)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         models.UserRoleAdmin,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Seeded first admin user", "email", adminEmail)
	return nil
}
