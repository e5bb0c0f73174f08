package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/veriport/bgv-api/api/swagger"
	"github.com/veriport/bgv-api/internal/handler"
	"github.com/veriport/bgv-api/internal/middleware"
	"github.com/veriport/bgv-api/internal/repository"
	"github.com/veriport/bgv-api/internal/service"
	"github.com/veriport/bgv-api/pkg/cache"
	"github.com/veriport/bgv-api/pkg/config"
	"github.com/veriport/bgv-api/pkg/database"
	"github.com/veriport/bgv-api/pkg/export"
	"github.com/veriport/bgv-api/pkg/logger"
	"github.com/veriport/bgv-api/pkg/mailer"
	corsmiddleware "github.com/veriport/bgv-api/pkg/middleware/cors"
	reqidmiddleware "github.com/veriport/bgv-api/pkg/middleware/requestid"
	"github.com/veriport/bgv-api/pkg/storage"
)

// @title Veriport BGV API
// @version 0.1.0
// @description Background verification case tracker and report pipeline
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, calendar cache disabled", "error", err)
		redisClient = nil
	}

	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("report storage init failed", "error", err)
	}

	validate := validator.New()

	// Repositories.
	dynamicStore := repository.NewDynamicStore(db, logr)
	caseRepo := repository.NewCaseRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	schemaRepo := repository.NewSchemaRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	calendarSvc := service.NewCalendarService(holidayRepo, cacheRepo, cfg.Calendar, logr)
	statusSvc := service.NewStatusService(dynamicStore, schemaRepo, logr)
	schemaSvc := service.NewSchemaService(schemaRepo)
	caseSvc := service.NewCaseService(caseRepo, calendarSvc, validate, logr)
	notifier := service.NewEmailNotifier(mailer.New(cfg.SMTP, logr), logr)
	reportSvc := service.NewReportService(caseRepo, dynamicStore, schemaRepo, export.NewPDFExporter(), reportStore, cfg.Reports, logr)
	trackerSvc := service.NewTrackerService(
		dynamicStore, caseRepo, statusSvc, notifier, reportSvc, userRepo, auditRepo,
		metricsSvc, cfg.Tracker, cfg.Reports, validate, logr)
	reminderSvc := service.NewReminderService(reminderRepo, statusSvc, notifier, metricsSvc, cfg.Reminder, logr)

	reminderSvc.Start(context.Background())
	defer reminderSvc.Stop()

	reportSvc.StartCleanup(context.Background())
	defer reportSvc.StopCleanup()

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	caseHandler := handler.NewCaseHandler(caseSvc)
	trackerHandler := handler.NewTrackerHandler(trackerSvc, caseSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	schemaHandler := handler.NewSchemaHandler(schemaSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Scrape)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		protected := api.Group("")
		protected.Use(middleware.JWT(authSvc))
		{
			protected.POST("/cases", caseHandler.Create)
			protected.GET("/cases", caseHandler.Lookup)
			protected.GET("/cases/:id", caseHandler.Get)
			protected.POST("/cases/:id/tracker", trackerHandler.Apply)
			protected.GET("/cases/:id/audit", trackerHandler.AuditTrail)
			protected.GET("/cases/:id/due-date", trackerHandler.DueDate)

			protected.GET("/holidays", calendarHandler.ListHolidays)
			protected.POST("/holidays", calendarHandler.CreateHoliday)
			protected.DELETE("/holidays/:id", calendarHandler.DeleteHoliday)
			protected.GET("/weekend-config", calendarHandler.GetWeekendConfig)
			protected.PUT("/weekend-config", calendarHandler.UpdateWeekendConfig)

			protected.GET("/service-schemas", schemaHandler.List)
			protected.GET("/service-schemas/:serviceId", schemaHandler.Get)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
