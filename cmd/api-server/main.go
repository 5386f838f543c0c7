package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smartasset/asset-api/api/swagger"
	"github.com/smartasset/asset-api/internal/handler"
	"github.com/smartasset/asset-api/internal/middleware"
	"github.com/smartasset/asset-api/internal/models"
	"github.com/smartasset/asset-api/internal/repository"
	"github.com/smartasset/asset-api/internal/service"
	"github.com/smartasset/asset-api/pkg/cache"
	"github.com/smartasset/asset-api/pkg/config"
	"github.com/smartasset/asset-api/pkg/database"
	"github.com/smartasset/asset-api/pkg/logger"
	corsmiddleware "github.com/smartasset/asset-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smartasset/asset-api/pkg/middleware/requestid"
	"github.com/smartasset/asset-api/pkg/storage"
)

// @title Smart Asset API
// @version 1.0.0
// @description Internal asset management backend
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.MigrateUp(db); err != nil {
			logr.Sugar().Fatalw("failed to run migrations", "error", err)
		}
	}

	avatarStore, err := storage.NewLocalStorage(cfg.Avatars.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init avatar storage", "error", err)
	}

	validate := validator.New()

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	var cacheSvc *service.CacheService
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	assetRepo := repository.NewAssetRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "asset-api",
		SingleSession:      cfg.JWT.SingleSession,
	})
	userSvc := service.NewUserService(userRepo, avatarStore, validate, logr, cfg.Avatars.PublicPath, cfg.Avatars.MaxFileSizeBytes)
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, logr)
	assetSvc := service.NewAssetService(assetRepo, userRepo, validate, logr)
	inventorySvc := service.NewInventoryService(inventoryRepo, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, assetRepo, userRepo, notificationSvc, validate, logr, cfg.Avatars.PublicPath)
	ticketSvc := service.NewTicketService(ticketRepo, assetRepo, userRepo, notificationSvc, validate, logr, cfg.Avatars.PublicPath)
	dashboardSvc := service.NewDashboardService(dashboardRepo, assignmentSvc, ticketSvc, cacheSvc, logr, cfg.Dashboard.CacheTTL, cfg.Dashboard.RecentActivityLimit)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	meHandler := handler.NewMeHandler(userSvc)
	assetHandler := handler.NewAssetHandler(assetSvc)
	inventoryHandler := handler.NewInventoryHandler(inventorySvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	ticketHandler := handler.NewTicketHandler(ticketSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(middleware.Metrics(metricsSvc))
	}

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	r.Static(cfg.Avatars.PublicPath, avatarStore.BaseDir())

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/password-reset", authHandler.ForgotPassword)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/me", meHandler.Get)
		protected.PATCH("/me", meHandler.Update)
		protected.POST("/me/avatar", meHandler.UploadAvatar)

		admin := middleware.RequireRoles(models.RoleAdmin)

		protected.GET("/users", admin, userHandler.List)
		protected.GET("/users/:id", admin, userHandler.Get)

		protected.GET("/assets", assetHandler.List)
		protected.GET("/assets/export", assetHandler.Export)
		protected.GET("/assets/:id", assetHandler.Get)
		protected.POST("/assets", admin, assetHandler.Create)
		protected.PUT("/assets/:id", admin, assetHandler.Update)
		protected.DELETE("/assets/:id", admin, assetHandler.Delete)

		protected.GET("/inventory", inventoryHandler.List)
		protected.GET("/inventory/:id", inventoryHandler.Get)
		protected.POST("/inventory", admin, inventoryHandler.Create)
		protected.PUT("/inventory/:id", admin, inventoryHandler.Update)
		protected.DELETE("/inventory/:id", admin, inventoryHandler.Delete)

		protected.GET("/assignments", assignmentHandler.List)
		protected.GET("/assignments/:id", assignmentHandler.Get)
		protected.POST("/assignments", admin, assignmentHandler.Create)
		protected.PATCH("/assignments/:id", admin, assignmentHandler.Update)
		protected.POST("/assignments/:id/request-return", assignmentHandler.RequestReturn)
		protected.POST("/assignments/:id/confirm-return", assignmentHandler.ConfirmReturn)

		protected.GET("/tickets", ticketHandler.List)
		protected.GET("/tickets/:id", ticketHandler.Get)
		protected.POST("/tickets", ticketHandler.Create)
		protected.PATCH("/tickets/:id", ticketHandler.Update)
		protected.POST("/tickets/:id/mark-done", ticketHandler.MarkDone)
		protected.POST("/tickets/:id/approve-close", ticketHandler.ApproveClose)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PATCH("/notifications/:id", notificationHandler.Update)
		protected.POST("/notifications/mark-all-read", notificationHandler.MarkAllRead)

		protected.GET("/dashboard", dashboardHandler.Stats)
		protected.GET("/recent-activity", dashboardHandler.RecentActivity)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
