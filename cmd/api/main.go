package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tripwise-in/tripwise-api/api/swagger"
	"github.com/tripwise-in/tripwise-api/internal/handler"
	"github.com/tripwise-in/tripwise-api/internal/middleware"
	"github.com/tripwise-in/tripwise-api/internal/models"
	"github.com/tripwise-in/tripwise-api/internal/repository"
	"github.com/tripwise-in/tripwise-api/internal/service"
	"github.com/tripwise-in/tripwise-api/pkg/cache"
	"github.com/tripwise-in/tripwise-api/pkg/config"
	"github.com/tripwise-in/tripwise-api/pkg/database"
	"github.com/tripwise-in/tripwise-api/pkg/export"
	"github.com/tripwise-in/tripwise-api/pkg/jobs"
	"github.com/tripwise-in/tripwise-api/pkg/logger"
	corsmiddleware "github.com/tripwise-in/tripwise-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tripwise-in/tripwise-api/pkg/middleware/requestid"
	"github.com/tripwise-in/tripwise-api/pkg/storage"
)

// @title TripWise API
// @version 1.0.0
// @description Tourism booking platform back office with response caching and a superadmin approval workflow
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Response cache.
	var responseCache *cache.MemoryStore
	if cfg.Cache.Enabled {
		responseCache = cache.NewMemoryStore(cfg.Cache.TTL, cfg.Cache.SweepInterval, logr)
		responseCache.Start(ctx)
		defer responseCache.Stop()
	}

	cacheEntries := func() int { return 0 }
	if responseCache != nil {
		cacheEntries = responseCache.Len
	}
	metricsService := service.NewMetricsService(cacheEntries)

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	stateRepo := repository.NewStateRepository(db)
	cityRepo := repository.NewCityRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	authService := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "tripwise-api",
	})

	packageService := service.NewPackageService(packageRepo, responseCache, validate, logr)
	stateService := service.NewStateService(stateRepo, cityRepo, responseCache, validate, logr)
	cityService := service.NewCityService(cityRepo, stateRepo, responseCache, validate, logr)
	articleService := service.NewArticleService(articleRepo, responseCache, validate, logr)

	appliers := map[models.ApprovalEntity]service.ApprovalApplier{
		models.ApprovalEntityPackage: service.NewPackageApplier(packageService),
		models.ApprovalEntityState:   service.NewStateApplier(stateService),
		models.ApprovalEntityCity:    service.NewCityApplier(cityService),
	}
	approvalService := service.NewApprovalService(approvalRepo, appliers, auditRepo, logr)

	pdfExporter := export.NewPDFExporter()
	bookingService := service.NewBookingService(bookingRepo, packageRepo, pdfExporter, auditRepo, responseCache, validate, logr)
	dashboardService := service.NewDashboardService(analyticsRepo, approvalRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	bookingService.SetDashboard(dashboardService)
	approvalService.SetDashboard(dashboardService)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	packageHandler := handler.NewPackageHandler(packageService, approvalService)
	stateHandler := handler.NewStateHandler(stateService, approvalService)
	cityHandler := handler.NewCityHandler(cityService, approvalService)
	articleHandler := handler.NewArticleHandler(articleService)
	approvalHandler := handler.NewApprovalHandler(approvalService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	cacheHandler := handler.NewCacheHandler(responseCache, logr)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	// Public surface, served through the response cache.
	public := api.Group("")
	if responseCache != nil {
		public.Use(middleware.ResponseCache(responseCache, metricsService, logr))
	}
	public.GET("/packages", packageHandler.List)
	public.GET("/packages/:id", packageHandler.Get)
	public.GET("/states", stateHandler.List)
	public.GET("/states/:id", stateHandler.Get)
	public.GET("/states/:id/cities", cityHandler.ListByState)
	public.GET("/cities", cityHandler.List)
	public.GET("/cities/:id", cityHandler.Get)
	public.GET("/articles", articleHandler.List)
	public.GET("/articles/:id", articleHandler.Get)
	public.GET("/track/:reference", bookingHandler.GetByReference)
	public.GET("/track/:reference/voucher", bookingHandler.VoucherByReference)

	api.POST("/bookings", bookingHandler.Create)

	// Auth.
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authService), authHandler.Me)

	// Admin surface.
	admin := api.Group("")
	admin.Use(middleware.JWT(authService))
	admin.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleSuperadmin))

	admin.POST("/packages", packageHandler.Create)
	admin.PUT("/packages/:id", packageHandler.Update)
	admin.DELETE("/packages/:id", packageHandler.Delete)
	admin.POST("/states", stateHandler.Create)
	admin.PUT("/states/:id", stateHandler.Update)
	admin.DELETE("/states/:id", stateHandler.Delete)
	admin.POST("/cities", cityHandler.Create)
	admin.PUT("/cities/:id", cityHandler.Update)
	admin.DELETE("/cities/:id", cityHandler.Delete)

	admin.POST("/articles", articleHandler.Create)
	admin.PUT("/articles/:id", articleHandler.Update)
	admin.DELETE("/articles/:id", articleHandler.Delete)

	admin.GET("/bookings", bookingHandler.List)
	admin.GET("/bookings/:id", bookingHandler.Get)
	admin.PATCH("/bookings/:id/status", bookingHandler.UpdateStatus)
	admin.GET("/bookings/:id/voucher", bookingHandler.Voucher)

	if cfg.Dashboard.Enabled {
		admin.GET("/dashboard/summary", dashboardHandler.Summary)
	}

	if cfg.Approvals.Enabled {
		admin.GET("/approvals", approvalHandler.List)
		admin.GET("/approvals/:id", approvalHandler.Get)
		admin.POST("/approvals/:id/approve", approvalHandler.Approve)
		admin.POST("/approvals/:id/reject", approvalHandler.Reject)
	}

	// Cache maintenance, superadmin only.
	cacheAdmin := api.Group("/admin/cache")
	cacheAdmin.Use(middleware.JWT(authService))
	cacheAdmin.Use(middleware.RequireRoles(models.RoleSuperadmin))
	cacheAdmin.POST("/invalidate", cacheHandler.Invalidate)
	cacheAdmin.POST("/flush", cacheHandler.Flush)
	cacheAdmin.GET("/stats", cacheHandler.Stats)

	// Async reports.
	if cfg.Reports.Enabled {
		reportStorage, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportService := service.NewReportService(reportRepo, bookingRepo, packageRepo, reportStorage, signer, logr)
		reportQueue := jobs.NewQueue("reports", reportService.Process, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		reportService.SetQueue(reportQueue)

		reportHandler := handler.NewReportHandler(reportService, reportStorage)
		admin.POST("/reports", reportHandler.Create)
		admin.GET("/reports/:id", reportHandler.Get)
		api.GET("/downloads/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env,
			"response_cache", cfg.Cache.Enabled, "approvals", cfg.Approvals.Enabled)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
