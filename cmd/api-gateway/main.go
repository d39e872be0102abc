package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-records-api/api/swagger"
	"github.com/noah-isme/school-records-api/internal/handler"
	"github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/repository"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/cache"
	"github.com/noah-isme/school-records-api/pkg/config"
	"github.com/noah-isme/school-records-api/pkg/database"
	"github.com/noah-isme/school-records-api/pkg/jobs"
	"github.com/noah-isme/school-records-api/pkg/listquery"
	"github.com/noah-isme/school-records-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-records-api/pkg/middleware/requestid"
)

// @title School Records API
// @version 1.0.0
// @description Students, classes, enrollments, grades and users with filterable lists, exports and a live dashboard.
// @BasePath /api
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()

	builder := &listquery.Builder{OnSkip: func(path string, err error) {
		logr.Debug("list filter dropped", zap.String("field", path), zap.Error(err))
	}}
	listOpts := []repository.ListOption{repository.WithBuilder(builder), repository.WithObserver(metrics)}

	studentRepo := repository.NewStudentRepository(db, listOpts...)
	classRepo := repository.NewClassRepository(db, listOpts...)
	roleRepo := repository.NewRoleRepository(db, listOpts...)
	userRepo := repository.NewUserRepository(db, listOpts...)
	enrollmentRepo := repository.NewEnrollmentRepository(db, listOpts...)
	gradeRepo := repository.NewGradeRepository(db, listOpts...)
	auditRepo := repository.NewAuditRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "school-records", logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.ListCache.TTL, logr, cfg.ListCache.Enabled && redisClient != nil)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Store:   dashboardRepo,
		Audit:   auditRepo,
		Metrics: metrics,
		Logger:  logr,
		Config:  service.DashboardServiceConfig{IncludeRawData: cfg.Dashboard.IncludeRawData},
	})

	refreshQueue := jobs.NewQueue("dashboard-refresh", service.DashboardRefreshHandler(dashboardSvc), jobs.QueueConfig{
		Workers:    cfg.Dashboard.RefreshWorkers,
		BufferSize: 64,
		MaxRetries: cfg.Dashboard.RefreshRetries,
		RetryDelay: cfg.Dashboard.RefreshDelay,
		Coalesce:   true,
		Logger:     logr,
	})
	refreshQueue.Start(ctx)
	defer refreshQueue.Stop()

	deps := service.EntityDeps{
		Validate: service.NewValidator(),
		Cache:    cacheSvc,
		Audit:    auditRepo,
		Notifier: service.NewDashboardNotifier(refreshQueue, logr),
		Logger:   logr,
	}

	authSvc := service.NewAuthService(userRepo, deps.Validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		RefreshTokenSecret: cfg.JWT.RefreshSecret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	handlers := handler.Handlers{
		Auth: handler.NewAuthHandler(authSvc, handler.CookieOptions{
			Domain:   cfg.Cookie.Domain,
			Secure:   cfg.Cookie.Secure,
			SameSite: handler.ParseSameSite(cfg.Cookie.SameSite),
		}),
		Students:    handler.NewStudentHandler(service.NewStudentService(studentRepo, deps)),
		Classes:     handler.NewClassHandler(service.NewClassService(classRepo, deps)),
		Roles:       handler.NewRoleHandler(service.NewRoleService(roleRepo, deps)),
		Users:       handler.NewUserHandler(service.NewUserService(userRepo, roleRepo, deps)),
		Enrollments: handler.NewEnrollmentHandler(service.NewEnrollmentService(enrollmentRepo, studentRepo, classRepo, deps)),
		Grades:      handler.NewGradeHandler(service.NewGradeService(gradeRepo, studentRepo, deps)),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, handler.StreamOptions{
			OriginPatterns: cfg.Dashboard.AllowedOrigins,
			QueueSize:      cfg.Dashboard.SubscriberQueue,
			WriteTimeout:   cfg.Dashboard.WriteTimeout,
		}, logr),
		Metrics: handler.NewMetricsHandler(metrics, db),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	opts := handler.RouteOptions{APIPrefix: cfg.APIPrefix, Tokens: authSvc}
	if cfg.RateLimit.Enabled {
		opts.RateLimit = middleware.RateLimit(cacheRepo, middleware.RateLimitConfig{
			Limit:  cfg.RateLimit.Limit,
			Window: cfg.RateLimit.Window,
			Logger: logr,
		})
	}
	handler.RegisterRoutes(r, handlers, opts)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Dashboard.RefreshOnStart {
		if _, err := dashboardSvc.Refresh(ctx); err != nil {
			logr.Warn("initial dashboard refresh failed", zap.Error(err))
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
