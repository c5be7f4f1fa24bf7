package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/api/swagger"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/handler"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/middleware"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/repository"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/internal/service"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/cache"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/config"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/database"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/jobs"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/logger"
	corsmiddleware "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/middleware/cors"
	reqidmiddleware "github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/middleware/requestid"
	"github.com/DarksouleaterXD/Sistema-De-Informacion-1-GYM/pkg/observability"
)

// @title Gym Scheduling API
// @version 1.0.0
// @description Class scheduling, enrollment admission and attendance for the gym.
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

	flush, err := observability.InitSentry(cfg.Sentry.DSN, cfg.Env, cfg.Sentry.Release)
	if err != nil {
		logr.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.NewPostgres(connectCtx, cfg.Database)
	cancelConnect()
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, statistics cache disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled)

	validate := validator.New()
	clock := service.NewClock(cfg.Scheduling.Location)

	roomRepo := repository.NewRoomRepository(db)
	sessionRepo := repository.NewClassSessionRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	}, logr)
	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	auditSvc.Start(auditCtx)

	statsSvc := service.NewStatisticsService(statsRepo, sessionRepo, cacheSvc, clock, service.StatisticsConfig{
		CacheTTL:          cfg.Stats.CacheTTL,
		ClientDefaultDays: cfg.Stats.ClientDefaultDays,
	}, logr)
	roomSvc := service.NewRoomService(roomRepo, auditSvc, validate, logr)
	schedulerSvc := service.NewSchedulerService(sessionRepo, referenceRepo, auditSvc, metrics, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(service.EnrollmentServiceDeps{
		Repo:       enrollmentRepo,
		Membership: membershipRepo,
		References: referenceRepo,
		Stats:      statsSvc,
		Audit:      auditSvc,
		Metrics:    metrics,
		Clock:      clock,
	}, validate, logr)
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceDeps{
		Repo:        attendanceRepo,
		Enrollments: enrollmentRepo,
		Sessions:    sessionRepo,
		Stats:       statsSvc,
		Audit:       auditSvc,
		Metrics:     metrics,
		Clock:       clock,
	}, validate, logr)
	exportSvc := service.NewExportService(attendanceSvc, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Leeway:            cfg.JWT.Leeway,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handler.Handlers{
		Metrics:    handler.NewMetricsHandler(metrics, db),
		Rooms:      handler.NewRoomHandler(roomSvc),
		Sessions:   handler.NewSessionHandler(schedulerSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc, exportSvc),
		Statistics: handler.NewStatisticsHandler(statsSvc),
		Audit:      handler.NewAuditHandler(auditSvc),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		logr.Error("server failed", zap.Error(err))
	case <-ctx.Done():
		logr.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
	auditSvc.Stop()
}
