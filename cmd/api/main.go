package main

import (
	"context"
	"encoding/json"
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
	"go.uber.org/zap"

	_ "github.com/firewatch-co/maintenance-api/api/swagger"
	"github.com/firewatch-co/maintenance-api/internal/dto"
	"github.com/firewatch-co/maintenance-api/internal/handler"
	"github.com/firewatch-co/maintenance-api/internal/repository"
	"github.com/firewatch-co/maintenance-api/internal/service"
	"github.com/firewatch-co/maintenance-api/pkg/cache"
	"github.com/firewatch-co/maintenance-api/pkg/config"
	"github.com/firewatch-co/maintenance-api/pkg/database"
	"github.com/firewatch-co/maintenance-api/pkg/jobs"
	"github.com/firewatch-co/maintenance-api/pkg/logger"
	corsmiddleware "github.com/firewatch-co/maintenance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/firewatch-co/maintenance-api/pkg/middleware/requestid"
)

// @title Firewatch Maintenance API
// @version 1.0.0
// @description Maintenance-visit planning for fire-safety service contracts
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, planner results will not be cached", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	companyRepo := repository.NewCompanyRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	contractRepo := repository.NewContractRepository(db)
	visitRepo := repository.NewVisitRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Planner.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:             cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "maintenance-api",
	})
	companySvc := service.NewCompanyService(companyRepo, cacheSvc, validate, logr)
	branchSvc := service.NewBranchService(branchRepo, companyRepo, validate, logr)
	contractSvc := service.NewContractService(contractRepo, companyRepo, branchRepo, validate, logr)
	visitSvc := service.NewVisitService(visitRepo, contractRepo, validate, logr)
	exportSvc := service.NewExportService(visitRepo, nil, nil, service.ExportConfig{MaxRows: cfg.Exports.MaxRows}, logr)
	plannerSvc := service.NewPlannerService(
		companyRepo, contractRepo, branchRepo, visitRepo, visitRepo,
		cacheRepo, metrics, validate, logr, cfg.Planner,
	)

	queue := jobs.NewQueue("planner", planJobHandler(plannerSvc, logr), jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Register(r, cfg.APIPrefix, handler.Deps{
		Auth:        handler.NewAuthHandler(authSvc),
		Companies:   handler.NewCompanyHandler(companySvc),
		Branches:    handler.NewBranchHandler(branchSvc),
		Contracts:   handler.NewContractHandler(contractSvc),
		Visits:      handler.NewVisitHandler(visitSvc, exportSvc),
		Planner:     handler.NewPlannerHandler(plannerSvc, queue),
		AuthService: authSvc,
		Metrics:     metrics,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// planJobHandler executes queued planning runs. The request payload
// round-trips through JSON because queue payloads are untyped.
func planJobHandler(planner *service.PlannerService, logr *zap.Logger) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		raw, err := json.Marshal(job.Payload)
		if err != nil {
			return fmt.Errorf("encode plan job payload: %w", err)
		}
		var req dto.PlanVisitsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return fmt.Errorf("decode plan job payload: %w", err)
		}

		result, err := planner.Plan(ctx, req)
		if err != nil {
			return err
		}
		logr.Sugar().Infow("queued planning run finished",
			"job_id", job.ID,
			"company_id", req.CompanyID,
			"run_id", result.RunID,
			"planned", result.Summary.Planned,
			"success", result.Success,
		)
		return nil
	}
}
