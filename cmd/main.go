package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Atharrvac/vanadhikar-backend/internal/db"
	"github.com/Atharrvac/vanadhikar-backend/internal/handlers"
	"github.com/Atharrvac/vanadhikar-backend/internal/locking"
	"github.com/Atharrvac/vanadhikar-backend/internal/logger"
	"github.com/Atharrvac/vanadhikar-backend/internal/middleware"
	"github.com/Atharrvac/vanadhikar-backend/internal/observability"
	"github.com/Atharrvac/vanadhikar-backend/internal/repos"
	"github.com/Atharrvac/vanadhikar-backend/internal/server"
	"github.com/Atharrvac/vanadhikar-backend/internal/services"
	"github.com/Atharrvac/vanadhikar-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	serviceName := utils.GetEnv("SERVICE_NAME", "vanadhikar-backend", log)
	storeTimeout := utils.GetEnvAsDuration("STORE_TIMEOUT", services.DefaultStoreTimeout, log)
	allowedOrigins := server.ParseOrigins(utils.GetEnv("CORS_ALLOWED_ORIGINS", "", log))

	// Tracing
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Warn("OTel shutdown failed", "error", err)
		}
	}()

	// Database
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	gormDB := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	claimRepo := repos.NewClaimRepo(gormDB, log)
	documentRepo := repos.NewClaimDocumentRepo(gormDB, log)
	eventRepo := repos.NewClaimEventRepo(gormDB, log)
	checklistItemRepo := repos.NewChecklistItemRepo(gormDB, log)
	reportRepo := repos.NewVerificationReportRepo(gormDB, log)
	voteRepo := repos.NewCommitteeVoteRepo(gormDB, log)
	decisionRepo := repos.NewDecisionRepo(gormDB, log)

	// Services
	log.Info("Setting up Services from main...")
	metrics := observability.NewMetrics()
	locker := locking.NewPerKeyLocker()
	notifier := services.NewRedisNotifier(log)
	policy := services.LoadConsensusPolicy(log)

	checklistService := services.NewChecklistService(gormDB, log, claimRepo, checklistItemRepo, reportRepo, locker, storeTimeout)
	stateMachine := services.NewStateMachineService(gormDB, log, claimRepo, eventRepo, reportRepo, decisionRepo, checklistService, locker, notifier, metrics, storeTimeout)
	checklistService.SetStateMachine(stateMachine)
	claimService := services.NewClaimService(gormDB, log, claimRepo, documentRepo, eventRepo, locker, notifier, metrics, storeTimeout)
	consensusService := services.NewConsensusService(gormDB, log, claimRepo, voteRepo, decisionRepo, stateMachine, locker, policy, metrics, storeTimeout)
	queryService := services.NewQueryService(log, claimRepo, storeTimeout)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler(gormDB, notifier)
	claimHandler := handlers.NewClaimHandler(claimService, stateMachine)
	queryHandler := handlers.NewQueryHandler(queryService)
	verificationHandler := handlers.NewVerificationHandler(checklistService)
	committeeHandler := handlers.NewCommitteeHandler(consensusService)

	// Middleware
	actorMiddleware := middleware.NewActorMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:         serviceName,
		AllowedOrigins:      allowedOrigins,
		Metrics:             metrics,
		ActorMiddleware:     actorMiddleware,
		HealthHandler:       healthHandler,
		ClaimHandler:        claimHandler,
		QueryHandler:        queryHandler,
		VerificationHandler: verificationHandler,
		CommitteeHandler:    committeeHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}
