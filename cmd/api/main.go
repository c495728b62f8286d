// Package main is the entry point for the relay server.
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

	"go.uber.org/zap"

	"github.com/capitalize-ai/autoreply-relay/internal/config"
	"github.com/capitalize-ai/autoreply-relay/internal/graph"
	"github.com/capitalize-ai/autoreply-relay/internal/handler"
	"github.com/capitalize-ai/autoreply-relay/internal/llm"
	natsclient "github.com/capitalize-ai/autoreply-relay/internal/nats"
	"github.com/capitalize-ai/autoreply-relay/internal/repository/repomanager"
	"github.com/capitalize-ai/autoreply-relay/internal/service"
	"github.com/capitalize-ai/autoreply-relay/pkg/logger"
	"github.com/capitalize-ai/autoreply-relay/pkg/tracing"
)

const serviceName = "autoreply-relay"

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var log *logger.Logger
	var err error
	if cfg.Development() {
		log, err = logger.NewDevelopment()
	} else {
		log, err = logger.New(cfg.LogLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	log.Info("starting relay server", zap.String("storage", cfg.Storage), zap.Bool("nats", cfg.NATSEnabled()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, serviceName, cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Storage
	manager, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer manager.Close()
	repos := manager.Repos()

	graphClient := graph.NewClient(cfg.GraphAPIURL, cfg.GraphTimeout)

	// NATS is optional. Without it replies go straight to the platform and
	// live chat falls back to polling.
	var (
		natsClient    *natsclient.Client
		streamManager *natsclient.StreamManager
		liveHub       *natsclient.LiveHub
	)
	if cfg.NATSEnabled() {
		natsClient, err = natsclient.Connect(natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer natsClient.Close()

		streamManager = natsclient.NewStreamManager(natsClient, log)
		if err := streamManager.EnsureStream(ctx); err != nil {
			log.Fatal("failed to ensure stream", zap.Error(err))
		}
		go streamManager.ReportMetrics(ctx, 15*time.Second)

		liveHub = natsclient.NewLiveHub(natsClient, log)
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.LLMEnabled() {
		llmClient, err = llm.NewClient(llm.Provider(cfg.DefaultLLM), llm.Keys{
			Anthropic: cfg.AnthropicAPIKey,
			OpenAI:    cfg.OpenAIAPIKey,
		})
		if err != nil {
			log.Warn("failed to create LLM client, suggestions disabled", zap.Error(err))
			llmClient = nil
		}
	}

	// Initialize services
	var notifier service.LiveNotifier
	if liveHub != nil {
		notifier = liveHub
	}
	messageSvc := service.NewMessageService(repos, graphClient, notifier, log)

	var dispatcher service.ReplyDispatcher = service.NewDirectDispatcher(graphClient)
	if streamManager != nil {
		dispatcher = service.NewQueueDispatcher(streamManager)

		worker := service.NewOutboxWorker(repos.Accounts, graphClient, messageSvc, log)
		stopConsume, err := streamManager.ConsumeReplies(ctx, cfg.OutboxMaxDeliver, worker.Handle)
		if err != nil {
			log.Fatal("failed to start reply outbox", zap.Error(err))
		}
		defer stopConsume()
	}

	processor := service.NewProcessor(service.ProcessorConfig{DispatchTimeout: cfg.GraphTimeout}, repos, dispatcher, messageSvc, log)
	accountSvc := service.NewAccountService(manager, log)
	ruleSvc := service.NewRuleService(repos, log)
	contactSvc := service.NewContactService(repos, log)
	maintenanceSvc := service.NewMaintenanceService(repos.Unmatched, cfg.UnmatchedRetention, log)
	suggestionSvc := service.NewSuggestionService(repos, llmClient, log)

	var live handler.LiveSubscriber
	if liveHub != nil {
		live = liveHub
	}

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:         cfg.JWTSecret,
		AppSecret:         cfg.AppSecret,
		CronSecret:        cfg.CronSecret,
		FrontendURL:       cfg.FrontendURL,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, handler.Handlers{
		Health:   handler.NewHealthHandler(manager, natsClient),
		Webhook:  handler.NewWebhookHandler(processor, cfg.VerifyToken, log),
		Accounts: handler.NewAccountHandler(accountSvc, suggestionSvc, log),
		Rules:    handler.NewRuleHandler(ruleSvc, log),
		Contacts: handler.NewContactHandler(contactSvc, messageSvc, log),
		Messages: handler.NewMessageHandler(messageSvc, log),
		Stream:   handler.NewStreamHandler(messageSvc, live, log),
		Cron:     handler.NewCronHandler(maintenanceSvc, log),
	}, log)

	// Live chat streams are long-lived, so no write timeout is set.
	server := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     router,
		ReadTimeout: cfg.ServerReadTimeout,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	stop()

	log.Info("server stopped")
}

// openStorage opens the configured store and brings its schema up to date.
func openStorage(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	case config.StoragePostgres:
		db, err := repomanager.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		manager := repomanager.NewPostgresRepositoryManager(db)
		if err := manager.RunMigrations(ctx); err != nil {
			_ = manager.Close()
			return nil, err
		}
		return manager, nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
