package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"loanbot/internal/cache"
	"loanbot/internal/config"
	"loanbot/internal/convo"
	"loanbot/internal/decision"
	"loanbot/internal/handlers"
	"loanbot/internal/httpserver"
	"loanbot/internal/knowledge"
	"loanbot/internal/logging"
	"loanbot/internal/metrics"
	"loanbot/internal/repo"
	"loanbot/internal/session"
	"loanbot/internal/wa"
	"loanbot/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting loanbot", "env", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	repository, err := repo.New(ctx, cfg.DatabaseURL, cfg.DBSchema, logger)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	if err := repository.RunMigrations(ctx, migrations.Files); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrated")

	if err := repository.SyncKnowledgeKeys(ctx, cfg.KnowledgeAPIKeys); err != nil {
		return fmt.Errorf("sync knowledge keys: %w", err)
	}

	redisClient := cache.New(cache.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		UseTLS:   cfg.RedisTLS,
	}, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("failed closing redis", "error", err)
		}
	}()

	// Sessions live in Redis so the bot can restart mid-conversation. The
	// in-memory store keeps the bot usable when Redis is down, at the cost
	// of losing in-flight conversations on restart.
	var sessionStore session.Store
	if err := redisClient.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, using in-memory sessions", "error", err)
		sessionStore = session.NewMemoryStore()
	} else {
		sessionStore = session.NewRedisStore(redisClient, cfg.SessionTTL)
	}

	knowledgeBase := knowledge.DefaultBase()
	if cfg.KnowledgePath != "" {
		if err := knowledgeBase.LoadFile(cfg.KnowledgePath); err != nil {
			return fmt.Errorf("load knowledge base: %w", err)
		}
		logger.Info("knowledge base loaded", "path", cfg.KnowledgePath, "entries", knowledgeBase.Len())
	}

	knowledgeClient := knowledge.NewClient(knowledge.ClientConfig{
		BaseURL:  cfg.KnowledgeBaseURL,
		Timeout:  cfg.KnowledgeTimeout,
		Cooldown: cfg.KnowledgeCooldown,
	}, repository, redisClient, logger, metricRegistry)

	decisionClient := decision.NewClient(decision.ClientConfig{
		BaseURL: cfg.DecisionBaseURL,
		APIKey:  cfg.DecisionAPIKey,
		Timeout: cfg.DecisionTimeout,
	}, logger, metricRegistry)
	decisionSource := decision.NewSource(decisionClient, cfg.DecisionBaseURL != "", cfg.Guardrails, logger, metricRegistry)

	waClient, err := wa.New(ctx, wa.Config{
		StorePath: cfg.WhatsAppStorePath,
		LogLevel:  cfg.WhatsAppLogLevel,
		Metrics:   metricRegistry,
	}, logger)
	if err != nil {
		return fmt.Errorf("init whatsapp client: %w", err)
	}
	defer waClient.Close()

	engine := convo.NewEngine(
		sessionStore,
		repository,
		decisionSource,
		knowledgeClient,
		knowledgeBase,
		&convo.LogHandoff{Logger: logger.With("component", "handoff")},
		metricRegistry,
		logger,
		convo.Config{
			ConfidenceThreshold: cfg.ConfidenceThreshold,
			IdleThreshold:       cfg.InactivityThreshold,
			RetrySoftCap:        cfg.RetrySoftCap,
			HandoffQueue:        cfg.HandoffQueue,
		},
	)
	dispatcher := convo.NewDispatcher(engine, waClient, metricRegistry, logger)
	waClient.SetEventProcessor(dispatcher)

	webhookProcessor := handlers.NewDecisionProcessor(repository, waClient, logger, metricRegistry)
	webhookHandler := decision.NewWebhookHandler(logger, metricRegistry, cfg.DecisionWebhookUsernameMD5, cfg.DecisionWebhookPasswordMD5, webhookProcessor)

	scheduler := cron.New()
	sweepSpec := fmt.Sprintf("@every %s", cfg.IdleSweepInterval)
	if _, err := scheduler.AddFunc(sweepSpec, func() {
		sweepCtx, cancel := context.WithTimeout(ctx, cfg.IdleSweepInterval)
		defer cancel()
		dispatcher.SweepIdle(sweepCtx)
	}); err != nil {
		return fmt.Errorf("schedule idle sweep: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("idle sweep scheduled", "interval", cfg.IdleSweepInterval)

	waCtx, waCancel := context.WithCancel(ctx)
	defer waCancel()
	go func() {
		if err := waClient.Start(waCtx); err != nil {
			logger.Error("whatsapp client stopped", "error", err)
			stop()
		}
	}()

	httpSrv := httpserver.New(cfg.HTTPListenAddr, logger, metricRegistry, httpserver.Handlers{
		DecisionWebhook: webhookHandler,
	}, cfg.PublicBasePath)
	httpSrv.SetDependencies(httpserver.Dependencies{
		Repository:    repository,
		Redis:         redisClient,
		KnowledgeBase: knowledgeBase,
		KBPath:        cfg.KnowledgePath,
	})

	if base := strings.TrimSuffix(cfg.PublicBasePath, "/"); base != "" {
		logger.Info("decision webhook mounted", "path", base+"/webhook/decision")
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	return nil
}
