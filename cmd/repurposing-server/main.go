package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/biomind/repurposing/internal/config"
	"github.com/biomind/repurposing/pkg/ai/scorer"
	"github.com/biomind/repurposing/pkg/ai/synth"
	"github.com/biomind/repurposing/pkg/audit"
	"github.com/biomind/repurposing/pkg/graphstore"
	"github.com/biomind/repurposing/pkg/ingestion"
	"github.com/biomind/repurposing/pkg/literature"
	"github.com/biomind/repurposing/pkg/ner"
	"github.com/biomind/repurposing/pkg/notify"
	"github.com/biomind/repurposing/pkg/orchestrator"
	"github.com/biomind/repurposing/pkg/pipeline"
	"github.com/biomind/repurposing/pkg/resilience"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := newLogger(cfg.Logging)
	logger.WithField("port", cfg.Server.Port).Info("starting repurposing-server")

	graphDB, err := sqlx.Connect("pgx", cfg.GraphStore.DSN)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to graph store")
	}
	graphDB.SetMaxOpenConns(maxConnsOrDefault(cfg.GraphStore.MaxConns))
	graphDB.SetConnMaxLifetime(cfg.GraphStore.ConnMaxLifetime)

	auditDB, err := sqlx.Connect("pgx", cfg.AuditStore.DSN)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to audit store")
	}
	auditDB.SetMaxOpenConns(maxConnsOrDefault(cfg.AuditStore.MaxConns))
	auditDB.SetConnMaxLifetime(cfg.AuditStore.ConnMaxLifetime)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	graphBreaker := resilience.New(resilience.Config{Name: "graph_store", FailureThreshold: failureThreshold(cfg.Resilience), ResetTimeout: cfg.Resilience.ResetTimeout, MaxRetries: uint64(cfg.Resilience.MaxRetries)}, logger)
	auditBreaker := resilience.New(resilience.Config{Name: "audit_store", FailureThreshold: failureThreshold(cfg.Resilience), ResetTimeout: cfg.Resilience.ResetTimeout, MaxRetries: uint64(cfg.Resilience.MaxRetries)}, logger)
	literatureBreaker := resilience.New(resilience.Config{Name: "literature", FailureThreshold: failureThreshold(cfg.Resilience), ResetTimeout: cfg.Resilience.ResetTimeout, MaxRetries: uint64(cfg.Resilience.MaxRetries)}, logger)
	nerBreaker := resilience.New(resilience.Config{Name: "ner", FailureThreshold: failureThreshold(cfg.Resilience), ResetTimeout: cfg.Resilience.ResetTimeout, MaxRetries: uint64(cfg.Resilience.MaxRetries)}, logger)
	synthBreaker := resilience.New(resilience.Config{Name: "synthesizer", FailureThreshold: failureThreshold(cfg.Resilience), ResetTimeout: cfg.Resilience.ResetTimeout, MaxRetries: uint64(cfg.Resilience.MaxRetries)}, logger)
	scorerBreaker := resilience.New(resilience.Config{Name: "scorer", FailureThreshold: failureThreshold(cfg.Resilience), ResetTimeout: cfg.Resilience.ResetTimeout, MaxRetries: uint64(cfg.Resilience.MaxRetries)}, logger)

	graphRepo := graphstore.New(graphDB, graphBreaker)
	ctx := context.Background()
	if err := graphRepo.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("failed to ensure graph schema")
	}
	auditStore := audit.NewStore(auditDB, auditBreaker, cfg.Audit.FallbackFilePath)
	if err := auditStore.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Fatal("failed to ensure audit schema")
	}

	literatureClient := literature.New(cfg.Literature, literatureBreaker)
	nerExtractor := ner.New(cfg.NER, nerBreaker)
	synthesizer := synth.New(cfg.Synthesizer, synthBreaker)
	scorerAdapter, err := scorer.New(cfg.Scorer, scorerBreaker)
	if err != nil {
		logger.WithError(err).Fatal("failed to construct scorer")
	}
	notifier := notify.New(cfg.Notify)

	ingestionPipeline := ingestion.New(graphRepo, literatureClient, nerExtractor, redisClient)

	deps := &pipeline.Deps{
		NER:        nerExtractor,
		Synth:      synthesizer,
		Literature: literatureClient,
		Scorer:     scorerAdapter,
	}
	pl := pipeline.Default(deps, logger)

	orch := orchestrator.New(graphRepo, auditStore, notifier, pl, ingestionPipeline, logger)

	mux := http.NewServeMux()
	mux.Handle("/", newHandler(orch, logger))
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server stopped unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func maxConnsOrDefault(n int) int {
	if n <= 0 {
		return 10
	}
	return n
}

// failureThreshold adapts the config's failure-rate ratio (0-1, default
// 0.5) to the consecutive-failure count resilience.Config expects, keeping
// the default config's 0.5 mapping to the breaker's own default of 5.
func failureThreshold(cfg config.ResilienceConfig) uint32 {
	if cfg.FailureThreshold >= 1 {
		return uint32(cfg.FailureThreshold)
	}
	if cfg.FailureThreshold <= 0 {
		return 5
	}
	return uint32(cfg.FailureThreshold * 10)
}
