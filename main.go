package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "nodewatch/internal/api/http"
	"nodewatch/internal/auth"
	"nodewatch/internal/config"
	"nodewatch/internal/logging"
	nodesapp "nodewatch/internal/nodes/application"
	nodespg "nodewatch/internal/nodes/infrastructure/postgres"
	nodesredis "nodewatch/internal/nodes/infrastructure/redis"
	"nodewatch/internal/notify"
	"nodewatch/internal/observability/metrics"
	triggersapp "nodewatch/internal/triggers/application"
	triggerspg "nodewatch/internal/triggers/infrastructure/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db open error", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("db ping error", zap.Error(err))
	}

	metrics.Init()

	keyRepo := nodespg.NewApiKeyRepository(db)
	nodeRepo := nodespg.NewNodeRepository(db)
	triggerRepo := triggerspg.NewTriggerRepository(db)

	var keyReader nodesapp.KeyReader = keyRepo
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cached, err := nodesredis.NewCachedKeyReader(keyRepo, client, cfg.KeyCacheTTL, logger)
		if err != nil {
			logger.Fatal("key cache error", zap.Error(err))
		}
		keyReader = cached
		logger.Info("api key cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	var sinks []notify.Sink
	if cfg.Email.Host != "" {
		emailSink, err := notify.NewEmailSink(cfg.Email, logger)
		if err != nil {
			logger.Fatal("email sink error", zap.Error(err))
		}
		sinks = append(sinks, emailSink)
	}
	if cfg.Telegram.BotToken != "" {
		telegramSink, err := notify.NewTelegramSink(cfg.Telegram, logger)
		if err != nil {
			logger.Fatal("telegram sink error", zap.Error(err))
		}
		sinks = append(sinks, telegramSink)
	}
	if cfg.WebhookURL != "" {
		webhookSink, err := notify.NewWebhookSink(cfg.WebhookURL)
		if err != nil {
			logger.Fatal("webhook sink error", zap.Error(err))
		}
		sinks = append(sinks, webhookSink)
	}
	if len(sinks) == 0 {
		logger.Warn("no notification sinks configured; notices will be dropped")
	}
	sink := notify.NewMultiSink(sinks...)

	evaluator, err := triggersapp.NewEvaluator(triggerRepo, sink, logger)
	if err != nil {
		logger.Fatal("evaluator error", zap.Error(err))
	}

	checkinService, err := nodesapp.NewCheckinService(keyReader, nodeRepo, evaluator, sink, logger)
	if err != nil {
		logger.Fatal("check-in service error", zap.Error(err))
	}

	sweeper, err := nodesapp.NewSweeper(nodeRepo, sink, logger)
	if err != nil {
		logger.Fatal("sweeper error", zap.Error(err))
	}

	scheduler, err := nodesapp.NewScheduler(sweeper, cfg.SweepSchedule, logger)
	if err != nil {
		logger.Fatal("scheduler error", zap.Error(err))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal("scheduler start error", zap.Error(err))
	}

	policy := auth.NewDefaultPolicy([]string{"/", "/healthz", "/metrics", "/checkin", "/alert-sender"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("Application successfully started!"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/checkin", apihttp.NewCheckinHandler(checkinService, logger))
	mux.Handle("/alert-sender", apihttp.NewAlertSenderHandler(sweeper, logger))
	mux.Handle("/api/v1/nodes", apihttp.NewNodesHandler(nodeRepo))
	mux.Handle("/api/v1/exports/nodes.xlsx", apihttp.NewExportNodesHandler(nodeRepo, "xlsx"))
	mux.Handle("/api/v1/exports/nodes.pdf", apihttp.NewExportNodesHandler(nodeRepo, "pdf"))

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
	logger.Fatal("server stopped", zap.Error(server.ListenAndServe()))
}

func loggingMiddleware(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", resp.status),
			zap.Duration("duration", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
