// Command server runs the certified-copy application lifecycle engine.
//
// With DATABASE_URL set it persists to Postgres; without it everything runs
// in memory, which is how local development and the end-to-end tests work.
// REDIS_URL switches G-Number allocation to the Redis counter and
// KAFKA_BROKERS turns on audit event publishing.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"copydesk/internal/application"
	"copydesk/internal/audit"
	"copydesk/internal/platform/config"
	"copydesk/internal/platform/httpserver"
	"copydesk/internal/platform/logger"
	"copydesk/internal/platform/metrics"
	platformredis "copydesk/internal/platform/redis"
	"copydesk/internal/sequence"
	"copydesk/internal/stage"
	httptransport "copydesk/internal/transport/http"
	"copydesk/internal/user"
	"copydesk/internal/workflow"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		appStore   application.Store
		stageStore stage.Store
		auditStore audit.Store
		userStore  user.Store
		allocator  sequence.Allocator
		txRunner   workflow.TxRunner
		health     httptransport.HealthChecker
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}

		appStore = application.NewPostgresStore(db)
		stageStore = stage.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		userStore = user.NewPostgresStore(db)
		allocator = sequence.NewPostgres(db)
		txRunner = newSQLTxRunner(db)
		health = db.Ping
		log.Info("storage ready", "backend", "postgres")
	} else {
		appStore = application.NewInMemoryStore()
		stageStore = stage.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		userStore = user.NewInMemoryStore()
		allocator = sequence.NewInMemory()
		txRunner = workflow.NewMemoryTxRunner()
		log.Info("storage ready", "backend", "memory")
	}

	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		allocator = sequence.NewRedis(redisClient)
		log.Info("g-number allocation on redis")
	}

	var publisher audit.Publisher = audit.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, audit.DefaultTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		publisher = kafkaPublisher
		defer publisher.Close()
		log.Info("audit publishing enabled", "topic", audit.DefaultTopic)
	}

	users := user.NewService(userStore, cfg.JWTSigningKey, cfg.JWTTokenTTL, log)
	if err := users.SeedAdmin(ctx, "admin", envOr("BOOTSTRAP_ADMIN_PASSWORD", "changeme")); err != nil {
		log.Error("seed admin", "error", err)
		os.Exit(1)
	}

	wf := workflow.NewService(
		workflow.Stores{Applications: appStore, Stages: stageStore, Audit: auditStore},
		allocator,
		txRunner,
		workflow.Policy{GraceDays: cfg.GraceDays, PerPageRate: cfg.PerPageRate, BaseFee: cfg.BaseFee},
		workflow.WithLogger(log),
		workflow.WithMetrics(metrics.New()),
		workflow.WithPublisher(publisher),
	)

	if cfg.SweepInterval > 0 {
		go runSweeper(ctx, wf, cfg.SweepInterval, log)
	}

	handler := httptransport.NewHandler(wf, users, log)
	server := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, users, health))

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

// runSweeper periodically strikes off applications whose notice grace
// period lapsed without payment.
func runSweeper(ctx context.Context, wf *workflow.Service, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := wf.ExpireOverdueNotices(ctx, now); err != nil {
				log.Error("notice sweep failed", "error", err)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
