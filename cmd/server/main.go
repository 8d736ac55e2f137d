package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"registrar/internal/audit"
	httpapi "registrar/internal/http"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/kafka"
	"registrar/internal/platform/logger"
	"registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	"registrar/internal/student"
	"registrar/internal/student/store"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
	memoryAuditCapacity   = 10000
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checks := map[string]httpapi.HealthCheck{}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(db); err != nil {
			return err
		}
		checks["database"] = db.PingContext
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	var cache store.Cache
	if rdb != nil {
		defer rdb.Close()
		cache = rdb
		checks["redis"] = rdb.Health
	}

	auditSink, closeAudit, err := buildAuditSink(ctx, cfg.Audit, log)
	if err != nil {
		return err
	}
	defer closeAudit()
	publisher := audit.NewAsyncPublisher(cfg.Audit.BufferSize)
	worker := audit.NewWorker(auditSink, publisher.Inbox(), log)

	students, err := student.New(student.Deps{
		Logger:     log,
		Registerer: reg,
		DB:         db,
		Cache:      cache,
		CacheTTL:   cfg.StudentCacheTTL,
		Audit:      publisher,
	})
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		RequestTimeout: cfg.RequestTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
		HealthChecks:   checks,
		Modules:        []httpapi.RouteRegistrar{students},
	})
	srv := httpserver.New(cfg.Addr, router, cfg.RequestTimeout)

	log.Info("starting registrar", "addr", cfg.Addr, "student_store", students.Backend)
	return serve(ctx, srv, worker, cfg.ShutdownTimeout, log)
}

type server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

type runner interface {
	Run(ctx context.Context) error
}

// serve runs srv and the audit worker until ctx is cancelled or the server
// fails. The worker keeps its own context and is stopped only after
// srv.Shutdown returns, so events emitted by requests that finish during
// shutdown are still persisted.
func serve(ctx context.Context, srv server, worker runner, shutdownTimeout time.Duration, log *slog.Logger) error {
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(workerCtx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		stopWorker()
		return err
	})
	return g.Wait()
}

// buildAuditSink picks Kafka when brokers are configured, otherwise a
// capped in-memory store.
func buildAuditSink(ctx context.Context, cfg config.AuditConfig, log *slog.Logger) (audit.Store, func(), error) {
	client, err := kafka.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("audit sink: memory")
		return audit.NewInMemoryStore(audit.WithCapacity(memoryAuditCapacity)), func() {}, nil
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Topic, auditTopicPartitions, auditTopicReplication); err != nil {
		client.Close()
		return nil, nil, err
	}
	log.Info("audit sink: kafka", "topic", cfg.Topic, "brokers", cfg.Brokers)
	return audit.NewKafkaStore(client, cfg.Topic), client.Close, nil
}
