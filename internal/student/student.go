// Package student assembles the student module: storage backend, optional
// Redis cache, service and HTTP handler.
package student

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"registrar/internal/student/handler"
	"registrar/internal/student/metrics"
	"registrar/internal/student/models"
	"registrar/internal/student/service"
	"registrar/internal/student/store"
)

// Deps are the infrastructure pieces the module can use. DB and Cache are
// optional; without DB the module keeps students in memory.
type Deps struct {
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	DB         *sql.DB
	Cache      store.Cache
	CacheTTL   time.Duration
	Audit      service.AuditPublisher
	Matriculas models.MatriculaGenerator
}

// Module exposes the wired service and handler.
type Module struct {
	Service *service.Service
	Handler *handler.Handler
	Backend string
}

// New builds the module from deps.
func New(d Deps) (*Module, error) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var m *metrics.Metrics
	if d.Registerer != nil {
		m = metrics.New(d.Registerer)
	}

	var (
		backend service.Store
		kind    string
	)
	if d.DB != nil {
		backend, kind = store.NewPostgres(d.DB), "postgres"
	} else {
		backend, kind = store.NewInMemory(), "memory"
	}
	if d.Cache != nil {
		opts := []store.CacheOption{store.WithCacheLogger(logger)}
		if m != nil {
			opts = append(opts, store.WithCacheMetrics(m))
		}
		backend = store.NewCached(backend, d.Cache, d.CacheTTL, opts...)
		kind += "+redis"
	}

	opts := []service.Option{service.WithLogger(logger)}
	if m != nil {
		opts = append(opts, service.WithMetrics(m))
	}
	if d.Audit != nil {
		opts = append(opts, service.WithAuditPublisher(d.Audit))
	}
	if d.Matriculas != nil {
		opts = append(opts, service.WithMatriculaGenerator(d.Matriculas))
	}

	svc, err := service.New(backend, opts...)
	if err != nil {
		return nil, fmt.Errorf("build student service: %w", err)
	}

	return &Module{
		Service: svc,
		Handler: handler.New(svc, logger),
		Backend: kind,
	}, nil
}

// Register mounts the module's routes.
func (m *Module) Register(r chi.Router) {
	m.Handler.Register(r)
}
