package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/empdesk/apiserver/config"
	"github.com/empdesk/apiserver/internal/db"
	"github.com/empdesk/apiserver/internal/handlers"
	"github.com/empdesk/apiserver/internal/mq"
	"github.com/empdesk/apiserver/internal/services"
	"github.com/empdesk/apiserver/internal/storage"
	"github.com/empdesk/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger
	closers    []func() error
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger}

	employeeRepo, err := s.openEmployeeRepository(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg)
	if err != nil {
		s.close()
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, err
	}
	var publisher services.Publisher
	if broker != nil {
		publisher = broker
		s.closers = append(s.closers, broker.Close)
	}
	events := services.NewEventEmitter(publisher, cfg.MQ.Channel, logger)

	employeeService := services.NewEmployeeService(employeeRepo, events)
	uploadService := services.NewUploadService(objects, cfg.PublicBaseURL, cfg.Upload.MaxBytes, events)

	if cfg.SeedDemo {
		seeded, err := employeeService.SeedDemo(ctx)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("seed demo record: %w", err)
		}
		logger.Info("seeded demo record", "id", seeded.ID)
	}

	systemHandler := handlers.NewSystemHandler(employeeService, logger)

	router := chi.NewRouter()
	router.Use(
		cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}),
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.NotFound(handlers.NotFound)
	router.Get("/", systemHandler.Index)
	router.Get("/health", systemHandler.Health)
	router.Route("/api/users", func(r chi.Router) {
		handlers.EmployeeRouter(r, employeeService, logger)
	})
	router.Route("/api/upload", func(r chi.Router) {
		handlers.UploadRouter(r, uploadService, logger)
	})
	router.Route("/uploads", func(r chi.Router) {
		handlers.FileRouter(r, objects, logger)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		"port", port,
		"record_store", cfg.RecordStore,
		"storage", cfg.Upload.Backend,
		"bucket", objects.Bucket(),
		"events", cfg.MQ.Backend,
	)
	return s, nil
}

func (s *Server) openEmployeeRepository(ctx context.Context, cfg config.Config) (services.EmployeeRepository, error) {
	switch cfg.RecordStore {
	case "", config.RecordStoreMemory:
		return store.NewMemoryEmployeeRepository(), nil
	case config.RecordStorePostgres:
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		return store.NewEmployeeRepository(conn), nil
	case config.RecordStoreSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		return store.NewEmployeeRepository(conn), nil
	default:
		return nil, fmt.Errorf("unknown record store %q", cfg.RecordStore)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("backend running", "addr", s.httpServer.Addr)
	for _, endpoint := range handlers.Endpoints {
		s.logger.Debug("endpoint", "route", endpoint)
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight requests until
// ctx expires and releases backing resources.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
