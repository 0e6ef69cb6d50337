package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/services/check"
	"github.com/miderror/dev-mentor/internal/core/services/worker"
	"github.com/miderror/dev-mentor/internal/handlers"
	"github.com/miderror/dev-mentor/internal/handlers/checks"
	"github.com/miderror/dev-mentor/internal/handlers/languages"
	"github.com/miderror/dev-mentor/internal/handlers/workers"
)

type ServiceProvider struct {
	workerService worker.IWorkerRegistrationService
	checkService  check.ICheckService
	languages     languages.Catalog
}

func NewServiceProvider(
	workerService worker.IWorkerRegistrationService,
	checkService check.ICheckService,
	catalog languages.Catalog,
) *ServiceProvider {
	return &ServiceProvider{
		workerService: workerService,
		checkService:  checkService,
		languages:     catalog,
	}
}

type Server struct {
	router          *mux.Router
	Port            int
	ServiceName     string
	ServiceProvider ServiceProvider
	middleware      *handlers.MiddlewareProvider
	limiter         *handlers.RateLimiter
	metrics         http.Handler
	logger          primary.Logger
	srv             *http.Server
}

func NewServer(
	cfg *config.HTTPCfg,
	serviceProvider ServiceProvider,
	middleware *handlers.MiddlewareProvider,
	limiter *handlers.RateLimiter,
	metrics http.Handler,
	logger primary.Logger,
) *Server {
	return &Server{
		Port:            cfg.Port,
		ServiceName:     cfg.ServiceName,
		ServiceProvider: serviceProvider,
		middleware:      middleware,
		limiter:         limiter,
		metrics:         metrics,
		logger:          logger,
	}
}

func (s *Server) Init() error {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods("GET")
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods("GET")
	}
	workers.NewHandler(s.ServiceProvider.workerService).Register(r)
	languages.NewHandler(s.ServiceProvider.languages).Register(r)
	checks.
		NewCheckHandler(s.ServiceProvider.checkService, s.logger).
		RegisterRoutes(r, s.middleware, s.limiter)
	s.router = r
	return nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	handlers.ResponseWithJson(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.ServiceName,
	})
}

// Start binds the port and serves in the background; bind errors are returned
func (s *Server) Start(ctx context.Context) error {
	if s.router == nil {
		return errors.New("http server not initialised")
	}

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.limiter.Cleanup(10 * time.Minute)
			}
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
	}
}
