package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talentsparkle/internal/ai"
	"talentsparkle/internal/common"
	"talentsparkle/internal/dispatch"
	"talentsparkle/internal/observability"
	"talentsparkle/internal/seed"

	"go.opentelemetry.io/otel/attribute"
)

// Operations that append to the activity log
var activityOperations = map[string]bool{
	"add_job":                true,
	"delete_job":             true,
	"update_candidate_stage": true,
	"add_interview":          true,
	"add_campus_drive":       true,
	"add_activity":           true,
}

// Start starts the HTTP server with all configured components
func (s *Server) Start() error {
	ctx := context.Background()

	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	closers, err := s.initializeBackend(ctx, om)
	defer func() {
		for _, c := range closers {
			if cerr := c(); cerr != nil {
				s.Logger.LogError(cerr, "Failed to release backend resource")
			}
		}
	}()
	if err != nil {
		return err
	}

	httpServer := s.setupHTTPServer(om)
	if err := s.configureTLS(httpServer, om); err != nil {
		return err
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(s.AppConfig, s.Version), s.AppConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// initializeBackend opens the store, the dispatcher and the chat service
// unless a backend was injected. The chat service is optional: without an
// API key the server still serves the REST surface.
func (s *Server) initializeBackend(ctx context.Context, om *observability.ObservabilityManager) ([]func() error, error) {
	if s.Backend.Store != nil {
		return nil, nil
	}

	data, err := seed.Load()
	if err != nil {
		return nil, err
	}
	hooks := metricHooks(om)

	st, err := common.OpenStore(ctx, s.AppConfig, data, hooks, s.Logger)
	if err != nil {
		return nil, err
	}
	closers := []func() error{st.Close}

	d, err := common.NewDispatcher(ctx, s.AppConfig, st, data, hooks, s.Logger)
	if err != nil {
		return closers, err
	}

	s.Backend = Backend{
		Store:        st,
		Dispatcher:   d,
		Universities: data.Universities,
		Templates:    data.Templates,
	}

	if err := s.AppConfig.ValidateChat(); err != nil {
		s.Logger.Warn("Chat endpoint disabled", "reason", err.Error())
		return closers, nil
	}
	svc, err := ai.NewService(ctx, s.AppConfig.GetChatConfig(), s.Logger)
	if err != nil {
		return closers, err
	}
	s.Backend.Chat = svc
	return append(closers, svc.Close), nil
}

// metricHooks records store mutations and dispatch results as business metrics
func metricHooks(om *observability.ObservabilityManager) common.Hooks {
	metrics := om.GetMetrics()
	return common.Hooks{
		OnMutation: func(operation string) {
			ctx := context.Background()
			metrics.RecordBusinessMetric(ctx, observability.MetricStoreMutation, true, om,
				attribute.String("operation", operation))
			if activityOperations[operation] {
				metrics.RecordBusinessMetric(ctx, observability.MetricActivityLogged, true, om,
					attribute.String("operation", operation))
			}
		},
		OnDispatch: func(action, result string) {
			metrics.RecordBusinessMetric(context.Background(), observability.MetricActionDispatched,
				result == dispatch.ResultApplied, om,
				attribute.String("action", action),
				attribute.String("outcome", result))
		},
	}
}

func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// startWithGracefulShutdown serves until SIGINT/SIGTERM or a listener error
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// certificates come from TLSConfig.GetCertificate
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
		return s.performGracefulShutdown(server)
	}
}

func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.CertReloader != nil {
		if err := s.CertReloader.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop certificate watcher")
		}
	}

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
