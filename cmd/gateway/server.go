package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fedquery/gateway/config"
	"github.com/fedquery/gateway/gateway"
	"github.com/fedquery/gateway/internal/server"
)

// Server owns the gateway's two listeners: the main API on
// Server.HTTPPort and a separate Prometheus exporter on
// Server.MetricsPort, so metrics scraping never competes with request
// traffic for connection slots.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	main    *server.Manager
	metrics *server.Manager
	closer  func() error
}

// NewServer loads every dependency the gateway needs and builds both
// listeners, but does not start them.
func NewServer(cfg *config.Config, version string, logger *zap.Logger) (*Server, error) {
	deps, closer, err := buildDeps(cfg, version, logger)
	if err != nil {
		return nil, fmt.Errorf("build dependencies: %w", err)
	}

	ctx := context.Background()
	handler := gateway.NewRouter(ctx, deps)

	mainCfg := server.DefaultConfig()
	mainCfg.Addr = fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	if cfg.Server.ReadTimeout > 0 {
		mainCfg.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout > 0 {
		mainCfg.WriteTimeout = cfg.Server.WriteTimeout
	}
	if cfg.Server.ShutdownTimeout > 0 {
		mainCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsCfg := server.DefaultConfig()
	metricsCfg.Addr = fmt.Sprintf(":%d", cfg.Server.MetricsPort)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		main:    server.NewManager(handler, mainCfg, logger),
		metrics: server.NewManager(metricsMux, metricsCfg, logger),
		closer:  closer,
	}, nil
}

// Start brings up both listeners, non-blocking.
func (s *Server) Start() error {
	if err := s.metrics.Start(); err != nil {
		return fmt.Errorf("start metrics listener: %w", err)
	}
	if err := s.main.Start(); err != nil {
		return fmt.Errorf("start main listener: %w", err)
	}
	s.logger.Info("gateway listening",
		zap.String("addr", s.main.ListenerAddr()),
		zap.String("metrics_addr", s.metrics.ListenerAddr()),
	)
	return nil
}

// Shutdown stops both listeners and releases the store and cache
// connections buildDeps opened.
func (s *Server) Shutdown(ctx context.Context) error {
	var firstErr error
	if err := s.main.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := s.metrics.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.closer != nil {
		if err := s.closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WaitForShutdown blocks until SIGINT/SIGTERM or a listener error, then
// tears down both listeners and closes the store and cache.
func (s *Server) WaitForShutdown() {
	s.main.WaitForShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.metrics.Shutdown(ctx); err != nil {
		s.logger.Error("metrics listener shutdown error", zap.Error(err))
	}
	if s.closer != nil {
		if err := s.closer(); err != nil {
			s.logger.Error("dependency shutdown error", zap.Error(err))
		}
	}
}
