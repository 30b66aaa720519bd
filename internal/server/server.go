// Package server hosts the MinerWatch HTTP API: core health and plugin
// endpoints, Prometheus metrics and every enabled plugin's routes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/registry"
	"github.com/HerbHall/minerwatch/internal/version"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

// RouteRegistrar mounts routes that do not belong to a plugin.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Server is the main MinerWatch server.
type Server struct {
	httpServer *http.Server
	registry   *registry.Registry
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler

	registrars []RouteRegistrar
	promReg    prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithRegistrars adds non-plugin route groups.
func WithRegistrars(rs ...RouteRegistrar) Option {
	return func(s *Server) { s.registrars = append(s.registrars, rs...) }
}

// WithMetricsRegistry sets where request metrics are registered and what
// GET /metrics exposes. The default is the Prometheus default registry.
func WithMetricsRegistry(reg prometheus.Registerer, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.promReg = reg
		s.gatherer = g
	}
}

// New creates a new Server instance.
func New(addr string, reg *registry.Registry, logger *zap.Logger, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		registry: reg,
		logger:   logger,
		mux:      mux,
		promReg:  prometheus.DefaultRegisterer,
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registerCoreRoutes()
	for _, r := range s.registrars {
		r.RegisterRoutes(mux)
	}
	s.mountPluginRoutes()

	s.handler = mux
	if m, err := newRequestMetrics(s.promReg); err != nil {
		logger.Warn("request metrics disabled", zap.Error(err))
	} else {
		s.handler = m.wrap(mux)
	}

	// WriteTimeout stays above the longest simulated scan; the events
	// stream hijacks its connection and is not bound by it.
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the root handler, including request metrics.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/plugins", s.handlePlugins)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// mountPluginRoutes registers all plugin routes under /api/v1/{plugin}/.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	for pluginName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/v1/%s%s", route.Method, pluginName, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// handleHealth reports overall status plus each plugin's self-reported
// health. Any degraded plugin degrades the whole server.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	plugins := s.registry.Health(r.Context())
	status := plugin.HealthOK
	for _, h := range plugins {
		if h.Status != plugin.HealthOK {
			status = plugin.HealthDegraded
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(version.Header, version.Short())
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"service": "minerwatch",
		"version": version.Map(),
		"plugins": plugins,
	})
}

// handlePlugins returns the list of registered plugins.
func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	plugins := s.registry.All()
	type pluginResponse struct {
		Name         string   `json:"name"`
		Version      string   `json:"version"`
		Description  string   `json:"description"`
		Dependencies []string `json:"dependencies,omitempty"`
		Enabled      bool     `json:"enabled"`
	}
	info := make([]pluginResponse, 0, len(plugins))
	for _, p := range plugins {
		pi := p.Info()
		info = append(info, pluginResponse{
			Name:         pi.Name,
			Version:      pi.Version,
			Description:  pi.Description,
			Dependencies: pi.Dependencies,
			Enabled:      !s.registry.IsDisabled(pi.Name),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(version.Header, version.Short())
	_ = json.NewEncoder(w).Encode(info)
}
