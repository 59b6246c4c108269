package server

import (
	"log/slog"
	"net/http"

	"cafe-dashboard/internal/config"
	"cafe-dashboard/internal/handlers"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/services"
)

type Server struct {
	dashboard    *services.Dashboard
	mux          *http.ServeMux
	logger       *slog.Logger
	apiHandlers  *handlers.APIHandlers
	sseHandlers  *handlers.SSEHandlers
	pageHandlers *handlers.PageHandlers
}

// NewServer wires every route. metrics may be nil, in which case no metrics route is served.
func NewServer(dashboard *services.Dashboard, logger *slog.Logger, metrics *observability.Metrics, metricsCfg config.MetricsConfig) *Server {
	s := &Server{
		dashboard:    dashboard,
		mux:          http.NewServeMux(),
		logger:       logger,
		apiHandlers:  handlers.NewAPIHandlers(dashboard, logger),
		sseHandlers:  handlers.NewSSEHandlers(dashboard, logger),
		pageHandlers: handlers.NewPageHandlers(dashboard, logger),
	}
	s.setupRoutes()
	if metrics != nil && metricsCfg.Enabled {
		s.mux.Handle("GET "+metricsCfg.Path, metrics.Handler())
	}
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pageHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/transactions", s.apiHandlers.HandleTransactions)
	s.mux.HandleFunc("GET /api/describe", s.apiHandlers.HandleDescribe)
	s.mux.HandleFunc("GET /api/charts", s.apiHandlers.HandleCharts)
	s.mux.HandleFunc("GET /api/", s.apiHandlers.HandleNotFound)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/dashboard", s.sseHandlers.HandleDashboard)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
