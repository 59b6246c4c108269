package handlers

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"cafe-dashboard/internal/charts"
	"cafe-dashboard/internal/errors"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/services"
	"cafe-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type PageHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewPageHandlers(dashboard *services.Dashboard, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// HandleDashboard renders the page with every filter value selected.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	sel := h.dashboard.DefaultSelection()
	result := h.dashboard.Snapshot(ctx, "page", sel)

	data := templates.PageData{
		Options:     h.dashboard.Options(),
		Selection:   sel,
		KPIs:        templates.NewKPIView(result),
		Summary:     templates.NewViewSummary(result.View),
		Description: h.dashboard.Describe(),
		Charts:      charts.Build(result.View),
	}

	var buf bytes.Buffer
	if err := templates.Dashboard(data).Render(ctx, &buf); err != nil {
		appErr := errors.InternalWrap(err, "render dashboard page")
		if ctx.Err() != nil {
			appErr = errors.ServiceUnavailable("dashboard render timed out")
			appErr.Cause = err
		}
		errors.WriteError(w, h.logger, appErr, observability.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := buf.WriteTo(w); err != nil {
		observability.LoggerFrom(ctx, h.logger).Warn("write dashboard page", "error", err)
	}
}
