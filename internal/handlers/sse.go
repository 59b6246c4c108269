package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"cafe-dashboard/internal/charts"
	"cafe-dashboard/internal/errors"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/pipeline"
	"cafe-dashboard/internal/services"
	"cafe-dashboard/internal/ui/templates"
)

// datastarQueryKey carries the JSON signals on datastar GET requests.
const datastarQueryKey = "datastar"

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// readSignals decodes the client signals. A request without signals gets the default
// selection with the dataset hidden.
func (h *SSEHandlers) readSignals(r *http.Request) (templates.Signals, error) {
	if r.Method == http.MethodGet && !r.URL.Query().Has(datastarQueryKey) {
		sel := h.dashboard.DefaultSelection()
		return templates.Signals{
			Items:     sel.Items,
			Locations: sel.Locations,
			Payments:  sel.PaymentMethods,
		}, nil
	}

	var signals templates.Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		return signals, errors.BadRequestWrap(err, "invalid datastar signals")
	}
	return signals, nil
}

// HandleDashboard reruns the pipeline for the current filter signals and patches the KPI
// cards, the view summary, the raw dataset table and the client-local chart figures.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	logger := observability.LoggerFrom(r.Context(), h.logger)

	signals, err := h.readSignals(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	sel := pipeline.Selection{
		Items:          signals.Items,
		Locations:      signals.Locations,
		PaymentMethods: signals.Payments,
	}
	result := h.dashboard.Snapshot(r.Context(), "sse", sel)

	fragments, err := renderFragments(result, signals.ShowData)
	if err != nil {
		logger.Error("render dashboard fragments", "error", err)
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "render dashboard"), observability.GetRequestID(r.Context()))
		return
	}

	chartSignals, err := templates.ChartSignals(charts.Build(result.View))
	if err != nil {
		logger.Error("marshal chart signals", "error", err)
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "render charts"), observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	for _, html := range fragments {
		if err := sse.PatchElements(html); err != nil {
			logger.Warn("patch elements", "error", err)
			return
		}
	}
	if err := sse.PatchSignals(chartSignals); err != nil {
		logger.Warn("patch chart signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func renderFragments(result pipeline.Result, showData bool) ([]string, error) {
	renders := []func(*strings.Builder) error{
		func(b *strings.Builder) error { return templates.RenderKPIs(b, templates.NewKPIView(result)) },
		func(b *strings.Builder) error { return templates.RenderViewSummary(b, templates.NewViewSummary(result.View)) },
		func(b *strings.Builder) error {
			return templates.RenderDataset(b, templates.NewDatasetView(result.View.Table().All(), showData))
		},
	}

	fragments := make([]string, 0, len(renders))
	for _, render := range renders {
		var buf strings.Builder
		if err := render(&buf); err != nil {
			return nil, err
		}
		fragments = append(fragments, buf.String())
	}
	return fragments, nil
}
