package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cafe-dashboard/internal/charts"
	"cafe-dashboard/internal/errors"
	"cafe-dashboard/internal/models"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/pipeline"
	"cafe-dashboard/internal/services"
	"cafe-dashboard/internal/ui/templates"
)

const (
	cacheMaxAge = "public, max-age=300"

	defaultTransactionLimit = 100
	maxTransactionLimit     = 5000
)

// Version is reported by /health and the version command. Overridden with -ldflags at release.
var Version = "1.0.0"

// Query parameters of the filtered endpoints. Each may be repeated.
const (
	paramItem     = "item"
	paramLocation = "location"
	paramPayment  = "payment"
	paramLimit    = "limit"
)

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

type kpiResponse struct {
	NoData  bool               `json:"no_data"`
	KPIs    *models.KPIs       `json:"kpis,omitempty"`
	Display *templates.KPIView `json:"display,omitempty"`
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	result := h.dashboard.Snapshot(r.Context(), "api", h.dashboard.DefaultSelection())

	resp := kpiResponse{NoData: result.NoData()}
	if !resp.NoData {
		display := templates.NewKPIView(result)
		resp.KPIs = &result.KPIs
		resp.Display = &display
	}

	errors.WriteSuccessWithHeaders(w, resp, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Options(), map[string]string{"Cache-Control": cacheMaxAge})
}

type transactionsResponse struct {
	Selection pipeline.Selection   `json:"selection"`
	Total     int                  `json:"total"`
	Returned  int                  `json:"returned"`
	Rows      []models.Transaction `json:"rows"`
}

func (h *APIHandlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	limit, err := parseLimit(r.URL.Query())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	sel := SelectionFromQuery(r.URL.Query(), h.dashboard.DefaultSelection())
	result := h.dashboard.Snapshot(r.Context(), "api", sel)

	n := min(result.View.Len(), limit)
	rows := make([]models.Transaction, n)
	for i := range n {
		rows[i] = result.View.Row(i)
	}

	errors.WriteSuccess(w, transactionsResponse{
		Selection: sel,
		Total:     result.View.Len(),
		Returned:  n,
		Rows:      rows,
	})
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	sel := SelectionFromQuery(r.URL.Query(), h.dashboard.DefaultSelection())
	result := h.dashboard.Snapshot(r.Context(), "api", sel)

	errors.WriteSuccess(w, charts.Build(result.View))
}

func (h *APIHandlers) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.dashboard.Describe(), map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
		"rows":      h.dashboard.Table().Len(),
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}

// HandleNotFound answers unknown /api/ paths with the JSON error envelope.
func (h *APIHandlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	err := errors.NotFound("unknown API endpoint").WithDetails(r.URL.Path)
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// SelectionFromQuery builds a selection from repeated item, location and payment parameters.
// An absent parameter keeps the value from defaults; a parameter given only with empty
// values selects nothing on that dimension.
func SelectionFromQuery(q url.Values, defaults pipeline.Selection) pipeline.Selection {
	return pipeline.Selection{
		Items:          queryValues(q, paramItem, defaults.Items),
		Locations:      queryValues(q, paramLocation, defaults.Locations),
		PaymentMethods: queryValues(q, paramPayment, defaults.PaymentMethods),
	}
}

func queryValues(q url.Values, key string, fallback []string) []string {
	if !q.Has(key) {
		return fallback
	}
	values := []string{}
	for _, v := range q[key] {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

func parseLimit(q url.Values) (int, error) {
	raw := q.Get(paramLimit)
	if raw == "" {
		return defaultTransactionLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxTransactionLimit {
		return 0, errors.BadRequest("invalid limit").
			WithDetails("limit must be an integer between 1 and " + strconv.Itoa(maxTransactionLimit))
	}
	return limit, nil
}
