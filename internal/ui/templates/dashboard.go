package templates

import (
	"context"
	"encoding/json"
	"io"

	"github.com/a-h/templ"

	"cafe-dashboard/internal/charts"
	"cafe-dashboard/internal/models"
	"cafe-dashboard/internal/pipeline"
)

const PageTitle = "Café Sales Dashboard"

// ChartsSignal holds the chart figures on the client. Datastar never sends signals with a
// leading underscore back to the server.
const ChartsSignal = "_charts"

// Signals is the client state datastar sends back on every control change.
type Signals struct {
	Items     []string `json:"items"`
	Locations []string `json:"locations"`
	Payments  []string `json:"payments"`
	ShowData  bool     `json:"showData"`
}

// PageData seeds the first render of the dashboard.
type PageData struct {
	Options     models.Options
	Selection   pipeline.Selection
	KPIs        KPIView
	Summary     ViewSummary
	Description pipeline.Description
	Charts      charts.Figures
}

type chartSlot struct {
	signal string
	id     string
}

var chartSlots = []chartSlot{
	{"monthlySales", "chart-monthly-sales"},
	{"salesOverTime", "chart-sales-over-time"},
	{"yearlyDistribution", "chart-yearly-distribution"},
	{"itemShare", "chart-item-share"},
	{"dailyDistribution", "chart-daily-distribution"},
	{"scatterMatrix", "chart-scatter-matrix"},
}

func chartSlotIDs() map[string]string {
	ids := make(map[string]string, len(chartSlots))
	for _, s := range chartSlots {
		ids[s.signal] = s.id
	}
	return ids
}

// ChartSignals is the signal patch carrying freshly built figures.
func ChartSignals(figures charts.Figures) ([]byte, error) {
	return json.Marshal(map[string]charts.Figures{ChartsSignal: figures})
}

func seedSignals(data PageData) (string, error) {
	b, err := json.Marshal(map[string]any{
		"items":      nonNil(data.Selection.Items),
		"locations":  nonNil(data.Selection.Locations),
		"payments":   nonNil(data.Selection.PaymentMethods),
		"showData":   false,
		ChartsSignal: data.Charts,
	})
	return string(b), err
}

// fragment renders an html/template fragment inside a templ component.
func fragment[T any](render func(io.Writer, T) error, v T) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return render(w, v)
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
