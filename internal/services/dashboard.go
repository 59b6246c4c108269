package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/models"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/pipeline"
)

// Pipeline run outcomes, as reported to metrics.
const (
	ResultOK        = "ok"
	ResultEmptyView = "empty_view"
	ResultNoData    = "no_data"
)

// Dashboard owns the loaded sales table and answers every dashboard query from it.
// The table is set once, before the HTTP server starts, and only read afterwards.
type Dashboard struct {
	table    *dataset.Table
	csvPath  string
	loadedAt time.Time
	loadTook time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewDashboard creates an empty dashboard. metrics may be nil.
func NewDashboard(logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		table:   dataset.NewTable(nil),
		logger:  logger,
		metrics: metrics,
	}
}

// LoadFromCSV loads the sales CSV at filename. Load failures are returned as *dataset.LoadError.
func (d *Dashboard) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	d.logger.Info("loading sales dataset", "filename", filename)

	table, err := dataset.Load(ctx, filename)
	if err != nil {
		return fmt.Errorf("load sales csv: %w", err)
	}

	d.csvPath = filename
	d.setTable(table, time.Since(start))

	d.logger.Info("sales dataset loaded",
		"rows", table.Len(),
		"skipped", table.Skipped(),
		"duration", d.loadTook,
	)
	if table.Len() == 0 {
		d.logger.Warn("sales dataset is empty; KPIs will show no data")
	}
	return nil
}

// SetData replaces the table with rows. Intended for tests and tools that build data in memory.
func (d *Dashboard) SetData(rows []models.Transaction) {
	d.setTable(dataset.NewTable(rows), 0)
}

func (d *Dashboard) setTable(table *dataset.Table, took time.Duration) {
	d.table = table
	d.loadedAt = time.Now()
	d.loadTook = took
	if d.metrics != nil {
		d.metrics.RecordDatasetLoad(table.Len(), table.Skipped(), took)
	}
}

func (d *Dashboard) Table() *dataset.Table {
	return d.table
}

func (d *Dashboard) Options() models.Options {
	return pipeline.Options(d.table)
}

func (d *Dashboard) DefaultSelection() pipeline.Selection {
	return pipeline.DefaultSelection(d.table)
}

// Snapshot runs the filter and aggregate pipeline for sel. trigger names the caller
// (for example "sse" or "api") and is only used to label metrics.
func (d *Dashboard) Snapshot(ctx context.Context, trigger string, sel pipeline.Selection) pipeline.Result {
	_, span := observability.StartSpan(ctx, "pipeline.run")
	start := time.Now()

	result := pipeline.Run(d.table, sel)

	took := time.Since(start)
	outcome := ResultOK
	switch {
	case result.NoData():
		outcome = ResultNoData
	case result.View.Len() == 0:
		outcome = ResultEmptyView
	}

	span.SetTag("trigger", trigger)
	span.SetTag("outcome", outcome)
	span.SetTag("filtered_rows", strconv.Itoa(result.View.Len()))
	span.Finish(observability.LoggerFrom(ctx, d.logger))

	if d.metrics != nil {
		d.metrics.RecordPipelineRun(trigger, outcome, result.View.Len(), took)
	}
	return result
}

func (d *Dashboard) Describe() pipeline.Description {
	return pipeline.Describe(d.table)
}

// Stats reports dataset facts for the admin endpoint.
func (d *Dashboard) Stats() map[string]any {
	opts := d.Options()

	inconsistent := 0
	for i := 0; i < d.table.Len(); i++ {
		if !d.table.Row(i).ConsistentTotal() {
			inconsistent++
		}
	}

	return map[string]any{
		"csv_file":            d.csvPath,
		"record_count":        d.table.Len(),
		"skipped_rows":        d.table.Skipped(),
		"inconsistent_totals": inconsistent,
		"loaded_at":           d.loadedAt,
		"load_duration_ms":    d.loadTook.Milliseconds(),
		"items":               len(opts.Items),
		"locations":           len(opts.Locations),
		"payment_methods":     len(opts.PaymentMethods),
	}
}
