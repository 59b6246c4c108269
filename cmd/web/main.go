package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"cafe-dashboard/internal/config"
	"cafe-dashboard/internal/dataset"
	"cafe-dashboard/internal/handlers"
	"cafe-dashboard/internal/middleware"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/pipeline"
	"cafe-dashboard/internal/sample"
	"cafe-dashboard/internal/server"
	"cafe-dashboard/internal/services"
	"cafe-dashboard/internal/ui/templates"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var csvFile string

	root := &cobra.Command{
		Use:          "web",
		Short:        "Serve the " + templates.PageTitle,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), csvFile)
		},
	}
	root.PersistentFlags().StringVar(&csvFile, "csv", "", "sales CSV to load (overrides CSV_FILE)")

	root.AddCommand(newKPIsCmd(&csvFile), newSampleCmd(), newVersionCmd())
	return root
}

func loadConfig(csvFile string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if csvFile != "" {
		cfg.Dataset.CSVFile = csvFile
	}
	return cfg, nil
}

// loadDashboard reads the configured CSV into a new dashboard. metrics may be nil.
func loadDashboard(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*services.Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Dataset.LoadTimeout)
	defer cancel()

	dashboard := services.NewDashboard(logger, metrics)
	if err := dashboard.LoadFromCSV(ctx, cfg.Dataset.CSVFile); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// newHandler wraps the routes in the middleware chain. Metrics sits innermost so it sees
// the matched route pattern.
func newHandler(cfg *config.Config, dashboard *services.Dashboard, logger *slog.Logger, metrics *observability.Metrics) http.Handler {
	srv := server.NewServer(dashboard, logger, metrics, cfg.Metrics)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Metrics(metrics),
	)

	return middlewareChain(srv)
}

func runServe(ctx context.Context, csvFile string) error {
	cfg, err := loadConfig(csvFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", handlers.Version,
		"config", cfg,
	)

	metrics := observability.NewMetrics()

	dashboard, err := loadDashboard(ctx, cfg, logger, metrics)
	if err != nil {
		var loadErr *dataset.LoadError
		if errors.As(err, &loadErr) {
			logger.Error("failed to load sales dataset", "path", loadErr.Path, "op", loadErr.Op, "error", loadErr.Err)
		} else {
			logger.Error("failed to load sales dataset", "error", err)
		}
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, dashboard, logger, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down dashboard service", "rows", dashboard.Table().Len())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		return err
	}

	logger.Info("application stopped gracefully")
	return nil
}

func newKPIsCmd(csvFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "kpis",
		Short: "Print the KPIs of the sales CSV and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*csvFile)
			if err != nil {
				return err
			}
			logger := observability.NewLogger(cfg.Logger)

			dashboard, err := loadDashboard(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			result := dashboard.Snapshot(cmd.Context(), "cli", dashboard.DefaultSelection())
			return printKPIs(cmd.OutOrStdout(), result)
		},
	}
}

func printKPIs(w io.Writer, result pipeline.Result) error {
	if result.NoData() {
		_, err := fmt.Fprintln(w, "No data: the sales dataset is empty.")
		return err
	}
	v := templates.NewKPIView(result)
	_, err := fmt.Fprintf(w, "Total Sales:         %s\nAverage Transaction: %s\nUnique Items Sold:   %s\nTop-Selling Item:    %s\n",
		v.TotalSales, v.AverageTransaction, v.UniqueItems, v.TopSellingItem)
	return err
}

func newSampleCmd() *cobra.Command {
	var (
		rows int
		out  string
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic sales CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := sample.Options{Rows: rows, Seed: seed}
			if out == "-" {
				return sample.Write(cmd.OutOrStdout(), opts)
			}
			if err := sample.WriteFile(out, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", rows, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 1000, "number of transactions to generate")
	cmd.Flags().StringVar(&out, "out", config.DefaultCSVFile, `output file, or "-" for stdout`)
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), handlers.Version)
		},
	}
}
