// Command graphview lays out and draws node-edge datasets, either to a PNG
// or interactively in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"graphview/config"
	"graphview/metrics"
)

// Version is the current version of graphview.
var Version = "0.1.0"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "graphview",
	Short: "Force-directed graph viewer",
	Long: `graphview lays out a node-edge dataset with a force simulation and draws it.

Datasets are JSON, YAML or TOML documents with "nodes" and "edges" lists.
Each node may carry id, label, type, shape, status, x and y; each edge
needs source and target. Other keys are kept as attributes.

Examples:
  graphview render graph.json -o graph.png   # Lay out and write a PNG
  graphview view graph.yaml                  # Explore in the terminal
  graphview inspect graph.toml               # Summarise a dataset`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./"+config.FileName+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug|info|warn|error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file named by --config, or the default file
// in the working directory, and applies flag overrides.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.FileName
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// serveMetrics starts the Prometheus endpoint when metrics are enabled.
// The collector is nil otherwise; graph components accept that. The stop
// function shuts the endpoint down.
func serveMetrics(cfg *config.Config, logger *zap.Logger) (*metrics.Collector, func()) {
	if !cfg.Metrics.Enabled {
		return nil, func() {}
	}

	collector := metrics.NewCollector(cfg.Metrics.Namespace)
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return collector, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Metrics server shutdown", zap.Error(err))
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
