package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/netprune/netprune/config"
	"github.com/netprune/netprune/telemetry"
)

var (
	version = "0.1.0"

	flagConfig      string
	flagDebug       bool
	flagMetricsAddr string

	cfg     *config.Config
	logger  *telemetry.Logger
	metrics *telemetry.ScanMetrics

	otelShutdown func(context.Context) error

	rootCmd = &cobra.Command{
		Use:   "netprune",
		Short: "Find and remove orphaned AWS network resources",
		Long: `netprune - orphaned network resource scanner

netprune inventories security groups, VPCs, subnets and Elastic IPs
across your AWS account, cross-references every place they can be
used, and reports the ones nothing references. The clean command
deletes them after explicit confirmation.`,
		Version:           version,
		PersistentPreRunE: setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return teardown(cmd.Context())
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`netprune {{.Version}}
`)
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address during the run")
}

func setup(cmd *cobra.Command, args []string) error {
	if flagDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if flagConfig != "" {
		loaded, err := config.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	logger = telemetry.NewLogger("netprune")

	shutdown, err := telemetry.InitOTEL(cmd.Context(), telemetry.Config{
		ServiceName:    "netprune",
		ServiceVersion: version,
		Insecure:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	otelShutdown = shutdown

	metrics, err = telemetry.InitScanMetrics(telemetry.Meter)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	if addr := metricsAddr(); addr != "" {
		startMetricsServer(addr)
	}

	return nil
}

func metricsAddr() string {
	if flagMetricsAddr != "" {
		return flagMetricsAddr
	}
	return cfg.MetricsAddr
}

// startMetricsServer serves /metrics for the lifetime of the run.
// Scans across many regions can take minutes; this lets Prometheus
// watch them happen.
func startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(telemetry.PrometheusRegistry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("metrics server listening")
}

func teardown(ctx context.Context) error {
	if otelShutdown == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return otelShutdown(shutdownCtx)
}
