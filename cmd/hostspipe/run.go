package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/hostspipe/config"
	"github.com/turbot/hostspipe/job"
	"github.com/turbot/hostspipe/metrics"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Fetch every configured list and write the hosts files",
		Args:  cobra.NoArgs,
		RunE:  runRunCmd,
	}
	cmd.Flags().String(flagMetricsAddr, "", "Serve prometheus metrics on this address while running, e.g. :9100")
	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(viper.GetString(flagConfig))
	if err != nil {
		return err
	}

	pumpMetrics := metrics.NewPumpMetrics()
	runner, err := job.NewRunner(cfg, job.WithObservers(pumpMetrics))
	if err != nil {
		return err
	}

	if addr := viper.GetString(flagMetricsAddr); addr != "" {
		registry := prometheus.NewRegistry()
		if err := pumpMetrics.Register(registry); err != nil {
			return err
		}
		if err := registry.Register(metrics.DroppedEventsGauge(runner.DroppedEvents)); err != nil {
			return err
		}
		shutdown := serveMetrics(addr, registry)
		defer shutdown()
	}

	statuses, runErr := runner.Run(ctx)
	for _, name := range cfg.ListNames() {
		status := statuses[name]
		fmt.Fprintln(cmd.OutOrStdout(), status.String())
	}
	if runErr != nil {
		return fmt.Errorf("one or more lists failed: %w", runErr)
	}
	return nil
}

// serveMetrics serves the registry until the returned function is called
func serveMetrics(addr string, registry *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown failed", "error", err)
		}
	}
}
