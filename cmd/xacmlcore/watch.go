package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/xacmlcore/pkg/cli"
	"mercator-hq/xacmlcore/pkg/config"
	"mercator-hq/xacmlcore/pkg/pdp"
	"mercator-hq/xacmlcore/pkg/telemetry/health"
	"mercator-hq/xacmlcore/pkg/telemetry/metrics"
)

var watchFlags struct {
	rules       string
	metricsAddr string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep rule documents loaded and reload them on change",
	Long: `Load rule documents and reload them whenever a file changes, logging every
reload. A failed reload keeps the previous rule sets loaded.

With --metrics-addr, Prometheus metrics for reloads and loaded rule sets are
served at /metrics, next to /health and /ready. /ready answers 503 while the
last reload failed.

Examples:
  # Watch a directory
  xacmlcore watch --rules rules/

  # Watch and expose metrics
  xacmlcore watch --rules rules/ --metrics-addr 127.0.0.1:9090`,
	Args: cobra.NoArgs,
	RunE: watchRules,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.rules, "rules", "r", "", "rule document or directory (default: rules.path from config)")
	watchCmd.Flags().StringVar(&watchFlags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func watchRules(cmd *cobra.Command, args []string) error {
	cfg := config.GetConfig()
	logger := slog.Default()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	src, err := newRuleSource(cfg, watchFlags.rules, logger)
	if err != nil {
		return err
	}

	opts := []pdp.Option{pdp.WithLogger(logger)}
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
		opts = append(opts, pdp.WithMetrics(collector.Evaluation()))
	}

	engine, err := pdp.NewEngine(engineConfig(cfg).WithWatch(true), src, opts...)
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer engine.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Watching %s (%d rule set(s) loaded)\n", src, len(engine.RuleSets()))

	if watchFlags.metricsAddr != "" {
		if collector == nil {
			return cli.NewCommandError("watch", errors.New("--metrics-addr requires telemetry.metrics.enabled"))
		}
		srv := &http.Server{
			Addr:              watchFlags.metricsAddr,
			Handler:           serveMux(collector, engine),
			ReadHeaderTimeout: 5 * time.Second,
		}
		errChan := make(chan error, 1)
		go func() {
			logger.Info("serving metrics", "address", watchFlags.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics server shutdown failed", "error", err)
			}
		}()

		select {
		case err := <-errChan:
			return cli.NewCommandError("watch", fmt.Errorf("metrics server: %w", err))
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Stopped")
	return nil
}

func serveMux(collector *metrics.Collector, engine *pdp.Engine) http.Handler {
	checker := health.New(2 * time.Second)
	checker.Register("engine", engine.Ready)

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	checker.RegisterHandlers(mux)
	return mux
}
