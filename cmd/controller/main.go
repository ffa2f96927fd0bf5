// Command controller runs the PostgreSQL user/role reconciliation loop.
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
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/corbaltcode/postgres-role-controller/internal/config"
	"github.com/corbaltcode/postgres-role-controller/internal/metrics"
	"github.com/corbaltcode/postgres-role-controller/internal/pgateway"
	"github.com/corbaltcode/postgres-role-controller/internal/reconciler"
	"github.com/corbaltcode/postgres-role-controller/internal/retry"
	"github.com/corbaltcode/postgres-role-controller/internal/secretsource"
	"github.com/corbaltcode/postgres-role-controller/internal/specsource"
	"github.com/corbaltcode/postgres-role-controller/internal/statestore"
)

var dryRunFlag bool

func main() {
	root := &cobra.Command{
		Use:   "controller",
		Short: "Reconciles PostgreSQL users and roles against a declared desired spec.",
		RunE:  run,
	}
	root.Flags().BoolVar(&dryRunFlag, "dry-run", false, "log intended mutations without issuing them or persisting state")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()
	sugar := log.Sugar()

	cfg, err := config.Load()
	if err != nil {
		sugar.Errorw("fatal: failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = dryRunFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	restCfg, err := rest.InClusterConfig()
	if err != nil {
		sugar.Errorw("fatal: failed to load in-cluster kubeconfig", "error", err)
		os.Exit(1)
	}
	clientset, err := kubernetes.NewForConfig(restCfg)
	if err != nil {
		sugar.Errorw("fatal: failed to build kubernetes client", "error", err)
		os.Exit(1)
	}

	retryPolicy := retry.Policy{MaxAttempts: cfg.MaxRetries, Base: cfg.RetryBackoffBase}

	spec := specsource.New(clientset, cfg.Namespace, cfg.ConfigMapName, cfg.DBName, retryPolicy, sugar)
	secrets := secretsource.New(clientset, cfg.Namespace, retryPolicy, sugar)
	state := statestore.New(cfg.StateFile, sugar)
	sink := metrics.New()

	db, err := pgateway.Connect(ctx, pgateway.Config{
		Host:    cfg.DBHost,
		Port:    cfg.DBPort,
		User:    cfg.DBUser,
		Pass:    cfg.DBPass,
		DBName:  cfg.DBName,
		MinConn: int32(cfg.DBPoolMinConn),
		MaxConn: int32(cfg.DBPoolMaxConn),
	}, cfg.DryRun, retryPolicy, sugar)
	if err != nil {
		sugar.Errorw("fatal: failed to initialize database pool", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	stopMetrics := startMetricsServer(cfg.MetricsAddr, sink, sugar)
	defer stopMetrics()

	r := reconciler.New(spec, secrets, db, state, sink, cfg.DryRun, time.Duration(cfg.SyncInterval)*time.Second, sugar)

	sugar.Infow("starting reconciliation loop", "interval_seconds", cfg.SyncInterval, "dry_run", cfg.DryRun)
	if err := r.Run(ctx); err != nil {
		sugar.Infow("reconciliation loop stopped", "reason", err)
	}
	return nil
}

// startMetricsServer exposes the metrics sink's Prometheus text exposition
// over HTTP at /metrics, per spec.md §6 (path and port left to the
// deployment; the bind address is the one piece of that surface this
// process owns). Serving failures after startup are logged, not fatal —
// reconciliation continues even if the metrics port is unreachable.
func startMetricsServer(addr string, sink *metrics.Sink, log *zap.SugaredLogger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", sink.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("metrics server stopped unexpectedly", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorw("metrics server shutdown failed", "error", err)
		}
	}
}
