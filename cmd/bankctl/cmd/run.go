package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	lg "github.com/Andrej220/go-utils/zlog"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	wp "github.com/azargarov/bankpool"
	"github.com/azargarov/bankpool/internal/config"
	"github.com/azargarov/bankpool/internal/teller"
	"github.com/azargarov/bankpool/ledger"
)

const shutdownTimeout = 10 * time.Second

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start an interactive teller session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runTeller(cmd, cfg)
		},
	}
	return cmd
}

func runTeller(cmd *cobra.Command, cfg config.Config) (err error) {
	ctx := cmd.Context()
	logger := lg.FromContext(ctx)

	store, err := openIndex(ctx, cfg.IndexDir)
	if err != nil {
		return err
	}
	defer func() {
		err = multierror.Append(err, store.Close()).ErrorOrNil()
	}()

	var metrics wp.MetricsPolicy = &wp.NoopMetrics{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		pm, err := wp.NewPromMetrics(reg, "bank")
		if err != nil {
			return err
		}
		metrics = pm
		srv := serveMetrics(ctx, cfg.MetricsAddr, reg)
		defer srv.Close()
	}

	pool, err := wp.NewPool(wp.Options{
		Workers:      cfg.Workers,
		Metrics:      metrics,
		LockOSThread: cfg.LockOSThread,
		PinWorkers:   cfg.PinWorkers,
		OnJobError: func(err error) {
			logger.Warn("job failed", lg.Any("error", err))
		},
		OnInternalError: func(err error) {
			logger.Error("pool failure", lg.Any("error", err))
		},
	})
	if err != nil {
		return err
	}

	s := &teller.Session{
		Ledger: ledger.New(
			ledger.WithIndex(store),
			ledger.WithPayroll(cfg.Payroll),
			ledger.WithInterestDivisor(cfg.InterestDivisor),
		),
		Pool:  pool,
		Index: store,
		In:    cmd.InOrStdin(),
		Out:   cmd.OutOrStdout(),
	}
	runErr := s.Run(ctx)

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierror.Append(runErr, pool.Shutdown(sctx)).ErrorOrNil()
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.FromContext(ctx).Error("metrics server stopped", lg.Any("error", err))
		}
	}()
	return srv
}
