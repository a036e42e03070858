package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/obs"
	promexport "github.com/vidkid7/SchoolManagementSystem-sub009/metrics/export/prometheus"
)

var errSessionStoreDown = errors.New("session store unavailable")

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve /metrics and /healthz until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			health := func(ctx context.Context) error {
				if !rt.engine.SessionStoreAvailable(ctx) {
					return errSessionStoreDown
				}
				return rt.db.Pool.Ping(ctx)
			}
			ms := obs.BootstrapMetricsServer(rt.cfg.Metrics.Addr, promexport.Handler(rt.engine), health, rt.logger)

			<-ctx.Done()
			rt.logger.Info("shutting down")

			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Shutdown(sctx); err != nil {
				rt.logger.Warn("metrics shutdown", zap.Error(err))
			}
			return nil
		},
	}
}
