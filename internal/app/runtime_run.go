package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

func (r *Runtime) Run(ctx context.Context) error {
	r.logger.Info("addrwatch runtime starting",
		"data_dir", r.cfg.DataDir,
		"resolver_mode", r.cfg.ResolverMode,
		"operator_id", r.cfg.OperatorID,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, conn := range r.connectors {
		connector := conn
		group.Go(func() error {
			return connector.Start(groupCtx)
		})
	}

	return group.Wait()
}

// Close waits for in-flight name resolutions so a resolved address is
// not lost on shutdown. Resolutions still running after the grace
// period are abandoned.
func (r *Runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.collector.Drain(ctx); err != nil {
		r.logger.Warn("resolution drain timed out", "error", err)
	}
	r.logger.Info("addrwatch runtime closed")
	return nil
}
