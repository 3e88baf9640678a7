package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every tick until ctx is done.
// Runs never overlap; a tick that fires during a run is dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	log := zap.L().With(zap.String("task", name))
	run := func() {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Error("scheduled task failed", zap.Error(err))
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
