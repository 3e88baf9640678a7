package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvery_RunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var n atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		Every(ctx, 10*time.Millisecond, "count", func(context.Context) error {
			if n.Add(1) >= 3 {
				cancel()
			}
			return errors.New("keeps going after errors")
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not stop after cancel")
	}
	assert.GreaterOrEqual(t, n.Load(), int32(3))
}

func TestEvery_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var n atomic.Int32
	Every(ctx, time.Hour, "once", func(context.Context) error {
		n.Add(1)
		return nil
	})
	assert.Equal(t, int32(1), n.Load())
}
