package gallery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsEveryTask(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 4, nil)
	pool.Start()

	var done atomic.Int32
	for i := 0; i < 50; i++ {
		pool.Submit(func(ctx context.Context) error {
			done.Add(1)
			return nil
		})
	}

	assert.NoError(t, pool.Wait())
	assert.Equal(t, int32(50), done.Load())
}

func TestWorkerPool_FirstErrorWins(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, nil)
	pool.Start()

	first := errors.New("first")
	pool.Submit(func(ctx context.Context) error { return first })
	pool.Submit(func(ctx context.Context) error { return errors.New("second") })

	assert.ErrorIs(t, pool.Wait(), first)
}

func TestWorkerPool_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkerPool(ctx, 2, nil)
	pool.Start()
	cancel()

	assert.False(t, pool.Submit(func(ctx context.Context) error { return nil }))
	assert.ErrorIs(t, pool.Wait(), context.Canceled)
}
