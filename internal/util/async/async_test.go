package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AllSucceed(t *testing.T) {
	var count atomic.Int32
	inc := func(context.Context) error {
		count.Add(1)
		return nil
	}

	err := Run(context.Background(), Task{Name: "a", Func: inc}, Task{Name: "b", Func: inc}, Task{Name: "c", Func: inc})
	require.NoError(t, err)
	assert.Equal(t, int32(3), count.Load())
}

func TestRun_NoTasks(t *testing.T) {
	assert.NoError(t, Run(context.Background()))
}

func TestRun_CollectsEveryError(t *testing.T) {
	errA := errors.New("catalog unavailable")
	errB := errors.New("directory unavailable")

	err := Run(context.Background(),
		Task{Name: "poller", Func: func(context.Context) error { return errA }},
		Task{Name: "ok", Func: func(context.Context) error { return nil }},
		Task{Name: "directory", Func: func(context.Context) error { return errB }},
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, "poller: catalog unavailable\ndirectory: directory unavailable", err.Error())
}

func TestRun_Concurrent(t *testing.T) {
	// Both tasks wait for each other, so Run only returns if they overlap.
	a, b := make(chan struct{}), make(chan struct{})
	rendezvous := func(mine, theirs chan struct{}) func(context.Context) error {
		return func(ctx context.Context) error {
			close(mine)
			select {
			case <-theirs:
				return nil
			case <-time.After(5 * time.Second):
				return errors.New("tasks did not run concurrently")
			}
		}
	}

	err := Run(context.Background(),
		Task{Name: "a", Func: rendezvous(a, b)},
		Task{Name: "b", Func: rendezvous(b, a)},
	)
	assert.NoError(t, err)
}

func TestRun_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	err := Run(ctx, Task{Name: "ctx", Func: func(ctx context.Context) error {
		if ctx.Value(key{}) != "v" {
			return errors.New("context not propagated")
		}
		return nil
	}})
	assert.NoError(t, err)
}
