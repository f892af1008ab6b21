package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_CollapsesConcurrentCalls(t *testing.T) {
	t.Parallel()

	var (
		g     Group[string]
		calls atomic.Int32
		wg    sync.WaitGroup
	)
	release := make(chan struct{})

	const workers = 16
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := g.Do(context.Background(), "schedule:202505", func(context.Context) (string, error) {
				calls.Add(1)
				<-release
				return "ok", nil
			})
			if err != nil {
				results <- err.Error()
				return
			}
			results <- v
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, "ok", v)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestGroup_CallerCancellationDoesNotFailSharedCall(t *testing.T) {
	t.Parallel()

	var g Group[int]
	release := make(chan struct{})
	started := make(chan struct{})

	leaderDone := make(chan error, 1)
	go func() {
		_, _, err := g.Do(context.Background(), "k", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 7, ctx.Err()
		})
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		_, _, err := g.Do(ctx, "k", func(context.Context) (int, error) { return 0, nil })
		waiterDone <- err
	}()

	cancel()
	assert.ErrorIs(t, <-waiterDone, context.Canceled)

	close(release)
	require.NoError(t, <-leaderDone)
}

func TestGroup_PropagatesError(t *testing.T) {
	t.Parallel()

	var g Group[[]byte]
	boom := errors.New("boom")

	_, shared, err := g.Do(context.Background(), "k", func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, shared)
}

func TestGroup_DetachedContextKeepsValues(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}
	var g Group[string]
	ctx := context.WithValue(context.Background(), ctxKey{}, "trace")

	v, _, err := g.Do(ctx, "k", func(ctx context.Context) (string, error) {
		s, _ := ctx.Value(ctxKey{}).(string)
		return s, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "trace", v)
}

func TestGroup_SharedCallKeepsLeaderDeadline(t *testing.T) {
	t.Parallel()

	var g Group[bool]
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	want, _ := ctx.Deadline()

	hasDeadline, _, err := g.Do(ctx, "k", func(ctx context.Context) (bool, error) {
		got, ok := ctx.Deadline()
		return ok && got.Equal(want), nil
	})
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}
