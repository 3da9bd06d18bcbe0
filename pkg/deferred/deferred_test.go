package deferred_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbhub/contents_sdk_go/pkg/deferred"
)

func TestResolveWinsOverLaterReject(t *testing.T) {
	d := deferred.New[int]()
	assert.True(t, d.Resolve(42))
	assert.False(t, d.Reject(errors.New("too late")))
	assert.False(t, d.Resolve(7))

	val, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, val)
}

func TestRejectWinsOverLaterResolve(t *testing.T) {
	boom := errors.New("boom")
	d := deferred.New[string]()
	assert.True(t, d.Reject(boom))
	assert.False(t, d.Resolve("ignored"))

	_, err := d.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestObserversAfterSettlement(t *testing.T) {
	d := deferred.New[string]()
	d.Resolve("done")
	require.True(t, d.Settled())

	// every late observer still sees the original outcome
	for i := 0; i < 3; i++ {
		val, err := d.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "done", val)
	}
}

func TestAwaitBeforeSettlement(t *testing.T) {
	d := deferred.New[int]()

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val, err := d.Await(context.Background())
			if err == nil {
				results[i] = val
			}
		}(i)
	}

	d.Resolve(9)
	wg.Wait()
	for _, val := range results {
		assert.Equal(t, 9, val)
	}
}

func TestAwaitCancellation(t *testing.T) {
	d := deferred.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := d.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, d.Settled())

	// the deferred is still usable after a cancelled wait
	d.Resolve(1)
	val, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, val)
}

func TestRun(t *testing.T) {
	d := deferred.Run(func() (int, error) { return 5, nil })
	val, err := d.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, val)

	boom := errors.New("boom")
	d2 := deferred.Run(func() (int, error) { return 0, boom })
	_, err = d2.Await(context.Background())
	assert.ErrorIs(t, err, boom)
}
