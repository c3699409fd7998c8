package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompletesOnce(t *testing.T) {
	f, complete := New[int]()

	_, _, ok := f.Poll()
	assert.False(t, ok)

	complete(1, nil)
	complete(2, errors.New("ignored"))

	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err, ok = f.Poll()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureOnComplete(t *testing.T) {
	f, complete := New[string]()

	var wg sync.WaitGroup
	wg.Add(2)
	var got []string
	var mu sync.Mutex
	record := func(v string, err error) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
		wg.Done()
	}

	f.OnComplete(record)
	go complete("done", nil)
	<-f.Done()
	f.OnComplete(record)

	wg.Wait()
	assert.Equal(t, []string{"done", "done"}, got)
}

func TestFutureAwaitHonoursContext(t *testing.T) {
	f, _ := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFailed(t *testing.T) {
	sentinel := errors.New("failed")
	v, err := Failed[int](sentinel).Result()
	assert.ErrorIs(t, err, sentinel)
	assert.Zero(t, v)
}
