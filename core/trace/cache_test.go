package trace_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"presence-sync/core/storage/mocks"
	"presence-sync/core/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const reconnectOnly = `steps: [{reconnect: true}]`

func body(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}

func TestCache_Hit(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(reconnectOnly), nil).Once()

	cache := trace.NewCache(client, "traces", time.Minute)

	first, err := cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)
	second, err := cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)

	assert.Same(t, first, second)
	client.AssertNumberOfCalls(t, "GetObject", 1)
}

func TestCache_NoTTL(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(reconnectOnly), nil).Once()
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(reconnectOnly), nil).Once()

	cache := trace.NewCache(client, "traces", 0)

	_, err := cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)
	_, err = cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)

	client.AssertNumberOfCalls(t, "GetObject", 2)
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(reconnectOnly), nil).Once()
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(`steps: [{reconnect: true}, {reconnect: true}]`), nil).Once()

	cache := trace.NewCache(client, "traces", time.Hour)

	first, err := cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)
	assert.Len(t, first.Steps, 1)

	cache.Invalidate("lobby.yaml")

	second, err := cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)
	assert.Len(t, second.Steps, 2)
}

func TestCache_ErrorNotCached(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(nil, errors.New("timeout")).Once()
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(reconnectOnly), nil).Once()

	cache := trace.NewCache(client, "traces", time.Hour)

	_, err := cache.Get(ctx, "lobby.yaml")
	assert.ErrorContains(t, err, "timeout")

	tr, err := cache.Get(ctx, "lobby.yaml")
	require.NoError(t, err)
	assert.Len(t, tr.Steps, 1)
}

func TestCache_ConcurrentGet(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "traces", "lobby.yaml", mock.Anything).
		Return(body(reconnectOnly), nil).Once()

	cache := trace.NewCache(client, "traces", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := cache.Get(ctx, "lobby.yaml")
			if assert.NoError(t, err) {
				assert.Len(t, tr.Steps, 1)
			}
		}()
	}
	wg.Wait()

	client.AssertNumberOfCalls(t, "GetObject", 1)
}
