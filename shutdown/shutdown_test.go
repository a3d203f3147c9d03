package shutdown_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	iassert "github.com/davinci26/envoy/internal/assert"
	"github.com/davinci26/envoy/ossys"
	"github.com/davinci26/envoy/shutdown"
)

func newEndpoint(t *testing.T) *shutdown.Endpoint {
	t.Helper()
	e, err := shutdown.NewEndpoint()
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

// drainEventually 等待投递被 Drain 观察到
func drainEventually(t *testing.T, e *shutdown.Endpoint) {
	t.Helper()
	require.Eventually(t, func() bool {
		posted, err := e.Drain()
		return err == nil && posted
	}, time.Second, time.Millisecond)
}

func TestDefaultIsSingleton(t *testing.T) {
	var wg sync.WaitGroup
	regs := make([]*shutdown.Registry, 8)
	for i := range regs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			regs[i] = shutdown.Default()
		}()
	}
	wg.Wait()
	for _, r := range regs {
		assert.Same(t, regs[0], r)
	}
}

func TestPostWithoutRegistrationIsNoop(t *testing.T) {
	r := shutdown.NewRegistry()
	assert.False(t, r.Registered(shutdown.Terminate))
	assert.NotPanics(t, func() {
		r.Post(shutdown.Terminate)
		r.Post(shutdown.Key(42))
	})
}

func TestPostsCoalesceUntilDrain(t *testing.T) {
	r := shutdown.NewRegistry()
	e := newEndpoint(t)
	r.Register(shutdown.Terminate, e)
	require.True(t, r.Registered(shutdown.Terminate))

	for i := 0; i < 5; i++ {
		r.Post(shutdown.Terminate)
	}
	assert.True(t, e.Pending())

	// 只写入了一个字节
	var got int
	buf := make([]byte, 8)
	read := func() bool {
		n, err := ossys.Default().Readv(e.ReadFd(), [][]byte{buf})
		if err != nil {
			return false
		}
		got += n
		return true
	}
	require.Eventually(t, read, time.Second, time.Millisecond)
	assert.False(t, read())
	assert.Equal(t, 1, got)

	posted, err := e.Drain()
	require.NoError(t, err)
	assert.True(t, posted)
	assert.False(t, e.Pending())

	posted, err = e.Drain()
	require.NoError(t, err)
	assert.False(t, posted)
}

func TestPostAfterDrainIsObservedAgain(t *testing.T) {
	r := shutdown.NewRegistry()
	e := newEndpoint(t)
	r.Register(shutdown.ReopenLogs, e)

	r.Post(shutdown.ReopenLogs)
	drainEventually(t, e)

	r.Post(shutdown.ReopenLogs)
	assert.True(t, e.Pending())
	drainEventually(t, e)
}

func TestDoubleRegistrationIsFatal(t *testing.T) {
	r := shutdown.NewRegistry()
	r.Register(shutdown.Hangup, newEndpoint(t))

	defer func() {
		rec := recover()
		require.NotNil(t, rec)
		f, ok := rec.(*iassert.Failure)
		require.True(t, ok)
		assert.Contains(t, f.Error(), "Hangup already has a registered endpoint")
	}()
	r.Register(shutdown.Hangup, newEndpoint(t))
}

func TestUnregister(t *testing.T) {
	r := shutdown.NewRegistry()
	e := newEndpoint(t)
	other := newEndpoint(t)
	r.Register(shutdown.Interrupt, e)

	assert.False(t, r.Unregister(shutdown.Interrupt, other))
	assert.True(t, r.Unregister(shutdown.Interrupt, e))
	assert.False(t, r.Registered(shutdown.Interrupt))

	r.Post(shutdown.Interrupt)
	assert.False(t, e.Pending())

	// 注销后可以重新注册
	r.Register(shutdown.Interrupt, other)
	assert.True(t, r.Registered(shutdown.Interrupt))
}

func TestPostAfterCloseIsNoop(t *testing.T) {
	e, err := shutdown.NewEndpoint()
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.NotPanics(t, e.Post)
	assert.False(t, e.Pending())
}

func TestConcurrentPosts(t *testing.T) {
	r := shutdown.NewRegistry()
	e := newEndpoint(t)
	r.Register(shutdown.Terminate, e)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Post(shutdown.Terminate)
			}
		}()
	}
	wg.Wait()
	drainEventually(t, e)
	assert.False(t, e.Pending())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "ReopenLogs", shutdown.ReopenLogs.String())
	assert.Equal(t, "Key(9)", shutdown.Key(9).String())
	assert.Len(t, shutdown.Keys(), 4)
}
