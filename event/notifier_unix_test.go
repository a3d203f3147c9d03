//go:build linux || darwin

package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/shutdown"
)

func TestOSSignalReachesDispatcher(t *testing.T) {
	d, _ := newDispatcher(t)

	fired := make(chan struct{})
	se, err := d.ListenForSignal(shutdown.ReopenLogs, func() {
		close(fired)
		d.Exit()
	})
	require.NoError(t, err)
	defer se.Close()

	done := runAsync(t, d, context.Background())
	require.NoError(t, unix.Kill(unix.Getpid(), unix.SIGUSR1))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("SIGUSR1 was not delivered to the dispatcher")
	}
	assert.NoError(t, wait(t, done))
}
