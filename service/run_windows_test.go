//go:build windows

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows/svc"

	"github.com/davinci26/envoy/shutdown"
)

type chanPoster chan shutdown.Key

func (p chanPoster) Post(key shutdown.Key) { p <- key }

type waitServer chan shutdown.Key

func (s waitServer) Run() bool {
	<-s
	return true
}

func TestServiceExitCode(t *testing.T) {
	specific, code := serviceExitCode(ExitOK)
	assert.False(t, specific)
	assert.Zero(t, code)

	specific, code = serviceExitCode(ExitInvalidArgs)
	assert.False(t, specific)
	assert.Equal(t, uint32(87), code)

	specific, code = serviceExitCode(ExitFailure)
	assert.True(t, specific)
	assert.Equal(t, uint32(0x80004005), code)
}

func TestExecuteForwardsStop(t *testing.T) {
	poster := make(chanPoster, 1)
	h := NewHost(func([]string) (Server, error) {
		return waitServer(poster), nil
	}, WithPoster(poster))

	r := make(chan svc.ChangeRequest)
	changes := make(chan svc.Status, 16)
	type result struct {
		specific bool
		code     uint32
	}
	done := make(chan result, 1)
	go func() {
		specific, code := (&scmHandler{host: h}).Execute([]string{"envoy"}, r, changes)
		done <- result{specific, code}
	}()

	waitFor := func(state svc.State) svc.Status {
		for {
			select {
			case st := <-changes:
				if st.State == state {
					return st
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("no %d status", state)
			}
		}
	}

	running := waitFor(svc.Running)
	assert.Equal(t, svc.AcceptStop|svc.AcceptShutdown|svc.AcceptPreShutdown, running.Accepts)

	r <- svc.ChangeRequest{Cmd: svc.Interrogate}
	assert.Equal(t, svc.Running, waitFor(svc.Running).State)

	r <- svc.ChangeRequest{Cmd: svc.Stop}
	waitFor(svc.StopPending)
	waitFor(svc.Stopped)

	select {
	case res := <-done:
		require.False(t, res.specific)
		assert.Zero(t, res.code)
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return")
	}
}
