//go:build linux || darwin

package event

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/davinci26/envoy/shutdown"
)

var keySignals = map[shutdown.Key]os.Signal{
	shutdown.Terminate:  unix.SIGTERM,
	shutdown.Interrupt:  unix.SIGINT,
	shutdown.ReopenLogs: unix.SIGUSR1,
	shutdown.Hangup:     unix.SIGHUP,
}
