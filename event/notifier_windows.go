//go:build windows

package event

import (
	"os"
	"syscall"

	"github.com/davinci26/envoy/shutdown"
)

// 控制台事件由运行时转换：CTRL_C/CTRL_BREAK 为 os.Interrupt，
// CTRL_CLOSE/LOGOFF/SHUTDOWN 为 SIGTERM，并由运行时向系统确认。
// ReopenLogs 与 Hangup 没有控制台来源，只能经由 shutdown.Registry 投递。
var keySignals = map[shutdown.Key]os.Signal{
	shutdown.Terminate: syscall.SIGTERM,
	shutdown.Interrupt: os.Interrupt,
}
