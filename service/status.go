package service

import (
	"fmt"
	"time"
)

// State 与服务控制管理器的状态取值一致
type State uint32

const (
	Stopped      State = 1
	StartPending State = 2
	StopPending  State = 3
	Running      State = 4
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case StartPending:
		return "StartPending"
	case StopPending:
		return "StopPending"
	case Running:
		return "Running"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}

func (s State) pending() bool { return s == StartPending || s == StopPending }

// Control 为监管方发来的控制请求
type Control uint32

const (
	ControlStop        Control = 1
	ControlShutdown    Control = 5
	ControlPreShutdown Control = 15
)

func (c Control) String() string {
	switch c {
	case ControlStop:
		return "Stop"
	case ControlShutdown:
		return "Shutdown"
	case ControlPreShutdown:
		return "PreShutdown"
	}
	return fmt.Sprintf("Control(%d)", uint32(c))
}

// Accepts 为运行期间接受的控制请求掩码
type Accepts uint32

const (
	AcceptStop        Accepts = 0x1
	AcceptShutdown    Accepts = 0x4
	AcceptPreShutdown Accepts = 0x100

	DefaultAccepts = AcceptStop | AcceptShutdown | AcceptPreShutdown
)

// errorServiceSpecificError 即 ERROR_SERVICE_SPECIFIC_ERROR
const errorServiceSpecificError = 1066

// Status 是报告给监管方的状态记录
type Status struct {
	State      State
	Accepts    Accepts
	CheckPoint uint32
	WaitHint   time.Duration
	ExitCode   ExitCode

	Win32ExitCode           uint32
	ServiceSpecificExitCode uint32
}

func newStatus(state State, code ExitCode, accepts Accepts, checkpoint uint32, waitHint time.Duration) Status {
	st := Status{State: state, CheckPoint: checkpoint, ExitCode: code}
	if state == Running {
		st.Accepts = accepts
	}
	if state.pending() {
		st.WaitHint = waitHint
	}
	if code.Failed() {
		if code.IsWin32() {
			st.Win32ExitCode = code.Win32()
		} else {
			st.Win32ExitCode = errorServiceSpecificError
			st.ServiceSpecificExitCode = uint32(code)
		}
	}
	return st
}
