package service

import "fmt"

// ExitCode 为 HRESULT 风格的退出码
type ExitCode uint32

const (
	ExitOK          ExitCode = 0x00000000 // S_OK
	ExitInvalidArgs ExitCode = 0x80070057 // E_INVALIDARG
	ExitFailure     ExitCode = 0x80004005 // E_FAIL
)

const (
	facilityWin32 = 7
	exUsage       = 64
)

func (c ExitCode) Failed() bool { return int32(c) < 0 }

func (c ExitCode) facility() uint32 { return (uint32(c) >> 16) & 0x1fff }

// IsWin32 判断是否为 FACILITY_WIN32 包装的错误码
func (c ExitCode) IsWin32() bool { return c.Failed() && c.facility() == facilityWin32 }

// Win32 取出被包装的 win32 错误码
func (c ExitCode) Win32() uint32 { return uint32(c) &^ 0x80070000 }

// ProcessCode 为控制台进程的退出码
func (c ExitCode) ProcessCode() int {
	switch {
	case c == ExitOK:
		return 0
	case c == ExitInvalidArgs:
		return exUsage
	case c.Failed():
		return 1
	}
	return 0
}

func (c ExitCode) String() string {
	switch c {
	case ExitOK:
		return "S_OK"
	case ExitInvalidArgs:
		return "E_INVALIDARG"
	case ExitFailure:
		return "E_FAIL"
	}
	return fmt.Sprintf("0x%08X", uint32(c))
}
