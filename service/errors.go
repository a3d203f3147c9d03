package service

import "fmt"

// StartupErrorKind 对启动失败分类，每类对应唯一的退出码
type StartupErrorKind int

const (
	// MalformedArgs 命令行参数无法解析
	MalformedArgs StartupErrorKind = iota
	// NoServing 正常结束但不进入服务，例如 --version
	NoServing
	// InitFailure 初始化失败
	InitFailure
)

func (k StartupErrorKind) String() string {
	switch k {
	case MalformedArgs:
		return "malformed arguments"
	case NoServing:
		return "no serving"
	case InitFailure:
		return "initialization failure"
	}
	return fmt.Sprintf("StartupErrorKind(%d)", int(k))
}

func (k StartupErrorKind) exitCode() ExitCode {
	switch k {
	case NoServing:
		return ExitOK
	case MalformedArgs:
		return ExitInvalidArgs
	}
	return ExitFailure
}

type StartupError struct {
	Kind StartupErrorKind
	Err  error
}

func NewStartupError(kind StartupErrorKind, err error) *StartupError {
	return &StartupError{Kind: kind, Err: err}
}

func (e *StartupError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }
