// Package ioerr 将平台 socket 错误码归一化为一个封闭的错误分类。
//
// 可重试结果（Again/WouldBlock）是 I/O 热路径上最常见的结果，因此由进程级单例
// Again() 表示：判断时只需比较指针，无需分配或格式化字符串。
package ioerr

import (
	"errors"
	"fmt"
	"sync"
	"syscall"

	"github.com/davinci26/envoy/internal/assert"
)

// Code 为 I/O 结果的分类标签
type Code int

const (
	// CodeAgain 资源暂不可用，重新挂载后重试（EAGAIN 与 EWOULDBLOCK 在支持的平台上同值）
	CodeAgain Code = iota
	CodeNoSupport
	CodeAddressFamilyNoSupport
	CodeInProgress
	CodePermission
	CodeMessageTooBig
	CodeInterrupt
	CodeAddressNotAvailable
	CodeUnknown
)

var codeNames = [...]string{
	CodeAgain:                  "Again",
	CodeNoSupport:              "NoSupport",
	CodeAddressFamilyNoSupport: "AddressFamilyNoSupport",
	CodeInProgress:             "InProgress",
	CodePermission:             "Permission",
	CodeMessageTooBig:          "MessageTooBig",
	CodeInterrupt:              "Interrupt",
	CodeAddressNotAvailable:    "AddressNotAvailable",
	CodeUnknown:                "Unknown",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(codeNames) {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// Classify 将平台错误码映射到唯一标签，表外错误码得到 CodeUnknown
func Classify(errno syscall.Errno) Code {
	if c, ok := codeTable[errno]; ok {
		return c
	}
	return CodeUnknown
}

// Details 渲染标签与平台自身的错误描述，保留原始错误码
func Details(errno syscall.Errno) string {
	return fmt.Sprintf("%s: %s (errno %d)", Classify(errno), errno.Error(), int(errno))
}

// IoError 是一次 I/O 失败的分类结果
type IoError struct {
	errno syscall.Errno
	code  Code
	cause error // 非 errno 错误

	once    sync.Once
	details string
}

var again = func() *IoError {
	e := &IoError{errno: errnoAgain, code: CodeAgain}
	e.details = Details(errnoAgain)
	e.once.Do(func() {})
	return e
}()

// Again 返回进程级共享的可重试错误实例
func Again() *IoError { return again }

// IsAgain 判断 err 是否为共享的可重试实例
func IsAgain(err error) bool {
	e, ok := err.(*IoError)
	return ok && e == again
}

// New 为 errno 构造一个普通实例，所有权归调用方。
// 可重试错误码必须使用 Again()，否则访问 Code() 会触发调试断言。
func New(errno syscall.Errno) *IoError {
	return &IoError{errno: errno, code: Classify(errno)}
}

// FromErrno 与 New 相同，但对可重试错误码返回单例
func FromErrno(errno syscall.Errno) *IoError {
	if errno == errnoAgain {
		return again
	}
	return New(errno)
}

// FromError 从任意错误中提取分类；nil 返回 nil
func FromError(err error) *IoError {
	if err == nil {
		return nil
	}
	var ioe *IoError
	if errors.As(err, &ioe) {
		return ioe
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return FromErrno(errno)
	}
	return &IoError{code: CodeUnknown, cause: err}
}

// Code 返回分类标签
func (e *IoError) Code() Code {
	if e.code == CodeAgain {
		assert.Debug(e == again, "e == ioerr.Again()", "Didn't use ioerr.Again() to generate `Again`.")
	}
	return e.code
}

// Errno 返回原始平台错误码；对可重试实例调用属于编程错误，应先用 IsAgain 分支
func (e *IoError) Errno() syscall.Errno {
	assert.Debug(e.code != CodeAgain, "e.Code() != ioerr.CodeAgain", "Didn't branch on ioerr.IsAgain before reading the platform code.")
	return e.errno
}

// Details 返回人类可读的描述（首次调用时格式化）
func (e *IoError) Details() string {
	e.once.Do(func() {
		if e.cause != nil {
			e.details = fmt.Sprintf("%s: %s", e.code, e.cause.Error())
			return
		}
		e.details = Details(e.errno)
	})
	return e.details
}

func (e *IoError) Error() string { return e.Details() }

func (e *IoError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.errno
}

// Temporary 对 Again 与 Interrupt 返回 true：调用方应重试而非关闭
func (e *IoError) Temporary() bool {
	return e.code == CodeAgain || e.code == CodeInterrupt
}
