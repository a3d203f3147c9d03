package poller

import (
	"errors"
	"time"

	"github.com/davinci26/envoy/ossys"
)

// FD 表示 socket 描述符。
type FD = ossys.Fd

var ErrClosed = errors.New("poller: closed")

// Handler 是 poller 的事件回调接口。
// 在调用 Wait 的 goroutine 中执行，要求无阻塞返回。

type Handler interface {
	OnReadable(fd FD)
	OnWritable(fd FD)
	OnClose(fd FD, err error)
}

// Poller 提供就绪注册与单轮事件等待，循环由调用方驱动。
// 除 Wake 外的方法只应在驱动循环的 goroutine 上调用。

type Poller interface {
	Register(fd FD, readable, writable bool) error
	Mod(fd FD, readable, writable bool) error
	Unregister(fd FD) error
	// Wait 阻塞到有事件、被 Wake 或超时，并把本轮事件分发给 h。
	// timeout < 0 表示无限等待；被信号中断视为空轮次。
	Wait(h Handler, timeout time.Duration) error
	// Wake 可在任意 goroutine 调用，使正在进行的 Wait 返回
	Wake() error
	Close() error
}

func timeoutMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
