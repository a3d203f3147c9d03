package shutdown

import (
	"runtime"
	"sync/atomic"

	"github.com/davinci26/envoy/ioerr"
	"github.com/davinci26/envoy/network"
	"github.com/davinci26/envoy/ossys"
)

var token = [][]byte{{1}}

// Endpoint 是一对互联 socket：写端由 Post 使用，读端注册到 dispatcher。
// 两次 Drain 之间的任意多次 Post 只会写入一个字节。
type Endpoint struct {
	write *network.IoSocketHandle
	read  *network.IoSocketHandle

	pending  atomic.Bool
	closed   atomic.Bool
	inflight atomic.Int32

	buf [16]byte
}

func NewEndpoint(opts ...network.Option) (*Endpoint, error) {
	w, r, err := network.SocketPair(opts...)
	if err != nil {
		return nil, err
	}
	return &Endpoint{write: w, read: r}, nil
}

// ReadFd 返回需要注册可读事件的描述符
func (e *Endpoint) ReadFd() ossys.Fd { return e.read.Fd() }

func (e *Endpoint) Post() {
	e.inflight.Add(1)
	defer e.inflight.Add(-1)
	if e.closed.Load() {
		return
	}
	if !e.pending.CompareAndSwap(false, true) {
		return
	}
	// Again 说明已有未读字节，丢弃即可
	if _, err := e.write.Writev(token); err != nil && !ioerr.IsAgain(err) {
		e.pending.Store(false)
	}
}

// Pending 报告是否有尚未被 Drain 的投递
func (e *Endpoint) Pending() bool { return e.pending.Load() }

// Drain 读空读端并清除 pending 标记，只应在 dispatcher goroutine 上调用。
// 返回值表示本次是否有投递需要处理。
func (e *Endpoint) Drain() (bool, error) {
	for {
		n, err := e.read.Readv([][]byte{e.buf[:]})
		if err != nil {
			if ioerr.IsAgain(err) {
				break
			}
			return e.pending.Swap(false), err
		}
		if n == 0 {
			break
		}
	}
	// 读空后再清除：之后到来的 Post 会写入新字节并触发下一轮
	return e.pending.Swap(false), nil
}

// Close 关闭两端；调用前应先从 Registry 注销
func (e *Endpoint) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	for e.inflight.Load() != 0 {
		runtime.Gosched()
	}
	werr := e.write.Close()
	rerr := e.read.Close()
	if werr != nil {
		return werr
	}
	return rerr
}
