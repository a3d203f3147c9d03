// Package network 提供基于原始 socket 描述符的 I/O 句柄。
//
// 所有操作返回的非 nil 错误均为 *ioerr.IoError；可重试结果总是 ioerr.Again() 单例，
// 调用方用 ioerr.IsAgain 判断后重新挂载即可。
package network

import (
	"net/netip"
	"time"

	"github.com/davinci26/envoy/internal/netutil"
	"github.com/davinci26/envoy/ioerr"
	"github.com/davinci26/envoy/ossys"
	"github.com/davinci26/envoy/stats"
)

// noCopy 配合 go vet copylocks 检查，句柄只能以指针传递
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// IoSocketHandle 独占一个 socket 描述符
type IoSocketHandle struct {
	_ noCopy

	fd      ossys.Fd
	sys     ossys.SysCalls
	metrics *stats.Metrics
}

type Option func(*IoSocketHandle)

// WithSysCalls 替换系统调用实现，默认为 ossys.Default()
func WithSysCalls(s ossys.SysCalls) Option {
	return func(h *IoSocketHandle) { h.sys = s }
}

func WithMetrics(m *stats.Metrics) Option {
	return func(h *IoSocketHandle) { h.metrics = m }
}

// NewIoSocketHandle 接管 fd 的所有权
func NewIoSocketHandle(fd ossys.Fd, opts ...Option) *IoSocketHandle {
	h := &IoSocketHandle{fd: fd}
	for _, o := range opts {
		o(h)
	}
	if h.sys == nil {
		h.sys = ossys.Default()
	}
	return h
}

// NewSocket 打开一个非阻塞 socket，流式 socket 会开启 TCP_NODELAY 与 SO_REUSEADDR
func NewSocket(network string, opts ...Option) (*IoSocketHandle, error) {
	fd, err := ossys.Socket(network)
	if err != nil {
		return nil, ioerr.FromError(err)
	}
	h := NewIoSocketHandle(fd, opts...)
	if network == "tcp4" || network == "tcp6" {
		if err := netutil.SetNoDelay(fd, true); err != nil {
			h.Close()
			return nil, h.fail(err)
		}
		if err := netutil.SetReuseAddr(fd, true); err != nil {
			h.Close()
			return nil, h.fail(err)
		}
	}
	return h, nil
}

// SocketPair 返回一对互联的非阻塞句柄
func SocketPair(opts ...Option) (*IoSocketHandle, *IoSocketHandle, error) {
	fds, err := ossys.SocketPair()
	if err != nil {
		return nil, nil, ioerr.FromError(err)
	}
	return NewIoSocketHandle(fds[0], opts...), NewIoSocketHandle(fds[1], opts...), nil
}

func (h *IoSocketHandle) Fd() ossys.Fd { return h.fd }

func (h *IoSocketHandle) IsOpen() bool { return h.fd != ossys.InvalidFd }

// Readv 分散读；对端关闭时返回 0, nil
func (h *IoSocketHandle) Readv(bufs [][]byte) (int, error) {
	n, err := h.sys.Readv(h.fd, bufs)
	if err != nil {
		return 0, h.fail(err)
	}
	return n, nil
}

func (h *IoSocketHandle) Writev(bufs [][]byte) (int, error) {
	n, err := h.sys.Writev(h.fd, bufs)
	if err != nil {
		return 0, h.fail(err)
	}
	return n, nil
}

// Sendmsg 发送数据报；to 为零值时发往已连接的对端
func (h *IoSocketHandle) Sendmsg(bufs [][]byte, to netip.AddrPort) (int, error) {
	n, err := h.sys.Sendmsg(h.fd, bufs, to)
	if err != nil {
		return 0, h.fail(err)
	}
	return n, nil
}

func (h *IoSocketHandle) Recvmsg(bufs [][]byte) (int, netip.AddrPort, error) {
	n, from, err := h.sys.Recvmsg(h.fd, bufs)
	if err != nil {
		return 0, netip.AddrPort{}, h.fail(err)
	}
	return n, from, nil
}

func (h *IoSocketHandle) Bind(addr netip.AddrPort) error {
	if err := h.sys.Bind(h.fd, addr); err != nil {
		return h.fail(err)
	}
	return nil
}

// Connect 发起连接；非阻塞 socket 通常得到 ioerr.CodeInProgress
func (h *IoSocketHandle) Connect(addr netip.AddrPort) error {
	if err := h.sys.Connect(h.fd, addr); err != nil {
		return h.fail(err)
	}
	return nil
}

func (h *IoSocketHandle) Listen(backlog int) error {
	if err := h.sys.Listen(h.fd, backlog); err != nil {
		return h.fail(err)
	}
	return nil
}

// Accept 取出一个已完成握手的连接，新句柄沿用本句柄的系统调用实现与指标
func (h *IoSocketHandle) Accept() (*IoSocketHandle, netip.AddrPort, error) {
	fd, peer, err := h.sys.Accept(h.fd)
	if err != nil {
		return nil, netip.AddrPort{}, h.fail(err)
	}
	return &IoSocketHandle{fd: fd, sys: h.sys, metrics: h.metrics}, peer, nil
}

func (h *IoSocketHandle) LocalAddress() (netip.AddrPort, error) {
	addr, err := h.sys.LocalAddr(h.fd)
	if err != nil {
		return netip.AddrPort{}, h.fail(err)
	}
	return addr, nil
}

// LastRoundTripTime 返回内核记录的最近 RTT；查询失败或平台不支持时 ok 为 false
func (h *IoSocketHandle) LastRoundTripTime() (rtt time.Duration, ok bool) {
	info, err := h.sys.TCPInfo(h.fd)
	if err != nil {
		return 0, false
	}
	return info.RTT, true
}

func (h *IoSocketHandle) SetBlocking(blocking bool) error {
	if err := h.sys.SetNonblock(h.fd, !blocking); err != nil {
		return h.fail(err)
	}
	return nil
}

// Close 关闭描述符，重复调用为空操作
func (h *IoSocketHandle) Close() error {
	if h.fd == ossys.InvalidFd {
		return nil
	}
	fd := h.fd
	h.fd = ossys.InvalidFd
	if err := h.sys.Close(fd); err != nil {
		return h.fail(err)
	}
	return nil
}

// Release 交出描述符所有权，之后句柄处于关闭状态
func (h *IoSocketHandle) Release() ossys.Fd {
	fd := h.fd
	h.fd = ossys.InvalidFd
	return fd
}

func (h *IoSocketHandle) fail(err error) *ioerr.IoError {
	e := ioerr.FromError(err)
	h.metrics.IoError(e.Code())
	return e
}
