// Package ossys 是 socket 系统调用的可替换门面。
//
// 所有 network 操作都经由 SysCalls 落到内核，测试可以通过 Inject 替换进程级默认实现，
// 或通过 network.WithSysCalls 替换单个句柄的实现。返回的错误为原始 syscall.Errno，
// 分类由调用方完成。
package ossys

import (
	"errors"
	"net/netip"
	"sync"
	"time"
)

var (
	ErrUnsupportedNetwork = errors.New("ossys: unsupported network")
	ErrUnsupportedAddress = errors.New("ossys: unsupported address family")
)

// TCPInfo 是 TCP_INFO 查询结果中本模块关心的部分
type TCPInfo struct {
	RTT time.Duration
}

type SysCalls interface {
	Readv(fd Fd, bufs [][]byte) (int, error)
	Writev(fd Fd, bufs [][]byte) (int, error)
	// Sendmsg 在 to 无效时发往已连接的对端
	Sendmsg(fd Fd, bufs [][]byte, to netip.AddrPort) (int, error)
	Recvmsg(fd Fd, bufs [][]byte) (int, netip.AddrPort, error)
	Bind(fd Fd, addr netip.AddrPort) error
	Connect(fd Fd, addr netip.AddrPort) error
	Listen(fd Fd, backlog int) error
	// Accept 返回的新 fd 已是非阻塞且不被子进程继承
	Accept(fd Fd) (Fd, netip.AddrPort, error)
	LocalAddr(fd Fd) (netip.AddrPort, error)
	SetNonblock(fd Fd, nonblock bool) error
	TCPInfo(fd Fd) (TCPInfo, error)
	Close(fd Fd) error
}

var (
	mu      sync.RWMutex
	current SysCalls = sysCalls{}
)

// Default 返回进程级默认实现
func Default() SysCalls {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Inject 替换进程级默认实现，返回的函数用于恢复
func Inject(s SysCalls) (restore func()) {
	mu.Lock()
	prev := current
	current = s
	mu.Unlock()
	return func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}
}
