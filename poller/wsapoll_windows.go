//go:build windows

package poller

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/davinci26/envoy/ossys"
)

// x/sys/windows 未导出 WSAPoll
var (
	modws2_32   = windows.NewLazySystemDLL("ws2_32.dll")
	procWSAPoll = modws2_32.NewProc("WSAPoll")
)

const (
	pollErr    = 0x0001
	pollHup    = 0x0002
	pollNval   = 0x0004
	pollWrNorm = 0x0010
	pollRdNorm = 0x0100
)

type wsaPollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

// wsaPoller 为水平触发：处理方必须读到 Again 或注销，否则下一轮会再次就绪
type wsaPoller struct {
	mu     sync.Mutex
	fds    []wsaPollFd // fds[0] 为唤醒 socket
	index  map[FD]int
	wake   [2]windows.Handle
	closed atomic.Bool
	buf    [16]byte
}

func New() (Poller, error) {
	if err := procWSAPoll.Find(); err != nil {
		return nil, err
	}
	pair, err := ossys.SocketPair()
	if err != nil {
		return nil, err
	}
	p := &wsaPoller{
		wake:  pair,
		index: make(map[FD]int),
	}
	p.fds = append(p.fds, wsaPollFd{fd: pair[0], events: pollRdNorm})
	return p, nil
}

func pollEvents(readable, writable bool) int16 {
	var ev int16
	if readable {
		ev |= pollRdNorm
	}
	if writable {
		ev |= pollWrNorm
	}
	return ev
}

func (p *wsaPoller) Register(fd FD, readable, writable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return ErrClosed
	}
	if _, ok := p.index[fd]; ok {
		return windows.WSAEINVAL
	}
	p.index[fd] = len(p.fds)
	p.fds = append(p.fds, wsaPollFd{fd: fd, events: pollEvents(readable, writable)})
	return nil
}

func (p *wsaPoller) Mod(fd FD, readable, writable bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return ErrClosed
	}
	i, ok := p.index[fd]
	if !ok {
		return windows.WSAENOTSOCK
	}
	p.fds[i].events = pollEvents(readable, writable)
	return nil
}

func (p *wsaPoller) Unregister(fd FD) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return ErrClosed
	}
	i, ok := p.index[fd]
	if !ok {
		return windows.WSAENOTSOCK
	}
	last := len(p.fds) - 1
	if i != last {
		p.fds[i] = p.fds[last]
		p.index[p.fds[i].fd] = i
	}
	p.fds = p.fds[:last]
	delete(p.index, fd)
	return nil
}

func (p *wsaPoller) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	b := []byte{1}
	var n uint32
	buf := windows.WSABuf{Len: 1, Buf: &b[0]}
	err := windows.WSASend(p.wake[1], &buf, 1, &n, 0, nil, nil)
	if err == windows.WSAEWOULDBLOCK {
		return nil
	}
	return err
}

func (p *wsaPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	windows.Closesocket(p.wake[1])
	return windows.Closesocket(p.wake[0])
}

func (p *wsaPoller) Wait(h Handler, timeout time.Duration) error {
	p.mu.Lock()
	if p.closed.Load() {
		p.mu.Unlock()
		return ErrClosed
	}
	fds := make([]wsaPollFd, len(p.fds))
	copy(fds, p.fds)
	p.mu.Unlock()

	r, _, err := procWSAPoll.Call(uintptr(unsafe.Pointer(&fds[0])), uintptr(len(fds)), uintptr(timeoutMillis(timeout)))
	n := int32(r)
	if n < 0 {
		if err == windows.WSAEINTR {
			return nil
		}
		return err
	}
	for _, pfd := range fds {
		if pfd.revents == 0 {
			continue
		}
		if pfd.fd == p.wake[0] {
			p.drainWake()
			continue
		}
		if pfd.revents&(pollErr|pollNval) != 0 {
			h.OnClose(pfd.fd, errors.New("wsapoll: err|nval"))
			continue
		}
		if pfd.revents&(pollRdNorm|pollHup) != 0 {
			h.OnReadable(pfd.fd)
		}
		if pfd.revents&pollWrNorm != 0 {
			h.OnWritable(pfd.fd)
		}
	}
	return nil
}

func (p *wsaPoller) drainWake() {
	buf := windows.WSABuf{Len: uint32(len(p.buf)), Buf: &p.buf[0]}
	for {
		var n, flags uint32
		if err := windows.WSARecv(p.wake[0], &buf, 1, &n, &flags, nil, nil); err != nil {
			return
		}
	}
}
