//go:build linux

package poller

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

type epollPoller struct {
	efd    int
	wfd    int // eventfd for wakeup
	closed atomic.Bool
	events []unix.EpollEvent
}

func New() (Poller, error) {
	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(efd)
		return nil, err
	}
	p := &epollPoller{efd: efd, wfd: wfd, events: make([]unix.EpollEvent, 256)}
	// 注册 wakeup fd
	ev := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(wfd)}
	if err := unix.EpollCtl(efd, unix.EPOLL_CTL_ADD, wfd, ev); err != nil {
		unix.Close(wfd)
		unix.Close(efd)
		return nil, err
	}
	return p, nil
}

func epollFlags(readable, writable bool) uint32 {
	var flag uint32 = unix.EPOLLET | unix.EPOLLRDHUP
	if readable {
		flag |= unix.EPOLLIN
	}
	if writable {
		flag |= unix.EPOLLOUT
	}
	return flag
}

func (p *epollPoller) Register(fd FD, readable, writable bool) error {
	if p.closed.Load() {
		return ErrClosed
	}
	ev := &unix.EpollEvent{Events: epollFlags(readable, writable), Fd: int32(fd)}
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) Mod(fd FD, readable, writable bool) error {
	if p.closed.Load() {
		return ErrClosed
	}
	ev := &unix.EpollEvent{Events: epollFlags(readable, writable), Fd: int32(fd)}
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) Unregister(fd FD) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return unix.EpollCtl(p.efd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(p.wfd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *epollPoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	unix.Close(p.wfd)
	return unix.Close(p.efd)
}

func (p *epollPoller) Wait(h Handler, timeout time.Duration) error {
	if p.closed.Load() {
		return ErrClosed
	}
	n, err := unix.EpollWait(p.efd, p.events, timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	var efdBuf [8]byte
	for i := 0; i < n; i++ {
		ev := p.events[i]
		fd := int(ev.Fd)
		if fd == p.wfd {
			// 清空 eventfd
			for {
				_, rerr := unix.Read(p.wfd, efdBuf[:])
				if rerr == unix.EAGAIN {
					break
				}
				if rerr != nil {
					return rerr
				}
			}
			continue
		}
		if (ev.Events & unix.EPOLLERR) != 0 {
			h.OnClose(fd, errors.New("epoll: err"))
			continue
		}
		// 先交付可读，让读端取走剩余数据后再看到 EOF
		if (ev.Events & (unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLHUP)) != 0 {
			h.OnReadable(fd)
		}
		if (ev.Events & unix.EPOLLOUT) != 0 {
			h.OnWritable(fd)
		}
	}
	return nil
}
