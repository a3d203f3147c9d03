//go:build darwin

package poller

import (
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

type kqueuePoller struct {
	kq     int
	wfd    int // 写端，用于唤醒
	rfd    int // 读端，注册到 kqueue
	closed atomic.Bool
	events []unix.Kevent_t
	buf    []byte
}

func New() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	// 使用管道作为唤醒
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		unix.Close(kq)
		return nil, err
	}
	rfd, wfd := p[0], p[1]
	for _, fd := range p {
		unix.CloseOnExec(fd)
		_ = unix.SetNonblock(fd, true)
	}
	// 注册读事件
	kev := unix.Kevent_t{
		Ident:  uint64(rfd),
		Filter: unix.EVFILT_READ,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}
	_, err = unix.Kevent(kq, []unix.Kevent_t{kev}, nil, nil)
	if err != nil {
		unix.Close(rfd)
		unix.Close(wfd)
		unix.Close(kq)
		return nil, err
	}
	return &kqueuePoller{
		kq:     kq,
		wfd:    wfd,
		rfd:    rfd,
		events: make([]unix.Kevent_t, 256),
		buf:    make([]byte, 16),
	}, nil
}

func (p *kqueuePoller) Register(fd FD, readable, writable bool) error {
	if p.closed.Load() {
		return ErrClosed
	}
	var changes []unix.Kevent_t
	if readable {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_CLEAR})
	}
	if writable {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_CLEAR})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) Mod(fd FD, readable, writable bool) error {
	if p.closed.Load() {
		return ErrClosed
	}
	// 在 kqueue 中，Mod 等价为对两个过滤器分别 ADD 或 DELETE；
	// 删除不存在的过滤器返回 ENOENT，需要逐个提交并忽略
	for _, c := range []struct {
		filter int16
		on     bool
	}{{unix.EVFILT_READ, readable}, {unix.EVFILT_WRITE, writable}} {
		flags := uint16(unix.EV_DELETE)
		if c.on {
			flags = unix.EV_ADD | unix.EV_CLEAR
		}
		kev := unix.Kevent_t{Ident: uint64(fd), Filter: c.filter, Flags: flags}
		if _, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil); err != nil && err != unix.ENOENT {
			return err
		}
	}
	return nil
}

func (p *kqueuePoller) Unregister(fd FD) error {
	return p.Mod(fd, false, false)
}

func (p *kqueuePoller) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	var b [1]byte
	b[0] = 1
	_, err := unix.Write(p.wfd, b[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *kqueuePoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	unix.Close(p.rfd)
	unix.Close(p.wfd)
	return unix.Close(p.kq)
}

func (p *kqueuePoller) Wait(h Handler, timeout time.Duration) error {
	if p.closed.Load() {
		return ErrClosed
	}
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(int64(timeout))
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}
	for i := 0; i < n; i++ {
		ev := p.events[i]
		fd := int(ev.Ident)
		if fd == p.rfd {
			for {
				_, rerr := unix.Read(p.rfd, p.buf)
				if rerr == unix.EAGAIN {
					break
				}
				if rerr != nil {
					return rerr
				}
			}
			continue
		}
		if (ev.Flags & unix.EV_ERROR) != 0 {
			h.OnClose(fd, errors.New("kqueue: error"))
			continue
		}
		// 优先处理可读/可写；EOF 由读端在读到 0 字节时自行处理
		switch ev.Filter {
		case unix.EVFILT_READ:
			h.OnReadable(fd)
		case unix.EVFILT_WRITE:
			h.OnWritable(fd)
		}
	}
	return nil
}
