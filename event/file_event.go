package event

import "github.com/davinci26/envoy/poller"

// FileReadyType 为就绪事件掩码
type FileReadyType uint32

const (
	FileReadyRead FileReadyType = 1 << iota
	FileReadyWrite
	FileReadyClosed
)

// FileEvent 把一个描述符的就绪通知交给回调，回调在分发 goroutine 上执行
type FileEvent struct {
	d       *Dispatcher
	fd      poller.FD
	cb      func(FileReadyType)
	enabled FileReadyType
}

// CreateFileEvent 以边沿触发方式注册 fd；每个 fd 只能有一个 FileEvent
func (d *Dispatcher) CreateFileEvent(fd poller.FD, cb func(FileReadyType), events FileReadyType) (*FileEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}
	if _, ok := d.files[fd]; ok {
		return nil, ErrFdRegistered
	}
	if err := d.poller.Register(fd, events&FileReadyRead != 0, events&FileReadyWrite != 0); err != nil {
		return nil, err
	}
	f := &FileEvent{d: d, fd: fd, cb: cb, enabled: events}
	d.files[fd] = f
	return f, nil
}

func (f *FileEvent) Fd() poller.FD { return f.fd }

// SetEnabled 修改关注的事件
func (f *FileEvent) SetEnabled(events FileReadyType) error {
	if err := f.d.poller.Mod(f.fd, events&FileReadyRead != 0, events&FileReadyWrite != 0); err != nil {
		return err
	}
	f.enabled = events
	return nil
}

// Close 从 poller 注销；不关闭描述符本身
func (f *FileEvent) Close() error {
	d := f.d
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.files[f.fd] != f {
		return nil
	}
	delete(d.files, f.fd)
	if d.closed {
		return nil
	}
	return d.poller.Unregister(f.fd)
}

func (f *FileEvent) activate(events FileReadyType) {
	if events != FileReadyClosed && f.enabled&events == 0 {
		return
	}
	f.cb(events)
}
