package event

import (
	"fmt"
	"sync/atomic"

	"github.com/davinci26/envoy/shutdown"
)

// SignalState 为信号桥接的生命周期状态
type SignalState int32

const (
	SignalUnregistered SignalState = iota
	SignalRegistered
	SignalFired
)

func (s SignalState) String() string {
	switch s {
	case SignalUnregistered:
		return "Unregistered"
	case SignalRegistered:
		return "Registered"
	case SignalFired:
		return "Fired"
	}
	return fmt.Sprintf("SignalState(%d)", int32(s))
}

// SignalEvent 把一个逻辑信号的投递转换为分发 goroutine 上的回调
type SignalEvent struct {
	d        *Dispatcher
	key      shutdown.Key
	cb       func()
	endpoint *shutdown.Endpoint
	file     *FileEvent
	notifier notifier

	state atomic.Int32
}

// ListenForSignal 为 key 建立信号桥接。cb 在分发 goroutine 上执行，
// 两次执行之间的多次投递只触发一次回调。
func (d *Dispatcher) ListenForSignal(key shutdown.Key, cb func()) (*SignalEvent, error) {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return nil, ErrDispatcherClosed
	}

	ep, err := shutdown.NewEndpoint()
	if err != nil {
		return nil, err
	}
	s := &SignalEvent{d: d, key: key, cb: cb, endpoint: ep}
	s.file, err = d.CreateFileEvent(ep.ReadFd(), s.onReady, FileReadyRead)
	if err != nil {
		ep.Close()
		return nil, err
	}
	d.registry.Register(key, ep)
	s.notifier = startNotifier(key, func() { d.registry.Post(key) })
	s.state.Store(int32(SignalRegistered))

	d.mu.Lock()
	d.signals = append(d.signals, s)
	d.mu.Unlock()

	d.logger.Debug("listening for signal", "key", key, "os_source", s.notifier != nil)
	return s, nil
}

func (s *SignalEvent) Key() shutdown.Key { return s.key }

func (s *SignalEvent) State() SignalState { return SignalState(s.state.Load()) }

func (s *SignalEvent) onReady(FileReadyType) {
	posted, err := s.endpoint.Drain()
	if err != nil {
		s.d.logger.Error("signal drain failed", "key", s.key, "error", err)
	}
	if !posted || s.State() == SignalUnregistered {
		return
	}
	s.state.Store(int32(SignalFired))
	s.d.metrics.Signal(s.key.String())
	s.d.logger.Debug("signal fired", "key", s.key)
	s.cb()
}

// Close 解除 OS 信号源与注册表中的注册，重复调用为空操作
func (s *SignalEvent) Close() error {
	if SignalState(s.state.Swap(int32(SignalUnregistered))) == SignalUnregistered {
		return nil
	}
	if s.notifier != nil {
		s.notifier.stop()
	}
	s.d.registry.Unregister(s.key, s.endpoint)
	ferr := s.file.Close()
	eerr := s.endpoint.Close()

	d := s.d
	d.mu.Lock()
	for i, o := range d.signals {
		if o == s {
			d.signals = append(d.signals[:i], d.signals[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	if ferr != nil {
		return ferr
	}
	return eerr
}
