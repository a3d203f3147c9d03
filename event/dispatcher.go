// Package event 实现单 goroutine 的事件分发循环。
//
// Dispatcher 驱动 poller，在同一个 goroutine 上执行就绪回调、投递的回调以及
// 信号回调。除 Post、Exit 外，方法只应在创建 Dispatcher 的 goroutine 或
// 分发 goroutine 上调用。
package event

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/davinci26/envoy/poller"
	"github.com/davinci26/envoy/shutdown"
	"github.com/davinci26/envoy/stats"
)

type Dispatcher struct {
	name     string
	poller   poller.Poller
	registry *shutdown.Registry
	logger   *slog.Logger
	metrics  *stats.Metrics

	mu      sync.Mutex
	files   map[poller.FD]*FileEvent
	posted  *queue.Queue
	signals []*SignalEvent
	closed  bool

	running atomic.Bool
	exit    atomic.Bool
}

type Option func(*Dispatcher)

func WithName(name string) Option {
	return func(d *Dispatcher) { d.name = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m *stats.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithRegistry 替换信号投递使用的注册表，默认为 shutdown.Default()
func WithRegistry(r *shutdown.Registry) Option {
	return func(d *Dispatcher) { d.registry = r }
}

func NewDispatcher(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		name:   "main_thread",
		files:  make(map[poller.FD]*FileEvent),
		posted: queue.New(),
	}
	for _, o := range opts {
		o(d)
	}
	if d.registry == nil {
		d.registry = shutdown.Default()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	d.logger = d.logger.With("dispatcher", d.name)

	p, err := poller.New()
	if err != nil {
		return nil, err
	}
	d.poller = p
	return d, nil
}

func (d *Dispatcher) Name() string { return d.name }

// Run 在当前 goroutine 上运行事件循环，直到 Exit 被调用或 ctx 结束。
// 由 ctx 结束时返回 ctx.Err()。
func (d *Dispatcher) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer d.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	stop := context.AfterFunc(ctx, d.Exit)
	defer stop()

	d.logger.Debug("dispatcher loop started")
	for {
		d.runPosted()
		if d.exit.Load() {
			break
		}
		if err := d.poller.Wait((*loopHandler)(d), -1); err != nil {
			d.logger.Error("poller wait failed", "error", err)
			return err
		}
	}
	d.exit.Store(false)
	d.logger.Debug("dispatcher loop exited")
	return ctx.Err()
}

// Exit 使 Run 在当前轮次结束后返回，可在任意 goroutine 调用；Close 之后为空操作
func (d *Dispatcher) Exit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.exit.Store(true)
	if err := d.poller.Wake(); err != nil {
		d.logger.Warn("dispatcher wake failed", "error", err)
	}
}

// Post 把 fn 排入队列，在分发 goroutine 的后续轮次执行
func (d *Dispatcher) Post(fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	d.posted.Add(fn)
	d.metrics.Posted()
	// poller 只在持锁时关闭，唤醒不会写入已释放的描述符
	return d.poller.Wake()
}

func (d *Dispatcher) runPosted() {
	d.mu.Lock()
	n := d.posted.Length()
	if n == 0 {
		d.mu.Unlock()
		return
	}
	callbacks := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		callbacks = append(callbacks, d.posted.Remove().(func()))
	}
	d.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}
}

// Close 关闭全部信号事件与 poller；不能与 Run 并发调用
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	signals := d.signals
	d.signals = nil
	d.mu.Unlock()

	for _, s := range signals {
		s.Close()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.files = make(map[poller.FD]*FileEvent)
	return d.poller.Close()
}

func (d *Dispatcher) fileEvent(fd poller.FD) *FileEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.files[fd]
}

// loopHandler 把 poller 回调转发到已注册的 FileEvent
type loopHandler Dispatcher

func (h *loopHandler) OnReadable(fd poller.FD) {
	if f := (*Dispatcher)(h).fileEvent(fd); f != nil {
		f.activate(FileReadyRead)
	}
}

func (h *loopHandler) OnWritable(fd poller.FD) {
	if f := (*Dispatcher)(h).fileEvent(fd); f != nil {
		f.activate(FileReadyWrite)
	}
}

func (h *loopHandler) OnClose(fd poller.FD, err error) {
	d := (*Dispatcher)(h)
	if f := d.fileEvent(fd); f != nil {
		d.logger.Debug("file event closed", "fd", fd, "error", err)
		f.activate(FileReadyClosed)
	}
}
