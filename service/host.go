// Package service 实现服务生命周期状态机。
//
// Host 把监管方（Windows 服务控制管理器，或测试中的替身）的控制请求映射为
// 对 shutdown 注册表的投递，并把启动与运行结果转换为监管方可理解的状态记录。
// Host 不直接接触事件循环：停止请求只投递 shutdown.Terminate，由代理自己的
// 信号回调退出循环。
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/davinci26/envoy/internal/assert"
	"github.com/davinci26/envoy/shutdown"
	"github.com/davinci26/envoy/stats"
)

// Server 为一次生命周期内的代理实例
type Server interface {
	// Run 运行主循环直到退出，返回是否正常结束
	Run() bool
}

// Factory 根据参数构造 Server；失败时应返回 *StartupError
type Factory func(args []string) (Server, error)

// Supervisor 接收状态报告
type Supervisor interface {
	SetStatus(Status) error
}

// Poster 投递逻辑信号，*shutdown.Registry 满足该接口
type Poster interface {
	Post(key shutdown.Key)
}

const defaultWaitHint = 30 * time.Second

type Host struct {
	factory    Factory
	supervisor Supervisor
	poster     Poster
	logger     *slog.Logger
	metrics    *stats.Metrics
	accepts    Accepts
	waitHint   time.Duration

	mu         sync.Mutex
	state      State
	exitCode   ExitCode
	checkpoint uint32
}

type HostOption func(*Host)

func WithSupervisor(s Supervisor) HostOption {
	return func(h *Host) { h.supervisor = s }
}

// WithPoster 替换停止请求的投递目标，默认为 shutdown.Default()
func WithPoster(p Poster) HostOption {
	return func(h *Host) { h.poster = p }
}

func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) { h.logger = l }
}

func WithMetrics(m *stats.Metrics) HostOption {
	return func(h *Host) { h.metrics = m }
}

func WithAccepts(a Accepts) HostOption {
	return func(h *Host) { h.accepts = a }
}

// WithWaitHint 设置 pending 状态下报告的预计耗时
func WithWaitHint(d time.Duration) HostOption {
	return func(h *Host) { h.waitHint = d }
}

func NewHost(factory Factory, opts ...HostOption) *Host {
	h := &Host{
		factory:  factory,
		accepts:  DefaultAccepts,
		waitHint: defaultWaitHint,
		state:    StartPending,
	}
	for _, o := range opts {
		o(h)
	}
	if h.poster == nil {
		h.poster = shutdown.Default()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Start 构造并运行 Server，返回本次生命周期的退出码。
// 启动失败按 *StartupError 的类别映射为退出码，其它错误视为未预期故障并 panic；
// 主循环只运行一次。
func (h *Host) Start(args []string) ExitCode {
	h.transition(StartPending, ExitOK)

	srv, err := h.factory(args)
	if err != nil {
		code := h.classify(err)
		h.transition(Stopped, code)
		return code
	}
	assert.Release(srv != nil, "srv != nil", "factory returned neither a server nor an error")

	h.transition(Running, ExitOK)
	code := ExitOK
	if !srv.Run() {
		code = ExitFailure
	}
	h.transition(Stopped, code)
	h.logger.Info("service stopped", "exit_code", code)
	return code
}

func (h *Host) classify(err error) ExitCode {
	var se *StartupError
	if !errors.As(err, &se) {
		panic(fmt.Errorf("service: unanticipated startup failure: %w", err))
	}
	code := se.Kind.exitCode()
	if se.Kind != NoServing {
		h.logger.Warn("failed to start", "kind", se.Kind, "error", se.Err, "exit_code", code)
	}
	return code
}

// RequestStop 处理监管方的停止请求，只做状态切换和一次投递，不等待主循环退出。
// 重复请求为空操作；在 Running 与 StopPending 之外的状态请求停止属于编程错误。
func (h *Host) RequestStop(ctl Control) {
	h.mu.Lock()
	switch h.state {
	case Running:
	case StopPending:
		h.mu.Unlock()
		return
	default:
		state := h.state
		h.mu.Unlock()
		assert.Release(false, "state == Running",
			"attempting to stop service when it is not running (state %s, control %s)", state, ctl)
		return
	}
	h.setLocked(StopPending, ExitOK)
	st := h.statusLocked()
	h.report(st)
	h.mu.Unlock()

	h.poster.Post(shutdown.Terminate)
}

// Status 返回当前状态快照
func (h *Host) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statusLocked()
}

// ReportStatus 把当前状态发送给监管方；没有监管方时为空操作
func (h *Host) ReportStatus() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.supervisor == nil {
		return nil
	}
	return h.supervisor.SetStatus(h.statusLocked())
}

func (h *Host) transition(state State, code ExitCode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.setLocked(state, code)
	h.report(h.statusLocked())
}

func (h *Host) setLocked(state State, code ExitCode) {
	if state.pending() {
		h.checkpoint++
	} else {
		h.checkpoint = 0
	}
	h.state = state
	h.exitCode = code
	h.metrics.SetServiceState(int(state))
}

func (h *Host) statusLocked() Status {
	return newStatus(h.state, h.exitCode, h.accepts, h.checkpoint, h.waitHint)
}

// report 在持有 h.mu 时调用，保证监管方按状态变化的顺序收到报告
func (h *Host) report(st Status) {
	if h.supervisor == nil {
		return
	}
	if err := h.supervisor.SetStatus(st); err != nil {
		panic(fmt.Errorf("service: could not set status %s: %w", st.State, err))
	}
}
