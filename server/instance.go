// Package server 组装代理实例：事件循环、信号处理与管理端点。
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/davinci26/envoy/event"
	"github.com/davinci26/envoy/service"
	"github.com/davinci26/envoy/shutdown"
	"github.com/davinci26/envoy/stats"
)

var ErrAlreadyRan = errors.New("server: instance already ran")

// Instance 是一次生命周期内的代理，实现 service.Server
type Instance struct {
	id         uuid.UUID
	cfg        Config
	opts       Options
	registry   *shutdown.Registry
	logger     *slog.Logger
	metrics    *stats.Metrics
	gatherer   prometheus.Gatherer
	reopenLogs func() error

	dispatcher *event.Dispatcher
	admin      *http.Server
	adminLn    net.Listener

	ran      atomic.Bool
	draining atomic.Bool
}

type InstanceOption func(*Instance)

// WithRegistry 替换信号注册表，默认为 shutdown.Default()
func WithRegistry(r *shutdown.Registry) InstanceOption {
	return func(i *Instance) { i.registry = r }
}

func WithLogger(l *slog.Logger) InstanceOption {
	return func(i *Instance) { i.logger = l }
}

// WithMetrics 设置指标及 /metrics 暴露的数据源
func WithMetrics(m *stats.Metrics, g prometheus.Gatherer) InstanceOption {
	return func(i *Instance) {
		i.metrics = m
		i.gatherer = g
	}
}

// WithReopenLogs 设置收到 ReopenLogs 时执行的动作
func WithReopenLogs(fn func() error) InstanceOption {
	return func(i *Instance) { i.reopenLogs = fn }
}

func NewInstance(cfg Config, opts Options, iopts ...InstanceOption) (*Instance, error) {
	i := &Instance{
		id:   uuid.New(),
		cfg:  cfg,
		opts: opts,
	}
	for _, o := range iopts {
		o(i)
	}
	if i.registry == nil {
		i.registry = shutdown.Default()
	}
	if i.logger == nil {
		i.logger = slog.Default()
	}
	if i.gatherer == nil {
		i.gatherer = prometheus.DefaultGatherer
	}
	i.logger = i.logger.With("instance_id", i.id.String())

	d, err := event.NewDispatcher(
		event.WithName("main_thread"),
		event.WithLogger(i.logger),
		event.WithMetrics(i.metrics),
		event.WithRegistry(i.registry),
	)
	if err != nil {
		return nil, fmt.Errorf("server: create dispatcher: %w", err)
	}
	i.dispatcher = d

	if err := i.listenForSignals(); err != nil {
		d.Close()
		return nil, err
	}
	if err := i.listenAdmin(); err != nil {
		d.Close()
		return nil, err
	}
	i.logger.Info("initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("config_path", opts.ConfigPath),
		slog.String("admin_address", cfg.AdminAddress))
	return i, nil
}

func (i *Instance) ID() uuid.UUID { return i.id }

func (i *Instance) Dispatcher() *event.Dispatcher { return i.dispatcher }

// AdminAddr 返回管理端点实际监听的地址，未启用时为 nil
func (i *Instance) AdminAddr() net.Addr {
	if i.adminLn == nil {
		return nil
	}
	return i.adminLn.Addr()
}

func (i *Instance) listenForSignals() error {
	handlers := []struct {
		key shutdown.Key
		cb  func()
	}{
		{shutdown.Terminate, func() { i.shutdown(shutdown.Terminate) }},
		{shutdown.Interrupt, func() { i.shutdown(shutdown.Interrupt) }},
		{shutdown.ReopenLogs, i.onReopenLogs},
		{shutdown.Hangup, func() {
			i.logger.Info("caught SIGHUP, ignoring; use the admin endpoint to reload")
		}},
	}
	for _, h := range handlers {
		if _, err := i.dispatcher.ListenForSignal(h.key, h.cb); err != nil {
			return fmt.Errorf("server: listen for %s: %w", h.key, err)
		}
	}
	return nil
}

func (i *Instance) shutdown(key shutdown.Key) {
	if i.draining.Swap(true) {
		return
	}
	i.logger.Warn("caught signal, shutting down", slog.String("key", key.String()))
	i.dispatcher.Exit()
}

func (i *Instance) onReopenLogs() {
	i.logger.Info("reopening logs")
	if i.reopenLogs == nil {
		return
	}
	if err := i.reopenLogs(); err != nil {
		i.logger.Error("failed to reopen logs", slog.String("error", err.Error()))
	}
}

func (i *Instance) listenAdmin() error {
	if i.cfg.AdminAddress == "" {
		return nil
	}
	ln, err := net.Listen("tcp", i.cfg.AdminAddress)
	if err != nil {
		return fmt.Errorf("server: admin listen: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(i.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", i.healthz)
	i.adminLn = ln
	i.admin = &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

func (i *Instance) healthz(w http.ResponseWriter, _ *http.Request) {
	if i.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "DRAINING")
		return
	}
	fmt.Fprintln(w, "LIVE")
}

func (i *Instance) drainTimeout() time.Duration {
	if i.opts.DrainTime > 0 {
		return i.opts.DrainTime
	}
	return i.cfg.DrainTimeout
}

// Run 运行事件循环直到收到停止信号，只能调用一次
func (i *Instance) Run() bool {
	if i.ran.Swap(true) {
		i.logger.Error("run called more than once", slog.String("error", ErrAlreadyRan.Error()))
		return false
	}
	defer i.dispatcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return i.dispatcher.Run(gctx)
	})

	if i.admin != nil {
		g.Go(func() error {
			i.logger.Info("starting admin server", slog.String("address", i.adminLn.Addr().String()))
			if err := i.admin.Serve(i.adminLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: admin: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			i.draining.Store(true)
			sctx, scancel := context.WithTimeout(context.Background(), i.drainTimeout())
			defer scancel()
			return i.admin.Shutdown(sctx)
		})
	}

	i.logger.Info("starting main dispatch loop")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		i.logger.Error("exiting with error", slog.String("error", err.Error()))
		return false
	}
	i.logger.Info("exiting")
	return true
}

// NewFactory 返回供 service.Host 使用的构造函数
func NewFactory(cfg Config, stdout io.Writer, iopts ...InstanceOption) service.Factory {
	return func(args []string) (service.Server, error) {
		opts, err := ParseOptions(args, stdout)
		if err != nil {
			return nil, err
		}
		inst, err := NewInstance(cfg, opts, iopts...)
		if err != nil {
			return nil, service.NewStartupError(service.InitFailure, err)
		}
		return inst, nil
	}
}
