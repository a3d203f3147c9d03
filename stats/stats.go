// Package stats 提供平台层的 Prometheus 指标。
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/davinci26/envoy/ioerr"
)

const defaultNamespace = "envoy"

// Metrics 汇总平台层的计数器与仪表，nil *Metrics 可直接使用且不记录任何数据
type Metrics struct {
	IoErrors       *prometheus.CounterVec
	Signals        *prometheus.CounterVec
	DispatcherPost prometheus.Counter
	ServiceState   prometheus.Gauge
}

// New 向 reg 注册全部指标，reg 为 nil 时使用 prometheus.DefaultRegisterer
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		IoErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "io_errors_total",
				Help:      "Total number of socket operation failures by error code",
			},
			[]string{"code"},
		),
		Signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signals_total",
				Help:      "Total number of signal callbacks run by the dispatcher",
			},
			[]string{"key"},
		),
		DispatcherPost: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatcher_posts_total",
				Help:      "Total number of callbacks posted to the dispatcher",
			},
		),
		ServiceState: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "service_state",
				Help:      "Service lifecycle state (1=stopped, 2=start_pending, 3=stop_pending, 4=running)",
			},
		),
	}
}

func (m *Metrics) IoError(code ioerr.Code) {
	if m == nil {
		return
	}
	m.IoErrors.WithLabelValues(code.String()).Inc()
}

func (m *Metrics) Signal(key string) {
	if m == nil {
		return
	}
	m.Signals.WithLabelValues(key).Inc()
}

func (m *Metrics) Posted() {
	if m == nil {
		return
	}
	m.DispatcherPost.Inc()
}

func (m *Metrics) SetServiceState(state int) {
	if m == nil {
		return
	}
	m.ServiceState.Set(float64(state))
}
