package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 汇总引擎与融合管线的 Prometheus 指标。
// 实现 indicator.Observer，由外部观测方通过 /metrics 拉取。
type Metrics struct {
	registry *prometheus.Registry

	calcTotal    prometheus.Counter
	calcDuration prometheus.Histogram
	cacheHits    prometheus.Counter
	cacheMisses  prometheus.Counter
	unitFailures *prometheus.CounterVec
	signals      *prometheus.CounterVec
}

// New 创建独立 registry 的指标集，避免污染全局默认 registry。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		calcTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigfuse",
			Name:      "calculations_total",
			Help:      "Total indicator engine calculations.",
		}),
		calcDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sigfuse",
			Name:      "calculation_duration_seconds",
			Help:      "Wall time of one full indicator fan-out.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigfuse",
			Name:      "indicator_cache_hits_total",
			Help:      "Indicator cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sigfuse",
			Name:      "indicator_cache_misses_total",
			Help:      "Indicator cache misses.",
		}),
		unitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigfuse",
			Name:      "indicator_unit_failures_total",
			Help:      "Indicator computations excluded after error or timeout.",
		}, []string{"unit"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigfuse",
			Name:      "signals_emitted_total",
			Help:      "Fused signals that passed filtering.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.calcTotal, m.calcDuration, m.cacheHits, m.cacheMisses, m.unitFailures, m.signals)
	return m
}

// CacheHit 实现 indicator.Observer。
func (m *Metrics) CacheHit(string) { m.cacheHits.Inc() }

// CacheMiss 实现 indicator.Observer。
func (m *Metrics) CacheMiss(string) { m.cacheMisses.Inc() }

// UnitFailed 实现 indicator.Observer。
func (m *Metrics) UnitFailed(unit, _ string) { m.unitFailures.WithLabelValues(unit).Inc() }

// CalcObserved 实现 indicator.Observer。
func (m *Metrics) CalcObserved(_ string, _ int, elapsed time.Duration) {
	m.calcTotal.Inc()
	m.calcDuration.Observe(elapsed.Seconds())
}

// SignalEmitted 记录一条通过过滤的信号。
func (m *Metrics) SignalEmitted(sigType string) { m.signals.WithLabelValues(sigType).Inc() }

// Handler 返回 /metrics 的 HTTP handler。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
