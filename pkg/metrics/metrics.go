package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 目录解析相关的 Prometheus 指标
type Metrics struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	duration    prometheus.Histogram
	cacheLookup *prometheus.CounterVec
}

// New 创建独立的指标注册表，避免测试间重复注册
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_resolutions_total",
			Help: "Number of collection resolutions by slot and source",
		}, []string{"slot", "source"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_resolution_duration_seconds",
			Help:    "Time spent in the schedule resolver for one slot, excluding snapshot loading",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_rule_snapshot_cache_total",
			Help: "Rule snapshot cache lookups by result",
		}, []string{"result"}),
	}
	reg.MustRegister(m.resolutions, m.duration, m.cacheLookup)
	return m
}

// ObserveResolution 记录一次解析，elapsed 仅含解析器本身耗时
func (m *Metrics) ObserveResolution(slot, source string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(slot, source).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// CacheLookup 记录快照缓存命中情况：hit | miss | error
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookup.WithLabelValues(result).Inc()
}

// Handler /metrics 暴露端点
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
