// Package metrics provides internal metrics collection for stream
// operations. This package is internal and should not be imported by
// external projects.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector 流操作指标收集器
type Collector struct {
	readsTotal    *prometheus.CounterVec
	readBytes     *prometheus.CounterVec
	readSize      *prometheus.HistogramVec
	releasesTotal *prometheus.CounterVec
	clonesTotal   *prometheus.CounterVec
	disposesTotal *prometheus.CounterVec
	activeStreams *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，所有指标注册到 reg。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.readsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reads_total",
			Help:      "Total number of stream read calls",
		},
		[]string{"provider", "outcome"},
	)

	c.readBytes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_bytes_total",
			Help:      "Total bytes copied into consumer buffers",
		},
		[]string{"provider"},
	)

	c.readSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "read_size_bytes",
			Help:      "Bytes written per read call",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		},
		[]string{"provider"},
	)

	c.releasesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_total",
			Help:      "Total number of prefix release calls",
		},
		[]string{"provider", "outcome"},
	)

	c.clonesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clones_total",
			Help:      "Total number of instance clone calls",
		},
		[]string{"provider"},
	)

	c.disposesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disposes_total",
			Help:      "Total number of instance dispose calls",
		},
		[]string{"provider"},
	)

	c.activeStreams = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_instances",
			Help:      "Stream instances alive (cloned but not yet disposed)",
		},
		[]string{"provider"},
	)

	return c
}

// ObserveRead 记录一次读取调用。
func (c *Collector) ObserveRead(provider, outcome string, n int) {
	c.readsTotal.WithLabelValues(provider, outcome).Inc()
	if n > 0 {
		c.readBytes.WithLabelValues(provider).Add(float64(n))
		c.readSize.WithLabelValues(provider).Observe(float64(n))
	}
}

// ObserveRelease 记录一次前缀释放调用。
func (c *Collector) ObserveRelease(provider, outcome string) {
	c.releasesTotal.WithLabelValues(provider, outcome).Inc()
}

// ObserveOpen 记录一个由工厂创建的新实例。
func (c *Collector) ObserveOpen(provider string) {
	c.activeStreams.WithLabelValues(provider).Inc()
}

// ObserveClone 记录一次克隆调用。
func (c *Collector) ObserveClone(provider string) {
	c.clonesTotal.WithLabelValues(provider).Inc()
	c.activeStreams.WithLabelValues(provider).Inc()
}

// ObserveDispose 记录一次释放调用。
func (c *Collector) ObserveDispose(provider string) {
	c.disposesTotal.WithLabelValues(provider).Inc()
	c.activeStreams.WithLabelValues(provider).Dec()
}
