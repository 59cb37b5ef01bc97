package ustream

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/ustream/internal/metrics"
)

type instrumentPayload struct {
	wrapPayload
	collector *metrics.Collector
	tracer    trace.Tracer
	kind      string
}

type instrumentProvider struct{}

var instrumentAPI Provider = instrumentProvider{}

// collectors caches one Collector per (registerer, namespace) pair;
// registering the same metric names twice on one registerer panics.
var collectors struct {
	mu sync.Mutex
	m  map[collectorKey]*metrics.Collector
}

type collectorKey struct {
	reg       prometheus.Registerer
	namespace string
}

func collectorFor(namespace string, reg prometheus.Registerer, logger *zap.Logger) *metrics.Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors.mu.Lock()
	defer collectors.mu.Unlock()
	key := collectorKey{reg: reg, namespace: namespace}
	if c, ok := collectors.m[key]; ok {
		return c
	}
	if collectors.m == nil {
		collectors.m = make(map[collectorKey]*metrics.Collector)
	}
	c := metrics.NewCollector(namespace, reg, logger)
	collectors.m[key] = c
	return c
}

// InstrumentConfig configures the metrics and tracing wrapper.
type InstrumentConfig struct {
	// Namespace prefixes the prometheus metric names. Defaults to
	// "ustream".
	Namespace string

	// Registerer receives the prometheus metrics. Defaults to the global
	// registerer.
	Registerer prometheus.Registerer

	// Tracer emits one span per delegated read. Defaults to the global
	// tracer provider's "ustream" tracer.
	Tracer trace.Tracer

	Logger *zap.Logger
}

// Instrument wraps child so reads, releases, clones and disposes are counted
// in prometheus, and each read is traced through OpenTelemetry. SetPosition,
// Reset, Position and RemainingSize are neither counted nor traced. The
// wrapped provider's kind labels the metrics. child is cloned, not consumed.
func Instrument(child *Instance, cfg InstrumentConfig) (*Instance, error) {
	if err := child.valid(); err != nil {
		return nil, err
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "ustream"
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("ustream")
	}

	kind := child.cb.provider.name()
	wp, err := newWrapPayload(child)
	if err != nil {
		return nil, err
	}
	pl := &instrumentPayload{
		wrapPayload: wrapPayload{child: wp.child},
		collector:   collectorFor(namespace, cfg.Registerer, cfg.Logger),
		tracer:      tracer,
		kind:        kind,
	}
	cb := newControlBlock(instrumentAPI, pl, pl.dispose, nil, cfg.Logger)
	inst, err := wrapInstance(cb, &pl.wrapPayload)
	if err == nil {
		pl.collector.ObserveOpen(kind)
	}
	return inst, err
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if code := CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}

func (instrumentProvider) name() string { return "instrument" }

func (instrumentProvider) reset(s *Instance) error               { return defaultReset(s) }
func (instrumentProvider) remaining(s *Instance) (uint64, error) { return defaultRemaining(s) }
func (instrumentProvider) position(s *Instance) (uint64, error)  { return defaultPosition(s) }

func (instrumentProvider) setPosition(s *Instance, pos uint64) error {
	pl := s.cb.payload.(*instrumentPayload)
	return pl.setPosition(s, pos)
}

func (instrumentProvider) read(s *Instance, buf []byte) (int, error) {
	pl := s.cb.payload.(*instrumentPayload)
	_, span := pl.tracer.Start(context.Background(), "ustream.read",
		trace.WithAttributes(attribute.String("ustream.provider", pl.kind)))
	n, err := pl.read(s, buf)
	pl.collector.ObserveRead(pl.kind, outcome(err), n)
	span.SetAttributes(attribute.Int("ustream.bytes", n))
	if err != nil {
		span.SetAttributes(attribute.String("ustream.outcome", outcome(err)))
	}
	span.End()
	return n, err
}

func (instrumentProvider) release(s *Instance, pos uint64) error {
	pl := s.cb.payload.(*instrumentPayload)
	err := pl.release(s, pos)
	pl.collector.ObserveRelease(pl.kind, outcome(err))
	return err
}

func (instrumentProvider) clone(src *Instance, offset uint64) (*Instance, error) {
	pl := src.cb.payload.(*instrumentPayload)
	dst, err := defaultClone(src, offset)
	if err == nil {
		pl.collector.ObserveClone(pl.kind)
	}
	return dst, err
}

func (instrumentProvider) dispose(s *Instance) error {
	pl := s.cb.payload.(*instrumentPayload)
	err := defaultDispose(s)
	if err == nil {
		pl.collector.ObserveDispose(pl.kind)
	}
	return err
}
