package promobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/crewgraph/providers/observability"
)

// DefaultLabels are the attribute keys exported as labels when WithLabels is not used.
var DefaultLabels = []string{
	observability.AttrStatus,
	observability.AttrCapability,
	observability.AttrSummaryCached,
}

// DefaultBuckets are histogram buckets in seconds, sized for LLM round trips.
var DefaultBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// Option configures an Observer.
type Option func(*Observer)

// WithLabels replaces the attribute keys exported as labels.
func WithLabels(keys ...string) Option {
	return func(o *Observer) {
		o.labelKeys = append([]string(nil), keys...)
	}
}

// WithBuckets replaces the histogram buckets.
func WithBuckets(buckets ...float64) Option {
	return func(o *Observer) {
		o.buckets = append([]float64(nil), buckets...)
	}
}

// WithNamespace prefixes every metric name.
func WithNamespace(namespace string) Option {
	return func(o *Observer) {
		o.namespace = namespace
	}
}

// Observer implements observability.Provider with Prometheus metrics.
type Observer struct {
	delegate   observability.Provider
	registerer prometheus.Registerer
	labelKeys  []string
	buckets    []float64
	namespace  string

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

var _ observability.Provider = (*Observer)(nil)

// New creates an Observer registering its collectors on registerer
// (prometheus.DefaultRegisterer when nil). Spans and logs go to delegate; a nil
// delegate drops them.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	observer := promobs.New(registry, slogobs.New())
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func New(registerer prometheus.Registerer, delegate observability.Provider, opts ...Option) *Observer {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	observer := &Observer{
		delegate:   delegate,
		registerer: registerer,
		labelKeys:  DefaultLabels,
		buckets:    DefaultBuckets,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for _, opt := range opts {
		opt(observer)
	}
	return observer
}

// --- METRICS ---

// Counter returns a counter backed by a CounterVec named after name with dots
// turned into underscores and a _total suffix.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.counters[name]; ok {
		return existing
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Name:      MetricName(name) + "_total",
		Help:      fmt.Sprintf("crewgraph counter %s.", name),
	}, LabelNames(o.labelKeys))
	vec = registerOrReuse(o.registerer, vec)

	created := &counter{vec: vec, labelKeys: o.labelKeys}
	o.counters[name] = created
	return created
}

// Histogram returns a histogram backed by a HistogramVec.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()
	if existing, ok := o.histograms[name]; ok {
		return existing
	}

	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: o.namespace,
		Name:      MetricName(name),
		Help:      fmt.Sprintf("crewgraph histogram %s.", name),
		Buckets:   o.buckets,
	}, LabelNames(o.labelKeys))
	vec = registerOrReuse(o.registerer, vec)

	created := &histogram{vec: vec, labelKeys: o.labelKeys}
	o.histograms[name] = created
	return created
}

type counter struct {
	vec       *prometheus.CounterVec
	labelKeys []string
}

func (c *counter) Add(_ context.Context, value int64, attrs ...observability.Attribute) {
	if value < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.labelKeys, attrs)...).Add(float64(value))
}

type histogram struct {
	vec       *prometheus.HistogramVec
	labelKeys []string
}

func (h *histogram) Record(_ context.Context, value float64, attrs ...observability.Attribute) {
	h.vec.WithLabelValues(labelValues(h.labelKeys, attrs)...).Observe(value)
}

// registerOrReuse registers collector, returning the already registered one when
// another Observer on the same registry got there first.
func registerOrReuse[C prometheus.Collector](registerer prometheus.Registerer, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, sameType := already.ExistingCollector.(C); sameType {
				return existing
			}
		}
		panic(fmt.Sprintf("promobs: registering collector: %v", err))
	}
	return collector
}

// MetricName converts a dotted metric name into a Prometheus-compatible one.
func MetricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

// LabelNames converts attribute keys into label names.
func LabelNames(keys []string) []string {
	names := make([]string, len(keys))
	for index, key := range keys {
		names[index] = MetricName(key)
	}
	return names
}

func labelValues(keys []string, attrs []observability.Attribute) []string {
	values := make([]string, len(keys))
	for _, attr := range attrs {
		for index, key := range keys {
			if attr.Key == key {
				values[index] = fmt.Sprint(attr.Value)
			}
		}
	}
	return values
}

// --- TRACING & LOGGING (delegated) ---

func (o *Observer) StartSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	if o.delegate == nil {
		span := nopSpan{}
		return observability.ContextWithSpan(ctx, span), span
	}
	return o.delegate.StartSpan(ctx, name, attrs...)
}

func (o *Observer) Trace(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Trace(ctx, msg, attrs...)
	}
}

func (o *Observer) Debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Debug(ctx, msg, attrs...)
	}
}

func (o *Observer) Info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Info(ctx, msg, attrs...)
	}
}

func (o *Observer) Warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Warn(ctx, msg, attrs...)
	}
}

func (o *Observer) Error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.delegate != nil {
		o.delegate.Error(ctx, msg, attrs...)
	}
}

type nopSpan struct{}

func (nopSpan) End()                                            {}
func (nopSpan) SetAttributes(_ ...observability.Attribute)      {}
func (nopSpan) SetStatus(_ observability.StatusCode, _ string)  {}
func (nopSpan) RecordError(_ error)                             {}
func (nopSpan) AddEvent(_ string, _ ...observability.Attribute) {}
