// Package promobs exports crewgraph metrics to Prometheus.
//
// Counters and histograms are backed by prometheus CounterVec and HistogramVec
// values registered on a caller-supplied registry. Tracing and logging are
// delegated to another [observability.Provider] (typically slogobs), so a single
// Observer can be injected everywhere.
//
// Attribute keys listed with [WithLabels] become label names (dots replaced by
// underscores); every other attribute is ignored for metrics, which keeps label
// cardinality bounded.
package promobs
