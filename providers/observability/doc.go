// Package observability defines the interfaces and semantic conventions used for
// tracing, metrics collection, and structured logging throughout crewgraph.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. Components accept a nil
// Provider to mean "observability disabled". An active [Provider] and [Span]
// travel through a [context.Context] with [ContextWithObserver] and
// [ContextWithSpan].
//
// Backends live in sub-packages: slogobs writes everything through log/slog,
// prometheus exports counters and histograms to a Prometheus registry.
package observability
