package crew

import (
	"context"

	"github.com/leofalp/crewgraph/providers/observability"
)

// observer wraps an optional observability.Provider. The zero value is disabled
// and every method is then a no-op.
type observer struct {
	provider observability.Provider
}

// resolveObserver prefers the configured provider, then one carried by ctx.
func resolveObserver(ctx context.Context, configured observability.Provider) observer {
	if configured != nil {
		return observer{provider: configured}
	}
	return observer{provider: observability.ObserverFromContext(ctx)}
}

// startSpan opens a span and puts it, with the provider, into ctx. When
// disabled it returns ctx unchanged and a no-op span.
func (o observer) startSpan(ctx context.Context, name string, attrs ...observability.Attribute) (context.Context, observability.Span) {
	if o.provider == nil {
		return ctx, nopSpan{}
	}
	ctx, span := o.provider.StartSpan(ctx, name, attrs...)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, o.provider)
	return ctx, span
}

func (o observer) count(ctx context.Context, name string, attrs ...observability.Attribute) {
	if o.provider != nil {
		o.provider.Counter(name).Add(ctx, 1, attrs...)
	}
}

func (o observer) record(ctx context.Context, name string, value float64, attrs ...observability.Attribute) {
	if o.provider != nil {
		o.provider.Histogram(name).Record(ctx, value, attrs...)
	}
}

func (o observer) debug(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.provider != nil {
		o.provider.Debug(ctx, msg, attrs...)
	}
}

func (o observer) info(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.provider != nil {
		o.provider.Info(ctx, msg, attrs...)
	}
}

func (o observer) warn(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.provider != nil {
		o.provider.Warn(ctx, msg, attrs...)
	}
}

func (o observer) error(ctx context.Context, msg string, attrs ...observability.Attribute) {
	if o.provider != nil {
		o.provider.Error(ctx, msg, attrs...)
	}
}

// endSpan closes span with the outcome of err.
func endSpan(span observability.Span, err error, description string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, description)
	} else {
		span.SetStatus(observability.StatusOK, "")
	}
	span.End()
}

type nopSpan struct{}

func (nopSpan) End()                                        {}
func (nopSpan) SetAttributes(...observability.Attribute)    {}
func (nopSpan) SetStatus(observability.StatusCode, string)  {}
func (nopSpan) RecordError(error)                           {}
func (nopSpan) AddEvent(string, ...observability.Attribute) {}
