package client

import (
	"context"
	"time"

	"github.com/leofalp/crewgraph/providers/ai"
	"github.com/leofalp/crewgraph/providers/observability"
)

// newObservabilityMiddleware wraps every provider call with a span, a request
// counter and a duration histogram. The span and observer are put in the
// context so providers and tools can attach events to them.
func newObservabilityMiddleware(observer observability.Provider, defaultModel string) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			model := request.Model
			if model == "" {
				model = defaultModel
			}

			ctx, span := observer.StartSpan(ctx, observability.SpanClientSendMessage,
				observability.String(observability.AttrLLMModel, model),
			)
			defer span.End()
			ctx = observability.ContextWithSpan(ctx, span)
			ctx = observability.ContextWithObserver(ctx, observer)

			observer.Trace(ctx, "llm send",
				observability.String(observability.AttrLLMModel, model),
				observability.String(observability.AttrClientPrompt, observability.TruncateStringDefault(lastContent(request))),
			)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			status := "success"
			if err != nil {
				status = "error"
				span.RecordError(err)
				span.SetStatus(observability.StatusError, "llm send failed")
				observer.Error(ctx, "llm send failed",
					observability.Error(err),
					observability.Duration(observability.AttrDuration, elapsed),
					observability.String(observability.AttrLLMModel, model),
				)
			} else {
				span.SetStatus(observability.StatusOK, "")
				attrs := []observability.Attribute{
					observability.String(observability.AttrLLMFinishReason, response.FinishReason),
					observability.Int(observability.AttrClientToolCalls, len(response.ToolCalls)),
				}
				if response.Usage != nil {
					attrs = append(attrs, observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
				}
				span.SetAttributes(attrs...)
			}

			observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
				observability.String(observability.AttrStatus, status),
				observability.String(observability.AttrLLMModel, model),
			)
			observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
				observability.String(observability.AttrStatus, status),
			)
			return response, err
		}
	}
}

func lastContent(request ai.ChatRequest) string {
	if len(request.Messages) == 0 {
		return ""
	}
	return request.Messages[len(request.Messages)-1].Content
}
