package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/crewgraph/core/client"
	"github.com/leofalp/crewgraph/providers/ai"
	"github.com/leofalp/crewgraph/providers/observability"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs the model, the duration and token counts.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count, tool count and finish reason.
	LogLevelStandard

	// LogLevelVerbose adds the last prompt and the response content, truncated.
	// Prompts carry document summaries and task outputs, so keep this for local
	// debugging.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose output.
const truncateLen = 500

// NewLoggingMiddleware writes an slog record before and after every provider
// call. A nil logger falls back to slog.Default().
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			logger.InfoContext(ctx, "llm send", buildRequestAttrs(request, level)...)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "llm send failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "llm send completed", buildResponseAttrs(response, elapsed, level)...)
			return response, nil
		}
	}
}

func buildRequestAttrs(request ai.ChatRequest, level LogLevel) []any {
	attrs := []any{slog.String("model", request.Model)}

	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.Int("message_count", len(request.Messages)),
			slog.Int("tool_count", len(request.Tools)),
		)
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", observability.TruncateString(last.Content, truncateLen)),
		)
	}
	return attrs
}

func buildResponseAttrs(response *ai.ChatResponse, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", response.Model),
		slog.Duration("duration", elapsed),
	}

	if response.Usage != nil {
		attrs = append(attrs,
			slog.Int("prompt_tokens", response.Usage.PromptTokens),
			slog.Int("completion_tokens", response.Usage.CompletionTokens),
			slog.Int("total_tokens", response.Usage.TotalTokens),
		)
	}

	if level >= LogLevelStandard {
		attrs = append(attrs,
			slog.String("finish_reason", response.FinishReason),
			slog.Int("tool_calls", len(response.ToolCalls)),
		)
	}

	if level >= LogLevelVerbose {
		attrs = append(attrs, slog.String("response_content", observability.TruncateString(response.Content, truncateLen)))
	}
	return attrs
}
