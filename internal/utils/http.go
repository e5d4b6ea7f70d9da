package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/crewgraph/providers/observability"
)

// StatusError is returned by DoPostJSON for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying (rate limits and server errors).
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// DoPostJSON performs a synchronous HTTP POST with a JSON body and decodes a
// JSON response into OutputStruct.
//
// Headers are applied verbatim, so callers choose their own auth scheme
// ("Authorization: Bearer ..." for OpenAI-compatible APIs, "x-api-key" for
// Anthropic). Context errors are propagated unchanged; non-2xx responses come
// back as *StatusError; decode failures include a truncated body preview.
func DoPostJSON[OutputStruct any](ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (*OutputStruct, error) {
	span := observability.SpanFromContext(ctx)

	if client == nil {
		client = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	for name, value := range headers {
		if value != "" {
			request.Header.Set(name, value)
		}
	}

	requestStart := time.Now()
	response, err := client.Do(request)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error", observability.Error(err), observability.Duration("http.request.duration", requestDuration))
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
		}
	}(response.Body)

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int("http.status_code", response.StatusCode),
			observability.Int("http.response.body.size", len(responseBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: response.StatusCode, Body: observability.TruncateStringDefault(string(responseBody))}
	}

	var decoded OutputStruct
	if err = json.Unmarshal(responseBody, &decoded); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			response.StatusCode, err, observability.TruncateStringDefault(string(responseBody)))
	}
	return &decoded, nil
}

// BearerAuth builds the Authorization header used by OpenAI-compatible APIs.
// An empty key yields no header.
func BearerAuth(apiKey string) map[string]string {
	if apiKey == "" {
		return map[string]string{}
	}
	return map[string]string{"Authorization": "Bearer " + apiKey}
}
