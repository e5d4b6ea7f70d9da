package anthropic

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/leofalp/crewgraph/internal/utils"
	"github.com/leofalp/crewgraph/providers/ai"
)

const (
	defaultBaseURL   = "https://api.anthropic.com/v1"
	messagesEndpoint = "/messages"
	anthropicVersion = "2023-06-01"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("anthropic: API key is not set")

// ErrMissingModel is returned when the request names no model; Anthropic has no default.
var ErrMissingModel = errors.New("anthropic: model is required")

// AnthropicProvider implements ai.Provider for the Messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.Provider = (*AnthropicProvider)(nil)

// New returns a provider initialized from ANTHROPIC_API_KEY and ANTHROPIC_API_BASE_URL.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// SendMessage sends the request to the Messages API.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	if p.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if request.Model == "" {
		return nil, ErrMissingModel
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": anthropicVersion,
	}
	response, err := utils.DoPostJSON[messagesResponse](ctx, p.client, p.baseURL+messagesEndpoint, headers, requestFromGeneric(request))
	if err != nil {
		return nil, err
	}
	return responseToGeneric(*response), nil
}

// IsStopMessage reports whether the model stopped without requesting tools.
func (p *AnthropicProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	return message.FinishReason != "tool_use" && len(message.ToolCalls) == 0
}
