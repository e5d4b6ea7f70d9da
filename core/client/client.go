package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/crewgraph/providers/ai"
	"github.com/leofalp/crewgraph/providers/observability"
	"github.com/leofalp/crewgraph/providers/tool"
)

var (
	// ErrNilProvider is returned by New when no provider is given.
	ErrNilProvider = errors.New("client: provider must not be nil")

	// ErrEmptyPrompt is returned by SendMessage for a blank prompt.
	ErrEmptyPrompt = errors.New("client: prompt must not be empty")

	// ErrToolIterationsExceeded is returned when the model keeps requesting tools
	// past the configured limit.
	ErrToolIterationsExceeded = errors.New("client: tool iterations exceeded")
)

// Client sends prompts to an LLM provider and resolves tool calls.
type Client struct {
	provider ai.Provider
	config   clientConfig
	send     SendFunc
	catalog  *tool.Catalog
}

// New creates a Client.
//
// Example:
//
//	llm, err := client.New(openai.New(),
//	    client.WithDefaultModel("gpt-4o-mini"),
//	    client.WithTemperature(0.2),
//	    client.WithMiddleware(middleware.NewRetryMiddleware(middleware.RetryConfig{})),
//	)
func New(provider ai.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	config := clientConfig{maxToolIterations: DefaultMaxToolIterations}
	for _, opt := range opts {
		opt(&config)
	}
	if config.maxToolIterations <= 0 {
		config.maxToolIterations = DefaultMaxToolIterations
	}

	middlewares := config.middlewares
	if config.observer != nil {
		middlewares = append([]Middleware{newObservabilityMiddleware(config.observer, config.model)}, middlewares...)
	}

	return &Client{
		provider: provider,
		config:   config,
		send:     buildSendChain(provider, middlewares),
		catalog:  tool.NewCatalog(config.tools...),
	}, nil
}

// Observer returns the configured observability provider, nil when disabled.
func (c *Client) Observer() observability.Provider {
	return c.config.observer
}

// SendMessage sends prompt as a fresh single-turn conversation and resolves any
// tool calls the model makes. The returned response is the final one; its
// Usage sums every round trip.
func (c *Client) SendMessage(ctx context.Context, prompt string, opts ...SendOption) (*ai.ChatResponse, error) {
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	call := sendConfig{systemPrompt: c.config.systemPrompt}
	for _, opt := range opts {
		opt(&call)
	}

	catalog := c.catalog
	if len(call.tools) > 0 {
		catalog = tool.NewCatalog(append(append([]tool.GenericTool{}, c.config.tools...), call.tools...)...)
	}

	request := ai.ChatRequest{
		Model:        c.config.model,
		SystemPrompt: call.systemPrompt,
		Messages:     []ai.Message{{Role: ai.RoleUser, Content: prompt}},
		Tools:        catalog.Descriptions(),
	}
	if c.config.temperature > 0 || c.config.maxTokens > 0 {
		request.GenerationConfig = &ai.GenerationConfig{Temperature: c.config.temperature, MaxTokens: c.config.maxTokens}
	}

	total := &ai.Usage{}
	for iteration := 0; ; iteration++ {
		response, err := c.send(ctx, request)
		if err != nil {
			return nil, err
		}
		addUsage(total, response.Usage)

		if c.provider.IsStopMessage(response) || len(response.ToolCalls) == 0 {
			response.Usage = total
			return response, nil
		}
		if iteration >= c.config.maxToolIterations {
			response.Usage = total
			return response, fmt.Errorf("%w: %d", ErrToolIterationsExceeded, c.config.maxToolIterations)
		}

		request.Messages = append(request.Messages, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})
		for _, toolCall := range response.ToolCalls {
			request.Messages = append(request.Messages, ai.Message{
				Role:       ai.RoleTool,
				ToolCallID: toolCall.ID,
				Name:       toolCall.Function.Name,
				Content:    c.callTool(ctx, catalog, toolCall),
			})
		}
	}
}

// callTool runs one tool call. Failures are reported back to the model as a
// ToolResult envelope rather than aborting the conversation.
func (c *Client) callTool(ctx context.Context, catalog *tool.Catalog, toolCall ai.ToolCall) string {
	found, ok := catalog.Get(toolCall.Function.Name)
	if !ok {
		return toolError("tool_not_found", fmt.Sprintf("no tool named %q", toolCall.Function.Name))
	}

	output, err := found.Call(ctx, toolCall.Function.Arguments)
	if err != nil {
		if c.config.observer != nil {
			c.config.observer.Warn(ctx, "tool call failed",
				observability.String(observability.AttrToolName, toolCall.Function.Name),
				observability.Error(err),
			)
		}
		return toolError("tool_execution_failed", err.Error())
	}
	return output
}

func toolError(code, message string) string {
	encoded, err := ai.NewToolResultError(code, message).ToJSON()
	if err != nil {
		return message
	}
	return encoded
}

func addUsage(total, usage *ai.Usage) {
	if usage == nil {
		return
	}
	total.PromptTokens += usage.PromptTokens
	total.CompletionTokens += usage.CompletionTokens
	total.TotalTokens += usage.TotalTokens
}
