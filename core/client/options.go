package client

import (
	"github.com/leofalp/crewgraph/providers/observability"
	"github.com/leofalp/crewgraph/providers/tool"
)

// DefaultMaxToolIterations bounds the tool round trips of a single SendMessage.
const DefaultMaxToolIterations = 5

type clientConfig struct {
	systemPrompt      string
	model             string
	temperature       float32
	maxTokens         int
	maxToolIterations int
	observer          observability.Provider
	middlewares       []Middleware
	tools             []tool.GenericTool
}

// Option configures a Client.
type Option func(*clientConfig)

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(config *clientConfig) {
		config.systemPrompt = prompt
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(model string) Option {
	return func(config *clientConfig) {
		config.model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float32) Option {
	return func(config *clientConfig) {
		config.temperature = temperature
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(maxTokens int) Option {
	return func(config *clientConfig) {
		config.maxTokens = maxTokens
	}
}

// WithMaxToolIterations bounds tool round trips per SendMessage.
func WithMaxToolIterations(iterations int) Option {
	return func(config *clientConfig) {
		config.maxToolIterations = iterations
	}
}

// WithObserver enables spans, metrics and logs for every request. The
// observability middleware is installed outermost, so it sees the outcome after
// retries and timeouts.
func WithObserver(observer observability.Provider) Option {
	return func(config *clientConfig) {
		config.observer = observer
	}
}

// WithMiddleware appends middlewares to the chain.
func WithMiddleware(middlewares ...Middleware) Option {
	return func(config *clientConfig) {
		config.middlewares = append(config.middlewares, middlewares...)
	}
}

// WithTools registers tools available to every request.
func WithTools(tools ...tool.GenericTool) Option {
	return func(config *clientConfig) {
		config.tools = append(config.tools, tools...)
	}
}

// SendOption configures a single SendMessage call.
type SendOption func(*sendConfig)

type sendConfig struct {
	systemPrompt string
	tools        []tool.GenericTool
}

// WithCallSystemPrompt overrides the client system prompt for one call.
func WithCallSystemPrompt(prompt string) SendOption {
	return func(config *sendConfig) {
		config.systemPrompt = prompt
	}
}

// WithCallTools adds tools for one call only, on top of the client tools.
func WithCallTools(tools ...tool.GenericTool) SendOption {
	return func(config *sendConfig) {
		config.tools = append(config.tools, tools...)
	}
}
