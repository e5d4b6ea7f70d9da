package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/crewgraph/core/parse"
	"github.com/leofalp/crewgraph/providers/ai"
	"github.com/leofalp/crewgraph/providers/observability"
)

// DefaultSchema is advertised when a tool declares no parameter schema.
var DefaultSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Tool binds a name, description and parameter schema to a typed Go function.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Function    func(ctx context.Context, input I) (O, error)
}

// GenericTool is the provider-agnostic interface for all tools, so that tools
// of different input/output types can be stored and dispatched together.
type GenericTool interface {
	// ToolInfo returns the metadata advertised to the model.
	ToolInfo() ai.ToolDescription

	// Call invokes the tool with JSON-encoded input and returns JSON-encoded output.
	Call(ctx context.Context, inputJson string) (string, error)
}

type funcToolOptions struct {
	description string
	parameters  json.RawMessage
}

// Option configures a Tool created with NewTool.
type Option func(*funcToolOptions)

// WithDescription sets the description the model uses to decide when to call the tool.
func WithDescription(description string) Option {
	return func(options *funcToolOptions) {
		options.description = description
	}
}

// WithParameters sets the JSON Schema describing the tool input.
func WithParameters(schema json.RawMessage) Option {
	return func(options *funcToolOptions) {
		options.parameters = schema
	}
}

// NewTool constructs a Tool.
//
// Example:
//
//	type searchInput struct {
//	    Query string `json:"query"`
//	}
//
//	search := tool.NewTool("search_report", searchFunc,
//	    tool.WithDescription("Searches the bound report."),
//	    tool.WithParameters(json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`)),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), options ...Option) *Tool[I, O] {
	toolOptions := &funcToolOptions{parameters: DefaultSchema}
	for _, option := range options {
		option(toolOptions)
	}
	return &Tool[I, O]{
		Name:        name,
		Description: toolOptions.description,
		Parameters:  toolOptions.parameters,
		Function:    function,
	}
}

// ToolInfo returns the ai.ToolDescription advertised to the model.
func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	return ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
		Parameters:  t.Parameters,
	}
}

// Call decodes inputJson into I (repairing sloppy JSON), runs the function and
// encodes the output. When a span is present in ctx, start and end events are
// recorded on it.
func (t *Tool[I, O]) Call(ctx context.Context, inputJson string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent("tool.execution.start",
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, observability.TruncateStringDefault(inputJson)),
		)
	}
	start := time.Now()

	input, err := parse.ParseStringAs[I](inputJson)
	if err != nil {
		err = fmt.Errorf("tool %s: decoding input: %w", t.Name, err)
		if span != nil {
			span.RecordError(err)
		}
		return "", err
	}

	output, err := t.Function(ctx, input)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return "", err
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		return "", fmt.Errorf("tool %s: encoding output: %w", t.Name, err)
	}

	if span != nil {
		span.AddEvent("tool.execution.end",
			observability.String(observability.AttrToolOutput, observability.TruncateStringDefault(string(encoded))),
			observability.Duration(observability.AttrDuration, time.Since(start)),
		)
	}
	return string(encoded), nil
}
