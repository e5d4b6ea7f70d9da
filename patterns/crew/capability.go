package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/crewgraph/core/client"
	"github.com/leofalp/crewgraph/providers/tool/document"
)

// Invocation is one request to the generative service: an agent frame (role,
// goal, context) and a task.
type Invocation struct {
	Role           string
	Goal           string
	Context        string
	Description    string
	ExpectedOutput string

	// Tool is the agent's bound document search, nil when none.
	Tool document.SearchTool
}

// Capability performs an Invocation and returns the raw answer. It must honor
// ctx cancellation and be safe for concurrent use.
type Capability interface {
	Perform(ctx context.Context, invocation *Invocation) (string, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, invocation *Invocation) (string, error)

func (f CapabilityFunc) Perform(ctx context.Context, invocation *Invocation) (string, error) {
	return f(ctx, invocation)
}

// CapabilityResolver maps a capability identifier (such as "openai" or
// "mistral-large") to a Capability.
type CapabilityResolver interface {
	Resolve(identifier string) (Capability, error)
}

// CapabilityResolverFunc adapts a function to CapabilityResolver.
type CapabilityResolverFunc func(identifier string) (Capability, error)

func (f CapabilityResolverFunc) Resolve(identifier string) (Capability, error) {
	return f(identifier)
}

// StaticResolver resolves every identifier to the same capability.
func StaticResolver(capability Capability) CapabilityResolver {
	return CapabilityResolverFunc(func(string) (Capability, error) {
		return capability, nil
	})
}

// ClientCapability performs invocations with an LLM client. The agent frame
// becomes the system prompt, the task the user prompt, and a bound document is
// offered as a search tool for that call only.
type ClientCapability struct {
	client *client.Client
}

var _ Capability = (*ClientCapability)(nil)

// NewClientCapability wraps llm.
func NewClientCapability(llm *client.Client) *ClientCapability {
	return &ClientCapability{client: llm}
}

// Perform sends the invocation and returns the final answer text.
func (c *ClientCapability) Perform(ctx context.Context, invocation *Invocation) (string, error) {
	if invocation == nil {
		return "", errors.New("nil invocation")
	}

	opts := []client.SendOption{client.WithCallSystemPrompt(AgentPrompt(invocation))}
	if invocation.Tool != nil {
		opts = append(opts, client.WithCallTools(document.AsTool(invocation.Tool)))
	}

	response, err := c.client.SendMessage(ctx, TaskPrompt(invocation), opts...)
	if err != nil {
		return "", err
	}
	if response.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", response.Refusal)
	}
	if strings.TrimSpace(response.Content) == "" {
		return "", ErrEmptyOutput
	}
	return response.Content, nil
}

// AgentPrompt renders the agent frame of an invocation.
func AgentPrompt(invocation *Invocation) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "You are %s.", invocation.Role)
	if frame := strings.TrimSpace(invocation.Context); frame != "" {
		builder.WriteString(" ")
		builder.WriteString(frame)
	}
	if invocation.Goal != "" {
		fmt.Fprintf(&builder, "\nYour personal goal is: %s", invocation.Goal)
	}
	if invocation.Tool != nil {
		fmt.Fprintf(&builder, "\nYou can search the document %s with the %s tool when it helps.", invocation.Tool.Path(), invocation.Tool.Name())
	}
	return builder.String()
}

// TaskPrompt renders the task of an invocation.
func TaskPrompt(invocation *Invocation) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Current Task: %s", invocation.Description)
	if invocation.ExpectedOutput != "" {
		fmt.Fprintf(&builder, "\n\nThis is the expected criteria for your final answer: %s", invocation.ExpectedOutput)
	}
	builder.WriteString("\nYou MUST return the actual complete content as the final answer, not a summary.")
	return builder.String()
}
