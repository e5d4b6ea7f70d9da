package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/crewgraph/providers/ai"
)

/*
	MESSAGES API - REQUEST
*/

type messagesRequest struct {
	Model       string     `json:"model"`
	Messages    []message  `json:"messages"`
	System      string     `json:"system,omitempty"`
	MaxTokens   int        `json:"max_tokens"` // Required by Anthropic on every request
	Temperature *float32   `json:"temperature,omitempty"`
	Tools       []toolSpec `json:"tools,omitempty"`
}

type message struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`          // tool_use
	Name      string          `json:"name,omitempty"`        // tool_use
	Input     json.RawMessage `json:"input,omitempty"`       // tool_use
	ToolUseID string          `json:"tool_use_id,omitempty"` // tool_result
	Content   string          `json:"content,omitempty"`     // tool_result
}

type toolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

/*
	MESSAGES API - RESPONSE
*/

type messagesResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

const defaultMaxTokens = 4096

var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// requestFromGeneric maps the generic request onto the Messages API. The system
// prompt travels in its own field, tool results become user turns, and
// consecutive turns with the same role are merged as the API requires.
func requestFromGeneric(request ai.ChatRequest) messagesRequest {
	converted := messagesRequest{
		Model:     request.Model,
		System:    request.SystemPrompt,
		MaxTokens: defaultMaxTokens,
	}

	for _, generic := range request.Messages {
		role, blocks := convertMessage(generic)
		if role == "" {
			continue
		}
		last := len(converted.Messages) - 1
		if last >= 0 && converted.Messages[last].Role == role {
			converted.Messages[last].Content = append(converted.Messages[last].Content, blocks...)
			continue
		}
		converted.Messages = append(converted.Messages, message{Role: role, Content: blocks})
	}

	for _, tool := range request.Tools {
		schema := tool.Parameters
		if len(schema) == 0 {
			schema = emptyObjectSchema
		}
		converted.Tools = append(converted.Tools, toolSpec{Name: tool.Name, Description: tool.Description, InputSchema: schema})
	}

	if config := request.GenerationConfig; config != nil {
		if config.MaxTokens > 0 {
			converted.MaxTokens = config.MaxTokens
		}
		if config.Temperature > 0 {
			temperature := config.Temperature
			converted.Temperature = &temperature
		}
	}
	return converted
}

func convertMessage(generic ai.Message) (string, []contentBlock) {
	switch generic.Role {
	case ai.RoleUser:
		return "user", []contentBlock{{Type: "text", Text: generic.Content}}
	case ai.RoleTool:
		return "user", []contentBlock{{Type: "tool_result", ToolUseID: generic.ToolCallID, Content: generic.Content}}
	case ai.RoleAssistant:
		var blocks []contentBlock
		if strings.TrimSpace(generic.Content) != "" {
			blocks = append(blocks, contentBlock{Type: "text", Text: generic.Content})
		}
		for _, toolCall := range generic.ToolCalls {
			input := json.RawMessage(toolCall.Function.Arguments)
			if !json.Valid(input) {
				input = json.RawMessage(`{}`)
			}
			blocks = append(blocks, contentBlock{Type: "tool_use", ID: toolCall.ID, Name: toolCall.Function.Name, Input: input})
		}
		return "assistant", blocks
	default:
		// system messages are carried by the dedicated field
		return "", nil
	}
}

func responseToGeneric(response messagesResponse) *ai.ChatResponse {
	generic := &ai.ChatResponse{
		Id:           response.ID,
		Model:        response.Model,
		FinishReason: response.StopReason,
		Usage: &ai.Usage{
			PromptTokens:     response.Usage.InputTokens,
			CompletionTokens: response.Usage.OutputTokens,
			TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
		},
	}

	var text strings.Builder
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			generic.ToolCalls = append(generic.ToolCalls, ai.ToolCall{
				ID:       block.ID,
				Type:     "function",
				Function: ai.ToolCallFunction{Name: block.Name, Arguments: string(block.Input)},
			})
		}
	}
	generic.Content = text.String()
	return generic
}
