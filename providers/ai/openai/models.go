package openai

import (
	"encoding/json"

	"github.com/leofalp/crewgraph/providers/ai"
)

/*
	CHAT COMPLETIONS API - INPUT
*/

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Tools       []chatTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
}

type chatTool struct {
	Type     string       `json:"type"` // "function"
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
}

type chatChoice struct {
	Index        int                 `json:"index"`
	Message      chatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type chatResponseMessage struct {
	Role      string         `json:"role"`
	Content   *string        `json:"content"`
	Refusal   string         `json:"refusal,omitempty"`
	ToolCalls []chatToolCall `json:"tool_calls,omitempty"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

/*
	CONVERSION
*/

func requestFromGeneric(request ai.ChatRequest) chatCompletionRequest {
	converted := chatCompletionRequest{Model: request.Model}

	if request.SystemPrompt != "" {
		converted.Messages = append(converted.Messages, chatMessage{Role: string(ai.RoleSystem), Content: request.SystemPrompt})
	}
	for _, message := range request.Messages {
		chat := chatMessage{
			Role:       string(message.Role),
			Content:    message.Content,
			Name:       message.Name,
			ToolCallID: message.ToolCallID,
		}
		for _, toolCall := range message.ToolCalls {
			var call chatToolCall
			call.ID = toolCall.ID
			call.Type = "function"
			call.Function.Name = toolCall.Function.Name
			call.Function.Arguments = toolCall.Function.Arguments
			chat.ToolCalls = append(chat.ToolCalls, call)
		}
		converted.Messages = append(converted.Messages, chat)
	}

	for _, tool := range request.Tools {
		converted.Tools = append(converted.Tools, chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if len(converted.Tools) > 0 {
		converted.ToolChoice = "auto"
	}

	if config := request.GenerationConfig; config != nil {
		if config.Temperature > 0 {
			temperature := config.Temperature
			converted.Temperature = &temperature
		}
		if config.MaxTokens > 0 {
			maxTokens := config.MaxTokens
			converted.MaxTokens = &maxTokens
		}
	}
	return converted
}

func responseToGeneric(response chatCompletionResponse) *ai.ChatResponse {
	generic := &ai.ChatResponse{Id: response.ID, Model: response.Model}
	if response.Usage != nil {
		generic.Usage = &ai.Usage{
			PromptTokens:     response.Usage.PromptTokens,
			CompletionTokens: response.Usage.CompletionTokens,
			TotalTokens:      response.Usage.TotalTokens,
		}
	}
	if len(response.Choices) == 0 {
		return generic
	}

	choice := response.Choices[0]
	generic.FinishReason = choice.FinishReason
	generic.Refusal = choice.Message.Refusal
	if choice.Message.Content != nil {
		generic.Content = *choice.Message.Content
	}
	for _, toolCall := range choice.Message.ToolCalls {
		generic.ToolCalls = append(generic.ToolCalls, ai.ToolCall{
			ID:   toolCall.ID,
			Type: "function",
			Function: ai.ToolCallFunction{
				Name:      toolCall.Function.Name,
				Arguments: toolCall.Function.Arguments,
			},
		})
	}
	return generic
}
