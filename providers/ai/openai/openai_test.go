package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leofalp/crewgraph/providers/ai"
)

// newTestServer returns a server that records the decoded request and replies with body.
func newTestServer(testingHelper *testing.T, body string, captured *chatCompletionRequest) *httptest.Server {
	testingHelper.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
		}
		fmt.Fprint(w, body)
	}))
}

func TestSendMessage_TextResponse(testCase *testing.T) {
	var captured chatCompletionRequest
	server := newTestServer(testCase, `{
		"id": "chatcmpl-1",
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Draft ready"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
	}`, &captured)
	defer server.Close()

	provider := New().WithAPIKey("key").WithBaseURL(server.URL + "/").WithHttpClient(server.Client())
	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Model:            "gpt-4o-mini",
		SystemPrompt:     "You are a Writer.",
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: "Write a draft"}},
		GenerationConfig: &ai.GenerationConfig{Temperature: 0.2},
	})
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}

	if response.Content != "Draft ready" || response.Usage.TotalTokens != 15 {
		testCase.Errorf("unexpected response %+v", response)
	}
	if !provider.IsStopMessage(response) {
		testCase.Error("expected a text response to be a stop message")
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[0].Content != "You are a Writer." {
		testCase.Errorf("expected system prompt first, got %+v", captured.Messages)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.2 {
		testCase.Errorf("expected temperature 0.2, got %v", captured.Temperature)
	}
}

func TestSendMessage_ToolCalls(testCase *testing.T) {
	var captured chatCompletionRequest
	server := newTestServer(testCase, `{
		"id": "chatcmpl-2",
		"choices": [{"message": {"role": "assistant", "content": null, "tool_calls": [
			{"id": "call_1", "type": "function", "function": {"name": "search_report_pdf", "arguments": "{\"query\":\"budget\"}"}}
		]}, "finish_reason": "tool_calls"}]
	}`, &captured)
	defer server.Close()

	provider := New().WithAPIKey("key").WithBaseURL(server.URL).WithHttpClient(server.Client())
	response, err := provider.SendMessage(context.Background(), ai.ChatRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Find the budget"}},
		Tools: []ai.ToolDescription{{
			Name:       "search_report_pdf",
			Parameters: json.RawMessage(`{"type":"object"}`),
		}},
	})
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}

	if len(response.ToolCalls) != 1 || response.ToolCalls[0].Function.Name != "search_report_pdf" {
		testCase.Fatalf("expected one tool call, got %+v", response.ToolCalls)
	}
	if provider.IsStopMessage(response) {
		testCase.Error("expected a tool call response not to be a stop message")
	}
	if captured.ToolChoice != "auto" || len(captured.Tools) != 1 {
		testCase.Errorf("expected tools to be advertised with auto choice, got %+v", captured)
	}
}

func TestSendMessage_NoChoices(testCase *testing.T) {
	server := newTestServer(testCase, `{"id": "empty", "choices": []}`, nil)
	defer server.Close()

	provider := New().WithAPIKey("key").WithBaseURL(server.URL).WithHttpClient(server.Client())
	if _, err := provider.SendMessage(context.Background(), ai.ChatRequest{}); err == nil {
		testCase.Fatal("expected an error for a response without choices")
	}
}

func TestSendMessage_MissingKeyOnlyForHostedAPI(testCase *testing.T) {
	testCase.Setenv("OPENAI_API_KEY", "")
	testCase.Setenv("OPENAI_API_BASE_URL", "")

	_, err := New().SendMessage(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, ErrMissingAPIKey) {
		testCase.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	server := newTestServer(testCase, `{"choices": [{"message": {"content": "local"}}]}`, nil)
	defer server.Close()
	response, err := New().WithBaseURL(server.URL).WithHttpClient(server.Client()).SendMessage(context.Background(), ai.ChatRequest{})
	if err != nil || response.Content != "local" {
		testCase.Fatalf("expected keyless self-hosted call to succeed, got %v / %+v", err, response)
	}
}

func TestRequestFromGeneric_ToolRoundTrip(testCase *testing.T) {
	converted := requestFromGeneric(ai.ChatRequest{
		Messages: []ai.Message{
			{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "call_1", Function: ai.ToolCallFunction{Name: "search", Arguments: "{}"}}}},
			{Role: ai.RoleTool, ToolCallID: "call_1", Name: "search", Content: "passages"},
		},
	})

	if len(converted.Messages) != 2 {
		testCase.Fatalf("expected 2 messages, got %d", len(converted.Messages))
	}
	if converted.Messages[0].ToolCalls[0].Type != "function" || converted.Messages[1].ToolCallID != "call_1" {
		testCase.Errorf("tool call linkage lost: %+v", converted.Messages)
	}
	if converted.Temperature != nil || converted.ToolChoice != "" {
		testCase.Errorf("expected no generation settings, got %+v", converted)
	}
}
