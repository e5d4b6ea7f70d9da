// Package ai defines the provider-agnostic chat types and the [Provider]
// interface that every LLM backend implements (OpenAI-compatible endpoints,
// Anthropic). Requests flow through [ChatRequest]; responses come back as
// [ChatResponse], possibly carrying [ToolCall]s the client must resolve.
package ai
