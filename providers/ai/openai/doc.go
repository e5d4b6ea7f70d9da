// Package openai implements [ai.Provider] for OpenAI-compatible
// /v1/chat/completions endpoints. The same wire format serves OpenAI itself and
// the compatible hosts the capability registry points at (Mistral, Groq,
// Ollama, vLLM).
//
// [New] reads OPENAI_API_KEY and OPENAI_API_BASE_URL from the environment; use
// [OpenAIProvider.WithAPIKey] and [OpenAIProvider.WithBaseURL] to override them.
package openai
