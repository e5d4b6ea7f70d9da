// Package client sits between raw LLM provider calls and the crew engine. A
// [Client] owns a provider, a system prompt, a generation configuration, a
// tool catalog and a middleware chain, and resolves tool calls until the model
// produces a final answer.
//
// Clients are immutable after [New] and safe for concurrent use: every
// [Client.SendMessage] builds its own conversation, so one client can serve all
// tasks of a run in parallel.
package client
