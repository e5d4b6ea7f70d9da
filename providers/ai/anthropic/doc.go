// Package anthropic implements [ai.Provider] for Anthropic's Messages API,
// with text and tool use. [New] reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment.
package anthropic
