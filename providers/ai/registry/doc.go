// Package registry maps capability identifiers such as "openai", "mistral-large"
// or "local" to LLM provider configurations.
//
// A built-in set of entries is always available; a YAML file can add entries or
// override them:
//
//	default: openai
//	llms:
//	  local:
//	    provider: openai
//	    model: gemma2:2b
//	    base_url: http://localhost:11434/v1
//	  internal:
//	    provider: openai
//	    model: llama-3.1-8b
//	    base_url_env: INTERNAL_LLM_URL
//	    api_key_env: INTERNAL_LLM_KEY
//	    temperature: 0.2
//
// Unknown or empty identifiers resolve to the default entry. API keys are only
// ever read from the environment, optionally seeded from a .env file with
// [LoadEnv].
package registry
