package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/crewgraph/providers/ai"
	"github.com/leofalp/crewgraph/providers/ai/anthropic"
	"github.com/leofalp/crewgraph/providers/ai/openai"
)

// DefaultName is the identifier used when a request names no capability or an
// unknown one.
const DefaultName = "openai"

// Provider kinds understood by Build.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ErrUnknownProvider is returned by Build for an entry whose provider kind is
// neither openai nor anthropic.
var ErrUnknownProvider = errors.New("registry: unknown provider kind")

// Config describes one named LLM.
type Config struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	BaseURLEnv  string  `yaml:"base_url_env,omitempty"`
	APIKeyEnv   string  `yaml:"api_key_env,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
}

// File is the on-disk registry layout.
type File struct {
	Default string            `yaml:"default"`
	LLMs    map[string]Config `yaml:"llms"`
}

const (
	mistralBaseURL = "https://api.mistral.ai/v1"
	groqBaseURL    = "https://api.groq.com/openai/v1"
	ollamaBaseURL  = "http://localhost:11434/v1"
)

// Defaults returns the built-in entries. OpenAI-compatible endpoints (Mistral,
// Groq, Ollama, vLLM) all go through the openai provider.
func Defaults() map[string]Config {
	mistral := func(model string) Config {
		return Config{Provider: ProviderOpenAI, Model: model, BaseURL: mistralBaseURL, APIKeyEnv: "MISTRAL_API_KEY", Temperature: 0.2}
	}
	groq := func(model string) Config {
		return Config{Provider: ProviderOpenAI, Model: model, BaseURL: groqBaseURL, APIKeyEnv: "GROQ_API_KEY", Temperature: 0.2}
	}

	return map[string]Config{
		"hosted": {
			Provider:   ProviderOpenAI,
			Model:      "cognitivecomputations/dolphin-2.9-llama3-8b",
			BaseURLEnv: "HOSTED_LLM_BASE_URL",
			APIKeyEnv:  "HOSTED_LLM_API_KEY",
		},
		"local":         {Provider: ProviderOpenAI, Model: "gemma2:2b", BaseURL: ollamaBaseURL},
		"mistral":       mistral("mistral-medium-latest"),
		"mistral-large": mistral("mistral-large-latest"),
		"mistral-8x7b":  mistral("open-mixtral-8x7b"),
		"mistral-8x22b": mistral("open-mixtral-8x22b"),
		"groq":          groq("mixtral-8x7b-32768"),
		"groq-llama":    groq("llama-3.1-70b-versatile"),
		"groq-llama3":   groq("llama3-8b-8192"),
		"openai":        {Provider: ProviderOpenAI, Model: "gpt-4", APIKeyEnv: "OPENAI_API_KEY", Temperature: 0.2},
		"claude":        {Provider: ProviderAnthropic, Model: "claude-3-5-sonnet-20240620", APIKeyEnv: "ANTHROPIC_API_KEY", Temperature: 0.2},
	}
}

// Registry resolves identifiers to configurations. It is read-only after
// construction.
type Registry struct {
	configs     map[string]Config
	defaultName string
}

// New returns a registry holding the built-in entries overlaid with overrides.
func New(overrides map[string]Config) *Registry {
	configs := Defaults()
	for name, config := range overrides {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if config.Provider == "" {
			config.Provider = ProviderOpenAI
		}
		configs[name] = config
	}
	return &Registry{configs: configs, defaultName: DefaultName}
}

// Load reads a YAML registry file on top of the built-in entries. A missing
// file yields the built-in registry.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("failed to read llm registry: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse llm registry %s: %w", path, err)
	}

	registry := New(file.LLMs)
	if file.Default != "" {
		if _, ok := registry.configs[file.Default]; !ok {
			return nil, fmt.Errorf("llm registry %s: default %q is not defined", path, file.Default)
		}
		registry.defaultName = file.Default
	}
	return registry, nil
}

// Names returns every known identifier, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default returns the identifier unknown names fall back to.
func (r *Registry) Default() string {
	return r.defaultName
}

// Lookup resolves name, falling back to the default entry, and returns the
// identifier actually used.
func (r *Registry) Lookup(name string) (string, Config) {
	if config, ok := r.configs[name]; ok {
		return name, config
	}
	return r.defaultName, r.configs[r.defaultName]
}

// Build resolves name and constructs its provider. The API key and base URL
// environment variables are read at call time.
func (r *Registry) Build(name string) (ai.Provider, Config, error) {
	resolved, config := r.Lookup(name)

	var provider ai.Provider
	switch strings.ToLower(config.Provider) {
	case ProviderOpenAI, "":
		provider = openai.New()
	case ProviderAnthropic:
		provider = anthropic.New()
	default:
		return nil, config, fmt.Errorf("%w %q for %q", ErrUnknownProvider, config.Provider, resolved)
	}

	if baseURL := baseURLFor(config); baseURL != "" {
		provider = provider.WithBaseURL(baseURL)
	}
	if config.APIKeyEnv != "" {
		if apiKey := os.Getenv(config.APIKeyEnv); apiKey != "" {
			provider = provider.WithAPIKey(apiKey)
		}
	}
	return provider, config, nil
}

func baseURLFor(config Config) string {
	if config.BaseURLEnv != "" {
		if fromEnv := os.Getenv(config.BaseURLEnv); fromEnv != "" {
			return fromEnv
		}
	}
	return config.BaseURL
}

// LoadEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped; with no
// arguments ".env" in the working directory is tried.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}
