package crew

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/leofalp/crewgraph/providers/observability"
	"github.com/leofalp/crewgraph/providers/tool/document"
)

// ContextStore owns the mutable context of every agent for one run. Contexts
// start from each node's backstory and are only ever appended to. Each agent has
// its own lock, so appends to different agents never contend.
type ContextStore struct {
	agents   map[string]*agentState
	keys     []string
	registry *document.Registry
	cache    *SummaryCache
	observer observer
}

type agentState struct {
	mu         sync.Mutex
	node       Node
	context    string
	capability document.SearchTool
}

// NewContextStore builds a store for graph. It fails with *DuplicateKeyError
// when two nodes share a key.
func NewContextStore(graph *Graph, opts ...StoreOption) (*ContextStore, error) {
	config := storeConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	if config.registry == nil {
		config.registry = document.NewRegistry(nil)
	}

	store := &ContextStore{
		agents:   make(map[string]*agentState, len(graph.Nodes)),
		keys:     make([]string, 0, len(graph.Nodes)),
		registry: config.registry,
		cache:    config.summaries,
		observer: observer{provider: config.observer},
	}
	for _, node := range graph.Nodes {
		if node.Key == "" {
			return nil, &DuplicateKeyError{}
		}
		if _, exists := store.agents[node.Key]; exists {
			return nil, &DuplicateKeyError{Key: node.Key}
		}
		store.agents[node.Key] = &agentState{node: node, context: node.Backstory}
		store.keys = append(store.keys, node.Key)
	}
	return store, nil
}

// Keys returns the agent keys in declaration order.
func (s *ContextStore) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Node returns the node definition for key.
func (s *ContextStore) Node(key string) (Node, bool) {
	agent, ok := s.agents[key]
	if !ok {
		return Node{}, false
	}
	return agent.node, true
}

// Get returns a snapshot of the agent's current context.
func (s *ContextStore) Get(key string) (string, error) {
	agent, err := s.agent(key)
	if err != nil {
		return "", err
	}
	agent.mu.Lock()
	defer agent.mu.Unlock()
	return agent.context, nil
}

// Append adds text to the agent's context, separated from what is already there
// by a blank line.
func (s *ContextStore) Append(key, text string) error {
	agent, err := s.agent(key)
	if err != nil {
		return err
	}
	agent.mu.Lock()
	defer agent.mu.Unlock()
	if agent.context == "" {
		agent.context = text
	} else {
		agent.context += "\n\n" + text
	}
	return nil
}

// Capability returns the document search bound to the agent, nil when none.
func (s *ContextStore) Capability(key string) document.SearchTool {
	agent, ok := s.agents[key]
	if !ok {
		return nil
	}
	agent.mu.Lock()
	defer agent.mu.Unlock()
	return agent.capability
}

// BindCapability binds the document at path to the agent as a search
// capability and, when a summary cache is configured, appends the document
// summary under "Context from file <name>:".
//
// Every failure is a *ToolBindingError the caller may treat as a warning: a
// missing file or an unsupported extension leaves the agent without a
// capability; a failed summary (ErrSummaryUnavailable) keeps the binding.
func (s *ContextStore) BindCapability(ctx context.Context, key, path string) error {
	agent, err := s.agent(key)
	if err != nil {
		return err
	}

	search, err := s.registry.New(path)
	if err != nil {
		return s.bindingFailed(ctx, key, path, err)
	}

	agent.mu.Lock()
	agent.capability = search
	agent.mu.Unlock()

	if s.cache == nil {
		return nil
	}

	summary, err := s.cache.Summarize(ctx, path)
	if err != nil {
		return s.bindingFailed(ctx, key, path, fmt.Errorf("%w: %w", ErrSummaryUnavailable, err))
	}
	return s.Append(key, fmt.Sprintf("Context from file %s:\n%s", filepath.Base(path), strings.TrimSpace(summary)))
}

func (s *ContextStore) bindingFailed(ctx context.Context, key, path string, err error) error {
	bindingErr := &ToolBindingError{NodeKey: key, Path: path, Err: err}
	s.observer.warn(ctx, "document binding failed",
		observability.String(observability.AttrNodeKey, key),
		observability.String(observability.AttrDocumentPath, path),
		observability.Error(err),
	)
	return bindingErr
}

func (s *ContextStore) agent(key string) (*agentState, error) {
	agent, ok := s.agents[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, key)
	}
	return agent, nil
}
