package crew

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/leofalp/crewgraph/internal/utils"
	"github.com/leofalp/crewgraph/providers/observability"
)

// DefaultCapability is the capability identifier used when a request names none.
const DefaultCapability = "openai"

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RunRequest is a diagram plus the run parameters. It decodes from the diagram
// JSON itself, with the optional "llm" and "followup" fields alongside nodes and
// links.
type RunRequest struct {
	Graph

	// Capability selects the generative service, DefaultCapability when empty.
	Capability string `json:"llm,omitempty"`

	// FollowUp is appended to the context of every root agent.
	FollowUp string `json:"followup,omitempty"`
}

// RunResponse is the outcome of Engine.Run.
type RunResponse struct {
	Status        string   `json:"status"`
	Message       string   `json:"message"`
	BranchesCount int      `json:"branches_count,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`

	Result *ExecutionResult `json:"-"`
}

// Engine executes diagrams end to end: it resolves the capability, binds node
// documents, runs the tasks and shapes the response.
type Engine struct {
	resolver CapabilityResolver
	config   engineConfig

	// summaryLocks outlive a single run: concurrent runs binding the same
	// document wait for one another instead of summarizing it twice.
	summaryLocks *utils.KeyedMutex
}

// NewEngine creates an engine resolving capabilities with resolver.
//
// Example:
//
//	engine := crew.NewEngine(resolver,
//	    crew.WithDocumentFolder("./documents"),
//	    crew.WithExecutorOptions(crew.WithMaxConcurrency(4)),
//	    crew.WithObserver(slogobs.New()),
//	)
//	response, err := engine.Run(ctx, request)
func NewEngine(resolver CapabilityResolver, opts ...EngineOption) *Engine {
	config := engineConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return &Engine{resolver: resolver, config: config, summaryLocks: &utils.KeyedMutex{}}
}

// Run executes request.
//
// A graph that cannot be executed (cycle, dangling reference, duplicate key,
// no nodes) or a capability that cannot be resolved yields a StatusError
// response together with the error; no task runs. Document binding problems
// and failed tasks do not fail the run: they are reported in Warnings. When the
// run deadline expires the response carries the partial result with
// StatusSuccess, and the returned error wraps ErrRunDeadline. The deadline
// (WithExecutionTimeout) starts before documents are bound, so slow summaries
// count against it.
func (e *Engine) Run(ctx context.Context, request RunRequest) (*RunResponse, error) {
	obs := resolveObserver(ctx, e.config.observer)

	identifier := request.Capability
	if identifier == "" {
		identifier = DefaultCapability
	}
	capability, err := e.resolver.Resolve(identifier)
	if err != nil {
		err = fmt.Errorf("resolving capability %q: %w", identifier, err)
		return errorResponse(err), err
	}

	graph := &request.Graph
	if _, err := Levels(graph); err != nil {
		obs.warn(ctx, "diagram rejected",
			observability.String(observability.AttrGraphName, graph.Name),
			observability.Error(err),
		)
		return errorResponse(err), err
	}

	obs.info(ctx, "executing diagram",
		observability.String(observability.AttrGraphName, graph.Name),
		observability.String(observability.AttrCapability, identifier),
	)

	executorOptions := append([]ExecutorOption{WithExecutorObserver(e.config.observer)}, e.config.executorOptions...)
	if timeout := executionTimeout(executorOptions); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	summaryOptions := append([]SummaryOption{
		WithSummaryObserver(e.config.observer),
		withSummaryLocks(e.summaryLocks),
	}, e.config.summaryOptions...)
	storeOptions := []StoreOption{
		WithSummaryCache(NewSummaryCache(capability, summaryOptions...)),
		WithStoreObserver(obs.provider),
	}
	if e.config.registry != nil {
		storeOptions = append(storeOptions, WithDocumentRegistry(e.config.registry))
	}
	store, err := NewContextStore(graph, storeOptions...)
	if err != nil {
		return errorResponse(err), err
	}

	var warnings []error
	for _, node := range graph.Nodes {
		if strings.TrimSpace(node.File) == "" {
			continue
		}
		if err := store.BindCapability(ctx, node.Key, e.documentPath(node.File)); err != nil {
			warnings = append(warnings, err)
		}
	}

	if followUp := strings.TrimSpace(request.FollowUp); followUp != "" {
		for _, key := range Roots(graph) {
			if err := store.Append(key, "Follow-up request:\n"+followUp); err != nil {
				return errorResponse(err), err
			}
		}
	}

	result, runErr := NewTaskExecutor(capability, executorOptions...).Run(ctx, graph, store)
	if result == nil {
		return errorResponse(runErr), runErr
	}

	result.Warnings = append(warnings, result.Warnings...)
	response := &RunResponse{
		Status:        StatusSuccess,
		Message:       result.Message(),
		BranchesCount: result.RootCount,
		Result:        result,
	}
	for _, warning := range result.Warnings {
		response.Warnings = append(response.Warnings, warning.Error())
	}
	for _, failure := range result.Failures {
		response.Warnings = append(response.Warnings, failure.Error())
	}
	if runErr != nil {
		response.Warnings = append(response.Warnings, runErr.Error())
		if !errors.Is(runErr, ErrRunDeadline) {
			response.Status = StatusError
			response.Message = runErr.Error()
		}
	}
	return response, runErr
}

func (e *Engine) documentPath(file string) string {
	if filepath.IsAbs(file) || e.config.folder == "" {
		return file
	}
	return filepath.Join(e.config.folder, file)
}

// executionTimeout returns the run deadline the options configure.
func executionTimeout(opts []ExecutorOption) time.Duration {
	var config executorConfig
	for _, opt := range opts {
		opt(&config)
	}
	return config.executionTimeout
}

func errorResponse(err error) *RunResponse {
	return &RunResponse{Status: StatusError, Message: err.Error()}
}
