package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leofalp/crewgraph/providers/observability"
)

// ResultBlock is the outcome of one successful task.
type ResultBlock struct {
	EdgeID string `json:"edge_id,omitempty"`
	From   string `json:"from"`
	To     string `json:"to"`
	Agent  string `json:"agent"`
	Task   string `json:"task"`
	Output string `json:"output"`
}

// String renders the block as a Markdown section.
func (b ResultBlock) String() string {
	return fmt.Sprintf("\n\n***\n\n## %s\n\n### %s\n\n%s\n\n", b.Agent, b.Task, b.Output)
}

// ExecutionResult is the outcome of a run. Blocks are in sequential order: by
// the source node's topological position, then by declared edge order,
// whatever order the tasks actually finished in.
type ExecutionResult struct {
	RunID     string
	Blocks    []ResultBlock
	RootCount int
	Failures  []*CapabilityInvocationError
	Warnings  []error
	Duration  time.Duration
}

// Message concatenates the result blocks.
func (r *ExecutionResult) Message() string {
	rendered := make([]string, len(r.Blocks))
	for index, block := range r.Blocks {
		rendered[index] = block.String()
	}
	return strings.Join(rendered, "\n")
}

// ProgressEventType identifies a task lifecycle event.
type ProgressEventType string

const (
	EdgeStarted   ProgressEventType = "edge_started"
	EdgeCompleted ProgressEventType = "edge_completed"
	EdgeFailed    ProgressEventType = "edge_failed"
)

// ProgressEvent reports the lifecycle of one task.
type ProgressEvent struct {
	Type     ProgressEventType
	RunID    string
	Level    int
	Edge     Edge
	Output   string
	Err      error
	Duration time.Duration
}

// ProgressFunc receives progress events.
type ProgressFunc func(event ProgressEvent)

// TaskExecutor runs the tasks of a graph.
type TaskExecutor struct {
	capability Capability
	config     executorConfig
}

// NewTaskExecutor creates an executor performing tasks with capability.
//
// Example:
//
//	executor := crew.NewTaskExecutor(capability,
//	    crew.WithMaxConcurrency(4),
//	    crew.WithTaskTimeout(2*time.Minute),
//	    crew.WithExecutionTimeout(15*time.Minute),
//	)
func NewTaskExecutor(capability Capability, opts ...ExecutorOption) *TaskExecutor {
	config := executorConfig{maxConcurrency: DefaultMaxConcurrency}
	for _, opt := range opts {
		opt(&config)
	}
	if config.maxConcurrency < 1 {
		config.maxConcurrency = DefaultMaxConcurrency
	}
	return &TaskExecutor{capability: capability, config: config}
}

// edgeTask is one scheduled edge and, once run, its outcome.
type edgeTask struct {
	edge   Edge
	source Node
	output string
	err    error
}

// Run executes every task of graph against store.
//
// Structural problems (cycles, dangling references, duplicate keys) are
// returned before any task runs, with a nil result. Tasks run level by level;
// the edges leaving one level run concurrently, bounded by WithMaxConcurrency.
// A failed task is recorded in Failures and leaves its target untouched. After
// a level completes, each successful task appends "Result from <role>: <output>"
// to its target's context in sequential order, so the next level sees it.
//
// When the run deadline expires or ctx is cancelled, Run stops scheduling and
// returns the partial result with an error wrapping ErrRunDeadline.
func (e *TaskExecutor) Run(ctx context.Context, graph *Graph, store *ContextStore) (*ExecutionResult, error) {
	runStart := time.Now()

	levels, err := Levels(graph)
	if err != nil {
		return nil, err
	}

	result := &ExecutionResult{
		RunID:     uuid.NewString(),
		Blocks:    make([]ResultBlock, 0, len(graph.Links)),
		RootCount: len(Roots(graph)),
	}

	obs := resolveObserver(ctx, e.config.observer)
	ctx, span := obs.startSpan(ctx, observability.SpanCrewRun,
		observability.String(observability.AttrRunID, result.RunID),
		observability.String(observability.AttrGraphName, graph.Name),
		observability.Int(observability.AttrGraphNodes, len(graph.Nodes)),
		observability.Int(observability.AttrGraphEdges, len(graph.Links)),
		observability.Int(observability.AttrGraphLevels, len(levels)),
	)
	obs.info(ctx, "run started",
		observability.String(observability.AttrRunID, result.RunID),
		observability.String(observability.AttrGraphName, graph.Name),
		observability.Int(observability.AttrGraphEdges, len(graph.Links)),
	)

	if e.config.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.executionTimeout)
		defer cancel()
	}

	run := &levelRun{executor: e, result: result, observer: obs, store: store}
	outgoing := graph.outgoing()

	var runErr error
	for levelIndex, level := range levels {
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = fmt.Errorf("%w before level %d: %w", ErrRunDeadline, levelIndex, ctxErr)
			break
		}

		tasks := make([]*edgeTask, 0)
		for _, key := range level {
			source, _ := store.Node(key)
			for _, edgeIndex := range outgoing[key] {
				tasks = append(tasks, &edgeTask{edge: graph.Links[edgeIndex], source: source})
			}
		}
		if len(tasks) == 0 {
			continue
		}

		run.execute(ctx, levelIndex, tasks)
		if err := run.collect(tasks); err != nil {
			runErr = err
			break
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = fmt.Errorf("%w during level %d: %w", ErrRunDeadline, levelIndex, ctxErr)
			break
		}
	}

	result.Duration = time.Since(runStart)
	obs.record(ctx, observability.MetricRunDuration, result.Duration.Seconds())
	span.SetAttributes(
		observability.Int("crew.run.blocks", len(result.Blocks)),
		observability.Int("crew.run.failures", len(result.Failures)),
	)
	endSpan(span, runErr, "run stopped")

	if runErr != nil {
		obs.error(ctx, "run stopped before completion",
			observability.String(observability.AttrRunID, result.RunID),
			observability.Int("crew.run.blocks", len(result.Blocks)),
			observability.Error(runErr),
		)
		return result, runErr
	}

	obs.info(ctx, "run completed",
		observability.String(observability.AttrRunID, result.RunID),
		observability.Int("crew.run.blocks", len(result.Blocks)),
		observability.Int("crew.run.failures", len(result.Failures)),
		observability.Duration(observability.AttrDuration, result.Duration),
	)
	return result, nil
}

// levelRun carries the per-run state shared by the levels.
type levelRun struct {
	executor *TaskExecutor
	result   *ExecutionResult
	observer observer
	store    *ContextStore

	progressMu sync.Mutex
}

// execute runs the tasks of one level on a bounded pool. Task errors are kept on
// the task; they never cancel siblings.
func (r *levelRun) execute(ctx context.Context, levelIndex int, tasks []*edgeTask) {
	r.observer.debug(ctx, "level started",
		observability.Int("crew.level", levelIndex),
		observability.Int("crew.level.tasks", len(tasks)),
	)

	var group errgroup.Group
	group.SetLimit(r.executor.config.maxConcurrency)
	for _, task := range tasks {
		group.Go(func() error {
			r.runTask(ctx, levelIndex, task)
			return nil
		})
	}
	_ = group.Wait()
}

// collect applies the outcomes of a level in sequential order.
func (r *levelRun) collect(tasks []*edgeTask) error {
	for _, task := range tasks {
		if task.err != nil {
			r.result.Failures = append(r.result.Failures, &CapabilityInvocationError{
				EdgeID: task.edge.Label(),
				From:   task.edge.From,
				To:     task.edge.To,
				Err:    task.err,
			})
			continue
		}

		agent := task.source.Identity()
		r.result.Blocks = append(r.result.Blocks, ResultBlock{
			EdgeID: task.edge.ID,
			From:   task.edge.From,
			To:     task.edge.To,
			Agent:  agent,
			Task:   task.edge.TaskDescription(),
			Output: task.output,
		})
		if err := r.store.Append(task.edge.To, fmt.Sprintf("Result from %s: %s", agent, task.output)); err != nil {
			return err
		}
	}
	return nil
}

func (r *levelRun) runTask(ctx context.Context, levelIndex int, task *edgeTask) {
	edge := task.edge
	ctx, span := r.observer.startSpan(ctx, observability.SpanCrewTask,
		observability.String(observability.AttrRunID, r.result.RunID),
		observability.String(observability.AttrEdgeID, edge.Label()),
		observability.String(observability.AttrEdgeFrom, edge.From),
		observability.String(observability.AttrEdgeTo, edge.To),
		observability.String(observability.AttrNodeRole, task.source.Identity()),
	)
	r.progress(ProgressEvent{Type: EdgeStarted, RunID: r.result.RunID, Level: levelIndex, Edge: edge})

	start := time.Now()
	task.output, task.err = r.perform(ctx, task)
	elapsed := time.Since(start)

	status := "success"
	if task.err != nil {
		status = "error"
		r.observer.warn(ctx, "task failed",
			observability.String(observability.AttrEdgeID, edge.Label()),
			observability.String(observability.AttrEdgeFrom, edge.From),
			observability.String(observability.AttrEdgeTo, edge.To),
			observability.Error(task.err),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		r.progress(ProgressEvent{Type: EdgeFailed, RunID: r.result.RunID, Level: levelIndex, Edge: edge, Err: task.err, Duration: elapsed})
	} else {
		r.observer.debug(ctx, "task completed",
			observability.String(observability.AttrEdgeID, edge.Label()),
			observability.String("crew.task.output", observability.TruncateString(task.output, 100)),
			observability.Duration(observability.AttrDuration, elapsed),
		)
		r.progress(ProgressEvent{Type: EdgeCompleted, RunID: r.result.RunID, Level: levelIndex, Edge: edge, Output: task.output, Duration: elapsed})
	}

	r.observer.count(ctx, observability.MetricTaskCount, observability.String(observability.AttrStatus, status))
	r.observer.record(ctx, observability.MetricTaskDuration, elapsed.Seconds(), observability.String(observability.AttrStatus, status))
	endSpan(span, task.err, "task failed")
}

// perform builds the invocation from the source agent's current context and
// calls the capability under the task timeout.
func (r *levelRun) perform(ctx context.Context, task *edgeTask) (string, error) {
	frame, err := r.store.Get(task.edge.From)
	if err != nil {
		return "", err
	}

	if timeout := r.executor.config.taskTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	output, err := r.executor.capability.Perform(ctx, &Invocation{
		Role:           task.source.Identity(),
		Goal:           task.source.Goal,
		Context:        frame,
		Description:    task.edge.TaskDescription(),
		ExpectedOutput: task.edge.ExpectedOutput,
		Tool:           r.store.Capability(task.edge.From),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return "", fmt.Errorf("task timed out: %w", err)
		}
		return "", err
	}
	return output, nil
}

func (r *levelRun) progress(event ProgressEvent) {
	if r.executor.config.progress == nil {
		return
	}
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.executor.config.progress(event)
}
