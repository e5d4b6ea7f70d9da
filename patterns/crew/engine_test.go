package crew

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEngine_Run(testCase *testing.T) {
	capability := &recordingCapability{}
	var resolved string
	resolver := CapabilityResolverFunc(func(identifier string) (Capability, error) {
		resolved = identifier
		return capability, nil
	})

	response, err := NewEngine(resolver).Run(context.Background(), RunRequest{Graph: *chainGraph()})
	if err != nil {
		testCase.Fatalf("Run() error = %v", err)
	}

	if resolved != DefaultCapability {
		testCase.Errorf("resolved %q, want %q", resolved, DefaultCapability)
	}
	if response.Status != StatusSuccess || response.BranchesCount != 1 {
		testCase.Errorf("unexpected response: %+v", response)
	}
	if response.Message != response.Result.Message() || !strings.Contains(response.Message, "## Alpha") {
		testCase.Errorf("unexpected message: %q", response.Message)
	}
	if len(response.Warnings) != 0 {
		testCase.Errorf("unexpected warnings: %v", response.Warnings)
	}
}

func TestEngine_MissingFileIsAWarning(testCase *testing.T) {
	graph := chainGraph()
	graph.Nodes = append(graph.Nodes, Node{Key: "C", Role: "Gamma", File: "missing.pdf"})
	graph.Links = append(graph.Links, Edge{From: "C", To: "B", Description: "read"})
	capability := &recordingCapability{}

	response, err := NewEngine(StaticResolver(capability), WithDocumentFolder(testCase.TempDir())).
		Run(context.Background(), RunRequest{Graph: *graph})
	if err != nil {
		testCase.Fatalf("Run() error = %v", err)
	}

	if response.Status != StatusSuccess {
		testCase.Fatalf("expected success, got %+v", response)
	}
	if len(response.Result.Blocks) != 2 {
		testCase.Errorf("expected every edge to run, got %d blocks", len(response.Result.Blocks))
	}
	if len(response.Warnings) != 1 || !strings.Contains(response.Warnings[0], "missing.pdf") {
		testCase.Errorf("expected one binding warning, got %v", response.Warnings)
	}
	var bindingErr *ToolBindingError
	if len(response.Result.Warnings) != 1 || !errors.As(response.Result.Warnings[0], &bindingErr) || bindingErr.NodeKey != "C" {
		testCase.Errorf("expected a *ToolBindingError for C, got %v", response.Result.Warnings)
	}
}

func TestEngine_BindsDocumentAndSummary(testCase *testing.T) {
	dir := testCase.TempDir()
	writeDocument(testCase, dir, "brief.txt", "The campaign targets students.")
	graph := chainGraph()
	graph.Nodes[0].File = "brief.txt"
	capability := &recordingCapability{respond: summaryAnswers}

	response, err := NewEngine(StaticResolver(capability), WithDocumentFolder(dir)).
		Run(context.Background(), RunRequest{Graph: *graph})
	if err != nil {
		testCase.Fatalf("Run() error = %v", err)
	}
	if len(response.Warnings) != 0 {
		testCase.Fatalf("unexpected warnings: %v", response.Warnings)
	}

	invocations := capability.recorded()
	task := invocations[len(invocations)-1]
	if !strings.Contains(task.Context, "Context from file brief.txt:\n# Quarterly Report") {
		testCase.Errorf("task context missing the summary: %q", task.Context)
	}
	if task.Tool == nil {
		testCase.Error("expected the document search tool on the task")
	}
}

func TestEngine_FollowUpReachesRoots(testCase *testing.T) {
	capability := &recordingCapability{}

	_, err := NewEngine(StaticResolver(capability)).Run(context.Background(), RunRequest{
		Graph:    *chainGraph(),
		FollowUp: "Make it shorter.",
	})
	if err != nil {
		testCase.Fatalf("Run() error = %v", err)
	}

	task := capability.recorded()[0]
	if task.Context != "Alpha backstory\n\nFollow-up request:\nMake it shorter." {
		testCase.Errorf("root context = %q", task.Context)
	}
}

func TestEngine_CycleIsAnErrorResponse(testCase *testing.T) {
	graph := chainGraph()
	graph.Links = append(graph.Links, Edge{From: "B", To: "A"})
	capability := &recordingCapability{}

	response, err := NewEngine(StaticResolver(capability)).Run(context.Background(), RunRequest{Graph: *graph})

	if !errors.Is(err, ErrCyclicGraph) {
		testCase.Fatalf("expected ErrCyclicGraph, got %v", err)
	}
	if response.Status != StatusError || !strings.Contains(response.Message, "cycle") {
		testCase.Errorf("unexpected response: %+v", response)
	}
	if capability.calls() != 0 {
		testCase.Errorf("expected no capability calls, got %d", capability.calls())
	}
}

func TestEngine_UnknownCapability(testCase *testing.T) {
	resolver := CapabilityResolverFunc(func(identifier string) (Capability, error) {
		return nil, errors.New("no such llm")
	})

	response, err := NewEngine(resolver).Run(context.Background(), RunRequest{Graph: *chainGraph(), Capability: "imaginary"})
	if err == nil || !strings.Contains(err.Error(), "imaginary") {
		testCase.Fatalf("expected a resolution error, got %v", err)
	}
	if response.Status != StatusError {
		testCase.Errorf("unexpected response: %+v", response)
	}
}

func TestEngine_DeadlineKeepsPartialResult(testCase *testing.T) {
	graph := &Graph{
		Nodes: []Node{{Key: "a", Role: "A"}, {Key: "b", Role: "B"}, {Key: "c", Role: "C"}},
		Links: []Edge{{From: "a", To: "b"}, {From: "b", To: "c"}},
	}
	capability := &recordingCapability{respond: func(ctx context.Context, invocation *Invocation) (string, error) {
		if invocation.Role == "B" {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "done", nil
	}}

	response, err := NewEngine(StaticResolver(capability),
		WithExecutorOptions(WithExecutionTimeout(50*time.Millisecond)),
	).Run(context.Background(), RunRequest{Graph: *graph})

	if !errors.Is(err, ErrRunDeadline) {
		testCase.Fatalf("expected ErrRunDeadline, got %v", err)
	}
	if response.Status != StatusSuccess || !strings.Contains(response.Message, "## A") {
		testCase.Errorf("expected the partial result, got %+v", response)
	}
}

func TestEngine_ConcurrentRunsSummarizeOnce(testCase *testing.T) {
	dir := testCase.TempDir()
	writeDocument(testCase, dir, "brief.txt", "The campaign targets students.")

	var titleCalls int
	var titleMu sync.Mutex
	capability := &recordingCapability{respond: func(ctx context.Context, invocation *Invocation) (string, error) {
		if invocation.Role == summaryStages[0].role {
			titleMu.Lock()
			titleCalls++
			titleMu.Unlock()
			time.Sleep(30 * time.Millisecond)
		}
		return summaryAnswers(ctx, invocation)
	}}
	engine := NewEngine(StaticResolver(capability), WithDocumentFolder(dir))

	const runs = 2
	responses := make([]*RunResponse, runs)
	errs := make([]error, runs)
	var wg sync.WaitGroup
	for index := range runs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			graph := chainGraph()
			graph.Nodes[0].File = "brief.txt"
			responses[index], errs[index] = engine.Run(context.Background(), RunRequest{Graph: *graph})
		}()
	}
	wg.Wait()

	for index := range runs {
		if errs[index] != nil {
			testCase.Fatalf("run %d: Run() error = %v", index, errs[index])
		}
		if len(responses[index].Warnings) != 0 {
			testCase.Errorf("run %d: unexpected warnings: %v", index, responses[index].Warnings)
		}
	}
	if titleCalls != 1 {
		testCase.Errorf("expected the document to be summarized once, title stage ran %d times", titleCalls)
	}

	tasks := 0
	for _, invocation := range capability.recorded() {
		if invocation.Role != "Alpha" {
			continue
		}
		tasks++
		if !strings.Contains(invocation.Context, "Context from file brief.txt:\n# Quarterly Report") {
			testCase.Errorf("task context missing the shared summary: %q", invocation.Context)
		}
	}
	if tasks != runs {
		testCase.Errorf("expected %d Alpha tasks, got %d", runs, tasks)
	}
}

func TestEngine_DeadlineBoundsDocumentBinding(testCase *testing.T) {
	dir := testCase.TempDir()
	writeDocument(testCase, dir, "brief.txt", "The campaign targets students.")
	graph := chainGraph()
	graph.Nodes[0].File = "brief.txt"
	capability := &recordingCapability{respond: func(ctx context.Context, invocation *Invocation) (string, error) {
		if invocation.Role == summaryStages[0].role {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return summaryAnswers(ctx, invocation)
	}}

	start := time.Now()
	response, err := NewEngine(StaticResolver(capability),
		WithDocumentFolder(dir),
		WithExecutorOptions(WithExecutionTimeout(50*time.Millisecond)),
	).Run(context.Background(), RunRequest{Graph: *graph})

	if !errors.Is(err, ErrRunDeadline) {
		testCase.Fatalf("expected ErrRunDeadline, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		testCase.Errorf("binding was not bounded by the run deadline: took %v", elapsed)
	}
	if response.Status != StatusSuccess || len(response.Result.Blocks) != 0 {
		testCase.Errorf("expected an empty partial result, got %+v", response)
	}
	if capability.calls() != 1 {
		testCase.Errorf("expected only the interrupted title stage, got %d calls", capability.calls())
	}
	var bindingErr *ToolBindingError
	if len(response.Result.Warnings) != 1 || !errors.As(response.Result.Warnings[0], &bindingErr) {
		testCase.Errorf("expected the interrupted summary as a binding warning, got %v", response.Result.Warnings)
	}
}

func TestRunRequest_DecodesDiagramJSON(testCase *testing.T) {
	data := []byte(`{
		"name": "demo",
		"llm": "mistral-large",
		"followup": "again",
		"nodes": [{"key": "a", "role": "A"}],
		"links": []
	}`)

	var request RunRequest
	if err := json.Unmarshal(data, &request); err != nil {
		testCase.Fatalf("Unmarshal() error = %v", err)
	}
	if request.Name != "demo" || request.Capability != "mistral-large" || request.FollowUp != "again" || len(request.Nodes) != 1 {
		testCase.Errorf("unexpected request: %+v", request)
	}

	encoded, _ := json.Marshal(RunResponse{Status: StatusSuccess, Message: "m", BranchesCount: 2})
	if string(encoded) != `{"status":"success","message":"m","branches_count":2}` {
		testCase.Errorf("unexpected response JSON: %s", encoded)
	}
}
