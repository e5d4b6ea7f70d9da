package crew

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leofalp/crewgraph/providers/observability"
)

// --- Mock Types ---

// recordingCapability records every invocation and answers with respond, or
// with "<role> did: <description>" when respond is nil.
type recordingCapability struct {
	mu          sync.Mutex
	invocations []Invocation
	respond     func(ctx context.Context, invocation *Invocation) (string, error)
}

var _ Capability = (*recordingCapability)(nil)

func (capability *recordingCapability) Perform(ctx context.Context, invocation *Invocation) (string, error) {
	capability.mu.Lock()
	capability.invocations = append(capability.invocations, *invocation)
	capability.mu.Unlock()

	if capability.respond != nil {
		return capability.respond(ctx, invocation)
	}
	return fmt.Sprintf("%s did: %s", invocation.Role, invocation.Description), nil
}

func (capability *recordingCapability) calls() int {
	capability.mu.Lock()
	defer capability.mu.Unlock()
	return len(capability.invocations)
}

func (capability *recordingCapability) recorded() []Invocation {
	capability.mu.Lock()
	defer capability.mu.Unlock()
	return append([]Invocation(nil), capability.invocations...)
}

// summaryAnswers answers the three summary stages by role and every other
// invocation with the default answer.
func summaryAnswers(_ context.Context, invocation *Invocation) (string, error) {
	switch invocation.Role {
	case summaryStages[0].role:
		return "Quarterly Report", nil
	case summaryStages[1].role:
		return "Written by finance for the board.", nil
	case summaryStages[2].role:
		return "Revenue grew 12% over the quarter.", nil
	default:
		return fmt.Sprintf("%s did: %s", invocation.Role, invocation.Description), nil
	}
}

// testObserver implements observability.Provider for verifying observe calls.
type testObserver struct {
	mu      sync.Mutex
	spans   []string
	logs    []string
	metrics map[string]float64
}

var _ observability.Provider = (*testObserver)(nil)

func newTestObserver() *testObserver {
	return &testObserver{
		spans:   make([]string, 0),
		logs:    make([]string, 0),
		metrics: make(map[string]float64),
	}
}

func (observer *testObserver) StartSpan(ctx context.Context, name string, _ ...observability.Attribute) (context.Context, observability.Span) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.spans = append(observer.spans, name)
	return ctx, &testSpan{}
}

func (observer *testObserver) log(msg string) {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	observer.logs = append(observer.logs, msg)
}

func (observer *testObserver) Trace(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Debug(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Info(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Warn(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Error(_ context.Context, msg string, _ ...observability.Attribute) {
	observer.log(msg)
}

func (observer *testObserver) Counter(name string) observability.Counter {
	return &testCounter{name: name, observer: observer}
}

func (observer *testObserver) Histogram(name string) observability.Histogram {
	return &testHistogram{name: name, observer: observer}
}

func (observer *testObserver) spanCount(name string) int {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	count := 0
	for _, span := range observer.spans {
		if span == name {
			count++
		}
	}
	return count
}

func (observer *testObserver) metric(name string) float64 {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	return observer.metrics[name]
}

func (observer *testObserver) logged(msg string) bool {
	observer.mu.Lock()
	defer observer.mu.Unlock()
	for _, logged := range observer.logs {
		if logged == msg {
			return true
		}
	}
	return false
}

type testSpan struct{}

func (span *testSpan) End()                                            {}
func (span *testSpan) SetAttributes(_ ...observability.Attribute)      {}
func (span *testSpan) SetStatus(_ observability.StatusCode, _ string)  {}
func (span *testSpan) RecordError(_ error)                             {}
func (span *testSpan) AddEvent(_ string, _ ...observability.Attribute) {}

type testCounter struct {
	name     string
	observer *testObserver
}

func (counter *testCounter) Add(_ context.Context, value int64, _ ...observability.Attribute) {
	counter.observer.mu.Lock()
	defer counter.observer.mu.Unlock()
	counter.observer.metrics[counter.name] += float64(value)
}

type testHistogram struct {
	name     string
	observer *testObserver
}

func (histogram *testHistogram) Record(_ context.Context, value float64, _ ...observability.Attribute) {
	histogram.observer.mu.Lock()
	defer histogram.observer.mu.Unlock()
	histogram.observer.metrics[histogram.name] = value
}

// --- Helpers ---

// chainGraph returns A -> B, the smallest executable diagram.
func chainGraph() *Graph {
	return &Graph{
		Name: "chain",
		Nodes: []Node{
			{Key: "A", Role: "Alpha", Goal: "write", Backstory: "Alpha backstory"},
			{Key: "B", Role: "Beta", Goal: "review", Backstory: "Beta backstory"},
		},
		Links: []Edge{
			{ID: "ab", From: "A", To: "B", Description: "draft the text", ExpectedOutput: "a draft"},
		},
	}
}

func newStore(testingHelper *testing.T, graph *Graph, opts ...StoreOption) *ContextStore {
	testingHelper.Helper()
	store, err := NewContextStore(graph, opts...)
	if err != nil {
		testingHelper.Fatalf("NewContextStore() error = %v", err)
	}
	return store
}

func writeDocument(testingHelper *testing.T, dir, name, content string) string {
	testingHelper.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		testingHelper.Fatalf("writing %s: %v", name, err)
	}
	return path
}
