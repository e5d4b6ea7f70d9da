package crew

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	extract "github.com/leofalp/crewgraph/internal/document"
	"github.com/leofalp/crewgraph/providers/locker"
	"github.com/leofalp/crewgraph/providers/observability"
)

// countingLocker records the keys it is asked to lock.
type countingLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
}

func (distributed *countingLocker) Lock(_ context.Context, key string, _ time.Duration) (locker.UnlockFunc, error) {
	distributed.mu.Lock()
	defer distributed.mu.Unlock()
	distributed.keys = append(distributed.keys, key)
	return func(context.Context) error {
		distributed.mu.Lock()
		defer distributed.mu.Unlock()
		distributed.released++
		return nil
	}, nil
}

func chunkExtractor(count int) extract.Extractor {
	return extract.ExtractorFunc(func(string) ([]string, error) {
		chunks := make([]string, count)
		for index := range chunks {
			chunks[index] = fmt.Sprintf("chunk-%d", index)
		}
		return chunks, nil
	})
}

func TestSummarize_GeneratesAndCaches(testCase *testing.T) {
	path := writeDocument(testCase, testCase.TempDir(), "report.txt", "Revenue grew during the quarter.")
	capability := &recordingCapability{respond: summaryAnswers}
	cache := NewSummaryCache(capability)

	first, err := cache.Summarize(context.Background(), path)
	if err != nil {
		testCase.Fatalf("Summarize() error = %v", err)
	}
	expected := "# Quarterly Report\n\n## Authorship and audience\n\nWritten by finance for the board.\n\n## Subject and purpose\n\nRevenue grew 12% over the quarter.\n"
	if first != expected {
		testCase.Errorf("Summarize() = %q, want %q", first, expected)
	}

	sidecar, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		testCase.Fatalf("expected a sidecar: %v", err)
	}
	if string(sidecar) != first {
		testCase.Errorf("sidecar content = %q", sidecar)
	}

	callsAfterFirst := capability.calls()
	second, err := cache.Summarize(context.Background(), path)
	if err != nil {
		testCase.Fatalf("second Summarize() error = %v", err)
	}
	if second != first {
		testCase.Errorf("second summary differs:\n%q\n%q", first, second)
	}
	if capability.calls() != callsAfterFirst {
		testCase.Errorf("second call invoked the capability %d times", capability.calls()-callsAfterFirst)
	}
}

func TestSummarize_ExistingSidecarIsVerbatim(testCase *testing.T) {
	dir := testCase.TempDir()
	path := writeDocument(testCase, dir, "report.txt", "content")
	writeDocument(testCase, dir, "report.txt.txt", "hand written summary")
	capability := &recordingCapability{respond: summaryAnswers}

	summary, err := NewSummaryCache(capability).Summarize(context.Background(), path)
	if err != nil {
		testCase.Fatalf("Summarize() error = %v", err)
	}
	if summary != "hand written summary" {
		testCase.Errorf("Summarize() = %q", summary)
	}
	if capability.calls() != 0 {
		testCase.Errorf("expected no capability calls, got %d", capability.calls())
	}
}

func TestSummarize_StagesBuildOnEachOther(testCase *testing.T) {
	path := writeDocument(testCase, testCase.TempDir(), "report.txt", "Revenue grew during the quarter.")
	capability := &recordingCapability{respond: summaryAnswers}

	if _, err := NewSummaryCache(capability).Summarize(context.Background(), path); err != nil {
		testCase.Fatalf("Summarize() error = %v", err)
	}

	invocations := capability.recorded()
	if len(invocations) != 3 {
		testCase.Fatalf("expected 3 stages, got %d", len(invocations))
	}
	if strings.Contains(invocations[0].Context, "Findings so far") {
		testCase.Error("first stage should start without findings")
	}
	if !strings.Contains(invocations[1].Context, "Findings so far:\nQuarterly Report") {
		testCase.Errorf("second stage context = %q", invocations[1].Context)
	}
	if !strings.Contains(invocations[2].Context, "Written by finance for the board.") {
		testCase.Errorf("third stage context = %q", invocations[2].Context)
	}
	for _, invocation := range invocations {
		if !strings.Contains(invocation.Description, "Revenue grew during the quarter.") {
			testCase.Errorf("stage %q did not receive the document text", invocation.Role)
		}
	}
}

func TestSummarize_ConcurrentCallersGenerateOnce(testCase *testing.T) {
	path := writeDocument(testCase, testCase.TempDir(), "report.txt", "Revenue grew during the quarter.")
	capability := &recordingCapability{respond: func(ctx context.Context, invocation *Invocation) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return summaryAnswers(ctx, invocation)
	}}
	cache := NewSummaryCache(capability)

	const callers = 8
	summaries := make([]string, callers)
	errs := make([]error, callers)
	var waitGroup sync.WaitGroup
	for index := range callers {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			summaries[index], errs[index] = cache.Summarize(context.Background(), path)
		}()
	}
	waitGroup.Wait()

	for index := range callers {
		if errs[index] != nil {
			testCase.Fatalf("caller %d error = %v", index, errs[index])
		}
		if summaries[index] != summaries[0] {
			testCase.Errorf("caller %d got a different summary", index)
		}
	}
	if capability.calls() != len(summaryStages) {
		testCase.Errorf("expected a single generation (%d calls), got %d", len(summaryStages), capability.calls())
	}
}

func TestSummarize_ChunkLimit(testCase *testing.T) {
	tests := []struct {
		name     string
		limit    int
		included int
	}{
		{"explicit limit", 2, 2},
		{"zero falls back to default", 0, DefaultChunkLimit},
		{"limit above chunk count", 20, 10},
	}

	for _, test := range tests {
		testCase.Run(test.name, func(subTest *testing.T) {
			path := writeDocument(subTest, subTest.TempDir(), "report.txt", "unused")
			capability := &recordingCapability{respond: summaryAnswers}
			cache := NewSummaryCache(capability, WithExtractor(chunkExtractor(10)), WithChunkLimit(test.limit))

			if _, err := cache.Summarize(context.Background(), path); err != nil {
				subTest.Fatalf("Summarize() error = %v", err)
			}
			lines := make(map[string]bool)
			for _, line := range strings.Split(capability.recorded()[0].Description, "\n") {
				lines[line] = true
			}
			for index := range 10 {
				contains := lines[fmt.Sprintf("chunk-%d", index)]
				if index < test.included && !contains {
					subTest.Errorf("expected chunk %d in the prompt", index)
				}
				if index >= test.included && contains {
					subTest.Errorf("chunk %d should be beyond the limit", index)
				}
			}
		})
	}
}

func TestSummarize_EmptyDocument(testCase *testing.T) {
	path := writeDocument(testCase, testCase.TempDir(), "empty.txt", "  \n\n  ")
	capability := &recordingCapability{respond: summaryAnswers}

	_, err := NewSummaryCache(capability).Summarize(context.Background(), path)
	if !errors.Is(err, ErrEmptyDocument) {
		testCase.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if capability.calls() != 0 {
		testCase.Errorf("expected no capability calls, got %d", capability.calls())
	}
	if _, statErr := os.Stat(SidecarPath(path)); !os.IsNotExist(statErr) {
		testCase.Error("no sidecar should be written for an empty document")
	}
}

func TestSummarize_StageFailureWritesNothing(testCase *testing.T) {
	path := writeDocument(testCase, testCase.TempDir(), "report.txt", "content")
	capability := &recordingCapability{respond: func(ctx context.Context, invocation *Invocation) (string, error) {
		if invocation.Role == summaryStages[1].role {
			return "", errors.New("rate limited")
		}
		return summaryAnswers(ctx, invocation)
	}}
	observer := newTestObserver()

	_, err := NewSummaryCache(capability, WithSummaryObserver(observer)).Summarize(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		testCase.Fatalf("expected the stage error, got %v", err)
	}
	if _, statErr := os.Stat(SidecarPath(path)); !os.IsNotExist(statErr) {
		testCase.Error("no sidecar should be written after a failed stage")
	}
	if observer.metric(observability.MetricSummaryCount) != 1 {
		testCase.Errorf("expected summary counter 1, got %v", observer.metric(observability.MetricSummaryCount))
	}
}

func TestSummarize_UsesDistributedLock(testCase *testing.T) {
	path := writeDocument(testCase, testCase.TempDir(), "report.txt", "content")
	distributed := &countingLocker{}
	cache := NewSummaryCache(&recordingCapability{respond: summaryAnswers}, WithLocker(distributed, 0))

	if _, err := cache.Summarize(context.Background(), path); err != nil {
		testCase.Fatalf("Summarize() error = %v", err)
	}
	if _, err := cache.Summarize(context.Background(), path); err != nil {
		testCase.Fatalf("second Summarize() error = %v", err)
	}

	if len(distributed.keys) != 1 {
		testCase.Fatalf("expected one lock acquisition, got %v", distributed.keys)
	}
	if !strings.HasPrefix(distributed.keys[0], "summary:") || !strings.HasSuffix(distributed.keys[0], "report.txt") {
		testCase.Errorf("unexpected lock key %q", distributed.keys[0])
	}
	if distributed.released != 1 {
		testCase.Errorf("expected the lock to be released once, got %d", distributed.released)
	}
}

func TestTitleLine(testCase *testing.T) {
	tests := map[string]string{
		"Quarterly Report":              "Quarterly Report",
		"# \"Quarterly Report\"\nextra": "Quarterly Report",
		"\n\n**Annual Plan**":           "Annual Plan",
	}
	for answer, expected := range tests {
		if got := titleLine(answer); got != expected {
			testCase.Errorf("titleLine(%q) = %q, want %q", answer, got, expected)
		}
	}
}
