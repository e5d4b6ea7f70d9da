package crew

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	extract "github.com/leofalp/crewgraph/internal/document"
	"github.com/leofalp/crewgraph/internal/utils"
	"github.com/leofalp/crewgraph/providers/locker"
	"github.com/leofalp/crewgraph/providers/observability"
)

// SidecarSuffix is appended to a document path to name its cached summary.
const SidecarSuffix = ".txt"

// SidecarPath returns where the summary of the document at path is cached.
func SidecarPath(path string) string {
	return path + SidecarSuffix
}

// SummaryCache produces one Markdown summary per document and caches it in a
// sidecar file next to the document. Concurrent callers for the same document,
// in this process or (with WithLocker) across processes, trigger a single
// generation; everybody else reads the sidecar.
type SummaryCache struct {
	capability Capability
	extractor  extract.Extractor
	chunkLimit int
	locks      *utils.KeyedMutex
	locker     locker.Locker
	lockTTL    time.Duration
	observer   observer
}

// NewSummaryCache creates a cache generating summaries with capability.
func NewSummaryCache(capability Capability, opts ...SummaryOption) *SummaryCache {
	config := summaryConfig{chunkLimit: DefaultChunkLimit}
	for _, opt := range opts {
		opt(&config)
	}
	if config.chunkLimit <= 0 {
		config.chunkLimit = DefaultChunkLimit
	}
	if config.extractor == nil {
		config.extractor = extract.NewMux()
	}
	if config.lockTTL <= 0 {
		config.lockTTL = DefaultLockTTL
	}
	if config.locks == nil {
		config.locks = &utils.KeyedMutex{}
	}

	return &SummaryCache{
		capability: capability,
		extractor:  config.extractor,
		chunkLimit: config.chunkLimit,
		locks:      config.locks,
		locker:     config.locker,
		lockTTL:    config.lockTTL,
		observer:   observer{provider: config.observer},
	}
}

// Summarize returns the summary of the document at path. A readable sidecar is
// returned verbatim without calling the generative service. Otherwise the first
// chunks are summarized in three sequential stages (title, authorship and
// audience, subject and purpose) and the result is written to the sidecar
// atomically.
func (c *SummaryCache) Summarize(ctx context.Context, path string) (string, error) {
	ctx, span := c.observer.startSpan(ctx, observability.SpanCrewSummary,
		observability.String(observability.AttrDocumentPath, path),
	)

	summary, cached, err := c.summarize(ctx, path)

	span.SetAttributes(observability.Bool(observability.AttrSummaryCached, cached))
	endSpan(span, err, "summary failed")

	status := "success"
	if err != nil {
		status = "error"
		c.observer.error(ctx, "document summary failed",
			observability.String(observability.AttrDocumentPath, path),
			observability.Error(err),
		)
	}
	c.observer.count(ctx, observability.MetricSummaryCount,
		observability.String(observability.AttrStatus, status),
		observability.Bool(observability.AttrSummaryCached, cached),
	)
	return summary, err
}

func (c *SummaryCache) summarize(ctx context.Context, path string) (string, bool, error) {
	sidecar := SidecarPath(path)
	if summary, ok := readSidecar(sidecar); ok {
		return summary, true, nil
	}

	key := path
	if absolute, err := filepath.Abs(path); err == nil {
		key = absolute
	}

	unlock := c.locks.Lock(key)
	defer unlock()

	if c.locker != nil {
		release, err := c.locker.Lock(ctx, "summary:"+key, c.lockTTL)
		if err != nil {
			return "", false, fmt.Errorf("acquiring summary lock for %s: %w", path, err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				c.observer.warn(ctx, "releasing summary lock failed",
					observability.String(observability.AttrDocumentPath, path),
					observability.Error(err),
				)
			}
		}()
	}

	// another caller may have finished while we waited
	if summary, ok := readSidecar(sidecar); ok {
		return summary, true, nil
	}

	content, err := c.leadingText(path)
	if err != nil {
		return "", false, err
	}

	summary, err := c.deliberate(ctx, content)
	if err != nil {
		return "", false, err
	}

	if err := utils.WriteFileAtomic(sidecar, []byte(summary), 0o644); err != nil {
		// the summary is still good for this run
		c.observer.warn(ctx, "persisting summary failed",
			observability.String(observability.AttrDocumentPath, path),
			observability.Error(err),
		)
	}
	return summary, false, nil
}

// leadingText joins the first chunkLimit chunks of the document.
func (c *SummaryCache) leadingText(path string) (string, error) {
	chunks, err := c.extractor.ExtractChunks(path)
	if err != nil {
		return "", fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
	}
	if len(chunks) > c.chunkLimit {
		chunks = chunks[:c.chunkLimit]
	}
	content := strings.Join(chunks, "\n")
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, filepath.Base(path))
	}
	return content, nil
}

// summaryStage is one expert of the summary deliberation.
type summaryStage struct {
	role           string
	goal           string
	backstory      string
	instruction    string
	expectedOutput string
}

var summaryStages = [...]summaryStage{
	{
		role:           "Title identification expert",
		goal:           "Identify the title of the document",
		backstory:      "A specialist in quickly identifying titles and main subjects from excerpts of text documents.",
		instruction:    "From the following text, identify the title of the document:",
		expectedOutput: "The title of the document, on a single line.",
	},
	{
		role:           "Author and audience analysis expert",
		goal:           "Identify who wrote the document and who it is addressed to",
		backstory:      "An experienced analyst able to infer the author and the intended audience of a text from its style and content.",
		instruction:    "Based on the following text, determine who wrote the document and which audience it addresses:",
		expectedOutput: "The author of the document and its target audience.",
	},
	{
		role:           "Content analysis expert",
		goal:           "Determine the subject of the document and its purpose",
		backstory:      "An expert in text comprehension, able to summarize the main themes and underlying objectives of a document.",
		instruction:    "Analyze the following text to determine the subject of the document and its purpose:",
		expectedOutput: "The subject and purpose of the document with subheadings and the key information (figures, conclusions), structured as Markdown.",
	},
}

// deliberate runs the stages in order; each stage sees the findings of the
// previous ones in its context.
func (c *SummaryCache) deliberate(ctx context.Context, content string) (string, error) {
	findings := make([]string, 0, len(summaryStages))
	for index, stage := range summaryStages {
		frame := stage.backstory
		if len(findings) > 0 {
			frame += "\n\nFindings so far:\n" + strings.Join(findings, "\n\n")
		}

		output, err := c.capability.Perform(ctx, &Invocation{
			Role:           stage.role,
			Goal:           stage.goal,
			Context:        frame,
			Description:    stage.instruction + "\n" + content,
			ExpectedOutput: stage.expectedOutput,
		})
		if err != nil {
			return "", fmt.Errorf("summary stage %d (%s): %w", index+1, stage.role, err)
		}
		output = strings.TrimSpace(output)
		if output == "" {
			return "", fmt.Errorf("summary stage %d (%s): %w", index+1, stage.role, ErrEmptyOutput)
		}
		findings = append(findings, output)
	}

	return fmt.Sprintf("# %s\n\n## Authorship and audience\n\n%s\n\n## Subject and purpose\n\n%s\n",
		titleLine(findings[0]), findings[1], findings[2]), nil
}

// titleLine keeps the first non-empty line of a title answer, without Markdown
// heading marks or quotes.
func titleLine(answer string) string {
	for _, line := range strings.Split(answer, "\n") {
		line = strings.Trim(strings.TrimSpace(strings.TrimLeft(line, "# ")), `"*`)
		if line != "" {
			return line
		}
	}
	return strings.TrimSpace(answer)
}

func readSidecar(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(data), true
}
