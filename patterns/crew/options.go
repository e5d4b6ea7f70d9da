package crew

import (
	"time"

	extract "github.com/leofalp/crewgraph/internal/document"
	"github.com/leofalp/crewgraph/internal/utils"
	"github.com/leofalp/crewgraph/providers/locker"
	"github.com/leofalp/crewgraph/providers/observability"
	"github.com/leofalp/crewgraph/providers/tool/document"
)

// --- Executor Options ---

// DefaultMaxConcurrency bounds the edges running at once within a level.
const DefaultMaxConcurrency = 4

type executorConfig struct {
	maxConcurrency   int
	taskTimeout      time.Duration
	executionTimeout time.Duration
	progress         ProgressFunc
	observer         observability.Provider
}

// ExecutorOption configures a TaskExecutor.
type ExecutorOption func(*executorConfig)

// WithMaxConcurrency bounds how many edges of one level run at once. 1 runs
// every edge strictly in sequence; values below 1 use DefaultMaxConcurrency.
//
// Example:
//
//	crew.NewTaskExecutor(capability, crew.WithMaxConcurrency(1))
func WithMaxConcurrency(maxConcurrency int) ExecutorOption {
	return func(config *executorConfig) {
		config.maxConcurrency = maxConcurrency
	}
}

// WithTaskTimeout bounds each edge. An edge that times out fails on its own;
// the run continues. 0 disables the limit.
func WithTaskTimeout(timeout time.Duration) ExecutorOption {
	return func(config *executorConfig) {
		config.taskTimeout = timeout
	}
}

// WithExecutionTimeout bounds the whole run. When it expires no further level
// starts and Run returns the partial result with an error wrapping
// ErrRunDeadline. 0 disables the limit.
func WithExecutionTimeout(timeout time.Duration) ExecutorOption {
	return func(config *executorConfig) {
		config.executionTimeout = timeout
	}
}

// WithProgress registers a hook receiving edge lifecycle events. Calls are
// serialized.
func WithProgress(progress ProgressFunc) ExecutorOption {
	return func(config *executorConfig) {
		config.progress = progress
	}
}

// WithExecutorObserver enables spans, metrics and logs for runs.
func WithExecutorObserver(provider observability.Provider) ExecutorOption {
	return func(config *executorConfig) {
		config.observer = provider
	}
}

// --- Context Store Options ---

type storeConfig struct {
	registry  *document.Registry
	summaries *SummaryCache
	observer  observability.Provider
}

// StoreOption configures a ContextStore.
type StoreOption func(*storeConfig)

// WithDocumentRegistry sets the registry used to bind documents. Defaults to
// document.NewRegistry(nil).
func WithDocumentRegistry(registry *document.Registry) StoreOption {
	return func(config *storeConfig) {
		config.registry = registry
	}
}

// WithSummaryCache makes BindCapability append the document summary to the
// agent's context. Without it binding only attaches the search tool.
func WithSummaryCache(summaries *SummaryCache) StoreOption {
	return func(config *storeConfig) {
		config.summaries = summaries
	}
}

// WithStoreObserver enables logging of binding problems.
func WithStoreObserver(provider observability.Provider) StoreOption {
	return func(config *storeConfig) {
		config.observer = provider
	}
}

// --- Summary Options ---

// DefaultChunkLimit is how many leading chunks (pages) of a document are
// summarized.
const DefaultChunkLimit = 6

// DefaultLockTTL bounds how long a distributed summary lock survives its holder.
const DefaultLockTTL = 5 * time.Minute

type summaryConfig struct {
	chunkLimit int
	extractor  extract.Extractor
	locker     locker.Locker
	lockTTL    time.Duration
	locks      *utils.KeyedMutex
	observer   observability.Provider
}

// SummaryOption configures a SummaryCache.
type SummaryOption func(*summaryConfig)

// WithChunkLimit sets how many leading chunks are summarized. Values below 1
// fall back to DefaultChunkLimit.
func WithChunkLimit(limit int) SummaryOption {
	return func(config *summaryConfig) {
		config.chunkLimit = limit
	}
}

// WithExtractor replaces the built-in document extractors.
func WithExtractor(extractor extract.Extractor) SummaryOption {
	return func(config *summaryConfig) {
		config.extractor = extractor
	}
}

// WithLocker adds a cross-process lock around summary generation, so several
// processes sharing a document folder summarize each document once. ttl <= 0
// uses DefaultLockTTL.
//
// Example:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	crew.NewSummaryCache(capability, crew.WithLocker(redislock.NewLocker(client, "crewgraph:"), 0))
func WithLocker(distributed locker.Locker, ttl time.Duration) SummaryOption {
	return func(config *summaryConfig) {
		config.locker = distributed
		config.lockTTL = ttl
	}
}

// withSummaryLocks makes caches share in-process path locks, so caches built
// for different runs still generate each summary once.
func withSummaryLocks(locks *utils.KeyedMutex) SummaryOption {
	return func(config *summaryConfig) {
		config.locks = locks
	}
}

// WithSummaryObserver enables spans, metrics and logs for summaries.
func WithSummaryObserver(provider observability.Provider) SummaryOption {
	return func(config *summaryConfig) {
		config.observer = provider
	}
}

// --- Synthesizer Options ---

type synthesizerConfig struct {
	observer observability.Provider
}

// SynthesizerOption configures a DiagramSynthesizer.
type SynthesizerOption func(*synthesizerConfig)

// WithSynthesizerObserver enables spans, metrics and logs for synthesis.
func WithSynthesizerObserver(provider observability.Provider) SynthesizerOption {
	return func(config *synthesizerConfig) {
		config.observer = provider
	}
}

// --- Engine Options ---

type engineConfig struct {
	folder          string
	registry        *document.Registry
	summaryOptions  []SummaryOption
	executorOptions []ExecutorOption
	observer        observability.Provider
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithDocumentFolder sets the directory node files are resolved against.
func WithDocumentFolder(folder string) EngineOption {
	return func(config *engineConfig) {
		config.folder = folder
	}
}

// WithEngineDocumentRegistry sets the registry used to bind node documents.
func WithEngineDocumentRegistry(registry *document.Registry) EngineOption {
	return func(config *engineConfig) {
		config.registry = registry
	}
}

// WithSummaryOptions configures the summary cache built for each run.
func WithSummaryOptions(opts ...SummaryOption) EngineOption {
	return func(config *engineConfig) {
		config.summaryOptions = append(config.summaryOptions, opts...)
	}
}

// WithExecutorOptions configures the executor built for each run.
func WithExecutorOptions(opts ...ExecutorOption) EngineOption {
	return func(config *engineConfig) {
		config.executorOptions = append(config.executorOptions, opts...)
	}
}

// WithObserver enables observability on every component the engine builds.
func WithObserver(provider observability.Provider) EngineOption {
	return func(config *engineConfig) {
		config.observer = provider
	}
}
