package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/patterns/crew"
	"github.com/leofalp/crewgraph/providers/observability"
)

var runCmd = &cobra.Command{
	Use:   "run DIAGRAM",
	Short: "Execute a workflow diagram",
	Long: `Execute a workflow diagram, given as a JSON file or the name of a saved diagram.

Each agent with a "file" gets a search tool over that document and a summary of it
in its context; summaries are cached next to the document as <file>.txt.
Tasks run in dependency order; independent tasks run in parallel.

Examples:
  # Run a diagram file with the default LLM
  crewgraph run diagram.json --folder ./documents

  # Run a saved diagram with Mistral and a follow-up request
  crewgraph run "Newsletter" --llm mistral-large --followup "Focus on the Q3 numbers"

  # Full JSON response instead of the Markdown report
  crewgraph run diagram.json --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

// Flags for run command
var (
	runFolder       string
	runLLM          string
	runFollowUp     string
	runConcurrency  int
	runTaskTimeout  time.Duration
	runTimeout      time.Duration
	runChunks       int
	runMetricsAddr  string
	runRedisAddr    string
	runOutput       string
	runShowProgress bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFolder, "folder", ".", "directory agent files are resolved against")
	runCmd.Flags().StringVar(&runLLM, "llm", "", "LLM identifier from the registry (overrides the diagram's \"llm\")")
	runCmd.Flags().StringVar(&runFollowUp, "followup", "", "follow-up request appended to every root agent")
	runCmd.Flags().IntVar(&runConcurrency, "concurrency", crew.DefaultMaxConcurrency, "tasks running at once within a level (1 = sequential)")
	runCmd.Flags().DurationVar(&runTaskTimeout, "task-timeout", 5*time.Minute, "limit for a single task (0 = none)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "limit for the whole run (0 = none)")
	runCmd.Flags().IntVar(&runChunks, "chunks", crew.DefaultChunkLimit, "leading document chunks used for summaries")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().StringVar(&runRedisAddr, "redis-addr", "", "redis address for cross-process summary locks")
	runCmd.Flags().StringVar(&runOutput, "output", "markdown", "output format: markdown or json")
	runCmd.Flags().BoolVar(&runShowProgress, "progress", false, "print task progress to stderr")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	request, err := readRequest(args[0])
	if err != nil {
		return err
	}
	if runLLM != "" {
		request.Capability = runLLM
	}
	if runFollowUp != "" {
		request.FollowUp = runFollowUp
	}

	logs := newLogObserver()
	observer := newObserver(logs, runMetricsAddr)
	resolver, err := newResolver(logs, observer)
	if err != nil {
		return err
	}

	executorOptions := []crew.ExecutorOption{
		crew.WithMaxConcurrency(runConcurrency),
		crew.WithTaskTimeout(runTaskTimeout),
		crew.WithExecutionTimeout(runTimeout),
	}
	if runShowProgress {
		executorOptions = append(executorOptions, crew.WithProgress(printProgress(cmd)))
	}

	engine := crew.NewEngine(resolver,
		crew.WithDocumentFolder(runFolder),
		crew.WithSummaryOptions(append(summaryLockOptions(runRedisAddr), crew.WithChunkLimit(runChunks))...),
		crew.WithExecutorOptions(executorOptions...),
		crew.WithObserver(observer),
	)

	response, runErr := engine.Run(ctx, request)
	if runErr != nil && !errors.Is(runErr, crew.ErrRunDeadline) {
		observer.Error(ctx, "run failed", observability.Error(runErr))
	}

	switch runOutput {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
	default:
		fmt.Fprint(cmd.OutOrStdout(), response.Message)
		for _, warning := range response.Warnings {
			cmd.PrintErrln("warning:", warning)
		}
	}
	return runErr
}

func printProgress(cmd *cobra.Command) crew.ProgressFunc {
	return func(event crew.ProgressEvent) {
		switch event.Type {
		case crew.EdgeStarted:
			cmd.PrintErrf("[level %d] %s -> %s: started\n", event.Level, event.Edge.From, event.Edge.To)
		case crew.EdgeCompleted:
			cmd.PrintErrf("[level %d] %s -> %s: done in %s\n", event.Level, event.Edge.From, event.Edge.To, event.Duration.Round(time.Millisecond))
		case crew.EdgeFailed:
			cmd.PrintErrf("[level %d] %s -> %s: failed: %v\n", event.Level, event.Edge.From, event.Edge.To, event.Err)
		}
	}
}
