package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/patterns/crew"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize FILE",
	Short: "Summarize a document and cache the summary next to it",
	Long: `Produce the Markdown summary agents receive for a document (PDF, DOCX, TXT, CSV).

The summary is written to FILE.txt; later runs and summarize calls reuse it. Delete
that file to force a new summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

// Flags for summarize command
var (
	summarizeLLM       string
	summarizeChunks    int
	summarizeRedisAddr string
)

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summarizeLLM, "llm", "", "LLM identifier from the registry")
	summarizeCmd.Flags().IntVar(&summarizeChunks, "chunks", crew.DefaultChunkLimit, "leading chunks (pages) to summarize")
	summarizeCmd.Flags().StringVar(&summarizeRedisAddr, "redis-addr", "", "redis address for cross-process summary locks")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	logs := newLogObserver()
	resolver, err := newResolver(logs, logs)
	if err != nil {
		return err
	}
	capability, err := resolver.Resolve(summarizeLLM)
	if err != nil {
		return err
	}

	opts := append(summaryLockOptions(summarizeRedisAddr),
		crew.WithChunkLimit(summarizeChunks),
		crew.WithSummaryObserver(logs),
	)
	summary, err := crew.NewSummaryCache(capability, opts...).Summarize(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}
