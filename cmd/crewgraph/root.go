package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/providers/ai/registry"
	"github.com/leofalp/crewgraph/providers/observability/slogobs"
)

// Global flags
var (
	envFiles     []string
	registryPath string
	logFormat    string
	logLevel     string
	verboseLLM   bool
	diagramsDir  string
)

var rootCmd = &cobra.Command{
	Use:   "crewgraph",
	Short: "Run workflow diagrams of LLM agents",
	Long: `crewgraph executes workflow diagrams: agents (nodes) that perform tasks (edges)
for one another, in dependency order, with optional grounding documents.

API keys are read from the environment (OPENAI_API_KEY, MISTRAL_API_KEY, GROQ_API_KEY,
ANTHROPIC_API_KEY, ...). A .env file in the working directory is loaded first.`,
	PersistentPreRunE: loadEnvironment,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load (missing files are skipped)")
	rootCmd.PersistentFlags().StringVar(&registryPath, "registry", "llms.yaml", "LLM registry file (built-in entries when missing)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default from CREWGRAPH_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error (default from CREWGRAPH_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&diagramsDir, "diagrams", "designer", "directory of saved diagrams")
	rootCmd.PersistentFlags().BoolVar(&verboseLLM, "verbose-llm", false, "log prompts and answers of every LLM call")
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func loadEnvironment(_ *cobra.Command, _ []string) error {
	return registry.LoadEnv(envFiles...)
}

// newLogObserver builds the slog observer from the flags, falling back to the
// environment.
func newLogObserver() *slogobs.Observer {
	format := slogobs.GetFormatFromEnv()
	if logFormat != "" {
		format = slogobs.ParseFormat(logFormat)
	}
	level := slogobs.GetLogLevelFromEnv()
	if logLevel != "" {
		level = slogobs.ParseLogLevel(logLevel)
	}
	return slogobs.New(
		slogobs.WithFormat(format),
		slogobs.WithLevel(level),
		slogobs.WithOutput(os.Stderr),
	)
}
