package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/patterns/crew"
)

var validateCmd = &cobra.Command{
	Use:   "validate DIAGRAM",
	Short: "Check a diagram without running it",
	Long: `Check that every task references existing agents, keys are unique and the
diagram has no cycle, then print the execution levels.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	request, err := readRequest(args[0])
	if err != nil {
		return err
	}
	return describeGraph(cmd, &request.Graph)
}

// describeGraph prints the execution plan of graph, or returns why it cannot
// run.
func describeGraph(cmd *cobra.Command, graph *crew.Graph) error {
	levels, err := crew.Levels(graph)
	if err != nil {
		return fmt.Errorf("diagram is not executable: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d agents, %d tasks, %d branches\n", graph.Name, len(graph.Nodes), len(graph.Links), len(crew.Roots(graph)))
	for index, level := range levels {
		fmt.Fprintf(out, "  level %d: %s\n", index, strings.Join(level, ", "))
	}
	for _, node := range graph.Nodes {
		if node.File != "" {
			fmt.Fprintf(out, "  %s reads %s\n", node.Key, node.File)
		}
	}
	return nil
}
