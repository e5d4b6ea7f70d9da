package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/patterns/crew"
)

var diagramsCmd = &cobra.Command{
	Use:   "diagrams",
	Short: "Manage saved diagrams",
	Long:  `List, show, save and delete the diagrams kept in the diagram directory (--diagrams).`,
}

var diagramsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved diagrams",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := diagramStore()
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var diagramsGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a saved diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := diagramStore()
		if err != nil {
			return err
		}
		graph, err := store.Get(args[0])
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(graph)
	},
}

var diagramsSaveCmd = &cobra.Command{
	Use:   "save NAME FILE",
	Short: "Save a diagram file under NAME",
	Long:  `Save a diagram file under NAME. Spaces in NAME become underscores. The diagram must be valid JSON; it is not required to be executable.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		graph, err := crew.ParseGraph(data)
		if err != nil {
			return err
		}
		store, err := diagramStore()
		if err != nil {
			return err
		}
		saved, err := store.Save(args[0], *graph)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), saved)
		return nil
	},
}

var diagramsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := diagramStore()
		if err != nil {
			return err
		}
		return store.Delete(args[0])
	},
}

func init() {
	rootCmd.AddCommand(diagramsCmd)
	diagramsCmd.AddCommand(diagramsListCmd, diagramsGetCmd, diagramsSaveCmd, diagramsDeleteCmd)
}
