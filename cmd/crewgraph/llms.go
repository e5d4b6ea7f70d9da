package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/providers/ai/registry"
)

var llmsCmd = &cobra.Command{
	Use:   "llms",
	Short: "List the LLM identifiers accepted by --llm",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		llms, err := registry.Load(registryPath)
		if err != nil {
			return err
		}

		writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(writer, "NAME\tPROVIDER\tMODEL\tDEFAULT")
		for _, name := range llms.Names() {
			_, config := llms.Lookup(name)
			isDefault := ""
			if name == llms.Default() {
				isDefault = "*"
			}
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", name, config.Provider, config.Model, isDefault)
		}
		return writer.Flush()
	},
}

func init() {
	rootCmd.AddCommand(llmsCmd)
}
