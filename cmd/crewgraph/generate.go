package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leofalp/crewgraph/patterns/crew"
)

var generateCmd = &cobra.Command{
	Use:   "generate --name NAME --description TEXT",
	Short: "Generate a diagram from a textual description",
	Long: `Ask the LLM to turn a free-text process description into a workflow diagram.

The result always ends in an "output" agent, and every other agent has at least
one outgoing task.

Examples:
  crewgraph generate --name "Newsletter" --description "A researcher gathers news, a writer drafts, an editor polishes."
  crewgraph generate --name "Audit" --description-file process.txt --save`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

// Flags for generate command
var (
	generateName            string
	generateDescription     string
	generateDescriptionFile string
	generateLLM             string
	generateSave            bool
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateName, "name", "", "diagram name (required)")
	generateCmd.Flags().StringVar(&generateDescription, "description", "", "process description")
	generateCmd.Flags().StringVar(&generateDescriptionFile, "description-file", "", "read the process description from a file")
	generateCmd.Flags().StringVar(&generateLLM, "llm", "", "LLM identifier from the registry")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "save the diagram to the diagram store")

	_ = generateCmd.MarkFlagRequired("name")
	generateCmd.MarkFlagsMutuallyExclusive("description", "description-file")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	description := generateDescription
	if generateDescriptionFile != "" {
		data, err := os.ReadFile(generateDescriptionFile)
		if err != nil {
			return err
		}
		description = string(data)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return errors.New("a description is required (--description or --description-file)")
	}

	logs := newLogObserver()
	resolver, err := newResolver(logs, logs)
	if err != nil {
		return err
	}
	capability, err := resolver.Resolve(generateLLM)
	if err != nil {
		return err
	}

	graph, err := crew.NewDiagramSynthesizer(capability, crew.WithSynthesizerObserver(logs)).
		Synthesize(cmd.Context(), description, generateName)
	if err != nil {
		return err
	}

	if generateSave {
		store, err := diagramStore()
		if err != nil {
			return err
		}
		saved, err := store.Save(generateName, *graph)
		if err != nil {
			return err
		}
		cmd.PrintErrf("saved %s\n", saved)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(graph)
}
