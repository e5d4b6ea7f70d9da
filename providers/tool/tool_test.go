package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type queryInput struct {
	Query string `json:"query"`
}

func echoTool(name string) *Tool[queryInput, string] {
	return NewTool(name, func(_ context.Context, input queryInput) (string, error) {
		if input.Query == "" {
			return "", errors.New("empty query")
		}
		return "found: " + input.Query, nil
	}, WithDescription("Echoes the query."))
}

func TestTool_Call(testCase *testing.T) {
	output, err := echoTool("echo").Call(context.Background(), `{"query": "budget"}`)
	if err != nil {
		testCase.Fatalf("unexpected error: %v", err)
	}
	if output != `"found: budget"` {
		testCase.Errorf("expected JSON encoded output, got %s", output)
	}
}

func TestTool_CallRepairsInput(testCase *testing.T) {
	output, err := echoTool("echo").Call(context.Background(), `{query: 'budget'}`)
	if err != nil {
		testCase.Fatalf("expected sloppy input to be repaired, got %v", err)
	}
	if !strings.Contains(output, "budget") {
		testCase.Errorf("unexpected output %s", output)
	}
}

func TestTool_CallPropagatesFunctionError(testCase *testing.T) {
	if _, err := echoTool("echo").Call(context.Background(), `{"query": ""}`); err == nil {
		testCase.Error("expected the function error to be returned")
	}
}

func TestTool_ToolInfoDefaults(testCase *testing.T) {
	info := echoTool("echo").ToolInfo()
	if info.Name != "echo" || info.Description != "Echoes the query." {
		testCase.Errorf("unexpected info %+v", info)
	}
	if string(info.Parameters) != string(DefaultSchema) {
		testCase.Errorf("expected default schema, got %s", info.Parameters)
	}
}

func TestCatalog(testCase *testing.T) {
	catalog := NewCatalog(echoTool("Search_B"), echoTool("search_a"), nil)

	if catalog.Size() != 2 {
		testCase.Fatalf("expected 2 tools, got %d", catalog.Size())
	}
	if _, found := catalog.Get("SEARCH_B"); !found {
		testCase.Error("expected case-insensitive lookup")
	}
	if _, found := catalog.Get("missing"); found {
		testCase.Error("expected missing tool not to be found")
	}

	descriptions := catalog.Descriptions()
	if descriptions[0].Name != "search_a" || descriptions[1].Name != "Search_B" {
		testCase.Errorf("expected descriptions sorted by name, got %+v", descriptions)
	}

	catalog.AddTools(echoTool("search_a"))
	if catalog.Size() != 2 {
		testCase.Error("expected re-registration to replace, not add")
	}
}
