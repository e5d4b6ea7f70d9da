package document

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/leofalp/crewgraph/providers/tool"
)

type queryInput struct {
	Query string `json:"query"`
}

var querySchema = json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"What to look for in the document"}},"required":["query"]}`)

// AsTool exposes a SearchTool to a language model as a callable tool.
func AsTool(search SearchTool) tool.GenericTool {
	return tool.NewTool(search.Name(),
		func(ctx context.Context, input queryInput) (string, error) {
			return search.Query(ctx, input.Query)
		},
		tool.WithDescription(fmt.Sprintf("Searches the document %s and returns the most relevant passages.", filepath.Base(search.Path()))),
		tool.WithParameters(querySchema),
	)
}
