package crew

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OutputKey is the key of the sink node every synthesized diagram ends in.
const OutputKey = "output"

// DefaultTaskDescription is used for edges declared without a description.
const DefaultTaskDescription = "Perform a task"

// Node is an agent. Backstory is the initial context the agent starts with.
type Node struct {
	Key       string `json:"key"`
	Role      string `json:"role"`
	Goal      string `json:"goal"`
	Backstory string `json:"backstory"`
	File      string `json:"file,omitempty"`
}

// Identity names the agent in results: its role, or its key when the role is empty.
func (n Node) Identity() string {
	if strings.TrimSpace(n.Role) != "" {
		return n.Role
	}
	return n.Key
}

// Edge is a task From performs; the result is handed to To.
type Edge struct {
	ID             string `json:"id,omitempty"`
	From           string `json:"from"`
	To             string `json:"to"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
}

// TaskDescription returns the description, DefaultTaskDescription when empty.
func (e Edge) TaskDescription() string {
	if strings.TrimSpace(e.Description) == "" {
		return DefaultTaskDescription
	}
	return e.Description
}

// Label identifies the edge in errors and logs: its ID, or from->to.
func (e Edge) Label() string {
	if e.ID != "" {
		return e.ID
	}
	return e.From + "->" + e.To
}

// Graph is a workflow diagram. Node order is significant: it breaks ties in
// scheduling, so identical graphs always run identically.
type Graph struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Nodes       []Node `json:"nodes"`
	Links       []Edge `json:"links"`
}

// ParseGraph decodes a diagram. Unknown fields such as "type" or "category"
// are ignored.
func ParseGraph(data []byte) (*Graph, error) {
	var graph Graph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	return &graph, nil
}

// Node returns the node with key.
func (g *Graph) Node(key string) (Node, bool) {
	for _, node := range g.Nodes {
		if node.Key == key {
			return node, true
		}
	}
	return Node{}, false
}

// Validate checks node keys and edge endpoints. Every problem is reported,
// joined with errors.Join, so callers can errors.As for *DuplicateKeyError or
// *MissingReferenceError. Cycles are detected by Order.
func (g *Graph) Validate() error {
	if len(g.Nodes) == 0 {
		return ErrEmptyGraph
	}

	var problems []error
	keys := make(map[string]struct{}, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.Key == "" {
			problems = append(problems, &DuplicateKeyError{})
			continue
		}
		if _, seen := keys[node.Key]; seen {
			problems = append(problems, &DuplicateKeyError{Key: node.Key})
			continue
		}
		keys[node.Key] = struct{}{}
	}

	for _, edge := range g.Links {
		if _, ok := keys[edge.From]; !ok {
			problems = append(problems, &MissingReferenceError{EdgeID: edge.Label(), Endpoint: "from", Key: edge.From})
		}
		if _, ok := keys[edge.To]; !ok {
			problems = append(problems, &MissingReferenceError{EdgeID: edge.Label(), Endpoint: "to", Key: edge.To})
		}
	}

	return errors.Join(problems...)
}

// outgoing returns edge indexes per source key, in declared order.
func (g *Graph) outgoing() map[string][]int {
	edges := make(map[string][]int, len(g.Nodes))
	for index, edge := range g.Links {
		edges[edge.From] = append(edges[edge.From], index)
	}
	return edges
}
