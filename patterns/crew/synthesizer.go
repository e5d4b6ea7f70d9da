package crew

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/leofalp/crewgraph/core/parse"
	"github.com/leofalp/crewgraph/providers/observability"
)

// Default output node and sink edge wording added by Normalize.
const (
	OutputRole             = "Output"
	OutputGoal             = "Collect and format the final output"
	OutputBackstory        = "I am responsible for collecting and formatting the final output of the process"
	SinkEdgeDescription    = "Send results to output"
	SinkEdgeExpectedOutput = "Final output of this agent"
)

const (
	synthesisAnalystRole     = "Text Analysis Expert"
	synthesisAnalystGoal     = "Extract the key components and relationships from textual descriptions"
	synthesisAnalystContext  = "You specialize in analyzing text to identify the important entities, their characteristics and the way they interact with each other."
	synthesisDesignerRole    = "Diagram Design Expert"
	synthesisDesignerGoal    = "Build a complete, well-structured diagram from textual descriptions"
	synthesisDesignerContext = "You are an expert at building diagrams of complex workflows. You excel at identifying the key agents, their roles and the relationships between them."
)

// DiagramSynthesizer turns a free-text process description into a Graph with
// two generative calls: an analysis of the agents and their relationships,
// then a structuring pass that emits the diagram as JSON.
type DiagramSynthesizer struct {
	capability Capability
	config     synthesizerConfig
}

// NewDiagramSynthesizer creates a synthesizer using capability.
func NewDiagramSynthesizer(capability Capability, opts ...SynthesizerOption) *DiagramSynthesizer {
	config := synthesizerConfig{}
	for _, opt := range opts {
		opt(&config)
	}
	return &DiagramSynthesizer{capability: capability, config: config}
}

// Synthesize generates a diagram named name from description. The result is
// normalized (see Normalize) and validated; an answer without a ```json block,
// with an undecodable payload or describing an invalid graph yields a
// *SynthesisParseError. Generative failures are returned as they are.
func (s *DiagramSynthesizer) Synthesize(ctx context.Context, description, name string) (*Graph, error) {
	obs := resolveObserver(ctx, s.config.observer)
	ctx, span := obs.startSpan(ctx, observability.SpanCrewSynthesis,
		observability.String(observability.AttrGraphName, name),
	)

	graph, err := s.synthesize(ctx, description, name)

	status := "success"
	if err != nil {
		status = "error"
		obs.warn(ctx, "diagram synthesis failed",
			observability.String(observability.AttrGraphName, name),
			observability.Error(err),
		)
	} else {
		span.SetAttributes(
			observability.Int(observability.AttrGraphNodes, len(graph.Nodes)),
			observability.Int(observability.AttrGraphEdges, len(graph.Links)),
		)
		obs.info(ctx, "diagram synthesized",
			observability.String(observability.AttrGraphName, graph.Name),
			observability.Int(observability.AttrGraphNodes, len(graph.Nodes)),
			observability.Int(observability.AttrGraphEdges, len(graph.Links)),
		)
	}
	obs.count(ctx, observability.MetricSynthesisCount, observability.String(observability.AttrStatus, status))
	endSpan(span, err, "synthesis failed")
	return graph, err
}

func (s *DiagramSynthesizer) synthesize(ctx context.Context, description, name string) (*Graph, error) {
	analysis, err := s.capability.Perform(ctx, &Invocation{
		Role:           synthesisAnalystRole,
		Goal:           synthesisAnalystGoal,
		Context:        synthesisAnalystContext,
		Description:    analysisTask(description),
		ExpectedOutput: "A structured analysis listing the identified agents with their roles, the tasks and relationships between them, and any other information relevant to building the workflow.",
	})
	if err != nil {
		return nil, fmt.Errorf("analysis stage: %w", err)
	}

	raw, err := s.capability.Perform(ctx, &Invocation{
		Role:           synthesisDesignerRole,
		Goal:           synthesisDesignerGoal,
		Context:        synthesisDesignerContext + "\n\nWorkflow analysis:\n" + analysis,
		Description:    structuringTask(description, name),
		ExpectedOutput: "A valid JSON document inside a ```json code block, with a nodes array of agent definitions and a links array of task definitions, following the given format exactly.",
	})
	if err != nil {
		return nil, fmt.Errorf("structuring stage: %w", err)
	}

	graph, err := ParseSynthesized(raw)
	if err != nil {
		return nil, err
	}

	Normalize(graph, name, description)
	if err := graph.Validate(); err != nil {
		return nil, &SynthesisParseError{Reason: "synthesized graph is invalid", Err: err}
	}
	if _, err := Order(graph); err != nil {
		return nil, &SynthesisParseError{Reason: "synthesized graph is invalid", Err: err}
	}
	return graph, nil
}

// ParseSynthesized extracts the diagram from a structuring answer. The last
// ```json block wins; its payload is repaired before decoding when needed.
func ParseSynthesized(raw string) (*Graph, error) {
	payload, found := parse.ExtractFencedBlock(raw, "json")
	if !found {
		return nil, &SynthesisParseError{Reason: "no ```json block in response"}
	}

	graph, err := parse.ParseStringAs[Graph](payload)
	if err != nil {
		return nil, &SynthesisParseError{Reason: "undecodable diagram payload", Err: err}
	}
	return &graph, nil
}

// Normalize completes a diagram in place. It adds the output node when no node
// has OutputKey, links every node without an outgoing edge to it, and fills a
// missing name or description.
func Normalize(graph *Graph, name, description string) {
	if strings.TrimSpace(graph.Name) == "" {
		graph.Name = name
	}
	if strings.TrimSpace(graph.Description) == "" {
		graph.Description = description
	}

	if _, ok := graph.Node(OutputKey); !ok {
		graph.Nodes = append(graph.Nodes, Node{
			Key:       OutputKey,
			Role:      OutputRole,
			Goal:      OutputGoal,
			Backstory: OutputBackstory,
		})
	}

	withOutgoing := make(map[string]struct{}, len(graph.Links))
	edgeIDs := make(map[string]struct{}, len(graph.Links))
	for _, edge := range graph.Links {
		withOutgoing[edge.From] = struct{}{}
		if edge.ID != "" {
			edgeIDs[edge.ID] = struct{}{}
		}
	}

	for _, node := range graph.Nodes {
		if node.Key == OutputKey {
			continue
		}
		if _, ok := withOutgoing[node.Key]; ok {
			continue
		}

		id := "link_" + node.Key + "_" + OutputKey
		if _, taken := edgeIDs[id]; taken {
			id += "_" + uuid.NewString()
		}
		edgeIDs[id] = struct{}{}

		graph.Links = append(graph.Links, Edge{
			ID:             id,
			From:           node.Key,
			To:             OutputKey,
			Description:    SinkEdgeDescription,
			ExpectedOutput: SinkEdgeExpectedOutput,
		})
	}
}

func analysisTask(description string) string {
	return "Analyze the following description and identify:\n" +
		"1. The key agents or actors\n" +
		"2. Their roles and responsibilities\n" +
		"3. The relationships and interactions between them\n\n" +
		"Description: " + description + "\n\n" +
		"Give your analysis in a structured form that can be used to build an agent workflow."
}

// diagramTemplate is the target format shown to the structuring stage.
type diagramTemplate struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Nodes       []nodeTemplate `json:"nodes"`
	Links       []edgeTemplate `json:"links"`
}

type nodeTemplate struct {
	Key       string `json:"key"`
	Type      string `json:"type"`
	Role      string `json:"role"`
	Goal      string `json:"goal"`
	Backstory string `json:"backstory"`
	File      string `json:"file"`
}

type edgeTemplate struct {
	ID             string `json:"id"`
	From           string `json:"from"`
	To             string `json:"to"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
	Type           string `json:"type"`
}

func structuringTask(description, name string) string {
	template := diagramTemplate{
		Name:        name,
		Description: description,
		Nodes: []nodeTemplate{{
			Key:       "unique_identifier",
			Type:      "agent",
			Role:      "Agent role",
			Goal:      "Agent goal",
			Backstory: "Agent backstory",
		}},
		Links: []edgeTemplate{{
			ID:             "unique_identifier",
			From:           "source_node_key",
			To:             "target_node_key",
			Description:    "Task description",
			ExpectedOutput: "Expected output",
			Type:           "task",
		}},
	}
	format, _ := json.MarshalIndent(template, "", "  ")

	return "From the workflow analysis, build a diagram structure with:\n" +
		"1. Nodes representing the agents with their properties\n" +
		"2. Links representing the tasks and relationships between the agents\n\n" +
		"The output must be valid JSON in a ```json code block, following this format:\n" +
		"```json\n" + string(format) + "\n```"
}
