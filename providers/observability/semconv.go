package observability

// Semantic conventions for observability attributes.
// Every backend and every component records observations with these names, so a
// dashboard built against one backend keeps working with another.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "openai", "mistral")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier (e.g., "gpt-4o-mini")
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTokensTotal is the total number of tokens reported by the provider
	AttrLLMTokensTotal = "llm.tokens.total" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Tool Execution Attributes ---

const (
	// AttrToolName is the name of the tool being executed
	AttrToolName = "tool.name"

	// AttrToolInput is the tool input (serialized)
	AttrToolInput = "tool.input"

	// AttrToolOutput is the tool output (serialized)
	AttrToolOutput = "tool.output"
)

// --- Crew Attributes ---

const (
	// AttrRunID identifies one execution of a diagram
	AttrRunID = "crew.run.id"

	// AttrGraphName is the diagram name
	AttrGraphName = "crew.graph.name"

	// AttrGraphNodes is the number of agents in the diagram
	AttrGraphNodes = "crew.graph.nodes"

	// AttrGraphEdges is the number of tasks in the diagram
	AttrGraphEdges = "crew.graph.edges"

	// AttrGraphLevels is the number of topological levels
	AttrGraphLevels = "crew.graph.levels"

	// AttrNodeKey is the agent key
	AttrNodeKey = "crew.node.key"

	// AttrNodeRole is the agent role
	AttrNodeRole = "crew.node.role"

	// AttrEdgeID is the task identifier
	AttrEdgeID = "crew.edge.id"

	// AttrEdgeFrom is the agent performing the task
	AttrEdgeFrom = "crew.edge.from"

	// AttrEdgeTo is the agent receiving the task result
	AttrEdgeTo = "crew.edge.to"

	// AttrDocumentPath is the document bound to an agent
	AttrDocumentPath = "crew.document.path"

	// AttrDocumentKind is the document extension tag (pdf, docx, txt, csv)
	AttrDocumentKind = "crew.document.kind"

	// AttrSummaryCached reports whether a summary was served from its sidecar
	AttrSummaryCached = "crew.summary.cached"

	// AttrCapability is the generative capability identifier selected for a run
	AttrCapability = "crew.capability"
)

// --- Client Attributes ---

const (
	// AttrClientPrompt is the user prompt/input
	AttrClientPrompt = "client.prompt"

	// AttrClientToolCalls is the number of tool calls in response
	AttrClientToolCalls = "client.tool_calls"
)

// --- General Attributes ---

const (
	// AttrError is the error message
	AttrError = "error"

	// AttrDuration is the operation duration
	AttrDuration = "duration"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanClientSendMessage is the span name for client message sending
	SpanClientSendMessage = "client.send_message"

	// SpanToolExecution is the span name for tool executions
	SpanToolExecution = "tool.execution"

	// SpanCrewRun is the span name for a whole diagram execution
	SpanCrewRun = "crew.run"

	// SpanCrewTask is the span name for a single edge task
	SpanCrewTask = "crew.task"

	// SpanCrewSummary is the span name for document summarization
	SpanCrewSummary = "crew.summary"

	// SpanCrewSynthesis is the span name for diagram synthesis
	SpanCrewSynthesis = "crew.synthesis"
)

// --- Metric Names ---

const (
	// MetricClientRequestCount is the counter for client requests
	MetricClientRequestCount = "crewgraph.client.request.count"

	// MetricClientRequestDuration is the histogram for request duration, in seconds
	MetricClientRequestDuration = "crewgraph.client.request.duration"

	// MetricTaskCount is the counter for executed tasks, labeled by status
	MetricTaskCount = "crewgraph.task.count"

	// MetricTaskDuration is the histogram for task duration, in seconds
	MetricTaskDuration = "crewgraph.task.duration"

	// MetricRunDuration is the histogram for whole-run duration, in seconds
	MetricRunDuration = "crewgraph.run.duration"

	// MetricSummaryCount is the counter for summary requests, labeled by cache hit
	MetricSummaryCount = "crewgraph.summary.count"

	// MetricSynthesisCount is the counter for synthesis attempts, labeled by status
	MetricSynthesisCount = "crewgraph.synthesis.count"
)
