// Package crew executes workflow diagrams: directed graphs whose nodes are
// agents (role, goal, accumulated context, optional grounding document) and
// whose edges are tasks one agent performs and hands to another.
//
// The pieces compose as follows:
//
//   - [Graph] is the diagram as stored and exchanged (JSON).
//   - [Order], [Levels] and [Roots] schedule it; cycles and dangling references
//     are reported as [*CycleError] and [*MissingReferenceError].
//   - [ContextStore] owns each agent's context for one run, appends through a
//     per-agent lock and binds document-search capabilities.
//   - [SummaryCache] produces and caches document summaries next to the
//     document (<file>.txt) so each document is summarized once.
//   - [TaskExecutor] walks the topological levels, running the edges of a level
//     on a bounded worker pool. A failing edge is isolated and reported.
//   - [DiagramSynthesizer] turns a free-text description into a normalized
//     Graph.
//   - [Engine] ties them together for one request, mirroring what an API
//     handler would do.
//
// The generative service is abstracted by [Capability]; [ClientCapability]
// adapts a core/client.Client.
//
// Example:
//
//	engine := crew.NewEngine(resolver,
//	    crew.WithDocumentFolder("uploads/alice"),
//	    crew.WithExecutorOptions(crew.WithMaxConcurrency(4)),
//	)
//	response, err := engine.Run(ctx, crew.RunRequest{Graph: graph, Capability: "openai"})
//	fmt.Println(response.Message)
package crew
