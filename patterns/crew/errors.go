package crew

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicGraph is wrapped by *CycleError.
	ErrCyclicGraph = errors.New("graph contains a cycle")

	// ErrMissingReference is wrapped by *MissingReferenceError.
	ErrMissingReference = errors.New("edge references an unknown node")

	// ErrDuplicateKey is wrapped by *DuplicateKeyError.
	ErrDuplicateKey = errors.New("duplicate or empty node key")

	// ErrUnknownNode is returned by ContextStore lookups for keys outside the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrEmptyGraph is returned when a graph has no nodes.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrRunDeadline is returned alongside a partial result when the run
	// deadline expires or the caller cancels.
	ErrRunDeadline = errors.New("run stopped before completion")

	// ErrEmptyDocument is returned when a document yields no text to summarize.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrSummaryUnavailable marks a binding whose summary could not be produced.
	// The capability stays bound.
	ErrSummaryUnavailable = errors.New("document summary unavailable")

	// ErrSynthesisParse is wrapped by *SynthesisParseError.
	ErrSynthesisParse = errors.New("diagram synthesis produced no usable graph")

	// ErrEmptyOutput is returned when the generative service answers with no text.
	ErrEmptyOutput = errors.New("capability returned an empty answer")
)

// CycleError reports the nodes that could not be ordered.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v involving nodes: %s", ErrCyclicGraph, strings.Join(e.Nodes, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicGraph }

// MissingReferenceError reports an edge endpoint that names no node.
type MissingReferenceError struct {
	EdgeID   string
	Endpoint string // "from" or "to"
	Key      string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("edge %q: %s endpoint %q does not exist", e.EdgeID, e.Endpoint, e.Key)
}

func (e *MissingReferenceError) Unwrap() error { return ErrMissingReference }

// DuplicateKeyError reports a node key used twice, or an empty key.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	if e.Key == "" {
		return "node key must not be empty"
	}
	return fmt.Sprintf("duplicate node key %q", e.Key)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// ToolBindingError reports a document that could not be bound to a node. It is
// recoverable: the node runs without the capability.
type ToolBindingError struct {
	NodeKey string
	Path    string
	Err     error
}

func (e *ToolBindingError) Error() string {
	return fmt.Sprintf("binding %s to node %q: %v", e.Path, e.NodeKey, e.Err)
}

func (e *ToolBindingError) Unwrap() error { return e.Err }

// CapabilityInvocationError reports a failed task. It is isolated to its edge.
type CapabilityInvocationError struct {
	EdgeID string
	From   string
	To     string
	Err    error
}

func (e *CapabilityInvocationError) Error() string {
	return fmt.Sprintf("task %q (%s -> %s) failed: %v", e.EdgeID, e.From, e.To, e.Err)
}

func (e *CapabilityInvocationError) Unwrap() error { return e.Err }

// SynthesisParseError reports a synthesized diagram that could not be decoded
// or validated. It belongs to the client-input class of errors.
type SynthesisParseError struct {
	Reason string
	Err    error
}

func (e *SynthesisParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", ErrSynthesisParse, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %v", ErrSynthesisParse, e.Reason, e.Err)
}

func (e *SynthesisParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSynthesisParse}
	}
	return []error{ErrSynthesisParse, e.Err}
}

// IsStructural reports whether err makes a graph unexecutable (cycle, dangling
// reference, duplicate key, no nodes).
func IsStructural(err error) bool {
	return errors.Is(err, ErrCyclicGraph) ||
		errors.Is(err, ErrMissingReference) ||
		errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrEmptyGraph)
}
