// Package utils provides shared low-level helpers used throughout crewgraph:
// [DoPostJSON] for synchronous JSON round-trips with LLM provider APIs,
// [KeyedMutex] for per-key serialization (one document path, one agent), and
// [WriteFileAtomic] for crash-safe artifact writes.
package utils
