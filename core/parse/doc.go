// Package parse recovers structured data from raw LLM text. Models wrap JSON
// in prose and markdown fences, drop quotes, and leave trailing commas;
// [ExtractFencedBlock] isolates the payload and [ParseStringAs] decodes it,
// repairing malformed JSON with jsonrepair before giving up.
package parse
