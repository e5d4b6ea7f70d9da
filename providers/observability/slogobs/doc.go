// Package slogobs implements [observability.Provider] on top of log/slog.
// Spans, counters and histograms are written as structured debug records;
// log calls map one-to-one onto slog levels, with an extra TRACE level below DEBUG.
package slogobs
