package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatText is slog's key=value format, the default for terminals.
	FormatText Format = "text"

	// FormatJSON is one JSON object per line, for log aggregation.
	FormatJSON Format = "json"
)

// LevelTrace sits below slog.LevelDebug and is filtered out unless asked for.
const LevelTrace = slog.LevelDebug - 4

// ParseFormat parses a format string. Unknown values fall back to FormatText.
func ParseFormat(value string) Format {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// ParseLogLevel parses a level name (trace, debug, info, warn/warning, error).
// Unknown values fall back to slog.LevelInfo.
func ParseLogLevel(value string) slog.Level {
	switch strings.TrimSpace(strings.ToUpper(value)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetFormatFromEnv reads CREWGRAPH_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	return ParseFormat(firstEnv("CREWGRAPH_LOG_FORMAT", "LOG_FORMAT"))
}

// GetLogLevelFromEnv reads CREWGRAPH_LOG_LEVEL, then LOG_LEVEL.
func GetLogLevelFromEnv() slog.Level {
	return ParseLogLevel(firstEnv("CREWGRAPH_LOG_LEVEL", "LOG_LEVEL"))
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}
