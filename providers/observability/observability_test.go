package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTruncateString(testCase *testing.T) {
	testCases := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"short string untouched", "hello", 10, "hello"},
		{"exact length untouched", "hello", 5, "hello"},
		{"long string truncated", "hello world", 5, "hello... (truncated, total: 11 chars)"},
		{"multibyte runes kept whole", "àèìòù-àèìòù", 5, "àèìòù... (truncated, total: 11 chars)"},
	}

	for _, tc := range testCases {
		testCase.Run(tc.name, func(subTest *testing.T) {
			if got := TruncateString(tc.input, tc.maxLen); got != tc.expected {
				subTest.Errorf("TruncateString(%q, %d) = %q, want %q", tc.input, tc.maxLen, got, tc.expected)
			}
		})
	}
}

func TestTruncateString_NonPositiveUsesDefault(testCase *testing.T) {
	input := strings.Repeat("x", DefaultMaxStringLength+10)
	got := TruncateString(input, 0)
	if !strings.HasPrefix(got, strings.Repeat("x", DefaultMaxStringLength)+"...") {
		testCase.Errorf("expected truncation at default length, got %q", got[:20])
	}
}

func TestErrorAttribute(testCase *testing.T) {
	if attr := Error(nil); attr.Key != AttrError || attr.Value != "" {
		testCase.Errorf("unexpected nil error attribute: %+v", attr)
	}
	if attr := Error(errors.New("boom")); attr.Value != "boom" {
		testCase.Errorf("expected 'boom', got %v", attr.Value)
	}
}

func TestStatusCodeString(testCase *testing.T) {
	if StatusOK.String() != "ok" || StatusError.String() != "error" || StatusUnset.String() != "unset" {
		testCase.Error("unexpected status code names")
	}
}

type stubSpan struct{ name string }

func (span *stubSpan) End()                              {}
func (span *stubSpan) SetAttributes(_ ...Attribute)      {}
func (span *stubSpan) SetStatus(_ StatusCode, _ string)  {}
func (span *stubSpan) RecordError(_ error)               {}
func (span *stubSpan) AddEvent(_ string, _ ...Attribute) {}

func TestSpanContextRoundTrip(testCase *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		testCase.Fatal("expected no span on a bare context")
	}

	span := &stubSpan{name: "task"}
	ctx := ContextWithSpan(context.Background(), span)
	if SpanFromContext(ctx) != span {
		testCase.Error("expected the attached span back")
	}
	if ObserverFromContext(ctx) != nil {
		testCase.Error("expected no observer on a context carrying only a span")
	}
}

func TestContextWithSpan_NilContext(testCase *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	ctx := ContextWithSpan(nil, &stubSpan{})
	if ctx == nil || SpanFromContext(ctx) == nil {
		testCase.Error("expected a usable context when starting from nil")
	}
}
