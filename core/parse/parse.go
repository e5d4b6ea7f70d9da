package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrEmptyContent is returned when there is nothing to parse.
var ErrEmptyContent = errors.New("parse: empty content")

// ParseStringAs decodes content into T.
//
// A string T receives content unchanged. Every other T is JSON-decoded; when
// decoding fails the content is repaired with jsonrepair and decoded again, and
// as a last attempt schema-style {"type": ..., "value": ...} wrappers, which
// models sometimes emit instead of plain values, are unwrapped.
//
// Example:
//
//	type Agent struct {
//	    Key  string `json:"key"`
//	    Role string `json:"role"`
//	}
//
//	agent, err := parse.ParseStringAs[Agent](`{key: 'writer', role: 'Writer',}`)
func ParseStringAs[T any](content string) (T, error) {
	var result T

	if reflect.TypeFor[T]().Kind() == reflect.String {
		reflect.ValueOf(&result).Elem().SetString(content)
		return result, nil
	}

	if strings.TrimSpace(content) == "" {
		return result, ErrEmptyContent
	}

	err := json.Unmarshal([]byte(content), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(content)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair JSON: unmarshal error: %w, repair error: %v", result, err, repairErr)
	}

	result = *new(T)
	if err = json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	if unwrapped, unwrapErr := unwrapSchemaValues(repaired); unwrapErr == nil {
		result = *new(T)
		if retryErr := json.Unmarshal([]byte(unwrapped), &result); retryErr == nil {
			return result, nil
		}
	}
	return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w", result, err)
}

// unwrapSchemaValues replaces every {"type": ..., "value": v} object with v.
//
//	{"name": {"type": "string", "value": "Writer"}} -> {"name": "Writer"}
func unwrapSchemaValues(jsonText string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonText), &data); err != nil {
		return "", err
	}
	encoded, err := json.Marshal(unwrap(data))
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func unwrap(data any) any {
	switch value := data.(type) {
	case map[string]any:
		if _, hasType := value["type"]; hasType {
			if inner, hasValue := value["value"]; hasValue && len(value) == 2 {
				return unwrap(inner)
			}
		}
		result := make(map[string]any, len(value))
		for key, field := range value {
			result[key] = unwrap(field)
		}
		return result
	case []any:
		result := make([]any, len(value))
		for index, element := range value {
			result[index] = unwrap(element)
		}
		return result
	default:
		return data
	}
}
