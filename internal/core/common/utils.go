package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON unmarshals an LLM response into T, tolerating the usual
// quirks: markdown code fences, leading prose, trailing commentary. It
// extracts the outermost JSON object before decoding.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := strings.TrimSpace(response)

	start := strings.Index(jsonStr, "{")
	end := strings.LastIndex(jsonStr, "}")

	if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	return result, nil
}
