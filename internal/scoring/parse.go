package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func parseSingle(raw string) (*MatchResult, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse scoring response: %w", err)
	}

	return resultFromObject(data), nil
}

func parseBatch(raw string, want int) ([]*MatchResult, error) {
	cleaned := extractJSON(raw)

	var data []map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse batch scoring response: %w", err)
	}

	if len(data) != want {
		return nil, fmt.Errorf("%w: got %d results for %d candidates", ErrShapeMismatch, len(data), want)
	}

	results := make([]*MatchResult, 0, want)
	for _, item := range data {
		results = append(results, resultFromObject(item))
	}

	return results, nil
}

func resultFromObject(data map[string]any) *MatchResult {
	return &MatchResult{
		Score:     clampScore(coerceFloat(data["score"])),
		Reasoning: coerceString(data["reasoning"]),
	}
}

// clampScore rounds to the nearest integer and clamps to [0,100].
// NaN (missing or unparseable score) collapses to 0.
func clampScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}

	return rounded
}

// extractJSON strips markdown code fences the model likes to wrap
// JSON payloads in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
