package interview

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The oracle is told to answer with {"score": int, "reasoning": str} plus,
// on non-final turns, a "next question" field. The two shapes are parsed into
// distinct typed variants by a single decode step.

// InterimEvaluation is the verdict on one answer plus the next question.
type InterimEvaluation struct {
	Score        int
	Reasoning    string
	NextQuestion string
}

// FinalEvaluation is the verdict on the last answer of the interview.
type FinalEvaluation struct {
	Score     int
	Reasoning string
}

func parseInterimEvaluation(raw string) (*InterimEvaluation, error) {
	fields, err := decodeEvaluation(raw)
	if err != nil {
		return nil, err
	}
	return &InterimEvaluation{
		Score:        coerceScore(fields["score"]),
		Reasoning:    coerceString(fields["reasoning"]),
		NextQuestion: strings.TrimSpace(coerceString(fields["next question"])),
	}, nil
}

func parseFinalEvaluation(raw string) (*FinalEvaluation, error) {
	fields, err := decodeEvaluation(raw)
	if err != nil {
		return nil, err
	}
	// Any "next question" the oracle erroneously included is dropped here by
	// construction: the final variant has no field for it.
	return &FinalEvaluation{
		Score:     coerceScore(fields["score"]),
		Reasoning: coerceString(fields["reasoning"]),
	}, nil
}

func decodeEvaluation(raw string) (map[string]any, error) {
	cleaned := extractJSON(raw)

	var fields map[string]any
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("parse oracle evaluation: %w", err)
	}
	return fields, nil
}

// extractJSON strips markdown code fences some models wrap JSON replies in.
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

// coerceScore tolerates the score arriving as a JSON number or a numeric
// string; anything unusable falls back to the lowest grade. The value is kept
// as returned, without clamping to the 1-5 rubric.
func coerceScore(v any) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case int:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}
	return 1
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	default:
		if v == nil {
			return ""
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
