// Package models holds the AI engine's wire schemas. Required request
// fields are pointers so that a missing or null value fails validation
// while an explicit empty string or zero is accepted.
package models

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Prompt is the request body of POST /ai/suggest.
type Prompt struct {
	Prompt *string `json:"prompt" validate:"required"`
}

// Transaction is the request body of POST /ai/fraud-check.
// Timestamp is carried as sent and never parsed.
type Transaction struct {
	UserID    *string `json:"user_id" validate:"required"`
	Amount    *Amount `json:"amount" validate:"required"`
	Type      *string `json:"type" validate:"required"`
	Timestamp *string `json:"timestamp" validate:"required"`
}

// Amount decodes from a JSON number or from a string holding one, so
// "12.5" and 12.5 are the same amount.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return &json.UnmarshalTypeError{Value: jsonKind(raw, data), Type: reflect.TypeOf(float64(0))}
	}
	*a = Amount(f)
	return nil
}

func jsonKind(raw string, data []byte) string {
	switch {
	case len(data) > 0 && data[0] == '"':
		return "string"
	case raw == "true" || raw == "false":
		return "bool"
	case strings.HasPrefix(raw, "{"):
		return "object"
	case strings.HasPrefix(raw, "["):
		return "array"
	default:
		return "number"
	}
}

type Suggestion struct {
	Suggestion string `json:"suggestion"`
}

type FraudAssessment struct {
	Suspicious bool    `json:"suspicious"`
	Score      float64 `json:"score"`
}

type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
