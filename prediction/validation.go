package prediction

import (
	"fmt"
	"math"
	"strconv"
)

// Violation describes one field that failed its bound.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks every field against Bounds. On failure it returns a
// KindValidation *Error naming the first offending field and carrying all
// violations.
func Validate(req PredictionRequest) error {
	var violations []Violation
	for _, bound := range Bounds {
		if msg := bound.check(req); msg != "" {
			violations = append(violations, Violation{Field: bound.Field, Message: msg})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &Error{
		Kind:       KindValidation,
		Stage:      StageValidating,
		Field:      violations[0].Field,
		Violations: violations,
		Err:        fmt.Errorf("%s: %s", violations[0].Field, violations[0].Message),
	}
}

func (b Bound) check(req PredictionRequest) string {
	value, ok := req.value(b.Field)
	if !ok {
		return "field required"
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "must be a finite number"
	}
	if value < b.Min || value > b.Max {
		return fmt.Sprintf("must be between %s and %s, got %s",
			formatBound(b.Min), formatBound(b.Max), strconv.FormatFloat(value, 'f', -1, 64))
	}
	return ""
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
