package prediction

import (
	"fmt"
	"math"
	"strconv"
)

// PredictionRequest carries the twelve measurements. Fields are pointers so
// an absent field can be told apart from a zero value.
type PredictionRequest struct {
	Gender      *int     `json:"gender"`
	Height      *int     `json:"height"`
	Weight      *float64 `json:"weight"`
	ApHi        *int     `json:"ap_hi"`
	ApLo        *int     `json:"ap_lo"`
	Cholesterol *int     `json:"cholesterol"`
	Gluc        *int     `json:"gluc"`
	Smoke       *int     `json:"smoke"`
	Alco        *int     `json:"alco"`
	Active      *int     `json:"active"`
	AgeYears    *int     `json:"age_years"`
	BMI         *float64 `json:"BMI"`
}

// Int and Float build optional field values.
func Int(v int) *int { return &v }

func Float(v float64) *float64 { return &v }

// Bound is the accepted closed interval for one field.
type Bound struct {
	Field string
	Min   float64
	Max   float64
}

// Bounds lists every field in feature order.
var Bounds = []Bound{
	{Field: "gender", Min: 1, Max: 2},
	{Field: "height", Min: 100, Max: 250},
	{Field: "weight", Min: 30, Max: 200},
	{Field: "ap_hi", Min: 80, Max: 200},
	{Field: "ap_lo", Min: 40, Max: 140},
	{Field: "cholesterol", Min: 1, Max: 3},
	{Field: "gluc", Min: 1, Max: 3},
	{Field: "smoke", Min: 0, Max: 1},
	{Field: "alco", Min: 0, Max: 1},
	{Field: "active", Min: 0, Max: 1},
	{Field: "age_years", Min: 30, Max: 80},
	{Field: "BMI", Min: 10, Max: 60},
}

// slot returns the storage for the named field; exactly one result is
// non-nil for a known field.
func (r *PredictionRequest) slot(field string) (**int, **float64) {
	switch field {
	case "gender":
		return &r.Gender, nil
	case "height":
		return &r.Height, nil
	case "weight":
		return nil, &r.Weight
	case "ap_hi":
		return &r.ApHi, nil
	case "ap_lo":
		return &r.ApLo, nil
	case "cholesterol":
		return &r.Cholesterol, nil
	case "gluc":
		return &r.Gluc, nil
	case "smoke":
		return &r.Smoke, nil
	case "alco":
		return &r.Alco, nil
	case "active":
		return &r.Active, nil
	case "age_years":
		return &r.AgeYears, nil
	case "BMI":
		return nil, &r.BMI
	}
	return nil, nil
}

// value returns the named field as a float and whether it was supplied.
func (r PredictionRequest) value(field string) (float64, bool) {
	ip, fp := r.slot(field)
	switch {
	case ip != nil && *ip != nil:
		return float64(**ip), true
	case fp != nil && *fp != nil:
		return **fp, true
	default:
		return 0, false
	}
}

// maxExactInt is the largest magnitude a float64 holds without losing
// integer precision.
const maxExactInt = 1 << 53

// Set assigns a field by its JSON name. Integer fields accept integral
// floats such as 50.0 and reject values with a fractional part.
func (r *PredictionRequest) Set(field string, v float64) error {
	ip, fp := r.slot(field)
	switch {
	case ip != nil:
		if v != math.Trunc(v) || math.Abs(v) > maxExactInt {
			return fmt.Errorf("must be an integer, got %s", strconv.FormatFloat(v, 'f', -1, 64))
		}
		*ip = Int(int(v))
	case fp != nil:
		*fp = Float(v)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}
