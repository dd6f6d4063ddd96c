package ml

import (
	"errors"
	"fmt"
)

type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.New("scaler mean is empty")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean/scale length mismatch: %d != %d", len(mean), len(scale))
	}
	return &StandardScaler{
		Mean:  append([]float64(nil), mean...),
		Scale: append([]float64(nil), scale...),
	}, nil
}

func (s *StandardScaler) Transform(vector []float64) ([]float64, error) {
	if len(vector) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Mean), len(vector))
	}
	result := make([]float64, len(vector))
	for i, value := range vector {
		scale := s.Scale[i]
		// zero-variance columns are left centred, not divided
		if scale == 0 {
			scale = 1
		}
		result[i] = (value - s.Mean[i]) / scale
	}
	return result, nil
}

type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

func NewMinMaxScaler(mins, maxs []float64) (*MinMaxScaler, error) {
	if len(mins) == 0 {
		return nil, errors.New("scaler min is empty")
	}
	if len(mins) != len(maxs) {
		return nil, fmt.Errorf("scaler min/max length mismatch: %d != %d", len(mins), len(maxs))
	}
	return &MinMaxScaler{
		Min: append([]float64(nil), mins...),
		Max: append([]float64(nil), maxs...),
	}, nil
}

func (s *MinMaxScaler) Transform(vector []float64) ([]float64, error) {
	return NormalizeVector(vector, s.Min, s.Max)
}

func NormalizeFeature(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	return (value - min) / (max - min)
}

func NormalizeVector(values []float64, mins []float64, maxs []float64) ([]float64, error) {
	if len(values) != len(mins) || len(values) != len(maxs) {
		return nil, fmt.Errorf("expected %d features, got %d", len(mins), len(values))
	}
	result := make([]float64, len(values))
	for i := range values {
		result[i] = NormalizeFeature(values[i], mins[i], maxs[i])
	}
	return result, nil
}
