package ml

import (
	"errors"
	"fmt"
	"math"
)

type LogisticRegression struct {
	Coefficients []float64 `json:"coef"`
	Intercept    float64   `json:"intercept"`
}

func (lr *LogisticRegression) PredictProbability(features []float64) ([]float64, error) {
	if len(lr.Coefficients) == 0 {
		return nil, errors.New("model not trained")
	}
	if len(features) != len(lr.Coefficients) {
		return nil, fmt.Errorf("expected %d features, got %d", len(lr.Coefficients), len(features))
	}
	z := lr.Intercept
	for i, value := range features {
		z += lr.Coefficients[i] * value
	}
	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	proba, err := lr.PredictProbability(features)
	if err != nil {
		return 0, err
	}
	if proba[1] > 0.5 {
		return 1, nil
	}
	return 0, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
