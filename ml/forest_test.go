package ml

import (
	"math"
	"testing"
)

// stump splits on ap_hi (index 3) at the given threshold.
func stump(threshold float64, left, right []float64) DecisionTree {
	return DecisionTree{Nodes: []TreeNode{
		{FeatureIdx: 3, Threshold: threshold, LeftChild: 1, RightChild: 2},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, IsLeaf: true, Value: left},
		{FeatureIdx: -1, LeftChild: -1, RightChild: -1, IsLeaf: true, Value: right},
	}}
}

func TestRandomForestPredictProbability(t *testing.T) {
	forest := &RandomForest{
		Trees: []DecisionTree{
			stump(0.5, []float64{90, 10}, []float64{20, 80}),
			stump(1.0, []float64{70, 30}, []float64{40, 60}),
		},
		NumFeatures: 12,
	}

	low := make([]float64, 12)
	proba, err := forest.PredictProbability(low)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[1]-0.2) > 1e-9 {
		t.Fatalf("expected p1=0.2, got %f", proba[1])
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-9 {
		t.Fatalf("probabilities do not sum to 1: %v", proba)
	}
	label, err := forest.Predict(low)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}

	high := make([]float64, 12)
	high[3] = 2
	proba, err = forest.PredictProbability(high)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(proba[1]-0.7) > 1e-9 {
		t.Fatalf("expected p1=0.7, got %f", proba[1])
	}
	label, _ = forest.Predict(high)
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestRandomForestTieResolvesToNegative(t *testing.T) {
	forest := &RandomForest{Trees: []DecisionTree{stump(0.5, []float64{1, 1}, []float64{1, 1})}}
	label, err := forest.Predict(make([]float64, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected tie to resolve to 0, got %d", label)
	}
}

func TestRandomForestShapeMismatch(t *testing.T) {
	forest := &RandomForest{Trees: []DecisionTree{stump(0.5, []float64{1, 0}, []float64{0, 1})}, NumFeatures: 12}
	if _, err := forest.PredictProbability([]float64{1, 2, 3}); err == nil {
		t.Fatal("expected error for wrong vector length")
	}
	empty := &RandomForest{}
	if _, err := empty.Predict(make([]float64, 12)); err == nil {
		t.Fatal("expected error for empty forest")
	}
}

func TestDecisionTreeRejectsCycle(t *testing.T) {
	tree := DecisionTree{Nodes: []TreeNode{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 0},
	}}
	if _, err := tree.Probability([]float64{0}); err == nil {
		t.Fatal("expected error for cyclic tree")
	}
}

func TestLogisticRegression(t *testing.T) {
	model := &LogisticRegression{Coefficients: []float64{1, -1}, Intercept: 0}
	proba, err := model.PredictProbability([]float64{0, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.5 {
		t.Fatalf("expected 0.5, got %f", proba[1])
	}
	label, _ := model.Predict([]float64{0, 0})
	if label != 0 {
		t.Fatalf("expected 0 at the decision boundary, got %d", label)
	}
	label, _ = model.Predict([]float64{3, 0})
	if label != 1 {
		t.Fatalf("expected 1, got %d", label)
	}
	if _, err := model.Predict([]float64{1}); err == nil {
		t.Fatal("expected error for wrong vector length")
	}
}
