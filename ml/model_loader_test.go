package ml

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testBundle(t *testing.T) Bundle {
	t.Helper()
	forest := RandomForest{Trees: []DecisionTree{stump(0, []float64{80, 20}, []float64{30, 70})}}
	raw, err := json.Marshal(forest)
	if err != nil {
		t.Fatalf("marshal forest: %v", err)
	}
	ones := make([]float64, 12)
	zeros := make([]float64, 12)
	for i := range ones {
		ones[i] = 1
	}
	return Bundle{
		ModelType:       ModelTypeRandomForest,
		Features:        FeatureNames(),
		Parameters:      map[string]interface{}{"n_estimators": 1},
		TrainingSamples: 54837,
		TestSamples:     13710,
		Scaler:          ScalerSpec{Type: ScalerTypeStandard, Mean: zeros, Scale: ones},
		Model:           raw,
	}
}

func writeBundle(t *testing.T, bundle Bundle) string {
	t.Helper()
	payload, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatalf("write bundle: %v", err)
	}
	return path
}

func TestLoadBundle(t *testing.T) {
	path := writeBundle(t, testBundle(t))

	artifacts, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !artifacts.Loaded() {
		t.Fatal("expected artifacts to be loaded")
	}
	if artifacts.Info.ModelType != "Random Forest Classifier" {
		t.Fatalf("unexpected model type: %s", artifacts.Info.ModelType)
	}
	if artifacts.Info.TrainingSamples != 54837 || artifacts.Info.TestSamples != 13710 {
		t.Fatalf("unexpected sample counts: %+v", artifacts.Info)
	}

	vector := make([]float64, 12)
	vector[3] = 1
	scaled, err := artifacts.Scaler.Transform(vector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := artifacts.Classifier.PredictProbability(scaled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.7 {
		t.Fatalf("expected 0.7, got %f", proba[1])
	}
}

func TestLoadBundleMissingFile(t *testing.T) {
	if _, err := LoadBundle(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseBundleRejectsReorderedFeatures(t *testing.T) {
	bundle := testBundle(t)
	features := FeatureNames()
	features[0], features[1] = features[1], features[0]
	bundle.Features = features
	payload, _ := json.Marshal(bundle)
	if _, err := ParseBundle(payload); err == nil {
		t.Fatal("expected error for reordered features")
	}
}

func TestParseBundleRejectsUnknownModel(t *testing.T) {
	bundle := testBundle(t)
	bundle.ModelType = "svm"
	payload, _ := json.Marshal(bundle)
	_, err := ParseBundle(payload)
	if !errors.Is(err, ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}

func TestParseBundleRejectsScalerShape(t *testing.T) {
	bundle := testBundle(t)
	bundle.Scaler.Mean = []float64{0, 0}
	payload, _ := json.Marshal(bundle)
	if _, err := ParseBundle(payload); err == nil {
		t.Fatal("expected error for short scaler")
	}
}

func TestParseBundleRejectsBadTree(t *testing.T) {
	bundle := testBundle(t)
	forest := RandomForest{Trees: []DecisionTree{{Nodes: []TreeNode{
		{FeatureIdx: 40, Threshold: 0, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: []float64{1, 0}},
		{IsLeaf: true, Value: []float64{0, 1}},
	}}}}
	bundle.Model, _ = json.Marshal(forest)
	payload, _ := json.Marshal(bundle)
	if _, err := ParseBundle(payload); err == nil {
		t.Fatal("expected error for out of range feature index")
	}
}

func TestParseBundleLogisticRegression(t *testing.T) {
	bundle := testBundle(t)
	bundle.ModelType = ModelTypeLogisticRegression
	bundle.Model, _ = json.Marshal(LogisticRegression{Coefficients: make([]float64, 12), Intercept: 0})
	payload, _ := json.Marshal(bundle)
	artifacts, err := ParseBundle(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	proba, err := artifacts.Classifier.PredictProbability(make([]float64, 12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proba[1] != 0.5 {
		t.Fatalf("expected 0.5, got %f", proba[1])
	}
}
