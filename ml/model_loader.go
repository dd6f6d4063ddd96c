package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	ModelTypeRandomForest       = "random_forest"
	ModelTypeLogisticRegression = "logistic_regression"

	ScalerTypeStandard = "standard"
	ScalerTypeMinMax   = "minmax"
)

var ErrUnsupportedModel = errors.New("unsupported model type")

// Bundle is the on-disk artifact: the fitted classifier, the scaler fitted
// alongside it and the metadata reported by /api/model-info.
type Bundle struct {
	ModelType       string                 `json:"model_type"`
	Features        []string               `json:"features"`
	Parameters      map[string]interface{} `json:"parameters,omitempty"`
	TrainingSamples int                    `json:"training_samples"`
	TestSamples     int                    `json:"test_samples"`
	Metrics         *Evaluation            `json:"metrics,omitempty"`
	Scaler          ScalerSpec             `json:"scaler"`
	Model           json.RawMessage        `json:"model"`
}

type ScalerSpec struct {
	Type  string    `json:"type"`
	Mean  []float64 `json:"mean,omitempty"`
	Scale []float64 `json:"scale,omitempty"`
	Min   []float64 `json:"min,omitempty"`
	Max   []float64 `json:"max,omitempty"`
}

// FeatureNames is the column order the bundled artifacts were fitted on.
func FeatureNames() []string {
	return []string{
		"gender",
		"height",
		"weight",
		"ap_hi",
		"ap_lo",
		"cholesterol",
		"gluc",
		"smoke",
		"alco",
		"active",
		"age_years",
		"BMI",
	}
}

func LoadBundle(path string) (*Artifacts, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model bundle: %w", err)
	}
	artifacts, err := ParseBundle(payload)
	if err != nil {
		return nil, fmt.Errorf("load model bundle %s: %w", path, err)
	}
	return artifacts, nil
}

func ParseBundle(payload []byte) (*Artifacts, error) {
	var bundle Bundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if err := checkFeatureOrder(bundle.Features); err != nil {
		return nil, err
	}
	numFeatures := len(FeatureNames())

	scaler, err := buildScaler(bundle.Scaler, numFeatures)
	if err != nil {
		return nil, err
	}
	classifier, err := buildClassifier(bundle.ModelType, bundle.Model, numFeatures)
	if err != nil {
		return nil, err
	}

	return &Artifacts{
		Classifier: classifier,
		Scaler:     scaler,
		Info: ModelInfo{
			ModelType:       displayName(bundle.ModelType),
			Parameters:      bundle.Parameters,
			Features:        FeatureNames(),
			TrainingSamples: bundle.TrainingSamples,
			TestSamples:     bundle.TestSamples,
			Metrics:         bundle.Metrics,
		},
	}, nil
}

func checkFeatureOrder(features []string) error {
	if len(features) == 0 {
		return nil
	}
	expected := FeatureNames()
	if len(features) != len(expected) {
		return fmt.Errorf("bundle has %d features, want %d", len(features), len(expected))
	}
	for i, name := range expected {
		if features[i] != name {
			return fmt.Errorf("bundle feature %d is %q, want %q", i, features[i], name)
		}
	}
	return nil
}

func buildScaler(spec ScalerSpec, numFeatures int) (Scaler, error) {
	switch spec.Type {
	case ScalerTypeStandard, "":
		if len(spec.Mean) != numFeatures {
			return nil, fmt.Errorf("standard scaler has %d features, want %d", len(spec.Mean), numFeatures)
		}
		return NewStandardScaler(spec.Mean, spec.Scale)
	case ScalerTypeMinMax:
		if len(spec.Min) != numFeatures {
			return nil, fmt.Errorf("minmax scaler has %d features, want %d", len(spec.Min), numFeatures)
		}
		return NewMinMaxScaler(spec.Min, spec.Max)
	default:
		return nil, fmt.Errorf("unsupported scaler type %q", spec.Type)
	}
}

func buildClassifier(modelType string, raw json.RawMessage, numFeatures int) (Classifier, error) {
	if len(raw) == 0 {
		return nil, errors.New("bundle has no model")
	}
	switch modelType {
	case ModelTypeRandomForest:
		model := &RandomForest{}
		if err := json.Unmarshal(raw, model); err != nil {
			return nil, fmt.Errorf("decode random forest: %w", err)
		}
		if model.NumFeatures == 0 {
			model.NumFeatures = numFeatures
		}
		if model.NumFeatures != numFeatures {
			return nil, fmt.Errorf("random forest has %d features, want %d", model.NumFeatures, numFeatures)
		}
		if err := model.validate(numFeatures); err != nil {
			return nil, err
		}
		return model, nil
	case ModelTypeLogisticRegression:
		model := &LogisticRegression{}
		if err := json.Unmarshal(raw, model); err != nil {
			return nil, fmt.Errorf("decode logistic regression: %w", err)
		}
		if len(model.Coefficients) != numFeatures {
			return nil, fmt.Errorf("logistic regression has %d coefficients, want %d", len(model.Coefficients), numFeatures)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}
}

func displayName(modelType string) string {
	switch modelType {
	case ModelTypeRandomForest:
		return "Random Forest Classifier"
	case ModelTypeLogisticRegression:
		return "Logistic Regression"
	default:
		return modelType
	}
}
