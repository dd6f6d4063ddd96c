package ml

// Scaler is a fitted per-feature transform. Implementations hold only
// parameters fixed at load time and are safe for concurrent use.
type Scaler interface {
	Transform(vector []float64) ([]float64, error)
}

// Classifier is a fitted binary model. PredictProbability returns
// [p(class 0), p(class 1)].
type Classifier interface {
	Predict(vector []float64) (int, error)
	PredictProbability(vector []float64) ([]float64, error)
}

// Artifacts is the loaded classifier/scaler pair. It is built once at startup
// and shared read-only by every request.
type Artifacts struct {
	Classifier Classifier
	Scaler     Scaler
	Info       ModelInfo
}

// Loaded reports whether both artifacts are present.
func (a *Artifacts) Loaded() bool {
	return a != nil && a.Classifier != nil && a.Scaler != nil
}

type ModelInfo struct {
	ModelType       string                 `json:"model_type"`
	Parameters      map[string]interface{} `json:"parameters"`
	Features        []string               `json:"features"`
	TrainingSamples int                    `json:"training_samples"`
	TestSamples     int                    `json:"test_samples"`
	Metrics         *Evaluation            `json:"metrics,omitempty"`
}
