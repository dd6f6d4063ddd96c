package prediction

import (
	"errors"
	"sync"
	"sync/atomic"

	"cardioguard/ml"
)

type fakeScaler struct {
	err   error
	calls atomic.Int64

	mu   sync.Mutex
	last []float64
}

func (f *fakeScaler) Transform(vector []float64) ([]float64, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last = append([]float64(nil), vector...)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]float64(nil), vector...), nil
}

type fakeClassifier struct {
	label      int
	proba      []float64
	err        error
	probaErr   error
	panicValue interface{}
	calls      atomic.Int64
}

func (f *fakeClassifier) Predict(vector []float64) (int, error) {
	f.calls.Add(1)
	if f.panicValue != nil {
		panic(f.panicValue)
	}
	return f.label, f.err
}

func (f *fakeClassifier) PredictProbability(vector []float64) ([]float64, error) {
	if f.probaErr != nil {
		return nil, f.probaErr
	}
	return f.proba, nil
}

func newFakes(label int, p1 float64) (*fakeScaler, *fakeClassifier, *ml.Artifacts) {
	scaler := &fakeScaler{}
	classifier := &fakeClassifier{label: label, proba: []float64{1 - p1, p1}}
	return scaler, classifier, &ml.Artifacts{Classifier: classifier, Scaler: scaler}
}

var errBoom = errors.New("boom")

// exampleRequest is the documented sample patient.
func exampleRequest() PredictionRequest {
	return PredictionRequest{
		Gender:      Int(2),
		Height:      Int(168),
		Weight:      Float(62.0),
		ApHi:        Int(110),
		ApLo:        Int(80),
		Cholesterol: Int(1),
		Gluc:        Int(1),
		Smoke:       Int(0),
		Alco:        Int(0),
		Active:      Int(1),
		AgeYears:    Int(50),
		BMI:         Float(21.97),
	}
}

// withField returns a copy of req with the named field set to value.
func withField(req PredictionRequest, field string, value float64) PredictionRequest {
	if err := req.Set(field, value); err != nil {
		panic(err)
	}
	return req
}
