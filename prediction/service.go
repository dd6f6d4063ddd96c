// Package prediction turns a validated set of measurements into a
// cardiovascular-disease prediction and risk tier.
package prediction

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cardioguard/ml"
)

// PredictionResult is the raw classifier output for one request.
type PredictionResult struct {
	Label       int
	Probability float64
}

// PredictionResponse is what the transport serializes. Probability is a
// percentage rounded to two decimals; Result keeps the unrounded value.
type PredictionResponse struct {
	Prediction  int              `json:"prediction"`
	Probability float64          `json:"probability"`
	RiskLevel   RiskLevel        `json:"risk_level"`
	Message     string           `json:"message"`
	Result      PredictionResult `json:"-"`
}

type Service struct {
	artifacts *ml.Artifacts
	cache     *ResultCache
	observer  StageObserver
	logger    *zap.Logger
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithStageObserver(observer StageObserver) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

func WithResultCache(cache *ResultCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// NewService wraps artifacts loaded at startup. A nil or incomplete artifact
// set yields a degraded service that rejects every request with
// KindModelUnavailable.
func NewService(artifacts *ml.Artifacts, opts ...Option) *Service {
	s := &Service{
		artifacts: artifacts,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready reports whether both classifier and scaler are loaded.
func (s *Service) Ready() bool {
	return s.artifacts.Loaded()
}

func (s *Service) ClassifierLoaded() bool {
	return s.artifacts != nil && s.artifacts.Classifier != nil
}

func (s *Service) ScalerLoaded() bool {
	return s.artifacts != nil && s.artifacts.Scaler != nil
}

// ModelInfo returns the metadata of the loaded bundle.
func (s *Service) ModelInfo() (ml.ModelInfo, bool) {
	if !s.ClassifierLoaded() {
		return ml.ModelInfo{}, false
	}
	return s.artifacts.Info, true
}

func (s *Service) CacheStats() (CacheStats, bool) {
	if s.cache == nil {
		return CacheStats{}, false
	}
	return s.cache.Stats(), true
}

// Predict runs the pipeline. It either returns a complete response or an
// *Error describing the stage that failed.
func (s *Service) Predict(req PredictionRequest) (*PredictionResponse, error) {
	s.enter(StageIdle)

	s.enter(StageValidating)
	if err := Validate(req); err != nil {
		return nil, s.fail(err)
	}

	s.enter(StageBuilding)
	vector, err := BuildFeatureVector(req)
	if err != nil {
		return nil, s.fail(err)
	}

	result, err := s.classify(vector)
	if err != nil {
		return nil, s.fail(err)
	}

	s.enter(StageTiering)
	assessment := Tier(result.Probability)

	s.enter(StageResponding)
	return &PredictionResponse{
		Prediction:  result.Label,
		Probability: Percentage(result.Probability),
		RiskLevel:   assessment.Level,
		Message:     assessment.Message,
		Result:      result,
	}, nil
}

func (s *Service) classify(vector FeatureVector) (PredictionResult, error) {
	s.enter(StageScaling)
	if !s.Ready() {
		return PredictionResult{}, &Error{Kind: KindModelUnavailable, Stage: StageScaling, Err: errors.New("classifier or scaler is not loaded")}
	}
	if s.cache != nil {
		if result, ok := s.cache.Get(vector); ok {
			s.enter(StageInferring)
			return result, nil
		}
	}

	scaled, err := s.scale(vector)
	if err != nil {
		return PredictionResult{}, &Error{Kind: KindInference, Stage: StageScaling, Err: err}
	}

	s.enter(StageInferring)
	result, err := s.infer(scaled)
	if err != nil {
		return PredictionResult{}, &Error{Kind: KindInference, Stage: StageInferring, Err: err}
	}
	if s.cache != nil {
		s.cache.Add(vector, result)
	}
	return result, nil
}

func (s *Service) scale(vector FeatureVector) (scaled []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scaler panicked: %v", r)
		}
	}()
	scaled, err = s.artifacts.Scaler.Transform(vector[:])
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}
	if len(scaled) != NumFeatures {
		return nil, fmt.Errorf("scaler returned %d features, want %d", len(scaled), NumFeatures)
	}
	return scaled, nil
}

func (s *Service) infer(scaled []float64) (result PredictionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panicked: %v", r)
		}
	}()
	label, err := s.artifacts.Classifier.Predict(scaled)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("predict: %w", err)
	}
	if label != 0 && label != 1 {
		return PredictionResult{}, fmt.Errorf("classifier returned label %d", label)
	}
	proba, err := s.artifacts.Classifier.PredictProbability(scaled)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("predict probability: %w", err)
	}
	if len(proba) != 2 {
		return PredictionResult{}, fmt.Errorf("classifier returned %d class probabilities, want 2", len(proba))
	}
	p := proba[1]
	// NaN fails both comparisons
	if !(p >= 0 && p <= 1) {
		return PredictionResult{}, fmt.Errorf("classifier returned probability %v", p)
	}
	return PredictionResult{Label: label, Probability: p}, nil
}

func (s *Service) enter(stage Stage) {
	if s.observer != nil {
		s.observer(stage)
	}
}

func (s *Service) fail(err error) error {
	s.enter(StageFailed)
	var perr *Error
	if !errors.As(err, &perr) {
		perr = &Error{Kind: KindInference, Stage: StageFailed, Err: err}
		err = perr
	}
	switch perr.Kind {
	case KindValidation, KindSchema:
		s.logger.Debug("prediction rejected", zap.String("stage", perr.Stage.String()), zap.String("field", perr.Field), zap.Error(err))
	case KindModelUnavailable:
		s.logger.Warn("prediction without loaded model", zap.Error(err))
	default:
		s.logger.Error("prediction failed", zap.String("stage", perr.Stage.String()), zap.Error(err))
	}
	return err
}
