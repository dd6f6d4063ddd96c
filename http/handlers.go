package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cardioguard/dataset"
	"cardioguard/db"
	"cardioguard/ml"
	"cardioguard/monitoring"
	"cardioguard/prediction"
)

const (
	serviceName    = "CardioGuard AI - Cardiovascular Disease Prediction API"
	serviceVersion = "1.0.0"

	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// Predictor 预测服务，由 prediction.Service 实现
type Predictor interface {
	Predict(req prediction.PredictionRequest) (*prediction.PredictionResponse, error)
	ClassifierLoaded() bool
	ScalerLoaded() bool
	ModelInfo() (ml.ModelInfo, bool)
	CacheStats() (prediction.CacheStats, bool)
}

// PredictionStore 审计日志与评估结果存储，由 db.Store 实现
type PredictionStore interface {
	SavePrediction(ctx context.Context, record db.PredictionRecord) error
	RecentPredictions(ctx context.Context, limit int) ([]db.PredictionRecord, error)
	LatestEvaluation(ctx context.Context) (*db.EvaluationRecord, error)
}

// DatasetStats 数据集统计，由 dataset.Source 实现
type DatasetStats interface {
	Stats() (*dataset.Stats, error)
}

// Deps 处理器依赖。除 Predictor 外均可为空
type Deps struct {
	Predictor Predictor
	Store     PredictionStore
	Dataset   DatasetStats
	Metrics   *monitoring.MetricsCollector
	Hub       *monitoring.Hub
	Logger    *zap.Logger
}

// Handlers API处理器集合
type Handlers struct {
	predictor Predictor
	store     PredictionStore
	dataset   DatasetStats
	metrics   *monitoring.MetricsCollector
	hub       *monitoring.Hub
	logger    *zap.Logger
}

func NewHandlers(deps Deps) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		predictor: deps.Predictor,
		store:     deps.Store,
		dataset:   deps.Dataset,
		metrics:   deps.Metrics,
		hub:       deps.Hub,
		logger:    logger,
	}
}

// Register 注册所有路由
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("POST /api/predict", h.handlePredict)
	mux.HandleFunc("GET /api/model-info", h.handleModelInfo)
	mux.HandleFunc("GET /api/metrics", h.handleMetrics)
	mux.HandleFunc("GET /api/data-stats", h.handleDataStats)
	mux.HandleFunc("GET /api/predictions/recent", h.handleRecentPredictions)
	mux.HandleFunc("GET /api/monitoring/stats", h.handleMonitoringStats)
	if h.hub != nil {
		mux.HandleFunc("GET /api/ws/predictions", h.hub.HandleWebSocket)
	}
}

func (h *Handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": serviceName,
		"version": serviceVersion,
		"endpoints": map[string]string{
			"health":             "/api/health",
			"predict":            "/api/predict",
			"model_info":         "/api/model-info",
			"metrics":            "/api/metrics",
			"data_stats":         "/api/data-stats",
			"recent_predictions": "/api/predictions/recent",
			"monitoring":         "/api/monitoring/stats",
			"prediction_stream":  "/api/ws/predictions",
		},
	})
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "healthy",
		"model_loaded":  h.predictor.ClassifierLoaded(),
		"scaler_loaded": h.predictor.ScalerLoaded(),
	})
}

type modelInfoResponse struct {
	ModelType       string                 `json:"model_type"`
	Parameters      map[string]interface{} `json:"parameters"`
	Features        []string               `json:"features"`
	TrainingSamples int                    `json:"training_samples"`
	TestSamples     int                    `json:"test_samples"`
}

func (h *Handlers) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := h.predictor.ModelInfo()
	if !ok {
		respondError(w, http.StatusServiceUnavailable, errorResponse{
			Detail: "Model not loaded",
			Kind:   prediction.KindModelUnavailable.String(),
		})
		return
	}
	respondJSON(w, http.StatusOK, modelInfoResponse{
		ModelType:       info.ModelType,
		Parameters:      info.Parameters,
		Features:        info.Features,
		TrainingSamples: info.TrainingSamples,
		TestSamples:     info.TestSamples,
	})
}

// handleMetrics 优先返回最近一次离线评估，其次是模型包中记录的指标
func (h *Handlers) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		record, err := h.store.LatestEvaluation(r.Context())
		switch {
		case err == nil:
			evaluation := record.Evaluation
			if info, ok := h.predictor.ModelInfo(); ok && info.Metrics != nil && evaluation.TrainAccuracy == 0 {
				evaluation.TrainAccuracy = info.Metrics.TrainAccuracy
			}
			respondJSON(w, http.StatusOK, evaluation)
			return
		case !errors.Is(err, db.ErrNotFound):
			h.logger.Error("load latest evaluation", zap.Error(err))
			respondError(w, http.StatusInternalServerError, errorResponse{Detail: "Error loading metrics"})
			return
		}
	}
	if info, ok := h.predictor.ModelInfo(); ok && info.Metrics != nil {
		respondJSON(w, http.StatusOK, info.Metrics)
		return
	}
	respondError(w, http.StatusNotFound, errorResponse{Detail: "No evaluation metrics available"})
}

func (h *Handlers) handleDataStats(w http.ResponseWriter, r *http.Request) {
	if h.dataset == nil {
		respondError(w, http.StatusNotFound, errorResponse{Detail: "Dataset not configured"})
		return
	}
	stats, err := h.dataset.Stats()
	if err != nil {
		h.logger.Error("compute dataset stats", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errorResponse{Detail: "Error loading data: " + err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) handleRecentPredictions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusNotFound, errorResponse{Detail: "Prediction log not configured"})
		return
	}
	limit := defaultRecentLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, errorResponse{Detail: "limit must be a positive integer"})
			return
		}
		limit = min(l, maxRecentLimit)
	}

	records, err := h.store.RecentPredictions(r.Context(), limit)
	if err != nil {
		h.logger.Error("load recent predictions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, errorResponse{Detail: "Error loading predictions"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

func (h *Handlers) handleMonitoringStats(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{}
	if h.metrics != nil {
		response["predictions"] = h.metrics.Snapshot()
	}
	if stats, ok := h.predictor.CacheStats(); ok {
		response["cache"] = stats
	}
	if h.hub != nil {
		response["websocket"] = h.hub.Stats()
	}
	respondJSON(w, http.StatusOK, response)
}

type errorResponse struct {
	Detail     string                 `json:"detail"`
	Kind       string                 `json:"kind,omitempty"`
	Field      string                 `json:"field,omitempty"`
	Violations []prediction.Violation `json:"violations,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, body errorResponse) {
	respondJSON(w, status, body)
}
