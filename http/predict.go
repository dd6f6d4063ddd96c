package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cardioguard/db"
	"cardioguard/ml"
	"cardioguard/monitoring"
	"cardioguard/prediction"
)

// handlePredict 解析请求并运行预测流水线
func (h *Handlers) handlePredict(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, status, decodeErr := decodePredictionRequest(r.Body)
	if decodeErr != nil {
		h.record(r, nil, prediction.KindValidation, prediction.StageIdle, time.Since(start))
		respondError(w, status, *decodeErr)
		return
	}

	resp, err := h.predictor.Predict(req)
	latency := time.Since(start)
	if err != nil {
		stage := prediction.StageFailed
		var perr *prediction.Error
		if errors.As(err, &perr) {
			stage = perr.Stage
		}
		h.record(r, nil, prediction.KindOf(err), stage, latency)
		h.respondPredictionError(w, r, err)
		return
	}

	h.record(r, resp, prediction.KindNone, prediction.StageResponding, latency)
	if h.store != nil {
		if err := h.store.SavePrediction(r.Context(), db.NewPredictionRecord(req, resp)); err != nil {
			h.logger.Warn("failed to save prediction",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// decodePredictionRequest 将 JSON 解码错误映射为 422 或 413。
// 数值字段先按 float64 解码，整数字段接受 50.0 这类整数值
func decodePredictionRequest(body io.Reader) (prediction.PredictionRequest, int, *errorResponse) {
	var req prediction.PredictionRequest
	var raw map[string]json.RawMessage
	err := json.NewDecoder(body).Decode(&raw)

	var sizeErr *http.MaxBytesError
	switch {
	case err == nil && raw == nil:
		return req, http.StatusUnprocessableEntity, &errorResponse{
			Detail: "request body must be a JSON object",
			Kind:   prediction.KindValidation.String(),
		}
	case err == nil:
	case errors.As(err, &sizeErr):
		return req, http.StatusRequestEntityTooLarge, &errorResponse{
			Detail: fmt.Sprintf("request body exceeds %d bytes", sizeErr.Limit),
		}
	default:
		return req, http.StatusUnprocessableEntity, &errorResponse{
			Detail: "malformed JSON body",
			Kind:   prediction.KindValidation.String(),
		}
	}

	var violations []prediction.Violation
	for _, name := range ml.FeatureNames() {
		value, ok := raw[name]
		if !ok || string(value) == "null" {
			continue
		}
		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			violations = append(violations, prediction.Violation{Field: name, Message: "must be a number"})
			continue
		}
		if err := req.Set(name, v); err != nil {
			violations = append(violations, prediction.Violation{Field: name, Message: err.Error()})
		}
	}
	if len(violations) > 0 {
		first := violations[0]
		return req, http.StatusUnprocessableEntity, &errorResponse{
			Detail:     fmt.Sprintf("%s: %s", first.Field, first.Message),
			Kind:       prediction.KindValidation.String(),
			Field:      first.Field,
			Violations: violations,
		}
	}
	return req, http.StatusOK, nil
}

func (h *Handlers) respondPredictionError(w http.ResponseWriter, r *http.Request, err error) {
	kind := prediction.KindOf(err)
	var perr *prediction.Error
	errors.As(err, &perr)

	switch kind {
	case prediction.KindValidation, prediction.KindSchema:
		body := errorResponse{Detail: err.Error(), Kind: kind.String()}
		if perr != nil {
			body.Field = perr.Field
			body.Violations = perr.Violations
			if perr.Err != nil {
				body.Detail = perr.Err.Error()
			}
		}
		respondError(w, http.StatusUnprocessableEntity, body)
	case prediction.KindModelUnavailable:
		respondError(w, http.StatusServiceUnavailable, errorResponse{
			Detail: "Model not loaded",
			Kind:   kind.String(),
		})
	default:
		cause := err
		if perr != nil && perr.Err != nil {
			cause = perr.Err
		}
		h.logger.Error("prediction failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, errorResponse{
			Detail: "Prediction error: " + cause.Error(),
			Kind:   prediction.KindInference.String(),
		})
	}
}

// record 更新指标并推送预测事件
func (h *Handlers) record(r *http.Request, resp *prediction.PredictionResponse, kind prediction.ErrorKind, stage prediction.Stage, latency time.Duration) {
	outcome := monitoring.Outcome{Kind: kind, Latency: latency}
	event := monitoring.PredictionEvent{
		RequestID: GetRequestID(r.Context()),
		Outcome:   "success",
		LatencyMS: float64(latency) / float64(time.Millisecond),
	}
	if resp != nil {
		outcome.RiskLevel = resp.RiskLevel
		label := resp.Prediction
		event.Prediction = &label
		event.Probability = resp.Probability
		event.RiskLevel = string(resp.RiskLevel)
	} else {
		event.Outcome = kind.String()
		event.Stage = stage.String()
	}

	if h.metrics != nil {
		h.metrics.Record(outcome)
	}
	if h.hub != nil {
		if err := h.hub.Publish(monitoring.PredictionEventType, event); err != nil {
			h.logger.Warn("failed to publish prediction event", zap.Error(err))
		}
	}
}
