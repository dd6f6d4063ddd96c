// Package monitoring 提供预测指标统计与基于WebSocket的实时推送
package monitoring

import (
	"sync"
	"time"

	"cardioguard/prediction"
)

// Outcome 单次预测的结果，由 HTTP 层在响应后记录
type Outcome struct {
	Kind      prediction.ErrorKind
	RiskLevel prediction.RiskLevel
	Latency   time.Duration
}

// MetricsCollector 进程内预测指标收集器
type MetricsCollector struct {
	mu         sync.RWMutex
	total      int64
	byKind     map[string]int64
	byRisk     map[string]int64
	stages     map[string]int64
	latencySum time.Duration
	latencyMax time.Duration
	last       time.Time
	startTime  time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		byKind:    make(map[string]int64),
		byRisk:    make(map[string]int64),
		stages:    make(map[string]int64),
		startTime: time.Now(),
	}
}

// Record 记录一次预测
func (mc *MetricsCollector) Record(o Outcome) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.total++
	kind := "success"
	if o.Kind != prediction.KindNone {
		kind = o.Kind.String()
	}
	mc.byKind[kind]++
	if o.Kind == prediction.KindNone && o.RiskLevel != "" {
		mc.byRisk[string(o.RiskLevel)]++
	}
	mc.latencySum += o.Latency
	if o.Latency > mc.latencyMax {
		mc.latencyMax = o.Latency
	}
	mc.last = time.Now()
}

// ObserveStage 实现 prediction.StageObserver，统计每个阶段的进入次数
func (mc *MetricsCollector) ObserveStage(stage prediction.Stage) {
	mc.mu.Lock()
	mc.stages[stage.String()]++
	mc.mu.Unlock()
}

// Snapshot 指标快照
type Snapshot struct {
	TotalPredictions int64            `json:"total_predictions"`
	Outcomes         map[string]int64 `json:"outcomes"`
	RiskLevels       map[string]int64 `json:"risk_levels"`
	Stages           map[string]int64 `json:"stages"`
	AvgLatencyMS     float64          `json:"avg_latency_ms"`
	MaxLatencyMS     float64          `json:"max_latency_ms"`
	LastPrediction   *time.Time       `json:"last_prediction,omitempty"`
	UptimeSeconds    float64          `json:"uptime_seconds"`
}

// Snapshot 获取当前指标的拷贝
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	s := Snapshot{
		TotalPredictions: mc.total,
		Outcomes:         copyCounts(mc.byKind),
		RiskLevels:       copyCounts(mc.byRisk),
		Stages:           copyCounts(mc.stages),
		MaxLatencyMS:     milliseconds(mc.latencyMax),
		UptimeSeconds:    time.Since(mc.startTime).Seconds(),
	}
	if mc.total > 0 {
		s.AvgLatencyMS = milliseconds(mc.latencySum) / float64(mc.total)
	}
	if !mc.last.IsZero() {
		last := mc.last
		s.LastPrediction = &last
	}
	return s
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
