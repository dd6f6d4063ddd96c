package monitoring

import (
	"sync"
	"testing"
	"time"

	"cardioguard/prediction"
)

func TestMetricsCollectorRecord(t *testing.T) {
	mc := NewMetricsCollector()
	mc.Record(Outcome{RiskLevel: prediction.RiskLow, Latency: 2 * time.Millisecond})
	mc.Record(Outcome{RiskLevel: prediction.RiskHigh, Latency: 4 * time.Millisecond})
	mc.Record(Outcome{Kind: prediction.KindValidation, Latency: 0})

	s := mc.Snapshot()
	if s.TotalPredictions != 3 {
		t.Fatalf("expected 3 predictions, got %d", s.TotalPredictions)
	}
	if s.Outcomes["success"] != 2 || s.Outcomes["validation_error"] != 1 {
		t.Fatalf("unexpected outcomes: %v", s.Outcomes)
	}
	if s.RiskLevels["Low Risk"] != 1 || s.RiskLevels["High Risk"] != 1 || len(s.RiskLevels) != 2 {
		t.Fatalf("unexpected risk levels: %v", s.RiskLevels)
	}
	if s.AvgLatencyMS != 2 || s.MaxLatencyMS != 4 {
		t.Fatalf("unexpected latency avg=%v max=%v", s.AvgLatencyMS, s.MaxLatencyMS)
	}
	if s.LastPrediction == nil {
		t.Fatal("expected last prediction time")
	}
}

func TestMetricsCollectorEmpty(t *testing.T) {
	s := NewMetricsCollector().Snapshot()
	if s.TotalPredictions != 0 || s.AvgLatencyMS != 0 || s.LastPrediction != nil {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestMetricsCollectorObservesStages(t *testing.T) {
	mc := NewMetricsCollector()
	var observer prediction.StageObserver = mc.ObserveStage

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			observer(prediction.StageValidating)
			observer(prediction.StageFailed)
		}()
	}
	wg.Wait()

	s := mc.Snapshot()
	if s.Stages["validating"] != 10 || s.Stages["failed"] != 10 {
		t.Fatalf("unexpected stage counts: %v", s.Stages)
	}

	// snapshots are copies
	s.Stages["validating"] = 0
	if mc.Snapshot().Stages["validating"] != 10 {
		t.Fatal("snapshot shares state with collector")
	}
}
