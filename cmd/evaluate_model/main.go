package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"cardioguard/config"
	"cardioguard/dataset"
	"cardioguard/db"
	"cardioguard/logging"
	"cardioguard/ml"
	"cardioguard/prediction"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	dataPath := flag.String("data", "", "labelled CSV (defaults to dataset.path)")
	modelPath := flag.String("model_path", "", "model bundle (defaults to model.bundle_path)")
	save := flag.Bool("save", true, "store the result in the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dataPath != "" {
		cfg.Dataset.Path = *dataPath
	}
	if *modelPath != "" {
		cfg.Model.BundlePath = *modelPath
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	artifacts, err := ml.LoadBundle(cfg.Model.BundlePath)
	if err != nil {
		logger.Fatal("failed to load model", zap.Error(err))
	}
	service := prediction.NewService(artifacts, prediction.WithLogger(logger))

	result, err := evaluateModel(service, cfg.Dataset.Path)
	if err != nil {
		logger.Fatal("evaluation failed", zap.Error(err))
	}
	e := result.Evaluation
	logger.Info("model evaluated",
		zap.String("model_type", artifacts.Info.ModelType),
		zap.Int("samples", result.Samples),
		zap.Int("skipped", result.Skipped),
		zap.Float64("accuracy", e.TestAccuracy),
		zap.Float64("precision", e.Precision),
		zap.Float64("recall", e.Recall),
		zap.Float64("f1_score", e.F1Score))

	if *save {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.SaveEvaluation(ctx, evaluationRecord(artifacts.Info, result)); err != nil {
			logger.Fatal("failed to save evaluation", zap.Error(err))
		}
	}

	fmt.Printf("accuracy=%.2f%% precision=%.2f recall=%.2f f1=%.2f samples=%d\n",
		e.TestAccuracy, e.Precision, e.Recall, e.F1Score, result.Samples)
}

// evaluationRecord keeps the training accuracy recorded in the bundle, since
// a labelled CSV only measures held-out performance.
func evaluationRecord(info ml.ModelInfo, result evaluationResult) db.EvaluationRecord {
	e := result.Evaluation
	if info.Metrics != nil {
		e.TrainAccuracy = info.Metrics.TrainAccuracy
	}
	return db.EvaluationRecord{
		ModelName:  info.ModelType,
		Evaluation: e,
		Samples:    result.Samples,
	}
}

type evaluationResult struct {
	Evaluation ml.Evaluation
	Samples    int
	// Skipped counts rows outside the accepted input bounds.
	Skipped int
}

// evaluateModel runs every row through the serving pipeline. Rows the API
// would reject with a validation error are skipped; any other failure aborts.
func evaluateModel(service *prediction.Service, path string) (evaluationResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return evaluationResult{}, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	var result evaluationResult
	var actual, predicted []int
	err = dataset.ReadLabelled(file, func(row dataset.LabelledRow) error {
		resp, err := service.Predict(row.Request)
		if errors.Is(err, prediction.ErrValidation) {
			result.Skipped++
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", row.Line, err)
		}
		actual = append(actual, row.Label)
		predicted = append(predicted, resp.Prediction)
		return nil
	})
	if err != nil {
		return evaluationResult{}, err
	}

	result.Evaluation, err = ml.Evaluate(actual, predicted)
	if err != nil {
		return evaluationResult{}, err
	}
	result.Samples = len(actual)
	return result, nil
}
