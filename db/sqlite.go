package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"cardioguard/ml"
	"cardioguard/prediction"
)

var ErrNotFound = errors.New("record not found")

// Store persists the prediction audit log and offline evaluation results.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	database, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	database.SetMaxOpenConns(4)

	store := &Store{db: database}
	if err := store.migrate(); err != nil {
		database.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS predictions (
            id TEXT PRIMARY KEY,
            request TEXT NOT NULL,
            prediction INTEGER NOT NULL,
            probability REAL NOT NULL,
            raw_probability REAL NOT NULL,
            risk_level TEXT NOT NULL,
            created_at DATETIME NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at)`,
		`CREATE TABLE IF NOT EXISTS model_evaluations (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            model_name TEXT NOT NULL,
            test_accuracy REAL NOT NULL,
            train_accuracy REAL DEFAULT 0,
            precision REAL NOT NULL,
            recall REAL NOT NULL,
            f1_score REAL NOT NULL,
            confusion_matrix TEXT NOT NULL,
            samples INTEGER NOT NULL,
            evaluated_at DATETIME NOT NULL
        )`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type PredictionRecord struct {
	ID             string                       `json:"id"`
	Request        prediction.PredictionRequest `json:"request"`
	Prediction     int                          `json:"prediction"`
	Probability    float64                      `json:"probability"`
	RawProbability float64                      `json:"-"`
	RiskLevel      string                       `json:"risk_level"`
	CreatedAt      time.Time                    `json:"created_at"`
}

// NewPredictionRecord stamps a served prediction with an id and time.
func NewPredictionRecord(req prediction.PredictionRequest, resp *prediction.PredictionResponse) PredictionRecord {
	return PredictionRecord{
		ID:             uuid.NewString(),
		Request:        req,
		Prediction:     resp.Prediction,
		Probability:    resp.Probability,
		RawProbability: resp.Result.Probability,
		RiskLevel:      string(resp.RiskLevel),
		CreatedAt:      time.Now().UTC(),
	}
}

func (s *Store) SavePrediction(ctx context.Context, record PredictionRecord) error {
	payload, err := json.Marshal(record.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO predictions (id, request, prediction, probability, raw_probability, risk_level, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, string(payload), record.Prediction, record.Probability, record.RawProbability,
		record.RiskLevel, record.CreatedAt)
	return err
}

// RecentPredictions returns up to limit records, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, request, prediction, probability, raw_probability, risk_level, created_at
        FROM predictions
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var r PredictionRecord
		var request string
		if err := rows.Scan(&r.ID, &request, &r.Prediction, &r.Probability, &r.RawProbability, &r.RiskLevel, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(request), &r.Request); err != nil {
			return nil, fmt.Errorf("decode request %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type EvaluationRecord struct {
	ModelName   string
	Evaluation  ml.Evaluation
	Samples     int
	EvaluatedAt time.Time
}

func (s *Store) SaveEvaluation(ctx context.Context, record EvaluationRecord) error {
	matrix, err := json.Marshal(record.Evaluation.ConfusionMatrix)
	if err != nil {
		return fmt.Errorf("encode confusion matrix: %w", err)
	}
	if record.EvaluatedAt.IsZero() {
		record.EvaluatedAt = time.Now().UTC()
	}
	e := record.Evaluation
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO model_evaluations (
            model_name, test_accuracy, train_accuracy, precision, recall, f1_score,
            confusion_matrix, samples, evaluated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ModelName, e.TestAccuracy, e.TrainAccuracy, e.Precision, e.Recall, e.F1Score,
		string(matrix), record.Samples, record.EvaluatedAt)
	return err
}

// LatestEvaluation returns ErrNotFound when nothing has been evaluated yet.
func (s *Store) LatestEvaluation(ctx context.Context) (*EvaluationRecord, error) {
	var r EvaluationRecord
	var matrix string
	err := s.db.QueryRowContext(ctx, `
        SELECT model_name, test_accuracy, train_accuracy, precision, recall, f1_score,
               confusion_matrix, samples, evaluated_at
        FROM model_evaluations
        ORDER BY evaluated_at DESC, id DESC
        LIMIT 1`).Scan(
		&r.ModelName, &r.Evaluation.TestAccuracy, &r.Evaluation.TrainAccuracy, &r.Evaluation.Precision,
		&r.Evaluation.Recall, &r.Evaluation.F1Score, &matrix, &r.Samples, &r.EvaluatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(matrix), &r.Evaluation.ConfusionMatrix); err != nil {
		return nil, fmt.Errorf("decode confusion matrix: %w", err)
	}
	return &r, nil
}
