// Package dataset summarizes the cleaned training CSV served by /api/data-stats.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	TargetColumn = "cardio"
	ageColumn    = "age_years"
	bmiColumn    = "BMI"
	genderColumn = "gender"
)

var ErrMissingColumn = errors.New("dataset column missing")

type Stats struct {
	TotalSamples       int            `json:"total_samples"`
	Features           []string       `json:"features"`
	TargetDistribution map[string]int `json:"target_distribution"`
	FeatureStats       FeatureStats   `json:"feature_stats"`
}

type FeatureStats struct {
	AgeRange           string         `json:"age_range"`
	AvgBMI             float64        `json:"avg_bmi"`
	GenderDistribution map[string]int `json:"gender_distribution"`
}

// Compute reads a CSV with a header row. A leading UTF-8 or UTF-16 BOM is
// accepted.
func Compute(r io.Reader) (*Stats, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	features := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		features[i] = name
		index[name] = i
	}
	for _, name := range []string{TargetColumn, ageColumn, bmiColumn, genderColumn} {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	stats := &Stats{
		Features:           features,
		TargetDistribution: map[string]int{"No Disease": 0, "Has Disease": 0},
	}
	gender := map[string]int{"Female": 0, "Male": 0}
	minAge, maxAge := math.Inf(1), math.Inf(-1)
	var bmiSum float64

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, err := parseRow(record, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		stats.TotalSamples++
		switch row.target {
		case 0:
			stats.TargetDistribution["No Disease"]++
		case 1:
			stats.TargetDistribution["Has Disease"]++
		}
		switch row.gender {
		case 1:
			gender["Female"]++
		case 2:
			gender["Male"]++
		}
		minAge = math.Min(minAge, row.age)
		maxAge = math.Max(maxAge, row.age)
		bmiSum += row.bmi
	}

	stats.FeatureStats.GenderDistribution = gender
	if stats.TotalSamples > 0 {
		stats.FeatureStats.AgeRange = fmt.Sprintf("%d-%d years", int(minAge), int(maxAge))
		stats.FeatureStats.AvgBMI = math.RoundToEven(bmiSum/float64(stats.TotalSamples)*100) / 100
	}
	return stats, nil
}

type row struct {
	target float64
	gender float64
	age    float64
	bmi    float64
}

func parseRow(record []string, index map[string]int) (row, error) {
	var r row
	fields := []struct {
		name string
		dst  *float64
	}{
		{TargetColumn, &r.target},
		{genderColumn, &r.gender},
		{ageColumn, &r.age},
		{bmiColumn, &r.bmi},
	}
	for _, f := range fields {
		i := index[f.name]
		if i >= len(record) {
			return r, fmt.Errorf("%w: %s", ErrMissingColumn, f.name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
		if err != nil {
			return r, fmt.Errorf("parse %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return r, nil
}

// Source computes Stats for a file on first use and keeps them until
// Invalidate is called.
type Source struct {
	path   string
	logger *zap.Logger

	mu    sync.Mutex
	stats *Stats
}

func NewSource(path string, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{path: path, logger: logger}
}

func (s *Source) Path() string {
	return s.path
}

func (s *Source) Stats() (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats != nil {
		return s.stats, nil
	}
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	stats, err := Compute(file)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", s.path, err)
	}
	s.stats = stats
	s.logger.Info("dataset stats computed",
		zap.String("path", s.path),
		zap.Int("total_samples", stats.TotalSamples))
	return stats, nil
}

// Invalidate drops the cached stats; the next Stats call rereads the file.
func (s *Source) Invalidate() {
	s.mu.Lock()
	s.stats = nil
	s.mu.Unlock()
}
