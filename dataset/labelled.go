package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"cardioguard/ml"
	"cardioguard/prediction"
)

// LabelledRow is one dataset row as a prediction request plus its target.
type LabelledRow struct {
	Line    int
	Request prediction.PredictionRequest
	Label   int
}

// ReadLabelled calls fn for every row of a CSV holding the model features
// and the target column. Extra columns are ignored. Reading stops at the
// first error returned by fn.
func ReadLabelled(r io.Reader, fn func(LabelledRow) error) error {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	columns := append(ml.FeatureNames(), TargetColumn)
	for _, name := range columns {
		if _, ok := index[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read line %d: %w", line, err)
		}

		row := LabelledRow{Line: line}
		for _, name := range ml.FeatureNames() {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[index[name]]), 64)
			if err != nil {
				return fmt.Errorf("line %d: parse %s: %w", line, name, err)
			}
			if err := row.Request.Set(name, v); err != nil {
				return fmt.Errorf("line %d: %s: %w", line, name, err)
			}
		}
		label, err := strconv.Atoi(strings.TrimSpace(record[index[TargetColumn]]))
		if err != nil || (label != 0 && label != 1) {
			return fmt.Errorf("line %d: %s must be 0 or 1, got %q", line, TargetColumn, record[index[TargetColumn]])
		}
		row.Label = label

		if err := fn(row); err != nil {
			return err
		}
	}
}
