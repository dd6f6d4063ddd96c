package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadLabelled(t *testing.T) {
	var rows []LabelledRow
	err := ReadLabelled(strings.NewReader(sampleCSV), func(row LabelledRow) error {
		rows = append(rows, row)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 4)

	first := rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 0, first.Label)
	assert.Equal(t, 50, *first.Request.AgeYears)
	assert.Equal(t, 62.0, *first.Request.Weight)
	assert.Equal(t, 21.97, *first.Request.BMI)
	assert.Equal(t, 1, rows[1].Label)
}

func TestReadLabelledErrors(t *testing.T) {
	header := "gender,height,weight,ap_hi,ap_lo,cholesterol,gluc,smoke,alco,active,cardio,age_years,BMI\n"
	cases := map[string]string{
		"missing column": "gender,height\n1,160\n",
		"bad number":     header + "2,168,62.0,110,80,1,1,0,0,1,0,fifty,21.97\n",
		"fractional int": header + "2,168.5,62.0,110,80,1,1,0,0,1,0,50,21.97\n",
		"bad target":     header + "2,168,62.0,110,80,1,1,0,0,1,2,50,21.97\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			err := ReadLabelled(strings.NewReader(body), func(LabelledRow) error { return nil })
			assert.Error(t, err)
		})
	}
}

func TestReadLabelledStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	err := ReadLabelled(strings.NewReader(sampleCSV), func(LabelledRow) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
