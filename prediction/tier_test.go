package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTier(t *testing.T) {
	cases := []struct {
		probability float64
		want        RiskLevel
	}{
		{0, RiskLow},
		{0.29, RiskLow},
		{0.2999999, RiskLow},
		{0.30, RiskModerate},
		{0.59, RiskModerate},
		{0.5999999, RiskModerate},
		{0.60, RiskHigh},
		{1, RiskHigh},
	}
	for _, tc := range cases {
		got := Tier(tc.probability)
		assert.Equal(t, tc.want, got.Level, "p=%v", tc.probability)
		assert.NotEmpty(t, got.Message)
	}
}

func TestTier_Messages(t *testing.T) {
	assert.Equal(t, "Low probability of cardiovascular disease. Maintain a healthy lifestyle!", Tier(0.1).Message)
	assert.Equal(t, "Moderate risk detected. Consider consulting a healthcare professional.", Tier(0.4).Message)
	assert.Equal(t, "High risk detected. Please consult a healthcare professional soon.", Tier(0.9).Message)
}

func TestPercentage(t *testing.T) {
	cases := map[float64]float64{
		0.12:     12,
		0.123456: 12.35,
		0.5:      50,
		1:        100,
		0:        0,
		0.29999:  30,
		0.53945:  53.95,
		0.58425:  58.43,
		0.38095:  38.09,
		0.13925:  13.93,
	}
	for p, want := range cases {
		assert.Equal(t, want, Percentage(p), "p=%v", p)
	}
}
