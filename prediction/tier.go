package prediction

import "strconv"

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low Risk"
	RiskModerate RiskLevel = "Moderate Risk"
	RiskHigh     RiskLevel = "High Risk"
)

// Lower bounds, inclusive, of the moderate and high tiers.
const (
	ModerateRiskThreshold = 0.30
	HighRiskThreshold     = 0.60
)

type RiskAssessment struct {
	Level   RiskLevel `json:"risk_level"`
	Message string    `json:"message"`
}

// Tier maps the unrounded class-1 probability to a risk category.
func Tier(probability float64) RiskAssessment {
	switch {
	case probability < ModerateRiskThreshold:
		return RiskAssessment{
			Level:   RiskLow,
			Message: "Low probability of cardiovascular disease. Maintain a healthy lifestyle!",
		}
	case probability < HighRiskThreshold:
		return RiskAssessment{
			Level:   RiskModerate,
			Message: "Moderate risk detected. Consider consulting a healthcare professional.",
		}
	default:
		return RiskAssessment{
			Level:   RiskHigh,
			Message: "High risk detected. Please consult a healthcare professional soon.",
		}
	}
}

// Percentage converts a probability to a percentage with two decimals. The
// exact binary value of probability*100 is rounded, so a product that lies
// just above or below a decimal tie rounds the way it actually lies.
func Percentage(probability float64) float64 {
	v, _ := strconv.ParseFloat(strconv.FormatFloat(probability*100, 'f', 2, 64), 64)
	return v
}
