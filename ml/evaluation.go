package ml

import (
	"errors"
	"math"
)

// Evaluation mirrors the payload of /api/metrics. Accuracies are
// percentages, precision/recall/F1 are fractions.
type Evaluation struct {
	TestAccuracy    float64  `json:"test_accuracy"`
	TrainAccuracy   float64  `json:"train_accuracy"`
	Precision       float64  `json:"precision"`
	Recall          float64  `json:"recall"`
	F1Score         float64  `json:"f1_score"`
	ConfusionMatrix [][2]int `json:"confusion_matrix"`
}

// Evaluate scores binary predictions against the true labels. The confusion
// matrix is [[TN, FP], [FN, TP]].
func Evaluate(actual, predicted []int) (Evaluation, error) {
	if len(actual) == 0 {
		return Evaluation{}, errors.New("no samples to evaluate")
	}
	if len(actual) != len(predicted) {
		return Evaluation{}, errors.New("actual/predicted length mismatch")
	}

	var tn, fp, fn, tp int
	for i, label := range actual {
		switch {
		case label == 1 && predicted[i] == 1:
			tp++
		case label == 1:
			fn++
		case predicted[i] == 1:
			fp++
		default:
			tn++
		}
	}

	eval := Evaluation{
		TestAccuracy:    round(float64(tp+tn)/float64(len(actual))*100, 2),
		ConfusionMatrix: [][2]int{{tn, fp}, {fn, tp}},
	}
	var precision, recall float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		eval.F1Score = round(2*precision*recall/(precision+recall), 2)
	}
	eval.Precision = round(precision, 2)
	eval.Recall = round(recall, 2)
	return eval, nil
}

func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.RoundToEven(value*factor) / factor
}
