package prediction

import (
	"fmt"

	"cardioguard/ml"
)

// NumFeatures is the width of the vector the artifacts were fitted on.
const NumFeatures = 12

// FeatureVector is ordered as ml.FeatureNames.
type FeatureVector [NumFeatures]float64

// BuildFeatureVector lays the request out in training column order. It does
// no range checks; a missing field yields a KindSchema error.
func BuildFeatureVector(req PredictionRequest) (FeatureVector, error) {
	var vector FeatureVector
	for i, name := range ml.FeatureNames() {
		value, ok := req.value(name)
		if !ok {
			return FeatureVector{}, &Error{
				Kind:  KindSchema,
				Stage: StageBuilding,
				Field: name,
				Err:   fmt.Errorf("feature %s is absent", name),
			}
		}
		vector[i] = value
	}
	return vector, nil
}
