package prediction

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardioguard/ml"
)

func TestValidate_ExampleRequest(t *testing.T) {
	assert.NoError(t, Validate(exampleRequest()))
}

func TestValidate_Boundaries(t *testing.T) {
	for _, bound := range Bounds {
		bound := bound
		t.Run(bound.Field, func(t *testing.T) {
			assert.NoError(t, Validate(withField(exampleRequest(), bound.Field, bound.Min)), "min accepted")
			assert.NoError(t, Validate(withField(exampleRequest(), bound.Field, bound.Max)), "max accepted")

			for _, value := range []float64{bound.Min - 1, bound.Max + 1} {
				err := Validate(withField(exampleRequest(), bound.Field, value))
				require.Error(t, err, "value %v", value)
				assert.True(t, errors.Is(err, ErrValidation))
				assert.Equal(t, KindValidation, KindOf(err))

				var perr *Error
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, bound.Field, perr.Field)
				assert.Equal(t, StageValidating, perr.Stage)
			}
		})
	}
}

func TestValidate_AgeBoundaries(t *testing.T) {
	cases := []struct {
		age     int
		wantErr bool
	}{
		{29, true},
		{30, false},
		{80, false},
		{81, true},
	}
	for _, tc := range cases {
		req := exampleRequest()
		req.AgeYears = Int(tc.age)
		err := Validate(req)
		if tc.wantErr {
			assert.Equal(t, KindValidation, KindOf(err), "age %d", tc.age)
		} else {
			assert.NoError(t, err, "age %d", tc.age)
		}
	}
}

func TestValidate_MissingField(t *testing.T) {
	req := exampleRequest()
	req.BMI = nil

	err := Validate(req)
	require.Error(t, err)

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "BMI", perr.Field)
	assert.Equal(t, "field required", perr.Violations[0].Message)
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	req := exampleRequest()
	req.Gender = nil
	req.ApHi = Int(300)
	req.Weight = Float(math.NaN())

	err := Validate(req)
	var perr *Error
	require.True(t, errors.As(err, &perr))
	require.Len(t, perr.Violations, 3)
	assert.Equal(t, "gender", perr.Field)
	assert.Equal(t, []string{"gender", "weight", "ap_hi"}, []string{
		perr.Violations[0].Field, perr.Violations[1].Field, perr.Violations[2].Field,
	})
}

func TestBuildFeatureVector_Order(t *testing.T) {
	req := PredictionRequest{
		Gender:      Int(1),
		Height:      Int(2),
		Weight:      Float(3),
		ApHi:        Int(4),
		ApLo:        Int(5),
		Cholesterol: Int(6),
		Gluc:        Int(7),
		Smoke:       Int(8),
		Alco:        Int(9),
		Active:      Int(10),
		AgeYears:    Int(11),
		BMI:         Float(12),
	}
	vector, err := BuildFeatureVector(req)
	require.NoError(t, err)
	assert.Len(t, vector, len(ml.FeatureNames()))
	for i := range vector {
		assert.Equal(t, float64(i+1), vector[i], "feature %s", ml.FeatureNames()[i])
	}
}

func TestBuildFeatureVector_IgnoresInputKeyOrder(t *testing.T) {
	shuffled := `{"BMI":21.97,"age_years":50,"active":1,"alco":0,"smoke":0,"gluc":1,
		"cholesterol":1,"ap_lo":80,"ap_hi":110,"weight":62.0,"height":168,"gender":2}`
	var req PredictionRequest
	require.NoError(t, json.Unmarshal([]byte(shuffled), &req))

	got, err := BuildFeatureVector(req)
	require.NoError(t, err)
	want, err := BuildFeatureVector(exampleRequest())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, FeatureVector{2, 168, 62, 110, 80, 1, 1, 0, 0, 1, 50, 21.97}, got)
}

func TestBuildFeatureVector_MissingField(t *testing.T) {
	req := exampleRequest()
	req.Gluc = nil

	_, err := BuildFeatureVector(req)
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Equal(t, KindSchema, KindOf(err))
}

func TestPredictionRequest_Set(t *testing.T) {
	var req PredictionRequest
	for i, name := range ml.FeatureNames() {
		require.NoError(t, req.Set(name, float64(i+1)))
	}
	vector, err := BuildFeatureVector(req)
	require.NoError(t, err)
	assert.Equal(t, FeatureVector{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, vector)

	require.NoError(t, req.Set("age_years", 50.0))
	assert.Equal(t, 50, *req.AgeYears)
	assert.EqualError(t, req.Set("age_years", 50.5), "must be an integer, got 50.5")
	assert.Error(t, req.Set("height", 1e300))
	assert.Error(t, req.Set("cardio", 1))
	require.NoError(t, req.Set("BMI", 21.97))
	assert.Equal(t, 21.97, *req.BMI)
}
