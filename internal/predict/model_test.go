package predict

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func sampleInput() Input {
	return Input{
		Age: intp(63), Sex: intp(1), CP: intp(3), Trestbps: intp(145), Chol: intp(233),
		FBS: intp(1), RestECG: intp(0), Thalach: intp(150), Exang: intp(0), Oldpeak: floatp(2.3),
		Slope: intp(0), CA: intp(0), Thal: intp(1),
	}
}

// artifactJSON builds an artifact where only the named feature has a weight.
func artifactJSON(t *testing.T, feature string, weight, intercept float64, threshold *float64) string {
	t.Helper()
	coefficients := make([]float64, len(Features))
	for i, name := range Features {
		if name == feature {
			coefficients[i] = weight
		}
	}
	a := artifact{
		Name:         "test",
		FeatureNames: Features,
		Coefficients: coefficients,
		Intercept:    intercept,
		Threshold:    threshold,
	}
	data, err := json.Marshal(a)
	require.NoError(t, err)
	return string(data)
}

func TestParse_AndPredict(t *testing.T) {
	// z = 0.1*age - 5; age 63 -> z = 1.3
	m, err := Parse(strings.NewReader(artifactJSON(t, "age", 0.1, -5, nil)))
	require.NoError(t, err)

	result, err := m.Predict(sampleInput())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Prediction)
	assert.Equal(t, MessagePositive, result.Message)
	assert.InDelta(t, 1/(1+math.Exp(-1.3)), result.Probability, 1e-9)

	in := sampleInput()
	in.Age = intp(30) // z = -2
	result, err = m.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Prediction)
	assert.Equal(t, MessageNegative, result.Message)
	assert.Less(t, result.Probability, 0.5)
}

func TestPredict_Threshold(t *testing.T) {
	// z = 0 -> p = 0.5 exactly
	m, err := Parse(strings.NewReader(artifactJSON(t, "age", 0, 0, nil)))
	require.NoError(t, err)
	result, err := m.Predict(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Prediction, "p equal to the threshold is positive")

	m, err = Parse(strings.NewReader(artifactJSON(t, "age", 0, 0, floatp(0.7))))
	require.NoError(t, err)
	result, err = m.Predict(sampleInput())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Prediction)
}

func TestPredict_FeatureOrderFollowsArtifact(t *testing.T) {
	reversed := make([]string, len(Features))
	coefficients := make([]float64, len(Features))
	for i, name := range Features {
		reversed[len(Features)-1-i] = name
	}
	// Weight only oldpeak, which sits at a different index once reversed.
	for i, name := range reversed {
		if name == "oldpeak" {
			coefficients[i] = 1
		}
	}

	data, err := json.Marshal(artifact{FeatureNames: reversed, Coefficients: coefficients})
	require.NoError(t, err)

	m, err := Parse(strings.NewReader(string(data)))
	require.NoError(t, err)

	result, err := m.Predict(sampleInput())
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2.3)), result.Probability, 1e-9)
}

func TestPredict_MissingFeature(t *testing.T) {
	m, err := Parse(strings.NewReader(artifactJSON(t, "age", 0.1, 0, nil)))
	require.NoError(t, err)

	in := sampleInput()
	in.Thal = nil
	_, err = m.Predict(in)
	assert.ErrorIs(t, err, ErrMissingFeature)

	in = sampleInput()
	in.Oldpeak = nil
	_, err = m.Predict(in)
	assert.ErrorIs(t, err, ErrMissingFeature)
}

func TestParse_Invalid(t *testing.T) {
	valid := func() artifact {
		return artifact{FeatureNames: append([]string(nil), Features...), Coefficients: make([]float64, len(Features))}
	}

	tests := []struct {
		name   string
		modify func(*artifact)
	}{
		{"too few features", func(a *artifact) { a.FeatureNames = a.FeatureNames[:12]; a.Coefficients = a.Coefficients[:12] }},
		{"coefficient count mismatch", func(a *artifact) { a.Coefficients = a.Coefficients[:12] }},
		{"unknown feature", func(a *artifact) { a.FeatureNames[0] = "weight" }},
		{"duplicate feature", func(a *artifact) { a.FeatureNames[1] = "age" }},
		{"threshold zero", func(a *artifact) { a.Threshold = floatp(0) }},
		{"threshold one", func(a *artifact) { a.Threshold = floatp(1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.modify(&a)
			data, err := json.Marshal(a)
			require.NoError(t, err)

			_, err = Parse(strings.NewReader(string(data)))
			assert.ErrorIs(t, err, ErrInvalidModel)
		})
	}

	_, err := Parse(strings.NewReader("{not json"))
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestLoad(t *testing.T) {
	m, err := Load(filepath.Join("..", "..", "model", "heart_disease_lr.json"))
	require.NoError(t, err)
	assert.Equal(t, "heart-disease-lr 2024.1", m.Name())

	result, err := m.Predict(sampleInput())
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, result.Prediction)
	assert.True(t, result.Probability > 0 && result.Probability < 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
