// Package predict serves the heart disease classifier: a logistic
// regression whose trained weights are loaded from a JSON artifact.
//
// # Usage
//
//	model, err := predict.Load("model/heart_disease_lr.json")
//	result, err := model.Predict(input)
package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
)

const (
	MessagePositive = "The person has Heart Disease"
	MessageNegative = "The person does not have Heart Disease"

	defaultThreshold = 0.5
)

var (
	ErrInvalidModel   = errors.New("invalid model artifact")
	ErrMissingFeature = errors.New("missing feature")
)

// Features lists the inputs the model accepts, in the order the training
// data used.
var Features = []string{
	"age", "sex", "cp", "trestbps", "chol", "fbs", "restecg",
	"thalach", "exang", "oldpeak", "slope", "ca", "thal",
}

// artifact is the on-disk format written by the training notebook.
type artifact struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    *float64  `json:"threshold"`
}

// Model is a loaded logistic regression. It is immutable and safe for
// concurrent use.
type Model struct {
	name      string
	version   string
	features  []string
	weights   []float64
	intercept float64
	threshold float64
}

// Result is the outcome of one prediction.
type Result struct {
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	Message     string  `json:"message"`
}

// Load reads a model artifact from path.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	log.Printf("[PREDICT] loaded model %s %s (%d features)", m.name, m.version, len(m.features))
	return m, nil
}

// Parse decodes and validates a model artifact.
func Parse(r io.Reader) (*Model, error) {
	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}

	if len(a.FeatureNames) != len(Features) {
		return nil, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidModel, len(Features), len(a.FeatureNames))
	}
	if len(a.Coefficients) != len(a.FeatureNames) {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrInvalidModel, len(a.Coefficients), len(a.FeatureNames))
	}

	known := make(map[string]bool, len(Features))
	for _, name := range Features {
		known[name] = true
	}
	seen := make(map[string]bool, len(a.FeatureNames))
	for _, name := range a.FeatureNames {
		if !known[name] {
			return nil, fmt.Errorf("%w: unknown feature %q", ErrInvalidModel, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidModel, name)
		}
		seen[name] = true
	}

	for _, w := range append([]float64{a.Intercept}, a.Coefficients...) {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: non-finite weight", ErrInvalidModel)
		}
	}

	threshold := defaultThreshold
	if a.Threshold != nil {
		threshold = *a.Threshold
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("%w: threshold %v outside (0, 1)", ErrInvalidModel, threshold)
	}

	return &Model{
		name:      a.Name,
		version:   a.Version,
		features:  a.FeatureNames,
		weights:   a.Coefficients,
		intercept: a.Intercept,
		threshold: threshold,
	}, nil
}

// Name returns the artifact name and version, e.g. "heart-disease-lr 2024.1".
func (m *Model) Name() string {
	if m.version == "" {
		return m.name
	}
	return m.name + " " + m.version
}

// Predict classifies one patient record.
func (m *Model) Predict(in Input) (Result, error) {
	values, err := in.values()
	if err != nil {
		return Result{}, err
	}

	z := m.intercept
	for i, name := range m.features {
		z += m.weights[i] * values[name]
	}
	p := sigmoid(z)

	if p >= m.threshold {
		return Result{Prediction: 1, Probability: p, Message: MessagePositive}, nil
	}
	return Result{Prediction: 0, Probability: p, Message: MessageNegative}, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
