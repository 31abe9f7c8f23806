package model

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Logistic is a linear model squashed through a sigmoid. Its weights are
// kept in a small YAML file so a model can be swapped without cgo.
type Logistic struct {
	Features []string  `yaml:"features,omitempty"`
	Weights  []float64 `yaml:"weights"`
	Bias     float64   `yaml:"bias"`
}

func LoadLogistic(path string, nFeatures int) (*Logistic, error) {
	if path == "" {
		return nil, fmt.Errorf("logistic: model path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("logistic: read %s: %w", path, err)
	}

	m := &Logistic{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("logistic: parse %s: %w", path, err)
	}
	if len(m.Weights) != nFeatures {
		return nil, fmt.Errorf("logistic: %s has %d weights, want %d", path, len(m.Weights), nFeatures)
	}
	return m, nil
}

func (m *Logistic) Predict(features []float32) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("logistic: want %d features, got %d", len(m.Weights), len(features))
	}
	z := m.Bias
	for i, w := range m.Weights {
		z += w * float64(features[i])
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (m *Logistic) Close() error {
	return nil
}
