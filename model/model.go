// Package model loads the predictive models behind the predictive
// strategy. A model maps the strategy's feature vector to the probability
// that price moves up on the next bar.
package model

import (
	"fmt"
	"strings"
)

// Model is a loaded predictor. It satisfies strategies.Predictor.
type Model interface {
	Predict(features []float32) (float64, error)
	Close() error
}

type Config struct {
	// Type is "onnx" or "logistic".
	Type string `json:"type" yaml:"type"`
	Path string `json:"path" yaml:"path"`

	// ONNX only.
	LibraryPath string `json:"library_path,omitempty" yaml:"library_path,omitempty"`
	InputName   string `json:"input_name,omitempty" yaml:"input_name,omitempty"`
	OutputName  string `json:"output_name,omitempty" yaml:"output_name,omitempty"`
	Outputs     int    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// Open loads the model described by cfg for vectors of nFeatures values.
func Open(cfg Config, nFeatures int) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "onnx":
		m, err := NewONNX(cfg, nFeatures)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "logistic", "":
		m, err := LoadLogistic(cfg.Path, nFeatures)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown model type %q (supported: onnx, logistic)", cfg.Type)
	}
}
