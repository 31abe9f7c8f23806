package model

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

func defaultLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "/usr/lib/libonnxruntime.so"
	}
}

// initRuntime loads the shared library once per process.
func initRuntime(libPath string) error {
	ortOnce.Do(func() {
		if libPath == "" {
			libPath = defaultLibraryPath()
		}
		ort.SetSharedLibraryPath(libPath)
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNX runs a model exported with one float32 input of shape [1, n] and
// one float32 output of shape [1, k]. The last output column is taken as
// the up probability, which fits both a single sigmoid output and a
// [p_down, p_up] classifier head.
type ONNX struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	n       int
}

func NewONNX(cfg Config, nFeatures int) (*ONNX, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("onnx: model path is required")
	}
	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	inName := cfg.InputName
	if inName == "" {
		inName = "input"
	}
	outName := cfg.OutputName
	if outName == "" {
		outName = "output"
	}
	outputs := cfg.Outputs
	if outputs <= 0 {
		outputs = 1
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(nFeatures)), make([]float32, nFeatures))
	if err != nil {
		return nil, fmt.Errorf("onnx: create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(outputs)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("onnx: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.Path,
		[]string{inName}, []string{outName},
		[]ort.Value{input}, []ort.Value{output}, nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("onnx: create session for %s: %w", cfg.Path, err)
	}

	return &ONNX{session: session, input: input, output: output, n: nFeatures}, nil
}

func (m *ONNX) Predict(features []float32) (float64, error) {
	if len(features) != m.n {
		return 0, fmt.Errorf("onnx: want %d features, got %d", m.n, len(features))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return 0, fmt.Errorf("onnx: model closed")
	}
	copy(m.input.GetData(), features)
	if err := m.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx: inference failed: %w", err)
	}
	out := m.output.GetData()
	if len(out) == 0 {
		return 0, fmt.Errorf("onnx: empty output")
	}
	return float64(out[len(out)-1]), nil
}

func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var first error
	if m.session != nil {
		first = m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		if err := m.input.Destroy(); err != nil && first == nil {
			first = err
		}
		m.input = nil
	}
	if m.output != nil {
		if err := m.output.Destroy(); err != nil && first == nil {
			first = err
		}
		m.output = nil
	}
	return first
}
