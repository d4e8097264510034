// Package inference owns the scratch arena, the loaded model and the single
// forward-pass entry point. The neural-network engine itself sits behind the
// Runtime interface; this package only decides how it is provisioned and
// invoked.
package inference

import (
	"encoding/json"
	"fmt"
	"os"
)

// SupportedSchemaVersion is the model flatbuffer schema this build accepts.
const SupportedSchemaVersion = 3

// Descriptor is the metadata sidecar shipped next to the model artifact. The
// class list mirrors the training label order and lets initialization detect
// a label-table/model mismatch instead of trusting positional alignment.
type Descriptor struct {
	SchemaVersion int      `json:"schema_version"`
	InputShape    []int    `json:"input_shape"` // [1, N, N, 1]
	NumClasses    int      `json:"num_classes"`
	Classes       []string `json:"classes"`
	ArenaBytes    int      `json:"arena_bytes"` // declared working set
}

// LoadDescriptor reads and parses a model metadata file.
func LoadDescriptor(path string) (Descriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read model metadata: %w", err)
	}
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse model metadata: %w", err)
	}
	return d, nil
}

// InputEdge returns the square input edge length N, or an error when the
// declared shape is not 1×N×N×1 single-channel.
func (d Descriptor) InputEdge() (int, error) {
	shape := d.InputShape
	if len(shape) == 4 && shape[0] == 1 {
		shape = shape[1:]
	}
	if len(shape) != 3 || shape[2] != 1 || shape[0] != shape[1] || shape[0] <= 0 {
		return 0, fmt.Errorf("%w: input shape %v, want 1xNxNx1", ErrModelVersion, d.InputShape)
	}
	return shape[0], nil
}

// Runtime abstracts the neural-network engine. Engines that manage their own
// native memory treat the arena handed to the session as a declared budget;
// the session validates the model's working set against it at load time and
// never grows it afterwards.
type Runtime interface {
	// Load readies the model artifact. The descriptor supplies declared
	// tensor shapes for engines that need them ahead of loading.
	Load(modelPath string, desc Descriptor) error
	// InputLen and OutputLen report the engine's actual flat tensor sizes.
	InputLen() int
	OutputLen() int
	// Invoke runs one forward pass. input and output must match InputLen
	// and OutputLen exactly.
	Invoke(input, output []int8) error
	Close()
}
