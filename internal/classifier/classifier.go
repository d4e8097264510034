// Package classifier ties preprocessing, inference and result composition
// into the single classify(frame) entry point the boundary layer calls.
package classifier

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"shapecam/internal/frame"
	"shapecam/internal/inference"
	"shapecam/internal/preprocess"
	"shapecam/internal/shapes"
)

// Result is one completed classification. Confidence is a monotonic remap of
// the winning quantized score, not a calibrated probability.
type Result struct {
	RequestID       string            `json:"request_id"`
	Label           string            `json:"label"`
	Confidence      float64           `json:"confidence"`
	InferenceTimeMs int64             `json:"inference_time_ms"`
	Formulas        map[string]string `json:"formulas"`
}

// Classifier serves classification requests against one initialized session.
type Classifier struct {
	session *inference.Session
}

// New builds a classifier over a Ready session. When the model metadata
// carries its training label list, it is checked against the compiled label
// table here, so a model/table mismatch fails at startup instead of silently
// mislabeling every request.
func New(session *inference.Session) (*Classifier, error) {
	if classes := session.Classes(); len(classes) > 0 {
		want := shapes.Labels()
		if len(classes) != len(want) {
			return nil, fmt.Errorf("model declares %d classes, label table has %d",
				len(classes), len(want))
		}
		for i := range want {
			if classes[i] != want[i] {
				return nil, fmt.Errorf("label table mismatch at index %d: model %q, table %q",
					i, classes[i], want[i])
			}
		}
	}
	return &Classifier{session: session}, nil
}

// Classify runs the full pipeline for one frame. The clock starts just
// before preprocessing and stops after result composition, matching what the
// device firmware reports.
func (c *Classifier) Classify(f frame.CompressedFrame) (*Result, error) {
	start := time.Now()

	input, err := preprocess.Prepare(f, c.session.InputEdge())
	if err != nil {
		return nil, err
	}

	scores, err := c.session.Run(input)
	if err != nil {
		return nil, err
	}

	idx, score := inference.Top(scores)
	class, ok := shapes.FromIndex(idx)
	if !ok {
		return nil, fmt.Errorf("%w: class index %d out of range", inference.ErrShapeMismatch, idx)
	}
	label := class.Label()

	return &Result{
		RequestID:       uuid.NewString(),
		Label:           label,
		Confidence:      inference.Confidence(score),
		InferenceTimeMs: time.Since(start).Milliseconds(),
		Formulas:        shapes.Formulas(label),
	}, nil
}
