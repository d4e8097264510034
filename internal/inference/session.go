package inference

import (
	"fmt"
	"sync"
)

// State tracks the session lifecycle. On the target device Shutdown is never
// reached in normal operation; process restart is the only teardown.
type State int

const (
	Uninitialized State = iota
	Ready
	Running
	Shutdown
)

// DefaultArenaBytes is the scratch arena size used when configuration does
// not override it. Sized generously above the model's measured working set.
const DefaultArenaBytes = 300 * 1024

// Session drives one inference at a time against a loaded model. It owns the
// process-wide scratch arena, allocated once at startup and never resized or
// freed. A mutex serializes Run so interleaved calls cannot corrupt the
// engine's tensor bindings even if the boundary layer misbehaves.
type Session struct {
	mu      sync.Mutex
	state   State
	runtime Runtime
	desc    Descriptor
	arena   []byte
	edge    int
	classes int
}

// NewSession returns a session in the Uninitialized state.
func NewSession(rt Runtime) *Session {
	return &Session{runtime: rt}
}

// Initialize allocates the arena, loads the model and validates the
// descriptor against both the supported schema and the engine's actual tensor
// shapes. Any failure is fatal for the session: it stays Uninitialized and
// the device should refuse to serve requests.
func (s *Session) Initialize(modelPath, metadataPath string, arenaBytes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Uninitialized {
		return fmt.Errorf("initialize called twice")
	}
	if arenaBytes <= 0 {
		arenaBytes = DefaultArenaBytes
	}

	desc, err := LoadDescriptor(metadataPath)
	if err != nil {
		return err
	}
	if desc.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("%w: schema version %d, supported %d",
			ErrModelVersion, desc.SchemaVersion, SupportedSchemaVersion)
	}
	edge, err := desc.InputEdge()
	if err != nil {
		return err
	}
	if desc.NumClasses <= 0 {
		return fmt.Errorf("%w: num_classes %d", ErrModelVersion, desc.NumClasses)
	}
	if len(desc.Classes) > 0 && len(desc.Classes) != desc.NumClasses {
		return fmt.Errorf("%w: %d classes declared, %d labels listed",
			ErrModelVersion, desc.NumClasses, len(desc.Classes))
	}
	if desc.ArenaBytes > arenaBytes {
		return fmt.Errorf("%w: need %d bytes, have %d",
			ErrArenaExhausted, desc.ArenaBytes, arenaBytes)
	}

	// The one allocation of process lifetime. Everything the engine binds
	// during load is budgeted against this region.
	arena := make([]byte, arenaBytes)

	if err := s.runtime.Load(modelPath, desc); err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	if got := s.runtime.InputLen(); got != edge*edge {
		s.runtime.Close()
		return fmt.Errorf("%w: engine input size %d, descriptor %d",
			ErrModelVersion, got, edge*edge)
	}
	if got := s.runtime.OutputLen(); got != desc.NumClasses {
		s.runtime.Close()
		return fmt.Errorf("%w: engine output size %d, descriptor %d",
			ErrModelVersion, got, desc.NumClasses)
	}

	s.desc = desc
	s.arena = arena
	s.edge = edge
	s.classes = desc.NumClasses
	s.state = Ready
	return nil
}

// Run executes one forward pass over a quantized edge×edge tensor and
// returns the raw per-class scores. Errors here are per-request: the session
// returns to Ready and later calls may succeed.
func (s *Session) Run(input []int8) ([]int8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return nil, ErrNotReady
	}
	if len(input) != s.edge*s.edge {
		return nil, fmt.Errorf("%w: input %d samples, want %d",
			ErrShapeMismatch, len(input), s.edge*s.edge)
	}

	s.state = Running
	defer func() { s.state = Ready }()

	output := make([]int8, s.classes)
	if err := s.runtime.Invoke(input, output); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}
	return output, nil
}

// Top scans the score vector once and returns the winning class index and
// its raw score. Ties resolve to the first index encountered; the stable
// left-to-right scan is part of the observable classification contract.
func Top(scores []int8) (int, int8) {
	best := 0
	bestScore := scores[0]
	for i, v := range scores {
		if v > bestScore {
			bestScore = v
			best = i
		}
	}
	return best, bestScore
}

// Confidence maps a raw int8 score to [0,1] as (score+128)/255. This is a
// monotonic remap of the quantized score domain, not a calibrated
// probability, and is kept for compatibility with the device firmware.
func Confidence(score int8) float64 {
	return float64(int(score)+128) / 255.0
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// InputEdge returns the model input edge length N. Valid once Ready.
func (s *Session) InputEdge() int { return s.edge }

// Classes returns the training label list from the model metadata, or nil
// when the artifact ships without one.
func (s *Session) Classes() []string { return s.desc.Classes }

// ArenaSize reports the provisioned scratch arena size in bytes.
func (s *Session) ArenaSize() int { return len(s.arena) }

// Close releases the engine. Only used by tests and orderly shutdown paths;
// the embedded target never calls it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Ready {
		s.runtime.Close()
	}
	s.state = Shutdown
}
