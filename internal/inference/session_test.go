package inference

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeRuntime struct {
	inLen     int
	outLen    int
	scores    []int8
	loadErr   error
	invokeErr error
	lastInput []int8
	closed    bool
}

func (f *fakeRuntime) Load(modelPath string, desc Descriptor) error { return f.loadErr }
func (f *fakeRuntime) InputLen() int                                { return f.inLen }
func (f *fakeRuntime) OutputLen() int                               { return f.outLen }
func (f *fakeRuntime) Close()                                       { f.closed = true }

func (f *fakeRuntime) Invoke(input, output []int8) error {
	if f.invokeErr != nil {
		return f.invokeErr
	}
	f.lastInput = append([]int8(nil), input...)
	copy(output, f.scores)
	return nil
}

func writeMetadata(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	return path
}

const goodMetadata = `{
	"schema_version": 3,
	"input_shape": [1, 96, 96, 1],
	"num_classes": 10,
	"arena_bytes": 200000
}`

func newFake() *fakeRuntime {
	return &fakeRuntime{inLen: 96 * 96, outLen: 10, scores: make([]int8, 10)}
}

func TestInitialize(t *testing.T) {
	s := NewSession(newFake())
	if err := s.Initialize("model.tflite", writeMetadata(t, goodMetadata), 300*1024); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.State() != Ready {
		t.Fatalf("state %v, want Ready", s.State())
	}
	if s.InputEdge() != 96 {
		t.Fatalf("input edge %d, want 96", s.InputEdge())
	}
	if s.ArenaSize() != 300*1024 {
		t.Fatalf("arena size %d, want %d", s.ArenaSize(), 300*1024)
	}
}

func TestInitializeUnsupportedSchema(t *testing.T) {
	meta := `{"schema_version": 2, "input_shape": [1, 96, 96, 1], "num_classes": 10}`
	s := NewSession(newFake())
	err := s.Initialize("model.tflite", writeMetadata(t, meta), 0)
	if !errors.Is(err, ErrModelVersion) {
		t.Fatalf("got error %v, want ErrModelVersion", err)
	}
	if s.State() != Uninitialized {
		t.Fatalf("state %v, want Uninitialized", s.State())
	}
}

func TestInitializeArenaTooSmall(t *testing.T) {
	s := NewSession(newFake())
	err := s.Initialize("model.tflite", writeMetadata(t, goodMetadata), 100*1024)
	if !errors.Is(err, ErrArenaExhausted) {
		t.Fatalf("got error %v, want ErrArenaExhausted", err)
	}
	if s.State() != Uninitialized {
		t.Fatalf("state %v, want Uninitialized", s.State())
	}
}

func TestInitializeBadInputShape(t *testing.T) {
	for _, shape := range []string{"[1, 96, 64, 1]", "[1, 96, 96, 3]", "[96]"} {
		meta := `{"schema_version": 3, "input_shape": ` + shape + `, "num_classes": 10}`
		s := NewSession(newFake())
		err := s.Initialize("model.tflite", writeMetadata(t, meta), 0)
		if !errors.Is(err, ErrModelVersion) {
			t.Fatalf("shape %s: got error %v, want ErrModelVersion", shape, err)
		}
	}
}

func TestInitializeEngineShapeMismatch(t *testing.T) {
	rt := newFake()
	rt.outLen = 7
	s := NewSession(rt)
	err := s.Initialize("model.tflite", writeMetadata(t, goodMetadata), 0)
	if !errors.Is(err, ErrModelVersion) {
		t.Fatalf("got error %v, want ErrModelVersion", err)
	}
	if !rt.closed {
		t.Fatal("engine not released after failed validation")
	}
}

func TestInitializeLabelCountMismatch(t *testing.T) {
	meta := `{"schema_version": 3, "input_shape": [1, 96, 96, 1], "num_classes": 10,
		"classes": ["circle", "square"]}`
	s := NewSession(newFake())
	if err := s.Initialize("model.tflite", writeMetadata(t, meta), 0); !errors.Is(err, ErrModelVersion) {
		t.Fatalf("got error %v, want ErrModelVersion", err)
	}
}

func TestRunBeforeInitialize(t *testing.T) {
	s := NewSession(newFake())
	if _, err := s.Run(make([]int8, 96*96)); !errors.Is(err, ErrNotReady) {
		t.Fatalf("got error %v, want ErrNotReady", err)
	}
}

func TestRunShapeMismatch(t *testing.T) {
	s := NewSession(newFake())
	if err := s.Initialize("model.tflite", writeMetadata(t, goodMetadata), 0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if _, err := s.Run(make([]int8, 10)); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("got error %v, want ErrShapeMismatch", err)
	}
}

func TestRunFailureKeepsSessionReady(t *testing.T) {
	rt := newFake()
	rt.invokeErr = errors.New("engine status 1")
	s := NewSession(rt)
	if err := s.Initialize("model.tflite", writeMetadata(t, goodMetadata), 0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if _, err := s.Run(make([]int8, 96*96)); !errors.Is(err, ErrInference) {
		t.Fatalf("got error %v, want ErrInference", err)
	}
	if s.State() != Ready {
		t.Fatalf("state %v after failed run, want Ready", s.State())
	}

	rt.invokeErr = nil
	if _, err := s.Run(make([]int8, 96*96)); err != nil {
		t.Fatalf("run after recovered engine: %v", err)
	}
}

func TestRunReturnsScores(t *testing.T) {
	rt := newFake()
	rt.scores = []int8{-10, 5, 3, 5, -128, 0, 0, 0, 0, 0}
	s := NewSession(rt)
	if err := s.Initialize("model.tflite", writeMetadata(t, goodMetadata), 0); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	input := make([]int8, 96*96)
	input[0] = 42
	scores, err := s.Run(input)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(scores) != 10 || scores[1] != 5 || scores[4] != -128 {
		t.Fatalf("unexpected scores: %v", scores)
	}
	if rt.lastInput[0] != 42 {
		t.Fatal("input tensor not handed to the engine")
	}
}

func TestTopFirstMaxWins(t *testing.T) {
	cases := []struct {
		scores []int8
		index  int
		score  int8
	}{
		{[]int8{0, 5, 5, 1}, 1, 5},             // tie resolves left
		{[]int8{-128, -128, -128}, 0, -128},    // all equal: index 0
		{[]int8{127, 0, 127}, 0, 127},          // later equal never wins
		{[]int8{-5, -3, -120, -3, -90}, 1, -3}, // all-negative vectors
	}
	for _, c := range cases {
		idx, score := Top(c.scores)
		if idx != c.index || score != c.score {
			t.Fatalf("Top(%v) = (%d, %d), want (%d, %d)", c.scores, idx, score, c.index, c.score)
		}
	}
}

func TestConfidence(t *testing.T) {
	if got := Confidence(-128); got != 0 {
		t.Fatalf("Confidence(-128) = %v, want 0", got)
	}
	if got := Confidence(127); got != 1 {
		t.Fatalf("Confidence(127) = %v, want 1", got)
	}

	prev := Confidence(-128)
	for s := -127; s <= 127; s++ {
		cur := Confidence(int8(s))
		if cur < prev {
			t.Fatalf("confidence not monotonic at score %d: %v < %v", s, cur, prev)
		}
		if cur < 0 || cur > 1 {
			t.Fatalf("confidence %v out of [0,1] at score %d", cur, s)
		}
		prev = cur
	}
}
