package inference

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXRuntime drives an int8-quantized ONNX export of the model. Used on
// hosts where the ONNX Runtime shared library is available; input and output
// tensors are created once at load time and rebound on every call.
type ONNXRuntime struct {
	libPath string
	session *ort.AdvancedSession
	input   *ort.Tensor[int8]
	output  *ort.Tensor[int8]
	inLen   int
	outLen  int
}

// NewONNXRuntime returns an unloaded ONNX engine. sharedLibPath may be empty
// when onnxruntime is on the default library search path.
func NewONNXRuntime(sharedLibPath string) *ONNXRuntime {
	return &ONNXRuntime{libPath: sharedLibPath}
}

func (r *ONNXRuntime) Load(modelPath string, desc Descriptor) error {
	if r.libPath != "" {
		ort.SetSharedLibraryPath(r.libPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx environment: %w", err)
	}

	edge, err := desc.InputEdge()
	if err != nil {
		return err
	}

	inputShape := ort.NewShape(1, int64(edge), int64(edge), 1)
	outputShape := ort.NewShape(1, int64(desc.NumClasses))

	input, err := ort.NewEmptyTensor[int8](inputShape)
	if err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[int8](outputShape)
	if err != nil {
		input.Destroy()
		return fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input"}, []string{"output"},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		nil)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return fmt.Errorf("create onnx session: %w", err)
	}

	r.session = session
	r.input = input
	r.output = output
	r.inLen = edge * edge
	r.outLen = desc.NumClasses
	return nil
}

func (r *ONNXRuntime) InputLen() int  { return r.inLen }
func (r *ONNXRuntime) OutputLen() int { return r.outLen }

func (r *ONNXRuntime) Invoke(input, output []int8) error {
	copy(r.input.GetData(), input)
	if err := r.session.Run(); err != nil {
		return fmt.Errorf("onnx run: %w", err)
	}
	copy(output, r.output.GetData())
	return nil
}

func (r *ONNXRuntime) Close() {
	if r.input != nil {
		r.input.Destroy()
	}
	if r.output != nil {
		r.output.Destroy()
	}
	if r.session != nil {
		r.session.Destroy()
	}
	r.session, r.input, r.output = nil, nil, nil
	ort.DestroyEnvironment()
}
