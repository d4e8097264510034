package inference

import (
	"fmt"

	"github.com/mattn/go-tflite"
)

// TFLiteRuntime drives the model through the TensorFlow Lite C API. This is
// the engine the device firmware uses; models must be fully int8 quantized.
type TFLiteRuntime struct {
	model   *tflite.Model
	options *tflite.InterpreterOptions
	interp  *tflite.Interpreter
	inLen   int
	outLen  int
}

// NewTFLiteRuntime returns an unloaded TFLite engine.
func NewTFLiteRuntime() *TFLiteRuntime {
	return &TFLiteRuntime{}
}

func (r *TFLiteRuntime) Load(modelPath string, desc Descriptor) error {
	model := tflite.NewModelFromFile(modelPath)
	if model == nil {
		return fmt.Errorf("cannot load tflite model %s", modelPath)
	}

	options := tflite.NewInterpreterOptions()
	options.SetNumThread(1)

	interp := tflite.NewInterpreter(model, options)
	if interp == nil {
		options.Delete()
		model.Delete()
		return fmt.Errorf("cannot create tflite interpreter")
	}
	if status := interp.AllocateTensors(); status != tflite.OK {
		interp.Delete()
		options.Delete()
		model.Delete()
		return fmt.Errorf("allocate tensors: status %d", status)
	}

	in := interp.GetInputTensor(0)
	out := interp.GetOutputTensor(0)
	if in.Type() != tflite.Int8 || out.Type() != tflite.Int8 {
		interp.Delete()
		options.Delete()
		model.Delete()
		return fmt.Errorf("%w: model tensors are not int8 quantized", ErrModelVersion)
	}

	r.model = model
	r.options = options
	r.interp = interp
	r.inLen = flatLen(in)
	r.outLen = flatLen(out)
	return nil
}

func (r *TFLiteRuntime) InputLen() int  { return r.inLen }
func (r *TFLiteRuntime) OutputLen() int { return r.outLen }

func (r *TFLiteRuntime) Invoke(input, output []int8) error {
	in := r.interp.GetInputTensor(0)
	if status := in.CopyFromBuffer(input); status != tflite.OK {
		return fmt.Errorf("bind input tensor: status %d", status)
	}
	if status := r.interp.Invoke(); status != tflite.OK {
		return fmt.Errorf("invoke: status %d", status)
	}
	if status := r.interp.GetOutputTensor(0).CopyToBuffer(output); status != tflite.OK {
		return fmt.Errorf("read output tensor: status %d", status)
	}
	return nil
}

func (r *TFLiteRuntime) Close() {
	if r.interp != nil {
		r.interp.Delete()
	}
	if r.options != nil {
		r.options.Delete()
	}
	if r.model != nil {
		r.model.Delete()
	}
	r.interp, r.options, r.model = nil, nil, nil
}

func flatLen(t *tflite.Tensor) int {
	n := 1
	for i := 0; i < t.NumDims(); i++ {
		n *= t.Dim(i)
	}
	return n
}
