package builtins

import (
	"fmt"
	"strings"

	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/tensor"
)

// storageTypes maps storage class names to element types.
var storageTypes = map[string]tensor.DataType{
	"ByteStorage":   tensor.Uint8,
	"CharStorage":   tensor.Int8,
	"ShortStorage":  tensor.Int16,
	"IntStorage":    tensor.Int32,
	"LongStorage":   tensor.Int64,
	"HalfStorage":   tensor.Float16,
	"FloatStorage":  tensor.Float32,
	"DoubleStorage": tensor.Float64,
	"QInt8Storage":  tensor.QInt8,
}

func (r *Registry) registerStorageTypes() {
	for name, dtype := range storageTypes {
		r.constructor("torch."+name, newStorage(name, dtype))
	}
}

func newStorage(name string, dtype tensor.DataType) Handler {
	return func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return &object.Storage{
			Name:     name,
			DataType: dtype,
			ElemSize: dtype.Size(),
			Size:     storageSize(arg(args, 0)),
		}, nil
	}
}

// storageSize accepts an element count or a list of dimensions.
func storageSize(v object.Value) int {
	switch s := v.(type) {
	case object.Int:
		return int(s)
	case *object.List:
		n := 1
		for _, item := range s.Items {
			d, ok := item.(object.Int)
			if !ok {
				return 0
			}
			n *= int(d)
		}
		return n
	default:
		return 0
	}
}

func (r *Registry) registerTensorHelpers() {
	r.function("torch._utils._rebuild_tensor_v2", rebuildTensor)
	r.function("torch._utils._rebuild_qtensor", rebuildTensor)
	r.function("torch._utils._rebuild_parameter", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return arg(args, 0), nil
	})
	r.function("ops.prim.NumToTensor", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return &object.Tensor{Name: "Tensor", Value: arg(args, 0)}, nil
	})
	r.function("torch.t", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return arg(args, 0), nil
	})
	r.function("torch.dim", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		if t, ok := arg(args, 0).(*object.Tensor); ok && t.Size != nil {
			return object.Int(len(t.Size)), nil
		}
		return object.Int(0), nil
	})
}

// rebuildTensor wraps a storage, an offset, a size and a stride into a
// tensor object. The quantized variant carries quantizer parameters before
// requires_grad.
func rebuildTensor(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
	t := &object.Tensor{Name: "Tensor"}
	switch s := arg(args, 0).(type) {
	case *object.Storage:
		t.Storage = s
		t.Name = object.TensorName(s.Name)
	case object.None:
	default:
		return nil, fmt.Errorf("rebuild tensor: expected storage, got %s", s.Kind())
	}
	if offset, ok := arg(args, 1).(object.Int); ok {
		t.Offset = int(offset)
	}
	size, err := ints(arg(args, 2))
	if err != nil {
		return nil, fmt.Errorf("rebuild tensor size: %w", err)
	}
	t.Size = size
	if t.Size == nil {
		t.Size = []int{}
	}
	stride, err := ints(arg(args, 3))
	if err != nil {
		return nil, fmt.Errorf("rebuild tensor stride: %w", err)
	}
	t.Stride = stride
	for _, v := range args[min(4, len(args)):] {
		if b, ok := v.(object.Bool); ok {
			t.RequiresGrad = bool(b)
			break
		}
	}
	return t, nil
}

func ints(v object.Value) ([]int, error) {
	switch l := v.(type) {
	case object.None:
		return nil, nil
	case *object.List:
		out := make([]int, len(l.Items))
		for i, item := range l.Items {
			n, ok := item.(object.Int)
			if !ok {
				return nil, fmt.Errorf("item %d is %s", i, item.Kind())
			}
			out[i] = int(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected sequence, got %s", v.Kind())
	}
}

// IsStorageType reports whether a qualified name is a storage class.
func IsStorageType(name string) bool {
	short, ok := strings.CutPrefix(name, "torch.")
	if !ok {
		return false
	}
	_, ok = storageTypes[short]
	return ok
}
