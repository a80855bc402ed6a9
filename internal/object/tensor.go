package object

import (
	"strings"

	"github.com/born-ml/torchscript/internal/tensor"
)

// Storage is a typed raw buffer shared by one or more tensors.
type Storage struct {
	Name     string // e.g. "FloatStorage"
	DataType tensor.DataType
	ElemSize int
	Size     int
	Key      string
	Data     []byte
}

// Tensor is a tensor object as produced by the deserializer or by traced
// operators.
//
// Placeholder tensors created by traced operators have no storage and carry
// their dataflow identifiers in Outputs.
type Tensor struct {
	// Name is the type tag, e.g. "FloatTensor".
	Name string

	Storage      *Storage
	Offset       int
	Size         []int
	Stride       []int
	RequiresGrad bool

	// Outputs holds the identifiers under which this tensor flows through a
	// trace.
	Outputs []string

	// Label names the initializer, e.g. the data key of a model.json tensor.
	Label string

	// Value holds the number wrapped by scalar conversions.
	Value Value

	initializer *tensor.Tensor
}

// NewPlaceholder returns a storage-less tensor.
func NewPlaceholder(outputs ...string) *Tensor {
	return &Tensor{Name: "Tensor", Outputs: outputs}
}

// TensorName derives the tensor type tag from a storage type name.
func TensorName(storage string) string {
	return strings.Replace(storage, "Storage", "Tensor", 1)
}

// Initializer returns the graph initializer for t. The result is built on
// first use and cached.
//
// The storage offset selects the start of the buffer; strides are ignored,
// so non-contiguous views decode as if they were contiguous.
func (t *Tensor) Initializer() *tensor.Tensor {
	if t.initializer != nil {
		return t.initializer
	}
	typ := tensor.Type{}
	var shape tensor.Shape
	if t.Size != nil {
		shape = tensor.Shape(t.Size)
	}
	typ.Shape = shape
	var data []byte
	if t.Storage != nil {
		typ.DataType = t.Storage.DataType
		data = t.Storage.Data
		if data != nil && t.Offset > 0 {
			start := t.Offset * t.Storage.ElemSize
			if start > len(data) {
				start = len(data)
			}
			data = data[start:]
		}
	}
	t.initializer = tensor.New(t.Label, typ, data)
	return t.initializer
}
