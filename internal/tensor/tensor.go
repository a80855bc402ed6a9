package tensor

// Type describes the element type and dimensions of a tensor.
//
// A nil Shape means the dimensions are unknown; an empty, non-nil Shape is a
// scalar.
type Type struct {
	DataType DataType
	Shape    Shape
}

// String formats the type as "float32[2,3]".
func (t Type) String() string {
	return t.DataType.String() + t.Shape.String()
}

// Tensor is an immutable, raw-buffer-backed tensor used as a graph initializer.
// Values are decoded on demand and never computed on.
type Tensor struct {
	name string
	typ  Type
	data []byte
}

// New creates a Tensor. The data slice is retained, not copied; callers
// must not modify it afterwards. data may be nil for placeholder tensors.
func New(name string, typ Type, data []byte) *Tensor {
	return &Tensor{
		name: name,
		typ:  Type{DataType: typ.DataType, Shape: typ.Shape.Clone()},
		data: data,
	}
}

// Kind returns "Tensor".
func (t *Tensor) Kind() string {
	return "Tensor"
}

// Name returns the tensor's name, or "".
func (t *Tensor) Name() string {
	return t.name
}

// Type returns the tensor's type.
func (t *Tensor) Type() Type {
	return t.typ
}

// Data returns the raw little-endian byte buffer, which may be nil.
// WARNING: Direct access to underlying memory. Do not modify.
func (t *Tensor) Data() []byte {
	return t.data
}
