// Package tensor provides the typed buffer model used for graph initializers
// and the little-endian decoder that turns raw bytes into nested values.
package tensor

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Undefined marks a tensor whose storage type could not be resolved.
const (
	Undefined DataType = iota
	Uint8
	Int8
	Int16
	Int32
	Int64
	Uint16
	Uint32
	Uint64
	Float16
	Float32
	Float64
	QInt8
)

// Size returns the byte size of one element of the data type.
// Undefined reports 0.
func (dt DataType) Size() int {
	switch dt {
	case Uint8, Int8, QInt8:
		return 1
	case Int16, Uint16, Float16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case QInt8:
		return "qint8"
	default:
		return ""
	}
}

// Decodable reports whether the decoder can turn buffers of this type into values.
func (dt DataType) Decodable() bool {
	switch dt {
	case Uint8, Int8, Int16, Int32, Int64, Uint16, Uint32, Uint64, Float16, Float32, Float64:
		return true
	default:
		return false
	}
}
