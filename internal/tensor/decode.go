package tensor

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/x448/float16"
)

// DisplayLimit is the element budget used by String.
const DisplayLimit = 10000

// Ellipsis replaces the elements dropped once a decode exceeds its limit.
const Ellipsis = "..."

// Long is a 64-bit integer decoded as its two little-endian 32-bit words.
type Long struct {
	Low      uint32
	High     uint32
	Unsigned bool
}

// Int64 returns the value as a signed integer.
func (l Long) Int64() int64 {
	return int64(uint64(l.High)<<32 | uint64(l.Low)) //nolint:gosec // G115: two's complement reinterpretation is intended.
}

// Uint64 returns the value as an unsigned integer.
func (l Long) Uint64() uint64 {
	return uint64(l.High)<<32 | uint64(l.Low)
}

// String formats the value in base 10.
func (l Long) String() string {
	if l.Unsigned {
		return strconv.FormatUint(l.Uint64(), 10)
	}
	return strconv.FormatInt(l.Int64(), 10)
}

// decoder walks a buffer in row-major order.
type decoder struct {
	data  []byte
	dtype DataType
	dims  Shape
	index int
	count int
	limit int
}

// State returns a diagnostic describing why the tensor cannot be decoded,
// or "" when it can.
func (t *Tensor) State() string {
	_, state := t.decoder()
	return state
}

// Value decodes the full tensor. It returns nil when State is not empty.
func (t *Tensor) Value() any {
	v, state := t.Decode(math.MaxInt)
	if state != "" {
		return nil
	}
	return v
}

// String decodes at most DisplayLimit elements and formats them as nested,
// indented lists. It returns "" when State is not empty.
func (t *Tensor) String() string {
	return t.Format(DisplayLimit)
}

// Format is String with a caller-chosen element limit.
func (t *Tensor) Format(limit int) string {
	v, state := t.Decode(limit)
	if state != "" {
		return ""
	}
	return stringify(v, "", "    ")
}

// Decode produces nested []any values matching the tensor's shape. Once more
// than limit elements have been produced, the remainder of the current
// dimension is replaced with Ellipsis.
//
// Decode never fails hard: when the tensor has no data type, an unsupported
// data type, no dimensions or no data, the returned value is nil and the
// second result describes the problem.
func (t *Tensor) Decode(limit int) (any, string) {
	d, state := t.decoder()
	if state != "" {
		return nil, state
	}
	d.limit = limit
	return d.decode(0), ""
}

func (t *Tensor) decoder() (*decoder, string) {
	dtype := t.typ.DataType
	if dtype == Undefined {
		return nil, "Tensor has no data type."
	}
	if !dtype.Decodable() {
		return nil, fmt.Sprintf("Tensor data type '%s' is not supported.", dtype)
	}
	if t.typ.Shape == nil {
		return nil, "Tensor has no dimensions."
	}
	if t.typ.Shape.Validate() != nil {
		return nil, "Tensor has invalid dimensions."
	}
	if t.data == nil {
		return nil, "Tensor data is empty."
	}
	n, ok := t.typ.Shape.elements()
	if !ok || n > math.MaxInt/dtype.Size() {
		return nil, "Tensor has invalid dimensions."
	}
	if len(t.data) < n*dtype.Size() {
		return nil, "Tensor data is too short."
	}
	return &decoder{
		data:  t.data,
		dtype: dtype,
		dims:  t.typ.Shape,
	}, ""
}

func (d *decoder) decode(dimension int) any {
	dims := d.dims
	if len(dims) == 0 {
		dims = Shape{1}
	}
	size := dims[dimension]
	capacity := size
	if d.limit < size-2 {
		capacity = max(d.limit+2, 0)
	}
	results := make([]any, 0, capacity)
	if dimension == len(dims)-1 {
		for i := 0; i < size; i++ {
			if d.count > d.limit {
				return append(results, Ellipsis)
			}
			results = append(results, d.read())
			d.count++
		}
	} else {
		for j := 0; j < size; j++ {
			if d.count > d.limit {
				return append(results, Ellipsis)
			}
			results = append(results, d.decode(dimension+1))
		}
	}
	if len(d.dims) == 0 {
		return results[0]
	}
	return results
}

// read decodes the element at the cursor and advances it.
func (d *decoder) read() any {
	b := d.data[d.index:]
	d.index += d.dtype.Size()
	le := binary.LittleEndian
	switch d.dtype {
	case Uint8:
		return b[0]
	case Int8:
		return int8(b[0]) //nolint:gosec // G115: byte reinterpretation is intended.
	case Int16:
		return int16(le.Uint16(b)) //nolint:gosec // G115: two's complement reinterpretation is intended.
	case Uint16:
		return le.Uint16(b)
	case Int32:
		return int32(le.Uint32(b)) //nolint:gosec // G115: two's complement reinterpretation is intended.
	case Uint32:
		return le.Uint32(b)
	case Int64:
		return Long{Low: le.Uint32(b), High: le.Uint32(b[4:])}
	case Uint64:
		return Long{Low: le.Uint32(b), High: le.Uint32(b[4:]), Unsigned: true}
	case Float16:
		return float16.Frombits(le.Uint16(b)).Float32()
	case Float32:
		return math.Float32frombits(le.Uint32(b))
	case Float64:
		return math.Float64frombits(le.Uint64(b))
	default:
		return nil
	}
}

func stringify(value any, indentation, indent string) string {
	switch v := value.(type) {
	case []any:
		lines := []string{indentation + "["}
		if len(v) > 0 {
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = stringify(item, indentation+indent, indent)
			}
			lines = append(lines, strings.Join(items, ",\n"))
		}
		lines = append(lines, indentation+"]")
		return strings.Join(lines, "\n")
	case Long:
		return indentation + v.String()
	case string:
		return indentation + v
	case float32:
		return indentation + formatFloat(float64(v), 32)
	case float64:
		return indentation + formatFloat(v, 64)
	default:
		return indentation + fmt.Sprint(v)
	}
}

func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	default:
		return strconv.FormatFloat(f, 'g', -1, bitSize)
	}
}
