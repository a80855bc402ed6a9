package tensor

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func float32Bytes(values ...float32) []byte {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return data
}

func TestDecodeFloat32Matrix(t *testing.T) {
	tt := New("w", Type{DataType: Float32, Shape: Shape{2, 2}}, float32Bytes(1, 2, 3, 4))

	require.Empty(t, tt.State())
	assert.Equal(t, []any{
		[]any{float32(1), float32(2)},
		[]any{float32(3), float32(4)},
	}, tt.Value())
}

func TestDecodeRowMajorLeafCount(t *testing.T) {
	tests := []struct {
		dtype DataType
		shape Shape
	}{
		{Uint8, Shape{2, 3}},
		{Int8, Shape{4}},
		{Int16, Shape{1, 2, 2}},
		{Int32, Shape{3, 1}},
		{Int64, Shape{2, 2}},
		{Uint16, Shape{5}},
		{Uint32, Shape{2}},
		{Uint64, Shape{1}},
		{Float16, Shape{2, 2}},
		{Float32, Shape{3, 2}},
		{Float64, Shape{2, 1, 2}},
		{Float32, Shape{}},
	}

	for _, tc := range tests {
		t.Run(tc.dtype.String()+tc.shape.String(), func(t *testing.T) {
			data := make([]byte, tc.shape.NumElements()*tc.dtype.Size())
			tt := New("", Type{DataType: tc.dtype, Shape: tc.shape}, data)

			value := tt.Value()
			require.NotNil(t, value)
			assert.Equal(t, tc.shape.NumElements(), countLeaves(value))
		})
	}
}

func countLeaves(v any) int {
	items, ok := v.([]any)
	if !ok {
		return 1
	}
	n := 0
	for _, item := range items {
		n += countLeaves(item)
	}
	return n
}

func TestDecodeOrderIsLastDimensionFastest(t *testing.T) {
	data := make([]byte, 6*4)
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(i))
	}
	tt := New("", Type{DataType: Int32, Shape: Shape{2, 3}}, data)

	assert.Equal(t, []any{
		[]any{int32(0), int32(1), int32(2)},
		[]any{int32(3), int32(4), int32(5)},
	}, tt.Value())
}

func TestDecodeScalarIsUnwrapped(t *testing.T) {
	tt := New("", Type{DataType: Float64, Shape: Shape{}}, binary.LittleEndian.AppendUint64(nil, math.Float64bits(2.5)))

	assert.Equal(t, 2.5, tt.Value())
	assert.Equal(t, "2.5", tt.String())
}

func TestDecodeInt64AsLong(t *testing.T) {
	data := binary.LittleEndian.AppendUint64(nil, uint64(1)<<40|7)
	data = binary.LittleEndian.AppendUint64(data, math.MaxUint64)
	tt := New("", Type{DataType: Int64, Shape: Shape{2}}, data)

	values, ok := tt.Value().([]any)
	require.True(t, ok)
	require.Len(t, values, 2)

	first, ok := values[0].(Long)
	require.True(t, ok)
	assert.Equal(t, uint32(7), first.Low)
	assert.Equal(t, uint32(1<<8), first.High)
	assert.Equal(t, int64(1)<<40|7, first.Int64())

	second, ok := values[1].(Long)
	require.True(t, ok)
	assert.Equal(t, int64(-1), second.Int64())
	assert.Equal(t, "-1", second.String())
}

func TestDecodeFloat16(t *testing.T) {
	data := binary.LittleEndian.AppendUint16(nil, float16.Fromfloat32(1.5).Bits())
	tt := New("", Type{DataType: Float16, Shape: Shape{1}}, data)

	assert.Equal(t, []any{float32(1.5)}, tt.Value())
}

func TestDecodeLimitInsertsEllipsis(t *testing.T) {
	tt := New("", Type{DataType: Uint8, Shape: Shape{5}}, []byte{1, 2, 3, 4, 5})

	value, state := tt.Decode(1)
	require.Empty(t, state)
	assert.Equal(t, []any{uint8(1), uint8(2), Ellipsis}, value)
}

func TestDecodeLimitTruncatesOuterDimension(t *testing.T) {
	tt := New("", Type{DataType: Uint8, Shape: Shape{3, 2}}, []byte{1, 2, 3, 4, 5, 6})

	value, state := tt.Decode(1)
	require.Empty(t, state)
	assert.Equal(t, []any{
		[]any{uint8(1), uint8(2)},
		Ellipsis,
	}, value)
}

func TestDecodeDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		tensor *Tensor
		state  string
	}{
		{"no data type", New("", Type{Shape: Shape{1}}, []byte{0}), "Tensor has no data type."},
		{"quantized", New("", Type{DataType: QInt8, Shape: Shape{1}}, []byte{0}), "Tensor data type 'qint8' is not supported."},
		{"no dimensions", New("", Type{DataType: Uint8}, []byte{0}), "Tensor has no dimensions."},
		{"negative dimension", New("", Type{DataType: Uint8, Shape: Shape{-1}}, []byte{0}), "Tensor has invalid dimensions."},
		{"overflowing dimensions", New("", Type{DataType: Float32, Shape: Shape{1 << 32, 1 << 32}}, []byte{0}), "Tensor has invalid dimensions."},
		{"overflowing byte size", New("", Type{DataType: Float64, Shape: Shape{math.MaxInt / 4}}, []byte{0}), "Tensor has invalid dimensions."},
		{"no data", New("", Type{DataType: Uint8, Shape: Shape{1}}, nil), "Tensor data is empty."},
		{"short data", New("", Type{DataType: Float32, Shape: Shape{2}}, []byte{0, 0, 0, 0}), "Tensor data is too short."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.state, tc.tensor.State())
			assert.Nil(t, tc.tensor.Value())
			assert.Empty(t, tc.tensor.String())
		})
	}
}

func TestStringFormatting(t *testing.T) {
	tt := New("", Type{DataType: Float32, Shape: Shape{2, 2}},
		float32Bytes(0.5, float32(math.Inf(1)), float32(math.Inf(-1)), float32(math.NaN())))

	expected := "[\n" +
		"    [\n" +
		"        0.5,\n" +
		"        Infinity\n" +
		"    ],\n" +
		"    [\n" +
		"        -Infinity,\n" +
		"        NaN\n" +
		"    ]\n" +
		"]"
	assert.Equal(t, expected, tt.String())
}

func TestStringEmptyDimension(t *testing.T) {
	tt := New("", Type{DataType: Float32, Shape: Shape{0}}, []byte{})

	assert.Equal(t, "[\n]", tt.String())
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "float32[2,3]", Type{DataType: Float32, Shape: Shape{2, 3}}.String())
	assert.Equal(t, "int64", Type{DataType: Int64, Shape: Shape{}}.String())
}

func TestFormatWithLimit(t *testing.T) {
	tt := New("", Type{DataType: Float32, Shape: Shape{4}}, float32Bytes(1, 2, 3, 4))

	assert.Equal(t, "[\n    1,\n    2,\n    ...\n]", tt.Format(1))
	assert.Equal(t, tt.String(), tt.Format(DisplayLimit))
	assert.Empty(t, New("", Type{DataType: Float32}, nil).Format(1))
}
