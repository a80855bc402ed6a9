package pickle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/script"
	"github.com/born-ml/torchscript/internal/tensor"
)

// stream assembles a protocol 2 pickle.
type stream struct {
	bytes.Buffer
}

func newStream() *stream {
	s := &stream{}
	s.WriteString("\x80\x02")
	return s
}

func (s *stream) op(codes string) *stream {
	s.WriteString(codes)
	return s
}

func (s *stream) global(module, name string) *stream {
	fmt.Fprintf(s, "c%s\n%s\n", module, name)
	return s
}

func (s *stream) str(v string) *stream {
	s.WriteByte('X')
	_ = binary.Write(&s.Buffer, binary.LittleEndian, uint32(len(v)))
	s.WriteString(v)
	return s
}

func (s *stream) small(v uint8) *stream {
	s.WriteByte('K')
	s.WriteByte(v)
	return s
}

// tensor writes _rebuild_tensor_v2(storage, 0, (2, 2), (2, 1), False) for the
// float storage under key. A view adds view metadata to the persistent id.
func (s *stream) tensor(kind, key string, view bool) *stream {
	s.global("torch._utils", "_rebuild_tensor_v2").op("(")
	s.op("(").str(kind).global("torch", "FloatStorage").str(key).str("cpu").small(4)
	if view {
		s.str("view").small(0).small(4).op("\x87")
	}
	s.op("tQ")
	s.small(0)
	s.small(2).small(2).op("\x86")
	s.small(2).small(1).op("\x86")
	s.op("\x89tR")
	return s
}

// module writes a __torch__.Net whose state maps names to tensors.
func module(fields func(s *stream)) []byte {
	s := newStream()
	s.global("__torch__", "Net").op(")\x81")
	s.op("}(")
	fields(s)
	s.str("training").op("\x88")
	s.op("ub.")
	return s.Bytes()
}

func newResolver() *script.Interpreter {
	return script.New(builtins.NewRegistry(), builtins.NewContext(nil), nil, script.Options{})
}

func TestUnpickleModuleState(t *testing.T) {
	data := module(func(s *stream) {
		s.str("weight").tensor("storage", "0", false)
		s.str("bias").tensor("storage", "0", false)
	})
	payload := make([]byte, 16)

	v, err := Unpickle(data, map[string][]byte{"0": payload}, newResolver())
	require.NoError(t, err)

	root, ok := v.(*object.Module)
	require.True(t, ok)
	assert.Equal(t, "__torch__.Net", root.Class.QualifiedName())
	assert.True(t, root.Class.Placeholder)
	assert.Equal(t, []string{"weight", "bias", "training"}, root.Fields.Keys())

	training, _ := root.Fields.Get("training")
	assert.Equal(t, object.Bool(true), training)

	wv, _ := root.Fields.Get("weight")
	bv, _ := root.Fields.Get("bias")
	weight := wv.(*object.Tensor)
	bias := bv.(*object.Tensor)

	assert.Equal(t, "FloatTensor", weight.Name)
	assert.Equal(t, []int{2, 2}, weight.Size)
	assert.Equal(t, []int{2, 1}, weight.Stride)
	assert.False(t, weight.RequiresGrad)
	require.NotNil(t, weight.Storage)
	assert.Equal(t, "0", weight.Storage.Key)
	assert.Equal(t, 4, weight.Storage.Size)
	assert.Equal(t, tensor.Float32, weight.Storage.DataType)
	assert.Len(t, weight.Storage.Data, 16)
	assert.Same(t, weight.Storage, bias.Storage)
}

func TestUnpickleViewResolvesToNone(t *testing.T) {
	data := module(func(s *stream) {
		s.str("weight").tensor("storage", "0", true)
	})

	v, err := Unpickle(data, nil, newResolver())
	require.NoError(t, err)

	wv, _ := v.(*object.Module).Fields.Get("weight")
	weight := wv.(*object.Tensor)
	assert.Nil(t, weight.Storage)
	assert.Equal(t, []int{2, 2}, weight.Size)
}

func TestUnpickleUnknownPersistentType(t *testing.T) {
	data := module(func(s *stream) {
		s.str("weight").tensor("module", "0", false)
	})

	_, err := Unpickle(data, nil, newResolver())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown persistent load type 'module'")
}

func TestUnpickleContainers(t *testing.T) {
	s := newStream()
	s.op("(").small(1).str("a").op("\x88").op("]").small(7).op("a").op("t.")
	data := s.Bytes()

	v, err := Unpickle(data, nil, newResolver())
	require.NoError(t, err)

	tuple, ok := v.(*object.List)
	require.True(t, ok)
	assert.True(t, tuple.Tuple)
	require.Equal(t, 4, tuple.Len())
	assert.Equal(t, object.Int(1), tuple.Items[0])
	assert.Equal(t, object.String("a"), tuple.Items[1])
	assert.Equal(t, object.Bool(true), tuple.Items[2])

	list := tuple.Items[3].(*object.List)
	assert.False(t, list.Tuple)
	assert.Equal(t, []object.Value{object.Int(7)}, list.Items)
}

func TestUnpickleUnknownFunction(t *testing.T) {
	s := newStream()
	s.global("torch", "not_a_function").op(")R.")

	_, err := Unpickle(s.Bytes(), nil, newResolver())
	assert.ErrorContains(t, err, "unknown symbol 'torch.not_a_function'")
}
