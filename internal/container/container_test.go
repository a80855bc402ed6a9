package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchscript/internal/archive"
	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/script"
	"github.com/born-ml/torchscript/internal/script/ast"
	"github.com/born-ml/torchscript/internal/tensor"
)

// fakeParser returns canned programs keyed by entry name.
type fakeParser map[string][]ast.Stmt

func (p fakeParser) Parse(filename string, _ []byte) ([]ast.Stmt, error) {
	program, ok := p[filename]
	if !ok {
		return nil, fmt.Errorf("no program for %s", filename)
	}
	return program, nil
}

func reluForward() ast.Def {
	return ast.Def{
		Name:   "forward",
		Params: []ast.Param{{Name: "self"}, {Name: "x"}},
		Body: []ast.Stmt{ast.Return{Value: ast.Call{
			Func: ast.Attr{X: ast.Ident{Name: "torch"}, Name: "relu"},
			Args: []ast.Expr{ast.Ident{Name: "x"}},
		}}},
	}
}

const modelJSONText = `{
  "producerName": "pytorch",
  "producerVersion": "1.0",
  "mainModule": {
    "name": "Net",
    "submodules": [
      {"name": "fc", "parameters": [{"name": "weight", "tensorId": "0"}, {"name": "bias", "tensorId": 1}]}
    ],
    "torchscriptArena": {"key": "code/net.py"}
  },
  "tensors": [
    {"dataType": "FLOAT", "dims": ["2", "2"], "data": {"key": "tensors/0"}},
    {"dataType": "INT64", "dims": [2], "data": {"key": "tensors/1"}}
  ]
}`

func modelJSONEntries() []archive.Entry {
	return []archive.Entry{
		{Name: "net/version", Data: []byte("1\n")},
		{Name: "net/model.json", Data: []byte(modelJSONText)},
		{Name: "net/tensors/0", Data: make([]byte, 16)},
		{Name: "net/tensors/1", Data: make([]byte, 16)},
		{Name: "net/code/net.py", Data: []byte("def forward(self, x): ...")},
	}
}

func TestOpenWithoutVersion(t *testing.T) {
	_, err := Open("model.pt", []archive.Entry{{Name: "data.pkl"}}, Options{})
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.EqualError(t, err, "TorchScript container does not contain version signature.")
}

func TestOpenInvalidVersion(t *testing.T) {
	for _, version := range []string{"{", "[1]", "null"} {
		_, err := Open("model.pt", []archive.Entry{{Name: "version", Data: []byte(version)}}, Options{})
		assert.True(t, IsFormatError(err), version)
	}
}

func TestOpenWithoutData(t *testing.T) {
	_, err := Open("model.pt", []archive.Entry{{Name: "version", Data: []byte("2")}}, Options{})
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.Contains(t, err.Error(), "'data.pkl' or 'model.json'")
}

func TestOpenModelJSON(t *testing.T) {
	c, err := Open("net.pt", modelJSONEntries(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "1", c.Version())
	assert.Equal(t, "net/", c.Prefix())
	assert.Equal(t, "pytorch v1.0", c.Producer())
	assert.Equal(t, "Net", c.Name())

	root := c.Root()
	assert.Equal(t, "torch.Module", root.Class.QualifiedName())
	fv, ok := root.Fields.Get("fc")
	require.True(t, ok)
	fc := fv.(*object.Module)
	assert.Same(t, root, c.Arena().Parent(fc))

	wv, _ := fc.Fields.Get("weight")
	weight := wv.(*object.Tensor)
	assert.Equal(t, "tensors/0", weight.Label)
	assert.Equal(t, []int{2, 2}, weight.Size)
	require.NotNil(t, weight.Storage)
	assert.Equal(t, "FloatStorage", weight.Storage.Name)
	assert.Equal(t, 4, weight.Storage.Size)
	assert.Len(t, weight.Storage.Data, 16)

	bv, _ := fc.Fields.Get("bias")
	bias := bv.(*object.Tensor)
	assert.Equal(t, tensor.Int64, bias.Storage.DataType)

	ini := weight.Initializer()
	assert.Equal(t, "tensors/0", ini.Name())
	assert.Equal(t, "float32[2,2]", ini.Type().String())
}

func TestOpenModelJSONUnknownDataType(t *testing.T) {
	entries := []archive.Entry{
		{Name: "version", Data: []byte("1")},
		{Name: "model.json", Data: []byte(`{"tensors": [{"dataType": "BFLOAT16", "data": {"key": "t/0"}}]}`)},
	}
	_, err := Open("net.pt", entries, Options{})
	require.Error(t, err)
	assert.True(t, IsFormatError(err))
	assert.EqualError(t, err, "Unknown tensor data type 'BFLOAT16'.")
}

func TestOpenModelJSONInvalidTensorID(t *testing.T) {
	entries := []archive.Entry{
		{Name: "version", Data: []byte("1")},
		{Name: "model.json", Data: []byte(`{"mainModule": {"parameters": [{"name": "w", "tensorId": 3}]}, "tensors": []}`)},
	}
	_, err := Open("net.pt", entries, Options{})
	assert.True(t, IsFormatError(err))
}

func TestModelJSONArenaMethods(t *testing.T) {
	parser := fakeParser{"net/code/net.py": {reluForward()}}
	c, err := Open("net.pt", modelJSONEntries(), Options{Parser: parser})
	require.NoError(t, err)

	_, ok := c.Root().Class.Members.Get("forward")
	require.True(t, ok)

	result, err := c.Trace()
	require.NoError(t, err)
	require.True(t, result.Traced)
	require.Len(t, result.Nodes, 1)
	assert.Equal(t, "relu", result.Nodes[0].Operator)
	assert.Equal(t, []string{"x"}, result.Inputs)
}

func TestModelJSONWithoutParserIsUntraced(t *testing.T) {
	c, err := Open("net.pt", modelJSONEntries(), Options{})
	require.NoError(t, err)

	result, err := c.Trace()
	require.NoError(t, err)
	assert.False(t, result.Traced)
	assert.True(t, object.IsUnknownSymbol(result.Reason))
}

func TestModelJSONConstantsAreTensors(t *testing.T) {
	c, err := Open("net.pt", modelJSONEntries(), Options{})
	require.NoError(t, err)

	constants, err := c.loadConstants()
	require.NoError(t, err)
	require.Len(t, constants, 2)
	assert.IsType(t, &object.Tensor{}, constants[0])
}

// pickleStream assembles protocol 2 pickles.
type pickleStream struct {
	bytes.Buffer
}

func newPickle() *pickleStream {
	s := &pickleStream{}
	s.WriteString("\x80\x02")
	return s
}

func (s *pickleStream) op(codes string) *pickleStream {
	s.WriteString(codes)
	return s
}

func (s *pickleStream) global(module, name string) *pickleStream {
	fmt.Fprintf(s, "c%s\n%s\n", module, name)
	return s
}

func (s *pickleStream) str(v string) *pickleStream {
	s.WriteByte('X')
	_ = binary.Write(&s.Buffer, binary.LittleEndian, uint32(len(v)))
	s.WriteString(v)
	return s
}

func (s *pickleStream) small(v uint8) *pickleStream {
	s.WriteByte('K')
	s.WriteByte(v)
	return s
}

// dataPickle is a __torch__.Net holding one 2x2 float tensor in storage "0".
func dataPickle() []byte {
	s := newPickle()
	s.global("__torch__", "Net").op(")\x81")
	s.op("}(").str("weight")
	s.global("torch._utils", "_rebuild_tensor_v2").op("(")
	s.op("(").str("storage").global("torch", "FloatStorage").str("0").str("cpu").small(4).op("tQ")
	s.small(0)
	s.small(2).small(2).op("\x86")
	s.small(2).small(1).op("\x86")
	s.op("\x89tR")
	s.op("ub.")
	return s.Bytes()
}

func dataPickleEntries() []archive.Entry {
	return []archive.Entry{
		{Name: "archive/version", Data: []byte("2")},
		{Name: "archive/data.pkl", Data: dataPickle()},
		{Name: "archive/data/0", Data: make([]byte, 16)},
		{Name: "archive/constants.pkl", Data: newPickle().small(3).str("c").op("\x86.").Bytes()},
	}
}

func TestOpenDataPickle(t *testing.T) {
	c, err := Open("model.pt", dataPickleEntries(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "2", c.Version())
	assert.Equal(t, "archive/", c.Prefix())
	assert.Empty(t, c.Producer())

	root := c.Root()
	assert.Equal(t, "__torch__.Net", root.Class.QualifiedName())
	wv, ok := root.Fields.Get("weight")
	require.True(t, ok)
	weight := wv.(*object.Tensor)
	assert.Equal(t, "FloatTensor", weight.Name)
	assert.Len(t, weight.Storage.Data, 16)
}

func TestDataPickleTracedWithSource(t *testing.T) {
	parser := fakeParser{"archive/code/__torch__.py": {ast.Class{Name: "Net", Body: []ast.Stmt{reluForward()}}}}
	entries := append(dataPickleEntries(), archive.Entry{Name: "archive/code/__torch__.py", Data: []byte("class Net: ...")})
	c, err := Open("model.pt", entries, Options{Parser: parser})
	require.NoError(t, err)
	assert.False(t, c.Root().Class.Placeholder)

	result, err := c.Trace()
	require.NoError(t, err)
	require.True(t, result.Traced)
	require.Len(t, result.Nodes, 1)
}

func TestConstantsLoadedLazily(t *testing.T) {
	c, err := Open("model.pt", dataPickleEntries(), Options{})
	require.NoError(t, err)
	assert.False(t, c.constantsLoaded)

	vars, err := c.Interpreter().Exec([]ast.Stmt{ast.Assign{
		Target: ast.Ident{Name: "v"},
		Value:  ast.Attr{X: ast.Ident{Name: "CONSTANTS"}, Name: "c1"},
	}})
	require.NoError(t, err)
	v, _ := vars.Get("v")
	assert.Equal(t, object.String("c"), v)
	assert.True(t, c.constantsLoaded)
}

func TestArchiveSource(t *testing.T) {
	entries := []archive.Entry{{Name: "m/code/__torch__/models/net.py", Data: []byte("x")}}
	program := []ast.Stmt{ast.Pass{}}

	s := &archiveSource{entries: entries, prefix: "m/", parser: fakeParser{"m/code/__torch__/models/net.py": program}}
	got, err := s.Load("__torch__.models.net")
	require.NoError(t, err)
	assert.Equal(t, program, got)

	_, err = s.Load("__torch__.other")
	assert.True(t, errors.Is(err, script.ErrSourceNotFound))

	s.parser = nil
	_, err = s.Load("__torch__.models.net")
	assert.True(t, errors.Is(err, script.ErrSourceNotFound))
}

func TestMatch(t *testing.T) {
	tests := []struct {
		identifier string
		entries    []archive.Entry
		want       bool
	}{
		{"model.pt", modelJSONEntries(), true},
		{"model.PTH", dataPickleEntries(), true},
		{"model.pth.tar", dataPickleEntries(), true},
		{"model.onnx", dataPickleEntries(), false},
		{"model.pt", []archive.Entry{{Name: "archive/data.pkl"}}, false},
		{"model.pt", []archive.Entry{{Name: "a/version"}, {Name: "b/data.pkl"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.identifier, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.identifier, tt.entries))
		})
	}
}
