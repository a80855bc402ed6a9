package torchscript_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchscript"
	"github.com/born-ml/torchscript/internal/archive"
)

func modelJSONEntries() []torchscript.Entry {
	return []torchscript.Entry{
		{Name: "net/version", Data: []byte("1")},
		{Name: "net/model.json", Data: []byte(`{
			"producerName": "pytorch",
			"producerVersion": "1.0",
			"mainModule": {
				"name": "Net",
				"submodules": [{"name": "fc", "parameters": [
					{"name": "weight", "tensorId": "0"},
					{"name": "bias", "tensorId": "1"}
				]}]
			},
			"tensors": [
				{"dataType": "FLOAT", "dims": ["2", "2"], "data": {"key": "tensors/0"}},
				{"dataType": "FLOAT", "dims": ["2"], "data": {"key": "tensors/1"}}
			]
		}`)},
		{Name: "net/tensors/0", Data: make([]byte, 16)},
		{Name: "net/tensors/1", Data: make([]byte, 8)},
	}
}

func TestOpenModelJSON(t *testing.T) {
	model, err := torchscript.Open("net.pt", modelJSONEntries())
	require.NoError(t, err)

	assert.Equal(t, "net.pt", model.Identifier())
	assert.Equal(t, "TorchScript v1", model.Format())
	assert.Equal(t, "pytorch v1.0", model.Producer())
	require.Len(t, model.Graphs(), 1)

	g := model.Graphs()[0]
	assert.Equal(t, "Net", g.Name)
	assert.Empty(t, g.Inputs)
	require.Len(t, g.Nodes, 1)

	node := g.Nodes[0]
	assert.Equal(t, "Module", node.Operator)
	assert.Equal(t, "fc", node.Name)
	require.Len(t, node.Inputs, 2)
	assert.Equal(t, "weight", node.Inputs[0].Name)
	assert.Equal(t, "float32[2,2]", node.Inputs[0].Arguments[0].Type().String())
	assert.Equal(t, "float32[2]", node.Inputs[1].Arguments[0].Type().String())
}

func TestOpenErrorNamesArchive(t *testing.T) {
	_, err := torchscript.Open("model.pt", []torchscript.Entry{{Name: "data.pkl"}})
	require.Error(t, err)
	assert.EqualError(t, err, "TorchScript container does not contain version signature in 'model.pt'.")
	assert.True(t, torchscript.IsFormatError(err))

	var e *torchscript.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "model.pt", e.Identifier)
}

func TestOpenErrorWithoutTrailingPeriod(t *testing.T) {
	_, err := torchscript.OpenBytes("model.pt", []byte("not a zip"))
	require.Error(t, err)
	assert.Regexp(t, ` in 'model.pt'\.$`, err.Error())
	assert.NotContains(t, err.Error(), ". in")
	assert.False(t, torchscript.IsFormatError(err))
}

func TestOpenFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, archive.WriteZip(&buf, modelJSONEntries()))
	path := filepath.Join(t.TempDir(), "net.pt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	model, err := torchscript.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, "net.pt", model.Identifier())
	assert.Len(t, model.Graphs()[0].Nodes, 1)

	model, err = torchscript.OpenBytes("net.pt", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "TorchScript v1", model.Format())
}

func TestOpenFileMissing(t *testing.T) {
	_, err := torchscript.OpenFile(filepath.Join(t.TempDir(), "missing.pt"))
	require.Error(t, err)
	assert.Regexp(t, ` in 'missing.pt'\.$`, err.Error())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCustomOptions(t *testing.T) {
	opts := torchscript.DefaultLoadOptions()
	require.NotNil(t, opts.Metadata)
	assert.Nil(t, opts.Parser)
	assert.False(t, opts.TraceAttributes)

	opts.Metadata = nil
	model, err := torchscript.Open("net.pt", modelJSONEntries(), opts)
	require.NoError(t, err)
	assert.Empty(t, model.Graphs()[0].Nodes[0].Category())
}

func TestMatch(t *testing.T) {
	assert.True(t, torchscript.Match("net.pt", modelJSONEntries()))
	assert.False(t, torchscript.Match("net.onnx", modelJSONEntries()))
	assert.False(t, torchscript.Match("net.pt", []torchscript.Entry{{Name: "model.json"}}))
}

func TestListSupportedOps(t *testing.T) {
	ops := torchscript.ListSupportedOps()
	assert.NotEmpty(t, ops)
	assert.True(t, sort.StringsAreSorted(ops))
	assert.Contains(t, ops, "torch.addmm")
	assert.Contains(t, ops, "torch._convolution")
}
