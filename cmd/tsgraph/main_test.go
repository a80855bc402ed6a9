package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/torchscript"
)

func float32Bytes(values ...float32) []byte {
	b := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func testModel(t *testing.T) *torchscript.Model {
	t.Helper()
	entries := []torchscript.Entry{
		{Name: "version", Data: []byte("1")},
		{Name: "model.json", Data: []byte(`{
			"producerName": "pytorch",
			"producerVersion": "1.0",
			"mainModule": {
				"name": "Net",
				"submodules": [{"name": "fc", "parameters": [{"name": "weight", "tensorId": "0"}]}]
			},
			"tensors": [{"dataType": "FLOAT", "dims": ["3"], "data": {"key": "tensors/0"}}]
		}`)},
		{Name: "tensors/0", Data: float32Bytes(1, 2, 3)},
	}
	model, err := torchscript.Open("net.pt", entries)
	require.NoError(t, err)
	return model
}

func TestPrintModel(t *testing.T) {
	var buf bytes.Buffer
	printModel(&buf, newPalette(&buf, nil), testModel(t))

	want := "format: TorchScript v1\n" +
		"producer: pytorch v1.0\n" +
		"graph Net\n" +
		"  node Module fc\n" +
		"    weight: float32[3]\n"
	assert.Equal(t, want, buf.String())
}

func TestForcedPlainPalette(t *testing.T) {
	off := false
	p := newPalette(os.Stdout, &off)
	assert.Equal(t, "relu", p.Operator("relu"))

	on := true
	p = newPalette(&bytes.Buffer{}, &on)
	assert.NotEqual(t, "relu", p.Operator("relu"))
	assert.Contains(t, p.Operator("relu"), "relu")
}

func TestFindInitializer(t *testing.T) {
	model := testModel(t)

	ini, err := findInitializer(model, "fc", "weight")
	require.NoError(t, err)
	assert.Equal(t, "tensors/0", ini.Name())

	_, err = findInitializer(model, "fc", "bias")
	assert.EqualError(t, err, `node "fc" has no input "bias"`)
	_, err = findInitializer(model, "conv", "weight")
	assert.EqualError(t, err, `no node named "conv"`)
}

func TestPrintTensor(t *testing.T) {
	ini, err := findInitializer(testModel(t), "fc", "weight")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printTensor(&buf, ini, 1))
	assert.Equal(t, "tensors/0 float32[3]\n[\n    1,\n    2,\n    ...\n]\n", buf.String())
}

func TestLoadSettings(t *testing.T) {
	s, err := loadSettings("")
	require.NoError(t, err)
	assert.Equal(t, torchscript.DisplayLimit, s.Limit)
	assert.Nil(t, s.Color)

	path := filepath.Join(t.TempDir(), "tsgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("limit: 20\ntraceAttributes: true\ncolor: false\n"), 0o600))
	s, err = loadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 20, s.Limit)
	assert.True(t, s.TraceAttributes)
	require.NotNil(t, s.Color)
	assert.False(t, *s.Color)

	opts, err := s.loadOptions()
	require.NoError(t, err)
	assert.True(t, opts.TraceAttributes)
	assert.NotNil(t, opts.Metadata)

	_, err = loadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCustomMetadata(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.yaml")
	require.NoError(t, os.WriteFile(metaPath, []byte("- name: relu\n  schema:\n    category: Custom\n"), 0o600))

	s := defaultSettings()
	s.Metadata = metaPath
	opts, err := s.loadOptions()
	require.NoError(t, err)
	assert.Equal(t, "Custom", opts.Metadata.Schema("relu").Category)

	s.Metadata = filepath.Join(dir, "missing.yaml")
	_, err = s.loadOptions()
	assert.Error(t, err)
}
