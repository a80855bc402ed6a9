package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemas(t *testing.T) {
	m := Default()
	assert.Same(t, m, Default())

	s := m.Schema("addmm")
	require.NotNil(t, s)
	assert.Equal(t, "Layer", s.Category)
	require.Len(t, s.Inputs, 3)
	assert.Equal(t, "mat1", s.Inputs[1].Name)

	assert.Nil(t, m.Schema("not_an_operator"))
	assert.Contains(t, m.Operators(), "_convolution")
}

func TestAttributeDefaults(t *testing.T) {
	m, err := New([]byte(`
- name: op
  schema:
    attributes:
      - { name: flag, type: boolean, default: false }
      - { name: none, default: null }
      - { name: bare, type: int64 }
      - { name: hidden, visible: false }
`))
	require.NoError(t, err)

	flag := m.AttributeSchema("op", "flag")
	require.NotNil(t, flag)
	assert.True(t, flag.HasDefault)
	assert.Equal(t, false, flag.Default)

	none := m.AttributeSchema("op", "none")
	require.NotNil(t, none)
	assert.True(t, none.HasDefault)
	assert.Nil(t, none.Default)

	bare := m.AttributeSchema("op", "bare")
	require.NotNil(t, bare)
	assert.False(t, bare.HasDefault)
	assert.Nil(t, bare.Visible)

	hidden := m.AttributeSchema("op", "hidden")
	require.NotNil(t, hidden.Visible)
	assert.False(t, *hidden.Visible)

	assert.Nil(t, m.AttributeSchema("op", "missing"))
	assert.Nil(t, m.AttributeSchema("other", "flag"))
}

func TestAttributeSchemaIsCached(t *testing.T) {
	m, err := New([]byte(`[{"name": "op", "schema": {"attributes": [{"name": "a"}]}}]`))
	require.NoError(t, err)

	first := m.AttributeSchema("op", "a")
	m.schemas["op"] = &Schema{}
	assert.Same(t, first, m.AttributeSchema("op", "a"))
}

func TestSkipsIncompleteEntries(t *testing.T) {
	m, err := New([]byte(`[{"name": "a"}, {"schema": {}}, {"name": "b", "schema": {"category": "Layer"}}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, m.Operators())
}

func TestDocumentation(t *testing.T) {
	m := Default()

	doc := m.Documentation("relu")
	require.NotNil(t, doc)
	assert.Equal(t, "relu", doc.Name)
	assert.Equal(t, "Activation", doc.Category)

	doc.Inputs[0] = &Argument{Name: "changed"}
	assert.Equal(t, "input", m.Schema("relu").Inputs[0].Name)

	assert.Nil(t, m.Documentation("missing"))
}

func TestNilMetadata(t *testing.T) {
	var m *Metadata
	assert.Nil(t, m.Schema("relu"))
	assert.Nil(t, m.AttributeSchema("relu", "x"))
	assert.Nil(t, m.Documentation("relu"))
	assert.Empty(t, m.Operators())
}

func TestInvalidDocument(t *testing.T) {
	_, err := New([]byte("name: [unterminated"))
	assert.Error(t, err)
}
