// Package metadata provides operator schemas used to name node inputs,
// outputs and attributes.
package metadata

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed torchscript-metadata.yaml
var embedded []byte

// Schema describes one operator.
type Schema struct {
	Category    string       `yaml:"category,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Attributes  []*Attribute `yaml:"attributes,omitempty"`
	Inputs      []*Argument  `yaml:"inputs,omitempty"`
	Outputs     []*Argument  `yaml:"outputs,omitempty"`
}

// Argument describes an operator input or output.
type Argument struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Attribute describes a non-tensor operator argument.
type Attribute struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Visible     *bool  `yaml:"visible,omitempty"`
	Description string `yaml:"description,omitempty"`

	// HasDefault reports whether the document declared a default, which may
	// itself be null or false.
	HasDefault bool `yaml:"-"`
}

// UnmarshalYAML records whether a default key is present.
func (a *Attribute) UnmarshalYAML(unmarshal func(any) error) error {
	type plain Attribute
	if err := unmarshal((*plain)(a)); err != nil {
		return err
	}
	var keys map[string]any
	if err := unmarshal(&keys); err != nil {
		return err
	}
	_, a.HasDefault = keys["default"]
	return nil
}

// Documentation is a schema together with the operator name.
type Documentation struct {
	Name   string `yaml:"name"`
	Schema `yaml:",inline"`
}

type entry struct {
	Name   string  `yaml:"name"`
	Schema *Schema `yaml:"schema"`
}

// Metadata is a schema store keyed by operator name. A nil *Metadata is an
// empty store.
type Metadata struct {
	schemas map[string]*Schema

	mu         sync.Mutex
	attributes map[string]map[string]*Attribute
}

// New parses a YAML or JSON document holding a list of {name, schema}
// entries. Entries without a name or schema are skipped.
func New(data []byte) (*Metadata, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	m := Empty()
	for _, e := range entries {
		if e.Name == "" || e.Schema == nil {
			continue
		}
		m.schemas[e.Name] = e.Schema
	}
	return m, nil
}

// Empty returns a store without schemas.
func Empty() *Metadata {
	return &Metadata{
		schemas:    make(map[string]*Schema),
		attributes: make(map[string]map[string]*Attribute),
	}
}

// Load reads a metadata document from path.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	return New(data)
}

var (
	defaultOnce sync.Once
	defaultMeta *Metadata
)

// Default returns the built-in schemas. The embedded document is parsed once
// per process; a parse failure yields an empty store.
func Default() *Metadata {
	defaultOnce.Do(func() {
		m, err := New(embedded)
		if err != nil {
			m = Empty()
		}
		defaultMeta = m
	})
	return defaultMeta
}

// Schema returns the schema of op, or nil.
func (m *Metadata) Schema(op string) *Schema {
	if m == nil {
		return nil
	}
	return m.schemas[op]
}

// AttributeSchema returns the attribute of op named name, or nil. The
// per-operator lookup table is built on first use.
func (m *Metadata) AttributeSchema(op, name string) *Attribute {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byName, ok := m.attributes[op]
	if !ok {
		byName = make(map[string]*Attribute)
		if s := m.schemas[op]; s != nil {
			for _, a := range s.Attributes {
				byName[a.Name] = a
			}
		}
		m.attributes[op] = byName
	}
	return byName[name]
}

// Documentation returns a copy of the schema of op with the operator name
// added, or nil when op has no schema.
func (m *Metadata) Documentation(op string) *Documentation {
	s := m.Schema(op)
	if s == nil {
		return nil
	}
	doc := &Documentation{Name: op, Schema: *s}
	doc.Attributes = append([]*Attribute(nil), s.Attributes...)
	doc.Inputs = append([]*Argument(nil), s.Inputs...)
	doc.Outputs = append([]*Argument(nil), s.Outputs...)
	return doc
}

// Operators returns the operator names with a schema, sorted.
func (m *Metadata) Operators() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.schemas))
	for name := range m.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
