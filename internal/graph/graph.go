package graph

import (
	"github.com/born-ml/torchscript/internal/metadata"
	"github.com/born-ml/torchscript/internal/tensor"
)

// Graph is the normalized computation graph of one archive.
type Graph struct {
	Name    string
	Inputs  []*Parameter
	Outputs []*Parameter
	Nodes   []*Node
}

// Parameter is a named slot of a node or graph holding one or more
// arguments.
type Parameter struct {
	Name      string
	Visible   bool
	Arguments []*Argument
}

// Argument is a value flowing along an edge. ID is the dataflow identifier
// and is empty for module parameters.
type Argument struct {
	ID          string
	Initializer *tensor.Tensor

	typ *tensor.Type
}

// Type returns the initializer type, or nil when the argument carries no
// initializer.
func (a *Argument) Type() *tensor.Type {
	if a.Initializer != nil {
		t := a.Initializer.Type()
		return &t
	}
	return a.typ
}

// Node is one operator invocation or one parameter-holding module.
type Node struct {
	// Name is the qualified module path for module-derived nodes, e.g.
	// "features.0".
	Name string
	// Operator is the short traced operator name, or "Module".
	Operator   string
	Inputs     []*Parameter
	Outputs    []*Parameter
	Attributes []*Attribute

	meta *metadata.Metadata
}

// Category returns the schema category of the operator, or "".
func (n *Node) Category() string {
	if s := n.meta.Schema(n.Operator); s != nil {
		return s.Category
	}
	return ""
}

// Documentation returns the operator schema with its name, or nil.
func (n *Node) Documentation() *metadata.Documentation {
	return n.meta.Documentation(n.Operator)
}

// Attribute is a non-tensor argument of a traced operator.
type Attribute struct {
	Name    string
	Type    string
	Value   any
	Visible bool
}
