// Package torchscript loads TorchScript archives into a normalized
// computation graph for inspection.
//
// A TorchScript archive is a zip file holding a pickled module tree
// (data.pkl, or model.json in older exports), raw tensor storages and the
// module source code. The loader deserializes the module tree, runs the
// root module's forward method symbolically to record the operators it
// calls, and folds parameter-holding submodules into the operators that
// consume them.
//
// # Supported Features
//
//   - data.pkl archives (PyTorch 1.1+) and model.json archives (PyTorch 1.0)
//   - Archives with a common directory prefix
//   - Symbolic tracing of the forward method when a parser is supplied
//   - Lazy, limit-aware decoding of initializer values
//   - Operator attributes named and filtered through a schema store
//
// # Example Usage
//
//	import "github.com/born-ml/torchscript"
//
//	model, err := torchscript.OpenFile("resnet18.pt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(model.Format())
//	for _, node := range model.Graphs()[0].Nodes {
//	    fmt.Println(node.Operator, node.Name)
//	}
//
// Without a parser the embedded source code cannot be executed, so the
// model is reported untraced and every parameter-holding submodule
// becomes a standalone "Module" node.
//
// Use [ListSupportedOps] to get the operators recorded by the tracer.
package torchscript

import (
	"errors"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript/internal/archive"
	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/container"
	"github.com/born-ml/torchscript/internal/graph"
	"github.com/born-ml/torchscript/internal/metadata"
	"github.com/born-ml/torchscript/internal/script"
	"github.com/born-ml/torchscript/internal/tensor"
)

// Entry is one named blob of an archive.
type Entry = archive.Entry

// Graph is the normalized computation graph of a model.
type Graph = graph.Graph

// Node is an operator invocation or a parameter-holding module.
type Node = graph.Node

// Parameter is a named input or output slot of a node or graph.
type Parameter = graph.Parameter

// Argument is a value flowing along a graph edge.
type Argument = graph.Argument

// Attribute is a non-tensor argument of a traced operator.
type Attribute = graph.Attribute

// Tensor is a raw initializer whose values are decoded on demand.
type Tensor = tensor.Tensor

// DisplayLimit is the element budget of Tensor.String.
const DisplayLimit = tensor.DisplayLimit

// Metadata is the operator schema store used to name node inputs and
// attributes.
type Metadata = metadata.Metadata

// Parser turns embedded source code into statements.
//
// Note: This type references internal statement types; implementations
// live alongside this module.
type Parser = script.Parser

// LoadOptions configures archive loading.
type LoadOptions struct {
	// Parser parses the source code stored in the archive. Nil leaves the
	// model untraced.
	Parser Parser

	// Metadata supplies operator schemas. Nil disables schema lookups.
	Metadata *Metadata

	// Logger receives non-fatal diagnostics such as tracing failures.
	Logger klog.Logger

	// TraceAttributes keeps the non-tensor arguments of traced operators
	// as node attributes.
	TraceAttributes bool
}

// DefaultLoadOptions returns the default options for loading archives.
//
// Default configuration:
//   - Parser: none (models load untraced)
//   - Metadata: built-in operator schemas
//   - Logger: klog.Background()
//   - TraceAttributes: disabled
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Metadata: metadata.Default(),
		Logger:   klog.Background(),
	}
}

// LoadMetadata reads an operator schema document in YAML or JSON from path.
// Use it to replace the built-in schemas in [LoadOptions].
func LoadMetadata(path string) (*Metadata, error) {
	return metadata.Load(path)
}

// Model is a loaded TorchScript archive.
type Model struct {
	identifier string
	version    string
	producer   string
	graphs     []*Graph
}

// Identifier returns the name the archive was opened under.
func (m *Model) Identifier() string { return m.identifier }

// Format returns "TorchScript v" followed by the archive version.
func (m *Model) Format() string { return "TorchScript v" + m.version }

// Producer returns the exporting tool recorded in the archive, or "".
func (m *Model) Producer() string { return m.producer }

// Graphs returns the model graphs. A TorchScript archive holds one.
func (m *Model) Graphs() []*Graph { return m.graphs }

// Open loads a model from the entries of an already unpacked archive.
//
// identifier names the archive in error messages, typically its file name.
// Fatal errors are returned as *Error.
//
// Example:
//
//	opts := torchscript.DefaultLoadOptions()
//	opts.TraceAttributes = true
//	model, err := torchscript.Open("model.pt", entries, opts)
func Open(identifier string, entries []Entry, opts ...LoadOptions) (*Model, error) {
	opt := DefaultLoadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	c, err := container.Open(identifier, entries, container.Options{
		Parser: opt.Parser,
		Logger: opt.Logger,
	})
	if err != nil {
		return nil, newError(identifier, err)
	}

	g, err := graph.Build(c, opt.Metadata, graph.Options{
		Logger:          opt.Logger,
		TraceAttributes: opt.TraceAttributes,
	})
	if err != nil {
		return nil, newError(identifier, err)
	}

	return &Model{
		identifier: identifier,
		version:    c.Version(),
		producer:   c.Producer(),
		graphs:     []*Graph{g},
	}, nil
}

// OpenFile loads a model from a zip archive on disk. The base name of path
// identifies the archive in error messages.
func OpenFile(path string, opts ...LoadOptions) (*Model, error) {
	identifier := filepath.Base(path)
	entries, err := archive.ReadZipFile(path)
	if err != nil {
		return nil, newError(identifier, err)
	}
	return Open(identifier, entries, opts...)
}

// OpenBytes loads a model from the bytes of a zip archive.
//
// This is useful when the archive was fetched from a network source.
func OpenBytes(identifier string, data []byte, opts ...LoadOptions) (*Model, error) {
	entries, err := archive.ReadZipBytes(data)
	if err != nil {
		return nil, newError(identifier, err)
	}
	return Open(identifier, entries, opts...)
}

// Match reports whether identifier and entries look like a TorchScript
// archive.
func Match(identifier string, entries []Entry) bool {
	return container.Match(identifier, entries)
}

// ListSupportedOps returns the qualified names of the operators recorded
// by the tracer, sorted.
//
// Example:
//
//	for _, op := range torchscript.ListSupportedOps() {
//	    fmt.Println(op)
//	}
func ListSupportedOps() []string {
	return builtins.NewRegistry().SupportedOps()
}

// Error is a fatal load error. Its message ends with the archive
// identifier.
type Error struct {
	Message    string
	Identifier string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFormatError reports whether err was caused by an archive that is not a
// valid TorchScript container.
func IsFormatError(err error) bool {
	return container.IsFormatError(err)
}

func newError(identifier string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	message := strings.TrimRight(err.Error(), ". ")
	return &Error{
		Message:    message + " in '" + identifier + "'.",
		Identifier: identifier,
		Err:        err,
	}
}
