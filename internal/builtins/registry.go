// Package builtins provides the callables and constructors available to the
// script interpreter and the pickle resolver, together with the traced
// operator table that records invocations into a trace log.
package builtins

import (
	"sort"

	"github.com/born-ml/torchscript/internal/object"
)

// Kind classifies a registry entry.
type Kind int

// Entry kinds.
const (
	// Function is a pure value transform.
	Function Kind = iota
	// Constructor produces a tagged object from positional arguments.
	Constructor
	// Operator records a trace node and returns placeholder tensors.
	Operator
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Constructor:
		return "constructor"
	case Operator:
		return "operator"
	default:
		return "unknown"
	}
}

// Handler implements a registry entry.
type Handler func(ctx *Context, args []object.Value, keywords []object.Keyword) (object.Value, error)

// Entry is one qualified name in the registry.
type Entry struct {
	Name    string
	Kind    Kind
	Outputs int // output arity of operators
	Handler Handler
}

// Registry maps qualified names to entries.
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry creates a registry with all supported builtins.
func NewRegistry() *Registry {
	r := &Registry{
		entries: make(map[string]*Entry),
	}

	r.registerStorageTypes()
	r.registerTensorHelpers()
	r.registerPrimitives()
	r.registerOperators()

	return r
}

// Register adds or replaces an entry.
func (r *Registry) Register(entry Entry) {
	e := entry
	r.entries[e.Name] = &e
}

// Get returns the entry for a qualified name.
func (r *Registry) Get(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns every registered qualified name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportedOps returns the qualified names of traced operators in sorted
// order.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0)
	for name, e := range r.entries {
		if e.Kind == Operator {
			ops = append(ops, name)
		}
	}
	sort.Strings(ops)
	return ops
}

// Call invokes the entry registered for name. Unregistered names fall back
// to the shape-inference stubs and otherwise fail with an
// UnknownSymbolError.
func (r *Registry) Call(ctx *Context, name string, args []object.Value, keywords []object.Keyword) (object.Value, error) {
	if e, ok := r.entries[name]; ok {
		return e.Handler(ctx, args, keywords)
	}
	return Stub(name)
}

// Builtin wraps the entry for name as a value bound to ctx.
func (r *Registry) Builtin(ctx *Context, name string) (*object.Builtin, bool) {
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return &object.Builtin{
		Name: name,
		Call: func(args []object.Value, keywords []object.Keyword) (object.Value, error) {
			return e.Handler(ctx, args, keywords)
		},
	}, true
}

func (r *Registry) function(name string, handler Handler) {
	r.Register(Entry{Name: name, Kind: Function, Handler: handler})
}

func (r *Registry) constructor(name string, handler Handler) {
	r.Register(Entry{Name: name, Kind: Constructor, Handler: handler})
}

func arg(args []object.Value, i int) object.Value {
	if i < len(args) {
		return args[i]
	}
	return object.None{}
}
