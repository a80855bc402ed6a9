package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/script/ast"
)

// Parser turns source text into statements.
type Parser interface {
	Parse(filename string, code []byte) ([]ast.Stmt, error)
}

// Source resolves a dotted package name to its parsed program. It returns
// an error wrapping ErrSourceNotFound when the package has no source.
type Source interface {
	Load(name string) ([]ast.Stmt, error)
}

// Options configures an Interpreter.
type Options struct {
	Logger klog.Logger

	// Constants returns the values exposed as CONSTANTS.c0, CONSTANTS.c1 and
	// so on. It is called at most once, on the first reference.
	Constants func() ([]object.Value, error)
}

// Interpreter executes programs against a global scope populated from a
// builtin registry.
type Interpreter struct {
	registry  *builtins.Registry
	ctx       *builtins.Context
	source    Source
	globals   *Frame
	packages  map[string]*object.Namespace
	constants func() ([]object.Value, error)
	constNS   *object.Namespace
	log       klog.Logger
}

// New creates an interpreter. source may be nil, in which case every
// package is reported as not found.
func New(registry *builtins.Registry, ctx *builtins.Context, source Source, opts Options) *Interpreter {
	in := &Interpreter{
		registry:  registry,
		ctx:       ctx,
		source:    source,
		globals:   NewFrame(nil),
		packages:  make(map[string]*object.Namespace),
		constants: opts.Constants,
		log:       opts.Logger,
	}
	for _, name := range registry.Names() {
		b, _ := registry.Builtin(ctx, name)
		in.define(name, b)
	}
	return in
}

// Context returns the builtin context shared with the registry.
func (in *Interpreter) Context() *builtins.Context {
	return in.ctx
}

// Globals returns the global frame.
func (in *Interpreter) Globals() *Frame {
	return in.globals
}

// define binds a dotted name in the global namespace tree, creating
// intermediate namespaces as needed.
func (in *Interpreter) define(name string, v object.Value) {
	parts := strings.Split(name, ".")
	if len(parts) == 1 {
		in.globals.Set(name, v)
		return
	}
	ns := in.namespace(parts[:len(parts)-1])
	ns.Members.Set(parts[len(parts)-1], v)
}

// namespace returns the namespace for a dotted path, creating it and its
// ancestors. A non-namespace binding on the path is replaced.
func (in *Interpreter) namespace(parts []string) *object.Namespace {
	var ns *object.Namespace
	for i, part := range parts {
		var next object.Value
		var ok bool
		if ns == nil {
			next, ok = in.globals.vars.Get(part)
		} else {
			next, ok = ns.Members.Get(part)
		}
		child, isNS := next.(*object.Namespace)
		if !ok || !isNS {
			child = object.NewNamespace(strings.Join(parts[:i+1], "."))
			if ns == nil {
				in.globals.Set(part, child)
			} else {
				ns.Members.Set(part, child)
			}
		}
		ns = child
	}
	return ns
}

// lookup resolves a dotted name through the global namespace tree without
// loading packages.
func (in *Interpreter) lookup(name string) (object.Value, bool) {
	parts := strings.Split(name, ".")
	v, ok := in.globals.bound(parts[0])
	if !ok {
		return nil, false
	}
	for _, part := range parts[1:] {
		v, ok = object.Attr(v, part)
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// Package returns the namespace of a dotted package, parsing and executing
// its source on first use. Later calls return the same namespace.
func (in *Interpreter) Package(name string) (*object.Namespace, error) {
	if ns, ok := in.packages[name]; ok {
		return ns, nil
	}
	if in.source == nil {
		return nil, fmt.Errorf("package %s: %w", name, ErrSourceNotFound)
	}
	program, err := in.source.Load(name)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", name, err)
	}
	ns := in.namespace(strings.Split(name, "."))
	ns.Members.Set("__name__", object.String(name))
	in.packages[name] = ns
	in.log.V(2).Info("Loading package", "name", name, "statements", len(program))

	if _, _, err := in.block(program, nil, newFrameOver(in.globals, ns.Members)); err != nil {
		delete(in.packages, name)
		return nil, fmt.Errorf("package %s: %w", name, err)
	}
	return ns, nil
}

// resolve finds the value of a qualified name, loading the enclosing package
// when the global tree does not know it yet.
func (in *Interpreter) resolve(name string) (object.Value, error) {
	if v, ok := in.lookup(name); ok {
		return v, nil
	}
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return nil, &object.UnknownSymbolError{Name: name}
	}
	ns, err := in.Package(name[:i])
	if err != nil {
		return nil, err
	}
	if v, ok := ns.Members.Get(name[i+1:]); ok {
		return v, nil
	}
	return nil, &object.UnknownSymbolError{Name: name}
}

// Invoke applies the function or class registered under name to args. Names
// that resolve to nothing fall through to the shape-inference stubs.
func (in *Interpreter) Invoke(name string, args []object.Value) (object.Value, error) {
	target, err := in.resolve(name)
	switch {
	case err == nil:
		return in.call(target, object.None{}, args, nil)
	case errors.Is(err, ErrSourceNotFound) || object.IsUnknownSymbol(err):
		return builtins.Stub(name)
	default:
		return nil, err
	}
}

// Construct creates an instance of the class registered under name. A class
// without source becomes a placeholder class carrying the qualified name, so
// its instances still hold the deserialized state.
func (in *Interpreter) Construct(name string, args []object.Value) (object.Value, error) {
	target, err := in.resolve(name)
	if err != nil {
		if !errors.Is(err, ErrSourceNotFound) && !object.IsUnknownSymbol(err) {
			return nil, err
		}
		module, short := "", name
		if i := strings.LastIndex(name, "."); i >= 0 {
			module, short = name[:i], name[i+1:]
		}
		class := object.NewClass(module, short)
		class.Placeholder = true
		in.define(name, class)
		in.log.V(2).Info("Using placeholder class", "name", name)
		target = class
	}
	return in.call(target, object.None{}, args, nil)
}

// Exec runs a program in a fresh scope below the globals and returns the
// bindings it made.
func (in *Interpreter) Exec(program []ast.Stmt) (*object.Dict, error) {
	frame := NewFrame(in.globals)
	frame.Set("__name__", object.String("__main__"))
	if _, _, err := in.block(program, nil, frame); err != nil {
		return nil, err
	}
	return frame.vars, nil
}

// call applies a callable value. self is the receiver for script functions.
func (in *Interpreter) call(target, self object.Value, args []object.Value, keywords []object.Keyword) (object.Value, error) {
	switch fn := target.(type) {
	case *object.Builtin:
		return fn.Call(args, keywords)
	case *object.Function:
		return fn.Call(self, args, keywords)
	case *object.Class:
		return in.instantiate(fn, args, keywords)
	default:
		return nil, object.Unsupported("%s is not callable", target.Kind())
	}
}

func (in *Interpreter) instantiate(class *object.Class, args []object.Value, keywords []object.Keyword) (object.Value, error) {
	m := in.ctx.Arena.New(class)
	if ctor, ok := class.Members.Get("__init__"); ok {
		if fn, ok := ctor.(*object.Function); ok {
			if _, err := fn.Call(m, args, keywords); err != nil {
				return nil, fmt.Errorf("%s.__init__: %w", class.QualifiedName(), err)
			}
		}
	}
	return m, nil
}

// constantsNamespace builds CONSTANTS on first reference.
func (in *Interpreter) constantsNamespace() (*object.Namespace, error) {
	if in.constNS != nil {
		return in.constNS, nil
	}
	ns := object.NewNamespace("CONSTANTS")
	if in.constants != nil {
		values, err := in.constants()
		if err != nil {
			return nil, fmt.Errorf("loading constants: %w", err)
		}
		for i, v := range values {
			ns.Members.Set("c"+strconv.Itoa(i), v)
		}
	}
	in.constNS = ns
	return ns, nil
}
