// Package object defines the closed value model shared by the deserializer,
// the script interpreter and the graph builder.
//
// Every runtime value is one of the concrete types in this package. Module
// values are allocated in an Arena and refer to their parent by index.
package object

import (
	"strconv"
)

// Value is implemented by every runtime value. The set of implementations is
// closed; switch over the concrete types to inspect one.
type Value interface {
	// Kind returns a short, human-readable name for the value's variant.
	Kind() string
	isValue()
}

// None is the absent value.
type None struct{}

// Bool is a boolean.
type Bool bool

// Int is an integer.
type Int int64

// Float is a double precision number.
type Float float64

// String is a text value.
type String string

// Unbound is the value of a declared but unassigned variable.
type Unbound struct{}

// TypeRef names a type annotation such as "Tensor" or "List[int]".
type TypeRef struct {
	Name string
}

// Keyword is a named call argument.
type Keyword struct {
	Name  string
	Value Value
}

// Function is a callable defined by script source. Params lists the declared
// parameter names including a leading "self".
type Function struct {
	Module string
	Name   string
	Params []string
	Call   func(self Value, args []Value, keywords []Keyword) (Value, error)
}

// Builtin is a callable provided by the runtime.
type Builtin struct {
	Name string
	Call func(args []Value, keywords []Keyword) (Value, error)
}

// Namespace is a package or an intermediate node of the dotted global name
// tree.
type Namespace struct {
	Name    string
	Members *Dict
}

// NewNamespace creates an empty namespace.
func NewNamespace(name string) *Namespace {
	return &Namespace{Name: name, Members: NewDict()}
}

func (None) Kind() string       { return "None" }
func (Bool) Kind() string       { return "bool" }
func (Int) Kind() string        { return "int" }
func (Float) Kind() string      { return "float" }
func (String) Kind() string     { return "str" }
func (Unbound) Kind() string    { return "unbound" }
func (TypeRef) Kind() string    { return "type" }
func (*Function) Kind() string  { return "function" }
func (*Builtin) Kind() string   { return "builtin" }
func (*Namespace) Kind() string { return "module" }
func (*List) Kind() string      { return "list" }
func (*Dict) Kind() string      { return "dict" }
func (*Tensor) Kind() string    { return "Tensor" }
func (*Storage) Kind() string   { return "Storage" }
func (*Module) Kind() string    { return "object" }
func (*Class) Kind() string     { return "class" }

func (None) isValue()       {}
func (Bool) isValue()       {}
func (Int) isValue()        {}
func (Float) isValue()      {}
func (String) isValue()     {}
func (Unbound) isValue()    {}
func (TypeRef) isValue()    {}
func (*Function) isValue()  {}
func (*Builtin) isValue()   {}
func (*Namespace) isValue() {}
func (*List) isValue()      {}
func (*Dict) isValue()      {}
func (*Tensor) isValue()    {}
func (*Storage) isValue()   {}
func (*Module) isValue()    {}
func (*Class) isValue()     {}

// List is an ordered sequence. Tuple marks values produced by tuple syntax
// or tuple opcodes.
type List struct {
	Items []Value
	Tuple bool
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// NewTuple creates a tuple holding items.
func NewTuple(items ...Value) *List {
	return &List{Items: items, Tuple: true}
}

// Len returns the number of items.
func (l *List) Len() int {
	return len(l.Items)
}

// Dict is an insertion-ordered mapping with string keys.
type Dict struct {
	keys   []string
	values map[string]Value
}

// NewDict creates an empty dictionary.
func NewDict() *Dict {
	return &Dict{values: make(map[string]Value)}
}

// Set binds key to value, keeping the original position of an existing key.
func (d *Dict) Set(key string, value Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value bound to key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is bound.
func (d *Dict) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	return d.keys
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	return len(d.keys)
}

// Key converts a primitive value into a dictionary key.
func Key(v Value) (string, bool) {
	switch k := v.(type) {
	case String:
		return string(k), true
	case Int:
		return strconv.FormatInt(int64(k), 10), true
	case Bool:
		if k {
			return "True", true
		}
		return "False", true
	default:
		return "", false
	}
}

// IsNone reports whether v is absent or None.
func IsNone(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(None)
	return ok
}

// Attr returns the attribute name of v. Module fields shadow class members.
func Attr(v Value, name string) (Value, bool) {
	switch o := v.(type) {
	case *Module:
		if f, ok := o.Fields.Get(name); ok {
			return f, true
		}
		if o.Class != nil {
			return o.Class.Members.Get(name)
		}
	case *Class:
		return o.Members.Get(name)
	case *Namespace:
		return o.Members.Get(name)
	case *Dict:
		return o.Get(name)
	}
	return nil, false
}

// SetAttr assigns attribute name on v.
func SetAttr(v Value, name string, value Value) bool {
	switch o := v.(type) {
	case *Module:
		o.Fields.Set(name, value)
	case *Class:
		o.Members.Set(name, value)
	case *Namespace:
		o.Members.Set(name, value)
	case *Dict:
		o.Set(name, value)
	default:
		return false
	}
	return true
}
