package object

// Class is a type created by a class definition, a registered constructor or
// a placeholder for a class whose source is unavailable.
type Class struct {
	Module  string
	Name    string
	Members *Dict

	// Placeholder marks classes synthesized for unresolved names.
	Placeholder bool
}

// NewClass creates a class without members.
func NewClass(module, name string) *Class {
	return &Class{Module: module, Name: name, Members: NewDict()}
}

// QualifiedName returns "module.name".
func (c *Class) QualifiedName() string {
	if c.Module == "" {
		return c.Name
	}
	return c.Module + "." + c.Name
}

// Module is an object instance in the deserialized module tree.
//
// Fields keep their assignment order. Parent is an arena index, or -1 when
// the module has not been attached to a parent.
type Module struct {
	Class  *Class
	Fields *Dict

	// ID is the field name under which the parent holds this module.
	ID string

	// Hidden is set once the module has been folded into a traced node.
	Hidden bool

	index  int
	parent int
}

// Index returns the module's arena index.
func (m *Module) Index() int {
	return m.index
}

// Parent returns the parent's arena index, or -1.
func (m *Module) Parent() int {
	return m.parent
}

// HasParent reports whether a parent has been assigned.
func (m *Module) HasParent() bool {
	return m.parent >= 0
}

// Arena owns every module created during one load.
type Arena struct {
	modules []*Module
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a module of the given class.
func (a *Arena) New(class *Class) *Module {
	m := &Module{
		Class:  class,
		Fields: NewDict(),
		index:  len(a.modules),
		parent: -1,
	}
	a.modules = append(a.modules, m)
	return m
}

// Get returns the module at index, or nil when the index is out of range.
func (a *Arena) Get(index int) *Module {
	if index < 0 || index >= len(a.modules) {
		return nil
	}
	return a.modules[index]
}

// Len returns the number of allocated modules.
func (a *Arena) Len() int {
	return len(a.modules)
}

// SetParent links child to parent.
func (a *Arena) SetParent(child, parent *Module) {
	child.parent = parent.index
}

// Parent returns the parent module of m, or nil.
func (a *Arena) Parent(m *Module) *Module {
	return a.Get(m.parent)
}
