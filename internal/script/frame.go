package script

import (
	"github.com/born-ml/torchscript/internal/object"
)

// Frame is one lexical scope. Lookups walk outward through Parent;
// assignments write to the frame they are made on.
type Frame struct {
	vars   *object.Dict
	parent *Frame
}

// NewFrame creates an empty frame nested in parent.
func NewFrame(parent *Frame) *Frame {
	return &Frame{vars: object.NewDict(), parent: parent}
}

// newFrameOver creates a frame whose bindings live in vars, so that packages
// and class bodies write straight into their namespace.
func newFrameOver(parent *Frame, vars *object.Dict) *Frame {
	return &Frame{vars: vars, parent: parent}
}

// Parent returns the enclosing frame, or nil.
func (f *Frame) Parent() *Frame {
	return f.parent
}

// Set binds name in this frame.
func (f *Frame) Set(name string, v object.Value) {
	f.vars.Set(name, v)
}

// Lookup finds the innermost binding of name. A declared but unassigned
// variable is found as object.Unbound and hides outer bindings.
func (f *Frame) Lookup(name string) (object.Value, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if v, ok := cur.vars.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// bound returns the value of name when it is bound to something other than
// Unbound.
func (f *Frame) bound(name string) (object.Value, bool) {
	v, ok := f.Lookup(name)
	if !ok {
		return nil, false
	}
	if _, unbound := v.(object.Unbound); unbound {
		return nil, false
	}
	return v, true
}
