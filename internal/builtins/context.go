package builtins

import (
	"strconv"

	"github.com/born-ml/torchscript/internal/object"
)

// Context carries the state owned by one load.
type Context struct {
	Arena *object.Arena
	Trace *Trace
}

// NewContext creates a context with an empty trace log.
func NewContext(arena *object.Arena) *Context {
	if arena == nil {
		arena = object.NewArena()
	}
	return &Context{Arena: arena, Trace: &Trace{}}
}

// Arg is one traced input value.
type Arg struct {
	ID     string
	Tensor *object.Tensor
}

// TraceNode is a recorded operator invocation.
type TraceNode struct {
	// Operator is the short operator name, e.g. "addmm".
	Operator string
	// Qualified is the registry name, e.g. "torch.addmm".
	Qualified string
	// Inputs holds one group per tensor or tensor-list argument.
	Inputs   [][]Arg
	Outputs  []string
	Extras   []object.Value
	Keywords []object.Keyword
}

// Trace is the append-only log of traced invocations.
type Trace struct {
	Nodes []*TraceNode

	next     int
	assigned []*object.Tensor
}

// Identify returns the dataflow identifier of t, assigning a fresh one when
// it has none.
func (tr *Trace) Identify(t *object.Tensor) string {
	if len(t.Outputs) == 0 {
		tr.next++
		t.Outputs = []string{strconv.Itoa(tr.next)}
		tr.assigned = append(tr.assigned, t)
	}
	return t.Outputs[0]
}

// Bind sets the identifiers of t and remembers it for Rollback.
func (tr *Trace) Bind(t *object.Tensor, ids ...string) {
	t.Outputs = ids
	tr.assigned = append(tr.assigned, t)
}

// Append records a node.
func (tr *Trace) Append(node *TraceNode) {
	tr.Nodes = append(tr.Nodes, node)
}

// Rollback discards recorded nodes and clears every identifier assigned
// since the trace started.
func (tr *Trace) Rollback() {
	for _, t := range tr.assigned {
		t.Outputs = nil
	}
	tr.assigned = nil
	tr.Nodes = nil
	tr.next = 0
}
