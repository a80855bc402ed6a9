package script

import (
	"fmt"

	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/object"
)

// TraceResult is the outcome of a tracing attempt.
type TraceResult struct {
	// Traced is false when a recoverable error stopped the attempt; Reason
	// holds that error.
	Traced bool
	Reason error

	Inputs  []string
	Outputs []string
	Nodes   []*builtins.TraceNode
}

// Trace calls the forward method of root with one placeholder tensor per
// parameter other than self, recording traced operators.
//
// Recoverable failures produce an untraced result and roll back every trace
// identifier assigned during the attempt. Other errors are returned.
func (in *Interpreter) Trace(root *object.Module) (*TraceResult, error) {
	tr := in.ctx.Trace
	result, err := in.trace(root, tr)
	if err != nil {
		tr.Rollback()
		if IsRecoverable(err) {
			return &TraceResult{Reason: err}, nil
		}
		return nil, err
	}
	return result, nil
}

func (in *Interpreter) trace(root *object.Module, tr *builtins.Trace) (*TraceResult, error) {
	v, ok := object.Attr(root, "forward")
	if !ok {
		name := "forward"
		if root.Class != nil {
			name = root.Class.QualifiedName() + ".forward"
		}
		return nil, &object.UnknownSymbolError{Name: name}
	}
	forward, ok := v.(*object.Function)
	if !ok {
		return nil, object.Unsupported("forward is %s", v.Kind())
	}

	result := &TraceResult{Traced: true}
	var args []object.Value
	for _, p := range forward.Params {
		if p == "self" {
			continue
		}
		t := object.NewPlaceholder()
		tr.Bind(t, p)
		args = append(args, t)
		result.Inputs = append(result.Inputs, p)
	}

	out, err := forward.Call(root, args, nil)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	result.Outputs = outputs(tr, out)
	result.Nodes = tr.Nodes
	return result, nil
}

// outputs returns the identifiers of the tensors in a forward result.
func outputs(tr *builtins.Trace, v object.Value) []string {
	switch o := v.(type) {
	case *object.Tensor:
		return []string{tr.Identify(o)}
	case *object.List:
		var ids []string
		for _, item := range o.Items {
			ids = append(ids, outputs(tr, item)...)
		}
		return ids
	default:
		return nil
	}
}
