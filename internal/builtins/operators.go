package builtins

import (
	"strings"

	"github.com/born-ml/torchscript/internal/object"
)

// tracedOperators lists the operators recorded into the trace log, with
// their output arity.
var tracedOperators = map[string]int{
	"torch._convolution":        1,
	"torch.addmm":               1,
	"torch.relu_":               1,
	"torch.relu":                1,
	"torch.max_pool2d":          1,
	"torch.view":                1,
	"torch.matmul":              1,
	"torch.flatten":             1,
	"torch.add_":                1,
	"torch.add":                 1,
	"torch.mul_":                1,
	"torch.mean":                1,
	"torch.log_softmax":         1,
	"torch.dropout":             1,
	"torch.dropout_":            1,
	"torch.adaptive_avg_pool2d": 1,
	"torch.batch_norm":          1,
	"torch.cat":                 1,
	"torch.select":              1,
	"torch.unsqueeze":           1,
}

func (r *Registry) registerOperators() {
	for name, outputs := range tracedOperators {
		r.Register(Entry{
			Name:    name,
			Kind:    Operator,
			Outputs: outputs,
			Handler: traced(name, outputs),
		})
	}
}

// traced returns a handler that appends a trace node and returns fresh
// placeholder tensors.
//
// Leading tensor and non-empty tensor-list arguments become input groups;
// everything after the first other argument is kept as extras.
func traced(name string, outputs int) Handler {
	short := name[strings.LastIndex(name, ".")+1:]
	return func(ctx *Context, args []object.Value, keywords []object.Keyword) (object.Value, error) {
		tr := ctx.Trace
		node := &TraceNode{
			Operator:  short,
			Qualified: name,
			Keywords:  keywords,
		}
		i := 0
	inputs:
		for ; i < len(args); i++ {
			switch v := args[i].(type) {
			case *object.Tensor:
				node.Inputs = append(node.Inputs, []Arg{{ID: tr.Identify(v), Tensor: v}})
			case *object.List:
				group, ok := tensorList(tr, v)
				if !ok {
					break inputs
				}
				node.Inputs = append(node.Inputs, group)
			default:
				break inputs
			}
		}
		node.Extras = args[i:]

		results := make([]object.Value, outputs)
		for j := range results {
			t := object.NewPlaceholder()
			node.Outputs = append(node.Outputs, tr.Identify(t))
			results[j] = t
		}
		tr.Append(node)

		if outputs == 1 {
			return results[0], nil
		}
		return object.NewTuple(results...), nil
	}
}

func tensorList(tr *Trace, l *object.List) ([]Arg, bool) {
	if l.Len() == 0 {
		return nil, false
	}
	for _, item := range l.Items {
		if _, ok := item.(*object.Tensor); !ok {
			return nil, false
		}
	}
	group := make([]Arg, l.Len())
	for i, item := range l.Items {
		t := item.(*object.Tensor)
		group[i] = Arg{ID: tr.Identify(t), Tensor: t}
	}
	return group, true
}

// Stub returns a shape-inference placeholder for a few operators that are
// not traced. Any other name fails with an UnknownSymbolError.
func Stub(name string) (object.Value, error) {
	switch name {
	case "torch.conv2d":
		t := object.NewPlaceholder()
		t.Size = []int{0, 0, 0, 0}
		return t, nil
	case "torch.max_pool2d_with_indices":
		return object.NewTuple(object.NewPlaceholder(), object.NewPlaceholder()), nil
	case "torch.list_with_default":
		return object.NewList(object.Int(0)), nil
	case "torch.size":
		return object.Int(0), nil
	}
	return nil, &object.UnknownSymbolError{Name: name}
}
