package graph

import (
	"strconv"

	"k8s.io/klog/v2"

	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/metadata"
	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/script"
)

// bookkeeping names the tensor field that never counts as a parameter.
const bookkeeping = "num_batches_tracked"

// Model is the loaded archive as seen by the builder.
type Model interface {
	Name() string
	Root() *object.Module
	Arena() *object.Arena
	Trace() (*script.TraceResult, error)
}

// Options configures Build.
type Options struct {
	Logger klog.Logger

	// TraceAttributes turns the non-tensor arguments of traced operators
	// into node attributes. They are dropped otherwise.
	TraceAttributes bool
}

// parameter is a tensor field registered under its trace identifier.
type parameter struct {
	tensor *object.Tensor
	owner  *object.Module
}

type builder struct {
	arena  *object.Arena
	meta   *metadata.Metadata
	opts   Options
	params map[string]parameter
	graph  *Graph
}

// Build traces model, registers every tensor field of the module tree,
// folds fully consumed parameter modules into the traced nodes and emits a
// Module node for every remaining module holding parameters.
func Build(model Model, meta *metadata.Metadata, opts Options) (*Graph, error) {
	b := &builder{
		arena:  model.Arena(),
		meta:   meta,
		opts:   opts,
		params: make(map[string]parameter),
		graph:  &Graph{Name: model.Name()},
	}

	result, err := model.Trace()
	if err != nil {
		return nil, err
	}
	if !result.Traced {
		opts.Logger.Error(result.Reason, "Tracing failed", "model", model.Name())
	}

	root := model.Root()
	b.register(root)

	if result.Traced {
		for _, in := range result.Inputs {
			b.graph.Inputs = append(b.graph.Inputs, &Parameter{Name: in, Visible: true, Arguments: []*Argument{{ID: in}}})
		}
		for _, out := range result.Outputs {
			b.graph.Outputs = append(b.graph.Outputs, &Parameter{Name: out, Visible: true, Arguments: []*Argument{{ID: out}}})
		}
		for _, tn := range result.Nodes {
			b.graph.Nodes = append(b.graph.Nodes, b.traced(tn))
		}
	}

	b.modules(root, make(map[*object.Module]bool))
	opts.Logger.V(2).Info("Built graph", "traced", result.Traced, "nodes", len(b.graph.Nodes), "parameters", len(b.params))
	return b.graph, nil
}

// register walks the module tree breadth first. Tensors with a single trace
// identifier become parameters; submodules get a parent and an identifier
// when first discovered.
func (b *builder) register(root *object.Module) {
	queue := []*object.Module{root}
	seen := map[*object.Module]bool{root: true}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		for _, key := range m.Fields.Keys() {
			v, _ := m.Fields.Get(key)
			switch f := v.(type) {
			case *object.Tensor:
				if len(f.Outputs) == 1 {
					if _, ok := b.params[f.Outputs[0]]; !ok {
						b.params[f.Outputs[0]] = parameter{tensor: f, owner: m}
					}
				}
			case *object.Module:
				if seen[f] {
					continue
				}
				seen[f] = true
				if !f.HasParent() {
					b.arena.SetParent(f, m)
				}
				if f.ID == "" {
					f.ID = key
				}
				queue = append(queue, f)
			}
		}
	}
}

// traced converts a trace node, folding the parameters of its owning module
// when the node consumes all of them.
func (b *builder) traced(tn *builtins.TraceNode) *Node {
	node := &Node{Operator: tn.Operator, meta: b.meta}
	schema := b.meta.Schema(tn.Operator)

	var owner *object.Module
	count := 0
	match := true
groups:
	for _, group := range tn.Inputs {
		for _, arg := range group {
			p, ok := b.params[arg.ID]
			if !ok {
				continue
			}
			if owner != nil && owner != p.owner {
				match = false
				break groups
			}
			owner = p.owner
			count++
		}
	}
	folded := owner != nil && match && !owner.Hidden && count == len(parameters(owner))
	if folded {
		owner.Hidden = true
		node.Name = b.qualifiedName(owner)
	}

	for i, group := range tn.Inputs {
		name := strconv.Itoa(i)
		if schema != nil && i < len(schema.Inputs) {
			name = schema.Inputs[i].Name
		}
		param := &Parameter{Name: name, Visible: true}
		for _, arg := range group {
			a := &Argument{ID: arg.ID}
			if p, ok := b.params[arg.ID]; ok && folded {
				a.Initializer = p.tensor.Initializer()
			}
			param.Arguments = append(param.Arguments, a)
		}
		node.Inputs = append(node.Inputs, param)
	}
	for i, out := range tn.Outputs {
		name := strconv.Itoa(i)
		if schema != nil && i < len(schema.Outputs) {
			name = schema.Outputs[i].Name
		}
		node.Outputs = append(node.Outputs, &Parameter{Name: name, Visible: true, Arguments: []*Argument{{ID: out}}})
	}

	if b.opts.TraceAttributes {
		node.Attributes = b.attributes(tn)
	}
	return node
}

// modules walks the tree depth first and emits a Module node for every
// module that holds parameters and was not folded.
func (b *builder) modules(m *object.Module, seen map[*object.Module]bool) {
	if seen[m] {
		return
	}
	seen[m] = true
	if !m.Hidden && len(parameters(m)) > 0 {
		b.graph.Nodes = append(b.graph.Nodes, b.module(m))
	}
	for _, key := range m.Fields.Keys() {
		v, _ := m.Fields.Get(key)
		if sub, ok := v.(*object.Module); ok {
			b.modules(sub, seen)
		}
	}
}

func (b *builder) module(m *object.Module) *Node {
	node := &Node{Operator: "Module", Name: b.qualifiedName(m), meta: b.meta}
	for _, key := range m.Fields.Keys() {
		v, _ := m.Fields.Get(key)
		t, ok := v.(*object.Tensor)
		if !ok {
			continue
		}
		node.Inputs = append(node.Inputs, &Parameter{
			Name:      key,
			Visible:   true,
			Arguments: []*Argument{{Initializer: t.Initializer()}},
		})
		if len(t.Outputs) > 0 {
			out := &Parameter{Name: key, Visible: true}
			for _, id := range t.Outputs {
				out.Arguments = append(out.Arguments, &Argument{ID: id})
			}
			node.Outputs = append(node.Outputs, out)
		}
	}
	return node
}

// parameters returns the names of the tensor fields of m, excluding the
// bookkeeping field.
func parameters(m *object.Module) []string {
	var names []string
	for _, key := range m.Fields.Keys() {
		if key == bookkeeping {
			continue
		}
		v, _ := m.Fields.Get(key)
		if _, ok := v.(*object.Tensor); ok {
			names = append(names, key)
		}
	}
	return names
}

// qualifiedName joins the identifiers along the parent chain of m, stopping
// at an ancestor that has neither identifier nor parent.
func (b *builder) qualifiedName(m *object.Module) string {
	if m.ID == "" {
		return ""
	}
	name := m.ID
	for cur := m; cur.HasParent(); {
		cur = b.arena.Parent(cur)
		if !cur.HasParent() && cur.ID == "" {
			break
		}
		name = cur.ID + "." + name
	}
	return name
}
