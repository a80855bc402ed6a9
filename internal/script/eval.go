package script

import (
	"strconv"
	"strings"

	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/script/ast"
)

// typeNames are identifiers that evaluate to type references when nothing
// else binds them.
var typeNames = map[string]bool{
	"Tensor":   true,
	"int":      true,
	"float":    true,
	"bool":     true,
	"str":      true,
	"Any":      true,
	"NoneType": true,
	"Device":   true,
}

// genericTypes are subscriptable type constructors, e.g. List[int].
var genericTypes = map[string]bool{
	"List":     true,
	"Optional": true,
	"Tuple":    true,
	"Dict":     true,
}

func (in *Interpreter) eval(e ast.Expr, self object.Value, frame *Frame) (object.Value, error) {
	switch x := e.(type) {
	case ast.Number:
		return number(x.Text)
	case ast.String:
		return object.String(x.Value), nil
	case ast.Ident:
		return in.ident(x.Name, self, frame)
	case ast.List:
		items, err := in.evalAll(x.Items, self, frame)
		if err != nil {
			return nil, err
		}
		return object.NewList(items...), nil
	case ast.Tuple:
		items, err := in.evalAll(x.Items, self, frame)
		if err != nil {
			return nil, err
		}
		return object.NewTuple(items...), nil
	case ast.Attr:
		obj, err := in.evalObject(x.X, self, frame)
		if err != nil {
			return nil, err
		}
		return in.member(obj, x.Name)
	case ast.Subscript:
		return in.subscript(x, self, frame)
	case ast.Call:
		return in.evalCall(x, self, frame)
	default:
		return nil, object.Unsupported("expression %T", e)
	}
}

func (in *Interpreter) evalAll(exprs []ast.Expr, self object.Value, frame *Frame) ([]object.Value, error) {
	values := make([]object.Value, len(exprs))
	for i, e := range exprs {
		v, err := in.eval(e, self, frame)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func number(text string) (object.Value, error) {
	if !strings.ContainsAny(text, ".eEjJ") || strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		if n, err := strconv.ParseInt(text, 0, 64); err == nil {
			return object.Int(n), nil
		}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return nil, object.Unsupported("number literal %q", text)
	}
	return object.Float(f), nil
}

func (in *Interpreter) ident(name string, self object.Value, frame *Frame) (object.Value, error) {
	switch name {
	case "self":
		if self == nil {
			return object.None{}, nil
		}
		return self, nil
	case "None":
		return object.None{}, nil
	case "True":
		return object.Bool(true), nil
	case "False":
		return object.Bool(false), nil
	}
	if v, ok := frame.bound(name); ok {
		return v, nil
	}
	if name == "CONSTANTS" {
		return in.constantsNamespace()
	}
	if typeNames[name] || genericTypes[name] {
		return object.TypeRef{Name: name}, nil
	}
	return nil, &object.UnknownSymbolError{Name: name}
}

// evalObject evaluates the object of a member access. A dotted name that
// does not resolve in scope is loaded as a package.
func (in *Interpreter) evalObject(e ast.Expr, self object.Value, frame *Frame) (object.Value, error) {
	v, err := in.eval(e, self, frame)
	if err == nil || !object.IsUnknownSymbol(err) {
		return v, err
	}
	name, ok := ast.DottedName(e)
	if !ok {
		return nil, err
	}
	if v, ok := in.lookup(name); ok {
		return v, nil
	}
	return in.Package(name)
}

// member reads attribute name of obj. A missing member of a namespace is
// tried as a nested package.
func (in *Interpreter) member(obj object.Value, name string) (object.Value, error) {
	if v, ok := object.Attr(obj, name); ok {
		return v, nil
	}
	ns, ok := obj.(*object.Namespace)
	if !ok {
		return nil, object.Unsupported("%s has no attribute '%s'", obj.Kind(), name)
	}
	qualified := ns.Name + "." + name
	if in.source == nil {
		return nil, &object.UnknownSymbolError{Name: qualified}
	}
	return in.Package(qualified)
}

func (in *Interpreter) subscript(x ast.Subscript, self object.Value, frame *Frame) (object.Value, error) {
	if id, ok := x.X.(ast.Ident); ok && genericTypes[id.Name] {
		if _, bound := frame.bound(id.Name); !bound {
			params := make([]string, len(x.Index))
			for i, item := range x.Index {
				name, ok := typeName(item)
				if !ok {
					return nil, object.Unsupported("type parameter of %s", id.Name)
				}
				params[i] = name
			}
			return object.TypeRef{Name: id.Name + "[" + strings.Join(params, ",") + "]"}, nil
		}
	}
	if len(x.Index) != 1 {
		return nil, object.Unsupported("subscript with %d indices", len(x.Index))
	}
	container, err := in.eval(x.X, self, frame)
	if err != nil {
		return nil, err
	}
	key, err := in.eval(x.Index[0], self, frame)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case *object.List:
		if i, ok := index(c, key); ok {
			return c.Items[i], nil
		}
		return nil, object.Unsupported("list index %s", key.Kind())
	case *object.Dict:
		if k, ok := object.Key(key); ok {
			if v, ok := c.Get(k); ok {
				return v, nil
			}
		}
		return nil, object.Unsupported("missing dict key")
	default:
		return nil, object.Unsupported("subscript of %s", container.Kind())
	}
}

// typeName renders a type parameter such as "int" or "List[Tensor]".
func typeName(e ast.Expr) (string, bool) {
	switch x := e.(type) {
	case ast.Subscript:
		base, ok := ast.DottedName(x.X)
		if !ok {
			return "", false
		}
		params := make([]string, len(x.Index))
		for i, item := range x.Index {
			p, ok := typeName(item)
			if !ok {
				return "", false
			}
			params[i] = p
		}
		return base + "[" + strings.Join(params, ",") + "]", true
	default:
		return ast.DottedName(e)
	}
}

func (in *Interpreter) evalCall(x ast.Call, self object.Value, frame *Frame) (object.Value, error) {
	var target, receiver object.Value
	if attr, ok := x.Func.(ast.Attr); ok {
		obj, err := in.evalObject(attr.X, self, frame)
		if err != nil {
			return nil, err
		}
		receiver = obj
		if v, ok := object.Attr(obj, attr.Name); ok {
			target = v
		} else if ns, ok := obj.(*object.Namespace); ok {
			args, keywords, err := in.evalArgs(x, self, frame)
			if err != nil {
				return nil, err
			}
			return in.registry.Call(in.ctx, ns.Name+"."+attr.Name, args, keywords)
		} else {
			return nil, object.Unsupported("%s has no method '%s'", obj.Kind(), attr.Name)
		}
	} else {
		v, err := in.eval(x.Func, self, frame)
		if err != nil {
			return nil, err
		}
		target, receiver = v, self
	}
	args, keywords, err := in.evalArgs(x, self, frame)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		receiver = object.None{}
	}
	return in.call(target, receiver, args, keywords)
}

func (in *Interpreter) evalArgs(x ast.Call, self object.Value, frame *Frame) ([]object.Value, []object.Keyword, error) {
	args, err := in.evalAll(x.Args, self, frame)
	if err != nil {
		return nil, nil, err
	}
	var keywords []object.Keyword
	for _, kw := range x.Keywords {
		v, err := in.eval(kw.Value, self, frame)
		if err != nil {
			return nil, nil, err
		}
		keywords = append(keywords, object.Keyword{Name: kw.Name, Value: v})
	}
	return args, keywords, nil
}
