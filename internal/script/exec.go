package script

import (
	"fmt"

	"github.com/born-ml/torchscript/internal/object"
	"github.com/born-ml/torchscript/internal/script/ast"
)

// block executes statements in order. The second result reports whether a
// return statement ended the block.
func (in *Interpreter) block(stmts []ast.Stmt, self object.Value, frame *Frame) (object.Value, bool, error) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case ast.Pass:
		case ast.Return:
			if s.Value == nil {
				return object.None{}, true, nil
			}
			v, err := in.eval(s.Value, self, frame)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		case ast.Def:
			frame.Set(s.Name, in.function(s, frame))
		case ast.Class:
			if err := in.class(s, frame); err != nil {
				return nil, false, err
			}
		case ast.Var:
			frame.Set(s.Name, object.Unbound{})
		case ast.Assign:
			if err := in.assign(s, self, frame); err != nil {
				return nil, false, err
			}
		case ast.If:
			cond, err := in.eval(s.Cond, self, frame)
			if err != nil {
				return nil, false, err
			}
			b, ok := cond.(object.Bool)
			if !ok {
				return nil, false, object.Unsupported("unknown condition")
			}
			branch := s.Else
			if b {
				branch = s.Then
			}
			v, returned, err := in.block(branch, self, frame)
			if err != nil || returned {
				return v, returned, err
			}
		case ast.ExprStmt:
			if _, err := in.eval(s.X, self, frame); err != nil {
				return nil, false, err
			}
		case ast.Import:
			for _, spec := range s.Specs {
				name, ok := ast.DottedName(spec.Name)
				if !ok {
					return nil, false, object.Unsupported("import target")
				}
				ns, err := in.Package(name)
				if err != nil {
					return nil, false, fmt.Errorf("import %s: %w", name, err)
				}
				if spec.Alias != "" {
					frame.Set(spec.Alias, ns)
				}
			}
		default:
			return nil, false, object.Unsupported("statement %T", stmt)
		}
	}
	return object.None{}, false, nil
}

// function creates a closure over the defining frame.
func (in *Interpreter) function(def ast.Def, defining *Frame) *object.Function {
	params := make([]string, len(def.Params))
	for i, p := range def.Params {
		params[i] = p.Name
	}
	module := ""
	if v, ok := defining.bound("__name__"); ok {
		if s, ok := v.(object.String); ok {
			module = string(s)
		}
	}
	return &object.Function{
		Module: module,
		Name:   def.Name,
		Params: params,
		Call: func(self object.Value, args []object.Value, keywords []object.Keyword) (object.Value, error) {
			frame := NewFrame(defining)
			positional := args
			for _, p := range params {
				if p == "self" {
					frame.Set("self", self)
					continue
				}
				if len(positional) > 0 {
					frame.Set(p, positional[0])
					positional = positional[1:]
				}
			}
			for _, kw := range keywords {
				frame.Set(kw.Name, kw.Value)
			}
			v, _, err := in.block(def.Body, self, frame)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", def.Name, err)
			}
			return v, nil
		},
	}
}

// class defines a class whose members are the bindings made by the body.
func (in *Interpreter) class(def ast.Class, frame *Frame) error {
	module := ""
	if v, ok := frame.bound("__name__"); ok {
		if s, ok := v.(object.String); ok {
			module = string(s)
		}
	}
	class := object.NewClass(module, def.Name)
	frame.Set(def.Name, class)
	if _, _, err := in.block(def.Body, nil, newFrameOver(frame, class.Members)); err != nil {
		return fmt.Errorf("class %s: %w", def.Name, err)
	}
	return nil
}

func (in *Interpreter) assign(s ast.Assign, self object.Value, frame *Frame) error {
	switch target := s.Target.(type) {
	case ast.Ident:
		v, err := in.eval(s.Value, self, frame)
		if err != nil {
			return err
		}
		frame.Set(target.Name, v)
		return nil

	case ast.Subscript:
		id, ok := target.X.(ast.Ident)
		if !ok || len(target.Index) != 1 {
			break
		}
		key, err := in.eval(target.Index[0], self, frame)
		if err != nil {
			return err
		}
		if id.Name == "__annotations__" {
			if _, ok := frame.bound(id.Name); !ok {
				frame.Set(id.Name, object.NewDict())
			}
		}
		container, ok := frame.bound(id.Name)
		if !ok {
			return &object.UnknownSymbolError{Name: id.Name}
		}
		v, err := in.eval(s.Value, self, frame)
		if err != nil {
			return err
		}
		return setItem(container, key, v)

	case ast.Attr:
		obj, err := in.evalObject(target.X, self, frame)
		if err != nil {
			return err
		}
		v, err := in.eval(s.Value, self, frame)
		if err != nil {
			return err
		}
		if !object.SetAttr(obj, target.Name, v) {
			return object.Unsupported("attribute assignment on %s", obj.Kind())
		}
		return nil

	case ast.Tuple:
		v, err := in.eval(s.Value, self, frame)
		if err != nil {
			return err
		}
		values, ok := v.(*object.List)
		if !ok || values.Len() != len(target.Items) {
			break
		}
		names := make([]string, len(target.Items))
		for i, item := range target.Items {
			id, ok := item.(ast.Ident)
			if !ok {
				return object.Unsupported("tuple assignment target")
			}
			names[i] = id.Name
		}
		for i, name := range names {
			frame.Set(name, values.Items[i])
		}
		return nil
	}
	return object.Unsupported("assignment target %T", s.Target)
}

func setItem(container, key, v object.Value) error {
	switch c := container.(type) {
	case *object.Dict:
		k, ok := object.Key(key)
		if !ok {
			return object.Unsupported("dict key %s", key.Kind())
		}
		c.Set(k, v)
		return nil
	case *object.List:
		i, ok := index(c, key)
		if !ok {
			return object.Unsupported("list index %s", key.Kind())
		}
		c.Items[i] = v
		return nil
	default:
		return object.Unsupported("item assignment on %s", container.Kind())
	}
}

// index converts key into a position in l, counting negative keys from the
// end.
func index(l *object.List, key object.Value) (int, bool) {
	n, ok := key.(object.Int)
	if !ok {
		return 0, false
	}
	i := int(n)
	if i < 0 {
		i += l.Len()
	}
	if i < 0 || i >= l.Len() {
		return 0, false
	}
	return i, true
}
