package builtins

import (
	"github.com/born-ml/torchscript/internal/object"
)

func (r *Registry) registerPrimitives() {
	identity := func(i int) Handler {
		return func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
			return arg(args, i), nil
		}
	}

	r.function("annotate", identity(1))
	r.function("unchecked_cast", identity(1))
	r.function("ops.prim.unchecked_unwrap_optional", identity(0))
	r.function("torch._unwrap_optional", identity(0))
	r.function("torch.jit._pickle.build_boollist", identity(0))
	r.function("torch.jit._pickle.build_doublelist", identity(0))
	r.function("torch.jit._pickle.build_intlist", identity(0))
	r.function("torch.jit._pickle.build_tensorlist", identity(0))

	r.function("getattr", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		name, ok := arg(args, 1).(object.String)
		if !ok {
			return nil, object.Unsupported("getattr name is %s", arg(args, 1).Kind())
		}
		if v, ok := object.Attr(arg(args, 0), string(name)); ok {
			return v, nil
		}
		return arg(args, 2), nil
	})
	r.function("int", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		switch v := arg(args, 0).(type) {
		case object.Int:
			return v, nil
		case object.Float:
			return object.Int(int64(v)), nil
		case object.Bool:
			if v {
				return object.Int(1), nil
			}
		}
		return object.Int(0), nil
	})
	r.function("float", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		if n, ok := number(arg(args, 0)); ok {
			return object.Float(n), nil
		}
		return object.Float(0), nil
	})
	r.function("uninitialized", func(_ *Context, _ []object.Value, _ []object.Keyword) (object.Value, error) {
		return object.None{}, nil
	})
	r.function("collections.OrderedDict", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		d := object.NewDict()
		pairs, ok := arg(args, 0).(*object.List)
		if !ok {
			return d, nil
		}
		for _, item := range pairs.Items {
			pair, ok := item.(*object.List)
			if !ok || pair.Len() != 2 {
				return nil, object.Unsupported("OrderedDict item is %s", item.Kind())
			}
			key, ok := object.Key(pair.Items[0])
			if !ok {
				return nil, object.Unsupported("OrderedDict key is %s", pair.Items[0].Kind())
			}
			d.Set(key, pair.Items[1])
		}
		return d, nil
	})
	r.function("ops.prim.RaiseException", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		msg, _ := arg(args, 0).(object.String)
		return nil, &object.RaisedError{Message: string(msg)}
	})

	r.function("torch.__is__", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return identical(arg(args, 0), arg(args, 1))
	})
	r.function("torch.__isnot__", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		v, err := identical(arg(args, 0), arg(args, 1))
		if err != nil {
			return nil, err
		}
		return !v, nil
	})
	r.function("torch.__not__", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		if b, ok := arg(args, 0).(object.Bool); ok {
			return !b, nil
		}
		return nil, object.Unsupported("not of %s", arg(args, 0).Kind())
	})
	r.function("torch.eq", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		left, right := arg(args, 0), arg(args, 1)
		if l, ok := left.(object.String); ok {
			if rs, ok := right.(object.String); ok {
				return object.Bool(l == rs), nil
			}
		}
		return compare("eq", left, right, func(a, b float64) bool { return a == b })
	})
	r.function("torch.ne", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return compare("ne", arg(args, 0), arg(args, 1), func(a, b float64) bool { return a != b })
	})
	r.function("torch.lt", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return compare("lt", arg(args, 0), arg(args, 1), func(a, b float64) bool { return a < b })
	})
	r.function("torch.gt", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		return compare("gt", arg(args, 0), arg(args, 1), func(a, b float64) bool { return a > b })
	})
	r.function("torch.mul", func(_ *Context, args []object.Value, _ []object.Keyword) (object.Value, error) {
		left, right := arg(args, 0), arg(args, 1)
		if l, ok := left.(object.Int); ok {
			if ri, ok := right.(object.Int); ok {
				return l * ri, nil
			}
		}
		if l, ok := number(left); ok {
			if rf, ok := number(right); ok {
				return object.Float(l * rf), nil
			}
		}
		_, lt := left.(*object.Tensor)
		_, rt := right.(*object.Tensor)
		if lt && rt {
			return object.NewPlaceholder(), nil
		}
		return nil, object.Unsupported("mul of %s and %s", left.Kind(), right.Kind())
	})

	r.function("torch.q_scale", func(_ *Context, _ []object.Value, _ []object.Keyword) (object.Value, error) {
		return object.Float(-1), nil
	})
	r.function("ops.quantized.conv_prepack", prepacked("__conv_prepack__"))
	r.function("ops.quantized.linear_prepack", prepacked("__linear_prepack__"))
}

// prepacked returns an opaque object standing in for packed quantized
// weights.
func prepacked(name string) Handler {
	return func(ctx *Context, _ []object.Value, _ []object.Keyword) (object.Value, error) {
		return ctx.Arena.New(object.NewClass("torch", name)), nil
	}
}

func identical(left, right object.Value) (object.Bool, error) {
	ln, rn := object.IsNone(left), object.IsNone(right)
	switch {
	case ln && rn:
		return true, nil
	case ln != rn:
		return false, nil
	default:
		return false, object.Unsupported("identity of %s and %s", left.Kind(), right.Kind())
	}
}

func number(v object.Value) (float64, bool) {
	switch n := v.(type) {
	case object.Int:
		return float64(n), true
	case object.Float:
		return float64(n), true
	default:
		return 0, false
	}
}

func compare(op string, left, right object.Value, fn func(a, b float64) bool) (object.Value, error) {
	l, lok := number(left)
	r, rok := number(right)
	if !lok || !rok {
		return nil, object.Unsupported("%s of %s and %s", op, left.Kind(), right.Kind())
	}
	return object.Bool(fn(l, r)), nil
}
