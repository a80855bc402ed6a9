// Package pickle deserializes pickled object graphs into the object value
// model. Opcode replay is delegated to github.com/nlpodyssey/gopickle; this
// package resolves globals, constructs objects and attaches storage payloads.
package pickle

import (
	"bytes"
	"fmt"
	"math/big"
	"strconv"

	"github.com/nlpodyssey/gopickle/pickle"
	"github.com/nlpodyssey/gopickle/types"

	"github.com/born-ml/torchscript/internal/object"
)

// Resolver applies qualified names found in a pickle stream.
type Resolver interface {
	// Invoke handles REDUCE: a function or class applied to arguments.
	Invoke(name string, args []object.Value) (object.Value, error)
	// Construct handles NEWOBJ: a class instantiated with arguments.
	Construct(name string, args []object.Value) (object.Value, error)
}

// Unpickle replays data and returns the root value.
//
// Persistent "storage" references are resolved through resolver and
// memoized by key; their payload is taken from storages. storages may be
// nil for streams without tensor data.
func Unpickle(data []byte, storages map[string][]byte, resolver Resolver) (object.Value, error) {
	u := &unpickler{
		resolver: resolver,
		storages: storages,
		loaded:   make(map[string]*object.Storage),
		views:    make(map[string]object.Value),
	}
	p := pickle.NewUnpickler(bytes.NewReader(data))
	p.FindClass = u.findClass
	p.PersistentLoad = u.persistentLoad

	raw, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("unpickle: %w", err)
	}
	v, err := u.convert(raw)
	if err != nil {
		return nil, fmt.Errorf("unpickle: %w", err)
	}
	return v, nil
}

type unpickler struct {
	resolver Resolver
	storages map[string][]byte
	loaded   map[string]*object.Storage
	views    map[string]object.Value
}

func (u *unpickler) findClass(module, name string) (interface{}, error) {
	return &global{u: u, name: module + "." + name}, nil
}

// global is a class or function reference produced by the GLOBAL opcodes.
type global struct {
	u    *unpickler
	name string
}

// Call implements types.Callable for REDUCE.
func (g *global) Call(args ...interface{}) (interface{}, error) {
	values, err := g.u.convertAll(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}
	v, err := g.u.resolver.Invoke(g.name, values)
	if err != nil {
		return nil, err
	}
	return g.u.wrap(v), nil
}

// PyNew implements types.PyNewable for NEWOBJ.
func (g *global) PyNew(args ...interface{}) (interface{}, error) {
	values, err := g.u.convertAll(args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}
	v, err := g.u.resolver.Construct(g.name, values)
	if err != nil {
		return nil, err
	}
	return g.u.wrap(v), nil
}

// instance carries a module through the replay so BUILD can set its state.
type instance struct {
	u      *unpickler
	module *object.Module
}

func (u *unpickler) wrap(v object.Value) interface{} {
	if m, ok := v.(*object.Module); ok {
		return &instance{u: u, module: m}
	}
	return v
}

// PySetState implements types.PyStateSettable for BUILD.
func (i *instance) PySetState(state interface{}) error {
	if t, ok := state.(*types.Tuple); ok && t.Len() == 2 {
		for j := 0; j < t.Len(); j++ {
			if t.Get(j) == nil {
				continue
			}
			if err := i.PySetState(t.Get(j)); err != nil {
				return err
			}
		}
		return nil
	}
	v, err := i.u.convert(state)
	if err != nil {
		return fmt.Errorf("%s state: %w", i.module.Class.QualifiedName(), err)
	}
	d, ok := v.(*object.Dict)
	if !ok {
		i.module.Fields.Set("__state__", v)
		return nil
	}
	for _, k := range d.Keys() {
		f, _ := d.Get(k)
		i.module.Fields.Set(k, f)
	}
	return nil
}

// PyDictSet implements types.PyDictSettable for BUILD with a dict state.
func (i *instance) PyDictSet(key, value interface{}) error {
	k, err := i.u.key(key)
	if err != nil {
		return err
	}
	v, err := i.u.convert(value)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", i.module.Class.QualifiedName(), k, err)
	}
	i.module.Fields.Set(k, v)
	return nil
}

// persistentLoad resolves ('storage', type, key, location, size[, view]).
func (u *unpickler) persistentLoad(pid interface{}) (interface{}, error) {
	t, ok := pid.(*types.Tuple)
	if !ok || t.Len() < 5 {
		return nil, fmt.Errorf("invalid persistent id %T", pid)
	}
	kind, _ := t.Get(0).(string)
	if kind != "storage" {
		return nil, fmt.Errorf("unknown persistent load type '%v'", t.Get(0))
	}
	typeName, err := u.globalName(t.Get(1))
	if err != nil {
		return nil, fmt.Errorf("storage type: %w", err)
	}
	key, err := u.key(t.Get(2))
	if err != nil {
		return nil, fmt.Errorf("storage key: %w", err)
	}
	storage, ok := u.loaded[key]
	if !ok {
		size, err := u.convert(t.Get(4))
		if err != nil {
			return nil, fmt.Errorf("storage size: %w", err)
		}
		v, err := u.resolver.Invoke(typeName, []object.Value{size})
		if err != nil {
			return nil, err
		}
		storage, ok = v.(*object.Storage)
		if !ok {
			return nil, fmt.Errorf("%s did not produce a storage", typeName)
		}
		storage.Key = key
		storage.Data = u.storages[key]
		u.loaded[key] = storage
	}

	if t.Len() > 5 && t.Get(5) != nil {
		view, ok := t.Get(5).(*types.Tuple)
		if !ok || view.Len() < 1 {
			return nil, fmt.Errorf("invalid view metadata for storage '%s'", key)
		}
		viewKey, err := u.key(view.Get(0))
		if err != nil {
			return nil, fmt.Errorf("view key: %w", err)
		}
		v, ok := u.views[viewKey]
		if !ok {
			v = object.None{}
			u.views[viewKey] = v
		}
		return v, nil
	}
	return storage, nil
}

func (u *unpickler) globalName(v interface{}) (string, error) {
	switch g := v.(type) {
	case *global:
		return g.name, nil
	case string:
		return g, nil
	default:
		return "", fmt.Errorf("unexpected %T", v)
	}
}

func (u *unpickler) key(v interface{}) (string, error) {
	switch k := v.(type) {
	case string:
		return k, nil
	case int:
		return strconv.Itoa(k), nil
	default:
		cv, err := u.convert(v)
		if err != nil {
			return "", err
		}
		s, ok := object.Key(cv)
		if !ok {
			return "", fmt.Errorf("unsupported key %T", v)
		}
		return s, nil
	}
}

func (u *unpickler) convertAll(raw []interface{}) ([]object.Value, error) {
	values := make([]object.Value, len(raw))
	for i, r := range raw {
		v, err := u.convert(r)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// convert maps a value produced by the replay engine onto the object model.
func (u *unpickler) convert(raw interface{}) (object.Value, error) {
	switch v := raw.(type) {
	case nil:
		return object.None{}, nil
	case object.Value:
		return v, nil
	case *instance:
		return v.module, nil
	case *global:
		return object.TypeRef{Name: v.name}, nil
	case bool:
		return object.Bool(v), nil
	case int:
		return object.Int(v), nil
	case int64:
		return object.Int(v), nil
	case *big.Int:
		if v.IsInt64() {
			return object.Int(v.Int64()), nil
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return object.Float(f), nil
	case float64:
		return object.Float(v), nil
	case string:
		return object.String(v), nil
	case []byte:
		return object.String(v), nil
	case *types.Tuple:
		items := make([]object.Value, v.Len())
		for i := range items {
			item, err := u.convert(v.Get(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return object.NewTuple(items...), nil
	case *types.List:
		items := make([]object.Value, v.Len())
		for i := range items {
			item, err := u.convert(v.Get(i))
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return object.NewList(items...), nil
	case *types.Dict:
		d := object.NewDict()
		for _, rk := range v.Keys() {
			k, err := u.key(rk)
			if err != nil {
				return nil, err
			}
			rv, _ := v.Get(rk)
			item, err := u.convert(rv)
			if err != nil {
				return nil, err
			}
			d.Set(k, item)
		}
		return d, nil
	case *types.OrderedDict:
		d := object.NewDict()
		for e := v.List.Front(); e != nil; e = e.Next() {
			entry := e.Value.(*types.OrderedDictEntry)
			k, err := u.key(entry.Key)
			if err != nil {
				return nil, err
			}
			item, err := u.convert(entry.Value)
			if err != nil {
				return nil, err
			}
			d.Set(k, item)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unsupported pickle value %T", raw)
	}
}
