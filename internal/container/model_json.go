package container

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/segmentio/encoding/json"

	"github.com/born-ml/torchscript/internal/object"
)

// tensorTypes maps model.json data types to storage class prefixes.
var tensorTypes = map[string]string{
	"FLOAT":   "Float",
	"FLOAT16": "Half",
	"DOUBLE":  "Double",
	"INT32":   "Int",
	"INT64":   "Long",
}

type modelJSON struct {
	ProducerName    string       `json:"producerName"`
	ProducerVersion string       `json:"producerVersion"`
	MainModule      *moduleJSON  `json:"mainModule"`
	Tensors         []tensorJSON `json:"tensors"`
}

type moduleJSON struct {
	Name             string          `json:"name"`
	Submodules       []*moduleJSON   `json:"submodules"`
	Parameters       []parameterJSON `json:"parameters"`
	Arguments        []parameterJSON `json:"arguments"`
	TorchscriptArena *struct {
		Key string `json:"key"`
	} `json:"torchscriptArena"`
}

type parameterJSON struct {
	Name     string  `json:"name"`
	TensorID flexInt `json:"tensorId"`
}

type tensorJSON struct {
	DataType     string    `json:"dataType"`
	Dims         []flexInt `json:"dims"`
	Offset       flexInt   `json:"offset"`
	RequiresGrad bool      `json:"requiresGrad"`
	Data         struct {
		Key string `json:"key"`
	} `json:"data"`
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = s
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("invalid integer %s", data)
	}
	*n = flexInt(v)
	return nil
}

// loadModelJSON builds the module tree described by a model.json document.
func (c *Container) loadModelJSON(data []byte) error {
	var model modelJSON
	if err := json.Unmarshal(data, &model); err != nil {
		return formatErrorf("Invalid model.json: %v.", err)
	}
	c.producer = model.ProducerName
	if model.ProducerVersion != "" {
		c.producer += " v" + model.ProducerVersion
	}

	tensors := make([]*object.Tensor, len(model.Tensors))
	for i, tj := range model.Tensors {
		t, err := c.tensor(tj)
		if err != nil {
			return err
		}
		tensors[i] = t
	}
	c.constants = make([]object.Value, len(tensors))
	for i, t := range tensors {
		c.constants[i] = t
	}
	c.constantsLoaded = true

	main := model.MainModule
	if main == nil {
		main = &moduleJSON{}
	}
	c.name = main.Name
	if main.TorchscriptArena != nil {
		c.arenaKey = main.TorchscriptArena.Key
	}

	arena := c.ctx.Arena
	c.root = arena.New(object.NewClass("torch", "Module"))
	moduleClass := object.NewClass("torch", "Module")

	type pending struct {
		def    *moduleJSON
		module *object.Module
	}
	queue := []pending{{main, c.root}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, sub := range p.def.Submodules {
			m := arena.New(moduleClass)
			arena.SetParent(m, p.module)
			p.module.Fields.Set(sub.Name, m)
			queue = append(queue, pending{sub, m})
		}
		params := append(append([]parameterJSON(nil), p.def.Parameters...), p.def.Arguments...)
		for _, param := range params {
			id := int(param.TensorID)
			if id < 0 || id >= len(tensors) {
				return formatErrorf("Invalid tensor id '%d' for parameter '%s'.", id, param.Name)
			}
			p.module.Fields.Set(param.Name, tensors[id])
		}
	}
	return nil
}

func (c *Container) tensor(tj tensorJSON) (*object.Tensor, error) {
	typ, ok := tensorTypes[tj.DataType]
	if !ok {
		return nil, formatErrorf("Unknown tensor data type '%s'.", tj.DataType)
	}
	t := &object.Tensor{
		Name:         "Tensor",
		Label:        tj.Data.Key,
		Offset:       int(tj.Offset),
		RequiresGrad: tj.RequiresGrad,
	}
	if tj.Dims != nil {
		t.Size = make([]int, len(tj.Dims))
		for i, d := range tj.Dims {
			t.Size[i] = int(d)
		}
	}
	size := make([]object.Value, len(t.Size))
	for i, d := range t.Size {
		size[i] = object.Int(d)
	}
	v, err := c.interp.Invoke("torch."+typ+"Storage", []object.Value{object.NewList(size...)})
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", tj.Data.Key, err)
	}
	storage, ok := v.(*object.Storage)
	if !ok {
		return nil, fmt.Errorf("tensor %s: storage constructor returned %s", tj.Data.Key, v.Kind())
	}
	storage.Key = tj.Data.Key
	if e, ok := c.entry(c.prefix + tj.Data.Key); ok {
		storage.Data = e.Data
	}
	t.Storage = storage
	return t, nil
}
