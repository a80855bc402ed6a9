package graph

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/born-ml/torchscript/internal/builtins"
	"github.com/born-ml/torchscript/internal/metadata"
	"github.com/born-ml/torchscript/internal/object"
)

// attributes converts the extras of a trace node. Positional extras take
// their name from the schema attribute at the same position; keyword
// arguments keep their name.
func (b *builder) attributes(tn *builtins.TraceNode) []*Attribute {
	schema := b.meta.Schema(tn.Operator)
	attrs := make([]*Attribute, 0, len(tn.Extras)+len(tn.Keywords))
	for i, v := range tn.Extras {
		name := strconv.Itoa(i)
		var as *metadata.Attribute
		if schema != nil && i < len(schema.Attributes) {
			as = schema.Attributes[i]
			name = as.Name
		}
		attrs = append(attrs, newAttribute(as, name, attributeValue(v)))
	}
	for _, kw := range tn.Keywords {
		attrs = append(attrs, newAttribute(b.meta.AttributeSchema(tn.Operator, kw.Name), kw.Name, attributeValue(kw.Value)))
	}
	return attrs
}

// attributeValue maps an object value onto plain Go values.
func attributeValue(v object.Value) any {
	switch x := v.(type) {
	case object.None:
		return nil
	case object.Bool:
		return bool(x)
	case object.Int:
		return int64(x)
	case object.Float:
		return float64(x)
	case object.String:
		return string(x)
	case object.TypeRef:
		return x.Name
	case *object.List:
		items := make([]any, len(x.Items))
		for i, item := range x.Items {
			items[i] = attributeValue(item)
		}
		return items
	default:
		return v.Kind()
	}
}

// newAttribute coerces value to the schema type and decides visibility. An
// attribute is hidden when the schema says so, when it equals the schema
// default, when it is a list whose items all equal a scalar default, or when
// it is named training.
func newAttribute(schema *metadata.Attribute, name string, value any) *Attribute {
	a := &Attribute{Name: name, Value: value, Visible: true}
	if schema != nil {
		a.Type = schema.Type
		a.Value = coerce(schema.Type, value)

		switch {
		case schema.Visible != nil && !*schema.Visible:
			a.Visible = false
		case schema.HasDefault:
			if equal(schema.Default, a.Value) {
				a.Visible = false
			} else if items, ok := a.Value.([]any); ok && !isList(schema.Default) && allEqual(items, schema.Default) {
				a.Visible = false
			}
		}
	}
	if name == "training" {
		a.Visible = false
	}
	return a
}

func coerce(typ string, value any) any {
	switch typ {
	case "boolean":
		switch value {
		case "True":
			return true
		case "False":
			return false
		}
	case "int32", "int64":
		if s, ok := value.(string); ok {
			if n, ok := parseInt(s); ok {
				return n
			}
		}
	case "float32", "float64":
		if s, ok := value.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f
			}
		}
	case "int32[]", "int64[]":
		if items, ok := value.([]any); ok {
			out := make([]any, len(items))
			for i, item := range items {
				switch n := item.(type) {
				case float64:
					out[i] = int64(math.Trunc(n))
				case string:
					if v, ok := parseInt(n); ok {
						out[i] = v
					} else {
						out[i] = n
					}
				default:
					out[i] = item
				}
			}
			return out
		}
	}
	return value
}

// parseInt reads a leading base-10 integer, ignoring trailing text.
func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	return n, err == nil
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

func allEqual(items []any, v any) bool {
	for _, item := range items {
		if !equal(item, v) {
			return false
		}
	}
	return true
}

// equal compares values structurally with every number treated as float64.
func equal(a, b any) bool {
	return cmp.Equal(normalize(a), normalize(b))
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	case int32:
		return float64(x)
	case uint32:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalize(item)
		}
		return out
	default:
		return v
	}
}
