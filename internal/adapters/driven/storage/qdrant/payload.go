package qdrant

import (
	"fmt"
	"math"
	"sort"

	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// toValue converts a payload value to its protobuf form.
// Unsupported types are stored as their string representation.
func toValue(v any) *qdrant.Value {
	switch x := v.(type) {
	case nil:
		return &qdrant.Value{Kind: &qdrant.Value_NullValue{}}
	case string:
		return qdrant.NewValueString(x)
	case bool:
		return qdrant.NewValueBool(x)
	case int:
		return qdrant.NewValueInt(int64(x))
	case int32:
		return qdrant.NewValueInt(int64(x))
	case int64:
		return qdrant.NewValueInt(x)
	case float32:
		return qdrant.NewValueDouble(float64(x))
	case float64:
		return qdrant.NewValueDouble(x)
	case []string:
		values := make([]*qdrant.Value, len(x))
		for i, s := range x {
			values[i] = qdrant.NewValueString(s)
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case []any:
		values := make([]*qdrant.Value, len(x))
		for i, item := range x {
			values[i] = toValue(item)
		}
		return &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{Values: values}}}
	case map[string]any:
		return &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: toPayload(x)}}}
	default:
		return qdrant.NewValueString(fmt.Sprint(x))
	}
}

// toPayload converts a plain map to a Qdrant payload.
func toPayload(m map[string]any) map[string]*qdrant.Value {
	out := make(map[string]*qdrant.Value, len(m))
	for k, v := range m {
		out[k] = toValue(v)
	}
	return out
}

// fromValue converts a protobuf value back to a plain Go value.
// Integers come back as int64 and doubles as float64.
func fromValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_StructValue:
		return fromPayload(k.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := k.ListValue.GetValues()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromValue(item)
		}
		return out
	default:
		return nil
	}
}

// fromPayload converts a Qdrant payload to a plain map.
func fromPayload(p map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = fromValue(v)
	}
	return out
}

// toFilter translates equality conditions into a Qdrant filter.
// Returns nil for an empty filter. Floats must be whole numbers because
// Qdrant matches only keywords, integers and booleans.
func toFilter(f domain.Filter) (*qdrant.Filter, error) {
	if len(f) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]*qdrant.Condition, 0, len(keys))
	for _, key := range keys {
		switch v := f[key].(type) {
		case string:
			must = append(must, qdrant.NewMatch(key, v))
		case bool:
			must = append(must, qdrant.NewMatchBool(key, v))
		case int:
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		case int32:
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			must = append(must, qdrant.NewMatchInt(key, v))
		case float64:
			if v != math.Trunc(v) {
				return nil, domain.NewStorageError(
					fmt.Sprintf("filter %q: fractional value %v cannot be matched", key, v), domain.ErrInvalidInput)
			}
			must = append(must, qdrant.NewMatchInt(key, int64(v)))
		default:
			return nil, domain.NewStorageError(
				fmt.Sprintf("filter %q: unsupported value type %T", key, v), domain.ErrInvalidInput)
		}
	}
	return &qdrant.Filter{Must: must}, nil
}
