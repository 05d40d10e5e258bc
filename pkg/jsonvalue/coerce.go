package jsonvalue

import (
	"fmt"
	"sort"
	"strconv"
)

// Coerce returns v when it can stand for a value of the wanted kind.
// Coercion is strict by JSON type: the string "true" is not a boolean and
// the string "12" is not a number.
func Coerce(v Value, want Kind) (Value, bool) {
	if v.kind != want {
		return Value{}, false
	}
	return v, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FromGo converts values produced by yaml or encoding/json decoders.
// Map keys are sorted since Go maps carry no order.
func FromGo(in any) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return Number(strconv.FormatUint(t, 10)), nil
	case float64:
		return Float(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, item := range t {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			items = append(items, v)
		}
		return Value{kind: KindArray, arr: items}, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			v, err := FromGo(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			obj.Set(k, v)
		}
		return ObjectValue(obj), nil
	default:
		return Value{}, fmt.Errorf("unsupported type %T", in)
	}
}
