// Package jsonvalue is an ordered, immutable-by-convention JSON tree.
//
// Objects keep member insertion order and numbers keep their literal text, so a
// decoded document re-encodes without reordering keys or reformatting numbers.
package jsonvalue

import (
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// ParseKind accepts the kind names used in link configuration files.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "null":
		return KindNull, true
	case "bool", "boolean":
		return KindBool, true
	case "number", "integer":
		return KindNumber, true
	case "string":
		return KindString, true
	case "array":
		return KindArray, true
	case "object":
		return KindObject, true
	default:
		return KindNull, false
	}
}

// Value is a tagged JSON value. The zero Value is JSON null.
type Value struct {
	kind Kind
	b    bool
	// s holds the string value, or the literal text of a number.
	s   string
	arr []Value
	obj *Object
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, s: s} }

// Number wraps a JSON number literal. The literal is not re-validated; callers
// that take untrusted text should go through Decode.
func Number(literal string) Value { return Value{kind: KindNumber, s: literal} }

func Int(n int64) Value { return Number(strconv.FormatInt(n, 10)) }

func Float(f float64) Value { return Number(strconv.FormatFloat(f, 'g', -1, 64)) }

func Array(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindArray, arr: out}
}

func ObjectValue(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Items returns the elements of an array value. The slice must not be modified.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

func (v Value) Object() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// Text renders the scalar textual form of a value: strings raw, numbers as
// their literal, booleans as true/false. Arrays and objects render as compact
// JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.s
	default:
		return string(Encode(v))
	}
}

// Equal reports deep equality. Numbers compare by numeric value when both
// literals parse, so 1 and 1.0 are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindNumber:
		if a.s == b.s {
			return true
		}
		fa, errA := strconv.ParseFloat(a.s, 64)
		fb, errB := strconv.ParseFloat(b.s, 64)
		return errA == nil && errB == nil && fa == fb
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for _, m := range a.obj.members {
			other, ok := b.obj.Get(m.Key)
			if !ok || !Equal(m.Value, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
