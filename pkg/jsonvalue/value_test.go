package jsonvalue

import (
	"errors"
	"strings"
	"testing"
)

func TestDecodeEncode_PreservesOrderAndNumberLiterals(t *testing.T) {
	in := `{"z":1,"a":{"y":1.50,"b":[true,false,null]},"m":"x","n":1e3}`
	v, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := string(Encode(v)); got != in {
		t.Fatalf("round trip mismatch:\n got=%s\nwant=%s", got, in)
	}
	obj, ok := v.Object()
	if !ok {
		t.Fatalf("expected object, got %s", v.Kind())
	}
	if keys := strings.Join(obj.Keys(), ","); keys != "z,a,m,n" {
		t.Fatalf("keys=%s", keys)
	}
}

func TestEncode_KeepsHTMLCharacters(t *testing.T) {
	in := `{"<k>":"a<b>&c","quote":"say \"hi\"\n"}`
	v, err := Decode([]byte(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := string(Encode(v)); got != in {
		t.Fatalf("got=%s\nwant=%s", got, in)
	}
}

func TestDecode_DuplicateKeyKeepsFirstPosition(t *testing.T) {
	v, err := Decode([]byte(`{"a":1,"b":2,"a":3}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := string(Encode(v)); got != `{"a":3,"b":2}` {
		t.Fatalf("got=%s", got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ``},
		{name: "truncated_object", in: `{"a":1`},
		{name: "trailing_data", in: `{"a":1} {"b":2}`},
		{name: "bare_word", in: `hello`},
		{name: "missing_value", in: `{"a":}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.in))
			if err == nil {
				t.Fatalf("expected error for %q", tc.in)
			}
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDecode_Scalars(t *testing.T) {
	for _, in := range []string{`null`, `true`, `"s"`, `-12.5e-3`} {
		v, err := Decode([]byte(in))
		if err != nil {
			t.Fatalf("Decode(%s): %v", in, err)
		}
		if got := string(Encode(v)); got != in {
			t.Fatalf("got=%s want=%s", got, in)
		}
	}
}

func TestText(t *testing.T) {
	obj := NewObject()
	obj.Set("k", String("v"))
	cases := []struct {
		v    Value
		want string
	}{
		{v: String("abc-123"), want: "abc-123"},
		{v: Number("42"), want: "42"},
		{v: Bool(false), want: "false"},
		{v: Null(), want: "null"},
		{v: Array(Int(1), String("a")), want: `[1,"a"]`},
		{v: ObjectValue(obj), want: `{"k":"v"}`},
	}
	for _, tc := range cases {
		if got := tc.v.Text(); got != tc.want {
			t.Fatalf("Text()=%q want %q", got, tc.want)
		}
	}
}

func TestEqual_NumbersCompareByValue(t *testing.T) {
	if !Equal(Number("1"), Number("1.0")) {
		t.Fatalf("1 and 1.0 should be equal")
	}
	if Equal(Number("1"), String("1")) {
		t.Fatalf("number and string must differ")
	}
	a, _ := Decode([]byte(`{"x":[1,{"y":true}]}`))
	b, _ := Decode([]byte(`{"x":[1,{"y":true}]}`))
	if !Equal(a, b) {
		t.Fatalf("expected deep equality")
	}
}

func TestObjectDelete_ReindexesMembers(t *testing.T) {
	obj := NewObject()
	obj.Set("a", Int(1))
	obj.Set("b", Int(2))
	obj.Set("c", Int(3))
	obj.Delete("a")
	obj.Set("b", Int(20))
	if got := string(Encode(ObjectValue(obj))); got != `{"b":20,"c":3}` {
		t.Fatalf("got=%s", got)
	}
	obj.Set("a", Int(1))
	if got := string(Encode(ObjectValue(obj))); got != `{"b":20,"c":3,"a":1}` {
		t.Fatalf("got=%s", got)
	}
}

func TestCoerce_IsStrictByKind(t *testing.T) {
	if _, ok := Coerce(String("true"), KindBool); ok {
		t.Fatalf("string must not coerce to boolean")
	}
	if v, ok := Coerce(Bool(true), KindBool); !ok || !v.b {
		t.Fatalf("boolean should coerce to boolean")
	}
	if _, ok := Coerce(ObjectValue(nil), KindString); ok {
		t.Fatalf("object must not coerce to string")
	}
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{"b": []any{1, "x"}, "a": true})
	if err != nil {
		t.Fatalf("FromGo: %v", err)
	}
	if got := string(Encode(v)); got != `{"a":true,"b":[1,"x"]}` {
		t.Fatalf("got=%s", got)
	}
	if _, err := FromGo(struct{}{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
