package jsonvalue

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Encode writes v as compact JSON in stored member order.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.Bytes()
}

// MarshalJSON lets a Value be handed to encoders that expect json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return Encode(v), nil
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(v.s)
	case KindString:
		writeString(buf, v.s)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, item)
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.obj.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Key)
			buf.WriteByte(':')
			writeValue(buf, m.Value)
		}
		buf.WriteByte('}')
	}
}

// writeString leaves <, > and & as they are so untouched strings keep
// their bytes.
func writeString(buf *bytes.Buffer, s string) {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		// unreachable for string input
		buf.WriteString(`""`)
		return
	}
	buf.Write(b)
}
