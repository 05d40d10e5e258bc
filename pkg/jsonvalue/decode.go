package jsonvalue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"
)

// ErrMalformed marks input that is not a single well-formed JSON document.
var ErrMalformed = errors.New("malformed json")

const maxDepth = 1000

// Decode parses exactly one JSON document.
func Decode(data []byte) (Value, error) {
	// The token reader is lenient about separators; validate the syntax first.
	if !json.Valid(data) {
		return Value{}, fmt.Errorf("%w: invalid syntax", ErrMalformed)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	d := &decoder{dec: dec}

	v, err := d.value(0)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

type decoder struct {
	dec *json.Decoder
}

func (d *decoder) next() (json.Token, error) {
	tok, err := d.dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func (d *decoder) value(depth int) (Value, error) {
	tok, err := d.next()
	if err != nil {
		return Value{}, err
	}
	return d.from(tok, depth)
}

func (d *decoder) from(tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		if depth >= maxDepth {
			return Value{}, fmt.Errorf("nesting deeper than %d", maxDepth)
		}
		switch t {
		case '{':
			return d.object(depth + 1)
		case '[':
			return d.array(depth + 1)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case float64:
		return Float(t), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}

func (d *decoder) object(depth int) (Value, error) {
	obj := NewObject()
	for d.dec.More() {
		tok, err := d.next()
		if err != nil {
			return Value{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected object key, got %v", tok)
		}
		v, err := d.value(depth)
		if err != nil {
			return Value{}, fmt.Errorf("member %s: %w", strconv.Quote(key), err)
		}
		obj.Set(key, v)
	}
	if err := d.closing('}'); err != nil {
		return Value{}, err
	}
	return ObjectValue(obj), nil
}

func (d *decoder) array(depth int) (Value, error) {
	items := make([]Value, 0)
	for d.dec.More() {
		v, err := d.value(depth)
		if err != nil {
			return Value{}, fmt.Errorf("index %d: %w", len(items), err)
		}
		items = append(items, v)
	}
	if err := d.closing(']'); err != nil {
		return Value{}, err
	}
	return Value{kind: KindArray, arr: items}, nil
}

func (d *decoder) closing(want json.Delim) error {
	tok, err := d.next()
	if err != nil {
		return err
	}
	if got, ok := tok.(json.Delim); !ok || got != want {
		return fmt.Errorf("expected %q, got %v", rune(want), tok)
	}
	return nil
}
