package codec

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is the closed union of types canonical JSON can carry. Floats and
// nulls are deliberately absent: artifacts that need fractional values do
// not exist in this module, and forbidding them at the type level keeps
// the encoding bit-stable.
type Value interface {
	value()
}

// String is a canonical JSON string. NFC normalization happens at
// serialization time, not at construction.
type String string

func (String) value() {}

// Int is a canonical JSON integer.
type Int int64

func (Int) value() {}

// Bool is a canonical JSON boolean.
type Bool bool

func (Bool) value() {}

// Array is an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Object is a JSON object. Iteration order is not deterministic; use
// SortedKeys for canonical traversal.
type Object map[string]Value

func (Object) value() {}

// SortedKeys returns the object's keys in RFC 8785 order: UTF-16 code
// units, not UTF-8 bytes. Go's sort.Strings would produce a different
// order for strings containing supplementary-plane characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := range n {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// decodeValue converts the output of a json.Decoder run with UseNumber
// into the canonical Value union. Non-integer numbers and nulls are
// rejected.
func decodeValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s is forbidden in canonical JSON", val)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			dec, err := decodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = dec
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			dec, err := decodeValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = dec
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported JSON type %T", v)
	}
}
