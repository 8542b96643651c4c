package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode/utf16"
)

// Value is a sealed interface over the JSON-compatible value types that may
// be stored or hashed. There is deliberately no float type.
type Value interface {
	irValue()
}

// Null is the JSON null. It appears only when decoding stored data;
// canonical encoding rejects it.
type Null struct{}

// String is a string value.
type String string

// Int is an integer value. Always int64, never float64.
type Int int64

// Bool is a boolean value.
type Bool bool

// Array is an ordered list of values.
type Array []Value

// Object maps string keys to values. Use SortedKeys for deterministic
// iteration.
type Object map[string]Value

func (Null) irValue()   {}
func (String) irValue() {}
func (Int) irValue()    {}
func (Bool) irValue()   {}
func (Array) irValue()  {}
func (Object) irValue() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// FromAny converts a Go value into a Value.
//
// Strings, booleans, every integer kind, slices, string-keyed maps and
// existing Values convert directly. Anything else (structs, named types) is
// round-tripped through encoding/json. Floats are rejected at any depth.
func FromAny(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden: %v", val)
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	}

	// Named string and integer types (e.g. type TabID string).
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unsupported type %T: %w", v, err)
	}
	return decodeValue(data, true)
}

// FromSlice converts each element with FromAny.
func FromSlice[T any](vs []T) (Array, error) {
	arr := make(Array, len(vs))
	for i, v := range vs {
		conv, err := FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = conv
	}
	return arr, nil
}

// ToAny converts a Value back into plain Go values (string, int64, bool,
// nil, []any, map[string]any).
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Int:
		return int64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units), which
// differs from Go's byte-wise string order for characters outside the BMP.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}

// UnmarshalJSON implements json.Unmarshaler for Array.
func (arr *Array) UnmarshalJSON(data []byte) error {
	v, err := decodeValue(data, false)
	if err != nil {
		return err
	}
	a, ok := v.(Array)
	if !ok {
		return fmt.Errorf("expected JSON array, got %T", v)
	}
	*arr = a
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Object.
func (obj *Object) UnmarshalJSON(data []byte) error {
	v, err := decodeValue(data, false)
	if err != nil {
		return err
	}
	o, ok := v.(Object)
	if !ok {
		return fmt.Errorf("expected JSON object, got %T", v)
	}
	*obj = o
	return nil
}

// ParseValue decodes JSON into a Value, rejecting floats.
func ParseValue(data []byte) (Value, error) {
	return decodeValue(data, false)
}

func decodeValue(data []byte, rejectNull bool) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return fromDecoded(raw, rejectNull)
}

func fromDecoded(v any, rejectNull bool) (Value, error) {
	switch val := v.(type) {
	case nil:
		if rejectNull {
			return nil, fmt.Errorf("null is forbidden")
		}
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return Int(n), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := fromDecoded(elem, rejectNull)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]any:
		obj := make(Object, len(val))
		for k, elem := range val {
			conv, err := fromDecoded(elem, rejectNull)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = conv
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
