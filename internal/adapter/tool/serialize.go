package tool

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// maxSerializeDepth bounds recursion; deeper values are rendered opaquely.
const maxSerializeDepth = 64

// Attributer is implemented by values that expose their fields as a map.
// It is preferred over reflection when present.
type Attributer interface {
	Attributes() map[string]any
}

// Serialize renders v as indented JSON. It never fails: values that have no
// JSON form (channels, functions, NaN, cycles) are rendered with fmt and the
// second result reports that such a fallback happened.
func Serialize(v any) (string, bool) {
	n := &normalizer{seen: map[visit]bool{}}
	norm := n.normalize(reflect.ValueOf(v), 0)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(norm); err != nil {
		return fmt.Sprint(v), true
	}
	return strings.TrimSuffix(buf.String(), "\n"), n.fallback
}

type normalizer struct {
	seen     map[visit]bool
	fallback bool
}

// visit identifies a reference value on the current path. Slices also key on
// length since a sub-slice shares its backing array pointer.
type visit struct {
	kind reflect.Kind
	ptr  uintptr
	len  int
}

// enter marks v as being on the current path. It returns false when v is
// already there, i.e. the value refers back to itself.
func (n *normalizer) enter(v reflect.Value) (visit, bool) {
	key := visit{kind: v.Kind(), ptr: v.Pointer()}
	if v.Kind() == reflect.Slice {
		key.len = v.Len()
	}
	if n.seen[key] {
		n.fallback = true
		return key, false
	}
	n.seen[key] = true
	return key, true
}

var (
	timeType          = reflect.TypeOf(time.Time{})
	jsonNumberType    = reflect.TypeOf(json.Number(""))
	rawMessageType    = reflect.TypeOf(json.RawMessage(nil))
	attributerType    = reflect.TypeOf((*Attributer)(nil)).Elem()
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	stringerType      = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

func (n *normalizer) opaque(v reflect.Value) any {
	n.fallback = true
	if !v.IsValid() {
		return nil
	}
	if v.CanInterface() {
		if s := fmt.Sprint(v.Interface()); s != "" {
			return s
		}
	}
	return "<" + v.Type().String() + ">"
}

func (n *normalizer) normalize(v reflect.Value, depth int) any {
	if !v.IsValid() {
		return nil
	}
	if depth > maxSerializeDepth {
		n.fallback = true
		return "<" + v.Type().String() + ">"
	}

	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case jsonNumberType:
		return v.Interface()
	case rawMessageType:
		raw := v.Interface().(json.RawMessage)
		if json.Valid(raw) {
			return raw
		}
		return n.opaque(v)
	}

	if v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
	}
	if v.CanInterface() && v.Type().Implements(attributerType) {
		return n.normalize(reflect.ValueOf(v.Interface().(Attributer).Attributes()), depth+1)
	}
	if v.CanInterface() && v.Type().Implements(jsonMarshalerType) {
		if data, err := v.Interface().(json.Marshaler).MarshalJSON(); err == nil && json.Valid(data) {
			return json.RawMessage(data)
		}
		return n.opaque(v)
	}
	if v.CanInterface() && v.Type().Implements(textMarshalerType) {
		if text, err := v.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			return string(text)
		}
		return n.opaque(v)
	}

	switch v.Kind() {
	case reflect.Interface:
		return n.normalize(v.Elem(), depth)
	case reflect.Pointer:
		key, ok := n.enter(v)
		if !ok {
			return "<cycle " + v.Type().String() + ">"
		}
		defer delete(n.seen, key)
		return n.normalize(v.Elem(), depth+1)
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			n.fallback = true
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return f
	case reflect.Map:
		return n.normalizeMap(v, depth)
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 && utf8.Valid(v.Bytes()) {
			return string(v.Bytes())
		}
		if v.Len() == 0 {
			return []any{}
		}
		key, ok := n.enter(v)
		if !ok {
			return "<cycle " + v.Type().String() + ">"
		}
		defer delete(n.seen, key)
		return n.normalizeList(v, depth)
	case reflect.Array:
		return n.normalizeList(v, depth)
	case reflect.Struct:
		return n.normalizeStruct(v, depth)
	}

	if v.CanInterface() && v.Type().Implements(stringerType) {
		n.fallback = true
		return v.Interface().(fmt.Stringer).String()
	}
	return n.opaque(v)
}

func (n *normalizer) normalizeMap(v reflect.Value, depth int) any {
	if v.IsNil() {
		return nil
	}
	key, ok := n.enter(v)
	if !ok {
		return "<cycle " + v.Type().String() + ">"
	}
	defer delete(n.seen, key)

	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		out[mapKey(iter.Key())] = n.normalize(iter.Value(), depth+1)
	}
	return out
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
			if b, err := tm.MarshalText(); err == nil {
				return string(b)
			}
		}
		return fmt.Sprint(k.Interface())
	}
	return k.String()
}

func (n *normalizer) normalizeList(v reflect.Value, depth int) any {
	out := make([]any, v.Len())
	for i := range out {
		out[i] = n.normalize(v.Index(i), depth+1)
	}
	return out
}

// normalizeStruct follows encoding/json field naming: the json tag name when
// present, "-" skips, omitempty drops zero values, unexported fields are
// ignored.
func (n *normalizer) normalizeStruct(v reflect.Value, depth int) any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		omitEmpty := false
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tag == "-" {
				continue
			}
			parts := strings.Split(tag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		out[name] = n.normalize(fv, depth+1)
	}
	return out
}
