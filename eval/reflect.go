package eval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// property reads a named property from a Go value: exported struct fields
// matched case-insensitively against the template spelling, string-keyed
// map entries, and a "length" fallback for strings, slices, arrays and
// maps. Methods resolve last so fields shadow them.
func property(obj any, name string) (any, error) {
	if obj == nil {
		return nil, fmt.Errorf("eval: property %q of null", name)
	}
	v := deref(reflect.ValueOf(obj))

	if v.Kind() == reflect.Struct {
		if field, ok := fieldByTemplateName(v, name); ok {
			return field.Interface(), nil
		}
	}
	if v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String {
		mv := v.MapIndex(reflect.ValueOf(name))
		if mv.IsValid() {
			return mv.Interface(), nil
		}
	}
	if name == "length" {
		switch v.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			return float64(v.Len()), nil
		}
	}
	if _, err := method(obj, name); err == nil {
		// Bare method reference; only meaningful as a call target.
		return obj, nil
	}
	return nil, fmt.Errorf("eval: no property %q on %s", name, v.Type())
}

// method finds an exported method matching the template spelling, on the
// value or its pointer receiver.
func method(recv any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(recv)
	for _, candidate := range []reflect.Value{v, deref(v)} {
		if !candidate.IsValid() {
			continue
		}
		t := candidate.Type()
		for i := 0; i < t.NumMethod(); i++ {
			if strings.EqualFold(t.Method(i).Name, name) {
				return candidate.Method(i), nil
			}
		}
	}
	return reflect.Value{}, fmt.Errorf("eval: no method matching %q on %T", name, recv)
}

// fieldByTemplateName matches an exported field case-insensitively, so
// template spellings like this.count reach the Count field (the same
// lowercase-name convention the template checker enforces).
func fieldByTemplateName(structVal reflect.Value, name string) (reflect.Value, bool) {
	t := structVal.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return structVal.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Field returns the instance field matching a template signal name.
func Field(instance any, name string) (any, bool) {
	v := deref(reflect.ValueOf(instance))
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	f, ok := fieldByTemplateName(v, name)
	if !ok {
		return nil, false
	}
	return f.Interface(), true
}

func setField(field reflect.Value, value any) error {
	if !field.CanSet() {
		return fmt.Errorf("eval: field is not settable")
	}
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.SetInt(int64(toNumber(value)))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		field.SetUint(uint64(toNumber(value)))
	case reflect.Float32, reflect.Float64:
		field.SetFloat(toNumber(value))
	case reflect.String:
		field.SetString(toString(value))
	case reflect.Bool:
		field.SetBool(Truthy(value))
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || !rv.Type().AssignableTo(field.Type()) {
			return fmt.Errorf("eval: cannot assign %T to field of type %s", value, field.Type())
		}
		field.Set(rv)
	}
	return nil
}

func deref(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}
	return v
}

// convertArg coerces an evaluated argument to a method parameter type.
func convertArg(v any, target reflect.Type) reflect.Value {
	rv := reflect.ValueOf(v)
	if rv.IsValid() && rv.Type().AssignableTo(target) {
		return rv
	}
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return reflect.ValueOf(toNumber(v)).Convert(target)
	case reflect.String:
		return reflect.ValueOf(toString(v))
	case reflect.Bool:
		return reflect.ValueOf(Truthy(v))
	}
	if rv.IsValid() && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target)
	}
	return reflect.Zero(target)
}

// Truthy applies script-side truthiness: null, false, zero and the empty
// string are falsy, everything else is truthy.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32:
		return rv.Float() != 0
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map:
		return !rv.IsNil()
	}
	return true
}

func isString(v any) bool {
	_, ok := v.(string)
	if ok {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.String
}

func toNumber(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case bool:
		if t {
			return 1
		}
		return 0
	case float64:
		return t
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return n
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.String:
		return rv.String()
	}
	return fmt.Sprint(v)
}

// Display renders a value the way the client script would interpolate it:
// null becomes the empty string, numbers drop a trailing ".0".
func Display(v any) string {
	if v == nil {
		return ""
	}
	return toString(v)
}
