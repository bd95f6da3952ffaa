package toml

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"
)

// ErrUnknownKey is returned by UnmarshalStrict for keys with no matching field
var ErrUnknownKey = errors.New("unknown key")

var durationType = reflect.TypeOf(time.Duration(0))

// Unmarshal parses TOML data and stores the result in the value pointed to by v
// Keys with no matching field are ignored
func Unmarshal(data []byte, v any) error {
	return unmarshal(data, v, false)
}

// UnmarshalStrict is Unmarshal that rejects keys with no matching struct field
func UnmarshalStrict(data []byte, v any) error {
	return unmarshal(data, v, true)
}

func unmarshal(data []byte, v any, strict bool) error {
	tree, err := NewParser(data).Parse()
	if err != nil {
		return err
	}
	d := decoder{strict: strict}
	return d.decode(tree, v)
}

// Decode maps a parsed tree onto v using `toml` tags, falling back to field names
func Decode(data any, v any) error {
	var d decoder
	return d.decode(data, v)
}

type decoder struct {
	strict bool
}

func (d *decoder) decode(data any, v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("toml: target must be a non-nil pointer, got %T", v)
	}
	return d.value(data, val.Elem(), "")
}

func (d *decoder) value(data any, val reflect.Value, path string) error {
	if data == nil {
		return nil
	}

	if val.Type() == durationType {
		return decodeDuration(data, val, path)
	}

	switch val.Kind() {
	case reflect.Ptr:
		if val.IsNil() {
			val.Set(reflect.New(val.Type().Elem()))
		}
		return d.value(data, val.Elem(), path)

	case reflect.Struct:
		m, ok := data.(map[string]any)
		if !ok {
			return typeError(path, "table", data)
		}
		return d.structFields(m, val, path)

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("toml: %s: only map[string]T is supported", path)
		}
		m, ok := data.(map[string]any)
		if !ok {
			return typeError(path, "table", data)
		}
		out := reflect.MakeMapWithSize(val.Type(), len(m))
		for k, item := range m {
			elem := reflect.New(val.Type().Elem()).Elem()
			if err := d.value(item, elem, join(path, k)); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(val.Type().Key()), elem)
		}
		val.Set(out)

	case reflect.Slice:
		items, ok := data.([]any)
		if !ok {
			return typeError(path, "array", data)
		}
		out := reflect.MakeSlice(val.Type(), len(items), len(items))
		for i, item := range items {
			if err := d.value(item, out.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		val.Set(out)

	case reflect.Interface:
		if val.NumMethod() != 0 {
			return fmt.Errorf("toml: %s: cannot decode into non-empty interface %s", path, val.Type())
		}
		val.Set(reflect.ValueOf(data))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(data, path)
		if err != nil {
			return err
		}
		if val.OverflowInt(n) {
			return fmt.Errorf("toml: %s: %d overflows %s", path, n, val.Type())
		}
		val.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt(data, path)
		if err != nil {
			return err
		}
		if n < 0 || val.OverflowUint(uint64(n)) {
			return fmt.Errorf("toml: %s: %d out of range for %s", path, n, val.Type())
		}
		val.SetUint(uint64(n))

	case reflect.Float32, reflect.Float64:
		switch x := data.(type) {
		case float64:
			val.SetFloat(x)
		case int64:
			val.SetFloat(float64(x))
		case int:
			val.SetFloat(float64(x))
		default:
			return typeError(path, "number", data)
		}

	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return typeError(path, "string", data)
		}
		val.SetString(s)

	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return typeError(path, "boolean", data)
		}
		val.SetBool(b)

	default:
		return fmt.Errorf("toml: %s: unsupported field type %s", path, val.Type())
	}
	return nil
}

func (d *decoder) structFields(m map[string]any, val reflect.Value, path string) error {
	typ := val.Type()
	seen := make(map[string]bool, len(m))

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key, ok := fieldKey(field)
		if !ok {
			continue
		}
		item, present := m[key]
		if !present {
			continue
		}
		seen[key] = true
		if err := d.value(item, val.Field(i), join(path, key)); err != nil {
			return err
		}
	}

	if d.strict && len(seen) != len(m) {
		var unknown []string
		for k := range m {
			if !seen[k] {
				unknown = append(unknown, join(path, k))
			}
		}
		sort.Strings(unknown)
		return fmt.Errorf("toml: %w: %s", ErrUnknownKey, strings.Join(unknown, ", "))
	}
	return nil
}

// fieldKey returns the TOML key for a struct field; false means skip
func fieldKey(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("toml")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return f.Name, true
}

// decodeDuration accepts "33ms" style strings or an integer count of milliseconds
func decodeDuration(data any, val reflect.Value, path string) error {
	switch x := data.(type) {
	case string:
		dur, err := time.ParseDuration(x)
		if err != nil {
			return fmt.Errorf("toml: %s: %w", path, err)
		}
		val.SetInt(int64(dur))
	case int64:
		if x > math.MaxInt64/int64(time.Millisecond) || x < math.MinInt64/int64(time.Millisecond) {
			return fmt.Errorf("toml: %s: %d ms overflows duration", path, x)
		}
		val.SetInt(x * int64(time.Millisecond))
	default:
		return typeError(path, "duration", data)
	}
	return nil
}

// toInt accepts integers and integral floats
func toInt(data any, path string) (int64, error) {
	switch x := data.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x), nil
		}
		return 0, fmt.Errorf("toml: %s: %v is not an integer", path, x)
	}
	return 0, typeError(path, "integer", data)
}

func typeError(path, want string, got any) error {
	return fmt.Errorf("toml: %s: expected %s, got %T", path, want, got)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
