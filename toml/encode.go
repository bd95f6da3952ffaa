package toml

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Marshal returns the TOML encoding of a struct or map[string]T
//
// Struct fields keep declaration order, map keys are sorted. Scalars and
// inline arrays of a table are written before its sub-tables, so the output
// parses back with Unmarshal. Durations are written as strings ("33ms").
// Fields tagged `omitempty` are skipped when zero; nil pointers are skipped.
func Marshal(v any) ([]byte, error) {
	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("toml: cannot marshal nil pointer")
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct && val.Kind() != reflect.Map {
		return nil, fmt.Errorf("toml: root must be struct or map, got %s", val.Kind())
	}

	var buf bytes.Buffer
	if err := encodeTable(&buf, val, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type entry struct {
	key string
	val reflect.Value
}

// entries lists the encodable members of a struct or map
func entries(rv reflect.Value) ([]entry, error) {
	var out []entry
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("toml: map key must be string, got %s", rv.Type().Key())
		}
		for _, k := range rv.MapKeys() {
			out = append(out, entry{key: k.String(), val: rv.MapIndex(k)})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })

	case reflect.Struct:
		typ := rv.Type()
		for i := 0; i < typ.NumField(); i++ {
			f := typ.Field(i)
			if !f.IsExported() {
				continue
			}
			key, ok := fieldKey(f)
			if !ok {
				continue
			}
			fv := rv.Field(i)
			if strings.Contains(f.Tag.Get("toml"), "omitempty") && fv.IsZero() {
				continue
			}
			out = append(out, entry{key: key, val: fv})
		}
	}

	// Unwrap interfaces and pointers, dropping nils
	kept := out[:0]
	for _, e := range out {
		for e.val.Kind() == reflect.Interface || e.val.Kind() == reflect.Ptr {
			if e.val.IsNil() {
				e.val = reflect.Value{}
				break
			}
			e.val = e.val.Elem()
		}
		if e.val.IsValid() {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func isTable(v reflect.Value) bool {
	if v.Type() == durationType {
		return false
	}
	return v.Kind() == reflect.Struct || v.Kind() == reflect.Map
}

func encodeTable(buf *bytes.Buffer, rv reflect.Value, prefix string) error {
	members, err := entries(rv)
	if err != nil {
		return err
	}

	var tables []entry
	for _, e := range members {
		if isTable(e.val) {
			tables = append(tables, e)
			continue
		}
		writeKey(buf, e.key)
		buf.WriteString(" = ")
		if err := encodeValue(buf, e.val); err != nil {
			return fmt.Errorf("toml: key %q: %w", join(prefix, e.key), err)
		}
		buf.WriteByte('\n')
	}

	for _, e := range tables {
		var header strings.Builder
		if prefix != "" {
			header.WriteString(prefix)
			header.WriteByte('.')
		}
		var kb bytes.Buffer
		writeKey(&kb, e.key)
		header.Write(kb.Bytes())

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString("[" + header.String() + "]\n")
		if err := encodeTable(buf, e.val, header.String()); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, v reflect.Value) error {
	if v.Type() == durationType {
		encodeString(buf, time.Duration(v.Int()).String())
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		buf.WriteString(strconv.FormatBool(v.Bool()))

	case reflect.String:
		encodeString(buf, v.String())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(v.Int(), 10))

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > math.MaxInt64 {
			return fmt.Errorf("%d exceeds the TOML integer range", u)
		}
		buf.WriteString(strconv.FormatUint(u, 10))

	case reflect.Float32, reflect.Float64:
		buf.WriteString(formatFloat(v.Float()))

	case reflect.Slice, reflect.Array:
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteString(", ")
			}
			elem := v.Index(i)
			for elem.Kind() == reflect.Interface || elem.Kind() == reflect.Ptr {
				if elem.IsNil() {
					return fmt.Errorf("nil element %d", i)
				}
				elem = elem.Elem()
			}
			if isTable(elem) {
				return fmt.Errorf("arrays of tables are not supported")
			}
			if err := encodeValue(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')

	default:
		return fmt.Errorf("unsupported type %s", v.Type())
	}
	return nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func writeKey(buf *bytes.Buffer, k string) {
	if isBareKey(k) {
		buf.WriteString(k)
		return
	}
	encodeString(buf, k)
}

func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(buf, `\u%04X`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// isBareKey reports whether k can be written unquoted and still lex as a key
func isBareKey(k string) bool {
	if k == "" || k == "true" || k == "false" || k == "inf" || k == "nan" {
		return false
	}
	for _, r := range k {
		if !isBareChar(r) {
			return false
		}
	}
	// A leading digit or sign sends the lexer down the number path
	c := rune(k[0])
	return !isDigit(c) && c != '-'
}
