package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/goccy/go-yaml"
)

// Inspect renders v in ESP literal syntax. Strings are quoted and cyclic
// references print as <cycle>.
func Inspect(v Value) string {
	var b strings.Builder

	inspect(&b, v, map[Value]struct{}{})

	return b.String()
}

func inspect(b *strings.Builder, v Value, seen map[Value]struct{}) {
	switch v := v.(type) {
	case nil:
		b.WriteString("undefined")

	case String:
		b.WriteString(quote(string(v)))

	case *Array:
		if _, ok := seen[v]; ok {
			b.WriteString("<cycle>")

			return
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		b.WriteByte('[')

		for i, e := range v.elems {
			if i > 0 {
				b.WriteString(", ")
			}

			inspect(b, e, seen)
		}

		b.WriteByte(']')

	case *Object:
		if _, ok := seen[v]; ok {
			b.WriteString("<cycle>")

			return
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		b.WriteByte('{')

		for i, k := range v.keys {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(propertyName(k))
			b.WriteString(": ")
			inspect(b, v.props[k], seen)
		}

		b.WriteByte('}')

	default:
		b.WriteString(v.String())
	}
}

// quote renders s as a double-quoted ESP string literal.
func quote(s string) string {
	var b strings.Builder

	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}

	b.WriteByte('"')

	return b.String()
}

// propertyName renders an object key bare when it lexes as a name.
func propertyName(k string) string {
	for i, r := range k {
		if (i == 0 && !isIdentStart(r)) || !isIdentPart(r) {
			return quote(k)
		}
	}

	if k == "" {
		return quote(k)
	}

	return k
}

// FormatJSON writes v as JSON. Object keys keep insertion order; functions
// render as strings and non-finite numbers as null.
func FormatJSON(_ context.Context, w io.Writer, v Value, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(jsonValue(v), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(jsonValue(v))
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// jsonObject marshals object properties in insertion order.
type jsonObject struct {
	keys []string
	vals []any
}

func (o jsonObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		val, err := json.Marshal(o.vals[i])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func jsonValue(v Value) any {
	return encodable(v, map[Value]struct{}{},
		func(keys []string, vals []any) any { return jsonObject{keys: keys, vals: vals} })
}

// FormatYAML writes v as YAML. An indent of zero selects flow style.
func FormatYAML(ctx context.Context, w io.Writer, v Value, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, yamlValue(v), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}

func yamlValue(v Value) any {
	return encodable(v, map[Value]struct{}{},
		func(keys []string, vals []any) any {
			ms := make(yaml.MapSlice, len(keys))
			for i, k := range keys {
				ms[i] = yaml.MapItem{Key: k, Value: vals[i]}
			}

			return ms
		})
}

// encodable converts v for a serializer; object builds the ordered map type.
func encodable(v Value, seen map[Value]struct{}, object func([]string, []any) any) any {
	switch v := v.(type) {
	case Number:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}

		return f

	case *Array:
		if _, ok := seen[v]; ok {
			return nil
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = encodable(e, seen, object)
		}

		return out

	case *Object:
		if _, ok := seen[v]; ok {
			return nil
		}

		seen[v] = struct{}{}
		defer delete(seen, v)

		vals := make([]any, len(v.keys))
		for i, k := range v.keys {
			vals[i] = encodable(v.props[k], seen, object)
		}

		return object(v.keys, vals)
	}

	return ToNative(v)
}
