package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Field is one named cell of a row
type Field struct {
	Key   string
	Value string
}

// Row is a result row that keeps its keys in the order the server sent them.
// Rows are not validated against any schema.
type Row struct {
	Fields []Field
}

// NewRow builds a row from alternating key/value pairs.
func NewRow(kv ...string) Row {
	row := Row{Fields: make([]Field, 0, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		row.Fields = append(row.Fields, Field{Key: kv[i], Value: kv[i+1]})
	}
	return row
}

// Get returns the value stored under key.
func (r Row) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Keys returns the row's keys in arrival order.
func (r Row) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Key
	}
	return keys
}

// UnmarshalJSON decodes a JSON object preserving key order. Strings are kept
// as-is, numbers and nested values keep their raw JSON text and null becomes
// the empty string.
func (r *Row) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid row JSON")
	}
	parsed := gjson.ParseBytes(data)
	if !parsed.IsObject() {
		return fmt.Errorf("row must be a JSON object, got %s", parsed.Type)
	}

	fields := make([]Field, 0, 16)
	parsed.ForEach(func(key, value gjson.Result) bool {
		fields = append(fields, Field{Key: key.String(), Value: stringify(value)})
		return true
	})
	r.Fields = fields
	return nil
}

// MarshalJSON encodes the row as an object in field order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func stringify(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return v.Raw
	}
}
