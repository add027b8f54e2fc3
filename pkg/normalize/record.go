package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/schema"
)

var (
	// ErrUnknownKey is returned when a key is not declared by the record's schema.
	ErrUnknownKey = errors.New("unknown key")
	// ErrKindMismatch is returned when a value's kind differs from the declared kind.
	ErrKindMismatch = errors.New("kind mismatch")
)

// Record is a normalized record: every declared key is present, typed per
// the schema's conversion map, plus any nested collections.
type Record struct {
	schema      *schema.Schema
	keys        []string
	fields      map[string]convert.Value
	collections map[string][]*Record
}

func newRecord(s *schema.Schema) *Record {
	return &Record{
		schema:      s,
		keys:        s.Fields.Keys(),
		fields:      make(map[string]convert.Value, len(s.Fields)),
		collections: make(map[string][]*Record, len(s.Collections)),
	}
}

// Schema returns the schema the record was extracted with.
func (r *Record) Schema() *schema.Schema {
	return r.schema
}

// Keys returns the field keys in field-map order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value of key. The boolean is false for undeclared keys.
func (r *Record) Get(key string) (convert.Value, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Text returns the raw form of key, or "" when the key is null or undeclared.
func (r *Record) Text(key string) string {
	v, ok := r.fields[key]
	if !ok {
		return ""
	}
	return v.String()
}

// Set replaces the value of a declared key. The value must have the kind the
// schema declares for that key.
func (r *Record) Set(key string, v convert.Value) error {
	if _, ok := r.fields[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if want := r.schema.Conversions.Kind(key); v.Kind != want {
		return fmt.Errorf("%w: %q is %s, got %s", ErrKindMismatch, key, want, v.Kind)
	}
	r.fields[key] = v
	return nil
}

// SetRaw parses raw with the declared kind of key and stores the result.
// Boolean keys accept only their kind's two spellings.
func (r *Record) SetRaw(key, raw string) error {
	if _, ok := r.fields[key]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	v, err := convert.Parse(raw, r.schema.Conversions.Kind(key))
	if err != nil {
		return fmt.Errorf("%q: %w", key, err)
	}
	r.fields[key] = v
	return nil
}

// Collection returns a nested collection. A zero-count collection holds a
// single nil entry unless extracted with WithEmptyPlaceholder.
func (r *Record) Collection(name string) ([]*Record, bool) {
	c, ok := r.collections[name]
	return c, ok
}

// MarshalJSON writes the fields in field-map order followed by the
// collections in schema order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	write := func(key string, v interface{}) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(key)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	for _, k := range r.keys {
		if err := write(k, r.fields[k]); err != nil {
			return nil, err
		}
	}
	for _, col := range r.schema.Collections {
		items, ok := r.collections[col.Name]
		if !ok {
			continue
		}
		if err := write(col.Name, items); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
