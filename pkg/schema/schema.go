// Package schema declares which paths of a JSS record are extracted, under
// what names, and how they are typed.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/record"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid schema")

// Field maps a slash path in the record to a short public key.
type Field struct {
	Path string `json:"path" yaml:"path"`
	Key  string `json:"key" yaml:"key"`
}

// FieldMap is an ordered list of fields.
type FieldMap []Field

// Keys returns the keys in order, keeping only the first occurrence.
func (m FieldMap) Keys() []string {
	seen := make(map[string]bool, len(m))
	out := make([]string, 0, len(m))
	for _, f := range m {
		if seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		out = append(out, f.Key)
	}
	return out
}

// Path returns the path of the last field mapped to key.
func (m FieldMap) Path(key string) (string, bool) {
	path, ok := "", false
	for _, f := range m {
		if f.Key == key {
			path, ok = f.Path, true
		}
	}
	return path, ok
}

// Conversion names a key that is coerced and the kind it is coerced to.
type Conversion struct {
	Key  string       `json:"key" yaml:"key"`
	Kind convert.Kind `json:"kind" yaml:"kind"`
}

// ConversionMap is the list of keys that are typed. Keys not listed stay
// raw strings.
type ConversionMap []Conversion

// Kind returns the kind for key, String when the key is not converted.
func (m ConversionMap) Kind(key string) convert.Kind {
	for _, c := range m {
		if c.Key == key {
			return c.Kind
		}
	}
	return convert.String
}

// Collection describes a repeated child element extracted with its own schema.
type Collection struct {
	// Name is the key the collection is stored under, e.g. "paks".
	Name string
	// Path selects the repeated children, e.g. "scripts/script".
	Path string
	// CountKey names a parent field holding the server's count. A count of
	// "0" short-circuits extraction. Empty means always iterate.
	CountKey string
	// Schema is applied to each child.
	Schema *Schema
	// Exclude drops children for which it returns true.
	Exclude func(*record.Record) bool
}

// Schema is the full extraction definition for one record kind.
type Schema struct {
	Name        string
	Fields      FieldMap
	Conversions ConversionMap
	Collections []Collection
}

// Validate checks the schema for configuration mistakes.
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalid)
	}
	keys := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Key) == "" {
			return fmt.Errorf("%w: %s: field %d has an empty key", ErrInvalid, s.Name, i)
		}
		if strings.TrimSpace(f.Path) == "" {
			return fmt.Errorf("%w: %s: field %q has an empty path", ErrInvalid, s.Name, f.Key)
		}
		if keys[f.Key] {
			return fmt.Errorf("%w: %s: duplicate key %q", ErrInvalid, s.Name, f.Key)
		}
		if err := record.ValidPath(f.Path); err != nil {
			return fmt.Errorf("%w: %s: field %q: %v", ErrInvalid, s.Name, f.Key, err)
		}
		keys[f.Key] = true
	}
	for _, c := range s.Conversions {
		if !keys[c.Key] {
			return fmt.Errorf("%w: %s: conversion for unknown key %q", ErrInvalid, s.Name, c.Key)
		}
		if !c.Kind.Valid() {
			return fmt.Errorf("%w: %s: key %q: %v", ErrInvalid, s.Name, c.Key, convert.ErrUnknownKind)
		}
	}
	for _, col := range s.Collections {
		if col.Name == "" || col.Path == "" {
			return fmt.Errorf("%w: %s: collection needs a name and a path", ErrInvalid, s.Name)
		}
		if keys[col.Name] {
			return fmt.Errorf("%w: %s: collection %q shadows a field", ErrInvalid, s.Name, col.Name)
		}
		if col.CountKey != "" && !keys[col.CountKey] {
			return fmt.Errorf("%w: %s: collection %q counts unknown key %q", ErrInvalid, s.Name, col.Name, col.CountKey)
		}
		if err := record.ValidPath(col.Path); err != nil {
			return fmt.Errorf("%w: %s: collection %q: %v", ErrInvalid, s.Name, col.Name, err)
		}
		if err := col.Schema.Validate(); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Name, col.Name, err)
		}
	}
	return nil
}

// Keys returns the field keys in order.
func (s *Schema) Keys() []string {
	return s.Fields.Keys()
}

// simple builds a field map whose keys equal their paths.
func simple(paths ...string) FieldMap {
	m := make(FieldMap, 0, len(paths))
	for _, p := range paths {
		m = append(m, Field{Path: p, Key: p})
	}
	return m
}
