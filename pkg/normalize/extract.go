// Package normalize turns JSS XML records into typed key/value records and
// writes modified values back into the source tree.
package normalize

import (
	"errors"
	"fmt"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/record"
	"github.com/Honestpuck/jss-tools/pkg/schema"
)

// ErrNilInput is returned when Extract is given a nil record or schema.
var ErrNilInput = errors.New("nil record or schema")

// zeroCount is the count text that short-circuits a collection.
const zeroCount = "0"

type options struct {
	emptyPlaceholder bool
}

// Option customizes extraction.
type Option func(*options)

// WithEmptyPlaceholder represents zero-count collections as an empty list
// instead of a list holding one nil entry.
func WithEmptyPlaceholder() Option {
	return func(o *options) {
		o.emptyPlaceholder = true
	}
}

type rawField struct {
	text    string
	present bool
}

// Extract applies s to rec. Missing paths yield null values; declared
// conversions are applied; collections are extracted with their own schemas.
func Extract(rec *record.Record, s *schema.Schema, opts ...Option) (*Record, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return extract(rec, s, o)
}

func extract(rec *record.Record, s *schema.Schema, o *options) (*Record, error) {
	if rec == nil || s == nil {
		return nil, ErrNilInput
	}
	for _, c := range s.Conversions {
		if !c.Kind.Valid() {
			return nil, fmt.Errorf("%s: key %q: %w: %d", s.Name, c.Key, convert.ErrUnknownKind, int(c.Kind))
		}
	}

	raw := make(map[string]rawField, len(s.Fields))
	for _, f := range s.Fields {
		text, ok := rec.FindText(f.Path)
		raw[f.Key] = rawField{text: text, present: ok}
	}

	out := newRecord(s)
	for _, key := range out.keys {
		kind := s.Conversions.Kind(key)
		rf := raw[key]
		if !rf.present {
			out.fields[key] = convert.Null(kind)
			continue
		}
		v, err := convert.Forward(rf.text, kind)
		if err != nil {
			return nil, fmt.Errorf("%s: key %q: %w", s.Name, key, err)
		}
		out.fields[key] = v
	}

	for _, col := range s.Collections {
		if col.Schema == nil {
			return nil, fmt.Errorf("%s: collection %q: %w", s.Name, col.Name, ErrNilInput)
		}
		// The server's count is trusted over the children actually present.
		if col.CountKey != "" {
			if rf := raw[col.CountKey]; rf.present && rf.text == zeroCount {
				if o.emptyPlaceholder {
					out.collections[col.Name] = []*Record{}
				} else {
					out.collections[col.Name] = []*Record{nil}
				}
				continue
			}
		}
		items := []*Record{}
		for _, child := range rec.FindAll(col.Path) {
			if col.Exclude != nil && col.Exclude(child) {
				continue
			}
			item, err := extract(child, col.Schema, o)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", s.Name, col.Name, err)
			}
			items = append(items, item)
		}
		out.collections[col.Name] = items
	}
	return out, nil
}
