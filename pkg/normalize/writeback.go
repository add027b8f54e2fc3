package normalize

import (
	"context"
	"fmt"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/record"
	"github.com/Honestpuck/jss-tools/pkg/schema"
)

// Saver persists a modified record tree.
type Saver interface {
	Save(ctx context.Context, rec *record.Record) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, rec *record.Record) error

// Save calls f.
func (f SaverFunc) Save(ctx context.Context, rec *record.Record) error {
	return f(ctx, rec)
}

// WriteBack renders every non-null field of n with its inverse conversion
// and overwrites the matching node of rec. Nodes missing from rec are left
// missing. It returns the number of nodes whose text changed.
func WriteBack(n *Record, rec *record.Record, s *schema.Schema) (int, error) {
	if n == nil || rec == nil || s == nil {
		return 0, ErrNilInput
	}
	changed := 0
	for _, f := range s.Fields {
		v, ok := n.fields[f.Key]
		if !ok || !v.Valid {
			continue
		}
		text, err := convert.Inverse(v)
		if err != nil {
			return changed, fmt.Errorf("%s: key %q: %w", s.Name, f.Key, err)
		}
		current, ok := rec.FindText(f.Path)
		if !ok {
			continue
		}
		if current == text {
			continue
		}
		// Unmodified values stay in the server's spelling.
		if canon, err := convert.Canonical(current, v.Kind); err == nil && canon == text {
			continue
		}
		rec.SetText(f.Path, text)
		changed++
	}
	return changed, nil
}

// Commit writes n back into rec and persists rec through saver. A persist
// failure is returned to the caller; rec keeps the written values. Nothing is
// persisted when no value changed.
func Commit(ctx context.Context, n *Record, rec *record.Record, s *schema.Schema, saver Saver) (int, error) {
	changed, err := WriteBack(n, rec, s)
	if err != nil || changed == 0 {
		return changed, err
	}
	if err := saver.Save(ctx, rec); err != nil {
		return changed, fmt.Errorf("persist %s: %w", s.Name, err)
	}
	return changed, nil
}
