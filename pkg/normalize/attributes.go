package normalize

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Honestpuck/jss-tools/pkg/convert"
	"github.com/Honestpuck/jss-tools/pkg/record"
)

// ErrUnknownAttributeType is returned for extension attributes whose declared
// type is not String, Date, Number or Integer.
var ErrUnknownAttributeType = errors.New("unknown extension attribute type")

const attributePath = "extension_attributes/extension_attribute"

// Attribute is one typed extension attribute.
type Attribute struct {
	ID       string        `json:"-"`
	Name     string        `json:"-"`
	Declared string        `json:"-"`
	Value    convert.Value `json:"value"`
	Kind     convert.Kind  `json:"type"`
}

// WithRaw returns a copy of a holding raw. The kind of a String attribute is
// derived from raw, so free text replaces a stored boolean; other attributes
// parse raw strictly with their declared kind.
func (a Attribute) WithRaw(raw string) (Attribute, error) {
	kind := a.Kind
	if strings.EqualFold(strings.TrimSpace(a.Declared), "string") {
		kind = convert.String
		if k, err := AttributeKind(a.Declared, raw); err == nil {
			kind = k
		}
	}
	v, err := convert.Parse(raw, kind)
	if err != nil {
		return a, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	a.Kind = kind
	a.Value = v
	return a, nil
}

// AttributeKind derives the conversion kind from the server-declared type.
// String attributes holding exactly True/False or 0/1 are treated as
// booleans since the server has no boolean type.
func AttributeKind(declared, raw string) (convert.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "string":
		switch raw {
		case "True", "False":
			return convert.TrueFalse, nil
		case "0", "1":
			return convert.OneZero, nil
		}
		return convert.String, nil
	case "date":
		return convert.DateTime, nil
	case "number", "integer":
		return convert.Int, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAttributeType, declared)
}

// Attributes extracts every extension attribute of rec keyed by name.
func Attributes(rec *record.Record) (map[string]Attribute, error) {
	if rec == nil {
		return nil, ErrNilInput
	}
	out := make(map[string]Attribute)
	for _, node := range rec.FindAll(attributePath) {
		id, _ := node.FindText("id")
		name, _ := node.FindText("name")
		declared, _ := node.FindText("type")
		raw, ok := node.FindText("value")

		kind, err := AttributeKind(declared, raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		a := Attribute{ID: id, Name: name, Declared: declared, Kind: kind, Value: convert.Null(kind)}
		if ok {
			v, err := convert.Forward(raw, kind)
			if err != nil {
				return nil, fmt.Errorf("attribute %q: %w", name, err)
			}
			a.Value = v
		}
		out[name] = a
	}
	return out, nil
}

// WriteAttributes rewrites the value node of every attribute in attrs whose
// rendered value differs from the tree. Null values render as empty text.
// It returns the number of nodes rewritten.
func WriteAttributes(attrs map[string]Attribute, rec *record.Record) (int, error) {
	if rec == nil {
		return 0, ErrNilInput
	}
	changed := 0
	for _, node := range rec.FindAll(attributePath) {
		name, _ := node.FindText("name")
		a, ok := attrs[name]
		if !ok {
			continue
		}
		text := ""
		if a.Value.Valid {
			s, err := convert.Inverse(a.Value)
			if err != nil {
				return changed, fmt.Errorf("attribute %q: %w", name, err)
			}
			text = s
		}
		current, ok := node.FindText("value")
		if !ok || current == text {
			continue
		}
		node.SetText("value", text)
		changed++
	}
	return changed, nil
}

// CommitAttributes writes attrs into rec and persists rec through saver.
// Nothing is persisted when no value changed.
func CommitAttributes(ctx context.Context, attrs map[string]Attribute, rec *record.Record, saver Saver) (int, error) {
	changed, err := WriteAttributes(attrs, rec)
	if err != nil || changed == 0 {
		return changed, err
	}
	if err := saver.Save(ctx, rec); err != nil {
		return changed, fmt.Errorf("persist attributes: %w", err)
	}
	return changed, nil
}
