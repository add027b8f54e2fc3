package convert

import (
	"encoding/json"
	"time"
)

// Value is a typed field value. A Value whose Valid flag is false is null:
// the source path was absent or held no parsable text.
type Value struct {
	Kind  Kind
	Valid bool

	str string
	b   bool
	n   int64
	t   time.Time
}

// Null returns the null value of the given kind.
func Null(k Kind) Value {
	return Value{Kind: k}
}

// Text returns a String value.
func Text(s string) Value {
	return Value{Kind: String, Valid: true, str: s}
}

// Boolean returns a value of one of the boolean kinds.
func Boolean(k Kind, b bool) Value {
	return Value{Kind: k, Valid: true, b: b}
}

// Integer returns an Int value.
func Integer(n int64) Value {
	return Value{Kind: Int, Valid: true, n: n}
}

// Timestamp returns a value of one of the time kinds.
func Timestamp(k Kind, t time.Time) Value {
	return Value{Kind: k, Valid: true, t: t}
}

// Str returns the string payload. Only meaningful for String values.
func (v Value) Str() string { return v.str }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload.
func (v Value) Int() int64 { return v.n }

// Time returns the time payload.
func (v Value) Time() time.Time { return v.t }

// Interface returns the payload as a plain Go value, or nil for null values.
func (v Value) Interface() interface{} {
	if !v.Valid {
		return nil
	}
	switch {
	case v.Kind == String:
		return v.str
	case v.Kind == Int:
		return v.n
	case v.Kind.IsBool():
		return v.b
	case v.Kind.IsTime():
		return v.t
	}
	return nil
}

// Equal reports whether two values have the same kind, validity and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind || v.Valid != o.Valid {
		return false
	}
	if !v.Valid {
		return true
	}
	switch {
	case v.Kind == String:
		return v.str == o.str
	case v.Kind == Int:
		return v.n == o.n
	case v.Kind.IsBool():
		return v.b == o.b
	case v.Kind.IsTime():
		return v.t.Equal(o.t)
	}
	return false
}

// String returns the raw form of the value, or "" when it has none.
func (v Value) String() string {
	s, err := Inverse(v)
	if err != nil {
		return ""
	}
	return s
}

// MarshalJSON encodes null values as null and the rest as their payload.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
