// Package convert coerces the raw strings found in JSS XML records into typed
// values and back again.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Layouts written by the JSS. Anything else goes through the permissive parser.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	UTCLayout      = "2006-01-02T15:04:05.000-0700"
)

var serverLayouts = []string{DateLayout, DateTimeLayout, UTCLayout, time.RFC3339Nano}

// Forward converts raw text into a value of the given kind.
//
// Empty text is false for the boolean kinds, "" for String and null for
// everything else.
func Forward(raw string, k Kind) (Value, error) {
	switch k {
	case String:
		return Text(raw), nil
	case Bool:
		return Boolean(k, strings.EqualFold(raw, "true")), nil
	case TrueFalse:
		return Boolean(k, raw == "True"), nil
	case OneZero:
		return Boolean(k, raw == "1"), nil
	case Int:
		s := strings.TrimSpace(raw)
		if s == "" {
			return Null(k), nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrMalformed, raw)
		}
		return Integer(n), nil
	case Epoch:
		s := strings.TrimSpace(raw)
		if s == "" {
			return Null(k), nil
		}
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not epoch milliseconds", ErrMalformed, raw)
		}
		return Timestamp(k, time.UnixMilli(ms).UTC()), nil
	case Date, DateTime, DateUTC:
		s := strings.TrimSpace(raw)
		if s == "" {
			return Null(k), nil
		}
		t, err := ParseTime(s)
		if err != nil {
			return Value{}, err
		}
		return Timestamp(k, t), nil
	}
	return Value{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
}

// Parse converts caller-supplied text into a value of the given kind. Unlike
// Forward it rejects boolean text outside the kind's two spellings.
func Parse(raw string, k Kind) (Value, error) {
	switch k {
	case Bool:
		switch {
		case strings.EqualFold(raw, "true"):
			return Boolean(k, true), nil
		case strings.EqualFold(raw, "false"):
			return Boolean(k, false), nil
		}
	case TrueFalse:
		switch raw {
		case "True":
			return Boolean(k, true), nil
		case "False":
			return Boolean(k, false), nil
		}
	case OneZero:
		switch raw {
		case "1":
			return Boolean(k, true), nil
		case "0":
			return Boolean(k, false), nil
		}
	default:
		return Forward(raw, k)
	}
	return Value{}, fmt.Errorf("%w: %q is not a %s value", ErrMalformed, raw, k)
}

// Inverse renders a value in the canonical raw form the JSS expects.
func Inverse(v Value) (string, error) {
	if !v.Kind.Valid() {
		return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(v.Kind))
	}
	if !v.Valid {
		return "", ErrNull
	}
	switch v.Kind {
	case String:
		return v.str, nil
	case Bool:
		return strconv.FormatBool(v.b), nil
	case TrueFalse:
		if v.b {
			return "True", nil
		}
		return "False", nil
	case OneZero:
		if v.b {
			return "1", nil
		}
		return "0", nil
	case Int:
		return strconv.FormatInt(v.n, 10), nil
	case Date:
		return v.t.Format(DateLayout), nil
	case DateTime:
		return v.t.Format(DateTimeLayout), nil
	case DateUTC:
		return v.t.UTC().Format(UTCLayout), nil
	case Epoch:
		return strconv.FormatInt(v.t.UnixMilli(), 10), nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownKind, int(v.Kind))
}

// ParseTime parses the server's own layouts first and falls back to a
// permissive parser for anything a human might type, e.g. "10 Dec 2018".
// Times without a zone are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range serverLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date: %v", ErrMalformed, s, err)
	}
	return t, nil
}

// Canonical runs raw text through Forward and Inverse, yielding the single
// canonical spelling of the value.
func Canonical(raw string, k Kind) (string, error) {
	v, err := Forward(raw, k)
	if err != nil {
		return "", err
	}
	if !v.Valid {
		return "", nil
	}
	return Inverse(v)
}
