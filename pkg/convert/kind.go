package convert

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKind is returned for conversion kinds outside the closed set.
	ErrUnknownKind = errors.New("unknown conversion kind")
	// ErrMalformed is returned when raw text cannot be parsed as the requested kind.
	ErrMalformed = errors.New("malformed value")
	// ErrNull is returned when a null value is asked for its raw form.
	ErrNull = errors.New("null value has no raw form")
)

// Kind identifies how a raw XML string is coerced into a typed value.
type Kind int

const (
	String Kind = iota
	Bool
	Int
	Date
	DateUTC
	Epoch
	DateTime
	TrueFalse
	OneZero
)

var kindCodes = [...]string{
	String:    "STRG",
	Bool:      "BOOL",
	Int:       "INTN",
	Date:      "DATE",
	DateUTC:   "DUTC",
	Epoch:     "EPOK",
	DateTime:  "TIME",
	TrueFalse: "BTRU",
	OneZero:   "BONE",
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{String, Bool, Int, Date, DateUTC, Epoch, DateTime, TrueFalse, OneZero}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= String && k <= OneZero
}

// String returns the four letter code of the kind, e.g. "BOOL".
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindCodes[k]
}

// MarshalText encodes the kind as its code.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(kindCodes[k]), nil
}

// UnmarshalText decodes a kind code.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind maps a code such as "INTN" (case-insensitive) to its Kind.
func ParseKind(code string) (Kind, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	for i, name := range kindCodes {
		if name == c {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, code)
}

// IsTime reports whether values of the kind hold a time.Time.
func (k Kind) IsTime() bool {
	switch k {
	case Date, DateUTC, Epoch, DateTime:
		return true
	}
	return false
}

// IsBool reports whether values of the kind hold a bool.
func (k Kind) IsBool() bool {
	switch k {
	case Bool, TrueFalse, OneZero:
		return true
	}
	return false
}
