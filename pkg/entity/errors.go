package entity

import "fmt"

// ErrorKind classifies a DecodeError.
type ErrorKind int

const (
	// UnknownField: the tree holds a key no decoding table knows.
	UnknownField ErrorKind = iota + 1
	// UnsupportedDimension: the tree names a dimension outside the registry.
	UnsupportedDimension
	// Malformed: a known field holds a value of the wrong shape.
	Malformed
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownField:
		return "unknown field"
	case UnsupportedDimension:
		return "unsupported dimension"
	case Malformed:
		return "malformed field"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// DecodeError reports annotation tree content the decoder or projector does
// not recognize. It is fatal for the parse call that produced it.
type DecodeError struct {
	Kind      ErrorKind
	Key       string
	Dimension string
	Err       error
}

func (e *DecodeError) Error() string {
	msg := "decode: " + e.Kind.String()
	if e.Key != "" {
		msg += fmt.Sprintf(" %q", e.Key)
	}
	if e.Dimension != "" {
		msg += fmt.Sprintf(" (dimension %q)", e.Dimension)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }
