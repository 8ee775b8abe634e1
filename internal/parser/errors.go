package parser

import (
	"errors"
	"fmt"
)

// ErrNoRoot is returned for input that holds no element at all.
var ErrNoRoot = errors.New("no element found")

// SyntaxError reports input that is not well-formed markup.
type SyntaxError struct {
	Filename string
	Err      error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse xml %s: %v", e.Filename, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// AmountError reports a price-base attribute that is not a number.
type AmountError struct {
	Attr  string
	Value string
	Err   error
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("invalid amount %s=%q: %v", e.Attr, e.Value, e.Err)
}

func (e *AmountError) Unwrap() error { return e.Err }

// IsSyntax reports whether err is a markup syntax failure.
func IsSyntax(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
