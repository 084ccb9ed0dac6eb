package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingInput   = errors.New("missing input")
	ErrMalformedDate  = errors.New("malformed date")
	ErrMalformedValue = errors.New("malformed value")
	ErrEmptyYear      = errors.New("empty year")
)

// Kinds of inputs a MissingInputError can refer to.
const (
	InputFile   = "file"
	InputSheet  = "sheet"
	InputColumn = "column"
)

// MissingInputError reports a file, sheet or column that could not be found.
type MissingInputError struct {
	Kind string
	Name string
	// Where optionally names the container that was searched (file or sheet).
	Where string
}

func (e *MissingInputError) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("missing %s %q in %s", e.Kind, e.Name, e.Where)
	}
	return fmt.Sprintf("missing %s %q", e.Kind, e.Name)
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// MalformedDateError reports a date token that no supported layout accepts.
type MalformedDateError struct {
	Token string
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date %q", e.Token)
}

func (e *MalformedDateError) Unwrap() error { return ErrMalformedDate }

// MalformedValueError reports a non-empty numeric cell that does not parse.
type MalformedValueError struct {
	Column string
	Row    int
	Token  string
}

func (e *MalformedValueError) Error() string {
	return fmt.Sprintf("malformed value %q in column %q (row %d)", e.Token, e.Column, e.Row)
}

func (e *MalformedValueError) Unwrap() error { return ErrMalformedValue }

// EmptyYearError is returned when a year carries no known observation,
// so no distribution policy can produce monthly values for it.
type EmptyYearError struct {
	Year int
}

func (e *EmptyYearError) Error() string {
	return fmt.Sprintf("year %d has no known observations", e.Year)
}

func (e *EmptyYearError) Unwrap() error { return ErrEmptyYear }
