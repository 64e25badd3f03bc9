// Package apperr defines the failure kinds of a stub translation run.
//
// A missing catalog entry is not an error and has no kind here: the source
// text is kept as is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	// KindMalformedDocstring marks an unterminated or ambiguous string
	// literal found while locating docstrings.
	KindMalformedDocstring Kind = "malformed_docstring"
	// KindCatalogUnavailable marks a catalog that cannot be found or read.
	KindCatalogUnavailable Kind = "catalog_unavailable"
	// KindStructuralMismatch marks a translated unit sequence whose shape
	// differs from its source.
	KindStructuralMismatch Kind = "structural_mismatch"
)

type Error struct {
	Kind Kind
	// Path is the stub or catalog file the error refers to, when known.
	Path string
	// Line is the 1-based source line of the offending docstring, 0 if unknown.
	Line    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	} else if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = defaultMessage(e.Kind)
	}
	b.WriteString(msg)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultMessage(kind Kind) string {
	switch kind {
	case KindMalformedDocstring:
		return "malformed string literal"
	case KindCatalogUnavailable:
		return "translation catalog unavailable"
	case KindStructuralMismatch:
		return "translated docstring does not match source structure"
	default:
		return "stub translation failed"
	}
}

func New(kind Kind, message string, cause error) error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Malformed reports a literal problem at the given 1-based line.
func Malformed(line int, format string, args ...any) error {
	return &Error{Kind: KindMalformedDocstring, Line: line, Message: fmt.Sprintf(format, args...)}
}

func CatalogUnavailable(path string, cause error) error {
	return &Error{Kind: KindCatalogUnavailable, Path: path, Cause: cause}
}

func StructuralMismatch(format string, args ...any) error {
	return &Error{Kind: KindStructuralMismatch, Message: fmt.Sprintf(format, args...)}
}

// WithPath returns err with its Path filled in. Errors that are not *Error,
// or already carry a path, are wrapped with the path as a prefix instead.
func WithPath(err error, path string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Path == "" {
		cp := *e
		cp.Path = path
		return &cp
	}
	return fmt.Errorf("%s: %w", path, err)
}

// WithLine is WithPath for the source line.
func WithLine(err error, line int) error {
	var e *Error
	if errors.As(err, &e) && e.Line == 0 {
		cp := *e
		cp.Line = line
		return &cp
	}
	return err
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err (or anything it wraps) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
