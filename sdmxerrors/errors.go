// Package sdmxerrors defines the typed errors surfaced by the readers and
// the schema resolver. Callers are expected to use errors.As to tell a
// malformed payload (ParseError) apart from a semantically invalid one
// (ValidationError), a known gap (UnsupportedConstructError), a non-2xx
// registry outcome (RegistryError) or a failed schema assembly
// (ResolutionError).
package sdmxerrors

import "fmt"

// ParseError reports input that could not be parsed at all: a malformed
// reference string or an XML/CSV payload whose shape is unrecoverable.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string { return e.Msg }

// Parsef builds a ParseError from a format string.
func Parsef(format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError reports a well-formed payload with invalid content. Field
// names the offending column, attribute or reference.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedConstructError reports a recognized but not-yet-handled
// construct, so callers can tell a known gap from corrupt input.
type UnsupportedConstructError struct {
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("not implemented: %s", e.Construct)
}

// RegistryError carries the status code and title of a non-success
// registry response. The core never retries these; retry policy belongs to
// the fetch collaborator.
type RegistryError struct {
	Status int
	Title  string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("registry returned status %d: %s", e.Status, e.Title)
}

// ResolutionError reports a failed schema assembly. Ref names the artefact
// reference that could not be resolved or fetched.
type ResolutionError struct {
	Ref string
	Msg string
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve %s: %s: %v", e.Ref, e.Msg, e.Err)
	}
	return fmt.Sprintf("cannot resolve %s: %s", e.Ref, e.Msg)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolutionf builds a ResolutionError for the given artefact reference.
func Resolutionf(ref, format string, args ...any) *ResolutionError {
	return &ResolutionError{Ref: ref, Msg: fmt.Sprintf(format, args...)}
}
