// =============================================================================
// VDA Delivery Call-Off Decoder - Decode Errors
// =============================================================================
//
// Every failure of the decoder is reported as a *DecodeError carrying the
// position of the offending input (line, column and byte offset into the
// document), the production or field that was being decoded, what was
// expected there and what was actually found.
//
// ERROR TAXONOMY:
//   header_mismatch      - header code does not match the expected production
//   field_width_mismatch - line shorter (or longer) than the record layout
//   unexpected_character - character outside the class of the field
//   numeric_format       - digit field could not be read as an integer
//   repeat_count         - fixed-count repetition broke off early
//   unexpected_end       - input exhausted before a required production
//   trailing_input       - records found after the Satz519 terminator
//
// Only header_mismatch is ever recovered from, and only at an optional or
// repeated production. Everything else aborts the decode.
//
// =============================================================================

package vdaparser

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERROR CODES
// =============================================================================

// ErrorCode classifies a decode failure.
type ErrorCode string

const (
	CodeHeaderMismatch      ErrorCode = "header_mismatch"
	CodeFieldWidthMismatch  ErrorCode = "field_width_mismatch"
	CodeUnexpectedCharacter ErrorCode = "unexpected_character"
	CodeNumericFormat       ErrorCode = "numeric_format"
	CodeRepeatCountMismatch ErrorCode = "repeat_count"
	CodeUnexpectedEnd       ErrorCode = "unexpected_end"
	CodeTrailingInput       ErrorCode = "trailing_input"
)

// Sentinel errors for use with errors.Is. A *DecodeError matches the sentinel
// of its code.
var (
	ErrHeaderMismatch      = &DecodeError{Code: CodeHeaderMismatch}
	ErrFieldWidthMismatch  = &DecodeError{Code: CodeFieldWidthMismatch}
	ErrUnexpectedCharacter = &DecodeError{Code: CodeUnexpectedCharacter}
	ErrNumericFormat       = &DecodeError{Code: CodeNumericFormat}
	ErrRepeatCountMismatch = &DecodeError{Code: CodeRepeatCountMismatch}
	ErrUnexpectedEnd       = &DecodeError{Code: CodeUnexpectedEnd}
	ErrTrailingInput       = &DecodeError{Code: CodeTrailingInput}
)

// =============================================================================
// DECODE ERROR
// =============================================================================

// DecodeError describes why and where decoding stopped.
type DecodeError struct {
	// Code is the error class.
	Code ErrorCode

	// Line is the 1-based line number of the offending record.
	// Zero when the error is not tied to a line (e.g. an empty document).
	Line int

	// Column is the 1-based column of the first offending character.
	Column int

	// Offset is the byte offset of the offending character in the document.
	Offset int

	// Width is the number of characters the failing read covered, used by
	// diagnostic rendering to underline the span. At least 1 when Line > 0.
	Width int

	// Record is the header code of the record being decoded, if known.
	Record string

	// Field names the field being read, if the failure happened inside a record.
	Field string

	// Expected lists what would have been accepted at this position.
	Expected []string

	// Found is the actual content at this position.
	Found string

	// Cause is an optional underlying error (e.g. from strconv).
	Cause error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	var b strings.Builder

	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d, column %d: ", e.Line, e.Column)
	}
	b.WriteString(string(e.Code))

	if e.Record != "" {
		fmt.Fprintf(&b, " in satz %s", e.Record)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %q", e.Field)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, ": expected %s", strings.Join(e.Expected, " or "))
	}
	if e.Line > 0 || e.Found != "" {
		fmt.Fprintf(&b, ", found %q", e.Found)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, " (%v)", e.Cause)
	}

	return b.String()
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by code.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// AsDecodeError extracts a *DecodeError from an error chain.
func AsDecodeError(err error) (*DecodeError, bool) {
	var de *DecodeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// isHeaderMismatch reports whether err is a recoverable header mismatch.
func isHeaderMismatch(err error) (*DecodeError, bool) {
	de, ok := AsDecodeError(err)
	if !ok || de.Code != CodeHeaderMismatch {
		return nil, false
	}
	return de, true
}

// deeper reports whether e lies further into the input than other.
func (e *DecodeError) deeper(other *DecodeError) bool {
	if other == nil {
		return true
	}
	return e.Offset > other.Offset
}

// mergeExpected returns a copy of e whose Expected list also contains the
// codes of other. Both errors must point at the same position.
func (e *DecodeError) mergeExpected(other *DecodeError) *DecodeError {
	merged := *e
	merged.Expected = append([]string(nil), e.Expected...)
	for _, exp := range other.Expected {
		if !containsString(merged.Expected, exp) {
			merged.Expected = append(merged.Expected, exp)
		}
	}
	return &merged
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
