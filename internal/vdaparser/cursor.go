// =============================================================================
// VDA Delivery Call-Off Decoder - Field Cursor
// =============================================================================
//
// The field cursor is a positional reader over the characters of a single
// line. Each read takes a fixed width, validates the characters against the
// class of the field and returns the slice together with a NEW cursor that
// starts right after it. The receiver is never modified, so a caller that
// drops the returned cursor has not consumed anything.
//
// READ MODES:
//   Alnum  - printable ASCII, used for identifiers and codes
//   Digits - decimal digits or space, used for fields decoded as numbers
//   Filler - policy driven (any / printable / blank), used for padding
//   Skip   - unvalidated content the decoder does not interpret
//
// The format is plain ASCII, so columns are counted in bytes.
//
// =============================================================================

package vdaparser

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// LINE
// =============================================================================

// Line is one physical line of a document, without its newline.
type Line struct {
	// Number is the 1-based line number within the document.
	Number int

	// Offset is the byte offset of the first character in the document.
	Offset int

	// Text is the content of the line.
	Text string
}

// NewLine wraps a single line of text as line 1 of a one-line document.
func NewLine(text string) Line {
	return Line{Number: 1, Text: text}
}

// Lines splits a document into its physical lines the way the decoder does.
func Lines(text string) []Line {
	return splitLines(text)
}

// splitLines splits a document on '\n'. A single trailing newline does not
// produce an empty last line; any other empty line is kept so that the
// grammar reports it.
func splitLines(text string) []Line {
	if text == "" {
		return nil
	}

	parts := strings.Split(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}

	lines := make([]Line, len(parts))
	offset := 0
	for i, part := range parts {
		lines[i] = Line{Number: i + 1, Offset: offset, Text: part}
		offset += len(part) + 1
	}
	return lines
}

// =============================================================================
// FIELD CURSOR
// =============================================================================

// FieldCursor reads fixed-width fields from one line.
type FieldCursor struct {
	line   Line
	col    int
	record string
}

// NewFieldCursor returns a cursor at the start of the line. The record code is
// only used to annotate errors and may be empty.
func NewFieldCursor(line Line, record string) FieldCursor {
	return FieldCursor{line: line, record: record}
}

// Column returns the 0-based position of the cursor.
func (c FieldCursor) Column() int {
	return c.col
}

// Remaining returns the number of unread characters.
func (c FieldCursor) Remaining() int {
	return len(c.line.Text) - c.col
}

// take returns the next n characters, failing with field_width_mismatch when
// the line is too short.
func (c FieldCursor) take(field string, n int) (string, FieldCursor, error) {
	if c.Remaining() < n {
		return "", c, c.widthError(field, n)
	}
	span := c.line.Text[c.col : c.col+n]
	next := c
	next.col += n
	return span, next, nil
}

// Alnum reads an identifier/code field of n printable ASCII characters.
func (c FieldCursor) Alnum(field string, n int) (string, FieldCursor, error) {
	span, next, err := c.take(field, n)
	if err != nil {
		return "", c, err
	}
	for i := 0; i < len(span); i++ {
		if !isPrintable(span[i]) {
			return "", c, c.charError(field, i, "printable character")
		}
	}
	return span, next, nil
}

// Digits reads n characters that are decimal digits or spaces.
func (c FieldCursor) Digits(field string, n int) (string, FieldCursor, error) {
	span, next, err := c.take(field, n)
	if err != nil {
		return "", c, err
	}
	for i := 0; i < len(span); i++ {
		if !isDigit(span[i]) && span[i] != ' ' {
			return "", c, c.charError(field, i, "digit or space")
		}
	}
	return span, next, nil
}

// Number reads a digit field of width n and decodes it as an unsigned
// integer that must fit into bits (8, 16, 32 or 64).
func (c FieldCursor) Number(field string, n, bits int) (uint64, FieldCursor, error) {
	span, next, err := c.Digits(field, n)
	if err != nil {
		return 0, c, err
	}
	value, err := ParseNumber(span, bits)
	if err != nil {
		de, _ := AsDecodeError(err)
		de.Line = c.line.Number
		de.Column = c.col + 1
		de.Offset = c.line.Offset + c.col
		de.Width = n
		de.Record = c.record
		de.Field = field
		return 0, c, de
	}
	return value, next, nil
}

// Filler reads n padding characters under the given policy.
func (c FieldCursor) Filler(field string, n int, policy FillerPolicy) (FieldCursor, error) {
	span, next, err := c.take(field, n)
	if err != nil {
		return c, err
	}
	for i := 0; i < len(span); i++ {
		if !policy.accepts(span[i]) {
			return c, c.charError(field, i, policy.String()+" filler")
		}
	}
	return next, nil
}

// Skip reads n characters without looking at them.
func (c FieldCursor) Skip(field string, n int) (FieldCursor, error) {
	_, next, err := c.take(field, n)
	return next, err
}

// End fails when characters are left on the line.
func (c FieldCursor) End() error {
	if c.Remaining() == 0 {
		return nil
	}
	return &DecodeError{
		Code:     CodeFieldWidthMismatch,
		Line:     c.line.Number,
		Column:   c.col + 1,
		Offset:   c.line.Offset + c.col,
		Width:    c.Remaining(),
		Record:   c.record,
		Expected: []string{"end of line"},
		Found:    c.line.Text[c.col:],
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func (c FieldCursor) widthError(field string, n int) *DecodeError {
	width := c.Remaining()
	if width < 1 {
		width = 1
	}
	return &DecodeError{
		Code:     CodeFieldWidthMismatch,
		Line:     c.line.Number,
		Column:   c.col + 1,
		Offset:   c.line.Offset + c.col,
		Width:    width,
		Record:   c.record,
		Field:    field,
		Expected: []string{plural(n, "character", "characters")},
		Found:    c.line.Text[c.col:],
	}
}

func (c FieldCursor) charError(field string, i int, expected string) *DecodeError {
	col := c.col + i
	width := 1
	if c.line.Text[col] >= utf8.RuneSelf {
		_, width = utf8.DecodeRuneInString(c.line.Text[col:])
	}
	return &DecodeError{
		Code:     CodeUnexpectedCharacter,
		Line:     c.line.Number,
		Column:   col + 1,
		Offset:   c.line.Offset + col,
		Width:    width,
		Record:   c.record,
		Field:    field,
		Expected: []string{expected},
		Found:    c.line.Text[col : col+width],
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isPrintable(ch byte) bool {
	return ch >= 0x20 && ch <= 0x7e
}
