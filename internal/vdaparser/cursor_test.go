package vdaparser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldCursor_AlnumAdvances(t *testing.T) {
	c := NewFieldCursor(NewLine("ABC-12 xyz"), "")

	span, next, err := c.Alnum("code", 6)
	require.NoError(t, err)
	assert.Equal(t, "ABC-12", span)
	assert.Equal(t, 6, next.Column())
	assert.Equal(t, 4, next.Remaining())

	// the receiver is untouched
	assert.Equal(t, 0, c.Column())
	assert.Equal(t, 10, c.Remaining())
}

func TestFieldCursor_WidthMismatch(t *testing.T) {
	c := NewFieldCursor(Line{Number: 3, Offset: 100, Text: "1234"}, "512")

	_, next, err := c.Alnum("werk", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldWidthMismatch))
	assert.Equal(t, c, next)

	de, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, 3, de.Line)
	assert.Equal(t, 1, de.Column)
	assert.Equal(t, 100, de.Offset)
	assert.Equal(t, "512", de.Record)
	assert.Equal(t, "werk", de.Field)
	assert.Equal(t, []string{"5 characters"}, de.Expected)
}

func TestFieldCursor_UnexpectedCharacter(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		read   func(FieldCursor) error
		column int
	}{
		{
			name: "letter in digits",
			text: "12A4",
			read: func(c FieldCursor) error {
				_, _, err := c.Digits("menge", 4)
				return err
			},
			column: 3,
		},
		{
			name: "control character in alnum",
			text: "AB\tC",
			read: func(c FieldCursor) error {
				_, _, err := c.Alnum("kunde", 4)
				return err
			},
			column: 3,
		},
		{
			name: "non-blank filler",
			text: "   x",
			read: func(c FieldCursor) error {
				_, err := c.Filler("filler", 4, FillerBlank)
				return err
			},
			column: 4,
		},
		{
			name: "non-printable filler",
			text: "  \x01 ",
			read: func(c FieldCursor) error {
				_, err := c.Filler("filler", 4, FillerPrintable)
				return err
			},
			column: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewFieldCursor(NewLine(tt.text), ""))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnexpectedCharacter))

			de, _ := AsDecodeError(err)
			assert.Equal(t, tt.column, de.Column)
			assert.Equal(t, 1, de.Width)
		})
	}
}

func TestFieldCursor_UnexpectedMultiByteCharacter(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		column int
		width  int
		found  string
	}{
		{name: "two byte rune", text: "KÜNDE0001", column: 2, width: 2, found: "Ü"},
		{name: "three byte rune", text: "AB€CDEFGHIJ", column: 3, width: 3, found: "€"},
		{name: "invalid utf-8", text: "AB\xffCDEFG", column: 3, width: 1, found: "\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewFieldCursor(NewLine(tt.text), "511").Alnum("kunde", 8)
			require.Error(t, err)

			de, ok := AsDecodeError(err)
			require.True(t, ok)
			assert.Equal(t, CodeUnexpectedCharacter, de.Code)
			assert.Equal(t, tt.column, de.Column)
			assert.Equal(t, tt.width, de.Width)
			assert.Equal(t, tt.found, de.Found)
		})
	}
}

func TestFieldCursor_FillerAnyAcceptsEverything(t *testing.T) {
	c := NewFieldCursor(NewLine("\x01\xffxy"), "")

	next, err := c.Filler("filler", 4, FillerAny)
	require.NoError(t, err)
	assert.NoError(t, next.End())
}

func TestFieldCursor_EndRejectsResidue(t *testing.T) {
	c := NewFieldCursor(NewLine("ABCD"), "519")
	_, next, err := c.Alnum("code", 3)
	require.NoError(t, err)

	err = next.End()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldWidthMismatch))

	de, _ := AsDecodeError(err)
	assert.Equal(t, 4, de.Column)
	assert.Equal(t, "D", de.Found)
}

func TestSplitLines(t *testing.T) {
	lines := splitLines("ab\ncde\n\nf\n")

	require.Len(t, lines, 4)
	assert.Equal(t, Line{Number: 1, Offset: 0, Text: "ab"}, lines[0])
	assert.Equal(t, Line{Number: 2, Offset: 3, Text: "cde"}, lines[1])
	assert.Equal(t, Line{Number: 3, Offset: 7, Text: ""}, lines[2])
	assert.Equal(t, Line{Number: 4, Offset: 8, Text: "f"}, lines[3])

	assert.Empty(t, splitLines(""))
	assert.Len(t, splitLines("no newline"), 1)
}
