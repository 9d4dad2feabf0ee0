package diagnostic

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

func TestFormat_Plain(t *testing.T) {
	text := "51101KUNDE0001\n51201W0112345A789\n"
	err := &vdaparser.DecodeError{
		Code:     vdaparser.CodeUnexpectedCharacter,
		Line:     2,
		Column:   14,
		Width:    1,
		Record:   "512",
		Field:    "lieferabruf_neu",
		Expected: []string{"digit"},
		Found:    "A",
	}

	got := Format(text, err, Options{Source: "acme.vda"})

	want := strings.Join([]string{
		`error[unexpected_character]: satz 512 field "lieferabruf_neu"`,
		` --> acme.vda:2:14`,
		`  |`,
		`2 | 51201W0112345A789`,
		`  |              ^`,
		`  = expected: digit`,
		`  = found:    "A"`,
		``,
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormat_EmptyDocument(t *testing.T) {
	_, err := vdaparser.Decode("")
	require.Error(t, err)

	got := Format("", err, Options{})
	assert.Contains(t, got, "error[unexpected_end]: document is empty")
	assert.Contains(t, got, "--> <input>\n")
	assert.Contains(t, got, "= expected: 511")
	assert.NotContains(t, got, "|")
}

func TestFormat_ControlCharactersKeepAlignment(t *testing.T) {
	err := &vdaparser.DecodeError{
		Code:   vdaparser.CodeUnexpectedCharacter,
		Line:   1,
		Column: 3,
		Width:  2,
		Found:  "\t",
	}

	got := Format("5\t1\r\n", err, Options{Source: "x"})
	assert.Contains(t, got, "1 | 5 1\n")
	assert.Contains(t, got, "  |   ^^\n")
}

func TestFormat_OtherError(t *testing.T) {
	got := Format("", errors.New("permission denied"), Options{})
	assert.Equal(t, "error: permission denied\n", got)
}

func TestReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	require.NoError(t, r.OK("acme.vda", "5 abrufe"))
	_, err := vdaparser.Decode("")
	require.NoError(t, r.Error("empty.vda", "", err))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "ok acme.vda: 5 abrufe\n"))
	assert.Contains(t, out, "--> empty.vda\n")
}

func TestReporter_ColorKeepsContent(t *testing.T) {
	err := &vdaparser.DecodeError{
		Code:     vdaparser.CodeTrailingInput,
		Line:     5,
		Column:   1,
		Width:    3,
		Expected: []string{"end of input"},
		Found:    "511",
	}

	got := Format("a\nb\nc\nd\n51101\n", err, Options{Source: "f.vda", Color: true})
	assert.Contains(t, got, "trailing_input")
	assert.Contains(t, got, "f.vda:5:1")
	assert.Contains(t, got, "51101")
}
