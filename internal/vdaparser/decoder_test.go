package vdaparser

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// =============================================================================
// DOCUMENTS THAT DECODE
// =============================================================================

func TestDecode_Minimal(t *testing.T) {
	v, err := Decode(minimalDoc())
	require.NoError(t, err)

	assert.Equal(t, "KUNDE0001", v.Kunde)
	assert.Equal(t, "LIEF00042", v.Lieferant)
	assert.Equal(t, "W01", v.Werk)
	assert.Equal(t, "AB01 ", v.Abladestelle)
	assert.Equal(t, uint64(124), v.LieferabrufNeu)
	assert.Equal(t, uint64(123), v.LieferabrufAlt)
	assert.Equal(t, "A 123 456 78 90       ", v.Sachnummer)
	assert.Equal(t, "ST", v.Mengeneinheit)
	assert.Empty(t, v.Rueckstandmenge)
	assert.Empty(t, v.Sofortbedarf)
	assert.Equal(t, abrufe(240201, 5), v.Abrufe)
	assert.Nil(t, v.AdditionalSchedules)
	assert.False(t, v.MultiSchedule())
}

func TestDecode_WithoutTrailingNewline(t *testing.T) {
	text := strings.TrimSuffix(minimalDoc(), "\n")

	v, err := Decode(text)
	require.NoError(t, err)
	assert.Len(t, v.Abrufe, 5)
}

func TestDecode_RepeatedSchedules(t *testing.T) {
	text := doc(
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 124, 123, "PART-1"),
		rec513(240101),
		rec512("W02", 125, 124, "PART-2"),
		rec513(240201),
		rec512("W03", 126, 125, "PART-3"),
		rec513(240301),
		bare("519"),
	)

	v, err := Decode(text)
	require.NoError(t, err)

	// the first schedule owns the root fields
	assert.Equal(t, "W01", v.Werk)
	assert.Equal(t, uint64(124), v.LieferabrufNeu)

	require.Len(t, v.AdditionalSchedules, 2)
	assert.Equal(t, 4, v.AdditionalSchedules[0].Line)
	assert.Equal(t, "W02", v.AdditionalSchedules[0].Werk)
	assert.Equal(t, 6, v.AdditionalSchedules[1].Line)
	assert.Equal(t, uint64(126), v.AdditionalSchedules[1].LieferabrufNeu)
	assert.True(t, v.MultiSchedule())

	want := append(append(abrufe(240101, 5), abrufe(240201, 5)...), abrufe(240301, 5)...)
	assert.Equal(t, want, v.Abrufe)
}

func TestDecode_AbrufChain(t *testing.T) {
	text := doc(
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 2, 1, "PART"),
		rec513(240101),
		rec514(240201),
		bare("515"),
		rec514(240301),
		bare("519"),
	)

	d := NewDecoder(Options{})
	parsed, err := d.Parse(text)
	require.NoError(t, err)

	require.Len(t, parsed.Blocks.Abrufe, 2)
	assert.NotNil(t, parsed.Blocks.Abrufe[0].Segment)
	assert.Nil(t, parsed.Blocks.Abrufe[1].Segment)
	assert.Nil(t, parsed.Trailer.Segment515)

	v := Assemble(parsed)
	want := append(append(abrufe(240101, 5), abrufe(240201, 8)...), abrufe(240301, 8)...)
	assert.Equal(t, want, v.Abrufe)
}

func chainDoc(depth int) string {
	records := []string{
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 2, 1, "PART"),
		rec513(240101),
		bare("515"),
	}
	for i := 0; i < depth; i++ {
		records = append(records, bare("517"))
	}
	records = append(records,
		bare("518"),
		rec512("W09", 3, 2, "PART"),
		rec513(240901),
		bare("519"),
	)
	return doc(records...)
}

func TestDecode_Satz517Chains(t *testing.T) {
	d := NewDecoder(Options{})

	for _, depth := range []int{1, 2, 50, 10000} {
		parsed, err := d.Parse(chainDoc(depth))
		require.NoError(t, err, "depth %d", depth)

		seg := parsed.Trailer.Segment515
		require.NotNil(t, seg)
		require.NotNil(t, seg.Chain)
		assert.Equal(t, depth, seg.Chain.Depth())
		assert.Nil(t, parsed.Trailer.Chain)
		assert.Nil(t, parsed.Trailer.Segment518)

		v := Assemble(parsed)
		assert.Equal(t, append(abrufe(240101, 5), abrufe(240901, 5)...), v.Abrufe)
		require.Len(t, v.AdditionalSchedules, 1)
		assert.Equal(t, "W09", v.AdditionalSchedules[0].Werk)
	}
}

func TestDecode_515WithoutChain(t *testing.T) {
	parsed, err := NewDecoder(Options{}).Parse(chainDoc(0))
	require.NoError(t, err)

	require.NotNil(t, parsed.Trailer.Segment515)
	assert.Nil(t, parsed.Trailer.Segment515.Chain)
	assert.Nil(t, parsed.Trailer.Chain)
	require.NotNil(t, parsed.Trailer.Segment518)
	assert.Equal(t, "W09", parsed.Trailer.Segment518.Schedule.WerkKunde)
}

func TestDecode_ChainWithout515(t *testing.T) {
	text := doc(
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 2, 1, "PART"),
		rec513(240101),
		bare("517"),
		bare("518"),
		rec512("W09", 3, 2, "PART"),
		rec513(240901),
		bare("519"),
	)

	parsed, err := NewDecoder(Options{}).Parse(text)
	require.NoError(t, err)
	assert.Nil(t, parsed.Trailer.Segment515)
	require.NotNil(t, parsed.Trailer.Chain)
	assert.Equal(t, 1, parsed.Trailer.Chain.Depth())
}

func TestDecode_Concurrent(t *testing.T) {
	d := NewDecoder(Options{Filler: FillerBlank})
	texts := []string{minimalDoc(), chainDoc(3), chainDoc(0)}

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		text := texts[i%len(texts)]
		g.Go(func() error {
			_, err := d.Decode(text)
			return err
		})
	}
	assert.NoError(t, g.Wait())
}

// =============================================================================
// DOCUMENTS THAT FAIL
// =============================================================================

func TestDecode_Errors(t *testing.T) {
	head := []string{
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 2, 1, "PART"),
		rec513(240101),
	}
	with := func(records ...string) string {
		return doc(append(append([]string{}, head...), records...)...)
	}

	tests := []struct {
		name     string
		text     string
		want     error
		line     int
		expected []string
		found    string
	}{
		{
			name:     "empty document",
			text:     "",
			want:     ErrUnexpectedEnd,
			expected: []string{"511"},
		},
		{
			name:     "missing terminator",
			text:     with(),
			want:     ErrUnexpectedEnd,
			line:     3,
			expected: []string{"519"},
		},
		{
			name:     "document starts with 512",
			text:     doc(rec512("W01", 2, 1, "PART"), rec513(240101), bare("519")),
			want:     ErrHeaderMismatch,
			line:     1,
			expected: []string{"511"},
			found:    "512",
		},
		{
			name:     "missing 513",
			text:     doc(rec511("K", "L"), rec512("W01", 2, 1, "PART"), bare("519")),
			want:     ErrHeaderMismatch,
			line:     3,
			expected: []string{"513"},
			found:    "519",
		},
		{
			name:     "trailing input",
			text:     with(bare("519"), bare("519")),
			want:     ErrTrailingInput,
			line:     5,
			expected: []string{"end of input"},
			found:    "519",
		},
		{
			name:     "unknown record in chain",
			text:     with(bare("515"), bare("517"), bare("599")),
			want:     ErrHeaderMismatch,
			line:     6,
			expected: []string{"517", "518"},
			found:    "599",
		},
		{
			name:     "518 without schedule",
			text:     with(bare("518"), rec514(240101), bare("519")),
			want:     ErrHeaderMismatch,
			line:     5,
			expected: []string{"512"},
			found:    "514",
		},
		{
			name:     "repeated schedule without 513",
			text:     with(rec512("W02", 3, 2, "PART"), bare("519")),
			want:     ErrHeaderMismatch,
			line:     5,
			expected: []string{"513"},
			found:    "519",
		},
		{
			name:     "chain runs into end of input",
			text:     with(bare("517"), bare("517")),
			want:     ErrUnexpectedEnd,
			line:     5,
			expected: []string{"517", "518"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Decode(tt.text)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			de, ok := AsDecodeError(err)
			require.True(t, ok)
			assert.Equal(t, tt.line, de.Line)
			assert.ElementsMatch(t, tt.expected, de.Expected)
			assert.Equal(t, tt.found, de.Found)
		})
	}
}

func TestDecode_HardErrorInsideOptional(t *testing.T) {
	text := doc(
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 2, 1, "PART"),
		rec513(240101),
		bare("515"),
		pad("517xx"),
		bare("519"),
	)

	_, err := Decode(text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedCharacter), "got %v", err)

	de, _ := AsDecodeError(err)
	assert.Equal(t, 5, de.Line)
	assert.Equal(t, 4, de.Column)
	assert.Equal(t, "version", de.Field)
}

func TestDecode_ShortSatz514InAbrufChain(t *testing.T) {
	text := doc(
		rec511("KUNDE0001", "LIEF00042"),
		rec512("W01", 2, 1, "PART"),
		rec513(240101),
		pad("51401"+abrufSpan(abrufe(240201, 7))),
		bare("519"),
	)

	_, err := Decode(text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRepeatCountMismatch), "got %v", err)
}

func TestDecode_CRLF(t *testing.T) {
	text := strings.ReplaceAll(minimalDoc(), "\n", "\r\n")

	_, err := Decode(text)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFieldWidthMismatch))

	de, _ := AsDecodeError(err)
	assert.Equal(t, 1, de.Line)
	assert.Equal(t, 129, de.Column)
	assert.Equal(t, "\r", de.Found)
}

func TestDecode_ErrorOffsets(t *testing.T) {
	text := doc(rec511("K", "L"), rec512("W01", 2, 1, "PART"), bare("519"))

	_, err := Decode(text)
	de, ok := AsDecodeError(err)
	require.True(t, ok)
	assert.Equal(t, 2*(RecordLength+1), de.Offset)
	assert.Equal(t, 1, de.Column)
	assert.Equal(t, 3, de.Width)
	assert.Contains(t, de.Error(), "line 3, column 1: header_mismatch")
}

// =============================================================================
// COMBINATORS
// =============================================================================

func TestOptional_LeavesCursorOnMismatch(t *testing.T) {
	g := newGrammar(NewDecoder(Options{}))
	c := newCursor(splitLines(minimalDoc()))

	v, next, err := optional(g.satz512)(c)
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 0, next.pos)
	require.NotNil(t, next.furthest)
	assert.Equal(t, []string{"512"}, next.furthest.Expected)
}

func TestOptional_AtEnd(t *testing.T) {
	g := newGrammar(NewDecoder(Options{}))

	v, next, err := optional(g.satz519)(newCursor(nil))
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.True(t, next.atEnd())
}

func TestMany_StopsOnMismatch(t *testing.T) {
	g := newGrammar(NewDecoder(Options{}))
	lines := splitLines(doc(rec514(240101), rec514(240201), bare("519")))

	got, next, err := many(g.satz514)(newCursor(lines))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.Abruf{Date: 240201, Amount: 100}, got[1].Abrufe[0])
	assert.Equal(t, 2, next.pos)
}

func TestMany_PropagatesHardError(t *testing.T) {
	g := newGrammar(NewDecoder(Options{}))
	lines := splitLines(doc(rec514(240101), rec514(240201)[:100]))

	got, _, err := many(g.satz514)(newCursor(lines))
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrRepeatCountMismatch))
}

func TestDocument_RecordCounts(t *testing.T) {
	doc, err := NewDecoder(Options{}).Parse(chainDoc(3))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{
		"511": 1, "512": 2, "513": 2, "515": 1,
		"517": 3, "518": 1, "519": 1,
	}, doc.RecordCounts())

	chains := doc.Chains()
	require.Len(t, chains, 1)
	assert.Equal(t, 3, chains[0].Depth())

	total := 0
	for _, n := range doc.RecordCounts() {
		total += n
	}
	assert.Equal(t, len(Lines(chainDoc(3))), total)
}
