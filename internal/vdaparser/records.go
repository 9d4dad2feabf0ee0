// =============================================================================
// VDA Delivery Call-Off Decoder - Record Schema Decoders
// =============================================================================
//
// One decoder per header code. Every record ("Satz") is exactly 128
// characters long and starts with a 5-character header: the 3-digit code
// followed by a 2-digit version.
//
// RECORD LAYOUTS (widths after the header):
//   511  kunde 9, lieferant 9, filler 105
//   512  werk 3, abruf neu 9, datum neu 6, abruf alt 9, datum alt 6,
//        sachnummer kunde 22, sachnummer lieferant 22, bestellnummer 10,
//        abladestelle 5, zeichen kunde 4, mengeneinheit 2, filler 25
//   513  skipped 43, 5 x abruf (date 6, amount 9), filler 5
//   514  8 x abruf, filler 3
//   515, 517, 518, 519  filler 123
//
// A decoder checks the header code before reading anything else. On a
// different code it fails with header_mismatch so that the grammar can try
// another production on the same line.
//
// =============================================================================

package vdaparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// =============================================================================
// RECORD TYPES
// =============================================================================

// RecordLength is the fixed length of every record.
const RecordLength = 128

const (
	codeWidth   = 3
	headerWidth = 5
	abrufWidth  = 15
)

// RecordType identifies a record by its header code.
type RecordType int

const (
	RecordUnknown RecordType = iota
	Record511
	Record512
	Record513
	Record514
	Record515
	Record517
	Record518
	Record519
)

// RecordTypes lists every known record type in header code order.
var RecordTypes = []RecordType{
	Record511, Record512, Record513, Record514,
	Record515, Record517, Record518, Record519,
}

// Code returns the 3-digit header code.
func (t RecordType) Code() string {
	switch t {
	case Record511:
		return "511"
	case Record512:
		return "512"
	case Record513:
		return "513"
	case Record514:
		return "514"
	case Record515:
		return "515"
	case Record517:
		return "517"
	case Record518:
		return "518"
	case Record519:
		return "519"
	default:
		return "???"
	}
}

// String implements fmt.Stringer.
func (t RecordType) String() string {
	return "Satz" + t.Code()
}

// ParseRecordType maps a header code to its record type.
func ParseRecordType(code string) (RecordType, bool) {
	for _, t := range RecordTypes {
		if t.Code() == code {
			return t, true
		}
	}
	return RecordUnknown, false
}

// =============================================================================
// RECORD VALUES
// =============================================================================

// Record is implemented by the Satz types of this package only.
type Record interface {
	RecordType() RecordType
	LineNumber() int
	isRecord()
}

// Header is the common 5-character prefix of every record.
type Header struct {
	Type    RecordType
	Version uint8

	// Line is the 1-based line number the record was decoded from.
	Line int
}

func (h Header) RecordType() RecordType { return h.Type }
func (h Header) LineNumber() int        { return h.Line }
func (h Header) isRecord()              {}

// Satz511 is the root header record.
type Satz511 struct {
	Header
	Kunde     string
	Lieferant string
}

// Satz512 is the delivery schedule header record. Dates, the supplier part
// number, the order number and the customer sign are read but discarded.
type Satz512 struct {
	Header
	WerkKunde       string
	LieferabrufNeu  uint64
	LieferabrufAlt  uint64
	SachnummerKunde string
	Abladestelle    string
	Mengeneinheit   string
}

// Satz513 carries the first five call-offs of a schedule.
type Satz513 struct {
	Header
	Abrufe [5]types.Abruf
}

// Satz514 carries eight further call-offs.
type Satz514 struct {
	Header
	Abrufe [8]types.Abruf
}

// Satz515, Satz517, Satz518 and Satz519 carry no interpreted fields.
type (
	Satz515 struct{ Header }
	Satz517 struct{ Header }
	Satz518 struct{ Header }
	Satz519 struct{ Header }
)

// =============================================================================
// DISPATCH
// =============================================================================

// DecodeRecord decodes a single line with the decoder selected by its header
// code.
func (d *Decoder) DecodeRecord(line Line) (Record, error) {
	t, ok := ParseRecordType(peekCode(line))
	if !ok {
		return nil, headerMismatch(line, RecordTypes...)
	}

	switch t {
	case Record511:
		return asRecord(d.Satz511(line))
	case Record512:
		return asRecord(d.Satz512(line))
	case Record513:
		return asRecord(d.Satz513(line))
	case Record514:
		return asRecord(d.Satz514(line))
	case Record515:
		return asRecord(d.Satz515(line))
	case Record517:
		return asRecord(d.Satz517(line))
	case Record518:
		return asRecord(d.Satz518(line))
	default:
		return asRecord(d.Satz519(line))
	}
}

func asRecord[R Record](r R, err error) (Record, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// =============================================================================
// DECODERS
// =============================================================================

// Satz511 decodes a root header record.
func (d *Decoder) Satz511(line Line) (Satz511, error) {
	h, c, err := readHeader(line, Record511)
	if err != nil {
		return Satz511{}, err
	}
	kunde, c, err := c.Alnum("kunde", 9)
	if err != nil {
		return Satz511{}, err
	}
	lieferant, c, err := c.Alnum("lieferant", 9)
	if err != nil {
		return Satz511{}, err
	}
	if err := d.finish(c, Record511, 105); err != nil {
		return Satz511{}, err
	}
	return Satz511{Header: h, Kunde: kunde, Lieferant: lieferant}, nil
}

// Satz512 decodes a delivery schedule header record.
func (d *Decoder) Satz512(line Line) (Satz512, error) {
	h, c, err := readHeader(line, Record512)
	if err != nil {
		return Satz512{}, err
	}
	r := Satz512{Header: h}

	if r.WerkKunde, c, err = c.Alnum("werk_kunde", 3); err != nil {
		return Satz512{}, err
	}
	if r.LieferabrufNeu, c, err = c.Number("lieferabruf_neu", 9, 32); err != nil {
		return Satz512{}, err
	}
	if _, c, err = c.Number("datum_neu", 6, 32); err != nil {
		return Satz512{}, err
	}
	if r.LieferabrufAlt, c, err = c.Number("lieferabruf_alt", 9, 32); err != nil {
		return Satz512{}, err
	}
	if _, c, err = c.Number("datum_alt", 6, 32); err != nil {
		return Satz512{}, err
	}
	if r.SachnummerKunde, c, err = c.Alnum("sachnummer_kunde", 22); err != nil {
		return Satz512{}, err
	}
	if _, c, err = c.Alnum("sachnummer_lieferant", 22); err != nil {
		return Satz512{}, err
	}
	if _, c, err = c.Number("bestellnummer", 10, 64); err != nil {
		return Satz512{}, err
	}
	if r.Abladestelle, c, err = c.Alnum("abladestelle", 5); err != nil {
		return Satz512{}, err
	}
	if _, c, err = c.Alnum("zeichen_kunde", 4); err != nil {
		return Satz512{}, err
	}
	if r.Mengeneinheit, c, err = c.Alnum("mengeneinheit", 2); err != nil {
		return Satz512{}, err
	}
	if err := d.finish(c, Record512, 25); err != nil {
		return Satz512{}, err
	}
	return r, nil
}

// Satz513 decodes a record with exactly five call-offs.
func (d *Decoder) Satz513(line Line) (Satz513, error) {
	h, c, err := readHeader(line, Record513)
	if err != nil {
		return Satz513{}, err
	}
	if c, err = c.Skip("lieferdaten", 43); err != nil {
		return Satz513{}, err
	}
	r := Satz513{Header: h}
	if c, err = readAbrufe(c, r.Abrufe[:]); err != nil {
		return Satz513{}, err
	}
	if err := d.finish(c, Record513, 5); err != nil {
		return Satz513{}, err
	}
	return r, nil
}

// Satz514 decodes a record with exactly eight call-offs.
func (d *Decoder) Satz514(line Line) (Satz514, error) {
	h, c, err := readHeader(line, Record514)
	if err != nil {
		return Satz514{}, err
	}
	r := Satz514{Header: h}
	if c, err = readAbrufe(c, r.Abrufe[:]); err != nil {
		return Satz514{}, err
	}
	if err := d.finish(c, Record514, 3); err != nil {
		return Satz514{}, err
	}
	return r, nil
}

// Satz515 decodes a filler-only 515 record.
func (d *Decoder) Satz515(line Line) (Satz515, error) {
	h, err := d.bare(line, Record515)
	return Satz515{Header: h}, err
}

// Satz517 decodes a filler-only 517 record.
func (d *Decoder) Satz517(line Line) (Satz517, error) {
	h, err := d.bare(line, Record517)
	return Satz517{Header: h}, err
}

// Satz518 decodes a filler-only 518 record.
func (d *Decoder) Satz518(line Line) (Satz518, error) {
	h, err := d.bare(line, Record518)
	return Satz518{Header: h}, err
}

// Satz519 decodes the terminator record.
func (d *Decoder) Satz519(line Line) (Satz519, error) {
	h, err := d.bare(line, Record519)
	return Satz519{Header: h}, err
}

// =============================================================================
// HELPERS
// =============================================================================

// bare decodes a record that consists of a header and filler only.
func (d *Decoder) bare(line Line, t RecordType) (Header, error) {
	h, c, err := readHeader(line, t)
	if err != nil {
		return Header{}, err
	}
	if err := d.finish(c, t, RecordLength-headerWidth); err != nil {
		return Header{}, err
	}
	return h, nil
}

// finish consumes the trailing filler and requires the line to end there.
func (d *Decoder) finish(c FieldCursor, t RecordType, n int) error {
	c, err := c.Filler("filler", n, d.opts.fillerFor(t))
	if err != nil {
		return err
	}
	return c.End()
}

// readHeader checks the header code and reads the version.
func readHeader(line Line, t RecordType) (Header, FieldCursor, error) {
	c := NewFieldCursor(line, t.Code())
	if peekCode(line) != t.Code() {
		return Header{}, c, headerMismatch(line, t)
	}
	c, _ = c.Skip("satzart", codeWidth)
	version, c, err := c.Number("version", 2, 8)
	if err != nil {
		return Header{}, c, err
	}
	return Header{Type: t, Version: uint8(version), Line: line.Number}, c, nil
}

// readAbrufe fills dst with consecutive call-offs. Running out of line, or
// meeting an all-blank slot, before dst is full is a repeat_count error
// rather than a width or number error.
func readAbrufe(c FieldCursor, dst []types.Abruf) (FieldCursor, error) {
	var err error
	for i := range dst {
		if c.Remaining() < abrufWidth || isBlank(c.line.Text[c.col:c.col+abrufWidth]) {
			return c, &DecodeError{
				Code:     CodeRepeatCountMismatch,
				Line:     c.line.Number,
				Column:   c.col + 1,
				Offset:   c.line.Offset + c.col,
				Width:    max(c.Remaining(), 1),
				Record:   c.record,
				Field:    "abrufe",
				Expected: []string{plural(len(dst), "abruf", "abrufe")},
				Found:    plural(i, "abruf", "abrufe"),
			}
		}
		if dst[i].Date, c, err = c.Number(fmt.Sprintf("abruf[%d].date", i+1), 6, 32); err != nil {
			return c, err
		}
		if dst[i].Amount, c, err = c.Number(fmt.Sprintf("abruf[%d].amount", i+1), 9, 32); err != nil {
			return c, err
		}
	}
	return c, nil
}

func isBlank(s string) bool {
	return strings.Trim(s, " ") == ""
}

// peekCode returns up to the first three characters of a line.
func peekCode(line Line) string {
	if len(line.Text) < codeWidth {
		return line.Text
	}
	return line.Text[:codeWidth]
}

func headerMismatch(line Line, expected ...RecordType) *DecodeError {
	codes := make([]string, len(expected))
	for i, t := range expected {
		codes[i] = t.Code()
	}
	found := peekCode(line)
	return &DecodeError{
		Code:     CodeHeaderMismatch,
		Line:     line.Number,
		Column:   1,
		Offset:   line.Offset,
		Width:    max(len(found), 1),
		Expected: codes,
		Found:    found,
	}
}
