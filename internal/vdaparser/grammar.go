// =============================================================================
// VDA Delivery Call-Off Decoder - Segment Grammar
// =============================================================================
//
// The document is not a flat list of records. It follows this grammar:
//
//   Document      := Satz511 Satz512 Block513Chain Trailer Satz519
//   Block513Chain := Satz513 (Satz512 Satz513)* AbrufChain
//   AbrufChain    := (Satz514 Segment515?)*
//   Trailer       := Segment515? Satz517Chain? Segment518?
//   Segment515    := Satz515 Satz517Chain?
//   Satz517Chain  := Satz517+ Segment518
//   Segment518    := Satz518 Satz512 Satz513
//
// PRODUCTIONS:
//   A production takes a cursor (an immutable position in the list of lines)
//   and returns its value together with the cursor after it. Because the
//   cursor is a value, a failed attempt needs no undo: the caller simply
//   keeps the cursor it already had.
//
// OPTIONAL AND REPEATED PRODUCTIONS:
//   "?" and "*" treat a header_mismatch raised anywhere inside the attempt as
//   "absent" and continue from the cursor they started with. Any other error
//   propagates. The mismatch is remembered on the cursor so that, should the
//   decode fail later on with another mismatch, the error that reached
//   furthest into the document is the one reported.
//
// RECURSION:
//   Satz517Chain is self-recursive in the format description. It is decoded
//   with a loop, so chains of any depth use constant stack.
//
// =============================================================================

package vdaparser

// =============================================================================
// SEGMENT TREE
// =============================================================================

// Document is the typed segment tree of a decoded document.
type Document struct {
	Head     Satz511
	Schedule Satz512
	Blocks   Block513Chain
	Trailer  Trailer
	End      Satz519
}

// Block513Chain is the first 513, the repeated 512/513 pairs and the 514 chain.
type Block513Chain struct {
	First   Satz513
	Repeats []ScheduleBlock
	Abrufe  []AbrufBlock
}

// ScheduleBlock is a Satz512 followed by its Satz513.
type ScheduleBlock struct {
	Schedule Satz512
	Block    Satz513
}

// AbrufBlock is a Satz514 with an optional 515 segment after it.
type AbrufBlock struct {
	Block   Satz514
	Segment *Segment515
}

// Trailer groups the optional segments in front of the terminator.
type Trailer struct {
	Segment515 *Segment515
	Chain      *Satz517Chain
	Segment518 *Segment518
}

// Segment515 is a Satz515 optionally followed by a 517 chain.
type Segment515 struct {
	Record Satz515
	Chain  *Satz517Chain
}

// Satz517Chain is one or more Satz517 records closed by a 518 segment.
type Satz517Chain struct {
	Records    []Satz517
	Terminator Segment518
}

// Depth returns the number of Satz517 records in the chain.
func (c *Satz517Chain) Depth() int {
	return len(c.Records)
}

// RecordCounts returns the number of records per header code.
func (d *Document) RecordCounts() map[string]int {
	counts := map[string]int{
		Record511.Code(): 1,
		Record512.Code(): 1 + len(d.Blocks.Repeats),
		Record513.Code(): 1 + len(d.Blocks.Repeats),
		Record514.Code(): len(d.Blocks.Abrufe),
		Record519.Code(): 1,
	}
	for _, c := range d.Chains() {
		counts[Record517.Code()] += c.Depth()
	}
	add515 := func(s *Segment515) {
		if s != nil {
			counts[Record515.Code()]++
		}
	}
	for _, b := range d.Blocks.Abrufe {
		add515(b.Segment)
	}
	add515(d.Trailer.Segment515)

	segments518 := len(d.Chains())
	if d.Trailer.Segment518 != nil {
		segments518++
	}
	counts[Record518.Code()] = segments518
	counts[Record512.Code()] += segments518
	counts[Record513.Code()] += segments518

	for code, n := range counts {
		if n == 0 {
			delete(counts, code)
		}
	}
	return counts
}

// Chains returns every 517 chain of the document in document order.
func (d *Document) Chains() []*Satz517Chain {
	var chains []*Satz517Chain
	for _, b := range d.Blocks.Abrufe {
		if b.Segment != nil && b.Segment.Chain != nil {
			chains = append(chains, b.Segment.Chain)
		}
	}
	if s := d.Trailer.Segment515; s != nil && s.Chain != nil {
		chains = append(chains, s.Chain)
	}
	if d.Trailer.Chain != nil {
		chains = append(chains, d.Trailer.Chain)
	}
	return chains
}

// Segment518 is a Satz518 followed by a schedule block.
type Segment518 struct {
	Record   Satz518
	Schedule Satz512
	Block    Satz513
}

// =============================================================================
// CURSOR
// =============================================================================

// cursor is an immutable position in the lines of a document.
type cursor struct {
	lines []Line
	pos   int

	// furthest is the deepest header mismatch recovered from so far.
	furthest *DecodeError
}

func newCursor(lines []Line) cursor {
	return cursor{lines: lines}
}

// atEnd reports whether every line has been consumed.
func (c cursor) atEnd() bool {
	return c.pos >= len(c.lines)
}

// current returns the current line. It must not be called at the end.
func (c cursor) current() Line {
	return c.lines[c.pos]
}

// peek returns the header code of the current line, or "" at the end.
func (c cursor) peek() string {
	if c.atEnd() {
		return ""
	}
	return peekCode(c.current())
}

func (c cursor) advance() cursor {
	c.pos++
	return c
}

// remember records a recovered mismatch if it lies deeper than the one
// already known, merging the expected codes when both share a position.
func (c cursor) remember(err *DecodeError) cursor {
	switch {
	case c.furthest == nil || err.deeper(c.furthest):
		c.furthest = err
	case err.Offset == c.furthest.Offset:
		c.furthest = c.furthest.mergeExpected(err)
	}
	return c
}

// fail finalises an error raised at this cursor. A header mismatch that lies
// before a remembered mismatch is replaced by the remembered one, and merged
// with it when both share a position. Other errors pass through unchanged.
func (c cursor) fail(err error) error {
	de, ok := isHeaderMismatch(err)
	if !ok || c.furthest == nil {
		return err
	}
	switch {
	case c.furthest.deeper(de):
		return c.furthest
	case c.furthest.Offset == de.Offset:
		return de.mergeExpected(c.furthest)
	}
	return err
}

// unexpectedEnd builds the error for a required production at the end.
func (c cursor) unexpectedEnd(expected ...RecordType) *DecodeError {
	codes := make([]string, len(expected))
	for i, t := range expected {
		codes[i] = t.Code()
	}
	de := &DecodeError{Code: CodeUnexpectedEnd, Expected: codes}
	if n := len(c.lines); n > 0 {
		last := c.lines[n-1]
		de.Line = last.Number
		de.Column = len(last.Text) + 1
		de.Offset = last.Offset + len(last.Text)
		de.Width = 1
	}
	return de
}

// =============================================================================
// COMBINATORS
// =============================================================================

// production decodes one grammar rule starting at c.
type production[T any] = func(c cursor) (T, cursor, error)

// optional makes p absent on a header mismatch.
func optional[T any](p production[T]) production[*T] {
	return func(c cursor) (*T, cursor, error) {
		if c.atEnd() {
			return nil, c, nil
		}
		v, next, err := p(c)
		if err != nil {
			if de, ok := isHeaderMismatch(err); ok {
				return nil, c.remember(de), nil
			}
			return nil, c, err
		}
		return &v, next, nil
	}
}

// many applies p greedily until it fails with a header mismatch or the input
// ends. Every successful p consumes at least one line.
func many[T any](p production[T]) production[[]T] {
	return func(c cursor) ([]T, cursor, error) {
		var out []T
		for !c.atEnd() {
			v, next, err := p(c)
			if err != nil {
				if de, ok := isHeaderMismatch(err); ok {
					return out, c.remember(de), nil
				}
				return nil, c, err
			}
			out = append(out, v)
			c = next
		}
		return out, c, nil
	}
}

// record lifts a single-line decoder into a production.
func record[R Record](t RecordType, decode func(Line) (R, error)) production[R] {
	return func(c cursor) (R, cursor, error) {
		var zero R
		if c.atEnd() {
			return zero, c, c.unexpectedEnd(t)
		}
		r, err := decode(c.current())
		if err != nil {
			return zero, c, c.fail(err)
		}
		return r, c.advance(), nil
	}
}

// =============================================================================
// GRAMMAR
// =============================================================================

// grammar binds the productions to the record decoders of a Decoder.
type grammar struct {
	satz511 production[Satz511]
	satz512 production[Satz512]
	satz513 production[Satz513]
	satz514 production[Satz514]
	satz515 production[Satz515]
	satz517 production[Satz517]
	satz518 production[Satz518]
	satz519 production[Satz519]
}

func newGrammar(d *Decoder) *grammar {
	return &grammar{
		satz511: record(Record511, d.Satz511),
		satz512: record(Record512, d.Satz512),
		satz513: record(Record513, d.Satz513),
		satz514: record(Record514, d.Satz514),
		satz515: record(Record515, d.Satz515),
		satz517: record(Record517, d.Satz517),
		satz518: record(Record518, d.Satz518),
		satz519: record(Record519, d.Satz519),
	}
}

// document decodes a complete document and requires the input to end after
// the Satz519.
func (g *grammar) document(c cursor) (*Document, error) {
	var doc Document
	var err error

	if doc.Head, c, err = g.satz511(c); err != nil {
		return nil, err
	}
	if doc.Schedule, c, err = g.satz512(c); err != nil {
		return nil, err
	}
	if doc.Blocks, c, err = g.block513Chain(c); err != nil {
		return nil, err
	}
	if doc.Trailer, c, err = g.trailer(c); err != nil {
		return nil, err
	}
	if doc.End, c, err = g.satz519(c); err != nil {
		return nil, err
	}
	if !c.atEnd() {
		line := c.current()
		found := peekCode(line)
		return nil, &DecodeError{
			Code:     CodeTrailingInput,
			Line:     line.Number,
			Column:   1,
			Offset:   line.Offset,
			Width:    max(len(found), 1),
			Expected: []string{"end of input"},
			Found:    found,
		}
	}
	return &doc, nil
}

// block513Chain := Satz513 (Satz512 Satz513)* AbrufChain
func (g *grammar) block513Chain(c cursor) (Block513Chain, cursor, error) {
	var b Block513Chain
	var err error

	if b.First, c, err = g.satz513(c); err != nil {
		return b, c, err
	}
	if b.Repeats, c, err = many(g.scheduleBlock)(c); err != nil {
		return b, c, err
	}
	if b.Abrufe, c, err = many(g.abrufBlock)(c); err != nil {
		return b, c, err
	}
	return b, c, nil
}

// scheduleBlock := Satz512 Satz513
func (g *grammar) scheduleBlock(c cursor) (ScheduleBlock, cursor, error) {
	var s ScheduleBlock
	var err error

	if s.Schedule, c, err = g.satz512(c); err != nil {
		return s, c, err
	}
	if s.Block, c, err = g.satz513(c); err != nil {
		return s, c, err
	}
	return s, c, nil
}

// abrufBlock := Satz514 Segment515?
func (g *grammar) abrufBlock(c cursor) (AbrufBlock, cursor, error) {
	var a AbrufBlock
	var err error

	if a.Block, c, err = g.satz514(c); err != nil {
		return a, c, err
	}
	if a.Segment, c, err = optional(g.segment515)(c); err != nil {
		return a, c, err
	}
	return a, c, nil
}

// trailer := Segment515? Satz517Chain? Segment518?
func (g *grammar) trailer(c cursor) (Trailer, cursor, error) {
	var t Trailer
	var err error

	if t.Segment515, c, err = optional(g.segment515)(c); err != nil {
		return t, c, err
	}
	if t.Chain, c, err = optional(g.satz517Chain)(c); err != nil {
		return t, c, err
	}
	if t.Segment518, c, err = optional(g.segment518)(c); err != nil {
		return t, c, err
	}
	return t, c, nil
}

// segment515 := Satz515 Satz517Chain?
func (g *grammar) segment515(c cursor) (Segment515, cursor, error) {
	var s Segment515
	var err error

	if s.Record, c, err = g.satz515(c); err != nil {
		return s, c, err
	}
	if s.Chain, c, err = optional(g.satz517Chain)(c); err != nil {
		return s, c, err
	}
	return s, c, nil
}

// satz517Chain := Satz517 (Satz517Chain | Segment518), unrolled into a loop:
// after each 517 the header of the next line picks between another 517 and
// the closing 518 segment.
func (g *grammar) satz517Chain(c cursor) (Satz517Chain, cursor, error) {
	var chain Satz517Chain

	first, c, err := g.satz517(c)
	if err != nil {
		return chain, c, err
	}
	chain.Records = append(chain.Records, first)

	for {
		if c.atEnd() {
			return chain, c, c.unexpectedEnd(Record517, Record518)
		}
		switch c.peek() {
		case Record517.Code():
			var r Satz517
			if r, c, err = g.satz517(c); err != nil {
				return chain, c, err
			}
			chain.Records = append(chain.Records, r)
		case Record518.Code():
			if chain.Terminator, c, err = g.segment518(c); err != nil {
				return chain, c, err
			}
			return chain, c, nil
		default:
			return chain, c, c.fail(headerMismatch(c.current(), Record517, Record518))
		}
	}
}

// segment518 := Satz518 Satz512 Satz513
func (g *grammar) segment518(c cursor) (Segment518, cursor, error) {
	var s Segment518
	var err error

	if s.Record, c, err = g.satz518(c); err != nil {
		return s, c, err
	}
	if s.Schedule, c, err = g.satz512(c); err != nil {
		return s, c, err
	}
	if s.Block, c, err = g.satz513(c); err != nil {
		return s, c, err
	}
	return s, c, nil
}
