// =============================================================================
// VDA Delivery Call-Off Decoder - Decoder and Document Assembler
// =============================================================================
//
// Entry points of the parser:
//   Decode(text)            - default options, text -> *types.Vda
//   NewDecoder(opts).Decode - same with configured filler policies
//   (*Decoder).Parse        - text -> typed segment tree (*Document)
//   Assemble(doc)           - segment tree -> *types.Vda
//
// CONCURRENCY:
//   A Decoder holds nothing but its options and is never modified after
//   construction. Decode is safe to call from many goroutines at once.
//
// =============================================================================

package vdaparser

import (
	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// Decoder decodes delivery call-off documents.
type Decoder struct {
	opts    Options
	grammar *grammar
}

// NewDecoder creates a Decoder with the given options.
func NewDecoder(opts Options) *Decoder {
	overrides := make(map[RecordType]FillerPolicy, len(opts.FillerOverrides))
	for t, p := range opts.FillerOverrides {
		overrides[t] = p
	}
	opts.FillerOverrides = overrides

	d := &Decoder{opts: opts}
	d.grammar = newGrammar(d)
	return d
}

var defaultDecoder = NewDecoder(Options{})

// Decode decodes a document with the default options.
func Decode(text string) (*types.Vda, error) {
	return defaultDecoder.Decode(text)
}

// Options returns the options the decoder was built with.
func (d *Decoder) Options() Options {
	return d.opts
}

// Decode parses the document and assembles the aggregate.
// No partial aggregate is returned on failure.
func (d *Decoder) Decode(text string) (*types.Vda, error) {
	doc, err := d.Parse(text)
	if err != nil {
		return nil, err
	}
	return Assemble(doc), nil
}

// Parse decodes the document into its segment tree.
func (d *Decoder) Parse(text string) (*Document, error) {
	return d.grammar.document(newCursor(splitLines(text)))
}

// =============================================================================
// DOCUMENT ASSEMBLER
// =============================================================================

// Assemble folds a segment tree into the aggregate document.
//
// The root fields come from the Satz511 and the first Satz512. Every later
// Satz512 is listed in AdditionalSchedules instead of overwriting them. The
// call-offs of every 513 and 514 are appended in document order.
func Assemble(doc *Document) *types.Vda {
	v := &types.Vda{
		Kunde:          doc.Head.Kunde,
		Lieferant:      doc.Head.Lieferant,
		Werk:           doc.Schedule.WerkKunde,
		Abladestelle:   doc.Schedule.Abladestelle,
		LieferabrufAlt: doc.Schedule.LieferabrufAlt,
		LieferabrufNeu: doc.Schedule.LieferabrufNeu,
		Sachnummer:     doc.Schedule.SachnummerKunde,
		Mengeneinheit:  doc.Schedule.Mengeneinheit,
	}
	a := assembler{vda: v}

	a.block513(doc.Blocks.First)
	for _, r := range doc.Blocks.Repeats {
		a.schedule(r.Schedule)
		a.block513(r.Block)
	}
	for _, b := range doc.Blocks.Abrufe {
		a.block514(b.Block)
		a.segment515(b.Segment)
	}

	a.segment515(doc.Trailer.Segment515)
	a.chain(doc.Trailer.Chain)
	a.segment518(doc.Trailer.Segment518)

	if v.Abrufe == nil {
		v.Abrufe = []types.Abruf{}
	}
	return v
}

type assembler struct {
	vda *types.Vda
}

func (a assembler) block513(r Satz513) {
	a.vda.Abrufe = append(a.vda.Abrufe, r.Abrufe[:]...)
}

func (a assembler) block514(r Satz514) {
	a.vda.Abrufe = append(a.vda.Abrufe, r.Abrufe[:]...)
}

func (a assembler) schedule(r Satz512) {
	a.vda.AdditionalSchedules = append(a.vda.AdditionalSchedules, types.Schedule{
		Line:           r.Line,
		Werk:           r.WerkKunde,
		LieferabrufNeu: r.LieferabrufNeu,
		LieferabrufAlt: r.LieferabrufAlt,
		Sachnummer:     r.SachnummerKunde,
		Abladestelle:   r.Abladestelle,
		Mengeneinheit:  r.Mengeneinheit,
	})
}

func (a assembler) segment515(s *Segment515) {
	if s == nil {
		return
	}
	a.chain(s.Chain)
}

func (a assembler) chain(c *Satz517Chain) {
	if c == nil {
		return
	}
	a.segment518(&c.Terminator)
}

func (a assembler) segment518(s *Segment518) {
	if s == nil {
		return
	}
	a.schedule(s.Schedule)
	a.block513(s.Block)
}
