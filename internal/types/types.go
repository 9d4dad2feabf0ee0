// =============================================================================
// VDA Delivery Call-Off Decoder - Shared Types
// =============================================================================
//
// This package contains the aggregate document produced by the decoder. It is
// kept separate from the parser so that the writers, the validator and the
// converter can share it without import cycles. Types defined here are used by:
//   - vdaparser (Document Assembler)
//   - converter
//   - validation
//   - jsonwriter, xmlwriter, xlsxwriter
//
// =============================================================================

package types

// =============================================================================
// AGGREGATE DOCUMENT
// =============================================================================

// Vda is the root aggregate of one delivery call-off document.
// Header fields come from the Satz511 and the first Satz512 only.
type Vda struct {
	// Kunde is the customer identifier (9 characters, as found in Satz511).
	Kunde string `json:"kunde" xml:"kunde" yaml:"kunde"`

	// Lieferant is the supplier identifier (9 characters, as found in Satz511).
	Lieferant string `json:"lieferant" xml:"lieferant" yaml:"lieferant"`

	// Werk is the customer plant code from the first Satz512.
	Werk string `json:"werk" xml:"werk" yaml:"werk"`

	// Abladestelle is the unloading point from the first Satz512.
	Abladestelle string `json:"abladestelle" xml:"abladestelle" yaml:"abladestelle"`

	// LieferabrufAlt is the previous call-off counter.
	LieferabrufAlt uint64 `json:"lieferabruf_alt" xml:"lieferabrufAlt" yaml:"lieferabruf_alt"`

	// LieferabrufNeu is the current call-off counter.
	LieferabrufNeu uint64 `json:"lieferabruf_neu" xml:"lieferabrufNeu" yaml:"lieferabruf_neu"`

	// Sachnummer is the customer part number from the first Satz512.
	Sachnummer string `json:"sachnummer" xml:"sachnummer" yaml:"sachnummer"`

	// Mengeneinheit is the unit of measure code.
	Mengeneinheit string `json:"mengeneinheit" xml:"mengeneinheit" yaml:"mengeneinheit"`

	// Rueckstandmenge and Sofortbedarf are not sourced from any record yet.
	Rueckstandmenge string `json:"rueckstandmenge,omitempty" xml:"rueckstandmenge,omitempty" yaml:"rueckstandmenge,omitempty"`
	Sofortbedarf    string `json:"sofortbedarf,omitempty" xml:"sofortbedarf,omitempty" yaml:"sofortbedarf,omitempty"`

	// Abrufe holds every call-off of every 513/514 block, in document order.
	Abrufe []Abruf `json:"abrufe" xml:"abrufe>abruf" yaml:"abrufe"`

	// AdditionalSchedules lists every Satz512 after the first one. Their
	// fields are never merged into the root fields above.
	AdditionalSchedules []Schedule `json:"additional_schedules,omitempty" xml:"additionalSchedules>schedule,omitempty" yaml:"additional_schedules,omitempty"`
}

// MultiSchedule reports whether the document carried more than one Satz512.
func (v *Vda) MultiSchedule() bool {
	return len(v.AdditionalSchedules) > 0
}

// =============================================================================
// LINE ITEMS
// =============================================================================

// Abruf is a single call-off: a date (YYMMDD as an integer) and a quantity.
type Abruf struct {
	Date   uint64 `json:"date" xml:"date,attr" yaml:"date"`
	Amount uint64 `json:"amount" xml:"amount,attr" yaml:"amount"`
}

// Schedule is the header data of a Satz512 that was not merged into the
// root aggregate.
type Schedule struct {
	// Line is the 1-based line number of the Satz512 in the source document.
	Line int `json:"line" xml:"line,attr" yaml:"line"`

	Werk           string `json:"werk" xml:"werk" yaml:"werk"`
	LieferabrufNeu uint64 `json:"lieferabruf_neu" xml:"lieferabrufNeu" yaml:"lieferabruf_neu"`
	LieferabrufAlt uint64 `json:"lieferabruf_alt" xml:"lieferabrufAlt" yaml:"lieferabruf_alt"`
	Sachnummer     string `json:"sachnummer" xml:"sachnummer" yaml:"sachnummer"`
	Abladestelle   string `json:"abladestelle" xml:"abladestelle" yaml:"abladestelle"`
	Mengeneinheit  string `json:"mengeneinheit" xml:"mengeneinheit" yaml:"mengeneinheit"`
}
