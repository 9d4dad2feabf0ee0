package vdaparser

import (
	"fmt"
	"strings"
)

// FillerPolicy decides which characters a filler read accepts.
type FillerPolicy int

const (
	// FillerAny accepts every character.
	FillerAny FillerPolicy = iota
	// FillerPrintable accepts printable ASCII only.
	FillerPrintable
	// FillerBlank accepts spaces only.
	FillerBlank
)

// String returns the configuration name of the policy.
func (p FillerPolicy) String() string {
	switch p {
	case FillerAny:
		return "any"
	case FillerPrintable:
		return "printable"
	case FillerBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// ParseFillerPolicy converts a configuration value into a FillerPolicy.
// The empty string maps to FillerAny.
func ParseFillerPolicy(s string) (FillerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return FillerAny, nil
	case "printable":
		return FillerPrintable, nil
	case "blank", "space", "spaces":
		return FillerBlank, nil
	default:
		return FillerAny, fmt.Errorf("unknown filler policy %q", s)
	}
}

// accepts reports whether the byte is allowed by the policy.
func (p FillerPolicy) accepts(ch byte) bool {
	switch p {
	case FillerBlank:
		return ch == ' '
	case FillerPrintable:
		return isPrintable(ch)
	default:
		return true
	}
}

// Options configures a Decoder. The zero value is ready to use.
type Options struct {
	// Filler is the policy for trailing filler of every record type
	// without an override.
	Filler FillerPolicy

	// FillerOverrides sets the policy per record type.
	FillerOverrides map[RecordType]FillerPolicy
}

// fillerFor returns the filler policy of a record type.
func (o Options) fillerFor(t RecordType) FillerPolicy {
	if p, ok := o.FillerOverrides[t]; ok {
		return p
	}
	return o.Filler
}
