package config

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

// Validate checks the filler policies and header codes.
func (s DecoderSettings) Validate() error {
	_, err := s.Options()
	return err
}

// Options converts the settings into decoder options.
func (s DecoderSettings) Options() (vdaparser.Options, error) {
	var opts vdaparser.Options

	policy, err := vdaparser.ParseFillerPolicy(s.Filler)
	if err != nil {
		return opts, err
	}
	opts.Filler = policy

	if len(s.FillerOverrides) > 0 {
		opts.FillerOverrides = make(map[vdaparser.RecordType]vdaparser.FillerPolicy, len(s.FillerOverrides))
	}
	for code, value := range s.FillerOverrides {
		t, ok := vdaparser.ParseRecordType(strings.TrimSpace(code))
		if !ok {
			return opts, fmt.Errorf("filler override for unknown record %q", code)
		}
		p, err := vdaparser.ParseFillerPolicy(value)
		if err != nil {
			return opts, fmt.Errorf("filler override for %s: %w", code, err)
		}
		opts.FillerOverrides[t] = p
	}

	return opts, nil
}

// Resolved merges a profile over the main configuration. The profile may be
// nil.
type Resolved struct {
	PartnerCode    string
	PartnerName    string
	Decoder        DecoderSettings
	OutputFormat   string
	FileNameFormat string
	Rules          []TransformationRule
	Validation     ValidationSettings
}

// Resolve returns the effective settings for a file handled by profile.
func Resolve(main *MainConfig, profile *PartnerProfile) Resolved {
	r := Resolved{
		PartnerCode:    "default",
		PartnerName:    "default",
		Decoder:        main.Decoder,
		OutputFormat:   main.OutputFormat,
		FileNameFormat: main.FileNameFormat,
	}
	if profile == nil {
		return r
	}

	r.PartnerCode = profile.PartnerCode
	r.PartnerName = profile.PartnerName
	if r.PartnerName == "" {
		r.PartnerName = profile.PartnerCode
	}
	r.Decoder = profile.Decoder
	if profile.Output.Format != "" {
		r.OutputFormat = profile.Output.Format
	}
	if profile.Output.FileNameFormat != "" {
		r.FileNameFormat = profile.Output.FileNameFormat
	}
	r.Rules = profile.TransformationRules
	r.Validation = profile.Validation
	return r
}
