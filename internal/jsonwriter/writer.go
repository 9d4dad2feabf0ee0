// Package jsonwriter renders decoded delivery call-offs and decode failures
// as JSON.
package jsonwriter

import (
	"bytes"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

// Options controls the JSON layout.
type Options struct {
	// Indent is the indentation per level. Empty writes compact JSON.
	Indent string

	// Envelope wraps the document with its source metadata.
	Envelope bool
	Source   string
	Partner  string
	Warnings []string
}

// DefaultOptions returns indented output with an envelope.
func DefaultOptions() Options {
	return Options{Indent: "  ", Envelope: true}
}

type envelope struct {
	Source   string     `json:"source,omitempty"`
	Partner  string     `json:"partner,omitempty"`
	Document *types.Vda `json:"document"`
	Warnings []string   `json:"warnings,omitempty"`
}

// Generate renders the document into a byte slice.
func Generate(v *types.Vda, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, v, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders the document to w, followed by a newline.
func Write(w io.Writer, v *types.Vda, opts Options) error {
	if v == nil {
		return fmt.Errorf("no document to write")
	}

	var payload any = v
	if opts.Envelope {
		payload = envelope{
			Source:   opts.Source,
			Partner:  opts.Partner,
			Document: v,
			Warnings: opts.Warnings,
		}
	}
	return encode(w, payload, opts.Indent)
}

// errorPayload is the JSON form of a decode failure.
type errorPayload struct {
	Source   string   `json:"source,omitempty"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Offset   int      `json:"offset"`
	Width    int      `json:"width,omitempty"`
	Record   string   `json:"record,omitempty"`
	Field    string   `json:"field,omitempty"`
	Expected []string `json:"expected,omitempty"`
	Found    string   `json:"found"`
}

// WriteError renders a decode failure. Errors that are not decode errors
// are written with code "error".
func WriteError(w io.Writer, source string, err error, indent string) error {
	p := errorPayload{Source: source, Code: "error", Message: err.Error()}
	if de, ok := vdaparser.AsDecodeError(err); ok {
		p.Code = string(de.Code)
		p.Line = de.Line
		p.Column = de.Column
		p.Offset = de.Offset
		p.Width = de.Width
		p.Record = de.Record
		p.Field = de.Field
		p.Expected = de.Expected
		p.Found = de.Found
	}
	return encode(w, p, indent)
}

func encode(w io.Writer, v any, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}
