// =============================================================================
// VDA Delivery Call-Off Decoder - Diagnostic Reports
// =============================================================================
//
// This module renders a decode failure as a position-annotated report:
//
//   error[unexpected_character]: satz 512 field "lieferabruf_neu"
//     --> acme.vda:2:9
//      |
//    2 | 51201W01  12x...
//      |         ^^^^^
//      = expected: digit
//      = found:    "12x  "
//
// Colours come from lipgloss. With Color off every style is skipped and the
// report is plain text, which is what goes into log files and CI output.
//
// =============================================================================

package diagnostic

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

// Options controls rendering.
type Options struct {
	// Source is the file name shown in the location line.
	Source string

	// Color enables lipgloss styling.
	Color bool
}

// Color palette
var (
	colorError  = lipgloss.Color("#EF4444") // Red
	colorAccent = lipgloss.Color("#06B6D4") // Cyan
	colorMuted  = lipgloss.Color("#6B7280") // Gray
	colorOK     = lipgloss.Color("#10B981") // Emerald
)

type styles struct {
	title  lipgloss.Style
	gutter lipgloss.Style
	caret  lipgloss.Style
	note   lipgloss.Style
	ok     lipgloss.Style
}

// Reporter renders reports to one writer.
type Reporter struct {
	w      io.Writer
	color  bool
	styles styles
}

// NewReporter creates a Reporter writing to w.
func NewReporter(w io.Writer, color bool) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:     w,
		color: color,
		styles: styles{
			title:  r.NewStyle().Foreground(colorError).Bold(true),
			gutter: r.NewStyle().Foreground(colorAccent),
			caret:  r.NewStyle().Foreground(colorError).Bold(true),
			note:   r.NewStyle().Foreground(colorMuted),
			ok:     r.NewStyle().Foreground(colorOK).Bold(true),
		},
	}
}

func (r *Reporter) paint(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// Error writes the report for err. text is the decoded document, used to
// show the offending line.
func (r *Reporter) Error(source, text string, err error) error {
	_, werr := io.WriteString(r.w, r.format(source, text, err))
	return werr
}

// OK writes a one-line success summary.
func (r *Reporter) OK(source, summary string) error {
	_, err := fmt.Fprintf(r.w, "%s %s: %s\n", r.paint(r.styles.ok, "ok"), source, summary)
	return err
}

// Format returns the report for err as a string.
func Format(text string, err error, opts Options) string {
	var b strings.Builder
	return NewReporter(&b, opts.Color).format(opts.Source, text, err)
}

// =============================================================================
// REPORT LAYOUT
// =============================================================================

func (r *Reporter) format(source, text string, err error) string {
	var b strings.Builder

	de, ok := vdaparser.AsDecodeError(err)
	if !ok {
		fmt.Fprintf(&b, "%s %s\n", r.paint(r.styles.title, "error:"), err)
		return b.String()
	}

	b.WriteString(r.paint(r.styles.title, fmt.Sprintf("error[%s]", de.Code)))
	fmt.Fprintf(&b, ": %s\n", headline(de))

	gutterWidth := len(strconv.Itoa(de.Line))
	indent := strings.Repeat(" ", gutterWidth)
	fmt.Fprintf(&b, "%s%s %s\n", indent, r.paint(r.styles.gutter, "-->"), location(source, de))

	if line, found := sourceLine(text, de.Line); found {
		bar := r.paint(r.styles.gutter, "|")
		fmt.Fprintf(&b, "%s %s\n", indent, bar)
		fmt.Fprintf(&b, "%s %s %s\n", r.paint(r.styles.gutter, strconv.Itoa(de.Line)), bar, line)
		fmt.Fprintf(&b, "%s %s %s%s\n", indent, bar, strings.Repeat(" ", max(de.Column-1, 0)), r.paint(r.styles.caret, strings.Repeat("^", max(de.Width, 1))))
	}

	if len(de.Expected) > 0 {
		fmt.Fprintf(&b, "%s %s\n", indent, r.paint(r.styles.note, "= expected: "+strings.Join(de.Expected, " or ")))
	}
	if de.Line > 0 || de.Found != "" {
		fmt.Fprintf(&b, "%s %s\n", indent, r.paint(r.styles.note, "= found:    "+strconv.Quote(de.Found)))
	}
	if de.Cause != nil {
		fmt.Fprintf(&b, "%s %s\n", indent, r.paint(r.styles.note, "= cause:    "+de.Cause.Error()))
	}

	return b.String()
}

// headline names the record and field being decoded.
func headline(de *vdaparser.DecodeError) string {
	switch {
	case de.Record != "" && de.Field != "":
		return fmt.Sprintf("satz %s field %q", de.Record, de.Field)
	case de.Record != "":
		return "satz " + de.Record
	case de.Line == 0:
		return "document is empty"
	default:
		return "record sequence"
	}
}

func location(source string, de *vdaparser.DecodeError) string {
	if source == "" {
		source = "<input>"
	}
	if de.Line == 0 {
		return source
	}
	return fmt.Sprintf("%s:%d:%d", source, de.Line, de.Column)
}

// sourceLine returns line n (1-based) of text with control characters shown
// as spaces so that the caret stays aligned.
func sourceLine(text string, n int) (string, bool) {
	if n <= 0 {
		return "", false
	}
	lines := strings.Split(text, "\n")
	if n > len(lines) {
		return "", false
	}
	line := strings.TrimRight(lines[n-1], "\r")
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, line), true
}
