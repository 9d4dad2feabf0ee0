// =============================================================================
// VDA Delivery Call-Off Decoder - Validation Engine
// =============================================================================
//
// This module checks decoded documents for content a planner should look at
// before the call-off is booked. It runs after decoding and never changes the
// decoded document: a document that decodes is structurally valid, the
// checks here only look at the values.
//
// RULES:
//   multi_schedule   - the document carried more than one Satz512; only the
//                      first one is reflected in the header fields
//   blank_identifier - kunde, lieferant or sachnummer is all spaces
//   abruf_date       - a call-off date is not a valid YYMMDD date
//                      (000000 and 999999 are accepted as sentinels)
//
// SEVERITY:
//   Every finding is a warning. With TreatWarningsAsErrors the findings are
//   reported as errors and the document is not valid.
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// Rule names.
const (
	RuleMultiSchedule   = "multi_schedule"
	RuleBlankIdentifier = "blank_identifier"
	RuleAbrufDate       = "abruf_date"
)

// Severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Date sentinels used by senders for "no date" and "open end".
const (
	dateNone    = 0
	dateOpenEnd = 999999
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError is a single finding.
type ValidationError struct {
	// Severity is "warning" or "error".
	Severity string

	// Rule is the rule that produced the finding.
	Rule string

	// Field is the document field the finding is about.
	Field string

	// Value is the offending value.
	Value string

	// Index is the 1-based position of the call-off or schedule, or zero.
	Index int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(e.Severity), e.Rule)
	if e.Field != "" {
		fmt.Fprintf(&b, " field '%s'", e.Field)
	}
	if e.Index > 0 {
		fmt.Fprintf(&b, " #%d", e.Index)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: '%s')", e.Value)
	}
	return b.String()
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the findings for one document.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all findings, warnings included.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

// Rules returns the rule name of every finding, in order.
func (r *ValidationResult) Rules() []string {
	rules := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		rules[i] = e.Rule
	}
	return rules
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions selects the checks.
type ValidationOptions struct {
	// AllowMultiSchedule suppresses the multi_schedule rule.
	AllowMultiSchedule bool

	// SkipDateCheck suppresses the abruf_date rule.
	SkipDateCheck bool

	// TreatWarningsAsErrors reports every finding as an error.
	TreatWarningsAsErrors bool
}

// Validator checks decoded documents.
type Validator struct {
	options ValidationOptions
}

// NewValidator creates a Validator.
func NewValidator(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// Validate checks a document with the default options.
func Validate(v *types.Vda) *ValidationResult {
	return NewValidator(ValidationOptions{}).Validate(v)
}

// Validate runs every enabled rule against the document.
//
// PARAMETERS:
//   - v: The assembled document. It is not modified.
//
// RETURNS:
//   - A ValidationResult with every finding. IsValid is false only when a
//     finding has error severity.
func (val *Validator) Validate(v *types.Vda) *ValidationResult {
	var findings []*ValidationError

	if !val.options.AllowMultiSchedule && v.MultiSchedule() {
		lines := make([]string, len(v.AdditionalSchedules))
		for i, s := range v.AdditionalSchedules {
			lines[i] = fmt.Sprintf("%d", s.Line)
		}
		findings = append(findings, &ValidationError{
			Rule:    RuleMultiSchedule,
			Field:   "lieferabruf_neu",
			Message: fmt.Sprintf("%d further Satz512 ignored for the header fields (lines %s)", len(v.AdditionalSchedules), strings.Join(lines, ", ")),
		})
	}

	identifiers := []struct {
		field string
		value string
	}{
		{"kunde", v.Kunde},
		{"lieferant", v.Lieferant},
		{"sachnummer", v.Sachnummer},
	}
	for _, id := range identifiers {
		if strings.TrimSpace(id.value) == "" {
			findings = append(findings, &ValidationError{
				Rule:    RuleBlankIdentifier,
				Field:   id.field,
				Value:   id.value,
				Message: "identifier is blank",
			})
		}
	}

	if !val.options.SkipDateCheck {
		for i, a := range v.Abrufe {
			if msg := validateDate(a.Date); msg != "" {
				findings = append(findings, &ValidationError{
					Rule:    RuleAbrufDate,
					Field:   "abrufe.date",
					Value:   fmt.Sprintf("%06d", a.Date),
					Index:   i + 1,
					Message: msg,
				})
			}
		}
	}

	result := &ValidationResult{IsValid: true, Errors: findings}
	for _, f := range findings {
		if val.options.TreatWarningsAsErrors {
			f.Severity = SeverityError
			result.ErrorCount++
			result.IsValid = false
		} else {
			f.Severity = SeverityWarning
			result.WarningCount++
		}
	}
	return result
}

// validateDate checks a YYMMDD date. It returns an empty string when the
// date is valid.
func validateDate(date uint64) string {
	if date == dateNone || date == dateOpenEnd {
		return ""
	}
	if date > 999999 {
		return "date has more than 6 digits"
	}

	text := fmt.Sprintf("%06d", date)
	if _, err := time.Parse("060102", text); err != nil {
		return "not a valid YYMMDD date"
	}
	return ""
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation findings.\n"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation completed with %d finding(s):\n\n", len(errors))
	for i, err := range errors {
		fmt.Fprintf(&builder, "%d. %s\n", i+1, err.Error())
	}
	return builder.String()
}

// WriteErrorLog writes the findings of one document to a file.
//
// PARAMETERS:
//   - source: The input file the findings belong to.
//   - errors: The findings to write.
//   - filePath: The path to the log file.
//
// RETURNS:
//   - An error if the file cannot be written.
func WriteErrorLog(source string, errors []*ValidationError, filePath string) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Validation report for %s\n", source)
	fmt.Fprintf(&builder, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
	builder.WriteString(FormatErrors(errors))

	if err := os.WriteFile(filePath, []byte(builder.String()), 0644); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
