// =============================================================================
// VDA Delivery Call-Off Decoder - Field Transformations
// =============================================================================
//
// Partners fill the alphanumeric fields of their records differently: some
// left-align, some zero-pad, some use their own plant codes. Partner profiles
// carry transformation rules that rewrite the identifier fields of a decoded
// document before it is validated and rendered.
//
// FIELDS:
//   kunde, lieferant         - from the Satz511
//   werk, abladestelle,
//   sachnummer, mengeneinheit - from the first Satz512, and from every
//                               additional schedule
//
// Numeric fields and call-offs are never transformed.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/vda-lieferabruf/internal/config"
	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

// Action types.
const (
	ActionTrim                = "trim"
	ActionTrimLeft            = "trim_left"
	ActionTrimRight           = "trim_right"
	ActionUppercase           = "uppercase"
	ActionLowercase           = "lowercase"
	ActionPrepend             = "prepend_string"
	ActionAppend              = "append_string"
	ActionPadZeros            = "pad_zeros_to_length"
	ActionEnsureLength        = "ensure_length"
	ActionReplace             = "replace"
	ActionRegexReplace        = "regex_replace"
	ActionRemoveLeadingZeros  = "remove_leading_zeros"
	ActionNormalizeWhitespace = "normalize_whitespace"
	ActionLookup              = "lookup"
	ActionLookupWithDefault   = "lookup_with_default"
	ActionIfEmptyUseDefault   = "if_empty_use_default"
)

var whitespace = regexp.MustCompile(`\s+`)

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies the transformation rules of a partner profile.
type Transformer struct {
	rules []config.TransformationRule
}

// NewTransformer creates a Transformer.
//
// PARAMETERS:
//   - rules: The transformation rules of the partner profile.
//
// RETURNS:
//   - The Transformer.
//   - An error if a rule names an unknown field or action, or an action
//     has an unusable parameter.
func NewTransformer(rules []config.TransformationRule) (*Transformer, error) {
	for _, rule := range rules {
		if _, ok := headerField(&types.Vda{}, rule.Field); !ok {
			return nil, fmt.Errorf("transformation rule for unknown field %q", rule.Field)
		}
		for _, action := range rule.Actions {
			if err := validateAction(action); err != nil {
				return nil, fmt.Errorf("field %s: %w", rule.Field, err)
			}
		}
	}
	return &Transformer{rules: rules}, nil
}

// TransformDocument rewrites the identifier fields of v in place.
func (t *Transformer) TransformDocument(v *types.Vda) error {
	for _, rule := range t.rules {
		if ref, ok := headerField(v, rule.Field); ok {
			if err := t.apply(rule, ref); err != nil {
				return err
			}
		}
		for i := range v.AdditionalSchedules {
			if ref, ok := scheduleField(&v.AdditionalSchedules[i], rule.Field); ok {
				if err := t.apply(rule, ref); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Transform applies the rule for fieldName to a single value.
func (t *Transformer) Transform(fieldName, value string) (string, error) {
	for _, rule := range t.rules {
		if rule.Field != fieldName {
			continue
		}
		if err := t.apply(rule, &value); err != nil {
			return "", err
		}
	}
	return value, nil
}

func (t *Transformer) apply(rule config.TransformationRule, ref *string) error {
	value := *ref
	for _, action := range rule.Actions {
		var err error
		value, err = ApplyTransformation(value, action)
		if err != nil {
			return fmt.Errorf("transformation '%s' on field %s failed: %w", action.Type, rule.Field, err)
		}
	}
	*ref = value
	return nil
}

// headerField returns a pointer to the named root field of v.
func headerField(v *types.Vda, name string) (*string, bool) {
	switch name {
	case "kunde":
		return &v.Kunde, true
	case "lieferant":
		return &v.Lieferant, true
	case "werk":
		return &v.Werk, true
	case "abladestelle":
		return &v.Abladestelle, true
	case "sachnummer":
		return &v.Sachnummer, true
	case "mengeneinheit":
		return &v.Mengeneinheit, true
	}
	return nil, false
}

// scheduleField returns a pointer to the named field of an additional
// schedule. kunde and lieferant only exist on the document.
func scheduleField(s *types.Schedule, name string) (*string, bool) {
	switch name {
	case "werk":
		return &s.Werk, true
	case "abladestelle":
		return &s.Abladestelle, true
	case "sachnummer":
		return &s.Sachnummer, true
	case "mengeneinheit":
		return &s.Mengeneinheit, true
	}
	return nil, false
}

// =============================================================================
// ACTIONS
// =============================================================================

// validateAction rejects unknown types and unusable parameters.
func validateAction(action config.TransformationAction) error {
	switch action.Type {
	case ActionPadZeros, ActionEnsureLength:
		if n, err := strconv.Atoi(action.Value); err != nil || n <= 0 {
			return fmt.Errorf("%s needs a positive length, got %q", action.Type, action.Value)
		}
	case ActionRegexReplace:
		if _, err := regexp.Compile(action.Find); err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
	case ActionTrim, ActionTrimLeft, ActionTrimRight, ActionUppercase, ActionLowercase,
		ActionPrepend, ActionAppend, ActionReplace, ActionRemoveLeadingZeros,
		ActionNormalizeWhitespace, ActionLookup, ActionLookupWithDefault, ActionIfEmptyUseDefault:
	default:
		return fmt.Errorf("unknown transformation type: %s", action.Type)
	}
	return nil
}

// ApplyTransformation applies a single transformation action.
//
// PARAMETERS:
//   - value: The field value to transform.
//   - action: The transformation to apply.
//
// RETURNS:
//   - The transformed value.
//   - An error if the action type is unknown or its parameter is invalid.
func ApplyTransformation(value string, action config.TransformationAction) (string, error) {
	switch action.Type {

	// =========================================================================
	// STRING MANIPULATIONS
	// =========================================================================

	case ActionTrim:
		return strings.TrimSpace(value), nil

	case ActionTrimLeft:
		if action.Value != "" {
			return strings.TrimLeft(value, action.Value), nil
		}
		return strings.TrimLeft(value, " "), nil

	case ActionTrimRight:
		// "A 123 456 78 90       " becomes "A 123 456 78 90"
		if action.Value != "" {
			return strings.TrimRight(value, action.Value), nil
		}
		return strings.TrimRight(value, " "), nil

	case ActionUppercase:
		return strings.ToUpper(value), nil

	case ActionLowercase:
		return strings.ToLower(value), nil

	case ActionPrepend:
		return action.Value + value, nil

	case ActionAppend:
		return value + action.Value, nil

	case ActionReplace:
		if action.Find == "" {
			return value, nil
		}
		return strings.ReplaceAll(value, action.Find, action.Value), nil

	case ActionRegexReplace:
		re, err := regexp.Compile(action.Find)
		if err != nil {
			return "", fmt.Errorf("invalid regex pattern: %w", err)
		}
		return re.ReplaceAllString(value, action.Value), nil

	case ActionNormalizeWhitespace:
		return strings.TrimSpace(whitespace.ReplaceAllString(value, " ")), nil

	// =========================================================================
	// LENGTH AND PADDING
	// =========================================================================

	case ActionPadZeros:
		// "4711" with length 9 becomes "000004711"
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("invalid length %q", action.Value)
		}
		return PadLeft(value, n, '0'), nil

	case ActionEnsureLength:
		n, err := strconv.Atoi(action.Value)
		if err != nil || n <= 0 {
			return "", fmt.Errorf("invalid length %q", action.Value)
		}
		if len(value) > n {
			return value[:n], nil
		}
		return PadLeft(value, n, '0'), nil

	case ActionRemoveLeadingZeros:
		result := strings.TrimLeft(value, "0")
		if result == "" && value != "" {
			return "0", nil
		}
		return result, nil

	// =========================================================================
	// LOOKUPS AND DEFAULTS
	// =========================================================================

	case ActionLookup:
		// Plant codes of the partner mapped to internal codes, e.g. "W01" -> "1000".
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return value, nil

	case ActionLookupWithDefault:
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return action.Value, nil

	case ActionIfEmptyUseDefault:
		if strings.TrimSpace(value) == "" {
			return action.Value, nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation type: %s", action.Type)
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// PadLeft pads a string with a character on the left to reach the target length.
func PadLeft(s string, length int, padChar byte) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-len(s)) + s
}
