package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
)

func cleanVda() *types.Vda {
	return &types.Vda{
		Kunde:      "KUNDE0001",
		Lieferant:  "LIEF00042",
		Sachnummer: "A 123 456 78 90       ",
		Abrufe: []types.Abruf{
			{Date: 240201, Amount: 100},
			{Date: 0, Amount: 0},
			{Date: 999999, Amount: 5000},
			{Date: 240229, Amount: 1},
		},
	}
}

func TestValidate_Clean(t *testing.T) {
	result := Validate(cleanVda())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Zero(t, result.WarningCount)
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*types.Vda)
		opts   ValidationOptions
		want   []string
	}{
		{
			name: "multi schedule",
			modify: func(v *types.Vda) {
				v.AdditionalSchedules = []types.Schedule{{Line: 4}, {Line: 9}}
			},
			want: []string{RuleMultiSchedule},
		},
		{
			name: "multi schedule allowed",
			modify: func(v *types.Vda) {
				v.AdditionalSchedules = []types.Schedule{{Line: 4}}
			},
			opts: ValidationOptions{AllowMultiSchedule: true},
		},
		{
			name: "blank identifiers",
			modify: func(v *types.Vda) {
				v.Kunde = "         "
				v.Sachnummer = ""
			},
			want: []string{RuleBlankIdentifier, RuleBlankIdentifier},
		},
		{
			name: "bad dates",
			modify: func(v *types.Vda) {
				v.Abrufe = append(v.Abrufe,
					types.Abruf{Date: 241301},
					types.Abruf{Date: 230229},
					types.Abruf{Date: 1000000},
				)
			},
			want: []string{RuleAbrufDate, RuleAbrufDate, RuleAbrufDate},
		},
		{
			name: "date check skipped",
			modify: func(v *types.Vda) {
				v.Abrufe = append(v.Abrufe, types.Abruf{Date: 241301})
			},
			opts: ValidationOptions{SkipDateCheck: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := cleanVda()
			tt.modify(v)

			result := NewValidator(tt.opts).Validate(v)
			assert.Equal(t, len(tt.want), len(result.Errors))
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, result.Rules())
			}
			assert.True(t, result.IsValid)
			assert.Equal(t, len(tt.want), result.WarningCount)
		})
	}
}

func TestValidate_WarningsAsErrors(t *testing.T) {
	v := cleanVda()
	v.Lieferant = ""

	result := NewValidator(ValidationOptions{TreatWarningsAsErrors: true}).Validate(v)
	require.Len(t, result.Errors, 1)
	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Equal(t, SeverityError, result.Errors[0].Severity)
	assert.Equal(t, "lieferant", result.Errors[0].Field)
}

func TestValidationError_Error(t *testing.T) {
	e := &ValidationError{
		Severity: SeverityWarning,
		Rule:     RuleAbrufDate,
		Field:    "abrufe.date",
		Value:    "241301",
		Index:    6,
		Message:  "not a valid YYMMDD date",
	}
	assert.Equal(t, "[WARNING] abruf_date field 'abrufe.date' #6: not a valid YYMMDD date (value: '241301')", e.Error())
}

func TestWriteErrorLog(t *testing.T) {
	v := cleanVda()
	v.Kunde = ""
	result := Validate(v)

	path := filepath.Join(t.TempDir(), "acme.validation.log")
	require.NoError(t, WriteErrorLog("acme.vda", result.Errors, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Validation report for acme.vda")
	assert.Contains(t, string(data), "1. [WARNING] blank_identifier field 'kunde'")
}

func TestFormatErrors_Empty(t *testing.T) {
	assert.Equal(t, "No validation findings.\n", FormatErrors(nil))
}
