package jsonwriter

import (
	"bytes"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

func sampleVda() *types.Vda {
	return &types.Vda{
		Kunde:          "KUNDE0001",
		Lieferant:      "LIEF00042",
		LieferabrufNeu: 124,
		Sachnummer:     "A<1>",
		Abrufe:         []types.Abruf{{Date: 240201, Amount: 100}},
	}
}

func TestGenerate_Envelope(t *testing.T) {
	opts := DefaultOptions()
	opts.Source = "acme.vda"
	opts.Partner = "ACME"
	opts.Warnings = []string{"multi_schedule"}

	out, err := Generate(sampleVda(), opts)
	require.NoError(t, err)

	var got struct {
		Source   string    `json:"source"`
		Partner  string    `json:"partner"`
		Document types.Vda `json:"document"`
		Warnings []string  `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "acme.vda", got.Source)
	assert.Equal(t, "ACME", got.Partner)
	assert.Equal(t, *sampleVda(), got.Document)
	assert.Equal(t, []string{"multi_schedule"}, got.Warnings)
	assert.Contains(t, string(out), `"sachnummer": "A<1>"`)
}

func TestGenerate_Compact(t *testing.T) {
	out, err := Generate(sampleVda(), Options{})
	require.NoError(t, err)

	assert.NotContains(t, string(out), "\n  ")
	assert.Contains(t, string(out), `"abrufe":[{"date":240201,"amount":100}]`)
	assert.NotContains(t, string(out), "rueckstandmenge")
	assert.NotContains(t, string(out), "additional_schedules")
}

func TestGenerate_Nil(t *testing.T) {
	_, err := Generate(nil, DefaultOptions())
	assert.Error(t, err)
}

func TestWriteError(t *testing.T) {
	_, decodeErr := vdaparser.Decode("")
	require.Error(t, decodeErr)

	var buf bytes.Buffer
	require.NoError(t, WriteError(&buf, "empty.vda", decodeErr, ""))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "unexpected_end", got["code"])
	assert.Equal(t, "empty.vda", got["source"])
	assert.Equal(t, []any{"511"}, got["expected"])

	buf.Reset()
	require.NoError(t, WriteError(&buf, "", errors.New("disk full"), ""))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "error", got["code"])
	assert.Equal(t, "disk full", got["message"])
}
