package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMainConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "input_dir: "+filepath.Join(dir, "in")+"\n"+
		"output_dir: "+filepath.Join(dir, "out")+"\n"+
		"input_archive_dir: "+filepath.Join(dir, "in_archive")+"\n"+
		"output_archive_dir: "+filepath.Join(dir, "out_archive")+"\n"+
		"profiles_dir: "+filepath.Join(dir, "profiles")+"\n")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, FormatXML, cfg.OutputFormat)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.KeepGoing())
	assert.Equal(t, []string{"*.vda", "*.txt", "*.dat"}, cfg.InputPatterns)
	assert.DirExists(t, filepath.Join(dir, "out"))
	assert.DirExists(t, filepath.Join(dir, "profiles"))
}

func TestLoadMainConfig_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
input_dir = "`+filepath.ToSlash(filepath.Join(dir, "in"))+`"
output_dir = "`+filepath.ToSlash(filepath.Join(dir, "out"))+`"
input_archive_dir = "`+filepath.ToSlash(filepath.Join(dir, "ia"))+`"
output_archive_dir = "`+filepath.ToSlash(filepath.Join(dir, "oa"))+`"
profiles_dir = "`+filepath.ToSlash(filepath.Join(dir, "p"))+`"
output_format = "json"
max_concurrency = 2
continue_on_error = false

[decoder]
filler = "blank"
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, cfg.OutputFormat)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.False(t, cfg.KeepGoing())
	assert.Equal(t, "blank", cfg.Decoder.Filler)
}

func TestLoadMainConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "bad yaml", content: "input_dir: [unclosed"},
		{name: "unknown format", content: "output_format: csv\n"},
		{name: "unknown filler", content: "decoder:\n  filler: strict\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config.yaml", tt.content)
			_, err := LoadMainConfig(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadMainConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "acme.yaml", `
partner_name: ACME Automotive
partner_code: ACME
file_matching_patterns: ["acme_*.vda"]
decoder:
  filler: printable
  filler_overrides:
    "519": blank
  normalize_line_endings: true
output:
  format: json
transformation_rules:
  - field: sachnummer
    actions:
      - type: trim_right
`)
	writeFile(t, dir, "globex.toml", `
partner_name = "Globex"
file_matching_patterns = ["GLX*"]

[output]
format = "xlsx"
file_name_format = "{kunde}_{timestamp}"
`)

	profiles, err := LoadProfiles(dir)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	acme := profiles["ACME"]
	require.NotNil(t, acme)
	assert.True(t, acme.Decoder.NormalizeLineEndings)
	assert.Equal(t, filepath.Join(dir, "acme.yaml"), acme.Source())
	require.Len(t, acme.TransformationRules, 1)

	globex := profiles["globex"]
	require.NotNil(t, globex)
	assert.Equal(t, "globex", globex.PartnerCode)
	assert.Equal(t, FormatXLSX, globex.Output.Format)

	assert.Same(t, acme, MatchProfile(profiles, "/in/acme_2024.vda"))
	assert.Same(t, globex, MatchProfile(profiles, "GLX-17.txt"))
	assert.Nil(t, MatchProfile(profiles, "other.vda"))
}

func TestLoadProfiles_DuplicateCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "partner_code: X\n")
	writeFile(t, dir, "b.yaml", "partner_code: X\n")

	_, err := LoadProfiles(dir)
	assert.Error(t, err)
}

func TestLoadProfiles_MissingDir(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestDecoderSettings_Options(t *testing.T) {
	s := DecoderSettings{
		Filler:          "printable",
		FillerOverrides: map[string]string{"519": "blank", " 515 ": "any"},
	}

	opts, err := s.Options()
	require.NoError(t, err)
	assert.Equal(t, vdaparser.FillerPrintable, opts.Filler)
	assert.Equal(t, vdaparser.FillerBlank, opts.FillerOverrides[vdaparser.Record519])
	assert.Equal(t, vdaparser.FillerAny, opts.FillerOverrides[vdaparser.Record515])

	_, err = DecoderSettings{FillerOverrides: map[string]string{"516": "blank"}}.Options()
	assert.Error(t, err)
	_, err = DecoderSettings{FillerOverrides: map[string]string{"519": "nope"}}.Options()
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	cfg := DefaultMainConfig()

	r := Resolve(cfg, nil)
	assert.Equal(t, "default", r.PartnerCode)
	assert.Equal(t, FormatXML, r.OutputFormat)

	r = Resolve(cfg, &PartnerProfile{
		PartnerCode: "ACME",
		Output:      OutputSettings{Format: FormatJSON},
		Validation:  ValidationSettings{FailOnWarning: true},
	})
	assert.Equal(t, "ACME", r.PartnerCode)
	assert.Equal(t, "ACME", r.PartnerName)
	assert.Equal(t, FormatJSON, r.OutputFormat)
	assert.Equal(t, cfg.FileNameFormat, r.FileNameFormat)
	assert.True(t, r.Validation.FailOnWarning)
}
