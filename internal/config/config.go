// =============================================================================
// VDA Delivery Call-Off Decoder - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the partner
// profiles. A partner profile holds the rules for the files of one trading
// partner: which files it applies to, how strictly the decoder treats record
// filler, how the output is named and formatted, and which identifier fields
// are rewritten before rendering.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml or config.toml): Global application settings
//   2. Partner Profiles (profiles/*.yaml, *.yml, *.toml): Per-partner rules
//
// The file format is chosen by extension. YAML is the default.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Output formats understood by the decode command.
const (
	FormatXML  = "xml"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned for delivery call-off files.
	// Default: "./input"
	InputDir string `yaml:"input_dir" toml:"input_dir"`

	// OutputDir receives the rendered documents.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// InputArchiveDir receives input files after successful decoding.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" toml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every rendered document.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir" toml:"output_archive_dir"`

	// ProfilesDir contains the partner profiles.
	// Default: "./profiles"
	ProfilesDir string `yaml:"profiles_dir" toml:"profiles_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is where the structured log is written. "stderr" logs to the
	// terminal only.
	// Default: "./logs/vdadecode.log"
	LogFile string `yaml:"log_file" toml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// LogFormat is "json" or "console".
	// Default: "json"
	LogFormat string `yaml:"log_format" toml:"log_format"`

	// =========================================================================
	// INPUT AND OUTPUT SETTINGS
	// =========================================================================

	// InputPatterns are glob patterns selecting input files in InputDir.
	// Default: ["*.vda", "*.txt", "*.dat"]
	InputPatterns []string `yaml:"input_patterns" toml:"input_patterns"`

	// OutputFormat is the format used when no profile overrides it.
	// Valid values: "xml", "json", "xlsx"
	// Default: "xml"
	OutputFormat string `yaml:"output_format" toml:"output_format"`

	// FileNameFormat defines the output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {partner}   - Partner code of the matching profile
	//   {kunde}     - Customer number from the Satz511
	//   {abruf}     - New call-off number from the Satz512
	//   {name}      - Input file name without extension
	// The extension of the output format is appended when missing.
	// Default: "{partner}_{abruf}_{uuid}"
	FileNameFormat string `yaml:"file_name_format" toml:"file_name_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the number of files decoded in parallel.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" toml:"max_concurrency"`

	// ContinueOnError keeps processing the remaining files after a failure.
	// Default: true (set explicitly to false to stop at the first failure)
	ContinueOnError *bool `yaml:"continue_on_error" toml:"continue_on_error"`

	// ArchiveInput moves successfully decoded inputs to InputArchiveDir.
	// Default: false
	ArchiveInput bool `yaml:"archive_input" toml:"archive_input"`

	// Decoder holds the decoder settings used when no profile matches.
	Decoder DecoderSettings `yaml:"decoder" toml:"decoder"`
}

// KeepGoing reports whether processing continues after a failed file.
func (c *MainConfig) KeepGoing() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// =============================================================================
// PARTNER PROFILE STRUCTURE
// =============================================================================

// PartnerProfile holds the rules for the files of one trading partner.
type PartnerProfile struct {
	// PartnerName is the human-readable partner name used in logs.
	PartnerName string `yaml:"partner_name" toml:"partner_name"`

	// PartnerCode is a short code used in output file names. Profiles are
	// keyed by it; the file name is used when it is empty.
	PartnerCode string `yaml:"partner_code" toml:"partner_code"`

	// FileMatchingPatterns are glob patterns matched against the base name
	// of an input file. The first profile with a matching pattern is used.
	// Example: "daimler_*.vda"
	FileMatchingPatterns []string `yaml:"file_matching_patterns" toml:"file_matching_patterns"`

	// Decoder configures how strictly records are read.
	Decoder DecoderSettings `yaml:"decoder" toml:"decoder"`

	// Output overrides the main output settings for this partner.
	Output OutputSettings `yaml:"output" toml:"output"`

	// TransformationRules rewrite identifier fields of the decoded document
	// before it is validated and rendered.
	TransformationRules []TransformationRule `yaml:"transformation_rules" toml:"transformation_rules"`

	// Validation selects the post-decode checks.
	Validation ValidationSettings `yaml:"validation" toml:"validation"`

	// source is the file the profile was loaded from.
	source string
}

// Source returns the path the profile was loaded from.
func (p *PartnerProfile) Source() string {
	return p.source
}

// =============================================================================
// DECODER SETTINGS STRUCTURE
// =============================================================================

// DecoderSettings configures the record decoder.
type DecoderSettings struct {
	// Filler is the policy for trailing record filler.
	// Valid values: "any", "printable", "blank"
	// Default: "any"
	Filler string `yaml:"filler" toml:"filler"`

	// FillerOverrides sets the filler policy per header code.
	// Example:
	//   filler_overrides:
	//     "519": blank
	FillerOverrides map[string]string `yaml:"filler_overrides" toml:"filler_overrides"`

	// NormalizeLineEndings converts CRLF line endings to LF before decoding.
	// Without it a CRLF file fails with field_width_mismatch on line 1.
	NormalizeLineEndings bool `yaml:"normalize_line_endings" toml:"normalize_line_endings"`
}

// =============================================================================
// OUTPUT SETTINGS STRUCTURE
// =============================================================================

// OutputSettings overrides the output settings of the main configuration.
// Empty fields fall back to the main configuration.
type OutputSettings struct {
	Format         string `yaml:"format" toml:"format"`
	FileNameFormat string `yaml:"file_name_format" toml:"file_name_format"`
}

// =============================================================================
// TRANSFORMATION RULE STRUCTURE
// =============================================================================

// TransformationRule defines the transformations applied to one field.
type TransformationRule struct {
	// Field names the document field to transform.
	// Valid values: "kunde", "lieferant", "werk", "abladestelle",
	// "sachnummer", "mengeneinheit"
	Field string `yaml:"field" toml:"field"`

	// Actions are applied in order.
	Actions []TransformationAction `yaml:"actions" toml:"actions"`
}

// TransformationAction defines a single transformation action.
type TransformationAction struct {
	// Type is the type of transformation to apply.
	// Supported types:
	//   - "trim"                 : Remove leading and trailing spaces
	//   - "trim_left"            : Remove leading spaces, or the characters in Value
	//   - "trim_right"           : Remove trailing spaces (record padding), or the characters in Value
	//   - "uppercase"            : Convert to uppercase
	//   - "lowercase"            : Convert to lowercase
	//   - "prepend_string"       : Add Value to the beginning
	//   - "append_string"        : Add Value to the end
	//   - "pad_zeros_to_length"  : Pad with leading zeros to length Value
	//   - "ensure_length"        : Truncate or zero-pad to length Value
	//   - "replace"              : Replace Find with Value
	//   - "regex_replace"        : Replace matches of the pattern Find with Value
	//   - "remove_leading_zeros" : Strip leading zeros, keeping a single "0"
	//   - "normalize_whitespace" : Collapse runs of whitespace into one space
	//   - "lookup"               : Replace the whole value using LookupTable
	//   - "lookup_with_default"  : Like lookup, Value when there is no entry
	//   - "if_empty_use_default" : Value when the field is blank
	Type string `yaml:"type" toml:"type"`

	// Value is the parameter of the transformation.
	Value string `yaml:"value" toml:"value"`

	// Find is the substring replaced by "replace".
	Find string `yaml:"find,omitempty" toml:"find,omitempty"`

	// LookupTable maps input values to output values for "lookup".
	LookupTable map[string]string `yaml:"lookup_table,omitempty" toml:"lookup_table,omitempty"`
}

// =============================================================================
// VALIDATION SETTINGS STRUCTURE
// =============================================================================

// ValidationSettings selects the post-decode checks. Checks only produce
// warnings unless FailOnWarning is set.
type ValidationSettings struct {
	// Disable turns all checks off.
	Disable bool `yaml:"disable" toml:"disable"`

	// AllowMultiSchedule suppresses the warning for documents with more
	// than one Satz512.
	AllowMultiSchedule bool `yaml:"allow_multi_schedule" toml:"allow_multi_schedule"`

	// SkipDateCheck suppresses the YYMMDD check on call-off dates.
	SkipDateCheck bool `yaml:"skip_date_check" toml:"skip_date_check"`

	// FailOnWarning turns warnings into a failed file.
	FailOnWarning bool `yaml:"fail_on_warning" toml:"fail_on_warning"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: Path to a YAML (.yaml, .yml) or TOML (.toml) file.
//
// RETURNS:
//   - The configuration with defaults applied. Missing directories are
//     created.
//   - An error if the file cannot be read or holds invalid values.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig
	if err := decodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	ApplyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultMainConfig returns a configuration with every default applied.
// It is used when no configuration file exists.
func DefaultMainConfig() *MainConfig {
	var config MainConfig
	ApplyMainConfigDefaults(&config)
	return &config
}

// ApplyMainConfigDefaults sets default values for any unset option.
func ApplyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.ProfilesDir == "" {
		config.ProfilesDir = "./profiles"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/vdadecode.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "json"
	}
	if len(config.InputPatterns) == 0 {
		config.InputPatterns = []string{"*.vda", "*.txt", "*.dat"}
	}
	if config.OutputFormat == "" {
		config.OutputFormat = FormatXML
	}
	if config.FileNameFormat == "" {
		config.FileNameFormat = "{partner}_{abruf}_{uuid}"
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
}

// validateMainConfig checks option values and creates the working
// directories.
func validateMainConfig(config *MainConfig) error {
	if !IsOutputFormat(config.OutputFormat) {
		return fmt.Errorf("unknown output format %q", config.OutputFormat)
	}
	if err := config.Decoder.Validate(); err != nil {
		return fmt.Errorf("decoder: %w", err)
	}

	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.InputArchiveDir,
		config.OutputArchiveDir,
		config.ProfilesDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// IsOutputFormat reports whether the format is supported.
func IsOutputFormat(format string) bool {
	switch format {
	case FormatXML, FormatJSON, FormatXLSX:
		return true
	}
	return false
}

// LoadProfiles loads every partner profile in a directory.
//
// PARAMETERS:
//   - profilesDir: The directory holding *.yaml, *.yml and *.toml profiles.
//
// RETURNS:
//   - The profiles keyed by partner code. A missing directory yields an
//     empty map.
//   - An error if a profile is invalid or two profiles share a code.
func LoadProfiles(profilesDir string) (map[string]*PartnerProfile, error) {
	profiles := make(map[string]*PartnerProfile)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.toml"} {
		matches, err := filepath.Glob(filepath.Join(profilesDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to list profile files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	for _, file := range files {
		profile, err := LoadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := profile.PartnerCode
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		if other, exists := profiles[key]; exists {
			return nil, fmt.Errorf("partner code %q defined in %s and %s", key, other.source, file)
		}
		profiles[key] = profile
	}

	return profiles, nil
}

// LoadProfile loads and validates a single partner profile.
func LoadProfile(filePath string) (*PartnerProfile, error) {
	var profile PartnerProfile
	if err := decodeFile(filePath, &profile); err != nil {
		return nil, err
	}
	profile.source = filePath

	if profile.PartnerCode == "" {
		profile.PartnerCode = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if profile.Output.Format != "" && !IsOutputFormat(profile.Output.Format) {
		return nil, fmt.Errorf("unknown output format %q", profile.Output.Format)
	}
	if err := profile.Decoder.Validate(); err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	for _, pattern := range profile.FileMatchingPatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("bad file pattern %q: %w", pattern, err)
		}
	}

	return &profile, nil
}

// decodeFile reads a YAML or TOML file into v, chosen by extension.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), v); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return nil
}

// =============================================================================
// PROFILE MATCHING
// =============================================================================

// MatchProfile returns the first profile, in partner code order, with a
// pattern matching the base name of the file. It returns nil when no
// profile matches.
func MatchProfile(profiles map[string]*PartnerProfile, filePath string) *PartnerProfile {
	name := filepath.Base(filePath)

	codes := make([]string, 0, len(profiles))
	for code := range profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		profile := profiles[code]
		for _, pattern := range profile.FileMatchingPatterns {
			if ok, _ := filepath.Match(pattern, name); ok {
				return profile
			}
		}
	}
	return nil
}
