// =============================================================================
// VDA Delivery Call-Off Decoder - Converter Module
// =============================================================================
//
// This module orchestrates the processing of a single call-off file, from the
// raw bytes to the rendered output document.
//
// CONVERSION PIPELINE:
//   1. Read the input file
//   2. Decode it with the partner's decoder settings
//   3. Apply the partner's transformation rules
//   4. Validate the decoded document
//   5. Render it as XML, JSON or XLSX
//   6. Write the output file
//   7. Archive the processed files
//
// CONCURRENCY:
//   A Converter handles one file. The batch command runs one Converter per
//   goroutine; they share only the logger and the metrics.
//
// =============================================================================

package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/vda-lieferabruf/internal/config"
	"github.com/ginjaninja78/vda-lieferabruf/internal/jsonwriter"
	"github.com/ginjaninja78/vda-lieferabruf/internal/logging"
	"github.com/ginjaninja78/vda-lieferabruf/internal/metrics"
	"github.com/ginjaninja78/vda-lieferabruf/internal/types"
	"github.com/ginjaninja78/vda-lieferabruf/internal/validation"
	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
	"github.com/ginjaninja78/vda-lieferabruf/internal/xlsxwriter"
	"github.com/ginjaninja78/vda-lieferabruf/internal/xmlwriter"
	"github.com/ginjaninja78/vda-lieferabruf/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Partner is the code of the profile that handled the file.
	Partner string

	// OutputFile is the path to the rendered document.
	// This is empty if processing failed.
	OutputFile string

	// ArchivePath is where the input file was moved, if it was archived.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed. Decode failures are
	// *vdaparser.DecodeError values.
	Error error

	// Document is the decoded and transformed document.
	Document *types.Vda

	// Warnings are the findings of the post-decode validation.
	Warnings []*validation.ValidationError

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ErrorCode returns the decode error code of a failed result, "error" for
// other failures and an empty string on success.
func (r Result) ErrorCode() string {
	return errorCode(r.Error)
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := vdaparser.AsDecodeError(err); ok {
		return string(de.Code)
	}
	return "error"
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// Records is the number of records per header code.
	Records map[string]int

	// Abrufe is the number of call-offs in the document.
	Abrufe int

	// ChainDepths lists the length of every Satz517 chain.
	ChainDepths []int

	// DecodeTime is the time spent in the decoder.
	DecodeTime time.Duration

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// TotalRecords returns the number of records in the document.
func (s ProcessingStats) TotalRecords() int {
	total := 0
	for _, n := range s.Records {
		total += n
	}
	return total
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter handles the processing of a single call-off file.
type Converter struct {
	filePath string
	settings config.Resolved
	files    *utils.FileManager
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithMetrics records the outcome in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) { c.metrics = m }
}

// WithFileManager replaces the file manager built from the main configuration.
func WithFileManager(fm *utils.FileManager) Option {
	return func(c *Converter) { c.files = fm }
}

// WithOutputFormat overrides the output format of the profile.
func WithOutputFormat(format string) Option {
	return func(c *Converter) {
		if format != "" {
			c.settings.OutputFormat = format
		}
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a Converter for one file.
//
// PARAMETERS:
//   - filePath: The call-off file to decode.
//   - mainConfig: The global configuration.
//   - profile: The partner profile matched to the file. May be nil, in
//     which case the defaults of the main configuration apply.
//   - opts: Optional logger, metrics, file manager and format override.
//
// RETURNS:
//   - A Converter ready to Run.
func New(filePath string, mainConfig *config.MainConfig, profile *config.PartnerProfile, opts ...Option) *Converter {
	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	fm.ArchiveOnSuccess = mainConfig.ArchiveInput

	c := &Converter{
		filePath: filePath,
		settings: config.Resolve(mainConfig, profile),
		files:    fm,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.ForFile(c.logger, filePath, c.settings.PartnerCode)
	return c
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
//
// PARAMETERS:
//   - ctx: Checked before any work starts; a cancelled run fails without
//     reading the file.
//
// RETURNS:
//   - The Result. Failures are reported in Result.Error, never as a panic
//     or a second return value, so a batch can collect every file.
func (c *Converter) Run(ctx context.Context) Result {
	startTime := time.Now()
	result := Result{
		FilePath: c.filePath,
		Partner:  c.settings.PartnerCode,
	}

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	c.logger.Info("processing file")

	raw, err := os.ReadFile(c.filePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return c.fail(result)
	}

	// =========================================================================
	// STEP 2: DECODE
	// =========================================================================
	// The decoder either returns the whole document or a positioned error.

	text := Normalize(string(raw), c.settings.Decoder)
	decoder, err := NewDecoder(c.settings.Decoder)
	if err != nil {
		result.Error = fmt.Errorf("invalid decoder settings: %w", err)
		return c.fail(result)
	}

	decodeStart := time.Now()
	doc, err := decoder.Parse(text)
	result.Stats.DecodeTime = time.Since(decodeStart)
	if c.metrics != nil {
		c.metrics.ObserveDecode(c.settings.PartnerCode, result.Stats.DecodeTime, err, errorCode(err))
	}
	if err != nil {
		result.Error = err
		return c.fail(result)
	}

	v := vdaparser.Assemble(doc)
	result.Stats.Records = doc.RecordCounts()
	result.Stats.Abrufe = len(v.Abrufe)
	for _, chain := range doc.Chains() {
		result.Stats.ChainDepths = append(result.Stats.ChainDepths, chain.Depth())
	}

	c.logger.Debug("decoded document",
		zap.Int("records", result.Stats.TotalRecords()),
		zap.Int("abrufe", result.Stats.Abrufe),
		zap.Int("schedules", 1+len(v.AdditionalSchedules)),
		zap.Ints("chain_depths", result.Stats.ChainDepths),
		zap.Duration("decode_time", result.Stats.DecodeTime),
	)

	// =========================================================================
	// STEP 3: APPLY TRANSFORMATION RULES
	// =========================================================================

	transformer, err := NewTransformer(c.settings.Rules)
	if err != nil {
		result.Error = fmt.Errorf("invalid transformation rules: %w", err)
		return c.fail(result)
	}
	if err := transformer.TransformDocument(v); err != nil {
		result.Error = fmt.Errorf("failed to apply transformations: %w", err)
		return c.fail(result)
	}
	result.Document = v

	// =========================================================================
	// STEP 4: VALIDATE
	// =========================================================================
	// Findings are warnings unless the profile asks to fail on them.

	if !c.settings.Validation.Disable {
		validator := validation.NewValidator(validation.ValidationOptions{
			AllowMultiSchedule:    c.settings.Validation.AllowMultiSchedule,
			SkipDateCheck:         c.settings.Validation.SkipDateCheck,
			TreatWarningsAsErrors: c.settings.Validation.FailOnWarning,
		})
		vr := validator.Validate(v)
		result.Warnings = vr.Errors

		for _, w := range vr.Errors {
			c.logger.Warn("validation finding",
				zap.String("rule", w.Rule),
				zap.String("field", w.Field),
				zap.String("value", w.Value),
				zap.String("message", w.Message),
			)
		}

		if !vr.IsValid {
			result.Error = fmt.Errorf("validation failed with %d errors", vr.ErrorCount)
			return c.fail(result)
		}
	}

	// =========================================================================
	// STEP 5: RENDER
	// =========================================================================

	output, err := c.render(v, result.Warnings)
	if err != nil {
		result.Error = fmt.Errorf("failed to render %s: %w", c.settings.OutputFormat, err)
		return c.fail(result)
	}

	// =========================================================================
	// STEP 6: WRITE OUTPUT FILE
	// =========================================================================

	outputPath, err := c.writeOutput(v, output)
	if err != nil {
		result.Error = fmt.Errorf("failed to write output: %w", err)
		return c.fail(result)
	}
	result.OutputFile = outputPath
	c.logger.Info("wrote output", zap.String("output", outputPath))

	// =========================================================================
	// STEP 7: ARCHIVE FILES
	// =========================================================================
	// A failed archive does not fail the file; the output is already written.

	if c.files.ArchiveOnSuccess {
		archived, err := c.files.ArchiveInputFile(c.filePath)
		if err != nil {
			c.logger.Warn("failed to archive input", zap.Error(err))
		} else {
			result.ArchivePath = archived
		}
		if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
			c.logger.Warn("failed to archive output", zap.Error(err))
		}
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	if c.metrics != nil {
		rules := make([]string, len(result.Warnings))
		for i, w := range result.Warnings {
			rules[i] = w.Rule
		}
		c.metrics.ObserveDocument(c.settings.PartnerCode, result.Stats.Records, result.Stats.Abrufe, rules)
		for _, depth := range result.Stats.ChainDepths {
			c.metrics.ObserveChain(depth)
		}
	}

	c.logger.Info("processed file", zap.Duration("duration", result.Stats.ProcessingTime))
	return result
}

// fail logs a failed result and stamps its processing time.
func (c *Converter) fail(result Result) Result {
	fields := []zap.Field{zap.Error(result.Error), zap.String("code", result.ErrorCode())}
	if de, ok := vdaparser.AsDecodeError(result.Error); ok {
		fields = append(fields,
			zap.Int("line", de.Line),
			zap.Int("column", de.Column),
			zap.String("record", de.Record),
			zap.String("field", de.Field),
		)
	}
	c.logger.Error("processing failed", fields...)
	return result
}

// =============================================================================
// DECODING HELPERS
// =============================================================================

// Normalize prepares raw input for decoding. CRLF line endings are converted
// only when the settings ask for it.
func Normalize(text string, settings config.DecoderSettings) string {
	if settings.NormalizeLineEndings {
		return strings.ReplaceAll(text, "\r\n", "\n")
	}
	return text
}

// NewDecoder builds a decoder from the settings.
//
// RETURNS:
//   - The decoder.
//   - An error if a filler policy or record override is unknown.
func NewDecoder(settings config.DecoderSettings) (*vdaparser.Decoder, error) {
	opts, err := settings.Options()
	if err != nil {
		return nil, err
	}
	return vdaparser.NewDecoder(opts), nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// render encodes the document in the configured output format.
func (c *Converter) render(v *types.Vda, warnings []*validation.ValidationError) ([]byte, error) {
	switch c.settings.OutputFormat {
	case config.FormatXML:
		opts := xmlwriter.DefaultGenerateOptions()
		opts.RootAttributes["partner"] = c.settings.PartnerCode
		return xmlwriter.GenerateWithOptions(v, opts)

	case config.FormatJSON:
		opts := jsonwriter.DefaultOptions()
		opts.Source = filepath.Base(c.filePath)
		opts.Partner = c.settings.PartnerCode
		for _, w := range warnings {
			opts.Warnings = append(opts.Warnings, w.Error())
		}
		return jsonwriter.Generate(v, opts)

	case config.FormatXLSX:
		var buf bytes.Buffer
		if err := xlsxwriter.Write(&buf, v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown output format %q", c.settings.OutputFormat)
	}
}

// writeOutput writes the rendered document to the output directory.
func (c *Converter) writeOutput(v *types.Vda, data []byte) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(c.filePath), filepath.Ext(c.filePath))
	fileName := utils.GenerateOutputFileName(c.settings.FileNameFormat, "."+c.settings.OutputFormat, map[string]string{
		"partner": c.settings.PartnerCode,
		"kunde":   v.Kunde,
		"abruf":   strconv.FormatUint(v.LieferabrufNeu, 10),
		"name":    stem,
	})

	outputPath := filepath.Join(c.files.OutputDir, fileName)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return outputPath, nil
}
