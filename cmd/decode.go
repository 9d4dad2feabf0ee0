// =============================================================================
// VDA Delivery Call-Off Decoder - Decode Command
// =============================================================================
//
// This file defines the 'decode' command, the batch entry point. It decodes
// every call-off file in the input directory (or the files given as
// arguments) and writes the rendered documents to the output directory.
//
// COMMAND USAGE:
//   vdadecode decode [files...] [flags]
//
// FLAGS:
//   --format        : Override the output format (xml, json, xlsx)
//   --partner       : Use this partner profile for every file
//   --metrics-file  : Write Prometheus metrics in text format to this file
//   --write-xsd     : Write the XML schema of the output to this file
//
// PROCESSING PIPELINE:
//   1. Load the main configuration and the partner profiles
//   2. Discover the input files
//   3. Match each file to a partner profile
//   4. Decode the files concurrently, at most max_concurrency at a time
//   5. Write the error log, the summary log and the metrics
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/vda-lieferabruf/internal/config"
	"github.com/ginjaninja78/vda-lieferabruf/internal/converter"
	"github.com/ginjaninja78/vda-lieferabruf/internal/metrics"
	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
	"github.com/ginjaninja78/vda-lieferabruf/internal/xmlwriter"
	"github.com/ginjaninja78/vda-lieferabruf/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	// outputFormat overrides the output format of every profile.
	outputFormat string

	// partnerCode forces a partner profile.
	partnerCode string

	// metricsFile is where the metrics are written after the run.
	metricsFile string

	// xsdFile is where the XML schema is written.
	xsdFile string
)

// =============================================================================
// DECODE COMMAND DEFINITION
// =============================================================================

var decodeCmd = &cobra.Command{
	Use:   "decode [files...]",
	Short: "Decode call-off files and write XML, JSON or XLSX documents",
	Long: `The decode command scans the input directory for call-off files, matches
them to a partner profile and decodes them concurrently.

Each file is processed independently; with continue_on_error (the default)
a failing file does not stop the others.

On success:
  - The rendered document is placed in the output directory
  - With archive_input the input is moved to the input archive

On error:
  - The error is written to an error log in the output directory
  - The input file remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVar(&outputFormat, "format", "", "Output format: xml, json or xlsx (overrides profiles)")
	decodeCmd.Flags().StringVar(&partnerCode, "partner", "", "Partner profile to use for every file")
	decodeCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write metrics in Prometheus text format to this file")
	decodeCmd.Flags().StringVar(&xsdFile, "write-xsd", "", "Write the XML schema of the output documents to this file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runDecode(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadConfig()
	if err != nil {
		return err
	}
	if outputFormat != "" && !config.IsOutputFormat(outputFormat) {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	logger := newLogger(mainConfig)
	defer logger.Sync()

	profiles, err := loadProfiles(mainConfig)
	if err != nil {
		return err
	}
	var forced *config.PartnerProfile
	if partnerCode != "" {
		forced = profiles[partnerCode]
		if forced == nil {
			return fmt.Errorf("no partner profile %q in %s", partnerCode, mainConfig.ProfilesDir)
		}
	}

	logger.Info("configuration loaded",
		zap.String("config", cfgFile),
		zap.Int("profiles", len(profiles)),
		zap.Int("max_concurrency", mainConfig.MaxConcurrency),
	)

	if xsdFile != "" {
		if err := os.WriteFile(xsdFile, xmlwriter.GenerateXSD(xmlwriter.DefaultGenerateOptions().RootElement), 0644); err != nil {
			return fmt.Errorf("failed to write XSD: %w", err)
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	files := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	files.ArchiveOnSuccess = mainConfig.ArchiveInput
	if err := files.EnsureDirectories(); err != nil {
		return err
	}

	inputFiles := args
	if len(inputFiles) == 0 {
		inputFiles, err = files.DiscoverInputFiles(mainConfig.InputPatterns)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}
	if len(inputFiles) == 0 {
		fmt.Fprintln(out, "No call-off files found in the input directory.")
		return nil
	}
	logger.Info("discovered input files", zap.Int("files", len(inputFiles)))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Every goroutine writes its own slot of results. Without
	// continue_on_error the first failure cancels the files still waiting.

	m := metrics.New()
	results := make([]converter.Result, len(inputFiles))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(mainConfig.MaxConcurrency)

	for i, file := range inputFiles {
		results[i].FilePath = file
		profile := forced
		if profile == nil {
			profile = config.MatchProfile(profiles, file)
		}

		g.Go(func() error {
			conv := converter.New(file, mainConfig, profile,
				converter.WithLogger(logger),
				converter.WithMetrics(m),
				converter.WithFileManager(files),
				converter.WithOutputFormat(outputFormat),
			)
			results[i] = conv.Run(ctx)
			if results[i].Error != nil && !mainConfig.KeepGoing() {
				return fmt.Errorf("%s: %w", filepath.Base(file), results[i].Error)
			}
			return nil
		})
	}
	runErr := g.Wait()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := summarize(results, startTime)
	for _, r := range results {
		name := filepath.Base(r.FilePath)
		if r.Success {
			fmt.Fprintf(out, "  ✓ %s -> %s (%d abrufe, %d warnings)\n", name, filepath.Base(r.OutputFile), r.Stats.Abrufe, len(r.Warnings))
		} else {
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, r.Error)
		}
	}

	// =========================================================================
	// STEP 5: WRITE LOGS AND METRICS
	// =========================================================================

	if _, err := utils.WriteSummaryLog(summary, mainConfig.OutputDir); err != nil {
		logger.Warn("failed to write summary log", zap.Error(err))
	}
	if logPath, err := utils.WriteErrorLog(errorLogEntries(results), mainConfig.OutputDir); err != nil {
		logger.Warn("failed to write error log", zap.Error(err))
	} else if logPath != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", logPath)
	}
	if metricsFile != "" {
		if err := m.WriteToTextfile(metricsFile); err != nil {
			logger.Warn("failed to write metrics", zap.Error(err))
		}
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	logger.Info("run complete",
		zap.Int("files", summary.TotalFiles),
		zap.Int("failed", summary.FailedFiles),
		zap.Int("abrufe", summary.TotalAbrufe),
	)

	if runErr != nil {
		return runErr
	}
	if summary.FailedFiles > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// summarize builds the run summary. Files that never started because the
// run was cancelled count as failed.
func summarize(results []converter.Result, start time.Time) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		StartTime:  start,
		EndTime:    time.Now(),
		TotalFiles: len(results),
	}

	for _, r := range results {
		if r.Success {
			summary.SuccessfulFiles++
			summary.TotalRecords += r.Stats.TotalRecords()
			summary.TotalAbrufe += r.Stats.Abrufe
			summary.Warnings += len(r.Warnings)
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   r.FilePath,
				OutputFile:  r.OutputFile,
				Partner:     r.Partner,
				Records:     r.Stats.TotalRecords(),
				Abrufe:      r.Stats.Abrufe,
				Warnings:    len(r.Warnings),
				ProcessTime: r.Stats.ProcessingTime,
			})
			continue
		}

		err := r.Error
		if err == nil {
			err = context.Canceled
		}
		summary.FailedFiles++
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    r.FilePath,
			ErrorMessage: err.Error(),
			ErrorCode:    r.ErrorCode(),
		})
	}

	return summary
}

// errorLogEntries converts failed results into error log entries.
func errorLogEntries(results []converter.Result) []utils.ErrorLogEntry {
	var entries []utils.ErrorLogEntry
	for _, r := range results {
		if r.Error == nil {
			continue
		}
		entry := utils.ErrorLogEntry{
			Timestamp: time.Now(),
			FileName:  r.FilePath,
			ErrorCode: r.ErrorCode(),
			Message:   r.Error.Error(),
		}
		if de, ok := vdaparser.AsDecodeError(r.Error); ok {
			entry.Line = de.Line
			entry.Column = de.Column
			entry.Record = de.Record
			entry.Field = de.Field
			entry.Found = de.Found
		}
		entries = append(entries, entry)
	}
	return entries
}
