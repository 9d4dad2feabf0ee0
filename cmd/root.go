// =============================================================================
// VDA Delivery Call-Off Decoder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (vdadecode)
//   ├── decodeCmd  (vdadecode decode)
//   ├── checkCmd   (vdadecode check)
//   ├── inspectCmd (vdadecode inspect)
//   └── versionCmd (vdadecode version)
//
// CONFIGURATION:
//   The root command owns the global flags (--config, --verbose, --no-color)
//   and the helpers that load the configuration and build the logger.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/vda-lieferabruf/internal/config"
	"github.com/ginjaninja78/vda-lieferabruf/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// defaultConfigFile is used when --config is not given. A missing default
// file is not an error; the built-in defaults apply.
const defaultConfigFile = "config.yaml"

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// noColor disables coloured diagnostics.
var noColor bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vdadecode",
	Short: "VDA 4905 delivery call-off decoder",
	Long: `vdadecode reads VDA 4905 delivery call-off files (fixed-width 128 character
records 511 to 519) and converts them into XML, JSON or XLSX documents.

Key Features:
  - Strict record decoding with line and column accurate error reports
  - Partner profiles for filler policies, line endings and field rewrites
  - Post-decode checks for multi-schedule documents and call-off dates
  - Concurrent batch processing with archival and summary logs

Example Usage:
  vdadecode decode                      # Decode all files in the input directory
  vdadecode decode --format json a.vda  # Decode one file to JSON
  vdadecode check abruf.vda             # Report the first error with its position
  vdadecode inspect abruf.vda           # Show how every line decodes`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// exitError ends the process with a status code without printing anything;
// the command has already reported the problem.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		defaultConfigFile,
		"Path to the main configuration file (YAML or TOML)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().BoolVar(
		&noColor,
		"no-color",
		false,
		"Disable coloured output",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration. Without an explicit --config a
// missing config.yaml falls back to the defaults.
func loadConfig() (*config.MainConfig, error) {
	if cfgFile == defaultConfigFile {
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			return config.DefaultMainConfig(), nil
		}
	}

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the batch logger from the configuration. When the log
// file cannot be opened it logs to the terminal instead.
func newLogger(cfg *config.MainConfig) *zap.Logger {
	logger, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: cfg.LogFile,
		Verbose:    verbose,
	})
	if err != nil {
		logger = logging.NewDefault(verbose)
		logger.Warn("falling back to console logging", zap.String("log_file", cfg.LogFile), zap.Error(err))
	}
	return logger
}

// loadProfiles loads the partner profiles named by the configuration.
func loadProfiles(cfg *config.MainConfig) (map[string]*config.PartnerProfile, error) {
	profiles, err := config.LoadProfiles(cfg.ProfilesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner profiles: %w", err)
	}
	return profiles, nil
}
