// =============================================================================
// VDA Delivery Call-Off Decoder - Check Command
// =============================================================================
//
// The 'check' command decodes files without writing anything and reports the
// first error of each file with its position:
//
//   error[unexpected_character]: satz 512 field "lieferabruf_neu"
//    --> abruf.vda:2:14
//
// It exits with status 1 when any file fails, which makes it usable as a
// gate in front of other tooling.
//
// COMMAND USAGE:
//   vdadecode check <files...> [--json] [--partner CODE]
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/vda-lieferabruf/internal/config"
	"github.com/ginjaninja78/vda-lieferabruf/internal/converter"
	"github.com/ginjaninja78/vda-lieferabruf/internal/diagnostic"
	"github.com/ginjaninja78/vda-lieferabruf/internal/jsonwriter"
	"github.com/ginjaninja78/vda-lieferabruf/internal/validation"
	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

// checkJSON writes failures as JSON objects instead of text reports.
var checkJSON bool

// checkPartner forces a partner profile.
var checkPartner string

var checkCmd = &cobra.Command{
	Use:   "check <files...>",
	Short: "Decode files and report errors with their position",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Report failures as JSON objects")
	checkCmd.Flags().StringVar(&checkPartner, "partner", "", "Partner profile to use for every file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	mainConfig, err := loadConfig()
	if err != nil {
		return err
	}
	profiles, err := loadProfiles(mainConfig)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	reporter := diagnostic.NewReporter(out, !noColor)

	failed := 0
	for _, file := range args {
		profile := config.MatchProfile(profiles, file)
		if checkPartner != "" {
			if profile = profiles[checkPartner]; profile == nil {
				return fmt.Errorf("no partner profile %q in %s", checkPartner, mainConfig.ProfilesDir)
			}
		}
		settings := config.Resolve(mainConfig, profile)

		text, doc, err := checkFile(file, settings.Decoder)
		if err != nil {
			failed++
			if checkJSON {
				err = jsonwriter.WriteError(out, file, err, "")
			} else {
				err = reporter.Error(file, text, err)
			}
			if err != nil {
				return err
			}
			continue
		}

		v := vdaparser.Assemble(doc)
		summary := fmt.Sprintf("%d records, %d abrufe, %d schedule(s)", len(vdaparser.Lines(text)), len(v.Abrufe), 1+len(v.AdditionalSchedules))
		if checkJSON {
			continue
		}
		if err := reporter.OK(filepath.Base(file), summary); err != nil {
			return err
		}

		if settings.Validation.Disable {
			continue
		}
		vr := validation.NewValidator(validation.ValidationOptions{
			AllowMultiSchedule: settings.Validation.AllowMultiSchedule,
			SkipDateCheck:      settings.Validation.SkipDateCheck,
		}).Validate(v)
		for _, w := range vr.Errors {
			fmt.Fprintf(out, "  %s\n", w.Error())
		}
	}

	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

// checkFile reads and decodes one file. The returned text is what the
// decoder saw, so error positions refer to it.
func checkFile(path string, settings config.DecoderSettings) (string, *vdaparser.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read input: %w", err)
	}

	text := converter.Normalize(string(raw), settings)
	decoder, err := converter.NewDecoder(settings)
	if err != nil {
		return text, nil, fmt.Errorf("invalid decoder settings: %w", err)
	}

	doc, err := decoder.Parse(text)
	return text, doc, err
}
