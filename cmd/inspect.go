// =============================================================================
// VDA Delivery Call-Off Decoder - Inspect Command
// =============================================================================
//
// The 'inspect' command shows how each line of a file decodes on its own,
// independent of the record order. It is meant for finding out what a
// partner actually sends.
//
// COMMAND USAGE:
//   vdadecode inspect <file>          - one line per record
//   vdadecode inspect <file> --tree   - the segment tree as YAML
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/vda-lieferabruf/internal/config"
	"github.com/ginjaninja78/vda-lieferabruf/internal/converter"
	"github.com/ginjaninja78/vda-lieferabruf/internal/diagnostic"
	"github.com/ginjaninja78/vda-lieferabruf/internal/vdaparser"
)

// inspectTree prints the segment tree instead of the line dump.
var inspectTree bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how every line of a call-off file decodes",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectTree, "tree", false, "Print the decoded segment tree as YAML")
}

func runInspect(cmd *cobra.Command, args []string) error {
	mainConfig, err := loadConfig()
	if err != nil {
		return err
	}
	profiles, err := loadProfiles(mainConfig)
	if err != nil {
		return err
	}
	settings := config.Resolve(mainConfig, config.MatchProfile(profiles, args[0]))

	text, doc, err := checkFile(args[0], settings.Decoder)
	out := cmd.OutOrStdout()

	if inspectTree {
		if err != nil {
			diagnostic.NewReporter(out, !noColor).Error(args[0], text, err)
			return &exitError{code: 1}
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	}

	decoder, derr := converter.NewDecoder(settings.Decoder)
	if derr != nil {
		return fmt.Errorf("invalid decoder settings: %w", derr)
	}
	dumpLines(out, decoder, text)

	if err != nil {
		fmt.Fprintln(out)
		diagnostic.NewReporter(out, !noColor).Error(args[0], text, err)
		return &exitError{code: 1}
	}
	return nil
}

// dumpLines decodes every line on its own and prints the result.
func dumpLines(w io.Writer, decoder *vdaparser.Decoder, text string) {
	for _, line := range vdaparser.Lines(text) {
		record, err := decoder.DecodeRecord(line)
		switch {
		case err != nil:
			fmt.Fprintf(w, "%4d  ERR      %v\n", line.Number, err)
		default:
			fmt.Fprintf(w, "%4d  %-7s  %s\n", line.Number, record.RecordType(), describe(record))
		}
	}
}

// describe summarizes the fields of a record.
func describe(r vdaparser.Record) string {
	switch rec := r.(type) {
	case vdaparser.Satz511:
		return fmt.Sprintf("kunde=%q lieferant=%q", rec.Kunde, rec.Lieferant)
	case vdaparser.Satz512:
		return fmt.Sprintf("werk=%q neu=%d alt=%d sachnummer=%q", rec.WerkKunde, rec.LieferabrufNeu, rec.LieferabrufAlt, rec.SachnummerKunde)
	case vdaparser.Satz513:
		return fmt.Sprintf("abrufe=%v", rec.Abrufe)
	case vdaparser.Satz514:
		return fmt.Sprintf("abrufe=%v", rec.Abrufe)
	default:
		return ""
	}
}
