// =============================================================================
// VDA Delivery Call-Off Decoder - Main Entry Point
// =============================================================================
//
// USAGE:
//   vdadecode decode   - Decode all call-off files in the input directory
//   vdadecode check    - Report decode errors with their position
//   vdadecode inspect  - Show how every line of a file decodes
//   vdadecode version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : decoder, writers, configuration and pipeline
//   - pkg/           : shared file utilities
//   - profiles/      : partner profiles (YAML or TOML)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/vda-lieferabruf/cmd"
)

func main() {
	cmd.Execute()
}
