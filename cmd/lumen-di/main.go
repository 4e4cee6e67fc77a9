// Command lumen-di runs the lumen definite-initialization pass over a SIR
// module and reports its findings. It has no source-level front end: input
// is always a module built through internal/sir's builder API and persisted
// with sir.EncodeModule (internal/samplemodules builds example modules the
// same way, for this repository's own tests and test/golden fixtures),
// since spec.md §6 scopes the core's input to "an IR builder API" rather
// than source text.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lumen-di",
	Short: "Run the lumen definite-initialization pass over SIR modules",
	Long:  "lumen-di checks that every flagged memory object in a SIR module is definitely initialized on every path before use, reporting diagnostics and, when --out is given, writing the rewritten module to that file on success.",
}

func main() {
	rootCmd.Version = "0.1.0"

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostic output (auto|on|off)")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to print")
	rootCmd.PersistentFlags().String("config", "", "path to a .lumen-di.toml config file (default: search cwd and parents)")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		if err != errCheckFailed {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
