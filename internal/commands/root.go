// Package commands wires the templify CLI. Each command builds its
// dependencies from flags and the optional project config file.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagData      string
	flagOutput    string
	flagInclude   []string
	flagExclude   []string
	flagDryRun    bool
	flagKeepGoing bool
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "templify",
	Short: "Render template trees with manual-section merging and injection",
	Long: `templify renders directories of templates against a data dictionary.
Generated files keep hand-written edits inside manual sections, and
injection templates patch generated files without duplicating content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to the generation config (default config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagData, "data", "d", "", "path to the data file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "base directory for generated output")
	rootCmd.PersistentFlags().StringSliceVar(&flagInclude, "include", nil, "template sets to run (name, glob, or regex:pattern)")
	rootCmd.PersistentFlags().StringSliceVar(&flagExclude, "exclude", nil, "template sets to skip (name, glob, or regex:pattern)")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "report what would be written without touching the disk")
	rootCmd.PersistentFlags().BoolVar(&flagKeepGoing, "keep-going", false, "collect every failure instead of stopping at the first")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "print per-file detail")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(initCmd)
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
