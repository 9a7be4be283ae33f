package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "scathac",
	Short: "Scatha middle-end and stack-VM driver",
	Long: `scathac drives the Scatha compiler's middle/back end: decorated-AST
analysis, SSA IR generation, optimization, instruction selection, assembly,
and execution on the register-windowed stack-VM.

Scatha's own lexer/parser are not part of this driver (the pipeline starts
from a fixture built with internal/ast's Go constructors); select one of
the built-in demo programs with --program to exercise a pipeline stage.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
