package cmd

import (
	"fmt"

	"github.com/cwbudde/go-dws/pkg/scatha"
	"github.com/spf13/cobra"
)

var asmOptLevel int
var asmProgram string

var asmCmd = &cobra.Command{
	Use:   "asm",
	Short: "Print the assembled listing for a built-in demo program",
	RunE:  runAsm,
}

func init() {
	rootCmd.AddCommand(asmCmd)
	addProgramFlag(asmCmd, &asmProgram)
	asmCmd.Flags().IntVar(&asmOptLevel, "opt-level", 1, "optimizer level (0 disables the pipeline)")
}

func runAsm(_ *cobra.Command, _ []string) error {
	root, err := resolveProgram(asmProgram)
	if err != nil {
		return err
	}
	engine, err := scatha.New(scatha.WithOptLevel(asmOptLevel))
	if err != nil {
		return err
	}
	artifact, err := engine.Compile(root)
	if err != nil {
		return err
	}
	fmt.Print(artifact.Assembly())
	return nil
}
