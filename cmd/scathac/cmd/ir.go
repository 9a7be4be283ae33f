package cmd

import (
	"fmt"

	"github.com/cwbudde/go-dws/pkg/scatha"
	"github.com/spf13/cobra"
)

var irOptLevel int
var irProgram string

var irCmd = &cobra.Command{
	Use:   "ir",
	Short: "Print the SSA IR for a built-in demo program",
	RunE:  runIR,
}

func init() {
	rootCmd.AddCommand(irCmd)
	addProgramFlag(irCmd, &irProgram)
	irCmd.Flags().IntVar(&irOptLevel, "opt-level", 1, "optimizer level (0 disables the pipeline)")
}

func runIR(_ *cobra.Command, _ []string) error {
	root, err := resolveProgram(irProgram)
	if err != nil {
		return err
	}
	engine, err := scatha.New(scatha.WithOptLevel(irOptLevel))
	if err != nil {
		return err
	}
	artifact, err := engine.Compile(root)
	if err != nil {
		return err
	}
	for _, fn := range artifact.IR().Functions {
		fmt.Printf("fn %s:\n", fn.Name())
		for _, b := range fn.Blocks {
			fmt.Println(b.String())
		}
	}
	return nil
}
