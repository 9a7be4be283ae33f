package cmd

import (
	"fmt"
	"os"

	"github.com/cwbudde/go-dws/pkg/scatha"
	"github.com/spf13/cobra"
)

var (
	runOptLevel int
	runProgram  string
	runEntry    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile and execute a built-in demo program on the stack-VM",
	Long: `Compile one of the built-in demo programs through the full pipeline
(analysis, IR generation, optimization, instruction selection, assembly) and
execute the result on the register-windowed stack-VM, printing the entry
function's return register r0.

Examples:
  scathac run --program hello-arithmetic
  scathac run --program loop-sum --opt-level 2`,
	RunE: runProgramCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addProgramFlag(runCmd, &runProgram)
	runCmd.Flags().IntVar(&runOptLevel, "opt-level", 1, "optimizer level (0 disables the pipeline)")
	runCmd.Flags().StringVar(&runEntry, "entry", "", "entry function name (default: main)")
}

func runProgramCmd(_ *cobra.Command, _ []string) error {
	root, err := resolveProgram(runProgram)
	if err != nil {
		return err
	}

	engine, err := scatha.New(scatha.WithOptLevel(runOptLevel), scatha.WithStdout(os.Stdout))
	if err != nil {
		return err
	}

	artifact, err := engine.Compile(root)
	if err != nil {
		if artifact != nil && artifact.Issues() != nil {
			fmt.Fprint(os.Stderr, artifact.Issues().FormatAll(true, nil))
		}
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "running %s (opt-level %d)\n", runProgram, runOptLevel)
	}

	regs, err := engine.Run(artifact, runEntry, nil)
	if err != nil {
		return err
	}

	fmt.Printf("r0 = %d\n", int64(regs[0]))
	return nil
}
