package cmd

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/opt"
	"github.com/spf13/cobra"
)

var optCmd = &cobra.Command{
	Use:   "opt",
	Short: "Inspect the registered optimizer passes",
}

var optListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered pass, its category, and its flags",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range opt.List() {
			fmt.Printf("%-16s %s\n", p.Name, p.Category)
			for _, f := range p.Flags {
				fmt.Printf("    --%s (default %q)\n", f.Name, f.Default)
			}
		}
	},
}

var matchPattern string

var optMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "List passes matching a glob pattern",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range opt.Match(matchPattern) {
			fmt.Println(p.Name)
		}
	},
}

func init() {
	rootCmd.AddCommand(optCmd)
	optCmd.AddCommand(optListCmd)
	optCmd.AddCommand(optMatchCmd)
	optMatchCmd.Flags().StringVar(&matchPattern, "pattern", "*", "glob pattern over pass names")
}
