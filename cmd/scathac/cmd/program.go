package cmd

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/pkg/scatha"
	"github.com/spf13/cobra"
)

var programFlags = map[string]scatha.DemoProgram{
	"hello-arithmetic": scatha.DemoHelloArithmetic,
	"short-circuit":    scatha.DemoShortCircuit,
	"loop-sum":         scatha.DemoLoopSum,
	"struct-lifetime":  scatha.DemoStructLifetime,
}

func addProgramFlag(c *cobra.Command, dest *string) {
	c.Flags().StringVar(dest, "program", "hello-arithmetic",
		"built-in demo program: hello-arithmetic, short-circuit, loop-sum, struct-lifetime")
}

func resolveProgram(name string) (*ast.TranslationUnit, error) {
	which, ok := programFlags[name]
	if !ok {
		return nil, fmt.Errorf("unknown --program %q", name)
	}
	return scatha.BuildDemoProgram(which), nil
}
