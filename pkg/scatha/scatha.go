// Package scatha is the embeddable compiler+VM engine facade, the target
// analogue of pkg/dwscript's New(options...)/With* functional-options
// engine (pkg/dwscript/integration_test.go: engine, err := New(WithTypeCheck(true))).
// pkg/dwscript's own engine implementation never shipped with the retrieval
// pack (the package holds only its test suite), so this facade is authored
// fresh from that test-implied shape plus the pipeline wiring described for
// SPEC_FULL.md's scatha.New(scatha.WithOptLevel(2), scatha.WithTarget(...)).
//
// Since Scatha's own lexer/parser are out of scope (spec.md §1), Compile
// takes an already-built *ast.TranslationUnit rather than source text: a
// caller builds one by hand with internal/ast's constructors, or obtains one
// from some other front end entirely.
package scatha

import (
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/go-dws/internal/asm"
	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/irgen"
	"github.com/cwbudde/go-dws/internal/isel"
	"github.com/cwbudde/go-dws/internal/issue"
	"github.com/cwbudde/go-dws/internal/mir"
	"github.com/cwbudde/go-dws/internal/opt"
	"github.com/cwbudde/go-dws/internal/sema"
	"github.com/cwbudde/go-dws/internal/svm"
)

// defaultPasses is the pass pipeline run at OptLevel 1, mirroring the
// Canonicalization-then-Simplification ordering spec.md §4.4 describes.
var defaultPasses = []string{"mem2reg", "inline", "gvn"}

// Engine holds compile-time configuration shared across Compile calls,
// mirroring pkg/dwscript's Engine{typeCheck bool, ...} role.
type Engine struct {
	optLevel int
	passes   []string
	target   string
	stdin    io.Reader
	stdout   io.Writer
}

// Option configures an Engine, mirroring pkg/dwscript's WithTypeCheck(bool)
// functional-option pattern.
type Option func(*Engine)

// WithOptLevel sets how aggressively the optimizer pipeline runs: 0 skips
// it entirely, 1 runs defaultPasses, 2+ additionally runs the loop passes
// (loop rotation, loop unrolling).
func WithOptLevel(level int) Option {
	return func(e *Engine) { e.optLevel = level }
}

// WithPasses overrides the pass pipeline RunPipeline is invoked with,
// ignoring optLevel's default selection. Each entry may be a glob pattern
// per internal/opt.Match (e.g. "loop*").
func WithPasses(names []string) Option {
	return func(e *Engine) { e.passes = names }
}

// WithTarget names the ISA the assembler lowers for. Scatha's stack-VM
// backend is the only target implemented, so this is presently advisory
// metadata threaded through to Artifact.Target, reserved for a future
// cross-backend split the way original_source's CodeGen layer separates
// ISel from the target-specific MIR lowering.
func WithTarget(name string) Option {
	return func(e *Engine) { e.target = name }
}

// WithStdin installs the reader the VM's readline builtin consumes from.
func WithStdin(r io.Reader) Option {
	return func(e *Engine) { e.stdin = r }
}

// WithStdout installs the writer the VM's putchar/puti64/putf64/putstr/
// putln/putptr builtins write to.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) { e.stdout = w }
}

// New builds an Engine, mirroring pkg/dwscript's New(opts ...Option) (*Engine, error).
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		optLevel: 1,
		target:   "stack-vm",
		stdin:    os.Stdin,
		stdout:   os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.optLevel < 0 {
		return nil, fmt.Errorf("scatha: negative OptLevel %d", e.optLevel)
	}
	return e, nil
}

// Artifact is the result of compiling one translation unit: every
// intermediate representation the pipeline produced, kept around the way
// pkg/dwscript's Program exposes .AST()/.Symbols() after Compile.
type Artifact struct {
	analysis *sema.AnalysisResult
	irMod    *ir.Module
	mirMod   *mir.Module
	stream   *asm.AssemblyStream
	program  *asm.Program
	issues   *issue.Handler
	target   string
}

// IR returns the SSA module produced by irgen, after any optimizer passes
// the Engine ran.
func (a *Artifact) IR() *ir.Module { return a.irMod }

// MIR returns the machine-level module instruction selection produced.
func (a *Artifact) MIR() *mir.Module { return a.mirMod }

// Assembly returns a textual listing of the lowered assembly stream.
func (a *Artifact) Assembly() string { return asm.Print(a.stream) }

// Program returns the assembled binary (text section + function offsets).
func (a *Artifact) Program() *asm.Program { return a.program }

// Issues returns every diagnostic semantic analysis raised, warnings
// included.
func (a *Artifact) Issues() *issue.Handler { return a.issues }

// Target reports the Engine's configured target name.
func (a *Artifact) Target() string { return a.target }

// Compile runs root through analysis, IR generation, optimization,
// instruction selection, and assembly, mirroring pkg/dwscript's
// Engine.Compile(source) minus the lexing/parsing stage that package folds
// in first (out of scope here per spec.md §1).
func (e *Engine) Compile(root *ast.TranslationUnit) (*Artifact, error) {
	issues := issue.NewHandler()

	result := sema.Analyze(root, issues)
	if issues.HasErrors() {
		return &Artifact{issues: issues, target: e.target}, fmt.Errorf("scatha: semantic analysis failed:\n%s", issues.FormatAll(false, nil))
	}

	irMod := irgen.Lower(root, result)

	if e.optLevel > 0 {
		passes := e.passes
		if passes == nil {
			passes = defaultPasses
			if e.optLevel >= 2 {
				passes = append(append([]string{}, passes...), "looprotate", "loopunroll")
			}
		}
		opt.RunPipeline(irMod, passes, opt.Args{})
	}

	mirMod := isel.Select(irMod)
	stream := asm.Lower(mirMod)
	program, err := asm.Assemble(stream)
	if err != nil {
		return nil, fmt.Errorf("scatha: assembly failed: %w", err)
	}

	return &Artifact{
		analysis: result,
		irMod:    irMod,
		mirMod:   mirMod,
		stream:   stream,
		program:  program,
		issues:   issues,
		target:   e.target,
	}, nil
}

// Run loads artifact's program into a fresh VM and executes its "main"
// function (or the function named by entry, if non-empty), returning the
// callee's return-register window. It mirrors the Execute step
// pkg/dwscript's own Program.Run would have performed had its
// implementation survived the retrieval pack.
func (e *Engine) Run(artifact *Artifact, entry string, args []uint64) ([]uint64, error) {
	vm := svm.New()
	vm.SetIOStreams(e.stdin, e.stdout)
	if err := vm.LoadBinary(artifact.program); err != nil {
		return nil, fmt.Errorf("scatha: load failed: %w", err)
	}

	start, ok := artifact.program.FunctionOffsets["main"]
	if entry != "" {
		start, ok = artifact.program.FunctionOffsets[entry]
	}
	if !ok {
		return nil, fmt.Errorf("scatha: function %q not found in program", entryOrMain(entry))
	}

	return vm.Execute(start, args)
}

func entryOrMain(entry string) string {
	if entry == "" {
		return "main"
	}
	return entry
}
