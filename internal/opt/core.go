// Package opt implements the SSA optimizer pipeline over internal/ir:
// a named pass registry plus the Canonicalization/Simplification/
// Experimental passes themselves (Mem2Reg, GVN, Inliner, Loop Rotation,
// Loop Unroll), grounded on original_source/lib/Opt/*.{h,cc} and
// src/scatha/Opt/{LoopRotate,LoopUnroll}.cc.
//
// The source registers each pass via a static-initializer macro
// (SC_REGISTER_*); this package generalizes that into an explicit
// init()-time Register call per pass file, consulted by name or glob
// through RunPipeline and listed or matched by cmd/scathac's `opt list` and
// `opt match` subcommands.
package opt

import (
	"fmt"
	"sort"

	"github.com/tidwall/match"

	"github.com/cwbudde/go-dws/internal/ir"
)

// Category classifies a pass the way spec.md §4.4 does: Canonicalization
// passes put the IR into a normal form other passes can rely on,
// Simplification passes are profitable but not required for correctness,
// Experimental passes are opt-in only.
type Category int

const (
	Canonicalization Category = iota
	Simplification
	Experimental
)

func (c Category) String() string {
	switch c {
	case Canonicalization:
		return "canonicalization"
	case Simplification:
		return "simplification"
	case Experimental:
		return "experimental"
	default:
		return "unknown"
	}
}

// Flag is a declared pass argument with a default value, enabling
// --help-style introspection of what a pass accepts (SPEC_FULL.md §4).
type Flag struct {
	Name    string
	Default string
}

// Args is the per-invocation argument map a pass reads its Flags from.
type Args map[string]string

// Get returns the flag's value from args, or its declared default if unset.
func (f Flag) Get(args Args) string {
	if v, ok := args[f.Name]; ok {
		return v
	}
	return f.Default
}

// ModulePass runs over an entire module (Inliner, global DCE); FunctionPass
// runs over one function at a time (Mem2Reg, GVN, loop passes). Both report
// whether they modified the IR, per spec.md §4.4 ("return value indicates
// 'any IR modified'").
type ModulePass func(mod *ir.Module, args Args) bool
type FunctionPass func(fn *ir.Function, args Args) bool

// Pass is one registry entry: exactly one of Module/Function is non-nil.
type Pass struct {
	Name     string
	Category Category
	Flags    []Flag
	Module   ModulePass
	Function FunctionPass
}

var registry = map[string]*Pass{}

// Register installs a pass under name, called from each pass file's init()
// the way the source's SC_REGISTER_PASS macro does at static-init time.
func Register(p *Pass) {
	if _, exists := registry[p.Name]; exists {
		panic(fmt.Sprintf("opt: pass %q already registered", p.Name))
	}
	registry[p.Name] = p
}

// Lookup returns the named pass, or nil if no such pass is registered.
func Lookup(name string) *Pass { return registry[name] }

// List returns every registered pass, sorted by name, for `opt list`.
func List() []*Pass {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Pass, len(names))
	for i, n := range names {
		out[i] = registry[n]
	}
	return out
}

// Match expands a glob pattern (e.g. "loop*") against registered pass
// names, for RunPipeline and `cmd/scathac opt match --pattern 'loop*'`.
func Match(pattern string) []*Pass {
	var out []*Pass
	for _, p := range List() {
		if match.Match(p.Name, pattern) {
			out = append(out, p)
		}
	}
	return out
}

// RunPipeline runs every named pass (each may itself be a glob pattern, per
// SPEC_FULL.md §3.5) against mod in order, passing the same args map to
// each. Returns true if any pass modified the IR.
func RunPipeline(mod *ir.Module, names []string, args Args) bool {
	changed := false
	for _, name := range names {
		for _, p := range Match(name) {
			changed = runPass(p, mod, args) || changed
		}
	}
	return changed
}

func runPass(p *Pass, mod *ir.Module, args Args) bool {
	if p.Module != nil {
		return p.Module(mod, args)
	}
	if p.Function == nil {
		return false
	}
	changed := false
	for _, fn := range mod.Functions {
		if fn.IsExtern {
			continue
		}
		changed = p.Function(fn, args) || changed
	}
	return changed
}
