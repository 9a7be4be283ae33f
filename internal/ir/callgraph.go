package ir

// SCCCallGraph is the module's call graph condensed into strongly connected
// components, grounded on original_source/lib/IR/SCCCallGraph.{h,cc}: the
// optimizer's interprocedural passes (inlining order, purity propagation)
// iterate the SCCs in reverse-topological (callee-before-caller) order so a
// callee is always fully processed before its caller.
type SCCCallGraph struct {
	SCCs []*SCC
	// Of maps every Function to the SCC containing it.
	Of map[*Function]*SCC
}

// SCC is one strongly connected component of the call graph: mutually
// (possibly indirectly) recursive functions, or a single non-recursive
// function.
type SCC struct {
	Functions []*Function
}

// IsRecursive reports whether the SCC contains a cycle (either more than
// one function, or a single self-recursive function).
func (s *SCC) IsRecursive() bool {
	if len(s.Functions) > 1 {
		return true
	}
	if len(s.Functions) == 1 {
		for _, inst := range allInstructions(s.Functions[0]) {
			if inst.Op == OpCall && inst.Callee == s.Functions[0] {
				return true
			}
		}
	}
	return false
}

// BuildSCCCallGraph runs Tarjan's algorithm over m's direct-call edges.
// SCCs are returned in reverse-topological order (callees before callers),
// matching the optimizer's bottom-up traversal order (spec.md §3.6: "the
// inliner visits the call graph bottom-up").
func BuildSCCCallGraph(m *Module) *SCCCallGraph {
	t := &tarjan{
		index:   map[*Function]int{},
		lowlink: map[*Function]int{},
		onStack: map[*Function]bool{},
	}
	for _, f := range m.Functions {
		if _, seen := t.index[f]; !seen {
			t.strongconnect(f)
		}
	}

	cg := &SCCCallGraph{Of: map[*Function]*SCC{}}
	// Tarjan's algorithm completes an SCC only after every SCC it calls into,
	// so t.sccs is already in callee-before-caller order.
	for _, fns := range t.sccs {
		scc := &SCC{Functions: fns}
		cg.SCCs = append(cg.SCCs, scc)
		for _, f := range scc.Functions {
			cg.Of[f] = scc
		}
	}
	return cg
}

type tarjan struct {
	counter int
	index   map[*Function]int
	lowlink map[*Function]int
	onStack map[*Function]bool
	stack   []*Function
	sccs    [][]*Function
}

func (t *tarjan) strongconnect(f *Function) {
	t.index[f] = t.counter
	t.lowlink[f] = t.counter
	t.counter++
	t.stack = append(t.stack, f)
	t.onStack[f] = true

	for _, callee := range calleesOf(f) {
		if _, seen := t.index[callee]; !seen {
			t.strongconnect(callee)
			if t.lowlink[callee] < t.lowlink[f] {
				t.lowlink[f] = t.lowlink[callee]
			}
		} else if t.onStack[callee] {
			if t.index[callee] < t.lowlink[f] {
				t.lowlink[f] = t.index[callee]
			}
		}
	}

	if t.lowlink[f] == t.index[f] {
		var scc []*Function
		for {
			n := len(t.stack) - 1
			w := t.stack[n]
			t.stack = t.stack[:n]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == f {
				break
			}
		}
		t.sccs = append(t.sccs, scc)
	}
}

func calleesOf(f *Function) []*Function {
	var out []*Function
	seen := map[*Function]bool{}
	for _, inst := range allInstructions(f) {
		if inst.Op == OpCall && inst.Callee != nil && !seen[inst.Callee] {
			seen[inst.Callee] = true
			out = append(out, inst.Callee)
		}
	}
	return out
}

func allInstructions(f *Function) []*Instruction {
	var out []*Instruction
	for _, b := range f.Blocks {
		out = append(out, b.Instructions...)
	}
	return out
}
