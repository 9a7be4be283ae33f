package ir

// DominanceInfo computes and answers dominance queries over a Function's
// control-flow graph, grounded on
// original_source/lib/IR/Dominance.{h,cc}'s iterative (Cooper/Harvey/
// Kennedy) algorithm — chosen there and here over the classic Lengauer-Tarjan
// data-flow formulation for simplicity at the CFG sizes a single function
// produces.
type DominanceInfo struct {
	fn      *Function
	idom    map[*BasicBlock]*BasicBlock
	rpo     []*BasicBlock
	rpoIdx  map[*BasicBlock]int
}

// ComputeDominance builds a DominanceInfo for fn. fn's entry block must have
// no predecessors (spec.md §3.3 CFG well-formedness invariant).
func ComputeDominance(fn *Function) *DominanceInfo {
	d := &DominanceInfo{fn: fn, idom: map[*BasicBlock]*BasicBlock{}}
	d.rpo = reversePostorder(fn)
	d.rpoIdx = make(map[*BasicBlock]int, len(d.rpo))
	for i, b := range d.rpo {
		d.rpoIdx[b] = i
	}
	if len(d.rpo) == 0 {
		return d
	}
	entry := d.rpo[0]
	d.idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range d.rpo[1:] {
			var newIdom *BasicBlock
			for _, p := range b.Preds {
				if d.idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
					continue
				}
				newIdom = d.intersect(newIdom, p)
			}
			if newIdom != nil && d.idom[b] != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}
	return d
}

func (d *DominanceInfo) intersect(a, b *BasicBlock) *BasicBlock {
	for a != b {
		for d.rpoIdx[a] > d.rpoIdx[b] {
			a = d.idom[a]
		}
		for d.rpoIdx[b] > d.rpoIdx[a] {
			b = d.idom[b]
		}
	}
	return a
}

// IDom returns b's immediate dominator, or nil for the entry block.
func (d *DominanceInfo) IDom(b *BasicBlock) *BasicBlock {
	if idom := d.idom[b]; idom != b {
		return idom
	}
	return nil
}

// Dominates reports whether a dominates b (every path from entry to b
// passes through a), including the reflexive case a == b.
func (d *DominanceInfo) Dominates(a, b *BasicBlock) bool {
	for cur := b; cur != nil; cur = d.IDom(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

// StrictlyDominates is Dominates without the reflexive case.
func (d *DominanceInfo) StrictlyDominates(a, b *BasicBlock) bool {
	return a != b && d.Dominates(a, b)
}

func reversePostorder(fn *Function) []*BasicBlock {
	entry := fn.Entry()
	if entry == nil {
		return nil
	}
	visited := map[*BasicBlock]bool{}
	var post []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range b.Succs {
			visit(s)
		}
		post = append(post, b)
	}
	visit(entry)
	out := make([]*BasicBlock, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}
