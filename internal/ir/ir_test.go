package ir

import "testing"

// buildDiamond constructs entry -> {left, right} -> join, the canonical
// diamond CFG used to exercise dominance and use-list bookkeeping.
func buildDiamond() (*Function, *BasicBlock, *BasicBlock, *BasicBlock, *BasicBlock) {
	fn := NewFunction("f", nil, I32)
	entry := NewBasicBlock("entry")
	left := NewBasicBlock("left")
	right := NewBasicBlock("right")
	join := NewBasicBlock("join")
	fn.AddBlock(entry)
	fn.AddBlock(left)
	fn.AddBlock(right)
	fn.AddBlock(join)

	cond := NewConstantInt(1, I1)
	entry.PushInst(NewCondBranch(cond, left, right))
	left.PushInst(NewBranch(join))
	right.PushInst(NewBranch(join))
	join.PushInst(NewReturn(nil))

	return fn, entry, left, right, join
}

func TestPushInstMaintainsSuccPred(t *testing.T) {
	_, entry, left, right, join := buildDiamond()

	if len(entry.Succs) != 2 {
		t.Fatalf("len(entry.Succs) = %d, want 2", len(entry.Succs))
	}
	if len(join.Preds) != 2 {
		t.Fatalf("len(join.Preds) = %d, want 2", len(join.Preds))
	}
	if left.Succs[0] != join || right.Succs[0] != join {
		t.Fatalf("left/right should both branch to join")
	}
}

func TestDominanceOnDiamond(t *testing.T) {
	fn, entry, left, right, join := buildDiamond()
	dom := ComputeDominance(fn)

	if !dom.Dominates(entry, join) {
		t.Error("entry should dominate join")
	}
	if dom.Dominates(left, join) {
		t.Error("left should not dominate join (right is an alternate path)")
	}
	if dom.IDom(join) != entry {
		t.Errorf("IDom(join) = %v, want entry", dom.IDom(join))
	}
	if dom.IDom(left) != entry || dom.IDom(right) != entry {
		t.Error("IDom(left)/IDom(right) should be entry")
	}
}

func TestReplaceAllUsesWithUpdatesUserLists(t *testing.T) {
	fn := NewFunction("f", nil, I32)
	entry := NewBasicBlock("entry")
	fn.AddBlock(entry)

	a := NewConstantInt(1, I32)
	b := NewConstantInt(2, I32)
	add := NewBinary(OpAdd, "sum", a, b, I32)
	entry.PushInst(add)
	use := NewReturn(add)
	entry.PushInst(use)

	if len(add.Users()) != 1 {
		t.Fatalf("len(add.Users()) = %d, want 1", len(add.Users()))
	}

	repl := NewConstantInt(3, I32)
	ReplaceAllUsesWith(add, repl)

	if len(add.Users()) != 0 {
		t.Errorf("add should have no users after replacement")
	}
	if use.Operands[0] != Value(repl) {
		t.Errorf("use.Operands[0] = %v, want repl", use.Operands[0])
	}
	if len(repl.Users()) != 1 {
		t.Errorf("repl should have gained one user")
	}
}

func TestBuildLoopNestingForestFindsSingleLoop(t *testing.T) {
	fn := NewFunction("f", nil, Void)
	entry := NewBasicBlock("entry")
	header := NewBasicBlock("header")
	body := NewBasicBlock("body")
	exit := NewBasicBlock("exit")
	fn.AddBlock(entry)
	fn.AddBlock(header)
	fn.AddBlock(body)
	fn.AddBlock(exit)

	entry.PushInst(NewBranch(header))
	cond := NewConstantInt(1, I1)
	header.PushInst(NewCondBranch(cond, body, exit))
	body.PushInst(NewBranch(header)) // back edge
	exit.PushInst(NewReturn(nil))

	dom := ComputeDominance(fn)
	forest := BuildLoopNestingForest(fn, dom)

	if len(forest.Roots) != 1 {
		t.Fatalf("len(forest.Roots) = %d, want 1", len(forest.Roots))
	}
	loop := forest.Roots[0]
	if loop.Header != header {
		t.Errorf("loop.Header = %v, want header", loop.Header.Name())
	}
	if !loop.Blocks[body] || !loop.Blocks[header] {
		t.Errorf("loop should contain header and body")
	}
	if loop.Blocks[entry] || loop.Blocks[exit] {
		t.Errorf("loop should not contain entry or exit")
	}
}

func TestSCCCallGraphOrdersCalleesBeforeCallers(t *testing.T) {
	m := NewModule()

	leaf := NewFunction("leaf", nil, I32)
	leafEntry := NewBasicBlock("entry")
	leaf.AddBlock(leafEntry)
	leafEntry.PushInst(NewReturn(NewConstantInt(1, I32)))

	caller := NewFunction("caller", nil, I32)
	callerEntry := NewBasicBlock("entry")
	caller.AddBlock(callerEntry)
	call := NewCall("r", leaf, nil, I32)
	callerEntry.PushInst(call)
	callerEntry.PushInst(NewReturn(call))

	m.AddFunction(leaf)
	m.AddFunction(caller)

	cg := BuildSCCCallGraph(m)
	if len(cg.SCCs) != 2 {
		t.Fatalf("len(cg.SCCs) = %d, want 2", len(cg.SCCs))
	}
	if cg.SCCs[0].Functions[0] != leaf {
		t.Errorf("SCCs[0] should be the leaf (callee-before-caller order)")
	}
	if cg.SCCs[1].Functions[0] != caller {
		t.Errorf("SCCs[1] should be the caller")
	}
	if cg.Of[leaf].IsRecursive() {
		t.Errorf("leaf SCC should not be recursive")
	}
}

func TestSelfRecursiveFunctionIsRecursive(t *testing.T) {
	m := NewModule()
	fn := NewFunction("fact", nil, I32)
	entry := NewBasicBlock("entry")
	fn.AddBlock(entry)
	call := NewCall("r", fn, nil, I32)
	entry.PushInst(call)
	entry.PushInst(NewReturn(call))
	m.AddFunction(fn)

	cg := BuildSCCCallGraph(m)
	if !cg.Of[fn].IsRecursive() {
		t.Error("self-recursive function should be reported recursive")
	}
}
