package isel

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/ir"
)

// buildAddThenReturn builds: entry: %v = add %p, 1; return %v.
func buildAddThenReturn() (*ir.Function, *ir.BasicBlock) {
	p := ir.NewParameter("p", ir.I64, 0)
	fn := ir.NewFunction("f", []*ir.Parameter{p}, ir.I64)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	add := ir.NewBinary(ir.OpAdd, "v", p, ir.NewConstantInt(1, ir.I64), ir.I64)
	entry.PushInst(add)
	entry.PushInst(ir.NewReturn(add))
	return fn, entry
}

func TestBuildLinksChainOnLoadStore(t *testing.T) {
	fn := ir.NewFunction("g", nil, ir.Void)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	alloca := ir.NewAlloca("a", ir.I64, ir.Ptr)
	entry.PushInst(alloca)
	store := ir.NewStore(alloca, ir.NewConstantInt(7, ir.I64))
	entry.PushInst(store)
	load := ir.NewLoad("v", alloca, ir.I64)
	entry.PushInst(load)
	entry.PushInst(ir.NewReturn(load))

	dag := Build(entry)

	storeNode := dag.ByInst[store]
	if storeNode.ChainPred != dag.ByInst[alloca] {
		t.Errorf("store's ChainPred = %v, want the alloca node", storeNode.ChainPred)
	}
	loadNode := dag.ByInst[load]
	if loadNode.ChainPred != storeNode {
		t.Errorf("load's ChainPred = %v, want the store node", loadNode.ChainPred)
	}
}

func TestScheduleReproducesProgramOrderWhenNoReorderingIsValid(t *testing.T) {
	_, entry := buildAddThenReturn()

	dag := Build(entry)
	order := dag.Schedule()

	if len(order) != len(entry.Instructions) {
		t.Fatalf("Schedule returned %d instructions, want %d", len(order), len(entry.Instructions))
	}
	for i, inst := range entry.Instructions {
		if order[i] != inst {
			t.Errorf("Schedule()[%d] = %v, want %v (original order)", i, order[i], inst)
		}
	}
}

func TestScheduleRespectsDataDependency(t *testing.T) {
	fn := ir.NewFunction("h", nil, ir.I64)
	entry := ir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	a := ir.NewBinary(ir.OpAdd, "a", ir.NewConstantInt(1, ir.I64), ir.NewConstantInt(2, ir.I64), ir.I64)
	b := ir.NewBinary(ir.OpAdd, "b", a, ir.NewConstantInt(3, ir.I64), ir.I64)
	entry.PushInst(a)
	entry.PushInst(b)
	entry.PushInst(ir.NewReturn(b))

	dag := Build(entry)
	order := dag.Schedule()

	posA, posB := -1, -1
	for i, inst := range order {
		if inst == a {
			posA = i
		}
		if inst == b {
			posB = i
		}
	}
	if posA == -1 || posB == -1 || posA >= posB {
		t.Errorf("schedule order = %v, want a before b", order)
	}
}
