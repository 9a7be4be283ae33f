package asm

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/mir"
)

// buildAddFunction builds a function with two SSA registers (params r0, r1)
// computing r2 = r0 + r1 and returning it, mirroring what selectFunction
// would hand to Lower once call-return plumbing is attached.
func buildAddFunction() *mir.Function {
	fn := mir.NewFunction("add", 2, 1, mir.VisibilityExported)
	entry := mir.NewBasicBlock("entry")
	fn.AddBlock(entry)

	r0 := fn.NextSSARegisters(1)
	r1 := fn.NextSSARegisters(1)
	dest := fn.NextSSARegisters(1)
	entry.PushInst(mir.NewArith(dest, mir.ArithAdd, r0, r1, 64))
	entry.PushInst(mir.NewCopy(mir.NewPhysicalRegister(0), dest, 64))
	entry.PushInst(mir.NewReturn())
	return fn
}

func countOps(stream *AssemblyStream) map[OpCode]int {
	counts := map[OpCode]int{}
	for _, el := range stream.Elements {
		if inst, ok := el.(*Instr); ok {
			counts[inst.Op]++
		}
	}
	return counts
}

func TestLowerArithEmitsMovThenInPlaceAdd(t *testing.T) {
	fn := buildAddFunction()
	mod := mir.NewModule()
	mod.AddFunction(fn)

	stream := Lower(mod)
	counts := countOps(stream)

	// dest != r0 (lhs), so a mov precedes the in-place add; the return
	// value copy into PhysicalRegister(0) is a second mov.
	if counts[OpMov64RR] != 2 {
		t.Errorf("mov64RR count = %d, want 2", counts[OpMov64RR])
	}
	if counts[OpAdd64RR] != 1 {
		t.Errorf("add64RR count = %d, want 1", counts[OpAdd64RR])
	}
	if counts[OpRet] != 1 {
		t.Errorf("ret count = %d, want 1", counts[OpRet])
	}
}

func TestLowerArithSkipsMovWhenDestAlreadyHoldsLHS(t *testing.T) {
	fn := mir.NewFunction("addInPlace", 1, 1, mir.VisibilityExported)
	entry := mir.NewBasicBlock("entry")
	fn.AddBlock(entry)
	r0 := fn.NextSSARegisters(1)
	one := mir.NewConstantInt(1, 64)
	// Dest is the same register as lhs: no mov should precede the add.
	entry.PushInst(&mir.Instruction{Op: mir.OpArith, Dest: r0, Operands: []mir.Value{r0, one}, ArithOp: mir.ArithAdd, Width: 64})
	entry.PushInst(mir.NewReturn())

	mod := mir.NewModule()
	mod.AddFunction(fn)
	stream := Lower(mod)
	counts := countOps(stream)

	if counts[OpMov64RR] != 0 {
		t.Errorf("mov64RR count = %d, want 0 (dest already holds lhs)", counts[OpMov64RR])
	}
	if counts[OpAdd64RV] != 1 {
		t.Errorf("add64RV count = %d, want 1", counts[OpAdd64RV])
	}
}

func TestLowerCondJumpAndJumpTargetsDistinctLabels(t *testing.T) {
	fn := mir.NewFunction("branch", 1, 0, mir.VisibilityExported)
	entry := mir.NewBasicBlock("entry")
	thenBB := mir.NewBasicBlock("then")
	elseBB := mir.NewBasicBlock("else")
	fn.AddBlock(entry)
	fn.AddBlock(thenBB)
	fn.AddBlock(elseBB)
	entry.AddSuccessor(thenBB)
	entry.AddSuccessor(elseBB)

	r0 := fn.NextSSARegisters(1)
	zero := mir.NewConstantInt(0, 64)
	entry.PushInst(mir.NewCompare(r0, zero, 64, true, false))
	entry.PushInst(mir.NewCondJump(thenBB, mir.CompareGreater))
	entry.PushInst(mir.NewJump(elseBB))
	thenBB.PushInst(mir.NewTerminate())
	elseBB.PushInst(mir.NewTerminate())

	mod := mir.NewModule()
	mod.AddFunction(fn)
	stream := Lower(mod)

	var jg, jmp int
	var jgTarget, jmpTarget *Label
	for _, el := range stream.Elements {
		inst, ok := el.(*Instr)
		if !ok {
			continue
		}
		switch inst.Op {
		case OpJg:
			jg++
			jgTarget = inst.Operands[0].(LabelRef).Target
		case OpJmp:
			jmp++
			jmpTarget = inst.Operands[0].(LabelRef).Target
		}
	}
	if jg != 1 || jmp != 1 {
		t.Fatalf("jg=%d jmp=%d, want 1 and 1", jg, jmp)
	}
	if jgTarget == jmpTarget {
		t.Error("conditional and fallthrough jumps must target distinct labels")
	}
	if jgTarget.name != "branch.then" {
		t.Errorf("jg target = %q, want \"branch.then\"", jgTarget.name)
	}
}

func TestLowerLoadStoreLea(t *testing.T) {
	fn := mir.NewFunction("mem", 1, 0, mir.VisibilityExported)
	entry := mir.NewBasicBlock("entry")
	fn.AddBlock(entry)
	base := fn.NextSSARegisters(1)
	leaDest := fn.NextSSARegisters(1)
	loadDest := fn.NextSSARegisters(1)
	mem := mir.MemoryAddress{Base: base, ConstantInnerOffset: 8}
	entry.PushInst(mir.NewLea(leaDest, mem))
	entry.PushInst(mir.NewLoad(loadDest, mem, 32))
	entry.PushInst(mir.NewStore(mem, loadDest, 32))
	entry.PushInst(mir.NewReturn())

	mod := mir.NewModule()
	mod.AddFunction(fn)
	stream := Lower(mod)
	counts := countOps(stream)

	if counts[OpLea] != 1 {
		t.Errorf("lea count = %d, want 1", counts[OpLea])
	}
	if counts[OpMov32RM] != 1 {
		t.Errorf("mov32RM count = %d, want 1", counts[OpMov32RM])
	}
	if counts[OpMov32MR] != 1 {
		t.Errorf("mov32MR count = %d, want 1", counts[OpMov32MR])
	}
}

func TestLowerCallUsesRelativeLabelRef(t *testing.T) {
	callee := mir.NewFunction("callee", 0, 1, mir.VisibilityExported)
	calleeEntry := mir.NewBasicBlock("entry")
	callee.AddBlock(calleeEntry)
	calleeEntry.PushInst(mir.NewReturn())

	caller := mir.NewFunction("caller", 0, 1, mir.VisibilityExported)
	callerEntry := mir.NewBasicBlock("entry")
	caller.AddBlock(callerEntry)
	callerEntry.PushInst(mir.NewCall(nil, callee, 4))
	callerEntry.PushInst(mir.NewReturn())

	mod := mir.NewModule()
	mod.AddFunction(callee)
	mod.AddFunction(caller)
	stream := Lower(mod)

	found := false
	for _, el := range stream.Elements {
		inst, ok := el.(*Instr)
		if !ok || inst.Op != OpCall {
			continue
		}
		found = true
		ref := inst.Operands[0].(LabelRef)
		if !ref.Relative {
			t.Error("call target LabelRef must be Relative per spec's §6.2 encoding")
		}
		if ref.Target.name != "callee" {
			t.Errorf("call target = %q, want \"callee\"", ref.Target.name)
		}
		delta := inst.Operands[1].(Immediate)
		if delta.Value != 4 {
			t.Errorf("call delta = %d, want 4", delta.Value)
		}
	}
	if !found {
		t.Fatal("no OpCall instruction emitted")
	}
}
