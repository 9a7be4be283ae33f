package svm

import (
	"bytes"
	"testing"

	"github.com/cwbudde/go-dws/internal/asm"
)

func assembleOrFatal(t *testing.T, s *asm.AssemblyStream) *asm.Program {
	t.Helper()
	prog, err := asm.Assemble(s)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return prog
}

func TestExecuteAddsTwoRegisters(t *testing.T) {
	s := asm.NewAssemblyStream()
	s.NewLabel("main", true)
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.Immediate{Value: 5, Width: 8},
	}})
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 1}, asm.Immediate{Value: 3, Width: 8},
	}})
	s.Emit(&asm.Instr{Op: asm.OpAdd64RR, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.RegisterOperand{Index: 1},
	}})
	s.Emit(&asm.Instr{Op: asm.OpRet})

	vm := New()
	if err := vm.LoadBinary(assembleOrFatal(t, s)); err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	regs, err := vm.Execute(vm.startAddress, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if regs[0] != 8 {
		t.Errorf("r0 = %d, want 8", regs[0])
	}
}

func TestBeginStepEndExecutionMatchesExecute(t *testing.T) {
	s := asm.NewAssemblyStream()
	s.NewLabel("main", true)
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.Immediate{Value: 5, Width: 8},
	}})
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 1}, asm.Immediate{Value: 3, Width: 8},
	}})
	s.Emit(&asm.Instr{Op: asm.OpAdd64RR, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.RegisterOperand{Index: 1},
	}})
	s.Emit(&asm.Instr{Op: asm.OpRet})

	vm := New()
	if err := vm.LoadBinary(assembleOrFatal(t, s)); err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}

	vm.BeginExecution(vm.startAddress, nil)
	steps := 0
	for vm.Running() {
		if err := vm.StepExecution(); err != nil {
			t.Fatalf("StepExecution: %v", err)
		}
		steps++
		if steps > 100 {
			t.Fatal("StepExecution looped past 100 steps without finishing")
		}
	}
	regs := vm.EndExecution()
	if regs[0] != 8 {
		t.Errorf("r0 = %d, want 8", regs[0])
	}
	if steps != 4 {
		t.Errorf("steps = %d, want 4 (one per emitted instruction)", steps)
	}
}

func TestExecuteConditionalJump(t *testing.T) {
	s := asm.NewAssemblyStream()
	s.NewLabel("main", true)
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.Immediate{Value: 1, Width: 8},
	}})
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 1}, asm.Immediate{Value: 1, Width: 8},
	}})
	s.Emit(&asm.Instr{Op: asm.OpUCmp64RR, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.RegisterOperand{Index: 1},
	}})
	// Reserve a stream-unique label id up front, then place it after the
	// guarded mov by popping it off the stream and re-appending it later.
	skip := s.NewLabel("skip", false)
	s.Elements = s.Elements[:len(s.Elements)-1]
	s.Emit(&asm.Instr{Op: asm.OpJe, Operands: []asm.Operand{asm.LabelRef{Target: skip, Relative: true}}})
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 2}, asm.Immediate{Value: 0xff, Width: 8},
	}})
	s.Elements = append(s.Elements, skip)
	s.Emit(&asm.Instr{Op: asm.OpRet})

	vm := New()
	if err := vm.LoadBinary(assembleOrFatal(t, s)); err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	regs, err := vm.Execute(vm.startAddress, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if regs[2] != 0 {
		t.Errorf("r2 = %#x, want 0 (equal branch must skip the mov)", regs[2])
	}
}

func TestExecuteMemoryStoreAndLoad(t *testing.T) {
	s := asm.NewAssemblyStream()
	s.NewLabel("main", true)
	// r0 = lincsp 8 bytes on the stack
	s.Emit(&asm.Instr{Op: asm.OpLincsp, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.Immediate{Value: 8, Width: 2},
	}})
	// r1 = 42
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 1}, asm.Immediate{Value: 42, Width: 8},
	}})
	// store r1 into [r0+0]
	s.Emit(&asm.Instr{Op: asm.OpMov64MR, Operands: []asm.Operand{
		asm.MemoryOperand{Base: 0, OffsetReg: asm.NoDynamicOffsetByte, OffsetMultiplier: 0, InnerOffset: 0},
		asm.RegisterOperand{Index: 1},
	}})
	// load [r0+0] into r2
	s.Emit(&asm.Instr{Op: asm.OpMov64RM, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 2},
		asm.MemoryOperand{Base: 0, OffsetReg: asm.NoDynamicOffsetByte, OffsetMultiplier: 0, InnerOffset: 0},
	}})
	s.Emit(&asm.Instr{Op: asm.OpRet})

	vm := New()
	if err := vm.LoadBinary(assembleOrFatal(t, s)); err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	regs, err := vm.Execute(vm.startAddress, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if regs[2] != 42 {
		t.Errorf("r2 = %d, want 42", regs[2])
	}
}

func TestSetIOStreamsPutchar(t *testing.T) {
	s := asm.NewAssemblyStream()
	s.NewLabel("main", true)
	s.Emit(&asm.Instr{Op: asm.OpMov64RV, Operands: []asm.Operand{
		asm.RegisterOperand{Index: 0}, asm.Immediate{Value: uint64('A'), Width: 8},
	}})
	idx, ok := BuiltinIndex("putchar")
	if !ok {
		t.Fatal("putchar not registered")
	}
	s.Emit(&asm.Instr{Op: asm.OpCbltn, Operands: []asm.Operand{
		asm.Immediate{Value: 0, Width: 1}, asm.Immediate{Value: uint64(idx), Width: 2},
	}})
	s.Emit(&asm.Instr{Op: asm.OpRet})

	var out bytes.Buffer
	vm := New()
	vm.SetIOStreams(nil, &out)
	if err := vm.LoadBinary(assembleOrFatal(t, s)); err != nil {
		t.Fatalf("LoadBinary: %v", err)
	}
	if _, err := vm.Execute(vm.startAddress, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.String() != "A" {
		t.Errorf("output = %q, want %q", out.String(), "A")
	}
}
