package asm

import (
	"fmt"
	"math"

	"github.com/cwbudde/go-dws/internal/mir"
)

// Lower translates mod into an AssemblyStream, grounded on LowerToMIR2.cc's
// final codegen walk and Assembler.cc's Context, which consumes the same
// element shape this produces. It panics on a malformed MIR module (a
// value the Map tables can't classify, an arithmetic/compare/convert shape
// none of the Map functions accept) since by the time MIR reaches here
// every operand kind is assumed already legal, the same assumption
// ISelFunction.cc makes of its own LowerToMIR2 input.
//
// Register allocation is not a separate pass here: every SSARegister keeps
// its index as its permanent window slot. A function's one PhysicalRegister
// (the return-value slot NewPhysicalRegister(0) written by selectReturn)
// and the occasional scratch register needed to materialize a bare constant
// fed directly into a compare/test are placed in the two slots immediately
// past every SSARegister, so neither ever aliases a live SSA value. This is
// a documented simplification in place of liveness-driven allocation and
// coalescing, which is out of scope.
func Lower(mod *mir.Module) *AssemblyStream {
	stream := NewAssemblyStream()
	funcLabels := make(map[*mir.Function]*Label, len(mod.Functions))
	for _, fn := range mod.Functions {
		funcLabels[fn] = &Label{name: fn.Name(), IsFunction: true}
	}
	for _, fn := range mod.Functions {
		lowerFunction(stream, fn, funcLabels)
	}
	return stream
}

func lowerFunction(stream *AssemblyStream, fn *mir.Function, funcLabels map[*mir.Function]*Label) {
	blockLabels := make(map[*mir.BasicBlock]*Label, len(fn.Blocks))
	for i, bb := range fn.Blocks {
		var l *Label
		if i == 0 {
			l = funcLabels[fn]
		} else {
			l = &Label{name: fn.Name() + "." + bb.Name()}
		}
		l.id = stream.nextID
		stream.nextID++
		stream.Elements = append(stream.Elements, l)
		blockLabels[bb] = l
	}
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			lowerInst(stream, fn, inst, blockLabels, funcLabels)
		}
	}
}

func mustOK(err error) {
	if err != nil {
		panic(err)
	}
}

// registerOperand maps an SSARegister to its own index, and a
// PhysicalRegister to a slot one past every SSARegister the function
// allocates (see the package doc above).
func registerOperand(fn *mir.Function, r mir.Register) RegisterOperand {
	if _, ok := r.(*mir.PhysicalRegister); ok {
		return RegisterOperand{Index: uint8(fn.NumSSARegs + r.Index())}
	}
	return RegisterOperand{Index: uint8(r.Index())}
}

// scratchRegister is the one slot reserved past the PhysicalRegister(0)
// return-value slot, used only when a compare/test operand resolves
// directly to a constant instead of a register.
func scratchRegister(fn *mir.Function) RegisterOperand {
	return RegisterOperand{Index: uint8(fn.NumSSARegs + 1)}
}

func operandFor(fn *mir.Function, v mir.Value) (Operand, OperandKind) {
	switch val := v.(type) {
	case mir.Register:
		return registerOperand(fn, val), KindRegister
	case *mir.ConstantInt:
		return Immediate{Value: val.Value, Width: val.Width / 8}, KindImmediate
	case *mir.ConstantFloat:
		if val.Width == 32 {
			return Immediate{Value: uint64(math.Float32bits(float32(val.Value))), Width: 4}, KindImmediate
		}
		return Immediate{Value: math.Float64bits(val.Value), Width: 8}, KindImmediate
	case mir.UndefValue:
		return Immediate{Value: 0, Width: 8}, KindImmediate
	default:
		panic(fmt.Sprintf("asm: cannot lower operand %v", v))
	}
}

func memOperand(fn *mir.Function, mem *mir.MemoryAddress) MemoryOperand {
	m := MemoryOperand{
		Base:             registerOperand(fn, mem.Base).Index,
		OffsetReg:        NoDynamicOffsetByte,
		OffsetMultiplier: int8(mem.ConstantOffsetMultiplier),
		InnerOffset:      int8(mem.ConstantInnerOffset),
	}
	if mem.OffsetReg != nil {
		m.OffsetReg = registerOperand(fn, mem.OffsetReg).Index
	}
	return m
}

// widen forces imm's encoded width to n bytes, used for mov/cmov's RV form
// which always carries a full 64-bit immediate regardless of the logical
// value's own declared width (Map.cc's mapMove returns mov64RV for every
// Value8/16/32/64/LabelPosition source alike).
func widen(imm Operand, n int) Operand {
	if v, ok := imm.(Immediate); ok {
		return Immediate{Value: v.Value, Width: n}
	}
	return imm
}

// materializeRegister resolves v to a register, emitting a mov into a
// scratch slot first if v is a bare constant — the fallback Resolver::
// resolveToRegister performs for instruction-selection operands that
// ISel didn't already force into a register (compare/test operands that
// turned out, after folding, to be two literal constants).
func materializeRegister(stream *AssemblyStream, fn *mir.Function, width int, v mir.Value) RegisterOperand {
	if r, ok := v.(mir.Register); ok {
		return registerOperand(fn, r)
	}
	dest := scratchRegister(fn)
	operand, kind := operandFor(fn, v)
	op, err := mapMove(kind, width/8)
	mustOK(err)
	if kind == KindImmediate {
		operand = widen(operand, 8)
	}
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest, operand}})
	return dest
}

func lowerInst(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction, blockLabels map[*mir.BasicBlock]*Label, funcLabels map[*mir.Function]*Label) {
	switch inst.Op {
	case mir.OpCopy:
		lowerCopy(stream, fn, inst)
	case mir.OpCondCopy:
		lowerCondCopy(stream, fn, inst)
	case mir.OpLoad:
		op, err := mapMove(KindMemory, inst.Width/8)
		mustOK(err)
		stream.Emit(&Instr{Op: op, Operands: []Operand{registerOperand(fn, inst.Dest), memOperand(fn, inst.Mem)}})
	case mir.OpStore:
		op, err := mapMoveToMemory(inst.Width / 8)
		mustOK(err)
		src, _ := operandFor(fn, inst.Operands[0])
		stream.Emit(&Instr{Op: op, Operands: []Operand{memOperand(fn, inst.Mem), src}})
	case mir.OpLea:
		stream.Emit(&Instr{Op: OpLea, Operands: []Operand{registerOperand(fn, inst.Dest), memOperand(fn, inst.Mem)}})
	case mir.OpLincsp:
		stream.Emit(&Instr{Op: OpLincsp, Operands: []Operand{registerOperand(fn, inst.Dest), Immediate{Value: uint64(inst.StackSize), Width: 2}}})
	case mir.OpJump:
		stream.Emit(&Instr{Op: OpJmp, Operands: []Operand{LabelRef{Target: blockLabels[inst.Targets[0]], Relative: true}}})
	case mir.OpCondJump:
		stream.Emit(&Instr{Op: mapJump(inst.Condition), Operands: []Operand{LabelRef{Target: blockLabels[inst.Targets[0]], Relative: true}}})
	case mir.OpCall:
		stream.Emit(&Instr{Op: OpCall, Operands: []Operand{
			LabelRef{Target: funcLabels[inst.Callee], Relative: true},
			Immediate{Value: uint64(inst.CallDelta), Width: 1},
		}})
	case mir.OpICallReg:
		target, _ := operandFor(fn, inst.Operands[0])
		stream.Emit(&Instr{Op: OpICallR, Operands: []Operand{target, Immediate{Value: uint64(inst.CallDelta), Width: 1}}})
	case mir.OpICallMem:
		stream.Emit(&Instr{Op: OpICallM, Operands: []Operand{memOperand(fn, inst.Mem), Immediate{Value: uint64(inst.CallDelta), Width: 1}}})
	case mir.OpReturn:
		stream.Emit(&Instr{Op: OpRet})
	case mir.OpTerminate:
		stream.Emit(&Instr{Op: OpTerminate})
	case mir.OpCallForeign:
		stream.Emit(&Instr{Op: OpCfng, Operands: []Operand{
			Immediate{Value: uint64(inst.CallDelta), Width: 1},
			Immediate{Value: uint64(inst.FuncIndex), Width: 2},
		}})
	case mir.OpCallBuiltin:
		stream.Emit(&Instr{Op: OpCbltn, Operands: []Operand{
			Immediate{Value: uint64(inst.CallDelta), Width: 1},
			Immediate{Value: uint64(inst.FuncIndex), Width: 2},
		}})
	case mir.OpArith:
		lowerArith(stream, fn, inst)
	case mir.OpUnaryArith:
		lowerUnaryArith(stream, fn, inst)
	case mir.OpCompare:
		lowerCompare(stream, fn, inst)
	case mir.OpTest:
		lowerTest(stream, fn, inst)
	case mir.OpSet:
		op, err := mapSet(inst.Condition)
		mustOK(err)
		stream.Emit(&Instr{Op: op, Operands: []Operand{registerOperand(fn, inst.Dest)}})
	case mir.OpConvert:
		lowerConvert(stream, fn, inst)
	default:
		panic(fmt.Sprintf("asm: unhandled mir opcode %v", inst.Op))
	}
}

func lowerCopy(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	dest := registerOperand(fn, inst.Dest)
	src, kind := operandFor(fn, inst.Operands[0])
	op, err := mapMove(kind, inst.Width/8)
	mustOK(err)
	if kind == KindImmediate {
		src = widen(src, 8)
	}
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest, src}})
}

func lowerCondCopy(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	dest := registerOperand(fn, inst.Dest)
	src, kind := operandFor(fn, inst.Operands[0])
	op, err := mapCMove(inst.Condition, kind, inst.Width)
	mustOK(err)
	if kind == KindImmediate {
		src = widen(src, 8)
	}
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest, src}})
}

// lowerArith expands the SSA-style dest = lhs op rhs shape into the VM's
// native in-place dest op= rhs form: a mov of lhs into dest first (skipped
// when lhs already resolves to the same register as dest), then the binary
// opcode with dest as both the left operand and the result.
func lowerArith(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	dest := registerOperand(fn, inst.Dest)
	emitInPlaceLHS(stream, fn, inst.Width, dest, inst.Operands[0])
	rhs, rhsKind := operandFor(fn, inst.Operands[1])
	op, err := mapArithmetic(inst.ArithOp, rhsKind, inst.Width)
	mustOK(err)
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest, rhs}})
}

func lowerUnaryArith(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	dest := registerOperand(fn, inst.Dest)
	emitInPlaceLHS(stream, fn, inst.Width, dest, inst.Operands[0])
	op, err := mapUnary(inst.ArithOp, inst.Width)
	mustOK(err)
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest}})
}

// emitInPlaceLHS ensures dest already holds v's value, emitting a mov if it
// doesn't, before the caller appends the in-place opcode that reads and
// overwrites dest.
func emitInPlaceLHS(stream *AssemblyStream, fn *mir.Function, width int, dest RegisterOperand, v mir.Value) {
	operand, kind := operandFor(fn, v)
	if kind == KindRegister && operand.(RegisterOperand) == dest {
		return
	}
	op, err := mapMove(kind, width/8)
	mustOK(err)
	if kind == KindImmediate {
		operand = widen(operand, 8)
	}
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest, operand}})
}

func lowerCompare(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	lhs := materializeRegister(stream, fn, inst.Width, inst.Operands[0])
	rhs, rhsKind := operandFor(fn, inst.Operands[1])
	op, err := mapCompare(inst.Signed, inst.IsFloat, rhsKind, inst.Width)
	mustOK(err)
	stream.Emit(&Instr{Op: op, Operands: []Operand{lhs, rhs}})
}

func lowerTest(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	reg := materializeRegister(stream, fn, inst.Width, inst.Operands[0])
	op, err := mapTest(inst.Signed, inst.Width)
	mustOK(err)
	stream.Emit(&Instr{Op: op, Operands: []Operand{reg}})
}

func lowerConvert(stream *AssemblyStream, fn *mir.Function, inst *mir.Instruction) {
	dest := registerOperand(fn, inst.Dest)
	emitInPlaceLHS(stream, fn, inst.FromWidth, dest, inst.Operands[0])
	op, err := mapConvert(inst.Conversion, inst.FromWidth, inst.Width, inst.Signed)
	mustOK(err)
	stream.Emit(&Instr{Op: op, Operands: []Operand{dest}})
}
