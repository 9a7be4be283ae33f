package svm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cwbudde/go-dws/internal/asm"
)

func readU16(text []byte, pos int) uint16 { return binary.LittleEndian.Uint16(text[pos:]) }
func readU32(text []byte, pos int) uint32 { return binary.LittleEndian.Uint32(text[pos:]) }
func readI32(text []byte, pos int) int32  { return int32(binary.LittleEndian.Uint32(text[pos:])) }
func readU64(text []byte, pos int) uint64 { return binary.LittleEndian.Uint64(text[pos:]) }

func (vm *VM) regAt(f *ExecutionFrame, idx uint8) uint64 {
	return vm.registers[f.RegBase+int(idx)]
}

func (vm *VM) setRegAt(f *ExecutionFrame, idx uint8, v uint64) {
	vm.registers[f.RegBase+int(idx)] = v
}

// addrOf decodes the 4-byte memory-operand tuple at pos, grounded on
// spec.md §6.2: address = Base + OffsetReg*OffsetMultiplier + InnerOffset.
func (vm *VM) addrOf(f *ExecutionFrame, pos int) VPointer {
	base := vm.text[pos]
	offsetReg := vm.text[pos+1]
	mult := int8(vm.text[pos+2])
	inner := int8(vm.text[pos+3])
	ptr := unpackPointer(vm.regAt(f, base))
	var dyn int64
	if offsetReg != asm.NoDynamicOffsetByte {
		dyn = int64(vm.regAt(f, offsetReg)) * int64(mult)
	}
	return ptr.add(dyn + int64(inner))
}

func (vm *VM) loadMem(ptr VPointer, width int) (uint64, error) {
	if err := checkAligned(MisalignedLoad, ptr, width); err != nil {
		return 0, err
	}
	bytes, err := vm.memory.Dereference(ptr, width)
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(bytes[i]) << (8 * uint(i))
	}
	return v, nil
}

func (vm *VM) storeMem(ptr VPointer, width int, val uint64) error {
	if err := checkAligned(MisalignedStore, ptr, width); err != nil {
		return err
	}
	bytes, err := vm.memory.Dereference(ptr, width)
	if err != nil {
		return err
	}
	for i := 0; i < width; i++ {
		bytes[i] = byte(val >> (8 * uint(i)))
	}
	return nil
}

func maskOf(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func signExtendTo64(v uint64, width int) int64 {
	switch width {
	case 8:
		return int64(int8(uint8(v)))
	case 16:
		return int64(int16(uint16(v)))
	case 32:
		return int64(int32(uint32(v)))
	default:
		return int64(v)
	}
}

func condTrue(flags CompareFlags, cond string) bool {
	switch cond {
	case "eq":
		return flags.isEqual()
	case "ne":
		return flags.isNotEqual()
	case "l":
		return flags.isLess()
	case "le":
		return flags.isLessEqual()
	case "g":
		return flags.isGreater()
	case "ge":
		return flags.isGreaterEqual()
	}
	return false
}

// StepExecution decodes and executes the instruction at the current frame's
// IPtr, grounded on the dispatch loop in svm-lib/Execution.cc. Exported so a
// host (e.g. a debugger) can single-step between BeginExecution and
// EndExecution instead of running Execute to completion.
func (vm *VM) StepExecution() error {
	f := vm.currentFrame()
	if f.IPtr < 0 || f.IPtr >= len(vm.text) {
		return &InvalidOpcodeError{}
	}
	opByte := vm.text[f.IPtr]
	op := asm.OpCode(opByte)
	size := codeSize(op)
	if size == 0 {
		return &InvalidOpcodeError{Opcode: opByte}
	}
	vm.stats.ExecutedInstructions++

	switch op {
	case asm.OpRet:
		return vm.execRet()
	case asm.OpTerminate:
		f.IPtr = vm.programBreak
		return nil
	case asm.OpJmp, asm.OpJe, asm.OpJne, asm.OpJl, asm.OpJle, asm.OpJg, asm.OpJge:
		return vm.execJump(f, op)
	case asm.OpCall:
		return vm.execCall(f)
	case asm.OpICallR:
		return vm.execICallR(f)
	case asm.OpICallM:
		return vm.execICallM(f)
	}

	var err error
	switch {
	case op == asm.OpLincsp:
		err = vm.execLincsp(f)
	case op == asm.OpLea:
		vm.execLea(f)
	case op == asm.OpCfng:
		err = vm.execCfng(f)
	case op == asm.OpCbltn:
		err = vm.execCbltn(f)
	case isMoveOp(op):
		err = vm.execMove(f, op)
	case isCMovOp(op):
		err = vm.execCMov(f, op)
	case isALUOp(op):
		err = vm.execALU(f, op)
	case isCompareOp(op):
		vm.execCompare(f, op)
	case isTestOp(op):
		vm.execTest(f, op)
	case isSetOp(op):
		vm.execSet(f, op)
	case isUnaryOp(op):
		vm.execUnary(f, op)
	case isConvertOp(op):
		vm.execConvert(f, op)
	default:
		return &InvalidOpcodeError{Opcode: opByte}
	}
	if err != nil {
		return err
	}
	f.IPtr += size
	return nil
}

// --- control transfer ---

var jumpCond = map[asm.OpCode]string{
	asm.OpJe: "eq", asm.OpJne: "ne", asm.OpJl: "l",
	asm.OpJle: "le", asm.OpJg: "g", asm.OpJge: "ge",
}

// execJump implements jmp/j{cond}. The offset is relative to the byte
// immediately following the opcode, so the target is computed the same way
// internal/asm's assembler computed the patched value: target = placeholder
// position + offset.
func (vm *VM) execJump(f *ExecutionFrame, op asm.OpCode) error {
	placeholder := f.IPtr + 1
	offset := int(readI32(vm.text, placeholder))
	target := placeholder + offset
	if op == asm.OpJmp {
		f.IPtr = target
		return nil
	}
	if condTrue(vm.flags, jumpCond[op]) {
		f.IPtr = target
	} else {
		f.IPtr += codeSize(op)
	}
	return nil
}

// doCall installs a new register window at RegBase+delta, saving the
// caller's stack pointer, the delta itself and the return address in the
// three registers below the new window, per spec.md §4.7's calling
// protocol, then pushes a new ExecutionFrame.
func (vm *VM) doCall(f *ExecutionFrame, target, delta, retAddr int) error {
	newBase := f.RegBase + delta
	if newBase < 3 || newBase+256 > len(vm.registers) {
		return &TrapError{Message: "register window overflow"}
	}
	vm.registers[newBase-3] = packPointer(f.StackPtr)
	vm.registers[newBase-2] = uint64(delta)
	vm.registers[newBase-1] = uint64(retAddr)
	vm.frames = append(vm.frames, ExecutionFrame{
		RegBase:   newBase,
		BottomReg: f.BottomReg,
		IPtr:      target,
		StackPtr:  f.StackPtr,
	})
	return nil
}

func (vm *VM) execCall(f *ExecutionFrame) error {
	placeholder := f.IPtr + 1
	offset := int(readI32(vm.text, placeholder))
	target := placeholder + offset
	delta := int(vm.text[f.IPtr+5])
	return vm.doCall(f, target, delta, f.IPtr+codeSize(asm.OpCall))
}

func (vm *VM) execICallR(f *ExecutionFrame) error {
	reg := vm.text[f.IPtr+1]
	delta := int(vm.text[f.IPtr+2])
	target := int(vm.regAt(f, reg))
	return vm.doCall(f, target, delta, f.IPtr+codeSize(asm.OpICallR))
}

func (vm *VM) execICallM(f *ExecutionFrame) error {
	addr := vm.addrOf(f, f.IPtr+1)
	delta := int(vm.text[f.IPtr+5])
	val, err := vm.loadMem(addr, 8)
	if err != nil {
		return err
	}
	return vm.doCall(f, int(val), delta, f.IPtr+codeSize(asm.OpICallM))
}

// execRet implements spec.md §4.7's return protocol: at the bottom frame of
// the current beginExecution invocation, returning terminates execution;
// otherwise the caller's register window, instruction pointer and stack
// pointer are restored.
func (vm *VM) execRet() error {
	f := vm.currentFrame()
	if f.BottomReg == f.RegBase {
		f.IPtr = vm.programBreak
		return nil
	}
	retAddr := int(vm.registers[f.RegBase-1])
	savedStack := unpackPointer(vm.registers[f.RegBase-3])
	vm.frames = vm.frames[:len(vm.frames)-1]
	caller := vm.currentFrame()
	caller.IPtr = retAddr
	caller.StackPtr = savedStack
	return nil
}

// --- stack and address ---

func (vm *VM) execLincsp(f *ExecutionFrame) error {
	destReg := vm.text[f.IPtr+1]
	size := int(readU16(vm.text, f.IPtr+2))
	if size%8 != 0 {
		return &InvalidStackAllocationError{Offset: size}
	}
	p := f.StackPtr
	f.StackPtr = f.StackPtr.add(int64(size))
	vm.setRegAt(f, destReg, packPointer(p))
	return nil
}

func (vm *VM) execLea(f *ExecutionFrame) {
	destReg := vm.text[f.IPtr+1]
	addr := vm.addrOf(f, f.IPtr+2)
	vm.setRegAt(f, destReg, packPointer(addr))
}

// --- foreign and builtin calls ---

func (vm *VM) execCfng(f *ExecutionFrame) error {
	delta := int(vm.text[f.IPtr+1])
	idx := int(readU16(vm.text, f.IPtr+2))
	if idx < 0 || idx >= len(vm.foreignFunctions) {
		return &FFIError{Symbol: fmt.Sprintf("#%d", idx), Err: fmt.Errorf("no such foreign function slot")}
	}
	argBase := f.RegBase + delta
	args := append([]uint64(nil), vm.registers[argBase:argBase+8]...)
	result, err := vm.foreignFunctions[idx].Fn(vm, args)
	if err != nil {
		return err
	}
	vm.registers[argBase] = result
	return nil
}

func (vm *VM) execCbltn(f *ExecutionFrame) error {
	delta := int(vm.text[f.IPtr+1])
	idx := int(readU16(vm.text, f.IPtr+2))
	if idx < 0 || idx >= len(vm.builtins) {
		return &InvalidOpcodeError{Opcode: byte(asm.OpCbltn)}
	}
	argBase := f.RegBase + delta
	args := append([]uint64(nil), vm.registers[argBase:argBase+8]...)
	result, err := vm.builtins[idx](vm, args)
	if err != nil {
		return err
	}
	vm.registers[argBase] = result
	return nil
}

// --- moves ---

type moveDesc struct {
	shape byte // 'R'=RR, 'V'=RV, 'S'=store(MR), 'L'=load(RM)
	width int  // byte width, for S/L shapes
}

var moveTable = map[asm.OpCode]moveDesc{
	asm.OpMov64RR: {shape: 'R'},
	asm.OpMov64RV: {shape: 'V'},
	asm.OpMov8MR:  {shape: 'S', width: 1},
	asm.OpMov16MR: {shape: 'S', width: 2},
	asm.OpMov32MR: {shape: 'S', width: 4},
	asm.OpMov64MR: {shape: 'S', width: 8},
	asm.OpMov8RM:  {shape: 'L', width: 1},
	asm.OpMov16RM: {shape: 'L', width: 2},
	asm.OpMov32RM: {shape: 'L', width: 4},
	asm.OpMov64RM: {shape: 'L', width: 8},
}

func isMoveOp(op asm.OpCode) bool { _, ok := moveTable[op]; return ok }

func (vm *VM) execMove(f *ExecutionFrame, op asm.OpCode) error {
	d := moveTable[op]
	pos := f.IPtr + 1
	switch d.shape {
	case 'R':
		dest, src := vm.text[pos], vm.text[pos+1]
		vm.setRegAt(f, dest, vm.regAt(f, src))
	case 'V':
		dest := vm.text[pos]
		vm.setRegAt(f, dest, readU64(vm.text, pos+1))
	case 'S':
		addr := vm.addrOf(f, pos)
		src := vm.text[pos+4]
		return vm.storeMem(addr, d.width, vm.regAt(f, src))
	case 'L':
		dest := vm.text[pos]
		addr := vm.addrOf(f, pos+1)
		val, err := vm.loadMem(addr, d.width)
		if err != nil {
			return err
		}
		vm.setRegAt(f, dest, val)
	}
	return nil
}

// --- conditional moves ---

type cmovDesc struct {
	cond  string
	shape byte // 'R'=RR, 'V'=RV, '1'/'2'/'4'/'8'=width-tagged RM
}

var cmovTable = map[asm.OpCode]cmovDesc{}

func addCMov(cond string, rr, rv, rm8, rm16, rm32, rm64 asm.OpCode) {
	cmovTable[rr] = cmovDesc{cond, 'R'}
	cmovTable[rv] = cmovDesc{cond, 'V'}
	cmovTable[rm8] = cmovDesc{cond, '1'}
	cmovTable[rm16] = cmovDesc{cond, '2'}
	cmovTable[rm32] = cmovDesc{cond, '4'}
	cmovTable[rm64] = cmovDesc{cond, '8'}
}

func init() {
	addCMov("eq", asm.OpCMovE64RR, asm.OpCMovE64RV, asm.OpCMovE8RM, asm.OpCMovE16RM, asm.OpCMovE32RM, asm.OpCMovE64RM)
	addCMov("ne", asm.OpCMovNE64RR, asm.OpCMovNE64RV, asm.OpCMovNE8RM, asm.OpCMovNE16RM, asm.OpCMovNE32RM, asm.OpCMovNE64RM)
	addCMov("l", asm.OpCMovL64RR, asm.OpCMovL64RV, asm.OpCMovL8RM, asm.OpCMovL16RM, asm.OpCMovL32RM, asm.OpCMovL64RM)
	addCMov("le", asm.OpCMovLE64RR, asm.OpCMovLE64RV, asm.OpCMovLE8RM, asm.OpCMovLE16RM, asm.OpCMovLE32RM, asm.OpCMovLE64RM)
	addCMov("g", asm.OpCMovG64RR, asm.OpCMovG64RV, asm.OpCMovG8RM, asm.OpCMovG16RM, asm.OpCMovG32RM, asm.OpCMovG64RM)
	addCMov("ge", asm.OpCMovGE64RR, asm.OpCMovGE64RV, asm.OpCMovGE8RM, asm.OpCMovGE16RM, asm.OpCMovGE32RM, asm.OpCMovGE64RM)
}

func isCMovOp(op asm.OpCode) bool { _, ok := cmovTable[op]; return ok }

func (vm *VM) execCMov(f *ExecutionFrame, op asm.OpCode) error {
	d := cmovTable[op]
	pos := f.IPtr + 1
	dest := vm.text[pos]
	if !condTrue(vm.flags, d.cond) {
		return nil
	}
	switch d.shape {
	case 'R':
		vm.setRegAt(f, dest, vm.regAt(f, vm.text[pos+1]))
	case 'V':
		vm.setRegAt(f, dest, readU64(vm.text, pos+1))
	default:
		width := map[byte]int{'1': 1, '2': 2, '4': 4, '8': 8}[d.shape]
		addr := vm.addrOf(f, pos+1)
		val, err := vm.loadMem(addr, width)
		if err != nil {
			return err
		}
		vm.setRegAt(f, dest, val)
	}
	return nil
}

// --- arithmetic, float arithmetic, shifts, bitwise ---

type aluDesc struct {
	name    string
	width   int
	isFloat bool
	shape   byte // 'R'=RR, 'V'=RV, 'M'=RM
}

var aluTable = map[asm.OpCode]aluDesc{}

func addALU3(width int, isFloat bool, name string, rr, rv, rm asm.OpCode) {
	aluTable[rr] = aluDesc{name, width, isFloat, 'R'}
	aluTable[rv] = aluDesc{name, width, isFloat, 'V'}
	aluTable[rm] = aluDesc{name, width, isFloat, 'M'}
}

func init() {
	addALU3(64, false, "add", asm.OpAdd64RR, asm.OpAdd64RV, asm.OpAdd64RM)
	addALU3(64, false, "sub", asm.OpSub64RR, asm.OpSub64RV, asm.OpSub64RM)
	addALU3(64, false, "mul", asm.OpMul64RR, asm.OpMul64RV, asm.OpMul64RM)
	addALU3(64, false, "udiv", asm.OpUDiv64RR, asm.OpUDiv64RV, asm.OpUDiv64RM)
	addALU3(64, false, "sdiv", asm.OpSDiv64RR, asm.OpSDiv64RV, asm.OpSDiv64RM)
	addALU3(64, false, "urem", asm.OpURem64RR, asm.OpURem64RV, asm.OpURem64RM)
	addALU3(64, false, "srem", asm.OpSRem64RR, asm.OpSRem64RV, asm.OpSRem64RM)

	addALU3(32, false, "add", asm.OpAdd32RR, asm.OpAdd32RV, asm.OpAdd32RM)
	addALU3(32, false, "sub", asm.OpSub32RR, asm.OpSub32RV, asm.OpSub32RM)
	addALU3(32, false, "mul", asm.OpMul32RR, asm.OpMul32RV, asm.OpMul32RM)
	addALU3(32, false, "udiv", asm.OpUDiv32RR, asm.OpUDiv32RV, asm.OpUDiv32RM)
	addALU3(32, false, "sdiv", asm.OpSDiv32RR, asm.OpSDiv32RV, asm.OpSDiv32RM)
	addALU3(32, false, "urem", asm.OpURem32RR, asm.OpURem32RV, asm.OpURem32RM)
	addALU3(32, false, "srem", asm.OpSRem32RR, asm.OpSRem32RV, asm.OpSRem32RM)

	addALU3(64, true, "fadd", asm.OpFAdd64RR, asm.OpFAdd64RV, asm.OpFAdd64RM)
	addALU3(64, true, "fsub", asm.OpFSub64RR, asm.OpFSub64RV, asm.OpFSub64RM)
	addALU3(64, true, "fmul", asm.OpFMul64RR, asm.OpFMul64RV, asm.OpFMul64RM)
	addALU3(64, true, "fdiv", asm.OpFDiv64RR, asm.OpFDiv64RV, asm.OpFDiv64RM)

	addALU3(32, true, "fadd", asm.OpFAdd32RR, asm.OpFAdd32RV, asm.OpFAdd32RM)
	addALU3(32, true, "fsub", asm.OpFSub32RR, asm.OpFSub32RV, asm.OpFSub32RM)
	addALU3(32, true, "fmul", asm.OpFMul32RR, asm.OpFMul32RV, asm.OpFMul32RM)
	addALU3(32, true, "fdiv", asm.OpFDiv32RR, asm.OpFDiv32RV, asm.OpFDiv32RM)

	addALU3(64, false, "lsl", asm.OpLsl64RR, asm.OpLsl64RV, asm.OpLsl64RM)
	addALU3(64, false, "lsr", asm.OpLsr64RR, asm.OpLsr64RV, asm.OpLsr64RM)
	addALU3(32, false, "lsl", asm.OpLsl32RR, asm.OpLsl32RV, asm.OpLsl32RM)
	addALU3(32, false, "lsr", asm.OpLsr32RR, asm.OpLsr32RV, asm.OpLsr32RM)
	addALU3(64, false, "asl", asm.OpAsl64RR, asm.OpAsl64RV, asm.OpAsl64RM)
	addALU3(64, false, "asr", asm.OpAsr64RR, asm.OpAsr64RV, asm.OpAsr64RM)
	addALU3(32, false, "asl", asm.OpAsl32RR, asm.OpAsl32RV, asm.OpAsl32RM)
	addALU3(32, false, "asr", asm.OpAsr32RR, asm.OpAsr32RV, asm.OpAsr32RM)

	addALU3(64, false, "and", asm.OpAnd64RR, asm.OpAnd64RV, asm.OpAnd64RM)
	addALU3(64, false, "or", asm.OpOr64RR, asm.OpOr64RV, asm.OpOr64RM)
	addALU3(64, false, "xor", asm.OpXor64RR, asm.OpXor64RV, asm.OpXor64RM)
	addALU3(32, false, "and", asm.OpAnd32RR, asm.OpAnd32RV, asm.OpAnd32RM)
	addALU3(32, false, "or", asm.OpOr32RR, asm.OpOr32RV, asm.OpOr32RM)
	addALU3(32, false, "xor", asm.OpXor32RR, asm.OpXor32RV, asm.OpXor32RM)
}

func isALUOp(op asm.OpCode) bool { _, ok := aluTable[op]; return ok }

func applyALU(d aluDesc, a, b uint64) (uint64, error) {
	m := maskOf(d.width)
	a &= m
	b &= m
	if d.isFloat {
		if d.width == 32 {
			fa, fb := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
			var r float32
			switch d.name {
			case "fadd":
				r = fa + fb
			case "fsub":
				r = fa - fb
			case "fmul":
				r = fa * fb
			case "fdiv":
				r = fa / fb
			}
			return uint64(math.Float32bits(r)), nil
		}
		fa, fb := math.Float64frombits(a), math.Float64frombits(b)
		var r float64
		switch d.name {
		case "fadd":
			r = fa + fb
		case "fsub":
			r = fa - fb
		case "fmul":
			r = fa * fb
		case "fdiv":
			r = fa / fb
		}
		return math.Float64bits(r), nil
	}
	switch d.name {
	case "add":
		return (a + b) & m, nil
	case "sub":
		return (a - b) & m, nil
	case "mul":
		return (a * b) & m, nil
	case "udiv":
		if b == 0 {
			return 0, &TrapError{Message: "integer division by zero"}
		}
		return (a / b) & m, nil
	case "urem":
		if b == 0 {
			return 0, &TrapError{Message: "integer division by zero"}
		}
		return (a % b) & m, nil
	case "sdiv":
		sa, sb := signExtendTo64(a, d.width), signExtendTo64(b, d.width)
		if sb == 0 {
			return 0, &TrapError{Message: "integer division by zero"}
		}
		return uint64(sa/sb) & m, nil
	case "srem":
		sa, sb := signExtendTo64(a, d.width), signExtendTo64(b, d.width)
		if sb == 0 {
			return 0, &TrapError{Message: "integer division by zero"}
		}
		return uint64(sa%sb) & m, nil
	case "and":
		return a & b, nil
	case "or":
		return a | b, nil
	case "xor":
		return a ^ b, nil
	case "lsl", "asl":
		shift := b & uint64(d.width-1)
		return (a << shift) & m, nil
	case "lsr":
		shift := b & uint64(d.width-1)
		return (a >> shift) & m, nil
	case "asr":
		shift := b & uint64(d.width-1)
		sa := signExtendTo64(a, d.width)
		return uint64(sa>>shift) & m, nil
	}
	return 0, fmt.Errorf("svm: unknown alu operation %q", d.name)
}

func (vm *VM) execALU(f *ExecutionFrame, op asm.OpCode) error {
	d := aluTable[op]
	pos := f.IPtr + 1
	destReg := vm.text[pos]
	lhs := vm.regAt(f, destReg)
	var rhs uint64
	switch d.shape {
	case 'R':
		rhs = vm.regAt(f, vm.text[pos+1])
	case 'V':
		if d.width == 64 {
			rhs = readU64(vm.text, pos+1)
		} else {
			rhs = uint64(readU32(vm.text, pos+1))
		}
	case 'M':
		addr := vm.addrOf(f, pos+1)
		val, err := vm.loadMem(addr, d.width/8)
		if err != nil {
			return err
		}
		rhs = val
	}
	result, err := applyALU(d, lhs, rhs)
	if err != nil {
		return err
	}
	vm.setRegAt(f, destReg, result)
	return nil
}

// --- unary ---

type unaryDesc struct {
	name  string
	width int
}

var unaryTable = map[asm.OpCode]unaryDesc{
	asm.OpLnt:   {"lnt", 64},
	asm.OpBnt:   {"bnt", 64},
	asm.OpNeg8:  {"neg", 8},
	asm.OpNeg16: {"neg", 16},
	asm.OpNeg32: {"neg", 32},
	asm.OpNeg64: {"neg", 64},
}

func isUnaryOp(op asm.OpCode) bool { _, ok := unaryTable[op]; return ok }

func (vm *VM) execUnary(f *ExecutionFrame, op asm.OpCode) {
	d := unaryTable[op]
	pos := f.IPtr + 1
	reg := vm.text[pos]
	v := vm.regAt(f, reg)
	switch d.name {
	case "lnt":
		if v == 0 {
			v = 1
		} else {
			v = 0
		}
	case "bnt":
		v = ^v
	case "neg":
		m := maskOf(d.width)
		v = (^(v & m) + 1) & m
	}
	vm.setRegAt(f, reg, v)
}

// --- compare and test ---

type cmpDesc struct {
	signed  bool
	isFloat bool
	width   int
	shape   byte // 'R'=RR, 'V'=RV
}

var cmpTable = map[asm.OpCode]cmpDesc{
	asm.OpUCmp8RR: {false, false, 8, 'R'}, asm.OpUCmp16RR: {false, false, 16, 'R'},
	asm.OpUCmp32RR: {false, false, 32, 'R'}, asm.OpUCmp64RR: {false, false, 64, 'R'},
	asm.OpSCmp8RR: {true, false, 8, 'R'}, asm.OpSCmp16RR: {true, false, 16, 'R'},
	asm.OpSCmp32RR: {true, false, 32, 'R'}, asm.OpSCmp64RR: {true, false, 64, 'R'},
	asm.OpUCmp8RV: {false, false, 8, 'V'}, asm.OpUCmp16RV: {false, false, 16, 'V'},
	asm.OpUCmp32RV: {false, false, 32, 'V'}, asm.OpUCmp64RV: {false, false, 64, 'V'},
	asm.OpSCmp8RV: {true, false, 8, 'V'}, asm.OpSCmp16RV: {true, false, 16, 'V'},
	asm.OpSCmp32RV: {true, false, 32, 'V'}, asm.OpSCmp64RV: {true, false, 64, 'V'},
	asm.OpFCmp32RR: {false, true, 32, 'R'}, asm.OpFCmp64RR: {false, true, 64, 'R'},
	asm.OpFCmp32RV: {false, true, 32, 'V'}, asm.OpFCmp64RV: {false, true, 64, 'V'},
}

func isCompareOp(op asm.OpCode) bool { _, ok := cmpTable[op]; return ok }

func readImmByWidth(text []byte, pos, widthBytes int) uint64 {
	switch widthBytes {
	case 1:
		return uint64(text[pos])
	case 2:
		return uint64(readU16(text, pos))
	case 4:
		return uint64(readU32(text, pos))
	default:
		return readU64(text, pos)
	}
}

func (vm *VM) execCompare(f *ExecutionFrame, op asm.OpCode) {
	d := cmpTable[op]
	pos := f.IPtr + 1
	lhs := vm.regAt(f, vm.text[pos])
	var rhs uint64
	if d.shape == 'R' {
		rhs = vm.regAt(f, vm.text[pos+1])
	} else {
		rhs = readImmByWidth(vm.text, pos+1, d.width/8)
	}
	vm.flags = compareValues(d.signed, d.isFloat, d.width, lhs, rhs)
}

func compareValues(signed, isFloat bool, width int, a, b uint64) CompareFlags {
	if isFloat {
		if width == 32 {
			fa, fb := math.Float32frombits(uint32(a)), math.Float32frombits(uint32(b))
			return CompareFlags{Less: fa < fb, Equal: fa == fb}
		}
		fa, fb := math.Float64frombits(a), math.Float64frombits(b)
		return CompareFlags{Less: fa < fb, Equal: fa == fb}
	}
	if signed {
		sa, sb := signExtendTo64(a, width), signExtendTo64(b, width)
		return CompareFlags{Less: sa < sb, Equal: sa == sb}
	}
	m := maskOf(width)
	a &= m
	b &= m
	return CompareFlags{Less: a < b, Equal: a == b}
}

type testDesc struct {
	signed bool
	width  int
}

var testTable = map[asm.OpCode]testDesc{
	asm.OpSTest8: {true, 8}, asm.OpSTest16: {true, 16}, asm.OpSTest32: {true, 32}, asm.OpSTest64: {true, 64},
	asm.OpUTest8: {false, 8}, asm.OpUTest16: {false, 16}, asm.OpUTest32: {false, 32}, asm.OpUTest64: {false, 64},
}

func isTestOp(op asm.OpCode) bool { _, ok := testTable[op]; return ok }

func (vm *VM) execTest(f *ExecutionFrame, op asm.OpCode) {
	d := testTable[op]
	pos := f.IPtr + 1
	v := vm.regAt(f, vm.text[pos])
	if d.signed {
		sv := signExtendTo64(v, d.width)
		vm.flags = CompareFlags{Less: sv < 0, Equal: sv == 0}
		return
	}
	v &= maskOf(d.width)
	vm.flags = CompareFlags{Less: false, Equal: v == 0}
}

// --- set ---

var setTable = map[asm.OpCode]string{
	asm.OpSetE: "eq", asm.OpSetNE: "ne", asm.OpSetL: "l",
	asm.OpSetLE: "le", asm.OpSetG: "g", asm.OpSetGE: "ge",
}

func isSetOp(op asm.OpCode) bool { _, ok := setTable[op]; return ok }

func (vm *VM) execSet(f *ExecutionFrame, op asm.OpCode) {
	cond := setTable[op]
	dest := vm.text[f.IPtr+1]
	var v uint64
	if condTrue(vm.flags, cond) {
		v = 1
	}
	vm.setRegAt(f, dest, v)
}

// --- conversion ---

var convertSet = map[asm.OpCode]bool{
	asm.OpSext1: true, asm.OpSext8: true, asm.OpSext16: true, asm.OpSext32: true,
	asm.OpFext: true, asm.OpFtrunc: true,
	asm.OpS8toF32: true, asm.OpS16toF32: true, asm.OpS32toF32: true, asm.OpS64toF32: true,
	asm.OpU8toF32: true, asm.OpU16toF32: true, asm.OpU32toF32: true, asm.OpU64toF32: true,
	asm.OpS8toF64: true, asm.OpS16toF64: true, asm.OpS32toF64: true, asm.OpS64toF64: true,
	asm.OpU8toF64: true, asm.OpU16toF64: true, asm.OpU32toF64: true, asm.OpU64toF64: true,
	asm.OpF32toS8: true, asm.OpF32toS16: true, asm.OpF32toS32: true, asm.OpF32toS64: true,
	asm.OpF32toU8: true, asm.OpF32toU16: true, asm.OpF32toU32: true, asm.OpF32toU64: true,
	asm.OpF64toS8: true, asm.OpF64toS16: true, asm.OpF64toS32: true, asm.OpF64toS64: true,
	asm.OpF64toU8: true, asm.OpF64toU16: true, asm.OpF64toU32: true, asm.OpF64toU64: true,
}

func isConvertOp(op asm.OpCode) bool { return convertSet[op] }

func intToF32Bits(v uint64, width int, signed bool) uint32 {
	if signed {
		return math.Float32bits(float32(signExtendTo64(v, width)))
	}
	return math.Float32bits(float32(v & maskOf(width)))
}

func intToF64Bits(v uint64, width int, signed bool) uint64 {
	if signed {
		return math.Float64bits(float64(signExtendTo64(v, width)))
	}
	return math.Float64bits(float64(v & maskOf(width)))
}

func f32ToSigned(bits uint32, width int) uint64 {
	f := math.Float32frombits(bits)
	switch width {
	case 8:
		return uint64(int64(int8(f)))
	case 16:
		return uint64(int64(int16(f)))
	case 32:
		return uint64(int64(int32(f)))
	default:
		return uint64(int64(f))
	}
}

func f32ToUnsigned(bits uint32, width int) uint64 {
	f := math.Float32frombits(bits)
	switch width {
	case 8:
		return uint64(uint8(f))
	case 16:
		return uint64(uint16(f))
	case 32:
		return uint64(uint32(f))
	default:
		return uint64(f)
	}
}

func f64ToSigned(bits uint64, width int) uint64 {
	f := math.Float64frombits(bits)
	switch width {
	case 8:
		return uint64(int64(int8(f)))
	case 16:
		return uint64(int64(int16(f)))
	case 32:
		return uint64(int64(int32(f)))
	default:
		return uint64(int64(f))
	}
}

func f64ToUnsigned(bits uint64, width int) uint64 {
	f := math.Float64frombits(bits)
	switch width {
	case 8:
		return uint64(uint8(f))
	case 16:
		return uint64(uint16(f))
	case 32:
		return uint64(uint32(f))
	default:
		return uint64(f)
	}
}

func (vm *VM) execConvert(f *ExecutionFrame, op asm.OpCode) {
	reg := vm.text[f.IPtr+1]
	v := vm.regAt(f, reg)
	var result uint64
	switch op {
	case asm.OpSext1:
		if v&1 != 0 {
			result = ^uint64(0)
		}
	case asm.OpSext8:
		result = uint64(signExtendTo64(v, 8))
	case asm.OpSext16:
		result = uint64(signExtendTo64(v, 16))
	case asm.OpSext32:
		result = uint64(signExtendTo64(v, 32))
	case asm.OpFext:
		result = math.Float64bits(float64(math.Float32frombits(uint32(v))))
	case asm.OpFtrunc:
		result = uint64(math.Float32bits(float32(math.Float64frombits(v))))

	case asm.OpS8toF32:
		result = uint64(intToF32Bits(v, 8, true))
	case asm.OpS16toF32:
		result = uint64(intToF32Bits(v, 16, true))
	case asm.OpS32toF32:
		result = uint64(intToF32Bits(v, 32, true))
	case asm.OpS64toF32:
		result = uint64(intToF32Bits(v, 64, true))
	case asm.OpU8toF32:
		result = uint64(intToF32Bits(v, 8, false))
	case asm.OpU16toF32:
		result = uint64(intToF32Bits(v, 16, false))
	case asm.OpU32toF32:
		result = uint64(intToF32Bits(v, 32, false))
	case asm.OpU64toF32:
		result = uint64(intToF32Bits(v, 64, false))

	case asm.OpS8toF64:
		result = intToF64Bits(v, 8, true)
	case asm.OpS16toF64:
		result = intToF64Bits(v, 16, true)
	case asm.OpS32toF64:
		result = intToF64Bits(v, 32, true)
	case asm.OpS64toF64:
		result = intToF64Bits(v, 64, true)
	case asm.OpU8toF64:
		result = intToF64Bits(v, 8, false)
	case asm.OpU16toF64:
		result = intToF64Bits(v, 16, false)
	case asm.OpU32toF64:
		result = intToF64Bits(v, 32, false)
	case asm.OpU64toF64:
		result = intToF64Bits(v, 64, false)

	case asm.OpF32toS8:
		result = f32ToSigned(uint32(v), 8)
	case asm.OpF32toS16:
		result = f32ToSigned(uint32(v), 16)
	case asm.OpF32toS32:
		result = f32ToSigned(uint32(v), 32)
	case asm.OpF32toS64:
		result = f32ToSigned(uint32(v), 64)
	case asm.OpF32toU8:
		result = f32ToUnsigned(uint32(v), 8)
	case asm.OpF32toU16:
		result = f32ToUnsigned(uint32(v), 16)
	case asm.OpF32toU32:
		result = f32ToUnsigned(uint32(v), 32)
	case asm.OpF32toU64:
		result = f32ToUnsigned(uint32(v), 64)

	case asm.OpF64toS8:
		result = f64ToSigned(v, 8)
	case asm.OpF64toS16:
		result = f64ToSigned(v, 16)
	case asm.OpF64toS32:
		result = f64ToSigned(v, 32)
	case asm.OpF64toS64:
		result = f64ToSigned(v, 64)
	case asm.OpF64toU8:
		result = f64ToUnsigned(v, 8)
	case asm.OpF64toU16:
		result = f64ToUnsigned(v, 16)
	case asm.OpF64toU32:
		result = f64ToUnsigned(v, 32)
	case asm.OpF64toU64:
		result = f64ToUnsigned(v, 64)
	}
	vm.setRegAt(f, reg, result)
}
