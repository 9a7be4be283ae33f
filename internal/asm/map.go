package asm

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/mir"
)

// OperandKind classifies an instruction's source operand for the Map
// tables below, mirroring Assembly2's ValueType discriminant
// (RegisterIndex/MemoryAddress/Value{8,16,32,64}/LabelPosition) collapsed to
// the three shapes the assembler's Map tables actually branch on.
type OperandKind int

const (
	KindRegister OperandKind = iota
	KindMemory
	KindImmediate
)

// mapMove picks the mov opcode for a register destination, grounded on
// Map.cc's mapMove. Register-to-register moves are always the 64-bit form;
// narrower widths only apply to RM/MR, where the width is the memory
// access's own byte count.
func mapMove(src OperandKind, width int) (OpCode, error) {
	switch src {
	case KindRegister:
		return OpMov64RR, nil
	case KindImmediate:
		return OpMov64RV, nil
	case KindMemory:
		switch width {
		case 1:
			return OpMov8RM, nil
		case 2:
			return OpMov16RM, nil
		case 4:
			return OpMov32RM, nil
		case 8:
			return OpMov64RM, nil
		}
	}
	return 0, fmt.Errorf("asm: no mov opcode for source kind %d width %d", src, width)
}

// mapMoveToMemory picks the mov opcode storing a register into memory.
func mapMoveToMemory(width int) (OpCode, error) {
	switch width {
	case 1:
		return OpMov8MR, nil
	case 2:
		return OpMov16MR, nil
	case 4:
		return OpMov32MR, nil
	case 8:
		return OpMov64MR, nil
	}
	return 0, fmt.Errorf("asm: no mov-to-memory opcode for width %d", width)
}

var cmovRR = map[mir.CompareOperation]OpCode{
	mir.CompareEqual: OpCMovE64RR, mir.CompareNotEqual: OpCMovNE64RR,
	mir.CompareLess: OpCMovL64RR, mir.CompareLessEqual: OpCMovLE64RR,
	mir.CompareGreater: OpCMovG64RR, mir.CompareGreaterEqual: OpCMovGE64RR,
}

var cmovRV = map[mir.CompareOperation]OpCode{
	mir.CompareEqual: OpCMovE64RV, mir.CompareNotEqual: OpCMovNE64RV,
	mir.CompareLess: OpCMovL64RV, mir.CompareLessEqual: OpCMovLE64RV,
	mir.CompareGreater: OpCMovG64RV, mir.CompareGreaterEqual: OpCMovGE64RV,
}

var cmovRM = map[mir.CompareOperation][4]OpCode{
	// indexed by width/8 bucket: [0]=8bit [1]=16bit [2]=32bit [3]=64bit
	mir.CompareEqual:        {OpCMovE8RM, OpCMovE16RM, OpCMovE32RM, OpCMovE64RM},
	mir.CompareNotEqual:     {OpCMovNE8RM, OpCMovNE16RM, OpCMovNE32RM, OpCMovNE64RM},
	mir.CompareLess:         {OpCMovL8RM, OpCMovL16RM, OpCMovL32RM, OpCMovL64RM},
	mir.CompareLessEqual:    {OpCMovLE8RM, OpCMovLE16RM, OpCMovLE32RM, OpCMovLE64RM},
	mir.CompareGreater:      {OpCMovG8RM, OpCMovG16RM, OpCMovG32RM, OpCMovG64RM},
	mir.CompareGreaterEqual: {OpCMovGE8RM, OpCMovGE16RM, OpCMovGE32RM, OpCMovGE64RM},
}

func widthBucket(width int) (int, error) {
	switch width {
	case 8:
		return 0, nil
	case 16:
		return 1, nil
	case 32:
		return 2, nil
	case 64:
		return 3, nil
	}
	return 0, fmt.Errorf("asm: unsupported operand width %d", width)
}

// mapCMove picks the conditional-move opcode, grounded on Map.cc's
// mapCMove (dest is always a register).
func mapCMove(cond mir.CompareOperation, src OperandKind, width int) (OpCode, error) {
	switch src {
	case KindRegister:
		if op, ok := cmovRR[cond]; ok {
			return op, nil
		}
	case KindImmediate:
		if op, ok := cmovRV[cond]; ok {
			return op, nil
		}
	case KindMemory:
		bucket, err := widthBucket(width)
		if err != nil {
			return 0, err
		}
		if ops, ok := cmovRM[cond]; ok {
			return ops[bucket], nil
		}
	}
	return 0, fmt.Errorf("asm: no cmov opcode for condition %s kind %d", cond, src)
}

var jumpOpcodes = map[mir.CompareOperation]OpCode{
	mir.CompareEqual: OpJe, mir.CompareNotEqual: OpJne,
	mir.CompareLess: OpJl, mir.CompareLessEqual: OpJle,
	mir.CompareGreater: OpJg, mir.CompareGreaterEqual: OpJge,
}

// mapJump picks the conditional jump opcode for cond, falling back to OpJmp
// for a condition with no conditional jump. An unconditional MIR Jump does
// not come through here: lower.go emits OpJmp for it directly.
func mapJump(cond mir.CompareOperation) OpCode {
	if op, ok := jumpOpcodes[cond]; ok {
		return op
	}
	return OpJmp
}

func mapSet(cond mir.CompareOperation) (OpCode, error) {
	switch cond {
	case mir.CompareEqual:
		return OpSetE, nil
	case mir.CompareNotEqual:
		return OpSetNE, nil
	case mir.CompareLess:
		return OpSetL, nil
	case mir.CompareLessEqual:
		return OpSetLE, nil
	case mir.CompareGreater:
		return OpSetG, nil
	case mir.CompareGreaterEqual:
		return OpSetGE, nil
	}
	return 0, fmt.Errorf("asm: no set opcode for condition %s", cond)
}

// mapCompare picks the compare opcode from signedness/floatness, operand
// kind and width, grounded on Map.cc's mapCompare. Register/immediate
// compares are width-specific; float compares only exist at 32/64 bits.
func mapCompare(signed, isFloat bool, src OperandKind, width int) (OpCode, error) {
	if isFloat {
		switch {
		case src == KindRegister && width == 32:
			return OpFCmp32RR, nil
		case src == KindRegister && width == 64:
			return OpFCmp64RR, nil
		case src == KindImmediate && width == 32:
			return OpFCmp32RV, nil
		case src == KindImmediate && width == 64:
			return OpFCmp64RV, nil
		}
		return 0, fmt.Errorf("asm: no float compare opcode for width %d", width)
	}
	tableRR := map[int]map[bool]OpCode{
		8:  {true: OpSCmp8RR, false: OpUCmp8RR},
		16: {true: OpSCmp16RR, false: OpUCmp16RR},
		32: {true: OpSCmp32RR, false: OpUCmp32RR},
		64: {true: OpSCmp64RR, false: OpUCmp64RR},
	}
	tableRV := map[int]map[bool]OpCode{
		8:  {true: OpSCmp8RV, false: OpUCmp8RV},
		16: {true: OpSCmp16RV, false: OpUCmp16RV},
		32: {true: OpSCmp32RV, false: OpUCmp32RV},
		64: {true: OpSCmp64RV, false: OpUCmp64RV},
	}
	var table map[int]map[bool]OpCode
	switch src {
	case KindRegister:
		table = tableRR
	case KindImmediate:
		table = tableRV
	default:
		return 0, fmt.Errorf("asm: compare has no memory-operand encoding")
	}
	if byWidth, ok := table[width]; ok {
		return byWidth[signed], nil
	}
	return 0, fmt.Errorf("asm: no compare opcode for width %d", width)
}

func mapTest(signed bool, width int) (OpCode, error) {
	table := map[int]map[bool]OpCode{
		8:  {true: OpSTest8, false: OpUTest8},
		16: {true: OpSTest16, false: OpUTest16},
		32: {true: OpSTest32, false: OpUTest32},
		64: {true: OpSTest64, false: OpUTest64},
	}
	if byWidth, ok := table[width]; ok {
		return byWidth[signed], nil
	}
	return 0, fmt.Errorf("asm: no test opcode for width %d", width)
}

// mapArithmetic picks the arithmetic opcode from op/src/width, grounded on
// Map.cc's mapArithmetic64/mapArithmetic32. Only 32- and 64-bit widths have
// arithmetic opcodes; the IR never produces narrower arithmetic directly
// (narrower values are sign/zero-extended first).
func mapArithmetic(op mir.ArithOp, src OperandKind, width int) (OpCode, error) {
	var table map[mir.ArithOp][3]OpCode
	switch width {
	case 64:
		table = arith64
	case 32:
		table = arith32
	default:
		return 0, fmt.Errorf("asm: no arithmetic opcode family for width %d", width)
	}
	ops, ok := table[op]
	if !ok {
		return 0, fmt.Errorf("asm: no arithmetic opcode for operation %s", op)
	}
	switch src {
	case KindRegister:
		return ops[0], nil
	case KindImmediate:
		return ops[1], nil
	case KindMemory:
		return ops[2], nil
	}
	return 0, fmt.Errorf("asm: unknown arithmetic operand kind %d", src)
}

// arith64/arith32 index by [RR, RV, RM].
var arith64 = map[mir.ArithOp][3]OpCode{
	mir.ArithAdd:  {OpAdd64RR, OpAdd64RV, OpAdd64RM},
	mir.ArithSub:  {OpSub64RR, OpSub64RV, OpSub64RM},
	mir.ArithMul:  {OpMul64RR, OpMul64RV, OpMul64RM},
	mir.ArithUDiv: {OpUDiv64RR, OpUDiv64RV, OpUDiv64RM},
	mir.ArithSDiv: {OpSDiv64RR, OpSDiv64RV, OpSDiv64RM},
	mir.ArithURem: {OpURem64RR, OpURem64RV, OpURem64RM},
	mir.ArithSRem: {OpSRem64RR, OpSRem64RV, OpSRem64RM},
	mir.ArithFAdd: {OpFAdd64RR, OpFAdd64RV, OpFAdd64RM},
	mir.ArithFSub: {OpFSub64RR, OpFSub64RV, OpFSub64RM},
	mir.ArithFMul: {OpFMul64RR, OpFMul64RV, OpFMul64RM},
	mir.ArithFDiv: {OpFDiv64RR, OpFDiv64RV, OpFDiv64RM},
	mir.ArithLSL:  {OpLsl64RR, OpLsl64RV, OpLsl64RM},
	mir.ArithLSR:  {OpLsr64RR, OpLsr64RV, OpLsr64RM},
	mir.ArithASR:  {OpAsr64RR, OpAsr64RV, OpAsr64RM},
	mir.ArithAnd:  {OpAnd64RR, OpAnd64RV, OpAnd64RM},
	mir.ArithOr:   {OpOr64RR, OpOr64RV, OpOr64RM},
	mir.ArithXor:  {OpXor64RR, OpXor64RV, OpXor64RM},
}

var arith32 = map[mir.ArithOp][3]OpCode{
	mir.ArithAdd:  {OpAdd32RR, OpAdd32RV, OpAdd32RM},
	mir.ArithSub:  {OpSub32RR, OpSub32RV, OpSub32RM},
	mir.ArithMul:  {OpMul32RR, OpMul32RV, OpMul32RM},
	mir.ArithUDiv: {OpUDiv32RR, OpUDiv32RV, OpUDiv32RM},
	mir.ArithSDiv: {OpSDiv32RR, OpSDiv32RV, OpSDiv32RM},
	mir.ArithURem: {OpURem32RR, OpURem32RV, OpURem32RM},
	mir.ArithSRem: {OpSRem32RR, OpSRem32RV, OpSRem32RM},
	mir.ArithFAdd: {OpFAdd32RR, OpFAdd32RV, OpFAdd32RM},
	mir.ArithFSub: {OpFSub32RR, OpFSub32RV, OpFSub32RM},
	mir.ArithFMul: {OpFMul32RR, OpFMul32RV, OpFMul32RM},
	mir.ArithFDiv: {OpFDiv32RR, OpFDiv32RV, OpFDiv32RM},
	mir.ArithLSL:  {OpLsl32RR, OpLsl32RV, OpLsl32RM},
	mir.ArithLSR:  {OpLsr32RR, OpLsr32RV, OpLsr32RM},
	mir.ArithASR:  {OpAsr32RR, OpAsr32RV, OpAsr32RM},
	mir.ArithAnd:  {OpAnd32RR, OpAnd32RV, OpAnd32RM},
	mir.ArithOr:   {OpOr32RR, OpOr32RV, OpOr32RM},
	mir.ArithXor:  {OpXor32RR, OpXor32RV, OpXor32RM},
}

// mapUnary picks the in-place unary opcode.
func mapUnary(op mir.ArithOp, width int) (OpCode, error) {
	switch op {
	case mir.ArithLogNot:
		return OpLnt, nil
	case mir.ArithBitNot:
		return OpBnt, nil
	case mir.ArithNeg, mir.ArithFNeg:
		switch width {
		case 8:
			return OpNeg8, nil
		case 16:
			return OpNeg16, nil
		case 32:
			return OpNeg32, nil
		case 64:
			return OpNeg64, nil
		}
	}
	return 0, fmt.Errorf("asm: no unary opcode for operation %s width %d", op, width)
}

// mapConvert picks the conversion opcode, grounded on Map.cc's absence of a
// dedicated conversion table (the source dispatches these directly by
// static type in LowerToMIR2.cc); this table replicates the same pairing
// enumerated by Execution.cc's INST(s8tof32)... block.
//
// ConvIntExt is keyed by fromWidth, not toWidth: registers are always full
// 64-bit words, so sign/zero-extension only cares how narrow the source
// value's meaningful bits are (sext1 extends a 1-bit bool, sext8/16/32 a
// byte/half/word) — there is no separate opcode per destination width
// because the destination is always the full register.
func mapConvert(kind mir.ConversionKind, fromWidth, toWidth int, signed bool) (OpCode, error) {
	switch kind {
	case mir.ConvIntExt:
		switch fromWidth {
		case 1:
			return OpSext1, nil
		case 8:
			return OpSext8, nil
		case 16:
			return OpSext16, nil
		case 32:
			return OpSext32, nil
		}
	case mir.ConvFloatExt:
		return OpFext, nil
	case mir.ConvFloatTrunc:
		return OpFtrunc, nil
	case mir.ConvIntToFloat:
		return mapIntToFloat(fromWidth, toWidth, signed)
	case mir.ConvFloatToInt:
		return mapFloatToInt(fromWidth, toWidth, signed)
	}
	return 0, fmt.Errorf("asm: no conversion opcode for kind %d", kind)
}

var intToF32 = map[int][2]OpCode{
	8: {OpS8toF32, OpU8toF32}, 16: {OpS16toF32, OpU16toF32},
	32: {OpS32toF32, OpU32toF32}, 64: {OpS64toF32, OpU64toF32},
}

var intToF64 = map[int][2]OpCode{
	8: {OpS8toF64, OpU8toF64}, 16: {OpS16toF64, OpU16toF64},
	32: {OpS32toF64, OpU32toF64}, 64: {OpS64toF64, OpU64toF64},
}

func mapIntToFloat(fromWidth, toWidth int, signed bool) (OpCode, error) {
	idx := 1
	if signed {
		idx = 0
	}
	var table map[int][2]OpCode
	switch toWidth {
	case 32:
		table = intToF32
	case 64:
		table = intToF64
	default:
		return 0, fmt.Errorf("asm: int-to-float conversion needs a 32/64-bit float destination")
	}
	ops, ok := table[fromWidth]
	if !ok {
		return 0, fmt.Errorf("asm: no int-to-float opcode for source width %d", fromWidth)
	}
	return ops[idx], nil
}

var f32ToInt = map[int][2]OpCode{
	8: {OpF32toS8, OpF32toU8}, 16: {OpF32toS16, OpF32toU16},
	32: {OpF32toS32, OpF32toU32}, 64: {OpF32toS64, OpF32toU64},
}

var f64ToInt = map[int][2]OpCode{
	8: {OpF64toS8, OpF64toU8}, 16: {OpF64toS16, OpF64toU16},
	32: {OpF64toS32, OpF64toU32}, 64: {OpF64toS64, OpF64toU64},
}

func mapFloatToInt(fromWidth, toWidth int, signed bool) (OpCode, error) {
	idx := 1
	if signed {
		idx = 0
	}
	var table map[int][2]OpCode
	switch fromWidth {
	case 32:
		table = f32ToInt
	case 64:
		table = f64ToInt
	default:
		return 0, fmt.Errorf("asm: float-to-int conversion needs a 32/64-bit float source")
	}
	ops, ok := table[toWidth]
	if !ok {
		return 0, fmt.Errorf("asm: no float-to-int opcode for destination width %d", toWidth)
	}
	return ops[idx], nil
}

func mapCall(kind OperandKind) OpCode {
	switch kind {
	case KindMemory:
		return OpICallM
	case KindRegister:
		return OpICallR
	default:
		return OpCall
	}
}
