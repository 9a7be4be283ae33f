package svm

import "github.com/cwbudde/go-dws/internal/asm"

// instrSize maps each opcode to the number of bytes its encoded instruction
// occupies, including the opcode byte itself. Grounded on the operand shapes
// internal/asm emits for each opcode (internal/asm/map.go) together with the
// RV-immediate widths used there (8 bytes for 64-bit-typed RV forms, 4 bytes
// for 32-bit/float32-typed RV forms, 1 byte for the 8-bit compare immediate,
// 2 bytes for the 16-bit compare immediate) and the fixed 4-byte memory
// operand tuple (internal/asm/elements.go's MemoryOperand).
var instrSize [256]int

func set(n int, ops ...asm.OpCode) {
	for _, op := range ops {
		instrSize[op] = n
	}
}

func init() {
	// No operands.
	set(1, asm.OpRet, asm.OpTerminate)

	// Single register operand: unary ops, test, set, conversions.
	set(2,
		asm.OpLnt, asm.OpBnt, asm.OpNeg8, asm.OpNeg16, asm.OpNeg32, asm.OpNeg64,
		asm.OpSTest8, asm.OpSTest16, asm.OpSTest32, asm.OpSTest64,
		asm.OpUTest8, asm.OpUTest16, asm.OpUTest32, asm.OpUTest64,
		asm.OpSetE, asm.OpSetNE, asm.OpSetL, asm.OpSetLE, asm.OpSetG, asm.OpSetGE,
		asm.OpSext1, asm.OpSext8, asm.OpSext16, asm.OpSext32, asm.OpFext, asm.OpFtrunc,
		asm.OpS8toF32, asm.OpS16toF32, asm.OpS32toF32, asm.OpS64toF32,
		asm.OpU8toF32, asm.OpU16toF32, asm.OpU32toF32, asm.OpU64toF32,
		asm.OpS8toF64, asm.OpS16toF64, asm.OpS32toF64, asm.OpS64toF64,
		asm.OpU8toF64, asm.OpU16toF64, asm.OpU32toF64, asm.OpU64toF64,
		asm.OpF32toS8, asm.OpF32toS16, asm.OpF32toS32, asm.OpF32toS64,
		asm.OpF32toU8, asm.OpF32toU16, asm.OpF32toU32, asm.OpF32toU64,
		asm.OpF64toS8, asm.OpF64toS16, asm.OpF64toS32, asm.OpF64toS64,
		asm.OpF64toU8, asm.OpF64toU16, asm.OpF64toU32, asm.OpF64toU64,
	)

	// Two register operands (RR), register + 1-byte immediate (8RV).
	set(3,
		asm.OpMov64RR,
		asm.OpCMovE64RR, asm.OpCMovNE64RR, asm.OpCMovL64RR, asm.OpCMovLE64RR, asm.OpCMovG64RR, asm.OpCMovGE64RR,
		asm.OpICallR,
		asm.OpAdd64RR, asm.OpSub64RR, asm.OpMul64RR, asm.OpUDiv64RR, asm.OpSDiv64RR, asm.OpURem64RR, asm.OpSRem64RR,
		asm.OpAdd32RR, asm.OpSub32RR, asm.OpMul32RR, asm.OpUDiv32RR, asm.OpSDiv32RR, asm.OpURem32RR, asm.OpSRem32RR,
		asm.OpFAdd64RR, asm.OpFSub64RR, asm.OpFMul64RR, asm.OpFDiv64RR,
		asm.OpFAdd32RR, asm.OpFSub32RR, asm.OpFMul32RR, asm.OpFDiv32RR,
		asm.OpLsl64RR, asm.OpLsr64RR, asm.OpAsl64RR, asm.OpAsr64RR,
		asm.OpLsl32RR, asm.OpLsr32RR, asm.OpAsl32RR, asm.OpAsr32RR,
		asm.OpAnd64RR, asm.OpOr64RR, asm.OpXor64RR,
		asm.OpAnd32RR, asm.OpOr32RR, asm.OpXor32RR,
		asm.OpUCmp8RR, asm.OpUCmp16RR, asm.OpUCmp32RR, asm.OpUCmp64RR,
		asm.OpSCmp8RR, asm.OpSCmp16RR, asm.OpSCmp32RR, asm.OpSCmp64RR,
		asm.OpUCmp8RV, asm.OpSCmp8RV,
		asm.OpFCmp32RR, asm.OpFCmp64RR,
	)

	// Register + 16-bit immediate or operand (lincsp/cfng/cbltn), and the
	// 16-bit-wide compare immediate.
	set(4, asm.OpLincsp, asm.OpCfng, asm.OpCbltn, asm.OpUCmp16RV, asm.OpSCmp16RV)

	// 4-byte relative jump offset only.
	set(5, asm.OpJmp, asm.OpJe, asm.OpJne, asm.OpJl, asm.OpJle, asm.OpJg, asm.OpJge)

	// Register + 4-byte memory-operand tuple, lea, icallm, call
	// (4-byte offset + 1-byte register-window delta), and 32-bit-width RV
	// forms (register + 4-byte immediate).
	set(6,
		asm.OpMov8MR, asm.OpMov16MR, asm.OpMov32MR, asm.OpMov64MR,
		asm.OpMov8RM, asm.OpMov16RM, asm.OpMov32RM, asm.OpMov64RM,
		asm.OpCMovE8RM, asm.OpCMovE16RM, asm.OpCMovE32RM, asm.OpCMovE64RM,
		asm.OpCMovNE8RM, asm.OpCMovNE16RM, asm.OpCMovNE32RM, asm.OpCMovNE64RM,
		asm.OpCMovL8RM, asm.OpCMovL16RM, asm.OpCMovL32RM, asm.OpCMovL64RM,
		asm.OpCMovLE8RM, asm.OpCMovLE16RM, asm.OpCMovLE32RM, asm.OpCMovLE64RM,
		asm.OpCMovG8RM, asm.OpCMovG16RM, asm.OpCMovG32RM, asm.OpCMovG64RM,
		asm.OpCMovGE8RM, asm.OpCMovGE16RM, asm.OpCMovGE32RM, asm.OpCMovGE64RM,
		asm.OpLea, asm.OpICallM, asm.OpCall,
		asm.OpAdd64RM, asm.OpSub64RM, asm.OpMul64RM, asm.OpUDiv64RM, asm.OpSDiv64RM, asm.OpURem64RM, asm.OpSRem64RM,
		asm.OpAdd32RM, asm.OpSub32RM, asm.OpMul32RM, asm.OpUDiv32RM, asm.OpSDiv32RM, asm.OpURem32RM, asm.OpSRem32RM,
		asm.OpAdd32RV, asm.OpSub32RV, asm.OpMul32RV, asm.OpUDiv32RV, asm.OpSDiv32RV, asm.OpURem32RV, asm.OpSRem32RV,
		asm.OpFAdd64RM, asm.OpFSub64RM, asm.OpFMul64RM, asm.OpFDiv64RM,
		asm.OpFAdd32RM, asm.OpFSub32RM, asm.OpFMul32RM, asm.OpFDiv32RM,
		asm.OpFAdd32RV, asm.OpFSub32RV, asm.OpFMul32RV, asm.OpFDiv32RV,
		asm.OpLsl64RM, asm.OpLsr64RM, asm.OpAsl64RM, asm.OpAsr64RM,
		asm.OpLsl32RM, asm.OpLsr32RM, asm.OpAsl32RM, asm.OpAsr32RM,
		asm.OpLsl32RV, asm.OpLsr32RV, asm.OpAsl32RV, asm.OpAsr32RV,
		asm.OpAnd64RM, asm.OpOr64RM, asm.OpXor64RM,
		asm.OpAnd32RM, asm.OpOr32RM, asm.OpXor32RM,
		asm.OpAnd32RV, asm.OpOr32RV, asm.OpXor32RV,
		asm.OpUCmp32RV, asm.OpSCmp32RV, asm.OpFCmp32RV,
	)

	// Register + 8-byte immediate: the 64-bit-width RV forms.
	set(10,
		asm.OpMov64RV,
		asm.OpCMovE64RV, asm.OpCMovNE64RV, asm.OpCMovL64RV, asm.OpCMovLE64RV, asm.OpCMovG64RV, asm.OpCMovGE64RV,
		asm.OpUCmp64RV, asm.OpSCmp64RV, asm.OpFCmp64RV,
		asm.OpAdd64RV, asm.OpSub64RV, asm.OpMul64RV, asm.OpUDiv64RV, asm.OpSDiv64RV, asm.OpURem64RV, asm.OpSRem64RV,
		asm.OpFAdd64RV, asm.OpFSub64RV, asm.OpFMul64RV, asm.OpFDiv64RV,
		asm.OpLsl64RV, asm.OpLsr64RV, asm.OpAsl64RV, asm.OpAsr64RV,
		asm.OpAnd64RV, asm.OpOr64RV, asm.OpXor64RV,
	)
}

// codeSize returns the byte length of the instruction whose opcode is op,
// or 0 if op is not a recognized opcode.
func codeSize(op asm.OpCode) int {
	return instrSize[op]
}
