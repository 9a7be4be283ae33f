// Package asm lowers Machine IR into an ordered stream of assembly elements
// and assembles that stream into a byte-code text section, grounded on
// original_source/lib/Assembly2/{Assembler.cc,Elements.{h,cc},Print.cc} and
// original_source/src/scatha/Assembly/Map.cc for the opcode tables. The full
// instruction set (every byte value below) is taken from the exhaustive
// dispatch in original_source/svm/lib/Execution.cc, the variant that still
// carries icallr/icallm/cfng/cbltn/neg and the itof/ftoi conversion pairs
// that the spec's instruction-set categories name explicitly.
package asm

// OpCode is the VM's single-byte instruction opcode.
type OpCode byte

const (
	// Moves. Register-to-register moves are always 64-bit: registers hold
	// 64-bit cells, so mov8RR/mov16RR/mov32RR don't exist, only mov64RR.
	OpMov64RR OpCode = iota
	OpMov64RV
	OpMov8MR
	OpMov16MR
	OpMov32MR
	OpMov64MR
	OpMov8RM
	OpMov16RM
	OpMov32RM
	OpMov64RM

	// Conditional moves, one family per compare condition.
	OpCMovE64RR
	OpCMovE64RV
	OpCMovE8RM
	OpCMovE16RM
	OpCMovE32RM
	OpCMovE64RM

	OpCMovNE64RR
	OpCMovNE64RV
	OpCMovNE8RM
	OpCMovNE16RM
	OpCMovNE32RM
	OpCMovNE64RM

	OpCMovL64RR
	OpCMovL64RV
	OpCMovL8RM
	OpCMovL16RM
	OpCMovL32RM
	OpCMovL64RM

	OpCMovLE64RR
	OpCMovLE64RV
	OpCMovLE8RM
	OpCMovLE16RM
	OpCMovLE32RM
	OpCMovLE64RM

	OpCMovG64RR
	OpCMovG64RV
	OpCMovG8RM
	OpCMovG16RM
	OpCMovG32RM
	OpCMovG64RM

	OpCMovGE64RR
	OpCMovGE64RV
	OpCMovGE8RM
	OpCMovGE16RM
	OpCMovGE32RM
	OpCMovGE64RM

	// Stack and address.
	OpLincsp
	OpLea

	// Control transfer.
	OpJmp
	OpJe
	OpJne
	OpJl
	OpJle
	OpJg
	OpJge
	OpCall
	OpICallR
	OpICallM
	OpRet
	OpTerminate
	OpCfng
	OpCbltn

	// Arithmetic, 64-bit.
	OpAdd64RR
	OpAdd64RV
	OpAdd64RM
	OpSub64RR
	OpSub64RV
	OpSub64RM
	OpMul64RR
	OpMul64RV
	OpMul64RM
	OpUDiv64RR
	OpUDiv64RV
	OpUDiv64RM
	OpSDiv64RR
	OpSDiv64RV
	OpSDiv64RM
	OpURem64RR
	OpURem64RV
	OpURem64RM
	OpSRem64RR
	OpSRem64RV
	OpSRem64RM

	// Arithmetic, 32-bit.
	OpAdd32RR
	OpAdd32RV
	OpAdd32RM
	OpSub32RR
	OpSub32RV
	OpSub32RM
	OpMul32RR
	OpMul32RV
	OpMul32RM
	OpUDiv32RR
	OpUDiv32RV
	OpUDiv32RM
	OpSDiv32RR
	OpSDiv32RV
	OpSDiv32RM
	OpURem32RR
	OpURem32RV
	OpURem32RM
	OpSRem32RR
	OpSRem32RV
	OpSRem32RM

	// Float arithmetic, 64-bit then 32-bit.
	OpFAdd64RR
	OpFAdd64RV
	OpFAdd64RM
	OpFSub64RR
	OpFSub64RV
	OpFSub64RM
	OpFMul64RR
	OpFMul64RV
	OpFMul64RM
	OpFDiv64RR
	OpFDiv64RV
	OpFDiv64RM

	OpFAdd32RR
	OpFAdd32RV
	OpFAdd32RM
	OpFSub32RR
	OpFSub32RV
	OpFSub32RM
	OpFMul32RR
	OpFMul32RV
	OpFMul32RM
	OpFDiv32RR
	OpFDiv32RV
	OpFDiv32RM

	// Shifts, 64-bit then 32-bit: logical (lsl/lsr) and arithmetic (asl/asr).
	OpLsl64RR
	OpLsl64RV
	OpLsl64RM
	OpLsr64RR
	OpLsr64RV
	OpLsr64RM

	OpLsl32RR
	OpLsl32RV
	OpLsl32RM
	OpLsr32RR
	OpLsr32RV
	OpLsr32RM

	OpAsl64RR
	OpAsl64RV
	OpAsl64RM
	OpAsr64RR
	OpAsr64RV
	OpAsr64RM

	OpAsl32RR
	OpAsl32RV
	OpAsl32RM
	OpAsr32RR
	OpAsr32RV
	OpAsr32RM

	// Bitwise, 64-bit then 32-bit.
	OpAnd64RR
	OpAnd64RV
	OpAnd64RM
	OpOr64RR
	OpOr64RV
	OpOr64RM
	OpXor64RR
	OpXor64RV
	OpXor64RM

	OpAnd32RR
	OpAnd32RV
	OpAnd32RM
	OpOr32RR
	OpOr32RV
	OpOr32RM
	OpXor32RR
	OpXor32RV
	OpXor32RM

	// Unary.
	OpLnt
	OpBnt
	OpNeg8
	OpNeg16
	OpNeg32
	OpNeg64

	// Compare.
	OpUCmp8RR
	OpUCmp16RR
	OpUCmp32RR
	OpUCmp64RR
	OpSCmp8RR
	OpSCmp16RR
	OpSCmp32RR
	OpSCmp64RR
	OpUCmp8RV
	OpUCmp16RV
	OpUCmp32RV
	OpUCmp64RV
	OpSCmp8RV
	OpSCmp16RV
	OpSCmp32RV
	OpSCmp64RV
	OpFCmp32RR
	OpFCmp64RR
	OpFCmp32RV
	OpFCmp64RV

	// Test (single operand vs zero).
	OpSTest8
	OpSTest16
	OpSTest32
	OpSTest64
	OpUTest8
	OpUTest16
	OpUTest32
	OpUTest64

	// Set (materialize a condition as 0/1).
	OpSetE
	OpSetNE
	OpSetL
	OpSetLE
	OpSetG
	OpSetGE

	// Conversion.
	OpSext1
	OpSext8
	OpSext16
	OpSext32
	OpFext
	OpFtrunc

	OpS8toF32
	OpS16toF32
	OpS32toF32
	OpS64toF32
	OpU8toF32
	OpU16toF32
	OpU32toF32
	OpU64toF32
	OpS8toF64
	OpS16toF64
	OpS32toF64
	OpS64toF64
	OpU8toF64
	OpU16toF64
	OpU32toF64
	OpU64toF64

	OpF32toS8
	OpF32toS16
	OpF32toS32
	OpF32toS64
	OpF32toU8
	OpF32toU16
	OpF32toU32
	OpF32toU64
	OpF64toS8
	OpF64toS16
	OpF64toS32
	OpF64toS64
	OpF64toU8
	OpF64toU16
	OpF64toU32
	OpF64toU64

	opcodeCount
)

var mnemonics = [opcodeCount]string{
	OpMov64RR: "mov64RR", OpMov64RV: "mov64RV",
	OpMov8MR: "mov8MR", OpMov16MR: "mov16MR", OpMov32MR: "mov32MR", OpMov64MR: "mov64MR",
	OpMov8RM: "mov8RM", OpMov16RM: "mov16RM", OpMov32RM: "mov32RM", OpMov64RM: "mov64RM",

	OpCMovE64RR: "cmove64RR", OpCMovE64RV: "cmove64RV",
	OpCMovE8RM: "cmove8RM", OpCMovE16RM: "cmove16RM", OpCMovE32RM: "cmove32RM", OpCMovE64RM: "cmove64RM",
	OpCMovNE64RR: "cmovne64RR", OpCMovNE64RV: "cmovne64RV",
	OpCMovNE8RM: "cmovne8RM", OpCMovNE16RM: "cmovne16RM", OpCMovNE32RM: "cmovne32RM", OpCMovNE64RM: "cmovne64RM",
	OpCMovL64RR: "cmovl64RR", OpCMovL64RV: "cmovl64RV",
	OpCMovL8RM: "cmovl8RM", OpCMovL16RM: "cmovl16RM", OpCMovL32RM: "cmovl32RM", OpCMovL64RM: "cmovl64RM",
	OpCMovLE64RR: "cmovle64RR", OpCMovLE64RV: "cmovle64RV",
	OpCMovLE8RM: "cmovle8RM", OpCMovLE16RM: "cmovle16RM", OpCMovLE32RM: "cmovle32RM", OpCMovLE64RM: "cmovle64RM",
	OpCMovG64RR: "cmovg64RR", OpCMovG64RV: "cmovg64RV",
	OpCMovG8RM: "cmovg8RM", OpCMovG16RM: "cmovg16RM", OpCMovG32RM: "cmovg32RM", OpCMovG64RM: "cmovg64RM",
	OpCMovGE64RR: "cmovge64RR", OpCMovGE64RV: "cmovge64RV",
	OpCMovGE8RM: "cmovge8RM", OpCMovGE16RM: "cmovge16RM", OpCMovGE32RM: "cmovge32RM", OpCMovGE64RM: "cmovge64RM",

	OpLincsp: "lincsp", OpLea: "lea",

	OpJmp: "jmp", OpJe: "je", OpJne: "jne", OpJl: "jl", OpJle: "jle", OpJg: "jg", OpJge: "jge",
	OpCall: "call", OpICallR: "icallr", OpICallM: "icallm",
	OpRet: "ret", OpTerminate: "terminate", OpCfng: "cfng", OpCbltn: "cbltn",

	OpAdd64RR: "add64RR", OpAdd64RV: "add64RV", OpAdd64RM: "add64RM",
	OpSub64RR: "sub64RR", OpSub64RV: "sub64RV", OpSub64RM: "sub64RM",
	OpMul64RR: "mul64RR", OpMul64RV: "mul64RV", OpMul64RM: "mul64RM",
	OpUDiv64RR: "udiv64RR", OpUDiv64RV: "udiv64RV", OpUDiv64RM: "udiv64RM",
	OpSDiv64RR: "sdiv64RR", OpSDiv64RV: "sdiv64RV", OpSDiv64RM: "sdiv64RM",
	OpURem64RR: "urem64RR", OpURem64RV: "urem64RV", OpURem64RM: "urem64RM",
	OpSRem64RR: "srem64RR", OpSRem64RV: "srem64RV", OpSRem64RM: "srem64RM",

	OpAdd32RR: "add32RR", OpAdd32RV: "add32RV", OpAdd32RM: "add32RM",
	OpSub32RR: "sub32RR", OpSub32RV: "sub32RV", OpSub32RM: "sub32RM",
	OpMul32RR: "mul32RR", OpMul32RV: "mul32RV", OpMul32RM: "mul32RM",
	OpUDiv32RR: "udiv32RR", OpUDiv32RV: "udiv32RV", OpUDiv32RM: "udiv32RM",
	OpSDiv32RR: "sdiv32RR", OpSDiv32RV: "sdiv32RV", OpSDiv32RM: "sdiv32RM",
	OpURem32RR: "urem32RR", OpURem32RV: "urem32RV", OpURem32RM: "urem32RM",
	OpSRem32RR: "srem32RR", OpSRem32RV: "srem32RV", OpSRem32RM: "srem32RM",

	OpFAdd64RR: "fadd64RR", OpFAdd64RV: "fadd64RV", OpFAdd64RM: "fadd64RM",
	OpFSub64RR: "fsub64RR", OpFSub64RV: "fsub64RV", OpFSub64RM: "fsub64RM",
	OpFMul64RR: "fmul64RR", OpFMul64RV: "fmul64RV", OpFMul64RM: "fmul64RM",
	OpFDiv64RR: "fdiv64RR", OpFDiv64RV: "fdiv64RV", OpFDiv64RM: "fdiv64RM",

	OpFAdd32RR: "fadd32RR", OpFAdd32RV: "fadd32RV", OpFAdd32RM: "fadd32RM",
	OpFSub32RR: "fsub32RR", OpFSub32RV: "fsub32RV", OpFSub32RM: "fsub32RM",
	OpFMul32RR: "fmul32RR", OpFMul32RV: "fmul32RV", OpFMul32RM: "fmul32RM",
	OpFDiv32RR: "fdiv32RR", OpFDiv32RV: "fdiv32RV", OpFDiv32RM: "fdiv32RM",

	OpLsl64RR: "lsl64RR", OpLsl64RV: "lsl64RV", OpLsl64RM: "lsl64RM",
	OpLsr64RR: "lsr64RR", OpLsr64RV: "lsr64RV", OpLsr64RM: "lsr64RM",
	OpLsl32RR: "lsl32RR", OpLsl32RV: "lsl32RV", OpLsl32RM: "lsl32RM",
	OpLsr32RR: "lsr32RR", OpLsr32RV: "lsr32RV", OpLsr32RM: "lsr32RM",

	OpAsl64RR: "asl64RR", OpAsl64RV: "asl64RV", OpAsl64RM: "asl64RM",
	OpAsr64RR: "asr64RR", OpAsr64RV: "asr64RV", OpAsr64RM: "asr64RM",
	OpAsl32RR: "asl32RR", OpAsl32RV: "asl32RV", OpAsl32RM: "asl32RM",
	OpAsr32RR: "asr32RR", OpAsr32RV: "asr32RV", OpAsr32RM: "asr32RM",

	OpAnd64RR: "and64RR", OpAnd64RV: "and64RV", OpAnd64RM: "and64RM",
	OpOr64RR: "or64RR", OpOr64RV: "or64RV", OpOr64RM: "or64RM",
	OpXor64RR: "xor64RR", OpXor64RV: "xor64RV", OpXor64RM: "xor64RM",
	OpAnd32RR: "and32RR", OpAnd32RV: "and32RV", OpAnd32RM: "and32RM",
	OpOr32RR: "or32RR", OpOr32RV: "or32RV", OpOr32RM: "or32RM",
	OpXor32RR: "xor32RR", OpXor32RV: "xor32RV", OpXor32RM: "xor32RM",

	OpLnt: "lnt", OpBnt: "bnt",
	OpNeg8: "neg8", OpNeg16: "neg16", OpNeg32: "neg32", OpNeg64: "neg64",

	OpUCmp8RR: "ucmp8RR", OpUCmp16RR: "ucmp16RR", OpUCmp32RR: "ucmp32RR", OpUCmp64RR: "ucmp64RR",
	OpSCmp8RR: "scmp8RR", OpSCmp16RR: "scmp16RR", OpSCmp32RR: "scmp32RR", OpSCmp64RR: "scmp64RR",
	OpUCmp8RV: "ucmp8RV", OpUCmp16RV: "ucmp16RV", OpUCmp32RV: "ucmp32RV", OpUCmp64RV: "ucmp64RV",
	OpSCmp8RV: "scmp8RV", OpSCmp16RV: "scmp16RV", OpSCmp32RV: "scmp32RV", OpSCmp64RV: "scmp64RV",
	OpFCmp32RR: "fcmp32RR", OpFCmp64RR: "fcmp64RR", OpFCmp32RV: "fcmp32RV", OpFCmp64RV: "fcmp64RV",

	OpSTest8: "stest8", OpSTest16: "stest16", OpSTest32: "stest32", OpSTest64: "stest64",
	OpUTest8: "utest8", OpUTest16: "utest16", OpUTest32: "utest32", OpUTest64: "utest64",

	OpSetE: "sete", OpSetNE: "setne", OpSetL: "setl", OpSetLE: "setle", OpSetG: "setg", OpSetGE: "setge",

	OpSext1: "sext1", OpSext8: "sext8", OpSext16: "sext16", OpSext32: "sext32",
	OpFext: "fext", OpFtrunc: "ftrunc",

	OpS8toF32: "s8tof32", OpS16toF32: "s16tof32", OpS32toF32: "s32tof32", OpS64toF32: "s64tof32",
	OpU8toF32: "u8tof32", OpU16toF32: "u16tof32", OpU32toF32: "u32tof32", OpU64toF32: "u64tof32",
	OpS8toF64: "s8tof64", OpS16toF64: "s16tof64", OpS32toF64: "s32tof64", OpS64toF64: "s64tof64",
	OpU8toF64: "u8tof64", OpU16toF64: "u16tof64", OpU32toF64: "u32tof64", OpU64toF64: "u64tof64",

	OpF32toS8: "f32tos8", OpF32toS16: "f32tos16", OpF32toS32: "f32tos32", OpF32toS64: "f32tos64",
	OpF32toU8: "f32tou8", OpF32toU16: "f32tou16", OpF32toU32: "f32tou32", OpF32toU64: "f32tou64",
	OpF64toS8: "f64tos8", OpF64toS16: "f64tos16", OpF64toS32: "f64tos32", OpF64toS64: "f64tos64",
	OpF64toU8: "f64tou8", OpF64toU16: "f64tou16", OpF64toU32: "f64tou32", OpF64toU64: "f64tou64",
}

func (op OpCode) String() string {
	if int(op) < 0 || int(op) >= len(mnemonics) || mnemonics[op] == "" {
		return "?"
	}
	return mnemonics[op]
}
