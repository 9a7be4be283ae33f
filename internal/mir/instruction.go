package mir

import (
	"fmt"
	"strings"
)

// Opcode enumerates MIR instruction kinds, grouped by spec.md §4.7's
// instruction-set categories (moves, stack, address, control, arithmetic,
// compare/test, conversion) one level above the final assembly encoding —
// width and register-vs-memory operand kind are resolved here; which of the
// many same-meaning assembly opcodes (movRR vs movRM, scmp32 vs ucmp64, ...)
// a given instruction encodes to is decided later by internal/asm's Map
// tables from (Op, operand kinds, Width, Signed).
type Opcode int

const (
	OpCopy     Opcode = iota // dest <- src (register, immediate, or memory)
	OpCondCopy               // dest <- src if Condition holds (cmov)
	OpLoad                   // dest <- [Mem]
	OpStore                  // [Mem] <- src
	OpLea                    // dest <- address-of(Mem)
	OpLincsp                 // dest <- old stack pointer; stack pointer += StackSize

	OpJump     // unconditional branch to Targets[0]
	OpCondJump // branch to Targets[0] if Condition holds, else fall through

	OpCall        // direct call to Callee, register-window delta CallDelta
	OpICallReg    // indirect call through a register operand, delta CallDelta
	OpICallMem    // indirect call through a memory operand, delta CallDelta
	OpReturn      // return to caller
	OpTerminate   // halt the whole program
	OpCallForeign // cfng: call external function FuncIndex
	OpCallBuiltin // cbltn: call builtin FuncIndex

	OpArith      // dest <- lhs ArithOp rhs
	OpUnaryArith // dest <- ArithOp operand

	OpCompare // sets CompareFlags from lhs vs rhs
	OpTest    // sets CompareFlags from a single operand vs zero
	OpSet     // dest <- materialize(Condition) as 0/1

	OpConvert // dest <- convert(operand) per Conversion
)

// ArithOp names the operation an OpArith/OpUnaryArith instruction performs.
type ArithOp int

const (
	ArithAdd ArithOp = iota
	ArithSub
	ArithMul
	ArithUDiv
	ArithSDiv
	ArithURem
	ArithSRem
	ArithFAdd
	ArithFSub
	ArithFMul
	ArithFDiv
	ArithLSL
	ArithLSR
	ArithASR
	ArithAnd
	ArithOr
	ArithXor
	ArithNeg    // unary
	ArithFNeg   // unary
	ArithLogNot // unary, "lnt": logical not (0/1 flip)
	ArithBitNot // unary, "bnt": bitwise complement
)

func (a ArithOp) String() string {
	names := [...]string{
		"add", "sub", "mul", "udiv", "sdiv", "urem", "srem",
		"fadd", "fsub", "fmul", "fdiv",
		"lsl", "lsr", "asr", "and", "or", "xor",
		"neg", "fneg", "lnt", "bnt",
	}
	if int(a) < 0 || int(a) >= len(names) {
		return "?"
	}
	return names[a]
}

// CompareOperation names the condition an OpCompare's flags are later tested
// under by OpCondJump/OpCondCopy/OpSet, grounded on the VM's
// CompareFlags{less, equal} pair (spec.md §4.7): every other relation is
// expressed in terms of those two bits.
type CompareOperation int

const (
	CompareEqual CompareOperation = iota
	CompareNotEqual
	CompareLess
	CompareLessEqual
	CompareGreater
	CompareGreaterEqual
)

func (c CompareOperation) String() string {
	names := [...]string{"eq", "ne", "l", "le", "g", "ge"}
	if int(c) < 0 || int(c) >= len(names) {
		return "?"
	}
	return names[c]
}

// Negate returns the condition that holds exactly when c does not,
// used when a branch's fallthrough/taken targets get swapped.
func (c CompareOperation) Negate() CompareOperation {
	switch c {
	case CompareEqual:
		return CompareNotEqual
	case CompareNotEqual:
		return CompareEqual
	case CompareLess:
		return CompareGreaterEqual
	case CompareLessEqual:
		return CompareGreater
	case CompareGreater:
		return CompareLessEqual
	case CompareGreaterEqual:
		return CompareLess
	default:
		return c
	}
}

// ConversionKind names an OpConvert's operation, grounded on spec.md §4.7's
// "sext{1,8,16,32}, fext, ftrunc, and {s,u,f}{8,16,32,64}to{...} pairs".
type ConversionKind int

const (
	ConvIntExt      ConversionKind = iota // sign/zero-extend FromWidth -> ToWidth
	ConvFloatExt                          // f32 -> f64
	ConvFloatTrunc                        // f64 -> f32
	ConvIntToFloat                        // integer -> float, Signed selects sitofp/uitofp
	ConvFloatToInt                        // float -> integer, Signed selects fptosi/fptoui
)

// Instruction is a single MIR instruction: a result register (Dest, nil for
// instructions with no result) plus operands whose interpretation depends
// on Op.
type Instruction struct {
	Op     Opcode
	Dest   Register
	Operands []Value // meaning depends on Op: [src] for Copy/CondCopy (none for Set),
	// [lhs, rhs] for Arith/Compare, [operand] for UnaryArith/Test/Convert
	Mem     *MemoryAddress // valid for Load/Store/Lea
	Targets []*BasicBlock  // valid for Jump ([0]) and CondJump ([0]=target)
	Parent  *BasicBlock

	ArithOp    ArithOp
	Condition  CompareOperation
	Conversion ConversionKind
	Width      int  // operand width in bits: 8/16/32/64; for OpConvert this is the destination width
	FromWidth  int  // valid for OpConvert: the source operand's width in bits
	Signed     bool // selects signed vs unsigned opcode variant
	IsFloat    bool // valid for OpCompare: selects fcmp over scmp/ucmp

	Callee      *Function // valid for Call
	CallDelta   int       // register-window advance for Call/ICallReg/ICallMem
	FuncIndex   int       // valid for CallForeign/CallBuiltin
	StackSize   int       // valid for Lincsp

	// name is a soft debugging hint only (e.g. the originating IR name),
	// carried through to golden-file output; it never affects selection.
	name string
}

func newInst(op Opcode, dest Register, operands ...Value) *Instruction {
	return &Instruction{Op: op, Dest: dest, Operands: operands}
}

func NewCopy(dest Register, src Value, width int) *Instruction {
	i := newInst(OpCopy, dest, src)
	i.Width = width
	return i
}

func NewCondCopy(dest Register, src Value, cond CompareOperation, width int) *Instruction {
	i := newInst(OpCondCopy, dest, src)
	i.Condition = cond
	i.Width = width
	return i
}

func NewLoad(dest Register, mem MemoryAddress, width int) *Instruction {
	i := newInst(OpLoad, dest)
	i.Mem = &mem
	i.Width = width
	return i
}

func NewStore(mem MemoryAddress, src Value, width int) *Instruction {
	i := newInst(OpStore, nil, src)
	i.Mem = &mem
	i.Width = width
	return i
}

func NewLea(dest Register, mem MemoryAddress) *Instruction {
	i := newInst(OpLea, dest)
	i.Mem = &mem
	return i
}

func NewLincsp(dest Register, stackSize int) *Instruction {
	i := newInst(OpLincsp, dest)
	i.StackSize = stackSize
	return i
}

func NewJump(target *BasicBlock) *Instruction {
	i := newInst(OpJump, nil)
	i.Targets = []*BasicBlock{target}
	return i
}

func NewCondJump(target *BasicBlock, cond CompareOperation) *Instruction {
	i := newInst(OpCondJump, nil)
	i.Targets = []*BasicBlock{target}
	i.Condition = cond
	return i
}

func NewCall(dest Register, callee *Function, delta int) *Instruction {
	i := newInst(OpCall, dest)
	i.Callee = callee
	i.CallDelta = delta
	return i
}

func NewICallReg(dest Register, target Register, delta int) *Instruction {
	i := newInst(OpICallReg, dest, target)
	i.CallDelta = delta
	return i
}

func NewICallMem(dest Register, mem MemoryAddress, delta int) *Instruction {
	i := newInst(OpICallMem, dest)
	i.Mem = &mem
	i.CallDelta = delta
	return i
}

func NewReturn() *Instruction    { return newInst(OpReturn, nil) }
func NewTerminate() *Instruction { return newInst(OpTerminate, nil) }

func NewCallForeign(dest Register, funcIndex, delta int) *Instruction {
	i := newInst(OpCallForeign, dest)
	i.FuncIndex = funcIndex
	i.CallDelta = delta
	return i
}

func NewCallBuiltin(dest Register, funcIndex, delta int) *Instruction {
	i := newInst(OpCallBuiltin, dest)
	i.FuncIndex = funcIndex
	i.CallDelta = delta
	return i
}

func NewArith(dest Register, op ArithOp, lhs, rhs Value, width int) *Instruction {
	i := newInst(OpArith, dest, lhs, rhs)
	i.ArithOp = op
	i.Width = width
	return i
}

func NewUnaryArith(dest Register, op ArithOp, operand Value, width int) *Instruction {
	i := newInst(OpUnaryArith, dest, operand)
	i.ArithOp = op
	i.Width = width
	return i
}

func NewCompare(lhs, rhs Value, width int, signed, isFloat bool) *Instruction {
	i := newInst(OpCompare, nil, lhs, rhs)
	i.Width = width
	i.Signed = signed
	i.IsFloat = isFloat
	return i
}

func NewTest(operand Value, width int, signed bool) *Instruction {
	i := newInst(OpTest, nil, operand)
	i.Width = width
	i.Signed = signed
	return i
}

func NewSet(dest Register, cond CompareOperation) *Instruction {
	i := newInst(OpSet, dest)
	i.Condition = cond
	return i
}

func NewConvert(dest Register, operand Value, kind ConversionKind, fromWidth, toWidth int, signed bool) *Instruction {
	i := newInst(OpConvert, dest, operand)
	i.Conversion = kind
	i.Width = toWidth
	i.FromWidth = fromWidth
	i.Signed = signed
	return i
}

func (i *Instruction) String() string {
	var sb strings.Builder
	if i.Dest != nil {
		fmt.Fprintf(&sb, "%s = ", i.Dest)
	}
	operand := func(idx int) string {
		if idx < len(i.Operands) && i.Operands[idx] != nil {
			return i.Operands[idx].String()
		}
		return "<nil>"
	}
	switch i.Op {
	case OpCopy:
		fmt.Fprintf(&sb, "mov%d %s", i.Width, operand(0))
	case OpCondCopy:
		fmt.Fprintf(&sb, "cmov.%s%d %s", i.Condition, i.Width, operand(0))
	case OpLoad:
		fmt.Fprintf(&sb, "load%d %s", i.Width, i.Mem)
	case OpStore:
		fmt.Fprintf(&sb, "store%d %s, %s", i.Width, i.Mem, operand(0))
	case OpLea:
		fmt.Fprintf(&sb, "lea %s", i.Mem)
	case OpLincsp:
		fmt.Fprintf(&sb, "lincsp %d", i.StackSize)
	case OpJump:
		fmt.Fprintf(&sb, "jmp %s", i.Targets[0].Name())
	case OpCondJump:
		fmt.Fprintf(&sb, "j%s %s", i.Condition, i.Targets[0].Name())
	case OpCall:
		fmt.Fprintf(&sb, "call %s, %d", i.Callee.Name(), i.CallDelta)
	case OpICallReg:
		fmt.Fprintf(&sb, "icallr %s, %d", operand(0), i.CallDelta)
	case OpICallMem:
		fmt.Fprintf(&sb, "icallm %s, %d", i.Mem, i.CallDelta)
	case OpReturn:
		sb.WriteString("ret")
	case OpTerminate:
		sb.WriteString("terminate")
	case OpCallForeign:
		fmt.Fprintf(&sb, "cfng %d, %d", i.CallDelta, i.FuncIndex)
	case OpCallBuiltin:
		fmt.Fprintf(&sb, "cbltn %d, %d", i.CallDelta, i.FuncIndex)
	case OpArith:
		fmt.Fprintf(&sb, "%s%d %s, %s", i.ArithOp, i.Width, operand(0), operand(1))
	case OpUnaryArith:
		fmt.Fprintf(&sb, "%s%d %s", i.ArithOp, i.Width, operand(0))
	case OpCompare:
		kind := "u"
		switch {
		case i.IsFloat:
			kind = "f"
		case i.Signed:
			kind = "s"
		}
		fmt.Fprintf(&sb, "%scmp%d %s, %s", kind, i.Width, operand(0), operand(1))
	case OpTest:
		kind := "u"
		if i.Signed {
			kind = "s"
		}
		fmt.Fprintf(&sb, "%stest%d %s", kind, i.Width, operand(0))
	case OpSet:
		fmt.Fprintf(&sb, "set%s", i.Condition)
	case OpConvert:
		fmt.Fprintf(&sb, "convert %s", operand(0))
	}
	return sb.String()
}
