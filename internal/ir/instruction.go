package ir

import (
	"fmt"
	"strings"
)

// Opcode enumerates every SSA instruction kind, grounded on
// original_source/include/scatha/IR/Fwd.def's instruction list (arithmetic/
// compare/conversion/memory/control-flow/phi families).
type Opcode int

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	OpICmpEq
	OpICmpNe
	OpICmpSLt
	OpICmpSLe
	OpICmpSGt
	OpICmpSGe
	OpICmpULt
	OpICmpULe
	OpICmpUGt
	OpICmpUGe
	OpFCmpEq
	OpFCmpNe
	OpFCmpLt
	OpFCmpLe
	OpFCmpGt
	OpFCmpGe

	OpTrunc
	OpSExt
	OpZExt
	OpFTrunc
	OpFExt
	OpSIToFP
	OpUIToFP
	OpFPToSI
	OpFPToUI
	OpBitcast

	OpAlloca
	OpLoad
	OpStore
	OpGetElementPointer

	OpCall
	OpReturn
	OpBranch
	OpCondBranch
	OpPhi
	OpSelect
)

func (op Opcode) String() string {
	names := [...]string{
		"add", "sub", "mul", "sdiv", "udiv", "srem", "urem",
		"fadd", "fsub", "fmul", "fdiv",
		"and", "or", "xor", "shl", "lshr", "ashr",
		"icmp eq", "icmp ne", "icmp slt", "icmp sle", "icmp sgt", "icmp sge",
		"icmp ult", "icmp ule", "icmp ugt", "icmp uge",
		"fcmp eq", "fcmp ne", "fcmp lt", "fcmp le", "fcmp gt", "fcmp ge",
		"trunc", "sext", "zext", "ftrunc", "fext", "sitofp", "uitofp", "fptosi", "fptoui", "bitcast",
		"alloca", "load", "store", "gep",
		"call", "return", "branch", "condbranch", "phi", "select",
	}
	if int(op) < 0 || int(op) >= len(names) {
		return "?"
	}
	return names[op]
}

// IsTerminator reports whether op ends a basic block.
func (op Opcode) IsTerminator() bool {
	return op == OpReturn || op == OpBranch || op == OpCondBranch
}

// Instruction is both an SSA Value (its result, if any) and a User (its
// Operands). PhiIncoming carries Phi's per-predecessor-block value list
// in parallel with Operands, since Phi's operand order must track the
// block's Preds order exactly (spec.md §3.3 Phi invariant).
type Instruction struct {
	valueBase
	Op       Opcode
	Operands []Value
	Parent   *BasicBlock

	// Callee is valid only for OpCall.
	Callee *Function

	// PhiIncoming is valid only for OpPhi: PhiIncoming[i] is the
	// predecessor block that Operands[i] flows in from.
	PhiIncoming []*BasicBlock

	// Targets is valid only for OpBranch ([0]) and OpCondBranch
	// ([0]=true-target, [1]=false-target).
	Targets []*BasicBlock

	// allocatedType is valid only for OpAlloca; gepOffset only for
	// OpGetElementPointer.
	allocatedType Type
	gepOffset     int
}

func newInst(op Opcode, typ Type, name string, operands ...Value) *Instruction {
	return &Instruction{valueBase: valueBase{typ: typ, name: name}, Op: op, Operands: operands}
}

// NewBinary builds a two-operand arithmetic/bitwise/compare instruction.
func NewBinary(op Opcode, name string, lhs, rhs Value, resultType Type) *Instruction {
	return newInst(op, resultType, name, lhs, rhs)
}

// NewUnary builds a single-operand instruction: the cast family
// (Trunc/SExt/ZExt/FTrunc/FExt/SIToFP/UIToFP/FPToSI/FPToUI/Bitcast).
func NewUnary(op Opcode, name string, operand Value, resultType Type) *Instruction {
	return newInst(op, resultType, name, operand)
}

func NewAlloca(name string, allocType Type, ptrType Type) *Instruction {
	i := newInst(OpAlloca, ptrType, name)
	i.allocatedType = allocType
	return i
}

func NewLoad(name string, addr Value, resultType Type) *Instruction {
	return newInst(OpLoad, resultType, name, addr)
}

func NewStore(addr, value Value) *Instruction {
	return newInst(OpStore, nil, "", addr, value)
}

// NewGEP builds a GetElementPointer instruction over addr with a constant
// byte offset baked in, for struct field access where irgen computes the
// offset statically from sema's struct layout.
func NewGEP(name string, addr Value, byteOffset int, resultType Type) *Instruction {
	i := newInst(OpGetElementPointer, resultType, name, addr)
	i.gepOffset = byteOffset
	return i
}

// NewIndexedGEP builds a GetElementPointer over addr at a runtime index,
// for array subscripting where the offset isn't known until execution.
// gepOffset is reused to carry the element stride in this form; IsIndexed
// distinguishes the two forms by operand count (addr only vs. addr+index).
func NewIndexedGEP(name string, addr, index Value, elemStride int, resultType Type) *Instruction {
	i := newInst(OpGetElementPointer, resultType, name, addr, index)
	i.gepOffset = elemStride
	return i
}

// IsIndexed reports whether this GetElementPointer carries a runtime index
// operand (NewIndexedGEP) rather than a static byte offset (NewGEP).
func (i *Instruction) IsIndexed() bool {
	return i.Op == OpGetElementPointer && len(i.Operands) == 2
}

func NewCall(name string, callee *Function, args []Value, resultType Type) *Instruction {
	i := newInst(OpCall, resultType, name, args...)
	i.Callee = callee
	return i
}

func NewReturn(value Value) *Instruction {
	if value == nil {
		return newInst(OpReturn, nil, "")
	}
	return newInst(OpReturn, nil, "", value)
}

func NewBranch(target *BasicBlock) *Instruction {
	i := newInst(OpBranch, nil, "")
	i.Targets = []*BasicBlock{target}
	return i
}

func NewCondBranch(cond Value, thenBlock, elseBlock *BasicBlock) *Instruction {
	i := newInst(OpCondBranch, nil, "", cond)
	i.Targets = []*BasicBlock{thenBlock, elseBlock}
	return i
}

func NewPhi(name string, typ Type) *Instruction {
	return newInst(OpPhi, typ, name)
}

// AddIncoming appends one (block, value) pair to a Phi instruction, keeping
// Operands and PhiIncoming in lockstep.
func (i *Instruction) AddIncoming(block *BasicBlock, value Value) {
	i.Operands = append(i.Operands, value)
	i.PhiIncoming = append(i.PhiIncoming, block)
	if value != nil {
		value.addUser(i)
	}
}

// AllocatedType returns the type Alloca reserves space for.
func (i *Instruction) AllocatedType() Type { return i.allocatedType }

// GEPOffset returns the constant byte offset of a GetElementPointer.
func (i *Instruction) GEPOffset() int { return i.gepOffset }

func (i *Instruction) terminatorTargets() ([]*BasicBlock, bool) {
	if !i.Op.IsTerminator() {
		return nil, false
	}
	return i.Targets, true
}

func (i *Instruction) String() string {
	var sb strings.Builder
	if i.name != "" {
		fmt.Fprintf(&sb, "%%%s = ", i.name)
	}
	switch i.Op {
	case OpCall:
		args := make([]string, len(i.Operands))
		for idx, o := range i.Operands {
			args[idx] = valName(o)
		}
		fmt.Fprintf(&sb, "call %s(%s)", i.Callee.Name(), strings.Join(args, ", "))
	case OpBranch:
		fmt.Fprintf(&sb, "br %s", i.Targets[0].Name())
	case OpCondBranch:
		fmt.Fprintf(&sb, "br %s, %s, %s", valName(i.Operands[0]), i.Targets[0].Name(), i.Targets[1].Name())
	case OpReturn:
		if len(i.Operands) == 0 {
			sb.WriteString("return")
		} else {
			fmt.Fprintf(&sb, "return %s", valName(i.Operands[0]))
		}
	case OpPhi:
		parts := make([]string, len(i.Operands))
		for idx, o := range i.Operands {
			parts[idx] = fmt.Sprintf("[%s, %s]", valName(o), i.PhiIncoming[idx].Name())
		}
		fmt.Fprintf(&sb, "phi %s", strings.Join(parts, ", "))
	case OpAlloca:
		fmt.Fprintf(&sb, "alloca %s", i.allocatedType.String())
	case OpGetElementPointer:
		if i.IsIndexed() {
			fmt.Fprintf(&sb, "gep %s, %s * %d", valName(i.Operands[0]), valName(i.Operands[1]), i.gepOffset)
		} else {
			fmt.Fprintf(&sb, "gep %s, %d", valName(i.Operands[0]), i.gepOffset)
		}
	default:
		operands := make([]string, len(i.Operands))
		for idx, o := range i.Operands {
			operands[idx] = valName(o)
		}
		fmt.Fprintf(&sb, "%s %s", i.Op.String(), strings.Join(operands, ", "))
	}
	return sb.String()
}

func valName(v Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.valueName()
}
