package asm

import "fmt"

// Operand is one leaf of an Instr's operand list, grounded on Elements.h's
// RegisterIndex/MemoryAddress/Value8/16/32/64 leaf node family. Each operand
// knows its own encoded size, which is how Instr.Size (used by the assembler
// and by CodeSize) is computed rather than from a per-opcode size table.
type Operand interface {
	Size() int
	String() string
	isOperand()
}

// RegisterOperand names a VM register by its window-relative index.
type RegisterOperand struct{ Index uint8 }

func (RegisterOperand) Size() int          { return 1 }
func (r RegisterOperand) String() string   { return fmt.Sprintf("r%d", r.Index) }
func (RegisterOperand) isOperand()         {}

// MemoryOperand is the 4-byte addressing tuple from spec.md §6.2:
// address = Base + OffsetReg*OffsetMultiplier + InnerOffset. OffsetReg is
// NoDynamicOffsetByte when there is no dynamic component.
const NoDynamicOffsetByte = 0xFF

type MemoryOperand struct {
	Base             uint8
	OffsetReg        uint8 // NoDynamicOffsetByte if absent
	OffsetMultiplier int8
	InnerOffset      int8
}

func (MemoryOperand) Size() int { return 4 }
func (m MemoryOperand) String() string {
	if m.OffsetReg == NoDynamicOffsetByte {
		return fmt.Sprintf("[r%d+%d]", m.Base, m.InnerOffset)
	}
	return fmt.Sprintf("[r%d+r%d*%d+%d]", m.Base, m.OffsetReg, m.OffsetMultiplier, m.InnerOffset)
}
func (MemoryOperand) isOperand() {}

// Immediate is a raw little-endian literal of the declared Width (1, 2, 4,
// or 8 bytes).
type Immediate struct {
	Value uint64
	Width int
}

func (v Immediate) Size() int      { return v.Width }
func (v Immediate) String() string { return fmt.Sprintf("%d", v.Value) }
func (Immediate) isOperand()       {}

// LabelRef is an unresolved reference to a Label's eventual byte offset,
// written as a 4-byte placeholder by the emit pass and patched by the
// assembler's second pass. Relative reports whether the patched value is a
// signed offset from the byte following the opcode (every jmp/j{cond} and
// call target per spec.md §6.2) or the label's absolute text offset (a bare
// function address loaded as an immediate value, e.g. for an indirect call
// through a register).
type LabelRef struct {
	Target   *Label
	Relative bool
}

func (LabelRef) Size() int        { return 4 }
func (l LabelRef) String() string { return l.Target.name }
func (LabelRef) isOperand()       {}

// Element is one entry of an AssemblyStream: a Label or an Instr.
type Element interface {
	isElement()
}

// Label marks a byte offset in the eventual text section. IsFunction tags
// function-entry labels, which the assembler additionally records in the
// assembled Program's FunctionOffsets table.
type Label struct {
	id         int
	name       string
	IsFunction bool
}

func (l *Label) Name() string { return l.name }
func (*Label) isElement()     {}

// Instr is one assembly instruction: an opcode plus its operand leaves, in
// the order the Map tables determined they should be encoded.
type Instr struct {
	Op       OpCode
	Operands []Operand
}

func (*Instr) isElement() {}

// Size is the instruction's encoded length in bytes: one opcode byte plus
// every operand's own size.
func (i *Instr) Size() int {
	n := 1
	for _, o := range i.Operands {
		n += o.Size()
	}
	return n
}

func (i *Instr) String() string {
	s := i.Op.String()
	for _, o := range i.Operands {
		s += " " + o.String()
	}
	return s
}
