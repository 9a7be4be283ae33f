// Package svm implements the stack-machine runtime: a register-windowed
// bytecode interpreter consuming the text section produced by internal/asm,
// grounded on original_source/svm-lib/Execution.cc (the larger, newer
// dispatch loop) and original_source/svm/lib/{VMImpl.h,VirtualMachine.cc}
// for the surrounding VM state and public API shape.
package svm

import "fmt"

// VPointer is a handle into the VM's sandboxed memory: a slot id plus a byte
// offset within that slot, mirroring VirtualMachine.cc's VirtualPointer.
// Slot 0 is always the static slot, holding the program's instruction text
// immediately followed by the runtime stack (see VirtualMachine::loadBinary,
// which resizes the static slot to binSize+stackSize and copies the program
// image into its head).
type VPointer struct {
	Slot   uint32
	Offset uint64
}

func (p VPointer) String() string {
	return fmt.Sprintf("<%d:%#x>", p.Slot, p.Offset)
}

// add returns p shifted by delta bytes within the same slot.
func (p VPointer) add(delta int64) VPointer {
	return VPointer{Slot: p.Slot, Offset: uint64(int64(p.Offset) + delta)}
}

// packPointer/unpackPointer stand in for the source's std::bit_cast between
// VirtualPointer and u64 when a pointer value is stored in a plain register:
// slot in the high 32 bits, offset in the low 32 bits. The source's
// VirtualPointer is itself a 64-bit-sized struct bit_cast to and from u64, so
// this is the direct Go equivalent rather than a redesign.
func packPointer(p VPointer) uint64 {
	return uint64(p.Slot)<<32 | (p.Offset & 0xffffffff)
}

func unpackPointer(v uint64) VPointer {
	return VPointer{Slot: uint32(v >> 32), Offset: v & 0xffffffff}
}

// CompareFlags holds the result of the most recently executed compare or
// test instruction; conditional moves, conditional jumps and set
// instructions all read it. Mirrors VMData.h's CompareFlags bitfields.
type CompareFlags struct {
	Less  bool
	Equal bool
}

func (f CompareFlags) isEqual() bool        { return f.Equal }
func (f CompareFlags) isNotEqual() bool     { return !f.Equal }
func (f CompareFlags) isLess() bool         { return f.Less }
func (f CompareFlags) isLessEqual() bool    { return f.Less || f.Equal }
func (f CompareFlags) isGreater() bool      { return !f.Less && !f.Equal }
func (f CompareFlags) isGreaterEqual() bool { return !f.Less }

// ExecutionFrame is one register window on the VM's call stack, mirroring
// VMData.h's ExecutionFrame{regPtr, bottomReg, iptr, stackPtr}. RegBase and
// BottomReg are indices into VM.registers rather than raw pointers, since Go
// has no pointer arithmetic.
type ExecutionFrame struct {
	RegBase   int
	BottomReg int
	IPtr      int
	StackPtr  VPointer
}

// Stats accumulates execution counters, grounded on VMImpl's stats member.
type Stats struct {
	ExecutedInstructions uint64
}
