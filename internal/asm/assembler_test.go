package asm

import (
	"encoding/binary"
	"testing"
)

func TestAssembleForwardJumpPatchesRelativeOffset(t *testing.T) {
	s := NewAssemblyStream()
	// jmp target; target: terminate
	target := &Label{name: "target"}
	s.Emit(&Instr{Op: OpJmp, Operands: []Operand{LabelRef{Target: target, Relative: true}}})
	target.id = s.nextID
	s.nextID++
	s.Elements = append(s.Elements, target)
	s.Emit(&Instr{Op: OpTerminate})

	prog, err := Assemble(s)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	// jmp opcode (1 byte) + placeholder (4 bytes) = 5 bytes before target.
	placeholderOffset := 1
	want := int32(5 - placeholderOffset)
	got := int32(binary.LittleEndian.Uint32(prog.Text[placeholderOffset : placeholderOffset+4]))
	if got != want {
		t.Errorf("patched relative offset = %d, want %d", got, want)
	}
	if len(prog.Text) != 6 {
		t.Fatalf("len(Text) = %d, want 6 (jmp=5 bytes, terminate=1 byte)", len(prog.Text))
	}
	if prog.Text[5] != byte(OpTerminate) {
		t.Errorf("Text[5] = %d, want OpTerminate (%d)", prog.Text[5], OpTerminate)
	}
}

func TestAssembleUnresolvedLabelIsFatal(t *testing.T) {
	s := NewAssemblyStream()
	dangling := &Label{name: "nowhere", id: 999}
	s.Emit(&Instr{Op: OpJmp, Operands: []Operand{LabelRef{Target: dangling, Relative: true}}})

	if _, err := Assemble(s); err == nil {
		t.Fatal("expected an error for a label never emitted into the stream")
	}
}

func TestAssembleRecordsFunctionOffsets(t *testing.T) {
	s := NewAssemblyStream()
	s.Emit(&Instr{Op: OpTerminate})
	s.NewLabel("main", true)
	s.Emit(&Instr{Op: OpRet})

	prog, err := Assemble(s)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	off, ok := prog.FunctionOffsets["main"]
	if !ok {
		t.Fatal("FunctionOffsets missing \"main\"")
	}
	if off != 1 {
		t.Errorf("FunctionOffsets[main] = %d, want 1 (after the 1-byte terminate)", off)
	}
}

func TestAssembleImmediateLittleEndian(t *testing.T) {
	s := NewAssemblyStream()
	s.Emit(&Instr{Op: OpMov64RV, Operands: []Operand{
		RegisterOperand{Index: 0},
		Immediate{Value: 0x0102030405060708, Width: 8},
	}})
	prog, err := Assemble(s)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	got := prog.Text[2:10]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Text[2:10] = % x, want % x", got, want)
		}
	}
}
