package asm

import "testing"

func TestOperandSizes(t *testing.T) {
	cases := []struct {
		name string
		op   Operand
		want int
	}{
		{"register", RegisterOperand{Index: 3}, 1},
		{"memory", MemoryOperand{Base: 1, OffsetReg: NoDynamicOffsetByte}, 4},
		{"immediate8", Immediate{Value: 1, Width: 1}, 1},
		{"immediate64", Immediate{Value: 1, Width: 8}, 8},
		{"labelRef", LabelRef{Target: &Label{name: "L"}}, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.op.Size(); got != c.want {
				t.Errorf("Size() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestMemoryOperandString(t *testing.T) {
	static := MemoryOperand{Base: 2, OffsetReg: NoDynamicOffsetByte, InnerOffset: 8}
	if got, want := static.String(), "[r2+8]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	dynamic := MemoryOperand{Base: 2, OffsetReg: 5, OffsetMultiplier: 4, InnerOffset: 16}
	if got, want := dynamic.String(), "[r2+r5*4+16]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInstrSize(t *testing.T) {
	inst := &Instr{Op: OpAdd64RR, Operands: []Operand{RegisterOperand{Index: 0}, RegisterOperand{Index: 1}}}
	if got, want := inst.Size(), 3; got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
}

func TestStreamNewLabel(t *testing.T) {
	s := NewAssemblyStream()
	a := s.NewLabel("a", true)
	b := s.NewLabel("b", false)
	if a.id == b.id {
		t.Errorf("expected distinct label ids, got %d and %d", a.id, b.id)
	}
	if len(s.Elements) != 2 {
		t.Errorf("expected 2 elements, got %d", len(s.Elements))
	}
	if !a.IsFunction || b.IsFunction {
		t.Errorf("IsFunction not preserved: a=%v b=%v", a.IsFunction, b.IsFunction)
	}
}
