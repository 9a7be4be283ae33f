package mir

import "testing"

func TestFunctionNextSSARegistersAllocatesAdjacent(t *testing.T) {
	fn := NewFunction("f", 0, 1, VisibilityExported)

	a := fn.NextSSARegisters(1)
	b := fn.NextSSARegisters(2)

	if a.Index() != 0 {
		t.Errorf("first register index = %d, want 0", a.Index())
	}
	if b.Index() != 1 {
		t.Errorf("second register index = %d, want 1", b.Index())
	}
	if fn.NumSSARegs != 3 {
		t.Errorf("NumSSARegs = %d, want 3", fn.NumSSARegs)
	}
}

func TestBasicBlockAddSuccessorKeepsPredsSuccsInSync(t *testing.T) {
	a := NewBasicBlock("a")
	b := NewBasicBlock("b")

	a.AddSuccessor(b)
	a.AddSuccessor(b) // idempotent

	if len(a.Succs) != 1 || a.Succs[0] != b {
		t.Fatalf("a.Succs = %v, want [b]", a.Succs)
	}
	if len(b.Preds) != 1 || b.Preds[0] != a {
		t.Fatalf("b.Preds = %v, want [a]", b.Preds)
	}
}

func TestBasicBlockPushInstBeforeSplicesAheadOfTerminator(t *testing.T) {
	bb := NewBasicBlock("entry")
	reg := NewSSARegister(0)
	term := NewReturn()
	bb.PushInst(term)

	copyInst := NewCopy(reg, NewConstantInt(1, 64), 64)
	bb.PushInstBefore(copyInst, term)

	if len(bb.Instructions) != 2 {
		t.Fatalf("len(Instructions) = %d, want 2", len(bb.Instructions))
	}
	if bb.Instructions[0] != copyInst {
		t.Errorf("Instructions[0] = %v, want the spliced copy", bb.Instructions[0])
	}
	if bb.Instructions[1] != term {
		t.Errorf("Instructions[1] = %v, want the original terminator last", bb.Instructions[1])
	}
	if bb.Terminator() != term {
		t.Errorf("Terminator() changed after splicing before it")
	}
}

func TestValueMapInsertPanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Insert did not panic on a duplicate key")
		}
	}()
	m := NewValueMap()
	reg := NewSSARegister(0)
	m.Insert(nil, reg)
	m.Insert(nil, reg)
}

func TestValueMapAddressRoundTrip(t *testing.T) {
	m := NewValueMap()
	base := NewSSARegister(0)
	m.InsertAddress(nil, base, 8)

	gotBase, gotOffset := m.LookupAddress(nil)
	if gotBase != Value(base) || gotOffset != 8 {
		t.Errorf("LookupAddress = (%v, %d), want (%v, 8)", gotBase, gotOffset, base)
	}
}

func TestMemoryAddressStringWithAndWithoutDynamicOffset(t *testing.T) {
	base := NewSSARegister(0)
	offset := NewSSARegister(1)

	static := MemoryAddress{Base: base, ConstantInnerOffset: 16}
	if got := static.String(); got == "" {
		t.Error("MemoryAddress.String() returned empty text")
	}
	dynamic := MemoryAddress{Base: base, OffsetReg: offset, ConstantOffsetMultiplier: 8, ConstantInnerOffset: 0}
	if got := dynamic.String(); got == static.String() {
		t.Error("dynamic and static MemoryAddress rendered identically")
	}
}
