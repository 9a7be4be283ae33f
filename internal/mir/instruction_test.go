package mir

import "testing"

func TestCompareOperationNegate(t *testing.T) {
	cases := []struct {
		in, want CompareOperation
	}{
		{CompareEqual, CompareNotEqual},
		{CompareNotEqual, CompareEqual},
		{CompareLess, CompareGreaterEqual},
		{CompareLessEqual, CompareGreater},
		{CompareGreater, CompareLessEqual},
		{CompareGreaterEqual, CompareLess},
	}
	for _, c := range cases {
		if got := c.in.Negate(); got != c.want {
			t.Errorf("%s.Negate() = %s, want %s", c.in, got, c.want)
		}
		if got := c.in.Negate().Negate(); got != c.in {
			t.Errorf("%s.Negate().Negate() = %s, want original %s", c.in, got, c.in)
		}
	}
}

func TestInstructionStringIncludesDest(t *testing.T) {
	dest := NewSSARegister(3)
	inst := NewArith(dest, ArithAdd, NewConstantInt(1, 64), NewConstantInt(2, 64), 64)

	s := inst.String()
	if s == "" {
		t.Fatal("Instruction.String() returned empty text")
	}
	if inst.Dest != Register(dest) {
		t.Errorf("Dest = %v, want %v", inst.Dest, dest)
	}
}

func TestNewCallCarriesCalleeAndDelta(t *testing.T) {
	callee := NewFunction("g", 0, 1, VisibilityExported)
	dest := NewSSARegister(0)

	inst := NewCall(dest, callee, 4)

	if inst.Callee != callee {
		t.Errorf("Callee = %v, want %v", inst.Callee, callee)
	}
	if inst.CallDelta != 4 {
		t.Errorf("CallDelta = %d, want 4", inst.CallDelta)
	}
	if inst.Op != OpCall {
		t.Errorf("Op = %v, want OpCall", inst.Op)
	}
}

func TestNewJumpAndCondJumpTargets(t *testing.T) {
	target := NewBasicBlock("bb1")

	j := NewJump(target)
	if len(j.Targets) != 1 || j.Targets[0] != target {
		t.Errorf("Jump Targets = %v, want [%v]", j.Targets, target)
	}

	cj := NewCondJump(target, CompareLess)
	if cj.Condition != CompareLess {
		t.Errorf("CondJump Condition = %v, want CompareLess", cj.Condition)
	}
}
