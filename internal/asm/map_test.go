package asm

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/mir"
)

func TestMapMove(t *testing.T) {
	cases := []struct {
		src   OperandKind
		width int
		want  OpCode
	}{
		{KindRegister, 8, OpMov64RR},
		{KindImmediate, 8, OpMov64RV},
		{KindMemory, 1, OpMov8RM},
		{KindMemory, 2, OpMov16RM},
		{KindMemory, 4, OpMov32RM},
		{KindMemory, 8, OpMov64RM},
	}
	for _, c := range cases {
		got, err := mapMove(c.src, c.width)
		if err != nil {
			t.Fatalf("mapMove(%d, %d): %v", c.src, c.width, err)
		}
		if got != c.want {
			t.Errorf("mapMove(%d, %d) = %v, want %v", c.src, c.width, got, c.want)
		}
	}
	if _, err := mapMove(KindMemory, 3); err == nil {
		t.Error("expected error for unsupported memory width")
	}
}

func TestMapCMove(t *testing.T) {
	op, err := mapCMove(mir.CompareLess, KindRegister, 64)
	if err != nil || op != OpCMovL64RR {
		t.Errorf("mapCMove RR = %v, %v, want OpCMovL64RR", op, err)
	}
	op, err = mapCMove(mir.CompareGreaterEqual, KindMemory, 32)
	if err != nil || op != OpCMovGE32RM {
		t.Errorf("mapCMove RM = %v, %v, want OpCMovGE32RM", op, err)
	}
}

func TestMapJump(t *testing.T) {
	if op := mapJump(mir.CompareLess); op != OpJl {
		t.Errorf("mapJump(Less) = %v, want OpJl", op)
	}
	if op := mapJump(mir.CompareOperation(99)); op != OpJmp {
		t.Errorf("mapJump(unknown) = %v, want OpJmp", op)
	}
}

func TestMapCompare(t *testing.T) {
	op, err := mapCompare(true, false, KindRegister, 32)
	if err != nil || op != OpSCmp32RR {
		t.Errorf("mapCompare signed int = %v, %v, want OpSCmp32RR", op, err)
	}
	op, err = mapCompare(false, false, KindImmediate, 64)
	if err != nil || op != OpUCmp64RV {
		t.Errorf("mapCompare unsigned int = %v, %v, want OpUCmp64RV", op, err)
	}
	op, err = mapCompare(true, true, KindRegister, 64)
	if err != nil || op != OpFCmp64RR {
		t.Errorf("mapCompare float = %v, %v, want OpFCmp64RR", op, err)
	}
	if _, err := mapCompare(false, false, KindMemory, 32); err == nil {
		t.Error("expected error: compare has no memory-operand encoding")
	}
}

func TestMapArithmetic(t *testing.T) {
	op, err := mapArithmetic(mir.ArithAdd, KindRegister, 64)
	if err != nil || op != OpAdd64RR {
		t.Errorf("mapArithmetic add64RR = %v, %v, want OpAdd64RR", op, err)
	}
	op, err = mapArithmetic(mir.ArithFMul, KindMemory, 32)
	if err != nil || op != OpFMul32RM {
		t.Errorf("mapArithmetic fmul32RM = %v, %v, want OpFMul32RM", op, err)
	}
	if _, err := mapArithmetic(mir.ArithAdd, KindRegister, 16); err == nil {
		t.Error("expected error for unsupported arithmetic width")
	}
}

func TestMapUnary(t *testing.T) {
	op, err := mapUnary(mir.ArithNeg, 32)
	if err != nil || op != OpNeg32 {
		t.Errorf("mapUnary neg32 = %v, %v, want OpNeg32", op, err)
	}
	op, err = mapUnary(mir.ArithLogNot, 8)
	if err != nil || op != OpLnt {
		t.Errorf("mapUnary lnt = %v, %v, want OpLnt", op, err)
	}
}

func TestMapConvert(t *testing.T) {
	op, err := mapConvert(mir.ConvIntExt, 8, 64, true)
	if err != nil || op != OpSext8 {
		t.Errorf("mapConvert sext8 = %v, %v, want OpSext8", op, err)
	}
	op, err = mapConvert(mir.ConvIntToFloat, 32, 64, true)
	if err != nil || op != OpS32toF64 {
		t.Errorf("mapConvert s32tof64 = %v, %v, want OpS32toF64", op, err)
	}
	op, err = mapConvert(mir.ConvFloatToInt, 64, 32, false)
	if err != nil || op != OpF64toU32 {
		t.Errorf("mapConvert f64tou32 = %v, %v, want OpF64toU32", op, err)
	}
}

func TestMapCall(t *testing.T) {
	if op := mapCall(KindRegister); op != OpICallR {
		t.Errorf("mapCall register = %v, want OpICallR", op)
	}
	if op := mapCall(KindMemory); op != OpICallM {
		t.Errorf("mapCall memory = %v, want OpICallM", op)
	}
	if op := mapCall(KindImmediate); op != OpCall {
		t.Errorf("mapCall label = %v, want OpCall", op)
	}
}
