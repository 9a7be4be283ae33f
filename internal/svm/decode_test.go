package svm

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/asm"
)

func TestCodeSizeKnownOpcodes(t *testing.T) {
	cases := []struct {
		op   asm.OpCode
		size int
	}{
		{asm.OpRet, 1},
		{asm.OpTerminate, 1},
		{asm.OpLnt, 2},
		{asm.OpSetE, 2},
		{asm.OpMov64RR, 3},
		{asm.OpAdd64RR, 3},
		{asm.OpICallR, 3},
		{asm.OpLincsp, 4},
		{asm.OpCfng, 4},
		{asm.OpCbltn, 4},
		{asm.OpJmp, 5},
		{asm.OpJe, 5},
		{asm.OpMov64MR, 6},
		{asm.OpMov64RM, 6},
		{asm.OpLea, 6},
		{asm.OpCall, 6},
		{asm.OpICallM, 6},
		{asm.OpAdd32RV, 6},
		{asm.OpMov64RV, 10},
		{asm.OpAdd64RV, 10},
	}
	for _, c := range cases {
		if got := codeSize(c.op); got != c.size {
			t.Errorf("codeSize(%s) = %d, want %d", c.op, got, c.size)
		}
	}
}

// TestCodeSizeCoversEveryOpcode asserts every opcode internal/asm knows how
// to name (op.String() != "?") also has a nonzero instrSize entry, so the
// decoder never silently treats a real instruction as unrecognized.
func TestCodeSizeCoversEveryOpcode(t *testing.T) {
	for b := 0; b < 256; b++ {
		op := asm.OpCode(b)
		if op.String() == "?" {
			continue
		}
		if codeSize(op) == 0 {
			t.Errorf("opcode %s (0x%02x) has no instrSize entry", op, b)
		}
	}
}

func TestCodeSizeUnknownOpcodeIsZero(t *testing.T) {
	for b := 0; b < 256; b++ {
		op := asm.OpCode(b)
		if op.String() != "?" {
			continue
		}
		if got := codeSize(op); got != 0 {
			t.Errorf("codeSize(unknown opcode 0x%02x) = %d, want 0", b, got)
		}
	}
}
