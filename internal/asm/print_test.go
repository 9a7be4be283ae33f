package asm

import (
	"testing"

	"github.com/cwbudde/go-dws/internal/mir"
	"github.com/gkampitakis/go-snaps/snaps"
)

func TestPrintListing(t *testing.T) {
	fn := buildAddFunction()
	mod := mir.NewModule()
	mod.AddFunction(fn)
	stream := Lower(mod)
	snaps.MatchSnapshot(t, "add_listing", Print(stream))
}

func TestPrintNormalizesLabelNames(t *testing.T) {
	decomposed := "Cafe\u0301"  // "e" + combining acute accent (U+0301)
	precomposed := "Caf\u00e9" // single NFC codepoint for e-acute

	stream := NewAssemblyStream()
	stream.NewLabel(decomposed, true)
	stream.Emit(&Instr{Op: OpRet})

	out := Print(stream)
	want := precomposed + ":\n"
	if out[:len(want)] != want {
		t.Errorf("Print() = %q, want it to start with %q", out, want)
	}
}
