package asm

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Print renders stream as a human-readable disassembly listing, one line
// per element: "name:" for a label, a tab-indented mnemonic plus operands
// for an instruction. Function/label names are passed through NFC
// normalization first, mirroring the interpreter's own handling of
// user-supplied identifiers so two byte-distinct but canonically equal
// names never render as visibly different labels.
func Print(stream *AssemblyStream) string {
	var sb strings.Builder
	for _, el := range stream.Elements {
		switch e := el.(type) {
		case *Label:
			fmt.Fprintf(&sb, "%s:\n", norm.NFC.String(e.name))
		case *Instr:
			fmt.Fprintf(&sb, "\t%s\n", e.String())
		}
	}
	return sb.String()
}
