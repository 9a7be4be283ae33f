package asm

import (
	"encoding/binary"
	"fmt"
)

// Program is an assembled text section plus the function-label offsets
// later consumers (the binary layout writer, the debugger) need to
// resolve a call target or a breakpoint back to a function name.
type Program struct {
	Text            []byte
	FunctionOffsets map[string]int
}

type patchSite struct {
	offset   int // byte offset of the 4-byte placeholder
	target   int // label id
	relative bool
}

// Assemble runs the two-pass emit/patch translation from spec.md §4.6: the
// first pass walks stream in order writing raw bytes and recording every
// label's resolved offset plus every unresolved jump/call site; the second
// patches each site now that every label's offset is known.
func Assemble(stream *AssemblyStream) (*Program, error) {
	var text []byte
	labelOffsets := make(map[int]int, len(stream.Elements))
	funcOffsets := map[string]int{}
	var sites []patchSite

	for _, el := range stream.Elements {
		switch e := el.(type) {
		case *Label:
			labelOffsets[e.id] = len(text)
			if e.IsFunction {
				funcOffsets[e.name] = len(text)
			}
		case *Instr:
			text = append(text, byte(e.Op))
			for _, operand := range e.Operands {
				switch o := operand.(type) {
				case RegisterOperand:
					text = append(text, o.Index)
				case MemoryOperand:
					text = append(text, o.Base, o.OffsetReg, byte(o.OffsetMultiplier), byte(o.InnerOffset))
				case Immediate:
					text = appendLittleEndian(text, o.Value, o.Width)
				case LabelRef:
					sites = append(sites, patchSite{offset: len(text), target: o.Target.id, relative: o.Relative})
					text = append(text, 0, 0, 0, 0)
				default:
					return nil, fmt.Errorf("asm: unknown operand type %T", operand)
				}
			}
		default:
			return nil, fmt.Errorf("asm: unknown stream element type %T", el)
		}
	}

	for _, site := range sites {
		target, ok := labelOffsets[site.target]
		if !ok {
			return nil, fmt.Errorf("asm: unresolved label id %d", site.target)
		}
		value := int32(target)
		if site.relative {
			value = int32(target - site.offset)
		}
		binary.LittleEndian.PutUint32(text[site.offset:site.offset+4], uint32(value))
	}

	return &Program{Text: text, FunctionOffsets: funcOffsets}, nil
}

func appendLittleEndian(buf []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		buf = append(buf, byte(v>>(8*uint(i))))
	}
	return buf
}

// CodeSize returns the assembled byte length an element would contribute,
// without assembling it — used by tests and by the debugger's
// address-to-instruction mapping.
func CodeSize(el Element) int {
	switch e := el.(type) {
	case *Label:
		return 0
	case *Instr:
		return e.Size()
	default:
		return 0
	}
}
