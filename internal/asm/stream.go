package asm

// AssemblyStream is the ordered element list the code generator emits from
// MIR and the assembler consumes, grounded on Assembler.cc's Context, which
// walks the same shape of list via a single visit/translate pass.
type AssemblyStream struct {
	Elements []Element
	nextID   int
}

func NewAssemblyStream() *AssemblyStream { return &AssemblyStream{} }

// NewLabel allocates a Label with a fresh stream-unique id and appends it.
func (s *AssemblyStream) NewLabel(name string, isFunction bool) *Label {
	l := &Label{id: s.nextID, name: name, IsFunction: isFunction}
	s.nextID++
	s.Elements = append(s.Elements, l)
	return l
}

// Emit appends inst to the stream.
func (s *AssemblyStream) Emit(inst *Instr) {
	s.Elements = append(s.Elements, inst)
}
