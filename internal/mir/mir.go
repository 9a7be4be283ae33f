// Package mir implements the Scatha Machine IR: registers, memory addresses,
// and basic blocks one level below the SSA IR and one level above assembly,
// grounded on original_source/lib/CodeGen/{ISel.cc,ISelFunction.{h,cc},
// LowerToMIR2.cc,ValueMap.{h,cc}}.
//
// Like internal/ir, this package keeps plain pointers into Go-GC-managed
// structs rather than the source's index-stable arena; see internal/ir's
// package doc for the reasoning, which applies identically here.
package mir

import "fmt"

// Value is anything a MIR instruction can reference as an operand: a
// Register, an immediate Constant, or Undef.
type Value interface {
	isValue()
	String() string
}

// Register is the tagged union from spec.md §3.4: SSARegister (virtual,
// assigned one per machine word during instruction selection) or
// PhysicalRegister (a register already fixed to a VM register-window slot,
// the output of register allocation). Both implement Value so they can be
// used directly as instruction operands.
type Register interface {
	Value
	Index() int
	isRegister()
}

// SSARegister is a virtual register defined by exactly one instruction.
// Functions allocate these in order starting at 0; ISel reserves one per
// machine word of every IR value it resolves (see Function.NextSSARegisters).
type SSARegister struct{ index int }

func NewSSARegister(index int) *SSARegister { return &SSARegister{index: index} }
func (r *SSARegister) Index() int           { return r.index }
func (r *SSARegister) isValue()             {}
func (r *SSARegister) isRegister()          {}
func (r *SSARegister) String() string       { return fmt.Sprintf("%%vreg%d", r.index) }

// PhysicalRegister is a fixed slot in the VM's per-call register window,
// assigned by register allocation before assembly.
type PhysicalRegister struct{ index int }

func NewPhysicalRegister(index int) *PhysicalRegister { return &PhysicalRegister{index: index} }
func (r *PhysicalRegister) Index() int                { return r.index }
func (r *PhysicalRegister) isValue()                  {}
func (r *PhysicalRegister) isRegister()               {}
func (r *PhysicalRegister) String() string            { return fmt.Sprintf("$r%d", r.index) }

// ConstantInt/ConstantFloat are immediate operands, narrower than the IR's
// equivalents in that they also carry the machine Width the encoder needs.
type ConstantInt struct {
	Value uint64
	Width int
}

func NewConstantInt(v uint64, width int) *ConstantInt { return &ConstantInt{Value: v, Width: width} }
func (c *ConstantInt) isValue()                       {}
func (c *ConstantInt) String() string                 { return fmt.Sprintf("%d", c.Value) }

type ConstantFloat struct {
	Value float64
	Width int
}

func NewConstantFloat(v float64, width int) *ConstantFloat {
	return &ConstantFloat{Value: v, Width: width}
}
func (c *ConstantFloat) isValue()   {}
func (c *ConstantFloat) String() string { return fmt.Sprintf("%g", c.Value) }

// UndefValue is the target of ir.UndefValue once resolved: any bit pattern
// is a valid representation, so the register/memory it occupies is simply
// never written.
type UndefValue struct{}

func (UndefValue) isValue()        {}
func (UndefValue) String() string  { return "undef" }

var Undef Value = UndefValue{}

// NoDynamicOffset is the sentinel (spec.md §3.4) stored in a MemoryAddress's
// OffsetReg slot meaning "no dynamic offset register" — encoded as the byte
// 0xFF by the assembler.
const NoDynamicOffset = 0xFF

// MemoryAddress is the 4-tuple addressing mode every load/store/lea
// instruction uses: base register, an optional dynamic offset register,
// and two constant factors combined as
// address = Base + OffsetReg*ConstantOffsetMultiplier + ConstantInnerOffset.
type MemoryAddress struct {
	Base                     Register
	OffsetReg                Register // nil means NoDynamicOffset
	ConstantOffsetMultiplier int
	ConstantInnerOffset      int
}

func (m MemoryAddress) String() string {
	if m.OffsetReg == nil {
		return fmt.Sprintf("[%s + %d]", m.Base, m.ConstantInnerOffset)
	}
	return fmt.Sprintf("[%s + %s*%d + %d]", m.Base, m.OffsetReg, m.ConstantOffsetMultiplier, m.ConstantInnerOffset)
}

// Visibility mirrors ir.Function's extern/exported distinction, carried
// through to MIR per ISel.cc's `irFn.visibility()` argument to mir::Function.
type Visibility int

const (
	VisibilityInternal Visibility = iota
	VisibilityExported
	VisibilityExtern
)

// BasicBlock is a maximal straight-line MIR instruction sequence. Unlike
// ir.BasicBlock it carries no Phi region of its own: Phis are eliminated
// during instruction selection into copies placed at the end of each
// predecessor (see internal/isel's selectFunction.go), so every BasicBlock
// here holds only straight-line code up to its control transfer: a single
// Jump or Return, or a CondJump followed by the Jump to its false target.
type BasicBlock struct {
	name         string
	Parent       *Function
	Instructions []*Instruction
	Preds        []*BasicBlock
	Succs        []*BasicBlock
}

func NewBasicBlock(name string) *BasicBlock {
	return &BasicBlock{name: name}
}

func (b *BasicBlock) Name() string { return b.name }

func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// PushInst appends inst to the block's tail.
func (b *BasicBlock) PushInst(inst *Instruction) {
	inst.Parent = b
	b.Instructions = append(b.Instructions, inst)
}

// PushInstBefore inserts inst immediately before the block's terminator,
// used to splice in phi-elimination copies without disturbing the
// terminator's position as the last instruction.
func (b *BasicBlock) PushInstBefore(inst *Instruction, before *Instruction) {
	idx := len(b.Instructions)
	for i, c := range b.Instructions {
		if c == before {
			idx = i
			break
		}
	}
	inst.Parent = b
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[idx+1:], b.Instructions[idx:])
	b.Instructions[idx] = inst
}

// AddSuccessor records t as a control-flow successor of b, keeping both
// blocks' Preds/Succs lists in sync (exported for internal/isel, which
// wires up MIR block CFG edges from the IR block structure before any
// instruction exists to infer them from).
func (b *BasicBlock) AddSuccessor(t *BasicBlock) { b.addSucc(t) }

func (b *BasicBlock) addSucc(t *BasicBlock) {
	for _, s := range b.Succs {
		if s == t {
			return
		}
	}
	b.Succs = append(b.Succs, t)
	t.Preds = append(t.Preds, b)
}

// Function is an MIR function: an ordered list of basic blocks plus the
// register-window layout ISel needs — how many words its parameters and
// return value occupy — grounded on LowerToMIR2.cc's numParamRegisters/
// numReturnRegisters.
type Function struct {
	name           string
	Blocks         []*BasicBlock
	NumSSARegs     int
	ParamRegisters int
	ReturnRegisters int
	Visibility     Visibility
	IsExtern       bool
}

func NewFunction(name string, paramRegisters, returnRegisters int, vis Visibility) *Function {
	return &Function{name: name, ParamRegisters: paramRegisters, ReturnRegisters: returnRegisters, Visibility: vis}
}

func (f *Function) Name() string { return f.name }

func (f *Function) AddBlock(b *BasicBlock) {
	b.Parent = f
	f.Blocks = append(f.Blocks, b)
}

func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NextSSARegisters allocates numWords adjacent fresh SSARegisters and
// returns the first of them, mirroring Resolver::nextRegister(s) — later
// words are implicitly register.Index()+1, +2, ...
func (f *Function) NextSSARegisters(numWords int) *SSARegister {
	first := f.NumSSARegs
	f.NumSSARegs += numWords
	return NewSSARegister(first)
}

func (f *Function) isValue()       {}
func (f *Function) String() string { return f.name }

// Module is the MIR program: every lowered function, in the order their IR
// counterparts were declared.
type Module struct {
	Functions []*Function
}

func NewModule() *Module { return &Module{} }

func (m *Module) AddFunction(f *Function) { m.Functions = append(m.Functions, f) }
