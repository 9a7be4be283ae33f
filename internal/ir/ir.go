// Package ir implements the Scatha SSA intermediate representation:
// Module/Function/BasicBlock/Instruction/Value, grounded on
// original_source/include/scatha/IR/CFG/{Module,Function,BasicBlock}.h for
// the ownership shape and original_source/lib/IR/Iterator.h for the
// block/instruction traversal order every later pass relies on.
//
// The source models ownership with an index-stable arena (Module owns every
// Function/BasicBlock/Value by value, referenced elsewhere by raw pointer)
// specifically to survive dangling-pointer bugs across passes that erase
// instructions. Go's garbage collector removes the reason for that
// indirection: a Go pointer into a live struct stays valid as long as
// anything references it, so this package keeps plain `*BasicBlock`/
// `*Instruction` pointers in slices instead of an index arena, matching how
// the teacher's internal/bytecode package holds direct struct pointers.
package ir

import "fmt"

// Type is the minimal IR-level type tag; IR types are simpler than sema's
// QualType (no mutability, no reference-ness — both erased by lowering).
type Type interface {
	String() string
	Size() int
	Align() int
}

// Value is anything an Instruction can take as an operand: an Instruction
// result, a Parameter, a Constant, or a BasicBlock (branch targets).
type Value interface {
	Type() Type
	// Users returns every Instruction that currently references this value,
	// maintained incrementally by ReplaceAllUsesWith (spec.md §3.3 invariant:
	// "use-lists stay consistent after any mutation").
	Users() []*Instruction
	addUser(*Instruction)
	removeUser(*Instruction)
	valueName() string
}

// valueBase implements the Users()/addUser/removeUser bookkeeping shared by
// every Value kind.
type valueBase struct {
	typ   Type
	users []*Instruction
	name  string
}

func (v *valueBase) Type() Type { return v.typ }
func (v *valueBase) Users() []*Instruction {
	out := make([]*Instruction, len(v.users))
	copy(out, v.users)
	return out
}
func (v *valueBase) addUser(i *Instruction) { v.users = append(v.users, i) }
func (v *valueBase) removeUser(i *Instruction) {
	for idx, u := range v.users {
		if u == i {
			v.users = append(v.users[:idx], v.users[idx+1:]...)
			return
		}
	}
}
func (v *valueBase) valueName() string { return v.name }

// Module is the top-level IR container: every Function plus every global
// ConstantData blob (spec.md §3.3).
type Module struct {
	Functions []*Function
	Globals   []*ConstantData
}

func NewModule() *Module { return &Module{} }

func (m *Module) AddFunction(f *Function) { m.Functions = append(m.Functions, f) }
func (m *Module) AddGlobal(g *ConstantData) { m.Globals = append(m.Globals, g) }

// Parameter is a function argument, itself a Value usable as an instruction
// operand directly.
type Parameter struct {
	valueBase
	Index int
}

func NewParameter(name string, typ Type, index int) *Parameter {
	return &Parameter{valueBase: valueBase{typ: typ, name: name}, Index: index}
}

// Function is an SSA function: an ordered list of BasicBlocks, the first of
// which is the entry block (spec.md §3.3).
type Function struct {
	valueBase
	Params     []*Parameter
	ReturnType Type
	Blocks     []*BasicBlock
	IsExtern   bool // true for a declared-but-not-defined (foreign) function
}

func NewFunction(name string, params []*Parameter, ret Type) *Function {
	return &Function{valueBase: valueBase{typ: ret, name: name}, Params: params, ReturnType: ret}
}

func (f *Function) AddBlock(b *BasicBlock) {
	b.Parent = f
	f.Blocks = append(f.Blocks, b)
}

// Entry returns the function's entry block, or nil if it has none yet.
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

func (f *Function) Name() string { return f.name }

// BasicBlock is a maximal straight-line instruction sequence ending in
// exactly one terminator (spec.md §3.3 invariant).
type BasicBlock struct {
	valueBase
	Parent       *Function
	Instructions []*Instruction
	// Preds/Succs are maintained incrementally as terminators are built or
	// rewritten (spec.md §3.3: "predecessor/successor lists stay consistent").
	Preds []*BasicBlock
	Succs []*BasicBlock
}

func NewBasicBlock(name string) *BasicBlock {
	return &BasicBlock{valueBase: valueBase{name: name}}
}

func (b *BasicBlock) Name() string { return b.name }

// Terminator returns the block's last instruction, or nil if the block is
// empty (a transient state during construction).
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	return b.Instructions[len(b.Instructions)-1]
}

// PushInst appends inst to the block and records operand use-edges.
func (b *BasicBlock) PushInst(inst *Instruction) {
	inst.Parent = b
	b.Instructions = append(b.Instructions, inst)
	for _, op := range inst.Operands {
		if op != nil {
			op.addUser(inst)
		}
	}
	if term, ok := inst.terminatorTargets(); ok {
		for _, t := range term {
			b.addSucc(t)
		}
	}
}

// PushInstFront inserts inst at the start of the block (the phi region),
// for passes that introduce new Phis after the block already has content
// (spec.md §4.4 Mem2Reg/GVN both insert phis this way).
func (b *BasicBlock) PushInstFront(inst *Instruction) {
	inst.Parent = b
	b.Instructions = append([]*Instruction{inst}, b.Instructions...)
	for _, op := range inst.Operands {
		if op != nil {
			op.addUser(inst)
		}
	}
}

func (b *BasicBlock) addSucc(t *BasicBlock) {
	for _, s := range b.Succs {
		if s == t {
			return
		}
	}
	b.Succs = append(b.Succs, t)
	t.Preds = append(t.Preds, b)
}

// RemoveInst detaches inst from the block and drops its operand use-edges,
// keeping the use-list invariant intact (spec.md §3.3).
func (b *BasicBlock) RemoveInst(inst *Instruction) {
	for i, c := range b.Instructions {
		if c == inst {
			b.Instructions = append(b.Instructions[:i], b.Instructions[i+1:]...)
			break
		}
	}
	for _, op := range inst.Operands {
		if op != nil {
			op.removeUser(inst)
		}
	}
}

// ReplaceAllUsesWith rewrites every Instruction operand currently pointing
// at v to point at repl instead, and fixes up both values' user lists
// (spec.md §3.3 invariant, the core primitive every optimizer pass needs).
func ReplaceAllUsesWith(v Value, repl Value) {
	for _, u := range v.Users() {
		for i, op := range u.Operands {
			if op == v {
				u.Operands[i] = repl
				v.removeUser(u)
				repl.addUser(u)
			}
		}
	}
}

func (b *BasicBlock) String() string {
	s := b.name + ":\n"
	for _, i := range b.Instructions {
		s += "  " + i.String() + "\n"
	}
	return s
}

// ConstantData is a module-level immutable byte blob, the lowering target
// for string literals (spec.md §9 Open Question #3, resolved per
// SPEC_FULL.md §5 to follow the newer array-of-i8 ConstantData behavior).
type ConstantData struct {
	valueBase
	Bytes []byte
}

func NewConstantData(name string, bytes []byte, typ Type) *ConstantData {
	return &ConstantData{valueBase: valueBase{typ: typ, name: name}, Bytes: bytes}
}

func (c *ConstantData) Name() string { return c.name }

// ConstantInt/ConstantFloat are scalar immediate operands.
type ConstantInt struct {
	valueBase
	Value int64
}

func NewConstantInt(v int64, typ Type) *ConstantInt {
	return &ConstantInt{valueBase: valueBase{typ: typ}, Value: v}
}

func (c *ConstantInt) String() string { return fmt.Sprintf("%d", c.Value) }

type ConstantFloat struct {
	valueBase
	Value float64
}

func NewConstantFloat(v float64, typ Type) *ConstantFloat {
	return &ConstantFloat{valueBase: valueBase{typ: typ}, Value: v}
}

func (c *ConstantFloat) String() string { return fmt.Sprintf("%g", c.Value) }
