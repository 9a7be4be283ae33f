package isel

import (
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/mir"
)

// allocaLocation records where a static alloca's storage actually lives
// once every entry-block alloca has been folded into one stack-frame
// prologue, grounded on ISelFunction.cc's AllocaMap/AllocaLocation.
type allocaLocation struct {
	base   mir.Register
	offset int
}

// selContext carries the per-function state instruction selection threads
// through every block, mirroring ISelFunction.cc's ISelContext plus
// Resolver.h's resolve/resolveToRegister/nextRegister(s) helpers collapsed
// onto this struct since Go has no equivalent need for a separately
// injected instruction-emitter callback — PushInst on the current block
// plays that role directly.
type selContext struct {
	irFn   *ir.Function
	mirFn  *mir.Function
	global *mir.ValueMap
	local  *mir.ValueMap

	blockMap map[*ir.BasicBlock]*mir.BasicBlock
	allocas  map[*ir.Instruction]allocaLocation
}

// selectFunction lowers irFn's body into mirFn, grounded on
// ISelFunction.cc's cg::iselFunction/ISelContext::run.
func selectFunction(irFn *ir.Function, mirFn *mir.Function, global *mir.ValueMap) {
	ctx := &selContext{
		irFn:     irFn,
		mirFn:    mirFn,
		global:   global,
		local:    mir.NewValueMap(),
		blockMap: map[*ir.BasicBlock]*mir.BasicBlock{},
		allocas:  map[*ir.Instruction]allocaLocation{},
	}

	for _, irBB := range irFn.Blocks {
		mirBB := mir.NewBasicBlock(irBB.Name())
		mirFn.AddBlock(mirBB)
		ctx.blockMap[irBB] = mirBB
	}
	for _, irBB := range irFn.Blocks {
		mirBB := ctx.blockMap[irBB]
		for _, s := range irBB.Succs {
			mirBB.AddSuccessor(ctx.blockMap[s])
		}
	}

	for _, p := range irFn.Params {
		reg := mirFn.NextSSARegisters(numWords(p.Type()))
		ctx.local.Insert(p, reg)
	}

	// Every Phi's result register is reserved up front so that a
	// predecessor block, selected before the Phi's own block, can already
	// target it with the elimination copy appended in the post-pass below.
	for _, irBB := range irFn.Blocks {
		for _, inst := range irBB.Instructions {
			if inst.Op != ir.OpPhi {
				continue
			}
			reg := mirFn.NextSSARegisters(numWords(inst.Type()))
			ctx.local.Insert(inst, reg)
		}
	}

	ctx.computeAllocaMap()

	for _, irBB := range irFn.Blocks {
		ctx.selectBlock(irBB)
	}

	ctx.resolvePhis()
}

// computeAllocaMap folds every static alloca at the head of the entry block
// into one stack-frame prologue instruction, grounded on
// ISelFunction.cc::computeAllocaMap.
func (ctx *selContext) computeAllocaMap() {
	entry := ctx.irFn.Entry()
	if entry == nil {
		return
	}
	const stackAlign = 16
	offset := 0
	var allocas []*ir.Instruction
	var offsets []int
	for _, inst := range entry.Instructions {
		if inst.Op != ir.OpAlloca {
			break
		}
		offsets = append(offsets, offset)
		allocas = append(allocas, inst)
		size := inst.AllocatedType().Size()
		if size%stackAlign != 0 {
			size += stackAlign - size%stackAlign
		}
		offset += size
	}
	if len(allocas) == 0 {
		return
	}
	base := ctx.mirFn.NextSSARegisters(1)
	mirEntry := ctx.blockMap[entry]
	mirEntry.PushInst(mir.NewLincsp(base, offset))
	for i, inst := range allocas {
		ctx.allocas[inst] = allocaLocation{base: base, offset: offsets[i]}
	}
}

func (ctx *selContext) selectBlock(irBB *ir.BasicBlock) {
	mirBB := ctx.blockMap[irBB]
	dag := Build(irBB)
	folded := ctx.foldedCompare(irBB)
	for _, inst := range dag.Schedule() {
		switch inst.Op {
		case ir.OpPhi:
			continue // resolved by resolvePhis once every block is selected
		case ir.OpAlloca:
			if _, ok := ctx.allocas[inst]; ok {
				ctx.selectAlloca(mirBB, inst)
				continue
			}
			// A dynamically-sized alloca outside the static prologue:
			// outside this pass's scope (spec.md §4.5 only combines static
			// allocas); left unselected is a documented limitation rather
			// than silently miscompiling one.
			continue
		default:
			if inst == folded {
				continue
			}
			ctx.selectInst(mirBB, inst)
		}
	}
}

// foldedCompare returns the single-use compare instruction immediately
// feeding bb's CondBranch terminator, if any, so selectBlock can skip
// selecting it standalone and selectInst's CondBranch case can fold it
// directly into one Compare+CondJump pair instead of a wasteful
// Compare+Set+Test chain.
func (ctx *selContext) foldedCompare(bb *ir.BasicBlock) *ir.Instruction {
	term := bb.Terminator()
	if term == nil || term.Op != ir.OpCondBranch {
		return nil
	}
	cmp, ok := term.Operands[0].(*ir.Instruction)
	if !ok || !isCompareOpcode(cmp.Op) || cmp.Parent != bb {
		return nil
	}
	users := cmp.Users()
	if len(users) != 1 || users[0] != term {
		return nil
	}
	return cmp
}

func (ctx *selContext) selectAlloca(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	loc := ctx.allocas[inst]
	dest := ctx.mirFn.NextSSARegisters(1)
	mirBB.PushInst(mir.NewLea(dest, mir.MemoryAddress{Base: loc.base, ConstantInnerOffset: loc.offset}))
	ctx.local.Insert(inst, dest)
}

// resolve maps an already-selected IR value to its MIR value, grounded on
// Resolver::resolve/resolveImpl.
func (ctx *selContext) resolve(v ir.Value) mir.Value {
	switch val := v.(type) {
	case *ir.ConstantInt:
		return mir.NewConstantInt(uint64(val.Value), widthOf(val.Type()))
	case *ir.ConstantFloat:
		return mir.NewConstantFloat(val.Value, widthOf(val.Type()))
	case *ir.Parameter:
		if r := ctx.local.Lookup(val); r != nil {
			return r
		}
		panic("isel: unresolved parameter")
	case *ir.Function:
		if r := ctx.global.Lookup(val); r != nil {
			return r
		}
		panic("isel: unresolved function reference")
	case *ir.Instruction:
		if r := ctx.local.Lookup(val); r != nil {
			return r
		}
		panic("isel: instruction used before selection: " + val.String())
	case *ir.ConstantData:
		off, ok := ctx.global.LookupStaticAddress(val)
		if !ok {
			panic("isel: constant data with no assigned static address")
		}
		return mir.NewConstantInt(off, widthOf(val.Type()))
	default:
		panic("isel: cannot resolve value")
	}
}

// resolveToRegister is Resolver::resolveToRegister: copies a non-register
// value (an immediate) into a fresh register so the caller always has a
// register to work with.
func (ctx *selContext) resolveToRegister(mirBB *mir.BasicBlock, v ir.Value) mir.Register {
	val := ctx.resolve(v)
	if r, ok := val.(mir.Register); ok {
		return r
	}
	dest := ctx.mirFn.NextSSARegisters(numWords(v.Type()))
	mirBB.PushInst(mir.NewCopy(dest, val, widthOf(v.Type())))
	return dest
}

func (ctx *selContext) selectInst(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	if op, signed, ok := arithOpOf(inst.Op); ok {
		lhs := ctx.resolve(inst.Operands[0])
		rhs := ctx.resolve(inst.Operands[1])
		dest := ctx.mirFn.NextSSARegisters(numWords(inst.Type()))
		mirBB.PushInst(mir.NewArith(dest, op, lhs, rhs, widthOf(inst.Type())))
		_ = signed // arithmetic opcode already distinguishes signed/unsigned variants
		ctx.local.Insert(inst, dest)
		return
	}
	if isCompareOpcode(inst.Op) {
		ctx.selectCompare(mirBB, inst)
		return
	}

	switch inst.Op {
	case ir.OpGetElementPointer:
		ctx.selectGEP(mirBB, inst)
	case ir.OpLoad:
		addr := ctx.resolveToRegister(mirBB, inst.Operands[0])
		dest := ctx.mirFn.NextSSARegisters(numWords(inst.Type()))
		mirBB.PushInst(mir.NewLoad(dest, mir.MemoryAddress{Base: addr}, widthOf(inst.Type())))
		ctx.local.Insert(inst, dest)
	case ir.OpStore:
		addr := ctx.resolveToRegister(mirBB, inst.Operands[0])
		src := ctx.resolve(inst.Operands[1])
		mirBB.PushInst(mir.NewStore(mir.MemoryAddress{Base: addr}, src, widthOf(inst.Operands[1].Type())))
	case ir.OpCall:
		ctx.selectCall(mirBB, inst)
	case ir.OpReturn:
		ctx.selectReturn(mirBB, inst)
	case ir.OpBranch:
		mirBB.PushInst(mir.NewJump(ctx.blockMap[inst.Targets[0]]))
	case ir.OpCondBranch:
		ctx.selectCondBranch(mirBB, inst)
	case ir.OpTrunc, ir.OpSExt, ir.OpZExt, ir.OpFTrunc, ir.OpFExt, ir.OpSIToFP, ir.OpUIToFP, ir.OpFPToSI, ir.OpFPToUI:
		ctx.selectConvert(mirBB, inst)
	case ir.OpBitcast:
		src := ctx.resolve(inst.Operands[0])
		dest := ctx.mirFn.NextSSARegisters(numWords(inst.Type()))
		mirBB.PushInst(mir.NewCopy(dest, src, widthOf(inst.Type())))
		ctx.local.Insert(inst, dest)
	case ir.OpSelect:
		ctx.selectSelect(mirBB, inst)
	default:
		panic("isel: unhandled opcode " + inst.Op.String())
	}
}

func (ctx *selContext) selectGEP(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	base := ctx.resolveToRegister(mirBB, inst.Operands[0])
	dest := ctx.mirFn.NextSSARegisters(1)
	if inst.IsIndexed() {
		idx := ctx.resolveToRegister(mirBB, inst.Operands[1])
		mirBB.PushInst(mir.NewLea(dest, mir.MemoryAddress{Base: base, OffsetReg: idx, ConstantOffsetMultiplier: inst.GEPOffset()}))
	} else {
		mirBB.PushInst(mir.NewLea(dest, mir.MemoryAddress{Base: base, ConstantInnerOffset: inst.GEPOffset()}))
	}
	ctx.local.Insert(inst, dest)
}

func (ctx *selContext) selectCall(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	// Arguments are copied into fresh adjacent registers forming the
	// callee's register window; the exact physical placement of that
	// window relative to the caller's own is register allocation's job,
	// not instruction selection's — CallDelta records where the window
	// selection believes it starts today.
	delta := ctx.mirFn.NumSSARegs
	for _, arg := range inst.Operands {
		v := ctx.resolve(arg)
		argReg := ctx.mirFn.NextSSARegisters(numWords(arg.Type()))
		mirBB.PushInst(mir.NewCopy(argReg, v, widthOf(arg.Type())))
	}
	callee, _ := ctx.global.Lookup(inst.Callee).(*mir.Function)
	var dest mir.Register
	if !isVoidType(inst.Type()) {
		dest = ctx.mirFn.NextSSARegisters(numWords(inst.Type()))
	}
	mirBB.PushInst(mir.NewCall(dest, callee, delta))
	if dest != nil {
		ctx.local.Insert(inst, dest)
	}
}

// selectReturn copies the return value into the calling convention's return
// register window (physical register 0 upward, one per word) before the
// actual Return instruction; which physical slots these are relative to the
// caller's own window is register allocation's concern, not this pass's.
func (ctx *selContext) selectReturn(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	if len(inst.Operands) == 1 {
		v := ctx.resolve(inst.Operands[0])
		dest := mir.NewPhysicalRegister(0)
		mirBB.PushInst(mir.NewCopy(dest, v, widthOf(inst.Operands[0].Type())))
	}
	mirBB.PushInst(mir.NewReturn())
}

func (ctx *selContext) selectCondBranch(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	trueBB := ctx.blockMap[inst.Targets[0]]
	falseBB := ctx.blockMap[inst.Targets[1]]
	cond := inst.Operands[0]
	if cmp, ok := cond.(*ir.Instruction); ok && isCompareOpcode(cmp.Op) {
		if users := cmp.Users(); len(users) == 1 && users[0] == inst {
			lhs := ctx.resolve(cmp.Operands[0])
			rhs := ctx.resolve(cmp.Operands[1])
			mirBB.PushInst(mir.NewCompare(lhs, rhs, widthOf(cmp.Operands[0].Type()), isSignedCompare(cmp.Op), isFloatCompare(cmp.Op)))
			mirBB.PushInst(mir.NewCondJump(trueBB, compareCondition[cmp.Op]))
			mirBB.PushInst(mir.NewJump(falseBB))
			return
		}
	}
	reg := ctx.resolveToRegister(mirBB, cond)
	mirBB.PushInst(mir.NewTest(reg, widthOf(cond.Type()), false))
	mirBB.PushInst(mir.NewCondJump(trueBB, mir.CompareNotEqual))
	mirBB.PushInst(mir.NewJump(falseBB))
}

func (ctx *selContext) selectCompare(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	lhs := ctx.resolve(inst.Operands[0])
	rhs := ctx.resolve(inst.Operands[1])
	mirBB.PushInst(mir.NewCompare(lhs, rhs, widthOf(inst.Operands[0].Type()), isSignedCompare(inst.Op), isFloatCompare(inst.Op)))
	dest := ctx.mirFn.NextSSARegisters(1)
	mirBB.PushInst(mir.NewSet(dest, compareCondition[inst.Op]))
	ctx.local.Insert(inst, dest)
}

func (ctx *selContext) selectConvert(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	src := ctx.resolve(inst.Operands[0])
	dest := ctx.mirFn.NextSSARegisters(numWords(inst.Type()))
	fromWidth := widthOf(inst.Operands[0].Type())
	toWidth := widthOf(inst.Type())
	if inst.Op == ir.OpTrunc {
		// Registers are always full 64-bit words: narrowing needs no opcode
		// of its own, only the width-tagged opcode that later consumes the
		// value reads fewer of its bits.
		mirBB.PushInst(mir.NewCopy(dest, src, toWidth))
		ctx.local.Insert(inst, dest)
		return
	}
	var kind mir.ConversionKind
	var signed bool
	switch inst.Op {
	case ir.OpSExt, ir.OpZExt:
		kind = mir.ConvIntExt
		signed = inst.Op == ir.OpSExt
	case ir.OpFTrunc:
		kind = mir.ConvFloatTrunc
	case ir.OpFExt:
		kind = mir.ConvFloatExt
	case ir.OpSIToFP:
		kind = mir.ConvIntToFloat
		signed = true
	case ir.OpUIToFP:
		kind = mir.ConvIntToFloat
	case ir.OpFPToSI:
		kind = mir.ConvFloatToInt
		signed = true
	case ir.OpFPToUI:
		kind = mir.ConvFloatToInt
	}
	mirBB.PushInst(mir.NewConvert(dest, src, kind, fromWidth, toWidth, signed))
	ctx.local.Insert(inst, dest)
}

// selectSelect lowers ir.OpSelect (ternary value select) to a Copy of the
// false value followed by a conditional Copy of the true value, mirroring
// Resolver::genCondCopy's cmov-based pattern.
func (ctx *selContext) selectSelect(mirBB *mir.BasicBlock, inst *ir.Instruction) {
	cond, trueVal, falseVal := inst.Operands[0], inst.Operands[1], inst.Operands[2]
	dest := ctx.mirFn.NextSSARegisters(numWords(inst.Type()))
	width := widthOf(inst.Type())
	mirBB.PushInst(mir.NewCopy(dest, ctx.resolve(falseVal), width))
	if cmp, ok := cond.(*ir.Instruction); ok && isCompareOpcode(cmp.Op) {
		lhs := ctx.resolve(cmp.Operands[0])
		rhs := ctx.resolve(cmp.Operands[1])
		mirBB.PushInst(mir.NewCompare(lhs, rhs, widthOf(cmp.Operands[0].Type()), isSignedCompare(cmp.Op), isFloatCompare(cmp.Op)))
		mirBB.PushInst(mir.NewCondCopy(dest, ctx.resolve(trueVal), compareCondition[cmp.Op], width))
	} else {
		reg := ctx.resolveToRegister(mirBB, cond)
		mirBB.PushInst(mir.NewTest(reg, widthOf(cond.Type()), false))
		mirBB.PushInst(mir.NewCondCopy(dest, ctx.resolve(trueVal), mir.CompareNotEqual, width))
	}
	ctx.local.Insert(inst, dest)
}

// resolvePhis eliminates every Phi by appending one Copy per incoming edge
// to the end of the corresponding predecessor block, targeting the Phi's
// pre-reserved register — the standard phi-out-of-SSA lowering, a
// documented simplification of the source's mir::PhiMapping/CopyInst
// machinery that folds phi resolution into instruction selection itself
// rather than deferring it to a separate register-coalescing pass.
func (ctx *selContext) resolvePhis() {
	for _, irBB := range ctx.irFn.Blocks {
		for _, inst := range irBB.Instructions {
			if inst.Op != ir.OpPhi {
				continue
			}
			dest, _ := ctx.local.Lookup(inst).(mir.Register)
			width := widthOf(inst.Type())
			for i, pred := range inst.PhiIncoming {
				predMirBB := ctx.blockMap[pred]
				v := ctx.resolve(inst.Operands[i])
				copyInst := mir.NewCopy(dest, v, width)
				if term := predMirBB.Terminator(); term != nil {
					predMirBB.PushInstBefore(copyInst, term)
				} else {
					predMirBB.PushInst(copyInst)
				}
			}
		}
	}
}
