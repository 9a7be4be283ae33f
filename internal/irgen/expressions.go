package irgen

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/sema"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// qualTypeOf recovers the concrete types.QualType stored behind the
// decoupled ast.TypeRef interface, mirroring sema's exprQualType helper.
func qualTypeOf(e ast.Expression) types.QualType {
	if qt, ok := e.Type().(types.QualType); ok {
		return qt
	}
	return types.Qual(types.Void, types.Const)
}

// expr lowers e to its rvalue: for a scalar this is a loaded/computed
// ir.Value, for a struct or array this is the address the aggregate lives
// at (SPEC_FULL.md: aggregates are always passed/returned by reference at
// the IR level, converted to true by-value ABI only in instruction
// selection).
func (fg *funcGen) expr(e ast.Expression) ir.Value {
	switch n := e.(type) {
	case *ast.IntLiteral:
		return ir.NewConstantInt(n.Value, fg.g.loweredType(qualTypeOf(n)))
	case *ast.FloatLiteral:
		return ir.NewConstantFloat(n.Value, fg.g.loweredType(qualTypeOf(n)))
	case *ast.BoolLiteral:
		v := int64(0)
		if n.Value {
			v = 1
		}
		return ir.NewConstantInt(v, ir.I1)
	case *ast.StringLiteral:
		return fg.g.internString(n.Value)
	case *ast.NullLiteral:
		return ir.NewConstantInt(0, ir.Ptr)
	case *ast.Identifier:
		return fg.identifier(n)
	case *ast.UnaryExpr:
		return fg.unary(n)
	case *ast.BinaryExpr:
		return fg.binary(n)
	case *ast.ConditionalExpr:
		return fg.conditional(n)
	case *ast.CallExpr:
		return fg.call(n)
	case *ast.MemberAccessExpr:
		return fg.memberAccess(n)
	case *ast.SubscriptExpr:
		return fg.subscript(n)
	case *ast.ListExpr:
		return fg.list(n)
	case *ast.MoveExpr:
		return fg.expr(n.Operand)
	case *ast.ConstructExpr:
		return fg.construct(n)
	default:
		return ir.NewConstantInt(0, ir.Void)
	}
}

// addr lowers e to the address it occupies in memory, for contexts that need
// to write through it (assignment LHS, &e, the base of a mutating member/
// subscript access).
func (fg *funcGen) addr(e ast.Expression) ir.Value {
	switch n := e.(type) {
	case *ast.Identifier:
		obj, ok := n.Entity().(*sema.Object)
		if !ok {
			return ir.NewConstantInt(0, ir.Ptr)
		}
		if slot, ok := fg.locals[obj]; ok {
			return slot
		}
		return ir.NewConstantInt(0, ir.Ptr)
	case *ast.UnaryExpr:
		if n.Op == ast.OpDeref {
			return fg.expr(n.Operand)
		}
	case *ast.MemberAccessExpr:
		return fg.memberAddr(n)
	case *ast.SubscriptExpr:
		return fg.subscriptAddr(n)
	}
	// Aggregates (struct/array rvalues) are already represented by their
	// address; everything else has no addressable storage (a bare
	// computed scalar), which sema's LValue checks are meant to rule out
	// before irgen ever sees it.
	return fg.expr(e)
}

func (fg *funcGen) identifier(n *ast.Identifier) ir.Value {
	obj, ok := n.Entity().(*sema.Object)
	if !ok {
		return ir.NewConstantInt(0, fg.g.loweredType(qualTypeOf(n)))
	}
	slot, ok := fg.locals[obj]
	if !ok {
		return ir.NewConstantInt(0, fg.g.loweredType(obj.Type))
	}
	typ := fg.g.loweredType(obj.Type)
	if _, isStruct := obj.Type.Base.(*types.StructType); isStruct {
		return slot
	}
	if arr, isArr := obj.Type.Base.(*types.ArrayType); isArr && arr.IsComplete() {
		return slot
	}
	load := ir.NewLoad(fg.tmpName("load"), slot, typ)
	fg.cur.PushInst(load)
	return load
}

func (fg *funcGen) unary(n *ast.UnaryExpr) ir.Value {
	switch n.Op {
	case ast.OpAddrOf:
		return fg.addr(n.Operand)
	case ast.OpDeref:
		ptr := fg.expr(n.Operand)
		load := ir.NewLoad(fg.tmpName("deref"), ptr, fg.g.loweredType(qualTypeOf(n)))
		fg.cur.PushInst(load)
		return load
	}

	v := fg.expr(n.Operand)
	ot := qualTypeOf(n.Operand).Base
	resType := fg.g.loweredType(qualTypeOf(n))

	switch n.Op {
	case ast.OpNeg:
		var op ir.Opcode
		var zero ir.Value
		if isFloatObjType(ot) {
			op = ir.OpFSub
			zero = ir.NewConstantFloat(0, resType)
		} else {
			op = ir.OpSub
			zero = ir.NewConstantInt(0, resType)
		}
		inst := ir.NewBinary(op, fg.tmpName("neg"), zero, v, resType)
		fg.cur.PushInst(inst)
		return inst
	case ast.OpLogicalNot:
		inst := ir.NewBinary(ir.OpICmpEq, fg.tmpName("not"), v, ir.NewConstantInt(0, v.Type()), ir.I1)
		fg.cur.PushInst(inst)
		return inst
	case ast.OpBitwiseNot:
		inst := ir.NewBinary(ir.OpXor, fg.tmpName("bnot"), v, ir.NewConstantInt(-1, resType), resType)
		fg.cur.PushInst(inst)
		return inst
	default:
		return v
	}
}

func (fg *funcGen) binary(n *ast.BinaryExpr) ir.Value {
	if n.Op == ast.OpAssign {
		addr := fg.addr(n.Left)
		val := fg.expr(n.Right)
		fg.cur.PushInst(ir.NewStore(addr, val))
		return val
	}
	if n.Op.IsShortCircuit() {
		return fg.shortCircuit(n)
	}

	lhs := fg.expr(n.Left)
	rhs := fg.expr(n.Right)
	lt := qualTypeOf(n.Left).Base
	resType := fg.g.loweredType(qualTypeOf(n))

	op := binaryOpcode(n.Op, lt)
	inst := ir.NewBinary(op, fg.tmpName("bin"), lhs, rhs, binaryResultType(n.Op, resType))
	fg.cur.PushInst(inst)
	return inst
}

func binaryResultType(op ast.BinaryOp, arithResult ir.Type) ir.Type {
	if isCompareOp(op) {
		return ir.I1
	}
	return arithResult
}

func isCompareOp(op ast.BinaryOp) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return true
	default:
		return false
	}
}

// binaryOpcode maps a source operator plus the operand's static type to one
// of the IR's type-specialized opcodes (the IR, unlike the AST, has no
// polymorphic "add" — it distinguishes int/float and signed/unsigned the way
// the teacher's optimizer.go constant folder switches on the operand's
// types.Type).
func binaryOpcode(op ast.BinaryOp, operand types.ObjectType) ir.Opcode {
	isFloat := isFloatObjType(operand)
	isSigned := isSignedObjType(operand)
	switch op {
	case ast.OpAdd:
		if isFloat {
			return ir.OpFAdd
		}
		return ir.OpAdd
	case ast.OpSub:
		if isFloat {
			return ir.OpFSub
		}
		return ir.OpSub
	case ast.OpMul:
		if isFloat {
			return ir.OpFMul
		}
		return ir.OpMul
	case ast.OpDiv:
		if isFloat {
			return ir.OpFDiv
		}
		if isSigned {
			return ir.OpSDiv
		}
		return ir.OpUDiv
	case ast.OpRem:
		if isSigned {
			return ir.OpSRem
		}
		return ir.OpURem
	case ast.OpEq:
		if isFloat {
			return ir.OpFCmpEq
		}
		return ir.OpICmpEq
	case ast.OpNe:
		if isFloat {
			return ir.OpFCmpNe
		}
		return ir.OpICmpNe
	case ast.OpLt:
		if isFloat {
			return ir.OpFCmpLt
		}
		if isSigned {
			return ir.OpICmpSLt
		}
		return ir.OpICmpULt
	case ast.OpLe:
		if isFloat {
			return ir.OpFCmpLe
		}
		if isSigned {
			return ir.OpICmpSLe
		}
		return ir.OpICmpULe
	case ast.OpGt:
		if isFloat {
			return ir.OpFCmpGt
		}
		if isSigned {
			return ir.OpICmpSGt
		}
		return ir.OpICmpUGt
	case ast.OpGe:
		if isFloat {
			return ir.OpFCmpGe
		}
		if isSigned {
			return ir.OpICmpSGe
		}
		return ir.OpICmpUGe
	case ast.OpBitAnd:
		return ir.OpAnd
	case ast.OpBitOr:
		return ir.OpOr
	case ast.OpBitXor:
		return ir.OpXor
	case ast.OpShl:
		return ir.OpShl
	case ast.OpShr:
		if isSigned {
			return ir.OpAShr
		}
		return ir.OpLShr
	default:
		return ir.OpAdd
	}
}

// shortCircuit lowers && and || to an explicit diamond with a Phi, per
// spec.md §4.2 ("short-circuit operators lower via explicit branches").
func (fg *funcGen) shortCircuit(n *ast.BinaryExpr) ir.Value {
	lhs := fg.expr(n.Left)
	lhsBB := fg.cur

	rhsBB := fg.newBlock("sc.rhs")
	joinBB := fg.newBlock("sc.end")

	if n.Op == ast.OpLogicalAnd {
		fg.cur.PushInst(ir.NewCondBranch(lhs, rhsBB, joinBB))
	} else {
		fg.cur.PushInst(ir.NewCondBranch(lhs, joinBB, rhsBB))
	}

	fg.cur = rhsBB
	rhs := fg.expr(n.Right)
	rhsEndBB := fg.cur
	fg.cur.PushInst(ir.NewBranch(joinBB))

	fg.cur = joinBB
	phi := ir.NewPhi(fg.tmpName("sc"), ir.I1)
	shortValue := int64(0)
	if n.Op == ast.OpLogicalOr {
		shortValue = 1
	}
	phi.AddIncoming(lhsBB, ir.NewConstantInt(shortValue, ir.I1))
	phi.AddIncoming(rhsEndBB, rhs)
	fg.cur.PushInst(phi)
	return phi
}

func (fg *funcGen) conditional(n *ast.ConditionalExpr) ir.Value {
	cond := fg.expr(n.Cond)
	thenBB := fg.newBlock("cond.then")
	elseBB := fg.newBlock("cond.else")
	joinBB := fg.newBlock("cond.end")
	fg.cur.PushInst(ir.NewCondBranch(cond, thenBB, elseBB))

	resType := fg.g.loweredType(qualTypeOf(n))

	fg.cur = thenBB
	thenVal := fg.expr(n.Then)
	thenEndBB := fg.cur
	fg.cur.PushInst(ir.NewBranch(joinBB))

	fg.cur = elseBB
	elseVal := fg.expr(n.Else)
	elseEndBB := fg.cur
	fg.cur.PushInst(ir.NewBranch(joinBB))

	fg.cur = joinBB
	phi := ir.NewPhi(fg.tmpName("cond"), resType)
	phi.AddIncoming(thenEndBB, thenVal)
	phi.AddIncoming(elseEndBB, elseVal)
	fg.cur.PushInst(phi)
	return phi
}

func (fg *funcGen) call(n *ast.CallExpr) ir.Value {
	callee, ok := n.Entity().(*sema.Function)
	if !ok {
		return ir.NewConstantInt(0, fg.g.loweredType(qualTypeOf(n)))
	}
	irFn := fg.g.functions[callee]
	if irFn == nil {
		irFn = fg.g.declareCalleeStub(callee)
	}
	args := make([]ir.Value, len(n.Args))
	for i, a := range n.Args {
		args[i] = fg.expr(a)
	}
	retType := fg.g.loweredType(qualTypeOf(n))
	name := ""
	if retType != ir.Void {
		name = fg.tmpName("call")
	}
	inst := ir.NewCall(name, irFn, args, retType)
	fg.cur.PushInst(inst)
	return inst
}

// declareCalleeStub handles a call to a function sema resolved that the
// top-level declare pass hasn't seen yet (e.g. a member function of a
// struct processed out of order). Mirrors declareFunction without an AST
// node, using only the resolved Signature.
func (g *Generator) declareCalleeStub(fn *sema.Function) *ir.Function {
	params := make([]*ir.Parameter, len(fn.Sig.Params))
	for i, p := range fn.Sig.Params {
		params[i] = ir.NewParameter(fmt.Sprintf("p%d", i), g.loweredType(p), i)
	}
	irFn := ir.NewFunction(g.uniqueName(fn.Name()), params, g.loweredType(fn.Sig.Return))
	irFn.IsExtern = true
	g.functions[fn] = irFn
	g.module.AddFunction(irFn)
	return irFn
}

func (fg *funcGen) memberAccess(n *ast.MemberAccessExpr) ir.Value {
	gep := fg.memberAddr(n)
	resType := fg.g.loweredType(qualTypeOf(n))
	if _, isStruct := qualTypeOf(n).Base.(*types.StructType); isStruct {
		return gep
	}
	load := ir.NewLoad(fg.tmpName("mem"), gep, resType)
	fg.cur.PushInst(load)
	return load
}

func (fg *funcGen) memberAddr(n *ast.MemberAccessExpr) ir.Value {
	baseAddr := fg.addr(n.Base)
	bt := qualTypeOf(n.Base).Base
	st, ok := bt.(*types.StructType)
	if !ok {
		return baseAddr
	}
	for i, f := range st.Fields {
		if f.Name == n.Member {
			gep := ir.NewGEP(fg.tmpName("field"), baseAddr, st.Fields[i].Offset, ir.Ptr)
			fg.cur.PushInst(gep)
			return gep
		}
	}
	return baseAddr
}

func (fg *funcGen) subscript(n *ast.SubscriptExpr) ir.Value {
	gep := fg.subscriptAddr(n)
	resType := fg.g.loweredType(qualTypeOf(n))
	if _, isStruct := qualTypeOf(n).Base.(*types.StructType); isStruct {
		return gep
	}
	load := ir.NewLoad(fg.tmpName("idx"), gep, resType)
	fg.cur.PushInst(load)
	return load
}

func (fg *funcGen) subscriptAddr(n *ast.SubscriptExpr) ir.Value {
	baseAddr := fg.addr(n.Base)
	index := fg.expr(n.Index)
	bt := qualTypeOf(n.Base).Base
	at, ok := bt.(*types.ArrayType)
	if !ok {
		return baseAddr
	}
	elemType := fg.g.loweredType(at.Elem)
	stride := elemType.Size()
	ptr := baseAddr
	if !at.IsComplete() {
		// Dynamic array: base address is the fat pointer's own address;
		// load its `ptr` field before indexing.
		dataAddr := ir.NewGEP(fg.tmpName("arrdata"), baseAddr, 0, ir.Ptr)
		fg.cur.PushInst(dataAddr)
		dataPtr := ir.NewLoad(fg.tmpName("arrptr"), dataAddr, ir.Ptr)
		fg.cur.PushInst(dataPtr)
		ptr = dataPtr
	}
	gep := ir.NewIndexedGEP(fg.tmpName("elem"), ptr, index, stride, ir.Ptr)
	fg.cur.PushInst(gep)
	return gep
}

func (fg *funcGen) list(n *ast.ListExpr) ir.Value {
	resType := fg.g.loweredType(qualTypeOf(n))
	slot := ir.NewAlloca(fg.tmpName("list"), resType, ir.Ptr)
	fg.cur.PushInst(slot)

	arr, _ := qualTypeOf(n).Base.(*types.ArrayType)
	var elemStride int
	if arr != nil {
		elemStride = fg.g.loweredType(arr.Elem).Size()
	}
	for i, el := range n.Elements {
		val := fg.expr(el)
		gep := ir.NewGEP(fg.tmpName("elem"), slot, i*elemStride, ir.Ptr)
		fg.cur.PushInst(gep)
		fg.cur.PushInst(ir.NewStore(gep, val))
	}
	return slot
}

func (fg *funcGen) construct(n *ast.ConstructExpr) ir.Value {
	ot := fg.g.loweredObjectTypeOf(n)
	resType := fg.g.loweredType(qualTypeOf(n))

	if st, ok := ot.(*types.StructType); ok {
		slot := ir.NewAlloca(fg.tmpName("ctor"), resType, ir.Ptr)
		fg.cur.PushInst(slot)
		if len(n.Args) == len(st.Fields) {
			for i, a := range n.Args {
				val := fg.expr(a)
				gep := ir.NewGEP(fg.tmpName("field"), slot, st.Fields[i].Offset, ir.Ptr)
				fg.cur.PushInst(gep)
				fg.cur.PushInst(ir.NewStore(gep, val))
			}
		} else {
			fg.emitDefaultInit(qualTypeOf(n), slot)
		}
		return slot
	}

	if len(n.Args) == 1 {
		return fg.expr(n.Args[0])
	}
	return zeroValue(resType)
}

// loweredObjectTypeOf recovers the ObjectType a ConstructExpr was decorated
// with, for picking the struct-vs-scalar construction path.
func (g *Generator) loweredObjectTypeOf(n *ast.ConstructExpr) types.ObjectType {
	return qualTypeOf(n).Base
}

// emitDefaultInit zero/default-initializes a freshly allocated slot that has
// no explicit initializer.
func (fg *funcGen) emitDefaultInit(qt types.QualType, slot *ir.Instruction) {
	if st, ok := qt.Base.(*types.StructType); ok {
		if st.TrivialLifetime() {
			return // alloca starts zeroed; nothing further to do
		}
		lt := fg.g.lifetimeFunctions(st)
		if lt.Default == nil {
			return
		}
		ctor := fg.g.functions[lt.Default]
		if ctor == nil {
			return
		}
		fg.cur.PushInst(ir.NewCall("", ctor, []ir.Value{slot}, ir.Void))
		return
	}
	if _, ok := qt.Base.(*types.ArrayType); ok {
		return // arrays default to zeroed storage
	}
	typ := fg.g.loweredType(qt)
	fg.cur.PushInst(ir.NewStore(slot, zeroValue(typ)))
}

func zeroValue(t ir.Type) ir.Value {
	switch v := t.(type) {
	case ir.IntType:
		return ir.NewConstantInt(0, v)
	case ir.FloatType:
		return ir.NewConstantFloat(0, v)
	case ir.PtrType:
		return ir.NewConstantInt(0, v)
	default:
		return ir.NewConstantInt(0, ir.I64)
	}
}

// internString allocates a deduplicated module-level ConstantData global for
// a string literal, lowered to an array-of-i8 (spec.md §9 Open Question #3,
// resolved per SPEC_FULL.md §5 to follow the newer ConstantData behavior).
func (g *Generator) internString(s string) *ir.ConstantData {
	g.globalStrings++
	typ := ir.ArrayType{Elem: ir.I8, Count: len(s)}
	name := fmt.Sprintf("str.%d", g.globalStrings)
	data := ir.NewConstantData(name, []byte(s), typ)
	g.module.AddGlobal(data)
	return data
}
