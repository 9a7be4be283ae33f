package irgen

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/sema"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// funcGen carries the per-function lowering state: the current insertion
// block, the local-variable address table (every local is an Alloca, see
// core.go's package doc), and the active loop stack for break/continue.
type funcGen struct {
	g   *Generator
	sfn *sema.Function
	ifn *ir.Function
	cur *ir.BasicBlock

	locals map[*sema.Object]*ir.Instruction

	tmp      int
	blockSeq int
	loops    []loopCtx
}

type loopCtx struct {
	breakTarget    *ir.BasicBlock
	continueTarget *ir.BasicBlock
}

func (fg *funcGen) newBlock(name string) *ir.BasicBlock {
	fg.blockSeq++
	b := ir.NewBasicBlock(fmt.Sprintf("%s.%d", name, fg.blockSeq))
	fg.ifn.AddBlock(b)
	return b
}

func (fg *funcGen) tmpName(base string) string {
	fg.tmp++
	return fmt.Sprintf("%s%d", base, fg.tmp)
}

// sealUnreachable redirects fg.cur to a fresh, never-targeted block after a
// terminator (break/continue/return) so statements lexically following it
// still have somewhere to lower into, matching how the teacher's bytecode
// compiler keeps emitting after an unconditional jump.
func (fg *funcGen) sealUnreachable() {
	fg.cur = fg.newBlock("unreachable")
}

func (fg *funcGen) stmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.BlockStatement:
		for _, c := range n.Statements {
			fg.stmt(c)
		}
		fg.emitDestructors(n.Destructors())
	case *ast.ExpressionStatement:
		fg.expr(n.Expr)
	case *ast.VariableDeclaration:
		fg.localVarDecl(n)
	case *ast.IfStatement:
		fg.ifStmt(n)
	case *ast.WhileStatement:
		fg.whileStmt(n)
	case *ast.DoWhileStatement:
		fg.doWhileStmt(n)
	case *ast.ForStatement:
		fg.forStmt(n)
	case *ast.ReturnStatement:
		fg.returnStmt(n)
	case *ast.BreakStatement:
		fg.breakStmt()
	case *ast.ContinueStatement:
		fg.continueStmt()
	}
}

func (fg *funcGen) localVarDecl(n *ast.VariableDeclaration) {
	obj, _ := n.DeclaredEntity().(*sema.Object)
	if obj == nil {
		return
	}
	typ := fg.g.loweredType(obj.Type)
	slot := ir.NewAlloca(fg.tmpName("local"), typ, ir.Ptr)
	fg.cur.PushInst(slot)
	fg.locals[obj] = slot

	if n.Init != nil {
		val := fg.expr(n.Init)
		fg.cur.PushInst(ir.NewStore(slot, val))
		return
	}
	fg.emitDefaultInit(obj.Type, slot)
}

func (fg *funcGen) ifStmt(n *ast.IfStatement) {
	cond := fg.expr(n.Cond)
	thenBB := fg.newBlock("if.then")
	var elseBB, joinBB *ir.BasicBlock
	if n.Else != nil {
		elseBB = fg.newBlock("if.else")
	}
	joinBB = fg.newBlock("if.end")

	if elseBB != nil {
		fg.cur.PushInst(ir.NewCondBranch(cond, thenBB, elseBB))
	} else {
		fg.cur.PushInst(ir.NewCondBranch(cond, thenBB, joinBB))
	}

	fg.cur = thenBB
	fg.stmt(n.Then)
	if fg.cur.Terminator() == nil {
		fg.cur.PushInst(ir.NewBranch(joinBB))
	}

	if n.Else != nil {
		fg.cur = elseBB
		fg.stmt(n.Else)
		if fg.cur.Terminator() == nil {
			fg.cur.PushInst(ir.NewBranch(joinBB))
		}
	}

	fg.cur = joinBB
}

func (fg *funcGen) whileStmt(n *ast.WhileStatement) {
	headerBB := fg.newBlock("while.cond")
	bodyBB := fg.newBlock("while.body")
	exitBB := fg.newBlock("while.end")

	fg.cur.PushInst(ir.NewBranch(headerBB))
	fg.cur = headerBB
	cond := fg.expr(n.Cond)
	fg.cur.PushInst(ir.NewCondBranch(cond, bodyBB, exitBB))

	fg.cur = bodyBB
	fg.loops = append(fg.loops, loopCtx{breakTarget: exitBB, continueTarget: headerBB})
	fg.stmt(n.Body)
	fg.loops = fg.loops[:len(fg.loops)-1]
	if fg.cur.Terminator() == nil {
		fg.cur.PushInst(ir.NewBranch(headerBB))
	}

	fg.cur = exitBB
}

func (fg *funcGen) doWhileStmt(n *ast.DoWhileStatement) {
	bodyBB := fg.newBlock("dowhile.body")
	condBB := fg.newBlock("dowhile.cond")
	exitBB := fg.newBlock("dowhile.end")

	fg.cur.PushInst(ir.NewBranch(bodyBB))
	fg.cur = bodyBB
	fg.loops = append(fg.loops, loopCtx{breakTarget: exitBB, continueTarget: condBB})
	fg.stmt(n.Body)
	fg.loops = fg.loops[:len(fg.loops)-1]
	if fg.cur.Terminator() == nil {
		fg.cur.PushInst(ir.NewBranch(condBB))
	}

	fg.cur = condBB
	cond := fg.expr(n.Cond)
	fg.cur.PushInst(ir.NewCondBranch(cond, bodyBB, exitBB))

	fg.cur = exitBB
}

func (fg *funcGen) forStmt(n *ast.ForStatement) {
	if n.Init != nil {
		fg.stmt(n.Init)
	}
	headerBB := fg.newBlock("for.cond")
	bodyBB := fg.newBlock("for.body")
	incBB := fg.newBlock("for.inc")
	exitBB := fg.newBlock("for.end")

	fg.cur.PushInst(ir.NewBranch(headerBB))
	fg.cur = headerBB
	if n.Cond != nil {
		cond := fg.expr(n.Cond)
		fg.cur.PushInst(ir.NewCondBranch(cond, bodyBB, exitBB))
	} else {
		fg.cur.PushInst(ir.NewBranch(bodyBB))
	}

	fg.cur = bodyBB
	fg.loops = append(fg.loops, loopCtx{breakTarget: exitBB, continueTarget: incBB})
	fg.stmt(n.Body)
	fg.loops = fg.loops[:len(fg.loops)-1]
	if fg.cur.Terminator() == nil {
		fg.cur.PushInst(ir.NewBranch(incBB))
	}

	fg.cur = incBB
	if n.Inc != nil {
		fg.stmt(n.Inc)
	}
	fg.cur.PushInst(ir.NewBranch(headerBB))

	fg.cur = exitBB
}

func (fg *funcGen) returnStmt(n *ast.ReturnStatement) {
	if n.Expr == nil {
		fg.cur.PushInst(ir.NewReturn(nil))
	} else {
		v := fg.expr(n.Expr)
		fg.cur.PushInst(ir.NewReturn(v))
	}
	fg.sealUnreachable()
}

func (fg *funcGen) breakStmt() {
	if len(fg.loops) == 0 {
		return
	}
	fg.cur.PushInst(ir.NewBranch(fg.loops[len(fg.loops)-1].breakTarget))
	fg.sealUnreachable()
}

func (fg *funcGen) continueStmt() {
	if len(fg.loops) == 0 {
		return
	}
	fg.cur.PushInst(ir.NewBranch(fg.loops[len(fg.loops)-1].continueTarget))
	fg.sealUnreachable()
}

// emitDestructors emits calls to destroy every object pushed onto ds during
// this statement's evaluation, in reverse (LIFO) order (spec.md §4.2: "emits
// calls to the destructors in reverse stack order").
func (fg *funcGen) emitDestructors(ds *ast.ObjectStack) {
	for _, o := range ds.ReverseObjects() {
		obj, ok := o.(*sema.Object)
		if !ok {
			continue
		}
		fg.emitDestructorCall(obj)
	}
}

// emitDestructorCall calls obj's struct destructor if its type has a
// non-trivial lifetime; trivially-destructible objects (the overwhelming
// common case while no source-level SMF declarations are tracked yet, see
// DESIGN.md) need no runtime call at all.
func (fg *funcGen) emitDestructorCall(obj *sema.Object) {
	st, ok := obj.Type.Base.(*types.StructType)
	if !ok || st.TrivialLifetime() {
		return
	}
	addr, ok := fg.locals[obj]
	if !ok {
		return
	}
	lt := fg.g.lifetimeFunctions(st)
	if lt.Destructor == nil {
		return
	}
	dtor := fg.g.functions[lt.Destructor]
	if dtor == nil {
		return
	}
	fg.cur.PushInst(ir.NewCall("", dtor, []ir.Value{addr}, ir.Void))
}
