package irgen

import (
	"fmt"

	"github.com/cwbudde/go-dws/internal/ast"
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/sema"
	"github.com/cwbudde/go-dws/internal/sema/types"
)

// declareFunction builds the ir.Function signature for a FunctionDefinition
// (params + return type), registers it in g.functions, and adds it to the
// module. Bodies are filled in separately by lowerFunctionBody so every
// function is callable (forward references included) before any body is
// lowered.
func (g *Generator) declareFunction(def *ast.FunctionDefinition) *ir.Function {
	fn, ok := def.DeclaredEntity().(*sema.Function)
	if !ok {
		return nil
	}
	if existing, ok := g.functions[fn]; ok {
		return existing
	}

	params := make([]*ir.Parameter, len(def.Params))
	for i, p := range def.Params {
		typ := g.loweredType(fn.Sig.Params[i])
		params[i] = ir.NewParameter(p.DeclName, typ, i)
	}
	ret := g.loweredType(fn.Sig.Return)

	irFn := ir.NewFunction(g.uniqueName(fn.Name()), params, ret)
	irFn.IsExtern = def.Body == nil || def.IsForeign
	g.functions[fn] = irFn
	g.module.AddFunction(irFn)
	return irFn
}

// lowerFunctionBody lowers def.Body into the ir.Function previously built by
// declareFunction, a no-op for declaration-only (foreign/forward) functions.
func (g *Generator) lowerFunctionBody(def *ast.FunctionDefinition) {
	fn, ok := def.DeclaredEntity().(*sema.Function)
	if !ok || def.Body == nil {
		return
	}
	irFn := g.functions[fn]
	if irFn == nil {
		return
	}

	fg := &funcGen{
		g:      g,
		sfn:    fn,
		ifn:    irFn,
		locals: map[*sema.Object]*ir.Instruction{},
	}
	entry := fg.newBlock("entry")
	fg.cur = entry

	for i, p := range def.Params {
		obj, _ := p.DeclaredEntity().(*sema.Object)
		if obj == nil {
			continue
		}
		typ := g.loweredType(obj.Type)
		slot := ir.NewAlloca(fg.tmpName("param"), typ, ir.Ptr)
		fg.cur.PushInst(slot)
		fg.cur.PushInst(ir.NewStore(slot, irFn.Params[i]))
		fg.locals[obj] = slot
	}

	fg.stmt(def.Body)
	fg.ensureTerminated(fn.Sig.Return)
}

// ensureTerminated appends a fallback return to the current block if body
// lowering didn't already end it with a terminator (e.g. a void function
// whose last statement isn't a return).
func (fg *funcGen) ensureTerminated(ret types.QualType) {
	if fg.cur == nil || fg.cur.Terminator() != nil {
		return
	}
	if ret.Base == nil || ret.Base.Equals(types.Void) {
		fg.cur.PushInst(ir.NewReturn(nil))
		return
	}
	fg.cur.PushInst(ir.NewReturn(zeroValue(fg.g.loweredType(ret))))
}

// lifetimeFunctions synthesizes (once per struct) the Default/Copy/Move/
// Destructor IR functions for st, grounded on sema.SynthesizeLifetime, whose
// doc explicitly defers body emission to irgen ("their bodies are emitted by
// irgen on demand"). Functions are added to the module unconditionally but
// are only ever called where the struct's lifetime is non-trivial.
func (g *Generator) lifetimeFunctions(st *types.StructType) *sema.SynthesizedLifetime {
	if lt, ok := g.lifetimes[st]; ok {
		return lt
	}
	lt := sema.SynthesizeLifetime(st, sema.SynthesizedLifetime{})
	g.lifetimes[st] = &lt

	g.buildLifetimeFn(lt.Default, st, func(b *lifetimeBuilder) { b.buildDefault() })
	g.buildLifetimeFn(lt.Copy, st, func(b *lifetimeBuilder) { b.buildCopy() })
	g.buildLifetimeFn(lt.Move, st, func(b *lifetimeBuilder) { b.buildMove() })
	g.buildLifetimeFn(lt.Destructor, st, func(b *lifetimeBuilder) { b.buildDestructor() })

	return &lt
}

func (g *Generator) buildLifetimeFn(fn *sema.Function, st *types.StructType, build func(*lifetimeBuilder)) {
	if fn == nil {
		return
	}
	params := make([]*ir.Parameter, len(fn.Sig.Params))
	for i := range fn.Sig.Params {
		params[i] = ir.NewParameter(fmt.Sprintf("p%d", i), ir.Ptr, i)
	}
	irFn := ir.NewFunction(fmt.Sprintf("%s.%s", st.Name, lifetimeSuffix(fn)), params, ir.Void)
	g.functions[fn] = irFn
	g.module.AddFunction(irFn)

	b := &lifetimeBuilder{g: g, st: st, irFn: irFn}
	b.cur = b.newBlock("entry")
	build(b)
	if b.cur.Terminator() == nil {
		b.cur.PushInst(ir.NewReturn(nil))
	}
}

func lifetimeSuffix(fn *sema.Function) string {
	switch fn.SLF {
	case sema.SLFDefault:
		return "new"
	case sema.SLFCopy:
		return "copy"
	case sema.SLFMove:
		return "move"
	case sema.SLFDestructor:
		return "delete"
	default:
		return "lifetime"
	}
}
