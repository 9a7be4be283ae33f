package ast

import "testing"

func TestAttachChildrenSetsParent(t *testing.T) {
	lhs := NewIntLiteral(SourceRange{}, 1)
	rhs := NewIntLiteral(SourceRange{}, 2)
	add := NewBinaryExpr(SourceRange{}, OpAdd, lhs, rhs)

	if lhs.Parent() != Node(add) {
		t.Fatalf("lhs.Parent() = %v, want add", lhs.Parent())
	}
	if rhs.Parent() != Node(add) {
		t.Fatalf("rhs.Parent() = %v, want add", rhs.Parent())
	}
	if got := add.Children(); len(got) != 2 {
		t.Fatalf("len(add.Children()) = %d, want 2", len(got))
	}
}

func TestAttachChildrenFiltersNil(t *testing.T) {
	cond := NewBoolLiteral(SourceRange{}, true)
	then := NewBreakStatement(SourceRange{})
	ifs := NewIfStatement(SourceRange{}, cond, then, nil)

	if got := len(ifs.Children()); got != 2 {
		t.Fatalf("len(ifs.Children()) = %d, want 2 (nil else filtered)", got)
	}
}

func TestDetachChildClearsParentAndInvalidatesExtent(t *testing.T) {
	a := NewIntLiteral(SourceRange{File: "f", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 2}, 1)
	b := NewIntLiteral(SourceRange{File: "f", StartLine: 5, StartCol: 1, EndLine: 5, EndCol: 2}, 2)
	add := NewBinaryExpr(SourceRange{File: "f", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 2}, OpAdd, a, b)

	if ext := add.ExtPos(); ext.EndLine != 5 {
		t.Fatalf("ExtPos().EndLine = %d, want 5 before detach", ext.EndLine)
	}

	DetachChild(add, b)
	if b.Parent() != nil {
		t.Fatalf("b.Parent() = %v, want nil after detach", b.Parent())
	}
	if ext := add.ExtPos(); ext.EndLine != 1 {
		t.Fatalf("ExtPos().EndLine = %d, want 1 after detach (cache must be invalidated)", ext.EndLine)
	}
}

func TestExprDecorationOneWayGuard(t *testing.T) {
	id := NewIdentifier(SourceRange{}, "x")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading undecorated ValueCategory")
		}
	}()
	_ = id.ValueCategory()
}

func TestExprDecorationSetTwicePanics(t *testing.T) {
	id := NewIdentifier(SourceRange{}, "x")
	id.SetValueCategory(LValue)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic re-decorating ValueCategory")
		}
	}()
	id.SetValueCategory(RValue)
}

func TestBinaryOpIsShortCircuit(t *testing.T) {
	cases := []struct {
		op   BinaryOp
		want bool
	}{
		{OpLogicalAnd, true},
		{OpLogicalOr, true},
		{OpAdd, false},
		{OpEq, false},
	}
	for _, c := range cases {
		if got := c.op.IsShortCircuit(); got != c.want {
			t.Errorf("BinaryOp(%v).IsShortCircuit() = %v, want %v", c.op, got, c.want)
		}
	}
}

func TestObjectStackPushPopOrder(t *testing.T) {
	var s ObjectStack
	s.Push(fakeEntity{"a"})
	s.Push(fakeEntity{"b"})
	s.Push(fakeEntity{"c"})

	rev := s.ReverseObjects()
	if len(rev) != 3 || rev[0].Name() != "c" || rev[2].Name() != "a" {
		t.Fatalf("ReverseObjects() = %v, want [c b a]", rev)
	}

	popped, ok := s.Pop()
	if !ok || popped.Name() != "c" {
		t.Fatalf("Pop() = %v, %v, want c, true", popped, ok)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
}

func TestTranslationUnitString(t *testing.T) {
	v := NewVariableDeclaration(SourceRange{}, "x", &TypeExpr{Name: "int"}, NewIntLiteral(SourceRange{}, 1))
	tu := NewTranslationUnit([]Declaration{v})

	if tu.Kind() != KindTranslationUnit {
		t.Fatalf("tu.Kind() = %v, want KindTranslationUnit", tu.Kind())
	}
	if got, want := tu.String(), "var x: int = 1;"; got != want {
		t.Fatalf("tu.String() = %q, want %q", got, want)
	}
	if v.Parent() != Node(tu) {
		t.Fatalf("v.Parent() = %v, want tu", v.Parent())
	}
}

func TestFunctionDefinitionStringWithParamsAndReturn(t *testing.T) {
	p := NewParamDeclaration(SourceRange{}, "n", &TypeExpr{Name: "int"}, false)
	body := NewBlockStatement(SourceRange{}, []Statement{NewReturnStatement(SourceRange{}, NewIdentifier(SourceRange{}, "n"))})
	fn := NewFunctionDefinition(SourceRange{}, "id", []*ParamDeclaration{p}, &TypeExpr{Name: "int"}, body)

	want := "fn id(n: int) -> int {\n  return n;\n}"
	if got := fn.String(); got != want {
		t.Fatalf("fn.String() = %q, want %q", got, want)
	}
}

type fakeEntity struct{ name string }

func (f fakeEntity) Name() string { return f.name }
