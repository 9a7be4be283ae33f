package isel

import (
	"github.com/cwbudde/go-dws/internal/ir"
	"github.com/cwbudde/go-dws/internal/mir"
)

// arithOpMap and compareCondition are the opcode pattern tables instruction
// selection consults for every arithmetic/compare instruction, grounded on
// ISelFunction.cc's switch over ir::Instruction::type() that picks the
// matching mir::ArithmeticOperation/CompareOperation.
var arithOpMap = map[ir.Opcode]struct {
	op     mir.ArithOp
	signed bool
}{
	ir.OpAdd:  {mir.ArithAdd, false},
	ir.OpSub:  {mir.ArithSub, false},
	ir.OpMul:  {mir.ArithMul, false},
	ir.OpSDiv: {mir.ArithSDiv, true},
	ir.OpUDiv: {mir.ArithUDiv, false},
	ir.OpSRem: {mir.ArithSRem, true},
	ir.OpURem: {mir.ArithURem, false},
	ir.OpFAdd: {mir.ArithFAdd, false},
	ir.OpFSub: {mir.ArithFSub, false},
	ir.OpFMul: {mir.ArithFMul, false},
	ir.OpFDiv: {mir.ArithFDiv, false},
	ir.OpAnd:  {mir.ArithAnd, false},
	ir.OpOr:   {mir.ArithOr, false},
	ir.OpXor:  {mir.ArithXor, false},
	ir.OpShl:  {mir.ArithLSL, false},
	ir.OpLShr: {mir.ArithLSR, false},
	ir.OpAShr: {mir.ArithASR, true},
}

func arithOpOf(op ir.Opcode) (mir.ArithOp, bool, bool) {
	e, ok := arithOpMap[op]
	return e.op, e.signed, ok
}

var compareCondition = map[ir.Opcode]mir.CompareOperation{
	ir.OpICmpEq:  mir.CompareEqual,
	ir.OpICmpNe:  mir.CompareNotEqual,
	ir.OpICmpSLt: mir.CompareLess,
	ir.OpICmpSLe: mir.CompareLessEqual,
	ir.OpICmpSGt: mir.CompareGreater,
	ir.OpICmpSGe: mir.CompareGreaterEqual,
	ir.OpICmpULt: mir.CompareLess,
	ir.OpICmpULe: mir.CompareLessEqual,
	ir.OpICmpUGt: mir.CompareGreater,
	ir.OpICmpUGe: mir.CompareGreaterEqual,
	ir.OpFCmpEq:  mir.CompareEqual,
	ir.OpFCmpNe:  mir.CompareNotEqual,
	ir.OpFCmpLt:  mir.CompareLess,
	ir.OpFCmpLe:  mir.CompareLessEqual,
	ir.OpFCmpGt:  mir.CompareGreater,
	ir.OpFCmpGe:  mir.CompareGreaterEqual,
}

func isCompareOpcode(op ir.Opcode) bool {
	_, ok := compareCondition[op]
	return ok
}

// isSignedCompare reports whether op's operands must be compared as signed
// values — every integer compare except the explicit unsigned family, and
// every float compare (floats have no separate signed/unsigned encoding).
func isSignedCompare(op ir.Opcode) bool {
	switch op {
	case ir.OpICmpULt, ir.OpICmpULe, ir.OpICmpUGt, ir.OpICmpUGe:
		return false
	default:
		return true
	}
}

// isFloatCompare reports whether op compares floating-point operands,
// selecting the VM's fcmp family over scmp/ucmp at the asm lowering stage.
func isFloatCompare(op ir.Opcode) bool {
	switch op {
	case ir.OpFCmpEq, ir.OpFCmpNe, ir.OpFCmpLt, ir.OpFCmpLe, ir.OpFCmpGt, ir.OpFCmpGe:
		return true
	default:
		return false
	}
}
