package issue

// Kind enumerates every diagnostic kind named in spec.md §7, grouped by
// family. The family is recoverable from the kind via Family().
type Kind int

const (
	// BadStmt
	ReservedIdentifier Kind = iota
	InvalidScope

	// BadVarDecl
	IncompleteType
	ExpectedRefInit
	CantInferType
	RefInStruct
	ThisInFreeFunction
	ThisPosition

	// BadFuncDef
	MainMustReturnTrivial
	MainInvalidArguments
	FunctionMustHaveBody
	UnknownLinkage

	// BadSMF
	SMFHasReturnType
	SMFNotInStruct
	SMFNoParams
	SMFBadFirstParam
	SMFMoveSignature
	SMFDeleteSignature

	// BadReturn
	NonVoidMustReturnValue
	VoidMustNotReturnValue
	BadReturnTypeDeduction

	// BadExpr
	UndeclaredID
	UnaryExprBadType
	BinaryExprNoCommonType
	MemAccNonStaticThroughType
	ConditionalNoCommonType
	DerefNoPtr
	SubscriptNoArray
	ObjectNotCallable
	CantDeduceReturnType
	ListExprNoCommonType
	MoveExprConst

	// ORError
	ORNoMatch
	ORAmbiguous

	// misc top-level families
	BadImport
	BadAccessControl
	StructDefCycle
	BadTypeDeduction
	BadPassedType
	BadCleanup
)

// Family names the diagnostic family a Kind belongs to.
func (k Kind) Family() string {
	switch {
	case k <= InvalidScope:
		return "BadStmt"
	case k <= ThisPosition:
		return "BadVarDecl"
	case k <= UnknownLinkage:
		return "BadFuncDef"
	case k <= SMFDeleteSignature:
		return "BadSMF"
	case k <= BadReturnTypeDeduction:
		return "BadReturn"
	case k <= MoveExprConst:
		return "BadExpr"
	case k <= ORAmbiguous:
		return "ORError"
	default:
		return [...]string{"BadImport", "BadAccessControl", "StructDefCycle", "BadTypeDeduction", "BadPassedType", "BadCleanup"}[k-BadImport]
	}
}

func (k Kind) String() string {
	names := [...]string{
		"ReservedIdentifier", "InvalidScope",
		"IncompleteType", "ExpectedRefInit", "CantInferType", "RefInStruct", "ThisInFreeFunction", "ThisPosition",
		"MainMustReturnTrivial", "MainInvalidArguments", "FunctionMustHaveBody", "UnknownLinkage",
		"SMFHasReturnType", "SMFNotInStruct", "SMFNoParams", "SMFBadFirstParam", "SMFMoveSignature", "SMFDeleteSignature",
		"NonVoidMustReturnValue", "VoidMustNotReturnValue", "BadReturnTypeDeduction",
		"UndeclaredID", "UnaryExprBadType", "BinaryExprNoCommonType", "MemAccNonStaticThroughType",
		"ConditionalNoCommonType", "DerefNoPtr", "SubscriptNoArray", "ObjectNotCallable",
		"CantDeduceReturnType", "ListExprNoCommonType", "MoveExprConst",
		"NoMatch", "Ambiguous",
		"BadImport", "BadAccessControl", "StructDefCycle", "BadTypeDeduction", "BadPassedType", "BadCleanup",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "UnknownIssueKind"
	}
	return names[k]
}

// OverloadFailureReason explains why one candidate in an overload set failed
// to match a call, per spec.md §4.1 ("NoMatch (with per-candidate per-argument
// failure reason: CountMismatch or NoArgumentConversion(index))").
type OverloadFailureReason struct {
	CountMismatch        bool
	NoArgumentConversion int // argument index, -1 if not this reason
}
