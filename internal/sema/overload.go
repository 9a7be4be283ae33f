package sema

import "github.com/cwbudde/go-dws/internal/sema/types"

// Argument is the minimal view of a call argument expression that overload
// resolution needs: its type, value category and constness (spec.md §4.1:
// "each carrying QualType, value category, constness").
type Argument struct {
	Type          types.QualType
	IsLValue      bool
}

// ORResultKind discriminates the three outcomes of performOverloadResolution.
type ORResultKind int

const (
	ORSuccess ORResultKind = iota
	ORNoMatchResult
	ORAmbiguousResult
)

// CandidateFailure records why one candidate failed to match, per spec.md
// §4.1's "per-candidate per-argument failure reason".
type CandidateFailure struct {
	Function *Function
	CountMismatch bool
	BadArgIndex   int // -1 if CountMismatch
}

// ORResult is the result of performOverloadResolution.
type ORResult struct {
	Kind        ORResultKind
	Function    *Function
	Conversions []ObjConversionPair // one per argument, valid only on ORSuccess
	Failures    []CandidateFailure  // valid on ORNoMatchResult
	Finalists   []*Function         // valid on ORAmbiguousResult
}

// score ranks a conversion: 0 is an exact match (best), higher is worse; a
// negative score means "does not apply" (the conversion doesn't exist or
// isn't implicit).
func score(c ObjConversionPair, found bool) int {
	if !found {
		return -1
	}
	if !c.IsImplicit() {
		return -1
	}
	if c.Obj == ObjNone {
		return 0
	}
	return 1
}

// PerformOverloadResolution implements spec.md §4.1: filter by parameter
// count, score implicit conversions argument-by-argument, and return
// Success/NoMatch/Ambiguous. Grounded on
// original_source/lib/Sema/Analysis/OverloadResolution.cc for the
// filter-then-score shape; the ranking itself (sum of per-argument scores,
// lowest wins, tie ⇒ ambiguous) is this repo's concrete scoring policy
// since the distilled spec does not pin one down.
func PerformOverloadResolution(set *OverloadSet, args []Argument) ORResult {
	var failures []CandidateFailure
	type scored struct {
		fn    *Function
		convs []ObjConversionPair
		total int
	}
	var candidates []scored

	for _, fn := range set.Functions {
		if len(fn.Sig.Params) != len(args) {
			failures = append(failures, CandidateFailure{Function: fn, CountMismatch: true, BadArgIndex: -1})
			continue
		}
		convs := make([]ObjConversionPair, len(args))
		total := 0
		ok := true
		badIdx := -1
		for i, arg := range args {
			c, found := ComputeConversion(arg.Type, fn.Sig.Params[i])
			s := score(c, found)
			if s < 0 {
				ok = false
				badIdx = i
				break
			}
			convs[i] = c
			total += s
		}
		if !ok {
			failures = append(failures, CandidateFailure{Function: fn, BadArgIndex: badIdx})
			continue
		}
		candidates = append(candidates, scored{fn: fn, convs: convs, total: total})
	}

	if len(candidates) == 0 {
		return ORResult{Kind: ORNoMatchResult, Failures: failures}
	}

	best := candidates[0]
	tied := []scored{best}
	for _, c := range candidates[1:] {
		switch {
		case c.total < best.total:
			best = c
			tied = []scored{c}
		case c.total == best.total:
			tied = append(tied, c)
		}
	}

	if len(tied) > 1 {
		finalists := make([]*Function, len(tied))
		for i, t := range tied {
			finalists[i] = t.fn
		}
		return ORResult{Kind: ORAmbiguousResult, Finalists: finalists}
	}

	return ORResult{Kind: ORSuccess, Function: best.fn, Conversions: best.convs}
}
