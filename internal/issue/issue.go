// Package issue implements compile-time diagnostic accumulation for the
// Scatha middle end. Issues are never returned as Go errors from analysis
// passes; they are collected into a Handler so that semantic analysis
// can recover locally (via a PoisonEntity) and keep finding more problems in
// one pass, matching the propagation policy of spec.md §7.
package issue

import (
	"fmt"
	"strings"
)

// Severity classifies an Issue.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// SourceRange is a half-open [Begin, End) span in a single source file.
// Line/Column are 1-based; Offset is a 0-based byte offset used to slice
// the original source text for context rendering.
type SourceRange struct {
	File   string
	Line   int
	Column int
	Offset int
	Length int
}

// Secondary attaches a hint to a non-primary range of an Issue, e.g. the
// declaration site referenced by a "no matching overload" error.
type Secondary struct {
	Range SourceRange
	Hint  string
}

// Issue is a single diagnostic. Kind is one of the family-specific kind
// constants declared in kinds.go.
type Issue struct {
	Kind      Kind
	Severity  Severity
	Primary   SourceRange
	Message   string
	Secondary []Secondary
}

// New creates an Issue with no secondary ranges.
func New(kind Kind, severity Severity, primary SourceRange, message string) *Issue {
	return &Issue{Kind: kind, Severity: severity, Primary: primary, Message: message}
}

// WithSecondary returns the issue with an additional secondary range, for
// chaining at the call site.
func (i *Issue) WithSecondary(r SourceRange, hint string) *Issue {
	i.Secondary = append(i.Secondary, Secondary{Range: r, Hint: hint})
	return i
}

// Error implements the error interface so an Issue can be wrapped by code
// that still wants a single representative error (e.g. CLI exit paths).
func (i *Issue) Error() string { return i.Format(false, "") }

// Format renders the issue as a human-readable message with a caret
// pointing at the primary range's column, optionally ANSI-colored. source,
// when non-empty, is the full text of Primary.File and is used to render
// the offending source line; callers that only have positions (no source
// text, e.g. IR-level diagnostics) may pass "".
func (i *Issue) Format(color bool, source string) string {
	var sb strings.Builder

	sev := strings.ToUpper(i.Severity.String()[:1]) + i.Severity.String()[1:]
	if i.Primary.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", sev, i.Primary.File, i.Primary.Line, i.Primary.Column)
	} else {
		fmt.Fprintf(&sb, "%s at line %d:%d\n", sev, i.Primary.Line, i.Primary.Column)
	}

	if line := sourceLine(source, i.Primary.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", i.Primary.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+i.Primary.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(i.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	for _, sec := range i.Secondary {
		sb.WriteString("\n  note: ")
		sb.WriteString(sec.Hint)
		if sec.Range.File != "" {
			fmt.Fprintf(&sb, " (%s:%d:%d)", sec.Range.File, sec.Range.Line, sec.Range.Column)
		}
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Handler accumulates issues raised during a compilation phase. It is not
// safe for concurrent use; the compiler pipeline is single-threaded per
// spec.md §5.
type Handler struct {
	issues []*Issue
}

// NewHandler creates an empty diagnostic handler.
func NewHandler() *Handler { return &Handler{} }

// Push records an issue and returns it, so callers can chain WithSecondary.
func (h *Handler) Push(i *Issue) *Issue {
	h.issues = append(h.issues, i)
	return i
}

// Issues returns all recorded issues in emission order.
func (h *Handler) Issues() []*Issue { return h.issues }

// HasErrors reports whether any recorded issue has Error severity. Sema
// phases use this to decide whether to poison an entity and keep going, or
// treat the failure as fatal (spec.md §7 propagation policy).
func (h *Handler) HasErrors() bool {
	for _, i := range h.issues {
		if i.Severity == Error {
			return true
		}
	}
	return false
}

// FormatAll renders every issue, one per Issue.Format, with the teacher's
// multi-error banner when there's more than one (internal/errors.FormatErrors).
func (h *Handler) FormatAll(color bool, sources map[string]string) string {
	if len(h.issues) == 0 {
		return ""
	}
	if len(h.issues) == 1 {
		return h.issues[0].Format(color, sources[h.issues[0].Primary.File])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation produced %d issue(s):\n\n", len(h.issues))
	for idx, i := range h.issues {
		fmt.Fprintf(&sb, "[%d of %d]\n", idx+1, len(h.issues))
		sb.WriteString(i.Format(color, sources[i.Primary.File]))
		if idx < len(h.issues)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
