package ast

// ObjectStack is the per-statement destructor stack of spec.md §3.1/§4.2:
// "an ordered list of objects whose destructors fire on normal scope exit,
// plus (for return/break/continue) additional destructors gathered from
// enclosing scopes up to the relevant boundary." Grounded on
// original_source/lib/Sema/Analysis/ObjectStack.{h,cc}.
//
// Entries are stored as EntityRef (not a concrete sema.Object) for the same
// leaf-package reason as the rest of this file; irgen recovers the concrete
// *sema.Object via a type assertion when emitting the destructor call.
type ObjectStack struct {
	objs []EntityRef
}

// Push records an object that must be destroyed on normal exit of the
// owning statement.
func (s *ObjectStack) Push(obj EntityRef) { s.objs = append(s.objs, obj) }

// Pop removes the most recently pushed object without destroying it —
// used when an rvalue temporary is consumed by a move instead of reaching
// scope exit (spec.md §4.2: "with an rvalue initializer the rvalue is
// consumed (its destructor popped) and the address reused").
func (s *ObjectStack) Pop() (EntityRef, bool) {
	if len(s.objs) == 0 {
		return nil, false
	}
	obj := s.objs[len(s.objs)-1]
	s.objs = s.objs[:len(s.objs)-1]
	return obj, true
}

// Objects returns the stack contents in push order (bottom to top).
func (s *ObjectStack) Objects() []EntityRef { return s.objs }

// ReverseObjects returns the stack contents in destruction order: reverse
// of push order (spec.md §4.2: "emits calls to the destructors in reverse
// stack order").
func (s *ObjectStack) ReverseObjects() []EntityRef {
	out := make([]EntityRef, len(s.objs))
	for i, o := range s.objs {
		out[len(s.objs)-1-i] = o
	}
	return out
}

// Len reports how many objects are pending destruction.
func (s *ObjectStack) Len() int { return len(s.objs) }
