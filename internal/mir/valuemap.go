package mir

import "github.com/cwbudde/go-dws/internal/ir"

// addressEntry pairs a base MIR value with a constant byte offset, the
// lvalue location ValueMap.LookupAddress hands back for values ISel has
// resolved to a place in memory rather than a register (spec.md §4.5's
// AllocaMap folded into the general address table).
type addressEntry struct {
	base   Value
	offset int
}

// ValueMap maps IR values to the MIR values they lower to, grounded on
// original_source/lib/CodeGen/ValueMap.{h,cc}. A single ValueMap instance is
// shared across every function during instruction selection (the "global
// map" that records every Function and GlobalVariable), and ISel also keeps
// one per function for its local instructions/parameters — same type,
// narrower lifetime, exactly as the source does with one ValueMap per
// translation plus the global one passed into iselFunction.
type ValueMap struct {
	values    map[ir.Value]Value
	addresses map[ir.Value]addressEntry
	statics   map[ir.Value]uint64
}

func NewValueMap() *ValueMap {
	return &ValueMap{
		values:    map[ir.Value]Value{},
		addresses: map[ir.Value]addressEntry{},
		statics:   map[ir.Value]uint64{},
	}
}

// Insert records that key lowers to value. Panics if key is already mapped,
// matching the source's SC_ASSERT(success, "Key already present").
func (m *ValueMap) Insert(key ir.Value, value Value) {
	if _, ok := m.values[key]; ok {
		panic("mir.ValueMap: key already present")
	}
	m.values[key] = value
}

// Lookup returns the MIR value key was mapped to, or nil if key has not
// been resolved yet.
func (m *ValueMap) Lookup(key ir.Value) Value {
	return m.values[key]
}

// InsertAddress records that key lives at a constant offset from a base MIR
// value (a register holding a base pointer), for values ISel keeps in
// memory (static allocas, record/array storage) instead of a register.
func (m *ValueMap) InsertAddress(key ir.Value, base Value, offset int) {
	if _, ok := m.addresses[key]; ok {
		panic("mir.ValueMap: address already present")
	}
	m.addresses[key] = addressEntry{base: base, offset: offset}
}

// LookupAddress returns the (base, offset) pair previously recorded for
// key, or (nil, 0) if none exists.
func (m *ValueMap) LookupAddress(key ir.Value) (Value, int) {
	e, ok := m.addresses[key]
	if !ok {
		return nil, 0
	}
	return e.base, e.offset
}

// InsertStaticAddress records a global's fixed offset into the binary's
// static data section, resolved once relocation addresses are known.
func (m *ValueMap) InsertStaticAddress(key ir.Value, offset uint64) {
	if _, ok := m.statics[key]; ok {
		panic("mir.ValueMap: static address already present")
	}
	m.statics[key] = offset
}

// LookupStaticAddress returns the static offset previously recorded for
// key, and whether one exists.
func (m *ValueMap) LookupStaticAddress(key ir.Value) (uint64, bool) {
	off, ok := m.statics[key]
	return off, ok
}
