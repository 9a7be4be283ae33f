package svm

// memSlot is one contiguous allocation. alive is cleared on Deallocate so a
// stale VPointer into a freed slot is rejected rather than silently reused.
type memSlot struct {
	bytes []byte
	alive bool
}

// VirtualMemory is the VM's sandboxed heap, grounded on VirtualMachine.cc's
// VirtualMemory member and its allocate/deallocate/dereference/validRange
// methods (declared but not bodied in the filtered source; this is a direct
// port of the semantics described for the VM's pointer model). Slot 0 is
// reserved for the static slot installed by LoadBinary: the program's
// instruction text immediately followed by the runtime stack.
type VirtualMemory struct {
	slots []memSlot
	free  []uint32
}

const staticSlot uint32 = 0

// NewVirtualMemory returns a VirtualMemory with only the (empty) static slot
// present; LoadBinary grows it via resizeStaticSlot.
func NewVirtualMemory() *VirtualMemory {
	return &VirtualMemory{slots: []memSlot{{}}}
}

func (m *VirtualMemory) resizeStaticSlot(size int) {
	m.slots[staticSlot] = memSlot{bytes: make([]byte, size), alive: true}
}

// StaticBytes exposes the static slot directly, for installing the program
// image and for the stack region that follows it.
func (m *VirtualMemory) StaticBytes() []byte { return m.slots[staticSlot].bytes }

// Allocate reserves size bytes and returns a pointer to their start. align
// is accepted for interface parity with the source's allocate(size, align)
// but every slot here is its own independent backing array, so any
// alignment requirement no stronger than the Go allocator's own is trivially
// satisfied.
func (m *VirtualMemory) Allocate(size, align int) VPointer {
	_ = align
	buf := make([]byte, size)
	var slot uint32
	if n := len(m.free); n > 0 {
		slot = m.free[n-1]
		m.free = m.free[:n-1]
		m.slots[slot] = memSlot{bytes: buf, alive: true}
	} else {
		slot = uint32(len(m.slots))
		m.slots = append(m.slots, memSlot{bytes: buf, alive: true})
	}
	return VPointer{Slot: slot, Offset: 0}
}

// Deallocate retires ptr's slot, making any further access to it an error.
func (m *VirtualMemory) Deallocate(ptr VPointer) error {
	if ptr.Slot == staticSlot {
		return &MemoryAccessError{Kind: UseAfterFree, Ptr: ptr, Size: 0}
	}
	if int(ptr.Slot) >= len(m.slots) || !m.slots[ptr.Slot].alive {
		return &MemoryAccessError{Kind: UseAfterFree, Ptr: ptr, Size: 0}
	}
	m.slots[ptr.Slot] = memSlot{}
	m.free = append(m.free, ptr.Slot)
	return nil
}

// ValidRange returns the number of bytes available from ptr to the end of
// its slot, or a negative value if ptr does not address a live slot.
func (m *VirtualMemory) ValidRange(ptr VPointer) int64 {
	if int(ptr.Slot) >= len(m.slots) || !m.slots[ptr.Slot].alive {
		return -1
	}
	return int64(len(m.slots[ptr.Slot].bytes)) - int64(ptr.Offset)
}

// Dereference returns a byte slice view of [ptr, ptr+size) iff that range
// lies wholly within a live slot.
func (m *VirtualMemory) Dereference(ptr VPointer, size int) ([]byte, error) {
	if int(ptr.Slot) >= len(m.slots) || !m.slots[ptr.Slot].alive {
		return nil, &MemoryAccessError{Kind: OutOfRange, Ptr: ptr, Size: size}
	}
	slot := m.slots[ptr.Slot]
	end := int64(ptr.Offset) + int64(size)
	if end > int64(len(slot.bytes)) {
		return nil, &MemoryAccessError{Kind: OutOfRange, Ptr: ptr, Size: size}
	}
	return slot.bytes[ptr.Offset:end], nil
}

// checkAligned reports the MemoryAccessError a misaligned access of width n
// at ptr should raise, or nil if the offset is properly aligned. Alignment
// is checked against the pointer's own offset, not a host address, since
// slots are independent Go allocations with no shared address space.
func checkAligned(kind MemoryAccessKind, ptr VPointer, n int) error {
	if n > 0 && ptr.Offset%uint64(n) != 0 {
		return &MemoryAccessError{Kind: kind, Ptr: ptr, Size: n}
	}
	return nil
}
