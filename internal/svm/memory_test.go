package svm

import (
	"errors"
	"testing"
)

func TestVirtualMemoryAllocateDereferenceRoundtrip(t *testing.T) {
	m := NewVirtualMemory()
	ptr := m.Allocate(16, 8)
	if ptr.Slot == staticSlot {
		t.Fatalf("Allocate returned the static slot")
	}
	buf, err := m.Dereference(ptr, 16)
	if err != nil {
		t.Fatalf("Dereference: %v", err)
	}
	copy(buf, []byte("0123456789abcdef"))
	buf2, err := m.Dereference(ptr, 16)
	if err != nil {
		t.Fatalf("Dereference: %v", err)
	}
	if string(buf2) != "0123456789abcdef" {
		t.Errorf("got %q", buf2)
	}
}

func TestVirtualMemoryDereferenceOutOfRange(t *testing.T) {
	m := NewVirtualMemory()
	ptr := m.Allocate(4, 4)
	if _, err := m.Dereference(ptr, 8); err == nil {
		t.Fatal("expected an out-of-range error")
	}
	_, err := m.Dereference(ptr, 8)
	var memErr *MemoryAccessError
	if !errors.As(err, &memErr) {
		t.Fatalf("expected *MemoryAccessError, got %T", err)
	} else if memErr.Kind != OutOfRange {
		t.Errorf("Kind = %v, want OutOfRange", memErr.Kind)
	}
}

func TestVirtualMemoryDeallocateThenUseAfterFree(t *testing.T) {
	m := NewVirtualMemory()
	ptr := m.Allocate(8, 8)
	if err := m.Deallocate(ptr); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	if _, err := m.Dereference(ptr, 8); err == nil {
		t.Fatal("expected a use-after-free error")
	}
	if err := m.Deallocate(ptr); err == nil {
		t.Fatal("expected a double-free error")
	}
}

func TestVirtualMemoryDeallocateStaticSlotRejected(t *testing.T) {
	m := NewVirtualMemory()
	m.resizeStaticSlot(64)
	if err := m.Deallocate(VPointer{Slot: staticSlot}); err == nil {
		t.Fatal("expected the static slot to be undeallocatable")
	}
}

func TestVirtualMemoryReusesFreedSlots(t *testing.T) {
	m := NewVirtualMemory()
	a := m.Allocate(8, 8)
	if err := m.Deallocate(a); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	b := m.Allocate(8, 8)
	if b.Slot != a.Slot {
		t.Errorf("Allocate after Deallocate got slot %d, want reused slot %d", b.Slot, a.Slot)
	}
}

func TestVirtualMemoryValidRange(t *testing.T) {
	m := NewVirtualMemory()
	ptr := m.Allocate(10, 1)
	if n := m.ValidRange(ptr); n != 10 {
		t.Errorf("ValidRange = %d, want 10", n)
	}
	advanced := ptr.add(4)
	if n := m.ValidRange(advanced); n != 6 {
		t.Errorf("ValidRange = %d, want 6", n)
	}
	if n := m.ValidRange(VPointer{Slot: 99}); n >= 0 {
		t.Errorf("ValidRange of a dead slot = %d, want negative", n)
	}
}

func TestCheckAlignedRejectsMisalignedOffset(t *testing.T) {
	ptr := VPointer{Slot: staticSlot, Offset: 3}
	if err := checkAligned(MisalignedLoad, ptr, 8); err == nil {
		t.Fatal("expected a misaligned load error")
	}
	aligned := VPointer{Slot: staticSlot, Offset: 8}
	if err := checkAligned(MisalignedLoad, aligned, 8); err != nil {
		t.Errorf("unexpected error for an aligned offset: %v", err)
	}
}
