package svm

import (
	"bytes"
	"math"
	"testing"
)

func newTestVM() *VM {
	vm := New()
	vm.memory = NewVirtualMemory()
	vm.memory.resizeStaticSlot(64)
	return vm
}

func TestBuiltinTableCoversEveryName(t *testing.T) {
	table := newBuiltinTable()
	if len(table) != len(builtinName) {
		t.Fatalf("len(table) = %d, want %d", len(table), len(builtinName))
	}
	for i, name := range builtinName {
		if table[i] == nil {
			t.Errorf("builtin %q (index %d) has no implementation", name, i)
		}
	}
}

func TestBuiltinSqrtF64(t *testing.T) {
	table := newBuiltinTable()
	idx, ok := BuiltinIndex("sqrt_f64")
	if !ok {
		t.Fatal("sqrt_f64 not registered")
	}
	vm := newTestVM()
	result, err := table[idx](vm, []uint64{math.Float64bits(16)})
	if err != nil {
		t.Fatalf("sqrt_f64: %v", err)
	}
	if got := math.Float64frombits(result); got != 4 {
		t.Errorf("sqrt_f64(16) = %v, want 4", got)
	}
}

func TestBuiltinMemcpy(t *testing.T) {
	table := newBuiltinTable()
	idx, ok := BuiltinIndex("memcpy")
	if !ok {
		t.Fatal("memcpy not registered")
	}
	vm := newTestVM()
	src := vm.memory.Allocate(4, 1)
	dst := vm.memory.Allocate(4, 1)
	srcBytes, _ := vm.memory.Dereference(src, 4)
	copy(srcBytes, []byte{1, 2, 3, 4})

	if _, err := table[idx](vm, []uint64{packPointer(dst), packPointer(src), 4}); err != nil {
		t.Fatalf("memcpy: %v", err)
	}
	dstBytes, _ := vm.memory.Dereference(dst, 4)
	if !bytes.Equal(dstBytes, []byte{1, 2, 3, 4}) {
		t.Errorf("dst = %v, want [1 2 3 4]", dstBytes)
	}
}

func TestBuiltinAllocDealloc(t *testing.T) {
	table := newBuiltinTable()
	allocIdx, _ := BuiltinIndex("alloc")
	deallocIdx, _ := BuiltinIndex("dealloc")
	vm := newTestVM()

	raw, err := table[allocIdx](vm, []uint64{16})
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	ptr := unpackPointer(raw)
	if _, err := vm.memory.Dereference(ptr, 16); err != nil {
		t.Fatalf("allocated pointer is not dereferenceable: %v", err)
	}
	if _, err := table[deallocIdx](vm, []uint64{raw}); err != nil {
		t.Fatalf("dealloc: %v", err)
	}
	if _, err := vm.memory.Dereference(ptr, 16); err == nil {
		t.Fatal("expected a use-after-free error after dealloc")
	}
}

func TestBuiltinPutstr(t *testing.T) {
	table := newBuiltinTable()
	idx, _ := BuiltinIndex("putstr")
	vm := newTestVM()
	var out bytes.Buffer
	vm.SetIOStreams(nil, &out)

	ptr := vm.memory.Allocate(5, 1)
	buf, _ := vm.memory.Dereference(ptr, 5)
	copy(buf, "hello")

	if _, err := table[idx](vm, []uint64{packPointer(ptr), 5}); err != nil {
		t.Fatalf("putstr: %v", err)
	}
	if out.String() != "hello" {
		t.Errorf("output = %q, want %q", out.String(), "hello")
	}
}

func TestBuiltinTrapReturnsTrapError(t *testing.T) {
	table := newBuiltinTable()
	idx, _ := BuiltinIndex("trap")
	vm := newTestVM()
	_, err := table[idx](vm, nil)
	if _, ok := err.(*TrapError); !ok {
		t.Fatalf("trap returned %T, want *TrapError", err)
	}
}

func TestBuiltinStrtos64(t *testing.T) {
	table := newBuiltinTable()
	idx, _ := BuiltinIndex("strtos64")
	vm := newTestVM()
	ptr := vm.memory.Allocate(3, 1)
	buf, _ := vm.memory.Dereference(ptr, 3)
	copy(buf, "-42")

	result, err := table[idx](vm, []uint64{packPointer(ptr), 3})
	if err != nil {
		t.Fatalf("strtos64: %v", err)
	}
	if got := int64(result); got != -42 {
		t.Errorf("strtos64(\"-42\") = %d, want -42", got)
	}
}
