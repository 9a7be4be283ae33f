package svm

import (
	"io"
	"os"

	"github.com/cwbudde/go-dws/internal/asm"
)

// MaxCallframeRegisterCount is the number of registers reserved below the
// root frame's window so a callee's negative-indexed slots (regPtr[-1],
// regPtr[-2], regPtr[-3], the saved return address/delta/stack pointer) are
// always addressable, mirroring VirtualMachine::reset's
// `regPtr = registers.data() - MaxCallframeRegisterCount` bias.
const MaxCallframeRegisterCount = 4

// ForeignFunction is a callable reached through cfng, standing in for the
// source's libffi-backed ForeignFunction{funcPtr, ffi_cif, argTypes}: Go has
// no direct libffi binding, so a foreign function is just a typed native Go
// closure registered ahead of time by the host embedding the VM.
type ForeignFunction struct {
	Name string
	Fn   func(vm *VM, args []uint64) (uint64, error)
}

// BuiltinFunction is one entry of the fixed builtin table reached through
// cbltn (spec.md §4.7's enumerated scalar-math/memory/IO/string table).
type BuiltinFunction func(vm *VM, args []uint64) (uint64, error)

// VM is the register-windowed stack-machine runtime, grounded on
// VMImpl's member layout (registers, memory, cmpFlags, execFrames, binary,
// programBreak, startAddress, builtin/foreign tables, stats, streams) and on
// original_source/svm-lib/Execution.cc's dispatch loop.
type VM struct {
	registers []uint64
	memory    *VirtualMemory
	flags     CompareFlags
	frames    []ExecutionFrame

	text            []byte
	binarySize      int
	stackBase       int
	programBreak    int
	startAddress    int
	functionOffsets map[string]int

	foreignFunctions []ForeignFunction
	foreignTables    [][]int // extFunctionTable[slot][index] -> foreignFunctions index
	builtins         []BuiltinFunction

	stats Stats

	in  io.Reader
	out io.Writer
}

// New returns a VM with an empty program loaded and a reasonably sized
// register file; LoadBinary must be called before execution.
func New() *VM {
	vm := &VM{
		registers: make([]uint64, 1<<16),
		memory:    NewVirtualMemory(),
		in:        os.Stdin,
		out:       os.Stdout,
	}
	vm.builtins = newBuiltinTable()
	return vm
}

// SetIOStreams installs the streams the putchar/putstr/readline builtins
// read from and write to, mirroring VirtualMachine::setIOStreams.
func (vm *VM) SetIOStreams(in io.Reader, out io.Writer) {
	vm.in = in
	vm.out = out
}

// defaultStackSize is the number of bytes reserved after the program image in the
// static slot for the runtime's data stack.
const defaultStackSize = 1 << 20

// LoadBinary installs an assembled program as the VM's text section,
// grounded on VirtualMachine::loadBinary: it resizes the static slot to
// hold the program image immediately followed by the data stack, copies the
// program in, and resets every register and frame to a fresh root state.
func (vm *VM) LoadBinary(prog *asm.Program) error {
	vm.text = prog.Text
	vm.binarySize = len(prog.Text)
	vm.functionOffsets = prog.FunctionOffsets
	vm.programBreak = vm.binarySize

	vm.stackBase = roundUp(vm.binarySize, 16)
	vm.memory = NewVirtualMemory()
	vm.memory.resizeStaticSlot(vm.stackBase + defaultStackSize)
	copy(vm.memory.StaticBytes(), vm.text)

	start, ok := prog.FunctionOffsets["main"]
	if !ok {
		start = 0
	}
	vm.startAddress = start

	vm.reset()
	return nil
}

func roundUp(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

// reset clobbers the register file and reinstalls a single root
// ExecutionFrame, mirroring VirtualMachine::reset.
func (vm *VM) reset() {
	for i := range vm.registers {
		vm.registers[i] = 0xcfcfcfcfcfcfcfcf
	}
	vm.flags = CompareFlags{}
	root := ExecutionFrame{
		RegBase:   MaxCallframeRegisterCount,
		BottomReg: MaxCallframeRegisterCount,
		IPtr:      vm.startAddress,
		StackPtr:  VPointer{Slot: staticSlot, Offset: uint64(vm.stackBase)},
	}
	vm.frames = []ExecutionFrame{root}
	vm.stats = Stats{}
}

func (vm *VM) currentFrame() *ExecutionFrame { return &vm.frames[len(vm.frames)-1] }

// reg returns the value of the register at window-relative index idx in the
// current frame.
func (vm *VM) reg(idx uint8) uint64 {
	return vm.registers[vm.currentFrame().RegBase+int(idx)]
}

func (vm *VM) setReg(idx uint8, v uint64) {
	vm.registers[vm.currentFrame().RegBase+int(idx)] = v
}

// Registers exposes the raw register file rooted at the current frame's
// window, mirroring VirtualMachine::registerData/getRegister.
func (vm *VM) Registers() []uint64 {
	f := vm.currentFrame()
	return vm.registers[f.RegBase:]
}

func (vm *VM) GetCompareFlags() CompareFlags { return vm.flags }

func (vm *VM) AllocateMemory(size, align int) VPointer { return vm.memory.Allocate(size, align) }
func (vm *VM) DeallocateMemory(ptr VPointer) error      { return vm.memory.Deallocate(ptr) }
func (vm *VM) ValidRange(ptr VPointer) int64             { return vm.memory.ValidRange(ptr) }
func (vm *VM) Deref(ptr VPointer, size int) ([]byte, error) {
	return vm.memory.Dereference(ptr, size)
}

// AllocateStackMemory bumps the current frame's stack pointer by numBytes,
// 8-byte aligned, mirroring VirtualMachine::allocateStackMemory.
func (vm *VM) AllocateStackMemory(numBytes, align int) VPointer {
	f := vm.currentFrame()
	aligned := roundUp(numBytes, 8)
	p := f.StackPtr
	f.StackPtr = f.StackPtr.add(int64(aligned))
	_ = align
	return p
}

// RegisterForeignFunction appends fn to the foreign-function table and
// returns its table index, the index a cfng instruction's 16-bit operand
// names.
func (vm *VM) RegisterForeignFunction(fn ForeignFunction) int {
	vm.foreignFunctions = append(vm.foreignFunctions, fn)
	return len(vm.foreignFunctions) - 1
}

// SetFunctionTableSlot records foreignFunctions[fnIndex] at [slot][index]
// in the ext-function table, mirroring VirtualMachine::setFunctionTableSlot.
// cfng does not read this table: its operand indexes foreignFunctions
// directly.
func (vm *VM) SetFunctionTableSlot(slot, index, fnIndex int) {
	for len(vm.foreignTables) <= slot {
		vm.foreignTables = append(vm.foreignTables, nil)
	}
	for len(vm.foreignTables[slot]) <= index {
		vm.foreignTables[slot] = append(vm.foreignTables[slot], -1)
	}
	vm.foreignTables[slot][index] = fnIndex
}

// Execute runs start to completion with args loaded into the initial
// register window, mirroring VirtualMachine::execute. It is a thin
// BeginExecution/StepExecution/EndExecution loop for callers that don't
// need to single-step.
func (vm *VM) Execute(start int, args []uint64) ([]uint64, error) {
	vm.BeginExecution(start, args)
	for vm.running() {
		if err := vm.StepExecution(); err != nil {
			return nil, err
		}
	}
	return vm.EndExecution(), nil
}

// BeginExecution pushes a fresh root frame and copies args into its
// register window, mirroring VMImpl::beginExecution. Exported per the
// debugger coroutine API (begin/step/end) alongside StepExecution and
// EndExecution: a host can call this once, then drive StepExecution itself
// instead of calling Execute.
func (vm *VM) BeginExecution(start int, args []uint64) {
	vm.reset()
	f := vm.currentFrame()
	f.IPtr = start
	for i, a := range args {
		vm.registers[f.RegBase+i] = a
	}
}

// running reports whether execution has not yet reached programBreak,
// mirroring VMImpl::running.
func (vm *VM) running() bool {
	return vm.currentFrame().IPtr < vm.programBreak
}

// EndExecution returns the return-value registers left by the callee
// convention (register window slots starting at 0), mirroring
// VMImpl::endExecution.
func (vm *VM) EndExecution() []uint64 {
	f := vm.currentFrame()
	return append([]uint64(nil), vm.registers[f.RegBase:f.RegBase+8]...)
}

// Running reports whether the frame driven by BeginExecution has not yet
// reached the end of the loaded program, for a host driving StepExecution
// directly instead of through Execute.
func (vm *VM) Running() bool { return vm.running() }
