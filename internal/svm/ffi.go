package svm

import (
	"fmt"
	"math"
	"reflect"
)

// FFIArgType classifies one argument or return slot of a registered native
// function, standing in for the ffi_type entries of the source's ffi_cif:
// Go has no dynamic C ABI marshaling (libffi) without cgo, so a foreign
// function here is a host-registered Go func value rather than a dlopen'd
// C symbol, called through reflect using this type tag to unpack the
// argument's register bits.
type FFIArgType int

const (
	FFIInt8 FFIArgType = iota
	FFIInt16
	FFIInt32
	FFIInt64
	FFIFloat32
	FFIFloat64
	FFIPointer
)

// RegisterNativeFunction wraps fn (a concrete Go function value) as a
// ForeignFunction reachable from cfng, and installs it on vm. Pointer
// arguments are dereferenced once before the call, per spec.md §4.7, into
// the full remaining byte range of their slot; fn must accept a []byte for
// any FFIPointer-tagged parameter.
func RegisterNativeFunction(vm *VM, name string, fn any, argTypes []FFIArgType, returnType FFIArgType) int {
	fv := reflect.ValueOf(fn)
	wrapped := ForeignFunction{
		Name: name,
		Fn: func(vm *VM, args []uint64) (uint64, error) {
			in := make([]reflect.Value, len(argTypes))
			for i, t := range argTypes {
				v, err := marshalArg(vm, t, args[i])
				if err != nil {
					return 0, &FFIError{Library: "native", Symbol: name, Err: err}
				}
				in[i] = v
			}
			out, err := safeCall(fv, in)
			if err != nil {
				return 0, &FFIError{Library: "native", Symbol: name, Err: err}
			}
			if len(out) == 0 {
				return 0, nil
			}
			return marshalResult(returnType, out[0]), nil
		},
	}
	return vm.RegisterForeignFunction(wrapped)
}

func safeCall(fn reflect.Value, in []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native call panicked: %v", r)
		}
	}()
	out = fn.Call(in)
	return
}

func marshalArg(vm *VM, kind FFIArgType, bits uint64) (reflect.Value, error) {
	switch kind {
	case FFIInt8:
		return reflect.ValueOf(int8(bits)), nil
	case FFIInt16:
		return reflect.ValueOf(int16(bits)), nil
	case FFIInt32:
		return reflect.ValueOf(int32(bits)), nil
	case FFIInt64:
		return reflect.ValueOf(int64(bits)), nil
	case FFIFloat32:
		return reflect.ValueOf(math.Float32frombits(uint32(bits))), nil
	case FFIFloat64:
		return reflect.ValueOf(math.Float64frombits(bits)), nil
	case FFIPointer:
		ptr := unpackPointer(bits)
		n := vm.memory.ValidRange(ptr)
		if n < 0 {
			n = 0
		}
		data, err := vm.memory.Dereference(ptr, int(n))
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(data), nil
	}
	return reflect.ValueOf(bits), nil
}

func marshalResult(kind FFIArgType, result reflect.Value) uint64 {
	switch kind {
	case FFIInt8:
		return uint64(uint8(result.Int()))
	case FFIInt16:
		return uint64(uint16(result.Int()))
	case FFIInt32:
		return uint64(uint32(result.Int()))
	case FFIInt64:
		return uint64(result.Int())
	case FFIFloat32:
		return uint64(math.Float32bits(float32(result.Float())))
	case FFIFloat64:
		return math.Float64bits(result.Float())
	}
	return 0
}
