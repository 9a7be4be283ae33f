package svm

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// builtinName indexes the fixed builtin table cbltn addresses by position,
// enumerated from spec.md §4.7's builtin list: scalar math in f32 and f64,
// memory primitives, IO, string-to-scalar parsing, f-string formatting
// helpers, trap and rand_i64.
var builtinName = []string{
	// Scalar math, f32.
	"abs_f32", "exp_f32", "exp2_f32", "exp10_f32", "log_f32", "log2_f32", "log10_f32",
	"pow_f32", "sqrt_f32", "cbrt_f32", "hypot_f32",
	"sin_f32", "cos_f32", "tan_f32", "asin_f32", "acos_f32", "atan_f32",
	"fract_f32", "floor_f32", "ceil_f32",
	// Scalar math, f64.
	"abs_f64", "exp_f64", "exp2_f64", "exp10_f64", "log_f64", "log2_f64", "log10_f64",
	"pow_f64", "sqrt_f64", "cbrt_f64", "hypot_f64",
	"sin_f64", "cos_f64", "tan_f64", "asin_f64", "acos_f64", "atan_f64",
	"fract_f64", "floor_f64", "ceil_f64",
	// Memory.
	"memcpy", "memmove", "memset", "alloc", "dealloc",
	// IO.
	"putchar", "puti64", "putf64", "putstr", "putln", "putptr", "readline",
	// String-to-scalar.
	"strtos64", "strtof64",
	// f-string helpers.
	"fstring_writestr", "fstring_writes64", "fstring_writef64", "fstring_trim",
	// Misc.
	"trap", "rand_i64",
}

var builtinIndex = func() map[string]int {
	m := make(map[string]int, len(builtinName))
	for i, n := range builtinName {
		m[n] = i
	}
	return m
}()

// BuiltinIndex returns cbltn's table index for name, for an assembler or
// test harness to encode a builtin call by name.
func BuiltinIndex(name string) (int, bool) {
	i, ok := builtinIndex[name]
	return i, ok
}

func unary32(fn func(float32) float32) BuiltinFunction {
	return func(vm *VM, args []uint64) (uint64, error) {
		return uint64(math.Float32bits(fn(math.Float32frombits(uint32(args[0]))))), nil
	}
}

func unary64(fn func(float64) float64) BuiltinFunction {
	return func(vm *VM, args []uint64) (uint64, error) {
		return math.Float64bits(fn(math.Float64frombits(args[0]))), nil
	}
}

func binary32(fn func(float32, float32) float32) BuiltinFunction {
	return func(vm *VM, args []uint64) (uint64, error) {
		a := math.Float32frombits(uint32(args[0]))
		b := math.Float32frombits(uint32(args[1]))
		return uint64(math.Float32bits(fn(a, b))), nil
	}
}

func binary64(fn func(float64, float64) float64) BuiltinFunction {
	return func(vm *VM, args []uint64) (uint64, error) {
		a := math.Float64frombits(args[0])
		b := math.Float64frombits(args[1])
		return math.Float64bits(fn(a, b)), nil
	}
}

func fract(v float64) float64 { return v - math.Trunc(v) }
func exp10(v float64) float64 { return math.Pow(10, v) }

// newBuiltinTable builds the cbltn dispatch table in builtinName order.
func newBuiltinTable() []BuiltinFunction {
	table := make([]BuiltinFunction, len(builtinName))
	set := func(name string, fn BuiltinFunction) { table[builtinIndex[name]] = fn }

	set("abs_f32", unary32(func(v float32) float32 { return float32(math.Abs(float64(v))) }))
	set("exp_f32", unary32(func(v float32) float32 { return float32(math.Exp(float64(v))) }))
	set("exp2_f32", unary32(func(v float32) float32 { return float32(math.Exp2(float64(v))) }))
	set("exp10_f32", unary32(func(v float32) float32 { return float32(exp10(float64(v))) }))
	set("log_f32", unary32(func(v float32) float32 { return float32(math.Log(float64(v))) }))
	set("log2_f32", unary32(func(v float32) float32 { return float32(math.Log2(float64(v))) }))
	set("log10_f32", unary32(func(v float32) float32 { return float32(math.Log10(float64(v))) }))
	set("pow_f32", binary32(func(a, b float32) float32 { return float32(math.Pow(float64(a), float64(b))) }))
	set("sqrt_f32", unary32(func(v float32) float32 { return float32(math.Sqrt(float64(v))) }))
	set("cbrt_f32", unary32(func(v float32) float32 { return float32(math.Cbrt(float64(v))) }))
	set("hypot_f32", binary32(func(a, b float32) float32 { return float32(math.Hypot(float64(a), float64(b))) }))
	set("sin_f32", unary32(func(v float32) float32 { return float32(math.Sin(float64(v))) }))
	set("cos_f32", unary32(func(v float32) float32 { return float32(math.Cos(float64(v))) }))
	set("tan_f32", unary32(func(v float32) float32 { return float32(math.Tan(float64(v))) }))
	set("asin_f32", unary32(func(v float32) float32 { return float32(math.Asin(float64(v))) }))
	set("acos_f32", unary32(func(v float32) float32 { return float32(math.Acos(float64(v))) }))
	set("atan_f32", unary32(func(v float32) float32 { return float32(math.Atan(float64(v))) }))
	set("fract_f32", unary32(func(v float32) float32 { return float32(fract(float64(v))) }))
	set("floor_f32", unary32(func(v float32) float32 { return float32(math.Floor(float64(v))) }))
	set("ceil_f32", unary32(func(v float32) float32 { return float32(math.Ceil(float64(v))) }))

	set("abs_f64", unary64(math.Abs))
	set("exp_f64", unary64(math.Exp))
	set("exp2_f64", unary64(math.Exp2))
	set("exp10_f64", unary64(exp10))
	set("log_f64", unary64(math.Log))
	set("log2_f64", unary64(math.Log2))
	set("log10_f64", unary64(math.Log10))
	set("pow_f64", binary64(math.Pow))
	set("sqrt_f64", unary64(math.Sqrt))
	set("cbrt_f64", unary64(math.Cbrt))
	set("hypot_f64", binary64(math.Hypot))
	set("sin_f64", unary64(math.Sin))
	set("cos_f64", unary64(math.Cos))
	set("tan_f64", unary64(math.Tan))
	set("asin_f64", unary64(math.Asin))
	set("acos_f64", unary64(math.Acos))
	set("atan_f64", unary64(math.Atan))
	set("fract_f64", unary64(fract))
	set("floor_f64", unary64(math.Floor))
	set("ceil_f64", unary64(math.Ceil))

	set("memcpy", func(vm *VM, args []uint64) (uint64, error) {
		dst, src, n := unpackPointer(args[0]), unpackPointer(args[1]), int(args[2])
		s, err := vm.memory.Dereference(src, n)
		if err != nil {
			return 0, err
		}
		d, err := vm.memory.Dereference(dst, n)
		if err != nil {
			return 0, err
		}
		copy(d, s)
		return args[0], nil
	})
	set("memmove", func(vm *VM, args []uint64) (uint64, error) {
		dst, src, n := unpackPointer(args[0]), unpackPointer(args[1]), int(args[2])
		s, err := vm.memory.Dereference(src, n)
		if err != nil {
			return 0, err
		}
		tmp := append([]byte(nil), s...)
		d, err := vm.memory.Dereference(dst, n)
		if err != nil {
			return 0, err
		}
		copy(d, tmp)
		return args[0], nil
	})
	set("memset", func(vm *VM, args []uint64) (uint64, error) {
		dst, val, n := unpackPointer(args[0]), byte(args[1]), int(args[2])
		d, err := vm.memory.Dereference(dst, n)
		if err != nil {
			return 0, err
		}
		for i := range d {
			d[i] = val
		}
		return args[0], nil
	})
	set("alloc", func(vm *VM, args []uint64) (uint64, error) {
		return packPointer(vm.memory.Allocate(int(args[0]), 8)), nil
	})
	set("dealloc", func(vm *VM, args []uint64) (uint64, error) {
		return 0, vm.memory.Deallocate(unpackPointer(args[0]))
	})

	set("putchar", func(vm *VM, args []uint64) (uint64, error) {
		_, err := vm.out.Write([]byte{byte(args[0])})
		return 0, err
	})
	set("puti64", func(vm *VM, args []uint64) (uint64, error) {
		_, err := fmt.Fprintf(vm.out, "%d", int64(args[0]))
		return 0, err
	})
	set("putf64", func(vm *VM, args []uint64) (uint64, error) {
		_, err := fmt.Fprintf(vm.out, "%g", math.Float64frombits(args[0]))
		return 0, err
	})
	set("putstr", func(vm *VM, args []uint64) (uint64, error) {
		bytes, err := vm.memory.Dereference(unpackPointer(args[0]), int(args[1]))
		if err != nil {
			return 0, err
		}
		_, err = vm.out.Write(bytes)
		return 0, err
	})
	set("putln", func(vm *VM, args []uint64) (uint64, error) {
		_, err := vm.out.Write([]byte{'\n'})
		return 0, err
	})
	set("putptr", func(vm *VM, args []uint64) (uint64, error) {
		_, err := fmt.Fprint(vm.out, unpackPointer(args[0]))
		return 0, err
	})
	set("readline", func(vm *VM, args []uint64) (uint64, error) {
		reader := bufio.NewReader(vm.in)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return 0, err
		}
		line = trimNewline(line)
		ptr := vm.memory.Allocate(len(line), 1)
		dst, _ := vm.memory.Dereference(ptr, len(line))
		copy(dst, line)
		return packPointer(ptr), nil
	})

	set("strtos64", func(vm *VM, args []uint64) (uint64, error) {
		bytes, err := vm.memory.Dereference(unpackPointer(args[0]), int(args[1]))
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseInt(string(bytes), 10, 64)
		if err != nil {
			return 0, nil
		}
		return uint64(v), nil
	})
	set("strtof64", func(vm *VM, args []uint64) (uint64, error) {
		bytes, err := vm.memory.Dereference(unpackPointer(args[0]), int(args[1]))
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(string(bytes), 64)
		if err != nil {
			return 0, nil
		}
		return math.Float64bits(v), nil
	})

	set("fstring_writestr", func(vm *VM, args []uint64) (uint64, error) {
		dst, srcLen := unpackPointer(args[0]), int(args[2])
		src, err := vm.memory.Dereference(unpackPointer(args[1]), srcLen)
		if err != nil {
			return 0, err
		}
		out, err := vm.memory.Dereference(dst, srcLen)
		if err != nil {
			return 0, err
		}
		copy(out, src)
		return uint64(srcLen), nil
	})
	set("fstring_writes64", func(vm *VM, args []uint64) (uint64, error) {
		return writeFormatted(vm, unpackPointer(args[0]), strconv.FormatInt(int64(args[1]), 10))
	})
	set("fstring_writef64", func(vm *VM, args []uint64) (uint64, error) {
		return writeFormatted(vm, unpackPointer(args[0]), strconv.FormatFloat(math.Float64frombits(args[1]), 'g', -1, 64))
	})
	set("fstring_trim", func(vm *VM, args []uint64) (uint64, error) {
		buf, err := vm.memory.Dereference(unpackPointer(args[0]), int(args[1]))
		if err != nil {
			return 0, err
		}
		n := len(buf)
		for n > 0 && buf[n-1] == 0 {
			n--
		}
		return uint64(n), nil
	})

	set("trap", func(vm *VM, args []uint64) (uint64, error) {
		return 0, &TrapError{}
	})
	set("rand_i64", func(vm *VM, args []uint64) (uint64, error) {
		return rand.Uint64(), nil
	})

	return table
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func writeFormatted(vm *VM, dst VPointer, s string) (uint64, error) {
	out, err := vm.memory.Dereference(dst, len(s))
	if err != nil {
		return 0, err
	}
	copy(out, s)
	return uint64(len(s)), nil
}
