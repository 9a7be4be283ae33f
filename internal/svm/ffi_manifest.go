package svm

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FFIManifestEntry describes one native function's calling signature for
// host tooling, the JSON-manifest analogue of spec.md §6.1's binary
// FFILibDecl/FFIFuncDecl trailer entries: a name plus an ordered argument
// type list and a return type, serialized so an embedder can ship a
// function table description alongside a compiled Program without
// recompiling Go code for every registered native function.
type FFIManifestEntry struct {
	Name       string
	ArgTypes   []FFIArgType
	ReturnType FFIArgType
}

func (t FFIArgType) String() string {
	switch t {
	case FFIInt8:
		return "i8"
	case FFIInt16:
		return "i16"
	case FFIInt32:
		return "i32"
	case FFIInt64:
		return "i64"
	case FFIFloat32:
		return "f32"
	case FFIFloat64:
		return "f64"
	case FFIPointer:
		return "ptr"
	default:
		return "?"
	}
}

// ParseFFIArgType is String's inverse, used when decoding a manifest entry.
func ParseFFIArgType(s string) (FFIArgType, bool) {
	switch s {
	case "i8":
		return FFIInt8, true
	case "i16":
		return FFIInt16, true
	case "i32":
		return FFIInt32, true
	case "i64":
		return FFIInt64, true
	case "f32":
		return FFIFloat32, true
	case "f64":
		return FFIFloat64, true
	case "ptr":
		return FFIPointer, true
	default:
		return 0, false
	}
}

// EncodeFFIManifest renders entries as a JSON array, built incrementally
// with sjson.Set so a caller can emit the manifest without hand-assembling
// a struct tree first.
func EncodeFFIManifest(entries []FFIManifestEntry) (string, error) {
	json := "[]"
	var err error
	for i, e := range entries {
		json, err = sjson.Set(json, fmt.Sprintf("%d.name", i), e.Name)
		if err != nil {
			return "", err
		}
		json, err = sjson.Set(json, fmt.Sprintf("%d.return", i), e.ReturnType.String())
		if err != nil {
			return "", err
		}
		for j, a := range e.ArgTypes {
			json, err = sjson.Set(json, fmt.Sprintf("%d.args.%d", i, j), a.String())
			if err != nil {
				return "", err
			}
		}
	}
	return json, nil
}

// DecodeFFIManifest parses a JSON array produced by EncodeFFIManifest (or
// hand-authored in the same shape) back into FFIManifestEntry values,
// using gjson's path queries rather than unmarshaling into an intermediate
// struct, matching this package's register-bits-in/register-bits-out style
// of working directly with a compact wire representation.
func DecodeFFIManifest(data string) ([]FFIManifestEntry, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("scatha/svm: invalid FFI manifest JSON")
	}
	result := gjson.Parse(data)
	var entries []FFIManifestEntry
	var parseErr error
	result.ForEach(func(_, entry gjson.Result) bool {
		name := entry.Get("name").String()
		retName := entry.Get("return").String()
		ret, ok := ParseFFIArgType(retName)
		if !ok {
			parseErr = fmt.Errorf("scatha/svm: unknown FFI return type %q for %q", retName, name)
			return false
		}
		var args []FFIArgType
		var argErr error
		entry.Get("args").ForEach(func(_, a gjson.Result) bool {
			t, ok := ParseFFIArgType(a.String())
			if !ok {
				argErr = fmt.Errorf("scatha/svm: unknown FFI arg type %q for %q", a.String(), name)
				return false
			}
			args = append(args, t)
			return true
		})
		if argErr != nil {
			parseErr = argErr
			return false
		}
		entries = append(entries, FFIManifestEntry{Name: name, ArgTypes: args, ReturnType: ret})
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return entries, nil
}
