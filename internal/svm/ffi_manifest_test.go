package svm

import "testing"

func TestFFIManifestRoundtrip(t *testing.T) {
	entries := []FFIManifestEntry{
		{Name: "sqrt", ArgTypes: []FFIArgType{FFIFloat64}, ReturnType: FFIFloat64},
		{Name: "memcpy", ArgTypes: []FFIArgType{FFIPointer, FFIPointer, FFIInt64}, ReturnType: FFIInt64},
		{Name: "noop", ArgTypes: nil, ReturnType: FFIInt32},
	}

	encoded, err := EncodeFFIManifest(entries)
	if err != nil {
		t.Fatalf("EncodeFFIManifest: %v", err)
	}

	decoded, err := DecodeFFIManifest(encoded)
	if err != nil {
		t.Fatalf("DecodeFFIManifest: %v", err)
	}
	if len(decoded) != len(entries) {
		t.Fatalf("len(decoded) = %d, want %d", len(decoded), len(entries))
	}
	for i, want := range entries {
		got := decoded[i]
		if got.Name != want.Name || got.ReturnType != want.ReturnType {
			t.Errorf("entry %d = %+v, want %+v", i, got, want)
		}
		if len(got.ArgTypes) != len(want.ArgTypes) {
			t.Errorf("entry %d ArgTypes = %v, want %v", i, got.ArgTypes, want.ArgTypes)
			continue
		}
		for j := range want.ArgTypes {
			if got.ArgTypes[j] != want.ArgTypes[j] {
				t.Errorf("entry %d arg %d = %v, want %v", i, j, got.ArgTypes[j], want.ArgTypes[j])
			}
		}
	}
}

func TestDecodeFFIManifestRejectsUnknownType(t *testing.T) {
	if _, err := DecodeFFIManifest(`[{"name":"f","return":"bogus"}]`); err == nil {
		t.Fatal("expected an error for an unknown return type")
	}
}

func TestDecodeFFIManifestRejectsInvalidJSON(t *testing.T) {
	if _, err := DecodeFFIManifest("not json"); err == nil {
		t.Fatal("expected an error for invalid JSON")
	}
}
