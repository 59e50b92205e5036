package pod

import (
	"encoding/binary"
	"math"
	"testing"

	"memview/memview"
	"memview/protection"
)

type fakeView struct {
	buf []byte
}

func newFakeView(size int) *fakeView {
	return &fakeView{buf: make([]byte, size)}
}

func (v *fakeView) Read(address uintptr, buf []byte) int {
	if int(address) >= len(v.buf) {
		return 0
	}
	return copy(buf, v.buf[address:])
}

func (v *fakeView) Write(address uintptr, data []byte) int {
	if int(address) >= len(v.buf) {
		return 0
	}
	return copy(v.buf[address:], data)
}

func (v *fakeView) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	return nil
}
func (v *fakeView) Free(address uintptr, size uintptr) bool { return false }
func (v *fakeView) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	return true
}
func (v *fakeView) Protection(address uintptr) (protection.Protection, bool) {
	return protection.RW, true
}
func (v *fakeView) Platform() memview.Platform { return memview.NewHostPlatform() }
func (v *fakeView) Close() error               { return nil }

type plainStruct struct {
	A int32
	B uint64
}

type withPointerField struct {
	P *int32
}

func TestReadWriteStructRoundTrip(t *testing.T) {
	view := newFakeView(64)
	want := plainStruct{A: 7, B: 0xFEED}
	if !WriteStruct(view, 16, want) {
		t.Fatal("WriteStruct failed")
	}
	got, ok := ReadStruct[plainStruct](view, 16, AlwaysValid)
	if !ok {
		t.Fatal("ReadStruct failed")
	}
	if got != want {
		t.Errorf("ReadStruct = %+v, want %+v", got, want)
	}
}

func TestReadStructRejectsTypeWithGoPointer(t *testing.T) {
	view := newFakeView(64)
	if _, ok := ReadStruct[withPointerField](view, 0, AlwaysValid); ok {
		t.Error("ReadStruct should refuse a type containing a real Go pointer field")
	}
}

func TestReadStructFailsOnShortRead(t *testing.T) {
	view := newFakeView(4)
	if _, ok := ReadStruct[plainStruct](view, 0, AlwaysValid); ok {
		t.Error("ReadStruct should fail when fewer than sizeof(T) bytes are available")
	}
}

type taggedStruct struct {
	Name     [8]byte `pod:"char_array"`
	Required uint64  `pod:"valid_pointer,required"`
	Optional uint64  `pod:"valid_pointer"`
}

func TestValidateAndCleanPointersZeroesInvalidPointer(t *testing.T) {
	s := taggedStruct{Required: 0x1000, Optional: 0x9999}
	isValid := func(addr uintptr) bool { return addr == 0x1000 }

	validateAndCleanPointers(&s, isValid)

	if s.Required != 0x1000 {
		t.Errorf("Required = %#x, want unchanged %#x", s.Required, 0x1000)
	}
	if s.Optional != 0 {
		t.Errorf("Optional = %#x, want zeroed (address failed isValid)", s.Optional)
	}
}

func TestValidateAndCleanPointersKeepsZeroOptionalPointer(t *testing.T) {
	s := taggedStruct{Required: 0x1000, Optional: 0}
	isValid := func(addr uintptr) bool { return true }

	validateAndCleanPointers(&s, isValid)

	if s.Optional != 0 {
		t.Errorf("Optional = %#x, want to remain 0", s.Optional)
	}
}

func TestValidateStrictErrorsOnNullRequiredPointer(t *testing.T) {
	s := taggedStruct{Required: 0}
	err := ValidateStrict(&s, AlwaysValid)
	if err == nil {
		t.Fatal("expected an error for a NULL required pointer field")
	}
}

func TestValidateStrictErrorsOnInvalidPointer(t *testing.T) {
	s := taggedStruct{Required: 0x1000, Optional: 0x2000}
	isValid := func(addr uintptr) bool { return addr == 0x1000 }
	err := ValidateStrict(&s, isValid)
	if err == nil {
		t.Fatal("expected an error for an invalid non-required pointer field")
	}
}

func TestValidateStrictPassesWhenAllPointersValid(t *testing.T) {
	s := taggedStruct{Required: 0x1000, Optional: 0x2000}
	err := ValidateStrict(&s, AlwaysValid)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCleanCharArrayZeroesPastFirstNull(t *testing.T) {
	field := taggedStruct{Name: [8]byte{'h', 'i', 0, 'X', 'X', 'X', 'X', 'X'}}
	s := &field
	validateAndCleanPointers(s, AlwaysValid)

	want := [8]byte{'h', 'i', 0, 0, 0, 0, 0, 0}
	if s.Name != want {
		t.Errorf("Name = %v, want %v", s.Name, want)
	}
}

type linkedInner struct {
	A int32
	F float32
}

type linkedOuter struct {
	Inner *linkedInner `pod:"valid_pointer"`
}

func TestReadLinkedStructFollowsPointerAndDecodesFloat(t *testing.T) {
	view := newFakeView(128)
	const innerAddr = 64

	ptrBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(ptrBuf, innerAddr)
	view.Write(0, ptrBuf)

	innerBuf := make([]byte, 8)
	binary.LittleEndian.PutUint32(innerBuf[0:4], uint32(7))
	binary.LittleEndian.PutUint32(innerBuf[4:8], math.Float32bits(3.5))
	view.Write(innerAddr, innerBuf)

	var outer linkedOuter
	isValid := func(addr uintptr) bool { return addr == innerAddr }
	if err := ReadLinkedStruct(view, 0, &outer, isValid); err != nil {
		t.Fatalf("ReadLinkedStruct: %v", err)
	}
	if outer.Inner == nil {
		t.Fatal("Inner pointer was not followed")
	}
	if outer.Inner.A != 7 {
		t.Errorf("Inner.A = %d, want 7", outer.Inner.A)
	}
	if outer.Inner.F != 3.5 {
		t.Errorf("Inner.F = %v, want 3.5", outer.Inner.F)
	}
}

func TestReadLinkedStructZeroesPointerOnInvalidAddress(t *testing.T) {
	view := newFakeView(128)
	const innerAddr = 64

	ptrBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(ptrBuf, innerAddr)
	view.Write(0, ptrBuf)

	var outer linkedOuter
	isValid := func(addr uintptr) bool { return false }
	if err := ReadLinkedStruct(view, 0, &outer, isValid); err != nil {
		t.Fatalf("ReadLinkedStruct: %v", err)
	}
	if outer.Inner != nil {
		t.Errorf("Inner = %+v, want nil pointer when the address fails isValid", outer.Inner)
	}
}

func TestReadPointerListFiltersZeroEntries(t *testing.T) {
	view := newFakeView(64)
	memview.WriteArray[uintptr](view, 0, []uintptr{0x10, 0, 0x20})
	got := ReadPointerList(view, 0, 3)
	if len(got) != 2 || got[0] != 0x10 || got[1] != 0x20 {
		t.Errorf("ReadPointerList = %v, want [0x10 0x20]", got)
	}
}
