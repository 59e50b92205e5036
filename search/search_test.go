package search

import (
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

func TestSearchFindsValueAtDepthZero(t *testing.T) {
	view := newFakeView(256)
	memview.WriteValue(view, 32, int32(0x1234))

	results, err := Search(view, 0, WithSearchForType(int32(0x1234)), WithMaxDepth(0))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path[0] != 32 {
		t.Fatalf("results = %v, want a single hit at offset 32", results)
	}
}

func TestSearchRequiresSearchTarget(t *testing.T) {
	view := newFakeView(64)
	if _, err := Search(view, 0); err == nil {
		t.Error("Search should error when no search target is configured")
	}
}

func TestSearchFollowsValidPointerToSecondStruct(t *testing.T) {
	view := newFakeView(256)
	// base struct at 0 (128 bytes) holds a pointer (offset 0) to a second
	// struct at 128, which holds the target value at offset 16.
	memview.WriteValue[uintptr](view, 0, 128)
	memview.WriteValue(view, 128+16, int32(0x5555))

	results, err := Search(view, 0,
		WithSearchForType(int32(0x5555)),
		WithMaxDepth(2),
		WithMaxStructSize(128),
		WithValidAddressFunc(func(addr uintptr) bool { return addr == 128 }),
	)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %v, want one hit reached via the followed pointer", results)
	}
	want := []uintptr{0, 16}
	got := results[0].Path
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Path = %v, want %v", got, want)
	}
}

func TestSearchDoesNotFollowInvalidPointer(t *testing.T) {
	view := newFakeView(256)
	memview.WriteValue[uintptr](view, 0, 128)
	memview.WriteValue(view, 128+16, int32(0x5555))

	results, err := Search(view, 0,
		WithSearchForType(int32(0x5555)),
		WithMaxDepth(2),
		WithMaxStructSize(128),
		WithValidAddressFunc(func(addr uintptr) bool { return false }),
	)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want no hits when the pointer is rejected", results)
	}
}
