package memview

import (
	"testing"

	"memview/pattern"
	"memview/protection"
)

// fakeView is a View backed by a plain byte slice, standing in for a real
// process/OS backend so the derived helpers in this package can be
// exercised without touching actual process memory.
type fakeView struct {
	buf  []byte
	prot protection.Protection
}

func newFakeView(size int) *fakeView {
	return &fakeView{buf: make([]byte, size), prot: protection.RW}
}

func (v *fakeView) Read(address uintptr, buf []byte) int {
	if int(address) >= len(v.buf) {
		return 0
	}
	n := copy(buf, v.buf[address:])
	return n
}

func (v *fakeView) Write(address uintptr, data []byte) int {
	if int(address) >= len(v.buf) {
		return 0
	}
	n := copy(v.buf[address:], data)
	return n
}

func (v *fakeView) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *MemRange {
	return nil
}

func (v *fakeView) Free(address uintptr, size uintptr) bool { return false }

func (v *fakeView) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	v.prot = prot
	return true
}

func (v *fakeView) Protection(address uintptr) (protection.Protection, bool) {
	return v.prot, true
}

func (v *fakeView) Platform() Platform { return NewHostPlatform() }

func (v *fakeView) Close() error { return nil }

func TestRawPointerOffsetAndEqual(t *testing.T) {
	view := newFakeView(16)
	p := Ptr(view, 0x1000)
	q := p.Offset(4)
	if q.Address != 0x1004 {
		t.Errorf("Offset(4).Address = %#x, want %#x", q.Address, 0x1004)
	}
	if !p.Equal(Ptr(nil, 0x1000)) {
		t.Error("Equal should compare address only, ignoring view")
	}
	if p.Equal(q) {
		t.Error("distinct addresses should not be Equal")
	}
}

func TestMemRangeContainsIsInclusiveOfEnd(t *testing.T) {
	view := newFakeView(16)
	r := NewRange(view, 0x100, 0x10)
	if !r.Contains(Ptr(view, 0x100)) {
		t.Error("Contains should include the base address")
	}
	if !r.Contains(Ptr(view, 0x110)) {
		t.Error("Contains should include base+size (inclusive upper bound)")
	}
	if r.Contains(Ptr(view, 0x111)) {
		t.Error("Contains should exclude base+size+1")
	}
}

func TestReadWriteValueRoundTrip(t *testing.T) {
	view := newFakeView(64)
	if !WriteValue(view, 8, uint32(0xDEADBEEF)) {
		t.Fatal("WriteValue failed")
	}
	got, ok := ReadValue[uint32](view, 8)
	if !ok {
		t.Fatal("ReadValue failed")
	}
	if got != 0xDEADBEEF {
		t.Errorf("ReadValue = %#x, want %#x", got, 0xDEADBEEF)
	}
}

func TestReadValueRejectsNonPODType(t *testing.T) {
	view := newFakeView(64)
	type hasPointer struct {
		P *int
	}
	if _, ok := ReadValue[hasPointer](view, 0); ok {
		t.Error("ReadValue should refuse a type containing a pointer")
	}
}

func TestReadValueFailsOnShortRead(t *testing.T) {
	view := newFakeView(4)
	if _, ok := ReadValue[uint64](view, 0); ok {
		t.Error("ReadValue should fail when fewer than sizeof(T) bytes are available")
	}
}

func TestReadWriteArrayRoundTrip(t *testing.T) {
	view := newFakeView(64)
	seq := []int32{1, 2, 3, 4, 5}
	n := WriteArray(view, 0, seq)
	if n != len(seq) {
		t.Fatalf("WriteArray wrote %d elements, want %d", n, len(seq))
	}
	got := ReadArray[int32](view, 0, len(seq))
	if len(got) != len(seq) {
		t.Fatalf("ReadArray returned %d elements, want %d", len(got), len(seq))
	}
	for i := range seq {
		if got[i] != seq[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], seq[i])
		}
	}
}

func TestReadStringUTF8ZeroTerminated(t *testing.T) {
	view := newFakeView(64)
	view.Write(0, append([]byte("hello"), 0, 'X', 'X'))
	got := ReadString(view, 0, 8, UTF8, true)
	if got != "hello" {
		t.Errorf("ReadString = %q, want %q", got, "hello")
	}
}

func TestWriteStringThenReadStringUTF16(t *testing.T) {
	view := newFakeView(64)
	if !WriteString(view, 0, "hi", UTF16, true) {
		t.Fatal("WriteString failed")
	}
	got := ReadString(view, 0, 8, UTF16, true)
	if got != "hi" {
		t.Errorf("ReadString = %q, want %q", got, "hi")
	}
}

func TestDerefChainReadsIntermediateAddress(t *testing.T) {
	view := newFakeView(64)
	// address 0 holds a pointer to address 32, which holds the uint32 value.
	WriteValue[uintptr](view, 0, 32)
	WriteValue(view, 32, uint32(99))

	outer := TypedPtr[TypedPointer[uint32]](view, 0)
	inner, ok := DerefChain(outer)
	if !ok {
		t.Fatal("DerefChain failed")
	}
	if inner.Raw.Address != 32 {
		t.Fatalf("inner address = %#x, want %#x", inner.Raw.Address, 32)
	}
	v, ok := inner.Deref()
	if !ok || v != 99 {
		t.Fatalf("inner.Deref() = (%d, %v), want (99, true)", v, ok)
	}
}

func TestMemRangeScanFindsPattern(t *testing.T) {
	view := newFakeView(16)
	view.Write(0, []byte{0x00, 0xDE, 0xAD, 0xBE, 0xEF, 0x00})
	r := Range(view, 0, 16)
	pat, err := pattern.Parse("DE AD ?? EF")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	hits := r.Scan(pat)
	if len(hits) != 1 || hits[0].Address != 1 {
		t.Fatalf("Scan hits = %v, want single hit at address 1", hits)
	}
}

func TestRangeForModuleUsesModuleBaseAndSize(t *testing.T) {
	view := newFakeView(64)
	m := ProcessModule{Base: 16, Size: 8, Name: "mod"}
	r := RangeForModule(view, m)
	if r.Base() != 16 || r.Size() != 8 {
		t.Errorf("RangeForModule = (base=%#x size=%#x), want (base=%#x size=%#x)", r.Base(), r.Size(), 16, 8)
	}
}
