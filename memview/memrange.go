package memview

import (
	"math"

	"memview/pattern"
)

// MemRange is a read-and-search surface over a view: the triple
// (view, base, size) describing [base, base+size). The constructor
// clamps size so base+size never wraps the machine word.
type MemRange struct {
	view View
	base uintptr
	size uintptr
}

// NewRange builds a MemRange, clamping size to the remaining address
// space above base.
func NewRange(view View, base uintptr, size uintptr) MemRange {
	maxSize := uintptr(math.MaxUint64) - uintptr(base)
	if size > maxSize {
		size = maxSize
	}
	return MemRange{view: view, base: base, size: size}
}

// Range is the View-embellished constructor named in §4.5.
func Range(view View, address uintptr, byteCount uintptr) MemRange {
	return NewRange(view, address, byteCount)
}

func (r MemRange) Base() uintptr  { return r.base }
func (r MemRange) Size() uintptr  { return r.size }
func (r MemRange) View() View     { return r.view }
func (r MemRange) BasePtr() RawPointer { return Ptr(r.view, r.base) }

// Contains uses the source's inclusive upper bound (base ≤ addr ≤
// base+size), not the half-open convention the range's own span
// otherwise follows. This is a deliberate, spec-mandated asymmetry (see
// DESIGN.md Open Question 4), not an oversight.
func (r MemRange) Contains(ptr RawPointer) bool {
	return ptr.Address >= r.base && ptr.Address <= r.base+r.size
}

// Read materialises the entire range into a contiguous byte slice.
// Pattern scanning requires this: the iterator scans a buffer, not a
// stream. The returned slice may be shorter than Size() if the backend
// could only read part of the range.
func (r MemRange) Read() []byte {
	buf := make([]byte, r.size)
	n := r.view.Read(r.base, buf)
	return buf[:n]
}

// Scan scans the range for pat, returning every hit as an absolute
// RawPointer into this range's view.
func (r MemRange) Scan(pat pattern.Pattern) []RawPointer {
	buf := r.Read()
	it := pattern.NewIterator(pat, buf)
	var hits []RawPointer
	for {
		off, ok := it.Next()
		if !ok {
			return hits
		}
		hits = append(hits, r.BasePtr().Offset(int64(off)))
	}
}

// Find is Scan's single-result convenience.
func (r MemRange) Find(pat pattern.Pattern) (RawPointer, bool) {
	buf := r.Read()
	it := pattern.NewIterator(pat, buf)
	off, ok := it.Next()
	if !ok {
		return RawPointer{}, false
	}
	return r.BasePtr().Offset(int64(off)), true
}

// ScanString compiles sig before scanning; returns an error if the
// signature does not parse.
func (r MemRange) ScanString(sig string) ([]RawPointer, error) {
	pat, err := pattern.Parse(sig)
	if err != nil {
		return nil, err
	}
	return r.Scan(pat), nil
}

// PointerIterator adapts a pattern.Iterator into a lazy sequence of
// absolute RawPointers anchored to base, consuming the underlying
// iterator one step at a time.
type PointerIterator struct {
	inner *pattern.Iterator
	base  RawPointer
}

// ScanIter returns a lazy PointerIterator over this range, for callers
// that want to stop early without materialising every hit.
func (r MemRange) ScanIter(pat pattern.Pattern) *PointerIterator {
	buf := r.Read()
	return &PointerIterator{inner: pattern.NewIterator(pat, buf), base: r.BasePtr()}
}

// NewPointerIterator wraps an existing pattern.Iterator and base pointer
// directly, for callers that already have a buffer and iterator (e.g.
// from a MemRange.Read() call they want to reuse across several scans).
func NewPointerIterator(inner *pattern.Iterator, base RawPointer) *PointerIterator {
	return &PointerIterator{inner: inner, base: base}
}

// Next yields the next hit as base+offset.
func (it *PointerIterator) Next() (RawPointer, bool) {
	off, ok := it.inner.Next()
	if !ok {
		return RawPointer{}, false
	}
	return it.base.Offset(int64(off)), true
}
