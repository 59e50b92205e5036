package memview

import "memview/protection"

// View is the abstract memory-access capability. Every backend (Local,
// and the per-OS foreign-process backends under memview/local,
// memview/linuxmem, memview/windowsmem, memview/darwinmem) implements
// exactly these six primitives; the rest of this package's surface
// (RawPointer, TypedPointer, MemRange, and the ReadValue/WriteValue/...
// free functions in derived.go) is provided once, for every backend, on
// top of them.
//
// No primitive here returns a thrown error for an expected failure class:
// read/write return a partial count, allocate returns nil, free/protect
// return false, protection returns (Protection{}, false). Constructing a
// backend is the only place *SystemError appears.
type View interface {
	// Read copies into buf starting at address, returning the number of
	// bytes actually copied. Implementations attempt a single bulk copy
	// first and fall back to a page-by-page copy on failure, stopping at
	// the first unreadable page.
	Read(address uintptr, buf []byte) int

	// Write copies data to address, returning the number of bytes
	// actually written, with the same bulk-then-per-page fallback.
	Write(address uintptr, data []byte) int

	// Allocate reserves size bytes (rounded up to whole pages) with the
	// given protection. preferredAddress, if non-zero, is a hint the
	// backend may ignore. Returns nil on any failure, freeing anything
	// partially allocated first.
	Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *MemRange

	// Free releases a region previously returned by Allocate.
	Free(address uintptr, size uintptr) bool

	// Protect changes the protection of the pages covering
	// [address, address+size).
	Protect(address uintptr, size uintptr, prot protection.Protection) bool

	// Protection returns the protection of the region containing address.
	Protection(address uintptr) (protection.Protection, bool)

	// Platform reports the page size and architecture this view's
	// addresses are measured against.
	Platform() Platform

	// Close releases the view's OS handle/port, if any. It is idempotent
	// and never releases a handle representing the current process.
	Close() error
}
