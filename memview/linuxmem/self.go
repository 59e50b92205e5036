//go:build linux

package linuxmem

import (
	"unsafe"

	"golang.org/x/sys/unix"

	"memview/memview"
	"memview/protection"
)

func toUnixProt(p protection.Protection) int {
	prot := unix.PROT_NONE
	if p.Readable() {
		prot |= unix.PROT_READ
	}
	if p.Writable() {
		prot |= unix.PROT_WRITE
	}
	if p.Executable() {
		prot |= unix.PROT_EXEC
	}
	return prot
}

// allocateSelf maps size bytes (rounded to whole pages) into the calling
// process via mmap. preferredAddress is ignored: unix.Mmap takes no
// address argument, so the kernel always chooses the placement, and
// MAP_FIXED is not set (a caller-requested exact address could clobber
// an existing mapping).
func allocateSelf(v *View, preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	pageSize := v.platform.PageSize()
	rounded := v.platform.AlignEnd(size)
	if rounded == 0 {
		rounded = pageSize
	}
	data, err := unix.Mmap(-1, 0, int(rounded), toUnixProt(prot), unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil
	}
	base := uintptr(unsafe.Pointer(&data[0]))
	r := memview.NewRange(v, base, rounded)
	return &r
}

func freeSelf(address uintptr, size uintptr) bool {
	data := unsafe.Slice((*byte)(unsafe.Pointer(address)), int(size))
	return unix.Munmap(data) == nil
}

func protectSelf(address uintptr, size uintptr, prot protection.Protection) bool {
	data := unsafe.Slice((*byte)(unsafe.Pointer(address)), int(size))
	return unix.Mprotect(data, toUnixProt(prot)) == nil
}
