// Package local implements the in-process MemView backend (§4.9). Read
// and Write are a direct memcpy-equivalent over the calling process's own
// address space; Allocate/Free/Protect/Protection delegate to a
// same-process instantiation of the host OS's foreign-process backend,
// because the memcpy shortcut provides no allocation primitive of its
// own — exactly the design note the spec gives for MemView_Local.
package local

import (
	"unsafe"

	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview"
	"memview/protection"
)

// nativeSelf is the per-OS collaborator each native_<os>.go build-tagged
// file supplies: the thin slice of memview.View that actually knows how
// to allocate/free/protect/query-protection for the current process.
type nativeSelf interface {
	Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange
	Free(address uintptr, size uintptr) bool
	Protect(address uintptr, size uintptr, prot protection.Protection) bool
	Protection(address uintptr) (protection.Protection, bool)
	Close() error
}

// View is the Local backend.
type View struct {
	native   nativeSelf
	platform memview.Platform
	log      *logger.Logger
}

// New constructs the Local backend, opening the per-OS self-process
// backend that Allocate/Free/Protect/Protection delegate to. log is
// optional and, when given, is also handed to the native backend so
// construction/close/allocate-outcome logging stays consistent with
// the foreign-process backends.
func New(log *logger.Logger) (*View, error) {
	native, err := newNativeSelf(log)
	if err != nil {
		return nil, err
	}
	v := &View{native: native, platform: memview.NewHostPlatform(), log: log}
	v.logf("local: opened self process view")
	return v, nil
}

func (v *View) Platform() memview.Platform { return v.platform }

func (v *View) logf(format string, args ...interface{}) {
	if v.log != nil {
		v.log.Infof(format, args...)
	}
}

func (v *View) Close() error {
	v.logf("local: closing self process view")
	return v.native.Close()
}

// Read is a bounds-checked memcpy: a NULL source/dest short-circuits to
// 0, matching the spec's memcpy-with-NULL-short-circuit semantics.
func (v *View) Read(address uintptr, buf []byte) int {
	if address == 0 || len(buf) == 0 {
		return 0
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(address)), len(buf))
	return copy(buf, src)
}

func (v *View) Write(address uintptr, data []byte) int {
	if address == 0 || len(data) == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(address)), len(data))
	return copy(dst, data)
}

func (v *View) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	return v.native.Allocate(preferredAddress, size, prot)
}

func (v *View) Free(address uintptr, size uintptr) bool {
	return v.native.Free(address, size)
}

func (v *View) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	return v.native.Protect(address, size, prot)
}

func (v *View) Protection(address uintptr) (protection.Protection, bool) {
	return v.native.Protection(address)
}
