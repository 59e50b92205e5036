//go:build darwin

// Package darwinmem implements memview.View for a Darwin process, local
// or foreign, via mach_vm_*. The teacher has no Darwin backend at all;
// this one is grounded on the only pack-wide Darwin example,
// other_examples/undoio-delve__memory_darwin.go, which wraps a small C
// shim (task_t, mach_vm_address_t, mach_msg_type_number_t, read_memory/
// write_memory) behind cgo. This package follows the same shape but
// calls the Mach functions directly rather than through an extra C
// helper file, since mach_vm_read_overwrite/mach_vm_write are themselves
// already plain C functions reachable from cgo.
package darwinmem

/*
#cgo LDFLAGS: -framework CoreFoundation
#include <mach/mach.h>
#include <mach/mach_vm.h>

static kern_return_t dm_read(task_t task, mach_vm_address_t addr, void *dst, mach_vm_size_t size) {
	mach_vm_size_t outsize = size;
	return mach_vm_read_overwrite(task, addr, size, (mach_vm_address_t)dst, &outsize);
}

static kern_return_t dm_write(task_t task, mach_vm_address_t addr, void *src, mach_vm_size_t size) {
	return mach_vm_write(task, addr, (vm_offset_t)src, (mach_msg_type_number_t)size);
}

static kern_return_t dm_allocate(task_t task, mach_vm_address_t *addr, mach_vm_size_t size, int anywhere) {
	int flags = anywhere ? VM_FLAGS_ANYWHERE : VM_FLAGS_FIXED;
	return mach_vm_allocate(task, addr, size, flags);
}

static kern_return_t dm_deallocate(task_t task, mach_vm_address_t addr, mach_vm_size_t size) {
	return mach_vm_deallocate(task, addr, size);
}

static kern_return_t dm_protect(task_t task, mach_vm_address_t addr, mach_vm_size_t size, vm_prot_t prot) {
	return mach_vm_protect(task, addr, size, 0, prot);
}

static kern_return_t dm_region(task_t task, mach_vm_address_t *addr, mach_vm_size_t *size, vm_prot_t *prot) {
	struct vm_region_basic_info_64 info;
	mach_msg_type_number_t infoCount = VM_REGION_BASIC_INFO_COUNT_64;
	mach_port_t objName = MACH_PORT_NULL;
	kern_return_t kr = mach_vm_region(task, addr, size, VM_REGION_BASIC_INFO_64, (vm_region_info_t)&info, &infoCount, &objName);
	if (kr == KERN_SUCCESS) {
		*prot = info.protection;
	}
	return kr;
}

static task_t dm_task_for_pid(int pid, kern_return_t *err) {
	task_t task;
	*err = task_for_pid(mach_task_self(), pid, &task);
	return task;
}

static task_t dm_self_task(void) {
	return mach_task_self();
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview"
	"memview/protection"
)

// View accesses the address space of a Darwin process through a Mach
// task port, obtained via task_for_pid (foreign) or mach_task_self
// (local).
type View struct {
	task     C.task_t
	self     bool
	log      *logger.Logger
	platform memview.Platform
}

// Open obtains a task port for pid via task_for_pid. This requires the
// calling process to hold the task_for_pid entitlement/privilege; on
// failure the backend construction fails with AccessDenied, per spec.
func Open(pid int, log *logger.Logger) (*View, error) {
	var kr C.kern_return_t
	task := C.dm_task_for_pid(C.int(pid), &kr)
	if kr != C.KERN_SUCCESS {
		if log != nil {
			log.Warn("darwinmem: task_for_pid failed for pid ", pid, ": ", int(kr))
		}
		return nil, memview.NewSystemError(memview.AccessDenied, fmt.Errorf("task_for_pid failed: %d", int(kr)))
	}
	v := &View{task: task, log: log, platform: memview.NewHostPlatform()}
	v.logf("darwinmem: opened pid %d", pid)
	return v, nil
}

// OpenSelf constructs a view over mach_task_self, which is never
// released on Close.
func OpenSelf(log *logger.Logger) (*View, error) {
	v := &View{task: C.dm_self_task(), self: true, log: log, platform: memview.NewHostPlatform()}
	v.logf("darwinmem: opened self task")
	return v, nil
}

func (v *View) Platform() memview.Platform { return v.platform }

func (v *View) logf(format string, args ...interface{}) {
	if v.log != nil {
		v.log.Infof(format, args...)
	}
}

// Close deallocates the task port unless it is mach_task_self_, which is
// an OS-owned pseudo-port and must never be released. Calls after the
// first are no-ops.
func (v *View) Close() error {
	if v.self {
		v.logf("darwinmem: close is a no-op for the self task port")
		return nil
	}
	if v.task == 0 {
		return nil
	}
	v.logf("darwinmem: deallocating task port")
	C.mach_port_deallocate(C.mach_task_self_, C.mach_port_name_t(v.task))
	v.task = 0
	return nil
}

// Read attempts a single mach_vm_read_overwrite spanning the whole
// buffer, falling back to a per-page loop on failure. Note: the source
// Darwin backend has a suspected leak in mach_vm_read_overwrite
// attributed to frida-gum commentary (spec §9 Open Question 5) — this
// implementation does not attempt to work around it, only to not make it
// worse by looping unnecessarily on the bulk path.
func (v *View) Read(address uintptr, buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	if readOnce(v.task, address, buf) {
		return len(buf)
	}
	return v.readPerPage(address, buf)
}

func readOnce(task C.task_t, address uintptr, buf []byte) bool {
	kr := C.dm_read(task, C.mach_vm_address_t(address), unsafe.Pointer(&buf[0]), C.mach_vm_size_t(len(buf)))
	return kr == C.KERN_SUCCESS
}

func (v *View) readPerPage(address uintptr, buf []byte) int {
	pageSize := v.platform.PageSize()
	total := 0
	for total < len(buf) {
		addr := address + uintptr(total)
		pageEnd := v.platform.AlignEnd(addr)
		chunk := int(pageEnd - addr)
		if chunk <= 0 {
			chunk = int(pageSize)
		}
		if chunk > len(buf)-total {
			chunk = len(buf) - total
		}
		if !readOnce(v.task, addr, buf[total:total+chunk]) {
			break
		}
		total += chunk
	}
	return total
}

func (v *View) Write(address uintptr, data []byte) int {
	if len(data) == 0 {
		return 0
	}
	if writeOnce(v.task, address, data) {
		return len(data)
	}
	pageSize := v.platform.PageSize()
	total := 0
	for total < len(data) {
		addr := address + uintptr(total)
		pageEnd := v.platform.AlignEnd(addr)
		chunk := int(pageEnd - addr)
		if chunk <= 0 {
			chunk = int(pageSize)
		}
		if chunk > len(data)-total {
			chunk = len(data) - total
		}
		if !writeOnce(v.task, addr, data[total:total+chunk]) {
			break
		}
		total += chunk
	}
	return total
}

func writeOnce(task C.task_t, address uintptr, data []byte) bool {
	kr := C.dm_write(task, C.mach_vm_address_t(address), unsafe.Pointer(&data[0]), C.mach_vm_size_t(len(data)))
	return kr == C.KERN_SUCCESS
}

func toMachProt(p protection.Protection) C.vm_prot_t {
	var prot C.vm_prot_t
	if p.Readable() {
		prot |= C.VM_PROT_READ
	}
	if p.Writable() {
		prot |= C.VM_PROT_WRITE
	}
	if p.Executable() {
		prot |= C.VM_PROT_EXECUTE
	}
	return prot
}

func fromMachProt(prot C.vm_prot_t) protection.Protection {
	r := prot&C.VM_PROT_READ != 0
	w := prot&C.VM_PROT_WRITE != 0
	x := prot&C.VM_PROT_EXECUTE != 0
	return protection.FromRWX(r, w, x)
}

// Allocate rounds size up via AlignEnd and calls mach_vm_allocate; on any
// step failing (allocate or the subsequent protect) it deallocates
// whatever was partially reserved and returns nil, per spec §4.5.
func (v *View) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	rounded := v.platform.AlignEnd(size)
	if rounded == 0 {
		rounded = v.platform.PageSize()
	}
	addr := C.mach_vm_address_t(preferredAddress)
	anywhere := C.int(1)
	if preferredAddress != 0 {
		anywhere = 0
	}
	kr := C.dm_allocate(v.task, &addr, C.mach_vm_size_t(rounded), anywhere)
	if kr != C.KERN_SUCCESS {
		v.logf("darwinmem: allocate of %d bytes failed: kr=%d", rounded, int(kr))
		return nil
	}
	if prot != protection.RWX {
		pkr := C.dm_protect(v.task, addr, C.mach_vm_size_t(rounded), toMachProt(prot))
		if pkr != C.KERN_SUCCESS {
			v.logf("darwinmem: protect after allocate failed: kr=%d", int(pkr))
			C.dm_deallocate(v.task, addr, C.mach_vm_size_t(rounded))
			return nil
		}
	}
	v.logf("darwinmem: allocated %d bytes at 0x%x", rounded, uintptr(addr))
	r := memview.NewRange(v, uintptr(addr), rounded)
	return &r
}

func (v *View) Free(address uintptr, size uintptr) bool {
	kr := C.dm_deallocate(v.task, C.mach_vm_address_t(address), C.mach_vm_size_t(size))
	v.logf("darwinmem: free 0x%x (%d bytes) ok=%v", address, size, kr == C.KERN_SUCCESS)
	return kr == C.KERN_SUCCESS
}

func (v *View) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	kr := C.dm_protect(v.task, C.mach_vm_address_t(address), C.mach_vm_size_t(size), toMachProt(prot))
	v.logf("darwinmem: protect 0x%x (%d bytes) to %v ok=%v", address, size, prot, kr == C.KERN_SUCCESS)
	return kr == C.KERN_SUCCESS
}

func (v *View) Protection(address uintptr) (protection.Protection, bool) {
	addr := C.mach_vm_address_t(address)
	var size C.mach_vm_size_t
	var prot C.vm_prot_t
	kr := C.dm_region(v.task, &addr, &size, &prot)
	if kr != C.KERN_SUCCESS {
		return protection.None, false
	}
	return fromMachProt(prot), true
}
