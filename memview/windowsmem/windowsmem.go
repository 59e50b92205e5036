//go:build windows

// Package windowsmem implements memview.View for a Windows process,
// local or foreign. It follows the split the teacher's own (partial)
// process_windows backend and other_examples/25smoking-Argus__memory.go
// both use: golang.org/x/sys/windows supplies the handle type and the
// PAGE_*/PROCESS_* constants and MemoryBasicInformation layout, while
// syscall.NewLazyDLL/NewProc reaches the six kernel32 memory entry
// points this backend calls: ReadProcessMemory, WriteProcessMemory,
// VirtualAllocEx, VirtualFreeEx, VirtualProtectEx, VirtualQueryEx.
package windowsmem

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview"
	"memview/protection"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	procReadProcessMemory = kernel32.NewProc("ReadProcessMemory")
	procWriteProcessMemory = kernel32.NewProc("WriteProcessMemory")
	procVirtualAllocEx    = kernel32.NewProc("VirtualAllocEx")
	procVirtualFreeEx     = kernel32.NewProc("VirtualFreeEx")
	procVirtualProtectEx  = kernel32.NewProc("VirtualProtectEx")
	procVirtualQueryEx    = kernel32.NewProc("VirtualQueryEx")
)

const (
	memCommit  = 0x1000
	memReserve = 0x2000
	memRelease = 0x8000
)

// View accesses the address space of a Windows process via a process
// handle opened with PROCESS_VM_READ|PROCESS_VM_WRITE|PROCESS_VM_OPERATION|
// PROCESS_QUERY_INFORMATION.
type View struct {
	handle   windows.Handle
	self     bool
	log      *logger.Logger
	platform memview.Platform
}

// Open opens pid for memory access. Constructing the backend fails with
// *memview.SystemError, never a partial-count style outcome.
func Open(pid uint32, log *logger.Logger) (*View, error) {
	access := uint32(windows.PROCESS_VM_READ | windows.PROCESS_VM_WRITE | windows.PROCESS_VM_OPERATION | windows.PROCESS_QUERY_INFORMATION)
	h, err := windows.OpenProcess(access, false, pid)
	if err != nil {
		if log != nil {
			log.Warn("windowsmem: OpenProcess failed for pid ", pid, ": ", err)
		}
		return nil, memview.NewSystemError(memview.AccessDenied, err)
	}
	v := &View{
		handle:   h,
		self:     pid == windows.GetCurrentProcessId(),
		log:      log,
		platform: memview.NewHostPlatform(),
	}
	v.logf("windowsmem: opened pid %d (self=%v)", pid, v.self)
	return v, nil
}

// OpenSelf opens a view over the calling process via the pseudo-handle
// GetCurrentProcess().
func OpenSelf(log *logger.Logger) (*View, error) {
	v := &View{
		handle:   windows.CurrentProcess(),
		self:     true,
		log:      log,
		platform: memview.NewHostPlatform(),
	}
	v.logf("windowsmem: opened self process")
	return v, nil
}

func (v *View) Platform() memview.Platform { return v.platform }

func (v *View) logf(format string, args ...interface{}) {
	if v.log != nil {
		v.log.Infof(format, args...)
	}
}

// Close releases the handle. Both NULL and INVALID_HANDLE_VALUE are
// treated as "no handle" per the spec's Open Question 2; a handle
// representing the current process is never closed.
func (v *View) Close() error {
	if v.self || v.handle == 0 || v.handle == windows.Handle(^uintptr(0)) {
		v.logf("windowsmem: close is a no-op for self/null handle")
		return nil
	}
	v.logf("windowsmem: closing handle")
	err := windows.CloseHandle(v.handle)
	v.handle = 0
	return err
}

func (v *View) Read(address uintptr, buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	if n, ok := v.readOnce(address, buf); ok {
		return n
	}
	return v.readPerPage(address, buf)
}

func (v *View) readOnce(address uintptr, buf []byte) (int, bool) {
	var bytesRead uintptr
	ret, _, _ := procReadProcessMemory.Call(
		uintptr(v.handle),
		address,
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(&bytesRead)),
	)
	if ret == 0 {
		return 0, false
	}
	return int(bytesRead), true
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
		n, ok := v.readOnce(addr, buf[total:total+chunk])
		total += n
		if !ok || n < chunk {
			break
		}
	}
	return total
}

func (v *View) Write(address uintptr, data []byte) int {
	if len(data) == 0 {
		return 0
	}
	if n, ok := v.writeOnce(address, data); ok {
		return n
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
		n, ok := v.writeOnce(addr, data[total:total+chunk])
		total += n
		if !ok || n < chunk {
			break
		}
	}
	return total
}

func (v *View) writeOnce(address uintptr, data []byte) (int, bool) {
	var bytesWritten uintptr
	ret, _, _ := procWriteProcessMemory.Call(
		uintptr(v.handle),
		address,
		uintptr(unsafe.Pointer(&data[0])),
		uintptr(len(data)),
		uintptr(unsafe.Pointer(&bytesWritten)),
	)
	if ret == 0 {
		return 0, false
	}
	return int(bytesWritten), true
}

func toWinProtect(p protection.Protection) uint32 {
	switch p {
	case protection.R:
		return windows.PAGE_READONLY
	case protection.RW:
		return windows.PAGE_READWRITE
	case protection.X:
		return windows.PAGE_EXECUTE
	case protection.RX:
		return windows.PAGE_EXECUTE_READ
	case protection.RWX:
		return windows.PAGE_EXECUTE_READWRITE
	default:
		return windows.PAGE_NOACCESS
	}
}

func fromWinProtect(p uint32) protection.Protection {
	switch {
	case p&windows.PAGE_EXECUTE_READWRITE != 0, p&windows.PAGE_EXECUTE_WRITECOPY != 0:
		return protection.RWX
	case p&windows.PAGE_EXECUTE_READ != 0:
		return protection.RX
	case p&windows.PAGE_EXECUTE != 0:
		return protection.X
	case p&windows.PAGE_READWRITE != 0, p&windows.PAGE_WRITECOPY != 0:
		return protection.RW
	case p&windows.PAGE_READONLY != 0:
		return protection.R
	default:
		return protection.None
	}
}

func (v *View) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	rounded := v.platform.AlignEnd(size)
	if rounded == 0 {
		rounded = v.platform.PageSize()
	}
	ret, _, _ := procVirtualAllocEx.Call(
		uintptr(v.handle),
		preferredAddress,
		rounded,
		uintptr(memCommit|memReserve),
		uintptr(toWinProtect(prot)),
	)
	if ret == 0 {
		v.logf("windowsmem: allocate of %d bytes failed", rounded)
		return nil
	}
	v.logf("windowsmem: allocated %d bytes at 0x%x", rounded, ret)
	r := memview.NewRange(v, ret, rounded)
	return &r
}

func (v *View) Free(address uintptr, size uintptr) bool {
	ret, _, _ := procVirtualFreeEx.Call(uintptr(v.handle), address, size, uintptr(memRelease))
	v.logf("windowsmem: free 0x%x (%d bytes) ok=%v", address, size, ret != 0)
	return ret != 0
}

func (v *View) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	var old uint32
	ret, _, _ := procVirtualProtectEx.Call(
		uintptr(v.handle),
		address,
		size,
		uintptr(toWinProtect(prot)),
		uintptr(unsafe.Pointer(&old)),
	)
	v.logf("windowsmem: protect 0x%x (%d bytes) to %v ok=%v", address, size, prot, ret != 0)
	return ret != 0
}

func (v *View) Protection(address uintptr) (protection.Protection, bool) {
	var mbi windows.MemoryBasicInformation
	ret, _, _ := procVirtualQueryEx.Call(
		uintptr(v.handle),
		address,
		uintptr(unsafe.Pointer(&mbi)),
		unsafe.Sizeof(mbi),
	)
	if ret == 0 {
		return protection.None, false
	}
	if mbi.State != memCommit {
		return protection.None, false
	}
	return fromWinProtect(mbi.Protect), true
}
