//go:build linux

// Package linuxmem implements memview.View for a Linux process, local or
// foreign, grounded on the teacher's process_linux backend: reads and
// writes go through the process_vm_readv/process_vm_writev syscalls
// (golang.org/x/sys/unix), and protection queries are answered by
// parsing /proc/[pid]/maps.
//
// Foreign-process allocate/free/protect have no portable non-ptrace
// syscall on Linux (unlike mach_vm_allocate on Darwin or VirtualAllocEx
// on Windows, there is no remote mmap without code injection into the
// target); this backend reports that honestly via Allocate returning nil
// and Free/Protect returning false for anything but the local pid. The
// Local backend (memview/local) opens this type for its own pid via
// OpenSelf, and for the own pid Allocate/Free/Protect use
// unix.Mmap/Mprotect/Munmap directly, so in-process allocation is fully
// supported — only remote allocation is the documented gap.
package linuxmem

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Moonlight-Companies/gologger/logger"

	"memview/memview"
	"memview/protection"
)

// View accesses the address space of a Linux process by pid via
// process_vm_readv/process_vm_writev.
type View struct {
	pid      int
	self     bool
	log      *logger.Logger
	platform memview.Platform
}

// Open constructs a View over pid. If pid is the caller's own pid, this
// view is flagged self and Close is a no-op (the local backend is the
// intended caller in that case, not general user code).
func Open(pid int, log *logger.Logger) (*View, error) {
	if pid <= 0 {
		return nil, memview.NewSystemError(memview.OperationFailed, fmt.Errorf("linuxmem: invalid pid %d", pid))
	}
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return nil, memview.NewSystemError(memview.AccessDenied, err)
	}
	v := &View{
		pid:      pid,
		self:     pid == os.Getpid(),
		log:      log,
		platform: memview.NewHostPlatform(),
	}
	v.logf("linuxmem: opened pid %d (self=%v)", pid, v.self)
	return v, nil
}

// OpenSelf constructs a View over the calling process.
func OpenSelf(log *logger.Logger) (*View, error) {
	return Open(os.Getpid(), log)
}

func (v *View) Platform() memview.Platform { return v.platform }

func (v *View) Close() error {
	v.logf("linuxmem: closing pid %d", v.pid)
	return nil
}

func (v *View) logf(format string, args ...interface{}) {
	if v.log != nil {
		v.log.Infof(format, args...)
	}
}

// Read attempts a single process_vm_readv spanning the whole buffer; on
// failure it degrades to a per-page loop, accumulating bytes until the
// first page that cannot be read.
func (v *View) Read(address uintptr, buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	if n, ok := readv(v.pid, address, buf); ok {
		return n
	}
	return v.readPerPage(address, buf)
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
		n, ok := readv(v.pid, addr, buf[total:total+chunk])
		total += n
		if !ok || n < chunk {
			break
		}
	}
	return total
}

// Write mirrors Read's bulk-then-per-page fallback for process_vm_writev.
func (v *View) Write(address uintptr, data []byte) int {
	if len(data) == 0 {
		return 0
	}
	if n, ok := writev(v.pid, address, data); ok {
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
		n, ok := writev(v.pid, addr, data[total:total+chunk])
		total += n
		if !ok || n < chunk {
			break
		}
	}
	return total
}

func (v *View) Allocate(preferredAddress uintptr, size uintptr, prot protection.Protection) *memview.MemRange {
	if !v.self {
		v.logf("linuxmem: allocate on foreign pid %d is not supported without ptrace injection", v.pid)
		return nil
	}
	r := allocateSelf(v, preferredAddress, size, prot)
	if r == nil {
		v.logf("linuxmem: allocate of %d bytes failed", size)
	} else {
		v.logf("linuxmem: allocated %d bytes at 0x%x", size, r.Base())
	}
	return r
}

func (v *View) Free(address uintptr, size uintptr) bool {
	if !v.self {
		v.logf("linuxmem: free on foreign pid %d is not supported without ptrace injection", v.pid)
		return false
	}
	ok := freeSelf(address, size)
	v.logf("linuxmem: free 0x%x (%d bytes) ok=%v", address, size, ok)
	return ok
}

func (v *View) Protect(address uintptr, size uintptr, prot protection.Protection) bool {
	if !v.self {
		v.logf("linuxmem: protect on foreign pid %d is not supported without ptrace injection", v.pid)
		return false
	}
	ok := protectSelf(address, size, prot)
	v.logf("linuxmem: protect 0x%x (%d bytes) to %v ok=%v", address, size, prot, ok)
	return ok
}

// Protection parses /proc/[pid]/maps and returns the permission bits of
// the containing region, adapted from memory_map_linux.go.
func (v *View) Protection(address uintptr) (protection.Protection, bool) {
	regions, err := readMaps(v.pid)
	if err != nil {
		return protection.None, false
	}
	for _, r := range regions {
		if address >= r.start && address < r.end {
			return protection.FromPerms(r.perms), true
		}
	}
	return protection.None, false
}

// Region describes one /proc/[pid]/maps line: a contiguous mapped
// range and its permission bits.
type Region struct {
	Start, End uintptr
	Prot       protection.Protection
}

// Regions returns every mapped region of the process, for callers (the
// cmd/ tools, mainly) that need to enumerate the address space rather
// than query a single address via Protection.
func (v *View) Regions() ([]Region, error) {
	raw, err := readMaps(v.pid)
	if err != nil {
		return nil, err
	}
	regions := make([]Region, 0, len(raw))
	for _, r := range raw {
		regions = append(regions, Region{Start: r.start, End: r.end, Prot: protection.FromPerms(r.perms)})
	}
	return regions, nil
}

type mapRegion struct {
	start, end uintptr
	perms      string
}

func readMaps(pid int) ([]mapRegion, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	var regions []mapRegion
	for _, line := range splitLines(data) {
		r, ok := parseMapsLine(line)
		if ok {
			regions = append(regions, r)
		}
	}
	return regions, nil
}

func splitLines(data []byte) []string {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines
}

func parseMapsLine(line string) (mapRegion, bool) {
	var startStr, endStr, perms string
	i := 0
	for i < len(line) && line[i] != '-' {
		i++
	}
	if i >= len(line) {
		return mapRegion{}, false
	}
	startStr = line[:i]
	j := i + 1
	for j < len(line) && line[j] != ' ' {
		j++
	}
	if j >= len(line) {
		return mapRegion{}, false
	}
	endStr = line[i+1 : j]
	k := j + 1
	for k < len(line) && line[k] != ' ' {
		k++
	}
	perms = line[j+1 : k]

	start, err1 := parseHexUintptr(startStr)
	end, err2 := parseHexUintptr(endStr)
	if err1 != nil || err2 != nil {
		return mapRegion{}, false
	}
	return mapRegion{start: start, end: end, perms: perms}, true
}

func parseHexUintptr(s string) (uintptr, error) {
	var v uintptr
	for _, c := range s {
		var d uintptr
		switch {
		case c >= '0' && c <= '9':
			d = uintptr(c - '0')
		case c >= 'a' && c <= 'f':
			d = uintptr(c-'a') + 10
		default:
			return 0, fmt.Errorf("not hex")
		}
		v = v<<4 | d
	}
	return v, nil
}

func readv(pid int, address uintptr, buf []byte) (int, bool) {
	localIov := unix.Iovec{Base: &buf[0], Len: uint64(len(buf))}
	remoteIov := unix.RemoteIovec{Base: uintptr(address), Len: len(buf)}
	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_READV,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIov)), 1,
		uintptr(unsafe.Pointer(&remoteIov)), 1,
		0,
	)
	if errno != 0 {
		return 0, false
	}
	return int(n), true
}

func writev(pid int, address uintptr, data []byte) (int, bool) {
	localIov := unix.Iovec{Base: &data[0], Len: uint64(len(data))}
	remoteIov := unix.RemoteIovec{Base: uintptr(address), Len: len(data)}
	n, _, errno := unix.Syscall6(
		unix.SYS_PROCESS_VM_WRITEV,
		uintptr(pid),
		uintptr(unsafe.Pointer(&localIov)), 1,
		uintptr(unsafe.Pointer(&remoteIov)), 1,
		0,
	)
	if errno != 0 {
		return 0, false
	}
	return int(n), true
}
