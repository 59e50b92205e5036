//go:build darwin

package osproc

// #cgo LDFLAGS: -lproc
// #include <libproc.h>
// #include <stdlib.h>
import "C"

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"

	"memview/memview"
)

// FindByPID builds a Process snapshot for pid via libproc's
// proc_pidpath, the Darwin analogue of reading /proc/[pid]/exe on
// Linux — there is no /proc filesystem to read directly.
func FindByPID(pid int) (*Process, error) {
	path, ok := pidPath(pid)
	if !ok {
		return nil, fmt.Errorf("osproc: process %d not found", pid)
	}

	p := &Process{
		id:      pid,
		running: true,
		arch:    memview.ArchUnknown,
		path:    path,
		hasPath: path != "",
	}
	if path != "" {
		p.name = filepath.Base(path)
		p.hasName = true
		p.arch = detectArch(path)
	}
	return p, nil
}

// FindByName scans the kern.proc.all sysctl table for the lowest-PID
// process whose comm matches name.
func FindByName(name string) (*Process, error) {
	procs, err := unix.SysctlKinfoProcSlice("kern.proc.all")
	if err != nil {
		return nil, fmt.Errorf("osproc: sysctl kern.proc.all: %w", err)
	}

	best := -1
	for _, kp := range procs {
		comm := commString(kp.Proc.P_comm[:])
		if comm == name {
			pid := int(kp.Proc.P_pid)
			if best == -1 || pid < best {
				best = pid
			}
		}
	}
	if best == -1 {
		return nil, fmt.Errorf("osproc: no process named %q", name)
	}
	return FindByPID(best)
}

func commString(b []int8) string {
	buf := make([]byte, 0, len(b))
	for _, c := range b {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}
	return string(buf)
}

func pidPath(pid int) (string, bool) {
	buf := make([]byte, C.PROC_PIDPATHINFO_MAXSIZE)
	n := C.proc_pidpath(C.int(pid), unsafe.Pointer(&buf[0]), C.uint32_t(len(buf)))
	if n <= 0 {
		return "", false
	}
	return string(buf[:n]), true
}

// detectArch reports the host's own architecture rather than parsing
// the target binary's Mach-O header: a universal binary can carry
// multiple architecture slices, and without a full fat-header parser
// this is the correct answer for the overwhelmingly common case of
// inspecting a same-arch process.
func detectArch(path string) memview.Architecture {
	return memview.NewHostPlatform().Architecture()
}
