//go:build windows

package osproc

import (
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"memview/memview"
)

// FindByPID builds a Process snapshot for pid using the Toolhelp32
// snapshot APIs (via golang.org/x/sys/windows), mirroring the general
// shape of process_windows/process.go's OpenProcess-based discovery but
// trimmed to just the fields OsProcess exposes.
func FindByPID(pid int) (*Process, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("osproc: CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	found := false
	if err := windows.Process32First(snap, &entry); err == nil {
		for {
			if int(entry.ProcessID) == pid {
				found = true
				break
			}
			if err := windows.Process32Next(snap, &entry); err != nil {
				break
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("osproc: process %d not found", pid)
	}

	p := &Process{id: pid, running: true, arch: memview.ArchUnknown}
	name := syscall.UTF16ToString(entry.ExeFile[:])
	if name != "" {
		p.name = name
		p.hasName = true
	}

	if path, ok := queryImagePath(pid); ok {
		p.path = path
		p.hasPath = true
	}
	if mod, ok := mainModule(pid, name); ok {
		p.mainModule = mod
		p.hasModule = true
	}

	return p, nil
}

// FindByName returns the first process whose exe basename matches name.
func FindByName(name string) (*Process, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("osproc: CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, fmt.Errorf("osproc: no processes enumerated: %w", err)
	}
	for {
		exe := syscall.UTF16ToString(entry.ExeFile[:])
		if strings.EqualFold(exe, name) {
			return FindByPID(int(entry.ProcessID))
		}
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return nil, fmt.Errorf("osproc: no process named %q", name)
}

func queryImagePath(pid int) (string, bool) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return "", false
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return "", false
	}
	return syscall.UTF16ToString(buf[:size]), true
}

// mainModule walks the process's module snapshot looking for the entry
// whose name matches the process's own exe, using it as the base/size
// of the main module.
func mainModule(pid int, exeName string) (memview.ProcessModule, bool) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return memview.ProcessModule{}, false
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Module32First(snap, &entry); err != nil {
		return memview.ProcessModule{}, false
	}
	for {
		modName := syscall.UTF16ToString(entry.Module[:])
		if strings.EqualFold(modName, exeName) || strings.EqualFold(modName, filepath.Base(exeName)) {
			return memview.ProcessModule{
				Base: uintptr(entry.ModBaseAddr),
				Size: uintptr(entry.ModBaseSize),
				Path: syscall.UTF16ToString(entry.ExePath[:]),
				Name: modName,
			}, true
		}
		if err := windows.Module32Next(snap, &entry); err != nil {
			break
		}
	}
	return memview.ProcessModule{}, false
}
