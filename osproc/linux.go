//go:build linux

package osproc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"memview/memview"
)

// FindByPID builds a Process snapshot for pid from /proc, adapted from
// the teacher's process_linux.getProcessInfo (trimmed to the fields
// OsProcess actually exposes: this project does not carry forward
// PPID/cmdline/tree-building, which belong to the out-of-scope
// ProcessFinder/ProcessHierarchy surface).
func FindByPID(pid int) (*Process, error) {
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); err != nil {
		return nil, fmt.Errorf("osproc: process %d not found: %w", pid, err)
	}

	p := &Process{id: pid, running: true, arch: memview.ArchUnknown}

	if nameBytes, err := os.ReadFile(filepath.Join(procPath, "comm")); err == nil {
		p.name = strings.TrimSpace(string(nameBytes))
		p.hasName = true
	}

	if exe, err := os.Readlink(filepath.Join(procPath, "exe")); err == nil {
		p.path = exe
		p.hasPath = true
		p.arch = detectArch(exe)
	}

	if m, ok := mainModuleFromMaps(pid, p.path); ok {
		p.mainModule = m
		p.hasModule = true
	}

	return p, nil
}

// FindByName returns the lowest-PID process whose comm or exe basename
// equals name, mirroring the teacher's pidof.go OneByName.
func FindByName(name string) (*Process, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("osproc: read /proc: %w", err)
	}

	best := -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		comm, _ := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		exe, _ := os.Readlink(filepath.Join("/proc", e.Name(), "exe"))
		if strings.TrimSpace(string(comm)) == name || filepath.Base(exe) == name {
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

// mainModuleFromMaps spans every /proc/[pid]/maps region whose backing
// path matches exePath, from the lowest start to the highest end, and
// uses that span as the main module's base/size —
// adapted from memory_map_linux.go's line parsing, extended to read the
// trailing path field that ReadMemoryMap discarded.
func mainModuleFromMaps(pid int, exePath string) (memview.ProcessModule, bool) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return memview.ProcessModule{}, false
	}
	defer f.Close()

	var lowest, highest uint64
	found := false

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		path := fields[len(fields)-1]
		if exePath == "" || path != exePath {
			continue
		}
		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}
		start, err1 := strconv.ParseUint(addrRange[0], 16, 64)
		end, err2 := strconv.ParseUint(addrRange[1], 16, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if !found || start < lowest {
			lowest = start
		}
		if !found || end > highest {
			highest = end
		}
		found = true
	}
	if !found {
		return memview.ProcessModule{}, false
	}
	return memview.ProcessModule{
		Base: uintptr(lowest),
		Size: uintptr(highest - lowest),
		Path: exePath,
		Name: filepath.Base(exePath),
	}, true
}

func detectArch(exePath string) memview.Architecture {
	data, err := os.ReadFile(exePath)
	if err != nil || len(data) < 20 || string(data[:4]) != "\x7fELF" {
		return memview.ArchUnknown
	}
	// e_machine at offset 18 (little-endian uint16) in the ELF header.
	machine := uint16(data[18]) | uint16(data[19])<<8
	switch machine {
	case 0x3e:
		return memview.ArchAMD64
	case 0xb7:
		return memview.ArchARM64
	case 0x03:
		return memview.Arch386
	case 0x28:
		return memview.ArchARM
	default:
		return memview.ArchUnknown
	}
}
