// Package osproc implements the minimal external-collaborator surface
// spec §6 asks the core to consume: OsProcess and ProcessModule. It is
// intentionally small — the teacher's much larger ProcessFinder /
// ProcessHierarchy / ProcessHelper surface in process/process_finder.go
// and process/process_helper.go is out of scope (§1) and is not carried
// forward beyond what the core actually needs to build a MemRange over a
// real process's modules in tests and the cmd/ tools.
package osproc

import "memview/memview"

// Process is a minimal memview.OsProcess, built once by a per-OS finder
// and otherwise immutable — the teacher's equivalent types re-query
// process state on every call; this project snapshots it instead, since
// nothing in the core needs live process state.
type Process struct {
	id          int
	name        string
	hasName     bool
	arch        memview.Architecture
	mainModule  memview.ProcessModule
	hasModule   bool
	path        string
	hasPath     bool
	running     bool
	elevated    bool
	hasElevated bool
}

func (p *Process) ID() int { return p.id }

func (p *Process) Name() (string, bool) { return p.name, p.hasName }

func (p *Process) Architecture() memview.Architecture { return p.arch }

func (p *Process) MainModule() (memview.ProcessModule, bool) { return p.mainModule, p.hasModule }

func (p *Process) Path() (string, bool) { return p.path, p.hasPath }

func (p *Process) IsRunning() bool { return p.running }

func (p *Process) IsElevated() (bool, bool) { return p.elevated, p.hasElevated }
