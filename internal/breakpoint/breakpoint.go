// Package breakpoint implements the ND-100 debugger's breakpoint and
// watchpoint tables: user/temporary/function/data/instruction
// breakpoints keyed by address, plus a small set of memory
// watchpoints, and the single-step counter the debugger drives when it
// cannot (or should not) set a real breakpoint.
package breakpoint

import "sync"

// Type distinguishes why a breakpoint was set, mirroring cpu_bkpt.c's
// BreakpointType.
type Type int

const (
	TypeUser Type = iota
	TypeTemporary
	TypeFunction
	TypeData
	TypeInstruction
)

// Entry is one breakpoint record. Condition/HitCondition/LogMessage are
// optional expression strings the debugger's command layer evaluates;
// this package only tracks and matches them.
type Entry struct {
	Address      uint16
	Type         Type
	Condition    string
	HitCondition string
	LogMessage   string
	HitCount     int
}

// WatchType is a read/write access mask for a memory watchpoint.
type WatchType int

const (
	WatchNone      WatchType = 0
	WatchRead      WatchType = 1 << 0
	WatchWrite     WatchType = 1 << 1
	WatchReadWrite           = WatchRead | WatchWrite
)

// Watch is one watchpoint record.
type Watch struct {
	Address uint16
	Type    WatchType
	Active  bool
}

// Manager tracks breakpoints and watchpoints and the single-step
// counter. cpu_bkpt.c buckets entries into a 256-slot table keyed by
// address%256 to avoid a linear scan; a Go map already is a hash table
// keyed on the address directly, so the bucket array and hash_address
// function it layers on top of that are not reproduced here — the map
// does the same job with less code.
type Manager struct {
	mu         sync.Mutex
	byAddress  map[uint16][]*Entry
	watches    []*Watch
	stepCount  int
}

// New returns an empty breakpoint/watchpoint manager.
func New() *Manager {
	return &Manager{byAddress: make(map[uint16][]*Entry)}
}

// StepOne arms a single-instruction step: the next CheckForBreakpoint
// call reports STOP_REASON_STEP-equivalent and re-disarms itself.
func (m *Manager) StepOne() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stepCount = 1
}

// Add installs a breakpoint. A duplicate temporary breakpoint at the
// same address is silently rejected, matching breakpoint_manager_add.
func (m *Manager) Add(address uint16, typ Type, condition, hitCondition, logMessage string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if typ == TypeTemporary {
		for _, e := range m.byAddress[address] {
			if e.Type == TypeTemporary {
				return
			}
		}
	}

	m.byAddress[address] = append(m.byAddress[address], &Entry{
		Address:      address,
		Type:         typ,
		Condition:    condition,
		HitCondition: hitCondition,
		LogMessage:   logMessage,
	})
}

// Remove deletes entries at address matching typ. Pass -1 to remove
// every entry at address regardless of type, matching
// breakpoint_manager_remove's type==-1 convention.
func (m *Manager) Remove(address uint16, typ int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.byAddress[address]
	kept := entries[:0]
	for _, e := range entries {
		if typ != -1 && int(e.Type) != typ {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(m.byAddress, address)
		return
	}
	m.byAddress[address] = kept
}

// Clear removes every breakpoint.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byAddress = make(map[uint16][]*Entry)
}

// Check returns the entries at address, temporary breakpoints taking
// priority over persistent ones the way breakpoint_manager_check's
// tempList/userList split does.
func (m *Manager) Check(address uint16) []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.byAddress[address]
	if len(entries) == 0 {
		return nil
	}
	var temp, user []*Entry
	for _, e := range entries {
		if e.Type == TypeTemporary {
			temp = append(temp, e)
		} else {
			user = append(user, e)
		}
	}
	if len(temp) > 0 {
		return temp
	}
	return user
}

// CheckForBreakpoint matches pc against the step counter and the
// breakpoint table, incrementing HitCount on every address match and
// auto-removing a matched temporary breakpoint, mirroring
// check_for_breakpoint. It returns the highest-priority matched entry
// and whether the caller should stop, leaving hit-condition and
// logpoint expression evaluation to the debugger's command layer.
func (m *Manager) CheckForBreakpoint(pc uint16) (entry *Entry, stepHit bool) {
	m.mu.Lock()
	if m.stepCount > 0 {
		m.stepCount--
		if m.stepCount == 0 {
			m.mu.Unlock()
			return nil, true
		}
	}
	m.mu.Unlock()

	matches := m.Check(pc)
	if len(matches) == 0 {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	hit := matches[0]
	hit.HitCount++
	if hit.Type == TypeTemporary {
		defer m.removeLocked(pc, int(TypeTemporary))
	}
	return hit, false
}

func (m *Manager) removeLocked(address uint16, typ int) {
	entries := m.byAddress[address]
	kept := entries[:0]
	for _, e := range entries {
		if typ != -1 && int(e.Type) != typ {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(m.byAddress, address)
		return
	}
	m.byAddress[address] = kept
}

// AddWatch installs a watchpoint, replacing any existing watch at the
// same address.
func (m *Manager) AddWatch(address uint16, typ WatchType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.watches {
		if w.Address == address {
			w.Type = typ
			w.Active = true
			return
		}
	}
	m.watches = append(m.watches, &Watch{Address: address, Type: typ, Active: true})
}

// RemoveWatch deletes the watchpoint at address, if any.
func (m *Manager) RemoveWatch(address uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.watches[:0]
	for _, w := range m.watches {
		if w.Address != address {
			kept = append(kept, w)
		}
	}
	m.watches = kept
}

// CheckWatch reports whether a memory access of kind access to address
// matches an active watchpoint.
func (m *Manager) CheckWatch(address uint16, access WatchType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.watches {
		if w.Active && w.Address == address && w.Type&access != 0 {
			return true
		}
	}
	return false
}
