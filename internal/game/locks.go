package game

import "sort"

// LockTable holds which public rooms are locked and who may still be heard
// in them. Locking only stops new joiners; whitelisted members stay audible.
// A room missing from the table is unlocked with an empty whitelist.
//
// LockTable does no synchronisation of its own. Callers hold the voice lock.
type LockTable struct {
	locked    map[string]bool
	whitelist map[string]map[string]struct{}
}

// NewLockTable creates an empty lock table
func NewLockTable() *LockTable {
	return &LockTable{
		locked:    make(map[string]bool),
		whitelist: make(map[string]map[string]struct{}),
	}
}

// Lock marks room as locked. The whitelist is untouched.
func (t *LockTable) Lock(room string) {
	t.locked[room] = true
}

// Unlock clears the locked flag only. The whitelist persists.
func (t *LockTable) Unlock(room string) {
	t.locked[room] = false
}

// IsLocked reports whether room is locked
func (t *LockTable) IsLocked(room string) bool {
	return t.locked[room]
}

// AddToWhitelist permits members to be heard in room
func (t *LockTable) AddToWhitelist(room string, members ...string) {
	set, ok := t.whitelist[room]
	if !ok {
		set = make(map[string]struct{})
		t.whitelist[room] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
}

// RemoveFromWhitelist revokes members in room
func (t *LockTable) RemoveFromWhitelist(room string, members ...string) {
	set, ok := t.whitelist[room]
	if !ok {
		return
	}
	for _, m := range members {
		delete(set, m)
	}
}

// IsWhitelisted reports whether member may be heard in room
func (t *LockTable) IsWhitelisted(room, member string) bool {
	_, ok := t.whitelist[room][member]
	return ok
}

// Whitelist returns the sorted whitelist of room
func (t *LockTable) Whitelist(room string) []string {
	set := t.whitelist[room]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	return members
}

// Reset forgets everything known about room
func (t *LockTable) Reset(room string) {
	delete(t.locked, room)
	delete(t.whitelist, room)
}
