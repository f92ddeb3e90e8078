package splaymap

import "github.com/calvinalkan/containers/pkg/entry"

// Entry is a handle to a (possibly vacant) position in a Map, produced
// by [Map.EntryFor] and consumed by a follow-up mutation. Obtaining an
// entry always splays, the same as [Map.Get].
type Entry[K comparable, V any] struct {
	m      *Map[K, V]
	status entry.Status
	key    K
}

// Status returns the entry's status bits.
func (e Entry[K, V]) Status() entry.Status { return e.status }

// Occupied reports whether e refers to an existing record.
func (e Entry[K, V]) Occupied() bool { return e.status.Occupied() }

// EntryFor splays key to the root and returns a handle to its position,
// whether or not key is present. A pointer-based map never fails to
// grow, so unlike the flat containers' entries, this one is never
// tagged [entry.InsertError].
func (m *Map[K, V]) EntryFor(key K) Entry[K, V] {
	if m.root != nil {
		m.root = splay(m.root, key, m.cmp)
		if m.cmp(key, m.root.key) == 0 {
			return Entry[K, V]{m: m, status: entry.Occupied, key: key}
		}
	}
	return Entry[K, V]{m: m, status: entry.Vacant, key: key}
}

// AndModify invokes fn with a pointer to the occupied value, if e is
// occupied, and returns e unchanged either way. fn must not mutate the
// key.
func (e Entry[K, V]) AndModify(fn func(*V)) Entry[K, V] {
	if e.status.Occupied() {
		fn(&e.m.root.val)
	}
	return e
}

// OrInsert returns a pointer to the existing value if e is occupied;
// otherwise it inserts val and returns a pointer to it.
func (e Entry[K, V]) OrInsert(val V) *V {
	if e.status.Occupied() {
		return &e.m.root.val
	}
	n := e.m.insertAt(e.key, val)
	return &n.val
}

// InsertEntry places val at e's position, overwriting any existing
// value, and returns a pointer to it.
func (e Entry[K, V]) InsertEntry(val V) *V {
	if e.status.Occupied() {
		e.m.root.val = val
		return &e.m.root.val
	}
	n := e.m.insertAt(e.key, val)
	return &n.val
}

// RemoveEntry erases the record e refers to and returns its value. ok is
// false if e was not occupied.
func (e Entry[K, V]) RemoveEntry() (val V, ok bool) {
	if !e.status.Occupied() {
		return val, false
	}
	evicted := e.m.eraseRoot()
	return evicted.val, true
}

// Unwrap returns the occupied value, if any.
func (e Entry[K, V]) Unwrap() (V, bool) {
	if !e.status.Occupied() {
		var zero V
		return zero, false
	}
	return e.m.root.val, true
}

// TryInsert inserts val under key only if key is absent. It returns a
// pointer to the resulting value (existing or newly inserted) and true
// if the insert happened.
func (m *Map[K, V]) TryInsert(key K, val V) (*V, bool) {
	e := m.EntryFor(key)
	wasOccupied := e.Occupied()
	p := e.OrInsert(val)
	return p, !wasOccupied
}

// InsertOrAssign inserts val under key, overwriting any existing value.
// It returns true if key was newly inserted.
func (m *Map[K, V]) InsertOrAssign(key K, val V) (inserted bool) {
	e := m.EntryFor(key)
	wasOccupied := e.Occupied()
	e.InsertEntry(val)
	return !wasOccupied
}

// SwapEntry exchanges key's existing value for val in place, returning
// the old value. If key was absent, val is inserted and ok is false.
func (m *Map[K, V]) SwapEntry(key K, val V) (old V, ok bool) {
	e := m.EntryFor(key)
	if e.Occupied() {
		old = e.m.root.val
		e.m.root.val = val
		return old, true
	}
	e.m.insertAt(e.key, val)
	var zero V
	return zero, false
}
