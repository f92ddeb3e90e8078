package flatmap

import "github.com/calvinalkan/containers/pkg/entry"

// Entry is a handle to a (possibly vacant) position in a Map, produced by
// [Map.EntryFor] and consumed by a follow-up mutation.
type Entry[K comparable, V any] struct {
	m      *Map[K, V]
	status entry.Status
	key    K
	idx    int // valid when Occupied
	parent int // valid when Vacant and !InsertError: attach point
	side   int // valid when Vacant and !InsertError: which side of parent
}

// Status returns the entry's status bits.
func (e Entry[K, V]) Status() entry.Status { return e.status }

// Occupied reports whether e refers to an existing record.
func (e Entry[K, V]) Occupied() bool { return e.status.Occupied() }

// InsertError reports whether e cannot be used to insert, because the
// map is fixed and already full.
func (e Entry[K, V]) InsertError() bool { return e.status.InsertError() }

// EntryFor searches m for key and returns a handle to its position,
// whether or not the key is present.
//
// If key is absent and m is fixed with no room left, the returned entry
// carries [entry.Vacant]|[entry.InsertError]|[entry.NoUnwrap] and must not
// be used to insert.
func (m *Map[K, V]) EntryFor(key K) Entry[K, V] {
	idx, found, parent, side := m.findPos(key)
	if found {
		return Entry[K, V]{m: m, status: entry.Occupied, key: key, idx: idx}
	}
	if m.fixed && m.buf.Count() >= m.buf.Capacity() {
		return Entry[K, V]{m: m, status: entry.Vacant | entry.InsertError | entry.NoUnwrap, key: key}
	}
	return Entry[K, V]{m: m, status: entry.Vacant, key: key, parent: parent, side: side}
}

// AndModify invokes fn with a pointer to the occupied value, if e is
// occupied, and returns e unchanged either way. fn must not mutate the
// key, since that would violate the tree's ordering invariant.
func (e Entry[K, V]) AndModify(fn func(*V)) Entry[K, V] {
	if e.status.Occupied() {
		fn(&e.m.at(e.idx).val)
	}
	return e
}

// OrInsert returns a pointer to the existing value if e is occupied;
// otherwise it inserts val at e's vacant position and returns a pointer
// to it. It returns nil if [Entry.InsertError] is set.
func (e Entry[K, V]) OrInsert(val V) *V {
	if e.status.InsertError() {
		return nil
	}
	if e.status.Occupied() {
		return &e.m.at(e.idx).val
	}
	idx := e.m.insertAt(e.parent, e.side, e.key, val)
	return &e.m.at(idx).val
}

// InsertEntry places val at e's position, overwriting any existing value,
// and returns a pointer to it. It returns nil if [Entry.InsertError] is
// set.
func (e Entry[K, V]) InsertEntry(val V) *V {
	if e.status.InsertError() {
		return nil
	}
	if e.status.Occupied() {
		e.m.at(e.idx).val = val
		return &e.m.at(e.idx).val
	}
	idx := e.m.insertAt(e.parent, e.side, e.key, val)
	return &e.m.at(idx).val
}

// RemoveEntry erases the record e refers to and returns its value. ok is
// false if e was not occupied.
func (e Entry[K, V]) RemoveEntry() (val V, ok bool) {
	if !e.status.Occupied() {
		return val, false
	}
	val = e.m.at(e.idx).val
	e.m.eraseNode(e.idx)
	return val, true
}

// Unwrap returns the occupied value, if any.
func (e Entry[K, V]) Unwrap() (V, bool) {
	if !e.status.Occupied() {
		var zero V
		return zero, false
	}
	return e.m.at(e.idx).val, true
}

// TryInsert inserts val under key only if key is absent. It returns a
// pointer to the resulting value (existing or newly inserted) and true if
// the insert happened, or nil and [entry.ErrNoAlloc] if the map is fixed
// and full.
func (m *Map[K, V]) TryInsert(key K, val V) (*V, bool, error) {
	e := m.EntryFor(key)
	if e.InsertError() {
		return nil, false, entry.ErrNoAlloc
	}
	wasOccupied := e.Occupied()
	p := e.OrInsert(val)
	return p, !wasOccupied, nil
}

// InsertOrAssign inserts val under key, overwriting any existing value.
// It returns true if key was newly inserted.
func (m *Map[K, V]) InsertOrAssign(key K, val V) (inserted bool, err error) {
	e := m.EntryFor(key)
	if e.InsertError() {
		return false, entry.ErrNoAlloc
	}
	wasOccupied := e.Occupied()
	e.InsertEntry(val)
	return !wasOccupied, nil
}

// SwapEntry exchanges key's existing value for val in place, returning the
// old value. If key was absent, val is inserted and ok is false.
func (m *Map[K, V]) SwapEntry(key K, val V) (old V, ok bool, err error) {
	e := m.EntryFor(key)
	if e.InsertError() {
		var zero V
		return zero, false, entry.ErrNoAlloc
	}
	if e.Occupied() {
		old = e.m.at(e.idx).val
		e.m.at(e.idx).val = val
		return old, true, nil
	}
	e.m.insertAt(e.parent, e.side, e.key, val)
	var zero V
	return zero, false, nil
}
