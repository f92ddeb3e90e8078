package hashmap

import "github.com/calvinalkan/containers/pkg/entry"

// Entry is a handle to a (possibly vacant) position in a Map, produced by
// [Map.EntryFor] and consumed by a follow-up mutation.
type Entry[K comparable, V any] struct {
	m      *Map[K, V]
	status entry.Status
	key    K
	hash   uint64
	fp     uint8
	idx    uint64 // valid when Occupied, or when Vacant and !InsertError
}

// Status returns the entry's status bits.
func (e Entry[K, V]) Status() entry.Status { return e.status }

// Occupied reports whether e refers to an existing record.
func (e Entry[K, V]) Occupied() bool { return e.status.Occupied() }

// InsertError reports whether a preceding growth attempt failed; e must
// not be used to insert.
func (e Entry[K, V]) InsertError() bool { return e.status.InsertError() }

// EntryFor searches m for key and returns a handle to its position,
// whether or not the key is present.
//
// If the table needs to grow to guarantee room for a subsequent insert
// and cannot because it is fixed, the returned entry carries
// [entry.Vacant]|[entry.InsertError]|[entry.NoUnwrap] and must not be
// used to insert. Overflow of the doubled capacity is not checked.
func (m *Map[K, V]) EntryFor(key K) Entry[K, V] {
	h, idx, found, vacant, hasVacant := m.findKeyOrSlot(key)
	if found {
		return Entry[K, V]{m: m, status: entry.Occupied, key: key, hash: h, idx: idx}
	}

	if m.growthLeft == 0 {
		if err := m.prepareInsert(); err != nil {
			return Entry[K, V]{
				m:      m,
				status: entry.Vacant | entry.InsertError | entry.NoUnwrap,
				key:    key,
				hash:   h,
			}
		}
		_, idx, found, vacant, hasVacant = m.findKeyOrSlot(key)
		if found {
			return Entry[K, V]{m: m, status: entry.Occupied, key: key, hash: h, idx: idx}
		}
	}

	if !hasVacant {
		// Headroom invariant guarantees a vacant slot once growthLeft > 0;
		// this is unreachable in practice but kept as a defined failure
		// mode rather than an out-of-bounds access.
		return Entry[K, V]{m: m, status: entry.Vacant | entry.InsertError | entry.NoUnwrap, key: key, hash: h}
	}

	return Entry[K, V]{m: m, status: entry.Vacant, key: key, hash: h, fp: fingerprint(h), idx: vacant}
}

// AndModify invokes fn with a pointer to the occupied value, if e is
// occupied, and returns e unchanged either way. fn must not mutate the
// key.
func (e Entry[K, V]) AndModify(fn func(*V)) Entry[K, V] {
	if e.status.Occupied() {
		fn(&e.m.slots[e.idx].val)
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
		return &e.m.slots[e.idx].val
	}
	e.m.insertAtVacant(e.idx, e.fp, e.key, val)
	return &e.m.slots[e.idx].val
}

// InsertEntry places val at e's position, overwriting any existing value,
// and returns a pointer to it. It returns nil if [Entry.InsertError] is
// set.
func (e Entry[K, V]) InsertEntry(val V) *V {
	if e.status.InsertError() {
		return nil
	}
	if e.status.Occupied() {
		e.m.slots[e.idx].val = val
		return &e.m.slots[e.idx].val
	}
	e.m.insertAtVacant(e.idx, e.fp, e.key, val)
	return &e.m.slots[e.idx].val
}

// RemoveEntry erases the record e refers to and returns its value. ok is
// false if e was not occupied.
func (e Entry[K, V]) RemoveEntry() (val V, ok bool) {
	if !e.status.Occupied() {
		return val, false
	}
	val = e.m.slots[e.idx].val
	e.m.eraseAt(e.idx)
	return val, true
}

// Unwrap returns the occupied value, if any.
func (e Entry[K, V]) Unwrap() (V, bool) {
	if !e.status.Occupied() {
		var zero V
		return zero, false
	}
	return e.m.slots[e.idx].val, true
}

// TryInsert inserts val under key only if key is absent. It returns a
// pointer to the resulting value (existing or newly inserted) and true if
// the insert happened, or nil and [entry.ErrNoAlloc] if growth was needed
// and the table is fixed. It never returns [entry.ErrMem].
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
		old = e.m.slots[e.idx].val
		e.m.slots[e.idx].val = val
		return old, true, nil
	}
	e.m.insertAtVacant(e.idx, e.fp, e.key, val)
	var zero V
	return zero, false, nil
}
