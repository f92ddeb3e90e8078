// Package hashmap implements a flat, open-addressed hash map with 7-bit
// tag metadata, group probing, and tombstone-free deletion via in-place
// rehashing.
//
// The table stores element records by value in one slice and a parallel
// tag byte per slot in another. A tag's high bit marks the slot
// empty-or-deleted; the 7 low bits of a full tag are a fingerprint of the
// key's hash, letting most probe steps reject a mismatch without touching
// the element record at all.
//
// Map is not safe for concurrent use. Any insert that triggers growth or
// an in-place rehash invalidates every previously obtained pointer or
// index into the table; deletions alone do not move other records.
package hashmap

import "github.com/calvinalkan/containers/pkg/entry"

// HashFunc computes a 64-bit hash of a key. Both halves of the result are
// used (the home slot comes from the low bits, the fingerprint from the
// top 7 bits), so a hash function with a weak high half will see more
// fingerprint collisions than its collision rate elsewhere would suggest;
// mix both halves well.
type HashFunc[K any] func(key K) uint64

// slot is a full element record: a key and its associated value.
type slot[K comparable, V any] struct {
	key K
	val V
}

// Map is a generic flat hash map from K to V.
//
// The zero value is not usable; construct with [New].
type Map[K comparable, V any] struct {
	slots []slot[K, V]
	tags  []uint8

	capacity uint64 // power of two, or 0 if unallocated
	mask     uint64 // capacity-1, meaningful only when capacity > 0
	width    int    // active group lane width, 8 or 16

	count      int
	growthLeft uint64

	fixed bool
	hash  HashFunc[K]
}

// New returns an empty Map. hash must be non-nil and must mix both halves
// of its 64-bit output well (see [HashFunc]).
//
// capacityHint, if positive, pre-sizes the table to hold at least that
// many entries without growing; 0 leaves the table unallocated until the
// first insert.
//
// If fixed is true the table never grows past its initial allocation
// (or, if capacityHint was 0, it never allocates at all): operations that
// would need more room return an [Entry] with [entry.InsertError] set, and
// [Map.TryInsert]/[Map.InsertOrAssign] return [entry.ErrNoAlloc].
func New[K comparable, V any](hash HashFunc[K], capacityHint int, fixed bool) *Map[K, V] {
	m := &Map[K, V]{
		width: groupSize(),
		fixed: fixed,
		hash:  hash,
	}
	if capacityHint > 0 {
		m.allocate(capacityForLoad(uint64(capacityHint), m.width))
	}
	return m
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int { return m.count }

// Capacity returns the number of slots the table currently has allocated.
func (m *Map[K, V]) Capacity() int { return int(m.capacity) }

// fingerprint returns the 7-bit tag derived from the top 7 bits of h.
func fingerprint(h uint64) uint8 { return uint8((h >> 57) & 0x7F) }

// loadThreshold is the maximum number of full slots a table of the given
// capacity may hold: at most 7/8 of its capacity.
func loadThreshold(capacity uint64) uint64 { return (capacity / 8) * 7 }

// capacityForLoad returns the smallest power-of-two capacity, at least
// width, whose load threshold accommodates n live entries.
func capacityForLoad(n uint64, width int) uint64 {
	c := uint64(width)
	for loadThreshold(c) < n {
		c *= 2
	}
	return c
}

// allocate installs a fresh, all-empty table of the given capacity. It
// does not preserve or migrate any existing contents; callers that need
// to keep live entries must do so themselves (see growTo).
func (m *Map[K, V]) allocate(capacity uint64) {
	tags := make([]uint8, capacity+uint64(m.width))
	for i := range tags {
		tags[i] = tagEmpty
	}
	m.slots = make([]slot[K, V], capacity)
	m.tags = tags
	m.capacity = capacity
	m.mask = capacity - 1
	m.growthLeft = loadThreshold(capacity)
}

// setTagBoth writes tag into the primary slot at idx and, if idx falls
// within the first width slots, into its tail replica.
func (m *Map[K, V]) setTagBoth(idx uint64, tag uint8) {
	m.tags[idx] = tag
	width := uint64(m.width)
	replica := ((idx + m.capacity - width) & m.mask) + width
	m.tags[replica] = tag
}

// find returns the index of key's slot, or found=false if absent.
func (m *Map[K, V]) find(key K) (idx uint64, found bool) {
	if m.capacity == 0 {
		return 0, false
	}
	h := m.hash(key)
	fp := fingerprint(h)
	mask := m.mask
	width := m.width
	pos := h & mask
	s := uint64(1)
	for {
		g := loadGroup(m.tags, int(pos), width)
		eq := g.matchTag(fp)
		for !eq.empty() {
			lane := eq.first()
			i := (pos + uint64(lane)) & mask
			if m.slots[i].key == key {
				return i, true
			}
			eq = eq.next()
		}
		if !g.matchEmpty().empty() {
			return 0, false
		}
		pos = (pos + s*uint64(width)) & mask
		s++
	}
}

// findKeyOrSlot returns key's slot if present, and otherwise remembers
// and returns the first empty-or-deleted slot encountered
// along the probe sequence (hasVacant is false only when the table is
// unallocated, in which case the caller must grow before inserting).
func (m *Map[K, V]) findKeyOrSlot(key K) (h uint64, idx uint64, found bool, vacant uint64, hasVacant bool) {
	h = m.hash(key)
	if m.capacity == 0 {
		return h, 0, false, 0, false
	}
	fp := fingerprint(h)
	mask := m.mask
	width := m.width
	pos := h & mask
	s := uint64(1)
	for {
		g := loadGroup(m.tags, int(pos), width)
		eq := g.matchTag(fp)
		for !eq.empty() {
			lane := eq.first()
			i := (pos + uint64(lane)) & mask
			if m.slots[i].key == key {
				return h, i, true, 0, false
			}
			eq = eq.next()
		}
		if !hasVacant {
			if av := g.matchEmptyOrDeleted(); !av.empty() {
				lane := av.first()
				vacant = (pos + uint64(lane)) & mask
				hasVacant = true
			}
		}
		if !g.matchEmpty().empty() {
			return h, 0, false, vacant, hasVacant
		}
		pos = (pos + s*uint64(width)) & mask
		s++
	}
}

// insertAtVacant writes key/val into the slot identified by a prior
// findKeyOrSlot call and updates count/growthLeft bookkeeping.
func (m *Map[K, V]) insertAtVacant(idx uint64, fp uint8, key K, val V) {
	wasEmpty := m.tags[idx] == tagEmpty
	m.setTagBoth(idx, fp)
	m.slots[idx] = slot[K, V]{key: key, val: val}
	m.count++
	if wasEmpty {
		m.growthLeft--
	}
}

// eraseAt removes the live entry at idx, choosing EMPTY over DELETED when
// the surrounding two groups show the slot cannot lie on a live probe
// path (tombstone-free deletion).
//
// The slot was never part of a full probe window exactly when the gap
// between the nearest EMPTY before it and the nearest EMPTY at-or-after
// it is shorter than one group: then every group-sized window covering
// idx contains an EMPTY, so no probe could have been pushed past it.
func (m *Map[K, V]) eraseAt(idx uint64) {
	width := uint64(m.width)
	mask := m.mask
	beforeStart := (idx + m.capacity - width) & mask
	emptyBefore := loadGroup(m.tags, int(beforeStart), m.width).matchEmpty()
	emptyAfter := loadGroup(m.tags, int(idx), m.width).matchEmpty()
	neverFull := !emptyBefore.empty() && !emptyAfter.empty() &&
		emptyAfter.firstOrWidth()+emptyBefore.leadingUnsetLanes() < m.width
	if neverFull {
		m.setTagBoth(idx, tagEmpty)
		m.growthLeft++
	} else {
		m.setTagBoth(idx, tagDeleted)
	}
	var zero slot[K, V]
	m.slots[idx] = zero
	m.count--
}

// rawInsertFull places a known-absent, known-full key/val pair into the
// first empty slot along its probe sequence. It is used only while
// rebuilding a table (growTo) where every remaining slot is guaranteed
// either empty or already resolved, so only matchEmpty is needed.
func (m *Map[K, V]) rawInsertFull(h uint64, key K, val V) {
	fp := fingerprint(h)
	mask := m.mask
	width := m.width
	pos := h & mask
	s := uint64(1)
	for {
		g := loadGroup(m.tags, int(pos), width)
		if avail := g.matchEmpty(); !avail.empty() {
			lane := avail.first()
			idx := (pos + uint64(lane)) & mask
			m.setTagBoth(idx, fp)
			m.slots[idx] = slot[K, V]{key: key, val: val}
			return
		}
		pos = (pos + s*uint64(width)) & mask
		s++
	}
}

// findFirstNonFull returns the first empty-or-deleted slot along the
// probe sequence starting at home.
func (m *Map[K, V]) findFirstNonFull(home uint64) uint64 {
	mask := m.mask
	width := m.width
	pos := home
	s := uint64(1)
	for {
		g := loadGroup(m.tags, int(pos), width)
		if avail := g.matchEmptyOrDeleted(); !avail.empty() {
			lane := avail.first()
			return (pos + uint64(lane)) & mask
		}
		pos = (pos + s*uint64(width)) & mask
		s++
	}
}

// probeGroupIndex returns how many whole groups past home pos lies (mod
// capacity), used by the in-place rehash to decide whether a relocated
// slot's new position falls in the same group as its current one, so
// that moving it can be skipped.
func probeGroupIndex(pos, home, mask uint64, width int) uint64 {
	return ((pos - home) & mask) / uint64(width)
}

// growTo allocates a new table of the given capacity and rehashes every
// live entry into it. It does not check m.fixed; callers must.
func (m *Map[K, V]) growTo(newCapacity uint64) {
	oldSlots, oldTags, oldCapacity := m.slots, m.tags, m.capacity
	m.allocate(newCapacity)
	for i := uint64(0); i < oldCapacity; i++ {
		if oldTags[i]&0x80 != 0 {
			continue // not full
		}
		s := oldSlots[i]
		m.rawInsertFull(m.hash(s.key), s.key, s.val)
	}
	m.growthLeft = loadThreshold(newCapacity) - uint64(m.count)
}

// rehashInPlace drops every tombstone without allocating: it converts all
// control bytes (FULL -> DELETED, EMPTY/DELETED -> EMPTY) and then walks
// the array relocating each now-DELETED (i.e. still-live) entry to its
// correct probe position, swapping chains of displaced entries until each
// terminates at an EMPTY slot.
func (m *Map[K, V]) rehashInPlace() {
	width := m.width
	mask := m.mask

	for start := uint64(0); start < m.capacity; start += uint64(width) {
		g := loadGroup(m.tags, int(start), width).convertSpecial()
		storeGroup(m.tags, int(start), g)
	}
	copy(m.tags[m.capacity:m.capacity+uint64(width)], m.tags[:width])

	for i := uint64(0); i < m.capacity; i++ {
		if m.tags[i] != tagDeleted {
			continue
		}
		cur := i
		for {
			key := m.slots[cur].key
			h := m.hash(key)
			fp := fingerprint(h)
			home := h & mask
			newI := m.findFirstNonFull(home)

			if probeGroupIndex(newI, home, mask, width) == probeGroupIndex(cur, home, mask, width) {
				m.setTagBoth(cur, fp)
				break
			}
			if m.tags[newI] == tagEmpty {
				m.setTagBoth(newI, fp)
				m.slots[newI] = m.slots[cur]
				m.setTagBoth(cur, tagEmpty)
				var zero slot[K, V]
				m.slots[cur] = zero
				break
			}
			// newI is DELETED: it holds a different, still-unresolved
			// live entry. Swap it into cur and keep resolving cur.
			m.setTagBoth(newI, fp)
			m.slots[cur], m.slots[newI] = m.slots[newI], m.slots[cur]
		}
	}

	m.growthLeft = loadThreshold(m.capacity) - uint64(m.count)
}

// prepareInsert ensures room for one more new key: it grows when the
// table is genuinely loaded, and rehashes in place when the exhaustion
// is tombstone pressure. Returns [entry.ErrNoAlloc] if the table is
// fixed and has no tombstones to reclaim.
func (m *Map[K, V]) prepareInsert() error {
	if m.capacity == 0 {
		if m.fixed {
			return entry.ErrNoAlloc
		}
		m.growTo(uint64(m.width))
		return nil
	}

	threshold := loadThreshold(m.capacity)
	if !m.fixed && uint64(m.count) > threshold/2 {
		m.growTo(m.capacity * 2)
		return nil
	}

	m.rehashInPlace()
	if m.growthLeft == 0 {
		if m.fixed {
			return entry.ErrNoAlloc
		}
		m.growTo(m.capacity * 2)
	}
	return nil
}

// Get returns the value stored for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if idx, ok := m.find(key); ok {
		return m.slots[idx].val, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.find(key)
	return ok
}

// Remove deletes key if present and reports whether it was found.
func (m *Map[K, V]) Remove(key K) bool {
	idx, ok := m.find(key)
	if !ok {
		return false
	}
	m.eraseAt(idx)
	return true
}

// Clear invokes onClear (if non-nil) for every live entry, then empties
// the table without releasing its backing storage.
func (m *Map[K, V]) Clear(onClear func(K, V)) {
	if onClear != nil {
		for i := uint64(0); i < m.capacity; i++ {
			if m.tags[i]&0x80 == 0 {
				onClear(m.slots[i].key, m.slots[i].val)
			}
		}
	}
	for i := range m.tags {
		m.tags[i] = tagEmpty
	}
	var zero slot[K, V]
	for i := range m.slots {
		m.slots[i] = zero
	}
	m.count = 0
	m.growthLeft = loadThreshold(m.capacity)
}

// ClearAndFree is like Clear but also releases the table's backing
// storage. It is [entry.ErrArg] on a fixed table: such a table does not
// own an allocator and must not be asked to free.
func (m *Map[K, V]) ClearAndFree(onClear func(K, V)) error {
	if m.fixed {
		return entry.ErrArg
	}
	m.Clear(onClear)
	m.slots = nil
	m.tags = nil
	m.capacity = 0
	m.mask = 0
	m.growthLeft = 0
	return nil
}

// All returns an iterator over every live (key, value) pair. Iteration
// order is unspecified and may change across any mutating call.
func (m *Map[K, V]) All() func(yield func(K, V) bool) {
	return func(yield func(K, V) bool) {
		for i := uint64(0); i < m.capacity; i++ {
			if m.tags[i]&0x80 != 0 {
				continue
			}
			if !yield(m.slots[i].key, m.slots[i].val) {
				return
			}
		}
	}
}
