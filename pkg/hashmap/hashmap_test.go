package hashmap

import (
	"testing"

	"github.com/calvinalkan/containers/pkg/entry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHash is deliberately cheap and deterministic; it still mixes both
// halves of its output enough for fingerprint and home-slot derivation to
// behave independently in tests, per HashFunc's contract.
func testHash(k int) uint64 {
	x := uint64(k)
	x ^= x << 13
	x *= 0x9E3779B97F4A7C15
	x ^= x >> 29
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 32
	return x
}

func stringHash(s string) uint64 {
	var h uint64 = 1469598103934665603
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func TestMap_InsertGetRemove(t *testing.T) {
	m := New[string, int](stringHash, 0, false)
	assert.Equal(t, 0, m.Len())

	_, inserted, err := m.TryInsert("a", 1)
	require.NoError(t, err)
	assert.True(t, inserted)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, inserted, err = m.TryInsert("a", 99)
	require.NoError(t, err)
	assert.False(t, inserted)
	v, _ = m.Get("a")
	assert.Equal(t, 1, v, "TryInsert must not overwrite an existing key")

	assert.True(t, m.Remove("a"))
	assert.False(t, m.Remove("a"))
	_, ok = m.Get("a")
	assert.False(t, ok)
}

// TestMap_GrowthAndLookup is scenario S1: inserting well past a table's
// initial capacity must preserve every key's lookup correctness across
// every growth step.
func TestMap_GrowthAndLookup(t *testing.T) {
	m := New[int, int](testHash, 0, false)
	const n = 5000
	for i := 0; i < n; i++ {
		_, inserted, err := m.TryInsert(i, i*i)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	assert.Equal(t, n, m.Len())
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		require.True(t, ok, "key %d", i)
		assert.Equal(t, i*i, v)
	}
}

// TestMap_DeleteInsertChurn is scenario S2: repeated delete/insert cycles
// must eventually reclaim tombstones via in-place rehash rather than
// growing without bound.
func TestMap_DeleteInsertChurn(t *testing.T) {
	m := New[int, int](testHash, 0, false)
	for i := 0; i < 1000; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err)
	}
	for round := 0; round < 50; round++ {
		for i := 0; i < 1000; i += 2 {
			m.Remove(i)
		}
		for i := 0; i < 1000; i += 2 {
			_, _, err := m.TryInsert(i, i+round)
			require.NoError(t, err)
		}
	}
	assert.LessOrEqual(t, m.Capacity(), 4096, "tombstone churn must not force unbounded growth")
	for i := 0; i < 1000; i++ {
		_, ok := m.Get(i)
		assert.True(t, ok, "key %d", i)
	}
}

func TestMap_FixedNoAllocReturnsErrNoAlloc(t *testing.T) {
	m := New[int, int](testHash, 8, true)
	cap0 := m.Capacity()
	inserted := 0
	for i := 0; i < 1000; i++ {
		_, ok, err := m.TryInsert(i, i)
		if err != nil {
			require.ErrorIs(t, err, entry.ErrNoAlloc)
			break
		}
		if ok {
			inserted++
		}
	}
	assert.Equal(t, cap0, m.Capacity(), "fixed table must never reallocate")
	assert.Greater(t, inserted, 0)
}

// TestMap_FixedTableReclaimsTombstonesInPlace fills a fixed 64-slot
// table to its 56-entry threshold, erases half, and inserts fresh keys:
// the fresh inserts must succeed by rehashing in place (there is nowhere
// to grow to), and only inserting past the threshold again fails.
func TestMap_FixedTableReclaimsTombstonesInPlace(t *testing.T) {
	m := New[int, int](testHash, 56, true)
	require.Equal(t, 64, m.Capacity())

	for i := 0; i < 56; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err, "key %d", i)
	}
	for i := 0; i < 56; i += 2 {
		require.True(t, m.Remove(i))
	}
	for i := 100; i < 128; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err, "key %d must fit after in-place rehash", i)
	}
	assert.Equal(t, 56, m.Len())

	_, _, err := m.TryInsert(999, 999)
	assert.ErrorIs(t, err, entry.ErrNoAlloc)
	assert.Equal(t, 64, m.Capacity(), "fixed table must never reallocate")

	for i := 1; i < 56; i += 2 {
		_, ok := m.Get(i)
		assert.True(t, ok, "survivor %d lost across in-place rehash", i)
	}
	for i := 100; i < 128; i++ {
		_, ok := m.Get(i)
		assert.True(t, ok, "key %d", i)
	}
}

// TestEntry_InsertErrorOnFullFixedTable pins the failure model: with no
// room and no way to grow, the entry comes back vacant but poisoned, the
// insert verbs refuse it, and the table is untouched.
func TestEntry_InsertErrorOnFullFixedTable(t *testing.T) {
	m := New[int, int](testHash, 14, true)
	for i := 0; i < 14; i++ {
		_, _, err := m.TryInsert(i, i)
		require.NoError(t, err)
	}

	e := m.EntryFor(1000)
	assert.True(t, e.Status().Vacant())
	assert.True(t, e.Status().InsertError())
	assert.True(t, e.Status().NoUnwrap())

	assert.Nil(t, e.OrInsert(1))
	assert.Nil(t, e.InsertEntry(1))
	assert.Equal(t, 14, m.Len())
	_, ok := e.Unwrap()
	assert.False(t, ok)
}

func TestMap_ClearAndFree(t *testing.T) {
	m := New[int, int](testHash, 0, false)
	for i := 0; i < 10; i++ {
		_, _, _ = m.TryInsert(i, i)
	}
	var cleared []int
	m.Clear(func(k, v int) { cleared = append(cleared, k) })
	assert.Len(t, cleared, 10)
	assert.Equal(t, 0, m.Len())

	require.NoError(t, m.ClearAndFree(nil))
	assert.Equal(t, 0, m.Capacity())

	fixed := New[int, int](testHash, 4, true)
	assert.ErrorIs(t, fixed.ClearAndFree(nil), entry.ErrArg)
}

func TestMap_All(t *testing.T) {
	m := New[int, int](testHash, 0, false)
	want := map[int]int{}
	for i := 0; i < 30; i++ {
		_, _, _ = m.TryInsert(i, i*2)
		want[i] = i * 2
	}
	got := map[int]int{}
	for k, v := range m.All() {
		got[k] = v
	}
	assert.Equal(t, want, got)
}

func TestMap_All_EarlyStop(t *testing.T) {
	m := New[int, int](testHash, 0, false)
	for i := 0; i < 30; i++ {
		_, _, _ = m.TryInsert(i, i)
	}
	seen := 0
	for range m.All() {
		seen++
		if seen == 3 {
			break
		}
	}
	assert.Equal(t, 3, seen)
}

func TestEntry_AndModifyOrInsert(t *testing.T) {
	m := New[string, int](stringHash, 0, false)

	m.EntryFor("hits").AndModify(func(v *int) { *v++ }).OrInsert(1)
	v, ok := m.Get("hits")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	m.EntryFor("hits").AndModify(func(v *int) { *v++ }).OrInsert(1)
	v, _ = m.Get("hits")
	assert.Equal(t, 2, v, "AndModify must run on an already-occupied entry instead of OrInsert")
}

func TestEntry_InsertEntryOverwrites(t *testing.T) {
	m := New[string, int](stringHash, 0, false)
	m.EntryFor("k").InsertEntry(1)
	m.EntryFor("k").InsertEntry(2)
	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestEntry_RemoveEntry(t *testing.T) {
	m := New[string, int](stringHash, 0, false)
	m.EntryFor("k").InsertEntry(7)

	val, ok := m.EntryFor("k").RemoveEntry()
	require.True(t, ok)
	assert.Equal(t, 7, val)
	assert.False(t, m.Contains("k"))

	_, ok = m.EntryFor("k").RemoveEntry()
	assert.False(t, ok, "removing an already-vacant entry must report ok=false")
}

func TestEntry_UnwrapVacantVsOccupied(t *testing.T) {
	m := New[string, int](stringHash, 0, false)
	_, ok := m.EntryFor("missing").Unwrap()
	assert.False(t, ok)

	m.EntryFor("present").InsertEntry(42)
	v, ok := m.EntryFor("present").Unwrap()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestInsertOrAssign(t *testing.T) {
	m := New[string, int](stringHash, 0, false)
	inserted, err := m.InsertOrAssign("k", 1)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = m.InsertOrAssign("k", 2)
	require.NoError(t, err)
	assert.False(t, inserted)

	v, _ := m.Get("k")
	assert.Equal(t, 2, v)
}

func TestSwapEntry(t *testing.T) {
	m := New[string, int](stringHash, 0, false)

	old, ok, err := m.SwapEntry("k", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, old)

	old, ok, err = m.SwapEntry("k", 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, old)

	v, _ := m.Get("k")
	assert.Equal(t, 2, v)
}

// TestMap_FingerprintCollisionsStillResolveByKey (S6) gives every key an
// identical hash, so every key shares both a home slot and a fingerprint;
// correctness then depends entirely on the key-equality check inside the
// matched-fingerprint loop in find/findKeyOrSlot, not on the tag byte.
func TestMap_FingerprintCollisionsStillResolveByKey(t *testing.T) {
	collide := func(k int) uint64 { return 0xABCDEF }
	m := New[int, string](collide, 0, false)
	for i := 0; i < 64; i++ {
		_, _, err := m.TryInsert(i, "v")
		require.NoError(t, err)
	}
	for i := 0; i < 64; i++ {
		_, ok := m.Get(i)
		assert.True(t, ok, "key %d", i)
	}
	assert.Equal(t, 64, m.Len())
}
