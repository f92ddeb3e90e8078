package hashmap

import (
	"math/bits"

	"golang.org/x/sys/cpu"
)

// Tag byte values. A tag's high bit set marks the slot empty-or-deleted;
// cleared marks full. The 7 low bits of a full tag are a fingerprint
// derived from the top 7 bits of the key's 64-bit hash.
const (
	tagEmpty   uint8 = 0xFF
	tagDeleted uint8 = 0x80
)

// lsbsBytes8/msbsBytes8 are the classic SWAR constants: one 1 in the low
// (resp. high) bit of every byte lane of a 64-bit word.
const (
	lsbsBytes8 = 0x0101010101010101
	msbsBytes8 = 0x8080808080808080
)

// groupSize8/groupSize16 are the two lane widths a group may use. Both are
// pure Go word-parallel ("SIMD within a register") implementations — see
// DESIGN.md for why this repository does not hand-write assembly intrinsics
// for the 16-lane path instead of a second SWAR width.
const (
	groupSize8  = 8
	groupSize16 = 16
)

// wideGroups reports whether this process should use the 16-lane group
// width. It defaults to the result of a one-time x86/ARM64 feature probe
// via golang.org/x/sys/cpu and can be overridden by tests through
// ForceGroupSize to exercise both lane widths deterministically.
var wideGroups = detectWideGroups()

// forcedGroupSize is a test-only override; 0 means "use wideGroups".
var forcedGroupSize int

func detectWideGroups() bool {
	return cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD
}

// ForceGroupSize overrides the lane width used by all maps created after
// the call, so tests can pin either width regardless of the host CPU.
// Pass 0 to restore auto-detection. It is a package-level knob
// and is not safe for concurrent use with map construction; call it only
// from test setup.
func ForceGroupSize(size int) {
	forcedGroupSize = size
}

// groupSize returns the active lane width for newly created maps.
func groupSize() int {
	switch forcedGroupSize {
	case groupSize8, groupSize16:
		return forcedGroupSize
	}
	if wideGroups {
		return groupSize16
	}
	return groupSize8
}

// group is a fixed-width window of tag bytes, represented as one or two
// 64-bit SWAR words depending on the active lane width.
type group struct {
	lo uint64
	hi uint64 // unused when width == groupSize8
	w  int
}

func loadGroup(tags []uint8, start, width int) group {
	g := group{w: width}
	g.lo = loadWord(tags, start)
	if width == groupSize16 {
		g.hi = loadWord(tags, start+8)
	}
	return g
}

func loadWord(tags []uint8, start int) uint64 {
	var w uint64
	for i := 0; i < 8; i++ {
		w |= uint64(tags[start+i]) << (8 * i)
	}
	return w
}

func storeWord(tags []uint8, start int, w uint64) {
	for i := 0; i < 8; i++ {
		tags[start+i] = uint8(w >> (8 * i))
	}
}

// bitmask has one set bit per lane that matched, at bit position
// 8*lane+7 (the lane's high bit), so a lane index is recovered as
// TrailingZeros/8.
type bitmask struct {
	lo uint64
	hi uint64
	w  int
}

func (b bitmask) empty() bool { return b.lo == 0 && b.hi == 0 }

// first returns the lane index of the lowest set bit.
func (b bitmask) first() int {
	if b.lo != 0 {
		return bits.TrailingZeros64(b.lo) >> 3
	}
	return 8 + (bits.TrailingZeros64(b.hi) >> 3)
}

// next clears the lowest set bit and returns the remaining mask.
func (b bitmask) next() bitmask {
	if b.lo != 0 {
		b.lo &= b.lo - 1
		return b
	}
	b.hi &= b.hi - 1
	return b
}

// count returns the number of set lanes.
func (b bitmask) count() int {
	return bits.OnesCount64(b.lo) + bits.OnesCount64(b.hi)
}

// firstOrWidth returns the lane index of the lowest set bit, or the lane
// width if no bit is set.
func (b bitmask) firstOrWidth() int {
	if b.empty() {
		return b.w
	}
	return b.first()
}

// leadingUnsetLanes returns the number of lanes above the highest set
// bit, or the lane width if no bit is set.
func (b bitmask) leadingUnsetLanes() int {
	if b.w == groupSize16 {
		if b.hi != 0 {
			return bits.LeadingZeros64(b.hi) >> 3
		}
		if b.lo != 0 {
			return 8 + (bits.LeadingZeros64(b.lo) >> 3)
		}
		return 16
	}
	if b.lo == 0 {
		return 8
	}
	return bits.LeadingZeros64(b.lo) >> 3
}

func matchWord(word uint64, tag uint8) uint64 {
	x := word ^ (lsbsBytes8 * uint64(tag))
	return ((x - lsbsBytes8) &^ x) & msbsBytes8
}

// matchTag returns a bitmask with a 1 in each lane whose tag byte equals t.
func (g group) matchTag(t uint8) bitmask {
	m := bitmask{w: g.w, lo: matchWord(g.lo, t)}
	if g.w == groupSize16 {
		m.hi = matchWord(g.hi, t)
	}
	return m
}

// emptyMaskWord finds lanes equal to the literal EMPTY byte (0xFF) by
// reusing the same zero-byte-detection trick as matchWord.
func emptyMaskWord(word uint64) uint64 {
	return matchWord(word, tagEmpty)
}

// matchEmpty returns a bitmask of lanes whose tag is exactly EMPTY.
func (g group) matchEmpty() bitmask {
	m := bitmask{w: g.w, lo: emptyMaskWord(g.lo)}
	if g.w == groupSize16 {
		m.hi = emptyMaskWord(g.hi)
	}
	return m
}

func emptyOrDeletedMaskWord(word uint64) uint64 {
	return word & msbsBytes8
}

// matchEmptyOrDeleted returns a bitmask of lanes whose high bit is set
// (EMPTY or DELETED).
func (g group) matchEmptyOrDeleted() bitmask {
	m := bitmask{w: g.w, lo: emptyOrDeletedMaskWord(g.lo)}
	if g.w == groupSize16 {
		m.hi = emptyOrDeletedMaskWord(g.hi)
	}
	return m
}

// convertSpecialWord replaces DELETED with EMPTY and FULL with DELETED, in
// place, for a single 64-bit word of tags.
func convertSpecialWord(word uint64) uint64 {
	// Special (high bit set: EMPTY or DELETED) lanes become EMPTY (0xFF);
	// full (high bit clear) lanes become DELETED (0x80).
	var out uint64
	for i := 0; i < 8; i++ {
		b := uint8(word >> (8 * i))
		nb := tagDeleted
		if b&0x80 != 0 {
			nb = tagEmpty
		}
		out |= uint64(nb) << (8 * i)
	}
	return out
}

// convertSpecial rewrites every lane of g: DELETED->EMPTY, FULL->DELETED.
// Used by in-place rehash.
func (g group) convertSpecial() group {
	out := group{w: g.w, lo: convertSpecialWord(g.lo)}
	if g.w == groupSize16 {
		out.hi = convertSpecialWord(g.hi)
	}
	return out
}

func storeGroup(tags []uint8, start int, g group) {
	storeWord(tags, start, g.lo)
	if g.w == groupSize16 {
		storeWord(tags, start+8, g.hi)
	}
}
