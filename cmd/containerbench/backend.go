package main

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/containers/pkg/flatmap"
	"github.com/calvinalkan/containers/pkg/hashmap"
	"github.com/calvinalkan/containers/pkg/splaymap"
)

var errUnknownContainer = errors.New("unknown container")

// backend adapts one of the container types to the small int-keyed
// surface the bench loop, REPL, and self-check drive.
type backend interface {
	name() string
	insert(k, v int)
	get(k int) (int, bool)
	remove(k int) bool
	length() int
	// multiValued reports whether insert appends rather than overwrites,
	// so the self-check oracle can model the right semantics.
	multiValued() bool
	// contents snapshots the live records, values in per-key insertion
	// order for multi-valued backends.
	contents() map[int][]int
}

func newBackend(kind string) (backend, error) {
	switch kind {
	case "hashmap":
		return &hashBackend{m: hashmap.New[int, int](benchHash, 0, false)}, nil
	case "flatmap":
		return &flatBackend{m: flatmap.New[int, int](intCmp, 0, false)}, nil
	case "splaymap":
		return &splayBackend{m: splaymap.New[int, int](intCmp)}, nil
	case "multimap":
		return &multiBackend{m: splaymap.NewMultiMap[int, int](intCmp)}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want hashmap, flatmap, splaymap, or multimap)", errUnknownContainer, kind)
	}
}

func intCmp(a, b int) int { return a - b }

// benchHash is a fixed-strength 64-bit mixer (splitmix64 finalizer); the
// hash map derives the home slot from the low bits and the fingerprint
// from the high bits, so both halves must be well mixed.
func benchHash(k int) uint64 {
	x := uint64(k)
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

type hashBackend struct {
	m *hashmap.Map[int, int]
}

func (b *hashBackend) name() string      { return "hashmap" }
func (b *hashBackend) insert(k, v int)   { _, _ = b.m.InsertOrAssign(k, v) }
func (b *hashBackend) remove(k int) bool { return b.m.Remove(k) }
func (b *hashBackend) length() int       { return b.m.Len() }
func (b *hashBackend) multiValued() bool { return false }

func (b *hashBackend) get(k int) (int, bool) { return b.m.Get(k) }

func (b *hashBackend) contents() map[int][]int {
	out := map[int][]int{}
	for k, v := range b.m.All() {
		out[k] = []int{v}
	}
	return out
}

type flatBackend struct {
	m *flatmap.Map[int, int]
}

func (b *flatBackend) name() string      { return "flatmap" }
func (b *flatBackend) insert(k, v int)   { _, _ = b.m.InsertOrAssign(k, v) }
func (b *flatBackend) remove(k int) bool { return b.m.Remove(k) }
func (b *flatBackend) length() int       { return b.m.Len() }
func (b *flatBackend) multiValued() bool { return false }

func (b *flatBackend) get(k int) (int, bool) { return b.m.Get(k) }

func (b *flatBackend) contents() map[int][]int {
	out := map[int][]int{}
	for k, v := range b.m.All() {
		out[k] = []int{v}
	}
	return out
}

type splayBackend struct {
	m *splaymap.Map[int, int]
}

func (b *splayBackend) name() string      { return "splaymap" }
func (b *splayBackend) insert(k, v int)   { b.m.InsertOrAssign(k, v) }
func (b *splayBackend) remove(k int) bool { return b.m.Remove(k) }
func (b *splayBackend) length() int       { return b.m.Len() }
func (b *splayBackend) multiValued() bool { return false }

func (b *splayBackend) get(k int) (int, bool) { return b.m.Get(k) }

func (b *splayBackend) contents() map[int][]int {
	out := map[int][]int{}
	for k, v := range b.m.All() {
		out[k] = []int{v}
	}
	return out
}

type multiBackend struct {
	m *splaymap.MultiMap[int, int]
}

func (b *multiBackend) name() string      { return "multimap" }
func (b *multiBackend) insert(k, v int)   { b.m.Insert(k, v) }
func (b *multiBackend) length() int       { return b.m.Len() }
func (b *multiBackend) multiValued() bool { return true }

// get reports how many values k holds. A multimap has no single value
// per key, so the count is the closest cheap analog of a point lookup.
func (b *multiBackend) get(k int) (int, bool) {
	n := b.m.Count(k)
	return n, n > 0
}

func (b *multiBackend) remove(k int) bool {
	_, ok := b.m.Remove(k)
	return ok
}

func (b *multiBackend) contents() map[int][]int {
	out := map[int][]int{}
	for k, v := range b.m.All() {
		out[k] = append(out[k], v)
	}
	return out
}
