// Package buffer provides a generic contiguous storage primitive shared by
// the flat hash map and the flat ordered map.
//
// A Buffer wraps a Go slice. When Fixed is false, growth uses ordinary Go
// append — the runtime allocator stands in for a caller-supplied
// allocation function. When Fixed is true, the buffer owns no allocator:
// operations that would need to grow past the initial capacity fail with
// [entry.ErrNoAlloc] instead of reallocating, matching a container opened
// over caller-owned fixed storage.
package buffer

import (
	"unsafe"

	"github.com/calvinalkan/containers/pkg/entry"
)

// initialCapacity is the size a growable Buffer allocates on its first push.
const initialCapacity = 8

// Buffer is a generic, growable-or-fixed contiguous store of T.
//
// The zero value is a usable empty growable Buffer.
type Buffer[T any] struct {
	data  []T
	fixed bool
}

// New returns an empty Buffer. If fixed is true, the buffer never grows
// beyond cap and out-of-room operations return [entry.ErrNoAlloc]; cap is
// then the maximum capacity ever returned by Reserve. If fixed is false,
// cap is only a hint for the initial allocation.
func New[T any](cap int, fixed bool) *Buffer[T] {
	var data []T
	if cap > 0 {
		data = make([]T, 0, cap)
	}
	return &Buffer[T]{data: data, fixed: fixed}
}

// FromSlice adopts s as the buffer's backing storage without copying.
// len(s) becomes the buffer's initial count; cap(s) bounds it if fixed.
func FromSlice[T any](s []T, fixed bool) *Buffer[T] {
	return &Buffer[T]{data: s, fixed: fixed}
}

// Count returns the number of live elements.
func (b *Buffer[T]) Count() int { return len(b.data) }

// Capacity returns the number of elements the buffer can hold without
// growing.
func (b *Buffer[T]) Capacity() int { return cap(b.data) }

// Fixed reports whether the buffer is barred from growing.
func (b *Buffer[T]) Fixed() bool { return b.fixed }

// At returns a pointer to the element at i, or nil with [entry.ErrArg] if i
// is out of range. The pointer is valid until the next operation that may
// relocate the backing slice (any growth-triggering call).
func (b *Buffer[T]) At(i int) (*T, error) {
	if i < 0 || i >= len(b.data) {
		return nil, entry.ErrArg
	}
	return &b.data[i], nil
}

// Front returns a pointer to the first element, or nil with [entry.ErrArg]
// if the buffer is empty.
func (b *Buffer[T]) Front() (*T, error) { return b.At(0) }

// Back returns a pointer to the last element, or nil with [entry.ErrArg] if
// the buffer is empty.
func (b *Buffer[T]) Back() (*T, error) { return b.At(len(b.data) - 1) }

// IndexOf returns the index of p within the buffer's current backing
// storage, or (-1, false) if p lies outside [base, base+cap*sizeof(T)).
//
// The offset is computed by pointer subtraction off the address range of
// the allocation, not by a linear scan, so it stays O(1) and needs no
// equality on T.
func (b *Buffer[T]) IndexOf(p *T) (int, bool) {
	if p == nil || len(b.data) == 0 {
		return -1, false
	}
	var zero T
	stride := unsafe.Sizeof(zero)
	if stride == 0 {
		return -1, false
	}
	base := uintptr(unsafe.Pointer(&b.data[0]))
	addr := uintptr(unsafe.Pointer(p))
	if addr < base {
		return -1, false
	}
	off := addr - base
	if off%stride != 0 {
		return -1, false
	}
	i := int(off / stride)
	if i < 0 || i >= cap(b.data) {
		return -1, false
	}
	return i, true
}

// reserve ensures the buffer can hold extra more elements without
// reallocating, growing by doubling (starting at initialCapacity) if
// growth is permitted. Returns [entry.ErrNoAlloc] if growth is required
// but the buffer is fixed, or [entry.ErrMem] if the new capacity would
// overflow.
func (b *Buffer[T]) reserve(extra int) error {
	need := len(b.data) + extra
	if need <= cap(b.data) {
		return nil
	}
	if b.fixed {
		return entry.ErrNoAlloc
	}
	newCap := cap(b.data)
	if newCap == 0 {
		newCap = initialCapacity
	}
	for newCap < need {
		next := newCap * 2
		if next <= newCap {
			return entry.ErrMem
		}
		newCap = next
	}
	grown := make([]T, len(b.data), newCap)
	copy(grown, b.data)
	b.data = grown
	return nil
}

// Reserve grows the backing storage so at least extra more elements can be
// pushed without reallocating.
func (b *Buffer[T]) Reserve(extra int) error { return b.reserve(extra) }

// PushBack appends v, growing if permitted and necessary.
func (b *Buffer[T]) PushBack(v T) (int, error) {
	if err := b.reserve(1); err != nil {
		return -1, err
	}
	b.data = append(b.data, v)
	return len(b.data) - 1, nil
}

// Insert shifts the tail right by one and places v at i.
func (b *Buffer[T]) Insert(i int, v T) error {
	if i < 0 || i > len(b.data) {
		return entry.ErrArg
	}
	if err := b.reserve(1); err != nil {
		return err
	}
	b.data = append(b.data, v) // grow by one, value overwritten below
	copy(b.data[i+1:], b.data[i:len(b.data)-1])
	b.data[i] = v
	return nil
}

// Erase removes the element at i, shifting the tail left by one.
func (b *Buffer[T]) Erase(i int) error {
	if i < 0 || i >= len(b.data) {
		return entry.ErrArg
	}
	copy(b.data[i:], b.data[i+1:])
	var zero T
	b.data[len(b.data)-1] = zero
	b.data = b.data[:len(b.data)-1]
	return nil
}

// PopBack removes and returns the last element.
func (b *Buffer[T]) PopBack() (T, error) {
	var zero T
	if len(b.data) == 0 {
		return zero, entry.ErrArg
	}
	v := b.data[len(b.data)-1]
	b.data[len(b.data)-1] = zero
	b.data = b.data[:len(b.data)-1]
	return v, nil
}

// PopBackN removes the last k elements. It is not an error for k to exceed
// Count; the buffer is simply emptied.
func (b *Buffer[T]) PopBackN(k int) error {
	if k < 0 {
		return entry.ErrArg
	}
	if k > len(b.data) {
		k = len(b.data)
	}
	var zero T
	for i := len(b.data) - k; i < len(b.data); i++ {
		b.data[i] = zero
	}
	b.data = b.data[:len(b.data)-k]
	return nil
}

// Swap exchanges the elements at i and j.
func (b *Buffer[T]) Swap(i, j int) error {
	if i < 0 || i >= len(b.data) || j < 0 || j >= len(b.data) {
		return entry.ErrArg
	}
	b.data[i], b.data[j] = b.data[j], b.data[i]
	return nil
}

// Move relocates the element at src to dst, shifting the elements between
// them by one.
func (b *Buffer[T]) Move(dst, src int) error {
	if dst < 0 || dst >= len(b.data) || src < 0 || src >= len(b.data) {
		return entry.ErrArg
	}
	if dst == src {
		return nil
	}
	v := b.data[src]
	if dst < src {
		copy(b.data[dst+1:src+1], b.data[dst:src])
	} else {
		copy(b.data[src:dst], b.data[src+1:dst+1])
	}
	b.data[dst] = v
	return nil
}

// Write overwrites the element at i with v.
func (b *Buffer[T]) Write(i int, v T) error {
	if i < 0 || i >= len(b.data) {
		return entry.ErrArg
	}
	b.data[i] = v
	return nil
}

// Clear invokes destroy (if non-nil) for every live element in order, then
// empties the buffer without releasing its backing storage.
func (b *Buffer[T]) Clear(destroy func(*T)) {
	if destroy != nil {
		for i := range b.data {
			destroy(&b.data[i])
		}
	}
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.data = b.data[:0]
}

// ClearAndFree invokes destroy (if non-nil) for every live element, then
// releases the backing storage. It is [entry.ErrArg] to call ClearAndFree
// on a Fixed buffer: such a buffer does not own its storage.
func (b *Buffer[T]) ClearAndFree(destroy func(*T)) error {
	if b.fixed {
		return entry.ErrArg
	}
	b.Clear(destroy)
	b.data = nil
	return nil
}

// Copy replaces dst's contents with a copy of src's elements. If dst's
// current capacity is large enough the existing storage is reused and
// dst's Fixed-ness is preserved; otherwise, if dst is not Fixed, dst grows
// once to fit. Copying into a Fixed dst that is too small returns
// [entry.ErrNoAlloc] and leaves dst unchanged.
func (b *Buffer[T]) Copy(src *Buffer[T]) error {
	if src == nil {
		return entry.ErrArg
	}
	if cap(b.data) < len(src.data) {
		if b.fixed {
			return entry.ErrNoAlloc
		}
		b.data = make([]T, len(src.data), len(src.data))
	} else {
		b.data = b.data[:len(src.data)]
	}
	copy(b.data, src.data)
	return nil
}

// All returns a forward iterator over (index, value-pointer) pairs.
func (b *Buffer[T]) All() func(yield func(int, *T) bool) {
	return func(yield func(int, *T) bool) {
		for i := range b.data {
			if !yield(i, &b.data[i]) {
				return
			}
		}
	}
}

// Backward returns a reverse iterator over (index, value-pointer) pairs.
func (b *Buffer[T]) Backward() func(yield func(int, *T) bool) {
	return func(yield func(int, *T) bool) {
		for i := len(b.data) - 1; i >= 0; i-- {
			if !yield(i, &b.data[i]) {
				return
			}
		}
	}
}
