// Package entry defines the status vocabulary shared by this repository's
// associative containers (hashmap, flatmap, splaymap).
//
// Every container returns search results as an Entry value carrying one of
// these statuses plus enough positional data to complete a follow-up
// mutation without re-searching. This package owns only the status bits;
// each container defines its own Entry type around them.
package entry

import "errors"

// Status is a bitset describing the outcome of a container search.
//
// Bits combine: a vacant entry whose preceding growth attempt failed
// carries Vacant|InsertError|NoUnwrap.
type Status uint8

const (
	// Vacant means the entry's position is where an insert would land;
	// no matching record exists there yet.
	Vacant Status = 0
	// Occupied means the entry's position holds a record matching the key.
	Occupied Status = 1 << 0
	// InsertError means a preceding growth attempt failed; the entry must
	// not be used for insertion.
	InsertError Status = 1 << 1
	// ArgError means the caller supplied a nil container or invalid key.
	ArgError Status = 1 << 2
	// NoUnwrap means Unwrap has nothing to return for this entry.
	NoUnwrap Status = 1 << 3
)

// Sentinel errors returned by container operations.
//
// Callers should use [errors.Is] to classify failures.
var (
	// ErrArg marks a caller error: nil container, nil key, or an
	// out-of-range index. The operation is a no-op.
	ErrArg = errors.New("entry: argument error")
	// ErrNoAlloc marks an operation that needed to grow a fixed-capacity
	// container with no allocator bound.
	ErrNoAlloc = errors.New("entry: no allocator bound")
	// ErrMem marks an allocation failure or a size computation overflow.
	ErrMem = errors.New("entry: allocation failed")
)

// Occupied reports whether s has the Occupied bit set.
func (s Status) Occupied() bool { return s&Occupied != 0 }

// Vacant reports whether s does not have the Occupied bit set.
func (s Status) Vacant() bool { return s&Occupied == 0 }

// InsertError reports whether a preceding growth attempt failed.
func (s Status) InsertError() bool { return s&InsertError != 0 }

// ArgError reports whether the caller supplied invalid arguments.
func (s Status) ArgError() bool { return s&ArgError != 0 }

// NoUnwrap reports whether Unwrap has nothing to return.
func (s Status) NoUnwrap() bool { return s&NoUnwrap != 0 }
