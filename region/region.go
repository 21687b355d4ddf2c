package region

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
)

// WordAlign is the natural alignment used by AllocBytes.
const WordAlign = int(unsafe.Sizeof(uintptr(0)))

var (
	// ErrReservationFailed is returned by New when the operating system
	// cannot provide the requested mapping.
	ErrReservationFailed = errors.New("region: reservation failed")
	// ErrAllocationExhausted is returned when an allocation does not fit
	// before the end of the region.
	ErrAllocationExhausted = errors.New("region: allocation exhausted")
	// ErrInvalidAlignment is returned for alignments that are not a power
	// of two or exceed the base alignment of the region.
	ErrInvalidAlignment = errors.New("region: invalid alignment")
	// ErrInvalidSize is returned for negative allocation sizes.
	ErrInvalidSize = errors.New("region: invalid size")
	// ErrStaleAllocation is returned when a handle outlived its generation.
	ErrStaleAllocation = errors.New("region: allocation used after reset")
)

// Region is a contiguous block of memory handed out by a bump cursor.
type Region struct {
	mem        []byte
	base       uintptr
	cursor     int
	peak       int
	generation uint64
	fixed      bool
}

type options struct {
	fixedAddress uintptr
}

// Option configures New.
type Option func(*options)

// WithFixedAddress places the region at exactly addr. The address must be
// page aligned. Callers accept responsibility for collisions with other
// mappings in the process.
func WithFixedAddress(addr uintptr) Option {
	return func(o *options) {
		o.fixedAddress = addr
	}
}

// New reserves capacity bytes of zeroed, readable and writable memory.
func New(capacity int, opts ...Option) (*Region, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if capacity <= 0 {
		return nil, ErrReservationFailed
	}
	if o.fixedAddress%uintptr(os.Getpagesize()) != 0 {
		return nil, ErrReservationFailed
	}

	mem, err := reserve(capacity, o.fixedAddress)
	if err != nil {
		return nil, err
	}
	return &Region{
		mem:   mem,
		base:  uintptr(unsafe.Pointer(unsafe.SliceData(mem))),
		fixed: o.fixedAddress != 0,
	}, nil
}

// Alloc carves size bytes aligned to align out of the current generation.
// On failure the cursor is left untouched.
func (r *Region) Alloc(size, align int) (Allocation, error) {
	r.panicIfReleased()
	if size < 0 {
		return Allocation{}, ErrInvalidSize
	}
	if align <= 0 || align&(align-1) != 0 || align > os.Getpagesize() {
		return Allocation{}, ErrInvalidAlignment
	}

	mask := align - 1
	off := (r.cursor + mask) &^ mask
	if off > len(r.mem) || size > len(r.mem)-off {
		return Allocation{}, ErrAllocationExhausted
	}

	r.cursor = off + size
	if r.cursor > r.peak {
		r.peak = r.cursor
	}
	return Allocation{
		region:     r,
		generation: r.generation,
		offset:     off,
		size:       size,
	}, nil
}

// AllocBytes is Alloc with word alignment.
func (r *Region) AllocBytes(size int) (Allocation, error) {
	return r.Alloc(size, WordAlign)
}

// Reset reclaims every allocation of the current generation. Memory is not
// zeroed.
func (r *Region) Reset() {
	r.panicIfReleased()
	r.cursor = 0
	r.generation++
}

// Close returns the reservation to the operating system. The region must not
// be used afterwards.
func (r *Region) Close() error {
	r.panicIfReleased()
	mem := r.mem
	r.mem = nil
	r.cursor = 0
	r.generation++
	return release(mem)
}

// Len returns the cursor, the bytes in use by the current generation
// including alignment padding.
func (r *Region) Len() int { return r.cursor }

// Cap returns the fixed capacity of the region.
func (r *Region) Cap() int { return len(r.mem) }

// Peak returns the high-water mark of the cursor. It survives Reset.
func (r *Region) Peak() int { return r.peak }

// Generation returns the number of resets performed so far.
func (r *Region) Generation() uint64 { return r.generation }

// Base returns the virtual address the region starts at.
func (r *Region) Base() uintptr { return r.base }

// Fixed reports whether the region was placed at a caller chosen address.
func (r *Region) Fixed() bool { return r.fixed }

// Stats returns a snapshot of region statistics.
func (r *Region) Stats() Stats {
	return Stats{
		Base:       r.base,
		Capacity:   len(r.mem),
		InUse:      r.cursor,
		Peak:       r.peak,
		Generation: r.generation,
	}
}

// Stats contains statistical information about a region.
type Stats struct {
	Base       uintptr
	Capacity   int    // Reserved bytes
	InUse      int    // Cursor position
	Peak       int    // Highest cursor position seen
	Generation uint64 // Resets so far
}

func (r *Region) panicIfReleased() {
	if r.mem == nil {
		panic("region: use after Close()")
	}
}
