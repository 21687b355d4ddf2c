package region

// Allocation is a handle to a byte range of one generation of a Region.
// The zero value is not a valid allocation.
type Allocation struct {
	region     *Region
	generation uint64
	offset     int
	size       int
}

// Bytes returns the memory behind the allocation. It fails with
// ErrStaleAllocation once the region has been reset or closed since the
// allocation was made.
func (a Allocation) Bytes() ([]byte, error) {
	if !a.Valid() {
		return nil, ErrStaleAllocation
	}
	return a.region.mem[a.offset : a.offset+a.size : a.offset+a.size], nil
}

// Valid reports whether the allocation still belongs to the live generation.
func (a Allocation) Valid() bool {
	return a.region != nil && a.region.mem != nil && a.region.generation == a.generation
}

// Len returns the size of the allocation in bytes.
func (a Allocation) Len() int { return a.size }

// Offset returns the position of the allocation relative to the region base.
func (a Allocation) Offset() int { return a.offset }

// Generation returns the generation that produced the allocation.
func (a Allocation) Generation() uint64 { return a.generation }
