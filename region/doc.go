// Package region implements a fixed-capacity bump allocator over a single
// virtual memory reservation.
//
// # Overview
//
// A Region is reserved once with New and released once with Close. Between
// those two calls it is carved up by a cursor that only moves forward:
//
//	r, err := region.New(500 << 20)
//	if err != nil {
//		// reservation failed, nothing to serve with
//	}
//	defer r.Close()
//
//	a, err := r.AllocBytes(4096)
//	buf, _ := a.Bytes()
//
//	r.Reset() // O(1), every handle from before is now stale
//
// # Generations
//
// Every Reset starts a new generation. Allocation handles remember the
// generation that produced them and Bytes refuses to hand out memory for a
// handle from an older generation, so a buffer cannot be read or written
// after the region that backs it has been recycled.
//
// # Fixed addresses
//
// By default the operating system chooses where the region lives. Callers
// that control the whole address space can ask for an exact address with
// WithFixedAddress; the reservation fails rather than land anywhere else.
//
// # Thread Safety
//
// A Region is not safe for concurrent use. Give each concurrently active
// user its own Region.
package region
