package server

import "fmt"

// ResetPolicy decides when the region is reclaimed. Before is called once
// at the start of every request with the number of requests served since
// the last reset, and reports whether to reset now.
type ResetPolicy interface {
	Before(servedSinceReset int) bool
	String() string
}

type perRequest struct{}

func (perRequest) Before(int) bool { return true }
func (perRequest) String() string  { return "per-request" }

type never struct{}

func (never) Before(int) bool { return false }
func (never) String() string  { return "never" }

type everyN int

func (n everyN) Before(served int) bool { return served >= int(n) }
func (n everyN) String() string         { return fmt.Sprintf("every-%d", int(n)) }

var (
	// ResetPerRequest starts a fresh generation for every request. No two
	// requests ever share a generation.
	ResetPerRequest ResetPolicy = perRequest{}

	// ResetNever keeps bumping the cursor for the life of the process.
	// Once the region fills up every further request is refused.
	ResetNever ResetPolicy = never{}
)

// ResetEveryN reclaims the region once n requests have been served in the
// current generation. n <= 1 is the same as ResetPerRequest.
func ResetEveryN(n int) ResetPolicy {
	if n <= 1 {
		return ResetPerRequest
	}
	return everyN(n)
}
