// Package signal defines the wire-level types that flow through the DRAM
// core: packets, queue requests, responses, and the shared notion of time.
package signal

import "math"

// Time is a point (or a duration) in picoseconds, matching
// champsim::chrono::picoseconds. Using an integer type keeps every tick
// comparison exact, unlike a floating point virtual time.
type Time int64

// Infinity marks a request that is no longer eligible for scheduling because
// it has already been handed to a bank.
const Infinity Time = math.MaxInt64

// Before reports whether t happens strictly before o.
func (t Time) Before(o Time) bool { return t < o }
