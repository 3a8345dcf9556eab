package seccomp

import (
	"fmt"
	"math"
)

// Range is a maximal, contiguous span of the unsigned 32-bit number
// space that a Policy maps to a single Outcome.
type Range struct {
	From, To uint32
	Outcome  Outcome
}

// findRanges walks policy over every syscall number the current target
// defines, from max(1, minSyscall) through maxSyscall+1, coalescing
// contiguous runs of equal outcome into Ranges. The walk always starts
// effectively at 0 (the lowest range's From is 0) even when minSyscall
// is greater than zero, because the range table must cover the whole
// uint32 space; numbers below minSyscall simply share whatever outcome
// the policy assigns them at the low end of the walk.
//
// The final Range's outcome, the "default outcome", is adopted as the
// policy's decision for every number from the last break through
// 2^32-1. findRanges aborts the process if that default outcome
// disagrees with the policy's own answer at INT32_MAX, INT32_MIN, or -1:
// such a policy is ambiguous about numbers outside the table it just
// produced, which findRanges has no way to represent faithfully.
func findRanges(policy Policy) []Range {
	walkStart := minSyscall
	if walkStart < 1 {
		walkStart = 1
	}
	walkEnd := int64(maxSyscall) + 1

	var ranges []Range
	runFrom := int64(0)
	runOutcome := policy.EvaluateSyscall(0)

	for n := int64(walkStart); n <= walkEnd; n++ {
		outcome := policy.EvaluateSyscall(int32(n))
		if outcome != runOutcome {
			ranges = append(ranges, Range{From: uint32(runFrom), To: uint32(n - 1), Outcome: runOutcome})
			runFrom = n
			runOutcome = outcome
		}
	}
	ranges = append(ranges, Range{From: uint32(runFrom), To: math.MaxUint32, Outcome: runOutcome})

	for _, n := range [...]int32{math.MaxInt32, math.MinInt32, -1} {
		if policy.EvaluateSyscall(n) != runOutcome {
			die("seccomp: policy is inconsistent: default outcome %v disagrees with outcome %v for syscall number %d", runOutcome, policy.EvaluateSyscall(n), n)
		}
	}

	return ranges
}

// checkRangeTable verifies the range-table invariants assumed by the
// bytecode emitter: non-empty, starting at 0, ending at 2^32-1, and
// contiguous with no gap or overlap between adjacent ranges.
func checkRangeTable(ranges []Range) error {
	if len(ranges) == 0 {
		return fmt.Errorf("seccomp: empty range table")
	}
	if ranges[0].From != 0 {
		return fmt.Errorf("seccomp: range table starts at %d, not 0", ranges[0].From)
	}
	if last := ranges[len(ranges)-1].To; last != math.MaxUint32 {
		return fmt.Errorf("seccomp: range table ends at %d, not 2^32-1", last)
	}
	for i := 1; i < len(ranges); i++ {
		if ranges[i].From != ranges[i-1].To+1 {
			return fmt.Errorf("seccomp: range table has a gap or overlap between index %d (ends %d) and %d (starts %d)", i-1, ranges[i-1].To, i, ranges[i].From)
		}
	}
	return nil
}

// checkSanityPreconditions enforces the registration-time requirements
// on a policy before it is ever compiled: it must deny -1, INT32_MAX,
// INT32_MIN, and the numbers immediately outside [minSyscall,
// maxSyscall], and, on targets with a compat-mode syscall bank, it must
// deny representative numbers from that bank. These mirror properties
// the consistency check in findRanges would otherwise only catch at
// compile time, surfaced earlier and with a clearer diagnostic.
func checkSanityPreconditions(policy Policy) {
	mustDeny := []int32{-1, math.MaxInt32, math.MinInt32, minSyscall - 1, maxSyscall + 1}
	if compatBit != 0 {
		mustDeny = append(mustDeny, int32(uint32(minSyscall)|compatBit), int32(uint32(maxSyscall)|compatBit))
	}
	for _, n := range mustDeny {
		if !policy.EvaluateSyscall(n).Denied() {
			die("seccomp: policy registration rejected: syscall number %d must be denied, got %v", n, policy.EvaluateSyscall(n))
		}
	}
}
