//go:build linux && amd64

package seccomp

import (
	"encoding/binary"
	"math"

	"github.com/can2020/sandbox/internal/bpf"
)

// verifyProgram re-interprets prog, a program already compiled from
// ranges, against synthetic seccomp_data records for every syscall
// number in [minSyscall, maxSyscall] plus the boundary points outside
// that table, asserting its return action matches policy's outcome
// translated through the same outcome-to-action mapping the compiler
// uses. A mismatch means compileProgram produced a program that
// disagrees with the policy it was built from, which is a compiler bug,
// not a policy problem: it aborts immediately rather than let a
// miscompiled filter reach the kernel.
func verifyProgram(policy Policy, prog []bpf.Instruction, ranges []Range) {
	for sysno := minSyscall; sysno <= maxSyscall; sysno++ {
		verifyOne(policy, prog, sysno)
	}
	for _, sysno := range [...]int32{minSyscall - 1, maxSyscall + 1, math.MaxInt32, math.MinInt32, -1} {
		verifyOne(policy, prog, sysno)
	}
}

func verifyOne(policy Policy, prog []bpf.Instruction, sysno int32) {
	var in bpf.Input
	binary.LittleEndian.PutUint32(in[seccompDataOffsetNR:], uint32(sysno))
	binary.LittleEndian.PutUint32(in[seccompDataOffsetArch:], auditArch)

	got, err := bpf.Exec(prog, in)
	if err != nil {
		die("seccomp: verifier could not execute the compiled program for syscall %d: %v", sysno, err)
	}
	want, err := actionForOutcome(policy.EvaluateSyscall(sysno))
	if err != nil {
		die("seccomp: verifier could not compute the expected action for syscall %d: %v", sysno, err)
	}
	if got != want {
		die("seccomp: compiled filter disagrees with policy for syscall %d: got action 0x%x, want 0x%x", sysno, got, want)
	}
}
