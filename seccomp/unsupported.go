//go:build !(linux && amd64)

package seccomp

import (
	"errors"

	"github.com/can2020/sandbox/internal/bpf"
)

// This package's filter compiler, installer, and kernel probe are all
// written directly against the amd64 seccomp_data layout and BPF
// opcodes; on any other target, Supports always resolves to
// StatusUnsupported without attempting any of it. minSyscall and
// maxSyscall degenerate to a one-entry table (syscall 0), which keeps findRanges and
// the sanity-precondition check well-defined rather than special-cased.
const (
	compatBit        uint32 = 0
	minSyscall       int32  = 0
	maxSyscall       int32  = 0
	defaultDenyErrno        = 1
)

var errUnsupportedArch = errors.New("seccomp: not implemented on this architecture")

func kernelSupportsSeccomp() bool {
	return false
}

func compileProgram(ranges []Range) ([]bpf.Instruction, error) {
	return nil, errUnsupportedArch
}

func installFilter(prog []bpf.Instruction) error {
	return errUnsupportedArch
}

func installSigSysHandler() error {
	return errUnsupportedArch
}

func unblockSigSys() error {
	return errUnsupportedArch
}

func verifyProgram(policy Policy, prog []bpf.Instruction, ranges []Range) {}
