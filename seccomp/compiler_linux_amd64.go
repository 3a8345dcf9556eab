//go:build linux && amd64

package seccomp

import (
	"fmt"

	"github.com/can2020/sandbox/internal/bpf"
	"golang.org/x/sys/unix"
)

// compileProgram emits a filter program from ranges: a fixed
// architecture-check prologue followed by one JGT/RET pair per range, in
// order (§4.3). This is deliberately a linear decision chain rather
// than a balanced search tree; §9 calls a tree out explicitly as a valid
// future optimization, not a requirement, as long as it still passes
// the exhaustive equivalence check the debug verifier performs.
func compileProgram(ranges []Range) ([]bpf.Instruction, error) {
	if err := checkRangeTable(ranges); err != nil {
		return nil, err
	}

	b := bpf.NewProgramBuilder()

	// A = seccomp_data.arch; if A != our arch, kill.
	b.Stmt(unix.BPF_LD|unix.BPF_W|unix.BPF_ABS, seccompDataOffsetArch)
	b.Jump(unix.BPF_JMP|unix.BPF_JEQ|unix.BPF_K, auditArch, 1, 0)
	b.Stmt(unix.BPF_RET|unix.BPF_K, actionKill)

	// A = seccomp_data.nr; if A has the compat-mode bit set, kill: this
	// build only targets the native amd64 syscall table.
	b.Stmt(unix.BPF_LD|unix.BPF_W|unix.BPF_ABS, seccompDataOffsetNR)
	b.Jump(unix.BPF_JMP|unix.BPF_JSET|unix.BPF_K, compatBit, 0, 1)
	b.Stmt(unix.BPF_RET|unix.BPF_K, actionKill)

	for _, rg := range ranges {
		action, err := actionForOutcome(rg.Outcome)
		if err != nil {
			return nil, err
		}
		if rg.To == 0xFFFFFFFF {
			b.Stmt(unix.BPF_RET|unix.BPF_K, action)
			continue
		}
		b.Jump(unix.BPF_JMP|unix.BPF_JGT|unix.BPF_K, rg.To, 1, 0)
		b.Stmt(unix.BPF_RET|unix.BPF_K, action)
	}

	// Belt-and-suspenders: unreachable if the range table is well-formed,
	// since its last range always ends at 2^32-1 and is handled above.
	b.Stmt(unix.BPF_RET|unix.BPF_K, actionErrno(defaultDenyErrno))

	return b.Instructions(), nil
}

var actionKill = uint32(unix.SECCOMP_RET_KILL_PROCESS)

func actionForOutcome(o Outcome) (uint32, error) {
	switch {
	case o.kind == kindAllow:
		return unix.SECCOMP_RET_ALLOW, nil
	case o.kind == kindTrap:
		return unix.SECCOMP_RET_TRAP, nil
	case o.kind == kindErrno:
		return actionErrno(o.errno), nil
	case o.kind == kindKill:
		return actionKill, nil
	case o.kind == kindInspectArg:
		return 0, fmt.Errorf("InspectArg(%d) outcome reached compilation: argument inspection is not implemented", o.arg)
	default:
		return 0, fmt.Errorf("unrecognized outcome %v", o)
	}
}

func actionErrno(e int) uint32 {
	return unix.SECCOMP_RET_ERRNO | (uint32(e) & unix.SECCOMP_RET_DATA)
}
