package bpf

import (
	"encoding/binary"
	"fmt"
)

// Input is the fixed-size record a program's LOAD_W_ABS offsets index
// into. 64 bytes is large enough to hold a seccomp_data record (16-byte
// header plus six 8-byte argument words) on every architecture this
// module targets.
type Input [64]byte

func (in Input) load32(off uint32) (uint32, error) {
	if int64(off)+4 > int64(len(in)) {
		return 0, fmt.Errorf("bpf: load at offset %d overruns %d-byte input", off, len(in))
	}
	return binary.LittleEndian.Uint32(in[off : off+4]), nil
}

// Exec runs prog against in and returns the value of the first RET
// instruction reached. It supports exactly the subset of classic BPF
// this module's compiler emits: 32-bit absolute loads, K-immediate
// JEQ/JGT/JSET, and K-immediate returns. Any other opcode, an
// out-of-bounds load, or an out-of-bounds jump is reported as an error
// rather than silently producing a wrong answer, since this function's
// only caller is a correctness verifier.
func Exec(prog []Instruction, in Input) (uint32, error) {
	var a uint32
	pc := 0
	steps := 0
	for {
		if pc < 0 || pc >= len(prog) {
			return 0, fmt.Errorf("bpf: program counter %d out of range (len=%d)", pc, len(prog))
		}
		// A linear decision chain cannot loop; this bound only exists to
		// turn a bug that introduces a cycle into an error instead of a
		// hang.
		steps++
		if steps > 4*len(prog)+16 {
			return 0, fmt.Errorf("bpf: program did not terminate within %d steps", steps)
		}

		inst := prog[pc]
		switch inst.Code {
		case ldAbsW:
			v, err := in.load32(inst.K)
			if err != nil {
				return 0, err
			}
			a = v
			pc++

		case jmpJeqK:
			pc += branch(a == inst.K, inst)

		case jmpJgtK:
			pc += branch(a > inst.K, inst)

		case jmpJsetK:
			pc += branch(a&inst.K != 0, inst)

		case retK:
			return inst.K, nil

		default:
			return 0, fmt.Errorf("bpf: unsupported instruction code 0x%x at pc %d", inst.Code, pc)
		}
	}
}

func branch(cond bool, inst Instruction) int {
	if cond {
		return int(inst.Jt) + 1
	}
	return int(inst.Jf) + 1
}

// The opcode values below mirror the BPF_LD|BPF_ABS|BPF_W,
// BPF_JMP|BPF_JEQ|BPF_K, BPF_JMP|BPF_JGT|BPF_K, BPF_JMP|BPF_JSET|BPF_K and
// BPF_RET|BPF_K combinations from linux/filter.h (equivalently,
// golang.org/x/sys/unix's BPF_* constants). They are duplicated here,
// rather than imported, so that this package has no platform
// dependency: a program built from unix.BPF_* constants on linux/amd64
// compares equal to these because classic BPF's opcode encoding is
// architecture-independent.
const (
	ldAbsW   = 0x00 | 0x20 | 0x00 // BPF_LD | BPF_ABS | BPF_W
	jmpJeqK  = 0x05 | 0x10 | 0x00 // BPF_JMP | BPF_JEQ | BPF_K
	jmpJgtK  = 0x05 | 0x20 | 0x00 // BPF_JMP | BPF_JGT | BPF_K
	jmpJsetK = 0x05 | 0x40 | 0x00 // BPF_JMP | BPF_JSET | BPF_K
	retK     = 0x06 | 0x00        // BPF_RET | BPF_K
)
