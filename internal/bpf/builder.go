// Package bpf assists with constructing and executing small classic-BPF
// programs. It knows nothing about seccomp, sockets, or any particular
// kernel ABI: callers supply raw opcode/operand values (typically the
// BPF_* constants from golang.org/x/sys/unix) and byte offsets into
// whatever input record the program will run against.
package bpf

// Instruction is a single classic-BPF instruction: a 64-bit value laid
// out exactly like the kernel's struct sock_filter, so that a built
// program can be handed to the kernel with a field-by-field copy and no
// further translation.
type Instruction struct {
	Code uint16
	Jt   uint8
	Jf   uint8
	K    uint32
}

// Stmt returns a non-jump instruction (one with no conditional targets).
func Stmt(code uint16, k uint32) Instruction {
	return Instruction{Code: code, K: k}
}

// Jump returns a conditional or unconditional jump instruction. jt and jf
// are forward offsets, in instructions, taken when the condition is true
// or false respectively.
func Jump(code uint16, k uint32, jt, jf uint8) Instruction {
	return Instruction{Code: code, Jt: jt, Jf: jf, K: k}
}

// ProgramBuilder accumulates instructions into a program. Unlike a
// label-resolving assembler, it assumes every jump target is known at
// the point of emission, which holds for any program built from a linear
// decision chain: every conditional jump here skips at most the single
// instruction immediately following it.
type ProgramBuilder struct {
	instructions []Instruction
}

// NewProgramBuilder returns an empty ProgramBuilder.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{}
}

// Stmt appends a non-jump instruction.
func (b *ProgramBuilder) Stmt(code uint16, k uint32) {
	b.instructions = append(b.instructions, Stmt(code, k))
}

// Jump appends a jump instruction.
func (b *ProgramBuilder) Jump(code uint16, k uint32, jt, jf uint8) {
	b.instructions = append(b.instructions, Jump(code, k, jt, jf))
}

// Len returns the number of instructions emitted so far.
func (b *ProgramBuilder) Len() int {
	return len(b.instructions)
}

// Instructions returns the accumulated program.
func (b *ProgramBuilder) Instructions() []Instruction {
	return b.instructions
}
