package seccomp

// Policy classifies every possible 32-bit system call number. It is
// expected to be a pure, deterministic function: the compiler and the
// debug verifier each evaluate it multiple times at the same number and
// assume equal results.
type Policy interface {
	EvaluateSyscall(sysno int32) Outcome
}

// ArgPolicy refines a syscall's outcome using its arguments. It exists
// to mirror the two-evaluator shape this package's model is derived
// from, but it is not implemented: SetPolicy rejects any non-nil
// ArgPolicy, since it would only be meaningful alongside InspectArg
// outcomes, which the compiler also rejects.
type ArgPolicy interface {
	EvaluateArguments(sysno int32, args [6]uint64) Outcome
}

// PolicyFunc adapts a plain function to a Policy.
type PolicyFunc func(sysno int32) Outcome

// EvaluateSyscall calls f.
func (f PolicyFunc) EvaluateSyscall(sysno int32) Outcome { return f(sysno) }
