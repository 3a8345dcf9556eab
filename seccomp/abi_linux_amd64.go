//go:build linux && amd64

package seccomp

// Kernel ABI constants for the seccomp_data record and the amd64 native
// audit architecture value. Keeping every architecture-dependent
// constant in one file per target, rather than computing offsets near
// their use, is deliberate: §9's design notes call out scattered
// offsetof-style computation as a source of bugs in this kind of code.
const (
	// AUDIT_ARCH_X86_64, from <linux/audit.h>: EM_X86_64 (62) OR'd with
	// __AUDIT_ARCH_64BIT and __AUDIT_ARCH_LE.
	auditArch uint32 = 0xc000003e

	// __X32_SYSCALL_BIT: numbers with this bit set belong to the x32
	// compat ABI's syscall bank, which this build does not support.
	compatBit uint32 = 0x40000000

	// minSyscall and maxSyscall bound the contiguous amd64 native
	// syscall-number table findRanges and the debug verifier sweep. This
	// is a practical upper bound on currently-assigned numbers, not a
	// kernel-enforced limit; a number just above it is still a valid
	// int32 the policy must classify, which is exactly what the
	// maxSyscall+1 sanity check and the final range's default outcome
	// are for.
	minSyscall int32 = 0
	maxSyscall int32 = 460

	// defaultDenyErrno is the errno synthesized by the SIGSYS trap
	// handler, and the safety-net return appended after the last range.
	defaultDenyErrno = 1 // EPERM

	seccompDataOffsetNR     = 0
	seccompDataOffsetArch   = 4
	seccompDataOffsetIPLow  = 8
	seccompDataOffsetIPHigh = 12
)
