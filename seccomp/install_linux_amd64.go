//go:build linux && amd64

package seccomp

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/can2020/sandbox/internal/bpf"
	"golang.org/x/sys/unix"
)

// installFilter issues the two-step kernel install: no-new-privs, then
// seccomp(2) in filter mode with thread-group synchronization. Either
// step failing is fatal to the caller (Start treats it as such); this
// function only reports the error, since "dry run" silence is the
// probe's concern (installFilterInChild), not this path's.
func installFilter(prog []bpf.Instruction) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// PR_SET_NO_NEW_PRIVS is per-thread, not per-thread-group, so we must
	// stay on this OS thread between setting it and calling seccomp(2)
	// below; SECCOMP_FILTER_FLAG_TSYNC then propagates the filter to
	// every other thread in the group.
	if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl(PR_SET_NO_NEW_PRIVS): %w", err)
	}

	filter := toSockFilter(prog)
	fprog := unix.SockFprog{Len: uint16(len(filter)), Filter: &filter[0]}
	tid, errno := seccompSyscall(unix.SECCOMP_SET_MODE_FILTER, unix.SECCOMP_FILTER_FLAG_TSYNC, unsafe.Pointer(&fprog))
	if errno != 0 {
		return errno
	}
	if tid != 0 {
		return fmt.Errorf("seccomp: filter failed to synchronize to thread %d", tid)
	}
	return nil
}

// installFilterInChild is installFilter's fork-child-safe counterpart,
// used only by the kernel-support probe. filter must already be in
// kernel sock_filter form, converted by the parent before forking: this
// function performs no heap allocation at all, and reports failure as a
// bare unix.Errno so the probe's dry run can stay silent about it.
//
//go:norace
//go:nosplit
func installFilterInChild(filter []unix.SockFilter) unix.Errno {
	if _, _, errno := unix.RawSyscall6(unix.SYS_PRCTL, unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0, 0); errno != 0 {
		return errno
	}

	fprog := unix.SockFprog{Len: uint16(len(filter)), Filter: &filter[0]}
	tid, errno := seccompSyscall(unix.SECCOMP_SET_MODE_FILTER, unix.SECCOMP_FILTER_FLAG_TSYNC, unsafe.Pointer(&fprog))
	if errno != 0 {
		return errno
	}
	if tid != 0 {
		return unix.ENOTUNIQ
	}
	return 0
}

//go:nosplit
func seccompSyscall(op, flags uint32, ptr unsafe.Pointer) (uintptr, unix.Errno) {
	n, _, errno := unix.RawSyscall(unix.SYS_SECCOMP, uintptr(op), uintptr(flags), uintptr(ptr))
	return n, errno
}

// toSockFilter copies prog into the kernel's struct sock_filter layout.
// The two types have identical field-for-field layout by construction
// (internal/bpf.Instruction exists precisely to mirror it), so this is a
// plain copy rather than a cast, to avoid relying on unsafe slice
// reinterpretation across package boundaries. It allocates, so it must
// run before any fork that needs its result in the child.
func toSockFilter(prog []bpf.Instruction) []unix.SockFilter {
	out := make([]unix.SockFilter, len(prog))
	for i, inst := range prog {
		out[i] = unix.SockFilter{Code: inst.Code, Jt: inst.Jt, Jf: inst.Jf, K: inst.K}
	}
	return out
}
