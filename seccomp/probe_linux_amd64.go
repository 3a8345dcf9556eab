//go:build linux && amd64

package seccomp

import (
	"io"
	"os"
	"runtime"
	"syscall"

	"golang.org/x/sys/unix"
)

const probeDryRunExitCode = 100

// probePolicy is the probe child's filter: deny getpid with EPERM, allow
// exit_group, deny everything else with EINVAL. A successful probe run
// calls getpid, observes EPERM, and exits 100; any other outcome means
// either the kernel rejected the filter (no seccomp support) or this
// package's own compiler produced something wrong.
var probePolicy = PolicyFunc(func(sysno int32) Outcome {
	switch sysno {
	case int32(unix.SYS_GETPID):
		return Errno(int(unix.EPERM))
	case int32(unix.SYS_EXIT_GROUP):
		return Allow()
	default:
		return Errno(int(unix.EINVAL))
	}
})

// kernelSupportsSeccomp runs the fork-and-test probe and aborts the
// process if it reports a diagnostic: per §4.1, a probe failure that
// produced output on its diagnostic pipe indicates a bug in this
// package's own filter compiler or installer, not absence of kernel
// support, and absence of kernel support must never be conflated with
// "ran into a compiler bug but sandboxed anyway."
func kernelSupportsSeccomp() bool {
	ok, diagnostic := runKernelProbe()
	if diagnostic != "" {
		die("seccomp: kernel probe produced an unexpected diagnostic: %s", diagnostic)
	}
	return ok
}

func runKernelProbe() (ok bool, diagnostic string) {
	prog, err := compileProgram(findRanges(probePolicy))
	if err != nil {
		die("seccomp: failed to compile the kernel-support probe's own filter: %v", err)
	}
	// Converted here, in the parent, because the forked child below may
	// not allocate; toSockFilter's result is read-only COW memory by the
	// time the child touches it.
	filter := toSockFilter(prog)

	var oldmask unix.Sigset_t
	full := fullSignalSet()
	if err := unix.PthreadSigmask(unix.SIG_SETMASK, &full, &oldmask); err != nil {
		die("seccomp: failed to block signals before probing for kernel support: %v", err)
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		unix.PthreadSigmask(unix.SIG_SETMASK, &oldmask, nil)
		die("seccomp: failed to create the probe's diagnostic pipe: %v", err)
	}
	r, w := fds[0], fds[1]

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	syscall.ForkLock.Lock()
	pid, _, errno := unix.RawSyscall(unix.SYS_FORK, 0, 0, 0)
	syscall.ForkLock.Unlock()
	if errno != 0 {
		unix.Close(r)
		unix.Close(w)
		unix.PthreadSigmask(unix.SIG_SETMASK, &oldmask, nil)
		die("seccomp: fork failed while probing for kernel support: %v", errno)
	}

	if pid == 0 {
		probeChild(w, filter)
		// probeChild never returns; this is unreachable.
	}

	unix.Close(w)
	unix.PthreadSigmask(unix.SIG_SETMASK, &oldmask, nil)

	var ws unix.WaitStatus
	if _, err := unix.Wait4(int(pid), &ws, 0, nil); err != nil {
		unix.Close(r)
		die("seccomp: failed to wait for the probe child: %v", err)
	}

	if ws.Exited() && ws.ExitStatus() == probeDryRunExitCode {
		unix.Close(r)
		return true, ""
	}

	out, _ := io.ReadAll(os.NewFile(uintptr(r), "seccomp-probe"))
	return false, string(out)
}

// probeChild runs in the forked, single-threaded child between fork and
// exit. It must not allocate: the Go runtime's allocator may be holding
// locks on behalf of OS threads that no longer exist in this process
// image, so it touches only the pre-built filter slice and raw syscalls.
//
//go:norace
//go:nosplit
func probeChild(pipeWriteFD int, filter []unix.SockFilter) {
	unix.RawSyscall(unix.SYS_DUP2, uintptr(pipeWriteFD), 2, 0)

	if errno := installFilterInChild(filter); errno != 0 {
		rawExitGroup(1)
	}

	_, _, errno := unix.RawSyscall(unix.SYS_GETPID, 0, 0, 0)
	if errno == unix.EPERM {
		rawExitGroup(probeDryRunExitCode)
	}
	rawExitGroup(127)
}

//go:norace
//go:nosplit
func rawExitGroup(code int) {
	unix.RawSyscall(unix.SYS_EXIT_GROUP, uintptr(code), 0, 0)
}

func fullSignalSet() unix.Sigset_t {
	var set unix.Sigset_t
	for i := range set.Val {
		set.Val[i] = ^uint64(0)
	}
	return set
}
