// Command seccompcheck installs a small allowlist filter and then either
// makes an allowed call or a denied one, depending on -die. It exists to
// be run under a test harness that checks the process's exit status and
// signal, not as a general-purpose tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/can2020/sandbox/seccomp"
)

func main() {
	dieFlag := flag.Bool("die", false, "make a denied syscall instead of an allowed one")
	flag.Parse()

	allowed := map[int32]bool{
		int32(unix.SYS_ACCEPT):          true,
		int32(unix.SYS_ARCH_PRCTL):      true,
		int32(unix.SYS_BRK):             true,
		int32(unix.SYS_CLOCK_GETTIME):   true,
		int32(unix.SYS_CLONE):           true,
		int32(unix.SYS_CLOSE):           true,
		int32(unix.SYS_DUP):             true,
		int32(unix.SYS_EPOLL_CREATE1):   true,
		int32(unix.SYS_EPOLL_CTL):       true,
		int32(unix.SYS_EPOLL_PWAIT):     true,
		int32(unix.SYS_EXIT):            true,
		int32(unix.SYS_EXIT_GROUP):      true,
		int32(unix.SYS_FCNTL):           true,
		int32(unix.SYS_FSTAT):           true,
		int32(unix.SYS_FUTEX):           true,
		int32(unix.SYS_GETPID):          true,
		int32(unix.SYS_GETTID):          true,
		int32(unix.SYS_MADVISE):         true,
		int32(unix.SYS_MMAP):            true,
		int32(unix.SYS_MPROTECT):        true,
		int32(unix.SYS_MUNMAP):          true,
		int32(unix.SYS_NANOSLEEP):       true,
		int32(unix.SYS_OPENAT):          true,
		int32(unix.SYS_PREAD64):         true,
		int32(unix.SYS_READ):            true,
		int32(unix.SYS_RESTART_SYSCALL): true,
		int32(unix.SYS_RT_SIGACTION):    true,
		int32(unix.SYS_RT_SIGPROCMASK):  true,
		int32(unix.SYS_RT_SIGRETURN):    true,
		int32(unix.SYS_SCHED_YIELD):     true,
		int32(unix.SYS_SIGALTSTACK):     true,
		int32(unix.SYS_TGKILL):          true,
		int32(unix.SYS_WRITE):           true,
		int32(unix.SYS_WRITEV):          true,
	}

	// We choose a syscall unlikely to be used by the Go runtime itself,
	// even with race instrumentation enabled, so that flipping -die is
	// the only thing that determines whether it gets called.
	probe := int32(unix.SYS_UMASK)
	if !*dieFlag {
		allowed[probe] = true
	}

	policy := seccomp.PolicyFunc(func(sysno int32) seccomp.Outcome {
		if allowed[sysno] {
			return seccomp.Allow()
		}
		return seccomp.Trap()
	})

	seccomp.Default.SetPolicy(policy, nil)
	if status := seccomp.Default.Supports(); status != seccomp.StatusAvailable {
		fmt.Printf("seccomp not available: %s\n", status)
		os.Exit(1)
	}
	if err := seccomp.Default.Start(); err != nil {
		fmt.Printf("failed to install seccomp: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("filter installed")

	_, _, errno := unix.RawSyscall(uintptr(probe), 0, 0, 0)
	if errno != 0 {
		fmt.Printf("syscall was denied: %v\n", errno)
		os.Exit(3)
	}
	fmt.Println("syscall was allowed")
}
