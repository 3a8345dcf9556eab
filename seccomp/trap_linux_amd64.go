//go:build linux && amd64

package seccomp

import (
	"reflect"
	"unsafe"

	"github.com/can2020/sandbox/internal/sighandling"
	"golang.org/x/sys/unix"
)

// installSigSysHandler registers handleSigSys, via its assembly
// trampoline, as the process's SIGSYS handler, bypassing the Go
// runtime's own signal multiplexer: the kernel delivers SIGSYS
// synchronously, in the same thread and at the very instruction that
// attempted the denied syscall, and the handler's only job is to patch
// that thread's saved register state before returning, which the Go
// scheduler must not observe as an ordinary asynchronous signal.
//
// Start runs it before the filter is compiled and installed. Only
// SECCOMP_RET_TRAP actions (Trap outcomes) reach this handler: Errno
// and kill actions are carried out by the kernel directly and need no
// handler.
func installSigSysHandler() error {
	handler := reflect.ValueOf(sigsysTrampoline).Pointer()
	restorer := reflect.ValueOf(sigreturnTrampoline).Pointer()
	return sighandling.ReplaceSignalHandler(unix.SIGSYS, handler, restorer, saSigInfo|saNoDefer, nil)
}

// saSigInfo and saNoDefer are SA_SIGINFO and SA_NODEFER from
// <bits/sigaction.h>. Neither has an exported name in
// golang.org/x/sys/unix, for the same reason SA_RESTORER does not (see
// sighandling.saRestorer): ordinary Go programs never set sigaction
// flags themselves.
const (
	saSigInfo = 0x4
	saNoDefer = 0x40000000
)

// unblockSigSys unblocks SIGSYS for the calling thread. installSigSysHandler
// only registers the handler; per the installer's ordered steps, the
// handler must also be unblocked afterward, since nothing earlier in
// Start's sequence guarantees SIGSYS arrives at this thread's mask
// already unblocked (the probe's own mask manipulation, in
// probe_linux_amd64.go, only restores whatever mask preceded its own
// block-everything step and says nothing about this path).
func unblockSigSys() error {
	var set unix.Sigset_t
	bit := uint(unix.SIGSYS) - 1
	set.Val[bit/64] |= 1 << (bit % 64)
	return unix.PthreadSigmask(unix.SIG_UNBLOCK, &set, nil)
}

// sigsysTrampoline and sigreturnTrampoline are implemented in
// trap_linux_amd64.s. sigsysTrampoline receives the kernel's raw
// SA_SIGINFO arguments in the System V AMD64 calling convention (sig in
// DI, *siginfo_t in SI, *ucontext_t in DX) and relays them to
// handleSigSys with no Go runtime machinery in between.
// sigreturnTrampoline is the matching SA_RESTORER target.
func sigsysTrampoline()
func sigreturnTrampoline()

// siginfoCode reports a siginfo_t's si_code. On every Linux architecture the
// first three members of siginfo_t are int si_signo, si_errno,
// si_code, in that order with no padding, so offset 8 is portable.
func siginfoCode(info unsafe.Pointer) int32 {
	return *(*int32)(unsafe.Pointer(uintptr(info) + 8))
}

// ucontextOffsetRAX is uc_mcontext.gregs[REG_RAX] expressed as a byte
// offset from the start of ucontext_t, for x86_64 glibc's layout: 8
// (uc_flags) + 8 (uc_link) + 24 (uc_stack) bytes of header, then
// sigcontext's rax field at offset 104 within uc_mcontext.
const ucontextOffsetRAX = 8 + 8 + 24 + 104

// handleSigSys is called directly by sigsysTrampoline for every SIGSYS
// the kernel delivers. It must be async-signal-safe: no allocation, no
// locks, no calls into anything that might touch the Go scheduler. A
// seccomp-generated SIGSYS always has si_code == SYS_SECCOMP; anything
// else reaching this handler means some other part of the process
// installed a conflicting SIGSYS source, which this package cannot
// recover from safely, so it kills the process rather than return into
// undefined register state.
func handleSigSys(sig int32, info unsafe.Pointer, ctx unsafe.Pointer) {
	const sysSeccomp = 1 // SYS_SECCOMP, from <linux/signal.h>
	if sig != int32(unix.SIGSYS) || info == nil || ctx == nil || siginfoCode(info) != sysSeccomp {
		rawExitGroup(125)
	}
	rax := (*uint64)(unsafe.Pointer(uintptr(ctx) + ucontextOffsetRAX))
	errno := int64(-defaultDenyErrno)
	*rax = uint64(errno)
}
