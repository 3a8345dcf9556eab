// Copyright 2018 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

// Package sighandling installs raw signal handlers that bypass the Go
// runtime's signal multiplexer entirely, for the rare case where a
// handler must run exactly as the kernel invokes it (no g, no scheduler,
// no signal.Notify channel) because it patches the interrupted machine
// context directly.
package sighandling

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// kernelSigaction mirrors the kernel's struct sigaction layout for
// amd64/arm64 Linux: handler pointer, flags, restorer pointer, and an
// 8-byte mask (one uint64, enough for the first 64 signals; this module
// never needs to block real-time signals while the handler it installs
// runs).
type kernelSigaction struct {
	handler  uintptr
	flags    uint64
	restorer uintptr
	mask     uint64
}

const sigactionMaskSize = 8

// ReplaceSignalHandler installs handlerAddr (the address of a function,
// typically obtained via reflect.ValueOf(fn).Pointer() on a function
// declared in assembly) as the SA_SIGINFO handler for sig, bypassing the
// Go runtime's signal handling entirely. This must only be used for
// handlers written to the raw sa_sigaction calling convention; ordinary
// Go functions are not safe to install this way.
//
// restorerAddr must be the address of a function that performs
// rt_sigreturn: x86_64 Linux has no built-in fallback trampoline the way
// 32-bit did, so bypassing glibc's sigaction (which always supplies its
// own restorer) means this package must supply one itself or the kernel
// will refuse, or fault, on return from the handler. ReplaceSignalHandler
// always requests SA_RESTORER; callers do not set it in flags.
//
// The address of the signal's previous handler is stored in *previous,
// if previous is non-nil, so a caller that wants to chain to it can do
// so (this module does not; SIGSYS has no legitimate prior handler).
func ReplaceSignalHandler(sig unix.Signal, handlerAddr, restorerAddr uintptr, flags uint64, previous *uintptr) error {
	var sa kernelSigaction
	if _, _, e := unix.RawSyscall6(unix.SYS_RT_SIGACTION, uintptr(sig), 0, uintptr(unsafe.Pointer(&sa)), sigactionMaskSize, 0, 0); e != 0 {
		return e
	}
	if previous != nil {
		*previous = sa.handler
	}

	sa.handler = handlerAddr
	sa.flags = flags | saRestorer
	sa.restorer = restorerAddr
	if _, _, e := unix.RawSyscall6(unix.SYS_RT_SIGACTION, uintptr(sig), uintptr(unsafe.Pointer(&sa)), 0, sigactionMaskSize, 0, 0); e != 0 {
		return e
	}
	return nil
}

// saRestorer is SA_RESTORER, from <bits/sigaction.h>. It has no
// exported name in golang.org/x/sys/unix because ordinary Go programs
// never set it themselves; the runtime's own signal handling supplies
// a restorer without this package's help.
const saRestorer = 0x04000000
