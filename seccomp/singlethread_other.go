//go:build !linux

package seccomp

func openProcSelf() (fd int, ok bool) { return -1, false }

func closeFD(fd int) {}

func isSingleThreaded(procFD int) bool { return true }
