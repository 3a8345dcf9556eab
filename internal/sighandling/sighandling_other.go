//go:build !linux

package sighandling

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ReplaceSignalHandler is unsupported outside Linux: there is no portable
// raw sigaction calling convention to target.
func ReplaceSignalHandler(sig unix.Signal, handlerAddr, restorerAddr uintptr, flags uint64, previous *uintptr) error {
	return errors.New("sighandling: ReplaceSignalHandler is only supported on linux")
}
