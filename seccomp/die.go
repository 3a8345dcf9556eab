package seccomp

import (
	"fmt"

	"github.com/can2020/sandbox/internal/log"
)

// FatalError is the panic value die raises. Installation and policy
// registration have no partial-failure mode: either they complete, or
// the process is in a state this package considers too dangerous to
// return from normally.
type FatalError struct {
	msg string
}

func (e *FatalError) Error() string { return e.msg }

// die formats a diagnostic, logs it, and panics. It is this package's
// single abort path for programmer errors, environmental errors, and
// post-install errors (the three non-recoverable categories); a Status
// enum covers the one category that is not an abort (kernel or
// thread-count conditions the caller can legitimately observe and react
// to). die is never called from the probe's forked child or from the
// SIGSYS trap handler, where panicking is not safe.
func die(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warningf("%s", msg)
	panic(&FatalError{msg: msg})
}
