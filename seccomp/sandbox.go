package seccomp

import (
	"fmt"
	"sync"

	"github.com/can2020/sandbox/internal/log"
)

// Sandbox is the process's syscall-filtering handle. Exactly one policy
// may ever be registered with a given Sandbox, and Start may succeed at
// most once; after that the kernel enforces the filter independently of
// this object for the remaining lifetime of the process.
//
// A Sandbox is safe to share across goroutines in the sense that its
// methods take a lock, but the installation sequence itself assumes the
// process is single-threaded at the moment Start runs, per the
// single-threaded precondition Start enforces.
type Sandbox struct {
	mu sync.Mutex

	status Status

	haveProcFD bool
	procFD     int

	policyCount int
	policy      Policy
	argPolicy   ArgPolicy
}

// New returns a Sandbox in the initial Unknown state.
func New() *Sandbox {
	return &Sandbox{status: StatusUnknown, procFD: -1}
}

// Default is the process-wide Sandbox most callers should use: exactly
// one Sandbox per process mirrors the single, irrevocable kernel filter
// it installs. Tests that need an isolated Status lifecycle should use
// New instead.
var Default = New()

// SetProcFD supplies a file descriptor open on /proc, used for the
// single-threaded check. The Sandbox takes ownership of fd: Start closes
// it before filter installation, and a later SetProcFD or
// ResetForTesting closes the one it replaces; if Start never gets that
// far, fd stays open. Supplying one is
// optional; without it, Supports and Start fall back to opening /proc
// themselves, tolerating failure as a degraded mode.
func (s *Sandbox) SetProcFD(fd int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.haveProcFD && s.procFD >= 0 {
		closeFD(s.procFD)
	}
	s.procFD = fd
	s.haveProcFD = true
}

// SetPolicy registers policy as the sandbox's sole source of truth for
// syscall outcomes. args must be nil: argument-inspecting policies are
// reserved for a future extension and are rejected here rather than
// accepted and silently ignored. SetPolicy may be called at most once
// per Sandbox; a policy that fails its sanity preconditions (it must
// deny -1, the int32 extremes, and the numbers just outside the
// syscall-number range) aborts the process, since those are the
// conditions that make the default-outcome promise checkable later.
func (s *Sandbox) SetPolicy(policy Policy, args ArgPolicy) {
	if policy == nil {
		die("seccomp: SetPolicy called with a nil policy")
	}
	if args != nil {
		die("seccomp: SetPolicy called with a non-nil ArgPolicy, which is not implemented")
	}
	checkSanityPreconditions(policy)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policyCount > 0 {
		die("seccomp: a policy is already registered on this sandbox; policy stacking is not supported")
	}
	s.policy = policy
	s.argPolicy = args
	s.policyCount++
}

// Supports reports the sandbox's current advisory status, reconfirming
// thread-count-dependent transitions (Available <-> Unavailable) and
// running the one-time kernel probe on first call. It never mutates
// Enabled or Unsupported, which are permanent for the process.
func (s *Sandbox) Supports() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supportsLocked()
}

func (s *Sandbox) supportsLocked() Status {
	switch s.status {
	case StatusEnabled, StatusUnsupported:
		return s.status
	case StatusAvailable:
		if !s.singleThreadedLocked() {
			s.status = StatusUnavailable
		}
		return s.status
	case StatusUnavailable:
		if s.singleThreadedLocked() {
			s.status = StatusAvailable
		}
		return s.status
	default: // StatusUnknown
		if !kernelSupportsSeccomp() {
			s.status = StatusUnsupported
			return s.status
		}
		if s.singleThreadedLocked() {
			s.status = StatusAvailable
		} else {
			s.status = StatusUnavailable
		}
		return s.status
	}
}

func (s *Sandbox) singleThreadedLocked() bool {
	if s.haveProcFD {
		return isSingleThreaded(s.procFD)
	}
	fd, ok := openProcSelf()
	if !ok {
		return isSingleThreaded(-1)
	}
	defer closeFD(fd)
	return isSingleThreaded(fd)
}

// Start compiles the registered policy and installs it as the process's
// seccomp-BPF filter. It returns an error only for the conditions §7
// classifies as expected negative outcomes (wrong starting Status); any
// other failure along the way is a programmer, environmental, or
// post-install error and aborts the process outright, since there is no
// safe way to report "the sandbox might or might not be enforced."
//
// Start is irreversible: on success, s.Supports subsequently always
// returns StatusEnabled, and there is no way to install a different
// filter afterward.
func (s *Sandbox) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusUnsupported, StatusUnavailable, StatusEnabled:
		return fmt.Errorf("seccomp: cannot start from status %s", s.status)
	}
	if s.status == StatusUnknown {
		s.supportsLocked()
	}
	if s.status != StatusAvailable {
		return fmt.Errorf("seccomp: cannot start from status %s", s.status)
	}

	if !s.haveProcFD {
		if fd, ok := openProcSelf(); ok {
			s.procFD = fd
			s.haveProcFD = true
		}
	}
	if !s.singleThreadedLocked() {
		die("seccomp: process became multi-threaded between Supports and Start")
	}
	if s.haveProcFD && s.procFD >= 0 {
		closeFD(s.procFD)
	}
	s.procFD = -1
	s.haveProcFD = false

	if err := installSigSysHandler(); err != nil {
		die("seccomp: failed to install the SIGSYS trap handler: %v", err)
	}
	if err := unblockSigSys(); err != nil {
		die("seccomp: failed to unblock SIGSYS after installing its handler: %v", err)
	}

	if s.policyCount != 1 {
		die("seccomp: exactly one policy must be registered before Start, got %d", s.policyCount)
	}

	ranges := findRanges(s.policy)
	prog, err := compileProgram(ranges)
	if err != nil {
		die("seccomp: %v", err)
	}

	if log.IsLogging(log.Debug) {
		log.Debugf("seccomp: compiled %d range(s) into a %d-instruction program", len(ranges), len(prog))
		for _, rg := range ranges {
			log.Debugf("seccomp: range [%d, %d] -> %v", rg.From, rg.To, rg.Outcome)
		}
	}

	if VerifyOnInstall {
		verifyProgram(s.policy, prog, ranges)
	}

	if err := installFilter(prog); err != nil {
		die("seccomp: kernel rejected filter installation: %v", err)
	}

	s.status = StatusEnabled
	log.Infof("seccomp: filter installed, sandbox enabled")
	return nil
}
