package seccomp

// Status is the advisory, process-wide state of a Sandbox.
//
// Transitions: Unknown -> {Unsupported | Available | Unavailable}; Available <->
// Unavailable as the process's thread count changes; Available ->
// Enabled via Start, which is terminal. There is no transition out of
// Unsupported or Enabled.
type Status int

const (
	// StatusUnknown is the initial state, before any probe has run.
	StatusUnknown Status = iota
	// StatusUnsupported means the running kernel does not support
	// seccomp-BPF filtering at all. This is permanent for the process.
	StatusUnsupported
	// StatusAvailable means the kernel supports filtering and the process
	// is currently single-threaded.
	StatusAvailable
	// StatusUnavailable means the kernel supports filtering but the
	// process is currently multi-threaded; it may return to Available.
	StatusUnavailable
	// StatusEnabled means a filter has been installed. Terminal.
	StatusEnabled
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "Unknown"
	case StatusUnsupported:
		return "Unsupported"
	case StatusAvailable:
		return "Available"
	case StatusUnavailable:
		return "Unavailable"
	case StatusEnabled:
		return "Enabled"
	default:
		return "Status(invalid)"
	}
}
