//go:build linux

package seccomp

import (
	"testing"

	"golang.org/x/sys/unix"
)

// TestIsSingleThreadedNoProcFD checks the one case that is allowed to
// report single-threaded optimistically: no /proc descriptor at all.
func TestIsSingleThreadedNoProcFD(t *testing.T) {
	if !isSingleThreaded(-1) {
		t.Errorf("isSingleThreaded(-1) = false, want true")
	}
}

// TestIsSingleThreadedOpenFailure passes a procFD that is open but not
// a directory, so Openat("self/task") fails with ENOTDIR. A present,
// failing descriptor must report false, not fall back to the
// degraded-mode true: only the absence of a descriptor does that.
func TestIsSingleThreadedOpenFailure(t *testing.T) {
	fd, err := unix.Open("/dev/null", unix.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("opening /dev/null: %v", err)
	}
	defer unix.Close(fd)

	if isSingleThreaded(fd) {
		t.Errorf("isSingleThreaded(%d) = true, want false for a non-directory procFD", fd)
	}
}

// TestIsSingleThreadedWrongDirectory passes a directory fd that isn't
// /proc at all, so self/task doesn't exist under it and the Openat
// fails with ENOENT. Like the /dev/null case, a present descriptor
// whose lookup fails must report false. The Fstat failure path is not
// exercised here: forcing it would mean racing the function's own fd.
func TestIsSingleThreadedWrongDirectory(t *testing.T) {
	fd, err := unix.Open("/tmp", unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		t.Fatalf("opening /tmp: %v", err)
	}
	defer unix.Close(fd)

	if isSingleThreaded(fd) {
		t.Errorf("isSingleThreaded(%d) = true, want false when self/task does not exist under procFD", fd)
	}
}

// TestIsSingleThreadedRealProc sanity-checks the success path against
// the real /proc: a Go test binary runs with multiple OS threads (the
// runtime's own sysmon and GC workers, if nothing else), so this
// process must not report single-threaded.
func TestIsSingleThreadedRealProc(t *testing.T) {
	fd, ok := openProcSelf()
	if !ok {
		t.Skip("/proc not available")
	}
	defer closeFD(fd)

	if isSingleThreaded(fd) {
		t.Errorf("isSingleThreaded(%d) = true for a real multi-threaded test binary, want false", fd)
	}
}
