//go:build linux && amd64

package seccomp

import "testing"

func validPolicy() PolicyFunc {
	return func(sysno int32) Outcome {
		if sysno == int32(42) {
			return Allow()
		}
		return Errno(1)
	}
}

func TestSetPolicyRejectsArgPolicy(t *testing.T) {
	s := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected SetPolicy to panic via die on a non-nil ArgPolicy")
		}
	}()
	s.SetPolicy(validPolicy(), argPolicyStub{})
}

type argPolicyStub struct{}

func (argPolicyStub) EvaluateArguments(int32, [6]uint64) Outcome { return Allow() }

func TestSetPolicyRejectsSecondRegistration(t *testing.T) {
	s := New()
	s.SetPolicy(validPolicy(), nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected the second SetPolicy call to panic via die")
		}
	}()
	s.SetPolicy(validPolicy(), nil)
}

func TestSetPolicyRejectsNilPolicy(t *testing.T) {
	s := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected SetPolicy(nil, ...) to panic via die")
		}
	}()
	s.SetPolicy(nil, nil)
}

func TestResetForTestingReturnsToUnknown(t *testing.T) {
	s := New()
	s.SetPolicy(validPolicy(), nil)
	s.status = StatusEnabled // simulate a completed Start without a real kernel install

	s.ResetForTesting()

	if s.status != StatusUnknown {
		t.Errorf("status after ResetForTesting = %s, want %s", s.status, StatusUnknown)
	}
	if s.policyCount != 0 {
		t.Errorf("policyCount after ResetForTesting = %d, want 0", s.policyCount)
	}
	if s.policy != nil {
		t.Error("policy after ResetForTesting should be nil")
	}
}

func TestStartRejectsWrongStatus(t *testing.T) {
	s := New()
	s.SetPolicy(validPolicy(), nil)
	s.status = StatusUnsupported

	if err := s.Start(); err == nil {
		t.Fatal("expected Start to return an error from StatusUnsupported")
	}
}

func TestStatusStringsAreDistinct(t *testing.T) {
	seen := map[string]Status{}
	for _, s := range []Status{StatusUnknown, StatusUnsupported, StatusAvailable, StatusUnavailable, StatusEnabled} {
		str := s.String()
		if other, ok := seen[str]; ok {
			t.Errorf("Status %d and %d both stringify to %q", other, s, str)
		}
		seen[str] = s
	}
}
