package bpf

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProgramBuilderAccumulatesInOrder(t *testing.T) {
	b := NewProgramBuilder()
	b.Stmt(ldAbsW, 0)
	b.Jump(jmpJgtK, 10, 1, 0)
	b.Stmt(retK, 1)
	b.Stmt(retK, 2)

	want := []Instruction{
		{Code: ldAbsW, K: 0},
		{Code: jmpJgtK, K: 10, Jt: 1, Jf: 0},
		{Code: retK, K: 1},
		{Code: retK, K: 2},
	}
	if diff := cmp.Diff(want, b.Instructions()); diff != "" {
		t.Errorf("Instructions() mismatch (-want +got):\n%s", diff)
	}
	if got := b.Len(); got != 4 {
		t.Errorf("Len() = %d, want 4", got)
	}
}
