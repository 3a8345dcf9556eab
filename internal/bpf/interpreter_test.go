package bpf

import "testing"

func twoRangeProgram() []Instruction {
	return []Instruction{
		Stmt(ldAbsW, 0),
		Jump(jmpJgtK, 10, 1, 0),
		Stmt(retK, 0xA11), // allow
		Stmt(retK, 0xDEAD),
	}
}

func TestExecSelectsRangeByValue(t *testing.T) {
	prog := twoRangeProgram()
	cases := []struct {
		a    uint32
		want uint32
	}{
		{0, 0xA11},
		{10, 0xA11},
		{11, 0xDEAD},
		{1 << 20, 0xDEAD},
	}
	for _, c := range cases {
		var in Input
		in[0], in[1], in[2], in[3] = byte(c.a), byte(c.a>>8), byte(c.a>>16), byte(c.a>>24)
		got, err := Exec(prog, in)
		if err != nil {
			t.Fatalf("Exec(%d): %v", c.a, err)
		}
		if got != c.want {
			t.Errorf("Exec(%d) = 0x%x, want 0x%x", c.a, got, c.want)
		}
	}
}

func TestExecRejectsOutOfBoundsLoad(t *testing.T) {
	prog := []Instruction{Stmt(ldAbsW, 61), Stmt(retK, 0)}
	if _, err := Exec(prog, Input{}); err == nil {
		t.Error("Exec with an out-of-bounds load: got nil error, want one")
	}
}

func TestExecRejectsFallingOffTheEnd(t *testing.T) {
	prog := []Instruction{Stmt(ldAbsW, 0)}
	if _, err := Exec(prog, Input{}); err == nil {
		t.Error("Exec with no terminating RET: got nil error, want one")
	}
}

func TestExecRejectsUnsupportedOpcode(t *testing.T) {
	prog := []Instruction{{Code: 0xFF}}
	if _, err := Exec(prog, Input{}); err == nil {
		t.Error("Exec with an unsupported opcode: got nil error, want one")
	}
}
