package vm

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerializeDeserialize(t *testing.T) {
	code, constants := canonicalProgram()
	program := &Program{
		Code:      code,
		Constants: append(constants, MakeVector(0.1, -2.5, 1e6, 3)),
		Inputs:    3,
		Outputs:   1,
	}

	data, err := SerializeProgram(program)
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}

	// Verify magic header
	if string(data[:4]) != BytecodeMagic {
		t.Errorf("expected magic %q, got %q", BytecodeMagic, string(data[:4]))
	}

	restored, err := DeserializeProgram(data)
	if err != nil {
		t.Fatalf("DeserializeProgram failed: %v", err)
	}
	if diff := cmp.Diff(program, restored); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_Canonical(t *testing.T) {
	code, constants := canonicalProgram()
	p := &Program{Code: code, Constants: constants, Inputs: 3, Outputs: 1}

	a, err := SerializeProgram(p)
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}
	b, err := SerializeProgram(&Program{Code: code, Constants: constants, Inputs: 3, Outputs: 1})
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("encoding not stable (-a +b):\n%s", diff)
	}
}

func TestDeserialize_Errors(t *testing.T) {
	good, err := SerializeProgram(&Program{Code: []byte{byte(OpDone)}})
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}

	badVersion := append([]byte(nil), good...)
	badVersion[4] = 99

	// Header claims a 4 GiB body in front of a few bytes.
	hugeLen := append([]byte(nil), good[:6]...)
	hugeLen = append(hugeLen, 0xFF, 0xFF, 0xFF, 0xFF)
	hugeLen = append(hugeLen, good[10:]...)

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"bad magic", append([]byte("NOPE"), good[4:]...), ErrInvalidMagic},
		{"bad version", badVersion, ErrInvalidVersion},
		{"huge body length", hugeLen, ErrTruncatedBody},
		{"short body", good[:len(good)-1], ErrTruncatedBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeserializeProgram(tt.data); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	for _, n := range []int{0, 3, 5, 9, len(good) - 1} {
		if _, err := DeserializeProgram(good[:n]); err == nil {
			t.Errorf("expected error for %d-byte prefix", n)
		}
	}
}

func TestDeserialize_ThenExec(t *testing.T) {
	code, constants := canonicalProgram()
	data, err := SerializeProgram(&Program{Code: code, Constants: constants, Inputs: 3, Outputs: 1})
	if err != nil {
		t.Fatalf("SerializeProgram failed: %v", err)
	}
	p, err := DeserializeProgram(data)
	if err != nil {
		t.Fatalf("DeserializeProgram failed: %v", err)
	}

	lanes := rampLanes(4)
	out := make([]Vector, 4)
	if err := p.Exec(NewVM(), [][]Vector{lanes, lanes, lanes}, [][]Vector{out}, 4); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if out[3] != Splat(-20) {
		t.Errorf("expected (-20, -20, -20, -20), got %v", out[3])
	}
}

func TestDisassemble(t *testing.T) {
	code, constants := canonicalProgram()
	text := Disassemble(&Program{
		Code:      code,
		Constants: append(constants, MakeVector(1, 2, 3, 4)),
		Inputs:    3,
		Outputs:   1,
	})

	for _, want := range []string{
		"; 33 bytes, 5 constants, 3 inputs, 1 outputs",
		".const 1 5\n",
		".const 2 -20\n",
		".const 4 1, 2, 3, 4\n",
		"mul        r0, i0, i0",
		"; 0005 Multiply-Add\n",
		"add        r1, r0, c1            ; 0011 Add\n",
		"clamp      o0, r0, c2, c3",
		"done                             ; 0020\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("disassembly missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "; error:") {
		t.Errorf("unexpected error in disassembly:\n%s", text)
	}
}

func TestDisassemble_ReportsError(t *testing.T) {
	code := NewBuilder().Emit(OpNeg, R(0), R(1)).Raw(0xEE).Bytes()
	text := Disassemble(&Program{Code: code})

	if !strings.Contains(text, "neg        r0, r1                ; 0000 Negate") {
		t.Errorf("expected decoded prefix:\n%s", text)
	}
	if !strings.Contains(text, "; error: unknown opcode: 0xee at offset 4") {
		t.Errorf("expected error comment:\n%s", text)
	}
}
