package vm

import (
	"errors"
	"testing"
)

func TestOpInfoAt_Clamps(t *testing.T) {
	last := NumOpInfos() - 1

	if got := OpInfoAt(last + 10); got.Op != OpInvalid || got.Name != "invalid" {
		t.Errorf("expected invalid sentinel above range, got %+v", got)
	}
	if got := OpInfoAt(1 << 20); got != OpInfoAt(last) {
		t.Errorf("expected clamp to last entry, got %+v", got)
	}
	if got := OpInfoAt(-3); got != OpInfoAt(0) {
		t.Errorf("expected clamp to first entry, got %+v", got)
	}
	if got := OpInfoAt(0); got.Op != OpDone {
		t.Errorf("expected done at index 0, got %+v", got)
	}
}

func TestLookupOpInfo(t *testing.T) {
	if _, err := LookupOpInfo(NumOpInfos()); !errors.Is(err, ErrOpInfoIndex) {
		t.Errorf("expected ErrOpInfoIndex, got %v", err)
	}
	if _, err := LookupOpInfo(-1); !errors.Is(err, ErrOpInfoIndex) {
		t.Errorf("expected ErrOpInfoIndex, got %v", err)
	}
	info, err := LookupOpInfo(1)
	if err != nil {
		t.Fatalf("LookupOpInfo(1) failed: %v", err)
	}
	if info != OpInfoAt(1) {
		t.Errorf("checked and clamped lookups disagree: %+v vs %+v", info, OpInfoAt(1))
	}
}

func TestInfoFor(t *testing.T) {
	tests := []struct {
		op          Opcode
		name        string
		implemented bool
		commutative bool
	}{
		{OpAdd, "Add", true, true},
		{OpSub, "Sub", true, false},
		{OpMad, "Multiply-Add", true, true},
		{OpClamp, "Clamp", true, false},
		{OpCross, "Cross Product", true, true},
		{OpTexLookup, "tex1d", false, false},
	}

	for _, tt := range tests {
		info, ok := InfoFor(tt.op)
		if !ok {
			t.Errorf("%s: no metadata entry", tt.op)
			continue
		}
		if info.Name != tt.name {
			t.Errorf("%s: expected name %q, got %q", tt.op, tt.name, info.Name)
		}
		if info.Implemented() != tt.implemented {
			t.Errorf("%s: expected implemented=%v", tt.op, tt.implemented)
		}
		if info.Commutative() != tt.commutative {
			t.Errorf("%s: expected commutative=%v", tt.op, tt.commutative)
		}
	}

	if _, ok := InfoFor(OpInvalid); ok {
		t.Error("expected no canonical entry for OpInvalid")
	}
}

func TestOpInfo_DuplicateEntries(t *testing.T) {
	var adds []string
	for _, info := range OpInfos() {
		if info.Op == OpAdd {
			adds = append(adds, info.Name)
		}
	}
	if len(adds) != 2 || adds[0] != "Add" || adds[1] != "addi" {
		t.Errorf("expected [Add addi], got %v", adds)
	}
}

func TestOpInfo_CoversEveryOpcode(t *testing.T) {
	for op := Opcode(0); op < NumOpcodes; op++ {
		info, ok := InfoFor(op)
		if !ok {
			t.Errorf("%s: missing metadata", op)
			continue
		}
		// Implemented entries are exactly the opcodes the VM dispatches.
		if dispatched := op.Arity() >= 0; info.Implemented() != dispatched && op != OpDone {
			t.Errorf("%s: implemented=%v but arity=%d", op, info.Implemented(), op.Arity())
		}
	}
}

func TestOpInfos_ReturnsCopy(t *testing.T) {
	infos := OpInfos()
	infos[0].Name = "changed"
	if OpInfoAt(0).Name != "done" {
		t.Error("OpInfos aliases the table")
	}
}

func TestOpcode_Names(t *testing.T) {
	for op := Opcode(0); op < NumOpcodes; op++ {
		name := op.String()
		back, ok := OpcodeFromString(name)
		if !ok || back != op {
			t.Errorf("%q does not map back to 0x%02x", name, uint8(op))
		}
	}
	if OpInvalid.String() != "invalid" {
		t.Errorf("expected invalid, got %q", OpInvalid.String())
	}
	if Opcode(0x80).String() != "unknown" {
		t.Errorf("expected unknown, got %q", Opcode(0x80).String())
	}
	if _, ok := OpcodeFromString("bogus"); ok {
		t.Error("expected bogus to be unknown")
	}
}

func TestWired_MatchesDispatch(t *testing.T) {
	// Every (opcode, descriptor) the static table calls wired must execute
	// in strict mode, and every other one must be rejected.
	constants := []Vector{Splat(1), Splat(2), Splat(3)}
	in := []Vector{Splat(0.5), Splat(0.25)}

	for op := Opcode(1); op < NumOpcodes; op++ {
		arity := op.Arity()
		if arity <= 0 {
			continue
		}
		for desc := uint8(0); desc < 8; desc++ {
			code := []byte{byte(op), OutputRegister(0), desc}
			for i := 0; i < arity; i++ {
				if desc&(1<<i) != 0 {
					code = append(code, byte(i))
				} else {
					code = append(code, InputRegister(0))
				}
			}
			code = append(code, byte(OpDone))

			v := NewVM(WithDescriptorPolicy(DescriptorStrict), WithSeed(1))
			out := make([]Vector, len(in))
			err := v.Exec(code, [][]Vector{in}, [][]Vector{out}, constants, len(in))

			if Wired(arity, desc) {
				if err != nil {
					t.Errorf("%s desc 0x%02x: expected success, got %v", op, desc, err)
				}
			} else if !errors.Is(err, ErrUnwiredDescriptor) {
				t.Errorf("%s desc 0x%02x: expected ErrUnwiredDescriptor, got %v", op, desc, err)
			}
		}
	}
}

func TestFlags_String(t *testing.T) {
	tests := []struct {
		flags OpFlags
		want  string
	}{
		{OpFlagNone, "none"},
		{OpFlagImplemented, "implemented"},
		{OpFlagImplemented | OpFlagCommutative, "implemented|commutative"},
	}
	for _, tt := range tests {
		if got := tt.flags.String(); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}
