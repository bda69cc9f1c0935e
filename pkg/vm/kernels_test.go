package vm

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

func TestKernels_Unary(t *testing.T) {
	tests := []struct {
		name string
		k    UnaryKernel
		in   Vector
		want Vector
	}{
		{"neg", Neg, MakeVector(1, -2, 0, 4), MakeVector(-1, 2, 0, -4)},
		{"abs", Abs, MakeVector(-1, 2, -3, 0), MakeVector(1, 2, 3, 0)},
		{"rcp", Rcp, MakeVector(1, 2, 4, -0.5), MakeVector(1, 0.5, 0.25, -2)},
		{"rsq", Rsq, MakeVector(1, 4, 16, 0.25), MakeVector(1, 0.5, 0.25, 2)},
		{"sqrt", Sqrt, MakeVector(1, 4, 9, 16), MakeVector(1, 2, 3, 4)},
		{"exp", Exp, MakeVector(0, 1, 0, 0), MakeVector(1, math.E, 1, 1)},
		{"exp2", Exp2, MakeVector(0, 1, 3, -1), MakeVector(1, 2, 8, 0.5)},
		{"log", Log, MakeVector(1, math.E, 1, 1), MakeVector(0, 1, 0, 0)},
		{"log2", Log2, MakeVector(1, 2, 8, 0.5), MakeVector(0, 1, 3, -1)},
		{"cos", Cos, MakeVector(0, math.Pi, 0, 0), MakeVector(1, -1, 1, 1)},
		{"atan", Atan, MakeVector(0, 1, -1, 0), MakeVector(0, math.Pi/4, -math.Pi/4, 0)},
		{"ceil", Ceil, MakeVector(1.2, -1.2, 2, 0.5), MakeVector(2, -1, 2, 1)},
		{"floor", Floor, MakeVector(1.2, -1.2, 2, 0.5), MakeVector(1, -2, 2, 0)},
		{"trunc", Trunc, MakeVector(1.7, -1.7, 2, 0.5), MakeVector(1, -1, 2, 0)},
		{"frac", Frac, MakeVector(1.25, -1.25, 2, 0.5), MakeVector(0.25, 0.75, 0, 0.5)},
		{"sign", Sign, MakeVector(3, -2, 0, 0.1), MakeVector(1, -1, 0, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.k(tt.in), approx); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestKernels_Binary(t *testing.T) {
	a := MakeVector(1, 2, 3, 4)
	b := MakeVector(4, 3, 2, 1)

	tests := []struct {
		name string
		k    BinaryKernel
		a, b Vector
		want Vector
	}{
		{"add", Add, a, b, Splat(5)},
		{"sub", Sub, a, b, MakeVector(-3, -1, 1, 3)},
		{"mul", Mul, a, b, MakeVector(4, 6, 6, 4)},
		{"min", Min, a, b, MakeVector(1, 2, 2, 1)},
		{"max", Max, a, b, MakeVector(4, 3, 3, 4)},
		{"pow", Pow, a, b, MakeVector(1, 8, 9, 4)},
		{"fmod", Fmod, MakeVector(5, -5, 5.5, 1), MakeVector(3, 3, 2, 1), MakeVector(2, -2, 1.5, 0)},
		{"atan2", Atan2, MakeVector(1, 0, -1, 1), MakeVector(0, 1, 0, 1), MakeVector(math.Pi/2, 0, -math.Pi/2, math.Pi/4)},
		{"step", Step, Splat(2), MakeVector(1, 2, 3, -1), MakeVector(0, 1, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.k(tt.a, tt.b), approx); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tt.name, diff)
			}
		})
	}
}

func TestClamp_MaxBeforeMin(t *testing.T) {
	x := MakeVector(-5, 0.5, 5, 0)

	got := Clamp(x, Splat(0), Splat(1))
	if want := MakeVector(0, 0.5, 1, 0); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}

	// Inverted bounds: the upper bound is applied last and wins.
	got = Clamp(x, Splat(1), Splat(0))
	if want := Splat(0); got != want {
		t.Errorf("inverted bounds: expected %v, got %v", want, got)
	}
}

func TestLerp(t *testing.T) {
	a := MakeVector(0, 10, -4, 1)
	b := MakeVector(10, 20, 4, 1)

	tests := []struct {
		t    Vector
		want Vector
	}{
		{Splat(0), a},
		{Splat(1), b},
		{Splat(0.5), MakeVector(5, 15, 0, 1)},
		{MakeVector(0, 1, 0.25, 2), MakeVector(0, 20, -2, 1)},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, Lerp(a, b, tt.t), approx); diff != "" {
			t.Errorf("Lerp(t=%v) mismatch (-want +got):\n%s", tt.t, diff)
		}
	}
}

func TestMad_OperandOrder(t *testing.T) {
	got := Mad(Splat(2), Splat(3), Splat(4))
	if want := Splat(10); got != want {
		t.Errorf("mad(2, 3, 4): expected %v, got %v", want, got)
	}
	got = Mad(Splat(4), Splat(2), Splat(3))
	if want := Splat(11); got != want {
		t.Errorf("mad(4, 2, 3): expected %v, got %v", want, got)
	}
}

func TestDot_Broadcast(t *testing.T) {
	got := Dot(MakeVector(1, 2, 3, 4), MakeVector(5, 6, 7, 8))
	if want := Splat(70); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLength(t *testing.T) {
	if got, want := Length(MakeVector(3, 4, 0, 0)), Splat(5); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
	// w contributes to the length.
	if got, want := Length(MakeVector(1, 1, 1, 1)), Splat(2); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCross(t *testing.T) {
	tests := []struct {
		a, b, want Vector
	}{
		{MakeVector(1, 0, 0, 0), MakeVector(0, 1, 0, 0), MakeVector(0, 0, 1, 0)},
		{MakeVector(0, 1, 0, 0), MakeVector(1, 0, 0, 0), MakeVector(0, 0, -1, 0)},
		{MakeVector(1, 2, 3, 9), MakeVector(4, 5, 6, 9), MakeVector(-3, 6, -3, 0)},
	}
	for _, tt := range tests {
		if got := Cross(tt.a, tt.b); got != tt.want {
			t.Errorf("Cross(%v, %v): expected %v, got %v", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestSin_FirstComponentBroadcast(t *testing.T) {
	tests := []struct {
		in   Vector
		want float32
	}{
		{MakeVector(0, 9, 9, 9), 0},
		{MakeVector(0.5, 0, 0, 0), 1},
		{MakeVector(-0.5, 1, 2, 3), -1},
		{MakeVector(1.0/6, 0.5, 0.5, 0.5), 0.5},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(Splat(tt.want), Sin(tt.in), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
			t.Errorf("Sin(%v) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestNormalize(t *testing.T) {
	if diff := cmp.Diff(MakeVector(0.6, 0.8, 0, 0), Normalize(MakeVector(3, 4, 0, 0)), approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Splat(0.5), Normalize(Splat(2)), approx); diff != "" {
		t.Errorf("four-component mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_NearZero(t *testing.T) {
	for _, in := range []Vector{{}, Splat(1e-5), MakeVector(5e-5, 0, 0, 0)} {
		if got := Normalize(in); got != (Vector{}) {
			t.Errorf("Normalize(%v): expected zero vector, got %v", in, got)
		}
	}
	// Just above the threshold still normalizes.
	got := Normalize(MakeVector(1e-3, 0, 0, 0))
	if diff := cmp.Diff(MakeVector(1, 0, 0, 0), got, approx); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

type constSource float32

func (c constSource) Float32() float32 { return float32(c) }

func TestRandom_ScalesOperand(t *testing.T) {
	got := Random(constSource(0.5), MakeVector(2, 4, -2, 0))
	if want := MakeVector(1, 2, -1, 0); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
