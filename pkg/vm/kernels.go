package vm

import (
	"math"
)

// NormalizeEpsilon is the squared length at or below which Normalize returns
// the zero vector instead of dividing by (nearly) zero.
const NormalizeEpsilon = 1e-8

// Kernel signatures by arity. Every kernel is a pure function of its operands.
type (
	UnaryKernel   func(a Vector) Vector
	BinaryKernel  func(a, b Vector) Vector
	TrinaryKernel func(a, b, c Vector) Vector
)

// ===== Arithmetic =====

func Add(a, b Vector) Vector {
	return Vector{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func Sub(a, b Vector) Vector {
	return Vector{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

func Mul(a, b Vector) Vector {
	return Vector{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// Mad returns a*b + c.
func Mad(a, b, c Vector) Vector {
	return Vector{a[0]*b[0] + c[0], a[1]*b[1] + c[1], a[2]*b[2] + c[2], a[3]*b[3] + c[3]}
}

// Lerp returns a*(1-t) + b*t.
func Lerp(a, b, t Vector) Vector {
	oneMinusT := Sub(Splat(1), t)
	return Mad(b, t, Mul(a, oneMinusT))
}

func Neg(a Vector) Vector {
	return Vector{-a[0], -a[1], -a[2], -a[3]}
}

func Abs(a Vector) Vector {
	return map1(a, abs32)
}

func Rcp(a Vector) Vector {
	return map1(a, func(x float32) float32 { return 1 / x })
}

func Rsq(a Vector) Vector {
	return map1(a, func(x float32) float32 { return float32(1 / math.Sqrt(float64(x))) })
}

// Sqrt takes the square root of each component individually.
func Sqrt(a Vector) Vector {
	return Vector{sqrt32(a[0]), sqrt32(a[1]), sqrt32(a[2]), sqrt32(a[3])}
}

func Min(a, b Vector) Vector {
	return map2(a, b, min32)
}

func Max(a, b Vector) Vector {
	return map2(a, b, max32)
}

// Clamp bounds x to [lo, hi]. The lower bound is applied first, so hi wins
// when lo > hi.
func Clamp(x, lo, hi Vector) Vector {
	return Min(Max(x, lo), hi)
}

// Pow raises each component of base to the matching component of exp.
func Pow(base, exp Vector) Vector {
	return map2(base, exp, func(b, e float32) float32 {
		return float32(math.Pow(float64(b), float64(e)))
	})
}

// ===== Geometry =====

// Dot returns the four-component dot product broadcast to every lane.
func Dot(a, b Vector) Vector {
	return Splat(dot4(a, b))
}

// Length returns sqrt(dot(a, a)) broadcast to every lane.
func Length(a Vector) Vector {
	return Splat(sqrt32(dot4(a, a)))
}

// Cross returns the three-component cross product of a and b with w = 0.
func Cross(a, b Vector) Vector {
	return Vector{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
		0,
	}
}

// Normalize scales a to unit length over all four components. Vectors whose
// squared length is at most NormalizeEpsilon normalize to zero.
func Normalize(a Vector) Vector {
	d := dot4(a, a)
	if d <= NormalizeEpsilon {
		return Vector{}
	}
	inv := float32(1 / math.Sqrt(float64(d)))
	return Mul(a, Splat(inv))
}

// ===== Transcendental =====

// Sin evaluates sin(x*pi) of the first component only and broadcasts the
// result. Inputs in [0, 1] sweep half a period.
func Sin(a Vector) Vector {
	return Splat(float32(math.Sin(float64(a[0]) * math.Pi)))
}

func Cos(a Vector) Vector   { return map1(a, wrap64(math.Cos)) }
func Tan(a Vector) Vector   { return map1(a, wrap64(math.Tan)) }
func Asin(a Vector) Vector  { return map1(a, wrap64(math.Asin)) }
func Acos(a Vector) Vector  { return map1(a, wrap64(math.Acos)) }
func Atan(a Vector) Vector  { return map1(a, wrap64(math.Atan)) }
func Exp(a Vector) Vector   { return map1(a, wrap64(math.Exp)) }
func Exp2(a Vector) Vector  { return map1(a, wrap64(math.Exp2)) }
func Log(a Vector) Vector   { return map1(a, wrap64(math.Log)) }
func Log2(a Vector) Vector  { return map1(a, wrap64(math.Log2)) }
func Ceil(a Vector) Vector  { return map1(a, wrap64(math.Ceil)) }
func Floor(a Vector) Vector { return map1(a, wrap64(math.Floor)) }
func Trunc(a Vector) Vector { return map1(a, wrap64(math.Trunc)) }

// Atan2 returns atan2(y, x) per component.
func Atan2(y, x Vector) Vector {
	return map2(y, x, func(y, x float32) float32 {
		return float32(math.Atan2(float64(y), float64(x)))
	})
}

// Fmod returns the remainder of a/b with the sign of a.
func Fmod(a, b Vector) Vector {
	return map2(a, b, func(a, b float32) float32 {
		return float32(math.Mod(float64(a), float64(b)))
	})
}

// Frac returns x - floor(x).
func Frac(a Vector) Vector {
	return Sub(a, Floor(a))
}

// Sign returns -1, 0 or 1 per component.
func Sign(a Vector) Vector {
	return map1(a, func(x float32) float32 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})
}

// Step returns 1 where x >= edge and 0 elsewhere.
func Step(edge, x Vector) Vector {
	return map2(edge, x, func(e, x float32) float32 {
		if x >= e {
			return 1
		}
		return 0
	})
}

// ===== Random =====

// Float32Source yields uniform draws in [0, 1).
type Float32Source interface {
	Float32() float32
}

// Random scales a by four independent uniform draws from src.
func Random(src Float32Source, a Vector) Vector {
	r := Vector{src.Float32(), src.Float32(), src.Float32(), src.Float32()}
	return Mul(r, a)
}

// ===== scalar helpers =====

func dot4(a, b Vector) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] + a[3]*b[3]
}

func sqrt32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func abs32(x float32) float32 {
	return math.Float32frombits(math.Float32bits(x) &^ (1 << 31))
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func wrap64(f func(float64) float64) func(float32) float32 {
	return func(x float32) float32 { return float32(f(float64(x))) }
}
