package vm

import "fmt"

// Vector is the atomic unit the VM operates on: four independent float32 lanes.
type Vector [ElementsPerVector]float32

// MakeVector builds a vector from its components.
func MakeVector(x, y, z, w float32) Vector {
	return Vector{x, y, z, w}
}

// Splat replicates f across all components.
func Splat(f float32) Vector {
	return Vector{f, f, f, f}
}

// X returns the first component.
func (v Vector) X() float32 { return v[0] }

// String formats the vector as (x, y, z, w).
func (v Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g, %g)", v[0], v[1], v[2], v[3])
}

// map1 applies f to each component of a.
func map1(a Vector, f func(float32) float32) Vector {
	return Vector{f(a[0]), f(a[1]), f(a[2]), f(a[3])}
}

// map2 applies f to each pair of components of a and b.
func map2(a, b Vector, f func(float32, float32) float32) Vector {
	return Vector{f(a[0], b[0]), f(a[1], b[1]), f(a[2], b[2]), f(a[3], b[3])}
}
