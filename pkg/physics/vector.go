// pkg/physics/vector.go
package physics

import "math"

// Vector2D is a 2D vector in world pixels. The zero value is the origin.
type Vector2D struct {
	X float64 `json:"x" yaml:"x" msgpack:"x"`
	Y float64 `json:"y" yaml:"y" msgpack:"y"`
}

// Vec is shorthand for Vector2D{X: x, Y: y}.
func Vec(x, y float64) Vector2D {
	return Vector2D{X: x, Y: y}
}

// Add returns v + other
func (v Vector2D) Add(other Vector2D) Vector2D {
	return Vector2D{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub returns v - other
func (v Vector2D) Sub(other Vector2D) Vector2D {
	return Vector2D{X: v.X - other.X, Y: v.Y - other.Y}
}

// Scale multiplies both components by factor
func (v Vector2D) Scale(factor float64) Vector2D {
	return Vector2D{X: v.X * factor, Y: v.Y * factor}
}

// Mul multiplies component-wise.
func (v Vector2D) Mul(other Vector2D) Vector2D {
	return Vector2D{X: v.X * other.X, Y: v.Y * other.Y}
}

// Length returns the magnitude of the vector
func (v Vector2D) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// LengthSquared returns magnitude squared (optimization for comparisons)
func (v Vector2D) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Normalize returns the unit vector pointing the same way.
// The zero vector normalizes to itself.
func (v Vector2D) Normalize() Vector2D {
	length := v.Length()
	if length == 0 {
		return Vector2D{}
	}
	return Vector2D{X: v.X / length, Y: v.Y / length}
}

// Distance returns the distance between two points
func (v Vector2D) Distance(other Vector2D) float64 {
	return v.Sub(other).Length()
}

// Dot returns the dot product of two vectors
func (v Vector2D) Dot(other Vector2D) float64 {
	return v.X*other.X + v.Y*other.Y
}

// IsZero reports whether both components are zero.
func (v Vector2D) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vector2D) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
