// pkg/physics/shape.go
package physics

import "math"

// Shape is a hit shape in world space. Every pair of shapes supports Intersects.
type Shape interface {
	// Intersects reports exact overlap with another shape (narrow phase).
	Intersects(other Shape) bool
	// Bounds returns the axis-aligned box enclosing the shape.
	Bounds() Rect
	// Center returns the shape's anchor point.
	Center() Vector2D
	// ContainsPoint reports whether p lies inside the shape.
	ContainsPoint(p Vector2D) bool
	// MoveTo returns a copy of the shape centred on p.
	MoveTo(p Vector2D) Shape
}

// Circle represents a circular collision shape
type Circle struct {
	Pos    Vector2D
	Radius float64
}

// Rect is an axis-aligned rectangle described by its centre and half extents.
type Rect struct {
	Pos        Vector2D
	HalfWidth  float64
	HalfHeight float64
}

// NewRect builds a Rect from its centre and full width/height.
func NewRect(center Vector2D, width, height float64) Rect {
	return Rect{Pos: center, HalfWidth: width / 2, HalfHeight: height / 2}
}

// Center returns the circle centre
func (c Circle) Center() Vector2D { return c.Pos }

// MoveTo returns the circle recentred on p
func (c Circle) MoveTo(p Vector2D) Shape { return Circle{Pos: p, Radius: c.Radius} }

// Bounds returns the square enclosing the circle
func (c Circle) Bounds() Rect {
	return Rect{Pos: c.Pos, HalfWidth: c.Radius, HalfHeight: c.Radius}
}

// ContainsPoint reports whether p is strictly inside the circle
func (c Circle) ContainsPoint(p Vector2D) bool {
	return c.Pos.Sub(p).LengthSquared() < c.Radius*c.Radius
}

// Intersects checks overlap against any supported shape. Touching is not overlap.
func (c Circle) Intersects(other Shape) bool {
	switch o := other.(type) {
	case Circle:
		r := c.Radius + o.Radius
		return c.Pos.Sub(o.Pos).LengthSquared() < r*r
	case Rect:
		return circleRect(c, o)
	case IndexedPoint:
		return c.Intersects(o.Shape)
	}
	return false
}

// Center returns the rectangle centre
func (r Rect) Center() Vector2D { return r.Pos }

// MoveTo returns the rectangle recentred on p
func (r Rect) MoveTo(p Vector2D) Shape {
	return Rect{Pos: p, HalfWidth: r.HalfWidth, HalfHeight: r.HalfHeight}
}

// Bounds returns the rectangle itself
func (r Rect) Bounds() Rect { return r }

// Width returns the full width
func (r Rect) Width() float64 { return r.HalfWidth * 2 }

// Height returns the full height
func (r Rect) Height() float64 { return r.HalfHeight * 2 }

// Min returns the top-left corner.
func (r Rect) Min() Vector2D {
	return Vector2D{X: r.Pos.X - r.HalfWidth, Y: r.Pos.Y - r.HalfHeight}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Vector2D {
	return Vector2D{X: r.Pos.X + r.HalfWidth, Y: r.Pos.Y + r.HalfHeight}
}

// ContainsPoint is half-open: the left and top edges are inside, right and bottom are not.
func (r Rect) ContainsPoint(p Vector2D) bool {
	lo, hi := r.Min(), r.Max()
	return p.X >= lo.X && p.X < hi.X && p.Y >= lo.Y && p.Y < hi.Y
}

// ContainsRect reports whether other lies entirely within r.
func (r Rect) ContainsRect(other Rect) bool {
	lo, hi := r.Min(), r.Max()
	olo, ohi := other.Min(), other.Max()
	return olo.X >= lo.X && ohi.X <= hi.X && olo.Y >= lo.Y && ohi.Y <= hi.Y
}

// Overlaps is the inclusive box test used by the broad phase.
func (r Rect) Overlaps(other Rect) bool {
	return math.Abs(r.Pos.X-other.Pos.X) <= r.HalfWidth+other.HalfWidth &&
		math.Abs(r.Pos.Y-other.Pos.Y) <= r.HalfHeight+other.HalfHeight
}

// Intersects checks strict overlap against any supported shape.
func (r Rect) Intersects(other Shape) bool {
	switch o := other.(type) {
	case Rect:
		return math.Abs(r.Pos.X-o.Pos.X) < r.HalfWidth+o.HalfWidth &&
			math.Abs(r.Pos.Y-o.Pos.Y) < r.HalfHeight+o.HalfHeight
	case Circle:
		return circleRect(o, r)
	case IndexedPoint:
		return r.Intersects(o.Shape)
	}
	return false
}

// circleRect clamps the circle centre onto the rectangle and compares the gap to the radius.
func circleRect(c Circle, r Rect) bool {
	lo, hi := r.Min(), r.Max()
	closest := Vector2D{
		X: math.Max(lo.X, math.Min(c.Pos.X, hi.X)),
		Y: math.Max(lo.Y, math.Min(c.Pos.Y, hi.Y)),
	}
	return c.Pos.Sub(closest).LengthSquared() < c.Radius*c.Radius
}

// IndexedPoint is a shape tagged with the id of the entity that produced it.
// The owner id is looked up in an entity registry; it never keeps the entity alive.
type IndexedPoint struct {
	Shape
	OwnerID string
}
