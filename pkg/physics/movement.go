package physics

import "fmt"

// Step advances pos along the unit of dir by speed*dt.
//
// A non-finite direction is a caller bug and panics.
func Step(pos, dir Vector2D, speed, dt float64) Vector2D {
	if !dir.IsFinite() {
		panic(fmt.Sprintf("physics: move direction is not a vector: %v", dir))
	}
	return pos.Add(dir.Normalize().Scale(speed * dt))
}
