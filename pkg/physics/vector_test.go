// pkg/physics/vector_test.go
package physics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func nearlyEqual(a, b Vector2D) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}

func TestVector2D_Arithmetic(t *testing.T) {
	tests := []struct {
		name     string
		got      Vector2D
		expected Vector2D
	}{
		{"add_positive", Vec(3, 4).Add(Vec(1, 2)), Vec(4, 6)},
		{"add_mixed_signs", Vec(5, -3).Add(Vec(-2, 7)), Vec(3, 4)},
		{"sub_positive", Vec(3, 4).Sub(Vec(1, 2)), Vec(2, 2)},
		{"sub_to_negative", Vec(1, 1).Sub(Vec(4, 5)), Vec(-3, -4)},
		{"scale_by_two", Vec(1.5, -2).Scale(2), Vec(3, -4)},
		{"scale_by_zero", Vec(9, 9).Scale(0), Vec(0, 0)},
		{"mul_componentwise", Vec(2, 3).Mul(Vec(4, -1)), Vec(8, -3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !nearlyEqual(tt.got, tt.expected) {
				t.Errorf("got %v, expected %v", tt.got, tt.expected)
			}
		})
	}
}

func TestVector2D_Length(t *testing.T) {
	tests := []struct {
		name     string
		v        Vector2D
		expected float64
	}{
		{"zero", Vec(0, 0), 0},
		{"pythagorean", Vec(3, 4), 5},
		{"negative_components", Vec(-6, -8), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Length(); math.Abs(got-tt.expected) > epsilon {
				t.Errorf("Length() = %v, expected %v", got, tt.expected)
			}
			if got := tt.v.LengthSquared(); math.Abs(got-tt.expected*tt.expected) > epsilon {
				t.Errorf("LengthSquared() = %v, expected %v", got, tt.expected*tt.expected)
			}
		})
	}
}

func TestVector2D_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		v        Vector2D
		expected Vector2D
	}{
		{"axis_aligned", Vec(10, 0), Vec(1, 0)},
		{"diagonal", Vec(3, 4), Vec(0.6, 0.8)},
		{"already_unit", Vec(0, -1), Vec(0, -1)},
		{"zero_stays_zero", Vec(0, 0), Vec(0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Normalize(); !nearlyEqual(got, tt.expected) {
				t.Errorf("Normalize() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestVector2D_DistanceAndDot(t *testing.T) {
	if d := Vec(1, 1).Distance(Vec(4, 5)); math.Abs(d-5) > epsilon {
		t.Errorf("Distance() = %v, expected 5", d)
	}
	if d := Vec(1, 2).Dot(Vec(3, 4)); d != 11 {
		t.Errorf("Dot() = %v, expected 11", d)
	}
	if d := Vec(1, 0).Dot(Vec(0, 1)); d != 0 {
		t.Errorf("perpendicular Dot() = %v, expected 0", d)
	}
}

func TestVector2D_IsFinite(t *testing.T) {
	tests := []struct {
		name     string
		v        Vector2D
		expected bool
	}{
		{"regular", Vec(1, 2), true},
		{"nan_x", Vec(math.NaN(), 0), false},
		{"inf_y", Vec(0, math.Inf(-1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFinite(); got != tt.expected {
				t.Errorf("IsFinite() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestStep(t *testing.T) {
	t.Run("moves_along_unit_direction", func(t *testing.T) {
		got := Step(Vec(0, 0), Vec(10, 0), 100, 0.5)
		if !nearlyEqual(got, Vec(50, 0)) {
			t.Errorf("Step() = %v, expected (50, 0)", got)
		}
	})

	t.Run("direction_magnitude_is_ignored", func(t *testing.T) {
		a := Step(Vec(0, 0), Vec(3, 4), 10, 1)
		b := Step(Vec(0, 0), Vec(300, 400), 10, 1)
		if !nearlyEqual(a, b) {
			t.Errorf("Step() differs by direction magnitude: %v vs %v", a, b)
		}
	})

	t.Run("zero_direction_stays_put", func(t *testing.T) {
		got := Step(Vec(7, 7), Vec(0, 0), 100, 1)
		if !nearlyEqual(got, Vec(7, 7)) {
			t.Errorf("Step() = %v, expected (7, 7)", got)
		}
	})

	t.Run("non_finite_direction_panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected Step to panic on NaN direction")
			}
		}()
		Step(Vec(0, 0), Vec(math.NaN(), 1), 1, 1)
	})
}
