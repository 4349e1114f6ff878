// pkg/physics/quadtree_test.go
package physics

import (
	"fmt"
	"testing"
)

func point(x, y, r float64, owner string) IndexedPoint {
	return IndexedPoint{Shape: Circle{Pos: Vec(x, y), Radius: r}, OwnerID: owner}
}

func owners(items []IndexedPoint) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.OwnerID]++
	}
	return out
}

func TestNewQuadTree(t *testing.T) {
	boundary := NewRect(Vec(50, 50), 100, 100)

	qt := NewQuadTree(boundary, 4)
	if qt.Boundary != boundary {
		t.Errorf("Expected boundary %v, got %v", boundary, qt.Boundary)
	}
	if qt.Capacity != 4 {
		t.Errorf("Expected capacity 4, got %d", qt.Capacity)
	}
	if qt.Divided || qt.Len() != 0 {
		t.Error("new tree should be empty and undivided")
	}

	if got := NewQuadTree(boundary, 0).Capacity; got != DefaultCapacity {
		t.Errorf("non-positive capacity should fall back to %d, got %d", DefaultCapacity, got)
	}
}

func TestQuadTree_Insert(t *testing.T) {
	qt := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 2)

	t.Run("insert_within_boundary", func(t *testing.T) {
		if !qt.Insert(point(10, 10, 1, "a")) {
			t.Error("Insert should succeed for point within boundary")
		}
	})

	t.Run("insert_outside_boundary", func(t *testing.T) {
		if qt.Insert(point(100, 100, 1, "outside")) {
			t.Error("Insert should fail on the exclusive far edge")
		}
		if qt.Insert(point(-1, 50, 1, "outside")) {
			t.Error("Insert should fail left of the boundary")
		}
	})

	t.Run("insert_nil_shape", func(t *testing.T) {
		if qt.Insert(IndexedPoint{OwnerID: "ghost"}) {
			t.Error("Insert should reject an item without a shape")
		}
	})

	t.Run("insert_causes_subdivision", func(t *testing.T) {
		qt.Insert(point(80, 80, 1, "b"))
		qt.Insert(point(20, 80, 1, "c"))

		if !qt.Divided {
			t.Error("QuadTree should be divided after exceeding capacity")
		}
		if qt.NorthWest == nil || qt.NorthEast == nil || qt.SouthWest == nil || qt.SouthEast == nil {
			t.Error("All quadrants should be created after subdivision")
		}
		if qt.Len() != 3 {
			t.Errorf("Len() = %d, expected 3", qt.Len())
		}
		if len(qt.Items) != 0 {
			t.Errorf("small items should be re-homed into quadrants, %d left on root", len(qt.Items))
		}
	})
}

func TestQuadTree_StraddlingItemStaysOnParent(t *testing.T) {
	qt := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 1)
	qt.Insert(point(10, 10, 1, "small"))
	qt.Insert(point(50, 50, 10, "straddler"))

	if !qt.Divided {
		t.Fatal("expected subdivision")
	}
	if len(qt.Items) != 1 || qt.Items[0].OwnerID != "straddler" {
		t.Errorf("expected straddler on root, got %+v", qt.Items)
	}

	found := owners(qt.Query(Circle{Pos: Vec(90, 90), Radius: 1}))
	if found["straddler"] != 1 {
		t.Error("query in a far quadrant must still see the straddling item")
	}
}

func TestQuadTree_QueryWholeBoundaryReturnsEverything(t *testing.T) {
	boundary := NewRect(Vec(500, 500), 1000, 1000)

	for _, n := range []int{0, 1, 10, 11, 250} {
		t.Run(fmt.Sprintf("n_%d", n), func(t *testing.T) {
			qt := NewQuadTree(boundary, DefaultCapacity)
			for i := 0; i < n; i++ {
				x := float64((i * 37) % 1000)
				y := float64((i * 91) % 1000)
				if !qt.Insert(point(x, y, 4, fmt.Sprint(i))) {
					t.Fatalf("insert %d at (%v,%v) rejected", i, x, y)
				}
			}

			found := owners(qt.Query(boundary))
			if len(found) != n {
				t.Fatalf("query returned %d distinct owners, expected %d", len(found), n)
			}
			for id, count := range found {
				if count != 1 {
					t.Errorf("owner %s returned %d times", id, count)
				}
			}
		})
	}
}

func TestQuadTree_QueryIsBroadPhase(t *testing.T) {
	qt := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 1)
	qt.Insert(point(10, 10, 1, "near"))
	qt.Insert(point(90, 90, 1, "far"))
	qt.Insert(point(12, 12, 1, "near2"))

	area := Circle{Pos: Vec(11, 11), Radius: 3}
	candidates := qt.Query(area)
	found := owners(candidates)
	if found["near"] == 0 || found["near2"] == 0 {
		t.Errorf("expected both near items, got %v", found)
	}
	if found["far"] != 0 {
		t.Errorf("far quadrant should be pruned, got %v", found)
	}

	hits := 0
	for _, c := range candidates {
		if area.Intersects(c) {
			hits++
		}
	}
	if hits != 2 {
		t.Errorf("narrow phase hits = %d, expected 2", hits)
	}
}

func TestQuadTree_StackedItemsStopAtMaxDepth(t *testing.T) {
	qt := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 1)
	for i := 0; i < 64; i++ {
		if !qt.Insert(point(25, 25, 0.001, fmt.Sprint(i))) {
			t.Fatalf("insert %d rejected", i)
		}
	}
	if got := len(qt.Query(Circle{Pos: Vec(25, 25), Radius: 1})); got != 64 {
		t.Errorf("expected 64 stacked items, got %d", got)
	}
}

func TestQuadTree_QueryIntoAppends(t *testing.T) {
	qt := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 4)
	qt.Insert(point(10, 10, 1, "a"))

	other := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 4)
	other.Insert(point(11, 11, 1, "b"))

	buf := qt.Query(Circle{Pos: Vec(10, 10), Radius: 2})
	buf = other.QueryInto(Circle{Pos: Vec(10, 10), Radius: 2}, buf)
	found := owners(buf)
	if found["a"] != 1 || found["b"] != 1 {
		t.Errorf("expected combined candidates, got %v", found)
	}
}

func TestQuadTree_Clear(t *testing.T) {
	qt := NewQuadTree(NewRect(Vec(50, 50), 100, 100), 1)
	qt.Insert(point(10, 10, 1, "a"))
	qt.Insert(point(90, 90, 1, "b"))
	qt.Clear()

	if qt.Len() != 0 || qt.Divided {
		t.Error("Clear should empty and collapse the tree")
	}
	if got := qt.Query(qt.Boundary); len(got) != 0 {
		t.Errorf("expected no items after Clear, got %d", len(got))
	}
}
