// pkg/physics/quadtree.go
package physics

// DefaultCapacity is the number of items a node holds before it subdivides.
const DefaultCapacity = 10

// MaxDepth bounds subdivision so stacked items cannot recurse forever.
const MaxDepth = 8

// QuadTree for spatial partitioning.
//
// Items are accepted when their centre lies inside the tree boundary and are kept
// in the deepest node whose bounds fully contain their bounding box, so items that
// straddle a quadrant edge stay on the parent. Query is a broad phase: it returns
// every item of every node whose bounds touch the query box.
type QuadTree struct {
	Boundary Rect
	Capacity int
	Items    []IndexedPoint
	Divided  bool
	depth    int
	size     int

	NorthWest *QuadTree
	NorthEast *QuadTree
	SouthWest *QuadTree
	SouthEast *QuadTree
}

// NewQuadTree creates a new quad tree with the given boundary and capacity
func NewQuadTree(boundary Rect, capacity int) *QuadTree {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return newNode(boundary, capacity, 0)
}

func newNode(boundary Rect, capacity, depth int) *QuadTree {
	return &QuadTree{
		Boundary: boundary,
		Capacity: capacity,
		Items:    make([]IndexedPoint, 0, capacity),
		depth:    depth,
	}
}

// Insert stores item. It returns false, and stores nothing, when the item's
// centre is outside the tree boundary.
func (qt *QuadTree) Insert(item IndexedPoint) bool {
	if item.Shape == nil || !qt.Boundary.ContainsPoint(item.Center()) {
		return false
	}
	qt.insert(item, item.Bounds())
	return true
}

func (qt *QuadTree) insert(item IndexedPoint, box Rect) {
	qt.size++
	if qt.Divided {
		if child := qt.childFor(box); child != nil {
			child.insert(item, box)
			return
		}
	}

	qt.Items = append(qt.Items, item)
	if !qt.Divided && len(qt.Items) > qt.Capacity && qt.depth < MaxDepth {
		qt.Subdivide()
	}
}

// Subdivide splits the node into four quadrants and re-homes every item that
// fits entirely inside one of them.
func (qt *QuadTree) Subdivide() {
	if qt.Divided {
		return
	}
	x, y := qt.Boundary.Pos.X, qt.Boundary.Pos.Y
	hw, hh := qt.Boundary.HalfWidth/2, qt.Boundary.HalfHeight/2

	qt.NorthWest = newNode(Rect{Pos: Vector2D{X: x - hw, Y: y - hh}, HalfWidth: hw, HalfHeight: hh}, qt.Capacity, qt.depth+1)
	qt.NorthEast = newNode(Rect{Pos: Vector2D{X: x + hw, Y: y - hh}, HalfWidth: hw, HalfHeight: hh}, qt.Capacity, qt.depth+1)
	qt.SouthWest = newNode(Rect{Pos: Vector2D{X: x - hw, Y: y + hh}, HalfWidth: hw, HalfHeight: hh}, qt.Capacity, qt.depth+1)
	qt.SouthEast = newNode(Rect{Pos: Vector2D{X: x + hw, Y: y + hh}, HalfWidth: hw, HalfHeight: hh}, qt.Capacity, qt.depth+1)
	qt.Divided = true

	kept := qt.Items[:0]
	for _, item := range qt.Items {
		box := item.Bounds()
		if child := qt.childFor(box); child != nil {
			child.insert(item, box)
			continue
		}
		kept = append(kept, item)
	}
	// zero the tail so re-homed shapes are not pinned by the backing array
	for i := len(kept); i < len(qt.Items); i++ {
		qt.Items[i] = IndexedPoint{}
	}
	qt.Items = kept
}

func (qt *QuadTree) childFor(box Rect) *QuadTree {
	for _, child := range qt.children() {
		if child.Boundary.ContainsRect(box) {
			return child
		}
	}
	return nil
}

func (qt *QuadTree) children() [4]*QuadTree {
	return [4]*QuadTree{qt.NorthWest, qt.NorthEast, qt.SouthWest, qt.SouthEast}
}

// Query returns all items that could be colliding with the given shape
func (qt *QuadTree) Query(area Shape) []IndexedPoint {
	return qt.QueryInto(area, nil)
}

// QueryInto appends broad-phase candidates for area to dst and returns the extended slice.
func (qt *QuadTree) QueryInto(area Shape, dst []IndexedPoint) []IndexedPoint {
	if area == nil {
		return dst
	}
	return qt.query(area.Bounds(), dst)
}

func (qt *QuadTree) query(box Rect, dst []IndexedPoint) []IndexedPoint {
	if !qt.Boundary.Overlaps(box) {
		return dst
	}
	dst = append(dst, qt.Items...)
	if !qt.Divided {
		return dst
	}
	for _, child := range qt.children() {
		dst = child.query(box, dst)
	}
	return dst
}

// Len returns the number of stored items
func (qt *QuadTree) Len() int {
	return qt.size
}

// Clear drops every item and collapses the tree back to a single node
func (qt *QuadTree) Clear() {
	qt.Items = qt.Items[:0]
	qt.Divided = false
	qt.size = 0
	qt.NorthWest, qt.NorthEast, qt.SouthWest, qt.SouthEast = nil, nil, nil, nil
}
