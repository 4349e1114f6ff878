// pkg/engine/registry.go
package engine

// registry keeps entities by id and remembers insertion order so every
// pass over it is deterministic.
type registry[T any] struct {
	order []string
	byID  map[string]T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{byID: make(map[string]T)}
}

// put stores v under id. Replacing an existing id keeps its position.
func (r *registry[T]) put(id string, v T) {
	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = v
}

func (r *registry[T]) get(id string) (T, bool) {
	v, ok := r.byID[id]
	return v, ok
}

func (r *registry[T]) remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// values returns a fresh slice, so callers may mutate the registry while iterating it.
func (r *registry[T]) values() []T {
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

func (r *registry[T]) clear() {
	r.order = nil
	r.byID = make(map[string]T)
}

func (r *registry[T]) len() int {
	return len(r.order)
}
