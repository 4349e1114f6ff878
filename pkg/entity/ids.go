package entity

import (
	"strconv"
	"sync/atomic"
)

// IDAllocator hands out monotonically increasing entity ids.
// Each simulation owns one; it is safe for concurrent use.
type IDAllocator struct {
	next atomic.Uint64
}

// NewIDAllocator returns an allocator whose first id is "0".
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns a fresh id.
func (a *IDAllocator) Next() string {
	return strconv.FormatUint(a.next.Add(1)-1, 10)
}

// Reserve marks a numeric id assigned elsewhere as used so Next never
// reissues it. Non-numeric ids are ignored.
func (a *IDAllocator) Reserve(id string) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return
	}
	for {
		cur := a.next.Load()
		if n < cur || a.next.CompareAndSwap(cur, n+1) {
			return
		}
	}
}
