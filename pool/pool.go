// Package pool implements unmanaged, fixed-capacity storage: a contiguous
// buffer of records partitioned into an "active prefix" and an inactive
// tail, with O(1) allocate/free/move via boundary swaps. Grounded on the
// contiguous-slice, index-stable style of
// gazed-vu/physics/physics.go's body slice plus the nilBodies free-list
// idea from g3n-engine/physics/simulation.go, generalized into a reusable
// generic container with an active/inactive partition callers can rely on.
package pool

import "fmt"

// Handle identifies a record in a Pool. It is stable for the lifetime of
// the slot: the pool never renumbers a live handle while it is allocated.
// Generation catches use-after-free — a stale handle whose generation no
// longer matches the slot's current occupant is rejected by Get.
type Handle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h looks like a populated handle; the zero value is not.
func (h Handle) Valid() bool { return h.generation != 0 }

// CapacityExceededError is returned by Allocate when the backing buffer is
// full. The pool is left unchanged.
type CapacityExceededError struct {
	Capacity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("pool: capacity %d exceeded", e.Capacity)
}

// entry tracks where a handle's record currently lives, and the generation
// it was issued with, independent of the record's position in the dense array.
type entry struct {
	slot       uint32 // position in the dense array; stale while free.
	generation uint32
	free       bool
}

// Pool is a fixed-capacity contiguous store of T, maintaining the invariant
// that dense positions [0, activeCount) are exactly the active records and
// [activeCount, len) are inactive. Both halves are O(1) to move between via
// boundary swaps, so skipping the inactive suffix during bulk loops is free.
//
// Pool is not safe for concurrent structural mutation (Allocate/Free/
// MoveActive) — callers perform those only outside a running step. Bulk
// reads via Active()/Elements() may be fanned out across goroutines as long
// as no structural mutation is concurrently in flight.
type Pool[T any] struct {
	dense       []T      // the contiguous records, partitioned at activeCount.
	owner       []Handle // owner[i] is the handle currently at dense position i.
	entries     []entry  // indexed by handle.index; dense position + generation.
	freeList    []uint32 // recycled handle indices.
	activeCount int
	capacity    int
}

// New creates a pool with the given fixed capacity.
func New[T any](capacity int) *Pool[T] {
	return &Pool[T]{capacity: capacity}
}

// Len returns the number of live (active + inactive) records.
func (p *Pool[T]) Len() int { return len(p.dense) }

// ActiveLen returns the number of records in the active prefix.
func (p *Pool[T]) ActiveLen() int { return p.activeCount }

// Capacity returns the pool's fixed capacity.
func (p *Pool[T]) Capacity() int { return p.capacity }

// Allocate reserves a new record, placing it in the active prefix if active
// is true, or the inactive tail otherwise. Returns CapacityExceededError,
// leaving the pool unchanged, if the pool is already at capacity.
func (p *Pool[T]) Allocate(active bool) (Handle, error) {
	if len(p.dense) >= p.capacity {
		return Handle{}, &CapacityExceededError{Capacity: p.capacity}
	}

	var idx uint32
	if n := len(p.freeList); n > 0 {
		idx = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.entries[idx].generation++
	} else {
		idx = uint32(len(p.entries))
		p.entries = append(p.entries, entry{generation: 1})
	}
	h := Handle{index: idx, generation: p.entries[idx].generation}

	var zero T
	densePos := uint32(len(p.dense))
	p.dense = append(p.dense, zero)
	p.owner = append(p.owner, h)
	p.entries[idx].slot = densePos
	p.entries[idx].free = false

	if active {
		p.swapDense(densePos, uint32(p.activeCount))
		p.activeCount++
	}
	return h, nil
}

// Get returns a pointer to the record held by h, or nil if h does not refer
// to a currently-live slot (freed, or never allocated).
func (p *Pool[T]) Get(h Handle) *T {
	if !h.Valid() || int(h.index) >= len(p.entries) {
		return nil
	}
	e := p.entries[h.index]
	if e.free || e.generation != h.generation {
		return nil
	}
	return &p.dense[e.slot]
}

// IsActive reports whether h's record currently sits in the active prefix.
func (p *Pool[T]) IsActive(h Handle) bool {
	if !h.Valid() || int(h.index) >= len(p.entries) {
		return false
	}
	e := p.entries[h.index]
	if e.free || e.generation != h.generation {
		return false
	}
	return int(e.slot) < p.activeCount
}

// swapDense exchanges the records (and owning handles) at two dense
// positions, updating each owner's entry to point at its new position.
func (p *Pool[T]) swapDense(a, b uint32) {
	if a == b {
		return
	}
	p.dense[a], p.dense[b] = p.dense[b], p.dense[a]
	p.owner[a], p.owner[b] = p.owner[b], p.owner[a]
	p.entries[p.owner[a].index].slot = a
	p.entries[p.owner[b].index].slot = b
}

// MoveActive moves h's record to the active prefix (active=true) or the
// inactive tail (active=false) in O(1) via a single boundary swap.
func (p *Pool[T]) MoveActive(h Handle, active bool) {
	if !h.Valid() || int(h.index) >= len(p.entries) {
		return
	}
	e := &p.entries[h.index]
	if e.free || e.generation != h.generation {
		return
	}
	isActive := int(e.slot) < p.activeCount
	if isActive == active {
		return
	}
	if active {
		// moving from inactive tail to active prefix: swap with the first
		// inactive slot, which becomes the new boundary.
		p.swapDense(e.slot, uint32(p.activeCount))
		p.activeCount++
	} else {
		// moving from active prefix to inactive tail: swap with the last
		// active slot, shrinking the active prefix by one.
		p.activeCount--
		p.swapDense(e.slot, uint32(p.activeCount))
	}
}

// Free releases h's slot, swapping the last used record (respecting the
// active/inactive partition) into its place so storage stays contiguous.
func (p *Pool[T]) Free(h Handle) {
	if !h.Valid() || int(h.index) >= len(p.entries) {
		return
	}
	e := &p.entries[h.index]
	if e.free || e.generation != h.generation {
		return
	}

	last := uint32(len(p.dense) - 1)
	if int(e.slot) < p.activeCount {
		// removing an active record: first swap it to the active/inactive
		// boundary, shrink the active region, then swap-pop from the end.
		boundary := uint32(p.activeCount - 1)
		p.swapDense(e.slot, boundary)
		p.activeCount--
		p.swapDense(boundary, last)
	} else {
		p.swapDense(e.slot, last)
	}

	p.dense = p.dense[:last]
	p.owner = p.owner[:last]
	e.free = true
	p.freeList = append(p.freeList, h.index)
}

// Active returns a view over the active-prefix records. The slice aliases
// pool storage and is only valid until the next structural mutation.
func (p *Pool[T]) Active() []T { return p.dense[:p.activeCount] }

// Inactive returns a view over the inactive-tail records.
func (p *Pool[T]) Inactive() []T { return p.dense[p.activeCount:] }

// Elements returns a view over every record, active and inactive.
func (p *Pool[T]) Elements() []T { return p.dense }

// HandleAt returns the handle that owns the record at dense position i,
// useful when a caller has obtained i from Active()/Elements() and needs
// to look the record back up by handle (e.g. for MoveActive/Free).
func (p *Pool[T]) HandleAt(i int) Handle { return p.owner[i] }
