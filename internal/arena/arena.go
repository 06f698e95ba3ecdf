// Package arena implements a slot-allocated generational store: values are
// inserted once and addressed afterward by small, stable, copyable handles.
// Removing a value frees its slot for reuse; the generation counter on the
// freed slot is bumped so that any handle still referring to the old value
// is detectably stale rather than silently aliasing whatever moved in.
package arena

import "fmt"

// Key is an opaque handle into an Arena. The zero Key never aliases a live
// value (every real insertion starts its slot's generation at 1), so Key{}
// doubles as the "no handle" sentinel used throughout the IR.
type Key struct {
	slot uint32
	gen  uint32
}

// Slot returns the raw slot index, exposed only for diagnostics.
func (k Key) Slot() uint32 { return k.slot }

// IsZero reports whether k is the sentinel "no handle" value.
func (k Key) IsZero() bool { return k.slot == 0 && k.gen == 0 }

func (k Key) String() string {
	if k.IsZero() {
		return "<nil>"
	}
	return fmt.Sprintf("#%d", k.slot)
}

type cell[T any] struct {
	gen      uint32
	occupied bool
	value    T
}

// Arena stores values of a single type keyed by generational handles. The
// backing store is a slice of pointers so that growth (append) never
// relocates an already-allocated cell — handles and pointers obtained from
// Get remain valid across later Insert calls on the same arena.
type Arena[T any] struct {
	cells []*cell[T]
	free  []uint32
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) Key {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		c := a.cells[idx]
		c.occupied = true
		c.value = v
		return Key{slot: idx, gen: c.gen}
	}
	idx := uint32(len(a.cells))
	c := &cell[T]{gen: 1, occupied: true, value: v}
	a.cells = append(a.cells, c)
	return Key{slot: idx, gen: c.gen}
}

func (a *Arena[T]) lookup(k Key) *cell[T] {
	if k.IsZero() || int(k.slot) >= len(a.cells) {
		return nil
	}
	c := a.cells[k.slot]
	if !c.occupied || c.gen != k.gen {
		return nil
	}
	return c
}

// Get returns a pointer to the value named by k, or false if k is stale or
// was never allocated.
func (a *Arena[T]) Get(k Key) (*T, bool) {
	c := a.lookup(k)
	if c == nil {
		return nil, false
	}
	return &c.value, true
}

// MustGet is Get but panics (a programmer-error condition, per the IR's
// error-handling design) when the handle is stale.
func (a *Arena[T]) MustGet(k Key) *T {
	p, ok := a.Get(k)
	if !ok {
		panic(fmt.Sprintf("arena: use of stale or unknown handle %s", k))
	}
	return p
}

// Get2 returns pointers to two distinct, live handles. It panics if the two
// keys name the same slot — disjoint mutable access to the same element is
// a programmer error, never silently aliased.
func (a *Arena[T]) Get2(k1, k2 Key) (*T, *T) {
	if k1.slot == k2.slot {
		panic(fmt.Sprintf("arena: Get2 called with aliasing handles %s and %s", k1, k2))
	}
	return a.MustGet(k1), a.MustGet(k2)
}

// Remove frees k's slot, bumping its generation, and returns the stored
// value. It panics if k is not live.
func (a *Arena[T]) Remove(k Key) T {
	c := a.lookup(k)
	if c == nil {
		panic(fmt.Sprintf("arena: remove of stale or unknown handle %s", k))
	}
	v := c.value
	var zero T
	c.value = zero
	c.occupied = false
	c.gen++
	a.free = append(a.free, k.slot)
	return v
}

// Contains reports whether k currently names a live value.
func (a *Arena[T]) Contains(k Key) bool {
	return a.lookup(k) != nil
}

// Len returns the number of live values (not the slot-array capacity).
func (a *Arena[T]) Len() int {
	n := 0
	for _, c := range a.cells {
		if c.occupied {
			n++
		}
	}
	return n
}

// Keys returns the handles of all live values in slot order. The order is
// incidental (insertion/reuse order), never semantically significant.
func (a *Arena[T]) Keys() []Key {
	out := make([]Key, 0, len(a.cells))
	for i, c := range a.cells {
		if c.occupied {
			out = append(out, Key{slot: uint32(i), gen: c.gen})
		}
	}
	return out
}
