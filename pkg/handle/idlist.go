package handle

import (
	"fmt"
	"iter"
	"sort"
)

// Identified is implemented by pointers to the objects stored in an IDList.
type Identified[H ~uint32] interface {
	Handle() H
	SetHandle(H)
	Tagged() bool
	SetTag(bool)
}

// IDList stores objects sorted by handle. Lookups are binary searches.
//
// Pointers returned by FindByID, At and All are only valid until the next
// insertion; code that inserts while walking the list must snapshot the
// handles first (see Handles).
type IDList[T any, PT interface {
	*T
	Identified[H]
}, H ~uint32] struct {
	elems  []T
	issued H
}

// Len returns the number of stored objects.
func (l *IDList[T, PT, H]) Len() int { return len(l.elems) }

// At returns a pointer to the i-th object in handle order.
func (l *IDList[T, PT, H]) At(i int) *T { return &l.elems[i] }

func (l *IDList[T, PT, H]) search(h H) (int, bool) {
	i := sort.Search(len(l.elems), func(i int) bool {
		return PT(&l.elems[i]).Handle() >= h
	})
	return i, i < len(l.elems) && PT(&l.elems[i]).Handle() == h
}

// Add inserts item under the handle it already carries. Adding a handle
// that is already present is an invariant violation.
func (l *IDList[T, PT, H]) Add(item T) {
	h := PT(&item).Handle()
	i, found := l.search(h)
	if found {
		panic(fmt.Sprintf("handle: duplicate id %#x", uint32(h)))
	}
	l.elems = append(l.elems, item)
	copy(l.elems[i+1:], l.elems[i:])
	l.elems[i] = item
	if h > l.issued {
		l.issued = h
	}
}

// AddAndAssignID stamps item with a handle strictly greater than any handle
// this list has ever held, appends it and returns the new handle.
func (l *IDList[T, PT, H]) AddAndAssignID(item T) H {
	h := l.issued + 1
	if n := len(l.elems); n > 0 {
		if last := PT(&l.elems[n-1]).Handle(); last >= h {
			h = last + 1
		}
	}
	PT(&item).SetHandle(h)
	l.elems = append(l.elems, item)
	l.issued = h
	return h
}

// FindByID returns the object with handle h. A missing handle means the
// kernel's bookkeeping is broken, so it panics.
func (l *IDList[T, PT, H]) FindByID(h H) *T {
	t := l.FindByIDNoOops(h)
	if t == nil {
		panic(fmt.Sprintf("handle: no object with id %#x", uint32(h)))
	}
	return t
}

// FindByIDNoOops returns the object with handle h, or nil.
func (l *IDList[T, PT, H]) FindByIDNoOops(h H) *T {
	i, found := l.search(h)
	if !found {
		return nil
	}
	return &l.elems[i]
}

// Contains reports whether an object with handle h is stored.
func (l *IDList[T, PT, H]) Contains(h H) bool {
	_, found := l.search(h)
	return found
}

// Handles returns a snapshot of the stored handles in order.
func (l *IDList[T, PT, H]) Handles() []H {
	hs := make([]H, len(l.elems))
	for i := range l.elems {
		hs[i] = PT(&l.elems[i]).Handle()
	}
	return hs
}

// All iterates over the stored objects in handle order.
func (l *IDList[T, PT, H]) All() iter.Seq2[H, *T] {
	return func(yield func(H, *T) bool) {
		for i := range l.elems {
			t := &l.elems[i]
			if !yield(PT(t).Handle(), t) {
				return
			}
		}
	}
}

// ClearTags untags every object.
func (l *IDList[T, PT, H]) ClearTags() {
	for i := range l.elems {
		PT(&l.elems[i]).SetTag(false)
	}
}

// Tag marks the object with handle h for removal. It panics if h is absent.
func (l *IDList[T, PT, H]) Tag(h H) {
	PT(l.FindByID(h)).SetTag(true)
}

// RemoveTagged compacts the list, dropping every tagged object, and
// returns how many were removed. Handles of the remaining objects are
// unchanged.
func (l *IDList[T, PT, H]) RemoveTagged() int {
	dst := 0
	for i := range l.elems {
		if PT(&l.elems[i]).Tagged() {
			continue
		}
		if dst != i {
			l.elems[dst] = l.elems[i]
		}
		dst++
	}
	removed := len(l.elems) - dst
	clear(l.elems[dst:])
	l.elems = l.elems[:dst]
	return removed
}

// RemoveByID removes the object with handle h.
func (l *IDList[T, PT, H]) RemoveByID(h H) {
	l.ClearTags()
	l.Tag(h)
	l.RemoveTagged()
}

// Clear removes every object. Handles issued before Clear are never
// issued again by AddAndAssignID.
func (l *IDList[T, PT, H]) Clear() {
	clear(l.elems)
	l.elems = l.elems[:0]
}
