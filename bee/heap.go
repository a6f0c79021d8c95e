package bee

import (
	"errors"
)

var ErrStaleRef = errors.New("stale or invalid object reference")

const noSlot = -1

type slot struct {
	obj  *Object
	gen  uint32
	flag GCFlag
	live bool

	// allocation order, for sweep traversal
	next int32
	prev int32
}

// Heap is an arena of objects addressed by generation checked
// handles. Live slots are threaded in allocation order from head
// to tail; freed slots go on a free list and are reused with a
// bumped generation.
//
// A Heap is not safe for concurrent use.
type Heap struct {
	slots []slot
	free  []uint32
	head  int32
	tail  int32
	live  int
}

func NewHeap() *Heap {
	return &Heap{
		head: noSlot,
		tail: noSlot,
	}
}

// Alloc creates a zero valued (unit) object. Fresh non-root
// objects start out Marked so that they survive the very next
// sweep even before the expression producing them is done.
func (h *Heap) Alloc(isRoot bool) (Ref, *Object) {
	var idx uint32
	if n := len(h.free); n > 0 {
		idx = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		h.slots = append(h.slots, slot{})
		idx = uint32(len(h.slots) - 1)
	}

	s := &h.slots[idx]
	s.gen++
	if s.gen == 0 {
		// wrapped; zero is reserved for the invalid Ref
		s.gen = 1
	}
	s.obj = &Object{}
	s.live = true
	if isRoot {
		s.flag = Root
	} else {
		s.flag = Marked
	}

	s.next = noSlot
	s.prev = h.tail
	if h.tail != noSlot {
		h.slots[h.tail].next = int32(idx)
	}
	h.tail = int32(idx)
	if h.head == noSlot {
		h.head = int32(idx)
	}
	h.live++

	return Ref{index: idx, gen: s.gen}, s.obj
}

func (h *Heap) slotOf(r Ref) *slot {
	if r.gen == 0 || int(r.index) >= len(h.slots) {
		return nil
	}
	s := &h.slots[r.index]
	if !s.live || s.gen != r.gen {
		return nil
	}
	return s
}

// Get returns the object behind r, or nil when r is stale.
func (h *Heap) Get(r Ref) *Object {
	s := h.slotOf(r)
	if s == nil {
		return nil
	}
	return s.obj
}

// Valid reports whether r still names a live object.
func (h *Heap) Valid(r Ref) bool {
	return h.slotOf(r) != nil
}

// Flag reports the collector flag of r's object.
func (h *Heap) Flag(r Ref) (GCFlag, error) {
	s := h.slotOf(r)
	if s == nil {
		return Unmarked, ErrStaleRef
	}
	return s.flag, nil
}

// SetRoot promotes or demotes an object to/from the root set.
func (h *Heap) SetRoot(r Ref, isRoot bool) error {
	s := h.slotOf(r)
	if s == nil {
		return ErrStaleRef
	}
	if isRoot {
		s.flag = Root
	} else if s.flag == Root {
		s.flag = Marked
	}
	return nil
}

// Len is the number of live objects.
func (h *Heap) Len() int {
	return h.live
}

// Walk visits live objects in allocation order; stop early by
// returning false.
func (h *Heap) Walk(fn func(r Ref, o *Object, flag GCFlag) bool) {
	for i := h.head; i != noSlot; {
		s := &h.slots[i]
		next := s.next
		if !fn(Ref{index: uint32(i), gen: s.gen}, s.obj, s.flag) {
			return
		}
		i = next
	}
}

// unlink removes slot i from the allocation list and frees it.
func (h *Heap) unlink(i int32) {
	s := &h.slots[i]
	if s.prev != noSlot {
		h.slots[s.prev].next = s.next
	} else {
		h.head = s.next
	}
	if s.next != noSlot {
		h.slots[s.next].prev = s.prev
	} else {
		h.tail = s.prev
	}

	s.obj.release()
	s.obj = nil
	s.live = false
	s.flag = Unmarked
	s.next = noSlot
	s.prev = noSlot
	h.free = append(h.free, uint32(i))
	h.live--
}

// Release frees every object regardless of flags. The heap is
// empty afterwards but remains usable.
func (h *Heap) Release() int {
	n := 0
	for i := h.head; i != noSlot; {
		next := h.slots[i].next
		h.unlink(i)
		n++
		i = next
	}
	return n
}
