package bee

import (
	"time"
)

// GCStats describes one collection, or the running totals when
// returned from Runtime.Stats.
type GCStats struct {
	Cycles    int
	Marked    int
	Collected int
	Live      int
}

type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) testAndSet(i uint32) bool {
	w, m := i/64, uint64(1)<<(i%64)
	was := b[w]&m != 0
	b[w] |= m
	return was
}

// MarkAll flags every reachable object Marked and returns how many
// objects changed from Unmarked to Marked. Traversal starts from the
// root objects, from objects allocated since the last sweep (still
// Marked), from every frame currently being evaluated in, and from
// the pinned intermediates. Pairs, lists, dict values and closure
// frames are followed.
func (rt *Runtime) MarkAll() int {
	h := rt.heap
	seen := newBitset(len(h.slots))
	var gray []*Object
	marked := 0

	visit := func(r Ref) {
		s := h.slotOf(r)
		if s == nil || seen.testAndSet(r.index) {
			return
		}
		if s.flag == Unmarked {
			s.flag = Marked
			marked++
		}
		gray = append(gray, s.obj)
	}

	visitedFrames := make(map[*Enclosing]bool)
	visitFrame := func(e *Enclosing) {
		for ; e != nil && !visitedFrames[e]; e = e.parent {
			visitedFrames[e] = true
			for _, b := range e.binds {
				visit(b.Ref)
			}
		}
	}

	h.Walk(func(r Ref, o *Object, flag GCFlag) bool {
		if flag != Unmarked {
			visit(r)
		}
		return true
	})
	visitFrame(rt.globals)
	for e := range rt.frames {
		visitFrame(e)
	}
	for _, r := range rt.pins {
		visit(r)
	}

	for len(gray) > 0 {
		o := gray[len(gray)-1]
		gray = gray[:len(gray)-1]

		switch o.Kind {
		case KindPair:
			visit(o.Head)
			visit(o.Tail)
		case KindList:
			for _, item := range o.Items {
				visit(item)
			}
		case KindDict:
			if o.Dict != nil {
				o.Dict.Each(func(_ string, v Ref) bool {
					visit(v)
					return true
				})
			}
		case KindFunction:
			if o.Fn != nil && o.Fn.Closure != nil {
				visitFrame(o.Fn.Closure)
			}
		}
	}
	return marked
}

// Sweep frees every object left Unmarked by the preceding mark and
// resets the survivors to Unmarked for the next cycle. Roots keep
// their flag. Returns the number of objects freed.
func (rt *Runtime) Sweep() int {
	h := rt.heap
	collected := 0

	// warning: this is not thread safe
	for i := h.head; i != noSlot; {
		s := &h.slots[i]
		next := s.next
		switch s.flag {
		case Unmarked:
			h.unlink(i)
			collected++
		case Marked:
			s.flag = Unmarked
		}
		i = next
	}
	return collected
}

// Collect runs mark and sweep unless the previous collection was
// less than GCInterval ago. It is consulted on every allocation.
func (rt *Runtime) Collect() GCStats {
	if rt.GCInterval < 0 {
		return GCStats{}
	}
	if rt.GCInterval > 0 && time.Since(rt.lastGC) < rt.GCInterval {
		return GCStats{}
	}
	return rt.ForceCollect()
}

// ForceCollect runs a full mark and sweep now.
func (rt *Runtime) ForceCollect() GCStats {
	cycle := GCStats{Cycles: 1}
	cycle.Marked = rt.MarkAll()
	cycle.Collected = rt.Sweep()
	cycle.Live = rt.heap.Len()
	rt.lastGC = time.Now()

	rt.stats.Cycles++
	rt.stats.Marked += cycle.Marked
	rt.stats.Collected += cycle.Collected
	rt.stats.Live = cycle.Live

	VPrintf("gc cycle %d: marked=%d collected=%d live=%d",
		rt.stats.Cycles, cycle.Marked, cycle.Collected, cycle.Live)
	return cycle
}
