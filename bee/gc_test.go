package bee

import (
	"testing"
	"time"

	cv "github.com/glycerine/goconvey/convey"
)

func Test010FreshObjectsSurviveOneSweep(t *testing.T) {

	cv.Convey(`an unreferenced object survives the first collection after its birth and is freed by the second`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()
		base := rt.Heap().Len()

		a := rt.NewI64(1)
		rt.ForceCollect()
		cv.So(rt.Heap().Valid(a), cv.ShouldBeTrue)

		cycle := rt.ForceCollect()
		cv.So(rt.Heap().Valid(a), cv.ShouldBeFalse)
		cv.So(cycle.Collected, cv.ShouldEqual, 1)
		cv.So(rt.Heap().Len(), cv.ShouldEqual, base)
		cv.So(rt.Stats().Cycles, cv.ShouldEqual, 2)
	})
}

func Test011PinsFramesAndGlobalsKeepObjectsAlive(t *testing.T) {

	cv.Convey(`pinned values, values bound in live frames and global bindings are reachable`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		mark := rt.PinMark()
		pinned := rt.NewString("pinned")
		rt.Pin(pinned)

		frame := rt.Globals().Fork()
		local := rt.NewI64(3)
		frame.Bind("x", local)

		global := rt.NewF64(2.5)
		rt.Globals().Bind("g", global)

		rt.ForceCollect()
		rt.ForceCollect()
		cv.So(rt.Heap().Valid(pinned), cv.ShouldBeTrue)
		cv.So(rt.Heap().Valid(local), cv.ShouldBeTrue)
		cv.So(rt.Heap().Valid(global), cv.ShouldBeTrue)

		rt.UnpinTo(mark)
		frame.Leave()
		rt.ForceCollect()
		cv.So(rt.Heap().Valid(pinned), cv.ShouldBeFalse)
		cv.So(rt.Heap().Valid(local), cv.ShouldBeFalse)
		cv.So(rt.Heap().Valid(global), cv.ShouldBeTrue)
	})
}

func Test012ContainersAreTraced(t *testing.T) {

	cv.Convey(`pair members, list items and dict values live as long as their container`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		h, tl := rt.NewI64(1), rt.NewI64(2)
		p := rt.NewPair(h, tl)
		item := rt.NewString("item")
		l := rt.NewList([]Ref{p, item})
		d := rt.NewDict()
		v := rt.NewU64(9)
		rt.Get(d).Dict.Put("v", v)
		rt.Get(d).Dict.Put("l", l)
		rt.Pin(d)

		rt.ForceCollect()
		rt.ForceCollect()
		for _, r := range []Ref{h, tl, p, item, l, d, v} {
			cv.So(rt.Heap().Valid(r), cv.ShouldBeTrue)
		}
	})
}

func Test013UnreachableCyclesAreCollected(t *testing.T) {

	cv.Convey(`a dict that holds itself, and a closure whose frame names its own function, are freed once unreachable`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()
		base := rt.Heap().Len()

		d := rt.NewDict()
		rt.Get(d).Dict.Put("self", d)

		fn, err := rt.EvalString(`let x = [1, 2] in fn() => x`)
		cv.So(err, cv.ShouldBeNil)
		cv.So(rt.Kind(fn), cv.ShouldEqual, KindFunction)
		closure := rt.Get(fn).Fn.Closure
		closure.Bind("me", fn)

		rt.ForceCollect()
		rt.ForceCollect()
		cv.So(rt.Heap().Valid(d), cv.ShouldBeFalse)
		cv.So(rt.Heap().Valid(fn), cv.ShouldBeFalse)
		cv.So(rt.Heap().Len(), cv.ShouldEqual, base)
	})
}

func Test014ClosureFramesKeepCapturedValues(t *testing.T) {

	cv.Convey(`values captured by a lambda stay alive while the lambda does`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		fn, err := rt.EvalString(`let x = [1, 2] in fn() => x`)
		cv.So(err, cv.ShouldBeNil)
		rt.Pin(fn)
		rt.ForceCollect()
		rt.ForceCollect()
		rt.ForceCollect()

		cv.So(rt.Render(rt.Apply(fn)), cv.ShouldEqual, "list[i64(1),i64(2)]")
	})
}

func Test015CollectIsRateLimited(t *testing.T) {

	cv.Convey(`Collect runs only once GCInterval has passed; zero means always and negative never`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		rt.GCInterval = time.Hour
		cv.So(rt.Collect().Cycles, cv.ShouldEqual, 0)

		rt.GCInterval = 0
		cv.So(rt.Collect().Cycles, cv.ShouldEqual, 1)

		rt.GCInterval = -1
		cv.So(rt.Collect().Cycles, cv.ShouldEqual, 0)
	})
}

func Test016ProgramsSurviveCollectionOnEveryAllocation(t *testing.T) {

	cv.Convey(`with the collector running on every allocation, results match a run with no collection at all`, t, func() {
		src := `
def count(s) = if typename(s) == "unit" then pair(true, 0)
               elif tail(s) < 20 then pair(true, tail(s) + 1)
               else pair(false, 0)
def adder(n) = fn(x) => x + n
def main() = let add3 = adder(3),
                 d = {a: [1, 2, 3], b: "bee"}
             in [reduce acc = 0 for i in count if i % 2 == 0 do acc + add3(i),
                 for x in get(d, "a") do pair(x, get(d, "b") + x),
                 keys(d),
                 json(d)]
`
		lazy, _ := newQuietRuntime()
		defer lazy.Close()
		want, err := lazy.RunString(src)
		cv.So(err, cv.ShouldBeNil)

		eager, _ := newQuietRuntime()
		defer eager.Close()
		eager.GCInterval = 0
		got, err := eager.RunString(src)
		cv.So(err, cv.ShouldBeNil)

		cv.So(eager.IsError(got), cv.ShouldBeFalse)
		cv.So(eager.Render(got), cv.ShouldEqual, lazy.Render(want))
		cv.So(eager.Stats().Cycles, cv.ShouldBeGreaterThan, 100)
		cv.So(eager.Stats().Collected, cv.ShouldBeGreaterThan, 0)
	})
}
