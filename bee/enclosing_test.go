package bee

import (
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func Test040ResolveInheritsAndShadows(t *testing.T) {

	cv.Convey(`a name bound only in a parent resolves to the parent's binding until the child binds its own`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		outer := rt.Globals().Fork()
		defer outer.Leave()
		inner := outer.Fork()
		defer inner.Leave()

		one, two := rt.NewI64(1), rt.NewI64(2)
		outer.Bind("n", one)

		r, ok := inner.Resolve("n")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(r, cv.ShouldResemble, one)
		_, ok = inner.ResolveLocal("n")
		cv.So(ok, cv.ShouldBeFalse)

		inner.Bind("n", two)
		r, _ = inner.Resolve("n")
		cv.So(r, cv.ShouldResemble, two)
		r, _ = outer.Resolve("n")
		cv.So(r, cv.ShouldResemble, one)

		_, ok = inner.Resolve("nowhere")
		cv.So(ok, cv.ShouldBeFalse)

		cv.So(inner.Global(), cv.ShouldEqual, rt.Globals())
		cv.So(inner.Parent(), cv.ShouldEqual, outer)
		cv.So(rt.Globals().IsGlobal(), cv.ShouldBeTrue)
		cv.So(inner.IsGlobal(), cv.ShouldBeFalse)
	})
}

func Test041FirstBindingInAFrameWins(t *testing.T) {

	cv.Convey(`Bind appends so the earliest binding of a name is found; Set replaces it`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		f := rt.Globals().Fork()
		defer f.Leave()
		a, b, c := rt.NewI64(1), rt.NewI64(2), rt.NewI64(3)

		f.Bind("x", a)
		f.Bind("x", b)
		r, _ := f.Resolve("x")
		cv.So(r, cv.ShouldResemble, a)
		cv.So(len(f.Bindings()), cv.ShouldEqual, 2)

		f.Set("x", c)
		r, _ = f.Resolve("x")
		cv.So(r, cv.ShouldResemble, c)
		cv.So(len(f.Bindings()), cv.ShouldEqual, 2)

		f.Set("y", a)
		r, _ = f.Resolve("y")
		cv.So(r, cv.ShouldResemble, a)
	})
}

func Test042CaptureCopiesBindings(t *testing.T) {

	cv.Convey(`bindings added to the source after a capture are not seen by the captured frame`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		src := rt.Globals().Fork()
		defer src.Leave()
		v := rt.NewString("v")
		src.Bind("v", v)

		snap := rt.newClosureFrame()
		snap.Capture(src)
		src.Set("v", rt.NewString("changed"))
		src.Bind("w", rt.NewString("w"))

		r, ok := snap.Resolve("v")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(r, cv.ShouldResemble, v)
		_, ok = snap.Resolve("w")
		cv.So(ok, cv.ShouldBeFalse)
	})

	cv.Convey(`a lambda sees the value a variable had when the lambda was made`, t, func() {
		out := runMain(`
def main() = let x = 1 in
             let f = fn() => x in
             let x = 2 in
             [f(), x]
`)
		cv.So(out, cv.ShouldEqual, `list[i64(1),i64(2)]`)
	})

	cv.Convey(`a lambda captures every enclosing let frame, not only the nearest`, t, func() {
		out := runMain(`
def main() = let a = 1 in let b = 2 in let f = fn() => a + b in f()
`)
		cv.So(out, cv.ShouldEqual, `i64(3)`)
	})
}

func Test043LeaveUnregistersFrames(t *testing.T) {

	cv.Convey(`forked frames count as live until left, and evaluation leaves none behind`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cv.So(rt.LiveFrames(), cv.ShouldEqual, 0)
		f := rt.Globals().Fork()
		g := f.Fork()
		cv.So(rt.LiveFrames(), cv.ShouldEqual, 2)
		g.Leave()
		f.Leave()
		cv.So(rt.LiveFrames(), cv.ShouldEqual, 0)
		cv.So(len(f.Bindings()), cv.ShouldEqual, 0)

		_, err := rt.RunString(`def main() = let a = 1 in for x in [1, 2] do let b = x in b + a`)
		cv.So(err, cv.ShouldBeNil)
		cv.So(rt.LiveFrames(), cv.ShouldEqual, 0)
	})
}
