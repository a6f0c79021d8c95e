package beeext

import (
	"bytes"
	"strings"
	"testing"

	"github.com/glycerine/bee/bee"
	cv "github.com/glycerine/goconvey/convey"
)

func newExtRuntime() (*bee.Runtime, *bytes.Buffer) {
	rt := bee.NewRuntime()
	ImportAll(rt)
	var out bytes.Buffer
	rt.Stdout = &out
	return rt, &out
}

func eval(rt *bee.Runtime, src string) bee.Ref {
	r, err := rt.EvalString(src)
	if err != nil {
		panic(err)
	}
	return r
}

func Test200RandomNumbers(t *testing.T) {

	cv.Convey(`random gives an f64 in [0, 1) and randint an i64 in [0, n)`, t, func() {
		rt, _ := newExtRuntime()
		defer rt.Close()

		for i := 0; i < 100; i++ {
			f := rt.Get(eval(rt, `random()`))
			cv.So(f.Kind, cv.ShouldEqual, bee.KindF64)
			cv.So(f.F64(), cv.ShouldBeBetweenOrEqual, 0.0, 1.0)

			n := rt.Get(eval(rt, `randint(5u)`))
			cv.So(n.Kind, cv.ShouldEqual, bee.KindI64)
			cv.So(n.I64(), cv.ShouldBeBetweenOrEqual, int64(0), int64(4))
		}

		cv.So(rt.ErrorMessage(eval(rt, `randint(0)`)), cv.ShouldEqual, "randint() needs a positive integer")
		cv.So(rt.ErrorMessage(eval(rt, `randint()`)), cv.ShouldEqual, "randint() takes one argument")
	})
}

func Test201Regexp(t *testing.T) {

	cv.Convey(`the regexp functions take a pattern and a haystack`, t, func() {
		rt, _ := newExtRuntime()
		defer rt.Close()

		cv.So(rt.Render(eval(rt, `regexp_find("[0-9]+", "abc123def")`)), cv.ShouldEqual, `string('123')`)
		cv.So(rt.Render(eval(rt, `regexp_find_index("[0-9]+", "abc123def")`)), cv.ShouldEqual, `list[i64(3),i64(6)]`)
		cv.So(rt.Render(eval(rt, `regexp_find_index("z", "abc")`)), cv.ShouldEqual, `list[]`)
		cv.So(rt.Render(eval(rt, `regexp_match("^a", "abc")`)), cv.ShouldEqual, `bool(true)`)
		cv.So(rt.Render(eval(rt, `regexp_match("^b", "abc")`)), cv.ShouldEqual, `bool(false)`)

		cv.So(rt.ErrorMessage(eval(rt, `regexp_find(1, "a")`)), cv.ShouldEqual, "regexp_find() arguments should be strings")
		cv.So(rt.ErrorMessage(eval(rt, `regexp_match("(", "a")`)), cv.ShouldStartWith, "regexp_match(): error compiling '(': ")
		cv.So(rt.ErrorMessage(eval(rt, `regexp_match("a")`)), cv.ShouldEqual,
			"regexp_match() wrong number of arguments: takes pattern and haystack")
	})
}

func Test202Timing(t *testing.T) {

	cv.Convey(`now is an i64 that does not go backwards`, t, func() {
		rt, _ := newExtRuntime()
		defer rt.Close()

		a := rt.Get(eval(rt, `now()`)).I64()
		b := rt.Get(eval(rt, `now()`)).I64()
		cv.So(b, cv.ShouldBeGreaterThanOrEqualTo, a)
	})

	cv.Convey(`timeit calls the function count times and returns the average`, t, func() {
		rt, out := newExtRuntime()
		defer rt.Close()

		r := eval(rt, `timeit(fn() => print("tick"), 3)`)
		cv.So(rt.Kind(r), cv.ShouldEqual, bee.KindF64)
		cv.So(strings.Count(out.String(), "tick\n"), cv.ShouldEqual, 3)
		cv.So(out.String(), cv.ShouldContainSubstring, "ran 3 iterations in ")

		cv.So(rt.ErrorMessage(eval(rt, `timeit(1)`)), cv.ShouldEqual, "argument of timeit should be a function")
		cv.So(rt.ErrorMessage(eval(rt, `timeit(now, 0)`)), cv.ShouldEqual, "timeit() count must be a positive integer")
		cv.So(rt.ErrorMessage(eval(rt, `timeit(fn() => head(1), 5)`)), cv.ShouldEqual,
			"head() takes only one argument and must be a pair")
	})
}
