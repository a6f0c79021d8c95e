package bee

import (
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func Test070Typename(t *testing.T) {

	cv.Convey(`typename names the kind of its argument`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cases := map[string]string{
			`typename(())`:         "unit",
			`typename(nil)`:        "nil",
			`typename(true)`:       "bool",
			`typename(1u)`:         "u64",
			`typename(1)`:          "i64",
			`typename(1.0)`:        "f64",
			`typename("s")`:        "string",
			`typename(pair(1, 2))`: "pair",
			`typename([])`:         "list",
			`typename({})`:         "dict",
			`typename(print)`:      "function",
			`typename(fn(x) => x)`: "function",
		}
		for src, want := range cases {
			cv.So(evalRender(rt, src), cv.ShouldEqual, "string('"+want+"')")
		}

		r, _ := rt.EvalString(`typename(1, 2)`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "typename() wrong number of arguments: takes one argument, got 2")
	})
}

func Test071PairAndMembers(t *testing.T) {

	cv.Convey(`pair takes zero or two arguments; head and tail take exactly one pair`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cv.So(evalRender(rt, `pair()`), cv.ShouldEqual, `pair(nil,nil)`)
		r, _ := rt.EvalString(`pair(1)`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "pair() wrong number of arguments: takes zero or two arguments, got 1")

		r, _ = rt.EvalString(`tail(pair(1, 2), 3)`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "tail() takes only one argument and must be a pair")
		r, _ = rt.EvalString(`tail([1, 2])`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "tail() takes only one argument and must be a pair")
	})
}

func Test072ContainerBuiltins(t *testing.T) {

	cv.Convey(`len, get, put, del and keys work over dicts and lists`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cv.So(evalRender(rt, `len("abc")`), cv.ShouldEqual, `i64(3)`)
		cv.So(evalRender(rt, `len([1, 2])`), cv.ShouldEqual, `i64(2)`)
		cv.So(evalRender(rt, `len({a: 1, b: 2})`), cv.ShouldEqual, `i64(2)`)
		cv.So(evalRender(rt, `len(pair(1, 2))`), cv.ShouldEqual, `i64(2)`)

		cv.So(evalRender(rt, `get([10, 20, 30], 1)`), cv.ShouldEqual, `i64(20)`)
		cv.So(evalRender(rt, `get([10, 20, 30], 2u)`), cv.ShouldEqual, `i64(30)`)
		cv.So(evalRender(rt, `get({a: "x"}, "a")`), cv.ShouldEqual, `string('x')`)

		cv.So(evalRender(rt, `let d = {} in let d2 = put(d, "k", 5) in get(d, "k")`), cv.ShouldEqual, `i64(5)`)
		cv.So(evalRender(rt, `keys(del({a: 1, b: 2, c: 3}, "b"))`), cv.ShouldEqual, `list[string('a'),string('c')]`)
		cv.So(evalRender(rt, `keys({zz: 1, aa: 2, mm: 3})`), cv.ShouldEqual, `list[string('aa'),string('mm'),string('zz')]`)
	})

	cv.Convey(`container builtins report misuse as error objects`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		msg := func(src string) string {
			r, err := rt.EvalString(src)
			panicOn(err)
			return rt.ErrorMessage(r)
		}
		cv.So(msg(`len(1)`), cv.ShouldEqual, "len() of i64 is not defined")
		cv.So(msg(`get([1], 5)`), cv.ShouldEqual, "get(): index 5 out of range [0, 1)")
		cv.So(msg(`get([1], -1)`), cv.ShouldEqual, "get(): index -1 out of range [0, 1)")
		cv.So(msg(`get([1], "a")`), cv.ShouldEqual, "get(): list index must be an integer, not string")
		cv.So(msg(`get({}, "a")`), cv.ShouldEqual, "get(): key 'a' not found")
		cv.So(msg(`get({}, 1)`), cv.ShouldEqual, "get(): dict key must be a string, not i64")
		cv.So(msg(`get(1, 1)`), cv.ShouldEqual, "get() needs a dict or a list, not i64")
		cv.So(msg(`put([], "a", 1)`), cv.ShouldEqual, "put() needs a dict and a string key, not list and string")
		cv.So(msg(`del({}, "gone")`), cv.ShouldEqual, "del(): key 'gone': key not found")
		cv.So(msg(`keys([])`), cv.ShouldEqual, "keys() takes one dict argument")
	})
}

func Test073SandboxLeavesOutSystemFunctions(t *testing.T) {

	cv.Convey(`a sandboxed runtime has no bsave, bload or dump`, t, func() {
		rt := NewRuntimeSandbox()
		defer rt.Close()

		for _, name := range []string{"bsave", "bload", "dump"} {
			_, ok := rt.Globals().ResolveLocal(name)
			cv.So(ok, cv.ShouldBeFalse)
		}
		for _, name := range []string{"print", "typename", "pair", "head", "tail", "json", "msgpack", "blake2"} {
			_, ok := rt.Globals().ResolveLocal(name)
			cv.So(ok, cv.ShouldBeTrue)
		}
		r, _ := rt.EvalString(`bsave(1, "/tmp/x")`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "undefined function 'bsave'")
	})
}

func Test074MergeFuncMapRejectsDuplicates(t *testing.T) {

	cv.Convey(`merging two maps that share a name panics`, t, func() {
		cv.So(func() { MergeFuncMap(CoreFunctions(), CoreFunctions()) }, cv.ShouldPanic)
		merged := MergeFuncMap(CoreFunctions(), EncodingFunctions(), SystemFunctions())
		cv.So(len(merged), cv.ShouldEqual, len(AllBuiltinFunctions()))
	})

	cv.Convey(`AddFunction makes a native callable from scripts and serves its name`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		rt.AddFunction("whoami", func(env *Enclosing, name string) Ref {
			return env.Runtime().NewString(name)
		})
		cv.So(evalRender(rt, `whoami()`), cv.ShouldEqual, `string('whoami')`)
		cv.So(evalRender(rt, `let f = whoami in f()`), cv.ShouldEqual, `string('whoami')`)
	})
}
