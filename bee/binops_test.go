package bee

import (
	"math"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func Test030BinopsOnMatchingTypes(t *testing.T) {

	cv.Convey(`each numeric type computes in its own kind`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cases := []struct {
			src  string
			want string
		}{
			{`1 + 2`, `i64(3)`},
			{`7 - 10`, `i64(-3)`},
			{`6 * 7`, `i64(42)`},
			{`7 / 2`, `i64(3)`},
			{`-7 % 3`, `i64(-1)`},
			{`6 & 3`, `i64(2)`},
			{`6 | 3`, `i64(7)`},
			{`6 ^ 3`, `i64(5)`},
			{`3 < 4`, `i64(1)`},
			{`3 >= 4`, `i64(0)`},
			{`2 && 0`, `i64(0)`},
			{`2 or 0`, `i64(1)`},
			{`7u / 2u`, `u64(3)`},
			{`1u - 2u`, `u64(18446744073709551615)`},
			{`5u == 5u`, `u64(1)`},
			{`1.5 + 2.25`, `f64(3.750000)`},
			{`1.0 / 4.0`, `f64(0.250000)`},
			{`1.5 < 2.5`, `f64(1.000000)`},
			{`2.5 and 0.0`, `f64(0.000000)`},
		}
		for _, c := range cases {
			cv.So(evalRender(rt, c.src), cv.ShouldEqual, c.want)
		}
	})
}

func Test031MixedNumericOperands(t *testing.T) {

	cv.Convey(`signed with unsigned computes on the unsigned view tagged i64; integer with float computes in float`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cv.So(evalRender(rt, `3u + 4`), cv.ShouldEqual, `i64(7)`)
		cv.So(evalRender(rt, `4 - 5u`), cv.ShouldEqual, `i64(-1)`)
		cv.So(evalRender(rt, `-1 > 1u`), cv.ShouldEqual, `i64(1)`)
		cv.So(evalRender(rt, `2 * 1.5`), cv.ShouldEqual, `f64(3.000000)`)
		cv.So(evalRender(rt, `1.5 + 2u`), cv.ShouldEqual, `f64(3.500000)`)
		cv.So(evalRender(rt, `1 < 1.5`), cv.ShouldEqual, `f64(1.000000)`)
	})

	cv.Convey(`the >= handlers that mix integers and floats read the float operand's bits as a signed integer`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		// 2.0 as int64 bits is a huge positive number
		cv.So(evalRender(rt, `5 >= 2.0`), cv.ShouldEqual, `f64(0.000000)`)
		cv.So(evalRender(rt, `5u >= 2.0`), cv.ShouldEqual, `f64(0.000000)`)
		// the u64 1 read as i64 is 1, so this one agrees with arithmetic
		cv.So(evalRender(rt, `2.0 >= 1u`), cv.ShouldEqual, `f64(1.000000)`)
		// while the other comparisons read floats as floats
		cv.So(evalRender(rt, `5 > 2.0`), cv.ShouldEqual, `f64(1.000000)`)

		two := int64(math.Float64bits(2.0))
		cv.So(two > 5, cv.ShouldBeTrue)
	})
}

func Test032EqualityIsSymmetric(t *testing.T) {

	cv.Convey(`a == b and b == a agree for every defined type pair`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		values := []string{`3`, `3u`, `3.0`, `4`, `"x"`, `"y"`}
		for _, a := range values {
			for _, b := range values {
				ab, _ := rt.EvalString(a + " == " + b)
				abIsErr, abTrue := rt.IsError(ab), truthy(rt.Get(ab))
				ba, _ := rt.EvalString(b + " == " + a)
				cv.So(rt.IsError(ba), cv.ShouldEqual, abIsErr)
				if !abIsErr {
					cv.So(truthy(rt.Get(ba)), cv.ShouldEqual, abTrue)
				}
			}
		}
	})
}

func Test033StringOperands(t *testing.T) {

	cv.Convey(`+ stringifies numbers, strings compare bytewise, anything else between strings and numbers is an error`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cv.So(evalRender(rt, `"a" + 1`), cv.ShouldEqual, `string('a1')`)
		cv.So(evalRender(rt, `2u + "b"`), cv.ShouldEqual, `string('2b')`)
		cv.So(evalRender(rt, `"f" + 1.5`), cv.ShouldEqual, `string('f1.500000')`)
		cv.So(evalRender(rt, `"ab" + "cd"`), cv.ShouldEqual, `string('abcd')`)
		cv.So(evalRender(rt, `"ab" == "ab"`), cv.ShouldEqual, `i64(1)`)
		cv.So(evalRender(rt, `"ab" != "ab"`), cv.ShouldEqual, `i64(0)`)
		cv.So(evalRender(rt, `"ab" == "abc"`), cv.ShouldEqual, `i64(0)`)

		r, _ := rt.EvalString(`"a" * 2`)
		cv.So(rt.IsError(r), cv.ShouldBeTrue)
		r, _ = rt.EvalString(`"a" < "b"`)
		cv.So(rt.IsError(r), cv.ShouldBeTrue)
	})
}

func Test034OperatorErrors(t *testing.T) {

	cv.Convey(`unsupported pairs name both types, division by zero is an error and error operands pass through`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		r, _ := rt.EvalString(`true + 1`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "undefined binary operation '+' between types: bool and i64")

		r, _ = rt.EvalString(`1 / 0`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, ErrDivByZero.Error())
		r, _ = rt.EvalString(`1u % 0u`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, ErrDivByZero.Error())

		r, _ = rt.EvalString(`1.5 % 2.0`)
		cv.So(strings.HasPrefix(rt.ErrorMessage(r), ErrUnsupportedOp.Error()), cv.ShouldBeTrue)

		r, _ = rt.EvalString(`(1 / 0) + (true + 1)`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, ErrDivByZero.Error())
		r, _ = rt.EvalString(`1 + (true + 1)`)
		cv.So(strings.Contains(rt.ErrorMessage(r), "bool and i64"), cv.ShouldBeTrue)

		e := rt.NewError("boom")
		cv.So(rt.ApplyBinOp(rt.NewI64(1), e, OpAdd), cv.ShouldResemble, e)
	})
}

func Test035UnaryOperators(t *testing.T) {

	cv.Convey(`- and ! over integers, floats and bools`, t, func() {
		rt, _ := newQuietRuntime()
		defer rt.Close()

		cv.So(evalRender(rt, `-(3)`), cv.ShouldEqual, `i64(-3)`)
		cv.So(evalRender(rt, `-(3u)`), cv.ShouldEqual, `i64(-3)`)
		cv.So(evalRender(rt, `-(1.5)`), cv.ShouldEqual, `f64(-1.500000)`)
		cv.So(evalRender(rt, `!0`), cv.ShouldEqual, `i64(1)`)
		cv.So(evalRender(rt, `!5u`), cv.ShouldEqual, `i64(0)`)
		cv.So(evalRender(rt, `!0.0`), cv.ShouldEqual, `f64(1.000000)`)
		cv.So(evalRender(rt, `!true`), cv.ShouldEqual, `bool(false)`)

		r, _ := rt.EvalString(`-"a"`)
		cv.So(rt.ErrorMessage(r), cv.ShouldEqual, "unsupported unary operation '-' for type string")
	})

	cv.Convey(`operator names parse back to themselves`, t, func() {
		for op := OpAdd; op <= OpGe; op++ {
			back, ok := ParseBinOp(op.String())
			cv.So(ok, cv.ShouldBeTrue)
			cv.So(back, cv.ShouldEqual, op)
		}
		op, ok := ParseBinOp("and")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(op, cv.ShouldEqual, OpAndLogical)
		_, ok = ParseBinOp("**")
		cv.So(ok, cv.ShouldBeFalse)
	})
}
