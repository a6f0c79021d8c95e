package bee

import (
	"errors"
	"fmt"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func ref(i int) Ref {
	return Ref{index: uint32(i), gen: 1}
}

func Test020MurmurHashIsStableAndSpreads(t *testing.T) {

	cv.Convey(`the key hash is deterministic, differs between nearby keys, and sign extends high bytes`, t, func() {
		cv.So(MurmurOAAT64("hello"), cv.ShouldEqual, MurmurOAAT64("hello"))
		cv.So(MurmurOAAT64("hello"), cv.ShouldNotEqual, MurmurOAAT64("hellp"))
		cv.So(MurmurOAAT64(""), cv.ShouldEqual, uint64(525201411107845655))

		// one step by hand, with 0xff read as -1
		h := uint64(525201411107845655)
		h ^= 0xffffffffffffffff
		h *= 0x5bd1e9955bd1e995
		h ^= h >> 47
		cv.So(MurmurOAAT64("\xff"), cv.ShouldEqual, h)
	})
}

func Test021HashMapPutGetDelete(t *testing.T) {

	cv.Convey(`get reflects the latest put not followed by a delete`, t, func() {
		m := NewHashMap(4, 100)
		m.Put("a", ref(1))
		m.Put("b", ref(2))
		m.Put("a", ref(3))
		cv.So(m.Len(), cv.ShouldEqual, 2)

		v, ok := m.Get("a")
		cv.So(ok, cv.ShouldBeTrue)
		cv.So(v, cv.ShouldResemble, ref(3))

		cv.So(m.Delete("a"), cv.ShouldBeNil)
		_, ok = m.Get("a")
		cv.So(ok, cv.ShouldBeFalse)
		cv.So(m.Len(), cv.ShouldEqual, 1)
		cv.So(m.Delete("a"), cv.ShouldEqual, ErrKeyNotFound)

		m.Put("a", ref(4))
		v, _ = m.Get("a")
		cv.So(v, cv.ShouldResemble, ref(4))
	})

	cv.Convey(`keys compare in full, so a key is never found by its prefix`, t, func() {
		m := NewHashMap(1, 100)
		m.Put("abc", ref(1))
		_, ok := m.Get("ab")
		cv.So(ok, cv.ShouldBeFalse)
		_, ok = m.Get("abcd")
		cv.So(ok, cv.ShouldBeFalse)
		m.Put("ab", ref(2))
		v, _ := m.Get("abc")
		cv.So(v, cv.ShouldResemble, ref(1))
		cv.So(m.Len(), cv.ShouldEqual, 2)
	})
}

func Test022GrowKeepsEveryKey(t *testing.T) {

	cv.Convey(`after Grow every key is still there with its value, the generation flips and each entry sits in its hashed row`, t, func() {
		m := NewHashMap(3, 1000)
		for i := 0; i < 50; i++ {
			m.Put(fmt.Sprintf("key%d", i), ref(i))
		}
		cv.So(m.Generation(), cv.ShouldEqual, RehashA)

		cv.So(m.Grow(4), cv.ShouldBeNil)
		cv.So(m.Rows(), cv.ShouldEqual, 12)
		cv.So(m.MaxObjects(), cv.ShouldEqual, 4000)
		cv.So(m.Generation(), cv.ShouldEqual, RehashB)
		cv.So(m.Len(), cv.ShouldEqual, 50)

		for i := 0; i < 50; i++ {
			v, ok := m.Get(fmt.Sprintf("key%d", i))
			cv.So(ok, cv.ShouldBeTrue)
			cv.So(v, cv.ShouldResemble, ref(i))
		}
		for ri, e := range m.rows {
			for ; e != nil; e = e.next {
				cv.So(m.index(e.key), cv.ShouldEqual, ri)
				cv.So(e.gen, cv.ShouldEqual, RehashB)
			}
		}
		cv.So(len(m.Keys()), cv.ShouldEqual, 50)

		cv.So(m.Grow(2), cv.ShouldBeNil)
		cv.So(m.Generation(), cv.ShouldEqual, RehashA)
		v, _ := m.Get("key49")
		cv.So(v, cv.ShouldResemble, ref(49))
	})

	cv.Convey(`a grow factor of one or less is refused`, t, func() {
		m := NewHashMap(2, 10)
		err := m.Grow(1)
		cv.So(errors.Is(err, ErrBadGrowFactor), cv.ShouldBeTrue)
		cv.So(m.Rows(), cv.ShouldEqual, 2)
	})
}

func Test023HashMapGrowsPastLoadFactor(t *testing.T) {

	cv.Convey(`putting more than three quarters of maxObjects grows the map tenfold, unless NoAutoGrow is set`, t, func() {
		m := NewHashMap(2, 8)
		for i := 0; i < 6; i++ {
			m.Put(fmt.Sprintf("k%d", i), ref(i))
		}
		cv.So(m.Rows(), cv.ShouldEqual, 2)
		m.Put("k6", ref(6))
		cv.So(m.Rows(), cv.ShouldEqual, 20)
		cv.So(m.MaxObjects(), cv.ShouldEqual, 80)

		fixed := NewHashMap(2, 8)
		fixed.NoAutoGrow = true
		for i := 0; i < 20; i++ {
			fixed.Put(fmt.Sprintf("k%d", i), ref(i))
		}
		cv.So(fixed.Rows(), cv.ShouldEqual, 2)
		cv.So(fixed.Len(), cv.ShouldEqual, 20)
	})
}
