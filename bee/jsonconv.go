package bee

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"

	"github.com/ugorji/go/codec"
)

/*
 Conversion map

 Go interface{} <--(1)--> heap object
      ^
     (2)
      V
    json

(1) ToGo() and FromGo() herein.
(2) ugorji/go/codec: JsonToGo() / GoToJson().

The json form is lossy: u64 reads back as i64, a pair comes back
as a two item list, unit as nil and an error as {"error": msg}.
msgpack.go has the typed form that keeps every kind.
*/

type codecHelper struct {
	initialized bool
	mh          codec.MsgpackHandle
	jh          codec.JsonHandle
}

func (m *codecHelper) init() {
	if m.initialized {
		return
	}

	m.mh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	m.mh.RawToString = true
	m.mh.WriteExt = true
	m.mh.SignedInteger = true
	m.mh.Canonical = true // sort maps before writing them

	m.jh.MapType = reflect.TypeOf(map[string]interface{}(nil))
	m.jh.SignedInteger = true
	m.jh.Canonical = true

	m.initialized = true
}

var codecs codecHelper

func init() {
	codecs.init()
}

// JsonToGo decodes json into maps, slices and scalars.
func JsonToGo(json []byte) (interface{}, error) {
	var iface interface{}

	decoder := codec.NewDecoderBytes(json, &codecs.jh)
	err := decoder.Decode(&iface)
	if err != nil {
		return nil, err
	}
	VPrintf("\n decoded type : %T\n", iface)
	return iface, nil
}

// GoToJson encodes iface; map keys come out sorted.
func GoToJson(iface interface{}) ([]byte, error) {
	var w bytes.Buffer
	encoder := codec.NewEncoder(&w, &codecs.jh)
	err := encoder.Encode(&iface)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// GoToMsgpack is the untyped msgpack form of iface, used for
// round trip checks against the json form.
func GoToMsgpack(iface interface{}) ([]byte, error) {
	var w bytes.Buffer
	enc := codec.NewEncoder(&w, &codecs.mh)
	err := enc.Encode(&iface)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func MsgpackToGo(msgp []byte) (interface{}, error) {
	var iface interface{}
	dec := codec.NewDecoderBytes(msgp, &codecs.mh)
	err := dec.Decode(&iface)
	if err != nil {
		return nil, err
	}
	return iface, nil
}

// ToGo converts the object graph under r into plain Go values.
// Functions cannot be converted, nor can a container that holds
// itself.
func (rt *Runtime) ToGo(r Ref) (interface{}, error) {
	return rt.toGo(r, make(map[Ref]bool))
}

func (rt *Runtime) toGo(r Ref, path map[Ref]bool) (interface{}, error) {
	o := rt.obj(r)

	switch o.Kind {
	case KindPair, KindList, KindDict:
		if path[r] {
			return nil, fmt.Errorf("cannot convert a %s that contains itself", o.Kind)
		}
		path[r] = true
		defer delete(path, r)
	}

	switch o.Kind {
	case KindUnit, KindNil:
		return nil, nil
	case KindBool:
		return o.Bool(), nil
	case KindU64:
		return o.U64(), nil
	case KindI64:
		return o.I64(), nil
	case KindF64:
		return o.F64(), nil
	case KindString:
		return o.Str, nil
	case KindError:
		return map[string]interface{}{"error": o.Str}, nil
	case KindPair:
		h, err := rt.toGo(o.Head, path)
		if err != nil {
			return nil, err
		}
		t, err := rt.toGo(o.Tail, path)
		if err != nil {
			return nil, err
		}
		return []interface{}{h, t}, nil
	case KindList:
		s := make([]interface{}, 0, len(o.Items))
		for _, item := range o.Items {
			v, err := rt.toGo(item, path)
			if err != nil {
				return nil, err
			}
			s = append(s, v)
		}
		return s, nil
	case KindDict:
		m := make(map[string]interface{}, o.Dict.Len())
		var err error
		o.Dict.Each(func(key string, v Ref) bool {
			m[key], err = rt.toGo(v, path)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("cannot convert %s", o.Kind)
}

// FromGo allocates the heap form of a decoded Go value. Maps become
// dicts, inserted in key order.
func (rt *Runtime) FromGo(iface interface{}) (Ref, error) {
	mark := rt.pinMark()
	defer rt.unpinTo(mark)
	return rt.fromGo(iface, 0)
}

func (rt *Runtime) fromGo(iface interface{}, depth int) (Ref, error) {
	VPrintf("fromGo() at depth %d, decoded type is %T\n", depth, iface)
	switch val := iface.(type) {
	case nil:
		return rt.Nil(), nil
	case bool:
		return rt.NewBool(val), nil
	case int:
		return rt.NewI64(int64(val)), nil
	case int32:
		return rt.NewI64(int64(val)), nil
	case int64:
		return rt.NewI64(val), nil
	case uint64:
		return rt.NewU64(val), nil
	case float32:
		return rt.NewF64(float64(val)), nil
	case float64:
		return rt.NewF64(val), nil
	case string:
		return rt.NewString(val), nil
	case []byte:
		return rt.NewString(string(val)), nil
	case []interface{}:
		mark := rt.pinMark()
		defer rt.unpinTo(mark)
		items := make([]Ref, 0, len(val))
		for _, v := range val {
			item, err := rt.fromGo(v, depth+1)
			if err != nil {
				return Ref{}, err
			}
			rt.pin(item)
			items = append(items, item)
		}
		return rt.NewList(items), nil
	case map[string]interface{}:
		d := rt.NewDict()
		rt.pin(d)
		dict := rt.Get(d).Dict

		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := rt.fromGo(val[k], depth+1)
			if err != nil {
				return Ref{}, err
			}
			dict.Put(k, v)
		}
		return d, nil
	}
	return Ref{}, fmt.Errorf("cannot convert Go type %T", iface)
}

// ToJson renders the value under r as json.
func (rt *Runtime) ToJson(r Ref) ([]byte, error) {
	iface, err := rt.ToGo(r)
	if err != nil {
		return nil, err
	}
	return GoToJson(iface)
}

// FromJson allocates the value json describes.
func (rt *Runtime) FromJson(json []byte) (Ref, error) {
	iface, err := JsonToGo(json)
	if err != nil {
		return Ref{}, err
	}
	return rt.FromGo(iface)
}

// JsonFunction serves json and unjson.
func JsonFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}

	switch name {
	case "json":
		by, err := rt.ToJson(args[0])
		if err != nil {
			return errorf(env, "%s(): %v", name, err)
		}
		return rt.NewString(string(by))
	case "unjson":
		s, ok := argString(env, args[0])
		if !ok {
			return errorf(env, "%s() needs a string, not %s", name, rt.Kind(args[0]))
		}
		r, err := rt.FromJson([]byte(s))
		if err != nil {
			return errorf(env, "%s(): %v", name, err)
		}
		return r
	}
	return errorf(env, "JsonFunction: unrecognized function name '%s'", name)
}
