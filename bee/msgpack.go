package bee

import (
	"fmt"

	"github.com/tinylib/msgp/msgp"
)

// The typed msgpack form keeps every kind: each value is a two item
// array of its Kind and a payload.
//
//	unit, nil         [kind, nil]
//	bool              [kind, bool]
//	u64, i64, f64     [kind, uint64 | int64 | float64]
//	string, error     [kind, str]
//	pair              [kind, [head, tail]]
//	list              [kind, [item...]]
//	dict              [kind, {key: value...}]
//
// Functions have no encoding.

// typedWriter is met by the greenpack stream Writer and by
// byteAppender.
type typedWriter interface {
	WriteArrayHeader(sz uint32) error
	WriteMapHeader(sz uint32) error
	WriteUint8(u uint8) error
	WriteNil() error
	WriteBool(b bool) error
	WriteUint64(u uint64) error
	WriteInt64(i int64) error
	WriteFloat64(f float64) error
	WriteString(s string) error
}

// typedReader is met by the greenpack stream Reader and by
// byteReader.
type typedReader interface {
	ReadArrayHeader() (uint32, error)
	ReadMapHeader() (uint32, error)
	ReadUint8() (uint8, error)
	ReadNil() error
	ReadBool() (bool, error)
	ReadUint64() (uint64, error)
	ReadInt64() (int64, error)
	ReadFloat64() (float64, error)
	ReadString() (string, error)
}

// byteAppender builds the typed form in memory.
type byteAppender struct {
	b []byte
}

func (a *byteAppender) WriteArrayHeader(sz uint32) error { a.b = msgp.AppendArrayHeader(a.b, sz); return nil }
func (a *byteAppender) WriteMapHeader(sz uint32) error   { a.b = msgp.AppendMapHeader(a.b, sz); return nil }
func (a *byteAppender) WriteUint8(u uint8) error         { a.b = msgp.AppendUint8(a.b, u); return nil }
func (a *byteAppender) WriteNil() error                  { a.b = msgp.AppendNil(a.b); return nil }
func (a *byteAppender) WriteBool(b bool) error           { a.b = msgp.AppendBool(a.b, b); return nil }
func (a *byteAppender) WriteUint64(u uint64) error       { a.b = msgp.AppendUint64(a.b, u); return nil }
func (a *byteAppender) WriteInt64(i int64) error         { a.b = msgp.AppendInt64(a.b, i); return nil }
func (a *byteAppender) WriteFloat64(f float64) error     { a.b = msgp.AppendFloat64(a.b, f); return nil }
func (a *byteAppender) WriteString(s string) error       { a.b = msgp.AppendString(a.b, s); return nil }

// byteReader consumes the typed form from memory.
type byteReader struct {
	b []byte
}

func (r *byteReader) ReadArrayHeader() (sz uint32, err error) {
	sz, r.b, err = msgp.ReadArrayHeaderBytes(r.b)
	return
}

func (r *byteReader) ReadMapHeader() (sz uint32, err error) {
	sz, r.b, err = msgp.ReadMapHeaderBytes(r.b)
	return
}

func (r *byteReader) ReadUint8() (u uint8, err error) {
	u, r.b, err = msgp.ReadUint8Bytes(r.b)
	return
}

func (r *byteReader) ReadNil() (err error) {
	r.b, err = msgp.ReadNilBytes(r.b)
	return
}

func (r *byteReader) ReadBool() (v bool, err error) {
	v, r.b, err = msgp.ReadBoolBytes(r.b)
	return
}

func (r *byteReader) ReadUint64() (u uint64, err error) {
	u, r.b, err = msgp.ReadUint64Bytes(r.b)
	return
}

func (r *byteReader) ReadInt64() (i int64, err error) {
	i, r.b, err = msgp.ReadInt64Bytes(r.b)
	return
}

func (r *byteReader) ReadFloat64() (f float64, err error) {
	f, r.b, err = msgp.ReadFloat64Bytes(r.b)
	return
}

func (r *byteReader) ReadString() (s string, err error) {
	s, r.b, err = msgp.ReadStringBytes(r.b)
	return
}

// encodeTyped writes the value under r. path guards against
// containers that hold themselves.
func (rt *Runtime) encodeTyped(w typedWriter, r Ref, path map[Ref]bool) error {
	o := rt.obj(r)

	switch o.Kind {
	case KindFunction:
		return fmt.Errorf("cannot encode a function")
	case KindPair, KindList, KindDict:
		if path[r] {
			return fmt.Errorf("cannot encode a %s that contains itself", o.Kind)
		}
		path[r] = true
		defer delete(path, r)
	}

	if err := w.WriteArrayHeader(2); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(o.Kind)); err != nil {
		return err
	}

	switch o.Kind {
	case KindUnit, KindNil:
		return w.WriteNil()
	case KindBool:
		return w.WriteBool(o.Bool())
	case KindU64:
		return w.WriteUint64(o.U64())
	case KindI64:
		return w.WriteInt64(o.I64())
	case KindF64:
		return w.WriteFloat64(o.F64())
	case KindString, KindError:
		return w.WriteString(o.Str)
	case KindPair:
		if err := w.WriteArrayHeader(2); err != nil {
			return err
		}
		if err := rt.encodeTyped(w, o.Head, path); err != nil {
			return err
		}
		return rt.encodeTyped(w, o.Tail, path)
	case KindList:
		if err := w.WriteArrayHeader(uint32(len(o.Items))); err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := rt.encodeTyped(w, item, path); err != nil {
				return err
			}
		}
		return nil
	case KindDict:
		if err := w.WriteMapHeader(uint32(o.Dict.Len())); err != nil {
			return err
		}
		var err error
		o.Dict.Each(func(key string, v Ref) bool {
			if err = w.WriteString(key); err != nil {
				return false
			}
			err = rt.encodeTyped(w, v, path)
			return err == nil
		})
		return err
	}
	return fmt.Errorf("cannot encode %s", o.Kind)
}

// decodeTyped allocates the next value from rd. Every allocation is
// pinned until the caller's unpinTo.
func (rt *Runtime) decodeTyped(rd typedReader) (Ref, error) {
	sz, err := rd.ReadArrayHeader()
	if err != nil {
		return Ref{}, err
	}
	if sz != 2 {
		return Ref{}, fmt.Errorf("typed value must be a 2 item array, got %d items", sz)
	}
	k, err := rd.ReadUint8()
	if err != nil {
		return Ref{}, err
	}

	var r Ref
	switch kind := Kind(k); kind {
	case KindUnit:
		err = rd.ReadNil()
		r = rt.NewUnit()
	case KindNil:
		err = rd.ReadNil()
		r = rt.Nil()
	case KindBool:
		var v bool
		v, err = rd.ReadBool()
		r = rt.NewBool(v)
	case KindU64:
		var v uint64
		v, err = rd.ReadUint64()
		r = rt.NewU64(v)
	case KindI64:
		var v int64
		v, err = rd.ReadInt64()
		r = rt.NewI64(v)
	case KindF64:
		var v float64
		v, err = rd.ReadFloat64()
		r = rt.NewF64(v)
	case KindString, KindError:
		var s string
		s, err = rd.ReadString()
		if kind == KindError {
			r = rt.NewError(s)
		} else {
			r = rt.NewString(s)
		}
	case KindPair:
		if sz, err = rd.ReadArrayHeader(); err != nil {
			return Ref{}, err
		}
		if sz != 2 {
			return Ref{}, fmt.Errorf("pair payload must have 2 items, got %d", sz)
		}
		var head, tail Ref
		if head, err = rt.decodeTyped(rd); err != nil {
			return Ref{}, err
		}
		if tail, err = rt.decodeTyped(rd); err != nil {
			return Ref{}, err
		}
		r = rt.NewPair(head, tail)
	case KindList:
		if sz, err = rd.ReadArrayHeader(); err != nil {
			return Ref{}, err
		}
		// sz is untrusted input; grow by appending past a small start
		items := make([]Ref, 0, min(int(sz), 64))
		for i := uint32(0); i < sz; i++ {
			item, err := rt.decodeTyped(rd)
			if err != nil {
				return Ref{}, err
			}
			items = append(items, item)
		}
		r = rt.NewList(items)
	case KindDict:
		if sz, err = rd.ReadMapHeader(); err != nil {
			return Ref{}, err
		}
		r = rt.NewDict()
		rt.pin(r)
		dict := rt.Get(r).Dict
		for i := uint32(0); i < sz; i++ {
			key, err := rd.ReadString()
			if err != nil {
				return Ref{}, err
			}
			v, err := rt.decodeTyped(rd)
			if err != nil {
				return Ref{}, err
			}
			dict.Put(key, v)
		}
	default:
		return Ref{}, fmt.Errorf("unknown kind tag %d", k)
	}
	if err != nil {
		return Ref{}, err
	}
	rt.pin(r)
	return r, nil
}

// ToMsgpack returns the typed msgpack form of the value under r.
func (rt *Runtime) ToMsgpack(r Ref) ([]byte, error) {
	var a byteAppender
	if err := rt.encodeTyped(&a, r, make(map[Ref]bool)); err != nil {
		return nil, err
	}
	return a.b, nil
}

// FromMsgpack decodes one typed value; trailing bytes are an error.
func (rt *Runtime) FromMsgpack(by []byte) (Ref, error) {
	mark := rt.pinMark()
	defer rt.unpinTo(mark)

	rd := &byteReader{b: by}
	r, err := rt.decodeTyped(rd)
	if err != nil {
		return Ref{}, err
	}
	if len(rd.b) != 0 {
		return Ref{}, fmt.Errorf("%d trailing bytes after value", len(rd.b))
	}
	return r, nil
}

// MsgpackFunction serves msgpack and unmsgpack. The encoded bytes
// travel as a string.
func MsgpackFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}

	switch name {
	case "msgpack":
		by, err := rt.ToMsgpack(args[0])
		if err != nil {
			return errorf(env, "%s(): %v", name, err)
		}
		return rt.NewString(string(by))
	case "unmsgpack":
		s, ok := argString(env, args[0])
		if !ok {
			return errorf(env, "%s() needs a string, not %s", name, rt.Kind(args[0]))
		}
		r, err := rt.FromMsgpack([]byte(s))
		if err != nil {
			return errorf(env, "%s(): %v", name, err)
		}
		return r
	}
	return errorf(env, "MsgpackFunction: unrecognized function name '%s'", name)
}
