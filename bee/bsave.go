package bee

import (
	"fmt"
	"os"

	"github.com/glycerine/greenpack/msgp"
)

// bsave(value, path) streams value to a new file in the typed
// msgpack form; bload(path) reads it back. bsave returns the
// number of bytes written as an i64.

func FileExists(name string) bool {
	fi, err := os.Stat(name)
	if err != nil {
		return false
	}
	return !fi.IsDir()
}

// SaveFile writes the value under r to path, which must not exist.
func (rt *Runtime) SaveFile(r Ref, path string) (int64, error) {
	if FileExists(path) {
		return 0, fmt.Errorf("refusing to write to existing file '%s'", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := msgp.NewWriter(f)
	if err := rt.encodeTyped(w, r, make(map[Ref]bool)); err != nil {
		return 0, err
	}
	if err := w.Flush(); err != nil {
		return 0, err
	}
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// LoadFile reads one value written by SaveFile.
func (rt *Runtime) LoadFile(path string) (Ref, error) {
	if !FileExists(path) {
		return Ref{}, fmt.Errorf("file '%s' does not exist", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Ref{}, err
	}
	defer f.Close()

	mark := rt.pinMark()
	defer rt.unpinTo(mark)
	return rt.decodeTyped(msgp.NewReader(f))
}

func BsaveFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 2 {
		return wrongNargs(env, name, "two arguments", len(args))
	}
	path, ok := argString(env, args[1])
	if !ok {
		return errorf(env, "%s() requires a string path as the second argument, not %s", name, rt.Kind(args[1]))
	}
	n, err := rt.SaveFile(args[0], path)
	if err != nil {
		return errorf(env, "%s(): %v", name, err)
	}
	return rt.NewI64(n)
}

func BloadFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}
	path, ok := argString(env, args[0])
	if !ok {
		return errorf(env, "%s() requires a string path, not %s", name, rt.Kind(args[0]))
	}
	r, err := rt.LoadFile(path)
	if err != nil {
		return errorf(env, "%s(): %v", name, err)
	}
	return r
}
