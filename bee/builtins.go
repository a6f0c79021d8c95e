package bee

import (
	"bytes"
	"fmt"
	"sort"
)

var WrongNargs = fmt.Errorf("wrong number of arguments")

// MergeFuncMap joins function maps; a name may appear only once.
func MergeFuncMap(funcs ...map[string]NativeFunction) map[string]NativeFunction {
	n := make(map[string]NativeFunction)

	for _, f := range funcs {
		for k, v := range f {
			if _, dup := n[k]; dup {
				panic(fmt.Sprintf("duplicate function '%s' not allowed", k))
			}
			n[k] = v
		}
	}
	return n
}

func sortedNames(funcs map[string]NativeFunction) []string {
	names := make([]string, 0, len(funcs))
	for k := range funcs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SandboxSafeFunctions returns the builtins that cannot reach the
// filesystem.
func SandboxSafeFunctions() map[string]NativeFunction {
	return MergeFuncMap(
		CoreFunctions(),
		EncodingFunctions(),
	)
}

// AllBuiltinFunctions returns every builtin.
func AllBuiltinFunctions() map[string]NativeFunction {
	return MergeFuncMap(
		CoreFunctions(),
		EncodingFunctions(),
		SystemFunctions(),
	)
}

func CoreFunctions() map[string]NativeFunction {
	return map[string]NativeFunction{
		"print":    PrintFunction,
		"typename": TypenameFunction,
		"pair":     PairFunction,
		"head":     PairMemberFunction,
		"tail":     PairMemberFunction,
		"len":      LenFunction,
		"get":      GetFunction,
		"put":      PutFunction,
		"del":      DelFunction,
		"keys":     KeysFunction,
	}
}

func EncodingFunctions() map[string]NativeFunction {
	return map[string]NativeFunction{
		"json":      JsonFunction,
		"unjson":    JsonFunction,
		"msgpack":   MsgpackFunction,
		"unmsgpack": MsgpackFunction,
		"blake2":    Blake2Function,
	}
}

func SystemFunctions() map[string]NativeFunction {
	return map[string]NativeFunction{
		"bsave": BsaveFunction,
		"bload": BloadFunction,
		"dump":  GoonDumpFunction,
	}
}

// errorf allocates an error object in env's runtime.
func errorf(env *Enclosing, format string, a ...interface{}) Ref {
	return env.Runtime().NewError(fmt.Sprintf(format, a...))
}

func wrongNargs(env *Enclosing, name string, want string, got int) Ref {
	return errorf(env, "%s() %s: takes %s, got %d", name, WrongNargs, want, got)
}

// PrintFunction writes the plain form of its arguments separated by
// spaces and followed by a newline. It returns the number of bytes
// written as an i64.
func PrintFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()

	var buf bytes.Buffer
	for i, a := range args {
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(rt.RenderPlain(a))
	}
	buf.WriteString("\n")

	n, err := rt.Stdout.Write(buf.Bytes())
	if err != nil {
		return errorf(env, "%s(): %v", name, err)
	}
	return rt.NewI64(int64(n))
}

func TypenameFunction(env *Enclosing, name string) Ref {
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}
	rt := env.Runtime()
	return rt.NewString(rt.Kind(args[0]).String())
}

// PairFunction builds pair(a, b); with no arguments both members
// are nil.
func PairFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	switch len(args) {
	case 0:
		return rt.NewPair(rt.Nil(), rt.Nil())
	case 2:
		return rt.NewPair(args[0], args[1])
	}
	return wrongNargs(env, name, "zero or two arguments", len(args))
}

// PairMemberFunction serves head and tail.
func PairMemberFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 || rt.Kind(args[0]) != KindPair {
		return errorf(env, "%s() takes only one argument and must be a pair", name)
	}
	p := rt.Get(args[0])
	if name == "tail" {
		return p.Tail
	}
	return p.Head
}

func LenFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}
	o := rt.obj(args[0])
	switch o.Kind {
	case KindString:
		return rt.NewI64(int64(len(o.Str)))
	case KindList:
		return rt.NewI64(int64(len(o.Items)))
	case KindDict:
		return rt.NewI64(int64(o.Dict.Len()))
	case KindPair:
		return rt.NewI64(2)
	}
	return errorf(env, "%s() of %s is not defined", name, o.Kind)
}

// indexOf reads an integer index, either signedness.
func indexOf(o *Object) (int64, bool) {
	switch o.Kind {
	case KindI64:
		return o.I64(), true
	case KindU64:
		return int64(o.U64()), true
	}
	return 0, false
}

// GetFunction reads dict[key] or list[index].
func GetFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 2 {
		return wrongNargs(env, name, "two arguments", len(args))
	}
	container, key := rt.obj(args[0]), rt.obj(args[1])

	switch container.Kind {
	case KindDict:
		if key.Kind != KindString {
			return errorf(env, "%s(): dict key must be a string, not %s", name, key.Kind)
		}
		v, ok := container.Dict.Get(key.Str)
		if !ok {
			return errorf(env, "%s(): key '%s' not found", name, key.Str)
		}
		return v
	case KindList:
		i, ok := indexOf(key)
		if !ok {
			return errorf(env, "%s(): list index must be an integer, not %s", name, key.Kind)
		}
		if i < 0 || i >= int64(len(container.Items)) {
			return errorf(env, "%s(): index %d out of range [0, %d)", name, i, len(container.Items))
		}
		return container.Items[i]
	}
	return errorf(env, "%s() needs a dict or a list, not %s", name, container.Kind)
}

// PutFunction stores value under key in a dict and returns the dict.
func PutFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 3 {
		return wrongNargs(env, name, "three arguments", len(args))
	}
	d, key := rt.obj(args[0]), rt.obj(args[1])
	if d.Kind != KindDict || key.Kind != KindString {
		return errorf(env, "%s() needs a dict and a string key, not %s and %s", name, d.Kind, key.Kind)
	}
	d.Dict.Put(key.Str, args[2])
	return args[0]
}

// DelFunction removes key from a dict and returns the dict.
func DelFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 2 {
		return wrongNargs(env, name, "two arguments", len(args))
	}
	d, key := rt.obj(args[0]), rt.obj(args[1])
	if d.Kind != KindDict || key.Kind != KindString {
		return errorf(env, "%s() needs a dict and a string key, not %s and %s", name, d.Kind, key.Kind)
	}
	if err := d.Dict.Delete(key.Str); err != nil {
		return errorf(env, "%s(): key '%s': %v", name, key.Str, err)
	}
	return args[0]
}

// KeysFunction lists a dict's keys as strings, sorted.
func KeysFunction(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 || rt.Kind(args[0]) != KindDict {
		return errorf(env, "%s() takes one dict argument", name)
	}
	keys := rt.Get(args[0]).Dict.Keys()
	sort.Strings(keys)

	mark := rt.pinMark()
	defer rt.unpinTo(mark)
	items := make([]Ref, 0, len(keys))
	for _, k := range keys {
		s := rt.NewString(k)
		rt.pin(s)
		items = append(items, s)
	}
	return rt.NewList(items)
}

// argString fetches a string argument.
func argString(env *Enclosing, r Ref) (string, bool) {
	o := env.Runtime().obj(r)
	if o.Kind != KindString {
		return "", false
	}
	return o.Str, true
}
