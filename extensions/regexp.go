package beeext

import (
	"fmt"
	"regexp"

	"github.com/glycerine/bee/bee"
)

func stringArgs(rt *bee.Runtime, args []bee.Ref) ([]string, bool) {
	out := make([]string, 0, len(args))
	for _, a := range args {
		o := rt.Get(a)
		if o == nil || o.Kind != bee.KindString {
			return nil, false
		}
		out = append(out, o.Str)
	}
	return out, true
}

// RegexpFind serves regexp_match, regexp_find and regexp_find_index.
// Each takes (pattern, haystack).
func RegexpFind(env *bee.Enclosing, name string) bee.Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 2 {
		return rt.NewError(fmt.Sprintf("%s() %v: takes pattern and haystack", name, bee.WrongNargs))
	}
	strs, ok := stringArgs(rt, args)
	if !ok {
		return rt.NewError(fmt.Sprintf("%s() arguments should be strings", name))
	}
	needle, err := regexp.Compile(strs[0])
	if err != nil {
		return rt.NewError(fmt.Sprintf("%s(): error compiling '%s': %v", name, strs[0], err))
	}
	haystack := strs[1]

	switch name {
	case "regexp_find":
		return rt.NewString(needle.FindString(haystack))
	case "regexp_find_index":
		loc := needle.FindStringIndex(haystack)
		mark := rt.PinMark()
		defer rt.UnpinTo(mark)
		items := make([]bee.Ref, 0, len(loc))
		for _, i := range loc {
			r := rt.NewI64(int64(i))
			rt.Pin(r)
			items = append(items, r)
		}
		return rt.NewList(items)
	case "regexp_match":
		return rt.NewBool(needle.MatchString(haystack))
	}
	return rt.NewError("unknown function " + name)
}

func ImportRegex(rt *bee.Runtime) {
	rt.AddFunction("regexp_find_index", RegexpFind)
	rt.AddFunction("regexp_find", RegexpFind)
	rt.AddFunction("regexp_match", RegexpFind)
}
