package bee

// Binding names one heap object within a frame.
type Binding struct {
	Name string
	Ref  Ref
}

// Enclosing is a lexical frame: its own bindings plus a parent
// link. Every frame in a chain shares the one global frame.
//
// Frames made by Fork count as live until Leave, and the collector
// treats the bindings of every live frame (and its parents) as
// reachable. Closure frames are not registered; they stay alive
// through the function object that owns them.
type Enclosing struct {
	rt     *Runtime
	parent *Enclosing
	global *Enclosing
	binds  []Binding

	// top level definitions, held by the global frame only
	program *Program
}

// Fork returns a new empty child frame of e.
func (e *Enclosing) Fork() *Enclosing {
	child := &Enclosing{
		rt:     e.rt,
		parent: e,
		global: e.global,
	}
	e.rt.frames[child] = struct{}{}
	return child
}

// newClosureFrame returns an unregistered frame parented on the
// global frame, to be owned by a function object.
func (rt *Runtime) newClosureFrame() *Enclosing {
	return &Enclosing{
		rt:     rt,
		parent: rt.globals,
		global: rt.globals,
	}
}

// Bind appends a binding. Within one frame the earliest binding of
// a name wins on lookup, so a later Bind of the same name is hidden
// until the frame is left.
func (e *Enclosing) Bind(name string, r Ref) {
	e.binds = append(e.binds, Binding{Name: name, Ref: r})
}

// Set replaces the first binding of name in this frame, or appends
// one when there is none.
func (e *Enclosing) Set(name string, r Ref) {
	for i := range e.binds {
		if e.binds[i].Name == name {
			e.binds[i].Ref = r
			return
		}
	}
	e.Bind(name, r)
}

// Resolve scans this frame front to back, then its parents.
func (e *Enclosing) Resolve(name string) (Ref, bool) {
	for f := e; f != nil; f = f.parent {
		for _, b := range f.binds {
			if b.Name == name {
				return b.Ref, true
			}
		}
	}
	return Ref{}, false
}

// ResolveLocal looks only at this frame.
func (e *Enclosing) ResolveLocal(name string) (Ref, bool) {
	for _, b := range e.binds {
		if b.Name == name {
			return b.Ref, true
		}
	}
	return Ref{}, false
}

// Capture appends a copy of from's own bindings. The copies name
// the same objects; later binds in from are not seen here.
func (e *Enclosing) Capture(from *Enclosing) {
	if from == nil {
		return
	}
	e.binds = append(e.binds, from.binds...)
}

// CaptureChain captures every non-global frame from from up to the
// global frame, nearest first, so the nearest binding of a name wins.
func (e *Enclosing) CaptureChain(from *Enclosing) {
	for f := from; f != nil && !f.IsGlobal(); f = f.parent {
		e.Capture(f)
	}
}

// Leave drops the bindings (never the objects they name) and any
// owned program, and unregisters the frame.
func (e *Enclosing) Leave() {
	e.binds = nil
	e.program = nil
	delete(e.rt.frames, e)
}

func (e *Enclosing) Parent() *Enclosing { return e.parent }
func (e *Enclosing) Global() *Enclosing { return e.global }
func (e *Enclosing) Runtime() *Runtime  { return e.rt }
func (e *Enclosing) IsGlobal() bool     { return e == e.global }

// Bindings returns a copy of the frame's own bindings, in order.
func (e *Enclosing) Bindings() []Binding {
	out := make([]Binding, len(e.binds))
	copy(out, e.binds)
	return out
}

// Program is the top level definition list owned by the global frame.
func (e *Enclosing) Program() *Program { return e.global.program }

// Args returns the evaluated argument list of a native call frame.
func (e *Enclosing) Args() []Ref {
	r, ok := e.ResolveLocal("args")
	if !ok {
		return nil
	}
	o := e.rt.Get(r)
	if o == nil || o.Kind != KindList {
		return nil
	}
	return o.Items
}
