package bee

import (
	"flag"
	"fmt"
	"time"
)

// configure a bee repl
type BeeConfig struct {
	CpuProfile    string
	MemProfile    string
	ExitOnFailure bool
	Flags         *flag.FlagSet
	Command       string
	Sandboxed     bool
	Quiet         bool
	Trace         bool
	GCInterval    time.Duration
	MaxDepth      int
	AstInput      bool
	DumpAst       bool
	Debug         bool

	// liner bombs under emacs, avoid it with this flag.
	NoLiner bool
	Prompt  string // default "bee> "

	// Imports run against each new runtime, after the builtins.
	Imports []func(rt *Runtime)
}

func NewBeeConfig(cmdname string) *BeeConfig {
	return &BeeConfig{
		Flags:      flag.NewFlagSet(cmdname, flag.ExitOnError),
		GCInterval: DefaultGCInterval,
		MaxDepth:   DefaultMaxDepth,
		Debug:      true,
	}
}

// call DefineFlags before myflags.Parse()
func (c *BeeConfig) DefineFlags() {
	c.Flags.StringVar(&c.CpuProfile, "cpuprofile", "", "write cpu profile to file")
	c.Flags.StringVar(&c.MemProfile, "memprofile", "", "write mem profile to file")
	c.Flags.BoolVar(&c.ExitOnFailure, "exitonfail", false, "exit on failure instead of starting repl")
	c.Flags.StringVar(&c.Command, "c", "", "program text to run")
	c.Flags.BoolVar(&c.Sandboxed, "sandbox", false, "run sandboxed; disallow filesystem functions")
	c.Flags.BoolVar(&c.Quiet, "quiet", false, "start repl without printing the version/mode/help banner")
	c.Flags.BoolVar(&c.Trace, "trace", false, "trace the collector and evaluator (very verbose)")
	c.Flags.BoolVar(&c.NoLiner, "noliner", false, "read stdin line by line instead of using the line editor")
	c.Flags.DurationVar(&c.GCInterval, "gcinterval", DefaultGCInterval, "minimum time between collections; 0 collects on every allocation, negative never")
	c.Flags.IntVar(&c.MaxDepth, "maxdepth", DefaultMaxDepth, "maximum nested call depth")
	c.Flags.BoolVar(&c.AstInput, "ast", false, "the script file holds a json encoded program instead of source text")
	c.Flags.BoolVar(&c.DumpAst, "dumpast", false, "print the parsed program as json and exit")
	c.Flags.BoolVar(&c.Debug, "debug", true, "print results in tagged form, e.g. i64(3)")
}

// call c.ValidateConfig() after myflags.Parse()
func (c *BeeConfig) ValidateConfig() error {
	if c.Prompt == "" {
		c.Prompt = "bee> "
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("-maxdepth must be at least 1, got %d", c.MaxDepth)
	}
	if c.AstInput && c.Command != "" {
		return fmt.Errorf("-ast reads a file; it cannot be combined with -c")
	}
	if c.DumpAst && c.Command == "" && c.Flags.NArg() == 0 {
		return fmt.Errorf("-dumpast needs a script file or -c")
	}
	return nil
}

// NewRuntime builds a runtime as configured.
func (c *BeeConfig) NewRuntime() *Runtime {
	var rt *Runtime
	if c.Sandboxed {
		rt = NewRuntimeSandbox()
	} else {
		rt = NewRuntime()
	}
	rt.GCInterval = c.GCInterval
	rt.MaxDepth = c.MaxDepth
	for _, imp := range c.Imports {
		imp(rt)
	}
	return rt
}
