package bee

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"sort"
	"strings"

	"github.com/shurcooL/go-goon"
)

func getLine(reader *bufio.Reader) (string, error) {
	line := make([]byte, 0)
	for {
		linepart, hasMore, err := reader.ReadLine()
		if err != nil {
			return "", err
		}
		line = append(line, linepart...)
		if !hasMore {
			break
		}
	}
	return string(line), nil
}

var continuationPrompt = "... "

// lineSource returns the next line of input, showing prompt, or the
// default prompt when prompt is nil.
type lineSource func(prompt *string) (string, error)

func readerSource(reader *bufio.Reader, defaultPrompt string, out io.Writer) lineSource {
	return func(prompt *string) (string, error) {
		if prompt == nil {
			fmt.Fprint(out, defaultPrompt)
		} else {
			fmt.Fprint(out, *prompt)
		}
		return getLine(reader)
	}
}

// getExpression reads lines until they parse, or until the parse
// fails for a reason other than running out of input. Lines that
// begin with '.' are repl commands and are returned unparsed.
func getExpression(read lineSource) (line string, prog *Program, x Expr, err error) {
	line, err = read(nil)
	if err != nil {
		return "", nil, nil, err
	}
	if strings.HasPrefix(strings.TrimSpace(line), ".") {
		return line, nil, nil, nil
	}
	for {
		if strings.TrimSpace(line) == "" {
			return line, nil, nil, nil
		}
		prog, x, err = ParseLine(line)
		if !errors.Is(err, ErrUnexpectedEnd) {
			return line, prog, x, err
		}
		next, rerr := read(&continuationPrompt)
		if rerr != nil {
			return "", nil, nil, rerr
		}
		line += "\n" + next
	}
}

// replCommand runs a dot command. quit is set by .quit.
func replCommand(rt *Runtime, line string, out io.Writer) (quit bool) {
	parts := strings.Fields(line)
	first := parts[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), first))

	switch first {
	case ".quit":
		return true

	case ".verb":
		Verbose = !Verbose
		fmt.Fprintf(out, "verbose: %v.\n", Verbose)

	case ".gc":
		cycle := rt.ForceCollect()
		fmt.Fprintf(out, "gc: marked %d, collected %d, live %d.\n",
			cycle.Marked, cycle.Collected, cycle.Live)

	case ".ls":
		binds := rt.Globals().Bindings()
		sort.Slice(binds, func(i, j int) bool { return binds[i].Name < binds[j].Name })
		for _, b := range binds {
			if o := rt.obj(b.Ref); o.Kind == KindFunction && o.Fn.IsNative() {
				continue
			}
			fmt.Fprintf(out, "%s = %s\n", b.Name, rt.Render(b.Ref))
		}

	case ".ast":
		prog, x, err := ParseLine(rest)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			break
		}
		if prog != nil {
			fmt.Fprint(out, goon.Sdump(prog))
		} else {
			fmt.Fprint(out, goon.Sdump(x))
		}

	default:
		fmt.Fprintf(out, "unknown command '%s'; try .quit .ast .gc .verb .ls\n", first)
	}
	return false
}

// replEval defines prog or evaluates x, printing the outcome.
func replEval(rt *Runtime, cfg *BeeConfig, prog *Program, x Expr, out io.Writer) {
	if prog != nil {
		rt.DefineAll(prog)
		for _, d := range prog.Defs {
			fmt.Fprintf(out, "defined %s\n", d.Name)
		}
		return
	}
	if x == nil {
		return
	}
	frame := rt.Globals().Fork()
	r := rt.Eval(frame, x)
	frame.Leave()
	fmt.Fprintln(out, renderResult(rt, cfg, r))
}

func renderResult(rt *Runtime, cfg *BeeConfig, r Ref) string {
	if cfg.Debug {
		return rt.Render(r)
	}
	return rt.RenderPlain(r)
}

// replLoop runs until .quit or end of input.
func replLoop(rt *Runtime, cfg *BeeConfig, read lineSource, out io.Writer) {
	for {
		line, prog, x, err := getExpression(read)
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintln(out, err)
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(line), ".") {
			if replCommand(rt, line, out) {
				return
			}
			continue
		}
		replEval(rt, cfg, prog, x, out)
	}
}

func Repl(rt *Runtime, cfg *BeeConfig) {
	if !cfg.Quiet {
		if cfg.Sandboxed {
			fmt.Printf("bee [sandbox mode] version %s\n", Version())
		} else {
			fmt.Printf("bee version %s\n", Version())
		}
		fmt.Printf("press tab (repeatedly) to get completion suggestions. Ctrl-d to exit.\n")
	}

	var read lineSource
	if cfg.NoLiner {
		// reader is used if one wishes to drop the liner library.
		// Useful for not full terminal env, like under test.
		read = readerSource(bufio.NewReader(os.Stdin), cfg.Prompt, os.Stdout)
	} else {
		pr := NewPrompter(cfg.Prompt)
		defer pr.Close()
		read = pr.Getline
	}
	replLoop(rt, cfg, read, os.Stdout)
}

// loadProgram parses source text, or json when cfg.AstInput is set.
func loadProgram(cfg *BeeConfig, src []byte) (*Program, error) {
	if cfg.AstInput {
		return ProgramFromJSON(src)
	}
	return ParseProgram(string(src))
}

// runProgram defines prog, calls its main and prints the result.
// An error object from main is reported as a Go error.
func runProgram(rt *Runtime, cfg *BeeConfig, prog *Program, out io.Writer) error {
	if cfg.DumpAst {
		by, err := ProgramToJSON(prog)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", by)
		return nil
	}
	rt.DefineAll(prog)
	if prog.Lookup("main") == nil {
		return ErrNoMain
	}
	r := rt.RunMain()
	fmt.Fprintln(out, renderResult(rt, cfg, r))
	if rt.IsError(r) {
		return fmt.Errorf("main failed: %s", rt.ErrorMessage(r))
	}
	return nil
}

func runScript(rt *Runtime, fname string, cfg *BeeConfig, out io.Writer) error {
	src, err := os.ReadFile(fname)
	if err != nil {
		return err
	}
	prog, err := loadProgram(cfg, src)
	if err != nil {
		return fmt.Errorf("%s: %v", fname, err)
	}
	return runProgram(rt, cfg, prog, out)
}

// runCommand runs the -c text: a program with a main, or a single
// expression.
func runCommand(rt *Runtime, cfg *BeeConfig, out io.Writer) error {
	prog, x, err := ParseLine(cfg.Command)
	if err != nil {
		return err
	}
	if prog != nil {
		return runProgram(rt, cfg, prog, out)
	}
	if cfg.DumpAst {
		by, err := ExprToJSON(x)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", by)
		return nil
	}
	replEval(rt, cfg, nil, x, out)
	return nil
}

// like main() for a standalone repl, now in library
func ReplMain(cfg *BeeConfig) {
	Verbose = cfg.Trace
	rt := cfg.NewRuntime()
	defer rt.Close()

	if cfg.CpuProfile != "" {
		f, err := os.Create(cfg.CpuProfile)
		if err != nil {
			fmt.Println(err)
			os.Exit(-1)
		}
		err = pprof.StartCPUProfile(f)
		if err != nil {
			fmt.Println(err)
			os.Exit(-1)
		}
		defer pprof.StopCPUProfile()
	}

	if cfg.Command != "" {
		err := runCommand(rt, cfg, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	runRepl := true
	args := cfg.Flags.Args()
	if len(args) > 0 {
		runRepl = false
		err := runScript(rt, args[0], cfg, os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			if cfg.ExitOnFailure {
				os.Exit(-1)
			}
			runRepl = !cfg.DumpAst
		}
	}
	if runRepl {
		Repl(rt, cfg)
	}

	if cfg.MemProfile != "" {
		f, err := os.Create(cfg.MemProfile)
		if err != nil {
			fmt.Println(err)
			os.Exit(-1)
		}
		defer f.Close()

		err = pprof.Lookup("heap").WriteTo(f, 1)
		if err != nil {
			fmt.Println(err)
			os.Exit(-1)
		}
	}
}
