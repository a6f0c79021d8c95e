package bee

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/glycerine/liner"
)

var historyFile = filepath.Join(os.Getenv("HOME"), ".beehist")

var completionKeywords = []string{
	`def `, `let `, `in `, `if `, `then `, `elif `, `else `, `for `, `do `, `reduce `,
	`fn(`, `true`, `false`, `nil`,
	`print(`, `typename(`, `pair(`, `head(`, `tail(`, `len(`, `get(`, `put(`, `del(`,
	`keys(`, `json(`, `unjson(`, `msgpack(`, `unmsgpack(`, `blake2(`, `bsave(`, `bload(`,
	`dump(`, `.quit`, `.ast `, `.gc`, `.verb`, `.ls`,
}

// completeLine offers completions for the last word of line.
func completeLine(line string) (c []string) {
	i := strings.LastIndexAny(line, " ([{,") + 1
	for _, n := range completionKeywords {
		if strings.HasPrefix(n, line[i:]) {
			c = append(c, line[:i]+n)
		}
	}
	return
}

type Prompter struct {
	prompt   string
	prompter *liner.State
	origMode liner.ModeApplier
	rawMode  liner.ModeApplier
}

func NewPrompter(prompt string) *Prompter {
	origMode, err := liner.TerminalMode()
	panicOn(err)

	p := &Prompter{
		prompt:   prompt,
		prompter: liner.NewLiner(),
		origMode: origMode,
	}

	rawMode, err := liner.TerminalMode()
	panicOn(err)
	p.rawMode = rawMode

	p.prompter.SetCtrlCAborts(false)
	p.prompter.SetCompleter(completeLine)

	if f, err := os.Open(historyFile); err == nil {
		p.prompter.ReadHistory(f)
		f.Close()
	}
	return p
}

func (p *Prompter) Close() {
	defer p.prompter.Close()
	if f, err := os.Create(historyFile); err != nil {
		log.Print("Error writing history file: ", err)
	} else {
		p.prompter.WriteHistory(f)
		f.Close()
	}
}

func (p *Prompter) Getline(prompt *string) (line string, err error) {
	applyErr := p.rawMode.ApplyMode()
	panicOn(applyErr)
	defer func() {
		applyErr := p.origMode.ApplyMode()
		panicOn(applyErr)
	}()

	if prompt == nil {
		line, err = p.prompter.Prompt(p.prompt)
	} else {
		line, err = p.prompter.Prompt(*prompt)
	}
	if err == nil {
		p.prompter.AppendHistory(line)
		return line, nil
	}
	return "", err
}
