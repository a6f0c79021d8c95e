/*
The bee command runs a bee program, or starts a REPL when given
no script.

	bee prog.bee
	bee -c 'def main() = 1 + 2'
	bee -ast prog.json
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/glycerine/bee/bee"
	beeext "github.com/glycerine/bee/extensions"
)

func usage(myflags *flag.FlagSet) {
	fmt.Printf("bee command line help:\n")
	myflags.PrintDefaults()
	os.Exit(1)
}

func main() {
	cfg := bee.NewBeeConfig("bee")
	cfg.DefineFlags()
	err := cfg.Flags.Parse(os.Args[1:])
	if err == flag.ErrHelp {
		usage(cfg.Flags)
	}

	if err != nil {
		panic(err)
	}
	err = cfg.ValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bee command line error: '%v'\n", err)
		usage(cfg.Flags)
	}
	cfg.Imports = append(cfg.Imports, beeext.ImportAll)

	// the library does all the heavy lifting.
	bee.ReplMain(cfg)
}
