// Command valence is the batch compiler/runner front-end of spec §6.
// Grounded on the teacher's hand-rolled argument dispatcher (sentra
// cmd/sentra/main.go), narrowed from its many subcommands down to the
// single compile-a-module-path invocation spec §6 names, with flags
// parsed by hand in the same style rather than through the standard
// library's flag package, since several flags here take OPTIONAL values
// (`-s`, `-v`) that package flag cannot express directly.
package main

import (
	"fmt"
	"os"

	"github.com/valence-lang/valence/cmd/valence/commands"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "valence: "+err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		showUsage()
		return nil
	}
	if args[0] == "--version" {
		fmt.Println(version)
		return nil
	}
	if args[0] == "repl" {
		return commands.REPL(args[1:])
	}
	opts, err := commands.ParseFlags(args)
	if err != nil {
		return err
	}
	if opts.GenerateDocumentation && opts.ClearRepositories {
		return fmt.Errorf("-g/--generateDocumentation and -f/--clearRepositories are mutually exclusive")
	}
	return commands.Compile(opts)
}

func showUsage() {
	fmt.Println(`usage: valence [flags] <module-path>

  --availRoots <dirs>              colon-separated module search roots
  --availRenames <from=to,...>     module name rewrite rules
  -c, --compile                    compile only, do not run
  -g, --generateDocumentation      emit documentation stubs instead of running
  -G, --documentationPath <dir>    output directory for -g
  -f, --clearRepositories          clear all module repositories before running
  -q, --quiet                      suppress informational output
  -s, --showStatistics[=reports]   print runtime counters on exit
  -v, --verboseMode[=level]        increase diagnostic verbosity
  --help                           show this message

  valence repl                     start an interactive session`)
}
