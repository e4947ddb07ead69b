// Package commands implements the valence CLI's flag parsing and the
// compile/run/doc-generation/repl entry points, grounded on the teacher's
// cmd/sentra/commands package (one file per subcommand, manual arg
// slicing rather than package flag).
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/module"
)

// Options is the parsed form of spec §6's CLI flags.
type Options struct {
	AvailRoots            []string
	AvailRenames          map[string]string
	CompileOnly           bool
	GenerateDocumentation bool
	DocumentationPath     string
	ClearRepositories     bool
	Quiet                 bool
	ShowStatistics        bool
	StatisticsReports     string
	VerboseMode           bool
	VerboseLevel          int
	TargetModulePath      string
}

// ParseFlags hand-parses args the way the teacher's main.go does,
// supporting `--flag=value`, `--flag value`, and bare boolean flags, plus
// the two flags (`-s`, `-v`) spec §6 allows an OPTIONAL attached value on.
func ParseFlags(args []string) (Options, error) {
	opts := Options{AvailRenames: map[string]string{}}
	i := 0
	for i < len(args) {
		arg := args[i]
		if name, value, ok := strings.Cut(arg, "="); ok {
			switch name {
			case "--availRoots", "--availRenames", "-G", "--documentationPath":
				// Split the attached form into the separate-argument form.
				args = append(append(append([]string{}, args[:i]...), name, value), args[i+1:]...)
				arg = name
			}
		}
		switch {
		case arg == "--availRoots":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--availRoots requires a value")
			}
			opts.AvailRoots = strings.Split(args[i], ":")

		case arg == "--availRenames":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("--availRenames requires a value")
			}
			for _, pair := range strings.Split(args[i], ",") {
				kv := strings.SplitN(pair, "=", 2)
				if len(kv) != 2 {
					return opts, fmt.Errorf("malformed --availRenames entry %q", pair)
				}
				// Rename rules name modules the way Go import paths name
				// packages; reject anything module.CheckImportPath wouldn't
				// accept as an import path rather than inventing a
				// separate syntax just for this flag.
				if err := module.CheckImportPath(kv[0]); err != nil {
					return opts, fmt.Errorf("--availRenames source %q: %w", kv[0], err)
				}
				if err := module.CheckImportPath(kv[1]); err != nil {
					return opts, fmt.Errorf("--availRenames target %q: %w", kv[1], err)
				}
				opts.AvailRenames[kv[0]] = kv[1]
			}

		case arg == "-c" || arg == "--compile":
			opts.CompileOnly = true

		case arg == "-g" || arg == "--generateDocumentation":
			opts.GenerateDocumentation = true

		case arg == "-G" || arg == "--documentationPath":
			i++
			if i >= len(args) {
				return opts, fmt.Errorf("-G/--documentationPath requires a value")
			}
			opts.DocumentationPath = args[i]

		case arg == "-f" || arg == "--clearRepositories":
			opts.ClearRepositories = true

		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true

		case arg == "-s" || arg == "--showStatistics":
			opts.ShowStatistics = true

		case strings.HasPrefix(arg, "-s=") || strings.HasPrefix(arg, "--showStatistics="):
			opts.ShowStatistics = true
			opts.StatisticsReports = valueAfterEquals(arg)

		case arg == "-v" || arg == "--verboseMode":
			opts.VerboseMode = true
			opts.VerboseLevel = 1

		case strings.HasPrefix(arg, "-v=") || strings.HasPrefix(arg, "--verboseMode="):
			opts.VerboseMode = true
			level, err := strconv.Atoi(valueAfterEquals(arg))
			if err != nil {
				return opts, fmt.Errorf("invalid --verboseMode level %q", valueAfterEquals(arg))
			}
			opts.VerboseLevel = level

		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("unrecognized flag %q", arg)

		default:
			if opts.TargetModulePath != "" {
				return opts, fmt.Errorf("unexpected extra positional argument %q", arg)
			}
			opts.TargetModulePath = arg
		}
		i++
	}
	if opts.TargetModulePath == "" && !opts.ClearRepositories {
		return opts, fmt.Errorf("missing target module path")
	}
	return opts, nil
}

func valueAfterEquals(s string) string {
	idx := strings.IndexByte(s, '=')
	return s[idx+1:]
}
