package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/valence-lang/valence/internal/runtime"
)

// REPL runs a minimal read-eval-print loop over the runtime context,
// offering a couple of introspection commands (:stats, :clear) useful
// while developing, in the spirit of the teacher's internal/repl package
// but scaled down to this module's much smaller surface (no parser is
// implemented yet — expressions are not evaluated, only the
// introspection commands are).
func REPL(args []string) error {
	cfg, err := runtime.LoadConfig()
	if err != nil {
		return err
	}
	ctx, err := runtime.New(cfg)
	if err != nil {
		return err
	}
	defer ctx.Close()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("valence repl - :stats, :clear, :quit")
	for {
		fmt.Print("valence> ")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":stats":
			ctx.Stats.Snapshot().Render(os.Stdout)
		case ":clear":
			if err := ctx.Repository.ClearRepository(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Println("repository cleared")
		default:
			fmt.Println("unrecognized command; no expression evaluator is wired up yet")
		}
	}
}
