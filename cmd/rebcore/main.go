// Command rebcore is the command-line host: it receives argc/argv,
// dispatches on the first argument to the console or a script-execution
// path, and derives its exit status from the
// returned value (integer -> itself, none/void -> 0, error -> the error's
// code, otherwise -> 1). The dispatch shape (a command-alias map, a
// switch over the first argument, a help/version/usage trio) follows the
// host shim's own command surface, narrowed down to this project's much
// smaller scope: run, repl, check, test, help, version.
package main

import (
	"fmt"
	"os"

	"rebcore/internal/api"
	"rebcore/internal/cell"
	rerrors "rebcore/internal/errors"
	"rebcore/internal/load"
	"rebcore/internal/repl"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"c": "check",
	"t": "test",
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches on the first argument and returns the process exit
// status. Kept separate from main so tests can drive it without an
// os.Exit call escaping the test binary.
func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 0
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		usage()
		return 0
	case "--version", "-v", "version":
		fmt.Printf("rebcore %s\n", version)
		return 0
	case "repl":
		repl.Start()
		return 0
	case "check":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: rebcore check <file>")
			return 1
		}
		return checkCommand(args[1])
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: rebcore run <file>")
			return 1
		}
		return runCommand(args[1])
	case "test":
		return testCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		return 1
	}
}

func runCommand(filename string) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file: %v\n", err)
		return 1
	}

	in := api.Startup()
	defer in.Shutdown(true)

	v, err := in.Value(string(src))
	if err != nil {
		if e := in.LastError(); e != nil {
			fmt.Fprint(os.Stderr, rerrors.Render(e))
			return e.Code()
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return exitStatusFor(v)
}

func checkCommand(filename string) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not read file: %v\n", err)
		return 1
	}
	if _, err := load.Load(string(src)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: syntax error: %v\n", filename, err)
		return 1
	}
	fmt.Printf("%s: syntax is valid\n", filename)
	return 0
}

// exitStatusFor derives a process exit status from a top-level result
// value: integer -> itself (clipped to 32-bit), a nil (void) or BLANK!
// (none) result -> 0, otherwise -> 1.
func exitStatusFor(v *cell.Cell) int {
	if v == nil || v.Kind == cell.KindBlank {
		return 0
	}
	if v.Kind == cell.KindInteger {
		n, _ := v.Payload[0].(int)
		return int(int32(n))
	}
	return 1
}

func usage() {
	fmt.Println("rebcore - a Rebol-style interpreter core")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  rebcore run <file>     Run a script                  (alias: r)")
	fmt.Println("  rebcore check <file>   Check syntax without running  (alias: c)")
	fmt.Println("  rebcore test [dir]     Run *_test.reb files under dir (alias: t)")
	fmt.Println("  rebcore repl           Start the interactive console (alias: i)")
	fmt.Println("  rebcore help           Show this message")
	fmt.Println("  rebcore version        Show version")
}
