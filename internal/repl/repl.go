// Package repl is the interactive console path of the command-line host:
// a read-eval-print loop over one long-lived Interpreter, printing each
// result and resuming the prompt after an uncaught error rather than
// exiting (an interactive console captures and displays the error, then
// resumes the prompt). The loop shape — bufio.Scanner reading lines, a
// literal exit keyword, one long-lived VM reused across lines — follows
// the host shim's own REPL, generalized from "fresh chunk/VM.Reset per
// line" to "one Interpreter, many Value calls" since an Interpreter
// already carries its own persistent user context across calls.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"rebcore/internal/api"
	"rebcore/internal/array"
	"rebcore/internal/load"
)

// Start runs the console loop against a fresh Interpreter until the input
// stream ends or the user types exit/quit, then shuts that Interpreter
// down cleanly.
func Start() {
	in := api.Startup()
	defer in.Shutdown(true)

	interactive := isatty.IsTerminal(os.Stdin.Fd())
	if interactive {
		fmt.Println("rebcore console | type 'exit' or 'quit' to leave")
	}

	runLoop(in, os.Stdin, os.Stdout, interactive)
}

func runLoop(in *api.Interpreter, r io.Reader, w io.Writer, prompt bool) {
	scanner := bufio.NewScanner(r)
	for {
		if prompt {
			fmt.Fprint(w, ">> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "exit" || line == "quit" {
			return
		}
		if line == "" {
			continue
		}

		v, err := in.Value(line)
		if err != nil {
			fmt.Fprintf(w, "** %v\n", err)
			continue
		}
		if v == nil {
			continue
		}
		arr := array.New(1)
		if err := arr.Append(v); err != nil {
			fmt.Fprintf(w, "** %v\n", err)
			continue
		}
		fmt.Fprintln(w, load.Mold(arr))
	}
}
