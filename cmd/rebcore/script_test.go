package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript re-exec this test binary as `rebcore` inside
// each script's subprocess environment, the way a CLI's own script-driven
// integration suite drives the real binary rather than an in-process
// helper.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"rebcore": run1,
	}))
}

// run1 adapts run's ([]string) int signature to the zero-argument,
// os.Args-reading shape testscript.RunMain expects of a registered
// command.
func run1() int {
	return run(os.Args[1:])
}

// TestScripts drives every .txtar fixture under testdata/script against
// the rebcore binary: each one types a sequence of `rebcore` invocations
// and asserts on stdout/stderr and exit status, the same black-box
// contract cmd/rebcore's own flag-parsing loop promises callers.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
