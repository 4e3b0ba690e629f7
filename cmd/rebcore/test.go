package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"rebcore/internal/api"
	rerrors "rebcore/internal/errors"
	itesting "rebcore/internal/testing"
)

// testCommand is `rebcore test [--format=text|json|junit] [dir]`: it
// discovers every *_test.reb file in dir (default the current
// directory) and in its immediate subdirectories, evaluates each against its own fresh Interpreter, and
// treats a raised error as a test failure — the same pass/fail
// criterion a script author gets from ASSERT raising on a falsy
// condition.
func testCommand(args []string) int {
	dir := "."
	format := "text"
	for _, a := range args {
		if f, ok := strings.CutPrefix(a, "--format="); ok {
			format = f
			continue
		}
		dir = a
	}

	files, err := itesting.DiscoverTests(dir, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "test: %v\n", err)
		return 1
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "test: no *_test.reb files found under %s\n", dir)
		return 1
	}

	suite := &itesting.TestSuite{Name: dir, File: dir}
	for _, f := range files {
		f := f
		suite.Tests = append(suite.Tests, itesting.TestCase{
			Name:     f,
			Function: func(_ *itesting.TestContext) error { return runTestFile(f) },
		})
	}

	runner := itesting.NewTestRunner(&itesting.TestConfig{OutputFormat: format, Timeout: 30 * time.Second})
	runner.AddSuite(suite)
	stats := runner.Run()
	if stats.FailedTests > 0 {
		return 1
	}
	return 0
}

// runTestFile evaluates one test script's full source against a fresh
// Interpreter. A test file passes by evaluating to completion without
// raising; ASSERT is what turns an unmet expectation into a raise.
func runTestFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	in := api.Startup()
	defer in.Shutdown(true)

	if _, err := in.Value(string(src)); err != nil {
		if e := in.LastError(); e != nil {
			return fmt.Errorf("%s", rerrors.Render(e))
		}
		return err
	}
	return nil
}
