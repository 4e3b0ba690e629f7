package api

import (
	"context"
	"fmt"

	"rebcore/internal/array"
	"rebcore/internal/concurrency"
	"rebcore/internal/load"
)

// RunScripts evaluates each of srcs against its own freshly started
// Interpreter, concurrency at a time, realizing the "multiple
// independent interpreters per process" REDESIGN FLAG: unlike
// concurrency.Pool's shared-worker model (workers pull jobs off one
// channel, sharing whatever state Execute closes over), each job here
// owns a full Interpreter for its entire run and never shares it with
// another goroutine, since an Interpreter's GC/contexts are no more
// thread-safe than the C runtime's globals were. Results come back in
// the same order as srcs.
func RunScripts(ctx context.Context, srcs []string, concurrencyLimit int) ([]ScriptResult, error) {
	jobs := make([]concurrency.Job, len(srcs))
	for i, src := range srcs {
		jobs[i] = concurrency.Job{ID: fmt.Sprintf("script-%d", i), Data: src}
	}

	raw, err := concurrency.RunBatch(ctx, jobs, concurrencyLimit, runOneScript)
	if err != nil {
		return nil, err
	}

	out := make([]ScriptResult, len(raw))
	for i, r := range raw {
		out[i] = ScriptResult{Molded: moldOrEmpty(r.Result), Err: r.Error}
	}
	return out, nil
}

// ScriptResult is one script's outcome from RunScripts: its final value
// (pre-molded to text, since a *cell.Cell is only valid within the
// Interpreter that produced it and that Interpreter does not outlive
// this call) or the error it raised.
type ScriptResult struct {
	Molded string
	Err    error
}

func runOneScript(job concurrency.Job) (any, error) {
	src, ok := job.Data.(string)
	if !ok {
		return nil, fmt.Errorf("api: job %s: expected string source, got %T", job.ID, job.Data)
	}

	in := Startup()
	defer in.Shutdown(true)

	v, err := in.Value(src)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return "", nil
	}
	arr := array.New(1)
	if err := arr.Append(v); err != nil {
		return nil, err
	}
	return load.Mold(arr), nil
}

func moldOrEmpty(v any) string {
	s, _ := v.(string)
	return s
}
