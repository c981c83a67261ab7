package fn

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Runner defines the runtime that serves a Runtime until ctx is done.
type Runner func(ctx context.Context, newRuntimeFn func(context.Context, *slog.Logger, Settings) (*Runtime, error))

// RegisterRunner registers a runner.
func RegisterRunner(runnerType string, r Runner) {
	if _, ok := runners[runnerType]; ok {
		panic(fmt.Sprintf("runner type already exists: %q", runnerType))
	}

	runners[runnerType] = r
}

func run(ctx context.Context, newRuntimeFn func(context.Context, *slog.Logger, Settings) (*Runtime, error)) {
	rt := os.Getenv("FN_RUNNER_TYPE")
	if rt == "" {
		rt = "http"
	}

	r := runners[rt]
	if r == nil {
		panic(fmt.Sprintf("invalid FN_RUNNER_TYPE provided: %q", rt))
	}

	r(ctx, newRuntimeFn)
}

var runners = map[string]Runner{
	"http": runHTTP,
}
