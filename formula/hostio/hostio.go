// Package hostio declares the host-collaborator interfaces spec.md §6
// leaves external to the core: something that feeds the interpreter one
// sample per formula per tick, and something that supplies time to
// windowed callables without depending on the wall clock in tests. The
// core evaluator (formula/graph) never imports this package; only the CLI
// and server entry points do, to drive an Interpreter from a concrete
// source.
package hostio

import (
	"context"

	"github.com/dekarrin/express/formula/value"
)

// TickSource produces one named sample per tick. A transport (stdin lines,
// an HTTP ingestion endpoint, a replayed fixture) implements this to feed
// formula/graph.Interpreter.ComputePass indirectly: the host reads Next,
// assigns the returned samples to whatever formulas are supposed to
// observe live data this tick, then calls ComputePass.
type TickSource interface {
	// Next blocks until the next tick's samples are available, or ctx is
	// canceled. ok is false once the source is exhausted (end of input,
	// upstream disconnect) -- not the same as any individual sample being
	// value.None, which just means that formula had nothing to report.
	Next(ctx context.Context) (samples map[string]value.TimeStep, ok bool, err error)
}

// Clock supplies the current time to windowed stateful callables (sma,
// ema) so tests can inject a simulated clock instead of depending on
// wall-clock time.
type Clock interface {
	Now() float64
}

// SystemClock reports time.Now as a Unix-epoch float, the default Clock
// outside of tests.
type SystemClock struct{}

func (SystemClock) Now() float64 {
	return nowUnix()
}
