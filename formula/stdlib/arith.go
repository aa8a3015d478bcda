// Package stdlib provides a small set of reference Callables satisfying
// registry.Callable, grounded on the original express-std library's
// function shapes (add/sub/mul/div/log, sma/ema/acc) but reimplemented as
// plain Go rather than ported line for line. None of this is meant to be
// "the" numerical library a host would register -- that stays a host
// concern -- it exists so tests, the REPL, and the server have something
// real to register and call.
package stdlib

import (
	"math"

	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
)

type binaryPure struct {
	name string
	fn   func(a, b float64) (float64, bool)
}

func (b binaryPure) Name() string            { return b.name }
func (b binaryPure) Argcnt() int             { return 2 }
func (b binaryPure) Purity() registry.Purity { return registry.Pure }
func (b binaryPure) Call(args []value.Value) value.Value {
	a, ok := args[0].Coerce()
	if !ok {
		return value.None
	}
	c, ok := args[1].Coerce()
	if !ok {
		return value.None
	}
	result, ok := b.fn(a, c)
	if !ok {
		return value.None
	}
	return value.Number(result)
}

// Add is a pure two-argument sum, grounded on express-std's arithmetic
// helpers (the bulk of which the original leaves to the host language's
// own operators rather than exposing as named Callables).
func Add() registry.Callable {
	return binaryPure{name: "add", fn: func(a, b float64) (float64, bool) { return a + b, true }}
}

// Sub is a pure two-argument difference.
func Sub() registry.Callable {
	return binaryPure{name: "sub", fn: func(a, b float64) (float64, bool) { return a - b, true }}
}

// Mul is a pure two-argument product.
func Mul() registry.Callable {
	return binaryPure{name: "mul", fn: func(a, b float64) (float64, bool) { return a * b, true }}
}

// Div is a pure two-argument quotient; division by zero yields None rather
// than Inf/NaN, consistent with §7's "runtime type error collapses to None"
// treatment of any operation that can't produce a sensible number.
func Div() registry.Callable {
	return binaryPure{name: "div", fn: func(a, b float64) (float64, bool) {
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}}
}

// Log computes the logarithm of value in the given base, grounded on
// express-std's math/log.rs (`fn log(base, value) -> value.log(base)`).
func Log() registry.Callable {
	return binaryPure{name: "log", fn: func(base, v float64) (float64, bool) {
		if base <= 0 || base == 1 || v <= 0 {
			return 0, false
		}
		return math.Log(v) / math.Log(base), true
	}}
}
