// Package stdlib provides the built-in callables available to every formula
// program: basic arithmetic plus the stateful accumulator and moving-average
// windows used for time-series smoothing.
package stdlib

import "github.com/dekarrin/express/formula/registry"

// Register adds every stdlib callable to ctx. Host programs should call this
// once on a freshly-created [registry.Context] before handing it to
// [github.com/dekarrin/express/formula/graph.New].
func Register(ctx *registry.Context) {
	ctx.RegisterFunction(Add())
	ctx.RegisterFunction(Sub())
	ctx.RegisterFunction(Mul())
	ctx.RegisterFunction(Div())
	ctx.RegisterFunction(Log())
	ctx.RegisterFunction(Acc())
	ctx.RegisterFunction(SMA())
	ctx.RegisterFunction(EMA())
}
