package stdlib

import (
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
)

// acc is a running accumulator, grounded on express-std's func/acc.rs: its
// first argument seeds the running total at build time (via Init) and its
// second argument is added to that total on every call.
type acc struct {
	total float64
}

// Acc constructs a stateful running-accumulator callable. argcnt is 2: an
// initial value (consumed once by Init, per acc.rs's own split between
// construction and per-call state) and the value to add each tick.
func Acc() registry.Callable {
	return &acc{}
}

func (a *acc) Name() string            { return "acc" }
func (a *acc) Argcnt() int             { return 2 }
func (a *acc) Purity() registry.Purity { return registry.Stateful }

func (a *acc) Init(args []value.Value, ctx *registry.Context) error {
	if init, ok := args[0].Coerce(); ok {
		a.total = init
	}
	return nil
}

func (a *acc) Call(args []value.Value) value.Value {
	delta, ok := args[1].Coerce()
	if !ok {
		return value.None
	}
	a.total += delta
	return value.Number(a.total)
}
