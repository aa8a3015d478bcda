package stdlib

import (
	"math"

	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
)

// sma is a windowed simple moving average over a TimeStep stream, grounded
// on express-std's timeseries/ma.rs: each call appends the incoming step
// to an internal buffer and averages the price of every step within
// lookback time units of the latest one. Returns None until the buffer
// spans at least lookback, matching ma.rs's "too large a lookback" guard.
type sma struct {
	lookback float64
	buffer   []value.TimeStep
}

// SMA constructs a stateful simple-moving-average callable. argcnt is fixed
// at 2: the current TimeStep sample, and the lookback window in the same
// time units the sample's Time field uses.
func SMA() registry.Callable {
	return &sma{}
}

func (s *sma) Name() string            { return "sma" }
func (s *sma) Argcnt() int             { return 2 }
func (s *sma) Purity() registry.Purity { return registry.Stateful }

func (s *sma) Init(args []value.Value, ctx *registry.Context) error {
	if lookback, ok := args[1].Coerce(); ok {
		s.lookback = lookback
	}
	return nil
}

func (s *sma) Call(args []value.Value) value.Value {
	step, ok := args[0].AsTimeStep()
	if !ok {
		return value.None
	}
	if lookback, ok := args[1].Coerce(); ok {
		s.lookback = lookback
	}
	s.buffer = append(s.buffer, step)

	last := s.buffer[len(s.buffer)-1]
	first := s.buffer[0]
	if s.lookback > last.Time-first.Time {
		return value.None
	}

	sum := 0.0
	count := 0
	for i := len(s.buffer) - 1; i >= 0; i-- {
		tick := s.buffer[i]
		if last.Time-tick.Time > s.lookback {
			break
		}
		sum += tick.Price
		count++
	}
	return value.Number(sum / float64(count))
}

// ema is an exponentially-weighted moving average, grounded on
// express-std's timeseries/ema.rs, reduced to the common recursive form
// (alpha weighted against the previous average) rather than the original's
// time-weighted backward scan -- a faithful-in-spirit, not line-for-line,
// reference implementation.
type ema struct {
	lookback float64
	value    float64
	primed   bool
}

// EMA constructs a stateful exponential-moving-average callable. argcnt is
// 2: the current TimeStep sample and the lookback window used to derive
// the smoothing factor (alpha = 2 / (lookback + 1)).
func EMA() registry.Callable {
	return &ema{}
}

func (e *ema) Name() string            { return "ema" }
func (e *ema) Argcnt() int             { return 2 }
func (e *ema) Purity() registry.Purity { return registry.Stateful }

func (e *ema) Init(args []value.Value, ctx *registry.Context) error {
	if lookback, ok := args[1].Coerce(); ok {
		e.lookback = lookback
	}
	return nil
}

func (e *ema) Call(args []value.Value) value.Value {
	step, ok := args[0].AsTimeStep()
	if !ok {
		return value.None
	}
	if lookback, ok := args[1].Coerce(); ok {
		e.lookback = lookback
	}
	if !e.primed {
		e.value = step.Price
		e.primed = true
		return value.Number(e.value)
	}
	alpha := 2 / (e.lookback + 1)
	if e.lookback <= 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return value.None
	}
	e.value = alpha*step.Price + (1-alpha)*e.value
	return value.Number(e.value)
}
