package hostio

import "time"

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// FixedClock is a Clock that always reports the same instant, for
// deterministic tests of windowed callables.
type FixedClock float64

func (f FixedClock) Now() float64 {
	return float64(f)
}
