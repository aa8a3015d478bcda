package stdlib

import (
	"testing"

	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Add_Sub_Mul_Div(t *testing.T) {
	add, sub, mul, div := Add(), Sub(), Mul(), Div()

	n, ok := add.Call([]value.Value{value.Number(2), value.Number(3)}).AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(5), n)

	n, _ = sub.Call([]value.Value{value.Number(5), value.Number(3)}).AsNumber()
	assert.Equal(t, float64(2), n)

	n, _ = mul.Call([]value.Value{value.Number(4), value.Number(3)}).AsNumber()
	assert.Equal(t, float64(12), n)

	n, _ = div.Call([]value.Value{value.Number(9), value.Number(3)}).AsNumber()
	assert.Equal(t, float64(3), n)

	assert.True(t, div.Call([]value.Value{value.Number(9), value.Number(0)}).IsNone())
}

func Test_Log(t *testing.T) {
	log := Log()
	n, ok := log.Call([]value.Value{value.Number(2), value.Number(8)}).AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 3, n, 1e-9)
}

func Test_SMA_WaitsForWindow(t *testing.T) {
	s := SMA()
	out := s.Call([]value.Value{value.NewTimeStep(1, 0), value.Number(3)})
	assert.True(t, out.IsNone())

	out = s.Call([]value.Value{value.NewTimeStep(2, 1), value.Number(3)})
	assert.True(t, out.IsNone())

	out = s.Call([]value.Value{value.NewTimeStep(3, 3), value.Number(3)})
	n, ok := out.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(2), n)
}

func Test_Acc_SeedsFromInit(t *testing.T) {
	running := Acc()
	initable, ok := running.(registry.Initializable)
	require.True(t, ok)
	require.NoError(t, initable.Init([]value.Value{value.Number(10)}, registry.New()))

	out := running.Call([]value.Value{value.Number(0), value.Number(5)})
	n, _ := out.AsNumber()
	assert.Equal(t, float64(15), n)

	out = running.Call([]value.Value{value.Number(0), value.Number(2)})
	n, _ = out.AsNumber()
	assert.Equal(t, float64(17), n)
}
