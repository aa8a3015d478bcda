package graph

import (
	"math"
	"testing"

	"github.com/dekarrin/express/formula/ir"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addCallable struct{}

func (addCallable) Name() string            { return "add" }
func (addCallable) Argcnt() int              { return 2 }
func (addCallable) Purity() registry.Purity  { return registry.Pure }
func (addCallable) Call(args []value.Value) value.Value {
	a, _ := args[0].Coerce()
	b, _ := args[1].Coerce()
	return value.Number(a + b)
}

type logCallable struct{}

func (logCallable) Name() string           { return "log" }
func (logCallable) Argcnt() int             { return 2 }
func (logCallable) Purity() registry.Purity { return registry.Pure }
func (logCallable) Call(args []value.Value) value.Value {
	base, _ := args[0].Coerce()
	v, _ := args[1].Coerce()
	if base <= 0 || v <= 0 {
		return value.None
	}
	return value.Number(math.Log(v) / math.Log(base))
}

// stateCallable counts how many times it has been invoked, as a minimal
// stateful callable for CSE tests (§8 property 5 / S6).
type stateCallable struct {
	calls *int
}

func (c stateCallable) Name() string           { return "state" }
func (c stateCallable) Argcnt() int             { return 2 }
func (c stateCallable) Purity() registry.Purity { return registry.Stateful }
func (c stateCallable) Call(args []value.Value) value.Value {
	*c.calls++
	a, _ := args[0].Coerce()
	b, _ := args[1].Coerce()
	return value.Number(a + b)
}

func Test_S1_ArithmeticOnly(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(addCallable{})

	interp, err := New([]Definition{
		{Name: "f", Source: "2 + add(12 - 2, add(1, 1))"},
	}, ctx)
	require.NoError(t, err)

	f, ok := interp.Lookup("f")
	require.True(t, ok)
	require.Equal(t, ir.KindValue, f.IR().Kind())
	n, ok := f.IR().AsValue().V.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(14), n)

	out := interp.ComputePass()
	got, ok := out["f"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(14), got)
}

func Test_S2_BuiltinCall(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(logCallable{})

	interp, err := New([]Definition{
		{Name: "f", Source: "2+2*2+log(2,4)"},
	}, ctx)
	require.NoError(t, err)

	out := interp.ComputePass()
	n, ok := out["f"].AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 8, n, 1e-9)
}

func Test_S3_ReferenceChain(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(addCallable{})

	interp, err := New([]Definition{
		{Name: "foo", Source: "2+2*2+add(2,4)"},
		{Name: "bar", Source: "&foo * 2"},
	}, ctx)
	require.NoError(t, err)

	out := interp.ComputePass()
	fooN, _ := out["foo"].AsNumber()
	barN, _ := out["bar"].AsNumber()
	assert.Equal(t, float64(12), fooN)
	assert.Equal(t, float64(24), barN)

	foo, _ := interp.Lookup("foo")
	bar, _ := interp.Lookup("bar")
	require.Len(t, bar.Parents(), 1)
	assert.Same(t, foo, bar.Parents()[0])
	require.Len(t, foo.Children(), 1)
	assert.Same(t, bar, foo.Children()[0])
}

func Test_S4_InlineConstViaRef(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(logCallable{})

	interp, err := New([]Definition{
		{Name: "far", Source: "2 + 2 * 2 + log(2, 4)"},
		{Name: "bor", Source: "&far * 2"},
	}, ctx)
	require.NoError(t, err)

	bor, ok := interp.Lookup("bor")
	require.True(t, ok)
	require.Equal(t, ir.KindValue, bor.IR().Kind())
	n, _ := bor.IR().AsValue().V.AsNumber()
	assert.InDelta(t, 16, n, 1e-9)
}

func Test_S5_CycleRejection(t *testing.T) {
	ctx := registry.New()
	_, err := New([]Definition{
		{Name: "a", Source: "11 + &b"},
		{Name: "b", Source: "&a + 11"},
	}, ctx)
	require.Error(t, err)
}

func Test_S6_StatefulCSE(t *testing.T) {
	ctx := registry.New()
	calls := 0
	ctx.RegisterFunction(stateCallable{calls: &calls})

	interp, err := New([]Definition{
		{Name: "f1", Source: "11 + state(1,1)"},
		{Name: "f2", Source: "2 * state(1,1) + state(1,1)"},
	}, ctx)
	require.NoError(t, err)
	require.Len(t, interp.formulas, 3)

	interp.ComputePass()
	assert.Equal(t, 1, calls)
}

func Test_Property4_ConstantFormulasReduceToValue(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(addCallable{})

	interp, err := New([]Definition{
		{Name: "f", Source: "add(1, 2) * 3"},
	}, ctx)
	require.NoError(t, err)

	f, _ := interp.Lookup("f")
	assert.Equal(t, ir.KindValue, f.IR().Kind())
}

func Test_Property7_RefReadsSameTickValue(t *testing.T) {
	ctx := registry.New()
	interp, err := New([]Definition{
		{Name: "x", Source: "1"},
		{Name: "y", Source: "&x + 1"},
	}, ctx)
	require.NoError(t, err)

	out := interp.ComputePass()
	n, _ := out["y"].AsNumber()
	assert.Equal(t, float64(2), n)
}

func Test_Property8_SecondFoldPassIsIdempotent(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(addCallable{})

	interp, err := New([]Definition{
		{Name: "a", Source: "add(1,2)"},
		{Name: "b", Source: "&a + 1"},
		{Name: "c", Source: "&b + 1"},
	}, ctx)
	require.NoError(t, err)

	before := make([]string, len(interp.formulas))
	for i, f := range interp.formulas {
		before[i] = f.node.String()
	}
	foldConstants(interp.formulas)
	for i, f := range interp.formulas {
		assert.Equal(t, before[i], f.node.String())
	}
}

func Test_EmptyDefinitionSetHasNoRoots(t *testing.T) {
	ctx := registry.New()
	interp, err := New(nil, ctx)
	require.NoError(t, err)
	assert.Empty(t, interp.roots)
}
