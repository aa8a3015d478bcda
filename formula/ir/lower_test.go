package ir

import (
	"math"
	"testing"

	"github.com/dekarrin/express/formula/lang"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCallable struct {
	name   string
	argcnt int
	purity registry.Purity
	fn     func(args []value.Value) value.Value
}

func (c testCallable) Name() string             { return c.name }
func (c testCallable) Argcnt() int               { return c.argcnt }
func (c testCallable) Purity() registry.Purity   { return c.purity }
func (c testCallable) Call(args []value.Value) value.Value { return c.fn(args) }

func addCallable() testCallable {
	return testCallable{
		name: "add", argcnt: 2, purity: registry.Pure,
		fn: func(args []value.Value) value.Value {
			a, _ := args[0].Coerce()
			b, _ := args[1].Coerce()
			return value.Number(a + b)
		},
	}
}

func logCallable() testCallable {
	return testCallable{
		name: "log", argcnt: 2, purity: registry.Pure,
		fn: func(args []value.Value) value.Value {
			base, _ := args[0].Coerce()
			v, _ := args[1].Coerce()
			return value.Number(math.Log(v) / math.Log(base))
		},
	}
}

func lowerSrc(t *testing.T, src string, ctx *registry.Context) Node {
	t.Helper()
	expr, err := lang.Parse(src)
	require.NoError(t, err)
	node, err := Lower(expr, ctx)
	require.NoError(t, err)
	return node
}

// S1 -- arithmetic only.
func Test_Lower_S1_ArithmeticOnly(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(addCallable())

	node := lowerSrc(t, "2 + add(12 - 2, add(1, 1))", ctx)

	require.Equal(t, KindValue, node.Kind())
	n, ok := node.AsValue().V.AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(14), n)
}

// S2 -- built-in call.
func Test_Lower_S2_BuiltinCall(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(logCallable())

	node := lowerSrc(t, "2+2*2+log(2,4)", ctx)

	require.Equal(t, KindValue, node.Kind())
	n, ok := node.AsValue().V.AsNumber()
	require.True(t, ok)
	assert.InDelta(t, 8, n, 1e-9)
}

func Test_Lower_UnknownFunction(t *testing.T) {
	ctx := registry.New()
	_, err := Lower(mustParse(t, "nope(1)"), ctx)
	require.Error(t, err)
}

func Test_Lower_ArityMismatch(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(addCallable())
	_, err := Lower(mustParse(t, "add(1)"), ctx)
	require.Error(t, err)
}

func Test_Lower_UnknownIdentLowersToString(t *testing.T) {
	ctx := registry.New()
	node, err := Lower(mustParse(t, "FOO"), ctx)
	require.NoError(t, err)
	require.Equal(t, KindValue, node.Kind())
	s, ok := node.AsValue().V.AsString()
	require.True(t, ok)
	assert.Equal(t, "FOO", s)
}

func Test_Lower_KnownConstantInlines(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterConstant("PI", math.Pi)
	node, err := Lower(mustParse(t, "PI"), ctx)
	require.NoError(t, err)
	require.Equal(t, KindValue, node.Kind())
	n, ok := node.AsValue().V.AsNumber()
	require.True(t, ok)
	assert.Equal(t, math.Pi, n)
}

func Test_Lower_RefStaysUnresolved(t *testing.T) {
	ctx := registry.New()
	node, err := Lower(mustParse(t, "&foo"), ctx)
	require.NoError(t, err)
	require.Equal(t, KindRef, node.Kind())
	assert.False(t, node.AsRef().Link.Resolved())
	assert.Equal(t, "foo", node.AsRef().Link.Name)
}

func Test_Lower_StatefulNeverFoldsEvenWithConstantArgs(t *testing.T) {
	ctx := registry.New()
	ctx.RegisterFunction(testCallable{name: "state", argcnt: 2, purity: registry.Stateful})
	node, err := Lower(mustParse(t, "state(1,1)"), ctx)
	require.NoError(t, err)
	assert.Equal(t, KindCall, node.Kind())
}

func mustParse(t *testing.T, src string) lang.Expression {
	t.Helper()
	expr, err := lang.Parse(src)
	require.NoError(t, err)
	return expr
}
