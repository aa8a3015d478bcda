package lang

import (
	"testing"

	"github.com/dekarrin/express/formula/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eval walks a parsed Expression containing only literal numbers and
// arithmetic operators, ignoring Function/Ref forms -- enough to check
// parser precedence/associativity without needing the lowerer.
func eval(t *testing.T, e Expression) float64 {
	t.Helper()
	switch e.Kind() {
	case NodeConst:
		lit := e.AsConst().Literal
		require.Equal(t, LiteralNumber, lit.Kind)
		return lit.Num
	case NodeBinOp:
		n := e.AsBinOp()
		return n.Op.Eval(eval(t, n.Left), eval(t, n.Right))
	case NodeUnOp:
		n := e.AsUnOp()
		result, ok := n.Op.UnaryEval(eval(t, n.Right))
		require.True(t, ok)
		return result
	default:
		t.Fatalf("unexpected node kind %v", e.Kind())
		return 0
	}
}

func Test_Parse_Precedence(t *testing.T) {
	e, err := Parse("2 + 2 * 2")
	require.NoError(t, err)
	assert.Equal(t, float64(6), eval(t, e))

	e, err = Parse("(2 + 2) * 2")
	require.NoError(t, err)
	assert.Equal(t, float64(8), eval(t, e))
}

func Test_Parse_PowerRightAssociative(t *testing.T) {
	e, err := Parse("2 ** 3 ** 2")
	require.NoError(t, err)
	assert.Equal(t, float64(512), eval(t, e))
}

func Test_Parse_UnaryMinus(t *testing.T) {
	e, err := Parse("-5")
	require.NoError(t, err)
	assert.Equal(t, float64(-5), eval(t, e))
}

func Test_Parse_FunctionCallAndRef(t *testing.T) {
	e, err := Parse("add(1, &x)")
	require.NoError(t, err)
	require.Equal(t, NodeFunction, e.Kind())

	fn := e.AsFunction()
	assert.Equal(t, "add", fn.FuncName)
	require.Len(t, fn.Args, 2)

	assert.Equal(t, NodeConst, fn.Args[0].Kind())
	assert.Equal(t, LiteralNumber, fn.Args[0].AsConst().Literal.Kind)

	ref := fn.Args[1].AsConst().Literal
	assert.Equal(t, LiteralRef, ref.Kind)
	assert.Equal(t, "x", ref.Name)
}

func Test_Parse_NumberRoundTrip(t *testing.T) {
	for _, n := range []float64{0, 1, 14, 3.5, 1e10, 1.5e-3} {
		e, err := Parse(value.Number(n).String())
		require.NoError(t, err)
		assert.Equal(t, n, eval(t, e))
	}
}

func Test_Parse_Errors(t *testing.T) {
	_, err := Parse("(1 + 2")
	require.Error(t, err)

	_, err = Parse("add(1,)")
	require.Error(t, err)

	_, err = Parse("&")
	require.Error(t, err)

	_, err = Parse("1 +")
	require.Error(t, err)
}
