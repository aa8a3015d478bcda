package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Value_Coerce(t *testing.T) {
	testCases := []struct {
		name       string
		input      Value
		expectOK   bool
		expectNum  float64
	}{
		{name: "number", input: Number(3.5), expectOK: true, expectNum: 3.5},
		{name: "timestep does not coerce", input: NewTimeStep(10, 99), expectOK: false},
		{name: "string does not coerce", input: String("abc"), expectOK: false},
		{name: "none does not coerce", input: None, expectOK: false},
		{name: "collection does not coerce", input: FromCollection(NewCollection(nil)), expectOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			n, ok := tc.input.Coerce()
			assert.Equal(t, tc.expectOK, ok)
			if tc.expectOK {
				assert.Equal(t, tc.expectNum, n)
			}
		})
	}
}

func Test_Value_Equal(t *testing.T) {
	assert.True(t, Number(4).Equal(Number(4)))
	assert.False(t, Number(4).Equal(Number(5)))
	assert.False(t, Number(4).Equal(String("4")))
	assert.True(t, None.Equal(None))
	assert.True(t, FunctionHandle("sma").Equal(FunctionHandle("sma")))

	c1 := FromCollection(NewCollection([]TimeStep{{Price: 1, Time: 1}}))
	c2 := FromCollection(NewCollection([]TimeStep{{Price: 1, Time: 1}}))
	assert.True(t, c1.Equal(c2))
}

func Test_Collection_Append_does_not_mutate_original(t *testing.T) {
	base := NewCollection([]TimeStep{{Price: 1, Time: 1}})
	extended := base.Append(TimeStep{Price: 2, Time: 2})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, extended.Len())
	assert.Equal(t, TimeStep{Price: 2, Time: 2}, extended.At(1))
}

func Test_Operation_Eval_Power_uses_second_operand_as_base(t *testing.T) {
	// Eval(a, b, Power) = b^a -- the IR's raw contract (see DESIGN.md).
	got := Power.Eval(2, 3)
	assert.Equal(t, float64(9), got)
}

func Test_Operation_UnaryEval_Factorial(t *testing.T) {
	result, ok := Factorial.UnaryEval(5)
	assert.True(t, ok)
	assert.Equal(t, float64(120), result)

	_, ok = Factorial.UnaryEval(-1)
	assert.False(t, ok)

	_, ok = Factorial.UnaryEval(2.5)
	assert.False(t, ok)
}
