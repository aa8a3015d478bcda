package tunas

import (
	"context"
	"errors"
	"testing"

	"github.com/dekarrin/express/formula/value"
	"github.com/dekarrin/express/server/serr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_RunTick(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "hank", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "doubler", map[string]string{
		"price":  "0",
		"scaled": "mul(price, 2)",
	})
	require.NoError(t, err)

	run, err := svc.RunTick(ctx, prog.ID.String(), map[string]value.TimeStep{
		"price": {Price: 10, Time: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Tick)
	assert.Equal(t, prog.ID, run.ProgramID)
	assert.Contains(t, run.Results, "scaled")
}

func Test_RunTick_TicksIncrementAcrossRuns(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "ivy", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "counter", map[string]string{
		"price": "0",
	})
	require.NoError(t, err)

	run1, err := svc.RunTick(ctx, prog.ID.String(), map[string]value.TimeStep{"price": {Price: 1, Time: 0}})
	require.NoError(t, err)
	run2, err := svc.RunTick(ctx, prog.ID.String(), map[string]value.TimeStep{"price": {Price: 2, Time: 1}})
	require.NoError(t, err)

	assert.Equal(t, 1, run1.Tick)
	assert.Equal(t, 2, run2.Tick)
}

func Test_RunTick_ProgramNotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.RunTick(ctx, "00000000-0000-0000-0000-000000000000", map[string]value.TimeStep{})
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}

func Test_GetRunsByProgram(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "jack", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "history", map[string]string{"price": "0"})
	require.NoError(t, err)

	_, err = svc.RunTick(ctx, prog.ID.String(), map[string]value.TimeStep{"price": {Price: 1, Time: 0}})
	require.NoError(t, err)
	_, err = svc.RunTick(ctx, prog.ID.String(), map[string]value.TimeStep{"price": {Price: 2, Time: 1}})
	require.NoError(t, err)

	runs, err := svc.GetRunsByProgram(ctx, prog.ID.String())
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func Test_DeleteRun(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "kim", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "onetick", map[string]string{"price": "0"})
	require.NoError(t, err)

	run, err := svc.RunTick(ctx, prog.ID.String(), map[string]value.TimeStep{"price": {Price: 1, Time: 0}})
	require.NoError(t, err)

	deleted, err := svc.DeleteRun(ctx, run.ID.String())
	require.NoError(t, err)
	assert.Equal(t, run.ID, deleted.ID)

	_, err = svc.GetRun(ctx, run.ID.String())
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}
