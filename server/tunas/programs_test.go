package tunas

import (
	"context"
	"errors"
	"testing"

	"github.com/dekarrin/express/server/dao/inmem"
	"github.com/dekarrin/express/server/serr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() Service {
	return Service{DB: inmem.NewDatastore()}
}

func Test_CreateProgram(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "alice", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "ma-cross", map[string]string{
		"price": "0",
		"avg":   "sma(price, 3)",
	})
	require.NoError(t, err)
	assert.Equal(t, "ma-cross", prog.Name)
	assert.Equal(t, user.ID.String(), prog.UserID.String())
	assert.Len(t, prog.Definitions, 2)
}

func Test_CreateProgram_RejectsInvalidFormulaSet(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "bob", "hunter22", "", 2)
	require.NoError(t, err)

	_, err = svc.CreateProgram(ctx, user.ID.String(), "broken", map[string]string{
		"a": "b",
		"b": "a",
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, serr.ErrBadArgument))
}

func Test_CreateProgram_RejectsEmptyDefinitions(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "carl", "hunter22", "", 2)
	require.NoError(t, err)

	_, err = svc.CreateProgram(ctx, user.ID.String(), "empty", map[string]string{})
	assert.True(t, errors.Is(err, serr.ErrBadArgument))
}

func Test_GetProgram_NotFound(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.GetProgram(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}

func Test_UpdateProgram(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "dana", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "orig", map[string]string{"x": "1"})
	require.NoError(t, err)

	updated, err := svc.UpdateProgram(ctx, prog.ID.String(), "renamed", map[string]string{"x": "2"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "2", updated.Definitions["x"])
}

func Test_DeleteProgram(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "erin", "hunter22", "", 2)
	require.NoError(t, err)

	prog, err := svc.CreateProgram(ctx, user.ID.String(), "gone-soon", map[string]string{"x": "1"})
	require.NoError(t, err)

	deleted, err := svc.DeleteProgram(ctx, prog.ID.String())
	require.NoError(t, err)
	assert.Equal(t, prog.ID, deleted.ID)

	_, err = svc.GetProgram(ctx, prog.ID.String())
	assert.True(t, errors.Is(err, serr.ErrNotFound))
}

func Test_GetAllProgramsByUser(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	user1, err := svc.CreateUser(ctx, "frank", "hunter22", "", 2)
	require.NoError(t, err)
	user2, err := svc.CreateUser(ctx, "gina", "hunter22", "", 2)
	require.NoError(t, err)

	_, err = svc.CreateProgram(ctx, user1.ID.String(), "p1", map[string]string{"x": "1"})
	require.NoError(t, err)
	_, err = svc.CreateProgram(ctx, user2.ID.String(), "p2", map[string]string{"x": "1"})
	require.NoError(t, err)

	progs, err := svc.GetAllProgramsByUser(ctx, user1.ID.String())
	require.NoError(t, err)
	require.Len(t, progs, 1)
	assert.Equal(t, "p1", progs[0].Name)
}
