package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/dekarrin/express/server/dao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_epCreateRun(t *testing.T) {
	api, user := newTestAPI()

	prog, err := api.Backend.CreateProgram(context.Background(), user.ID.String(), "tickable", map[string]string{
		"price":  "0",
		"scaled": "mul(price, 2)",
	})
	require.NoError(t, err)

	req := requestAsUser(http.MethodPost, "/programs/"+prog.ID.String()+"/tick", TickRequest{
		Samples: map[string]TickSampleModel{
			"price": {Price: 5, Time: 0},
		},
	}, user)
	req = withURLParam(req, "id", prog.ID.String())

	res := api.epCreateRun(req)
	assert.Equal(t, http.StatusCreated, res.Status)
}

func Test_epCreateRun_ForbiddenForOtherUser(t *testing.T) {
	api, owner := newTestAPI()

	other, err := api.Backend.CreateUser(context.Background(), "intruder", "hunter22", "", dao.Normal)
	require.NoError(t, err)

	prog, err := api.Backend.CreateProgram(context.Background(), owner.ID.String(), "guarded", map[string]string{"price": "0"})
	require.NoError(t, err)

	req := requestAsUser(http.MethodPost, "/programs/"+prog.ID.String()+"/tick", TickRequest{
		Samples: map[string]TickSampleModel{"price": {Price: 1, Time: 0}},
	}, other)
	req = withURLParam(req, "id", prog.ID.String())

	res := api.epCreateRun(req)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func Test_epGetAllRuns(t *testing.T) {
	api, user := newTestAPI()

	prog, err := api.Backend.CreateProgram(context.Background(), user.ID.String(), "history", map[string]string{"price": "0"})
	require.NoError(t, err)

	_, err = api.Backend.RunTick(context.Background(), prog.ID.String(), nil)
	require.NoError(t, err)

	req := requestAsUser(http.MethodGet, "/programs/"+prog.ID.String()+"/runs", nil, user)
	req = withURLParam(req, "id", prog.ID.String())

	res := api.epGetAllRuns(req)
	assert.Equal(t, http.StatusOK, res.Status)
}

func Test_epDeleteRun(t *testing.T) {
	api, user := newTestAPI()

	prog, err := api.Backend.CreateProgram(context.Background(), user.ID.String(), "onetick", map[string]string{"price": "0"})
	require.NoError(t, err)

	run, err := api.Backend.RunTick(context.Background(), prog.ID.String(), nil)
	require.NoError(t, err)

	req := requestAsUser(http.MethodDelete, "/runs/"+run.ID.String(), nil, user)
	req = withURLParam(req, "id", run.ID.String())

	res := api.epDeleteRun(req)
	assert.Equal(t, http.StatusNoContent, res.Status)
}
