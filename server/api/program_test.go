package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/dao/inmem"
	"github.com/dekarrin/express/server/middle"
	"github.com/dekarrin/express/server/tunas"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI() (API, dao.User) {
	db := inmem.NewDatastore()
	svc := tunas.Service{DB: db}
	user, err := svc.CreateUser(context.Background(), "tester", "hunter22", "", dao.Normal)
	if err != nil {
		panic(err)
	}
	return API{Backend: svc}, user
}

func requestAsUser(method, path string, body interface{}, user dao.User) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		bodyReader = bytes.NewReader(b)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := context.WithValue(req.Context(), middle.AuthLoggedIn, true)
	ctx = context.WithValue(ctx, middle.AuthUser, user)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, val string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, val)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func Test_epCreateProgram(t *testing.T) {
	api, user := newTestAPI()

	req := requestAsUser(http.MethodPost, "/programs", ProgramCreateRequest{
		Name:        "my-program",
		Definitions: map[string]string{"price": "0"},
	}, user)

	res := api.epCreateProgram(req)
	assert.Equal(t, http.StatusCreated, res.Status)
}

func Test_epCreateProgram_RejectsInvalidDefinitions(t *testing.T) {
	api, user := newTestAPI()

	req := requestAsUser(http.MethodPost, "/programs", ProgramCreateRequest{
		Name:        "broken",
		Definitions: map[string]string{"a": "b", "b": "a"},
	}, user)

	res := api.epCreateProgram(req)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func Test_epGetProgram_ForbiddenForOtherUser(t *testing.T) {
	api, owner := newTestAPI()

	other, err := api.Backend.CreateUser(context.Background(), "other", "hunter22", "", dao.Normal)
	require.NoError(t, err)

	prog, err := api.Backend.CreateProgram(context.Background(), owner.ID.String(), "private", map[string]string{"x": "1"})
	require.NoError(t, err)

	req := requestAsUser(http.MethodGet, "/programs/"+prog.ID.String(), nil, other)
	req = withURLParam(req, "id", prog.ID.String())

	res := api.epGetProgram(req)
	assert.Equal(t, http.StatusForbidden, res.Status)
}

func Test_epGetProgram_AdminSeesAnyProgram(t *testing.T) {
	api, owner := newTestAPI()

	admin, err := api.Backend.CreateUser(context.Background(), "root", "hunter22", "", dao.Admin)
	require.NoError(t, err)

	prog, err := api.Backend.CreateProgram(context.Background(), owner.ID.String(), "shared", map[string]string{"x": "1"})
	require.NoError(t, err)

	req := requestAsUser(http.MethodGet, "/programs/"+prog.ID.String(), nil, admin)
	req = withURLParam(req, "id", prog.ID.String())

	res := api.epGetProgram(req)
	assert.Equal(t, http.StatusOK, res.Status)
}

func Test_epDeleteProgram(t *testing.T) {
	api, user := newTestAPI()

	prog, err := api.Backend.CreateProgram(context.Background(), user.ID.String(), "deleteme", map[string]string{"x": "1"})
	require.NoError(t, err)

	req := requestAsUser(http.MethodDelete, "/programs/"+prog.ID.String(), nil, user)
	req = withURLParam(req, "id", prog.ID.String())

	res := api.epDeleteProgram(req)
	assert.Equal(t, http.StatusNoContent, res.Status)
}
