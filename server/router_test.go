package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Config{DB: Database{Type: DatabaseInMemory}, UnauthDelayMillis: -1})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func Test_New_InfoEndpointRequiresNoAuth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/info", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_New_ProgramsEndpointRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_CreateInitialAdmin_OnlyCreatesOnce(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, srv.CreateInitialAdmin(ctx, "admin", "password"))

	users, err := srv.db.Users().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	require.NoError(t, srv.CreateInitialAdmin(ctx, "someone-else", "password"))

	users, err = srv.db.Users().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
