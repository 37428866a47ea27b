package users

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openresearch/research-agent/internal/models"
	"github.com/openresearch/research-agent/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := NewHandler(store.NewUserRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/users", handler.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func createUser(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/users/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const alice = `{"user_id":"u1","username":"alice","email":"alice@example.com"}`

func TestCreateUserDefaults(t *testing.T) {
	srv := newTestServer(t)

	resp := createUser(t, srv, alice)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var u models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	assert.Equal(t, "u1", u.UserID)
	assert.True(t, u.IsActive, "is_active defaults to true")
	assert.Zero(t, u.ResearchCount)
}

func TestCreateUserConflicts(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, createUser(t, srv, alice).StatusCode)

	// Same id.
	resp := createUser(t, srv, `{"user_id":"u1","username":"bob","email":"bob@example.com"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Same username, new id.
	resp = createUser(t, srv, `{"user_id":"u2","username":"alice","email":"alice2@example.com"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateUserValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing id", `{"username":"alice","email":"alice@example.com"}`},
		{"username too short", `{"user_id":"u1","username":"al","email":"alice@example.com"}`},
		{"username too long", `{"user_id":"u1","username":"` + strings.Repeat("a", 51) + `","email":"alice@example.com"}`},
		{"bad email", `{"user_id":"u1","username":"alice","email":"not-an-email"}`},
		{"negative research count", `{"user_id":"u1","username":"alice","email":"alice@example.com","research_count":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, createUser(t, srv, tt.body).StatusCode)
		})
	}
}

func TestGetUser(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, alice)

	resp, err := http.Get(srv.URL + "/users/u1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/users/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListUsersActiveFilter(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, alice)
	createUser(t, srv, `{"user_id":"u2","username":"bob","email":"bob@example.com","is_active":false}`)

	var page []models.User
	resp, err := http.Get(srv.URL + "/users/?is_active=false")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	require.Len(t, page, 1)
	assert.Equal(t, "u2", page[0].UserID)

	resp, err = http.Get(srv.URL + "/users/?is_active=banana")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUserStats(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, `{"user_id":"u1","username":"alice","email":"alice@example.com","research_count":4}`)
	createUser(t, srv, `{"user_id":"u2","username":"bob","email":"bob@example.com","research_count":2,"is_active":false}`)

	var stats models.UserStats
	resp, err := http.Get(srv.URL + "/users/stats/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))

	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.ActiveUsers)
	assert.Equal(t, 6, stats.TotalResearchQueries)
	assert.InDelta(t, 3.0, stats.AverageQueriesPerUser, 1e-9)
}

func TestUpdateUser(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, alice)
	createUser(t, srv, `{"user_id":"u2","username":"bob","email":"bob@example.com"}`)

	// Rename onto a taken username conflicts.
	body := `{"username":"alice","email":"bob@example.com"}`
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/users/u2", strings.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// A free username is fine.
	body = `{"username":"bobby","email":"bob@example.com","full_name":"Bob B"}`
	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/users/u2", strings.NewReader(body))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var u models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&u))
	assert.Equal(t, "bobby", u.Username)
	assert.Equal(t, "Bob B", u.FullName)

	req, _ = http.NewRequest(http.MethodPut, srv.URL+"/users/missing", strings.NewReader(body))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteUser(t *testing.T) {
	srv := newTestServer(t)
	createUser(t, srv, alice)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/users/u1", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
