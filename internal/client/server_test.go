package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/internal/client/repositoryimpl"
	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/storage"
)

type fakeTaskCounter map[string]int

func (f fakeTaskCounter) CountByClient(_ context.Context, clientID string) (int, error) {
	return f[clientID], nil
}

type testEnv struct {
	handler http.Handler
	events  <-chan eventbus.Event
	tasks   fakeTaskCounter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	bus := eventbus.New()
	_, events := bus.Subscribe(16)
	tasks := fakeTaskCounter{}

	r := chi.NewRouter()
	r.Use(cerr.NewJSONResponseChiMiddleware())
	r.Route("/api/clients", client.NewServer(repositoryimpl.NewYAMLRepository(s), tasks, bus).Routes)
	return &testEnv{handler: r, events: events, tasks: tasks}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Name", "ana")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Message string `json:"message"`
		RuleID  string `json:"rule_id"`
	} `json:"details"`
}

func TestServer_CreateRequiresFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/clients", `{"name":"  ","email":"a@b.c"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "InvalidArgument", body.Code)
	require.Len(t, body.Details, 3)
	var msgs []string
	for _, d := range body.Details {
		assert.Equal(t, "required", d.RuleID)
		msgs = append(msgs, d.Message)
	}
	assert.ElementsMatch(t, []string{"name is required", "phone is required", "address is required"}, msgs)
}

func TestServer_CRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/clients",
		`{"name":"Maria","phone":"11 9999-0000","address":"Rua A, 10","notes":"prefers mornings"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Notes string `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Maria", created.Name)

	ev := <-env.events
	assert.Equal(t, eventbus.ClientCreated, ev.Type)
	assert.Equal(t, "ana", ev.Metadata["actor"])

	rec = env.do(t, http.MethodPut, "/api/clients/"+created.ID,
		`{"name":"Maria Silva","phone":"11 9999-0000","address":"Rua B, 20"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/clients/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rua B, 20")

	rec = env.do(t, http.MethodGet, "/api/clients?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Clients    []json.RawMessage `json:"clients"`
		Pagination struct {
			Total int `json:"total"`
			Limit int `json:"limit"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Clients, 1)
	assert.Equal(t, 1, list.Pagination.Total)
	assert.Equal(t, 10, list.Pagination.Limit)

	rec = env.do(t, http.MethodDelete, "/api/clients/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/clients/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_DeleteRefusedWhileTasksReferenceClient(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/clients", `{"name":"Jo","phone":"1","address":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	env.tasks[created.ID] = 2

	rec = env.do(t, http.MethodDelete, "/api/clients/"+created.ID, "")
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, rec.Body.String(), "FailedPrecondition")
}

func TestServer_UnknownClient(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/clients/nope", `{"name":"Jo","phone":"1","address":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/clients/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RejectsMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/clients", `{"nome":"Jo"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
