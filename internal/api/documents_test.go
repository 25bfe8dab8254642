package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/serroba/crdt-docs/internal/acl"
	"github.com/serroba/crdt-docs/internal/api"
	"github.com/serroba/crdt-docs/internal/collab"
	"github.com/serroba/crdt-docs/internal/storage"
	"github.com/serroba/crdt-docs/internal/ws"
	"github.com/stretchr/testify/require"
)

// testServer bundles the handler with the stores behind it.
type testServer struct {
	handler   http.Handler
	store     *storage.MemoryStore
	permStore *acl.MemoryStore
	manager   *collab.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := storage.NewMemoryStore()
	permStore := acl.NewMemoryStore()
	hub := ws.NewHub()

	manager := collab.NewManager(collab.ManagerConfig{
		Store:     store,
		PermStore: permStore,
		Hub:       hub,
	})

	server := api.NewServer(api.ServerConfig{
		Manager:   manager,
		Store:     store,
		PermStore: permStore,
		Hub:       hub,
	})

	return &testServer{
		handler:   server.Handler(),
		store:     store,
		permStore: permStore,
		manager:   manager,
	}
}

// do performs a request as the given user.
func (ts *testServer) do(method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	return rec
}

func TestCreateDocument(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	exists, err := ts.store.DocumentExists("doc1")
	require.NoError(t, err)

	if !exists {
		t.Error("expected document to exist")
	}

	// The creator is granted Owner.
	role, err := ts.permStore.GetRole("doc1", "alice")
	require.NoError(t, err)

	if role != acl.Owner {
		t.Errorf("expected owner, got %s", role)
	}
}

func TestCreateDocument_AlreadyExists(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodPost, "/documents", "bob", `{"id":"doc1"}`)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestCreateDocument_InvalidBody(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid body, got %d", rec.Code)
	}

	rec = ts.do(http.MethodPost, "/documents", "alice", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing id, got %d", rec.Code)
	}

	rec = ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1","defaultRole":"owner"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid default role, got %d", rec.Code)
	}
}

func TestCreateDocument_DefaultRoleOpensDocument(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1","defaultRole":"viewer"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// A stranger can read the open document.
	rec = ts.do(http.MethodGet, "/documents/doc1", "stranger", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestGetDocument(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	session, err := ts.manager.GetOrCreateSession("doc1")
	require.NoError(t, err)

	_, err = session.ApplyEdit("c1", "alice", "hello")
	require.NoError(t, err)

	rec = ts.do(http.MethodGet, "/documents/doc1", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.GetDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	if resp.Text != "hello" {
		t.Errorf("expected hello, got %q", resp.Text)
	}

	if len(resp.Segments) != 1 || resp.Segments[0].Author != "alice" {
		t.Errorf("unexpected segments %+v", resp.Segments)
	}

	if resp.Clock != 5 {
		t.Errorf("expected clock 5, got %d", resp.Clock)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/documents/missing", "alice", "")

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestGetDocument_AccessDenied(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodGet, "/documents/doc1", "stranger", "")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(http.MethodDelete, "/documents/doc1", "alice", "")

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	exists, err := ts.store.DocumentExists("doc1")
	require.NoError(t, err)

	if exists {
		t.Error("expected document to be gone")
	}
}

func TestDeleteDocument_RequiresOwner(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/documents", "alice", `{"id":"doc1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NoError(t, ts.permStore.Grant("doc1", "bob", acl.Editor))

	rec = ts.do(http.MethodDelete, "/documents/doc1", "bob", "")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}
