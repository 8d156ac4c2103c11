package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/thread"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["password"] != "pw" {
			http.Error(w, "no", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(api.LoginResult{Token: "good", User: api.User{ID: "u1", Username: body["username"]}})
	}).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer good" {
			http.Error(w, "expired", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(api.User{ID: "u1", Username: "alice"})
	}).Methods(http.MethodGet)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginSaveLoad(t *testing.T) {
	srv := newServer(t)
	path := filepath.Join(t.TempDir(), "session.json")
	ctx := context.Background()

	s := NewSession(api.NewClient(srv.URL, time.Second))
	require.Error(t, s.Login(ctx, "alice", "wrong"))
	assert.False(t, s.LoggedIn)

	require.NoError(t, s.Login(ctx, "alice", "pw"))
	assert.True(t, s.LoggedIn)
	assert.Equal(t, "u1", s.UserID)
	require.NoError(t, s.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := NewSession(api.NewClient(srv.URL, time.Second))
	require.True(t, restored.Load(ctx, path))
	assert.Equal(t, "alice", restored.Username)
	assert.True(t, restored.Owns("u1"))
	assert.False(t, restored.Owns("u2"))
	assert.False(t, restored.Owns(""))

	require.NoError(t, restored.Logout(path))
	assert.False(t, restored.LoggedIn)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, restored.Logout(path))
}

func TestLoadRejectedTokenClearsFile(t *testing.T) {
	srv := newServer(t)
	path := filepath.Join(t.TempDir(), "session.json")
	data, _ := json.Marshal(savedSession{UserID: "u1", Username: "alice", Token: "expired"})
	require.NoError(t, os.WriteFile(path, data, 0o600))

	s := NewSession(api.NewClient(srv.URL, time.Second))
	assert.False(t, s.Load(context.Background(), path))
	assert.False(t, s.LoggedIn)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadOfflineKeepsSession(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	data, _ := json.Marshal(savedSession{UserID: "u1", Username: "alice", Token: "good"})
	require.NoError(t, os.WriteFile(path, data, 0o600))

	s := NewSession(api.NewClient(url, time.Second))
	require.True(t, s.Load(context.Background(), path))
	assert.Equal(t, "alice", s.Username)
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestStamp(t *testing.T) {
	s := NewSession(api.NewClient("http://unused", time.Second))
	s.set("u9", "bob", "t")

	c := thread.Comment{ID: "c1"}
	s.Stamp(&c)
	assert.Equal(t, "bob", c.AuthorName)
	assert.Equal(t, "u9", c.AuthorID)

	c = thread.Comment{ID: "c2", AuthorID: "server-id"}
	s.Stamp(&c)
	assert.Equal(t, "server-id", c.AuthorID)
}
