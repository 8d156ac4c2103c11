package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/thread"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePost() *api.Post {
	created := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	return &api.Post{
		ID:        "p1",
		Title:     "Hello",
		Text:      "body",
		UserID:    "u1",
		User:      api.User{ID: "u1", Username: "alice"},
		CreatedAt: created,
		UpdatedAt: created,
		Comments: []thread.Comment{
			{ID: "a", Path: []string{"a"}, Text: "A", CreatedAt: created},
			{ID: "b", ParentID: "a", Path: []string{"a"}, Depth: 1, Text: "B", CreatedAt: created},
		},
	}
}

func TestPostRoundTrip(t *testing.T) {
	db := openTemp(t)

	got, fresh, err := db.GetPost("p1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, fresh)

	post := samplePost()
	post.Comments, _ = thread.ToggleCollapse(post.Comments, "a")
	require.NoError(t, db.PutPost(post))
	assert.True(t, post.Comments[1].Hide, "caller's copy untouched")

	got, fresh, err = db.GetPost("p1", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, fresh)
	assert.Equal(t, "alice", got.User.Username)
	require.Len(t, got.Comments, 2)
	assert.False(t, got.Comments[1].Hide, "visibility is not cached")
	assert.False(t, got.Comments[0].HideContent)
	assert.True(t, got.CreatedAt.Equal(post.CreatedAt))

	_, fresh, err = db.GetPost("p1", 0)
	require.NoError(t, err)
	assert.False(t, fresh)

	require.NoError(t, db.InvalidatePost("p1"))
	got, _, err = db.GetPost("p1", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCollapsed(t *testing.T) {
	db := openTemp(t)

	ids, err := db.GetCollapsed("p1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, db.PutCollapsed("p1", []string{"b", "a", "a"}))
	require.NoError(t, db.PutCollapsed("p2", []string{"z"}))

	ids, err = db.GetCollapsed("p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, db.PutCollapsed("p1", nil))
	ids, err = db.GetCollapsed("p1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = db.GetCollapsed("p2")
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, ids)
}
