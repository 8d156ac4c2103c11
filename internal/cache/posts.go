package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/thread"
)

// GetPost retrieves a cached post. Returns (post, isFresh, error).
// isFresh indicates whether the post is within its TTL.
// Returns nil post on cache miss.
func (d *DB) GetPost(id string, ttl time.Duration) (*api.Post, bool, error) {
	row := d.db.QueryRow(`SELECT body, fetched_at FROM posts WHERE id = ?`, id)

	var body string
	var fetchedAt int64
	err := row.Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var post api.Post
	if err := json.Unmarshal([]byte(body), &post); err != nil {
		return nil, false, fmt.Errorf("decoding cached post %s: %w", id, err)
	}
	isFresh := time.Since(time.Unix(fetchedAt, 0)) < ttl
	return &post, isFresh, nil
}

// PutPost stores a post in the cache. Collapse state is not part of the
// stored copy; it lives in its own table.
func (d *DB) PutPost(post *api.Post) error {
	stored := *post
	stored.Comments = thread.Prepare(post.Comments)
	body, err := json.Marshal(&stored)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(`INSERT OR REPLACE INTO posts (id, body, fetched_at) VALUES (?, ?, ?)`,
		post.ID, string(body), time.Now().Unix())
	return err
}

// InvalidatePost drops the cached copy so the next read goes to the network.
func (d *DB) InvalidatePost(id string) error {
	_, err := d.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return err
}

// GetCollapsed returns the comments the user collapsed on a post.
func (d *DB) GetCollapsed(postID string) ([]string, error) {
	rows, err := d.db.Query(`SELECT comment_id FROM collapsed_comments WHERE post_id = ? ORDER BY comment_id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PutCollapsed replaces the collapse set of a post.
func (d *DB) PutCollapsed(postID string, ids []string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM collapsed_comments WHERE post_id = ?`, postID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO collapsed_comments (post_id, comment_id) VALUES (?, ?)`, postID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
