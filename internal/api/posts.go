package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/fragmede/threadr/internal/thread"
)

// GetPost fetches a post and its comments. The thread is laid out for the
// engine: a server list that breaks pre-order is rebuilt from parent ids, and
// visibility state starts cleared.
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	var post Post
	if err := c.get(ctx, "posts/"+url.PathEscape(postID), &post); err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", postID, err)
	}
	comments := thread.Prepare(post.Comments)
	if err := thread.Check(comments); err != nil {
		log.Printf("post %s: rebuilding comment order: %v", postID, err)
		comments = thread.Prepare(thread.Build(comments))
	}
	post.Comments = comments
	return &post, nil
}

// EditPost updates a post and returns the persisted text.
func (c *Client) EditPost(ctx context.Context, postID string, patch EditPatch) (*EditResult, error) {
	var res EditResult
	if err := c.send(ctx, http.MethodPut, "posts/"+url.PathEscape(postID), patch, &res); err != nil {
		return nil, fmt.Errorf("editing post %s: %w", postID, err)
	}
	return &res, nil
}
