package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fragmede/threadr/internal/thread"
)

// SubmitComment posts a comment on postID. An empty parentID makes it a
// top-level comment. The returned record has no author name; the caller
// stamps it from the session.
func (c *Client) SubmitComment(ctx context.Context, postID, parentID, text string) (*thread.Comment, error) {
	var created thread.Comment
	body := commentRequest{ParentComment: parentID, Text: text}
	if err := c.send(ctx, http.MethodPost, "comments/"+url.PathEscape(postID), body, &created); err != nil {
		return nil, fmt.Errorf("submitting comment on %s: %w", postID, err)
	}
	if created.ID == "" {
		return nil, &TransientError{Op: "submit comment", Err: fmt.Errorf("response has no comment id")}
	}
	return &created, nil
}

// EditComment updates a comment's text and returns the persisted text.
func (c *Client) EditComment(ctx context.Context, commentID string, patch EditPatch) (*EditResult, error) {
	patch.Title = ""
	var res EditResult
	if err := c.send(ctx, http.MethodPut, "comments/"+url.PathEscape(commentID), patch, &res); err != nil {
		return nil, fmt.Errorf("editing comment %s: %w", commentID, err)
	}
	return &res, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var res LoginResult
	body := loginRequest{Username: username, Password: password}
	if err := c.send(ctx, http.MethodPost, "auth/login", body, &res); err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("logging in: %w", ErrUnauthorized)
	}
	return &res, nil
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "auth/me", &u); err != nil {
		return nil, fmt.Errorf("validating session: %w", err)
	}
	return &u, nil
}
