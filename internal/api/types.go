package api

import (
	"time"

	"github.com/fragmede/threadr/internal/thread"
)

// User is the public part of a forum account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Post is a forum post with its comment thread flattened in pre-order.
type Post struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Text      string           `json:"text"`
	UserID    string           `json:"userId"`
	User      User             `json:"user"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Comments  []thread.Comment `json:"comments"`
}

// Edited reports whether the post changed after it was created.
func (p *Post) Edited() bool {
	return !p.UpdatedAt.IsZero() && !p.UpdatedAt.Equal(p.CreatedAt)
}

// ApplyEdit copies the server's canonical text and timestamp onto the post.
func (p *Post) ApplyEdit(res *EditResult) {
	p.Text = res.Text
	p.UpdatedAt = res.UpdatedAt
}

// EditPatch is the body of an edit request. Title applies to posts only.
type EditPatch struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// EditResult is what the server persisted after an edit.
type EditResult struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginResult carries the token and identity of a new session.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type commentRequest struct {
	ParentComment string `json:"parentComment"`
	Text          string `json:"text"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
