package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/thread"
)

// Session holds the identity of the logged-in user and the token the API
// client sends on their behalf.
type Session struct {
	client   *api.Client
	UserID   string
	Username string
	Token    string
	LoggedIn bool
}

// NewSession creates a logged-out session bound to client.
func NewSession(client *api.Client) *Session {
	return &Session{client: client}
}

// Login authenticates with the forum and arms the client with the token.
func (s *Session) Login(ctx context.Context, username, password string) error {
	res, err := s.client.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	s.set(res.User.ID, res.User.Username, res.Token)
	return nil
}

func (s *Session) set(userID, username, token string) {
	s.UserID = userID
	s.Username = username
	s.Token = token
	s.LoggedIn = token != ""
	s.client.SetToken(token)
}

// savedSession is the JSON structure written to disk.
type savedSession struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Token    string    `json:"token"`
	SavedAt  time.Time `json:"saved_at"`
}

// Save persists the session to a file readable only by the user.
func (s *Session) Save(path string) error {
	if !s.LoggedIn {
		return nil
	}
	data, err := json.MarshalIndent(savedSession{
		UserID:   s.UserID,
		Username: s.Username,
		Token:    s.Token,
		SavedAt:  time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Load restores a session from a file and checks the token with the server.
// Returns true if the session was restored. A token the server rejects is
// removed from disk; a server that can't be reached leaves it in place.
func (s *Session) Load(ctx context.Context, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return false
	}
	if saved.Username == "" || saved.Token == "" {
		return false
	}

	s.client.SetToken(saved.Token)
	me, err := s.client.Me(ctx)
	switch {
	case err == nil:
		s.set(me.ID, me.Username, saved.Token)
		return true
	case api.IsTransient(err):
		// Offline: trust the saved identity until the server says otherwise.
		log.Printf("session check skipped: %v", err)
		s.set(saved.UserID, saved.Username, saved.Token)
		return true
	default:
		log.Printf("stale session cleared: %v", err)
		s.client.SetToken("")
		os.Remove(path)
		return false
	}
}

// Logout forgets the session and deletes the saved copy.
func (s *Session) Logout(path string) error {
	s.set("", "", "")
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Stamp attaches the session's identity to a record the server just created.
func (s *Session) Stamp(c *thread.Comment) {
	c.AuthorName = s.Username
	if c.AuthorID == "" {
		c.AuthorID = s.UserID
	}
}

// Owns reports whether the logged-in user authored the entity.
func (s *Session) Owns(authorID string) bool {
	return s.LoggedIn && authorID != "" && authorID == s.UserID
}
