package messages

import (
	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/thread"
)

// Target names what an edit applies to.
type Target int

const (
	TargetPost Target = iota
	TargetComment
)

// View transition messages.
type (
	GoBackMsg    struct{}
	OpenLoginMsg struct{}

	// OpenComposeMsg opens the composer. A nil Parent means a top-level comment.
	OpenComposeMsg struct {
		Parent *thread.Comment
	}

	OpenEditMsg struct {
		Target      Target
		ID          string
		CurrentText string
	}
)

// Data messages.
type (
	PostLoadedMsg struct {
		PostID    string
		Post      *api.Post
		Collapsed []string
		Stale     bool // served from cache after a failed fetch
		Err       error
	}

	CommentSubmittedMsg struct {
		Parent  *thread.Comment
		Comment *thread.Comment
		Err     error
	}

	EditSavedMsg struct {
		Target Target
		ID     string
		Result *api.EditResult
		Err    error
	}

	LoginResultMsg struct {
		Username string
		Err      error
	}

	// NewCommentsMsg reports the server's comment count for the open post.
	// Count is the number the monitor had not seen.
	NewCommentsMsg struct {
		PostID string
		Count  int
		Total  int
	}

	StatusMsg struct {
		Text    string
		IsError bool
	}

	SessionRestoredMsg struct {
		Username string
	}
)
