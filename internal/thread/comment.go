// Package thread maintains the flattened comment list of a single post.
//
// The list is kept in depth-first pre-order: every comment is followed
// immediately by the contiguous run of its descendants. A descendant of C is
// any later entry with the same root as C and a greater depth, up to the first
// entry that is not. Every operation here leans on that rule instead of
// building a tree.
//
// Operations never write to the slice they are given. They return a new list,
// or the original list and an error.
package thread

import (
	"errors"
	"fmt"
	"time"
)

// Comment is one entry in the flattened thread.
type Comment struct {
	ID         string    `json:"id"`
	ParentID   string    `json:"parentComment,omitempty"`
	Path       []string  `json:"path"`
	Depth      int       `json:"depth"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	AuthorID   string    `json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	// Visibility state, owned by ToggleCollapse.
	ChildrenCount int    `json:"childrenCount,omitempty"`
	Hide          bool   `json:"hide,omitempty"`
	HideContent   bool   `json:"hideContent,omitempty"`
	HiddenBy      string `json:"hiddenBy,omitempty"`
}

// Root returns the id of the top-level ancestor. A comment without a path is
// its own root.
func (c Comment) Root() string {
	if len(c.Path) > 0 {
		return c.Path[0]
	}
	return c.ID
}

// IsTopLevel reports whether c has no parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == "" && c.Depth == 0
}

// Edited reports whether the comment was changed after it was created.
func (c Comment) Edited() bool {
	return !c.UpdatedAt.IsZero() && !c.UpdatedAt.Equal(c.CreatedAt)
}

// ErrNotFound is matched by every error that names a comment absent from the list.
var ErrNotFound = errors.New("comment not found")

// ErrOutOfOrder is returned by Check when a list breaks the pre-order layout.
var ErrOutOfOrder = errors.New("comment list out of order")

// StaleViewError means the caller referenced a comment the list does not hold.
// The in-memory view has drifted from the server and should be refreshed.
type StaleViewError struct {
	ID string
}

func (e *StaleViewError) Error() string {
	return fmt.Sprintf("comment %s not in view", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match a stale view.
func (e *StaleViewError) Is(target error) bool {
	return target == ErrNotFound
}

// IsStale reports whether err came from a lookup against a drifted list.
func IsStale(err error) bool {
	var sv *StaleViewError
	return errors.As(err, &sv)
}
