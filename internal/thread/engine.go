package thread

import (
	"slices"
	"time"
)

// IndexOf returns the position of the comment with the given id, or -1.
func IndexOf(list []Comment, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Subtree returns the index one past the last descendant of list[i]. The run
// list[i+1:end] is exactly the subtree of list[i].
func Subtree(list []Comment, i int) int {
	if i < 0 || i >= len(list) {
		return i
	}
	root, depth := list[i].Root(), list[i].Depth
	end := i + 1
	for end < len(list) && list[end].Root() == root && list[end].Depth > depth {
		end++
	}
	return end
}

// AppendTopLevel puts a new top-level comment at the front of the list.
// Newest top-level comments come first.
func AppendTopLevel(list []Comment, c Comment) []Comment {
	c.ParentID = ""
	c.Depth = 0
	if len(c.Path) == 0 || c.Path[0] != c.ID {
		c.Path = []string{c.ID}
	}
	out := make([]Comment, 0, len(list)+1)
	out = append(out, c)
	return append(out, list...)
}

// InsertReply inserts reply directly after parent, making it parent's first
// child. Existing children shift down by one and stay contiguous with their
// own subtrees, so the pre-order layout holds.
//
// Depth, path and parent id are derived from parent. If parent is not in the
// list the original list is returned with a *StaleViewError.
func InsertReply(list []Comment, parent Comment, reply Comment) ([]Comment, error) {
	i := IndexOf(list, parent.ID)
	if i < 0 {
		return list, &StaleViewError{ID: parent.ID}
	}
	p := list[i]

	reply.ParentID = p.ID
	reply.Depth = p.Depth + 1
	if len(reply.Path) == 0 || reply.Path[0] != p.Root() {
		if len(p.Path) > 0 {
			reply.Path = slices.Clone(p.Path)
		} else {
			reply.Path = []string{p.ID}
		}
	}
	reply.Hide, reply.HiddenBy, reply.HideContent, reply.ChildrenCount = false, "", false, 0

	out := make([]Comment, 0, len(list)+1)
	out = append(out, list[:i+1]...)
	out = append(out, reply)
	out = append(out, list[i+1:]...)
	return out, nil
}

// ToggleCollapse hides or reveals the descendants of the comment with the
// given id.
//
// Collapsing marks every entry in the subtree hidden, records the comment as
// HiddenBy on entries that were not already hidden by another collapse, and
// sets ChildrenCount to the size of the subtree. Expanding reveals only the
// entries this comment hid; anything still hidden by a nested collapse stays
// hidden.
func ToggleCollapse(list []Comment, id string) ([]Comment, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return list, &StaleViewError{ID: id}
	}
	out := slices.Clone(list)
	end := Subtree(out, i)
	c := &out[i]

	if !c.HideContent {
		c.HideContent = true
		c.ChildrenCount = 0
		for j := i + 1; j < end; j++ {
			out[j].Hide = true
			if out[j].HiddenBy == "" {
				out[j].HiddenBy = c.ID
			}
			c.ChildrenCount++
		}
		return out, nil
	}

	c.HideContent = false
	for j := i + 1; j < end; j++ {
		if out[j].HiddenBy == c.ID {
			out[j].Hide = false
			out[j].HiddenBy = ""
		}
	}
	return out, nil
}

// EditText replaces the text and update time of a comment after the server
// accepted the edit.
func EditText(list []Comment, id, text string, updatedAt time.Time) ([]Comment, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return list, &StaleViewError{ID: id}
	}
	out := slices.Clone(list)
	out[i].Text = text
	out[i].UpdatedAt = updatedAt
	return out, nil
}

// Visible returns the entries that are not hidden by a collapse.
func Visible(list []Comment) []Comment {
	out := make([]Comment, 0, len(list))
	for _, c := range list {
		if !c.Hide {
			out = append(out, c)
		}
	}
	return out
}

// HasReplies reports whether list[i] has at least one descendant.
func HasReplies(list []Comment, i int) bool {
	return Subtree(list, i) > i+1
}
