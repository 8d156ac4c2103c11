package thread

import (
	"fmt"
	"slices"
	"sort"
)

// Prepare readies a freshly fetched list for display. Visibility state is
// cleared. Entries the server sent without a path or depth get them from the
// nearest earlier entry matching their parent id, and replies sent with a
// path and depth but no parent id get the id of the enclosing comment.
func Prepare(list []Comment) []Comment {
	out := slices.Clone(list)
	for i := range out {
		c := &out[i]
		c.Hide, c.HideContent, c.HiddenBy, c.ChildrenCount = false, false, "", 0
		if len(c.Path) > 0 {
			if c.ParentID == "" && c.Depth > 0 {
				c.ParentID = enclosingID(out[:i], *c)
			}
			continue
		}
		if c.ParentID == "" {
			c.Depth = 0
			c.Path = []string{c.ID}
			continue
		}
		if p := IndexOf(out[:i], c.ParentID); p >= 0 {
			c.Depth = out[p].Depth + 1
			c.Path = slices.Clone(out[p].Path)
		}
	}
	return out
}

// enclosingID returns the id of the nearest earlier entry with the same root
// one level above c, or "" when c's run is broken before one is found.
func enclosingID(before []Comment, c Comment) string {
	for j := len(before) - 1; j >= 0; j-- {
		e := before[j]
		if e.Root() != c.Root() || e.Depth < c.Depth-1 {
			return ""
		}
		if e.Depth == c.Depth-1 {
			return e.ID
		}
	}
	return ""
}

// Build lays out comments that arrive in no particular order. Top-level
// comments are ordered newest first; replies keep their input order under
// their parent. A comment whose parent is missing is treated as top level.
func Build(comments []Comment) []Comment {
	byID := make(map[string]bool, len(comments))
	for _, c := range comments {
		byID[c.ID] = true
	}

	var roots []Comment
	kids := make(map[string][]Comment)
	for _, c := range comments {
		if c.ParentID == "" || !byID[c.ParentID] || c.ParentID == c.ID {
			roots = append(roots, c)
			continue
		}
		kids[c.ParentID] = append(kids[c.ParentID], c)
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return roots[i].CreatedAt.After(roots[j].CreatedAt)
	})

	result := make([]Comment, 0, len(comments))
	seen := make(map[string]bool, len(comments))

	var walk func(c Comment, depth int, path []string)
	walk = func(c Comment, depth int, path []string) {
		if seen[c.ID] {
			return
		}
		seen[c.ID] = true
		c.Depth = depth
		c.Path = path
		if depth == 0 {
			c.ParentID = ""
			c.Path = []string{c.ID}
		}
		result = append(result, c)
		for _, kid := range kids[c.ID] {
			walk(kid, depth+1, slices.Clone(c.Path))
		}
	}

	for _, r := range roots {
		walk(r, 0, nil)
	}
	return result
}

// Check verifies that list is laid out in pre-order: every top-level comment
// is its own root at depth zero, and every reply sits inside its parent's run
// one level deeper with the same root.
func Check(list []Comment) error {
	seen := make(map[string]int, len(list))
	for i, c := range list {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrOutOfOrder, c.ID)
		}
		seen[c.ID] = i

		if c.ParentID == "" {
			if c.Depth != 0 || c.Root() != c.ID {
				return fmt.Errorf("%w: top-level comment %s at depth %d", ErrOutOfOrder, c.ID, c.Depth)
			}
			continue
		}
		p, ok := seen[c.ParentID]
		if !ok {
			return fmt.Errorf("%w: comment %s before its parent %s", ErrOutOfOrder, c.ID, c.ParentID)
		}
		parent := list[p]
		if c.Depth != parent.Depth+1 || c.Root() != parent.Root() {
			return fmt.Errorf("%w: comment %s does not nest under %s", ErrOutOfOrder, c.ID, parent.ID)
		}
		if Subtree(list, p) <= i {
			return fmt.Errorf("%w: comment %s separated from parent %s", ErrOutOfOrder, c.ID, parent.ID)
		}
	}
	return nil
}

// CollapseSet returns the ids of the comments the user collapsed.
func CollapseSet(list []Comment) []string {
	var ids []string
	for _, c := range list {
		if c.HideContent {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Restore collapses the given comments. Later entries are collapsed first so
// that a nested collapse keeps ownership of its own subtree, the same state
// the user produced by collapsing inner comments before outer ones. Unknown
// ids are skipped.
func Restore(list []Comment, ids []string) []Comment {
	if len(ids) == 0 {
		return list
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := list
	for i := len(out) - 1; i >= 0; i-- {
		if want[out[i].ID] && !out[i].HideContent {
			out, _ = ToggleCollapse(out, out[i].ID)
		}
	}
	return out
}

// FoldAll collapses every comment that has replies.
func FoldAll(list []Comment) []Comment {
	out := list
	for i := len(out) - 1; i >= 0; i-- {
		if !out[i].HideContent && HasReplies(out, i) {
			out, _ = ToggleCollapse(out, out[i].ID)
		}
	}
	return out
}

// UnfoldAll expands every collapsed comment.
func UnfoldAll(list []Comment) []Comment {
	out := list
	for i := 0; i < len(out); i++ {
		if out[i].HideContent {
			out, _ = ToggleCollapse(out, out[i].ID)
		}
	}
	return out
}

// AnyUnfolded reports whether some comment with replies is still expanded.
func AnyUnfolded(list []Comment) bool {
	for i := range list {
		if !list[i].HideContent && !list[i].Hide && HasReplies(list, i) {
			return true
		}
	}
	return false
}

// ParentIndex returns the index of the parent of list[i], or -1.
func ParentIndex(list []Comment, i int) int {
	if i < 0 || i >= len(list) {
		return -1
	}
	parentID := list[i].ParentID
	if parentID == "" {
		return -1
	}
	for j := i - 1; j >= 0; j-- {
		if list[j].ID == parentID {
			return j
		}
	}
	return -1
}

// NextSiblingIndex returns the index of the next comment at the same depth
// under the same parent, or -1.
func NextSiblingIndex(list []Comment, i int) int {
	if i < 0 || i >= len(list) {
		return -1
	}
	depth := list[i].Depth
	for j := i + 1; j < len(list); j++ {
		if list[j].Depth < depth {
			return -1 // Went up in tree, no more siblings.
		}
		if list[j].Depth == depth {
			return j
		}
	}
	return -1
}
