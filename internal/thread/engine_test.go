package thread

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func top(id string) Comment {
	return Comment{ID: id, Path: []string{id}, Depth: 0, Text: "text " + id}
}

func reply(id string, parent Comment) Comment {
	return Comment{ID: id, ParentID: parent.ID, Path: append([]string(nil), parent.Path...), Depth: parent.Depth + 1, Text: "text " + id}
}

// scenario returns A(d0) → B(d1) → C(d2), then D(d0).
func scenario() []Comment {
	a := top("A")
	b := reply("B", a)
	c := reply("C", b)
	d := top("D")
	return []Comment{a, b, c, d}
}

func ids(list []Comment) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}

func byID(t *testing.T, list []Comment, id string) Comment {
	t.Helper()
	i := IndexOf(list, id)
	require.GreaterOrEqual(t, i, 0, "comment %s missing", id)
	return list[i]
}

// assertPreOrder checks that every comment's descendants, and only those,
// follow it contiguously.
func assertPreOrder(t *testing.T, list []Comment) {
	t.Helper()
	require.NoError(t, Check(list))
	for i := range list {
		end := Subtree(list, i)
		for j := i + 1; j < len(list); j++ {
			desc := isDescendant(list, list[j], list[i].ID)
			if j < end {
				assert.True(t, desc, "%s inside run of %s but not a descendant", list[j].ID, list[i].ID)
			} else {
				assert.False(t, desc, "%s is a descendant of %s outside its run", list[j].ID, list[i].ID)
			}
		}
	}
}

func isDescendant(list []Comment, c Comment, ancestor string) bool {
	for c.ParentID != "" {
		if c.ParentID == ancestor {
			return true
		}
		i := IndexOf(list, c.ParentID)
		if i < 0 {
			return false
		}
		c = list[i]
	}
	return false
}

func TestAppendTopLevel(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		list := scenario()
		list = AppendTopLevel(list, Comment{ID: "T1"})
		list = AppendTopLevel(list, Comment{ID: "T2"})

		assert.Equal(t, []string{"T2", "T1", "A", "B", "C", "D"}, ids(list))
		assertPreOrder(t, list)
	})

	t.Run("derives root fields", func(t *testing.T) {
		list := AppendTopLevel(nil, Comment{ID: "T", ParentID: "junk", Depth: 3})
		require.Len(t, list, 1)
		assert.Equal(t, []string{"T"}, list[0].Path)
		assert.Equal(t, 0, list[0].Depth)
		assert.Empty(t, list[0].ParentID)
	})

	t.Run("does not touch input", func(t *testing.T) {
		list := scenario()
		before := ids(list)
		_ = AppendTopLevel(list, Comment{ID: "T"})
		assert.Equal(t, before, ids(list))
	})
}

func TestInsertReply(t *testing.T) {
	t.Run("first child of parent", func(t *testing.T) {
		a := top("A")
		a1 := reply("A1", a)
		list := []Comment{a, a1, top("Z")}

		out, err := InsertReply(list, a, Comment{ID: "A2"})
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "A2", "A1", "Z"}, ids(out))
		a2 := byID(t, out, "A2")
		assert.Equal(t, 1, a2.Depth)
		assert.Equal(t, a.Path, a2.Path)
		assert.Equal(t, "A", a2.ParentID)
		assertPreOrder(t, out)
	})

	t.Run("reply to nested comment", func(t *testing.T) {
		list := scenario()
		b := byID(t, list, "B")

		out, err := InsertReply(list, b, Comment{ID: "B2"})
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "B", "B2", "C", "D"}, ids(out))
		assert.Equal(t, 2, byID(t, out, "B2").Depth)
		assert.Equal(t, []string{"A"}, byID(t, out, "B2").Path)
		assertPreOrder(t, out)
	})

	t.Run("replaces mismatched path", func(t *testing.T) {
		list := scenario()
		out, err := InsertReply(list, byID(t, list, "D"), Comment{ID: "D1", Path: []string{"A"}, Depth: 7})
		require.NoError(t, err)
		d1 := byID(t, out, "D1")
		assert.Equal(t, []string{"D"}, d1.Path)
		assert.Equal(t, 1, d1.Depth)
	})

	t.Run("stale parent", func(t *testing.T) {
		list := scenario()
		before := append([]Comment(nil), list...)

		out, err := InsertReply(list, Comment{ID: "gone"}, Comment{ID: "R"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, IsStale(err))

		var sv *StaleViewError
		require.True(t, errors.As(err, &sv))
		assert.Equal(t, "gone", sv.ID)

		assert.Equal(t, before, list)
		assert.Equal(t, before, out)
	})

	t.Run("input slice untouched", func(t *testing.T) {
		a := top("A")
		list := make([]Comment, 2, 10)
		list[0], list[1] = a, top("Z")

		out, err := InsertReply(list, a, Comment{ID: "R"})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "Z"}, ids(list))
		assert.Equal(t, []string{"A", "R", "Z"}, ids(out))
	})
}

func TestToggleCollapseScenario(t *testing.T) {
	list := scenario()

	collapsed, err := ToggleCollapse(list, "A")
	require.NoError(t, err)

	a := byID(t, collapsed, "A")
	assert.True(t, a.HideContent)
	assert.Equal(t, 2, a.ChildrenCount)
	for _, id := range []string{"B", "C"} {
		c := byID(t, collapsed, id)
		assert.True(t, c.Hide, id)
		assert.Equal(t, "A", c.HiddenBy, id)
	}
	assert.Equal(t, list[3], byID(t, collapsed, "D"))

	expanded, err := ToggleCollapse(collapsed, "A")
	require.NoError(t, err)
	assert.False(t, byID(t, expanded, "A").HideContent)
	for _, id := range []string{"B", "C"} {
		c := byID(t, expanded, id)
		assert.False(t, c.Hide, id)
		assert.Empty(t, c.HiddenBy, id)
	}
	assert.Equal(t, list[3], byID(t, expanded, "D"))

	// The original list never changed.
	assert.Equal(t, scenario(), list)
}

func TestToggleCollapseRoundTrip(t *testing.T) {
	list := scenario()
	list, _ = InsertReply(list, list[0], Comment{ID: "A2"})
	list, _ = ToggleCollapse(list, "B")

	for _, id := range []string{"A", "B", "D"} {
		collapsed, err := ToggleCollapse(list, id)
		require.NoError(t, err)
		expanded, err := ToggleCollapse(collapsed, id)
		require.NoError(t, err)

		for i := range list {
			assert.Equal(t, list[i].Hide, expanded[i].Hide, "hide of %s after toggling %s", list[i].ID, id)
			assert.Equal(t, list[i].HiddenBy, expanded[i].HiddenBy, "hiddenBy of %s after toggling %s", list[i].ID, id)
		}

		again, err := ToggleCollapse(expanded, id)
		require.NoError(t, err)
		assert.Equal(t, byID(t, collapsed, id).ChildrenCount, byID(t, again, id).ChildrenCount)
	}
}

func TestNestedCollapse(t *testing.T) {
	list := scenario()

	list, err := ToggleCollapse(list, "B")
	require.NoError(t, err)
	assert.True(t, byID(t, list, "C").Hide)
	assert.Equal(t, "B", byID(t, list, "C").HiddenBy)
	assert.Equal(t, 1, byID(t, list, "B").ChildrenCount)

	list, err = ToggleCollapse(list, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", byID(t, list, "B").HiddenBy)
	assert.Equal(t, "B", byID(t, list, "C").HiddenBy, "existing hiddenBy must not be overwritten")
	// Counts every entry in the run, including the one hidden by B.
	assert.Equal(t, 2, byID(t, list, "A").ChildrenCount)

	list, err = ToggleCollapse(list, "A")
	require.NoError(t, err)
	b := byID(t, list, "B")
	assert.False(t, b.Hide)
	assert.Empty(t, b.HiddenBy)
	assert.True(t, b.HideContent)
	c := byID(t, list, "C")
	assert.True(t, c.Hide, "C stays hidden by B")
	assert.Equal(t, "B", c.HiddenBy)

	assert.Equal(t, []string{"A", "B", "D"}, ids(Visible(list)))
}

func TestToggleCollapseStopsAtBoundary(t *testing.T) {
	a := top("A")
	b := reply("B", a)
	c := top("C")
	c1 := reply("C1", c)
	list := []Comment{a, b, c, c1}

	out, err := ToggleCollapse(list, "B")
	require.NoError(t, err)
	assert.Equal(t, 0, byID(t, out, "B").ChildrenCount)
	assert.False(t, byID(t, out, "C").Hide)
	assert.False(t, byID(t, out, "C1").Hide)

	// Sibling at the same depth ends the run.
	a2 := reply("A2", a)
	list = []Comment{a, b, reply("B1", b), a2}
	out, err = ToggleCollapse(list, "B")
	require.NoError(t, err)
	assert.Equal(t, 1, byID(t, out, "B").ChildrenCount)
	assert.False(t, byID(t, out, "A2").Hide)
}

func TestToggleCollapseUnknown(t *testing.T) {
	list := scenario()
	out, err := ToggleCollapse(list, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, list, out)
}

func TestEditText(t *testing.T) {
	list := scenario()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	out, err := EditText(list, "C", "changed", at)
	require.NoError(t, err)
	c := byID(t, out, "C")
	assert.Equal(t, "changed", c.Text)
	assert.Equal(t, at, c.UpdatedAt)
	assert.True(t, c.Edited())
	assert.Equal(t, "text C", byID(t, list, "C").Text)

	_, err = EditText(list, "nope", "x", at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPreOrderAfterMixedOperations(t *testing.T) {
	list := scenario()
	steps := []func([]Comment) ([]Comment, error){
		func(l []Comment) ([]Comment, error) { return AppendTopLevel(l, Comment{ID: "T1"}), nil },
		func(l []Comment) ([]Comment, error) { return InsertReply(l, Comment{ID: "T1"}, Comment{ID: "T1a"}) },
		func(l []Comment) ([]Comment, error) { return InsertReply(l, Comment{ID: "T1a"}, Comment{ID: "T1b"}) },
		func(l []Comment) ([]Comment, error) { return ToggleCollapse(l, "A") },
		func(l []Comment) ([]Comment, error) { return InsertReply(l, Comment{ID: "C"}, Comment{ID: "C1"}) },
		func(l []Comment) ([]Comment, error) { return InsertReply(l, Comment{ID: "A"}, Comment{ID: "A3"}) },
		func(l []Comment) ([]Comment, error) { return ToggleCollapse(l, "T1a") },
		func(l []Comment) ([]Comment, error) { return ToggleCollapse(l, "A") },
		func(l []Comment) ([]Comment, error) { return InsertReply(l, Comment{ID: "D"}, Comment{ID: "D1"}) },
	}
	for i, step := range steps {
		var err error
		list, err = step(list)
		require.NoError(t, err, "step %d", i)
		assertPreOrder(t, list)
	}
	assert.Equal(t, []string{"T1", "T1a", "T1b", "A", "A3", "B", "C", "C1", "D", "D1"}, ids(list))
}

func TestVisibleAndHasReplies(t *testing.T) {
	list := scenario()
	assert.True(t, HasReplies(list, 0))
	assert.True(t, HasReplies(list, 1))
	assert.False(t, HasReplies(list, 2))
	assert.False(t, HasReplies(list, 3))

	list, _ = ToggleCollapse(list, "A")
	assert.Equal(t, []string{"A", "D"}, ids(Visible(list)))
}
