package compose

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/threadr/internal/thread"
	"github.com/fragmede/threadr/internal/ui/messages"
)

type fakeSubmitter struct {
	postID, parentID, text string
	err                    error
}

func (f *fakeSubmitter) SubmitComment(ctx context.Context, postID, parentID, text string) (*thread.Comment, error) {
	f.postID, f.parentID, f.text = postID, parentID, text
	if f.err != nil {
		return nil, f.err
	}
	return &thread.Comment{ID: "new", Text: text}, nil
}

func typed(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

var submit = tea.KeyMsg{Type: tea.KeyCtrlS}

func TestSubmitReply(t *testing.T) {
	f := &fakeSubmitter{}
	parent := &thread.Comment{ID: "A", AuthorName: "bob", Text: "hi"}
	m := New("p1", parent, f, time.Second)
	m = typed(m, "  thanks ")

	m, cmd := m.Update(submit)
	require.NotNil(t, cmd)
	msg, ok := cmd().(messages.CommentSubmittedMsg)
	require.True(t, ok)
	assert.NoError(t, msg.Err)
	assert.Same(t, parent, msg.Parent)
	assert.Equal(t, "new", msg.Comment.ID)
	assert.Equal(t, "p1", f.postID)
	assert.Equal(t, "A", f.parentID)
	assert.Equal(t, "thanks", f.text)

	// A second ctrl+s while the request is out does nothing.
	_, cmd = m.Update(submit)
	assert.Nil(t, cmd)
}

func TestSubmitTopLevel(t *testing.T) {
	f := &fakeSubmitter{}
	m := typed(New("p1", nil, f, time.Second), "hello")
	_, cmd := m.Update(submit)
	require.NotNil(t, cmd)
	msg := cmd().(messages.CommentSubmittedMsg)
	assert.Nil(t, msg.Parent)
	assert.Empty(t, f.parentID)
}

func TestEmptyCommentRejected(t *testing.T) {
	m := New("p1", nil, &fakeSubmitter{}, time.Second)
	m, cmd := m.Update(submit)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "cannot be empty")
}

func TestSubmitErrorShown(t *testing.T) {
	f := &fakeSubmitter{err: assert.AnError}
	m := typed(New("p1", nil, f, time.Second), "hello")
	m, cmd := m.Update(submit)
	m, _ = m.Update(cmd())
	assert.Contains(t, m.View(), assert.AnError.Error())

	// The user can retry.
	_, cmd = m.Update(submit)
	assert.NotNil(t, cmd)
}
