package compose

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadr/internal/render"
	"github.com/fragmede/threadr/internal/thread"
	"github.com/fragmede/threadr/internal/ui/messages"
	"github.com/fragmede/threadr/internal/ui/theme"
)

// Submitter creates comments on the server.
type Submitter interface {
	SubmitComment(ctx context.Context, postID, parentID, text string) (*thread.Comment, error)
}

// Model is the comment composer. With a parent it writes a reply, otherwise a
// new top-level comment.
type Model struct {
	textarea   textarea.Model
	postID     string
	parent     *thread.Comment
	client     Submitter
	timeout    time.Duration
	err        string
	submitting bool
	width      int
	height     int
}

// New creates a composer for postID. parent may be nil.
func New(postID string, parent *thread.Comment, client Submitter, timeout time.Duration) Model {
	ta := textarea.New()
	if parent != nil {
		ta.Placeholder = "Write your reply..."
	} else {
		ta.Placeholder = "Write a comment..."
	}
	ta.Focus()
	ta.SetWidth(80)
	ta.SetHeight(10)

	return Model{
		textarea: ta,
		postID:   postID,
		parent:   parent,
		client:   client,
		timeout:  timeout,
	}
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	tw := w - 4
	if tw > 100 {
		tw = 100
	}
	m.textarea.SetWidth(tw)
	th := h - 12
	if th < 5 {
		th = 5
	}
	m.textarea.SetHeight(th)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+s":
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				m.err = "Comment cannot be empty"
				return m, nil
			}
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			m.err = ""
			return m, m.submit(text)
		}

	case messages.CommentSubmittedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) submit(text string) tea.Cmd {
	client := m.client
	postID := m.postID
	parent := m.parent
	timeout := m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		parentID := ""
		if parent != nil {
			parentID = parent.ID
		}
		c, err := client.SubmitComment(ctx, postID, parentID, text)
		return messages.CommentSubmittedMsg{Parent: parent, Comment: c, Err: err}
	}
}

// View renders the composer.
func (m Model) View() string {
	var sb strings.Builder

	if m.parent != nil {
		sb.WriteString(theme.TitleStyle.Render("Reply to " + m.parent.AuthorName))
		sb.WriteString("\n")
		quote := render.Preview(m.parent.Text, 140)
		sb.WriteString(theme.HintStyle.Render("> " + quote))
	} else {
		sb.WriteString(theme.TitleStyle.Render("New comment"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(theme.ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Submitting...")
	} else {
		sb.WriteString(theme.HintStyle.Render("Ctrl+S to submit | Esc to cancel"))
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
