package edit

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/ui/messages"
	"github.com/fragmede/threadr/internal/ui/theme"
)

// Editor saves edits on the server.
type Editor interface {
	EditPost(ctx context.Context, postID string, patch api.EditPatch) (*api.EditResult, error)
	EditComment(ctx context.Context, commentID string, patch api.EditPatch) (*api.EditResult, error)
}

// Model is the edit view for a post body or one of the user's comments.
type Model struct {
	textarea   textarea.Model
	target     messages.Target
	id         string
	original   string
	client     Editor
	timeout    time.Duration
	err        string
	submitting bool
	width      int
	height     int
}

// New creates an edit form pre-filled with the current text.
func New(target messages.Target, id, currentText string, client Editor, timeout time.Duration) Model {
	ta := textarea.New()
	if target == messages.TargetPost {
		ta.Placeholder = "Edit your post..."
	} else {
		ta.Placeholder = "Edit your comment..."
	}
	ta.SetValue(currentText)
	ta.Focus()
	ta.SetWidth(80)
	ta.SetHeight(10)

	return Model{
		textarea: ta,
		target:   target,
		id:       id,
		original: currentText,
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
	th := h - 8
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
				m.err = "Text cannot be empty"
				return m, nil
			}
			if text == strings.TrimSpace(m.original) {
				return m, func() tea.Msg { return messages.GoBackMsg{} }
			}
			if m.submitting {
				return m, nil
			}
			m.submitting = true
			m.err = ""
			return m, m.save(text)
		}

	case messages.EditSavedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.err = msg.Err.Error()
			log.Printf("edit error (%s): %v", m.id, msg.Err)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) save(text string) tea.Cmd {
	client := m.client
	target := m.target
	id := m.id
	timeout := m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		patch := api.EditPatch{Text: text}
		var res *api.EditResult
		var err error
		switch target {
		case messages.TargetPost:
			res, err = client.EditPost(ctx, id, patch)
		case messages.TargetComment:
			res, err = client.EditComment(ctx, id, patch)
		default:
			err = fmt.Errorf("unknown edit target %d", target)
		}
		return messages.EditSavedMsg{Target: target, ID: id, Result: res, Err: err}
	}
}

// View renders the edit form.
func (m Model) View() string {
	var sb strings.Builder

	if m.target == messages.TargetPost {
		sb.WriteString(theme.TitleStyle.Render("Edit Post"))
	} else {
		sb.WriteString(theme.TitleStyle.Render("Edit Comment"))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.textarea.View())
	sb.WriteString("\n\n")

	if m.err != "" {
		sb.WriteString(theme.ErrorStyle.Render(m.err))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Saving...")
	} else {
		sb.WriteString(theme.HintStyle.Render("Ctrl+S to save | Esc to cancel"))
	}

	content := sb.String()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
