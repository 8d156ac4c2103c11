package statusbar

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadr/internal/ui/theme"
)

var (
	barStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#FFFFFF"))

	viewStyle = lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	countStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#555555")).
			Foreground(lipgloss.Color("#CCCCCC")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	notifyStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#32CD32")).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	statusTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(lipgloss.Color("#AAAAAA")).
			Padding(0, 1)

	errorTextStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#333333")).
			Foreground(theme.Error).
			Padding(0, 1)

	offlineStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#8B0000")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

// Model is the status bar at the bottom of the screen.
type Model struct {
	width       int
	view        string
	comments    int
	username    string
	newComments int
	statusText  string
	statusErr   bool
	offline     bool
}

// New creates a new status bar.
func New() Model {
	return Model{view: "Post"}
}

// SetSize sets the width.
func (m *Model) SetSize(w int) {
	m.width = w
}

// SetView sets the name of the active view.
func (m *Model) SetView(name string) {
	m.view = name
}

// SetComments sets the comment count of the open post.
func (m *Model) SetComments(n int) {
	m.comments = n
}

// SetUser sets the logged-in username.
func (m *Model) SetUser(username string) {
	m.username = username
}

// SetNewComments sets how many comments arrived since the post loaded.
func (m *Model) SetNewComments(n int) {
	m.newComments = n
}

// SetStatus sets a temporary status message.
func (m *Model) SetStatus(text string, isErr bool) {
	m.statusText = text
	m.statusErr = isErr
}

// SetOffline sets the offline indicator.
func (m *Model) SetOffline(offline bool) {
	m.offline = offline
}

// Update is a no-op for the status bar.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	left := viewStyle.Render(m.view) + countStyle.Render(fmt.Sprintf("%d comments", m.comments))

	var right string
	if m.offline {
		right += offlineStyle.Render("OFFLINE")
	}
	if m.newComments > 0 {
		right += notifyStyle.Render(fmt.Sprintf("+%d", m.newComments))
	}
	if m.username != "" {
		right += userStyle.Render(m.username)
	} else {
		right += statusTextStyle.Render("L:login")
	}
	if m.statusText != "" {
		if m.statusErr {
			right += errorTextStyle.Render(m.statusText)
		} else {
			right += statusTextStyle.Render(m.statusText)
		}
	}

	// Fill middle with background.
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	mid := barStyle.Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
}
