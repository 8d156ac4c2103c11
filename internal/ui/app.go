package ui

import (
	"context"
	"log"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/auth"
	"github.com/fragmede/threadr/internal/cache"
	"github.com/fragmede/threadr/internal/config"
	"github.com/fragmede/threadr/internal/monitor"
	"github.com/fragmede/threadr/internal/ui/compose"
	"github.com/fragmede/threadr/internal/ui/edit"
	"github.com/fragmede/threadr/internal/ui/login"
	"github.com/fragmede/threadr/internal/ui/messages"
	"github.com/fragmede/threadr/internal/ui/postview"
	"github.com/fragmede/threadr/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewPost ViewType = iota
	ViewCompose
	ViewEdit
	ViewLogin
)

var viewNames = map[ViewType]string{
	ViewPost:    "Post",
	ViewCompose: "Comment",
	ViewEdit:    "Edit",
	ViewLogin:   "Login",
}

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType

	// Child models
	postView    postview.Model
	composeForm compose.Model
	editForm    edit.Model
	loginForm   login.Model
	statusBar   statusbar.Model

	// Shared state
	cfg        config.Config
	postID     string
	client     *api.Client
	cache      *cache.DB
	session    *auth.Session
	monitor    *monitor.Monitor
	monitoring bool

	// Dimensions
	width  int
	height int

	// For passing program reference to monitor
	program *tea.Program
}

// NewApp creates the root application model for one post.
func NewApp(cfg config.Config, postID string, client *api.Client, db *cache.DB, session *auth.Session, mon *monitor.Monitor) *App {
	return &App{
		activeView: ViewPost,
		postView:   postview.New(postID, cfg, client, db, session),
		statusBar:  statusbar.New(),
		cfg:        cfg,
		postID:     postID,
		client:     client,
		cache:      db,
		session:    session,
		monitor:    mon,
	}
}

// SetProgram stores the tea.Program reference for the background monitor.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

// ActiveView returns the view currently shown.
func (a *App) ActiveView() ViewType {
	return a.activeView
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.postView.Init(), a.tryRestoreSession())
}

func (a *App) tryRestoreSession() tea.Cmd {
	session := a.session
	path := a.cfg.SessionPath
	timeout := a.cfg.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if session.Load(ctx, path) {
			return messages.SessionRestoredMsg{Username: session.Username}
		}
		return nil
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 1 // Reserve 1 line for status bar.
		a.postView.SetSize(msg.Width, contentHeight)
		a.statusBar.SetSize(msg.Width)
		switch a.activeView {
		case ViewCompose:
			a.composeForm.SetSize(msg.Width, contentHeight)
		case ViewEdit:
			a.editForm.SetSize(msg.Width, contentHeight)
		case ViewLogin:
			a.loginForm.SetSize(msg.Width, contentHeight)
		}
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, Keys.ForceQuit) {
			a.stopMonitor()
			return a, tea.Quit
		}
		if key.Matches(msg, Keys.Back) && a.activeView != ViewPost {
			a.goBack()
			return a, nil
		}
		// Global keys only when not in text input views.
		if a.activeView == ViewPost {
			switch {
			case key.Matches(msg, Keys.Quit):
				a.stopMonitor()
				return a, tea.Quit
			case key.Matches(msg, Keys.Login):
				if !a.session.LoggedIn {
					a.openLogin()
				}
				return a, nil
			case key.Matches(msg, Keys.Logout):
				if a.session.LoggedIn {
					if err := a.session.Logout(a.cfg.SessionPath); err != nil {
						log.Printf("logout: %v", err)
					}
					a.statusBar.SetUser("")
					a.statusBar.SetStatus("Logged out", false)
				}
				return a, nil
			case key.Matches(msg, Keys.Help):
				a.statusBar.SetStatus(helpText, false)
				return a, nil
			}
		}

	// View transitions.
	case messages.GoBackMsg:
		a.goBack()
		return a, nil

	case messages.OpenLoginMsg:
		a.openLogin()
		return a, nil

	case messages.OpenComposeMsg:
		if !a.session.LoggedIn {
			a.openLogin()
			return a, nil
		}
		a.pushView(ViewCompose)
		a.composeForm = compose.New(a.postID, msg.Parent, a.client, a.cfg.RequestTimeout)
		a.composeForm.SetSize(a.width, a.height-1)
		return a, nil

	case messages.OpenEditMsg:
		if !a.session.LoggedIn {
			a.openLogin()
			return a, nil
		}
		a.pushView(ViewEdit)
		a.editForm = edit.New(msg.Target, msg.ID, msg.CurrentText, a.client, a.cfg.RequestTimeout)
		a.editForm.SetSize(a.width, a.height-1)
		return a, nil

	case messages.SessionRestoredMsg:
		a.statusBar.SetUser(msg.Username)
		return a, nil

	case messages.LoginResultMsg:
		if msg.Err == nil {
			a.statusBar.SetUser(msg.Username)
			if err := a.session.Save(a.cfg.SessionPath); err != nil {
				log.Printf("saving session: %v", err)
			}
			a.leave(ViewLogin)
			return a, nil
		}
		// Let login form handle the error.

	case messages.PostLoadedMsg:
		a.statusBar.SetOffline(msg.Stale)
		if msg.Err != nil {
			a.statusBar.SetStatus("Could not load post", true)
		}
		cmd := a.updatePost(msg)
		if msg.Err == nil {
			a.startMonitor()
		}
		return a, cmd

	case messages.NewCommentsMsg:
		return a, a.updatePost(msg)

	case messages.CommentSubmittedMsg:
		if msg.Err == nil {
			a.leave(ViewCompose)
			return a, a.updatePost(msg)
		}
		log.Printf("submitting comment: %v", msg.Err)

	case messages.EditSavedMsg:
		if msg.Err == nil {
			a.leave(ViewEdit)
			return a, a.updatePost(msg)
		}

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
		return a, nil
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewPost:
		cmd = a.updatePost(msg)
	case ViewCompose:
		a.composeForm, cmd = a.composeForm.Update(msg)
	case ViewEdit:
		a.editForm, cmd = a.editForm.Update(msg)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
	}
	return a, cmd
}

// updatePost hands msg to the post page and keeps the comment count the
// monitor compares against in step with it.
func (a *App) updatePost(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	a.postView, cmd = a.postView.Update(msg)
	n := len(a.postView.Comments())
	a.statusBar.SetComments(n)
	a.statusBar.SetNewComments(a.postView.NewCount())
	if a.monitoring {
		a.monitor.SetKnown(n)
	}
	return cmd
}

func (a *App) startMonitor() {
	if a.monitoring || a.monitor == nil || a.program == nil {
		return
	}
	a.monitor.Start(a.program, a.postID, len(a.postView.Comments()))
	a.monitoring = true
}

func (a *App) stopMonitor() {
	if a.monitor != nil {
		a.monitor.Stop()
	}
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewPost:
		content = a.postView.View()
	case ViewCompose:
		content = a.composeForm.View()
	case ViewEdit:
		content = a.editForm.View()
	case ViewLogin:
		content = a.loginForm.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, a.statusBar.View())
}

func (a *App) openLogin() {
	a.pushView(ViewLogin)
	a.loginForm = login.New(a.session, a.cfg.RequestTimeout)
	a.loginForm.SetSize(a.width, a.height-1)
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
	a.statusBar.SetView(viewNames[v])
}

// leave goes back if v is still the active view.
func (a *App) leave(v ViewType) {
	if a.activeView == v {
		a.goBack()
	}
}

func (a *App) goBack() {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	a.statusBar.SetView(viewNames[a.activeView])
}
