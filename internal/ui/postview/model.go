package postview

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/auth"
	"github.com/fragmede/threadr/internal/cache"
	"github.com/fragmede/threadr/internal/config"
	"github.com/fragmede/threadr/internal/render"
	"github.com/fragmede/threadr/internal/thread"
	"github.com/fragmede/threadr/internal/ui/messages"
	"github.com/fragmede/threadr/internal/ui/theme"
)

var (
	postHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	postMetaStyle   = lipgloss.NewStyle().Foreground(theme.Muted).Padding(0, 1)
	postBodyStyle   = lipgloss.NewStyle().Padding(0, 1)
	newCommentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#32CD32")).Padding(0, 1)
)

const scrollStep = 3

type commentOffset struct {
	startLine int
	endLine   int
}

// Model is the post page: the post and its comment thread.
type Model struct {
	viewport    viewport.Model
	postID      string
	post        *api.Post
	comments    []thread.Comment
	visible     []int // indices into comments that are shown
	offsets     []commentOffset
	selected    int // index into visible
	client      *api.Client
	cache       *cache.DB
	session     *auth.Session
	cfg         config.Config
	loading     bool
	stale       bool
	notFound    bool
	loadErr     error
	newCount    int
	serverTotal int // comment count the monitor last saw on the server
	width       int
	height      int
}

// New creates a post page for postID.
func New(postID string, cfg config.Config, client *api.Client, db *cache.DB, session *auth.Session) Model {
	vp := viewport.New(0, 0)
	vp.SetContent("Loading...")

	return Model{
		viewport: vp,
		postID:   postID,
		client:   client,
		cache:    db,
		session:  session,
		cfg:      cfg,
		loading:  true,
	}
}

// Init loads the post.
func (m Model) Init() tea.Cmd {
	return m.load(false)
}

// load returns a command fetching the post. A fresh cached copy is used
// unless force is set. The collapse set is read while the request is in
// flight, and a transient network failure falls back to any cached copy.
func (m Model) load(force bool) tea.Cmd {
	client := m.client
	db := m.cache
	cfg := m.cfg
	postID := m.postID
	return func() tea.Msg {
		msg := messages.PostLoadedMsg{PostID: postID}

		var cached *api.Post
		if db != nil {
			var fresh bool
			var err error
			cached, fresh, err = db.GetPost(postID, cfg.PostTTL)
			if err != nil {
				log.Printf("reading cached post %s: %v", postID, err)
			}
			if cached != nil && fresh && !force {
				msg.Post = cached
				ids, err := db.GetCollapsed(postID)
				if err != nil {
					log.Printf("post %s: reading collapse state: %v", postID, err)
				}
				msg.Collapsed = ids
				return msg
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
		defer cancel()

		var post *api.Post
		var fetchErr error
		var g errgroup.Group
		g.Go(func() error {
			post, fetchErr = client.GetPost(ctx, postID)
			return nil
		})
		if db != nil {
			g.Go(func() error {
				ids, err := db.GetCollapsed(postID)
				if err != nil {
					return fmt.Errorf("reading collapse state: %w", err)
				}
				msg.Collapsed = ids
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			log.Printf("post %s: %v", postID, err)
		}

		switch {
		case fetchErr == nil:
			if db != nil {
				if err := db.PutPost(post); err != nil {
					log.Printf("caching post %s: %v", postID, err)
				}
			}
			msg.Post = post
		case api.IsNotFound(fetchErr):
			if db != nil {
				if err := db.InvalidatePost(postID); err != nil {
					log.Printf("post %s: dropping cached copy: %v", postID, err)
				}
			}
			msg.Err = fetchErr
		case cached != nil:
			log.Printf("post %s: serving cached copy: %v", postID, fetchErr)
			msg.Post = cached
			msg.Stale = true
		default:
			msg.Err = fetchErr
		}
		return msg
	}
}

// SetSize updates viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.resizeViewport()
	m.rebuildContent()
}

func (m *Model) resizeViewport() {
	header := m.renderHeader()
	headerLines := strings.Count(header, "\n") + 1
	m.viewport.Height = m.height - headerLines
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case messages.PostLoadedMsg:
		if msg.PostID != m.postID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.loadErr = msg.Err
			m.notFound = api.IsNotFound(msg.Err)
			log.Printf("loading post %s: %v", m.postID, msg.Err)
			m.resizeViewport()
			m.rebuildContent()
			return m, nil
		}
		m.loadErr = nil
		m.notFound = false
		m.post = msg.Post
		m.stale = msg.Stale
		m.newCount = 0
		m.serverTotal = 0
		m.comments = thread.Restore(msg.Post.Comments, msg.Collapsed)
		m.syncPost()
		m.rebuildVisible("")
		m.resizeViewport()
		m.rebuildContent()
		return m, nil

	case messages.CommentSubmittedMsg:
		if msg.Err != nil || msg.Comment == nil || m.post == nil {
			return m, nil
		}
		return m.applyComment(msg)

	case messages.EditSavedMsg:
		if msg.Err != nil || msg.Result == nil || m.post == nil {
			return m, nil
		}
		return m.applyEdit(msg)

	case messages.NewCommentsMsg:
		if msg.PostID == m.postID {
			m.serverTotal = msg.Total
			m.updateNewCount()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) applyComment(msg messages.CommentSubmittedMsg) (Model, tea.Cmd) {
	c := *msg.Comment
	if m.session != nil {
		m.session.Stamp(&c)
	}

	if msg.Parent == nil {
		m.comments = thread.AppendTopLevel(m.comments, c)
	} else {
		updated, err := thread.InsertReply(m.comments, *msg.Parent, c)
		if err != nil {
			log.Printf("inserting reply %s: %v", c.ID, err)
			return m, status("Reply posted, but its parent is no longer in view. Press ctrl+r to refresh.", true)
		}
		m.comments = updated
	}
	m.syncPost()
	m.persist()
	m.updateNewCount()
	m.rebuildVisible(c.ID)
	m.rebuildContent()
	m.scrollToCursor()
	return m, status("Comment posted", false)
}

func (m Model) applyEdit(msg messages.EditSavedMsg) (Model, tea.Cmd) {
	switch msg.Target {
	case messages.TargetPost:
		if msg.ID != m.post.ID {
			return m, nil
		}
		post := *m.post
		post.ApplyEdit(msg.Result)
		m.post = &post
	case messages.TargetComment:
		updated, err := thread.EditText(m.comments, msg.ID, msg.Result.Text, msg.Result.UpdatedAt)
		if err != nil {
			log.Printf("applying edit to %s: %v", msg.ID, err)
			return m, status("Edit saved, but the comment is no longer in view. Press ctrl+r to refresh.", true)
		}
		m.comments = updated
		m.syncPost()
	}
	m.persist()
	m.resizeViewport()
	m.rebuildContent()
	return m, status("Saved", false)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.selected >= 0 && m.selected < len(m.offsets) {
			off := m.offsets[m.selected]
			viewBottom := m.viewport.YOffset + m.viewport.Height
			if off.endLine >= viewBottom {
				// Comment extends below viewport, scroll within it.
				m.viewport.SetYOffset(m.viewport.YOffset + scrollStep)
				return m, nil
			}
		}
		if m.selected < len(m.visible)-1 {
			m.selected++
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "k", "up":
		if m.selected >= 0 && m.selected < len(m.offsets) {
			off := m.offsets[m.selected]
			if off.startLine < m.viewport.YOffset {
				newOff := m.viewport.YOffset - scrollStep
				if newOff < off.startLine {
					newOff = off.startLine
				}
				m.viewport.SetYOffset(newOff)
				return m, nil
			}
		}
		if m.selected > 0 {
			m.selected--
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "enter", " ":
		c, ok := m.Selected()
		if !ok {
			return m, nil
		}
		updated, err := thread.ToggleCollapse(m.comments, c.ID)
		if err != nil {
			return m, status(err.Error(), true)
		}
		m.comments = updated
		m.syncPost()
		m.saveCollapsed()
		m.rebuildVisible(c.ID)
		m.rebuildContent()
		m.scrollToCursor()
		return m, nil
	case "z":
		if len(m.comments) == 0 {
			return m, nil
		}
		folding := thread.AnyUnfolded(m.comments)
		if folding {
			m.comments = thread.FoldAll(m.comments)
		} else {
			m.comments = thread.UnfoldAll(m.comments)
		}
		m.syncPost()
		m.saveCollapsed()
		m.rebuildVisible("")
		if folding {
			m.selected = 0
		}
		m.rebuildContent()
		if folding {
			m.viewport.GotoTop()
		}
		return m, nil
	case "[", "p":
		shown := m.shown()
		if idx := thread.ParentIndex(shown, m.selected); idx >= 0 {
			m.selected = idx
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "]":
		shown := m.shown()
		if idx := thread.NextSiblingIndex(shown, m.selected); idx >= 0 {
			m.selected = idx
			m.rebuildContent()
			m.scrollToCursor()
		}
		return m, nil
	case "g", "home":
		m.selected = 0
		m.rebuildContent()
		m.viewport.GotoTop()
		return m, nil
	case "G", "end":
		if len(m.visible) > 0 {
			m.selected = len(m.visible) - 1
			m.rebuildContent()
			m.viewport.GotoBottom()
		}
		return m, nil
	case "c":
		if m.post == nil {
			return m, nil
		}
		return m, func() tea.Msg { return messages.OpenComposeMsg{} }
	case "r":
		c, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return messages.OpenComposeMsg{Parent: &c} }
	case "e":
		if m.post == nil {
			return m, nil
		}
		if !m.owns(m.post.UserID) {
			return m, status("Can only edit your own post", false)
		}
		id, text := m.post.ID, m.post.Text
		return m, func() tea.Msg {
			return messages.OpenEditMsg{Target: messages.TargetPost, ID: id, CurrentText: text}
		}
	case "E":
		c, ok := m.Selected()
		if !ok {
			return m, nil
		}
		if !m.owns(c.AuthorID) {
			return m, status("Can only edit your own comments", false)
		}
		return m, func() tea.Msg {
			return messages.OpenEditMsg{Target: messages.TargetComment, ID: c.ID, CurrentText: c.Text}
		}
	case "ctrl+r":
		m.loading = true
		m.viewport.SetContent("  Refreshing...")
		return m, m.load(true)
	case "ctrl+d", "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	case "ctrl+u", "pgup":
		m.viewport.HalfViewUp()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the post page.
func (m Model) View() string {
	header := m.renderHeader()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View())
}

// Post returns the loaded post, or nil.
func (m Model) Post() *api.Post {
	return m.post
}

// Comments returns the full comment list, hidden entries included.
func (m Model) Comments() []thread.Comment {
	return m.comments
}

// Selected returns the comment under the cursor.
func (m Model) Selected() (thread.Comment, bool) {
	if m.selected < 0 || m.selected >= len(m.visible) {
		return thread.Comment{}, false
	}
	idx := m.visible[m.selected]
	if idx >= len(m.comments) {
		return thread.Comment{}, false
	}
	return m.comments[idx], true
}

// Stale reports whether the page shows a cached copy after a failed fetch.
func (m Model) Stale() bool {
	return m.stale
}

// NewCount returns how many comments the server has that the page does not show.
func (m Model) NewCount() int {
	return m.newCount
}

// NotFound reports whether the server said the post does not exist.
func (m Model) NotFound() bool {
	return m.notFound
}

func (m Model) owns(authorID string) bool {
	return m.session != nil && m.session.Owns(authorID)
}

// shown returns the visible comments in display order.
func (m Model) shown() []thread.Comment {
	out := make([]thread.Comment, len(m.visible))
	for i, idx := range m.visible {
		out[i] = m.comments[idx]
	}
	return out
}

// rebuildVisible recomputes the shown rows. The cursor follows focusID when
// it is shown, otherwise it stays on the same comment or the nearest row.
func (m *Model) rebuildVisible(focusID string) {
	if focusID == "" {
		if c, ok := m.Selected(); ok {
			focusID = c.ID
		}
	}
	m.visible = nil
	for i, c := range m.comments {
		if !c.Hide {
			m.visible = append(m.visible, i)
		}
	}
	for i, idx := range m.visible {
		if m.comments[idx].ID == focusID {
			m.selected = i
			return
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = len(m.visible) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// updateNewCount compares the server count against the page. The user's own
// comments count as shown, whichever of the two arrives first.
func (m *Model) updateNewCount() {
	n := m.serverTotal - len(m.comments)
	if n < 0 {
		n = 0
	}
	if n != m.newCount {
		m.newCount = n
		m.resizeViewport()
	}
}

// syncPost points a copy of the post at the current comment list so earlier
// model values keep theirs.
func (m *Model) syncPost() {
	post := *m.post
	post.Comments = m.comments
	m.post = &post
}

func (m *Model) saveCollapsed() {
	if m.cache == nil || m.post == nil {
		return
	}
	if err := m.cache.PutCollapsed(m.post.ID, thread.CollapseSet(m.comments)); err != nil {
		log.Printf("saving collapse state for %s: %v", m.post.ID, err)
	}
}

func (m *Model) persist() {
	if m.cache == nil || m.post == nil {
		return
	}
	if err := m.cache.PutPost(m.post); err != nil {
		log.Printf("caching post %s: %v", m.post.ID, err)
	}
}

func (m *Model) rebuildContent() {
	if m.post == nil || len(m.visible) == 0 {
		m.offsets = nil
		switch {
		case m.loading:
			m.viewport.SetContent("  Loading comments...")
		case m.notFound:
			m.viewport.SetContent("  Post not found. Press q to quit.")
		case m.loadErr != nil:
			m.viewport.SetContent("  Error loading post: " + m.loadErr.Error() + "\n\n  Press ctrl+r to retry.")
		default:
			m.viewport.SetContent("  No comments yet. Press c to add one.")
		}
		return
	}

	var sb strings.Builder
	m.offsets = make([]commentOffset, len(m.visible))
	availWidth := m.width - 4
	if availWidth < 20 {
		availWidth = 20
	}

	lineCount := 0
	for i, idx := range m.visible {
		c := m.comments[idx]
		startLine := lineCount
		indent := int(math.Min(float64(c.Depth*2), 30))
		indentStr := strings.Repeat(" ", indent)

		barColor := theme.DepthColor(c.Depth)
		selected := i == m.selected
		if selected {
			barColor = theme.Accent
		}
		bar := lipgloss.NewStyle().Foreground(barColor).Render("│")

		author := c.AuthorName
		if author == "" {
			author = "anonymous"
		}
		header := theme.AuthorStyle.Render(author)
		header += " " + theme.MetaStyle.Render(render.TimeAgo(c.CreatedAt))
		if c.Edited() {
			header += " " + theme.MetaStyle.Render("(edited)")
		}
		if c.AuthorID != "" && c.AuthorID == m.post.UserID {
			header += " " + theme.OPBadgeStyle.Render(" OP ")
		}
		if c.HideContent {
			header += " " + theme.MetaStyle.Render(fmt.Sprintf("[+%d]", c.ChildrenCount))
		}
		if c.Depth > 15 {
			header += " " + theme.MetaStyle.Render(fmt.Sprintf("[d:%d]", c.Depth))
		}

		headerLine := indentStr + bar + " " + header
		if selected {
			headerLine = theme.SelectedStyle.Render(headerLine)
		}
		sb.WriteString(headerLine + "\n")
		lineCount++

		if !c.HideContent {
			bodyWidth := availWidth - indent - 4
			if bodyWidth < 20 {
				bodyWidth = 20
			}
			for _, line := range strings.Split(render.ToText(c.Text, bodyWidth), "\n") {
				bodyLine := indentStr + bar + " " + line
				if selected {
					bodyLine = theme.SelectedStyle.Render(bodyLine)
				}
				sb.WriteString(bodyLine + "\n")
				lineCount++
			}
		}
		sb.WriteString("\n")
		lineCount++

		m.offsets[i] = commentOffset{startLine: startLine, endLine: lineCount - 1}
	}

	m.viewport.SetContent(sb.String())
}

func (m *Model) scrollToCursor() {
	if m.selected < 0 || m.selected >= len(m.offsets) {
		return
	}
	off := m.offsets[m.selected]
	// Show the start of the selected comment if it's not already visible.
	if off.startLine < m.viewport.YOffset || off.startLine >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(off.startLine)
	}
}

func (m Model) renderHeader() string {
	if m.post == nil {
		if m.notFound {
			return postHeaderStyle.Render("Not found")
		}
		return postHeaderStyle.Render("Loading...")
	}

	var parts []string
	parts = append(parts, postHeaderStyle.Render(m.post.Title))

	meta := fmt.Sprintf("By %s %s", m.post.User.Username, render.TimeAgo(m.post.CreatedAt))
	if m.post.Edited() {
		meta += fmt.Sprintf(" (updated %s)", render.TimeAgo(m.post.UpdatedAt))
	}
	meta += fmt.Sprintf(" | %d comments", len(m.comments))
	if m.owns(m.post.UserID) {
		meta += " | e:edit"
	}
	parts = append(parts, postMetaStyle.Render(meta))

	if m.post.Text != "" {
		bodyWidth := m.width - 4
		if bodyWidth < 20 {
			bodyWidth = 20
		}
		parts = append(parts, postBodyStyle.Render(render.ToText(m.post.Text, bodyWidth)))
	}
	if m.newCount > 0 {
		parts = append(parts, newCommentStyle.Render(fmt.Sprintf("%d new comments, ctrl+r to load", m.newCount)))
	}

	parts = append(parts, theme.SeparatorStyle.Render(strings.Repeat("─", max(m.width, 1))))
	hint := theme.MetaStyle.Render("j/k:move  p:parent  ]:sibling  space:collapse  z:fold all  c:comment  r:reply  E:edit comment")
	parts = append(parts, hint)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return messages.StatusMsg{Text: text, IsError: isErr}
	}
}
