package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/threadr/internal/api"
	"github.com/fragmede/threadr/internal/ui/messages"
)

// PostFetcher is the part of the API client the monitor needs.
type PostFetcher interface {
	GetPost(ctx context.Context, postID string) (*api.Post, error)
}

// Sender delivers messages to the running program.
type Sender interface {
	Send(msg tea.Msg)
}

// Monitor polls the open post and reports comments that arrived since the
// page last loaded. It never touches the page's comment list; the user pulls
// the new comments in with a refresh.
type Monitor struct {
	client   PostFetcher
	interval time.Duration
	timeout  time.Duration

	mu       sync.Mutex
	program  Sender
	postID   string
	known    int
	reported int
	stopCh   chan struct{}
	running  bool
}

// New creates a monitor. A non-positive interval disables polling.
func New(client PostFetcher, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		client:   client,
		interval: interval,
		timeout:  timeout,
	}
}

// Start begins polling postID, which currently shows known comments.
// Starting again switches to the new post.
func (m *Monitor) Start(program Sender, postID string, known int) {
	if m.interval <= 0 {
		return
	}
	m.Stop()

	m.mu.Lock()
	m.program = program
	m.postID = postID
	m.known = known
	m.reported = known
	m.stopCh = make(chan struct{})
	m.running = true
	stopCh := m.stopCh
	m.mu.Unlock()

	go m.loop(stopCh)
}

// SetKnown records how many comments the page now shows, after a refresh or
// after the user's own comment was inserted.
func (m *Monitor) SetKnown(n int) {
	m.mu.Lock()
	m.known = n
	if m.reported < n {
		m.reported = n
	}
	m.mu.Unlock()
}

// Stop halts polling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.stopCh)
	m.running = false
}

func (m *Monitor) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			m.poll(context.Background())
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	m.mu.Lock()
	postID := m.postID
	m.mu.Unlock()
	if postID == "" {
		return
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	post, err := m.client.GetPost(ctx, postID)
	if err != nil {
		log.Printf("monitor: polling post %s: %v", postID, err)
		return
	}

	count := len(post.Comments)
	m.mu.Lock()
	if m.postID != postID || count <= m.reported {
		m.mu.Unlock()
		return
	}
	m.reported = count
	fresh := count - m.known
	program := m.program
	m.mu.Unlock()

	// known may have caught up while the request was out, for example when
	// the user's own comment was inserted.
	if program != nil && fresh > 0 {
		program.Send(messages.NewCommentsMsg{PostID: postID, Count: fresh, Total: count})
	}
}
