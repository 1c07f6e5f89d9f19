package workspace

import (
	"sync"
	"time"

	"github.com/eringen/foundry/editor"
	"github.com/eringen/foundry/panel"
)

// Session is the workspace state of one browser session on one specimen.
type Session struct {
	Token      string
	SpecimenID string
	Selector   *Selector
	Panel      *panel.Controller

	mu       sync.Mutex
	view     View
	toolbar  *editor.Marks
	lastSeen time.Time
}

// View returns a copy of the view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// UpdateView runs fn on the view under the session lock.
func (s *Session) UpdateView(fn func(v *View) bool) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handled := fn(&s.view)
	return s.view, handled
}

// Toolbar returns the marks last reported by the editor, or nil when the
// text selection is collapsed.
func (s *Session) Toolbar() *editor.Marks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolbar
}

func (s *Session) setToolbar(m *editor.Marks) {
	s.mu.Lock()
	s.toolbar = m
	s.mu.Unlock()
}

// Strip lays out the session's current pages.
func (s *Session) Strip() *Strip {
	return NewStrip(s.Panel.Specimen(), s.Panel.Pages())
}

// Hub keeps workspace sessions keyed by session token and specimen id and
// expires them after an idle period.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewHub creates a Hub whose sessions expire after ttl without use.
func NewHub(ttl time.Duration) *Hub {
	h := &Hub{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go h.cleanup()
	return h
}

func key(token, specimenID string) string {
	return token + "\x00" + specimenID
}

func (h *Hub) cleanup() {
	ticker := time.NewTicker(h.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Sweep()
		case <-h.stop:
			return
		}
	}
}

// Sweep drops sessions idle for longer than the TTL. Unsaved editor
// buffers of dropped sessions are discarded.
func (h *Hub) Sweep() {
	cutoff := h.now().Add(-h.ttl)
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, s := range h.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(h.sessions, k)
		}
	}
}

// Open returns the session for (token, specimenID), creating it with the
// controller returned by newPanel when there is none.
func (h *Hub) Open(token, specimenID string, newPanel func() *panel.Controller) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := key(token, specimenID)
	s, ok := h.sessions[k]
	if !ok {
		s = &Session{
			Token:      token,
			SpecimenID: specimenID,
			Panel:      newPanel(),
			view:       NewView(),
		}
		s.Selector = NewSelector(s.setToolbar)
		h.sessions[k] = s
	}
	s.mu.Lock()
	s.lastSeen = h.now()
	s.mu.Unlock()
	return s
}

// Get returns an existing session and marks it as used.
func (h *Hub) Get(token, specimenID string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[key(token, specimenID)]
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	s.lastSeen = h.now()
	s.mu.Unlock()
	return s, true
}

// Drop removes every session of a specimen, for example after it was
// deleted.
func (h *Hub) Drop(specimenID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for k, s := range h.sessions {
		if s.SpecimenID == specimenID {
			delete(h.sessions, k)
		}
	}
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close stops the cleanup goroutine.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.stop) })
}
