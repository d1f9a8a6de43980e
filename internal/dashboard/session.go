package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"StockDashboard/internal/model"
	"StockDashboard/internal/render"
)

// ErrSuperseded is returned by a render pass that was replaced by a newer one.
var ErrSuperseded = errors.New("render pass superseded")

// Session serialises the render passes of one viewer. Starting a pass
// cancels the one in flight; only the latest pass delivers a page.
type Session struct {
	ctrl *Controller

	mu       sync.Mutex
	seq      uint64
	cancel   context.CancelFunc
	lastUsed time.Time
}

// NewSession creates a session bound to ctrl.
func NewSession(ctrl *Controller) *Session {
	return &Session{ctrl: ctrl, lastUsed: time.Now()}
}

// Run executes a render pass for sel, superseding any pass in flight. Only
// passes that deliver their page are recorded.
func (s *Session) Run(ctx context.Context, sel model.Selection) (*render.Page, error) {
	pctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.lastUsed = time.Now()
	s.mu.Unlock()

	page, rec, err := s.ctrl.build(pctx, sel)

	s.mu.Lock()
	superseded := s.seq != seq
	if !superseded {
		s.cancel = nil
	}
	s.mu.Unlock()

	if superseded {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	s.ctrl.record(rec)
	return page, nil
}

// Idle reports how long the session has gone without a pass.
func (s *Session) Idle(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastUsed)
}

// Sessions maps viewer ids to their sessions.
type Sessions struct {
	ctrl *Controller

	mu sync.Mutex
	m  map[string]*Session
}

// NewSessions creates an empty session table.
func NewSessions(ctrl *Controller) *Sessions {
	return &Sessions{ctrl: ctrl, m: make(map[string]*Session)}
}

// Get returns the session for id, creating it on first use.
func (ss *Sessions) Get(id string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.m[id]
	if !ok {
		s = NewSession(ss.ctrl)
		ss.m[id] = s
	}
	return s
}

// Sweep drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (ss *Sessions) Sweep(maxIdle time.Duration) int {
	now := time.Now()
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for id, s := range ss.m {
		if s.Idle(now) > maxIdle {
			delete(ss.m, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.m)
}
