// Package session holds the bounded per-session context described in
// spec §3: a short ring of recent interactions plus whichever handler
// currently owns the session's multi-turn state, evicted after a
// period of inactivity rather than persisted.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sink optionally persists interactions past the bounded in-memory ring,
// for an audit trail of eviction history (spec §11: "optional
// persistence for the bounded session-context store's eviction log",
// default remains in-memory only). A Store with no Sink behaves exactly
// as spec §3 describes: nothing outlives the TTL.
type Sink interface {
	Record(ctx context.Context, sessionID string, in Interaction)
}

// Interaction is one request/response pair recorded against a session,
// used to give a handler or the admin surface recent conversational
// context without keeping a full transcript.
type Interaction struct {
	RequestID string
	Text      string
	Intent    string
	At        time.Time
}

// Context is the per-session record of spec §3: `{ session_id,
// last_interactions[<=N], active_handler, handler_state, locale }`.
type Context struct {
	SessionID        string
	Locale           string
	ActiveHandler    string
	HandlerState     map[string]any
	lastSeen         time.Time
	lastInteractions []Interaction
}

// LastInteractions returns a copy of the bounded interaction ring,
// oldest first.
func (c *Context) LastInteractions() []Interaction {
	out := make([]Interaction, len(c.lastInteractions))
	copy(out, c.lastInteractions)
	return out
}

// Store is the bounded, TTL-evicted session table. One process-wide
// Store backs every pipeline request; sessions are created lazily on
// first touch and dropped after ttl of inactivity.
type Store struct {
	mu              sync.RWMutex
	sessions        map[string]*Context
	maxInteractions int
	ttl             time.Duration
	stopEviction    chan struct{}
	sink            Sink
}

// SetSink attaches an optional audit sink; every RecordInteraction call
// is mirrored to it in the background, never blocking the caller.
func (s *Store) SetSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// NewStore builds a Store that keeps at most maxInteractions per
// session and evicts a session ttl after its last touch.
func NewStore(maxInteractions int, ttl time.Duration) *Store {
	s := &Store{
		sessions:        make(map[string]*Context),
		maxInteractions: maxInteractions,
		ttl:             ttl,
		stopEviction:    make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

// NewSessionID mints a fresh session identifier for an input source
// that doesn't supply its own (e.g. a CLI invocation).
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the session's context, creating a fresh one on first
// touch, and refreshes its TTL clock.
func (s *Store) Get(sessionID string) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		ctx = &Context{SessionID: sessionID, HandlerState: make(map[string]any)}
		s.sessions[sessionID] = ctx
	}
	ctx.lastSeen = time.Now()
	return ctx
}

// RecordInteraction appends to the session's bounded interaction ring,
// dropping the oldest entry once maxInteractions is exceeded.
func (s *Store) RecordInteraction(sessionID string, in Interaction) {
	s.mu.Lock()
	ctx := s.getLocked(sessionID)
	ctx.lastInteractions = append(ctx.lastInteractions, in)
	if over := len(ctx.lastInteractions) - s.maxInteractions; over > 0 {
		ctx.lastInteractions = ctx.lastInteractions[over:]
	}
	ctx.lastSeen = time.Now()
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		go sink.Record(context.Background(), sessionID, in)
	}
}

// SetActiveHandler records which handler currently owns a multi-turn
// interaction on this session, along with its opaque state.
func (s *Store) SetActiveHandler(sessionID, handler string, state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.getLocked(sessionID)
	ctx.ActiveHandler = handler
	ctx.HandlerState = state
	ctx.lastSeen = time.Now()
}

// ClearActiveHandler releases a session back to stateless dispatch,
// e.g. once a multi-turn handler completes or a new topic is detected.
func (s *Store) ClearActiveHandler(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.getLocked(sessionID)
	ctx.ActiveHandler = ""
	ctx.HandlerState = make(map[string]any)
}

// SetLocale records the session's current spoken/written locale.
func (s *Store) SetLocale(sessionID, locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := s.getLocked(sessionID)
	ctx.Locale = locale
}

func (s *Store) getLocked(sessionID string) *Context {
	ctx, ok := s.sessions[sessionID]
	if !ok {
		ctx = &Context{SessionID: sessionID, HandlerState: make(map[string]any)}
		s.sessions[sessionID] = ctx
	}
	return ctx
}

// Count reports the number of live sessions, for admin/status surfacing.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) evictLoop() {
	interval := s.ttl / 4
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopEviction:
			return
		}
	}
}

func (s *Store) evictExpired() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ctx := range s.sessions {
		if ctx.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// Close stops the background eviction loop.
func (s *Store) Close() {
	close(s.stopEviction)
}
