package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recordingSink struct {
	mu      sync.Mutex
	records []Interaction
}

func (r *recordingSink) Record(ctx context.Context, sessionID string, in Interaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, in)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func TestGetCreatesSessionLazily(t *testing.T) {
	s := NewStore(5, time.Hour)
	defer s.Close()

	ctx := s.Get("abc")
	if ctx.SessionID != "abc" {
		t.Errorf("expected session id 'abc', got %q", ctx.SessionID)
	}
	if ctx.HandlerState == nil {
		t.Errorf("expected initialized handler state map")
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 live session, got %d", s.Count())
	}
}

func TestRecordInteractionBoundsHistory(t *testing.T) {
	s := NewStore(2, time.Hour)
	defer s.Close()

	s.RecordInteraction("abc", Interaction{Text: "one"})
	s.RecordInteraction("abc", Interaction{Text: "two"})
	s.RecordInteraction("abc", Interaction{Text: "three"})

	history := s.Get("abc").LastInteractions()
	if len(history) != 2 {
		t.Fatalf("expected history bounded to 2, got %d", len(history))
	}
	if history[0].Text != "two" || history[1].Text != "three" {
		t.Errorf("expected oldest entry dropped, got %+v", history)
	}
}

func TestSetAndClearActiveHandler(t *testing.T) {
	s := NewStore(5, time.Hour)
	defer s.Close()

	s.SetActiveHandler("abc", "timer", map[string]any{"step": "awaiting_duration"})
	ctx := s.Get("abc")
	if ctx.ActiveHandler != "timer" {
		t.Errorf("expected active handler 'timer', got %q", ctx.ActiveHandler)
	}
	if ctx.HandlerState["step"] != "awaiting_duration" {
		t.Errorf("expected handler state preserved, got %+v", ctx.HandlerState)
	}

	s.ClearActiveHandler("abc")
	ctx = s.Get("abc")
	if ctx.ActiveHandler != "" {
		t.Errorf("expected active handler cleared, got %q", ctx.ActiveHandler)
	}
	if len(ctx.HandlerState) != 0 {
		t.Errorf("expected handler state cleared, got %+v", ctx.HandlerState)
	}
}

func TestSetLocale(t *testing.T) {
	s := NewStore(5, time.Hour)
	defer s.Close()

	s.SetLocale("abc", "ru-RU")
	if got := s.Get("abc").Locale; got != "ru-RU" {
		t.Errorf("expected locale 'ru-RU', got %q", got)
	}
}

func TestEvictExpiredRemovesStaleSessions(t *testing.T) {
	s := NewStore(5, 10*time.Millisecond)
	defer s.Close()

	s.Get("abc")
	time.Sleep(20 * time.Millisecond)
	s.evictExpired()

	if s.Count() != 0 {
		t.Errorf("expected stale session evicted, count=%d", s.Count())
	}
}

func TestSetSinkMirrorsInteractions(t *testing.T) {
	s := NewStore(5, time.Hour)
	defer s.Close()

	sink := &recordingSink{}
	s.SetSink(sink)

	s.RecordInteraction("abc", Interaction{Text: "one"})
	s.RecordInteraction("abc", Interaction{Text: "two"})

	deadline := time.Now().Add(time.Second)
	for sink.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := sink.count(); got != 2 {
		t.Fatalf("expected 2 interactions mirrored to sink, got %d", got)
	}
}

func TestRecordInteractionWithoutSinkDoesNotPanic(t *testing.T) {
	s := NewStore(5, time.Hour)
	defer s.Close()

	s.RecordInteraction("abc", Interaction{Text: "one"})
}

func TestNewSessionIDProducesDistinctValues(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()
	if a == b {
		t.Errorf("expected distinct session ids, got %q twice", a)
	}
	if a == "" {
		t.Errorf("expected non-empty session id")
	}
}
