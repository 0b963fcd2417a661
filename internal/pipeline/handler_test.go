package pipeline

import (
	"context"
	"testing"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

type stubHandler struct {
	domain string
	called HandlerCall
	resp   Response
	err    error
}

func (h *stubHandler) Domain() string { return h.domain }

func (h *stubHandler) Handle(ctx context.Context, call HandlerCall) (Response, error) {
	h.called = call
	return h.resp, h.err
}

func TestHandlerRegistryDispatchesToMatchingDomain(t *testing.T) {
	timer := &stubHandler{domain: "timer", resp: Response{Text: "timer set"}}
	weather := &stubHandler{domain: "weather", resp: Response{Text: "sunny"}}
	reg := NewHandlerRegistry(timer, weather)

	resp, err := reg.Dispatch(context.Background(), HandlerCall{HandlerDomain: "weather"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "sunny" {
		t.Errorf("expected weather handler's response, got %q", resp.Text)
	}
	if timer.called.HandlerDomain != "" {
		t.Errorf("expected timer handler not to be invoked")
	}
}

func TestHandlerRegistryReturnsIntentUnresolvedForUnknownDomain(t *testing.T) {
	reg := NewHandlerRegistry()
	_, err := reg.Dispatch(context.Background(), HandlerCall{HandlerDomain: "ghost"})
	if corerrors.KindOf(err) != corerrors.IntentUnresolved {
		t.Fatalf("expected IntentUnresolved for an unregistered domain, got %v", err)
	}
}

func TestHandlerRegistryRegisterOverwritesExistingDomain(t *testing.T) {
	reg := NewHandlerRegistry(&stubHandler{domain: "timer", resp: Response{Text: "old"}})
	reg.Register(&stubHandler{domain: "timer", resp: Response{Text: "new"}})

	resp, err := reg.Dispatch(context.Background(), HandlerCall{HandlerDomain: "timer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "new" {
		t.Errorf("expected re-registering a domain to replace its handler, got %q", resp.Text)
	}
}
