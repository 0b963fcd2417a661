package pipeline

import (
	"context"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// HandlerCall is what the intent stage hands to a handler: the resolved
// method plus the extracted slots and the session context it ran in.
type HandlerCall struct {
	RequestID     string
	SessionID     string
	Language      string
	HandlerDomain string
	MethodName    string
	IntentSuffix  string
	Slots         map[string]string
}

// Handler is one domain's method dispatcher (e.g. "timer", "weather").
// A Handler is registered under its handler_domain and receives every
// HandlerCall whose donation matched that domain.
type Handler interface {
	Domain() string
	Handle(ctx context.Context, call HandlerCall) (Response, error)
}

// HandlerRegistry maps handler_domain to its Handler, used by the
// "handler" stage to dispatch a resolved intent (spec §4.4).
type HandlerRegistry struct {
	handlers map[string]Handler
}

func NewHandlerRegistry(handlers ...Handler) *HandlerRegistry {
	r := &HandlerRegistry{handlers: make(map[string]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Domain()] = h
	}
	return r
}

func (r *HandlerRegistry) Register(h Handler) {
	r.handlers[h.Domain()] = h
}

func (r *HandlerRegistry) Dispatch(ctx context.Context, call HandlerCall) (Response, error) {
	h, ok := r.handlers[call.HandlerDomain]
	if !ok {
		return Response{}, corerrors.New(corerrors.IntentUnresolved, "no handler registered for domain").WithField("handler_domain", call.HandlerDomain)
	}
	return h.Handle(ctx, call)
}
