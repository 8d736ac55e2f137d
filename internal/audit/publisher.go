package audit

import (
	"context"
	"errors"

	"registrar/pkg/requestcontext"
)

// ErrBufferFull is returned by AsyncPublisher when the worker cannot keep up.
var ErrBufferFull = errors.New("audit buffer full")

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	return p.store.Append(ctx, enrich(ctx, base))
}

// AsyncPublisher hands events to a Worker through a bounded channel so a slow
// sink never blocks a request. Events are dropped when the buffer is full.
type AsyncPublisher struct {
	inbox chan Event
}

func NewAsyncPublisher(bufferSize int) *AsyncPublisher {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &AsyncPublisher{inbox: make(chan Event, bufferSize)}
}

func (p *AsyncPublisher) Emit(ctx context.Context, base Event) error {
	select {
	case p.inbox <- enrich(ctx, base):
		return nil
	default:
		return ErrBufferFull
	}
}

// Inbox is the channel a Worker drains.
func (p *AsyncPublisher) Inbox() <-chan Event {
	return p.inbox
}

// enrich fills timestamp and request metadata from the context when unset.
func enrich(ctx context.Context, e Event) Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if e.ClientIP == "" {
		e.ClientIP = requestcontext.ClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = requestcontext.UserAgent(ctx)
	}
	return e
}
