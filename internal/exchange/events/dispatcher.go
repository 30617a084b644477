package events

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Handler reacts to dispatched events. Handlers ignore event types they do
// not care about.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) Handle(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Publisher mirrors events out of process.
type Publisher interface {
	Produce(ev Event)
}

type namedHandler struct {
	name    string
	handler Handler
}

// Dispatcher runs its handlers in registration order for every event and
// then hands the event to the publisher, if any. A failing handler is logged
// and does not stop the others.
type Dispatcher struct {
	handlers  []namedHandler
	publisher Publisher
	logger    *zap.Logger
}

func NewDispatcher(logger *zap.Logger, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		logger:    logger.Named("dispatcher"),
	}
}

// Register appends a handler. It must be called before the first Dispatch.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers = append(d.handlers, namedHandler{name: name, handler: h})
}

// Dispatch delivers each event to the handlers and the publisher.
func (d *Dispatcher) Dispatch(ctx context.Context, evs ...Event) {
	for _, ev := range evs {
		_ = d.Handle(ctx, ev)
		if d.publisher != nil {
			d.publisher.Produce(ev)
		}
	}
}

// Handle runs every handler for one event and joins their errors. It lets a
// Kafka consumer feed a Dispatcher without publishing the event again.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	var errs []error
	for _, h := range d.handlers {
		if err := h.handler.Handle(ctx, ev); err != nil {
			d.logger.Error("Event handler failed",
				zap.String("handler", h.name),
				zap.String("event_type", string(ev.Type())),
				zap.String("subject", ev.Subject().String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
