// Package messaging carries property change events from the API to the
// search indexer, either through RabbitMQ or in-process.
package messaging

import (
	"context"
	"fmt"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Event announces that a property changed.
type Event struct {
	Action     string `json:"action"`
	PropertyID string `json:"property_id"`
}

func (e Event) Validate() error {
	if e.PropertyID == "" {
		return fmt.Errorf("event has no property_id")
	}
	switch e.Action {
	case ActionCreate, ActionUpdate, ActionDelete:
		return nil
	}
	return fmt.Errorf("unknown event action %q", e.Action)
}

// Handler applies an event. Returning an error asks for redelivery.
type Handler func(ctx context.Context, ev Event) error

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// DirectPublisher hands events straight to a handler in the caller's goroutine.
type DirectPublisher struct {
	handler Handler
}

func NewDirectPublisher(h Handler) *DirectPublisher {
	return &DirectPublisher{handler: h}
}

func (p *DirectPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	return p.handler(ctx, ev)
}

func (p *DirectPublisher) Close() error { return nil }

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
