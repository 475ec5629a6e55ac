// Package event carries document lifecycle notifications from the write path
// to in-process subscribers. Events are published after the primary write
// commits; handlers do their own error handling and must not block for long.
package event

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"docrepo/internal/model"
)

// Type discriminates document lifecycle events.
type Type string

const (
	DocumentCreated Type = "document.created"
	DocumentUpdated Type = "document.updated"
	DocumentDeleted Type = "document.deleted"
)

// DocumentEvent is published once per committed document write. For deletes,
// Document holds the last known state of the removed record.
type DocumentEvent struct {
	Type     Type
	Document model.Document
}

// Handler reacts to a document event. Errors are logged by the dispatcher
// and never propagate to the publisher.
type Handler interface {
	Handle(ctx context.Context, ev DocumentEvent)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev DocumentEvent)

func (f HandlerFunc) Handle(ctx context.Context, ev DocumentEvent) { f(ctx, ev) }

// Dispatcher fans events out to subscribed handlers synchronously, in
// subscription order. A panicking handler is recovered and logged so one
// subscriber cannot take down the publisher or starve its siblings.
type Dispatcher struct {
	handlers []Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler. Not safe for concurrent use with Publish;
// wire all subscriptions during startup.
func (d *Dispatcher) Subscribe(h Handler) {
	d.handlers = append(d.handlers, h)
}

// Publish delivers the event to every handler.
func (d *Dispatcher) Publish(ctx context.Context, ev DocumentEvent) {
	for _, h := range d.handlers {
		d.deliver(ctx, h, ev)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, h Handler, ev DocumentEvent) {
	defer func() {
		if r := recover(); r != nil {
			logJSON(map[string]any{
				"component":   "event",
				"event":       "handler_panic",
				"status":      "error",
				"event_type":  string(ev.Type),
				"document_id": ev.Document.ID,
				"panic":       r,
			})
		}
	}()
	h.Handle(ctx, ev)
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal event log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
