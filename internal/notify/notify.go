// Package notify delivers workload and task events to chat channels.
package notify

import (
	"context"
	"log"
)

// Severity colors shared by all adapters.
const (
	ColorCritical = "#d32f2f"
	ColorHigh     = "#f9a825"
	ColorInfo     = "#36a64f"
)

// Field is a labeled value rendered inside an event card.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Event is a formatted notification ready for delivery.
type Event struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Notifier delivers events to one destination.
type Notifier interface {
	Send(ctx context.Context, evt Event) error
}

// Fanout delivers each event to every notifier. A failing destination is
// logged and does not stop delivery to the others.
type Fanout struct {
	notifiers []Notifier
}

// NewFanout builds a Fanout over the given notifiers.
func NewFanout(notifiers ...Notifier) *Fanout {
	return &Fanout{notifiers: notifiers}
}

// Send delivers the event to all destinations, returning the last error.
func (f *Fanout) Send(ctx context.Context, evt Event) error {
	var last error
	for _, n := range f.notifiers {
		if err := n.Send(ctx, evt); err != nil {
			log.Printf("notify: deliver %q: %v", evt.Title, err)
			last = err
		}
	}
	return last
}

// Len returns the number of configured destinations.
func (f *Fanout) Len() int { return len(f.notifiers) }
