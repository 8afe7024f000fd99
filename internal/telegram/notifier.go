package telegram

import (
	"context"

	"github.com/turnwatch/turnwatch/internal/monitor"
	"github.com/turnwatch/turnwatch/internal/render"
)

// Notifier adapts the client to the monitor's delivery contract: events
// are rendered in their carried locale and sent as one chat message.
type Notifier struct {
	client *Client
}

// NewNotifier wraps client for monitor event delivery.
func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

// Notify renders and sends one event. Events that render to nothing are
// silently dropped.
func (n *Notifier) Notify(ctx context.Context, destination int64, event monitor.Event) error {
	text := render.Notification(event)
	if text == "" {
		return nil
	}
	return n.client.SendMessage(ctx, destination, text)
}
