package services

import (
	"context"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// Notifier receives domain events that should reach users out-of-band.
// The production implementation enqueues background tasks; tests use a stub.
type Notifier interface {
	// MessageSent fires after a message is persisted. recipientID is the
	// participant who should be notified, never the sender.
	MessageSent(ctx context.Context, thread *models.Thread, message *models.Message, recipientID string) error
}

// noopNotifier swallows all events. Used when no task queue is wired up.
type noopNotifier struct{}

func (noopNotifier) MessageSent(ctx context.Context, thread *models.Thread, message *models.Message, recipientID string) error {
	return nil
}

// NewNoopNotifier returns a Notifier that does nothing.
func NewNoopNotifier() Notifier {
	return noopNotifier{}
}
