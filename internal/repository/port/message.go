package port

import (
	"context"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// MessageRepository is the persistence port for messages. Messages are
// append-only; there is no update or delete.
type MessageRepository interface {
	Insert(ctx context.Context, threadID, senderID, body string) (*models.Message, error)
	// ListByThread returns the thread's messages ordered by creation time
	// ascending (id as tiebreak).
	ListByThread(ctx context.Context, threadID string) ([]models.Message, error)
}
