package port

import (
	"context"
	"time"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// ThreadRepository is the persistence port for conversation threads.
// Implementations return pgx.ErrNoRows when the referenced thread is absent.
type ThreadRepository interface {
	FindByID(ctx context.Context, id string) (*models.Thread, error)
	FindByListingAndBuyer(ctx context.Context, listingID, buyerID string) (*models.Thread, error)
	// CreateOrGet inserts a thread for the (listing, buyer) pair or, if one
	// already exists (including a concurrent insert losing the race on the
	// unique constraint), returns the existing row. created reports which.
	CreateOrGet(ctx context.Context, listingID, buyerID, sellerID string, now time.Time) (thread *models.Thread, created bool, err error)
	// ListForUser returns the threads the user participates in, newest
	// activity first, with the listing title joined in.
	ListForUser(ctx context.Context, userID string) ([]models.ThreadSummary, error)
	// TouchLastMessage bumps the thread's last-activity timestamp.
	TouchLastMessage(ctx context.Context, id string, at time.Time) error
}
