package port

import (
	"context"
	"time"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// ListingSearch carries the public browse filters.
type ListingSearch struct {
	Category      *models.Category
	Query         *string
	Limit         int
	CreatedBefore *time.Time
	AfterID       string // tiebreak for rows sharing CreatedBefore
}

// NewListing carries the fields a seller submits when creating a listing.
type NewListing struct {
	OwnerID     string
	Title       string
	Category    models.Category
	PriceEUR    *int
	Location    *string
	Condition   *string
	Description *string
}

// ListingRepository is the persistence port for listings. Implementations
// return pgx.ErrNoRows when the referenced listing is absent.
type ListingRepository interface {
	Create(ctx context.Context, in NewListing) (*models.Listing, error)
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	// Update applies the given column/value pairs and returns the updated row.
	Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Listing, error)
	SetStatus(ctx context.Context, id string, status models.ListingStatus, soldAt *time.Time) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, f ListingSearch) ([]models.Listing, error)
	FindByOwner(ctx context.Context, ownerID string, status models.ListingStatus) ([]models.Listing, error)
	CountByOwner(ctx context.Context, ownerID string) (models.ListingCounts, error)
	// AppendImageURL appends url to the listing's photo list as long as the
	// list holds fewer than maxPhotos entries. Returns false when full.
	AppendImageURL(ctx context.Context, id, url string, maxPhotos int) (bool, error)
}
