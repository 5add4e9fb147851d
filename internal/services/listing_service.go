package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/port"
)

// MinTitleLength is the minimum listing title length in runes.
const MinTitleLength = 6

// CreateListingInput carries the seller-supplied fields of a new listing.
type CreateListingInput struct {
	Title       string
	Category    models.Category
	PriceEUR    *int
	Location    *string
	Condition   *string
	Description *string
}

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	CreateListing(ctx context.Context, ownerID string, in CreateListingInput) (*models.Listing, error)
	FindListingByID(ctx context.Context, listingID string) (*models.Listing, error)
	UpdateListing(ctx context.Context, listingID, userID string, updates map[string]interface{}) (*models.Listing, error)
	MarkSold(ctx context.Context, listingID, userID string) (*models.Listing, error)
	MarkActive(ctx context.Context, listingID, userID string) (*models.Listing, error)
	DeleteListing(ctx context.Context, listingID, userID string) error
	SearchListings(ctx context.Context, query *string, category *models.Category, limit int, cursor *string) ([]models.Listing, string, error)
	FindListingsByOwner(ctx context.Context, ownerID string, status models.ListingStatus) ([]models.Listing, error)
	CountListingsByOwner(ctx context.Context, ownerID string) (models.ListingCounts, error)
	AddImageToListing(ctx context.Context, listingID, imageURL string) error
	ViewerRoleFor(ctx context.Context, listingID, userID string) (ViewerRole, error)
}

// listingService implements IListingService.
type listingService struct {
	listings port.ListingRepository
	threads  port.ThreadRepository
	cfg      *config.Config
	logger   *zap.Logger
}

// NewListingService creates a new ListingService.
func NewListingService(listings port.ListingRepository, threads port.ThreadRepository, cfg *config.Config, logger *zap.Logger) IListingService {
	return &listingService{listings: listings, threads: threads, cfg: cfg, logger: logger}
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(strings.TrimSpace(title)) < MinTitleLength {
		return NewValidationError(fmt.Sprintf("Title must be at least %d characters.", MinTitleLength))
	}
	return nil
}

func validatePrice(price *int) error {
	if price != nil && *price < 0 {
		return NewValidationError("Price cannot be negative.")
	}
	return nil
}

// CreateListing validates seller input and persists a new active listing.
func (s *listingService) CreateListing(ctx context.Context, ownerID string, in CreateListingInput) (*models.Listing, error) {
	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}
	if !models.ValidCategory(in.Category) {
		return nil, NewValidationError("Category must be one of: car, part, memorabilia.")
	}
	if err := validatePrice(in.PriceEUR); err != nil {
		return nil, err
	}

	listing, err := s.listings.Create(ctx, port.NewListing{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(in.Title),
		Category:    in.Category,
		PriceEUR:    in.PriceEUR,
		Location:    in.Location,
		Condition:   in.Condition,
		Description: in.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create listing for user %s: %w", ownerID, err)
	}
	return listing, nil
}

// FindListingByID finds a listing by its ID. It does NOT check ownership.
func (s *listingService) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", listingID, err)
	}
	return listing, nil
}

// ownedListing loads the listing and verifies userID owns it.
func (s *listingService) ownedListing(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	listing, err := s.FindListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !CanEditListing(userID, listing) {
		return nil, ErrNotOwner
	}
	return listing, nil
}

// UpdateListing updates mutable fields of a listing owned by the specified
// user. Status changes go through MarkSold/MarkActive, not here.
func (s *listingService) UpdateListing(ctx context.Context, listingID, userID string, updates map[string]interface{}) (*models.Listing, error) {
	if _, err := s.ownedListing(ctx, listingID, userID); err != nil {
		return nil, err
	}

	allowed := map[string]interface{}{}
	for key, value := range updates {
		switch key {
		case "title":
			title, ok := value.(string)
			if !ok {
				return nil, NewValidationError("Title must be a string.")
			}
			if err := validateTitle(title); err != nil {
				return nil, err
			}
			allowed[key] = strings.TrimSpace(title)
		case "category":
			raw, ok := value.(string)
			if !ok || !models.ValidCategory(models.Category(raw)) {
				return nil, NewValidationError("Category must be one of: car, part, memorabilia.")
			}
			allowed[key] = raw
		case "price_eur":
			switch v := value.(type) {
			case nil:
				allowed[key] = nil
			case float64: // JSON numbers decode as float64
				price := int(v)
				if err := validatePrice(&price); err != nil {
					return nil, err
				}
				allowed[key] = price
			case int:
				if err := validatePrice(&v); err != nil {
					return nil, err
				}
				allowed[key] = v
			default:
				return nil, NewValidationError("Price must be a whole number of euros.")
			}
		case "location", "condition", "description":
			allowed[key] = value
		default:
			return nil, NewValidationError(fmt.Sprintf("Field '%s' cannot be updated.", key))
		}
	}
	if len(allowed) == 0 {
		return nil, NewValidationError("No updatable fields provided.")
	}

	listing, err := s.listings.Update(ctx, listingID, allowed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to update listing %s: %w", listingID, err)
	}
	return listing, nil
}

// MarkSold transitions an owned listing to sold and stamps sold_at.
func (s *listingService) MarkSold(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	if _, err := s.ownedListing(ctx, listingID, userID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.listings.SetStatus(ctx, listingID, models.ListingStatusSold, &now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to mark listing %s sold: %w", listingID, err)
	}
	return s.FindListingByID(ctx, listingID)
}

// MarkActive relists a sold listing and clears sold_at.
func (s *listingService) MarkActive(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	if _, err := s.ownedListing(ctx, listingID, userID); err != nil {
		return nil, err
	}
	if err := s.listings.SetStatus(ctx, listingID, models.ListingStatusActive, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to relist listing %s: %w", listingID, err)
	}
	return s.FindListingByID(ctx, listingID)
}

// DeleteListing removes an owned listing. Threads and messages about it go
// with it via the schema's cascade.
func (s *listingService) DeleteListing(ctx context.Context, listingID, userID string) error {
	if _, err := s.ownedListing(ctx, listingID, userID); err != nil {
		return err
	}
	if err := s.listings.Delete(ctx, listingID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrListingNotFound
		}
		return fmt.Errorf("failed to delete listing %s: %w", listingID, err)
	}
	return nil
}

// SearchListings returns active listings matching the filters, newest first,
// with an opaque "<unixnano>_<id>" cursor for the next page. The cursor
// carries the full timestamptz precision so rows sharing a creation second
// with the page boundary are not skipped.
func (s *listingService) SearchListings(ctx context.Context, query *string, category *models.Category, limit int, cursor *string) ([]models.Listing, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 24
	}
	if category != nil && !models.ValidCategory(*category) {
		return nil, "", NewValidationError("Category must be one of: car, part, memorabilia.")
	}

	search := port.ListingSearch{
		Category: category,
		Query:    query,
		Limit:    limit + 1,
	}
	if cursor != nil && *cursor != "" {
		parts := strings.SplitN(*cursor, "_", 2)
		if len(parts) == 2 {
			timestampNano, tsErr := strconv.ParseInt(parts[0], 10, 64)
			if tsErr == nil && parts[1] != "" {
				cursorTime := time.Unix(0, timestampNano).UTC()
				search.CreatedBefore = &cursorTime
				search.AfterID = parts[1]
			} else {
				s.logger.Warn("ignoring invalid search cursor", zap.String("cursor", *cursor))
			}
		} else {
			s.logger.Warn("ignoring invalid search cursor", zap.String("cursor", *cursor))
		}
	}

	results, err := s.listings.Search(ctx, search)
	if err != nil {
		return nil, "", fmt.Errorf("failed to search listings: %w", err)
	}

	nextCursor := ""
	if len(results) > limit {
		last := results[limit-1]
		nextCursor = fmt.Sprintf("%d_%s", last.CreatedAt.UnixNano(), last.ID)
		results = results[:limit]
	}
	return results, nextCursor, nil
}

// FindListingsByOwner returns the seller's listings in the given status tab.
func (s *listingService) FindListingsByOwner(ctx context.Context, ownerID string, status models.ListingStatus) ([]models.Listing, error) {
	listings, err := s.listings.FindByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for user %s: %w", ownerID, err)
	}
	return listings, nil
}

// CountListingsByOwner returns the seller's per-status listing counts.
func (s *listingService) CountListingsByOwner(ctx context.Context, ownerID string) (models.ListingCounts, error) {
	counts, err := s.listings.CountByOwner(ctx, ownerID)
	if err != nil {
		return models.ListingCounts{}, fmt.Errorf("failed to count listings for user %s: %w", ownerID, err)
	}
	return counts, nil
}

// AddImageToListing appends a processed photo URL to a listing. It is called
// by the image pipeline after normalization, so there is no ownership check.
func (s *listingService) AddImageToListing(ctx context.Context, listingID, imageURL string) error {
	appended, err := s.listings.AppendImageURL(ctx, listingID, imageURL, s.cfg.MaxListingPhotos)
	if err != nil {
		return fmt.Errorf("failed to add photo to listing %s: %w", listingID, err)
	}
	if !appended {
		// Either the listing is gone or the photo slots are full.
		if _, findErr := s.FindListingByID(ctx, listingID); findErr != nil {
			return findErr
		}
		return ErrPhotoLimitReached
	}
	return nil
}

// ViewerRoleFor classifies what userID may do with the listing's contact
// surface. An empty userID means no session.
func (s *listingService) ViewerRoleFor(ctx context.Context, listingID, userID string) (ViewerRole, error) {
	listing, err := s.FindListingByID(ctx, listingID)
	if err != nil {
		return "", err
	}
	if userID == "" || listing.OwnerID == userID {
		return RoleForListing(userID, listing, false), nil
	}

	hasThread := true
	if _, err := s.threads.FindByListingAndBuyer(ctx, listingID, userID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("failed to check for existing thread: %w", err)
		}
		hasThread = false
	}
	return RoleForListing(userID, listing, hasThread), nil
}
