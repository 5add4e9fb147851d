package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/port"
)

const listingColumns = `id::text, owner_id::text, title, category, price_eur,
	location, condition, description, image_urls, status, sold_at, created_at, updated_at`

// PgListingRepository implements port.ListingRepository over pgx.
type PgListingRepository struct {
	pool *pgxpool.Pool
}

func NewPgListingRepository(pool *pgxpool.Pool) *PgListingRepository {
	return &PgListingRepository{pool: pool}
}

func scanListing(row pgx.Row) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Category, &l.PriceEUR,
		&l.Location, &l.Condition, &l.Description, &l.ImageURLs,
		&l.Status, &l.SoldAt, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PgListingRepository) Create(ctx context.Context, in port.NewListing) (*models.Listing, error) {
	query := `
		INSERT INTO listings (owner_id, title, category, price_eur, location, condition, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + listingColumns

	listing, err := scanListing(r.pool.QueryRow(ctx, query,
		in.OwnerID, in.Title, in.Category, in.PriceEUR, in.Location, in.Condition, in.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to insert listing: %w", err)
	}
	return listing, nil
}

func (r *PgListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return scanListing(r.pool.QueryRow(ctx, query, id))
}

// Update builds a SET clause from the column/value pairs. Callers are expected
// to pass only whitelisted columns; updated_at is always bumped.
func (r *PgListingRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Listing, error) {
	columns := make([]string, 0, len(updates))
	for column := range updates {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+1)
	args = append(args, id)
	for _, column := range columns {
		args = append(args, updates[column])
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`UPDATE listings SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), listingColumns)
	return scanListing(r.pool.QueryRow(ctx, query, args...))
}

func (r *PgListingRepository) SetStatus(ctx context.Context, id string, status models.ListingStatus, soldAt *time.Time) error {
	query := `
		UPDATE listings
		SET status = $2, sold_at = $3, updated_at = now()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, status, soldAt)
	if err != nil {
		return fmt.Errorf("failed to update listing status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgListingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PgListingRepository) Search(ctx context.Context, f port.ListingSearch) ([]models.Listing, error) {
	conditions := []string{"status = 'active'"}
	args := []interface{}{}

	if f.Category != nil {
		args = append(args, *f.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Query != nil && *f.Query != "" {
		args = append(args, "%"+*f.Query+"%")
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.CreatedBefore != nil {
		args = append(args, *f.CreatedBefore)
		before := fmt.Sprintf("created_at < $%d", len(args))
		if f.AfterID != "" {
			args = append(args, *f.CreatedBefore, f.AfterID)
			before = fmt.Sprintf("(%s OR (created_at = $%d AND id < $%d))", before, len(args)-1, len(args))
		}
		conditions = append(conditions, before)
	}

	args = append(args, f.Limit)
	query := fmt.Sprintf(`
		SELECT %s FROM listings
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`,
		listingColumns, strings.Join(conditions, " AND "), len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *PgListingRepository) FindByOwner(ctx context.Context, ownerID string, status models.ListingStatus) ([]models.Listing, error) {
	query := `
		SELECT ` + listingColumns + `
		FROM listings
		WHERE owner_id = $1 AND status = $2
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings by owner: %w", err)
	}
	defer rows.Close()

	return collectListings(rows)
}

func (r *PgListingRepository) CountByOwner(ctx context.Context, ownerID string) (models.ListingCounts, error) {
	query := `
		SELECT
			count(*) FILTER (WHERE status = 'active'),
			count(*) FILTER (WHERE status = 'sold'),
			count(*)
		FROM listings
		WHERE owner_id = $1`

	var counts models.ListingCounts
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(&counts.Active, &counts.Sold, &counts.Total)
	if err != nil {
		return models.ListingCounts{}, fmt.Errorf("failed to count listings by owner: %w", err)
	}
	return counts, nil
}

func (r *PgListingRepository) AppendImageURL(ctx context.Context, id, url string, maxPhotos int) (bool, error) {
	query := `
		UPDATE listings
		SET image_urls = array_append(image_urls, $2), updated_at = now()
		WHERE id = $1 AND cardinality(image_urls) < $3`

	tag, err := r.pool.Exec(ctx, query, id, url, maxPhotos)
	if err != nil {
		return false, fmt.Errorf("failed to append listing photo: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func collectListings(rows pgx.Rows) ([]models.Listing, error) {
	listings := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing rows: %w", err)
	}
	return listings, nil
}
