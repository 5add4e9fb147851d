package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/db"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

const threadColumns = `id::text, listing_id::text, buyer_id::text, seller_id::text, last_message_at, created_at`

// PgThreadRepository implements port.ThreadRepository over pgx.
type PgThreadRepository struct {
	pool *pgxpool.Pool
}

func NewPgThreadRepository(pool *pgxpool.Pool) *PgThreadRepository {
	return &PgThreadRepository{pool: pool}
}

func scanThread(row pgx.Row) (*models.Thread, error) {
	var t models.Thread
	err := row.Scan(&t.ID, &t.ListingID, &t.BuyerID, &t.SellerID, &t.LastMessageAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PgThreadRepository) FindByID(ctx context.Context, id string) (*models.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE id = $1`
	return scanThread(r.pool.QueryRow(ctx, query, id))
}

func (r *PgThreadRepository) FindByListingAndBuyer(ctx context.Context, listingID, buyerID string) (*models.Thread, error) {
	query := `SELECT ` + threadColumns + ` FROM threads WHERE listing_id = $1 AND buyer_id = $2`
	return scanThread(r.pool.QueryRow(ctx, query, listingID, buyerID))
}

// CreateOrGet relies on the (listing_id, buyer_id) unique constraint: a
// concurrent request winning the insert race surfaces as a unique violation,
// which db.Try retries, and the next pass finds the surviving row.
func (r *PgThreadRepository) CreateOrGet(ctx context.Context, listingID, buyerID, sellerID string, now time.Time) (*models.Thread, bool, error) {
	query := `
		INSERT INTO threads (listing_id, buyer_id, seller_id, last_message_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + threadColumns

	var thread *models.Thread
	var created bool
	err := db.Try(func() error {
		existing, err := r.FindByListingAndBuyer(ctx, listingID, buyerID)
		if err == nil {
			thread, created = existing, false
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		inserted, err := scanThread(r.pool.QueryRow(ctx, query, listingID, buyerID, sellerID, now))
		if err != nil {
			return err
		}
		thread, created = inserted, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to open thread: %w", err)
	}
	return thread, created, nil
}

func (r *PgThreadRepository) ListForUser(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	query := `
		SELECT t.id::text, t.listing_id::text, t.buyer_id::text, t.seller_id::text,
			t.last_message_at, t.created_at, l.title
		FROM threads t
		JOIN listings l ON l.id = t.listing_id
		WHERE t.buyer_id = $1 OR t.seller_id = $1
		ORDER BY t.last_message_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	defer rows.Close()

	summaries := []models.ThreadSummary{}
	for rows.Next() {
		var s models.ThreadSummary
		err := rows.Scan(&s.ID, &s.ListingID, &s.BuyerID, &s.SellerID,
			&s.LastMessageAt, &s.CreatedAt, &s.ListingTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate thread rows: %w", err)
	}
	return summaries, nil
}

func (r *PgThreadRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE threads SET last_message_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to bump thread activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
