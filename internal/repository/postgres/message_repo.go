package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

// PgMessageRepository implements port.MessageRepository over pgx.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Insert(ctx context.Context, threadID, senderID, body string) (*models.Message, error) {
	query := `
		INSERT INTO messages (thread_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id::text, thread_id::text, sender_id::text, body, created_at`

	var m models.Message
	err := r.pool.QueryRow(ctx, query, threadID, senderID, body).
		Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &m, nil
}

func (r *PgMessageRepository) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	query := `
		SELECT id::text, thread_id::text, sender_id::text, body, created_at
		FROM messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}
