package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/port"
)

// MaxMessageLength is the message body cap in runes; longer bodies are
// truncated, not rejected.
const MaxMessageLength = 2000

// truncateMessage trims surrounding whitespace and caps the body length.
func truncateMessage(body string) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) > MaxMessageLength {
		return string(runes[:MaxMessageLength])
	}
	return body
}

// IThreadService defines the interface for conversation thread operations.
type IThreadService interface {
	// StartThread opens (or reuses) the buyer's conversation about a listing
	// and records the opening message. created reports whether the thread is
	// new; an existing thread just receives the message.
	StartThread(ctx context.Context, buyerID, listingID, body string) (*models.Thread, bool, error)
	ListInbox(ctx context.Context, userID string) ([]models.ThreadSummary, error)
	GetThread(ctx context.Context, threadID, userID string) (*models.Thread, []models.Message, error)
}

// threadService implements IThreadService.
type threadService struct {
	threads  port.ThreadRepository
	messages port.MessageRepository
	listings port.ListingRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewThreadService creates a new ThreadService.
func NewThreadService(threads port.ThreadRepository, messages port.MessageRepository, listings port.ListingRepository, notifier Notifier, logger *zap.Logger) IThreadService {
	return &threadService{threads: threads, messages: messages, listings: listings, notifier: notifier, logger: logger}
}

func (s *threadService) StartThread(ctx context.Context, buyerID, listingID, body string) (*models.Thread, bool, error) {
	body = truncateMessage(body)
	if body == "" {
		return nil, false, ErrEmptyMessage
	}

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrListingNotFound
		}
		return nil, false, fmt.Errorf("error finding listing %s: %w", listingID, err)
	}
	if err := CanMessageListing(buyerID, listing); err != nil {
		return nil, false, err
	}

	thread, created, err := s.threads.CreateOrGet(ctx, listingID, buyerID, listing.OwnerID, time.Now().UTC())
	if err != nil {
		return nil, false, fmt.Errorf("failed to open thread for listing %s: %w", listingID, err)
	}

	message, err := s.messages.Insert(ctx, thread.ID, buyerID, body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to record opening message: %w", err)
	}
	if err := s.threads.TouchLastMessage(ctx, thread.ID, message.CreatedAt); err != nil {
		s.logger.Warn("failed to bump thread activity", zap.String("thread_id", thread.ID), zap.Error(err))
	} else {
		thread.LastMessageAt = message.CreatedAt
	}

	if err := s.notifier.MessageSent(ctx, thread, message, listing.OwnerID); err != nil {
		// Notification is best-effort; the message is already persisted.
		s.logger.Warn("failed to enqueue message notification", zap.String("thread_id", thread.ID), zap.Error(err))
	}

	return thread, created, nil
}

func (s *threadService) ListInbox(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	summaries, err := s.threads.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox for user %s: %w", userID, err)
	}
	return summaries, nil
}

// GetThread returns a thread and its full message history, oldest first.
// Only the two participants may read it.
func (s *threadService) GetThread(ctx context.Context, threadID, userID string) (*models.Thread, []models.Message, error) {
	thread, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrThreadNotFound
		}
		return nil, nil, fmt.Errorf("error finding thread %s: %w", threadID, err)
	}
	if !CanViewThread(userID, thread) {
		return nil, nil, ErrNotParticipant
	}

	messages, err := s.messages.ListByThread(ctx, threadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load messages for thread %s: %w", threadID, err)
	}
	return thread, messages, nil
}
