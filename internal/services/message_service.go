package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/port"
)

// IMessageService defines the interface for message operations.
type IMessageService interface {
	// AppendMessage adds a message from userID to an existing thread.
	AppendMessage(ctx context.Context, userID, threadID, body string) (*models.Message, error)
}

// messageService implements IMessageService.
type messageService struct {
	threads  port.ThreadRepository
	messages port.MessageRepository
	notifier Notifier
	logger   *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(threads port.ThreadRepository, messages port.MessageRepository, notifier Notifier, logger *zap.Logger) IMessageService {
	return &messageService{threads: threads, messages: messages, notifier: notifier, logger: logger}
}

func (s *messageService) AppendMessage(ctx context.Context, userID, threadID, body string) (*models.Message, error) {
	body = truncateMessage(body)
	if body == "" {
		return nil, ErrEmptyMessageBody
	}

	thread, err := s.threads.FindByID(ctx, threadID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("error finding thread %s: %w", threadID, err)
	}
	if !CanViewThread(userID, thread) {
		return nil, ErrNotParticipant
	}

	message, err := s.messages.Insert(ctx, threadID, userID, body)
	if err != nil {
		return nil, fmt.Errorf("failed to append message to thread %s: %w", threadID, err)
	}
	if err := s.threads.TouchLastMessage(ctx, threadID, message.CreatedAt); err != nil {
		s.logger.Warn("failed to bump thread activity", zap.String("thread_id", threadID), zap.Error(err))
	}

	recipient := thread.OtherParticipant(userID)
	if err := s.notifier.MessageSent(ctx, thread, message, recipient); err != nil {
		// Notification is best-effort; the message is already persisted.
		s.logger.Warn("failed to enqueue message notification", zap.String("thread_id", threadID), zap.Error(err))
	}

	return message, nil
}
