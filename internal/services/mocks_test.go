package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/port"
)

// --- Mocks ---

// MockListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, in port.NewListing) (*models.Listing, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*models.Listing, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) SetStatus(ctx context.Context, id string, status models.ListingStatus, soldAt *time.Time) error {
	args := m.Called(ctx, id, status, soldAt)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) Search(ctx context.Context, f port.ListingSearch) ([]models.Listing, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByOwner(ctx context.Context, ownerID string, status models.ListingStatus) ([]models.Listing, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) CountByOwner(ctx context.Context, ownerID string) (models.ListingCounts, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(models.ListingCounts), args.Error(1)
}

func (m *MockListingRepository) AppendImageURL(ctx context.Context, id, url string, maxPhotos int) (bool, error) {
	args := m.Called(ctx, id, url, maxPhotos)
	return args.Bool(0), args.Error(1)
}

// MockThreadRepository
type MockThreadRepository struct {
	mock.Mock
}

func (m *MockThreadRepository) FindByID(ctx context.Context, id string) (*models.Thread, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockThreadRepository) FindByListingAndBuyer(ctx context.Context, listingID, buyerID string) (*models.Thread, error) {
	args := m.Called(ctx, listingID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Thread), args.Error(1)
}

func (m *MockThreadRepository) CreateOrGet(ctx context.Context, listingID, buyerID, sellerID string, now time.Time) (*models.Thread, bool, error) {
	args := m.Called(ctx, listingID, buyerID, sellerID, now)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Thread), args.Bool(1), args.Error(2)
}

func (m *MockThreadRepository) ListForUser(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ThreadSummary), args.Error(1)
}

func (m *MockThreadRepository) TouchLastMessage(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockMessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Insert(ctx context.Context, threadID, senderID, body string) (*models.Message, error) {
	args := m.Called(ctx, threadID, senderID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockMessageRepository) ListByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	args := m.Called(ctx, threadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) MessageSent(ctx context.Context, thread *models.Thread, message *models.Message, recipientID string) error {
	args := m.Called(ctx, thread, message, recipientID)
	return args.Error(0)
}
