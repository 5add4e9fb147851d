package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
)

// --- Mocks ---

// MockListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) CreateListing(ctx context.Context, ownerID string, in services.CreateListingInput) (*models.Listing, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) UpdateListing(ctx context.Context, listingID, userID string, updates map[string]interface{}) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) MarkSold(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) MarkActive(ctx context.Context, listingID, userID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) DeleteListing(ctx context.Context, listingID, userID string) error {
	args := m.Called(ctx, listingID, userID)
	return args.Error(0)
}

func (m *MockListingService) SearchListings(ctx context.Context, query *string, category *models.Category, limit int, cursor *string) ([]models.Listing, string, error) {
	args := m.Called(ctx, query, category, limit, cursor)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]models.Listing), args.String(1), args.Error(2)
}

func (m *MockListingService) FindListingsByOwner(ctx context.Context, ownerID string, status models.ListingStatus) ([]models.Listing, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingService) CountListingsByOwner(ctx context.Context, ownerID string) (models.ListingCounts, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(models.ListingCounts), args.Error(1)
}

func (m *MockListingService) AddImageToListing(ctx context.Context, listingID, imageURL string) error {
	args := m.Called(ctx, listingID, imageURL)
	return args.Error(0)
}

func (m *MockListingService) ViewerRoleFor(ctx context.Context, listingID, userID string) (services.ViewerRole, error) {
	args := m.Called(ctx, listingID, userID)
	return args.Get(0).(services.ViewerRole), args.Error(1)
}

// MockThreadService
type MockThreadService struct {
	mock.Mock
}

func (m *MockThreadService) StartThread(ctx context.Context, buyerID, listingID, body string) (*models.Thread, bool, error) {
	args := m.Called(ctx, buyerID, listingID, body)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Thread), args.Bool(1), args.Error(2)
}

func (m *MockThreadService) ListInbox(ctx context.Context, userID string) ([]models.ThreadSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ThreadSummary), args.Error(1)
}

func (m *MockThreadService) GetThread(ctx context.Context, threadID, userID string) (*models.Thread, []models.Message, error) {
	args := m.Called(ctx, threadID, userID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Thread), args.Get(1).([]models.Message), args.Error(2)
}

// MockMessageService
type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) AppendMessage(ctx context.Context, userID, threadID, body string) (*models.Message, error) {
	args := m.Called(ctx, userID, threadID, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// MockS3Storage
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) GeneratePresignedPutURL(ctx context.Context, userID, listingID, filename, contentType string) (string, string, error) {
	args := m.Called(ctx, userID, listingID, filename, contentType)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockS3Storage) PublicURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// MockEnqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// MockAuthProvider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) GetUser(ctx context.Context, accessToken string) (*models.AuthUser, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthUser), args.Error(1)
}

func (m *MockAuthProvider) ExchangeCode(ctx context.Context, code string) (*auth.TokenPair, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *MockAuthProvider) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenPair), args.Error(1)
}

func (m *MockAuthProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

func (m *MockAuthProvider) AdminGetUser(ctx context.Context, userID string) (*models.AuthUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthUser), args.Error(1)
}
