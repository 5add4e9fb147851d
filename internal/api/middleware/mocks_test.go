package middleware_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/models"
)

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
