package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicegen/internal/assets"
)

// MockAssetProvider is a mock implementation of assets.Provider.
type MockAssetProvider struct {
	mock.Mock
}

func (m *MockAssetProvider) Get(ctx context.Context, name string) (*assets.Asset, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assets.Asset), args.Error(1)
}
