package mocks

import (
	"context"

	"docrepo/internal/search"
	"github.com/stretchr/testify/mock"
)

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Upsert(ctx context.Context, p search.Projection) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockIndex) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockIndex) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Hit), args.Error(1)
}
