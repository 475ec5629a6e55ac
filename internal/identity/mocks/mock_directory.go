package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) UserExists(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) IsMember(ctx context.Context, userID, projectID string) (bool, error) {
	args := m.Called(ctx, userID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) IsManager(ctx context.Context, userID, projectID string) (bool, error) {
	args := m.Called(ctx, userID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) ProjectManagers(ctx context.Context, projectID string) ([]string, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
