package mocks

import (
	"context"

	"docrepo/internal/notify"
	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendApprovalRequested(ctx context.Context, managerIDs []string, notice notify.ApprovalNotice) error {
	args := m.Called(ctx, managerIDs, notice)
	return args.Error(0)
}

func (m *MockNotifier) SendApproved(ctx context.Context, submitterID string, notice notify.ApprovalNotice) error {
	args := m.Called(ctx, submitterID, notice)
	return args.Error(0)
}

func (m *MockNotifier) SendDeclined(ctx context.Context, submitterID string, notice notify.ApprovalNotice) error {
	args := m.Called(ctx, submitterID, notice)
	return args.Error(0)
}
