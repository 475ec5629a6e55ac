package mocks

import (
	"context"

	"docrepo/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockApprovalRequestRepository struct {
	mock.Mock
}

func (m *MockApprovalRequestRepository) Create(ctx context.Context, req *model.ApprovalRequest) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) FindByID(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) FindPending(ctx context.Context, documentID, projectID string) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, documentID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) Approve(ctx context.Context, requestID, approverID string) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, requestID, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRequestRepository) Decline(ctx context.Context, requestID, declinerID, reason string) (*model.ApprovalRequest, error) {
	args := m.Called(ctx, requestID, declinerID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ApprovalRequest), args.Error(1)
}
