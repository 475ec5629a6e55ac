package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docrepo/internal/apperr"
	identityMocks "docrepo/internal/identity/mocks"
	"docrepo/internal/model"
	notifyMocks "docrepo/internal/notify/mocks"
	"docrepo/internal/repository"
	repoMocks "docrepo/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type approvalFixture struct {
	requests  *repoMocks.MockApprovalRequestRepository
	documents *repoMocks.MockDocumentRepository
	directory *identityMocks.MockDirectory
	notifier  *notifyMocks.MockNotifier
	svc       ApprovalService
}

func newApprovalFixture() *approvalFixture {
	f := &approvalFixture{
		requests:  new(repoMocks.MockApprovalRequestRepository),
		documents: new(repoMocks.MockDocumentRepository),
		directory: new(identityMocks.MockDirectory),
		notifier:  new(notifyMocks.MockNotifier),
	}
	f.svc = NewApprovalService(f.requests, f.documents, f.directory, f.notifier)
	return f
}

func pendingRequest() *model.ApprovalRequest {
	return &model.ApprovalRequest{
		ID:            "req-1",
		DocumentID:    "doc-1",
		ProjectID:     "proj-1",
		SubmittedByID: "user-1",
		Status:        model.ApprovalPending,
	}
}

func TestApprovalService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path notifies managers", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", OriginalFilename: "report.pdf"}, nil)
		f.directory.On("UserExists", ctx, "user-1").Return(true, nil)
		f.directory.On("IsMember", ctx, "user-1", "proj-1").Return(true, nil)
		f.requests.On("FindPending", ctx, "doc-1", "proj-1").Return(nil, sql.ErrNoRows)
		f.requests.On("Create", ctx, mock.MatchedBy(func(req *model.ApprovalRequest) bool {
			return req.DocumentID == "doc-1" && req.ProjectID == "proj-1" && req.Status == model.ApprovalPending
		})).Return(pendingRequest(), nil)
		f.directory.On("ProjectManagers", ctx, "proj-1").Return([]string{"mgr-1", "mgr-2"}, nil)
		f.notifier.On("SendApprovalRequested", ctx, []string{"mgr-1", "mgr-2"}, mock.Anything).Return(nil)

		req, err := f.svc.Submit(ctx, "doc-1", "proj-1", "user-1")

		require.NoError(t, err)
		assert.Equal(t, model.ApprovalPending, req.Status)
		f.notifier.AssertCalled(t, "SendApprovalRequested", ctx, []string{"mgr-1", "mgr-2"}, mock.Anything)
	})

	t.Run("document not found", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Submit(ctx, "nope", "proj-1", "user-1")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown submitter", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		f.directory.On("UserExists", ctx, "ghost").Return(false, nil)

		_, err := f.svc.Submit(ctx, "doc-1", "proj-1", "ghost")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("submitter not a member", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		f.directory.On("UserExists", ctx, "user-1").Return(true, nil)
		f.directory.On("IsMember", ctx, "user-1", "proj-1").Return(false, nil)

		_, err := f.svc.Submit(ctx, "doc-1", "proj-1", "user-1")

		assert.ErrorIs(t, err, apperr.ErrForbidden)
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate pending found by pre-check", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		f.directory.On("UserExists", ctx, "user-1").Return(true, nil)
		f.directory.On("IsMember", ctx, "user-1", "proj-1").Return(true, nil)
		f.requests.On("FindPending", ctx, "doc-1", "proj-1").Return(pendingRequest(), nil)

		_, err := f.svc.Submit(ctx, "doc-1", "proj-1", "user-1")

		assert.ErrorIs(t, err, apperr.ErrConflict)
		f.requests.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate pending lost race at insert", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		f.directory.On("UserExists", ctx, "user-1").Return(true, nil)
		f.directory.On("IsMember", ctx, "user-1", "proj-1").Return(true, nil)
		f.requests.On("FindPending", ctx, "doc-1", "proj-1").Return(nil, sql.ErrNoRows)
		f.requests.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicatePending)

		_, err := f.svc.Submit(ctx, "doc-1", "proj-1", "user-1")

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("notification failure does not fail the submit", func(t *testing.T) {
		f := newApprovalFixture()
		f.documents.On("FindByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil)
		f.directory.On("UserExists", ctx, "user-1").Return(true, nil)
		f.directory.On("IsMember", ctx, "user-1", "proj-1").Return(true, nil)
		f.requests.On("FindPending", ctx, "doc-1", "proj-1").Return(nil, sql.ErrNoRows)
		f.requests.On("Create", ctx, mock.Anything).Return(pendingRequest(), nil)
		f.directory.On("ProjectManagers", ctx, "proj-1").Return([]string{"mgr-1"}, nil)
		f.notifier.On("SendApprovalRequested", ctx, []string{"mgr-1"}, mock.Anything).
			Return(errors.New("broker down"))

		req, err := f.svc.Submit(ctx, "doc-1", "proj-1", "user-1")

		assert.NoError(t, err)
		assert.NotNil(t, req)
	})
}

func TestApprovalService_Approve(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path notifies submitter", func(t *testing.T) {
		f := newApprovalFixture()
		approved := pendingRequest()
		approved.Status = model.ApprovalApproved
		approved.ApprovedByID = "mgr-1"

		f.requests.On("FindByID", ctx, "req-1").Return(pendingRequest(), nil)
		f.directory.On("UserExists", ctx, "mgr-1").Return(true, nil)
		f.directory.On("IsManager", ctx, "mgr-1", "proj-1").Return(true, nil)
		f.requests.On("Approve", ctx, "req-1", "mgr-1").Return(approved, nil)
		f.notifier.On("SendApproved", ctx, "user-1", mock.Anything).Return(nil)

		req, err := f.svc.Approve(ctx, "req-1", "mgr-1")

		require.NoError(t, err)
		assert.Equal(t, model.ApprovalApproved, req.Status)
		assert.Equal(t, "mgr-1", req.ApprovedByID)
		f.notifier.AssertExpectations(t)
	})

	t.Run("unknown approver", func(t *testing.T) {
		f := newApprovalFixture()
		f.requests.On("FindByID", ctx, "req-1").Return(pendingRequest(), nil)
		f.directory.On("UserExists", ctx, "ghost").Return(false, nil)

		_, err := f.svc.Approve(ctx, "req-1", "ghost")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
		f.requests.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not a manager", func(t *testing.T) {
		f := newApprovalFixture()
		f.requests.On("FindByID", ctx, "req-1").Return(pendingRequest(), nil)
		f.directory.On("UserExists", ctx, "user-1").Return(true, nil)
		f.directory.On("IsManager", ctx, "user-1", "proj-1").Return(false, nil)

		_, err := f.svc.Approve(ctx, "req-1", "user-1")

		assert.ErrorIs(t, err, apperr.ErrForbidden)
		f.requests.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already terminal", func(t *testing.T) {
		f := newApprovalFixture()
		declined := pendingRequest()
		declined.Status = model.ApprovalDeclined

		f.requests.On("FindByID", ctx, "req-1").Return(declined, nil)
		f.directory.On("UserExists", ctx, "mgr-1").Return(true, nil)
		f.directory.On("IsManager", ctx, "mgr-1", "proj-1").Return(true, nil)
		f.requests.On("Approve", ctx, "req-1", "mgr-1").Return(nil, repository.ErrNotPending)

		_, err := f.svc.Approve(ctx, "req-1", "mgr-1")

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("missing request", func(t *testing.T) {
		f := newApprovalFixture()
		f.requests.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Approve(ctx, "nope", "mgr-1")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestApprovalService_Decline(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path records reason and notifies submitter", func(t *testing.T) {
		f := newApprovalFixture()
		declined := pendingRequest()
		declined.Status = model.ApprovalDeclined
		declined.DisapprovedByID = "mgr-1"
		declined.DisapprovalReason = "incomplete"

		f.requests.On("FindByID", ctx, "req-1").Return(pendingRequest(), nil)
		f.directory.On("UserExists", ctx, "mgr-1").Return(true, nil)
		f.directory.On("IsManager", ctx, "mgr-1", "proj-1").Return(true, nil)
		f.requests.On("Decline", ctx, "req-1", "mgr-1", "incomplete").Return(declined, nil)
		f.notifier.On("SendDeclined", ctx, "user-1", mock.MatchedBy(func(n any) bool { return true })).Return(nil)

		req, err := f.svc.Decline(ctx, "req-1", "mgr-1", "incomplete")

		require.NoError(t, err)
		assert.Equal(t, model.ApprovalDeclined, req.Status)
		assert.Equal(t, "incomplete", req.DisapprovalReason)
		f.notifier.AssertExpectations(t)
	})

	t.Run("already terminal", func(t *testing.T) {
		f := newApprovalFixture()
		approved := pendingRequest()
		approved.Status = model.ApprovalApproved

		f.requests.On("FindByID", ctx, "req-1").Return(approved, nil)
		f.directory.On("UserExists", ctx, "mgr-1").Return(true, nil)
		f.directory.On("IsManager", ctx, "mgr-1", "proj-1").Return(true, nil)
		f.requests.On("Decline", ctx, "req-1", "mgr-1", "").Return(nil, repository.ErrNotPending)

		_, err := f.svc.Decline(ctx, "req-1", "mgr-1", "")

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})
}

func TestApprovalService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		f := newApprovalFixture()
		f.requests.On("FindByID", ctx, "req-1").Return(pendingRequest(), nil)

		req, err := f.svc.Get(ctx, "req-1")

		assert.NoError(t, err)
		assert.Equal(t, "req-1", req.ID)
	})

	t.Run("missing", func(t *testing.T) {
		f := newApprovalFixture()
		f.requests.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)

		_, err := f.svc.Get(ctx, "nope")

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
