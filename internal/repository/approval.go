package repository

import (
	"context"
	"errors"

	"docrepo/internal/model"
)

var (
	// ErrDuplicatePending is returned by Create when a PENDING request
	// already exists for the same (document, project) pair.
	ErrDuplicatePending = errors.New("pending approval request already exists")

	// ErrNotPending is returned by Approve/Decline when the request exists
	// but is no longer PENDING; the caller lost a race or repeats a
	// terminal transition.
	ErrNotPending = errors.New("approval request is not pending")
)

// ApprovalRequestRepository defines data access for approval requests.
// Approve and Decline run their status transition and any associated writes
// inside a single database transaction; the conditional PENDING check is the
// race guard that lets concurrent terminal transitions commit exactly once.
type ApprovalRequestRepository interface {
	// Create inserts a new PENDING request.
	Create(ctx context.Context, req *model.ApprovalRequest) (*model.ApprovalRequest, error)

	// FindByID returns a request by its ID.
	FindByID(ctx context.Context, id string) (*model.ApprovalRequest, error)

	// FindPending returns the PENDING request for the pair, or sql.ErrNoRows.
	FindPending(ctx context.Context, documentID, projectID string) (*model.ApprovalRequest, error)

	// Approve atomically sets status APPROVED, records the approver and
	// links the document to the request's project (idempotent link).
	Approve(ctx context.Context, requestID, approverID string) (*model.ApprovalRequest, error)

	// Decline atomically sets status DECLINED and records the decliner and
	// optional reason. Decline does not link the document to the project.
	Decline(ctx context.Context, requestID, declinerID, reason string) (*model.ApprovalRequest, error)
}
