// Package notify delivers approval lifecycle notifications. Delivery is
// fire-and-forget from the caller's perspective: a failed send never rolls
// back or fails the transition that triggered it.
package notify

import (
	"context"
	"time"
)

// ApprovalNotice carries the context of an approval transition.
type ApprovalNotice struct {
	RequestID        string    `json:"request_id"`
	DocumentID       string    `json:"document_id"`
	OriginalFilename string    `json:"original_filename"`
	ProjectID        string    `json:"project_id"`
	ActorID          string    `json:"actor_id"`
	Reason           string    `json:"reason,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

// Notifier sends approval lifecycle notifications.
type Notifier interface {
	// SendApprovalRequested notifies the project managers that a document
	// awaits their sign-off.
	SendApprovalRequested(ctx context.Context, managerIDs []string, notice ApprovalNotice) error

	// SendApproved notifies the submitter that the request was approved.
	SendApproved(ctx context.Context, submitterID string, notice ApprovalNotice) error

	// SendDeclined notifies the submitter that the request was declined.
	SendDeclined(ctx context.Context, submitterID string, notice ApprovalNotice) error
}
