package model

import "time"

// ApprovalStatus is the state of an approval request.
// PENDING is the only non-terminal state; APPROVED and DECLINED are terminal
// and a request never leaves a terminal state.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalDeclined ApprovalStatus = "DECLINED"
)

// Terminal reports whether the status permits no further transitions.
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalApproved || s == ApprovalDeclined
}

// ApprovalRequest tracks a document's submission for project-level sign-off.
// Created only by submission; mutated only by approve/decline; never deleted.
type ApprovalRequest struct {
	ID                string         `json:"id"`
	DocumentID        string         `json:"document_id"`
	ProjectID         string         `json:"project_id"`
	SubmittedByID     string         `json:"submitted_by_id"`
	Status            ApprovalStatus `json:"status"`
	ApprovedByID      string         `json:"approved_by_id,omitempty"`
	DisapprovedByID   string         `json:"disapproved_by_id,omitempty"`
	DisapprovalReason string         `json:"disapproval_reason,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
