package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"docrepo/internal/apperr"
	"docrepo/internal/identity"
	"docrepo/internal/model"
	"docrepo/internal/notify"
	"docrepo/internal/repository"
)

// ApprovalService runs the approval request state machine. A request is born
// PENDING and moves exactly once to APPROVED or DECLINED; approval also
// associates the document with the project, decline does not.
type ApprovalService interface {
	// Submit opens a PENDING request for a document on a project. The
	// submitter must be a member of the project, and only one PENDING
	// request may exist per (document, project) pair.
	Submit(ctx context.Context, documentID, projectID, submitterID string) (*model.ApprovalRequest, error)

	// Get returns a request by ID.
	Get(ctx context.Context, requestID string) (*model.ApprovalRequest, error)

	// Approve moves a PENDING request to APPROVED. Only a manager of the
	// request's project may approve.
	Approve(ctx context.Context, requestID, approverID string) (*model.ApprovalRequest, error)

	// Decline moves a PENDING request to DECLINED with an optional reason.
	// Only a manager of the request's project may decline.
	Decline(ctx context.Context, requestID, declinerID, reason string) (*model.ApprovalRequest, error)
}

type approvalService struct {
	requests  repository.ApprovalRequestRepository
	documents repository.DocumentRepository
	directory identity.Directory
	notifier  notify.Notifier
}

// NewApprovalService constructs a new ApprovalService.
func NewApprovalService(
	requests repository.ApprovalRequestRepository,
	documents repository.DocumentRepository,
	directory identity.Directory,
	notifier notify.Notifier,
) ApprovalService {
	return &approvalService{
		requests:  requests,
		documents: documents,
		directory: directory,
		notifier:  notifier,
	}
}

func (s *approvalService) Submit(ctx context.Context, documentID, projectID, submitterID string) (*model.ApprovalRequest, error) {
	if documentID == "" || projectID == "" || submitterID == "" {
		return nil, apperr.Validation("document, project and submitter ids are required")
	}

	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document %s", documentID)
		}
		return nil, err
	}

	exists, err := s.directory.UserExists(ctx, submitterID)
	if err != nil {
		return nil, apperr.External("user lookup", err)
	}
	if !exists {
		return nil, apperr.NotFound("user %s", submitterID)
	}

	member, err := s.directory.IsMember(ctx, submitterID, projectID)
	if err != nil {
		return nil, apperr.External("membership lookup", err)
	}
	if !member {
		return nil, apperr.Forbidden("user %s is not a member of project %s", submitterID, projectID)
	}

	if _, err := s.requests.FindPending(ctx, documentID, projectID); err == nil {
		return nil, apperr.Conflict("document %s already has a pending request on project %s", documentID, projectID)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	now := time.Now().UTC()
	req, err := s.requests.Create(ctx, &model.ApprovalRequest{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		ProjectID:     projectID,
		SubmittedByID: submitterID,
		Status:        model.ApprovalPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		// The unique index closes the race the pre-check leaves open.
		if errors.Is(err, repository.ErrDuplicatePending) {
			return nil, apperr.Conflict("document %s already has a pending request on project %s", documentID, projectID)
		}
		return nil, err
	}

	s.notifyManagers(ctx, req, doc.OriginalFilename)
	return req, nil
}

func (s *approvalService) Get(ctx context.Context, requestID string) (*model.ApprovalRequest, error) {
	if requestID == "" {
		return nil, apperr.Validation("request id is required")
	}
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("approval request %s", requestID)
		}
		return nil, err
	}
	return req, nil
}

func (s *approvalService) Approve(ctx context.Context, requestID, approverID string) (*model.ApprovalRequest, error) {
	req, err := s.authorizeTransition(ctx, requestID, approverID)
	if err != nil {
		return nil, err
	}

	updated, err := s.requests.Approve(ctx, requestID, approverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, apperr.Conflict("approval request %s is already %s", requestID, req.Status)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("approval request %s", requestID)
		}
		return nil, err
	}

	s.notifySubmitter(ctx, updated, "approved")
	return updated, nil
}

func (s *approvalService) Decline(ctx context.Context, requestID, declinerID, reason string) (*model.ApprovalRequest, error) {
	req, err := s.authorizeTransition(ctx, requestID, declinerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.requests.Decline(ctx, requestID, declinerID, reason)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, apperr.Conflict("approval request %s is already %s", requestID, req.Status)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("approval request %s", requestID)
		}
		return nil, err
	}

	s.notifySubmitter(ctx, updated, "declined")
	return updated, nil
}

// authorizeTransition loads the request and checks the actor manages its
// project. The terminal-state check itself happens in the repository so
// concurrent transitions stay correct.
func (s *approvalService) authorizeTransition(ctx context.Context, requestID, actorID string) (*model.ApprovalRequest, error) {
	if requestID == "" || actorID == "" {
		return nil, apperr.Validation("request and actor ids are required")
	}

	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("approval request %s", requestID)
		}
		return nil, err
	}

	exists, err := s.directory.UserExists(ctx, actorID)
	if err != nil {
		return nil, apperr.External("user lookup", err)
	}
	if !exists {
		return nil, apperr.NotFound("user %s", actorID)
	}

	manager, err := s.directory.IsManager(ctx, actorID, req.ProjectID)
	if err != nil {
		return nil, apperr.External("role lookup", err)
	}
	if !manager {
		return nil, apperr.Forbidden("user %s does not manage project %s", actorID, req.ProjectID)
	}
	return req, nil
}

// notifyManagers tells the project managers about a new request. Failures
// are logged and swallowed; the request is already committed.
func (s *approvalService) notifyManagers(ctx context.Context, req *model.ApprovalRequest, filename string) {
	managers, err := s.directory.ProjectManagers(ctx, req.ProjectID)
	if err != nil {
		s.logNotifyFailure(req, "manager lookup", err)
		return
	}
	if len(managers) == 0 {
		return
	}
	notice := notify.ApprovalNotice{
		RequestID:        req.ID,
		DocumentID:       req.DocumentID,
		OriginalFilename: filename,
		ProjectID:        req.ProjectID,
		ActorID:          req.SubmittedByID,
		Timestamp:        time.Now().UTC(),
	}
	if err := s.notifier.SendApprovalRequested(ctx, managers, notice); err != nil {
		s.logNotifyFailure(req, "send requested notice", err)
	}
}

// notifySubmitter tells the submitter about a terminal transition. Failures
// are logged and swallowed.
func (s *approvalService) notifySubmitter(ctx context.Context, req *model.ApprovalRequest, outcome string) {
	notice := notify.ApprovalNotice{
		RequestID:  req.ID,
		DocumentID: req.DocumentID,
		ProjectID:  req.ProjectID,
		Reason:     req.DisapprovalReason,
		Timestamp:  time.Now().UTC(),
	}
	var err error
	switch outcome {
	case "approved":
		notice.ActorID = req.ApprovedByID
		err = s.notifier.SendApproved(ctx, req.SubmittedByID, notice)
	case "declined":
		notice.ActorID = req.DisapprovedByID
		err = s.notifier.SendDeclined(ctx, req.SubmittedByID, notice)
	}
	if err != nil {
		s.logNotifyFailure(req, "send "+outcome+" notice", err)
	}
}

func (s *approvalService) logNotifyFailure(req *model.ApprovalRequest, op string, err error) {
	b, mErr := json.Marshal(map[string]any{
		"ts":         time.Now().Format(time.RFC3339Nano),
		"level":      "error",
		"component":  "approval",
		"event":      "notification_failed",
		"status":     "error",
		"op":         op,
		"request_id": req.ID,
		"error":      err.Error(),
	})
	if mErr != nil {
		log.Printf("failed to marshal approval log: %v", mErr)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
