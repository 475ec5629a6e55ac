package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"docrepo/internal/model"
	"docrepo/internal/repository"
)

const approvalColumns = `id, document_id, project_id, submitted_by_id, status, approved_by_id, disapproved_by_id, disapproval_reason, created_at, updated_at`

// ApprovalRequestPostgres is a PostgreSQL implementation of
// repository.ApprovalRequestRepository.
type ApprovalRequestPostgres struct {
	db *sql.DB
}

// NewApprovalRequestPostgres creates a new ApprovalRequestPostgres repository.
func NewApprovalRequestPostgres(db *sql.DB) *ApprovalRequestPostgres {
	return &ApprovalRequestPostgres{db: db}
}

var _ repository.ApprovalRequestRepository = (*ApprovalRequestPostgres)(nil)

// Create inserts a new PENDING request. A unique violation on the partial
// pending index maps to repository.ErrDuplicatePending.
func (r *ApprovalRequestPostgres) Create(ctx context.Context, req *model.ApprovalRequest) (*model.ApprovalRequest, error) {
	const q = `
		INSERT INTO approval_requests (id, document_id, project_id, submitted_by_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + approvalColumns
	row := r.db.QueryRowContext(ctx, q,
		req.ID,
		req.DocumentID,
		req.ProjectID,
		req.SubmittedByID,
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)
	out, err := scanApprovalRequest(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicatePending
		}
		return nil, err
	}
	return out, nil
}

// FindByID returns a request by its ID.
func (r *ApprovalRequestPostgres) FindByID(ctx context.Context, id string) (*model.ApprovalRequest, error) {
	const q = `SELECT ` + approvalColumns + ` FROM approval_requests WHERE id = $1`
	return scanApprovalRequest(r.db.QueryRowContext(ctx, q, id))
}

// FindPending returns the PENDING request for a (document, project) pair.
func (r *ApprovalRequestPostgres) FindPending(ctx context.Context, documentID, projectID string) (*model.ApprovalRequest, error) {
	const q = `SELECT ` + approvalColumns + ` FROM approval_requests WHERE document_id = $1 AND project_id = $2 AND status = 'PENDING'`
	return scanApprovalRequest(r.db.QueryRowContext(ctx, q, documentID, projectID))
}

// Approve transitions the request to APPROVED and links the document to the
// request's project in the same transaction. The conditional status check
// makes concurrent transitions commit exactly once.
func (r *ApprovalRequestPostgres) Approve(ctx context.Context, requestID, approverID string) (*model.ApprovalRequest, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const q = `
		UPDATE approval_requests
		SET status = 'APPROVED', approved_by_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + approvalColumns
	req, err := scanApprovalRequest(tx.QueryRowContext(ctx, q, requestID, approverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(ctx, requestID)
		}
		return nil, err
	}

	const link = `
		INSERT INTO project_documents (project_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`
	if _, err := tx.ExecContext(ctx, link, req.ProjectID, req.DocumentID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return req, nil
}

// Decline transitions the request to DECLINED with the decliner and optional
// reason. No project association is written.
func (r *ApprovalRequestPostgres) Decline(ctx context.Context, requestID, declinerID, reason string) (*model.ApprovalRequest, error) {
	const q = `
		UPDATE approval_requests
		SET status = 'DECLINED', disapproved_by_id = $2, disapproval_reason = $3, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + approvalColumns
	var reasonArg sql.NullString
	if reason != "" {
		reasonArg = sql.NullString{String: reason, Valid: true}
	}
	req, err := scanApprovalRequest(r.db.QueryRowContext(ctx, q, requestID, declinerID, reasonArg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(ctx, requestID)
		}
		return nil, err
	}
	return req, nil
}

// classifyMiss distinguishes a missing request from one that already left
// PENDING after a conditional update matched no rows.
func (r *ApprovalRequestPostgres) classifyMiss(ctx context.Context, requestID string) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM approval_requests WHERE id = $1`, requestID).Scan(&status)
	if err != nil {
		return err
	}
	return repository.ErrNotPending
}

func scanApprovalRequest(row rowScanner) (*model.ApprovalRequest, error) {
	var (
		req        model.ApprovalRequest
		status     string
		approvedBy sql.NullString
		declinedBy sql.NullString
		reason     sql.NullString
	)
	if err := row.Scan(
		&req.ID,
		&req.DocumentID,
		&req.ProjectID,
		&req.SubmittedByID,
		&status,
		&approvedBy,
		&declinedBy,
		&reason,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.Status = model.ApprovalStatus(status)
	req.ApprovedByID = approvedBy.String
	req.DisapprovedByID = declinedBy.String
	req.DisapprovalReason = reason.String
	return &req, nil
}
