package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docrepo/internal/model"
	"docrepo/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

var approvalTestColumns = []string{
	"id", "document_id", "project_id", "submitted_by_id", "status",
	"approved_by_id", "disapproved_by_id", "disapproval_reason", "created_at", "updated_at",
}

func approvalRow(id, status string, now time.Time) *sqlmock.Rows {
	var approvedBy, declinedBy, reason any
	switch status {
	case "APPROVED":
		approvedBy = "manager-1"
	case "DECLINED":
		declinedBy = "manager-1"
		reason = "incomplete"
	}
	return sqlmock.NewRows(approvalTestColumns).
		AddRow(id, "doc-1", "proj-1", "user-1", status, approvedBy, declinedBy, reason, now, now)
}

func TestApprovalRequestPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRequestPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	req := &model.ApprovalRequest{
		ID:            "req-1",
		DocumentID:    "doc-1",
		ProjectID:     "proj-1",
		SubmittedByID: "user-1",
		Status:        model.ApprovalPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO approval_requests").
			WithArgs(req.ID, req.DocumentID, req.ProjectID, req.SubmittedByID, "PENDING", now, now).
			WillReturnRows(approvalRow("req-1", "PENDING", now))

		out, err := repo.Create(ctx, req)

		assert.NoError(t, err)
		assert.NotNil(t, out)
		assert.Equal(t, model.ApprovalPending, out.Status)
		assert.Empty(t, out.ApprovedByID)
	})

	t.Run("duplicate pending", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO approval_requests").
			WithArgs(req.ID, req.DocumentID, req.ProjectID, req.SubmittedByID, "PENDING", now, now).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_approval_requests_pending"})

		out, err := repo.Create(ctx, req)

		assert.Nil(t, out)
		assert.ErrorIs(t, err, repository.ErrDuplicatePending)
	})
}

func TestApprovalRequestPostgres_FindPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRequestPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM approval_requests WHERE document_id = (.+) AND project_id = (.+) AND status = 'PENDING'").
			WithArgs("doc-1", "proj-1").
			WillReturnRows(approvalRow("req-1", "PENDING", time.Now()))

		out, err := repo.FindPending(ctx, "doc-1", "proj-1")

		assert.NoError(t, err)
		assert.Equal(t, "req-1", out.ID)
	})

	t.Run("none", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM approval_requests").
			WithArgs("doc-1", "proj-2").
			WillReturnError(sql.ErrNoRows)

		out, err := repo.FindPending(ctx, "doc-1", "proj-2")

		assert.Nil(t, out)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestApprovalRequestPostgres_Approve(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRequestPostgres(db)
	ctx := context.Background()

	t.Run("success links project", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE approval_requests").
			WithArgs("req-1", "manager-1").
			WillReturnRows(approvalRow("req-1", "APPROVED", time.Now()))
		mock.ExpectExec("INSERT INTO project_documents").
			WithArgs("proj-1", "doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		out, err := repo.Approve(ctx, "req-1", "manager-1")

		assert.NoError(t, err)
		assert.Equal(t, model.ApprovalApproved, out.Status)
		assert.Equal(t, "manager-1", out.ApprovedByID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("link failure rolls back the transition", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE approval_requests").
			WithArgs("req-1", "manager-1").
			WillReturnRows(approvalRow("req-1", "APPROVED", time.Now()))
		mock.ExpectExec("INSERT INTO project_documents").
			WithArgs("proj-1", "doc-1").
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		out, err := repo.Approve(ctx, "req-1", "manager-1")

		assert.Nil(t, out)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already terminal", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE approval_requests").
			WithArgs("req-1", "manager-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT status FROM approval_requests").
			WithArgs("req-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("DECLINED"))
		mock.ExpectRollback()

		out, err := repo.Approve(ctx, "req-1", "manager-1")

		assert.Nil(t, out)
		assert.ErrorIs(t, err, repository.ErrNotPending)
	})

	t.Run("missing request", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("UPDATE approval_requests").
			WithArgs("nope", "manager-1").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT status FROM approval_requests").
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		out, err := repo.Approve(ctx, "nope", "manager-1")

		assert.Nil(t, out)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestApprovalRequestPostgres_Decline(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewApprovalRequestPostgres(db)
	ctx := context.Background()

	t.Run("success with reason", func(t *testing.T) {
		mock.ExpectQuery("UPDATE approval_requests").
			WithArgs("req-1", "manager-1", sql.NullString{String: "incomplete", Valid: true}).
			WillReturnRows(approvalRow("req-1", "DECLINED", time.Now()))

		out, err := repo.Decline(ctx, "req-1", "manager-1", "incomplete")

		assert.NoError(t, err)
		assert.Equal(t, model.ApprovalDeclined, out.Status)
		assert.Equal(t, "manager-1", out.DisapprovedByID)
		assert.Equal(t, "incomplete", out.DisapprovalReason)
	})

	t.Run("already terminal", func(t *testing.T) {
		mock.ExpectQuery("UPDATE approval_requests").
			WithArgs("req-1", "manager-1", sql.NullString{}).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery("SELECT status FROM approval_requests").
			WithArgs("req-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("APPROVED"))

		out, err := repo.Decline(ctx, "req-1", "manager-1", "")

		assert.Nil(t, out)
		assert.ErrorIs(t, err, repository.ErrNotPending)
	})
}
