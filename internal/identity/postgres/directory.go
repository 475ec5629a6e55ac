package postgres

import (
	"context"
	"database/sql"
)

// Directory answers user and project membership questions from the users
// and project_members tables. Role data is maintained by the admin tooling;
// this implementation only reads it.
type Directory struct {
	db *sql.DB
}

// NewDirectory constructs a new Directory.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) UserExists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := d.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Directory) IsMember(ctx context.Context, userID, projectID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM project_members
		WHERE user_id = $1 AND project_id = $2
	)`

	var exists bool
	if err := d.db.QueryRowContext(ctx, query, userID, projectID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Directory) IsManager(ctx context.Context, userID, projectID string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM project_members
		WHERE user_id = $1 AND project_id = $2 AND role = 'MANAGER'
	)`

	var exists bool
	if err := d.db.QueryRowContext(ctx, query, userID, projectID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Directory) ProjectManagers(ctx context.Context, projectID string) ([]string, error) {
	query := `SELECT user_id FROM project_members
		WHERE project_id = $1 AND role = 'MANAGER'
		ORDER BY user_id`

	rows, err := d.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var managers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		managers = append(managers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return managers, nil
}
