// Package identity abstracts the user and project directory that approval
// checks consult. The lifecycle core does not own users or projects; it only
// asks membership and role questions.
package identity

import "context"

// Directory answers user and project questions for authorization checks.
type Directory interface {
	// UserExists reports whether the user is known.
	UserExists(ctx context.Context, userID string) (bool, error)

	// IsMember reports whether the user belongs to the project.
	IsMember(ctx context.Context, userID, projectID string) (bool, error)

	// IsManager reports whether the user manages the project.
	IsManager(ctx context.Context, userID, projectID string) (bool, error)

	// ProjectManagers returns the user IDs managing the project.
	ProjectManagers(ctx context.Context, projectID string) ([]string, error)
}
