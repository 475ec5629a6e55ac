package model

import "time"

// Visibility controls who can discover a document through search.
type Visibility string

const (
	VisibilityPublic  Visibility = "PUBLIC"
	VisibilityPrivate Visibility = "PRIVATE"
)

// Valid reports whether v is one of the known visibility values.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Document represents a stored file in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// It can be used across layers (service, storage, search) without coupling to persistence.
//
// Filename is the generated storage key; OriginalFilename is what the
// uploader named the file. Tags and SharedWithIDs carry set semantics:
// no duplicates, order irrelevant.
type Document struct {
	ID               string     `json:"id"`
	Filename         string     `json:"filename"`
	OriginalFilename string     `json:"original_filename"`
	Description      string     `json:"description,omitempty"`
	FileType         string     `json:"file_type"`
	ContentType      string     `json:"content_type"`
	Size             int64      `json:"size"`
	Tags             []string   `json:"tags"`
	Visibility       Visibility `json:"visibility"`
	UploaderID       string     `json:"uploader_id"`
	SharedWithIDs    []string   `json:"shared_with_ids"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
