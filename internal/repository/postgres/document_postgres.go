package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"docrepo/internal/model"
	"docrepo/internal/repository"
)

const documentColumns = `id, filename, original_filename, description, file_type, content_type, size, tags, visibility, uploader_id, shared_with_ids, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (id, filename, original_filename, description, file_type, content_type, size, tags, visibility, uploader_id, shared_with_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.Filename,
		doc.OriginalFilename,
		doc.Description,
		doc.FileType,
		doc.ContentType,
		doc.Size,
		textArray(doc.Tags),
		string(doc.Visibility),
		doc.UploaderID,
		textArray(doc.SharedWithIDs),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns documents matching the filter using LIMIT/OFFSET pagination
// and a total count of the matching rows.
func (r *DocumentPostgres) List(ctx context.Context, filter repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where, args := buildWhere(filter.Predicates(), 1)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`SELECT `+documentColumns+` FROM documents%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, qList, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateOriginalFilename sets a new user-visible name and returns the updated row.
func (r *DocumentPostgres) UpdateOriginalFilename(ctx context.Context, id, name string) (*model.Document, error) {
	const q = `
		UPDATE documents SET original_filename = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q, id, name))
}

// UpdateVisibility sets the visibility and returns the updated row.
func (r *DocumentPostgres) UpdateVisibility(ctx context.Context, id string, v model.Visibility) (*model.Document, error) {
	const q = `
		UPDATE documents SET visibility = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + documentColumns
	return scanDocument(r.db.QueryRowContext(ctx, q, id, string(v)))
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var (
		d          model.Document
		tags       textArray
		visibility string
		shared     textArray
	)
	if err := row.Scan(
		&d.ID,
		&d.Filename,
		&d.OriginalFilename,
		&d.Description,
		&d.FileType,
		&d.ContentType,
		&d.Size,
		&tags,
		&visibility,
		&d.UploaderID,
		&shared,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Tags = tags
	d.Visibility = model.Visibility(visibility)
	d.SharedWithIDs = shared
	return &d, nil
}
