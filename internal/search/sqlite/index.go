// Package sqlite implements the search index on an embedded SQLite FTS5
// table. The index is a derived store: it can always be rebuilt from the
// primary database and blob storage.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"docrepo/internal/search"
)

// tagBoost is the score contribution of an exact tag match, added on top of
// any text relevance for the same document.
const tagBoost = 1.0

// Index stores document projections in a single FTS5 virtual table.
// doc_id, tags and visibility ride along unindexed; only the text columns
// participate in MATCH.
type Index struct {
	db   *sql.DB
	path string
}

var _ search.Index = (*Index)(nil)

// NewIndex opens (or creates) the index database under dataDir.
func NewIndex(dataDir string) (*Index, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("search data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "search.db")

	// WAL keeps concurrent readers cheap while the indexer writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening search database: %w", err)
	}

	const schema = `
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			original_filename,
			description,
			file_type,
			content_type,
			content,
			doc_id UNINDEXED,
			tags UNINDEXED,
			visibility UNINDEXED,
			tokenize = 'unicode61'
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating search schema: %w", err)
	}

	return &Index{db: db, path: dbPath}, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Upsert replaces the indexed projection for a document. Delete-then-insert
// keeps the operation idempotent; FTS5 has no native upsert.
func (i *Index) Upsert(ctx context.Context, p search.Projection) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents_fts WHERE doc_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clearing previous entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents_fts (original_filename, description, file_type, content_type, content, doc_id, tags, visibility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.OriginalFilename, p.Description, p.FileType, p.ContentType, p.Content,
		p.ID, strings.Join(p.Tags, ","), p.Visibility)
	if err != nil {
		return fmt.Errorf("indexing document: %w", err)
	}

	return tx.Commit()
}

// Delete removes a document from the index. Missing entries are not an error.
func (i *Index) Delete(ctx context.Context, id string) error {
	if _, err := i.db.ExecContext(ctx, `DELETE FROM documents_fts WHERE doc_id = ?`, id); err != nil {
		return fmt.Errorf("deleting indexed document: %w", err)
	}
	return nil
}

// Search runs the text clause and the tag clause as separate statements and
// merges the hits in memory, summing scores for documents both clauses
// surface. FTS5 cannot mix a MATCH with non-MATCH alternatives in one WHERE,
// so the union happens here.
func (i *Index) Search(ctx context.Context, q search.Query) ([]search.Hit, error) {
	q = q.Normalized()

	scores := make(map[string]float64)

	if q.Text != "" {
		if err := i.searchText(ctx, q, scores); err != nil {
			return nil, err
		}
	}
	if q.Tag != "" {
		if err := i.searchTag(ctx, q, scores); err != nil {
			return nil, err
		}
	}
	if q.Text == "" && q.Tag == "" {
		if err := i.listAll(ctx, q, scores); err != nil {
			return nil, err
		}
	}

	hits := make([]search.Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, search.Hit{ID: id, Score: score})
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].ID < hits[b].ID
	})

	if q.From >= len(hits) {
		return []search.Hit{}, nil
	}
	hits = hits[q.From:]
	if len(hits) > q.Size {
		hits = hits[:q.Size]
	}
	return hits, nil
}

func (i *Index) searchText(ctx context.Context, q search.Query, scores map[string]float64) error {
	match := matchExpr(q.Text)
	if match == "" {
		return nil
	}

	// bm25 weights follow the table's column order; the filename dominates
	// and the unindexed columns contribute nothing.
	query := `
		SELECT doc_id, -bm25(documents_fts, 3.0, 1.0, 1.0, 1.0, 1.0, 0.0, 0.0, 0.0) AS score
		FROM documents_fts
		WHERE documents_fts MATCH ?`
	args := []any{match}
	if q.Visibility != nil {
		query += ` AND visibility = ?`
		args = append(args, string(*q.Visibility))
	}

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying text match: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return fmt.Errorf("scanning text hit: %w", err)
		}
		scores[id] += score
	}
	return rows.Err()
}

func (i *Index) searchTag(ctx context.Context, q search.Query, scores map[string]float64) error {
	query := `
		SELECT doc_id
		FROM documents_fts
		WHERE ',' || tags || ',' LIKE '%,' || ? || ',%' ESCAPE '\'`
	args := []any{escapeLike(q.Tag)}
	if q.Visibility != nil {
		query += ` AND visibility = ?`
		args = append(args, string(*q.Visibility))
	}

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying tag match: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning tag hit: %w", err)
		}
		scores[id] += tagBoost
	}
	return rows.Err()
}

func (i *Index) listAll(ctx context.Context, q search.Query, scores map[string]float64) error {
	query := `SELECT doc_id FROM documents_fts`
	var args []any
	if q.Visibility != nil {
		query += ` WHERE visibility = ?`
		args = append(args, string(*q.Visibility))
	}

	rows, err := i.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("listing indexed documents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning indexed document: %w", err)
		}
		scores[id] += 0
	}
	return rows.Err()
}

// escapeLike neutralizes LIKE wildcards in a tag value so the comparison
// stays an exact set-membership check.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// matchExpr turns free text into an FTS5 expression. Each token is quoted so
// user input cannot inject FTS syntax, and tokens are OR-ed so any term is
// enough to match.
func matchExpr(text string) string {
	fields := strings.Fields(text)
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ReplaceAll(f, `"`, `""`)
		terms = append(terms, `"`+f+`"`)
	}
	return strings.Join(terms, " OR ")
}
