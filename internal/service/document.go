package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docrepo/internal/apperr"
	"docrepo/internal/config"
	"docrepo/internal/event"
	"docrepo/internal/model"
	"docrepo/internal/repository"
	"docrepo/internal/search"
	"docrepo/internal/storage"
)

// allowedContentTypes is the ingestion allow-list. Anything else is rejected
// before any byte reaches storage.
var allowedContentTypes = map[string]struct{}{
	"image/png":                     {},
	"image/jpeg":                    {},
	"image/jpg":                     {},
	"application/pdf":               {},
	"application/msword":            {},
	"application/vnd.ms-powerpoint": {},
	"application/vnd.ms-excel":      {},
	"text/plain":                    {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
}

// FileUpload is one file in an ingestion batch.
type FileUpload struct {
	OriginalFilename string
	ContentType      string
	Size             int64
	Reader           io.Reader
}

// UploadMetadata is the shared metadata applied to every file in a batch.
type UploadMetadata struct {
	Description   string
	Tags          []string
	Visibility    model.Visibility
	SharedWithIDs []string
}

// FileFailure records one file that validated but failed to ingest.
type FileFailure struct {
	OriginalFilename string `json:"original_filename"`
	Reason           string `json:"reason"`
}

// BatchResult is the outcome of an ingestion batch. Validation is
// all-or-nothing; past validation, each file succeeds or fails on its own.
type BatchResult struct {
	Created []model.Document `json:"created"`
	Failed  []FileFailure    `json:"failed"`
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// SearchResult pairs the ranked hits with their hydrated documents.
type SearchResult struct {
	Items []model.Document `json:"data"`
	Hits  []search.Hit     `json:"hits"`
}

// DocumentService defines the document lifecycle use cases.
type DocumentService interface {
	// UploadBatch ingests a batch of files sharing one metadata set.
	// The whole batch is validated up front; a single oversized or
	// disallowed file rejects everything. Past validation, files upload
	// concurrently and failures are reported per file.
	UploadBatch(ctx context.Context, uploaderID string, meta UploadMetadata, files []FileUpload) (*BatchResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// List returns documents matching the filter using limit/offset paging.
	List(ctx context.Context, filter repository.DocumentFilter, limit, offset int) (*DocumentListResult, error)

	// Rename changes the user-visible filename. The storage key is untouched.
	Rename(ctx context.Context, id, newName string) (*model.Document, error)

	// SetVisibility flips a document between PUBLIC and PRIVATE.
	SetVisibility(ctx context.Context, id string, v model.Visibility) (*model.Document, error)

	// Delete removes the document's bytes, metadata and index entry.
	Delete(ctx context.Context, id string) error

	// Search runs one free-text query and hydrates the hits from the store.
	// The text matches the weighted document fields and the exact tag set;
	// scope narrows visibility when set.
	Search(ctx context.Context, text string, scope *model.Visibility, from, size int) (*SearchResult, error)

	// Presign returns a time-limited download URL for the document's bytes.
	Presign(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Reindex rebuilds the search index from the document store and
	// returns the number of documents indexed.
	Reindex(ctx context.Context) (int, error)
}

// Reindexer rebuilds one document's index entry from its stored bytes.
type Reindexer interface {
	Upsert(ctx context.Context, doc model.Document) error
}

type documentService struct {
	store      storage.Storage
	repo       repository.DocumentRepository
	index      search.Index
	reindexer  Reindexer
	dispatcher *event.Dispatcher
	upload     config.UploadConfig
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	index search.Index,
	reindexer Reindexer,
	dispatcher *event.Dispatcher,
	upload config.UploadConfig,
) DocumentService {
	return &documentService{
		store:      store,
		repo:       repo,
		index:      index,
		reindexer:  reindexer,
		dispatcher: dispatcher,
		upload:     upload,
	}
}

func (s *documentService) UploadBatch(ctx context.Context, uploaderID string, meta UploadMetadata, files []FileUpload) (*BatchResult, error) {
	if uploaderID == "" {
		return nil, apperr.Validation("uploader id is required")
	}
	if len(files) == 0 {
		return nil, apperr.Validation("at least one file is required")
	}
	if meta.Visibility == "" {
		meta.Visibility = model.VisibilityPrivate
	}
	if !meta.Visibility.Valid() {
		return nil, apperr.Validation("unknown visibility %q", meta.Visibility)
	}

	// Validate the whole batch before touching storage.
	for _, f := range files {
		if f.Reader == nil {
			return nil, apperr.Validation("file %q has no content", f.OriginalFilename)
		}
		if f.Size > s.upload.MaxFileSizeBytes {
			return nil, apperr.Validation("file %q exceeds the %d byte limit", f.OriginalFilename, s.upload.MaxFileSizeBytes)
		}
		if _, ok := allowedContentTypes[f.ContentType]; !ok {
			return nil, apperr.Validation("file %q has disallowed content type %q", f.OriginalFilename, f.ContentType)
		}
	}

	type outcome struct {
		idx     int
		doc     *model.Document
		failure *FileFailure
	}

	var (
		mu       sync.Mutex
		outcomes []outcome
	)

	// Independent group: one file's failure must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(s.upload.BatchConcurrency)
	for idx, f := range files {
		g.Go(func() error {
			doc, err := s.ingestOne(ctx, uploaderID, meta, f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcomes = append(outcomes, outcome{idx: idx, failure: &FileFailure{
					OriginalFilename: f.OriginalFilename,
					Reason:           err.Error(),
				}})
				return nil
			}
			outcomes = append(outcomes, outcome{idx: idx, doc: doc})
			return nil
		})
	}
	g.Wait()

	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].idx < outcomes[b].idx })

	result := &BatchResult{
		Created: make([]model.Document, 0, len(files)),
		Failed:  make([]FileFailure, 0),
	}
	for _, o := range outcomes {
		if o.doc != nil {
			result.Created = append(result.Created, *o.doc)
		} else {
			result.Failed = append(result.Failed, *o.failure)
		}
	}

	// Index sync happens after the rows are committed.
	for _, doc := range result.Created {
		s.dispatcher.Publish(ctx, event.DocumentEvent{Type: event.DocumentCreated, Document: doc})
	}

	return result, nil
}

// ingestOne uploads a single file and records its metadata. The storage
// object is removed again if the database insert fails.
func (s *documentService) ingestOne(ctx context.Context, uploaderID string, meta UploadMetadata, f FileUpload) (*model.Document, error) {
	key := storageKey(f.OriginalFilename)

	objInfo, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: f.ContentType,
		Metadata: map[string]string{
			"original-filename": f.OriginalFilename,
		},
		PartSize:    s.upload.PartSizeBytes,
		Concurrency: s.upload.PartConcurrency,
	})
	if err != nil {
		return nil, apperr.External("upload to storage", err)
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:               uuid.New().String(),
		Filename:         key,
		OriginalFilename: f.OriginalFilename,
		Description:      meta.Description,
		FileType:         fileType(f.OriginalFilename),
		ContentType:      f.ContentType,
		Size:             objInfo.Size,
		Tags:             dedupe(meta.Tags),
		Visibility:       meta.Visibility,
		UploaderID:       uploaderID,
		SharedWithIDs:    dedupe(meta.SharedWithIDs),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("id is required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document %s", id)
		}
		return nil, err
	}
	return doc, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, filter repository.DocumentFilter, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, filter, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Rename changes the user-visible filename and re-syncs the index.
func (s *documentService) Rename(ctx context.Context, id, newName string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("id is required")
	}
	if newName == "" {
		return nil, apperr.Validation("new filename is required")
	}
	doc, err := s.repo.UpdateOriginalFilename(ctx, id, newName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document %s", id)
		}
		return nil, err
	}
	s.dispatcher.Publish(ctx, event.DocumentEvent{Type: event.DocumentUpdated, Document: *doc})
	return doc, nil
}

// SetVisibility flips a document between PUBLIC and PRIVATE and re-syncs
// the index so search reflects the change.
func (s *documentService) SetVisibility(ctx context.Context, id string, v model.Visibility) (*model.Document, error) {
	if id == "" {
		return nil, apperr.Validation("id is required")
	}
	if !v.Valid() {
		return nil, apperr.Validation("unknown visibility %q", v)
	}
	doc, err := s.repo.UpdateVisibility(ctx, id, v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("document %s", id)
		}
		return nil, err
	}
	s.dispatcher.Publish(ctx, event.DocumentEvent{Type: event.DocumentUpdated, Document: *doc})
	return doc, nil
}

// Delete removes a document from storage, then its record, then its index
// entry. Storage goes first so a failure keeps the row pointing at bytes
// that still exist.
func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation("id is required")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("document %s", id)
		}
		return err
	}
	if err := s.store.Delete(ctx, doc.Filename); err != nil {
		return apperr.External("delete storage object", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.dispatcher.Publish(ctx, event.DocumentEvent{Type: event.DocumentDeleted, Document: *doc})
	return nil
}

// Search queries the index and hydrates the hits from the primary store.
// Hits whose document has since been removed are dropped from the result.
func (s *documentService) Search(ctx context.Context, text string, scope *model.Visibility, from, size int) (*SearchResult, error) {
	q := search.BuildQuery(text, scope)
	q.From = from
	q.Size = size

	hits, err := s.index.Search(ctx, q)
	if err != nil {
		return nil, apperr.External("search index", err)
	}

	result := &SearchResult{
		Items: make([]model.Document, 0, len(hits)),
		Hits:  make([]search.Hit, 0, len(hits)),
	}
	for _, hit := range hits {
		doc, err := s.repo.FindByID(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		result.Items = append(result.Items, *doc)
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// Presign returns a time-limited download URL.
func (s *documentService) Presign(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, doc.Filename, expiry)
	if err != nil {
		return "", apperr.External("presign download", err)
	}
	return url, nil
}

// Reindex walks every document page by page and rebuilds its index entry.
func (s *documentService) Reindex(ctx context.Context) (int, error) {
	const pageSize = 100
	count := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.repo.List(ctx, repository.DocumentFilter{}, repository.PageQuery{Limit: pageSize, Offset: offset})
		if err != nil {
			return count, err
		}
		for _, doc := range page.Items {
			if err := s.reindexer.Upsert(ctx, doc); err != nil {
				return count, apperr.External("reindex document "+doc.ID, err)
			}
			count++
		}
		if offset+len(page.Items) >= page.Total || len(page.Items) == 0 {
			return count, nil
		}
	}
}

// storageKey builds the object key: a UUID plus the upload's timestamp in
// milliseconds, keeping the original extension.
func storageKey(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().UnixMilli(), ext)
}

// fileType is the lowercase extension without the dot, e.g. "pdf".
func fileType(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

func dedupe(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
