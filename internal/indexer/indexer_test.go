package indexer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"docrepo/internal/event"
	"docrepo/internal/model"
	"docrepo/internal/search"
	searchmocks "docrepo/internal/search/mocks"
	"docrepo/internal/storage"
	storagemocks "docrepo/internal/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func textDoc() model.Document {
	return model.Document{
		ID:               "doc-1",
		Filename:         "key-1.txt",
		OriginalFilename: "notes.txt",
		ContentType:      "text/plain",
		Tags:             []string{"ops"},
		Visibility:       model.VisibilityPublic,
	}
}

func TestIndexer_CreatedEventIndexesContent(t *testing.T) {
	store := new(storagemocks.MockStorage)
	index := new(searchmocks.MockIndex)
	doc := textDoc()

	store.On("Get", mock.Anything, doc.Filename).
		Return(io.NopCloser(strings.NewReader("weekly ops checklist")), storage.ObjectInfo{Key: doc.Filename}, nil)
	index.On("Upsert", mock.Anything, search.Projection{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		ContentType:      doc.ContentType,
		Content:          "weekly ops checklist",
		Tags:             doc.Tags,
		Visibility:       "PUBLIC",
	}).Return(nil)

	idx := New(store, index)
	idx.Handle(context.Background(), event.DocumentEvent{Type: event.DocumentCreated, Document: doc})

	store.AssertExpectations(t)
	index.AssertExpectations(t)
}

func TestIndexer_FetchFailureStillIndexesMetadata(t *testing.T) {
	store := new(storagemocks.MockStorage)
	index := new(searchmocks.MockIndex)
	doc := textDoc()

	store.On("Get", mock.Anything, doc.Filename).
		Return(nil, storage.ObjectInfo{}, errors.New("connection refused"))
	index.On("Upsert", mock.Anything, mock.MatchedBy(func(p search.Projection) bool {
		return p.ID == doc.ID && p.Content == "" && p.OriginalFilename == doc.OriginalFilename
	})).Return(nil)

	idx := New(store, index)
	idx.Handle(context.Background(), event.DocumentEvent{Type: event.DocumentUpdated, Document: doc})

	index.AssertExpectations(t)
}

func TestIndexer_IndexFailureIsSwallowed(t *testing.T) {
	store := new(storagemocks.MockStorage)
	index := new(searchmocks.MockIndex)
	doc := textDoc()

	store.On("Get", mock.Anything, doc.Filename).
		Return(io.NopCloser(strings.NewReader("text")), storage.ObjectInfo{}, nil)
	index.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("index locked"))

	idx := New(store, index)
	assert.NotPanics(t, func() {
		idx.Handle(context.Background(), event.DocumentEvent{Type: event.DocumentCreated, Document: doc})
	})
}

func TestIndexer_DeletedEventRemovesEntry(t *testing.T) {
	store := new(storagemocks.MockStorage)
	index := new(searchmocks.MockIndex)
	doc := textDoc()

	index.On("Delete", mock.Anything, doc.ID).Return(nil)

	idx := New(store, index)
	idx.Handle(context.Background(), event.DocumentEvent{Type: event.DocumentDeleted, Document: doc})

	index.AssertExpectations(t)
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}
