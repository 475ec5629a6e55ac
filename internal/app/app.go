// Package app is the composition root. It wires the persistence, storage,
// search, notification and service layers into a running unit so the API
// entrypoint stays thin.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docrepo/internal/config"
	"docrepo/internal/database"
	"docrepo/internal/database/migration"
	"docrepo/internal/event"
	identitypg "docrepo/internal/identity/postgres"
	"docrepo/internal/indexer"
	"docrepo/internal/notify"
	"docrepo/internal/repository/postgres"
	searchsqlite "docrepo/internal/search/sqlite"
	"docrepo/internal/service"
	"docrepo/internal/storage"
)

// App holds the wired application components.
type App struct {
	Config     *config.AppConfig
	DB         *sql.DB
	Store      storage.Storage
	Index      *searchsqlite.Index
	Dispatcher *event.Dispatcher
	Notifier   notify.Notifier
	Documents  service.DocumentService
	Approvals  service.ApprovalService

	closers []func() error
}

// New builds the full application from configuration. The returned App owns
// its resources; call Close when done.
func New(ctx context.Context, cfg *config.AppConfig, loc *time.Location) (*App, error) {
	a := &App{Config: cfg}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		a.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	store, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("initializing object storage: %w", err)
	}
	a.Store = store

	idx, err := searchsqlite.NewIndex(cfg.Search.DataDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	a.Index = idx
	a.closers = append(a.closers, idx.Close)

	// Approval notifications go to Kafka when brokers are configured,
	// otherwise to the application log.
	if len(cfg.Kafka.Brokers) > 0 {
		kn := notify.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.Notifier = kn
		a.closers = append(a.closers, kn.Close)
	} else {
		a.Notifier = notify.NewLogNotifier()
	}

	// Document writes fan out to the search indexer after they commit.
	docIndexer := indexer.New(store, idx)
	a.Dispatcher = event.NewDispatcher()
	a.Dispatcher.Subscribe(docIndexer)

	docRepo := postgres.NewDocumentPostgres(db)
	approvalRepo := postgres.NewApprovalRequestPostgres(db)
	directory := identitypg.NewDirectory(db)

	a.Documents = service.NewDocumentService(store, docRepo, idx, docIndexer, a.Dispatcher, cfg.Upload)
	a.Approvals = service.NewApprovalService(approvalRepo, docRepo, directory, a.Notifier)

	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
