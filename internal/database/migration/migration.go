package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  filename          TEXT        NOT NULL UNIQUE,
  original_filename TEXT        NOT NULL,
  description       TEXT        NOT NULL DEFAULT '',
  file_type         TEXT        NOT NULL DEFAULT '',
  content_type      TEXT        NOT NULL,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  tags              TEXT[]      NOT NULL DEFAULT '{}',
  visibility        TEXT        NOT NULL DEFAULT 'PRIVATE' CHECK (visibility IN ('PUBLIC', 'PRIVATE')),
  uploader_id       TEXT        NOT NULL,
  shared_with_ids   TEXT[]      NOT NULL DEFAULT '{}',
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_uploader_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_uploader_id ON documents (uploader_id);`,
	},
	{
		Name: "create_index_documents_content_type",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_content_type ON documents (content_type);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
	{
		Name: "create_table_approval_requests",
		SQL: `CREATE TABLE IF NOT EXISTS approval_requests (
  id                  UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id         UUID        NOT NULL REFERENCES documents (id),
  project_id          TEXT        NOT NULL,
  submitted_by_id     TEXT        NOT NULL,
  status              TEXT        NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'APPROVED', 'DECLINED')),
  approved_by_id      TEXT,
  disapproved_by_id   TEXT,
  disapproval_reason  TEXT,
  created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		// Guards the single-PENDING-per-pair invariant even when two
		// submissions race past the service-level pre-check.
		Name: "create_unique_index_approval_requests_pending",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS uq_approval_requests_pending
  ON approval_requests (document_id, project_id) WHERE status = 'PENDING';`,
	},
	{
		Name: "create_index_approval_requests_document_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_approval_requests_document_id ON approval_requests (document_id);`,
	},
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id         TEXT        PRIMARY KEY,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_project_members",
		SQL: `CREATE TABLE IF NOT EXISTS project_members (
  project_id TEXT NOT NULL,
  user_id    TEXT NOT NULL REFERENCES users (id),
  role       TEXT NOT NULL DEFAULT 'MEMBER' CHECK (role IN ('MEMBER', 'MANAGER')),
  PRIMARY KEY (project_id, user_id)
);`,
	},
	{
		Name: "create_table_project_documents",
		SQL: `CREATE TABLE IF NOT EXISTS project_documents (
  project_id  TEXT NOT NULL,
  document_id UUID NOT NULL REFERENCES documents (id),
  PRIMARY KEY (project_id, document_id)
);`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
