package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ImportStatusUploaded     = "UPLOADED"
	ImportStatusProcessing   = "PROCESSING"
	ImportStatusPreviewReady = "PREVIEW_READY"
	ImportStatusCommitting   = "COMMITTING"
	ImportStatusCommitted    = "COMMITTED"
	ImportStatusFailed       = "FAILED"
)

// Row outcomes recorded in the import audit trail.
const (
	ImportRowCreated = "created"
	ImportRowUpdated = "updated"
	ImportRowSkipped = "skipped"
	ImportRowError   = "error"
)

// ImportRun is one execution of the spreadsheet ingestion pipeline, from
// upload through preview to commit. Runs and their row logs are immutable
// once written; they are the audit trail and are never deleted by the app.
type ImportRun struct {
	ID       uuid.UUID `db:"id"        json:"id"`
	OwnerUID *string   `db:"owner_uid" json:"owner_uid,omitempty"`

	Entity     string `db:"entity"      json:"entity"`
	SourceFile string `db:"source_file" json:"source_file"`
	Status     string `db:"status"      json:"status"`

	RowsTotal   int `db:"rows_total"   json:"rows_total"`
	RowsValid   int `db:"rows_valid"   json:"rows_valid"`
	RowsWarning int `db:"rows_warning" json:"rows_warning"`
	RowsError   int `db:"rows_error"   json:"rows_error"`

	Created int `db:"created" json:"created"`
	Updated int `db:"updated" json:"updated"`
	Skipped int `db:"skipped" json:"skipped"`

	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CompletedAt  *time.Time `db:"completed_at"  json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// ImportRowLog is one per-row outcome inside a run, ordered by RowIndex.
type ImportRowLog struct {
	ID       int64   `db:"id"        json:"id"`
	OwnerUID *string `db:"owner_uid" json:"owner_uid,omitempty"`

	RunID    uuid.UUID `db:"run_id"    json:"run_id"`
	RowIndex int       `db:"row_index" json:"row_index"`
	Outcome  string    `db:"outcome"   json:"outcome"`
	Note     string    `db:"note"      json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
