package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// ExportOperation is a background job that fetches a song and writes the
// rendered lyric page to the output directory.
type ExportOperation struct {
	ID              string
	Site            string
	Endpoint        string
	Title           sql.NullString
	Status          string
	Progress        int
	ProgressMessage sql.NullString
	ErrorMessage    sql.NullString
	OutputPath      sql.NullString
	Metadata        json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     sql.NullTime
}

// FetchHistory records a successful lyric fetch.
type FetchHistory struct {
	ID        int64
	Site      string
	Endpoint  string
	Title     sql.NullString
	FetchedAt time.Time
}

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
