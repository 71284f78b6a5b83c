package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrOperationNotFound is returned when an export operation does not exist.
var ErrOperationNotFound = errors.New("operation not found")

// CreateExportOperation inserts a new pending export operation.
func CreateExportOperation(op *ExportOperation) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	metadata := op.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	query := `
		INSERT INTO export_operations (id, site, endpoint, title, status, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query,
		op.ID,
		op.Site,
		op.Endpoint,
		nullableString(op.Title),
		StatusPending,
		string(metadata),
	)
	if err != nil {
		return fmt.Errorf("failed to create export operation: %w", err)
	}
	return nil
}

// GetExportOperation retrieves an export operation by ID.
func GetExportOperation(id string) (*ExportOperation, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT id, site, endpoint, title, status, progress, progress_message,
		       error_message, output_path, metadata, created_at, updated_at, completed_at
		FROM export_operations
		WHERE id = ?
	`

	var op ExportOperation
	var metadata sql.NullString
	err := db.QueryRow(query, id).Scan(
		&op.ID, &op.Site, &op.Endpoint, &op.Title, &op.Status, &op.Progress,
		&op.ProgressMessage, &op.ErrorMessage, &op.OutputPath, &metadata,
		&op.CreatedAt, &op.UpdatedAt, &op.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export operation: %w", err)
	}
	if metadata.Valid {
		op.Metadata = []byte(metadata.String)
	}
	return &op, nil
}

// ListPendingOperations returns the IDs of pending operations, oldest first.
func ListPendingOperations() ([]string, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT id FROM export_operations
		WHERE status = ?
		ORDER BY created_at ASC
	`
	rows, err := db.Query(query, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending operations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan operation ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateOperationStatus updates an operation's status and progress. A
// completed or failed status also stamps completed_at.
func UpdateOperationStatus(id, status string, progress int, progressMessage, errorMessage string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `
		UPDATE export_operations
		SET status = ?, progress = ?, progress_message = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if status == StatusCompleted || status == StatusFailed {
		query = `
			UPDATE export_operations
			SET status = ?, progress = ?, progress_message = ?, error_message = ?,
			    updated_at = CURRENT_TIMESTAMP, completed_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`
	}

	if _, err := db.Exec(query, status, progress, progressMessage, errorMessage, id); err != nil {
		return fmt.Errorf("failed to update operation status: %w", err)
	}
	return nil
}

// SetOperationOutput records the path of the rendered lyric page.
func SetOperationOutput(id, outputPath string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `UPDATE export_operations SET output_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := db.Exec(query, outputPath, id); err != nil {
		return fmt.Errorf("failed to set operation output: %w", err)
	}
	return nil
}

// FailStaleOperations marks operations stuck in pending or in_progress for
// longer than the given number of minutes as failed. Staleness is measured
// from the last update, so an operation still reporting progress survives.
// It returns the number of operations affected.
func FailStaleOperations(olderThanMinutes int) (int64, error) {
	db := GetDB()
	if db == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := fmt.Sprintf(`
		UPDATE export_operations
		SET status = ?,
		    error_message = 'Operation timed out - worker may have been unavailable',
		    updated_at = CURRENT_TIMESTAMP,
		    completed_at = CURRENT_TIMESTAMP
		WHERE status IN (?, ?)
		AND updated_at <= datetime('now', '-%d minutes')
	`, olderThanMinutes)

	result, err := db.Exec(query, StatusFailed, StatusPending, StatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to fail stale operations: %w", err)
	}
	return result.RowsAffected()
}

// Helper function to handle nullable strings
func nullableString(ns sql.NullString) interface{} {
	if ns.Valid {
		return ns.String
	}
	return nil
}
