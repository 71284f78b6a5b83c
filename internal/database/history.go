package database

import (
	"fmt"
)

// RecordFetch logs a successful lyric fetch to the history table.
func RecordFetch(site, endpoint, title string) error {
	db := GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	query := `INSERT INTO fetch_history (site, endpoint, title) VALUES (?, ?, ?)`
	var titleArg interface{}
	if title != "" {
		titleArg = title
	}
	if _, err := db.Exec(query, site, endpoint, titleArg); err != nil {
		return fmt.Errorf("failed to record fetch: %w", err)
	}
	return nil
}

// RecentFetches returns the most recent fetch history entries.
func RecentFetches(limit int) ([]FetchHistory, error) {
	db := GetDB()
	if db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT id, site, endpoint, title, fetched_at
		FROM fetch_history
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch history: %w", err)
	}
	defer rows.Close()

	var entries []FetchHistory
	for rows.Next() {
		var entry FetchHistory
		if err := rows.Scan(&entry.ID, &entry.Site, &entry.Endpoint, &entry.Title, &entry.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fetch history: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
