package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportRun is the audit record written once per completed importer run.
// Imports append without any idempotence guarantee, so these rows are
// the trail of which run inserted what.
type ImportRun struct {
	RunID       string    `json:"run_id"`
	DatasetID   int64     `json:"dataset_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Images      int       `json:"images"`
	Categories  int       `json:"categories"`
	Annotations int       `json:"annotations"`
}

// RecordImportRun inserts the audit row for a finished run. A fresh run
// id is generated when r.RunID is empty.
func (db *DB) RecordImportRun(r *ImportRun) error {
	if r.RunID == "" {
		r.RunID = uuid.NewString()
	}
	_, err := db.Exec(
		`INSERT INTO import_run
		   (run_id, dataset_id, started_at, finished_at, images, categories, annotations)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.DatasetID, r.StartedAt, r.FinishedAt,
		r.Images, r.Categories, r.Annotations,
	)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

// ImportRuns returns the audit rows for one dataset, most recent first.
func (db *DB) ImportRuns(datasetID int64) ([]ImportRun, error) {
	rows, err := db.Query(
		`SELECT run_id, dataset_id, started_at, finished_at, images, categories, annotations
		 FROM import_run WHERE dataset_id = ? ORDER BY started_at DESC`,
		datasetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		if err := rows.Scan(
			&r.RunID, &r.DatasetID, &r.StartedAt, &r.FinishedAt,
			&r.Images, &r.Categories, &r.Annotations,
		); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
