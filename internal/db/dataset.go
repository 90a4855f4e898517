package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// Dataset identifies one source corpus. Rows are seeded once by init-db
// and are immutable afterwards; importers only ever look them up by name.
type Dataset struct {
	ID          int64  `json:"dataset_id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Canonical dataset names referenced by the importers.
const (
	DatasetCOCO       = "COCO"
	DatasetVOC2007    = "VOC2007"
	DatasetOpenImages = "OpenImagesV7"
)

// ErrDatasetNotFound is returned when a dataset name has no row, which
// means init-db has not been run against this store.
var ErrDatasetNotFound = errors.New("dataset not found")

var seedDatasets = []Dataset{
	{Name: DatasetCOCO, Version: "2017", Description: "COCO 2017 detection dataset"},
	{Name: DatasetVOC2007, Version: "2007", Description: "PASCAL VOC 2007 dataset"},
	{Name: DatasetOpenImages, Version: "v7", Description: "OpenImages v7 boxable subset"},
}

// SeedDatasets inserts the three canonical Dataset rows, skipping any
// that already exist (keyed on the name UNIQUE constraint). Safe to run
// repeatedly.
func (db *DB) SeedDatasets() error {
	for _, d := range seedDatasets {
		_, err := db.Exec(
			`INSERT OR IGNORE INTO Dataset (name, version, description) VALUES (?, ?, ?)`,
			d.Name, d.Version, d.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to seed dataset %s: %w", d.Name, err)
		}
	}
	return nil
}

// DatasetByName resolves a dataset's primary key by its unique name.
func (db *DB) DatasetByName(name string) (*Dataset, error) {
	var d Dataset
	err := db.QueryRow(
		`SELECT dataset_id, name, version, description FROM Dataset WHERE name = ?`,
		name,
	).Scan(&d.ID, &d.Name, &d.Version, &d.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dataset %q: %w", name, ErrDatasetNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up dataset %q: %w", name, err)
	}
	return &d, nil
}
