package db

import "fmt"

// Category is one distinct class label within a dataset, created lazily
// the first time an importer encounters the label. For COCO and
// OpenImages (dataset_id, external_id) identifies a category; VOC has no
// external category ids, so there external_id carries the class name.
type Category struct {
	ID            int64   `json:"category_id"`
	DatasetID     int64   `json:"dataset_id"`
	Name          string  `json:"name"`
	Supercategory *string `json:"supercategory"`
	ExternalID    string  `json:"external_id"`
}

// InsertCategory inserts a category row and writes the generated primary
// key back into c.ID.
func InsertCategory(e Execer, c *Category) error {
	result, err := e.Exec(
		`INSERT INTO Category (dataset_id, name, supercategory, external_id)
		 VALUES (?, ?, ?, ?)`,
		c.DatasetID, c.Name, c.Supercategory, c.ExternalID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category %q: %w", c.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	c.ID = id
	return nil
}
