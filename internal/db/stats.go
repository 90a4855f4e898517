package db

import "fmt"

// DatasetStats summarizes one dataset's row counts for reporting.
type DatasetStats struct {
	Dataset     string `json:"dataset"`
	Images      int    `json:"images"`
	Categories  int    `json:"categories"`
	Annotations int    `json:"annotations"`
}

// StatsByDataset returns per-dataset image/category/annotation counts in
// dataset name order. Datasets with no imported rows still appear, with
// zero counts.
func (db *DB) StatsByDataset() ([]DatasetStats, error) {
	rows, err := db.Query(`
		SELECT d.name,
		       (SELECT COUNT(*) FROM Image i WHERE i.dataset_id = d.dataset_id),
		       (SELECT COUNT(*) FROM Category c WHERE c.dataset_id = d.dataset_id),
		       (SELECT COUNT(*) FROM Annotation a
		          JOIN Image i ON a.image_id = i.image_id
		         WHERE i.dataset_id = d.dataset_id)
		FROM Dataset d
		ORDER BY d.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset stats: %w", err)
	}
	defer rows.Close()

	var stats []DatasetStats
	for rows.Next() {
		var s DatasetStats
		if err := rows.Scan(&s.Dataset, &s.Images, &s.Categories, &s.Annotations); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CategoryCount pairs a category name with its annotation count.
type CategoryCount struct {
	Name        string `json:"name"`
	Annotations int    `json:"annotations"`
}

// TopCategories returns the categories of one dataset with the most
// annotations, descending, capped at limit.
func (db *DB) TopCategories(datasetID int64, limit int) ([]CategoryCount, error) {
	rows, err := db.Query(`
		SELECT c.name, COUNT(a.annotation_id) AS n
		FROM Category c
		LEFT JOIN Annotation a ON a.category_id = c.category_id
		WHERE c.dataset_id = ?
		GROUP BY c.category_id
		ORDER BY n DESC, c.name ASC
		LIMIT ?`,
		datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	defer rows.Close()

	var counts []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Name, &c.Annotations); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
