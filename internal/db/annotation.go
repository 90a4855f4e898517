package db

import "fmt"

// Annotation is one object instance on an image. The box is uniformly
// (xmin, ymin, width, height) in the source's native units. IsCrowd is
// COCO-only, Difficulty is VOC-only; SourceInfo carries format-specific
// flags as free text.
type Annotation struct {
	ID         int64   `json:"annotation_id"`
	ImageID    int64   `json:"image_id"`
	CategoryID int64   `json:"category_id"`
	BBoxXMin   float64 `json:"bbox_xmin"`
	BBoxYMin   float64 `json:"bbox_ymin"`
	BBoxWidth  float64 `json:"bbox_width"`
	BBoxHeight float64 `json:"bbox_height"`
	Area       float64 `json:"area"`
	IsCrowd    *int    `json:"is_crowd"`
	Difficulty *int    `json:"difficulty"`
	SourceInfo *string `json:"source_info"`
}

// InsertAnnotation inserts an annotation row and writes the generated
// primary key back into a.ID. Rows are never updated after insertion.
func InsertAnnotation(e Execer, a *Annotation) error {
	result, err := e.Exec(
		`INSERT INTO Annotation
		   (image_id, category_id,
		    bbox_xmin, bbox_ymin, bbox_width, bbox_height,
		    area, is_crowd, difficulty, source_info)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ImageID, a.CategoryID,
		a.BBoxXMin, a.BBoxYMin, a.BBoxWidth, a.BBoxHeight,
		a.Area, a.IsCrowd, a.Difficulty, a.SourceInfo,
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	a.ID = id
	return nil
}
