package db

import "fmt"

// Image is one source image. ExternalID is the source format's own
// identifier (COCO numeric id as string, VOC filename stem, OpenImages
// opaque id); it is unique within a dataset but not globally. Width,
// height and file path are nullable because not every source carries
// them.
type Image struct {
	ID         int64   `json:"image_id"`
	DatasetID  int64   `json:"dataset_id"`
	ExternalID string  `json:"external_id"`
	Width      *int    `json:"width"`
	Height     *int    `json:"height"`
	FilePath   *string `json:"file_path"`
	Split      string  `json:"split"`
}

// InsertImage inserts an image row and writes the generated primary key
// back into img.ID.
func InsertImage(e Execer, img *Image) error {
	result, err := e.Exec(
		`INSERT INTO Image (dataset_id, external_id, width, height, file_path, split)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		img.DatasetID, img.ExternalID, img.Width, img.Height, img.FilePath, img.Split,
	)
	if err != nil {
		return fmt.Errorf("failed to insert image %q: %w", img.ExternalID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	img.ID = id
	return nil
}
