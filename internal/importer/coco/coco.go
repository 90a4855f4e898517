// Package coco imports COCO instance-annotation JSON files into the
// unified store.
package coco

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer"
)

// Importer reads COCO annotation files (one per split) and maps their
// categories, images and annotations into the unified schema.
type Importer struct {
	db     *db.DB
	fs     fsutil.FileSystem
	splits []importer.SplitFile
}

func New(database *db.DB, fs fsutil.FileSystem, splits []importer.SplitFile) *Importer {
	return &Importer{db: database, fs: fs, splits: splits}
}

// cocoFile is the subset of a COCO instances JSON document we consume.
type cocoFile struct {
	Categories  []cocoCategory   `json:"categories"`
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
}

type cocoCategory struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

type cocoImage struct {
	ID     int64 `json:"id"`
	Width  int   `json:"width"`
	Height int   `json:"height"`
}

type cocoAnnotation struct {
	ImageID    int64     `json:"image_id"`
	CategoryID int64     `json:"category_id"`
	BBox       []float64 `json:"bbox"` // [xmin, ymin, width, height]
	Area       *float64  `json:"area"`
	IsCrowd    *int      `json:"iscrowd"`
}

// Run imports all configured split files. Each split file is one
// all-or-nothing transaction; the category cache spans the whole run so
// a category appearing in several splits is inserted only once.
func (imp *Importer) Run() (*importer.Summary, error) {
	startedAt := time.Now().UTC()

	paths := make([]string, 0, len(imp.splits))
	for _, sf := range imp.splits {
		paths = append(paths, sf.Path)
	}
	if err := importer.CheckInputs(imp.fs, paths...); err != nil {
		return nil, err
	}

	dataset, err := imp.db.DatasetByName(db.DatasetCOCO)
	if err != nil {
		return nil, err
	}
	log.Printf("Using dataset_id=%d for %s.", dataset.ID, dataset.Name)

	summary := &importer.Summary{Dataset: dataset.Name}
	categoryPKs := make(map[int64]int64) // COCO category id -> Category PK

	for _, sf := range imp.splits {
		log.Printf("Processing %s...", sf.Path)
		if err := imp.importSplit(sf, dataset.ID, categoryPKs, summary); err != nil {
			return nil, fmt.Errorf("split %s: %w", sf.Split, err)
		}
	}
	summary.Categories = len(categoryPKs)

	if err := importer.RecordRun(imp.db, dataset.ID, startedAt, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (imp *Importer) importSplit(sf importer.SplitFile, datasetID int64, categoryPKs map[int64]int64, summary *importer.Summary) error {
	raw, err := imp.fs.ReadFile(sf.Path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", sf.Path, err)
	}

	var doc cocoFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", sf.Path, err)
	}

	tx, err := imp.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, cat := range doc.Categories {
		if _, ok := categoryPKs[cat.ID]; ok {
			continue
		}
		super := cat.Supercategory
		row := &db.Category{
			DatasetID:     datasetID,
			Name:          cat.Name,
			Supercategory: &super,
			ExternalID:    fmt.Sprintf("%d", cat.ID),
		}
		if err := db.InsertCategory(tx, row); err != nil {
			return err
		}
		categoryPKs[cat.ID] = row.ID
	}

	// Image PKs are per split file: COCO image ids are only referenced by
	// annotations in the same file.
	imagePKs := make(map[int64]int64)
	for _, img := range doc.Images {
		width, height := img.Width, img.Height
		row := &db.Image{
			DatasetID:  datasetID,
			ExternalID: fmt.Sprintf("%d", img.ID),
			Width:      &width,
			Height:     &height,
			Split:      sf.Split,
		}
		if err := db.InsertImage(tx, row); err != nil {
			return err
		}
		imagePKs[img.ID] = row.ID
		summary.Images++
	}

	for i, ann := range doc.Annotations {
		imagePK, ok := imagePKs[ann.ImageID]
		if !ok {
			return fmt.Errorf("annotation %d references unknown image id %d", i, ann.ImageID)
		}
		categoryPK, ok := categoryPKs[ann.CategoryID]
		if !ok {
			return fmt.Errorf("annotation %d references unknown category id %d", i, ann.CategoryID)
		}
		if len(ann.BBox) != 4 {
			return fmt.Errorf("annotation %d has malformed bbox %v", i, ann.BBox)
		}

		area := ann.BBox[2] * ann.BBox[3]
		if ann.Area != nil {
			area = *ann.Area
		}
		row := &db.Annotation{
			ImageID:    imagePK,
			CategoryID: categoryPK,
			BBoxXMin:   ann.BBox[0],
			BBoxYMin:   ann.BBox[1],
			BBoxWidth:  ann.BBox[2],
			BBoxHeight: ann.BBox[3],
			Area:       area,
			IsCrowd:    ann.IsCrowd,
		}
		if err := db.InsertAnnotation(tx, row); err != nil {
			return err
		}
		summary.Annotations++
	}

	return tx.Commit()
}
