// Package voc imports a PASCAL VOC directory tree (Annotations XML files
// plus ImageSets split lists) into the unified store.
package voc

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer"
)

// splitOrder is the priority order for split membership: an image id
// listed in more than one split file keeps the first split seen.
var splitOrder = []string{"train", "val", "test"}

// defaultSplit is assigned to images that appear in no split file at
// all. Deliberate policy: dropping such images silently would be worse.
const defaultSplit = "train"

// Importer walks a VOC dataset root (the directory containing
// Annotations/, JPEGImages/ and ImageSets/Main/).
type Importer struct {
	db   *db.DB
	fs   fsutil.FileSystem
	root string
}

func New(database *db.DB, fs fsutil.FileSystem, root string) *Importer {
	return &Importer{db: database, fs: fs, root: root}
}

// vocAnnotation mirrors one Annotations/<id>.xml document.
type vocAnnotation struct {
	XMLName xml.Name `xml:"annotation"`
	Size    struct {
		Width  int `xml:"width"`
		Height int `xml:"height"`
	} `xml:"size"`
	Objects []vocObject `xml:"object"`
}

// vocObject is one annotated object. Truncated, difficult and pose are
// optional in the wild; the zero values match their VOC defaults.
type vocObject struct {
	Name      string `xml:"name"`
	Pose      string `xml:"pose"`
	Truncated int    `xml:"truncated"`
	Difficult int    `xml:"difficult"`
	Bndbox    struct {
		// Corner coordinates occasionally appear as "12.0"; parse as
		// float and truncate like everyone else does with VOC.
		Xmin float64 `xml:"xmin"`
		Ymin float64 `xml:"ymin"`
		Xmax float64 `xml:"xmax"`
		Ymax float64 `xml:"ymax"`
	} `xml:"bndbox"`
}

// Run imports the whole VOC tree in one transaction.
func (imp *Importer) Run() (*importer.Summary, error) {
	startedAt := time.Now().UTC()

	annotationsDir := filepath.Join(imp.root, "Annotations")
	imagesDir := filepath.Join(imp.root, "JPEGImages")
	if err := importer.CheckInputs(imp.fs, imp.root, annotationsDir, imagesDir); err != nil {
		return nil, err
	}

	dataset, err := imp.db.DatasetByName(db.DatasetVOC2007)
	if err != nil {
		return nil, err
	}
	log.Printf("Using dataset_id=%d for %s.", dataset.ID, dataset.Name)

	idToSplit, err := imp.loadSplitLists()
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d image ids with split info.", len(idToSplit))

	entries, err := imp.fs.ReadDir(annotationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", annotationsDir, err)
	}

	summary := &importer.Summary{Dataset: dataset.Name}
	categoryPKs := make(map[string]int64) // class name -> Category PK

	tx, err := imp.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}
		imgID := strings.TrimSuffix(entry.Name(), ".xml")

		doc, err := imp.parseAnnotationXML(filepath.Join(annotationsDir, entry.Name()))
		if err != nil {
			return nil, err
		}

		split, ok := idToSplit[imgID]
		if !ok {
			split = defaultSplit
		}

		width, height := doc.Size.Width, doc.Size.Height
		imagePath := filepath.Join(imagesDir, imgID+".jpg")
		img := &db.Image{
			DatasetID:  dataset.ID,
			ExternalID: imgID,
			Width:      &width,
			Height:     &height,
			FilePath:   &imagePath,
			Split:      split,
		}
		if err := db.InsertImage(tx, img); err != nil {
			return nil, err
		}
		summary.Images++

		for _, obj := range doc.Objects {
			categoryPK, ok := categoryPKs[obj.Name]
			if !ok {
				// VOC has no numeric category ids; the class name doubles
				// as the external id.
				row := &db.Category{
					DatasetID:  dataset.ID,
					Name:       obj.Name,
					ExternalID: obj.Name,
				}
				if err := db.InsertCategory(tx, row); err != nil {
					return nil, err
				}
				categoryPKs[obj.Name] = row.ID
				categoryPK = row.ID
			}

			xmin := float64(int(obj.Bndbox.Xmin))
			ymin := float64(int(obj.Bndbox.Ymin))
			xmax := float64(int(obj.Bndbox.Xmax))
			ymax := float64(int(obj.Bndbox.Ymax))
			boxWidth := xmax - xmin
			boxHeight := ymax - ymin

			difficulty := obj.Difficult
			sourceInfo := fmt.Sprintf("truncated=%d;pose=%s", obj.Truncated, obj.Pose)
			ann := &db.Annotation{
				ImageID:    img.ID,
				CategoryID: categoryPK,
				BBoxXMin:   xmin,
				BBoxYMin:   ymin,
				BBoxWidth:  boxWidth,
				BBoxHeight: boxHeight,
				Area:       boxWidth * boxHeight,
				Difficulty: &difficulty,
				SourceInfo: &sourceInfo,
			}
			if err := db.InsertAnnotation(tx, ann); err != nil {
				return nil, err
			}
			summary.Annotations++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	summary.Categories = len(categoryPKs)

	if err := importer.RecordRun(imp.db, dataset.ID, startedAt, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// loadSplitLists reads ImageSets/Main/{train,val,test}.txt into an
// image-id -> split mapping, first split wins. A missing split file is a
// warning, not an error.
func (imp *Importer) loadSplitLists() (map[string]string, error) {
	idToSplit := make(map[string]string)

	for _, split := range splitOrder {
		path := filepath.Join(imp.root, "ImageSets", "Main", split+".txt")
		if !imp.fs.Exists(path) {
			log.Printf("[WARN] Missing split file: %s (skipping %s)", path, split)
			continue
		}

		f, err := imp.fs.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			imgID := strings.TrimSpace(scanner.Text())
			if imgID == "" {
				continue
			}
			if _, ok := idToSplit[imgID]; !ok {
				idToSplit[imgID] = split
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return idToSplit, nil
}

func (imp *Importer) parseAnnotationXML(path string) (*vocAnnotation, error) {
	raw, err := imp.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc vocAnnotation
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &doc, nil
}
