// Package openimages imports an OpenImages boxable subset (class
// descriptions, per-split image-info CSVs and per-split bbox CSVs) into
// the unified store.
package openimages

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer"
)

// Accepted spellings of the image-id column in image-info CSVs.
var imageIDColumns = []string{"ImageID", "ImageId", "image_id", "imageID"}

// Config holds the input layout for one run. ImageInfoFiles and BoxFiles
// are processed in slice order; the canonical order is train,
// validation, test, which biases image selection toward earlier splits
// when TargetImageCount is small.
type Config struct {
	ClassDescriptionsPath string
	ImageInfoFiles        []importer.SplitFile
	BoxFiles              []importer.SplitFile
	TargetImageCount      int
}

type Importer struct {
	db  *db.DB
	fs  fsutil.FileSystem
	cfg Config
}

func New(database *db.DB, fs fsutil.FileSystem, cfg Config) *Importer {
	return &Importer{db: database, fs: fs, cfg: cfg}
}

// pickedImage is one selected image, in selection order.
type pickedImage struct {
	ID    string
	Split string
	URL   string
}

// Run imports the configured subset. Image insertion and annotation
// insertion are two independent transactional phases.
func (imp *Importer) Run() (*importer.Summary, error) {
	startedAt := time.Now().UTC()

	paths := []string{imp.cfg.ClassDescriptionsPath}
	for _, sf := range imp.cfg.ImageInfoFiles {
		paths = append(paths, sf.Path)
	}
	for _, sf := range imp.cfg.BoxFiles {
		paths = append(paths, sf.Path)
	}
	if err := importer.CheckInputs(imp.fs, paths...); err != nil {
		return nil, err
	}

	log.Printf("Reading class descriptions...")
	classNames, err := readClassNames(imp.fs, imp.cfg.ClassDescriptionsPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d class names.", len(classNames))

	log.Printf("Selecting up to %d images...", imp.cfg.TargetImageCount)
	picked, err := imp.selectImages()
	if err != nil {
		return nil, err
	}
	log.Printf("Selected %d images.", len(picked))

	dataset, err := imp.db.DatasetByName(db.DatasetOpenImages)
	if err != nil {
		return nil, err
	}
	log.Printf("Using dataset_id=%d for %s.", dataset.ID, dataset.Name)

	summary := &importer.Summary{Dataset: dataset.Name}

	imagePKs, err := imp.insertImages(dataset.ID, picked)
	if err != nil {
		return nil, err
	}
	summary.Images = len(imagePKs)
	log.Printf("Inserted %d images.", summary.Images)

	if err := imp.insertAnnotations(dataset.ID, classNames, imagePKs, summary); err != nil {
		return nil, err
	}

	if err := importer.RecordRun(imp.db, dataset.ID, startedAt, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// readClassNames parses the class-description CSV into a label-id ->
// display-name mapping. The file may or may not carry a header row, and
// the header's column names vary between releases; a first row with any
// cell containing "label" or "display" (case-insensitive) is treated as
// a header, otherwise the first row is data.
func readClassNames(fsys fsutil.FileSystem, path string) (map[string]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	names := make(map[string]string)

	first, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return names, nil // empty file
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	headerLike := false
	for _, cell := range first {
		lower := strings.ToLower(cell)
		if strings.Contains(lower, "label") || strings.Contains(lower, "display") {
			headerLike = true
			break
		}
	}

	labelCol, displayCol := 0, 1
	if headerLike {
		labelCol, displayCol = -1, -1
		for i, cell := range first {
			switch strings.TrimSpace(cell) {
			case "LabelName", "LabelMID", "Label":
				labelCol = i
			case "DisplayName", "Display":
				displayCol = i
			}
		}
		if labelCol < 0 || displayCol < 0 {
			return nil, fmt.Errorf("unrecognized class-description header in %s: %v", path, first)
		}
	} else if len(first) >= 2 {
		// headerless: the first row was real data
		names[first[0]] = first[1]
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if len(row) <= labelCol || len(row) <= displayCol {
			continue
		}
		label, display := row[labelCol], row[displayCol]
		if label != "" && display != "" {
			names[label] = display
		}
	}
	return names, nil
}

// selectImages picks up to TargetImageCount distinct images across the
// image-info files in split order, first seen per id wins. The thumbnail
// URL is preferred over the original-resolution URL; rows with neither
// are skipped.
func (imp *Importer) selectImages() ([]pickedImage, error) {
	var picked []pickedImage
	seen := make(map[string]bool)

	for _, sf := range imp.cfg.ImageInfoFiles {
		if len(picked) >= imp.cfg.TargetImageCount {
			break
		}

		err := func() error {
			f, err := imp.fs.Open(sf.Path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", sf.Path, err)
			}
			defer f.Close()

			reader := csv.NewReader(f)
			reader.FieldsPerRecord = -1

			header, err := reader.Read()
			if err != nil {
				return fmt.Errorf("failed to read header of %s: %w", sf.Path, err)
			}
			cols := columnIndex(header)

			idCol := -1
			for _, candidate := range imageIDColumns {
				if i, ok := cols[candidate]; ok {
					idCol = i
					break
				}
			}
			if idCol < 0 {
				return fmt.Errorf("no ImageID-like column found in %s (columns: %v)", sf.Path, header)
			}
			thumbCol, hasThumb := cols["Thumbnail300KURL"]
			origCol, hasOrig := cols["OriginalURL"]

			for len(picked) < imp.cfg.TargetImageCount {
				row, err := reader.Read()
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", sf.Path, err)
				}
				if len(row) <= idCol {
					continue
				}
				imgID := row[idCol]
				if imgID == "" || seen[imgID] {
					continue
				}

				url := ""
				if hasThumb && thumbCol < len(row) {
					url = row[thumbCol]
				}
				if url == "" && hasOrig && origCol < len(row) {
					url = row[origCol]
				}
				if url == "" {
					continue
				}

				seen[imgID] = true
				picked = append(picked, pickedImage{ID: imgID, Split: sf.Split, URL: url})
			}
			return nil
		}()
		if err != nil {
			return nil, err
		}
	}
	return picked, nil
}

// insertImages is the first transactional phase: one Image row per
// selected image. Width and height are unknown from these CSVs and stay
// NULL; the chosen URL goes into file_path.
func (imp *Importer) insertImages(datasetID int64, picked []pickedImage) (map[string]int64, error) {
	tx, err := imp.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	imagePKs := make(map[string]int64, len(picked))
	for _, p := range picked {
		url := p.URL
		img := &db.Image{
			DatasetID:  datasetID,
			ExternalID: p.ID,
			FilePath:   &url,
			Split:      p.Split,
		}
		if err := db.InsertImage(tx, img); err != nil {
			return nil, err
		}
		imagePKs[p.ID] = img.ID
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit images: %w", err)
	}
	return imagePKs, nil
}

// insertAnnotations is the second transactional phase: stream every bbox
// row across all splits, skip rows for unselected images, lazily create
// categories keyed by label id.
func (imp *Importer) insertAnnotations(datasetID int64, classNames map[string]string, imagePKs map[string]int64, summary *importer.Summary) error {
	tx, err := imp.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	categoryPKs := make(map[string]int64) // label id -> Category PK

	log.Printf("Inserting Category and Annotation rows...")
	for _, sf := range imp.cfg.BoxFiles {
		if err := imp.importBoxFile(tx, sf, datasetID, classNames, imagePKs, categoryPKs, summary); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit annotations: %w", err)
	}
	summary.Categories = len(categoryPKs)
	return nil
}

func (imp *Importer) importBoxFile(tx db.Execer, sf importer.SplitFile, datasetID int64, classNames map[string]string, imagePKs, categoryPKs map[string]int64, summary *importer.Summary) error {
	f, err := imp.fs.Open(sf.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", sf.Path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", sf.Path, err)
	}
	cols := columnIndex(header)

	required := []string{"ImageID", "LabelName", "XMin", "XMax", "YMin", "YMax"}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return fmt.Errorf("missing column %s in %s (columns: %v)", name, sf.Path, header)
		}
	}
	flagCols := []string{"IsOccluded", "IsTruncated", "IsGroupOf", "IsDepiction", "IsInside"}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", sf.Path, err)
		}

		cell := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		imagePK, ok := imagePKs[cell("ImageID")]
		if !ok {
			continue // image not selected this run
		}

		labelID := cell("LabelName")
		categoryPK, ok := categoryPKs[labelID]
		if !ok {
			displayName, found := classNames[labelID]
			if !found {
				displayName = labelID // no display name, keep the raw MID
			}
			cat := &db.Category{
				DatasetID:  datasetID,
				Name:       displayName,
				ExternalID: labelID,
			}
			if err := db.InsertCategory(tx, cat); err != nil {
				return err
			}
			categoryPKs[labelID] = cat.ID
			categoryPK = cat.ID
		}

		// Boxes arrive normalized to [0,1] as corner pairs.
		xmin, err := parseCoord(cell("XMin"), sf.Path, line)
		if err != nil {
			return err
		}
		xmax, err := parseCoord(cell("XMax"), sf.Path, line)
		if err != nil {
			return err
		}
		ymin, err := parseCoord(cell("YMin"), sf.Path, line)
		if err != nil {
			return err
		}
		ymax, err := parseCoord(cell("YMax"), sf.Path, line)
		if err != nil {
			return err
		}

		boxWidth := xmax - xmin
		boxHeight := ymax - ymin

		flags := make([]string, 0, len(flagCols))
		for _, name := range flagCols {
			flags = append(flags, name+"="+cell(name))
		}
		sourceInfo := strings.Join(flags, ";")

		ann := &db.Annotation{
			ImageID:    imagePK,
			CategoryID: categoryPK,
			BBoxXMin:   xmin,
			BBoxYMin:   ymin,
			BBoxWidth:  boxWidth,
			BBoxHeight: boxHeight,
			Area:       boxWidth * boxHeight,
			SourceInfo: &sourceInfo,
		}
		if err := db.InsertAnnotation(tx, ann); err != nil {
			return err
		}
		summary.Annotations++
	}
	return nil
}

func parseCoord(s, path string, line int) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed coordinate %q at %s line %d: %w", s, path, line, err)
	}
	return v, nil
}

// columnIndex maps trimmed header names to their positions.
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}
