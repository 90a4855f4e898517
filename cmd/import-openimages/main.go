// import-openimages loads an OpenImages v7 boxable subset (class
// descriptions, per-split image-info CSVs and per-split bbox CSVs) into
// the unified annotation store. Image selection is capped at -target
// images across the splits combined.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer/openimages"
)

func main() {
	var dbPath string
	var dataDir string
	var target int
	flag.StringVar(&dbPath, "db", "cv_datasets.db", "path to sqlite store")
	flag.StringVar(&dataDir, "data", filepath.Join("data", "Openimages"), "directory containing the OpenImages CSV files")
	flag.IntVar(&target, "target", 17125, "maximum number of images to select across all splits")
	flag.Parse()

	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	cfg := openimages.Config{
		ClassDescriptionsPath: filepath.Join(dataDir, "oidv7-class-descriptions-boxable.csv"),
		ImageInfoFiles: []importer.SplitFile{
			{Split: "train", Path: filepath.Join(dataDir, "train-images-boxable-with-rotation.csv")},
			{Split: "validation", Path: filepath.Join(dataDir, "validation-images-with-rotation.csv")},
			{Split: "test", Path: filepath.Join(dataDir, "test-images-with-rotation.csv")},
		},
		BoxFiles: []importer.SplitFile{
			{Split: "train", Path: filepath.Join(dataDir, "train-annotations-bbox.csv")},
			{Split: "validation", Path: filepath.Join(dataDir, "validation-annotations-bbox.csv")},
			{Split: "test", Path: filepath.Join(dataDir, "test-annotations-bbox.csv")},
		},
		TargetImageCount: target,
	}

	summary, err := openimages.New(database, fsutil.OSFileSystem{}, cfg).Run()
	if err != nil {
		if errors.Is(err, db.ErrDatasetNotFound) {
			log.Fatalf("%v (run init-db first to seed the Dataset table)", err)
		}
		log.Fatalf("import failed: %v", err)
	}
	fmt.Println(summary)
}
