// import-coco loads COCO instance-annotation JSON files (train and val
// splits) into the unified annotation store.
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
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer/coco"
)

func main() {
	var dbPath string
	var dataDir string
	flag.StringVar(&dbPath, "db", "cv_datasets.db", "path to sqlite store")
	flag.StringVar(&dataDir, "data", filepath.Join("data", "COCO"), "directory containing COCO annotation JSON files")
	flag.Parse()

	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	splits := []importer.SplitFile{
		{Split: "train", Path: filepath.Join(dataDir, "instances_train2017.json")},
		{Split: "val", Path: filepath.Join(dataDir, "instances_val2017.json")},
	}

	summary, err := coco.New(database, fsutil.OSFileSystem{}, splits).Run()
	if err != nil {
		if errors.Is(err, db.ErrDatasetNotFound) {
			log.Fatalf("%v (run init-db first to seed the Dataset table)", err)
		}
		log.Fatalf("import failed: %v", err)
	}
	fmt.Println(summary)
}
