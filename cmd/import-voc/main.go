// import-voc loads a PASCAL VOC 2007 directory tree (Annotations XML
// files plus ImageSets split lists) into the unified annotation store.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/fsutil"
	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/importer/voc"
)

func main() {
	var dbPath string
	var dataDir string
	flag.StringVar(&dbPath, "db", "cv_datasets.db", "path to sqlite store")
	flag.StringVar(&dataDir, "data", filepath.Join("data", "voc", "VOC2007"), "VOC2007 dataset root")
	flag.Parse()

	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	summary, err := voc.New(database, fsutil.OSFileSystem{}, dataDir).Run()
	if err != nil {
		if errors.Is(err, db.ErrDatasetNotFound) {
			log.Fatalf("%v (run init-db first to seed the Dataset table)", err)
		}
		log.Fatalf("import failed: %v", err)
	}
	fmt.Println(summary)
}
