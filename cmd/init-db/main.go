// init-db creates the unified annotation store's schema and seeds the
// canonical Dataset rows. With the 'migrate' subcommand it drives the
// versioned DDL layer instead.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
)

func main() {
	var dbPath string
	flag.StringVar(&dbPath, "db", "cv_datasets.db", "path to sqlite store")
	flag.Parse()

	fmt.Printf("Creating database at: %s\n", dbPath)
	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	if args := flag.Args(); len(args) > 0 && args[0] == "migrate" {
		db.RunMigrateCommand(database, args[1:])
		return
	}

	if err := database.Init(); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}
	fmt.Println("Database schema created successfully!")

	if err := database.SeedDatasets(); err != nil {
		log.Fatalf("dataset seed failed: %v", err)
	}
	fmt.Println("Dataset table seeded!")
}
